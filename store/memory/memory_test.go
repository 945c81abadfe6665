package memory_test

import (
	"testing"

	"github.com/warp/pension-engine/pension"
	"github.com/warp/pension-engine/store/memory"
	"github.com/warp/pension-engine/store/storetest"
)

func TestMemoryStore(t *testing.T) {
	storetest.Run(t, func(t *testing.T) pension.TxStore {
		return memory.New()
	})
}
