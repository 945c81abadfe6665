package scenario

import (
	"embed"
	"fmt"
	"path"
	"sort"
	"sync"
)

//go:embed builtin/*.yaml
var builtinFS embed.FS

var (
	builtinOnce sync.Once
	builtins    []*Scenario
	builtinErr  error
)

// Builtins returns the embedded scenarios ordered by ID.
func Builtins() ([]*Scenario, error) {
	builtinOnce.Do(func() {
		entries, err := builtinFS.ReadDir("builtin")
		if err != nil {
			builtinErr = err
			return
		}
		for _, entry := range entries {
			data, err := builtinFS.ReadFile(path.Join("builtin", entry.Name()))
			if err != nil {
				builtinErr = err
				return
			}
			sc, err := ParseBytes(data)
			if err != nil {
				builtinErr = fmt.Errorf("%s: %w", entry.Name(), err)
				return
			}
			builtins = append(builtins, sc)
		}
		sort.Slice(builtins, func(i, j int) bool { return builtins[i].ID < builtins[j].ID })
	})
	return builtins, builtinErr
}

// Lookup returns the embedded scenario with the given ID.
func Lookup(id string) (*Scenario, bool) {
	all, err := Builtins()
	if err != nil {
		return nil, false
	}
	for _, sc := range all {
		if sc.ID == id {
			return sc, true
		}
	}
	return nil, false
}
