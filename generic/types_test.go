package generic_test

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/warp/pension-engine/generic"
)

// =============================================================================
// ACCOUNT IDS
// =============================================================================

func TestAccountID_ParseRoundTrip(t *testing.T) {
	id := generic.DeriveAccountID("alice")
	s := id.String()

	if !strings.HasPrefix(s, "0x") || len(s) != 2+generic.AccountIDLen*2 {
		t.Fatalf("unexpected canonical form %q", s)
	}
	parsed, err := generic.ParseAccountID(s)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if parsed != id {
		t.Errorf("expected %s, got %s", id, parsed)
	}

	// Upper-case hex and a missing prefix are accepted.
	upper, err := generic.ParseAccountID(strings.ToUpper(s[2:]))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if upper != id {
		t.Errorf("expected %s, got %s", id, upper)
	}
}

func TestAccountID_ParseRejects(t *testing.T) {
	for _, in := range []string{"", "0x", "0x1234", "0x" + strings.Repeat("zz", generic.AccountIDLen)} {
		if _, err := generic.ParseAccountID(in); err == nil {
			t.Errorf("ParseAccountID(%q): expected error", in)
		}
	}
}

func TestAccountID_DeriveIsStable(t *testing.T) {
	if generic.DeriveAccountID("bob") != generic.DeriveAccountID("bob") {
		t.Error("derivation is not stable")
	}
	if generic.DeriveAccountID("bob") == generic.DeriveAccountID("carol") {
		t.Error("distinct names derived the same identity")
	}
	if !(generic.AccountID{}).IsZero() || generic.DeriveAccountID("bob").IsZero() {
		t.Error("IsZero mismatch")
	}
}

func TestAccountID_JSON(t *testing.T) {
	id := generic.DeriveAccountID("alice")
	data, err := json.Marshal(map[string]generic.AccountID{"id": id})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if want := fmt.Sprintf(`{"id":%q}`, id.String()); string(data) != want {
		t.Errorf("expected %s, got %s", want, data)
	}

	var out struct{ ID generic.AccountID }
	if err := json.Unmarshal([]byte(`{"ID":"0x01"}`), &out); err == nil {
		t.Error("expected error decoding short id")
	}
}

// =============================================================================
// AMOUNT ARITHMETIC
// =============================================================================

func TestAmount_Saturating(t *testing.T) {
	tests := []struct {
		name string
		got  generic.Amount
		want generic.Amount
	}{
		{"add", generic.Amount(2).SaturatingAdd(3), 5},
		{"add overflow", generic.MaxAmount.SaturatingAdd(1), generic.MaxAmount},
		{"sub", generic.Amount(5).SaturatingSub(3), 2},
		{"sub underflow", generic.Amount(3).SaturatingSub(5), 0},
		{"mul", generic.Amount(600).SaturatingMul(20), 12000},
		{"mul overflow", generic.MaxAmount.SaturatingMul(2), generic.MaxAmount},
		{"mul zero", generic.MaxAmount.SaturatingMul(0), 0},
		{"div floors", generic.Amount(199).Div(100), 1},
		{"div by zero", generic.Amount(199).Div(0), 0},
		{"sum", generic.Sum(1, 2, 3), 6},
		{"sum saturates", generic.Sum(generic.MaxAmount, 1, 2), generic.MaxAmount},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.got != tt.want {
				t.Errorf("expected %s, got %s", tt.want, tt.got)
			}
		})
	}
}

func TestAmount_MulDivFloor(t *testing.T) {
	// GIVEN: values whose product overflows 64 bits
	// WHEN: scaled by a percentage
	// THEN: the quotient is exact, not saturated

	big := generic.MaxAmount
	got := big.MulDivFloor(20, 100)
	if want := generic.Amount(uint64(generic.MaxAmount) / 5); got != want {
		t.Errorf("expected %s, got %s", want, got)
	}

	if got := generic.Amount(30600).MulDivFloor(20, 100); got != 6120 {
		t.Errorf("expected 6120, got %s", got)
	}
	if got := generic.Amount(99).MulDivFloor(10, 100); got != 9 {
		t.Errorf("expected truncation to 9, got %s", got)
	}
	if got := generic.Amount(7).MulDivFloor(3, 0); got != 0 {
		t.Errorf("expected 0 on zero denominator, got %s", got)
	}
	if got := big.MulDivFloor(3, 2); got != generic.MaxAmount {
		t.Errorf("expected saturation, got %s", got)
	}
}

func TestParseAmount(t *testing.T) {
	a, err := generic.ParseAmount(" 60000 ")
	if err != nil || a != 60000 {
		t.Fatalf("expected 60000, got %s (%v)", a, err)
	}
	for _, in := range []string{"-1", "1.5", "abc", "18446744073709551616"} {
		if _, err := generic.ParseAmount(in); err == nil {
			t.Errorf("ParseAmount(%q): expected error", in)
		}
	}
}

// =============================================================================
// ERRORS
// =============================================================================

func TestCorruptRecordError(t *testing.T) {
	cause := errors.New("bad hex")
	err := fmt.Errorf("load: %w", &generic.CorruptRecordError{Table: "pensioners", Key: "0xab", Err: cause})

	if !errors.Is(err, generic.ErrCorruptRecord) {
		t.Error("expected ErrCorruptRecord")
	}
	if !errors.Is(err, cause) {
		t.Error("expected cause to be reachable")
	}
	if !generic.IsInfrastructure(err) {
		t.Error("expected infrastructure error")
	}
	if generic.IsInfrastructure(errors.New("rejected")) {
		t.Error("plain error classified as infrastructure")
	}
}
