/*
Package generic provides the domain-agnostic primitives of the pension engine.

PURPOSE:
  This package contains the value types every other package builds on:
  account identities and integer money amounts. Nothing here knows about
  pensioners, roles, or payouts.

KEY CONCEPTS IN THIS FILE (types.go):
  - AccountID: A fixed-size (32 byte) opaque identity, the key for everything
  - Amount: A non-negative quantity in the smallest currency unit

DESIGN PRINCIPLES:
  1. Integer money: Amounts are uint64 smallest units, never floats
  2. No wrapping: Every operation saturates instead of overflowing
  3. Floor division: Any division truncates toward zero, so value is never created
  4. Determinism: No operation depends on time, randomness, or map order

USAGE:
  salary := generic.Amount(60000)
  base := salary.Div(100).SaturatingMul(20).SaturatingMul(2)   // 24000
  tax := base.MulDivFloor(10, 100)                            // 2400

  alice := generic.DeriveAccountID("alice")
  id, err := generic.ParseAccountID("0x" + strings.Repeat("ab", 32))

SEE ALSO:
  - errors.go: Infrastructure error sentinels
  - audit.go: Audit entries written by the transport layer
*/
package generic

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"math"
	"math/bits"
	"strconv"
	"strings"
)

// =============================================================================
// ACCOUNT ID - Opaque fixed-size identity
// =============================================================================

// AccountIDLen is the size of an AccountID in bytes.
const AccountIDLen = 32

// AccountID identifies any actor: the owner, a company, a bank, a tax office,
// a pensioner, or a spouse beneficiary. The execution environment asserts the
// caller's AccountID for every operation.
type AccountID [AccountIDLen]byte

// ParseAccountID parses the canonical text form: "0x" followed by 64 hex chars.
// The "0x" prefix is optional and hex digits are case-insensitive.
func ParseAccountID(s string) (AccountID, error) {
	var id AccountID
	raw := strings.TrimPrefix(strings.TrimPrefix(s, "0x"), "0X")
	if len(raw) != AccountIDLen*2 {
		return id, fmt.Errorf("invalid account id %q: want %d hex chars, got %d", s, AccountIDLen*2, len(raw))
	}
	if _, err := hex.Decode(id[:], []byte(raw)); err != nil {
		return id, fmt.Errorf("invalid account id %q: %w", s, err)
	}
	return id, nil
}

// MustAccountID is ParseAccountID for constants and tests. Panics on bad input.
func MustAccountID(s string) AccountID {
	id, err := ParseAccountID(s)
	if err != nil {
		panic(err)
	}
	return id
}

// DeriveAccountID maps a human-readable name to a stable identity (SHA-256 of
// the name). Scenarios and the CLI use it for named actors like "alice".
func DeriveAccountID(name string) AccountID {
	return AccountID(sha256.Sum256([]byte(name)))
}

// String returns the canonical "0x..." lowercase hex form.
func (id AccountID) String() string {
	return "0x" + hex.EncodeToString(id[:])
}

// Short returns an abbreviated form for log lines.
func (id AccountID) Short() string {
	s := hex.EncodeToString(id[:])
	return "0x" + s[:8] + ".." + s[len(s)-4:]
}

// IsZero reports whether id is the all-zero identity.
func (id AccountID) IsZero() bool { return id == AccountID{} }

func (id AccountID) MarshalText() ([]byte, error) { return []byte(id.String()), nil }

func (id *AccountID) UnmarshalText(b []byte) error {
	parsed, err := ParseAccountID(string(b))
	if err != nil {
		return err
	}
	*id = parsed
	return nil
}

// =============================================================================
// AMOUNT - Smallest currency unit, saturating arithmetic
// =============================================================================

// Amount is a non-negative quantity of the smallest currency unit.
type Amount uint64

// MaxAmount is the representable maximum; saturating operations clamp here.
const MaxAmount = Amount(math.MaxUint64)

// ParseAmount parses a base-10 unsigned integer.
func ParseAmount(s string) (Amount, error) {
	v, err := strconv.ParseUint(strings.TrimSpace(s), 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid amount %q: %w", s, err)
	}
	return Amount(v), nil
}

func (a Amount) String() string { return strconv.FormatUint(uint64(a), 10) }

func (a Amount) IsZero() bool { return a == 0 }

// SaturatingAdd returns a+b, clamped to MaxAmount.
func (a Amount) SaturatingAdd(b Amount) Amount {
	sum, carry := bits.Add64(uint64(a), uint64(b), 0)
	if carry != 0 {
		return MaxAmount
	}
	return Amount(sum)
}

// SaturatingSub returns a-b, clamped to zero.
func (a Amount) SaturatingSub(b Amount) Amount {
	if b > a {
		return 0
	}
	return a - b
}

// SaturatingMul returns a*n, clamped to MaxAmount.
func (a Amount) SaturatingMul(n uint64) Amount {
	hi, lo := bits.Mul64(uint64(a), n)
	if hi != 0 {
		return MaxAmount
	}
	return Amount(lo)
}

// Div returns floor(a/d). Division by zero yields zero.
func (a Amount) Div(d uint64) Amount {
	if d == 0 {
		return 0
	}
	return a / Amount(d)
}

// MulDivFloor returns floor(a*num/den) computed exactly with a 128-bit
// intermediate. It saturates only when the true quotient exceeds MaxAmount.
// Division by zero yields zero.
func (a Amount) MulDivFloor(num, den uint64) Amount {
	if den == 0 {
		return 0
	}
	hi, lo := bits.Mul64(uint64(a), num)
	if hi >= den {
		return MaxAmount
	}
	q, _ := bits.Div64(hi, lo, den)
	return Amount(q)
}

// Sum adds amounts left to right with saturation.
func Sum(amounts ...Amount) Amount {
	var total Amount
	for _, a := range amounts {
		total = total.SaturatingAdd(a)
	}
	return total
}
