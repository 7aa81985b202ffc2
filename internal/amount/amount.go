// Package amount converts between human-readable payment strings and the
// integer smallest-unit amounts the ledger stores.
//
// Accepted forms are a decimal number followed by an optional unit suffix:
//
//	42          42 wei
//	150gwei     150 * 10^9
//	0.1ether    10^17
//	0.1 ether   whitespace between number and unit is allowed
package amount

import (
	"errors"
	"fmt"
	"math"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/roach88/boxoffice/internal/ledger"
)

// Unit is a named power of ten.
type Unit struct {
	Name     string
	Exponent int32
}

// Units in descending size; Format picks the first that divides evenly.
var Units = []Unit{
	{Name: "ether", Exponent: 18},
	{Name: "gwei", Exponent: 9},
	{Name: "wei", Exponent: 0},
}

var (
	// ErrSyntax is returned for strings that are not a number with a known unit.
	ErrSyntax = errors.New("invalid amount")

	// ErrFractional is returned when the value is not a whole number of wei.
	ErrFractional = errors.New("amount has fractional wei")

	// ErrOverflow is returned when the value does not fit in an int64.
	ErrOverflow = errors.New("amount overflows int64")

	// ErrNegative is returned for values below zero.
	ErrNegative = errors.New("amount is negative")
)

var maxAmount = decimal.NewFromInt(math.MaxInt64)

// Parse converts s into a ledger.Amount.
func Parse(s string) (ledger.Amount, error) {
	raw := strings.TrimSpace(s)
	if raw == "" {
		return 0, fmt.Errorf("%w: empty string", ErrSyntax)
	}

	num, exp := raw, int32(0)
	lower := strings.ToLower(raw)
	for _, u := range Units {
		if strings.HasSuffix(lower, u.Name) {
			num = strings.TrimSpace(raw[:len(raw)-len(u.Name)])
			exp = u.Exponent
			break
		}
	}

	d, err := decimal.NewFromString(num)
	if err != nil {
		return 0, fmt.Errorf("%w: %q", ErrSyntax, s)
	}
	d = d.Shift(exp)

	if d.IsNegative() {
		return 0, fmt.Errorf("%w: %q", ErrNegative, s)
	}
	if !d.Equal(d.Truncate(0)) {
		return 0, fmt.Errorf("%w: %q", ErrFractional, s)
	}
	if d.GreaterThan(maxAmount) {
		return 0, fmt.Errorf("%w: %q", ErrOverflow, s)
	}
	return ledger.Amount(d.IntPart()), nil
}

// MustParse is Parse for constants in tests and defaults. It panics on error.
func MustParse(s string) ledger.Amount {
	a, err := Parse(s)
	if err != nil {
		panic(err)
	}
	return a
}

const (
	gwei  = 1_000_000_000
	milli = 1_000_000_000_000_000 // 0.001 ether
)

// Format renders a with the largest convenient unit. Whole-gwei amounts of
// at least 0.001 ether print in ether, other whole-gwei amounts in gwei,
// everything else as a bare wei count. Parse(Format(a)) == a.
func Format(a ledger.Amount) string {
	v := int64(a)
	switch {
	case v != 0 && v%gwei == 0 && v >= milli:
		return decimal.New(v, -18).String() + "ether"
	case v != 0 && v%gwei == 0:
		return decimal.New(v, -9).String() + "gwei"
	default:
		return decimal.NewFromInt(v).String()
	}
}
