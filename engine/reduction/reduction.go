// Package reduction parses and evaluates reduction expressions such as
// "25" (subtract 25) or "40%" (remove 40 percent).
package reduction

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
)

// ErrInvalid is returned for text that is not a non-negative integer
// optionally followed by a percent sign.
var ErrInvalid = errors.New("invalid reduction")

// Kind selects how a Spec reduces a value.
type Kind int

const (
	Fixed Kind = iota
	Percentage
)

// Spec is a parsed reduction rule.
type Spec struct {
	Kind   Kind
	Amount int64
}

var hundred = decimal.NewFromInt(100)

// Parse parses a reduction expression. A trailing "%" selects Percentage,
// otherwise Fixed. The numeric part must be plain ASCII digits.
func Parse(text string) (Spec, error) {
	s := text
	kind := Fixed
	if strings.HasSuffix(s, "%") {
		kind = Percentage
		s = strings.TrimSuffix(s, "%")
	}
	if s == "" {
		return Spec{}, fmt.Errorf("%w: %q has no amount", ErrInvalid, text)
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return Spec{}, fmt.Errorf("%w: %q is not a whole number", ErrInvalid, text)
		}
	}
	n, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return Spec{}, fmt.Errorf("%w: %q: %v", ErrInvalid, text, err)
	}
	return Spec{Kind: kind, Amount: n}, nil
}

// Active reports whether the spec reduces anything. Zero-magnitude specs
// are a valid steady state and must not be evaluated.
func (s Spec) Active() bool {
	return s.Amount != 0
}

// Apply returns old reduced by the spec. The result is not clamped.
func (s Spec) Apply(old decimal.Decimal) decimal.Decimal {
	switch s.Kind {
	case Percentage:
		factor := decimal.NewFromInt(1).Sub(decimal.NewFromInt(s.Amount).Div(hundred))
		return old.Mul(factor)
	default:
		return old.Sub(decimal.NewFromInt(s.Amount))
	}
}

// String returns the canonical text form, e.g. "50%" or "25".
func (s Spec) String() string {
	if s.Kind == Percentage {
		return strconv.FormatInt(s.Amount, 10) + "%"
	}
	return strconv.FormatInt(s.Amount, 10)
}
