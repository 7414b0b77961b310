package arguments

import (
	"math"
	"strconv"
)

// NumberArgument validates one token as a floating-point number.
//
// Check order is fixed: numeric parse, integer-only, minimum, maximum, sign.
type NumberArgument struct {
	base
	min      *float64
	max      *float64
	integer  bool
	positive bool
	negative bool
}

// Number creates a number argument.
func Number(name string) *NumberArgument {
	return &NumberArgument{base: newBase(name)}
}

// Display sets the name rendered in usage strings.
func (a *NumberArgument) Display(name string) *NumberArgument {
	a.displayName = name
	return a
}

// Min requires the value to be at least v.
func (a *NumberArgument) Min(v float64) *NumberArgument {
	a.min = &v
	return a
}

// Max requires the value to be at most v.
func (a *NumberArgument) Max(v float64) *NumberArgument {
	a.max = &v
	return a
}

// Integer rejects values with a fractional part.
func (a *NumberArgument) Integer() *NumberArgument {
	a.integer = true
	return a
}

// Positive rejects values below zero.
func (a *NumberArgument) Positive() *NumberArgument {
	a.positive = true
	a.negative = false
	return a
}

// Negative rejects values above zero.
func (a *NumberArgument) Negative() *NumberArgument {
	a.negative = true
	a.positive = false
	return a
}

// Optional makes the argument fall back to the given value when it fails to
// parse.
func (a *NumberArgument) Optional(fallback float64) *NumberArgument {
	a.setOptional(fallback)
	return a
}

// Validate consumes one token and parses it as a float64.
func (a *NumberArgument) Validate(remainder string) (any, string, error) {
	token, rest := splitToken(remainder)
	if token == "" {
		return nil, "", fail(a, "expected a number")
	}
	value, err := strconv.ParseFloat(token, 64)
	if err != nil {
		return nil, "", fail(a, "%q is not a number", token)
	}
	if a.integer && value != math.Trunc(value) {
		return nil, "", fail(a, "must be an integer")
	}
	if a.min != nil && value < *a.min {
		return nil, "", fail(a, "must be at least %v", *a.min)
	}
	if a.max != nil && value > *a.max {
		return nil, "", fail(a, "must be at most %v", *a.max)
	}
	if a.positive && value < 0 {
		return nil, "", fail(a, "must be positive")
	}
	if a.negative && value > 0 {
		return nil, "", fail(a, "must be negative")
	}
	return value, rest, nil
}
