package arguments

import (
	"regexp"
	"strings"
	"unicode"
)

// RestArgument is a StringArgument that consumes the entire remaining text
// instead of one token. It only makes sense as the last declared argument of
// a command.
type RestArgument struct {
	inner StringArgument
}

// Rest creates a rest argument.
func Rest(name string) *RestArgument {
	return &RestArgument{inner: StringArgument{base: newBase(name)}}
}

// Display sets the name rendered in usage strings.
func (a *RestArgument) Display(name string) *RestArgument {
	a.inner.displayName = name
	return a
}

// MinLength requires the remaining text to be at least n bytes long.
func (a *RestArgument) MinLength(n int) *RestArgument {
	a.inner.minLen = n
	return a
}

// MaxLength requires the remaining text to be at most n bytes long.
func (a *RestArgument) MaxLength(n int) *RestArgument {
	a.inner.maxLen = n
	return a
}

// Lowercase folds the text to lower case before any checks.
func (a *RestArgument) Lowercase() *RestArgument {
	a.inner.lower = true
	a.inner.upper = false
	return a
}

// Uppercase folds the text to upper case before any checks.
func (a *RestArgument) Uppercase() *RestArgument {
	a.inner.upper = true
	a.inner.lower = false
	return a
}

// Whitelist restricts the text to the given values.
func (a *RestArgument) Whitelist(values ...string) *RestArgument {
	a.inner.whitelist = append(a.inner.whitelist, values...)
	return a
}

// Match requires the text to match the given pattern.
func (a *RestArgument) Match(pattern *regexp.Regexp) *RestArgument {
	a.inner.pattern = pattern
	return a
}

// Optional makes the argument fall back to the given value when it fails to
// parse.
func (a *RestArgument) Optional(fallback string) *RestArgument {
	a.inner.setOptional(fallback)
	return a
}

// Name implements Argument.
func (a *RestArgument) Name() string { return a.inner.Name() }

// DisplayName implements Argument.
func (a *RestArgument) DisplayName() string { return a.inner.DisplayName() }

// IsOptional implements Argument.
func (a *RestArgument) IsOptional() bool { return a.inner.IsOptional() }

// Default implements Argument.
func (a *RestArgument) Default() any { return a.inner.Default() }

// Validate consumes everything that is left and checks it against the
// configured constraints.
func (a *RestArgument) Validate(remainder string) (any, string, error) {
	text := strings.TrimRightFunc(remainder, unicode.IsSpace)
	if text == "" {
		return nil, "", fail(a, "expected a value")
	}
	value, perr := a.inner.check(text)
	if perr != nil {
		return nil, "", &ParseError{Argument: a, Message: perr.Message}
	}
	return value, "", nil
}
