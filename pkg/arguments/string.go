package arguments

import (
	"regexp"
	"strings"
)

// StringArgument validates one whitespace-delimited token as text.
//
// Constraints are checked in a fixed order so the first violation decides
// the error message: case folding is applied first, then minimum length,
// maximum length, whitelist, and finally the regexp pattern.
type StringArgument struct {
	base
	minLen    int
	maxLen    int
	upper     bool
	lower     bool
	whitelist []string
	pattern   *regexp.Regexp
}

// String creates a string argument. Panics if name is not a valid
// identifier; arguments are built once at startup, so this is treated as a
// programming error.
func String(name string) *StringArgument {
	return &StringArgument{base: newBase(name)}
}

// Display sets the name rendered in usage strings.
func (a *StringArgument) Display(name string) *StringArgument {
	a.displayName = name
	return a
}

// MinLength requires the token to be at least n bytes long.
func (a *StringArgument) MinLength(n int) *StringArgument {
	a.minLen = n
	return a
}

// MaxLength requires the token to be at most n bytes long.
func (a *StringArgument) MaxLength(n int) *StringArgument {
	a.maxLen = n
	return a
}

// Lowercase folds the token to lower case before any checks.
func (a *StringArgument) Lowercase() *StringArgument {
	a.lower = true
	a.upper = false
	return a
}

// Uppercase folds the token to upper case before any checks.
func (a *StringArgument) Uppercase() *StringArgument {
	a.upper = true
	a.lower = false
	return a
}

// Whitelist restricts the token to the given values.
func (a *StringArgument) Whitelist(values ...string) *StringArgument {
	a.whitelist = append(a.whitelist, values...)
	return a
}

// Match requires the token to match the given pattern.
func (a *StringArgument) Match(pattern *regexp.Regexp) *StringArgument {
	a.pattern = pattern
	return a
}

// Optional makes the argument fall back to the given value when it fails to
// parse, instead of aborting validation.
func (a *StringArgument) Optional(fallback string) *StringArgument {
	a.setOptional(fallback)
	return a
}

// Validate consumes one token and checks it against the configured
// constraints.
func (a *StringArgument) Validate(remainder string) (any, string, error) {
	token, rest := splitToken(remainder)
	if token == "" {
		return nil, "", fail(a, "expected a value")
	}
	value, perr := a.check(token)
	if perr != nil {
		return nil, "", perr
	}
	return value, rest, nil
}

// check applies folding and the constraint chain to one token. Shared with
// RestArgument, which consumes differently but constrains identically.
func (a *StringArgument) check(token string) (string, *ParseError) {
	if a.lower {
		token = strings.ToLower(token)
	}
	if a.upper {
		token = strings.ToUpper(token)
	}
	if len(token) < a.minLen {
		return "", fail(a, "must be at least %d characters long", a.minLen)
	}
	if a.maxLen > 0 && len(token) > a.maxLen {
		return "", fail(a, "must be at most %d characters long", a.maxLen)
	}
	if len(a.whitelist) > 0 {
		found := false
		for _, v := range a.whitelist {
			if token == v {
				found = true
				break
			}
		}
		if !found {
			return "", fail(a, "must be one of: %s", strings.Join(a.whitelist, ", "))
		}
	}
	if a.pattern != nil && !a.pattern.MatchString(token) {
		return "", fail(a, "does not match the expected format")
	}
	return token, nil
}
