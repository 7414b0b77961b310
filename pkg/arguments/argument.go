// Package arguments provides the typed argument validators the command
// engine uses to turn raw argument text into values.
//
// Each Argument consumes a slice of the remaining argument text and either
// produces a typed value plus the unconsumed remainder, or fails with a
// *ParseError. Consumption is greedy and strictly left to right: once an
// argument has consumed its token the engine never backtracks, even if a
// later required argument then runs out of text.
package arguments

import (
	"fmt"
	"regexp"
	"strings"
	"unicode"
)

// Argument is a single named, typed slot validated against a text fragment.
type Argument interface {
	// Name returns the result key for this argument. Names match
	// [a-zA-Z0-9_]+ and are fixed at construction.
	Name() string

	// DisplayName returns the name shown in usage strings. Defaults to Name.
	DisplayName() string

	// IsOptional reports whether validation failure falls back to Default.
	IsOptional() bool

	// Default returns the fallback value. Only meaningful when IsOptional.
	Default() any

	// Validate consumes from the left-trimmed remainder and returns the
	// typed value and the new remainder. The returned error is always a
	// *ParseError.
	Validate(remainder string) (value any, rest string, err error)
}

// ParseError reports that an argument's constraint failed against the input.
type ParseError struct {
	// Argument is the validator that rejected the input.
	Argument Argument

	// Message is a human-readable description of the first violated
	// constraint.
	Message string

	// Causes holds the per-child errors collected by an OR group. Retained
	// for diagnostics only.
	Causes []*ParseError
}

// Error implements the error interface.
func (e *ParseError) Error() string {
	return fmt.Sprintf("argument %q: %s", e.Argument.Name(), e.Message)
}

var nameRe = regexp.MustCompile(`^[a-zA-Z0-9_]+$`)

// base carries the fields common to every argument kind.
type base struct {
	name        string
	displayName string
	optional    bool
	fallback    any
}

func newBase(name string) base {
	if !nameRe.MatchString(name) {
		panic(fmt.Sprintf("arguments: invalid argument name %q (want [a-zA-Z0-9_]+)", name))
	}
	return base{name: name, displayName: name}
}

func (b *base) Name() string { return b.name }

func (b *base) DisplayName() string { return b.displayName }

func (b *base) IsOptional() bool { return b.optional }

func (b *base) Default() any { return b.fallback }

func (b *base) setOptional(fallback any) {
	b.optional = true
	b.fallback = fallback
}

// fail builds a ParseError for the given argument.
func fail(arg Argument, format string, args ...any) *ParseError {
	return &ParseError{Argument: arg, Message: fmt.Sprintf(format, args...)}
}

// splitToken returns the first whitespace-delimited token of s and the
// left-trimmed text after it. An empty token means s held no input.
func splitToken(s string) (token, rest string) {
	i := strings.IndexFunc(s, unicode.IsSpace)
	if i < 0 {
		return s, ""
	}
	return s[:i], strings.TrimLeftFunc(s[i:], unicode.IsSpace)
}

// Merge records a validated value in dst under the argument's name. Group
// results are flattened so child values land under each child's own name;
// name collisions overwrite silently.
func Merge(dst map[string]any, arg Argument, value any) {
	if nested, ok := value.(map[string]any); ok {
		for k, v := range nested {
			dst[k] = v
		}
		return
	}
	dst[arg.Name()] = value
}
