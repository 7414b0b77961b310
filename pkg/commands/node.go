// Package commands provides the invocable command model: single commands
// with typed arguments, command groups routed by sub-command token,
// permission predicates, throttling, and derived usage text.
package commands

import (
	"context"
	"strings"
	"unicode"

	"github.com/haasonsaas/chatcmd/pkg/models"
)

// Kind discriminates the node types of the command catalog.
type Kind string

const (
	// KindCommand is a leaf command with its own arguments and handlers.
	KindCommand Kind = "command"

	// KindGroup is a namespace of child commands selected by their first
	// argument token.
	KindGroup Kind = "group"
)

// Node is one top-level entry in the catalog: a Command or a CommandGroup.
// Rendering and dispatch code switches on Kind instead of type-asserting.
type Node interface {
	// Kind returns the node discriminator.
	Kind() Kind

	// Name returns the primary invocation name.
	Name() string

	// Aliases returns alternative invocation names.
	Aliases() []string

	// HelpText returns the one-line description shown in listings.
	HelpText() string

	// ManualLines returns the long-form manual, one line per entry.
	ManualLines() []string

	// ForcedPrefix returns the prefix this node insists on, or "" to use
	// the dispatcher default.
	ForcedPrefix() string

	// Enabled reports whether the node currently accepts dispatches.
	Enabled() bool

	// Usage returns the derived usage string.
	Usage() string

	// IsAllowed reports whether the identity may use this node.
	IsAllowed(ctx context.Context, identity string) (bool, error)

	// Dispatch runs the full pipeline for this node against the given
	// argument text. Every failure is one of the package's typed errors or
	// an error escaping a handler.
	Dispatch(ctx context.Context, text string, event *models.Event, reply models.ReplyFunc) error
}

// Predicate decides whether an identity may use a command. Predicates may
// block on external lookups, so they receive a context.
type Predicate func(ctx context.Context, identity string) (bool, error)

// Invocation carries everything a handler gets about one dispatch.
type Invocation struct {
	// Event is the inbound message that triggered the command.
	Event *models.Event

	// Args maps argument names to their resolved, typed values.
	Args map[string]any

	// Reply delivers text back to wherever the event wants replies.
	Reply models.ReplyFunc
}

// Handler executes one command invocation.
type Handler func(ctx context.Context, inv *Invocation) error

// SplitArgs splits command text on the first whitespace run into the
// lowercased leading token and the remaining argument text.
func SplitArgs(text string) (name, args string) {
	text = strings.TrimSpace(text)
	if text == "" {
		return "", ""
	}
	if i := strings.IndexFunc(text, unicode.IsSpace); i >= 0 {
		return strings.ToLower(text[:i]), strings.TrimSpace(text[i:])
	}
	return strings.ToLower(text), ""
}

// matchesName reports whether the candidate matches the node name or one of
// its aliases, ignoring case.
func matchesName(candidate, name string, aliases []string) bool {
	if strings.EqualFold(candidate, name) {
		return true
	}
	for _, alias := range aliases {
		if strings.EqualFold(candidate, alias) {
			return true
		}
	}
	return false
}
