package commands

import (
	"context"
	"fmt"
	"strings"

	"github.com/haasonsaas/chatcmd/pkg/models"
	"github.com/haasonsaas/chatcmd/pkg/throttle"
)

// CommandGroup is a namespace of child commands. The first
// whitespace-delimited token of the group's argument text selects the child;
// a group may also carry its own handlers for the zero-argument case.
type CommandGroup struct {
	name         string
	aliases      []string
	helpText     string
	manualLines  []string
	forcedPrefix string
	disabled     bool
	predicates   []Predicate
	handlers     []Handler
	limiter      *throttle.Throttle
	children     []*Command
}

// NewGroup creates a command group with the given invocation name.
func NewGroup(name string) *CommandGroup {
	return &CommandGroup{name: strings.TrimSpace(name)}
}

// Alias adds alternative invocation names.
func (g *CommandGroup) Alias(names ...string) *CommandGroup {
	g.aliases = append(g.aliases, names...)
	return g
}

// Help sets the one-line description shown in listings.
func (g *CommandGroup) Help(text string) *CommandGroup {
	g.helpText = text
	return g
}

// Manual appends one line to the long-form manual.
func (g *CommandGroup) Manual(line string) *CommandGroup {
	g.manualLines = append(g.manualLines, line)
	return g
}

// ForcePrefix pins the group to the given prefix instead of the dispatcher
// default.
func (g *CommandGroup) ForcePrefix(prefix string) *CommandGroup {
	g.forcedPrefix = prefix
	return g
}

// Disable stops the group from dispatching.
func (g *CommandGroup) Disable() *CommandGroup {
	g.disabled = true
	return g
}

// Enable re-enables a disabled group.
func (g *CommandGroup) Enable() *CommandGroup {
	g.disabled = false
	return g
}

// Permission appends a predicate that gates the whole group.
func (g *CommandGroup) Permission(p Predicate) *CommandGroup {
	g.predicates = append(g.predicates, p)
	return g
}

// AddHandler appends a handler for invocations without a sub-command token.
func (g *CommandGroup) AddHandler(h Handler) *CommandGroup {
	g.handlers = append(g.handlers, h)
	return g
}

// Throttle attaches a per-identity rate limit to the group itself.
func (g *CommandGroup) Throttle(t *throttle.Throttle) *CommandGroup {
	g.limiter = t
	return g
}

// AddCommand creates a child command, attaches it, and returns it for
// further building.
func (g *CommandGroup) AddCommand(name string) *Command {
	child := New(name)
	g.children = append(g.children, child)
	return child
}

// Attach adds an existing command as a child.
func (g *CommandGroup) Attach(cmd *Command) *CommandGroup {
	g.children = append(g.children, cmd)
	return g
}

// Children returns the child commands in registration order.
func (g *CommandGroup) Children() []*Command { return g.children }

// Kind implements Node.
func (g *CommandGroup) Kind() Kind { return KindGroup }

// Name implements Node.
func (g *CommandGroup) Name() string { return g.name }

// Aliases implements Node.
func (g *CommandGroup) Aliases() []string { return g.aliases }

// HelpText implements Node.
func (g *CommandGroup) HelpText() string { return g.helpText }

// ManualLines implements Node.
func (g *CommandGroup) ManualLines() []string { return g.manualLines }

// ForcedPrefix implements Node.
func (g *CommandGroup) ForcedPrefix() string { return g.forcedPrefix }

// Enabled implements Node.
func (g *CommandGroup) Enabled() bool { return !g.disabled }

// Usage renders the group name followed by the child command alternatives.
func (g *CommandGroup) Usage() string {
	if len(g.children) == 0 {
		return g.name
	}
	names := make([]string, 0, len(g.children))
	for _, child := range g.children {
		names = append(names, child.Name())
	}
	return fmt.Sprintf("%s <%s>", g.name, strings.Join(names, "|"))
}

// IsAllowed reports whether the identity may see the group. The group's own
// predicates must pass; that alone suffices when the group has handlers of
// its own, otherwise at least one child must also be allowed. A group with
// no allowed child and no own handler is invisible to the identity.
func (g *CommandGroup) IsAllowed(ctx context.Context, identity string) (bool, error) {
	for _, p := range g.predicates {
		ok, err := p(ctx, identity)
		if err != nil {
			return false, err
		}
		if !ok {
			return false, nil
		}
	}
	if len(g.handlers) > 0 {
		return true, nil
	}
	for _, child := range g.children {
		ok, err := child.IsAllowed(ctx, identity)
		if err != nil {
			continue
		}
		if ok {
			return true, nil
		}
	}
	return false, nil
}

// Resolve finds the child matching the token by name or alias,
// case-insensitively.
func (g *CommandGroup) Resolve(token string) *Command {
	for _, child := range g.children {
		if matchesName(token, child.Name(), child.Aliases()) {
			return child
		}
	}
	return nil
}

// Dispatch routes the first argument token to the matching child. An empty
// token runs the group's own handlers when it has any.
func (g *CommandGroup) Dispatch(ctx context.Context, text string, event *models.Event, reply models.ReplyFunc) error {
	if g.disabled {
		return &CommandDisabledError{Command: g.name}
	}

	allowed, err := g.IsAllowed(ctx, event.Identity)
	if err != nil || !allowed {
		return &PermissionError{Command: g.name, Identity: event.Identity}
	}

	if g.limiter != nil {
		if g.limiter.Throttled(event.Identity) {
			return &ThrottleError{
				Command: g.name,
				Wait:    g.limiter.TimeUntilAvailable(event.Identity),
			}
		}
		g.limiter.Use(event.Identity)
	}

	token, rest := SplitArgs(text)
	if token == "" {
		if len(g.handlers) == 0 {
			return &SubCommandNotFoundError{Group: g.name}
		}
		inv := &Invocation{Event: event, Args: map[string]any{}, Reply: reply}
		return g.runHandlers(ctx, inv)
	}

	child := g.Resolve(token)
	if child == nil {
		return &SubCommandNotFoundError{Group: g.name, Token: token}
	}
	return child.Dispatch(ctx, rest, event, reply)
}

func (g *CommandGroup) runHandlers(ctx context.Context, inv *Invocation) error {
	var first error
	for _, h := range g.handlers {
		if err := g.runHandler(ctx, h, inv); err != nil && first == nil {
			first = err
		}
	}
	return first
}

func (g *CommandGroup) runHandler(ctx context.Context, h Handler, inv *Invocation) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("handler for command group %q panicked: %v", g.name, r)
		}
	}()
	return h(ctx, inv)
}
