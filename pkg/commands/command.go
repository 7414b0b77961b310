package commands

import (
	"context"
	"fmt"
	"strings"

	"github.com/haasonsaas/chatcmd/pkg/arguments"
	"github.com/haasonsaas/chatcmd/pkg/models"
	"github.com/haasonsaas/chatcmd/pkg/throttle"
)

// Command is one invocable unit: an ordered argument list, permission
// predicates, one or more handlers, and optional throttling.
//
// Commands are assembled once at startup through the fluent builder methods
// and are not mutated after they become reachable from a registry.
type Command struct {
	name         string
	aliases      []string
	helpText     string
	manualLines  []string
	forcedPrefix string
	disabled     bool
	args         []arguments.Argument
	predicates   []Predicate
	handlers     []Handler
	limiter      *throttle.Throttle
}

// New creates a command with the given invocation name.
func New(name string) *Command {
	return &Command{name: strings.TrimSpace(name)}
}

// Alias adds alternative invocation names.
func (c *Command) Alias(names ...string) *Command {
	c.aliases = append(c.aliases, names...)
	return c
}

// Help sets the one-line description shown in listings.
func (c *Command) Help(text string) *Command {
	c.helpText = text
	return c
}

// Manual appends one line to the long-form manual.
func (c *Command) Manual(line string) *Command {
	c.manualLines = append(c.manualLines, line)
	return c
}

// ForcePrefix pins the command to the given prefix instead of the
// dispatcher default.
func (c *Command) ForcePrefix(prefix string) *Command {
	c.forcedPrefix = prefix
	return c
}

// Disable stops the command from dispatching.
func (c *Command) Disable() *Command {
	c.disabled = true
	return c
}

// Enable re-enables a disabled command.
func (c *Command) Enable() *Command {
	c.disabled = false
	return c
}

// AddArgument appends arguments in declaration order.
func (c *Command) AddArgument(args ...arguments.Argument) *Command {
	c.args = append(c.args, args...)
	return c
}

// Permission appends a predicate. All predicates must pass for a dispatch
// to proceed.
func (c *Command) Permission(p Predicate) *Command {
	c.predicates = append(c.predicates, p)
	return c
}

// AddHandler appends an execution handler. Handlers run sequentially in
// declaration order; a failing handler does not stop later handlers, and
// the first failure is reported once all of them ran.
func (c *Command) AddHandler(h Handler) *Command {
	c.handlers = append(c.handlers, h)
	return c
}

// Throttle attaches a per-identity rate limit.
func (c *Command) Throttle(t *throttle.Throttle) *Command {
	c.limiter = t
	return c
}

// Kind implements Node.
func (c *Command) Kind() Kind { return KindCommand }

// Name implements Node.
func (c *Command) Name() string { return c.name }

// Aliases implements Node.
func (c *Command) Aliases() []string { return c.aliases }

// HelpText implements Node.
func (c *Command) HelpText() string { return c.helpText }

// ManualLines implements Node.
func (c *Command) ManualLines() []string { return c.manualLines }

// ForcedPrefix implements Node.
func (c *Command) ForcedPrefix() string { return c.forcedPrefix }

// Enabled implements Node.
func (c *Command) Enabled() bool { return !c.disabled }

// Arguments returns the declared arguments in order.
func (c *Command) Arguments() []arguments.Argument { return c.args }

// Usage renders the derived usage string: <name> for required arguments,
// [name] or [name=default] for optional ones, in declaration order. It is
// computed on every call, never stored.
func (c *Command) Usage() string {
	parts := make([]string, 0, len(c.args)+1)
	parts = append(parts, c.name)
	for _, arg := range c.args {
		switch {
		case !arg.IsOptional():
			parts = append(parts, fmt.Sprintf("<%s>", arg.DisplayName()))
		case arg.Default() == nil || arg.Default() == "":
			parts = append(parts, fmt.Sprintf("[%s]", arg.DisplayName()))
		default:
			parts = append(parts, fmt.Sprintf("[%s=%v]", arg.DisplayName(), arg.Default()))
		}
	}
	return strings.Join(parts, " ")
}

// IsAllowed evaluates the predicate chain: every predicate must pass. A
// predicate error counts as a denial and is returned to the caller.
func (c *Command) IsAllowed(ctx context.Context, identity string) (bool, error) {
	for _, p := range c.predicates {
		ok, err := p(ctx, identity)
		if err != nil {
			return false, err
		}
		if !ok {
			return false, nil
		}
	}
	return true, nil
}

// ValidateArgs walks the declared arguments against the argument text.
//
// Each argument consumes from the shrinking remainder. An optional argument
// that fails records its default, keeps the ParseError as a diagnostic, and
// leaves the remainder untouched; a required failure aborts immediately.
// Non-empty leftover text after the walk is a TooManyArgumentsError carrying
// the first diagnostic.
func (c *Command) ValidateArgs(text string) (map[string]any, []*arguments.ParseError, error) {
	resolved := make(map[string]any, len(c.args))
	var diagnostics []*arguments.ParseError

	remainder := strings.TrimSpace(text)
	for _, arg := range c.args {
		value, rest, err := arg.Validate(remainder)
		if err != nil {
			if !arg.IsOptional() {
				return nil, diagnostics, err
			}
			resolved[arg.Name()] = arg.Default()
			if perr, ok := err.(*arguments.ParseError); ok {
				diagnostics = append(diagnostics, perr)
			}
			continue
		}
		arguments.Merge(resolved, arg, value)
		remainder = strings.TrimSpace(rest)
	}

	// Leftover text attributable to failed optional arguments is forgiven:
	// each recorded diagnostic accounts for the one token its argument
	// declined to consume. Anything beyond that is too much input.
	leftover := remainder
	for range diagnostics {
		if leftover == "" {
			break
		}
		_, leftover = SplitArgs(leftover)
	}
	if leftover != "" {
		err := &TooManyArgumentsError{Command: c.name, Leftover: remainder}
		if len(diagnostics) > 0 {
			err.Diagnostic = diagnostics[0]
		}
		return nil, diagnostics, err
	}
	return resolved, diagnostics, nil
}

// Validate is ValidateArgs reduced to the resolved value map.
func (c *Command) Validate(text string) (map[string]any, error) {
	resolved, _, err := c.ValidateArgs(text)
	return resolved, err
}

// Dispatch runs the pipeline: enabled check, permissions, throttle,
// argument validation, then every handler.
func (c *Command) Dispatch(ctx context.Context, text string, event *models.Event, reply models.ReplyFunc) error {
	if c.disabled {
		return &CommandDisabledError{Command: c.name}
	}

	allowed, err := c.IsAllowed(ctx, event.Identity)
	if err != nil || !allowed {
		return &PermissionError{Command: c.name, Identity: event.Identity}
	}

	if c.limiter != nil {
		if c.limiter.Throttled(event.Identity) {
			return &ThrottleError{
				Command: c.name,
				Wait:    c.limiter.TimeUntilAvailable(event.Identity),
			}
		}
		c.limiter.Use(event.Identity)
	}

	resolved, _, err := c.ValidateArgs(text)
	if err != nil {
		return err
	}

	inv := &Invocation{Event: event, Args: resolved, Reply: reply}
	return c.runHandlers(ctx, inv)
}

// runHandlers invokes every handler in declaration order. A handler that
// fails or panics does not stop later handlers; the first failure is
// returned once all handlers ran.
func (c *Command) runHandlers(ctx context.Context, inv *Invocation) error {
	var first error
	for _, h := range c.handlers {
		if err := c.runHandler(ctx, h, inv); err != nil && first == nil {
			first = err
		}
	}
	return first
}

func (c *Command) runHandler(ctx context.Context, h Handler, inv *Invocation) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("handler for command %q panicked: %v", c.name, r)
		}
	}()
	return h(ctx, inv)
}
