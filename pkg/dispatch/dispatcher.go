package dispatch

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode"

	"log/slog"

	"github.com/haasonsaas/chatcmd/pkg/arguments"
	"github.com/haasonsaas/chatcmd/pkg/commands"
	"github.com/haasonsaas/chatcmd/pkg/models"
)

// DefaultPrefix is the command prefix used when none is configured.
const DefaultPrefix = "!"

// ReplyResolver produces the reply delegate for one event. Implemented by
// the transport layer; the dispatcher only ever calls the delegate with
// plain strings.
type ReplyResolver func(event *models.Event) models.ReplyFunc

// Policy holds the read-only knobs the dispatcher consults. It owns none of
// this state; the host supplies it.
type Policy struct {
	// Prefix is the default command prefix (for example "!").
	Prefix string

	// SelfIdentity is the engine's own identity; its messages are ignored.
	SelfIdentity string

	// AnnounceUnknown controls whether unresolvable command tokens get a
	// "not found" reply instead of silence.
	AnnounceUnknown bool
}

// Dispatcher is the message-handling pipeline: it tokenizes inbound text,
// consults the registry, dispatches the resolved node, and maps every
// failure to a user-facing reply. No failure escapes HandleMessage.
type Dispatcher struct {
	registry *Registry
	policy   Policy
	replies  ReplyResolver
	logger   *slog.Logger
}

// NewDispatcher creates a dispatcher over the given registry. The resolver
// is required; a nil logger falls back to slog.Default.
func NewDispatcher(registry *Registry, policy Policy, replies ReplyResolver, logger *slog.Logger) *Dispatcher {
	if policy.Prefix == "" {
		policy.Prefix = DefaultPrefix
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Dispatcher{
		registry: registry,
		policy:   policy,
		replies:  replies,
		logger:   logger.With("component", "dispatcher"),
	}
}

// HandleMessage processes one inbound event end to end. Messages from the
// engine's own identity and messages that cannot be commands are ignored.
func (d *Dispatcher) HandleMessage(ctx context.Context, event *models.Event) {
	if event == nil {
		return
	}
	if d.policy.SelfIdentity != "" && event.Identity == d.policy.SelfIdentity {
		return
	}

	text := strings.TrimSpace(event.Text)
	if !d.possibleCommand(text) {
		return
	}

	token, argText := splitCommand(text)
	nodes := d.registry.Resolve(token, d.policy.Prefix)
	if len(nodes) == 0 {
		notFound := &commands.CommandNotFoundError{Token: token}
		d.logger.Debug("no command matched", "identity", event.Identity, "error", notFound)
		if d.policy.AnnounceUnknown {
			d.reply(event, fmt.Sprintf("Unknown command %q.", token))
		}
		return
	}

	for _, node := range nodes {
		d.dispatchNode(ctx, node, argText, event)
	}
}

// possibleCommand reports whether text could address a command at all: it
// starts with the default prefix or with some node's forced prefix.
func (d *Dispatcher) possibleCommand(text string) bool {
	if text == "" {
		return false
	}
	if strings.HasPrefix(text, d.policy.Prefix) && len(text) > len(d.policy.Prefix) {
		return true
	}
	for _, prefix := range d.registry.ForcedPrefixes() {
		if strings.HasPrefix(text, prefix) && len(text) > len(prefix) {
			return true
		}
	}
	return false
}

// dispatchNode runs one resolved node and turns every failure into a reply.
// Panics in handlers are contained here so a broken command can never take
// down message handling.
func (d *Dispatcher) dispatchNode(ctx context.Context, node commands.Node, argText string, event *models.Event) {
	defer func() {
		if r := recover(); r != nil {
			d.logger.Error("dispatch panicked",
				"command", node.Name(),
				"identity", event.Identity,
				"event_id", event.ID,
				"panic", r)
			d.reply(event, genericFailure(node))
		}
	}()

	err := node.Dispatch(ctx, argText, event, d.replyFunc(event))
	if err == nil {
		return
	}

	message, classified := d.renderError(node, err)
	if !classified {
		d.logger.Error("command handler failed",
			"command", node.Name(),
			"identity", event.Identity,
			"event_id", event.ID,
			"channel", string(event.Channel),
			"error", err)
	} else {
		d.logger.Debug("command rejected",
			"command", node.Name(),
			"identity", event.Identity,
			"error", err)
	}
	d.reply(event, message)
}

// renderError maps a dispatch failure to a user-facing message. The second
// return value reports whether the error belongs to the known taxonomy;
// anything else is a programming error in a handler and is reported
// generically.
func (d *Dispatcher) renderError(node commands.Node, err error) (string, bool) {
	var tooMany *commands.TooManyArgumentsError
	if errors.As(err, &tooMany) {
		message := fmt.Sprintf("Too many arguments.\nUsage: %s", d.usage(node))
		if tooMany.Diagnostic != nil {
			message += fmt.Sprintf("\nNote: %s %s", tooMany.Diagnostic.Argument.DisplayName(), tooMany.Diagnostic.Message)
		}
		return message, true
	}

	var parseErr *arguments.ParseError
	if errors.As(err, &parseErr) {
		return fmt.Sprintf("Invalid value for %s: %s.\nUsage: %s",
			parseErr.Argument.DisplayName(), parseErr.Message, d.usage(node)), true
	}

	var subNotFound *commands.SubCommandNotFoundError
	if errors.As(err, &subNotFound) {
		if subNotFound.Token == "" {
			return fmt.Sprintf("Missing sub-command.\nUsage: %s", d.usage(node)), true
		}
		return fmt.Sprintf("Unknown sub-command %q.\nUsage: %s", subNotFound.Token, d.usage(node)), true
	}

	var notAllowed *commands.PermissionError
	if errors.As(err, &notAllowed) {
		return "You are not allowed to use this command.", true
	}

	var throttled *commands.ThrottleError
	if errors.As(err, &throttled) {
		wait := throttled.Wait.Round(time.Second)
		if wait <= 0 {
			wait = time.Second
		}
		return fmt.Sprintf("You are sending commands too quickly. Try again in %s.", wait), true
	}

	var disabled *commands.CommandDisabledError
	if errors.As(err, &disabled) {
		return "This command is currently disabled.", true
	}

	return genericFailure(node), false
}

// usage renders a node's usage string with the prefix it is reachable
// under.
func (d *Dispatcher) usage(node commands.Node) string {
	prefix := node.ForcedPrefix()
	if prefix == "" {
		prefix = d.policy.Prefix
	}
	return prefix + node.Usage()
}

func (d *Dispatcher) replyFunc(event *models.Event) models.ReplyFunc {
	if d.replies == nil {
		return func(string) {}
	}
	if fn := d.replies(event); fn != nil {
		return fn
	}
	return func(string) {}
}

func (d *Dispatcher) reply(event *models.Event, message string) {
	d.replyFunc(event)(message)
}

func genericFailure(node commands.Node) string {
	return fmt.Sprintf("Command %q failed unexpectedly. The error has been logged.", node.Name())
}

// splitCommand separates the prefixed command token from the argument text
// on the first whitespace run. The token keeps its prefix and case; the
// registry matches it case-insensitively.
func splitCommand(text string) (token, args string) {
	if i := strings.IndexFunc(text, unicode.IsSpace); i >= 0 {
		return text[:i], strings.TrimSpace(text[i:])
	}
	return text, ""
}
