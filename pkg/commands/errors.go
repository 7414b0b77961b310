package commands

import (
	"fmt"
	"time"

	"github.com/haasonsaas/chatcmd/pkg/arguments"
)

// TooManyArgumentsError reports leftover text after every declared argument
// was consumed. It is distinct from any individual argument failure.
type TooManyArgumentsError struct {
	// Command is the name of the command whose arguments were exceeded.
	Command string

	// Leftover is the unconsumed trailing text.
	Leftover string

	// Diagnostic is the first optional-argument ParseError recorded during
	// the walk, if any. It often explains why the leftover text exists.
	Diagnostic *arguments.ParseError
}

func (e *TooManyArgumentsError) Error() string {
	return fmt.Sprintf("command %q: too many arguments (leftover %q)", e.Command, e.Leftover)
}

// Unwrap exposes the diagnostic ParseError to errors.As, when present.
func (e *TooManyArgumentsError) Unwrap() error {
	if e.Diagnostic == nil {
		return nil
	}
	return e.Diagnostic
}

// CommandNotFoundError reports that no registered node matched the token.
type CommandNotFoundError struct {
	Token string
}

func (e *CommandNotFoundError) Error() string {
	return fmt.Sprintf("command %q not found", e.Token)
}

// SubCommandNotFoundError reports that a group had no child matching the
// sub-command token.
type SubCommandNotFoundError struct {
	Group string
	Token string
}

func (e *SubCommandNotFoundError) Error() string {
	if e.Token == "" {
		return fmt.Sprintf("command %q requires a sub-command", e.Group)
	}
	return fmt.Sprintf("command %q has no sub-command %q", e.Group, e.Token)
}

// PermissionError reports that the permission predicate chain rejected the
// identity.
type PermissionError struct {
	Command  string
	Identity string
}

func (e *PermissionError) Error() string {
	return fmt.Sprintf("identity %q is not allowed to use command %q", e.Identity, e.Command)
}

// ThrottleError reports that the identity's rate-limit bucket is exhausted.
type ThrottleError struct {
	Command string

	// Wait estimates how long until the next restoration tick.
	Wait time.Duration
}

func (e *ThrottleError) Error() string {
	return fmt.Sprintf("command %q throttled (retry in %s)", e.Command, e.Wait)
}

// CommandDisabledError reports a dispatch against a disabled node.
type CommandDisabledError struct {
	Command string
}

func (e *CommandDisabledError) Error() string {
	return fmt.Sprintf("command %q is disabled", e.Command)
}
