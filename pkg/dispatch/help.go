package dispatch

import (
	"context"
	"fmt"
	"strings"

	"github.com/haasonsaas/chatcmd/pkg/arguments"
	"github.com/haasonsaas/chatcmd/pkg/commands"
)

// NewHelpCommand builds a help command over the registry. Without an
// argument it lists every command the asking identity is allowed to use;
// with a command name it shows that command's usage and manual.
//
// The command is returned unregistered so the host can adjust it before
// adding it to the same registry it reads from.
func NewHelpCommand(registry *Registry, prefix string) *commands.Command {
	if prefix == "" {
		prefix = DefaultPrefix
	}

	return commands.New("help").
		Alias("man").
		Help("Shows available commands or details for one command").
		Manual("Without arguments, lists every command you may use.").
		Manual("With a command name, shows that command's usage and manual.").
		AddArgument(arguments.String("command").Lowercase().Optional("")).
		AddHandler(func(ctx context.Context, inv *commands.Invocation) error {
			name, _ := inv.Args["command"].(string)
			if name == "" {
				inv.Reply(renderListing(registry.ListAllowed(ctx, inv.Event.Identity), prefix))
				return nil
			}
			return renderDetails(ctx, registry, inv, name, prefix)
		})
}

func renderListing(nodes []commands.Node, prefix string) string {
	if len(nodes) == 0 {
		return "No commands available."
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Available commands (%d):\n", len(nodes))
	for _, node := range nodes {
		p := node.ForcedPrefix()
		if p == "" {
			p = prefix
		}
		if node.HelpText() != "" {
			fmt.Fprintf(&b, "%s%s - %s\n", p, node.Name(), node.HelpText())
		} else {
			fmt.Fprintf(&b, "%s%s\n", p, node.Name())
		}
	}
	fmt.Fprintf(&b, "Use %shelp <command> for details.", prefix)
	return b.String()
}

func renderDetails(ctx context.Context, registry *Registry, inv *commands.Invocation, name, prefix string) error {
	for _, node := range registry.ListAllowed(ctx, inv.Event.Identity) {
		if !strings.EqualFold(node.Name(), name) && !aliasMatches(node, name) {
			continue
		}
		p := node.ForcedPrefix()
		if p == "" {
			p = prefix
		}

		var b strings.Builder
		fmt.Fprintf(&b, "Usage: %s%s", p, node.Usage())
		for _, line := range node.ManualLines() {
			fmt.Fprintf(&b, "\n%s", line)
		}
		if group, ok := node.(*commands.CommandGroup); ok {
			for _, child := range group.Children() {
				fmt.Fprintf(&b, "\n  %s%s %s", p, group.Name(), child.Usage())
			}
		}
		inv.Reply(b.String())
		return nil
	}

	inv.Reply(fmt.Sprintf("No command named %q available to you.", name))
	return nil
}

func aliasMatches(node commands.Node, name string) bool {
	for _, alias := range node.Aliases() {
		if strings.EqualFold(alias, name) {
			return true
		}
	}
	return false
}
