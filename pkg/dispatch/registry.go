// Package dispatch ties inbound chat messages to registered commands: the
// Registry owns the command catalog, the Dispatcher runs the
// text → resolution → validation → execution pipeline for every message.
package dispatch

import (
	"context"
	"fmt"
	"regexp"
	"strings"
	"sync"

	"log/slog"

	"github.com/haasonsaas/chatcmd/pkg/commands"
)

var nameRe = regexp.MustCompile(`^[a-zA-Z0-9_]+$`)

// Registry owns the set of top-level command nodes. It is an explicit
// instance handed to the Dispatcher; there is no package-level catalog.
//
// Registration normally happens once at startup; mutation after the first
// dispatch is not supported.
type Registry struct {
	mu     sync.RWMutex
	nodes  []commands.Node
	logger *slog.Logger
}

// NewRegistry creates an empty registry.
func NewRegistry(logger *slog.Logger) *Registry {
	if logger == nil {
		logger = slog.Default()
	}
	return &Registry{
		logger: logger.With("component", "registry"),
	}
}

// Register adds a node to the catalog. Duplicate names or aliases
// (case-insensitive, at the top level and within each group's children) are
// accepted but logged as a warning so the overlap is visible.
func (r *Registry) Register(node commands.Node) error {
	if node == nil {
		return fmt.Errorf("node is nil")
	}
	if err := validateNode(node); err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	for _, dup := range r.duplicateNames(node) {
		r.logger.Warn("duplicate command name registered",
			"name", dup,
			"node", node.Name())
	}
	if group, ok := node.(*commands.CommandGroup); ok {
		for _, dup := range duplicateChildren(group) {
			r.logger.Warn("duplicate sub-command name registered",
				"name", dup,
				"group", group.Name())
		}
	}

	r.nodes = append(r.nodes, node)
	r.logger.Debug("registered command node",
		"name", node.Name(),
		"kind", string(node.Kind()),
		"aliases", node.Aliases())
	return nil
}

// RegisterCommand creates a command, registers it, and returns it for
// further building. Invalid names panic; commands are registered once at
// startup, so this is treated as a programming error.
func (r *Registry) RegisterCommand(name string) *commands.Command {
	cmd := commands.New(name)
	if !nameRe.MatchString(cmd.Name()) {
		panic(fmt.Sprintf("dispatch: invalid command name %q (want [a-zA-Z0-9_]+)", name))
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, dup := range r.duplicateNames(cmd) {
		r.logger.Warn("duplicate command name registered", "name", dup, "node", cmd.Name())
	}
	r.nodes = append(r.nodes, cmd)
	return cmd
}

// RegisterGroup creates a command group, registers it, and returns it for
// further building.
func (r *Registry) RegisterGroup(name string) *commands.CommandGroup {
	group := commands.NewGroup(name)
	if !nameRe.MatchString(group.Name()) {
		panic(fmt.Sprintf("dispatch: invalid command group name %q (want [a-zA-Z0-9_]+)", name))
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, dup := range r.duplicateNames(group) {
		r.logger.Warn("duplicate command name registered", "name", dup, "node", group.Name())
	}
	r.nodes = append(r.nodes, group)
	return group
}

// Nodes returns the registered nodes in registration order.
func (r *Registry) Nodes() []commands.Node {
	r.mu.RLock()
	defer r.mu.RUnlock()

	nodes := make([]commands.Node, len(r.nodes))
	copy(nodes, r.nodes)
	return nodes
}

// Resolve returns every node whose prefixed invocation name matches the
// token. A node with a forced prefix only matches under that prefix;
// everything else matches under the default prefix. Normally zero or one
// node matches; duplicates yield several.
func (r *Registry) Resolve(token, defaultPrefix string) []commands.Node {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var matched []commands.Node
	for _, node := range r.nodes {
		prefix := node.ForcedPrefix()
		if prefix == "" {
			prefix = defaultPrefix
		}
		if !strings.HasPrefix(token, prefix) {
			continue
		}
		name := token[len(prefix):]
		if nodeMatches(node, name) {
			matched = append(matched, node)
		}
	}
	return matched
}

// ListAllowed returns the enabled nodes the identity may use, in
// registration order. Used for help and usage listings.
func (r *Registry) ListAllowed(ctx context.Context, identity string) []commands.Node {
	r.mu.RLock()
	nodes := make([]commands.Node, len(r.nodes))
	copy(nodes, r.nodes)
	r.mu.RUnlock()

	var allowed []commands.Node
	for _, node := range nodes {
		if !node.Enabled() {
			continue
		}
		ok, err := node.IsAllowed(ctx, identity)
		if err != nil || !ok {
			continue
		}
		allowed = append(allowed, node)
	}
	return allowed
}

// ForcedPrefixes returns the distinct forced prefixes in use.
func (r *Registry) ForcedPrefixes() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	seen := make(map[string]struct{})
	var prefixes []string
	for _, node := range r.nodes {
		p := node.ForcedPrefix()
		if p == "" {
			continue
		}
		if _, ok := seen[p]; ok {
			continue
		}
		seen[p] = struct{}{}
		prefixes = append(prefixes, p)
	}
	return prefixes
}

// duplicateNames returns the candidate's names that collide with already
// registered nodes, ignoring case. Must be called with the lock held.
func (r *Registry) duplicateNames(candidate commands.Node) []string {
	var dups []string
	for _, name := range append([]string{candidate.Name()}, candidate.Aliases()...) {
		for _, existing := range r.nodes {
			if nodeMatches(existing, name) {
				dups = append(dups, strings.ToLower(name))
				break
			}
		}
	}
	return dups
}

func duplicateChildren(group *commands.CommandGroup) []string {
	seen := make(map[string]struct{})
	var dups []string
	for _, child := range group.Children() {
		for _, name := range append([]string{child.Name()}, child.Aliases()...) {
			key := strings.ToLower(name)
			if _, ok := seen[key]; ok {
				dups = append(dups, key)
				continue
			}
			seen[key] = struct{}{}
		}
	}
	return dups
}

func nodeMatches(node commands.Node, name string) bool {
	if strings.EqualFold(node.Name(), name) {
		return true
	}
	for _, alias := range node.Aliases() {
		if strings.EqualFold(alias, name) {
			return true
		}
	}
	return false
}

func validateNode(node commands.Node) error {
	if strings.TrimSpace(node.Name()) == "" {
		return fmt.Errorf("command name is required")
	}
	if !nameRe.MatchString(node.Name()) {
		return fmt.Errorf("invalid command name %q (want [a-zA-Z0-9_]+)", node.Name())
	}
	return nil
}
