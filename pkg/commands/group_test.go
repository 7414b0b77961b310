package commands

import (
	"context"
	"errors"
	"testing"

	"github.com/haasonsaas/chatcmd/pkg/arguments"
)

func moneyGroup(t *testing.T) (*CommandGroup, *map[string]float64) {
	t.Helper()
	amounts := make(map[string]float64)

	group := NewGroup("money").Help("Manage balances")
	group.AddCommand("add").
		AddArgument(arguments.Number("amount").Min(1)).
		AddHandler(func(ctx context.Context, inv *Invocation) error {
			amounts["add"] = inv.Args["amount"].(float64)
			return nil
		})
	group.AddCommand("remove").
		AddArgument(arguments.Number("amount").Min(1)).
		AddHandler(func(ctx context.Context, inv *Invocation) error {
			amounts["remove"] = inv.Args["amount"].(float64)
			return nil
		})
	return group, &amounts
}

func TestGroup_Dispatch_RoutesToChild(t *testing.T) {
	ctx := context.Background()
	group, amounts := moneyGroup(t)

	if err := group.Dispatch(ctx, "add 10", testEvent("alice"), discardReply); err != nil {
		t.Fatalf("Dispatch failed: %v", err)
	}
	if (*amounts)["add"] != 10 {
		t.Errorf("add amount = %v, want 10", (*amounts)["add"])
	}

	if err := group.Dispatch(ctx, "remove 4", testEvent("alice"), discardReply); err != nil {
		t.Fatalf("Dispatch failed: %v", err)
	}
	if (*amounts)["remove"] != 4 {
		t.Errorf("remove amount = %v, want 4", (*amounts)["remove"])
	}
}

func TestGroup_Dispatch_UnknownChild(t *testing.T) {
	ctx := context.Background()
	group, _ := moneyGroup(t)

	err := group.Dispatch(ctx, "steal 10", testEvent("alice"), discardReply)
	var nf *SubCommandNotFoundError
	if !errors.As(err, &nf) {
		t.Fatalf("want *SubCommandNotFoundError, got %T: %v", err, err)
	}
	if nf.Token != "steal" {
		t.Errorf("token = %q", nf.Token)
	}
}

func TestGroup_Dispatch_EmptyToken(t *testing.T) {
	ctx := context.Background()

	t.Run("without a group handler", func(t *testing.T) {
		group, _ := moneyGroup(t)
		err := group.Dispatch(ctx, "", testEvent("alice"), discardReply)
		var nf *SubCommandNotFoundError
		if !errors.As(err, &nf) {
			t.Fatalf("want *SubCommandNotFoundError, got %T: %v", err, err)
		}
	})

	t.Run("with a group handler", func(t *testing.T) {
		group, _ := moneyGroup(t)
		ran := false
		group.AddHandler(func(ctx context.Context, inv *Invocation) error {
			ran = true
			if len(inv.Args) != 0 {
				t.Errorf("group handler args = %v, want empty", inv.Args)
			}
			return nil
		})
		if err := group.Dispatch(ctx, "", testEvent("alice"), discardReply); err != nil {
			t.Fatalf("Dispatch failed: %v", err)
		}
		if !ran {
			t.Error("group handler was not invoked")
		}
	})
}

func TestGroup_Dispatch_CaseInsensitiveChildAliases(t *testing.T) {
	ctx := context.Background()
	ran := false

	group := NewGroup("admin")
	group.AddCommand("kick").
		Alias("boot").
		AddHandler(func(ctx context.Context, inv *Invocation) error {
			ran = true
			return nil
		})

	if err := group.Dispatch(ctx, "BOOT", testEvent("alice"), discardReply); err != nil {
		t.Fatalf("Dispatch failed: %v", err)
	}
	if !ran {
		t.Error("alias lookup should be case-insensitive")
	}
}

func TestGroup_IsAllowed(t *testing.T) {
	ctx := context.Background()
	adminOnly := func(ctx context.Context, identity string) (bool, error) {
		return identity == "admin", nil
	}

	t.Run("own predicate gates everything", func(t *testing.T) {
		group, _ := moneyGroup(t)
		group.Permission(adminOnly)
		ok, _ := group.IsAllowed(ctx, "alice")
		if ok {
			t.Error("group predicate should reject alice")
		}
		ok, _ = group.IsAllowed(ctx, "admin")
		if !ok {
			t.Error("group predicate should allow admin")
		}
	})

	t.Run("no allowed child and no own handler means invisible", func(t *testing.T) {
		group := NewGroup("admin")
		group.AddCommand("kick").Permission(adminOnly)
		ok, _ := group.IsAllowed(ctx, "alice")
		if ok {
			t.Error("group without reachable children should be invisible")
		}
	})

	t.Run("one allowed child suffices", func(t *testing.T) {
		group := NewGroup("admin")
		group.AddCommand("kick").Permission(adminOnly)
		group.AddCommand("list")
		ok, _ := group.IsAllowed(ctx, "alice")
		if !ok {
			t.Error("an unrestricted child should make the group visible")
		}
	})

	t.Run("own handler suffices without children", func(t *testing.T) {
		group := NewGroup("stats").AddHandler(func(ctx context.Context, inv *Invocation) error {
			return nil
		})
		ok, _ := group.IsAllowed(ctx, "alice")
		if !ok {
			t.Error("a group with its own handler should be visible")
		}
	})
}

func TestGroup_Dispatch_ChildPermissionStillApplies(t *testing.T) {
	ctx := context.Background()
	adminOnly := func(ctx context.Context, identity string) (bool, error) {
		return identity == "admin", nil
	}

	group := NewGroup("admin")
	group.AddCommand("kick").Permission(adminOnly).AddHandler(func(ctx context.Context, inv *Invocation) error {
		return nil
	})
	group.AddCommand("list").AddHandler(func(ctx context.Context, inv *Invocation) error {
		return nil
	})

	// The group is visible to alice through the unrestricted child, but the
	// restricted child still rejects her on direct dispatch.
	err := group.Dispatch(ctx, "kick", testEvent("alice"), discardReply)
	var perm *PermissionError
	if !errors.As(err, &perm) {
		t.Fatalf("want *PermissionError, got %T: %v", err, err)
	}

	if err := group.Dispatch(ctx, "list", testEvent("alice"), discardReply); err != nil {
		t.Errorf("unrestricted child should dispatch: %v", err)
	}
}

func TestGroup_Usage(t *testing.T) {
	group, _ := moneyGroup(t)
	if got := group.Usage(); got != "money <add|remove>" {
		t.Errorf("Usage() = %q", got)
	}
}
