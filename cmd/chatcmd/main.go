// Package main provides the CLI entry point for the chatcmd daemon.
//
// chatcmd connects messaging platforms (Telegram, Discord) to a prefix-based
// command engine with argument validation, permissions, and per-user
// throttling.
//
// # Basic Usage
//
// Start the daemon:
//
//	chatcmd serve --config chatcmd.yaml
//
// # Environment Variables
//
// Tokens referenced as ${VAR} in the configuration file are expanded from
// the environment, for example:
//
//   - TELEGRAM_BOT_TOKEN: Telegram bot token
//   - DISCORD_BOT_TOKEN: Discord bot token
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"sync"
	"syscall"
	"time"

	"log/slog"

	"github.com/spf13/cobra"

	"github.com/haasonsaas/chatcmd/internal/channels"
	"github.com/haasonsaas/chatcmd/internal/channels/discord"
	"github.com/haasonsaas/chatcmd/internal/channels/telegram"
	"github.com/haasonsaas/chatcmd/internal/config"
	"github.com/haasonsaas/chatcmd/internal/observability"
	"github.com/haasonsaas/chatcmd/pkg/arguments"
	"github.com/haasonsaas/chatcmd/pkg/commands"
	"github.com/haasonsaas/chatcmd/pkg/dispatch"
	"github.com/haasonsaas/chatcmd/pkg/models"
	"github.com/haasonsaas/chatcmd/pkg/throttle"
)

// Build information, populated by ldflags during build.
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "chatcmd",
		Short: "Chat command engine for Telegram and Discord",
	}
	rootCmd.AddCommand(buildServeCmd())
	rootCmd.AddCommand(buildVersionCmd())

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func buildVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "chatcmd %s (commit %s, built %s)\n", version, commit, date)
		},
	}
}

func buildServeCmd() *cobra.Command {
	var configPath string
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the command engine",
		Long: `Run the command engine against every enabled channel.

Graceful shutdown is handled on SIGINT/SIGTERM signals.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(configPath)
			if err != nil {
				return err
			}

			logger := observability.NewLogger(cfg.Logging)
			slog.SetDefault(logger)

			return runServe(cmd.Context(), cfg, logger)
		},
	}
	cmd.Flags().StringVarP(&configPath, "config", "c", "chatcmd.yaml", "Path to YAML configuration file")
	return cmd
}

func runServe(ctx context.Context, cfg *config.Config, logger *slog.Logger) error {
	ctx, cancel := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	limiter := throttle.New(cfg.Throttle, throttle.NewTimerScheduler())

	registry := dispatch.NewRegistry(logger)
	registerBuiltins(registry, limiter, cfg.Engine.Prefix)

	adapters := channels.NewRegistry()
	if cfg.Channels.Discord.Enabled {
		a, err := discord.NewAdapter(discord.Config{
			Token:     cfg.Channels.Discord.Token,
			RateLimit: cfg.Channels.Discord.RateLimit,
			RateBurst: cfg.Channels.Discord.RateBurst,
			Logger:    logger,
		})
		if err != nil {
			return err
		}
		adapters.Register(a)
	}
	if cfg.Channels.Telegram.Enabled {
		a, err := telegram.NewAdapter(telegram.Config{
			Token:     cfg.Channels.Telegram.Token,
			RateLimit: cfg.Channels.Telegram.RateLimit,
			RateBurst: cfg.Channels.Telegram.RateBurst,
			Logger:    logger,
		})
		if err != nil {
			return err
		}
		adapters.Register(a)
	}
	if len(adapters.All()) == 0 {
		return fmt.Errorf("no channels enabled; enable at least one under channels: in the config")
	}

	replies := func(event *models.Event) models.ReplyFunc {
		if adapter, ok := adapters.Get(event.Channel); ok {
			return adapter.Reply(event)
		}
		return nil
	}
	dispatcher := dispatch.NewDispatcher(registry, dispatch.Policy{
		Prefix:          cfg.Engine.Prefix,
		SelfIdentity:    cfg.Engine.SelfIdentity,
		AnnounceUnknown: cfg.Engine.AnnounceUnknown,
	}, replies, logger)

	if err := adapters.StartAll(ctx); err != nil {
		return err
	}
	logger.Info("chatcmd started",
		"version", version,
		"prefix", cfg.Engine.Prefix,
		"channels", len(adapters.All()))

	var wg sync.WaitGroup
	for _, adapter := range adapters.All() {
		wg.Add(1)
		go func(a channels.Adapter) {
			defer wg.Done()
			for event := range a.Events() {
				dispatcher.HandleMessage(ctx, event)
			}
		}(adapter)
	}

	<-ctx.Done()
	logger.Info("shutdown signal received, initiating graceful shutdown")

	stopCtx, stopCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer stopCancel()
	if err := adapters.StopAll(stopCtx); err != nil {
		logger.Error("adapter shutdown failed", "error", err)
	}
	wg.Wait()

	logger.Info("chatcmd stopped")
	return nil
}

// registerBuiltins installs the stock command set. Hosts embedding the
// engine as a library register their own commands instead.
func registerBuiltins(registry *dispatch.Registry, limiter *throttle.Throttle, prefix string) {
	registry.RegisterCommand("ping").
		Help("Checks that the engine is responsive").
		AddArgument(arguments.Number("amount").Integer().Min(1).Max(5).Optional(1)).
		Throttle(limiter).
		AddHandler(func(ctx context.Context, inv *commands.Invocation) error {
			n := int(inv.Args["amount"].(float64))
			inv.Reply(strings.TrimSpace(strings.Repeat("pong ", n)))
			return nil
		})

	registry.RegisterCommand("echo").
		Help("Repeats a message back").
		AddArgument(arguments.Rest("message").MinLength(1)).
		Throttle(limiter).
		AddHandler(func(ctx context.Context, inv *commands.Invocation) error {
			inv.Reply(inv.Args["message"].(string))
			return nil
		})

	registry.RegisterCommand("whois").
		Help("Resolves a user reference to a canonical identity").
		AddArgument(arguments.Identity("target", discord.MentionResolver())).
		AddHandler(func(ctx context.Context, inv *commands.Invocation) error {
			inv.Reply(fmt.Sprintf("Resolved identity: %s", inv.Args["target"].(string)))
			return nil
		})

	engine := registry.RegisterGroup("engine").
		Help("Engine status commands")
	started := time.Now()
	engine.AddCommand("uptime").
		Help("Shows how long the engine has been running").
		AddHandler(func(ctx context.Context, inv *commands.Invocation) error {
			inv.Reply(fmt.Sprintf("Up for %s.", time.Since(started).Round(time.Second)))
			return nil
		})
	engine.AddCommand("version").
		Help("Shows the engine version").
		AddHandler(func(ctx context.Context, inv *commands.Invocation) error {
			inv.Reply(fmt.Sprintf("chatcmd %s", version))
			return nil
		})

	if err := registry.Register(dispatch.NewHelpCommand(registry, prefix)); err != nil {
		slog.Warn("failed to register help command", "error", err)
	}
}
