// Package telegram adapts Telegram bot traffic to the engine's event
// model using long polling.
package telegram

import (
	"context"
	"strconv"
	"sync"
	"time"

	"log/slog"

	"github.com/go-telegram/bot"
	tgmodels "github.com/go-telegram/bot/models"
	"github.com/google/uuid"

	"github.com/haasonsaas/chatcmd/internal/channels"
	"github.com/haasonsaas/chatcmd/pkg/models"
)

// Config holds configuration for the Telegram adapter.
type Config struct {
	// Token is the bot token from @BotFather (required).
	Token string

	// RateLimit is outbound messages per second; RateBurst the burst
	// capacity. Telegram caps bots around 30 messages per second.
	RateLimit float64
	RateBurst int

	// Logger is an optional slog.Logger instance.
	Logger *slog.Logger
}

// Validate checks the configuration and applies defaults.
func (c *Config) Validate() error {
	if c.Token == "" {
		return channels.ErrConfig("token is required", nil)
	}
	if c.RateLimit == 0 {
		c.RateLimit = 30
	}
	if c.RateBurst == 0 {
		c.RateBurst = 20
	}
	if c.Logger == nil {
		c.Logger = slog.Default()
	}
	return nil
}

// sendFunc posts one message to the Telegram API. Tests substitute a stub.
type sendFunc func(ctx context.Context, params *bot.SendMessageParams) (*tgmodels.Message, error)

// Adapter implements channels.Adapter for Telegram.
type Adapter struct {
	config  Config
	bot     *bot.Bot
	send    sendFunc
	events  chan *models.Event
	limiter *channels.RateLimiter
	logger  *slog.Logger
	cancel  context.CancelFunc
	wg      sync.WaitGroup

	mu     sync.Mutex
	closed bool
}

// NewAdapter creates a Telegram adapter with the given configuration.
func NewAdapter(config Config) (*Adapter, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}
	return &Adapter{
		config:  config,
		events:  make(chan *models.Event, 100),
		limiter: channels.NewRateLimiter(config.RateLimit, config.RateBurst),
		logger:  config.Logger.With("adapter", "telegram"),
	}, nil
}

// Start authenticates the bot and begins long polling for updates.
func (a *Adapter) Start(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	a.cancel = cancel

	b, err := bot.New(a.config.Token)
	if err != nil {
		cancel()
		return channels.ErrAuthentication("failed to create bot", err)
	}
	a.bot = b
	a.send = b.SendMessage

	b.RegisterHandler(bot.HandlerTypeMessageText, "", bot.MatchTypePrefix, a.handleMessage)

	a.wg.Add(1)
	go func() {
		defer a.wg.Done()
		b.Start(ctx)
	}()

	a.logger.Info("telegram adapter started", "rate_limit", a.config.RateLimit)
	return nil
}

// Stop halts polling and closes the events channel. It waits for the
// polling loop to exit or the context to expire.
func (a *Adapter) Stop(ctx context.Context) error {
	a.logger.Info("stopping telegram adapter")

	if a.cancel != nil {
		a.cancel()
	}

	done := make(chan struct{})
	go func() {
		a.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
	case <-ctx.Done():
		a.logger.Warn("timed out waiting for polling loop to stop")
	}

	a.mu.Lock()
	if !a.closed {
		a.closed = true
		close(a.events)
	}
	a.mu.Unlock()
	return nil
}

// Events returns the inbound event stream.
func (a *Adapter) Events() <-chan *models.Event {
	return a.events
}

// Type returns models.ChannelTelegram.
func (a *Adapter) Type() models.ChannelType {
	return models.ChannelTelegram
}

// Reply returns the delegate that delivers reply text for the event.
// ReplyDirect targets the sender's own chat; everything else goes back to
// the chat the event arrived from.
func (a *Adapter) Reply(event *models.Event) models.ReplyFunc {
	return func(message string) {
		if message == "" {
			return
		}
		if err := a.limiter.Wait(context.Background()); err != nil {
			a.logger.Error("rate limiter wait failed", "error", err)
			return
		}

		target := event.ChannelID
		if event.ReplyKind == models.ReplyDirect {
			target = event.Identity
		}
		chatID, err := strconv.ParseInt(target, 10, 64)
		if err != nil {
			a.logger.Error("invalid chat id", "chat_id", target, "error", err)
			return
		}

		if _, err := a.send(context.Background(), &bot.SendMessageParams{
			ChatID: chatID,
			Text:   message,
		}); err != nil {
			a.logger.Error("failed to send message",
				"chat_id", chatID,
				"error", err)
		}
	}
}

func (a *Adapter) handleMessage(ctx context.Context, b *bot.Bot, update *tgmodels.Update) {
	if update.Message == nil || update.Message.From == nil {
		return
	}
	msg := update.Message

	kind := models.ReplyChannel
	if msg.Chat.Type == "private" {
		kind = models.ReplyDirect
	}

	a.publish(&models.Event{
		ID:         uuid.NewString(),
		Text:       msg.Text,
		Identity:   strconv.FormatInt(msg.From.ID, 10),
		Channel:    models.ChannelTelegram,
		ChannelID:  strconv.FormatInt(msg.Chat.ID, 10),
		ReplyKind:  kind,
		ReceivedAt: time.Now(),
		Raw:        update,
	})
}

func (a *Adapter) publish(event *models.Event) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.closed {
		return
	}

	select {
	case a.events <- event:
	default:
		a.logger.Warn("events channel full, dropping message",
			"chat_id", event.ChannelID)
	}
}
