// Package discord adapts Discord gateway traffic to the engine's event
// model using discordgo.
package discord

import (
	"context"
	"fmt"
	"regexp"
	"sync"
	"time"

	"log/slog"

	"github.com/bwmarrin/discordgo"
	"github.com/google/uuid"

	"github.com/haasonsaas/chatcmd/internal/channels"
	"github.com/haasonsaas/chatcmd/pkg/arguments"
	"github.com/haasonsaas/chatcmd/pkg/models"
)

// session is the subset of discordgo.Session the adapter needs. Tests
// substitute a fake.
type session interface {
	Open() error
	Close() error
	AddHandler(handler interface{}) func()
	ChannelMessageSend(channelID string, content string, options ...discordgo.RequestOption) (*discordgo.Message, error)
	UserChannelCreate(recipientID string, options ...discordgo.RequestOption) (*discordgo.Channel, error)
}

// Config holds configuration for the Discord adapter.
type Config struct {
	// Token is the bot token (required).
	Token string

	// RateLimit is outbound messages per second; RateBurst the burst
	// capacity for the outbound token bucket.
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
		c.RateLimit = 5
	}
	if c.RateBurst == 0 {
		c.RateBurst = 5
	}
	if c.Logger == nil {
		c.Logger = slog.Default()
	}
	return nil
}

// Adapter implements channels.Adapter for Discord.
type Adapter struct {
	config  Config
	session session
	events  chan *models.Event
	limiter *channels.RateLimiter
	logger  *slog.Logger

	mu     sync.Mutex
	closed bool
	selfID string
}

// NewAdapter creates a Discord adapter with the given configuration.
func NewAdapter(config Config) (*Adapter, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}
	return &Adapter{
		config:  config,
		events:  make(chan *models.Event, 100),
		limiter: channels.NewRateLimiter(config.RateLimit, config.RateBurst),
		logger:  config.Logger.With("adapter", "discord"),
	}, nil
}

// Start connects to the Discord gateway and begins producing events.
func (a *Adapter) Start(ctx context.Context) error {
	if a.session == nil {
		dg, err := discordgo.New("Bot " + a.config.Token)
		if err != nil {
			return channels.ErrAuthentication("failed to create session", err)
		}
		dg.Identify.Intents = discordgo.IntentsGuildMessages |
			discordgo.IntentsDirectMessages |
			discordgo.IntentMessageContent
		a.session = dg
	}

	a.session.AddHandler(a.handleReady)
	a.session.AddHandler(a.handleMessageCreate)

	if err := a.session.Open(); err != nil {
		return channels.ErrConnection("failed to open gateway", err)
	}

	a.logger.Info("discord adapter started", "rate_limit", a.config.RateLimit)
	return nil
}

// Stop closes the gateway connection and the events channel.
func (a *Adapter) Stop(ctx context.Context) error {
	a.logger.Info("stopping discord adapter")

	var err error
	if a.session != nil {
		err = a.session.Close()
	}

	a.mu.Lock()
	if !a.closed {
		a.closed = true
		close(a.events)
	}
	a.mu.Unlock()

	if err != nil {
		return channels.ErrConnection("failed to close gateway", err)
	}
	return nil
}

// Events returns the inbound event stream.
func (a *Adapter) Events() <-chan *models.Event {
	return a.events
}

// Type returns models.ChannelDiscord.
func (a *Adapter) Type() models.ChannelType {
	return models.ChannelDiscord
}

// Reply returns the delegate that delivers reply text for the event.
// ReplyDirect opens (or reuses) a DM channel with the sender; everything
// else goes back to the channel the event arrived on.
func (a *Adapter) Reply(event *models.Event) models.ReplyFunc {
	return func(message string) {
		if message == "" {
			return
		}
		if err := a.limiter.Wait(context.Background()); err != nil {
			a.logger.Error("rate limiter wait failed", "error", err)
			return
		}

		channelID := event.ChannelID
		if event.ReplyKind == models.ReplyDirect {
			dm, err := a.session.UserChannelCreate(event.Identity)
			if err != nil {
				a.logger.Error("failed to open DM channel",
					"identity", event.Identity,
					"error", err)
				return
			}
			channelID = dm.ID
		}

		if _, err := a.session.ChannelMessageSend(channelID, message); err != nil {
			a.logger.Error("failed to send message",
				"channel_id", channelID,
				"error", err)
		}
	}
}

func (a *Adapter) handleReady(s *discordgo.Session, r *discordgo.Ready) {
	a.mu.Lock()
	a.selfID = r.User.ID
	a.mu.Unlock()
	a.logger.Info("discord gateway ready", "user_id", r.User.ID)
}

func (a *Adapter) handleMessageCreate(s *discordgo.Session, m *discordgo.MessageCreate) {
	if m.Author == nil || m.Author.Bot {
		return
	}
	a.mu.Lock()
	self := a.selfID
	a.mu.Unlock()
	if self != "" && m.Author.ID == self {
		return
	}

	kind := models.ReplyChannel
	if m.GuildID == "" {
		kind = models.ReplyDirect
	}

	a.publish(&models.Event{
		ID:         uuid.NewString(),
		Text:       m.Content,
		Identity:   m.Author.ID,
		Channel:    models.ChannelDiscord,
		ChannelID:  m.ChannelID,
		ReplyKind:  kind,
		ReceivedAt: time.Now(),
		Raw:        m,
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
			"channel_id", event.ChannelID)
	}
}

var mentionRe = regexp.MustCompile(`^<@!?(\d+)>$`)
var snowflakeRe = regexp.MustCompile(`^\d+$`)

// MentionResolver resolves Discord identity references for identity
// arguments: mention tokens like <@123> or <@!123>, or a bare snowflake ID.
func MentionResolver() arguments.Resolver {
	return func(token string) (string, error) {
		if m := mentionRe.FindStringSubmatch(token); m != nil {
			return m[1], nil
		}
		if snowflakeRe.MatchString(token) {
			return token, nil
		}
		return "", fmt.Errorf("%q is not a user mention", token)
	}
}
