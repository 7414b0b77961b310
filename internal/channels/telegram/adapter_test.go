package telegram

import (
	"context"
	"testing"

	"github.com/go-telegram/bot"
	tgmodels "github.com/go-telegram/bot/models"

	"github.com/haasonsaas/chatcmd/pkg/models"
)

func newTestAdapter(t *testing.T) *Adapter {
	t.Helper()
	a, err := NewAdapter(Config{Token: "test-token"})
	if err != nil {
		t.Fatalf("NewAdapter failed: %v", err)
	}
	return a
}

func update(text string, chatID, userID int64, private bool) *tgmodels.Update {
	chat := tgmodels.Chat{ID: chatID, Type: "group"}
	if private {
		chat.Type = "private"
	}
	return &tgmodels.Update{
		Message: &tgmodels.Message{
			Text: text,
			Chat: chat,
			From: &tgmodels.User{ID: userID},
		},
	}
}

func TestConfig_Validate(t *testing.T) {
	if err := (&Config{}).Validate(); err == nil {
		t.Error("empty token must be rejected")
	}

	cfg := &Config{Token: "x"}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("Validate failed: %v", err)
	}
	if cfg.RateLimit != 30 || cfg.RateBurst != 20 || cfg.Logger == nil {
		t.Errorf("defaults not applied: %+v", cfg)
	}
}

func TestAdapter_HandleMessage(t *testing.T) {
	ctx := context.Background()

	t.Run("group chat message", func(t *testing.T) {
		a := newTestAdapter(t)
		a.handleMessage(ctx, nil, update("!ping", 100, 42, false))

		ev := <-a.Events()
		if ev.Text != "!ping" || ev.Identity != "42" || ev.ChannelID != "100" {
			t.Errorf("event = %+v", ev)
		}
		if ev.Channel != models.ChannelTelegram || ev.ReplyKind != models.ReplyChannel {
			t.Errorf("event routing = %v/%v", ev.Channel, ev.ReplyKind)
		}
		if ev.ID == "" {
			t.Error("event must carry an ID")
		}
	})

	t.Run("private chat message", func(t *testing.T) {
		a := newTestAdapter(t)
		a.handleMessage(ctx, nil, update("!ping", 42, 42, true))

		ev := <-a.Events()
		if ev.ReplyKind != models.ReplyDirect {
			t.Errorf("ReplyKind = %v, want direct", ev.ReplyKind)
		}
	})

	t.Run("updates without a message are ignored", func(t *testing.T) {
		a := newTestAdapter(t)
		a.handleMessage(ctx, nil, &tgmodels.Update{})
		select {
		case ev := <-a.Events():
			t.Errorf("want no event, got %+v", ev)
		default:
		}
	})
}

func TestAdapter_Reply(t *testing.T) {
	type sent struct {
		chatID any
		text   string
	}

	stub := func(a *Adapter, out *[]sent) {
		a.send = func(ctx context.Context, params *bot.SendMessageParams) (*tgmodels.Message, error) {
			*out = append(*out, sent{chatID: params.ChatID, text: params.Text})
			return &tgmodels.Message{}, nil
		}
	}

	t.Run("channel reply goes back to the chat", func(t *testing.T) {
		a := newTestAdapter(t)
		var got []sent
		stub(a, &got)

		a.Reply(&models.Event{ChannelID: "100", Identity: "42", ReplyKind: models.ReplyChannel})("pong")
		if len(got) != 1 || got[0].chatID != int64(100) || got[0].text != "pong" {
			t.Errorf("sent = %+v", got)
		}
	})

	t.Run("direct reply targets the sender", func(t *testing.T) {
		a := newTestAdapter(t)
		var got []sent
		stub(a, &got)

		a.Reply(&models.Event{ChannelID: "100", Identity: "42", ReplyKind: models.ReplyDirect})("psst")
		if len(got) != 1 || got[0].chatID != int64(42) {
			t.Errorf("sent = %+v", got)
		}
	})

	t.Run("invalid chat id is dropped", func(t *testing.T) {
		a := newTestAdapter(t)
		var got []sent
		stub(a, &got)

		a.Reply(&models.Event{ChannelID: "not-a-number"})("pong")
		if len(got) != 0 {
			t.Errorf("sent = %+v, want none", got)
		}
	})

	t.Run("empty replies are dropped", func(t *testing.T) {
		a := newTestAdapter(t)
		var got []sent
		stub(a, &got)

		a.Reply(&models.Event{ChannelID: "100"})("")
		if len(got) != 0 {
			t.Errorf("sent = %+v, want none", got)
		}
	})
}
