// Package models defines the shared types exchanged between channel
// adapters and the dispatch engine.
package models

import (
	"time"
)

// ChannelType represents a messaging platform.
type ChannelType string

const (
	ChannelTelegram ChannelType = "telegram"
	ChannelDiscord  ChannelType = "discord"
	ChannelTest     ChannelType = "test"
)

// ReplyKind selects where a command reply is delivered.
type ReplyKind string

const (
	// ReplyDirect answers the invoking user privately.
	ReplyDirect ReplyKind = "direct"

	// ReplyChannel answers into the channel the command arrived on.
	ReplyChannel ReplyKind = "channel"

	// ReplyBroadcast answers to everyone the transport can reach.
	ReplyBroadcast ReplyKind = "broadcast"
)

// Event is one inbound message as seen by the dispatcher. Adapters produce
// exactly one Event per received message.
type Event struct {
	// ID uniquely identifies this event (assigned by the adapter).
	ID string `json:"id"`

	// Text is the raw message text.
	Text string `json:"text"`

	// Identity is the canonical identity string of the sender.
	Identity string `json:"identity"`

	// Channel is the transport the event arrived on.
	Channel ChannelType `json:"channel"`

	// ChannelID is the platform-specific channel/chat identifier.
	ChannelID string `json:"channel_id"`

	// ReplyKind is where replies to this event should go.
	ReplyKind ReplyKind `json:"reply_kind"`

	// ReceivedAt is when the adapter accepted the message.
	ReceivedAt time.Time `json:"received_at"`

	// Raw holds the untouched transport payload for handlers that need it.
	Raw any `json:"-"`
}

// ReplyFunc delivers one reply string back through the transport the event
// arrived on. Implemented by channel adapters; the engine only ever calls it
// with plain strings.
type ReplyFunc func(message string)
