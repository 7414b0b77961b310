// Package channels defines the transport adapter contract and shared
// plumbing (structured errors, outbound rate limiting) used by the
// platform-specific adapters.
package channels

import (
	"context"

	"github.com/haasonsaas/chatcmd/pkg/models"
)

// Adapter is implemented by every messaging transport. An adapter turns
// platform messages into models.Event values and delivers reply text back
// to the platform.
type Adapter interface {
	// Start connects to the platform and begins producing events.
	Start(ctx context.Context) error

	// Stop shuts the adapter down and closes the events channel.
	Stop(ctx context.Context) error

	// Events returns the inbound event stream. Closed on Stop.
	Events() <-chan *models.Event

	// Reply returns the delegate that delivers reply text for the given
	// event, honoring the event's ReplyKind.
	Reply(event *models.Event) models.ReplyFunc

	// Type identifies the transport.
	Type() models.ChannelType
}

// Registry holds the active adapters keyed by channel type.
type Registry struct {
	adapters map[models.ChannelType]Adapter
}

// NewRegistry creates an empty adapter registry.
func NewRegistry() *Registry {
	return &Registry{adapters: make(map[models.ChannelType]Adapter)}
}

// Register adds an adapter, replacing any previous adapter of the same type.
func (r *Registry) Register(adapter Adapter) {
	r.adapters[adapter.Type()] = adapter
}

// Get returns the adapter for a channel type.
func (r *Registry) Get(channelType models.ChannelType) (Adapter, bool) {
	adapter, ok := r.adapters[channelType]
	return adapter, ok
}

// All returns the registered adapters.
func (r *Registry) All() []Adapter {
	adapters := make([]Adapter, 0, len(r.adapters))
	for _, a := range r.adapters {
		adapters = append(adapters, a)
	}
	return adapters
}

// StartAll starts every adapter, stopping at the first failure.
func (r *Registry) StartAll(ctx context.Context) error {
	for _, adapter := range r.adapters {
		if err := adapter.Start(ctx); err != nil {
			return err
		}
	}
	return nil
}

// StopAll stops every adapter and returns the last error seen.
func (r *Registry) StopAll(ctx context.Context) error {
	var lastErr error
	for _, adapter := range r.adapters {
		if err := adapter.Stop(ctx); err != nil {
			lastErr = err
		}
	}
	return lastErr
}
