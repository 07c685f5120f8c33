// Package events publishes config-change notifications so that callers which
// cache effective configs can invalidate them. The resolvers never cache.
package events

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jays-visionAI/ZINC-sub003/pkg/models"
)

// Action describes which write produced the event.
type Action string

const (
	ActionSaved      Action = "saved"
	ActionFieldReset Action = "field_reset"
	ActionAllReset   Action = "all_reset"
)

// ConfigChanged is emitted after every successful ChannelAgentConfig write.
type ConfigChanged struct {
	ID          string              `json:"id"`
	Action      Action              `json:"action"`
	InstanceID  string              `json:"instance_id"`
	EngineTypes []models.EngineType `json:"engine_types,omitempty"`
	Field       string              `json:"field,omitempty"`
	UserID      string              `json:"user_id,omitempty"`
	At          time.Time           `json:"at"`
}

// NewConfigChanged stamps an event with a fresh id and the current time.
func NewConfigChanged(action Action, instanceID string) ConfigChanged {
	return ConfigChanged{
		ID:         uuid.New().String(),
		Action:     action,
		InstanceID: instanceID,
		At:         time.Now().UTC(),
	}
}

// Publisher delivers config-change events.
type Publisher interface {
	Publish(ctx context.Context, evt ConfigChanged) error
	Close() error
}

// NopPublisher discards every event.
type NopPublisher struct{}

func (NopPublisher) Publish(context.Context, ConfigChanged) error { return nil }
func (NopPublisher) Close() error                                 { return nil }

// MemoryPublisher records events in order. Used in tests and by callers
// that want to observe writes in-process.
type MemoryPublisher struct {
	mu     sync.Mutex
	events []ConfigChanged
}

func (p *MemoryPublisher) Publish(_ context.Context, evt ConfigChanged) error {
	p.mu.Lock()
	p.events = append(p.events, evt)
	p.mu.Unlock()
	return nil
}

func (p *MemoryPublisher) Close() error { return nil }

// Events returns a copy of the recorded events.
func (p *MemoryPublisher) Events() []ConfigChanged {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]ConfigChanged, len(p.events))
	copy(out, p.events)
	return out
}
