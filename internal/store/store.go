// Package store provides the document-store boundary for the config resolvers.
// The in-memory implementation backs tests and local dev; SQLite backs a
// single-node deployment.
package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jays-visionAI/ZINC-sub003/pkg/models"
)

// Store is the primary storage interface.
// The resolvers depend on the narrow sub-interfaces, the server on the whole.
type Store interface {
	InstanceStore
	BehaviourPackStore
	RuntimeProfileStore
	ChannelConfigStore
	RuleStore

	// Ping checks if the backing store is reachable.
	Ping(ctx context.Context) error

	// Close releases all resources held by the store.
	Close() error
}

// ── Instance Store ───────────────────────────────────────────

type InstanceStore interface {
	GetInstance(ctx context.Context, id string) (*models.AgentInstance, error)
	UpsertInstance(ctx context.Context, inst *models.AgentInstance) error
	// ListInstances returns all instances of a project; "" lists everything.
	ListInstances(ctx context.Context, projectID string) ([]models.AgentInstance, error)
}

// ── Behaviour Pack Store ─────────────────────────────────────

// BehaviourPackStore is platform-owned and read-only to tenants.
type BehaviourPackStore interface {
	GetBehaviourPack(ctx context.Context, packID string) (*models.BehaviourPack, error)
	UpsertBehaviourPack(ctx context.Context, pack *models.BehaviourPack) error
	ListBehaviourPacks(ctx context.Context) ([]models.BehaviourPack, error)
}

// ── Runtime Profile Store ────────────────────────────────────

type RuntimeProfileStore interface {
	// ListActiveRuntimeProfiles returns the active profiles of a project
	// sorted by profile id.
	ListActiveRuntimeProfiles(ctx context.Context, projectID string) ([]models.RuntimeProfile, error)
	UpsertRuntimeProfile(ctx context.Context, profile *models.RuntimeProfile) error
}

// ── Channel Config Store ─────────────────────────────────────

// ChannelConfigStore holds tenant-owned per-instance overrides.
// Writes are last-write-wins at the engine-type/field level.
type ChannelConfigStore interface {
	GetChannelConfig(ctx context.Context, instanceID string) (*models.ChannelAgentConfig, error)

	// SaveChannelOverrides creates the document if absent. Otherwise it
	// replaces overrides[engineType] for each engine type given and keeps
	// the rest.
	SaveChannelOverrides(ctx context.Context, instanceID, projectID string, overrides map[models.EngineType]map[string]interface{}, editedBy string, at time.Time) error

	// DeleteChannelOverride removes overrides[engineType][field].
	DeleteChannelOverride(ctx context.Context, instanceID string, engineType models.EngineType, field string) error

	// ClearChannelOverrides empties the overrides map.
	ClearChannelOverrides(ctx context.Context, instanceID string) error
}

// ── Rule Store ───────────────────────────────────────────────

type RuleStore interface {
	// FindActiveRule returns the active rule for (engineType, language).
	FindActiveRule(ctx context.Context, engineType models.EngineType, language string) (*models.RuntimeProfileRule, error)
	GetRule(ctx context.Context, id string) (*models.RuntimeProfileRule, error)
	UpsertRule(ctx context.Context, rule *models.RuntimeProfileRule) error
	ListRules(ctx context.Context) ([]models.RuntimeProfileRule, error)
}

// ── Errors ──────────────────────────────────────────────────

// ErrNotFound is returned when a requested entity does not exist.
type ErrNotFound struct {
	Entity string
	Key    string
}

func (e *ErrNotFound) Error() string {
	return e.Entity + " not found: " + e.Key
}

// IsNotFound reports whether err is an *ErrNotFound.
func IsNotFound(err error) bool {
	var nf *ErrNotFound
	return errors.As(err, &nf)
}

// jsonValues rebuilds m with the value types a JSON document decodes to:
// numbers become float64, slices []interface{}, objects map[string]interface{}.
// Every backend hands out option maps in this form.
func jsonValues(m map[string]interface{}) (map[string]interface{}, error) {
	if m == nil {
		return nil, nil
	}
	data, err := json.Marshal(m)
	if err != nil {
		return nil, err
	}
	var out map[string]interface{}
	if err := json.Unmarshal(data, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// jsonEngineValues applies jsonValues to every engine type's option map.
func jsonEngineValues(in map[models.EngineType]map[string]interface{}) (map[models.EngineType]map[string]interface{}, error) {
	if in == nil {
		return nil, nil
	}
	out := make(map[models.EngineType]map[string]interface{}, len(in))
	for et, o := range in {
		v, err := jsonValues(o)
		if err != nil {
			return nil, fmt.Errorf("engine type %s: %w", et, err)
		}
		out[et] = v
	}
	return out, nil
}

var (
	_ Store = (*MemoryStore)(nil)
	_ Store = (*SQLiteStore)(nil)
	_ Store = (*PostgresStore)(nil)
)
