package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jays-visionAI/ZINC-sub003/internal/merge"
	"github.com/jays-visionAI/ZINC-sub003/pkg/models"
	"github.com/rs/zerolog/log"
)

const postgresSchema = `
CREATE TABLE IF NOT EXISTS zinc_instances (
	id          TEXT PRIMARY KEY,
	project_id  TEXT NOT NULL DEFAULT '',
	data        JSONB NOT NULL,
	updated_at  TIMESTAMPTZ NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_zinc_instances_project ON zinc_instances (project_id);

CREATE TABLE IF NOT EXISTS zinc_behaviour_packs (
	pack_id     TEXT PRIMARY KEY,
	engine_type TEXT NOT NULL,
	channel_id  TEXT NOT NULL DEFAULT '',
	data        JSONB NOT NULL
);

CREATE TABLE IF NOT EXISTS zinc_runtime_profiles (
	profile_id  TEXT PRIMARY KEY,
	project_id  TEXT NOT NULL DEFAULT '',
	is_active   BOOLEAN NOT NULL DEFAULT FALSE,
	data        JSONB NOT NULL,
	updated_at  TIMESTAMPTZ NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_zinc_runtime_profiles_active ON zinc_runtime_profiles (project_id, is_active);

CREATE TABLE IF NOT EXISTS zinc_channel_configs (
	instance_id TEXT PRIMARY KEY,
	data        JSONB NOT NULL,
	updated_at  TIMESTAMPTZ NOT NULL
);

CREATE TABLE IF NOT EXISTS zinc_runtime_rules (
	id          TEXT PRIMARY KEY,
	engine_type TEXT NOT NULL,
	language    TEXT NOT NULL,
	is_active   BOOLEAN NOT NULL DEFAULT FALSE,
	data        JSONB NOT NULL,
	updated_at  TIMESTAMPTZ NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_zinc_runtime_rules_lookup ON zinc_runtime_rules (engine_type, language, is_active);
`

// PostgresStore implements Store on PostgreSQL. Documents are JSONB next to
// the columns they are queried by, same layout as SQLiteStore.
type PostgresStore struct {
	pool *pgxpool.Pool
}

// NewPostgresStore connects to connURL and applies the schema.
func NewPostgresStore(ctx context.Context, connURL string) (*PostgresStore, error) {
	pool, err := pgxpool.New(ctx, connURL)
	if err != nil {
		return nil, fmt.Errorf("postgres connect: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("postgres ping: %w", err)
	}
	if _, err := pool.Exec(ctx, postgresSchema); err != nil {
		pool.Close()
		return nil, fmt.Errorf("postgres migrate: %w", err)
	}

	log.Info().Msg("Postgres store opened")
	return &PostgresStore{pool: pool}, nil
}

func (s *PostgresStore) Ping(ctx context.Context) error {
	if s == nil || s.pool == nil {
		return ErrStoreClosed
	}
	return s.pool.Ping(ctx)
}

func (s *PostgresStore) Close() error {
	if s != nil && s.pool != nil {
		s.pool.Close()
	}
	return nil
}

func (s *PostgresStore) getDoc(ctx context.Context, query, entity, key string, dst interface{}, args ...interface{}) error {
	var data []byte
	err := s.pool.QueryRow(ctx, query, args...).Scan(&data)
	if errors.Is(err, pgx.ErrNoRows) {
		return &ErrNotFound{Entity: entity, Key: key}
	}
	if err != nil {
		return fmt.Errorf("query %s: %w", entity, err)
	}
	if err := json.Unmarshal(data, dst); err != nil {
		return fmt.Errorf("decode %s %s: %w", entity, key, err)
	}
	return nil
}

// listPgDocs decodes the data column of every row into a T.
func listPgDocs[T any](ctx context.Context, pool *pgxpool.Pool, query string, args ...interface{}) ([]T, error) {
	rows, err := pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []T
	for rows.Next() {
		var data []byte
		if err := rows.Scan(&data); err != nil {
			return nil, err
		}
		var v T
		if err := json.Unmarshal(data, &v); err != nil {
			return nil, err
		}
		result = append(result, v)
	}
	return result, rows.Err()
}

// ── Instance Store ───────────────────────────────────────────

func (s *PostgresStore) GetInstance(ctx context.Context, id string) (*models.AgentInstance, error) {
	var inst models.AgentInstance
	if err := s.getDoc(ctx, `SELECT data FROM zinc_instances WHERE id = $1`, "instance", id, &inst, id); err != nil {
		return nil, err
	}
	return &inst, nil
}

func (s *PostgresStore) UpsertInstance(ctx context.Context, inst *models.AgentInstance) error {
	cp := *inst
	now := time.Now().UTC()
	if existing, err := s.GetInstance(ctx, inst.ID); err == nil {
		cp.CreatedAt = existing.CreatedAt
	} else if cp.CreatedAt.IsZero() {
		cp.CreatedAt = now
	}
	cp.UpdatedAt = now
	data, err := json.Marshal(cp)
	if err != nil {
		return fmt.Errorf("encode instance: %w", err)
	}
	_, err = s.pool.Exec(ctx, `
		INSERT INTO zinc_instances (id, project_id, data, updated_at) VALUES ($1, $2, $3::jsonb, $4)
		ON CONFLICT (id) DO UPDATE SET project_id = EXCLUDED.project_id, data = EXCLUDED.data, updated_at = EXCLUDED.updated_at
	`, cp.ID, cp.ProjectID, string(data), now)
	return err
}

func (s *PostgresStore) ListInstances(ctx context.Context, projectID string) ([]models.AgentInstance, error) {
	if projectID == "" {
		return listPgDocs[models.AgentInstance](ctx, s.pool, `SELECT data FROM zinc_instances ORDER BY id`)
	}
	return listPgDocs[models.AgentInstance](ctx, s.pool, `SELECT data FROM zinc_instances WHERE project_id = $1 ORDER BY id`, projectID)
}

// ── Behaviour Pack Store ─────────────────────────────────────

func (s *PostgresStore) GetBehaviourPack(ctx context.Context, packID string) (*models.BehaviourPack, error) {
	var p models.BehaviourPack
	if err := s.getDoc(ctx, `SELECT data FROM zinc_behaviour_packs WHERE pack_id = $1`, "behaviour pack", packID, &p, packID); err != nil {
		return nil, err
	}
	return &p, nil
}

func (s *PostgresStore) UpsertBehaviourPack(ctx context.Context, pack *models.BehaviourPack) error {
	data, err := json.Marshal(pack)
	if err != nil {
		return fmt.Errorf("encode behaviour pack: %w", err)
	}
	_, err = s.pool.Exec(ctx, `
		INSERT INTO zinc_behaviour_packs (pack_id, engine_type, channel_id, data) VALUES ($1, $2, $3, $4::jsonb)
		ON CONFLICT (pack_id) DO UPDATE SET engine_type = EXCLUDED.engine_type, channel_id = EXCLUDED.channel_id, data = EXCLUDED.data
	`, pack.PackID, string(pack.EngineType), pack.ChannelID, string(data))
	return err
}

func (s *PostgresStore) ListBehaviourPacks(ctx context.Context) ([]models.BehaviourPack, error) {
	return listPgDocs[models.BehaviourPack](ctx, s.pool, `SELECT data FROM zinc_behaviour_packs ORDER BY pack_id`)
}

// ── Runtime Profile Store ────────────────────────────────────

func (s *PostgresStore) ListActiveRuntimeProfiles(ctx context.Context, projectID string) ([]models.RuntimeProfile, error) {
	return listPgDocs[models.RuntimeProfile](ctx, s.pool,
		`SELECT data FROM zinc_runtime_profiles WHERE project_id = $1 AND is_active ORDER BY profile_id`, projectID)
}

func (s *PostgresStore) UpsertRuntimeProfile(ctx context.Context, profile *models.RuntimeProfile) error {
	cp := *profile
	cp.UpdatedAt = time.Now().UTC()
	data, err := json.Marshal(cp)
	if err != nil {
		return fmt.Errorf("encode runtime profile: %w", err)
	}
	_, err = s.pool.Exec(ctx, `
		INSERT INTO zinc_runtime_profiles (profile_id, project_id, is_active, data, updated_at) VALUES ($1, $2, $3, $4::jsonb, $5)
		ON CONFLICT (profile_id) DO UPDATE SET project_id = EXCLUDED.project_id, is_active = EXCLUDED.is_active,
			data = EXCLUDED.data, updated_at = EXCLUDED.updated_at
	`, cp.ProfileID, cp.ProjectID, cp.IsActive, string(data), cp.UpdatedAt)
	return err
}

// ── Channel Config Store ─────────────────────────────────────

func (s *PostgresStore) GetChannelConfig(ctx context.Context, instanceID string) (*models.ChannelAgentConfig, error) {
	var c models.ChannelAgentConfig
	if err := s.getDoc(ctx, `SELECT data FROM zinc_channel_configs WHERE instance_id = $1`, "channel config", instanceID, &c, instanceID); err != nil {
		return nil, err
	}
	return &c, nil
}

// updateChannelConfig locks the row for the read-modify-write. create is
// called when the row is absent; nil create means the row must exist.
func (s *PostgresStore) updateChannelConfig(ctx context.Context, instanceID string, create func() *models.ChannelAgentConfig, mutate func(*models.ChannelAgentConfig)) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx)

	var data []byte
	var c *models.ChannelAgentConfig
	err = tx.QueryRow(ctx, `SELECT data FROM zinc_channel_configs WHERE instance_id = $1 FOR UPDATE`, instanceID).Scan(&data)
	switch {
	case errors.Is(err, pgx.ErrNoRows):
		if create == nil {
			return &ErrNotFound{Entity: "channel config", Key: instanceID}
		}
		c = create()
	case err != nil:
		return fmt.Errorf("query channel config: %w", err)
	default:
		c = &models.ChannelAgentConfig{}
		if err := json.Unmarshal(data, c); err != nil {
			return fmt.Errorf("decode channel config %s: %w", instanceID, err)
		}
	}
	if c.Overrides == nil {
		c.Overrides = make(map[models.EngineType]map[string]interface{})
	}

	mutate(c)

	out, err := json.Marshal(c)
	if err != nil {
		return fmt.Errorf("encode channel config: %w", err)
	}
	if _, err := tx.Exec(ctx, `
		INSERT INTO zinc_channel_configs (instance_id, data, updated_at) VALUES ($1, $2::jsonb, $3)
		ON CONFLICT (instance_id) DO UPDATE SET data = EXCLUDED.data, updated_at = EXCLUDED.updated_at
	`, instanceID, string(out), time.Now().UTC()); err != nil {
		return fmt.Errorf("write channel config: %w", err)
	}
	return tx.Commit(ctx)
}

func (s *PostgresStore) SaveChannelOverrides(ctx context.Context, instanceID, projectID string, overrides map[models.EngineType]map[string]interface{}, editedBy string, at time.Time) error {
	create := func() *models.ChannelAgentConfig {
		return &models.ChannelAgentConfig{
			ID:         uuid.New().String(),
			InstanceID: instanceID,
			ProjectID:  projectID,
			CreatedAt:  at,
		}
	}
	return s.updateChannelConfig(ctx, instanceID, create, func(c *models.ChannelAgentConfig) {
		for et, o := range overrides {
			c.Overrides[et] = merge.Merge(o)
		}
		if projectID != "" {
			c.ProjectID = projectID
		}
		c.LastEditedBy = editedBy
		c.LastEditedAt = at
	})
}

func (s *PostgresStore) DeleteChannelOverride(ctx context.Context, instanceID string, engineType models.EngineType, field string) error {
	return s.updateChannelConfig(ctx, instanceID, nil, func(c *models.ChannelAgentConfig) {
		if o := c.Overrides[engineType]; o != nil {
			delete(o, field)
		}
	})
}

func (s *PostgresStore) ClearChannelOverrides(ctx context.Context, instanceID string) error {
	return s.updateChannelConfig(ctx, instanceID, nil, func(c *models.ChannelAgentConfig) {
		c.Overrides = make(map[models.EngineType]map[string]interface{})
	})
}

// ── Rule Store ───────────────────────────────────────────────

func (s *PostgresStore) FindActiveRule(ctx context.Context, engineType models.EngineType, language string) (*models.RuntimeProfileRule, error) {
	language = models.NormalizeLanguage(language)
	var r models.RuntimeProfileRule
	err := s.getDoc(ctx,
		`SELECT data FROM zinc_runtime_rules WHERE engine_type = $1 AND language = $2 AND is_active ORDER BY id LIMIT 1`,
		"runtime rule", string(engineType)+"/"+language, &r, string(engineType), language)
	if err != nil {
		return nil, err
	}
	return &r, nil
}

func (s *PostgresStore) GetRule(ctx context.Context, id string) (*models.RuntimeProfileRule, error) {
	var r models.RuntimeProfileRule
	if err := s.getDoc(ctx, `SELECT data FROM zinc_runtime_rules WHERE id = $1`, "runtime rule", id, &r, id); err != nil {
		return nil, err
	}
	return &r, nil
}

func (s *PostgresStore) UpsertRule(ctx context.Context, rule *models.RuntimeProfileRule) error {
	cp := *rule
	cp.Normalize()
	cp.UpdatedAt = time.Now().UTC()
	data, err := json.Marshal(cp)
	if err != nil {
		return fmt.Errorf("encode runtime rule: %w", err)
	}
	_, err = s.pool.Exec(ctx, `
		INSERT INTO zinc_runtime_rules (id, engine_type, language, is_active, data, updated_at) VALUES ($1, $2, $3, $4, $5::jsonb, $6)
		ON CONFLICT (id) DO UPDATE SET engine_type = EXCLUDED.engine_type, language = EXCLUDED.language,
			is_active = EXCLUDED.is_active, data = EXCLUDED.data, updated_at = EXCLUDED.updated_at
	`, cp.ID, string(cp.EngineType), cp.Language, cp.IsActive, string(data), cp.UpdatedAt)
	return err
}

func (s *PostgresStore) ListRules(ctx context.Context) ([]models.RuntimeProfileRule, error) {
	return listPgDocs[models.RuntimeProfileRule](ctx, s.pool, `SELECT data FROM zinc_runtime_rules ORDER BY id`)
}
