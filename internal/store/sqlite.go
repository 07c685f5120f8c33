package store

import (
	"context"
	"database/sql"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jays-visionAI/ZINC-sub003/internal/merge"
	"github.com/jays-visionAI/ZINC-sub003/pkg/models"
	"github.com/rs/zerolog/log"
	_ "modernc.org/sqlite"
)

//go:embed schema.sql
var schemaSQL string

// ErrStoreClosed indicates the underlying database connection is unavailable.
var ErrStoreClosed = errors.New("store: closed")

// SQLiteStore implements Store on SQLite. Each document is kept as a JSON
// blob next to the columns it is queried by.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLiteStore opens (or creates) the database at path and applies the schema.
// Use ":memory:" for an ephemeral database.
func NewSQLiteStore(path string) (*SQLiteStore, error) {
	if path != ":memory:" && !strings.HasPrefix(path, "file:") {
		if dir := filepath.Dir(path); dir != "" && dir != "." {
			if err := os.MkdirAll(dir, 0o700); err != nil {
				return nil, fmt.Errorf("failed to create database directory: %w", err)
			}
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// An in-memory database lives per connection; pin it to one.
	if path == ":memory:" {
		db.SetMaxOpenConns(1)
	} else {
		db.SetMaxOpenConns(10)
		db.SetMaxIdleConns(5)
		if _, err := db.Exec("PRAGMA journal_mode = WAL"); err != nil {
			db.Close()
			return nil, fmt.Errorf("failed to enable WAL mode: %w", err)
		}
	}

	if _, err := db.Exec("PRAGMA busy_timeout = 5000"); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to set busy timeout: %w", err)
	}
	if _, err := db.Exec(schemaSQL); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to apply schema: %w", err)
	}

	log.Info().Str("path", path).Msg("SQLite store opened")
	return &SQLiteStore{db: db}, nil
}

func (s *SQLiteStore) Ping(ctx context.Context) error {
	if s == nil || s.db == nil {
		return ErrStoreClosed
	}
	return s.db.PingContext(ctx)
}

func (s *SQLiteStore) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// getDoc loads the data column of one row into dst.
func (s *SQLiteStore) getDoc(ctx context.Context, query, entity, key string, dst interface{}, args ...interface{}) error {
	var data string
	err := s.db.QueryRowContext(ctx, query, args...).Scan(&data)
	if errors.Is(err, sql.ErrNoRows) {
		return &ErrNotFound{Entity: entity, Key: key}
	}
	if err != nil {
		return fmt.Errorf("query %s: %w", entity, err)
	}
	if err := json.Unmarshal([]byte(data), dst); err != nil {
		return fmt.Errorf("decode %s %s: %w", entity, key, err)
	}
	return nil
}

// listDocs runs query and decodes every data column with decode.
func (s *SQLiteStore) listDocs(ctx context.Context, query string, decode func([]byte) error, args ...interface{}) error {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return err
	}
	defer rows.Close()
	for rows.Next() {
		var data string
		if err := rows.Scan(&data); err != nil {
			return err
		}
		if err := decode([]byte(data)); err != nil {
			return err
		}
	}
	return rows.Err()
}

// ── Instance Store ───────────────────────────────────────────

func (s *SQLiteStore) GetInstance(ctx context.Context, id string) (*models.AgentInstance, error) {
	var inst models.AgentInstance
	if err := s.getDoc(ctx, `SELECT data FROM instances WHERE id = ?`, "instance", id, &inst, id); err != nil {
		return nil, err
	}
	return &inst, nil
}

func (s *SQLiteStore) UpsertInstance(ctx context.Context, inst *models.AgentInstance) error {
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
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO instances (id, project_id, data, updated_at) VALUES (?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET project_id = excluded.project_id, data = excluded.data, updated_at = excluded.updated_at
	`, cp.ID, cp.ProjectID, string(data), now)
	return err
}

func (s *SQLiteStore) ListInstances(ctx context.Context, projectID string) ([]models.AgentInstance, error) {
	var result []models.AgentInstance
	decode := func(b []byte) error {
		var inst models.AgentInstance
		if err := json.Unmarshal(b, &inst); err != nil {
			return err
		}
		result = append(result, inst)
		return nil
	}
	var err error
	if projectID == "" {
		err = s.listDocs(ctx, `SELECT data FROM instances ORDER BY id`, decode)
	} else {
		err = s.listDocs(ctx, `SELECT data FROM instances WHERE project_id = ? ORDER BY id`, decode, projectID)
	}
	return result, err
}

// ── Behaviour Pack Store ─────────────────────────────────────

func (s *SQLiteStore) GetBehaviourPack(ctx context.Context, packID string) (*models.BehaviourPack, error) {
	var p models.BehaviourPack
	if err := s.getDoc(ctx, `SELECT data FROM behaviour_packs WHERE pack_id = ?`, "behaviour pack", packID, &p, packID); err != nil {
		return nil, err
	}
	return &p, nil
}

func (s *SQLiteStore) UpsertBehaviourPack(ctx context.Context, pack *models.BehaviourPack) error {
	data, err := json.Marshal(pack)
	if err != nil {
		return fmt.Errorf("encode behaviour pack: %w", err)
	}
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO behaviour_packs (pack_id, engine_type, channel_id, data) VALUES (?, ?, ?, ?)
		ON CONFLICT(pack_id) DO UPDATE SET engine_type = excluded.engine_type, channel_id = excluded.channel_id, data = excluded.data
	`, pack.PackID, string(pack.EngineType), pack.ChannelID, string(data))
	return err
}

func (s *SQLiteStore) ListBehaviourPacks(ctx context.Context) ([]models.BehaviourPack, error) {
	var result []models.BehaviourPack
	err := s.listDocs(ctx, `SELECT data FROM behaviour_packs ORDER BY pack_id`, func(b []byte) error {
		var p models.BehaviourPack
		if err := json.Unmarshal(b, &p); err != nil {
			return err
		}
		result = append(result, p)
		return nil
	})
	return result, err
}

// ── Runtime Profile Store ────────────────────────────────────

func (s *SQLiteStore) ListActiveRuntimeProfiles(ctx context.Context, projectID string) ([]models.RuntimeProfile, error) {
	var result []models.RuntimeProfile
	err := s.listDocs(ctx, `SELECT data FROM runtime_profiles WHERE project_id = ? AND is_active = 1 ORDER BY profile_id`, func(b []byte) error {
		var p models.RuntimeProfile
		if err := json.Unmarshal(b, &p); err != nil {
			return err
		}
		result = append(result, p)
		return nil
	}, projectID)
	return result, err
}

func (s *SQLiteStore) UpsertRuntimeProfile(ctx context.Context, profile *models.RuntimeProfile) error {
	cp := *profile
	cp.UpdatedAt = time.Now().UTC()
	data, err := json.Marshal(cp)
	if err != nil {
		return fmt.Errorf("encode runtime profile: %w", err)
	}
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO runtime_profiles (profile_id, project_id, is_active, data, updated_at) VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(profile_id) DO UPDATE SET project_id = excluded.project_id, is_active = excluded.is_active,
			data = excluded.data, updated_at = excluded.updated_at
	`, cp.ProfileID, cp.ProjectID, boolInt(cp.IsActive), string(data), cp.UpdatedAt)
	return err
}

// ── Channel Config Store ─────────────────────────────────────

func (s *SQLiteStore) GetChannelConfig(ctx context.Context, instanceID string) (*models.ChannelAgentConfig, error) {
	var c models.ChannelAgentConfig
	if err := s.getDoc(ctx, `SELECT data FROM channel_configs WHERE instance_id = ?`, "channel config", instanceID, &c, instanceID); err != nil {
		return nil, err
	}
	return &c, nil
}

// updateChannelConfig runs a read-modify-write of one channel config inside a
// transaction. create is called when the row is absent; nil create means the
// row must exist.
func (s *SQLiteStore) updateChannelConfig(ctx context.Context, instanceID string, create func() *models.ChannelAgentConfig, mutate func(*models.ChannelAgentConfig)) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	var data string
	var c *models.ChannelAgentConfig
	err = tx.QueryRowContext(ctx, `SELECT data FROM channel_configs WHERE instance_id = ?`, instanceID).Scan(&data)
	switch {
	case errors.Is(err, sql.ErrNoRows):
		if create == nil {
			return &ErrNotFound{Entity: "channel config", Key: instanceID}
		}
		c = create()
	case err != nil:
		return fmt.Errorf("query channel config: %w", err)
	default:
		c = &models.ChannelAgentConfig{}
		if err := json.Unmarshal([]byte(data), c); err != nil {
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
	if _, err := tx.ExecContext(ctx, `
		INSERT INTO channel_configs (instance_id, data, updated_at) VALUES (?, ?, ?)
		ON CONFLICT(instance_id) DO UPDATE SET data = excluded.data, updated_at = excluded.updated_at
	`, instanceID, string(out), time.Now().UTC()); err != nil {
		return fmt.Errorf("write channel config: %w", err)
	}
	return tx.Commit()
}

func (s *SQLiteStore) SaveChannelOverrides(ctx context.Context, instanceID, projectID string, overrides map[models.EngineType]map[string]interface{}, editedBy string, at time.Time) error {
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

func (s *SQLiteStore) DeleteChannelOverride(ctx context.Context, instanceID string, engineType models.EngineType, field string) error {
	return s.updateChannelConfig(ctx, instanceID, nil, func(c *models.ChannelAgentConfig) {
		if o := c.Overrides[engineType]; o != nil {
			delete(o, field)
		}
	})
}

func (s *SQLiteStore) ClearChannelOverrides(ctx context.Context, instanceID string) error {
	return s.updateChannelConfig(ctx, instanceID, nil, func(c *models.ChannelAgentConfig) {
		c.Overrides = make(map[models.EngineType]map[string]interface{})
	})
}

// ── Rule Store ───────────────────────────────────────────────

func (s *SQLiteStore) FindActiveRule(ctx context.Context, engineType models.EngineType, language string) (*models.RuntimeProfileRule, error) {
	language = models.NormalizeLanguage(language)
	var r models.RuntimeProfileRule
	err := s.getDoc(ctx,
		`SELECT data FROM runtime_rules WHERE engine_type = ? AND language = ? AND is_active = 1 ORDER BY id LIMIT 1`,
		"runtime rule", string(engineType)+"/"+language, &r, string(engineType), language)
	if err != nil {
		return nil, err
	}
	return &r, nil
}

func (s *SQLiteStore) GetRule(ctx context.Context, id string) (*models.RuntimeProfileRule, error) {
	var r models.RuntimeProfileRule
	if err := s.getDoc(ctx, `SELECT data FROM runtime_rules WHERE id = ?`, "runtime rule", id, &r, id); err != nil {
		return nil, err
	}
	return &r, nil
}

func (s *SQLiteStore) UpsertRule(ctx context.Context, rule *models.RuntimeProfileRule) error {
	cp := *rule
	cp.Normalize()
	cp.UpdatedAt = time.Now().UTC()
	data, err := json.Marshal(cp)
	if err != nil {
		return fmt.Errorf("encode runtime rule: %w", err)
	}
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO runtime_rules (id, engine_type, language, is_active, data, updated_at) VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET engine_type = excluded.engine_type, language = excluded.language,
			is_active = excluded.is_active, data = excluded.data, updated_at = excluded.updated_at
	`, cp.ID, string(cp.EngineType), cp.Language, boolInt(cp.IsActive), string(data), cp.UpdatedAt)
	return err
}

func (s *SQLiteStore) ListRules(ctx context.Context) ([]models.RuntimeProfileRule, error) {
	var result []models.RuntimeProfileRule
	err := s.listDocs(ctx, `SELECT data FROM runtime_rules ORDER BY id`, func(b []byte) error {
		var r models.RuntimeProfileRule
		if err := json.Unmarshal(b, &r); err != nil {
			return err
		}
		result = append(result, r)
		return nil
	})
	return result, err
}

func boolInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
