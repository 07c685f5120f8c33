package store

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jays-visionAI/ZINC-sub003/internal/merge"
	"github.com/jays-visionAI/ZINC-sub003/pkg/models"
	"github.com/rs/zerolog/log"
)

// snapshot is the JSON-serializable shape written to disk.
type snapshot struct {
	Instances      map[string]*models.AgentInstance      `json:"instances"`
	Packs          map[string]*models.BehaviourPack      `json:"packs"`
	Profiles       map[string]*models.RuntimeProfile     `json:"profiles"`
	ChannelConfigs map[string]*models.ChannelAgentConfig `json:"channel_configs"`
	Rules          map[string]*models.RuntimeProfileRule `json:"rules"`
}

// MemoryStore implements Store with in-memory maps. With a data dir it
// snapshots to data.json so data survives restarts.
type MemoryStore struct {
	mu             sync.RWMutex
	instances      map[string]*models.AgentInstance      // key: instance id
	packs          map[string]*models.BehaviourPack      // key: pack id
	profiles       map[string]*models.RuntimeProfile     // key: profile id
	channelConfigs map[string]*models.ChannelAgentConfig // key: instance id
	rules          map[string]*models.RuntimeProfileRule // key: rule id

	// Persistence
	snapshotPath string        // empty = no persistence
	saveMu       sync.Mutex    // guards file writes
	saveCh       chan struct{} // debounce channel
	doneCh       chan struct{} // signals background goroutines to stop
}

// NewMemoryStore creates a new in-memory store.
// If dataDir is non-empty, data is persisted to dataDir/data.json.
func NewMemoryStore(dataDir string) *MemoryStore {
	m := &MemoryStore{
		instances:      make(map[string]*models.AgentInstance),
		packs:          make(map[string]*models.BehaviourPack),
		profiles:       make(map[string]*models.RuntimeProfile),
		channelConfigs: make(map[string]*models.ChannelAgentConfig),
		rules:          make(map[string]*models.RuntimeProfileRule),
		saveCh:         make(chan struct{}, 1),
		doneCh:         make(chan struct{}),
	}

	if dataDir != "" {
		m.snapshotPath = filepath.Join(dataDir, "data.json")
		if err := os.MkdirAll(dataDir, 0o755); err != nil {
			log.Warn().Err(err).Str("dir", dataDir).Msg("Cannot create data dir, persistence disabled")
			m.snapshotPath = ""
		}
	}

	if m.snapshotPath != "" {
		m.loadSnapshot()
		go m.saveLoop()
	}

	log.Info().Str("snapshot", m.snapshotPath).Msg("Memory store configured")
	return m
}

// requestSave signals the background goroutine to persist data.
// Non-blocking: coalesces multiple rapid writes into one disk flush.
func (m *MemoryStore) requestSave() {
	if m.snapshotPath == "" {
		return
	}
	select {
	case m.saveCh <- struct{}{}:
	default:
		// Already pending
	}
}

// saveLoop debounces save requests (max 1 write per 500ms).
func (m *MemoryStore) saveLoop() {
	for {
		select {
		case <-m.doneCh:
			return
		case <-m.saveCh:
			time.Sleep(500 * time.Millisecond)
			m.saveSnapshot()
		}
	}
}

func (m *MemoryStore) saveSnapshot() {
	m.mu.RLock()
	snap := snapshot{
		Instances:      m.instances,
		Packs:          m.packs,
		Profiles:       m.profiles,
		ChannelConfigs: m.channelConfigs,
		Rules:          m.rules,
	}
	data, err := json.MarshalIndent(snap, "", "  ")
	m.mu.RUnlock()

	if err != nil {
		log.Error().Err(err).Msg("Failed to marshal snapshot")
		return
	}

	m.saveMu.Lock()
	defer m.saveMu.Unlock()

	// Write to temp file then rename for atomicity
	tmp := m.snapshotPath + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		log.Error().Err(err).Str("path", tmp).Msg("Failed to write snapshot tmp")
		return
	}
	if err := os.Rename(tmp, m.snapshotPath); err != nil {
		log.Error().Err(err).Str("path", m.snapshotPath).Msg("Failed to rename snapshot")
		return
	}

	log.Debug().Str("path", m.snapshotPath).Msg("Snapshot saved")
}

func (m *MemoryStore) loadSnapshot() {
	data, err := os.ReadFile(m.snapshotPath)
	if err != nil {
		if os.IsNotExist(err) {
			log.Info().Str("path", m.snapshotPath).Msg("No snapshot file found, starting fresh")
			return
		}
		log.Warn().Err(err).Str("path", m.snapshotPath).Msg("Failed to read snapshot")
		return
	}

	var snap snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		log.Error().Err(err).Str("path", m.snapshotPath).Msg("Failed to parse snapshot, starting fresh")
		return
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if snap.Instances != nil {
		m.instances = snap.Instances
	}
	if snap.Packs != nil {
		m.packs = snap.Packs
	}
	if snap.Profiles != nil {
		m.profiles = snap.Profiles
	}
	if snap.ChannelConfigs != nil {
		m.channelConfigs = snap.ChannelConfigs
	}
	if snap.Rules != nil {
		m.rules = snap.Rules
	}

	log.Info().
		Int("instances", len(m.instances)).
		Int("packs", len(m.packs)).
		Int("profiles", len(m.profiles)).
		Int("rules", len(m.rules)).
		Str("path", m.snapshotPath).
		Msg("Snapshot loaded")
}

func (m *MemoryStore) Ping(_ context.Context) error { return nil }

// Close stops the save loop and forces a final snapshot write.
// Safe to call multiple times.
func (m *MemoryStore) Close() error {
	select {
	case <-m.doneCh:
		return nil
	default:
		close(m.doneCh)
	}

	if m.snapshotPath != "" {
		m.saveSnapshot()
	}

	log.Info().Msg("Memory store closed")
	return nil
}

// ── Instance Store ───────────────────────────────────────────

func (m *MemoryStore) GetInstance(_ context.Context, id string) (*models.AgentInstance, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	inst, ok := m.instances[id]
	if !ok {
		return nil, &ErrNotFound{Entity: "instance", Key: id}
	}
	copy := *inst
	return &copy, nil
}

func (m *MemoryStore) UpsertInstance(_ context.Context, inst *models.AgentInstance) error {
	m.mu.Lock()
	copy := *inst
	now := time.Now().UTC()
	if existing, ok := m.instances[inst.ID]; ok {
		copy.CreatedAt = existing.CreatedAt
	} else if copy.CreatedAt.IsZero() {
		copy.CreatedAt = now
	}
	copy.UpdatedAt = now
	m.instances[inst.ID] = &copy
	m.mu.Unlock()
	m.requestSave()
	return nil
}

func (m *MemoryStore) ListInstances(_ context.Context, projectID string) ([]models.AgentInstance, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var result []models.AgentInstance
	for _, inst := range m.instances {
		if projectID == "" || inst.ProjectID == projectID {
			result = append(result, *inst)
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].ID < result[j].ID })
	return result, nil
}

// ── Behaviour Pack Store ─────────────────────────────────────

func (m *MemoryStore) GetBehaviourPack(_ context.Context, packID string) (*models.BehaviourPack, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	p, ok := m.packs[packID]
	if !ok {
		return nil, &ErrNotFound{Entity: "behaviour pack", Key: packID}
	}
	return clonePack(p), nil
}

func (m *MemoryStore) UpsertBehaviourPack(_ context.Context, pack *models.BehaviourPack) error {
	cp := *pack
	defaults, err := jsonValues(pack.Defaults)
	if err != nil {
		return fmt.Errorf("encode behaviour pack: %w", err)
	}
	cp.Defaults = defaults
	m.mu.Lock()
	m.packs[pack.PackID] = &cp
	m.mu.Unlock()
	m.requestSave()
	return nil
}

func (m *MemoryStore) ListBehaviourPacks(_ context.Context) ([]models.BehaviourPack, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	result := make([]models.BehaviourPack, 0, len(m.packs))
	for _, p := range m.packs {
		result = append(result, *clonePack(p))
	}
	sort.Slice(result, func(i, j int) bool { return result[i].PackID < result[j].PackID })
	return result, nil
}

// ── Runtime Profile Store ────────────────────────────────────

func (m *MemoryStore) ListActiveRuntimeProfiles(_ context.Context, projectID string) ([]models.RuntimeProfile, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var result []models.RuntimeProfile
	for _, p := range m.profiles {
		if p.IsActive && p.ProjectID == projectID {
			cp := *p
			cp.EngineOverrides = cloneEngineMap(p.EngineOverrides)
			result = append(result, cp)
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].ProfileID < result[j].ProfileID })
	return result, nil
}

func (m *MemoryStore) UpsertRuntimeProfile(_ context.Context, profile *models.RuntimeProfile) error {
	cp := *profile
	eo, err := jsonEngineValues(profile.EngineOverrides)
	if err != nil {
		return fmt.Errorf("encode runtime profile: %w", err)
	}
	cp.EngineOverrides = eo
	cp.UpdatedAt = time.Now().UTC()
	m.mu.Lock()
	m.profiles[profile.ProfileID] = &cp
	m.mu.Unlock()
	m.requestSave()
	return nil
}

// ── Channel Config Store ─────────────────────────────────────

func (m *MemoryStore) GetChannelConfig(_ context.Context, instanceID string) (*models.ChannelAgentConfig, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	c, ok := m.channelConfigs[instanceID]
	if !ok {
		return nil, &ErrNotFound{Entity: "channel config", Key: instanceID}
	}
	return cloneChannelConfig(c), nil
}

func (m *MemoryStore) SaveChannelOverrides(_ context.Context, instanceID, projectID string, overrides map[models.EngineType]map[string]interface{}, editedBy string, at time.Time) error {
	overrides, err := jsonEngineValues(overrides)
	if err != nil {
		return fmt.Errorf("encode channel config: %w", err)
	}
	m.mu.Lock()
	c, ok := m.channelConfigs[instanceID]
	if !ok {
		c = &models.ChannelAgentConfig{
			ID:         uuid.New().String(),
			InstanceID: instanceID,
			ProjectID:  projectID,
			Overrides:  make(map[models.EngineType]map[string]interface{}),
			CreatedAt:  at,
		}
		m.channelConfigs[instanceID] = c
	}
	if c.Overrides == nil {
		c.Overrides = make(map[models.EngineType]map[string]interface{})
	}
	for et, o := range overrides {
		c.Overrides[et] = o
	}
	if projectID != "" {
		c.ProjectID = projectID
	}
	c.LastEditedBy = editedBy
	c.LastEditedAt = at
	m.mu.Unlock()
	m.requestSave()
	return nil
}

func (m *MemoryStore) DeleteChannelOverride(_ context.Context, instanceID string, engineType models.EngineType, field string) error {
	m.mu.Lock()
	c, ok := m.channelConfigs[instanceID]
	if !ok {
		m.mu.Unlock()
		return &ErrNotFound{Entity: "channel config", Key: instanceID}
	}
	if o := c.Overrides[engineType]; o != nil {
		delete(o, field)
	}
	m.mu.Unlock()
	m.requestSave()
	return nil
}

func (m *MemoryStore) ClearChannelOverrides(_ context.Context, instanceID string) error {
	m.mu.Lock()
	c, ok := m.channelConfigs[instanceID]
	if !ok {
		m.mu.Unlock()
		return &ErrNotFound{Entity: "channel config", Key: instanceID}
	}
	c.Overrides = make(map[models.EngineType]map[string]interface{})
	m.mu.Unlock()
	m.requestSave()
	return nil
}

// ── Rule Store ───────────────────────────────────────────────

// FindActiveRule picks the lowest rule id when several active rules share
// the same (engineType, language).
func (m *MemoryStore) FindActiveRule(_ context.Context, engineType models.EngineType, language string) (*models.RuntimeProfileRule, error) {
	language = models.NormalizeLanguage(language)
	m.mu.RLock()
	defer m.mu.RUnlock()
	var found *models.RuntimeProfileRule
	for _, r := range m.rules {
		if !r.IsActive || r.EngineType != engineType || r.Language != language {
			continue
		}
		if found == nil || r.ID < found.ID {
			found = r
		}
	}
	if found == nil {
		return nil, &ErrNotFound{Entity: "runtime rule", Key: string(engineType) + "/" + language}
	}
	return cloneRule(found), nil
}

func (m *MemoryStore) GetRule(_ context.Context, id string) (*models.RuntimeProfileRule, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	r, ok := m.rules[id]
	if !ok {
		return nil, &ErrNotFound{Entity: "runtime rule", Key: id}
	}
	return cloneRule(r), nil
}

func (m *MemoryStore) UpsertRule(_ context.Context, rule *models.RuntimeProfileRule) error {
	m.mu.Lock()
	cp := cloneRule(rule)
	cp.Normalize()
	cp.UpdatedAt = time.Now().UTC()
	m.rules[rule.ID] = cp
	m.mu.Unlock()
	m.requestSave()
	return nil
}

func (m *MemoryStore) ListRules(_ context.Context) ([]models.RuntimeProfileRule, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	result := make([]models.RuntimeProfileRule, 0, len(m.rules))
	for _, r := range m.rules {
		result = append(result, *cloneRule(r))
	}
	sort.Slice(result, func(i, j int) bool { return result[i].ID < result[j].ID })
	return result, nil
}

// ── Copy helpers ─────────────────────────────────────────────

func clonePack(p *models.BehaviourPack) *models.BehaviourPack {
	cp := *p
	if p.Defaults != nil {
		cp.Defaults = merge.Merge(p.Defaults)
	}
	return &cp
}

func cloneEngineMap(in map[models.EngineType]map[string]interface{}) map[models.EngineType]map[string]interface{} {
	if in == nil {
		return nil
	}
	out := make(map[models.EngineType]map[string]interface{}, len(in))
	for et, o := range in {
		out[et] = merge.Merge(o)
	}
	return out
}

func cloneChannelConfig(c *models.ChannelAgentConfig) *models.ChannelAgentConfig {
	cp := *c
	cp.Overrides = cloneEngineMap(c.Overrides)
	return &cp
}

func cloneRule(r *models.RuntimeProfileRule) *models.RuntimeProfileRule {
	cp := *r
	if r.Tiers != nil {
		cp.Tiers = make(map[models.Tier]models.TierConfig, len(r.Tiers))
		for t, tc := range r.Tiers {
			cp.Tiers[t] = tc
		}
	}
	return &cp
}
