package models

import (
	"sort"
	"strings"
	"time"
)

// ── Engine Types ─────────────────────────────────────────────

// EngineType names a content-generation role whose configuration is
// resolved independently (planner, creator_text, ...).
type EngineType string

const (
	EnginePlanner     EngineType = "planner"
	EngineCreatorText EngineType = "creator_text"
	EngineEngagement  EngineType = "engagement"
	EngineGoals       EngineType = "goals"
)

// ── Tiers ────────────────────────────────────────────────────

// Tier is a named quality/cost point mapping to a concrete provider+model.
type Tier string

const (
	TierBalanced Tier = "balanced"
	TierCreative Tier = "creative"
	TierPrecise  Tier = "precise"
)

// TierFallbackOrder is the fixed chain consulted after the requested tier misses.
var TierFallbackOrder = []Tier{TierBalanced, TierCreative, TierPrecise}

// GlobalLanguage is the language every rule lookup degrades to.
const GlobalLanguage = "global"

// NormalizeLanguage trims and lower-cases a language code. Empty is global.
func NormalizeLanguage(lang string) string {
	lang = strings.ToLower(strings.TrimSpace(lang))
	if lang == "" {
		return GlobalLanguage
	}
	return lang
}

// NormalizeTier trims and lower-cases a tier name.
func NormalizeTier(t Tier) Tier {
	return Tier(strings.ToLower(strings.TrimSpace(string(t))))
}

// ── Agent Instance ───────────────────────────────────────────

// AgentInstance is a deployed agent team bound to a project and a channel.
// The channel is read from ChannelID, then Channel, then Platform.
type AgentInstance struct {
	ID        string    `json:"id" yaml:"id"`
	ProjectID string    `json:"project_id" yaml:"project_id"`
	Name      string    `json:"name,omitempty" yaml:"name,omitempty"`
	ChannelID string    `json:"channel_id,omitempty" yaml:"channel_id,omitempty"`
	Channel   string    `json:"channel,omitempty" yaml:"channel,omitempty"`
	Platform  string    `json:"platform,omitempty" yaml:"platform,omitempty"`
	CreatedAt time.Time `json:"created_at" yaml:"created_at,omitempty"`
	UpdatedAt time.Time `json:"updated_at" yaml:"updated_at,omitempty"`
}

// ResolveChannel returns the first non-empty channel field, or fallback.
func (a *AgentInstance) ResolveChannel(fallback string) string {
	for _, c := range []string{a.ChannelID, a.Channel, a.Platform} {
		if c != "" {
			return c
		}
	}
	return fallback
}

// ── Behaviour Pack ───────────────────────────────────────────

// BehaviourPack holds platform-owned default option values for an engine
// type, optionally specialised for one channel.
type BehaviourPack struct {
	PackID     string                 `json:"pack_id" yaml:"pack_id"`
	EngineType EngineType             `json:"engine_type" yaml:"engine_type"`
	ChannelID  string                 `json:"channel_id,omitempty" yaml:"channel_id,omitempty"`
	Defaults   map[string]interface{} `json:"defaults" yaml:"defaults"`
	Version    string                 `json:"version,omitempty" yaml:"version,omitempty"`
}

// BehaviourPackID returns the document key for an (engineType, channel) pack.
// An empty channel yields the generic engine-only key.
func BehaviourPackID(engineType EngineType, channelID string) string {
	if channelID == "" {
		return string(engineType)
	}
	return string(engineType) + "_" + channelID
}

// ── Runtime Profile ──────────────────────────────────────────

// RuntimeProfile is a project-scoped bundle of engine-level overrides.
// At most one active profile per project is consulted.
type RuntimeProfile struct {
	ProfileID       string                                `json:"profile_id" yaml:"profile_id"`
	ProjectID       string                                `json:"project_id" yaml:"project_id"`
	EngineOverrides map[EngineType]map[string]interface{} `json:"engine_overrides" yaml:"engine_overrides"`
	IsActive        bool                                  `json:"is_active" yaml:"is_active"`
	UpdatedAt       time.Time                             `json:"updated_at" yaml:"updated_at,omitempty"`
}

// ── Channel Agent Config ─────────────────────────────────────

// ChannelAgentConfig is the tenant-authored override document for one instance.
type ChannelAgentConfig struct {
	ID           string                                `json:"id"`
	InstanceID   string                                `json:"instance_id"`
	ProjectID    string                                `json:"project_id"`
	Overrides    map[EngineType]map[string]interface{} `json:"overrides"`
	LastEditedBy string                                `json:"last_edited_by,omitempty"`
	LastEditedAt time.Time                             `json:"last_edited_at"`
	CreatedAt    time.Time                             `json:"created_at"`
}

// ── Effective Config ─────────────────────────────────────────

// EffectiveConfig is the flat merged option map returned to engines.
// It carries no provenance and is built fresh on every call. Values have
// JSON types whatever the store backend: numbers are float64, lists
// []interface{} and nested objects map[string]interface{}.
type EffectiveConfig map[string]interface{}

// ── Runtime Profile Rule ─────────────────────────────────────

// TierConfig is the concrete model selection for one tier.
type TierConfig struct {
	Provider    string   `json:"provider" yaml:"provider"`
	ModelID     string   `json:"model_id" yaml:"model_id"`
	Temperature float64  `json:"temperature" yaml:"temperature"`
	TopP        *float64 `json:"top_p,omitempty" yaml:"top_p,omitempty"`
	MaxTokens   *int     `json:"max_tokens,omitempty" yaml:"max_tokens,omitempty"`
}

// RuntimeProfileRule maps (engine_type, language) to per-tier model selections.
type RuntimeProfileRule struct {
	ID          string              `json:"id" yaml:"id"`
	EngineType  EngineType          `json:"engine_type" yaml:"engine_type"`
	Language    string              `json:"language" yaml:"language"`
	Tiers       map[Tier]TierConfig `json:"tiers" yaml:"tiers"`
	IsActive    bool                `json:"is_active" yaml:"is_active"`
	Version     string              `json:"version,omitempty" yaml:"version,omitempty"`
	Description string              `json:"description,omitempty" yaml:"description,omitempty"`
	UpdatedAt   time.Time           `json:"updated_at" yaml:"updated_at,omitempty"`
}

// Normalize puts the lookup keys of the rule (engine type, language and
// tier names) into the form requests are normalized to. On a tier name
// collision the entry whose original key sorts first wins.
func (r *RuntimeProfileRule) Normalize() {
	r.EngineType = EngineType(strings.TrimSpace(string(r.EngineType)))
	r.Language = NormalizeLanguage(r.Language)

	clean := true
	for t := range r.Tiers {
		if NormalizeTier(t) != t {
			clean = false
			break
		}
	}
	if clean {
		return
	}
	keys := make([]string, 0, len(r.Tiers))
	for t := range r.Tiers {
		keys = append(keys, string(t))
	}
	sort.Strings(keys)
	tiers := make(map[Tier]TierConfig, len(r.Tiers))
	for _, k := range keys {
		nt := NormalizeTier(Tier(k))
		if _, dup := tiers[nt]; !dup {
			tiers[nt] = r.Tiers[Tier(k)]
		}
	}
	r.Tiers = tiers
}

// TierNames returns the tier keys of the rule in fallback order first,
// followed by any extra tiers sorted by name.
func (r *RuntimeProfileRule) TierNames() []string {
	names := make([]string, 0, len(r.Tiers))
	seen := make(map[Tier]bool, len(r.Tiers))
	for _, t := range TierFallbackOrder {
		if _, ok := r.Tiers[t]; ok {
			names = append(names, string(t))
			seen[t] = true
		}
	}
	var extra []string
	for t := range r.Tiers {
		if !seen[t] {
			extra = append(extra, string(t))
		}
	}
	sort.Strings(extra)
	return append(names, extra...)
}

// ── Runtime Resolution ───────────────────────────────────────

// RuntimeRequest identifies the caller for runtime model selection.
type RuntimeRequest struct {
	RoleType string `json:"role_type"`
	Language string `json:"language,omitempty"`
	Tier     string `json:"tier,omitempty"`
}

// RuntimeSelection is the resolved provider/model tuple.
type RuntimeSelection struct {
	Provider         string   `json:"provider"`
	ModelID          string   `json:"model_id"`
	Temperature      float64  `json:"temperature"`
	TopP             *float64 `json:"top_p,omitempty"`
	MaxTokens        *int     `json:"max_tokens,omitempty"`
	ResolvedLanguage string   `json:"resolved_language"`
	ResolvedTier     string   `json:"resolved_tier"`
	RuleID           string   `json:"rule_id"`
	Fallback         bool     `json:"fallback"`
}

// RuntimeValidation reports whether a request resolves, without failing.
type RuntimeValidation struct {
	Valid  bool              `json:"valid"`
	Config *RuntimeSelection `json:"config,omitempty"`
	Error  string            `json:"error,omitempty"`
}
