// Package catalog generates the platform seed data the resolvers run against.
//
// A catalog holds two document sets:
//
//  1. Runtime profile rules, one per (role, language) with a model selection
//     per tier. Only language-sensitive roles get language-specific rules;
//     the rest rely on the global fallback.
//
//  2. Behaviour packs, one generic pack per role plus channel packs where a
//     channel's defaults differ.
//
// Catalogs round-trip through YAML and are written to a store by Seed.
package catalog

import (
	"time"

	"github.com/google/uuid"
	"github.com/jays-visionAI/ZINC-sub003/internal/merge"
	"github.com/jays-visionAI/ZINC-sub003/pkg/models"
)

// Catalog is a generated or imported set of seed documents.
type Catalog struct {
	ID          string                      `yaml:"id"`
	Version     string                      `yaml:"version"`
	GeneratedAt time.Time                   `yaml:"generated_at,omitempty"`
	Rules       []models.RuntimeProfileRule `yaml:"rules"`
	Packs       []models.BehaviourPack      `yaml:"packs"`
}

// GeneratorOptions selects the role × language × tier space to generate.
// Empty fields take the defaults.
type GeneratorOptions struct {
	Roles     []models.EngineType
	Languages []string
	Tiers     []models.Tier
	Version   string
}

var (
	DefaultRoles     = []models.EngineType{models.EnginePlanner, models.EngineCreatorText, models.EngineEngagement, models.EngineGoals}
	DefaultLanguages = []string{models.GlobalLanguage, "en", "ko", "ja"}
	DefaultTiers     = models.TierFallbackOrder
	DefaultChannels  = []string{"x", "instagram", "linkedin"}
)

// modelChoice is a provider/model pair.
type modelChoice struct {
	provider string
	model    string
}

// roleProfile is the generation template for one role.
type roleProfile struct {
	description       string
	languageSensitive bool
	choices           map[models.Tier]modelChoice
	temperatures      map[models.Tier]float64
	maxTokens         int
	languageModels    map[string]map[models.Tier]modelChoice // per-language model swaps
}

var (
	gpt4o      = modelChoice{"openai", "gpt-4o"}
	gpt4oMini  = modelChoice{"openai", "gpt-4o-mini"}
	claude     = modelChoice{"anthropic", "claude-3-5-sonnet-latest"}
	claudeFast = modelChoice{"anthropic", "claude-3-5-haiku-latest"}
	gemini     = modelChoice{"google", "gemini-1.5-pro"}
)

var roleProfiles = map[models.EngineType]roleProfile{
	models.EnginePlanner: {
		description:  "Content calendar planning",
		choices:      map[models.Tier]modelChoice{models.TierBalanced: gpt4o, models.TierCreative: claude, models.TierPrecise: gpt4o},
		temperatures: map[models.Tier]float64{models.TierBalanced: 0.5, models.TierCreative: 0.8, models.TierPrecise: 0.2},
		maxTokens:    4096,
	},
	models.EngineCreatorText: {
		description:       "Post copy generation",
		languageSensitive: true,
		choices:           map[models.Tier]modelChoice{models.TierBalanced: gpt4o, models.TierCreative: claude, models.TierPrecise: gpt4oMini},
		temperatures:      map[models.Tier]float64{models.TierBalanced: 0.7, models.TierCreative: 0.95, models.TierPrecise: 0.3},
		maxTokens:         2048,
		languageModels: map[string]map[models.Tier]modelChoice{
			"ko": {models.TierBalanced: claude},
			"ja": {models.TierBalanced: claude, models.TierCreative: gemini},
		},
	},
	models.EngineEngagement: {
		description:       "Replies and community engagement",
		languageSensitive: true,
		choices:           map[models.Tier]modelChoice{models.TierBalanced: gpt4oMini, models.TierCreative: claudeFast, models.TierPrecise: gpt4oMini},
		temperatures:      map[models.Tier]float64{models.TierBalanced: 0.6, models.TierCreative: 0.85, models.TierPrecise: 0.2},
		maxTokens:         512,
		languageModels: map[string]map[models.Tier]modelChoice{
			"ko": {models.TierBalanced: claudeFast},
		},
	},
	models.EngineGoals: {
		description:  "Goal weighting and scoring",
		choices:      map[models.Tier]modelChoice{models.TierBalanced: gpt4oMini, models.TierCreative: gpt4o, models.TierPrecise: gpt4o},
		temperatures: map[models.Tier]float64{models.TierBalanced: 0.3, models.TierCreative: 0.6, models.TierPrecise: 0.1},
		maxTokens:    1024,
	},
}

// genericProfile is used for roles without a template.
var genericProfile = roleProfile{
	description:  "Generic role",
	choices:      map[models.Tier]modelChoice{models.TierBalanced: gpt4oMini, models.TierCreative: gpt4o, models.TierPrecise: gpt4oMini},
	temperatures: map[models.Tier]float64{models.TierBalanced: 0.5, models.TierCreative: 0.8, models.TierPrecise: 0.2},
	maxTokens:    1024,
}

// Generate builds a catalog for the role × language × tier space.
func Generate(opts GeneratorOptions) *Catalog {
	if len(opts.Roles) == 0 {
		opts.Roles = DefaultRoles
	}
	if len(opts.Languages) == 0 {
		opts.Languages = DefaultLanguages
	}
	if len(opts.Tiers) == 0 {
		opts.Tiers = DefaultTiers
	}
	if opts.Version == "" {
		opts.Version = models.DefaultRuleVersion
	}

	c := &Catalog{
		ID:          uuid.New().String(),
		Version:     opts.Version,
		GeneratedAt: time.Now().UTC(),
	}
	for _, role := range opts.Roles {
		p, ok := roleProfiles[role]
		if !ok {
			p = genericProfile
		}
		for _, lang := range opts.Languages {
			if lang != models.GlobalLanguage && !p.languageSensitive {
				continue
			}
			c.Rules = append(c.Rules, buildRule(role, lang, p, opts.Tiers, opts.Version))
		}
	}
	c.Packs = DefaultPacks(opts.Version)
	return c
}

// RuleID returns the document key for a (role, language) rule.
func RuleID(role models.EngineType, language string) string {
	return string(role) + "_" + language
}

func buildRule(role models.EngineType, lang string, p roleProfile, tiers []models.Tier, version string) models.RuntimeProfileRule {
	rule := models.RuntimeProfileRule{
		ID:          RuleID(role, lang),
		EngineType:  role,
		Language:    lang,
		Tiers:       make(map[models.Tier]models.TierConfig, len(tiers)),
		IsActive:    true,
		Version:     version,
		Description: p.description + " (" + lang + ")",
	}
	for _, tier := range tiers {
		choice, ok := p.choices[tier]
		if !ok {
			choice = p.choices[models.TierBalanced]
		}
		if swap, ok := p.languageModels[lang][tier]; ok {
			choice = swap
		}
		temp, ok := p.temperatures[tier]
		if !ok {
			temp = p.temperatures[models.TierBalanced]
		}
		tc := models.TierConfig{Provider: choice.provider, ModelID: choice.model, Temperature: temp}
		if p.maxTokens > 0 {
			mt := p.maxTokens
			tc.MaxTokens = &mt
		}
		if tier == models.TierCreative {
			topP := 0.95
			tc.TopP = &topP
		}
		rule.Tiers[tier] = tc
	}
	return rule
}

// ── Behaviour packs ──────────────────────────────────────────

var genericDefaults = map[models.EngineType]map[string]interface{}{
	models.EnginePlanner: {
		"postFrequency":       "daily",
		"contentMix":          map[string]interface{}{"educational": 40, "promotional": 20, "engagement": 40},
		"schedulingWindow":    "09:00-21:00",
		"planningHorizonDays": 7,
	},
	models.EngineCreatorText: {
		"tonePreset":   "friendly",
		"hashtagCount": 3,
		"hookStyle":    "question",
		"emojiUsage":   "moderate",
		"ctaIntensity": "medium",
		"maxLength":    2000,
	},
	models.EngineEngagement: {
		"replyTone":         "friendly",
		"replyDelayMinutes": 15,
		"autoLike":          true,
		"mentionPolicy":     "reply_all",
		"dailyReplyLimit":   50,
	},
	models.EngineGoals: {
		"reachWeight":       0.3,
		"engagementWeight":  0.4,
		"conversionWeight":  0.2,
		"brandSafetyWeight": 0.1,
	},
}

// channelDefaults are applied over the generic defaults for a channel pack.
var channelDefaults = map[models.EngineType]map[string]map[string]interface{}{
	models.EnginePlanner: {
		"x":        {"postFrequency": "3x_daily"},
		"linkedin": {"postFrequency": "weekdays", "schedulingWindow": "08:00-18:00"},
	},
	models.EngineCreatorText: {
		"x":         {"hashtagCount": 2, "maxLength": 280},
		"instagram": {"hashtagCount": 10, "emojiUsage": "high", "hookStyle": "visual"},
		"linkedin":  {"tonePreset": "professional", "emojiUsage": "low", "maxLength": 3000},
	},
	models.EngineEngagement: {
		"x":        {"replyDelayMinutes": 5},
		"linkedin": {"replyTone": "professional", "autoLike": false, "dailyReplyLimit": 20},
	},
}

// DefaultPacks returns the generic pack of every default role followed by
// the channel packs. Channel packs carry the full merged defaults because the
// resolver consults exactly one pack per engine type.
func DefaultPacks(version string) []models.BehaviourPack {
	var packs []models.BehaviourPack
	for _, role := range DefaultRoles {
		base := genericDefaults[role]
		packs = append(packs, models.BehaviourPack{
			PackID:     models.BehaviourPackID(role, ""),
			EngineType: role,
			Defaults:   merge.Merge(base),
			Version:    version,
		})
		for _, ch := range DefaultChannels {
			diff, ok := channelDefaults[role][ch]
			if !ok {
				continue
			}
			packs = append(packs, models.BehaviourPack{
				PackID:     models.BehaviourPackID(role, ch),
				EngineType: role,
				ChannelID:  ch,
				Defaults:   merge.Merge(base, diff),
				Version:    version,
			})
		}
	}
	return packs
}
