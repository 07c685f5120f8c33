package router_test

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/jays-visionAI/ZINC-sub003/internal/router"
	"github.com/jays-visionAI/ZINC-sub003/internal/store"
	"github.com/jays-visionAI/ZINC-sub003/pkg/models"
)

func ptrF(v float64) *float64 { return &v }
func ptrI(v int) *int         { return &v }

func newTestRouter(t *testing.T, rules ...models.RuntimeProfileRule) *router.RuntimeResolver {
	t.Helper()
	s := store.NewMemoryStore("")
	t.Cleanup(func() { s.Close() })
	for i := range rules {
		if err := s.UpsertRule(context.Background(), &rules[i]); err != nil {
			t.Fatalf("UpsertRule(%s) error = %v", rules[i].ID, err)
		}
	}
	return router.NewRuntimeResolver(s)
}

func tierSet(model string, tiers ...models.Tier) map[models.Tier]models.TierConfig {
	out := make(map[models.Tier]models.TierConfig, len(tiers))
	for _, t := range tiers {
		out[t] = models.TierConfig{Provider: "openai", ModelID: model + "-" + string(t), Temperature: 0.5}
	}
	return out
}

func TestResolve_Exact(t *testing.T) {
	rr := newTestRouter(t, models.RuntimeProfileRule{
		ID:         "creator_text_ko",
		EngineType: models.EngineCreatorText,
		Language:   "ko",
		IsActive:   true,
		Tiers: map[models.Tier]models.TierConfig{
			models.TierCreative: {Provider: "anthropic", ModelID: "claude-x", Temperature: 0.9, TopP: ptrF(0.95), MaxTokens: ptrI(2048)},
		},
	})

	got, err := rr.Resolve(context.Background(), models.RuntimeRequest{RoleType: "creator_text", Language: " KO ", Tier: "Creative"})
	if err != nil {
		t.Fatalf("Resolve() error = %v", err)
	}
	want := &models.RuntimeSelection{
		Provider:         "anthropic",
		ModelID:          "claude-x",
		Temperature:      0.9,
		TopP:             ptrF(0.95),
		MaxTokens:        ptrI(2048),
		ResolvedLanguage: "ko",
		ResolvedTier:     "creative",
		RuleID:           "creator_text_ko",
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("Resolve() mismatch (-want +got):\n%s", diff)
	}
}

func TestResolve_OptionalFieldsOmitted(t *testing.T) {
	rr := newTestRouter(t, models.RuntimeProfileRule{
		ID: "planner_global", EngineType: models.EnginePlanner, Language: "global", IsActive: true,
		Tiers: tierSet("gpt", models.TierBalanced),
	})

	got, err := rr.Resolve(context.Background(), models.RuntimeRequest{RoleType: "planner"})
	if err != nil {
		t.Fatalf("Resolve() error = %v", err)
	}
	if got.TopP != nil || got.MaxTokens != nil {
		t.Errorf("Resolve() TopP=%v MaxTokens=%v, want both nil", got.TopP, got.MaxTokens)
	}
	if got.ResolvedLanguage != "global" || got.ResolvedTier != "balanced" || got.Fallback {
		t.Errorf("Resolve() = %+v, want global/balanced without fallback", got)
	}
}

// TestResolve_FallbackMatrix walks every combination of language rule
// presence and requested tier presence.
func TestResolve_FallbackMatrix(t *testing.T) {
	ctx := context.Background()
	allTiers := []models.Tier{models.TierBalanced, models.TierCreative, models.TierPrecise}

	// tierLayouts are the tier subsets defined on the language-specific rule.
	tierLayouts := map[string][]models.Tier{
		"all":              allTiers,
		"creative+precise": {models.TierCreative, models.TierPrecise},
		"precise":          {models.TierPrecise},
	}
	requested := []string{"balanced", "creative", "precise", "exotic"}

	for _, hasLangRule := range []bool{true, false} {
		for layoutName, layout := range tierLayouts {
			for _, tier := range requested {
				name := fmt.Sprintf("langRule=%v/tiers=%s/request=%s", hasLangRule, layoutName, tier)
				t.Run(name, func(t *testing.T) {
					// The global rule always carries the same layout so the
					// tier expectations are independent of the language axis.
					rules := []models.RuntimeProfileRule{{
						ID: "engagement_global", EngineType: models.EngineEngagement, Language: "global", IsActive: true,
						Tiers: tierSet("global", layout...),
					}}
					if hasLangRule {
						rules = append(rules, models.RuntimeProfileRule{
							ID: "engagement_ja", EngineType: models.EngineEngagement, Language: "ja", IsActive: true,
							Tiers: tierSet("ja", layout...),
						})
					}
					rr := newTestRouter(t, rules...)

					got, err := rr.Resolve(ctx, models.RuntimeRequest{RoleType: "engagement", Language: "ja", Tier: tier})
					if err != nil {
						t.Fatalf("Resolve() error = %v", err)
					}

					wantLang, wantRule := "global", "engagement_global"
					if hasLangRule {
						wantLang, wantRule = "ja", "engagement_ja"
					}
					wantTier := expectedTier(layout, models.Tier(tier))

					if got.ResolvedLanguage != wantLang {
						t.Errorf("ResolvedLanguage = %q, want %q", got.ResolvedLanguage, wantLang)
					}
					if got.RuleID != wantRule {
						t.Errorf("RuleID = %q, want %q", got.RuleID, wantRule)
					}
					if got.ResolvedTier != string(wantTier) {
						t.Errorf("ResolvedTier = %q, want %q", got.ResolvedTier, wantTier)
					}
					if want := wantLang + "-" + string(wantTier); got.ModelID != want {
						t.Errorf("ModelID = %q, want %q", got.ModelID, want)
					}
					wantFallback := !hasLangRule || string(wantTier) != tier
					if got.Fallback != wantFallback {
						t.Errorf("Fallback = %v, want %v", got.Fallback, wantFallback)
					}
				})
			}
		}
	}
}

func expectedTier(layout []models.Tier, requested models.Tier) models.Tier {
	has := make(map[models.Tier]bool)
	for _, t := range layout {
		has[t] = true
	}
	if has[requested] {
		return requested
	}
	for _, t := range models.TierFallbackOrder {
		if has[t] {
			return t
		}
	}
	return ""
}

func TestResolve_BalancedMissingLandsOnCreative(t *testing.T) {
	rr := newTestRouter(t, models.RuntimeProfileRule{
		ID: "goals_global", EngineType: models.EngineGoals, Language: "global", IsActive: true,
		Tiers: tierSet("m", models.TierPrecise, models.TierCreative),
	})

	for _, tier := range []string{"balanced", "exotic"} {
		got, err := rr.Resolve(context.Background(), models.RuntimeRequest{RoleType: "goals", Tier: tier})
		if err != nil {
			t.Fatalf("Resolve(tier=%s) error = %v", tier, err)
		}
		if got.ResolvedTier != "creative" {
			t.Errorf("Resolve(tier=%s).ResolvedTier = %q, want %q", tier, got.ResolvedTier, "creative")
		}
	}
}

func TestResolve_Errors(t *testing.T) {
	rr := newTestRouter(t,
		models.RuntimeProfileRule{
			ID: "planner_global", EngineType: models.EnginePlanner, Language: "global", IsActive: true,
			Tiers: map[models.Tier]models.TierConfig{"turbo": {Provider: "x", ModelID: "y"}},
		},
		models.RuntimeProfileRule{
			ID: "goals_global", EngineType: models.EngineGoals, Language: "global", IsActive: false,
			Tiers: tierSet("m", models.TierBalanced),
		},
	)
	ctx := context.Background()

	t.Run("missing role", func(t *testing.T) {
		var invalid *models.ErrInvalidArgument
		if _, err := rr.Resolve(ctx, models.RuntimeRequest{RoleType: "  "}); !errors.As(err, &invalid) {
			t.Errorf("Resolve() error = %v, want ErrInvalidArgument", err)
		}
	})
	t.Run("unknown role", func(t *testing.T) {
		var nf *router.ErrRuleNotFound
		if _, err := rr.Resolve(ctx, models.RuntimeRequest{RoleType: "creator_text", Language: "en"}); !errors.As(err, &nf) {
			t.Errorf("Resolve() error = %v, want ErrRuleNotFound", err)
		}
	})
	t.Run("inactive rule", func(t *testing.T) {
		var nf *router.ErrRuleNotFound
		if _, err := rr.Resolve(ctx, models.RuntimeRequest{RoleType: "goals"}); !errors.As(err, &nf) {
			t.Errorf("Resolve() error = %v, want ErrRuleNotFound", err)
		}
	})
	t.Run("no fallback tier", func(t *testing.T) {
		var tnf *router.ErrTierNotFound
		_, err := rr.Resolve(ctx, models.RuntimeRequest{RoleType: "planner", Tier: "balanced"})
		if !errors.As(err, &tnf) {
			t.Fatalf("Resolve() error = %v, want ErrTierNotFound", err)
		}
		if tnf.RuleID != "planner_global" {
			t.Errorf("ErrTierNotFound.RuleID = %q, want %q", tnf.RuleID, "planner_global")
		}
	})
	t.Run("extra tier requested directly", func(t *testing.T) {
		got, err := rr.Resolve(ctx, models.RuntimeRequest{RoleType: "planner", Tier: "turbo"})
		if err != nil {
			t.Fatalf("Resolve() error = %v", err)
		}
		if got.ResolvedTier != "turbo" {
			t.Errorf("ResolvedTier = %q, want %q", got.ResolvedTier, "turbo")
		}
	})
}

func TestResolve_StoredRuleKeysAreCaseInsensitive(t *testing.T) {
	rr := newTestRouter(t,
		models.RuntimeProfileRule{
			ID: "planner_ko", EngineType: models.EnginePlanner, Language: "KO", IsActive: true,
			Tiers: map[models.Tier]models.TierConfig{"Precise": {Provider: "anthropic", ModelID: "ko"}},
		},
		models.RuntimeProfileRule{
			ID: "planner_global", EngineType: models.EnginePlanner, Language: "global", IsActive: true,
			Tiers: tierSet("g", models.TierBalanced),
		},
	)

	got, err := rr.Resolve(context.Background(), models.RuntimeRequest{RoleType: "planner", Language: "KO", Tier: "precise"})
	if err != nil {
		t.Fatalf("Resolve() error = %v", err)
	}
	if got.RuleID != "planner_ko" || got.ModelID != "ko" || got.ResolvedTier != "precise" || got.Fallback {
		t.Errorf("Resolve() = %+v, want planner_ko/ko on precise without fallback", got)
	}
}

func TestAvailableTiers(t *testing.T) {
	rr := newTestRouter(t,
		models.RuntimeProfileRule{
			ID: "creator_text_global", EngineType: models.EngineCreatorText, Language: "global", IsActive: true,
			Tiers: tierSet("g", models.TierPrecise, models.TierBalanced),
		},
		models.RuntimeProfileRule{
			ID: "creator_text_en", EngineType: models.EngineCreatorText, Language: "en", IsActive: true,
			Tiers: tierSet("e", models.TierBalanced, models.TierCreative, models.TierPrecise),
		},
	)
	ctx := context.Background()

	tests := []struct {
		role, lang string
		want       []string
	}{
		{"creator_text", "en", []string{"balanced", "creative", "precise"}},
		{"creator_text", "fr", []string{"balanced", "precise"}},
		{"creator_text", "", []string{"balanced", "precise"}},
		{"planner", "en", []string{}},
		{"", "en", []string{}},
	}
	for _, tt := range tests {
		got := rr.AvailableTiers(ctx, tt.role, tt.lang)
		if diff := cmp.Diff(tt.want, got); diff != "" {
			t.Errorf("AvailableTiers(%q, %q) mismatch (-want +got):\n%s", tt.role, tt.lang, diff)
		}
	}
}

func TestValidate(t *testing.T) {
	rr := newTestRouter(t, models.RuntimeProfileRule{
		ID: "planner_global", EngineType: models.EnginePlanner, Language: "global", IsActive: true,
		Tiers: tierSet("gpt", models.TierBalanced),
	})
	ctx := context.Background()

	ok := rr.Validate(ctx, models.RuntimeRequest{RoleType: "planner"})
	if !ok.Valid || ok.Config == nil || ok.Error != "" {
		t.Errorf("Validate(planner) = %+v, want valid with config", ok)
	}

	bad := rr.Validate(ctx, models.RuntimeRequest{RoleType: "goals"})
	if bad.Valid || bad.Config != nil || bad.Error == "" {
		t.Errorf("Validate(goals) = %+v, want invalid with error", bad)
	}
}
