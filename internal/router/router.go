// Package router implements the runtime model router.
//
// The router maps a caller's (role type, language, tier) to the concrete
// provider, model and sampling parameters stored in RuntimeProfileRules.
// Lookups degrade along two axes: the language falls back to "global", and
// the tier falls back through balanced, creative, precise.
package router

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jays-visionAI/ZINC-sub003/internal/store"
	"github.com/jays-visionAI/ZINC-sub003/internal/telemetry"
	"github.com/jays-visionAI/ZINC-sub003/pkg/models"
	"github.com/rs/zerolog/log"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

// ErrRuleNotFound is returned when neither the requested language nor the
// global language has an active rule for the role.
type ErrRuleNotFound struct {
	RoleType string
	Language string
}

func (e *ErrRuleNotFound) Error() string {
	return fmt.Sprintf("no active runtime rule for role %q (language %q or %q)", e.RoleType, e.Language, models.GlobalLanguage)
}

// ErrTierNotFound is returned when a rule defines none of the requested or
// fallback tiers.
type ErrTierNotFound struct {
	RuleID string
	Tier   string
}

func (e *ErrTierNotFound) Error() string {
	return fmt.Sprintf("rule %q has no tier %q and no fallback tier", e.RuleID, e.Tier)
}

// RuntimeResolver resolves runtime model selections from the rule store.
// It keeps no state between calls.
type RuntimeResolver struct {
	rules store.RuleStore
}

// NewRuntimeResolver creates a new runtime resolver.
func NewRuntimeResolver(rules store.RuleStore) *RuntimeResolver {
	return &RuntimeResolver{rules: rules}
}

// normalize applies request defaults: language "global", tier "balanced".
func normalize(req models.RuntimeRequest) models.RuntimeRequest {
	req.RoleType = strings.TrimSpace(req.RoleType)
	req.Language = models.NormalizeLanguage(req.Language)
	req.Tier = string(models.NormalizeTier(models.Tier(req.Tier)))
	if req.Tier == "" {
		req.Tier = string(models.TierBalanced)
	}
	return req
}

// Resolve returns the provider/model selection for the request.
func (rr *RuntimeResolver) Resolve(ctx context.Context, req models.RuntimeRequest) (*models.RuntimeSelection, error) {
	ctx, span := telemetry.Tracer().Start(ctx, "router.Resolve")
	defer span.End()

	req = normalize(req)
	if req.RoleType == "" {
		telemetry.RecordRuntimeFailure("invalid_argument")
		return nil, &models.ErrInvalidArgument{Field: "role_type", Reason: "required"}
	}
	span.SetAttributes(
		attribute.String("zinc.role_type", req.RoleType),
		attribute.String("zinc.language", req.Language),
		attribute.String("zinc.tier", req.Tier),
	)

	rule, err := rr.findRule(ctx, req.RoleType, req.Language)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "rule lookup failed")
		telemetry.RecordRuntimeFailure(failureReason(err))
		return nil, err
	}

	tier, tc, ok := selectTier(rule, models.Tier(req.Tier))
	if !ok {
		err := &ErrTierNotFound{RuleID: rule.ID, Tier: req.Tier}
		span.RecordError(err)
		span.SetStatus(codes.Error, "tier not found")
		telemetry.RecordRuntimeFailure(failureReason(err))
		return nil, err
	}

	sel := &models.RuntimeSelection{
		Provider:         tc.Provider,
		ModelID:          tc.ModelID,
		Temperature:      tc.Temperature,
		ResolvedLanguage: rule.Language,
		ResolvedTier:     string(tier),
		RuleID:           rule.ID,
	}
	if tc.TopP != nil {
		v := *tc.TopP
		sel.TopP = &v
	}
	if tc.MaxTokens != nil {
		v := *tc.MaxTokens
		sel.MaxTokens = &v
	}
	sel.Fallback = sel.ResolvedLanguage != req.Language || sel.ResolvedTier != req.Tier

	telemetry.RecordRuntimeResolution(req.RoleType, sel.ResolvedTier, sel.Fallback)
	log.Debug().
		Str("role_type", req.RoleType).
		Str("language", req.Language).
		Str("tier", req.Tier).
		Str("rule_id", rule.ID).
		Str("resolved_language", sel.ResolvedLanguage).
		Str("resolved_tier", sel.ResolvedTier).
		Str("model", sel.ModelID).
		Msg("Runtime config resolved")

	return sel, nil
}

// AvailableTiers lists the tiers of the rule that the role/language resolves
// to. It returns an empty list when no rule resolves.
func (rr *RuntimeResolver) AvailableTiers(ctx context.Context, roleType, language string) []string {
	req := normalize(models.RuntimeRequest{RoleType: roleType, Language: language})
	if req.RoleType == "" {
		return []string{}
	}
	rule, err := rr.findRule(ctx, req.RoleType, req.Language)
	if err != nil {
		var nf *ErrRuleNotFound
		if !errors.As(err, &nf) {
			log.Warn().Err(err).Str("role_type", req.RoleType).Msg("Tier listing failed")
		}
		return []string{}
	}
	return rule.TierNames()
}

// Validate is the non-failing form of Resolve.
func (rr *RuntimeResolver) Validate(ctx context.Context, req models.RuntimeRequest) models.RuntimeValidation {
	sel, err := rr.Resolve(ctx, req)
	if err != nil {
		return models.RuntimeValidation{Valid: false, Error: err.Error()}
	}
	return models.RuntimeValidation{Valid: true, Config: sel}
}

// findRule looks up (role, language) and then (role, global).
func (rr *RuntimeResolver) findRule(ctx context.Context, roleType, language string) (*models.RuntimeProfileRule, error) {
	et := models.EngineType(roleType)
	if language != models.GlobalLanguage {
		rule, err := rr.rules.FindActiveRule(ctx, et, language)
		if err == nil {
			return rule, nil
		}
		if !store.IsNotFound(err) {
			return nil, fmt.Errorf("find rule %s/%s: %w", roleType, language, err)
		}
		log.Debug().Str("role_type", roleType).Str("language", language).Msg("No language rule, falling back to global")
	}

	rule, err := rr.rules.FindActiveRule(ctx, et, models.GlobalLanguage)
	if err == nil {
		return rule, nil
	}
	if store.IsNotFound(err) {
		return nil, &ErrRuleNotFound{RoleType: roleType, Language: language}
	}
	return nil, fmt.Errorf("find rule %s/%s: %w", roleType, models.GlobalLanguage, err)
}

// selectTier tries the requested tier, then the fixed fallback order.
func selectTier(rule *models.RuntimeProfileRule, requested models.Tier) (models.Tier, models.TierConfig, bool) {
	if tc, ok := rule.Tiers[requested]; ok {
		return requested, tc, true
	}
	for _, t := range models.TierFallbackOrder {
		if tc, ok := rule.Tiers[t]; ok {
			return t, tc, true
		}
	}
	return "", models.TierConfig{}, false
}

func failureReason(err error) string {
	var (
		rnf *ErrRuleNotFound
		tnf *ErrTierNotFound
	)
	switch {
	case errors.As(err, &rnf):
		return "rule_not_found"
	case errors.As(err, &tnf):
		return "tier_not_found"
	default:
		return "store_error"
	}
}
