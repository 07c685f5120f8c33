package catalog

import (
	"context"
	"fmt"

	"github.com/jays-visionAI/ZINC-sub003/internal/store"
	"github.com/jays-visionAI/ZINC-sub003/pkg/models"
	"github.com/rs/zerolog/log"
)

// Seeder is the storage a catalog is written to.
type Seeder interface {
	store.RuleStore
	store.BehaviourPackStore
}

// SeedOptions controls how existing documents are treated.
type SeedOptions struct {
	// AutoUpgrade lets a newer minor/patch catalog document replace a stored one.
	AutoUpgrade bool
}

// SeedResult counts what Seed did per document kind.
type SeedResult struct {
	RulesCreated  int `json:"rules_created"`
	RulesUpgraded int `json:"rules_upgraded"`
	RulesSkipped  int `json:"rules_skipped"`
	PacksCreated  int `json:"packs_created"`
	PacksUpgraded int `json:"packs_upgraded"`
	PacksSkipped  int `json:"packs_skipped"`
}

// Upgrade reports whether a stored document at version current may be
// replaced by one at version candidate: the candidate must be newer and
// pass the auto-upgrade gate. Empty versions count as the default version.
func Upgrade(current, candidate string, autoUpgrade bool) (bool, error) {
	if current == "" {
		current = models.DefaultRuleVersion
	}
	if candidate == "" {
		candidate = models.DefaultRuleVersion
	}
	allowed, err := models.CanAutoUpgrade(current, candidate, autoUpgrade)
	if err != nil || !allowed {
		return false, err
	}
	cmp, err := models.CompareVersions(candidate, current)
	if err != nil {
		return false, err
	}
	return cmp > 0, nil
}

// Seed writes the catalog to the store. Missing documents are created;
// existing ones are replaced only when Upgrade allows it.
func Seed(ctx context.Context, s Seeder, c *Catalog, opts SeedOptions) (SeedResult, error) {
	var res SeedResult

	for i := range c.Rules {
		rule := &c.Rules[i]
		existing, err := s.GetRule(ctx, rule.ID)
		switch {
		case store.IsNotFound(err):
			if err := s.UpsertRule(ctx, rule); err != nil {
				return res, fmt.Errorf("seed rule %s: %w", rule.ID, err)
			}
			res.RulesCreated++
			continue
		case err != nil:
			return res, fmt.Errorf("get rule %s: %w", rule.ID, err)
		}

		ok, err := Upgrade(existing.Version, rule.Version, opts.AutoUpgrade)
		if err != nil {
			return res, fmt.Errorf("rule %s: %w", rule.ID, err)
		}
		if !ok {
			res.RulesSkipped++
			continue
		}
		if err := s.UpsertRule(ctx, rule); err != nil {
			return res, fmt.Errorf("upgrade rule %s: %w", rule.ID, err)
		}
		log.Info().Str("rule_id", rule.ID).Str("from", existing.Version).Str("to", rule.Version).Msg("Runtime rule upgraded")
		res.RulesUpgraded++
	}

	for i := range c.Packs {
		pack := &c.Packs[i]
		existing, err := s.GetBehaviourPack(ctx, pack.PackID)
		switch {
		case store.IsNotFound(err):
			if err := s.UpsertBehaviourPack(ctx, pack); err != nil {
				return res, fmt.Errorf("seed pack %s: %w", pack.PackID, err)
			}
			res.PacksCreated++
			continue
		case err != nil:
			return res, fmt.Errorf("get pack %s: %w", pack.PackID, err)
		}

		ok, err := Upgrade(existing.Version, pack.Version, opts.AutoUpgrade)
		if err != nil {
			return res, fmt.Errorf("pack %s: %w", pack.PackID, err)
		}
		if !ok {
			res.PacksSkipped++
			continue
		}
		if err := s.UpsertBehaviourPack(ctx, pack); err != nil {
			return res, fmt.Errorf("upgrade pack %s: %w", pack.PackID, err)
		}
		log.Info().Str("pack_id", pack.PackID).Str("from", existing.Version).Str("to", pack.Version).Msg("Behaviour pack upgraded")
		res.PacksUpgraded++
	}

	log.Info().
		Int("rules_created", res.RulesCreated).
		Int("rules_upgraded", res.RulesUpgraded).
		Int("packs_created", res.PacksCreated).
		Int("packs_upgraded", res.PacksUpgraded).
		Msg("Catalog seeded")
	return res, nil
}
