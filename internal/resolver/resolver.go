// Package resolver computes the effective engine configuration for an agent
// instance from three layered sources.
//
// Layers, lowest priority first:
//   - Behaviour Pack:  platform defaults for (engineType, channel), falling
//     back to the generic engineType pack
//   - Runtime Profile: engine overrides of the project's active profile
//   - Channel Config:  tenant overrides for the instance, whitelist-filtered
//
// Only a missing instance or an ended context fails a resolution. A layer that cannot be loaded
// contributes nothing and is reported through logs and metrics.
package resolver

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/jays-visionAI/ZINC-sub003/internal/events"
	"github.com/jays-visionAI/ZINC-sub003/internal/merge"
	"github.com/jays-visionAI/ZINC-sub003/internal/overrides"
	"github.com/jays-visionAI/ZINC-sub003/internal/store"
	"github.com/jays-visionAI/ZINC-sub003/internal/telemetry"
	"github.com/jays-visionAI/ZINC-sub003/pkg/models"
	"github.com/rs/zerolog/log"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"
)

// DefaultChannel is the channel assumed for instances without any channel field.
const DefaultChannel = "x"

// Layer names used in logs and metrics.
const (
	LayerPack    = "behaviour_pack"
	LayerProfile = "runtime_profile"
	LayerChannel = "channel_config"
)

// Backend is the storage the resolver reads and writes.
type Backend interface {
	store.InstanceStore
	store.BehaviourPackStore
	store.RuntimeProfileStore
	store.ChannelConfigStore
}

// Resolver resolves and edits layered engine configuration.
type Resolver struct {
	store          Backend
	defaultChannel string
	publisher      events.Publisher
	now            func() time.Time
}

// Option configures a Resolver.
type Option func(*Resolver)

// WithDefaultChannel sets the channel used when an instance names none.
func WithDefaultChannel(channel string) Option {
	return func(r *Resolver) {
		if channel != "" {
			r.defaultChannel = channel
		}
	}
}

// WithPublisher sets where config-change events go after writes.
func WithPublisher(p events.Publisher) Option {
	return func(r *Resolver) {
		if p != nil {
			r.publisher = p
		}
	}
}

// WithClock overrides the time source used for edit stamps.
func WithClock(now func() time.Time) Option {
	return func(r *Resolver) { r.now = now }
}

// NewResolver creates a new config resolver.
func NewResolver(s Backend, opts ...Option) *Resolver {
	r := &Resolver{
		store:          s,
		defaultChannel: DefaultChannel,
		publisher:      events.NopPublisher{},
		now:            func() time.Time { return time.Now().UTC() },
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// layerResult is the outcome of loading one layer. A non-nil err means the
// layer degraded; data is then ignored.
type layerResult struct {
	name string
	data map[string]interface{}
	err  error
}

func (l layerResult) contribution() map[string]interface{} {
	if l.err != nil || l.data == nil {
		return map[string]interface{}{}
	}
	return l.data
}

// GetEffectiveConfig merges Pack → Runtime Profile → validated Channel
// overrides for the instance and engine type. Layers are loaded concurrently;
// the merge order is fixed.
func (r *Resolver) GetEffectiveConfig(ctx context.Context, instanceID string, engineType models.EngineType) (models.EffectiveConfig, error) {
	ctx, span := telemetry.Tracer().Start(ctx, "resolver.GetEffectiveConfig")
	defer span.End()
	span.SetAttributes(
		attribute.String("zinc.instance_id", instanceID),
		attribute.String("zinc.engine_type", string(engineType)),
	)

	inst, err := r.store.GetInstance(ctx, instanceID)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "instance lookup failed")
		telemetry.RecordEffectiveConfig(string(engineType), false)
		return nil, fmt.Errorf("load instance %q: %w", instanceID, err)
	}
	channel := inst.ResolveChannel(r.defaultChannel)
	span.SetAttributes(attribute.String("zinc.channel", channel))

	// Layer failures travel in layerResult. Only an expired or cancelled
	// context is returned through the group, which stops the other loads.
	var pack, profile, channelCfg layerResult
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		pack = r.loadPack(gctx, engineType, channel)
		return abortErr(pack.err)
	})
	g.Go(func() error {
		profile = r.loadProfile(gctx, inst.ProjectID, engineType)
		return abortErr(profile.err)
	})
	g.Go(func() error {
		channelCfg = r.loadChannelOverrides(gctx, instanceID, engineType)
		return abortErr(channelCfg.err)
	})
	if err := g.Wait(); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "layer load aborted")
		telemetry.RecordEffectiveConfig(string(engineType), false)
		return nil, fmt.Errorf("load config layers for %q: %w", instanceID, err)
	}

	for _, l := range []layerResult{pack, profile, channelCfg} {
		if l.err == nil {
			continue
		}
		log.Warn().
			Err(l.err).
			Str("layer", l.name).
			Str("instance_id", instanceID).
			Str("engine_type", string(engineType)).
			Msg("Config layer failed to load, continuing without it")
		telemetry.RecordLayerDegraded(l.name)
		span.AddEvent("layer_degraded", trace.WithAttributes(attribute.String("zinc.layer", l.name)))
	}

	validated := overrides.Validate(engineType, channelCfg.contribution())
	effective := merge.Merge(pack.contribution(), profile.contribution(), validated)

	telemetry.RecordEffectiveConfig(string(engineType), true)
	log.Debug().
		Str("instance_id", instanceID).
		Str("engine_type", string(engineType)).
		Str("channel", channel).
		Int("keys", len(effective)).
		Msg("Effective config resolved")

	return models.EffectiveConfig(effective), nil
}

// abortErr passes through context errors, which end the resolution instead
// of degrading a layer.
func abortErr(err error) error {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return err
	}
	return nil
}

// loadPack tries the channel-specific pack, then the generic engine pack.
// Both missing is an empty (not degraded) layer.
func (r *Resolver) loadPack(ctx context.Context, engineType models.EngineType, channel string) layerResult {
	res := layerResult{name: LayerPack}
	for _, id := range []string{models.BehaviourPackID(engineType, channel), models.BehaviourPackID(engineType, "")} {
		p, err := r.store.GetBehaviourPack(ctx, id)
		if err == nil {
			res.data = p.Defaults
			return res
		}
		if !store.IsNotFound(err) {
			res.err = fmt.Errorf("get behaviour pack %q: %w", id, err)
			return res
		}
	}
	return res
}

// loadProfile takes the first active profile of the project.
func (r *Resolver) loadProfile(ctx context.Context, projectID string, engineType models.EngineType) layerResult {
	res := layerResult{name: LayerProfile}
	profiles, err := r.store.ListActiveRuntimeProfiles(ctx, projectID)
	if err != nil {
		res.err = fmt.Errorf("list active runtime profiles: %w", err)
		return res
	}
	if len(profiles) == 0 {
		return res
	}
	if len(profiles) > 1 {
		log.Debug().
			Str("project_id", projectID).
			Int("active", len(profiles)).
			Str("using", profiles[0].ProfileID).
			Msg("Multiple active runtime profiles, using the first")
	}
	res.data = profiles[0].EngineOverrides[engineType]
	return res
}

func (r *Resolver) loadChannelOverrides(ctx context.Context, instanceID string, engineType models.EngineType) layerResult {
	res := layerResult{name: LayerChannel}
	cfg, err := r.store.GetChannelConfig(ctx, instanceID)
	if err != nil {
		if !store.IsNotFound(err) {
			res.err = fmt.Errorf("get channel config: %w", err)
		}
		return res
	}
	res.data = cfg.Overrides[engineType]
	return res
}

// ── Overrides editing ────────────────────────────────────────

// SaveChannelConfig validates every engine type's overrides and upserts the
// instance's channel config. Engine types without a whitelist are dropped.
func (r *Resolver) SaveChannelConfig(ctx context.Context, instanceID string, in map[models.EngineType]map[string]interface{}, userID string) error {
	ctx, span := telemetry.Tracer().Start(ctx, "resolver.SaveChannelConfig")
	defer span.End()
	span.SetAttributes(attribute.String("zinc.instance_id", instanceID))

	if instanceID == "" {
		return &models.ErrInvalidArgument{Field: "instance_id", Reason: "required"}
	}
	inst, err := r.store.GetInstance(ctx, instanceID)
	if err != nil {
		return fmt.Errorf("load instance %q: %w", instanceID, err)
	}

	validated := overrides.ValidateAll(in)
	if err := r.store.SaveChannelOverrides(ctx, instanceID, inst.ProjectID, validated, userID, r.now()); err != nil {
		span.RecordError(err)
		return fmt.Errorf("save channel config: %w", err)
	}

	engineTypes := make([]models.EngineType, 0, len(validated))
	for et := range validated {
		engineTypes = append(engineTypes, et)
	}
	log.Info().
		Str("instance_id", instanceID).
		Str("user_id", userID).
		Int("engine_types", len(validated)).
		Msg("Channel config saved")

	sort.Slice(engineTypes, func(i, j int) bool { return engineTypes[i] < engineTypes[j] })
	evt := events.NewConfigChanged(events.ActionSaved, instanceID)
	evt.EngineTypes = engineTypes
	evt.UserID = userID
	r.publish(ctx, evt)
	return nil
}

// ResetOverride deletes one override field of one engine type.
func (r *Resolver) ResetOverride(ctx context.Context, instanceID string, engineType models.EngineType, fieldKey string) error {
	ctx, span := telemetry.Tracer().Start(ctx, "resolver.ResetOverride")
	defer span.End()

	if fieldKey == "" {
		return &models.ErrInvalidArgument{Field: "field", Reason: "required"}
	}
	if err := r.store.DeleteChannelOverride(ctx, instanceID, engineType, fieldKey); err != nil {
		return fmt.Errorf("reset override %s.%s: %w", engineType, fieldKey, err)
	}

	log.Info().
		Str("instance_id", instanceID).
		Str("engine_type", string(engineType)).
		Str("field", fieldKey).
		Msg("Override reset")

	evt := events.NewConfigChanged(events.ActionFieldReset, instanceID)
	evt.EngineTypes = []models.EngineType{engineType}
	evt.Field = fieldKey
	r.publish(ctx, evt)
	return nil
}

// ResetAllOverrides clears every override of the instance.
func (r *Resolver) ResetAllOverrides(ctx context.Context, instanceID string) error {
	ctx, span := telemetry.Tracer().Start(ctx, "resolver.ResetAllOverrides")
	defer span.End()

	if err := r.store.ClearChannelOverrides(ctx, instanceID); err != nil {
		return fmt.Errorf("reset all overrides: %w", err)
	}

	log.Info().Str("instance_id", instanceID).Msg("All overrides reset")
	r.publish(ctx, events.NewConfigChanged(events.ActionAllReset, instanceID))
	return nil
}

func (r *Resolver) publish(ctx context.Context, evt events.ConfigChanged) {
	if err := r.publisher.Publish(ctx, evt); err != nil {
		log.Warn().Err(err).Str("instance_id", evt.InstanceID).Str("action", string(evt.Action)).Msg("Failed to publish config change")
	}
}
