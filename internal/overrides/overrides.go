// Package overrides holds the whitelist of user-overridable option keys per
// engine type and the validator that enforces it.
//
// This is the only hard boundary between tenant input and engine behaviour:
// a key that is not on the list for its engine type never reaches the merge.
package overrides

import (
	"sort"

	"github.com/jays-visionAI/ZINC-sub003/internal/telemetry"
	"github.com/jays-visionAI/ZINC-sub003/pkg/models"
	"github.com/rs/zerolog/log"
)

// AllowedKeys maps each engine type to the option names a tenant may override.
// Engine types missing from this map accept no overrides at all.
var AllowedKeys = map[models.EngineType]map[string]bool{
	models.EnginePlanner: set(
		"postFrequency",
		"contentMix",
		"schedulingWindow",
		"topicFocus",
		"planningHorizonDays",
	),
	models.EngineCreatorText: set(
		"hashtagCount",
		"tonePreset",
		"hookStyle",
		"emojiUsage",
		"ctaIntensity",
	),
	models.EngineEngagement: set(
		"replyTone",
		"replyDelayMinutes",
		"autoLike",
		"mentionPolicy",
		"dailyReplyLimit",
	),
	models.EngineGoals: set(
		"reachWeight",
		"engagementWeight",
		"conversionWeight",
		"brandSafetyWeight",
	),
}

func set(keys ...string) map[string]bool {
	m := make(map[string]bool, len(keys))
	for _, k := range keys {
		m[k] = true
	}
	return m
}

// IsAllowed reports whether key may be overridden for engineType.
func IsAllowed(engineType models.EngineType, key string) bool {
	return AllowedKeys[engineType][key]
}

// Allowed returns the sorted whitelist for every engine type.
func Allowed() map[models.EngineType][]string {
	out := make(map[models.EngineType][]string, len(AllowedKeys))
	for et, keys := range AllowedKeys {
		list := make([]string, 0, len(keys))
		for k := range keys {
			list = append(list, k)
		}
		sort.Strings(list)
		out[et] = list
	}
	return out
}

// Validate returns a copy of in holding only whitelisted keys for engineType.
// Dropped keys are logged and counted, never reported as errors.
func Validate(engineType models.EngineType, in map[string]interface{}) map[string]interface{} {
	out := make(map[string]interface{}, len(in))
	allowed, known := AllowedKeys[engineType]
	for k, v := range in {
		if known && allowed[k] {
			out[k] = v
			continue
		}
		log.Warn().
			Str("engine_type", string(engineType)).
			Str("key", k).
			Bool("known_engine", known).
			Msg("Dropping non-whitelisted override key")
		telemetry.RecordDroppedOverride(string(engineType))
	}
	return out
}

// ValidateAll validates every engine type's overrides. Engine types without
// a whitelist are omitted; known engine types are kept even when every key
// was dropped, so saving them clears the stored overrides.
func ValidateAll(in map[models.EngineType]map[string]interface{}) map[models.EngineType]map[string]interface{} {
	out := make(map[models.EngineType]map[string]interface{}, len(in))
	for et, o := range in {
		v := Validate(et, o)
		if _, known := AllowedKeys[et]; known {
			out[et] = v
		}
	}
	return out
}
