package overrides_test

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/jays-visionAI/ZINC-sub003/internal/overrides"
	"github.com/jays-visionAI/ZINC-sub003/pkg/models"
)

func TestValidate_DropsUnknownKeys(t *testing.T) {
	in := map[string]interface{}{"tonePreset": "bold", "forbiddenKey": "x", "tone": "loud"}
	got := overrides.Validate(models.EngineCreatorText, in)
	want := map[string]interface{}{"tonePreset": "bold"}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("Validate() mismatch (-want +got):\n%s", diff)
	}
	if len(in) != 3 {
		t.Errorf("Validate() mutated input, len = %d, want 3", len(in))
	}
}

func TestValidate_UnknownEngineTypeGetsNothing(t *testing.T) {
	in := map[string]interface{}{"tonePreset": "bold", "hashtagCount": 3}
	got := overrides.Validate("video_editor", in)
	if len(got) != 0 {
		t.Errorf("Validate(unknown engine) = %v, want empty", got)
	}
}

func TestValidate_Closure(t *testing.T) {
	candidate := map[string]interface{}{}
	for _, keys := range overrides.AllowedKeys {
		for k := range keys {
			candidate[k] = 1
		}
	}
	candidate["__proto__"] = "x"
	candidate["model_id"] = "gpt-4o"

	for et := range overrides.AllowedKeys {
		for k := range overrides.Validate(et, candidate) {
			if !overrides.IsAllowed(et, k) {
				t.Errorf("Validate(%s) kept non-whitelisted key %q", et, k)
			}
		}
	}
}

func TestValidate_KeepsValuesIntact(t *testing.T) {
	nested := map[string]interface{}{"morning": true}
	got := overrides.Validate(models.EnginePlanner, map[string]interface{}{"schedulingWindow": nested})
	if diff := cmp.Diff(nested, got["schedulingWindow"]); diff != "" {
		t.Errorf("Validate() value mismatch (-want +got):\n%s", diff)
	}
}

func TestValidateAll(t *testing.T) {
	in := map[models.EngineType]map[string]interface{}{
		models.EngineCreatorText: {"hookStyle": "question", "bad": 1},
		models.EngineGoals:       {"nope": 2},
		"mystery":                {"tonePreset": "bold"},
	}
	got := overrides.ValidateAll(in)
	want := map[models.EngineType]map[string]interface{}{
		models.EngineCreatorText: {"hookStyle": "question"},
		models.EngineGoals:       {},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("ValidateAll() mismatch (-want +got):\n%s", diff)
	}
}

func TestAllowed_Sorted(t *testing.T) {
	got := overrides.Allowed()[models.EngineCreatorText]
	want := []string{"ctaIntensity", "emojiUsage", "hashtagCount", "hookStyle", "tonePreset"}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("Allowed() mismatch (-want +got):\n%s", diff)
	}
}
