package models_test

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/jays-visionAI/ZINC-sub003/pkg/models"
)

func TestResolveChannel(t *testing.T) {
	tests := []struct {
		name string
		inst models.AgentInstance
		want string
	}{
		{"channel id wins", models.AgentInstance{ChannelID: "linkedin", Channel: "instagram", Platform: "x"}, "linkedin"},
		{"channel next", models.AgentInstance{Channel: "instagram", Platform: "x"}, "instagram"},
		{"platform last", models.AgentInstance{Platform: "threads"}, "threads"},
		{"fallback", models.AgentInstance{}, "fallback"},
	}
	for _, tt := range tests {
		if got := tt.inst.ResolveChannel("fallback"); got != tt.want {
			t.Errorf("%s: ResolveChannel() = %q, want %q", tt.name, got, tt.want)
		}
	}
}

func TestBehaviourPackID(t *testing.T) {
	if got := models.BehaviourPackID(models.EngineCreatorText, "x"); got != "creator_text_x" {
		t.Errorf("BehaviourPackID() = %q, want %q", got, "creator_text_x")
	}
	if got := models.BehaviourPackID(models.EnginePlanner, ""); got != "planner" {
		t.Errorf("BehaviourPackID() = %q, want %q", got, "planner")
	}
}

func TestTierNames(t *testing.T) {
	r := models.RuntimeProfileRule{Tiers: map[models.Tier]models.TierConfig{
		"turbo":             {},
		models.TierPrecise:  {},
		models.TierBalanced: {},
		"economy":           {},
	}}
	want := []string{"balanced", "precise", "economy", "turbo"}
	if diff := cmp.Diff(want, r.TierNames()); diff != "" {
		t.Errorf("TierNames() mismatch (-want +got):\n%s", diff)
	}
}
