package models_test

import (
	"errors"
	"testing"

	"github.com/jays-visionAI/ZINC-sub003/pkg/models"
)

func TestCompareVersions(t *testing.T) {
	tests := []struct {
		v1, v2 string
		want   int
	}{
		{"1.2.3", "1.2.3", 0},
		{"2.0.0", "1.9.9", 1},
		{"1.2.3", "1.3.0", -1},
		{"1.10.0", "1.9.0", 1},
		{"0.0.1", "0.0.2", -1},
	}
	for _, tt := range tests {
		got, err := models.CompareVersions(tt.v1, tt.v2)
		if err != nil {
			t.Fatalf("CompareVersions(%q, %q) error = %v", tt.v1, tt.v2, err)
		}
		if got != tt.want {
			t.Errorf("CompareVersions(%q, %q) = %d, want %d", tt.v1, tt.v2, got, tt.want)
		}
	}
}

func TestCompareVersions_Malformed(t *testing.T) {
	for _, bad := range []string{"", "1.2", "1.2.x", "a.b.c", "1.2.3.4", "1.-1.0", "+1.2.3", "1.+2.3", "1. 2.3", "1..3"} {
		_, err := models.CompareVersions(bad, "1.0.0")
		var mv *models.ErrMalformedVersion
		if !errors.As(err, &mv) {
			t.Errorf("CompareVersions(%q) error = %v, want *ErrMalformedVersion", bad, err)
		}
	}
}

func TestCanAutoUpgrade(t *testing.T) {
	tests := []struct {
		name               string
		current, candidate string
		enabled            bool
		want               bool
	}{
		{"major bump blocked", "1.0.0", "2.0.0", true, false},
		{"minor bump allowed", "1.0.0", "1.1.0", true, true},
		{"patch bump allowed", "1.0.0", "1.0.1", true, true},
		{"flag off", "1.0.0", "1.1.0", false, false},
		{"equal passes", "1.1.0", "1.1.0", true, true},
		{"older minor passes", "1.4.0", "1.2.0", true, true},
		{"major downgrade passes", "2.0.0", "1.9.0", true, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := models.CanAutoUpgrade(tt.current, tt.candidate, tt.enabled)
			if err != nil {
				t.Fatalf("CanAutoUpgrade() error = %v", err)
			}
			if got != tt.want {
				t.Errorf("CanAutoUpgrade(%q, %q, %v) = %v, want %v", tt.current, tt.candidate, tt.enabled, got, tt.want)
			}
		})
	}
}

func TestCanAutoUpgrade_FlagOffSkipsParsing(t *testing.T) {
	got, err := models.CanAutoUpgrade("garbage", "1.0.0", false)
	if err != nil || got {
		t.Errorf("CanAutoUpgrade() with flag off = (%v, %v), want (false, nil)", got, err)
	}
}

func TestIncrementVersion(t *testing.T) {
	tests := []struct {
		current, bump, want string
	}{
		{"1.2.3", models.BumpMajor, "2.0.0"},
		{"1.2.3", models.BumpMinor, "1.3.0"},
		{"1.2.3", models.BumpPatch, "1.2.4"},
		{"0.0.0", models.BumpPatch, "0.0.1"},
	}
	for _, tt := range tests {
		got, err := models.IncrementVersion(tt.current, tt.bump)
		if err != nil {
			t.Fatalf("IncrementVersion(%q, %q) error = %v", tt.current, tt.bump, err)
		}
		if got != tt.want {
			t.Errorf("IncrementVersion(%q, %q) = %q, want %q", tt.current, tt.bump, got, tt.want)
		}
	}
}

func TestIncrementVersion_InvalidBump(t *testing.T) {
	_, err := models.IncrementVersion("1.0.0", "huge")
	var ia *models.ErrInvalidArgument
	if !errors.As(err, &ia) {
		t.Fatalf("IncrementVersion() error = %v, want *ErrInvalidArgument", err)
	}
	if ia.Field != "bump_type" {
		t.Errorf("ErrInvalidArgument.Field = %q, want %q", ia.Field, "bump_type")
	}
}

func TestIsSemver(t *testing.T) {
	if !models.IsSemver("0.1.0") {
		t.Error("IsSemver(0.1.0) = false, want true")
	}
	if models.IsSemver("1") {
		t.Error("IsSemver(1) = true, want false")
	}
}
