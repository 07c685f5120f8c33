package main

import (
	"bytes"
	"encoding/json"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/jays-visionAI/ZINC-sub003/internal/catalog"
	"github.com/jays-visionAI/ZINC-sub003/pkg/models"
)

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := newRootCmd()
	var out, errOut bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&errOut)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func mustRun(t *testing.T, args ...string) string {
	t.Helper()
	out, err := run(t, args...)
	if err != nil {
		t.Fatalf("zincctl %s: %v", strings.Join(args, " "), err)
	}
	return out
}

func TestVersionCommands(t *testing.T) {
	tests := []struct {
		args []string
		want string
	}{
		{[]string{"version", "compare", "1.0.0", "1.2.0"}, "-1\n"},
		{[]string{"version", "compare", "2.0.0", "1.9.9"}, "1\n"},
		{[]string{"version", "compare", "1.0.0", "1.0.0"}, "0\n"},
		{[]string{"version", "bump", "1.2.3", "minor"}, "1.3.0\n"},
		{[]string{"version", "bump", "1.2.3", "major"}, "2.0.0\n"},
		{[]string{"version", "can-upgrade", "1.0.0", "1.1.0"}, "true\n"},
		{[]string{"version", "can-upgrade", "1.0.0", "2.0.0"}, "false\n"},
		{[]string{"version", "can-upgrade", "--auto-upgrade=false", "1.0.0", "1.1.0"}, "false\n"},
	}
	for _, tt := range tests {
		t.Run(strings.Join(tt.args, " "), func(t *testing.T) {
			if got := mustRun(t, tt.args...); got != tt.want {
				t.Errorf("got %q, want %q", got, tt.want)
			}
		})
	}
}

func TestVersionCommands_Errors(t *testing.T) {
	for _, args := range [][]string{
		{"version", "compare", "1.0", "1.0.0"},
		{"version", "bump", "1.0.0", "huge"},
		{"version", "bump", "1.0.0"},
	} {
		if _, err := run(t, args...); err == nil {
			t.Errorf("zincctl %s: expected error", strings.Join(args, " "))
		}
	}
}

func TestCatalogGenerate_Stdout(t *testing.T) {
	out := mustRun(t, "catalog", "generate", "--version", "1.4.0")
	c, err := catalog.DecodeYAML(strings.NewReader(out))
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if c.Version != "1.4.0" {
		t.Errorf("version = %q", c.Version)
	}
	if len(c.Rules) == 0 || len(c.Packs) == 0 {
		t.Errorf("empty catalog: %d rules, %d packs", len(c.Rules), len(c.Packs))
	}
}

func TestCatalogGenerate_BadVersion(t *testing.T) {
	if _, err := run(t, "catalog", "generate", "--version", "v1"); err == nil {
		t.Fatal("expected error")
	}
}

func TestCatalogSeedAndResolve(t *testing.T) {
	dir := t.TempDir()
	db := filepath.Join(dir, "zinc.db")
	file := filepath.Join(dir, "catalog.yaml")
	storeArgs := []string{"--store", "sqlite", "--path", db}

	mustRun(t, "catalog", "generate", "--out", file)

	var first catalog.SeedResult
	if err := json.Unmarshal([]byte(mustRun(t, append(storeArgs, "catalog", "seed", "--file", file)...)), &first); err != nil {
		t.Fatal(err)
	}
	want := catalog.Generate(catalog.GeneratorOptions{})
	if first.RulesCreated != len(want.Rules) || first.PacksCreated != len(want.Packs) {
		t.Errorf("first seed = %+v", first)
	}

	var second catalog.SeedResult
	if err := json.Unmarshal([]byte(mustRun(t, append(storeArgs, "catalog", "seed", "--file", file)...)), &second); err != nil {
		t.Fatal(err)
	}
	if second.RulesCreated != 0 || second.RulesSkipped != len(want.Rules) {
		t.Errorf("second seed = %+v", second)
	}

	mustRun(t, append(storeArgs, "instance", "put", "--id", "inst-1", "--project", "proj-1", "--channel", "instagram")...)

	var list []models.AgentInstance
	if err := json.Unmarshal([]byte(mustRun(t, append(storeArgs, "instance", "list", "--project", "proj-1")...)), &list); err != nil {
		t.Fatal(err)
	}
	if len(list) != 1 || list[0].ID != "inst-1" {
		t.Errorf("list = %+v", list)
	}

	var got map[string]interface{}
	out := mustRun(t, append(storeArgs, "resolve", "config", "--instance", "inst-1", "--engine", "creator_text")...)
	if err := json.Unmarshal([]byte(out), &got); err != nil {
		t.Fatal(err)
	}
	var pack models.BehaviourPack
	for _, p := range want.Packs {
		if p.PackID == models.BehaviourPackID(models.EngineCreatorText, "instagram") {
			pack = p
		}
	}
	raw, _ := json.Marshal(pack.Defaults)
	var expected map[string]interface{}
	if err := json.Unmarshal(raw, &expected); err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff(expected, got); diff != "" {
		t.Errorf("effective config mismatch (-want +got):\n%s", diff)
	}

	var sel models.RuntimeSelection
	out = mustRun(t, append(storeArgs, "resolve", "runtime", "--role", "creator_text", "--language", "fr", "--tier", "creative")...)
	if err := json.Unmarshal([]byte(out), &sel); err != nil {
		t.Fatal(err)
	}
	if sel.ResolvedLanguage != models.GlobalLanguage || sel.ResolvedTier != "creative" {
		t.Errorf("selection = %+v", sel)
	}

	var tiers []string
	out = mustRun(t, append(storeArgs, "resolve", "runtime", "--role", "planner", "--tiers")...)
	if err := json.Unmarshal([]byte(out), &tiers); err != nil {
		t.Fatal(err)
	}
	if len(tiers) != len(catalog.DefaultTiers) {
		t.Errorf("tiers = %v", tiers)
	}
}

func TestResolveConfig_Errors(t *testing.T) {
	storeArgs := []string{"--store", "sqlite", "--path", filepath.Join(t.TempDir(), "zinc.db")}
	if _, err := run(t, append(storeArgs, "resolve", "config", "--engine", "planner")...); err == nil {
		t.Error("missing --instance: expected error")
	}
	if _, err := run(t, append(storeArgs, "resolve", "config", "--instance", "nope", "--engine", "planner")...); err == nil {
		t.Error("unknown instance: expected error")
	}
	if _, err := run(t, append(storeArgs, "resolve", "runtime", "--role", "planner")...); err == nil {
		t.Error("empty catalog: expected error")
	}
}

func TestMemoryStorePersistsAcrossCommands(t *testing.T) {
	storeArgs := []string{"--store", "memory", "--data-dir", t.TempDir()}
	mustRun(t, append(storeArgs, "catalog", "seed")...)

	var sel models.RuntimeSelection
	out := mustRun(t, append(storeArgs, "resolve", "runtime", "--role", "planner")...)
	if err := json.Unmarshal([]byte(out), &sel); err != nil {
		t.Fatal(err)
	}
	if sel.RuleID != catalog.RuleID(models.EnginePlanner, models.GlobalLanguage) {
		t.Errorf("rule id = %q", sel.RuleID)
	}
}

func TestUnknownBackend(t *testing.T) {
	if _, err := run(t, "--store", "etcd", "instance", "list"); err == nil {
		t.Fatal("expected error")
	}
}
