package main

import (
	"path/filepath"
	"testing"

	"github.com/spf13/cobra"

	"github.com/TobiSchelling/wsws-bulletin/internal/config"
)

func loadDefaults(t *testing.T) *config.Loaded {
	t.Helper()
	l, err := config.Load("", func(string) (string, bool) { return "", false })
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	return l
}

func TestApplyOverrides(t *testing.T) {
	l := loadDefaults(t)
	if err := applyOverrides(l, "OpenAI", "OPENAI", "/tmp/out"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if l.Synthesis.Provider != "openai" || l.Speech.Engine != "openai" || l.Output.Dir != "/tmp/out" {
		t.Errorf("overrides not applied: %+v %+v %+v", l.Synthesis, l.Speech, l.Output)
	}
}

func TestApplyOverridesEmptyKeepsConfig(t *testing.T) {
	l := loadDefaults(t)
	if err := applyOverrides(l, "", "", ""); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if l.Synthesis.Provider != "anthropic" || l.Speech.Engine != "local" || l.Output.Dir != "./output" {
		t.Error("expected config values unchanged")
	}
}

func TestApplyOverridesRejectsUnknown(t *testing.T) {
	if err := applyOverrides(loadDefaults(t), "ollama", "", ""); err == nil {
		t.Error("expected error for unknown provider")
	}
	if err := applyOverrides(loadDefaults(t), "", "coqui", ""); err == nil {
		t.Error("expected error for unknown engine")
	}
}

func TestNewGetterWithCache(t *testing.T) {
	l := loadDefaults(t)
	l.Cache.Dir = filepath.Join(t.TempDir(), "cache")

	getter, closeCache, err := newGetter(l.Config)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	defer closeCache()
	if getter == nil {
		t.Fatal("expected getter")
	}

	db, err := openCache(l.Config)
	if err != nil {
		t.Fatalf("expected cache database: %v", err)
	}
	db.Close()
}

func hoursCmd(t *testing.T, value string) (*cobra.Command, *int) {
	t.Helper()
	var hours int
	cmd := &cobra.Command{Use: "test"}
	cmd.Flags().IntVar(&hours, "hours", 0, "")
	if value != "" {
		if err := cmd.Flags().Set("hours", value); err != nil {
			t.Fatalf("set hours: %v", err)
		}
	}
	return cmd, &hours
}

func TestResolveHoursUsesConfigWhenUnset(t *testing.T) {
	cmd, hours := hoursCmd(t, "")
	got, err := resolveHours(cmd, *hours, 24)
	if err != nil || got != 24 {
		t.Errorf("expected configured 24, got %d (%v)", got, err)
	}
}

func TestResolveHoursExplicitValue(t *testing.T) {
	cmd, hours := hoursCmd(t, "6")
	got, err := resolveHours(cmd, *hours, 24)
	if err != nil || got != 6 {
		t.Errorf("expected 6, got %d (%v)", got, err)
	}
}

func TestResolveHoursRejectsNonPositive(t *testing.T) {
	for _, v := range []string{"0", "-5"} {
		cmd, hours := hoursCmd(t, v)
		if _, err := resolveHours(cmd, *hours, 24); err == nil {
			t.Errorf("expected error for --hours %s", v)
		}
	}
}
