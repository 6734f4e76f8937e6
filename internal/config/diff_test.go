package config_test

import (
	"testing"

	"github.com/lectorhq/lector/internal/config"
)

func TestDiff_NoChanges(t *testing.T) {
	t.Parallel()

	a := &config.Config{}
	a.Server.LogLevel = config.LogInfo
	a.Reading = config.ReadingConfig{SourceLang: "es", TargetLang: "en"}
	b := &config.Config{}
	b.Server.LogLevel = config.LogInfo
	b.Reading = config.ReadingConfig{SourceLang: "es", TargetLang: "en"}

	d := config.Diff(a, b)
	if d.LogLevelChanged || d.ReadingChanged {
		t.Errorf("diff = %+v, want no changes", d)
	}
}

func TestDiff_LogLevel(t *testing.T) {
	t.Parallel()

	a := &config.Config{}
	a.Server.LogLevel = config.LogInfo
	b := &config.Config{}
	b.Server.LogLevel = config.LogDebug

	d := config.Diff(a, b)
	if !d.LogLevelChanged || d.NewLogLevel != config.LogDebug {
		t.Errorf("diff = %+v", d)
	}
}

func TestDiff_Reading(t *testing.T) {
	t.Parallel()

	a := &config.Config{}
	a.Reading = config.ReadingConfig{SourceLang: "es", TargetLang: "en"}
	b := &config.Config{}
	b.Reading = config.ReadingConfig{SourceLang: "es", TargetLang: "de"}

	d := config.Diff(a, b)
	if !d.ReadingChanged || d.NewReading.TargetLang != "de" {
		t.Errorf("diff = %+v", d)
	}
}
