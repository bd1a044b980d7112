package config

import (
	"path/filepath"
	"testing"
)

func TestInitAndDefaults(t *testing.T) {
	if err := Init(); err != nil {
		t.Fatalf("Failed to initialize config: %v", err)
	}

	cfg := Get()
	if cfg == nil {
		t.Fatal("Expected config to be non-nil")
	}

	if cfg.SMS.DBPath == "" {
		t.Error("sms db path should have a default")
	}
	if !filepath.IsAbs(cfg.SMS.DBPath) {
		t.Errorf("sms db path should be absolute, got %q", cfg.SMS.DBPath)
	}
	if cfg.Export.Country != "FR" {
		t.Errorf("default country = %q, want FR", cfg.Export.Country)
	}
	if cfg.Export.MaxAudioBytes != 500*1024*1024 {
		t.Errorf("default audio limit = %d", cfg.Export.MaxAudioBytes)
	}
	if cfg.Export.DefaultDays != 30 {
		t.Errorf("default window = %d days, want 30", cfg.Export.DefaultDays)
	}
	if cfg.Remote.DatabaseURL == "" || cfg.Remote.StorageBucket == "" {
		t.Error("remote endpoints should have defaults")
	}
}

func TestGetDirs(t *testing.T) {
	if err := Init(); err != nil {
		t.Fatal(err)
	}
	dirs := GetDirs()
	if dirs.Config == "" || dirs.Data == "" {
		t.Errorf("dirs = %+v", dirs)
	}
	if CacheDir() != filepath.Join(dirs.Data, "cache") {
		t.Errorf("cache dir = %q", CacheDir())
	}
}
