package config

import (
	"testing"

	"github.com/spf13/viper"
)

func TestLoadDefaults(t *testing.T) {
	viper.Reset()
	t.Cleanup(viper.Reset)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	defaults := GetDefault()
	if cfg.ShutdownTimeout != defaults.ShutdownTimeout {
		t.Errorf("Expected shutdown timeout %s, got %s", defaults.ShutdownTimeout, cfg.ShutdownTimeout)
	}
	if cfg.Log.Level != defaults.Log.Level {
		t.Errorf("Expected log level %s, got %s", defaults.Log.Level, cfg.Log.Level)
	}
	if cfg.Backup.Keep != defaults.Backup.Keep {
		t.Errorf("Expected keep quotas %+v, got %+v", defaults.Backup.Keep, cfg.Backup.Keep)
	}
	if cfg.Backup.WatchDebounce != defaults.Backup.WatchDebounce {
		t.Errorf("Expected watch debounce %s, got %s", defaults.Backup.WatchDebounce, cfg.Backup.WatchDebounce)
	}
}

func TestLoadOverride(t *testing.T) {
	viper.Reset()
	t.Cleanup(viper.Reset)

	viper.Set("backup.keep.latest", 9)
	viper.Set("backup.source", "/tmp/notes.txt")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if cfg.Backup.Keep.Latest != 9 {
		t.Errorf("Expected keep.latest 9, got %d", cfg.Backup.Keep.Latest)
	}
	if cfg.Backup.Source != "/tmp/notes.txt" {
		t.Errorf("Expected overridden source, got %s", cfg.Backup.Source)
	}
}
