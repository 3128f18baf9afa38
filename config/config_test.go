package config

import (
	"testing"

	"github.com/spf13/viper"

	"github.com/rivcore/riv/listener"
)

func TestLoadWithViperDefaults(t *testing.T) {
	v := viper.New()
	SetDefaults(v)

	cfg, err := LoadWithViper(v)
	if err != nil {
		t.Fatalf("LoadWithViper: %v", err)
	}

	if cfg.Communicator.Port != listener.DefaultPort {
		t.Errorf("got port %d, want %d", cfg.Communicator.Port, listener.DefaultPort)
	}
	if !cfg.Communicator.Enabled {
		t.Error("expected communicator enabled by default")
	}
	if cfg.Provider.Name != "rivd" {
		t.Errorf("got provider name %q, want rivd", cfg.Provider.Name)
	}
	if cfg.Encoder.MaxUnknownControlIDs != 10 {
		t.Errorf("got max unknown control ids %d, want 10", cfg.Encoder.MaxUnknownControlIDs)
	}
}

func TestLoadWithViperOverride(t *testing.T) {
	v := viper.New()
	SetDefaults(v)
	v.Set("communicator.port", 9000)
	v.Set("provider.name", "camera-1")
	v.Set("communicator.enabled", false)

	cfg, err := LoadWithViper(v)
	if err != nil {
		t.Fatalf("LoadWithViper: %v", err)
	}
	if cfg.Communicator.Port != 9000 {
		t.Errorf("got port %d, want 9000", cfg.Communicator.Port)
	}
	if cfg.Communicator.Enabled {
		t.Error("expected communicator disabled after override")
	}
	if cfg.Provider.Name != "camera-1" {
		t.Errorf("got provider name %q, want camera-1", cfg.Provider.Name)
	}
}
