package config

import (
	"path/filepath"
	"testing"
)

func TestSaveAndLoadFromFileRoundTrip(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "rivd.toml")

	Reset()
	t.Cleanup(Reset)

	cfg := &Config{
		Communicator: CommunicatorConfig{Enabled: true, Port: 52001, Bind: "127.0.0.1"},
		Provider:     ProviderConfig{Name: "cam"},
		Log:          LogConfig{Verbosity: 2, JSON: true},
		Encoder:      EncoderConfig{QueueDepth: 8, MaxUnknownControlIDs: 5},
	}

	if err := Save(cfg, path); err != nil {
		t.Fatalf("Save: %v", err)
	}

	Reset()
	got, err := LoadFromFile(path)
	if err != nil {
		t.Fatalf("LoadFromFile: %v", err)
	}

	if got.Communicator.Port != 52001 || got.Communicator.Bind != "127.0.0.1" {
		t.Errorf("got communicator %+v", got.Communicator)
	}
	if got.Provider.Name != "cam" {
		t.Errorf("got provider name %q, want cam", got.Provider.Name)
	}
	if got.Log.Verbosity != 2 || !got.Log.JSON {
		t.Errorf("got log %+v", got.Log)
	}
	if got.Encoder.QueueDepth != 8 || got.Encoder.MaxUnknownControlIDs != 5 {
		t.Errorf("got encoder %+v", got.Encoder)
	}
}
