package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

const testConfig = `
env: production
log:
  log_level: debug
editor:
  endpoint: http://panel.local/api/templates/7/
  timeout: 5s
panel:
  port: 9000
`

func writeConfig(t *testing.T, name, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestLoadConfigFile(t *testing.T) {
	path := writeConfig(t, "config.yml", testConfig)
	if err := LoadConfig(path); err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}

	if Env.Env != ProductionEnvironment || Env.Log.LogLevel != "debug" {
		t.Fatalf("unexpected env/log: %+v", Env)
	}
	if Env.Editor.Endpoint != "http://panel.local/api/templates/7/" || Env.Editor.Timeout != 5*time.Second {
		t.Fatalf("unexpected editor config: %+v", Env.Editor)
	}
	if Env.Panel.Port != 9000 {
		t.Fatalf("panel.port = %d", Env.Panel.Port)
	}
	// untouched keys keep their defaults
	if Env.Editor.DefaultWidth != 800 || Env.Editor.CSRFHeader != "X-CSRFToken" || Env.MDNS.Service != "_templateboard._tcp" {
		t.Fatalf("defaults missing: %+v %+v", Env.Editor, Env.MDNS)
	}
}

func TestLoadConfigEnvOverride(t *testing.T) {
	path := writeConfig(t, "config.yml", testConfig)
	t.Setenv("TEMPLATEBOARD_EDITOR_ENDPOINT", "https://other/api/templates/2/")
	t.Setenv("TEMPLATEBOARD_PANEL_PORT", "9100")

	if err := LoadConfig(path); err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	if Env.Editor.Endpoint != "https://other/api/templates/2/" || Env.Panel.Port != 9100 {
		t.Fatalf("env did not override: %+v %+v", Env.Editor, Env.Panel)
	}
}

func TestLoadConfigMissing(t *testing.T) {
	if err := LoadConfig(filepath.Join(t.TempDir(), "nope.yml")); err == nil {
		t.Fatalf("expected error for a missing explicit config")
	}

	wd, _ := os.Getwd()
	t.Cleanup(func() { _ = os.Chdir(wd) })
	if err := os.Chdir(t.TempDir()); err != nil {
		t.Fatalf("chdir: %v", err)
	}
	if err := LoadConfig(""); err != nil {
		t.Fatalf("missing default config should fall back to defaults: %v", err)
	}
	if Env.Panel.Port != 8888 || Env.Log.LogLevel != "info" {
		t.Fatalf("unexpected defaults: %+v", Env)
	}
	if Env.Editor.Timeout != 0 {
		t.Fatalf("template api calls should not time out by default, got %v", Env.Editor.Timeout)
	}
}
