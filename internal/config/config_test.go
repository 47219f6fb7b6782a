package config

import (
	"os"
	"path/filepath"
	"reflect"
	"testing"
)

func TestLoad_FirstRunWritesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "etc", "config.yaml")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Timezone != "UTC" {
		t.Errorf("Timezone = %q, want UTC", cfg.Timezone)
	}
	if !reflect.DeepEqual(cfg.Calendars.Google, []string{"primary"}) {
		t.Errorf("Google calendars = %v, want [primary]", cfg.Calendars.Google)
	}

	info, err := os.Stat(path)
	if err != nil {
		t.Fatalf("config file not written: %v", err)
	}
	if info.Mode().Perm() != 0o600 {
		t.Errorf("perm = %o, want 600", info.Mode().Perm())
	}

	again, err := Load(path)
	if err != nil {
		t.Fatalf("reload: %v", err)
	}
	if again.Listen != cfg.Listen || again.TokenStore != cfg.TokenStore {
		t.Errorf("reload mismatch: %+v vs %+v", again, cfg)
	}
}

func TestLoad_PartialYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	yamlDoc := `
timezone: America/Los_Angeles
calendars:
  google: [" primary ", "", "family@group.calendar.google.com"]
  ics:
    - url: https://example.com/holidays.ics
      name: holidays
weather:
  latitude: 37.77
  longitude: -122.42
  temperature_unit: kelvin
token_store:
  driver: sqlite
`
	if err := os.WriteFile(path, []byte(yamlDoc), 0o600); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if want := []string{"primary", "family@group.calendar.google.com"}; !reflect.DeepEqual(cfg.Calendars.Google, want) {
		t.Errorf("Google = %v, want %v", cfg.Calendars.Google, want)
	}
	if got := cfg.Calendars.ICS[0].ID; got != "holidays" {
		t.Errorf("ICS id = %q, want holidays", got)
	}
	if !cfg.Weather.Enabled() {
		t.Error("weather should be enabled with coordinates")
	}
	if cfg.Weather.TemperatureUnit != "fahrenheit" {
		t.Errorf("unknown unit not reset: %q", cfg.Weather.TemperatureUnit)
	}
	if cfg.TokenStore.Path != filepath.Join("data", "inkcal.db") {
		t.Errorf("sqlite path = %q", cfg.TokenStore.Path)
	}
	if cfg.Google.TokenURL != DefaultGoogleTokenURL {
		t.Errorf("TokenURL = %q", cfg.Google.TokenURL)
	}
}

func TestNormalize_ICSOnlyKeepsGoogleEmpty(t *testing.T) {
	cfg := &Config{Calendars: CalendarsConfig{ICS: []ICSConfig{{URL: "https://example.com/a.ics"}}}}
	cfg.Normalize()
	if len(cfg.Calendars.Google) != 0 {
		t.Errorf("Google = %v, want none", cfg.Calendars.Google)
	}
	if cfg.Calendars.ICS[0].ID != "https://example.com/a.ics" {
		t.Errorf("ICS id fallback = %q", cfg.Calendars.ICS[0].ID)
	}
}

func TestSetDataDir(t *testing.T) {
	cfg := &Config{Snapshot: SnapshotConfig{Refresh: "*/5 * * * *"}}
	cfg.Normalize()
	cfg.SetDataDir("/var/lib/inkcal")

	if cfg.TokenStore.Path != "/var/lib/inkcal/google_token.json" {
		t.Errorf("token path = %q", cfg.TokenStore.Path)
	}
	if cfg.Snapshot.Path != "/var/lib/inkcal/payload.json" {
		t.Errorf("snapshot path = %q", cfg.Snapshot.Path)
	}

	custom := &Config{TokenStore: TokenStoreConfig{Path: "/secrets/token.json"}}
	custom.Normalize()
	custom.SetDataDir("/var/lib/inkcal")
	if custom.TokenStore.Path != "/secrets/token.json" {
		t.Errorf("explicit path rebased: %q", custom.TokenStore.Path)
	}
}

func TestParseCalendarIDs(t *testing.T) {
	got := ParseCalendarIDs(" primary, work@example.com ,,")
	want := []string{"primary", "work@example.com"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("ParseCalendarIDs = %v, want %v", got, want)
	}
}
