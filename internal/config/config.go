package config

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"inkcal/internal/fsutil"
)

// Google endpoints used when the config leaves them empty.
const (
	DefaultGoogleAuthURL     = "https://accounts.google.com/o/oauth2/v2/auth"
	DefaultGoogleTokenURL    = "https://oauth2.googleapis.com/token"
	DefaultGoogleCalendarAPI = "https://www.googleapis.com/calendar/v3"
	DefaultRedirectURI       = "http://localhost:8000/oauth/callback"

	DefaultForecastURL   = "https://api.open-meteo.com/v1/forecast"
	DefaultAirQualityURL = "https://air-quality-api.open-meteo.com/v1/air-quality"
)

// ICSConfig describes a single ICS subscription source.
type ICSConfig struct {
	// URL is the ICS subscription endpoint.
	URL string `yaml:"url" json:"url"`
	// ID is reported as calendar_id on every event from this feed.
	ID string `yaml:"id" json:"id"`
	// Name is a human-friendly label shown on the setup page.
	Name string `yaml:"name" json:"name"`
}

// CalendarsConfig lists every calendar feeding the payload.
type CalendarsConfig struct {
	// Google holds Google Calendar IDs ("primary", "team@group.calendar.google.com").
	Google []string `yaml:"google" json:"google"`
	// ICS holds plain ICS subscriptions.
	ICS []ICSConfig `yaml:"ics" json:"ics"`
}

// GoogleConfig holds OAuth client settings and API endpoints.
type GoogleConfig struct {
	ClientID     string `yaml:"client_id" json:"client_id"`
	ClientSecret string `yaml:"client_secret" json:"-"`
	RedirectURI  string `yaml:"redirect_uri" json:"redirect_uri"`
	AuthURL      string `yaml:"auth_url" json:"auth_url"`
	TokenURL     string `yaml:"token_url" json:"token_url"`
	CalendarAPI  string `yaml:"calendar_api" json:"calendar_api"`
}

// WeatherConfig controls the Open-Meteo integration. Weather is disabled
// when both coordinates are zero.
type WeatherConfig struct {
	Latitude        float64 `yaml:"latitude" json:"latitude"`
	Longitude       float64 `yaml:"longitude" json:"longitude"`
	TemperatureUnit string  `yaml:"temperature_unit" json:"temperature_unit"`
	WindSpeedUnit   string  `yaml:"wind_speed_unit" json:"wind_speed_unit"`
	ForecastURL     string  `yaml:"forecast_url" json:"forecast_url"`
	AirQualityURL   string  `yaml:"air_quality_url" json:"air_quality_url"`
}

// Enabled reports whether coordinates were configured.
func (w WeatherConfig) Enabled() bool {
	return w.Latitude != 0 || w.Longitude != 0
}

// TokenStoreConfig selects where the Google refresh token lives.
type TokenStoreConfig struct {
	// Driver is "file" (default) or "sqlite".
	Driver string `yaml:"driver" json:"driver"`
	// Path is the JSON file or sqlite database path.
	Path string `yaml:"path" json:"path"`
}

// SnapshotConfig enables periodic payload dumps to disk.
type SnapshotConfig struct {
	// Refresh is a cron-style schedule (e.g. "*/15 * * * *"). Empty disables.
	Refresh string `yaml:"refresh" json:"refresh"`
	// Path is where the payload JSON is written.
	Path string `yaml:"path" json:"path"`
}

// LogConfig controls log verbosity and format.
type LogConfig struct {
	Level  string `yaml:"level" json:"level"`
	Format string `yaml:"format" json:"format"`
}

// BasicAuthConfig holds HTTP Basic Auth credentials for the setup pages.
type BasicAuthConfig struct {
	Username string `yaml:"username" json:"username"`
	Password string `yaml:"password" json:"password"`
}

// Config is the top-level application configuration.
type Config struct {
	// Listen is the HTTP listen address for the setup pages and API.
	Listen string `yaml:"listen" json:"listen"`

	// Timezone is the IANA timezone every date and time is rendered in.
	Timezone string `yaml:"timezone" json:"timezone"`

	Calendars CalendarsConfig `yaml:"calendars" json:"calendars"`
	Google    GoogleConfig    `yaml:"google" json:"google"`
	Weather   WeatherConfig   `yaml:"weather" json:"weather"`

	// APISecret, if set, must be presented as "Authorization: Bearer <secret>"
	// on /api/events.
	APISecret string `yaml:"api_secret" json:"-"`

	TokenStore TokenStoreConfig `yaml:"token_store" json:"token_store"`
	Snapshot   SnapshotConfig   `yaml:"snapshot" json:"snapshot"`
	Log        LogConfig        `yaml:"log" json:"log"`

	// BasicAuth, if non-nil, protects the setup and OAuth pages.
	BasicAuth *BasicAuthConfig `yaml:"basic_auth,omitempty" json:"basic_auth,omitempty"`
}

// DefaultConfig returns an in-memory default configuration.
func DefaultConfig() *Config {
	cfg := &Config{
		Listen:   "0.0.0.0:8000",
		Timezone: "UTC",
	}
	cfg.Normalize()
	return cfg
}

// Normalize fills in missing/zero values with sensible defaults so that
// partially-filled configs still behave correctly.
func (c *Config) Normalize() {
	if c.Listen == "" {
		c.Listen = "0.0.0.0:8000"
	}
	if c.Timezone == "" {
		c.Timezone = "UTC"
	}

	if c.Calendars.Google == nil && len(c.Calendars.ICS) == 0 {
		c.Calendars.Google = []string{"primary"}
	}
	c.Calendars.Google = cleanIDs(c.Calendars.Google)
	if c.Calendars.ICS == nil {
		c.Calendars.ICS = []ICSConfig{}
	}
	for i := range c.Calendars.ICS {
		ics := &c.Calendars.ICS[i]
		if ics.ID == "" {
			if ics.Name != "" {
				ics.ID = ics.Name
			} else {
				ics.ID = ics.URL
			}
		}
	}

	if c.Google.RedirectURI == "" {
		c.Google.RedirectURI = DefaultRedirectURI
	}
	if c.Google.AuthURL == "" {
		c.Google.AuthURL = DefaultGoogleAuthURL
	}
	if c.Google.TokenURL == "" {
		c.Google.TokenURL = DefaultGoogleTokenURL
	}
	if c.Google.CalendarAPI == "" {
		c.Google.CalendarAPI = DefaultGoogleCalendarAPI
	}

	switch c.Weather.TemperatureUnit {
	case "celsius", "fahrenheit":
	default:
		c.Weather.TemperatureUnit = "fahrenheit"
	}
	switch c.Weather.WindSpeedUnit {
	case "kmh", "ms", "mph", "kn":
	default:
		c.Weather.WindSpeedUnit = "mph"
	}
	if c.Weather.ForecastURL == "" {
		c.Weather.ForecastURL = DefaultForecastURL
	}
	if c.Weather.AirQualityURL == "" {
		c.Weather.AirQualityURL = DefaultAirQualityURL
	}

	switch c.TokenStore.Driver {
	case "file", "sqlite":
	default:
		c.TokenStore.Driver = "file"
	}
	if c.TokenStore.Path == "" {
		if c.TokenStore.Driver == "sqlite" {
			c.TokenStore.Path = filepath.Join("data", "inkcal.db")
		} else {
			c.TokenStore.Path = filepath.Join("data", "google_token.json")
		}
	}

	if c.Snapshot.Refresh != "" && c.Snapshot.Path == "" {
		c.Snapshot.Path = filepath.Join("data", "payload.json")
	}

	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
	if c.Log.Format == "" {
		c.Log.Format = "text"
	}
}

// SetDataDir relocates default data files under dir. Paths the user set
// explicitly to something outside "data/" are left alone.
func (c *Config) SetDataDir(dir string) {
	if dir == "" {
		return
	}
	rebase := func(p string) string {
		if rel, ok := strings.CutPrefix(p, "data"+string(filepath.Separator)); ok {
			return filepath.Join(dir, rel)
		}
		return p
	}
	c.TokenStore.Path = rebase(c.TokenStore.Path)
	c.Snapshot.Path = rebase(c.Snapshot.Path)
}

// ParseCalendarIDs splits a comma-separated CALENDAR_IDS value.
func ParseCalendarIDs(s string) []string {
	return cleanIDs(strings.Split(s, ","))
}

func cleanIDs(ids []string) []string {
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		id = strings.TrimSpace(id)
		if id != "" {
			out = append(out, id)
		}
	}
	return out
}

// Load loads configuration from the given YAML path.
//
// Behavior:
//   - If the file does not exist, a default config is written with 0600
//     perms and returned.
//   - Otherwise the YAML is unmarshalled and normalized.
func Load(path string) (*Config, error) {
	if path == "" {
		return nil, errors.New("config path is empty")
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			cfg := DefaultConfig()
			if err := Save(path, cfg); err != nil {
				// Even if save fails, return cfg with error so caller can decide.
				return cfg, err
			}
			return cfg, nil
		}
		return nil, err
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}
	cfg.Normalize()

	return &cfg, nil
}

// Save normalizes cfg and writes it atomically as YAML with 0600 perms.
func Save(path string, cfg *Config) error {
	if path == "" {
		return errors.New("config path is empty")
	}
	if cfg == nil {
		return errors.New("config is nil")
	}

	cfg.Normalize()

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	return fsutil.WriteFileAtomic(path, data, 0o600)
}

// Save is a convenience method on Config that delegates to the package-level
// Save function.
func (c *Config) Save(path string) error {
	return Save(path, c)
}
