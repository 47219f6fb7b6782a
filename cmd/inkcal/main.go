package main

import (
	"context"
	"errors"
	"io/fs"
	"os"
	"os/signal"
	"strings"
	"sync"
	"syscall"

	"github.com/alecthomas/kong"
	"github.com/joho/godotenv"

	"inkcal/internal/auth"
	"inkcal/internal/config"
	"inkcal/internal/httputil"
	appLog "inkcal/internal/log"
	"inkcal/internal/pipeline"
	"inkcal/internal/snapshot"
	"inkcal/internal/token"
	"inkcal/internal/web"
)

// cli holds command-line flags. Deployment settings can also come from the
// environment (or a .env file) and override the YAML config.
type cli struct {
	Config  string `help:"Path to config file." default:"config.yaml" type:"path"`
	EnvFile string `name:"env-file" help:"dotenv file loaded before parsing." default:".env"`
	Listen  string `help:"HTTP listen address (overrides config if set)."`
	Once    bool   `help:"Build one payload, write it and exit."`
	Dump    string `help:"With --once, write the payload to this file instead of stdout." type:"path"`
	DataDir string `name:"data-dir" help:"Directory for the token store and snapshot." env:"DATA_DIR"`

	GoogleClientID     string  `name:"google-client-id" env:"GOOGLE_CLIENT_ID" help:"Google OAuth client ID."`
	GoogleClientSecret string  `name:"google-client-secret" env:"GOOGLE_CLIENT_SECRET" help:"Google OAuth client secret."`
	GoogleRedirectURI  string  `name:"google-redirect-uri" env:"GOOGLE_REDIRECT_URI" help:"OAuth redirect URI registered with Google."`
	CalendarIDs        string  `name:"calendar-ids" env:"CALENDAR_IDS" help:"Comma-separated Google calendar IDs."`
	Timezone           string  `env:"TIMEZONE" help:"IANA display timezone."`
	APISecret          string  `name:"api-secret" env:"API_SECRET" help:"Bearer secret required on /api/events."`
	WeatherLat         float64 `name:"weather-lat" env:"WEATHER_LAT" help:"Weather latitude."`
	WeatherLon         float64 `name:"weather-lon" env:"WEATHER_LON" help:"Weather longitude."`
}

func main() {
	// .env must be in the environment before kong reads env tags.
	loadDotenv(envFileArg(os.Args[1:]))

	var flags cli
	kong.Parse(&flags,
		kong.Name("inkcal"),
		kong.Description("Calendar and weather payload server for e-ink displays."),
		kong.UsageOnError(),
	)

	if err := run(flags); err != nil {
		appLog.Error("inkcal failed", err)
		os.Exit(1)
	}
}

func run(flags cli) error {
	conf, err := config.Load(flags.Config)
	if err != nil {
		return err
	}
	applyOverrides(conf, flags)

	appLog.SetLevel(appLog.ParseLevel(conf.Log.Level))
	appLog.SetFormat(conf.Log.Format)

	appLog.Info("effective config",
		"listen", conf.Listen,
		"timezone", conf.Timezone,
		"google_calendars", len(conf.Calendars.Google),
		"ics_count", len(conf.Calendars.ICS),
		"weather", conf.Weather.Enabled(),
		"token_store", conf.TokenStore.Driver,
		"api_protected", conf.APISecret != "",
		"once", flags.Once,
	)

	store, closeStore, err := openTokenStore(conf.TokenStore)
	if err != nil {
		return err
	}
	defer closeStore()

	client := httputil.NewClient()
	provider := auth.NewProvider(conf.Google, store, client)

	builder, err := pipeline.NewFromConfig(conf, provider, client)
	if err != nil {
		return err
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if flags.Once {
		if flags.Dump != "" {
			return snapshot.WriteFile(ctx, builder, flags.Dump)
		}
		return snapshot.WriteTo(ctx, builder, os.Stdout)
	}

	var wg sync.WaitGroup
	if conf.Snapshot.Refresh != "" {
		sched, err := snapshot.NewScheduler(conf.Snapshot.Refresh, builder, conf.Snapshot.Path)
		if err != nil {
			return err
		}
		wg.Go(func() { sched.Run(ctx) })
	}

	srv := web.NewServer(conf, builder, provider)
	err = srv.Run(ctx)

	cancel()
	wg.Wait()
	appLog.Info("inkcal exiting")
	return err
}

// applyOverrides layers CLI and environment values on top of the YAML
// config. Empty values leave the file's settings untouched.
func applyOverrides(conf *config.Config, flags cli) {
	if flags.Listen != "" {
		conf.Listen = flags.Listen
	}
	if flags.GoogleClientID != "" {
		conf.Google.ClientID = flags.GoogleClientID
	}
	if flags.GoogleClientSecret != "" {
		conf.Google.ClientSecret = flags.GoogleClientSecret
	}
	if flags.GoogleRedirectURI != "" {
		conf.Google.RedirectURI = flags.GoogleRedirectURI
	}
	if flags.CalendarIDs != "" {
		conf.Calendars.Google = config.ParseCalendarIDs(flags.CalendarIDs)
	}
	if flags.Timezone != "" {
		conf.Timezone = flags.Timezone
	}
	if flags.APISecret != "" {
		conf.APISecret = flags.APISecret
	}
	if flags.WeatherLat != 0 || flags.WeatherLon != 0 {
		conf.Weather.Latitude = flags.WeatherLat
		conf.Weather.Longitude = flags.WeatherLon
	}
	conf.Normalize()
	conf.SetDataDir(flags.DataDir)
}

func openTokenStore(c config.TokenStoreConfig) (token.Store, func(), error) {
	if c.Driver == "sqlite" {
		s, err := token.OpenSQLite(c.Path)
		if err != nil {
			return nil, nil, err
		}
		return s, func() {
			if err := s.Close(); err != nil {
				appLog.Error("close token store", err)
			}
		}, nil
	}
	return token.NewFileStore(c.Path), func() {}, nil
}

func loadDotenv(path string) {
	if path == "" {
		return
	}
	if err := godotenv.Load(path); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return
		}
		appLog.Error("failed to load env file", err, "path", path)
		return
	}
	appLog.Debug("env file loaded", "path", path)
}

// envFileArg finds --env-file ahead of the real parse, falling back to the
// flag's default.
func envFileArg(args []string) string {
	for i, a := range args {
		if v, ok := strings.CutPrefix(a, "--env-file="); ok {
			return v
		}
		if a == "--env-file" && i+1 < len(args) {
			return args[i+1]
		}
	}
	return ".env"
}
