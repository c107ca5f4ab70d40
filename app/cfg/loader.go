package cfg

import (
	"cmp"
	"fmt"
	"time"

	"github.com/jessevdk/go-flags"
)

// Version is set at build time via -ldflags
var Version = "dev"

func GetVersion() string {
	return cmp.Or(Version, "unknown")
}

type rawCfg struct {
	// Database configuration
	DBHost     string `long:"db-host" env:"DB_HOST" default:"localhost" description:"Database host"`
	DBPort     string `long:"db-port" env:"DB_PORT" default:"5432" description:"Database port"`
	DBUser     string `long:"db-user" env:"DB_USER" default:"feedpub_user" description:"Database user"`
	DBPassword string `long:"db-password" env:"DB_PASSWORD" default:"feedpub_password" description:"Database password (required)" required:"true"`
	DBName     string `long:"db-name" env:"DB_NAME" default:"feedpub" description:"Database name"`

	// Application configuration
	DestinationsDir string `long:"destinations-dir" env:"DESTINATIONS_DIR" default:"./destinations" description:"Directory containing destination configuration files"`
	Port            string `long:"port" env:"PORT" default:"8080" description:"HTTP server port"`
	BaseUrl         string `long:"base-url" env:"BASE_URL" description:"Public base URL for the service (e.g., https://feedpub.example.com)"`
	WorkerCount     int    `long:"worker-count" env:"WORKER_COUNT" default:"8" description:"Maximum number of feed items processed concurrently per run"`
	APIAccessKey    string `long:"api-key" env:"API_ACCESS_KEY" description:"API access key for authentication (optional)"`

	// AI rewriting configuration
	AIEndpoint    string  `long:"ai-endpoint" env:"AI_ENDPOINT" default:"https://api.openai.com/v1/chat/completions" description:"Chat completions endpoint for article rewriting"`
	AIAccessKey   string  `long:"ai-access-key" env:"AI_ACCESS_KEY" description:"API key for the AI rewriting service"`
	AIModel       string  `long:"ai-model" env:"AI_MODEL" default:"gpt-4o-mini" description:"Model used for rewrite and humanize passes"`
	AIMaxTokens   int     `long:"ai-max-tokens" env:"AI_MAX_TOKENS" default:"4000" description:"Maximum tokens per AI completion"`
	AITemperature float64 `long:"ai-temperature" env:"AI_TEMPERATURE" default:"0.7" description:"Sampling temperature for AI completions"`

	// Application metadata
	UserAgent string `long:"user-agent" env:"USER_AGENT" default:"Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36" description:"User agent string for article fetching"`
	Timezone  string `long:"timezone" env:"TZ" default:"UTC" description:"Timezone for timestamps (e.g., UTC, America/New_York)"`
	Debug     bool   `long:"debug" env:"DEBUG" description:"Enable debug logging"`
}

var globalCfg *Cfg

func Load() (*Cfg, error) {
	var raw rawCfg

	parser := flags.NewParser(&raw, flags.Default)

	if _, err := parser.Parse(); err != nil {
		if flagsErr, ok := err.(*flags.Error); ok {
			if flagsErr.Type == flags.ErrHelp {
				return nil, nil
			}
		}
		return nil, fmt.Errorf("failed to parse configuration: %w", err)
	}

	cfg := &Cfg{
		DBHost:          raw.DBHost,
		DBPort:          raw.DBPort,
		DBUser:          raw.DBUser,
		DBPassword:      raw.DBPassword,
		DBName:          raw.DBName,
		DestinationsDir: raw.DestinationsDir,
		Port:            raw.Port,
		BaseUrl:         raw.BaseUrl,
		WorkerCount:     raw.WorkerCount,
		APIAccessKey:    raw.APIAccessKey,
		AIEndpoint:      raw.AIEndpoint,
		AIAccessKey:     raw.AIAccessKey,
		AIModel:         raw.AIModel,
		AIMaxTokens:     raw.AIMaxTokens,
		AITemperature:   raw.AITemperature,
		UserAgent:       raw.UserAgent,
		Timezone:        raw.Timezone,
		Debug:           raw.Debug,
		Version:         GetVersion(),
	}

	if err := applyTimezone(cfg.Timezone); err != nil {
		fmt.Printf("Warning: Invalid timezone '%s', using system default: %v\n", cfg.Timezone, err)
	}

	globalCfg = cfg

	return cfg, nil
}

func Get() *Cfg {
	if globalCfg == nil {
		panic("configuration not loaded - call cfg.Load() first")
	}
	return globalCfg
}

func applyTimezone(timezone string) error {
	if timezone != "" {
		if loc, err := time.LoadLocation(timezone); err != nil {
			return err
		} else {
			time.Local = loc
			fmt.Printf("Timezone configured: %s\n", timezone)
		}
	}
	return nil
}
