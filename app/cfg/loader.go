package cfg

import (
	"cmp"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/jessevdk/go-flags"
	"github.com/joho/godotenv"
)

// Version is set at build time via -ldflags
var Version = "dev"

func GetVersion() string {
	return cmp.Or(Version, "unknown")
}

type rawCfg struct {
	ConfigPath string `long:"config" env:"CONFIG" default:"./feeds/itch-charity.yml" description:"YAML file with sources, keyword sets and feed metadata"`

	FeedPath     string `long:"feed-path" env:"FEED_PATH" default:"feed.xml" description:"Path of the generated RSS document"`
	StateBackend string `long:"state-backend" env:"STATE_BACKEND" default:"file" choice:"file" choice:"sqlite" choice:"redis" description:"Where the seen set is persisted"`
	StatePath    string `long:"state-path" env:"STATE_PATH" default:".seen.json" description:"Seen set file (file backend)"`
	DBPath       string `long:"db-path" env:"DB_PATH" default:"seen.db" description:"SQLite database path (sqlite backend)"`
	RedisAddr    string `long:"redis-addr" env:"REDIS_ADDR" default:"localhost:6379" description:"Redis address (redis backend)"`
	RedisKey     string `long:"redis-key" env:"REDIS_KEY" default:"charity-comb:seen" description:"Redis set key (redis backend)"`

	Timeout      int    `long:"timeout" env:"TIMEOUT" default:"30" description:"Per-request timeout in seconds"`
	RequestDelay int    `long:"request-delay" env:"REQUEST_DELAY" default:"1000" description:"Delay between consecutive requests in milliseconds"`
	UserAgent    string `long:"user-agent" env:"USER_AGENT" default:"Charity Comb/1.0" description:"User agent string for HTTP requests"`

	Schedule     string `long:"schedule" env:"SCHEDULE" description:"Cron spec; when set the process keeps running and rebuilds the feed on schedule"`
	Port         string `long:"port" env:"PORT" default:"8080" description:"HTTP server port (daemon mode)"`
	APIAccessKey string `long:"api-key" env:"API_ACCESS_KEY" description:"API access key for authentication (optional)"`

	Timezone string `long:"timezone" env:"TZ" default:"UTC" description:"Timezone for timestamps (e.g., UTC, America/New_York)"`
	Debug    bool   `long:"debug" env:"DEBUG" description:"Enable debug logging"`
	LogFile  string `long:"log-file" env:"LOG_FILE" description:"Also write logs to this file, rotated"`
}

var globalCfg *Cfg

// Load reads .env (if present), then command-line flags and environment
// variables. It returns nil, nil when help was requested.
func Load() (*Cfg, error) {
	return LoadArgs(os.Args[1:])
}

func LoadArgs(args []string) (*Cfg, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		fmt.Printf("Warning: failed to load .env file: %v\n", err)
	}

	var raw rawCfg

	parser := flags.NewParser(&raw, flags.Default)

	if _, err := parser.ParseArgs(args); err != nil {
		if flagsErr, ok := err.(*flags.Error); ok {
			if flagsErr.Type == flags.ErrHelp {
				return nil, nil
			}
		}
		return nil, fmt.Errorf("failed to parse configuration: %w", err)
	}

	cfg := &Cfg{
		ConfigPath:   raw.ConfigPath,
		FeedPath:     raw.FeedPath,
		StateBackend: raw.StateBackend,
		StatePath:    raw.StatePath,
		DBPath:       raw.DBPath,
		RedisAddr:    raw.RedisAddr,
		RedisKey:     raw.RedisKey,
		Timeout:      raw.Timeout,
		RequestDelay: raw.RequestDelay,
		UserAgent:    raw.UserAgent,
		Schedule:     raw.Schedule,
		Port:         raw.Port,
		APIAccessKey: raw.APIAccessKey,
		Timezone:     raw.Timezone,
		Debug:        raw.Debug,
		LogFile:      raw.LogFile,
		Version:      GetVersion(),
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
		}
	}
	return nil
}
