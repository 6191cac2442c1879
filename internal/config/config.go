package config

import (
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"smacross/internal/strategy"
)

type Source string

const (
	SourceCSV    Source = "csv"
	SourceAlpaca Source = "alpaca"
)

const dateLayout = "2006-01-02"

type Config struct {
	Source      Source `yaml:"source"`
	CSVPath     string `yaml:"csvPath"`
	Symbol      string `yaml:"symbol"`
	FastPeriod  int    `yaml:"fastPeriod"`
	SlowPeriod  int    `yaml:"slowPeriod"`
	Feed        string `yaml:"feed"`
	Adjustment  string `yaml:"adjustment"`
	Start       string `yaml:"start"`
	End         string `yaml:"end"`
	SignalsPath string `yaml:"signalsPath"`
	LogLevel    string `yaml:"logLevel"`
	APIKey      string `yaml:"apiKey"`
	APISecret   string `yaml:"apiSecret"`
}

func defaults() Config {
	return Config{
		Source:     SourceCSV,
		FastPeriod: 20,
		SlowPeriod: 50,
		Feed:       "iex",
		Adjustment: "all",
		LogLevel:   "info",
	}
}

// Load builds the configuration from defaults, an optional YAML file, the
// environment and finally command line flags that were set explicitly.
func Load() (Config, error) {
	loadDotEnvIfPresent(".env")

	var cli Config
	var source string
	var configPath string
	flag.StringVar(&configPath, "config", "", "path to a YAML config file")
	flag.StringVar(&source, "source", string(SourceCSV), "price source: csv or alpaca")
	flag.StringVar(&cli.CSVPath, "csv", "", "path to a CSV price file")
	flag.StringVar(&cli.Symbol, "symbol", "", "symbol to analyse")
	flag.IntVar(&cli.FastPeriod, "fast", 20, "fast (short-term) SMA window")
	flag.IntVar(&cli.SlowPeriod, "slow", 50, "slow (long-term) SMA window")
	flag.StringVar(&cli.Feed, "feed", "iex", "alpaca data feed: iex or sip")
	flag.StringVar(&cli.Adjustment, "adjustment", "all", "alpaca price adjustment: raw, split, dividend or all")
	flag.StringVar(&cli.Start, "start", "", "first date to fetch (YYYY-MM-DD)")
	flag.StringVar(&cli.End, "end", "", "last date to fetch (YYYY-MM-DD)")
	flag.StringVar(&cli.SignalsPath, "signals-path", "", "append emitted signals as NDJSON to this file")
	flag.StringVar(&cli.LogLevel, "log-level", "info", "log level: debug, info, warn or error")
	flag.Parse()
	cli.Source = Source(source)

	cfg := defaults()
	if configPath != "" {
		if err := loadFile(configPath, &cfg); err != nil {
			return cfg, err
		}
	}
	applyEnv(&cfg)
	applyFlags(&cfg, cli)

	if err := validate(cfg); err != nil {
		return cfg, err
	}
	return cfg, nil
}

func loadFile(path string, cfg *Config) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config file: %w", err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("parse config file %s: %w", path, err)
	}
	return nil
}

func applyEnv(cfg *Config) {
	if v := os.Getenv("APCA_API_KEY_ID"); v != "" {
		cfg.APIKey = v
	}
	if v := os.Getenv("APCA_API_SECRET_KEY"); v != "" {
		cfg.APISecret = v
	}
	if v := os.Getenv("SMACROSS_LOG_LEVEL"); v != "" {
		cfg.LogLevel = v
	}
}

func applyFlags(cfg *Config, cli Config) {
	flag.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "source":
			cfg.Source = cli.Source
		case "csv":
			cfg.CSVPath = cli.CSVPath
		case "symbol":
			cfg.Symbol = cli.Symbol
		case "fast":
			cfg.FastPeriod = cli.FastPeriod
		case "slow":
			cfg.SlowPeriod = cli.SlowPeriod
		case "feed":
			cfg.Feed = cli.Feed
		case "adjustment":
			cfg.Adjustment = cli.Adjustment
		case "start":
			cfg.Start = cli.Start
		case "end":
			cfg.End = cli.End
		case "signals-path":
			cfg.SignalsPath = cli.SignalsPath
		case "log-level":
			cfg.LogLevel = cli.LogLevel
		}
	})
}

// StartTime and EndTime return the zero time when the bound is unset.
func (c Config) StartTime() time.Time {
	t, _ := parseDate(c.Start)
	return t
}

func (c Config) EndTime() time.Time {
	t, _ := parseDate(c.End)
	return t
}

// Warnings lists settings that are accepted but probably not intended.
func (c Config) Warnings() []string {
	var warnings []string
	if c.FastPeriod >= c.SlowPeriod {
		warnings = append(warnings, fmt.Sprintf("fast period %d is not shorter than slow period %d; signals are inverted", c.FastPeriod, c.SlowPeriod))
	}
	return warnings
}

func parseDate(value string) (time.Time, error) {
	if strings.TrimSpace(value) == "" {
		return time.Time{}, nil
	}
	return time.Parse(dateLayout, value)
}

func validate(cfg Config) error {
	if cfg.Source != SourceCSV && cfg.Source != SourceAlpaca {
		return fmt.Errorf("invalid source: %s", cfg.Source)
	}
	if err := strategy.ValidatePeriods(cfg.FastPeriod, cfg.SlowPeriod); err != nil {
		return err
	}
	if cfg.Source == SourceCSV && cfg.CSVPath == "" {
		return fmt.Errorf("csv path is required for the csv source")
	}
	if cfg.Source == SourceAlpaca {
		if cfg.Symbol == "" {
			return fmt.Errorf("symbol is required for the alpaca source")
		}
		if cfg.APIKey == "" || cfg.APISecret == "" {
			return fmt.Errorf("APCA_API_KEY_ID and APCA_API_SECRET_KEY are required for the alpaca source")
		}
	}
	start, err := parseDate(cfg.Start)
	if err != nil {
		return fmt.Errorf("invalid start date: %w", err)
	}
	end, err := parseDate(cfg.End)
	if err != nil {
		return fmt.Errorf("invalid end date: %w", err)
	}
	if !start.IsZero() && !end.IsZero() && end.Before(start) {
		return fmt.Errorf("end date %s is before start date %s", cfg.End, cfg.Start)
	}
	switch cfg.LogLevel {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("invalid log level: %s", cfg.LogLevel)
	}
	return nil
}
