package config

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
)

const (
	defaultStaleMinutes    = 30
	defaultFetchConcurrent = 10
	defaultHTTPTimeoutSec  = 20
	defaultRefreshMinutes  = 30
	defaultMaxEntries      = 500
)

const (
	defaultUserAgent  = "sharedfeed/0.1"
	defaultLogLevel   = "info"
	configFolderName  = "sharedfeed"
	configFileName    = "config.toml"
	configPathEnvName = "XDG_CONFIG_HOME"
	envPrefix         = "SHAREDFEED_"
)

type Config struct {
	DBPath            string
	UserEmail         string
	StaleAfter        time.Duration
	FetchConcurrency  int
	RetentionDays     int
	MaxEntriesPerFeed int
	HTTPTimeout       time.Duration
	UserAgent         string
	LogLevel          string
	RefreshInterval   time.Duration
}

// RetentionCutoff is the publication time before which entries are pruned,
// or the zero time when age-based retention is off.
func (c Config) RetentionCutoff(now time.Time) time.Time {
	if c.RetentionDays <= 0 {
		return time.Time{}
	}
	return now.AddDate(0, 0, -c.RetentionDays)
}

func LoadConfig() (Config, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return Config{}, err
	}
	defaultDB := filepath.Join(home, ".local", "share", "sharedfeed", "sharedfeed.db")

	cfg := Config{
		DBPath:            defaultDB,
		StaleAfter:        defaultStaleMinutes * time.Minute,
		FetchConcurrency:  defaultFetchConcurrent,
		RetentionDays:     0,
		MaxEntriesPerFeed: defaultMaxEntries,
		HTTPTimeout:       defaultHTTPTimeoutSec * time.Second,
		UserAgent:         defaultUserAgent,
		LogLevel:          defaultLogLevel,
		RefreshInterval:   defaultRefreshMinutes * time.Minute,
	}

	configPath, hasConfig, err := findConfigPath(home)
	if err != nil {
		return Config{}, err
	}
	if hasConfig {
		fileCfg, err := loadFileConfig(configPath)
		if err != nil {
			return Config{}, err
		}
		applyFileConfig(&cfg, fileCfg)
	}

	applyEnvOverrides(&cfg)

	if cfg.FetchConcurrency < 1 {
		cfg.FetchConcurrency = defaultFetchConcurrent
	}
	if cfg.StaleAfter <= 0 {
		cfg.StaleAfter = defaultStaleMinutes * time.Minute
	}
	if cfg.HTTPTimeout <= 0 {
		cfg.HTTPTimeout = defaultHTTPTimeoutSec * time.Second
	}
	if cfg.RefreshInterval <= 0 {
		cfg.RefreshInterval = defaultRefreshMinutes * time.Minute
	}
	return cfg, nil
}

type fileConfig struct {
	DBPath             *string `toml:"db_path"`
	UserEmail          *string `toml:"user_email"`
	StaleMinutes       *int    `toml:"stale_minutes"`
	FetchConcurrency   *int    `toml:"fetch_concurrency"`
	RetentionDays      *int    `toml:"retention_days"`
	MaxEntriesPerFeed  *int    `toml:"max_entries_per_feed"`
	HTTPTimeoutSeconds *int    `toml:"http_timeout_seconds"`
	UserAgent          *string `toml:"user_agent"`
	LogLevel           *string `toml:"log_level"`
	RefreshMinutes     *int    `toml:"refresh_minutes"`
}

func findConfigPath(home string) (string, bool, error) {
	candidates := make([]string, 0, 2)
	if xdgConfigHome := strings.TrimSpace(os.Getenv(configPathEnvName)); xdgConfigHome != "" {
		candidates = append(candidates, filepath.Join(xdgConfigHome, configFolderName, configFileName))
	}
	candidates = append(candidates, filepath.Join(home, ".config", configFolderName, configFileName))

	for _, candidate := range candidates {
		info, err := os.Stat(candidate)
		if err == nil {
			if info.IsDir() {
				return "", false, fmt.Errorf("config path %q is a directory; expected a file", candidate)
			}
			return candidate, true, nil
		}
		if os.IsNotExist(err) {
			continue
		}
		return "", false, fmt.Errorf("failed to read config path %q: %w", candidate, err)
	}
	return "", false, nil
}

func loadFileConfig(path string) (fileConfig, error) {
	var cfg fileConfig
	meta, err := toml.DecodeFile(path, &cfg)
	if err != nil {
		return fileConfig{}, fmt.Errorf("invalid config file %q: %w", path, err)
	}
	if undecoded := meta.Undecoded(); len(undecoded) > 0 {
		unknown := make([]string, 0, len(undecoded))
		for _, key := range undecoded {
			unknown = append(unknown, key.String())
		}
		sort.Strings(unknown)
		return fileConfig{}, fmt.Errorf("invalid config file %q: unknown key(s): %s", path, strings.Join(unknown, ", "))
	}
	if err := validateFileConfig(path, cfg); err != nil {
		return fileConfig{}, err
	}
	return cfg, nil
}

func validateFileConfig(path string, cfg fileConfig) error {
	if cfg.DBPath != nil && strings.TrimSpace(*cfg.DBPath) == "" {
		return fmt.Errorf("invalid config file %q: db_path must be non-empty when provided", path)
	}
	if cfg.UserEmail != nil && !strings.Contains(*cfg.UserEmail, "@") {
		return fmt.Errorf("invalid config file %q: user_email must be an email address", path)
	}
	if cfg.StaleMinutes != nil && *cfg.StaleMinutes <= 0 {
		return fmt.Errorf("invalid config file %q: stale_minutes must be > 0", path)
	}
	if cfg.FetchConcurrency != nil && *cfg.FetchConcurrency < 1 {
		return fmt.Errorf("invalid config file %q: fetch_concurrency must be >= 1", path)
	}
	if cfg.RetentionDays != nil && *cfg.RetentionDays < 0 {
		return fmt.Errorf("invalid config file %q: retention_days must be >= 0", path)
	}
	if cfg.MaxEntriesPerFeed != nil && *cfg.MaxEntriesPerFeed < 0 {
		return fmt.Errorf("invalid config file %q: max_entries_per_feed must be >= 0", path)
	}
	if cfg.HTTPTimeoutSeconds != nil && *cfg.HTTPTimeoutSeconds <= 0 {
		return fmt.Errorf("invalid config file %q: http_timeout_seconds must be > 0", path)
	}
	if cfg.UserAgent != nil && strings.TrimSpace(*cfg.UserAgent) == "" {
		return fmt.Errorf("invalid config file %q: user_agent must be non-empty when provided", path)
	}
	if cfg.LogLevel != nil && !validLogLevel(*cfg.LogLevel) {
		return fmt.Errorf("invalid config file %q: log_level must be one of debug|info|warn|error", path)
	}
	if cfg.RefreshMinutes != nil && *cfg.RefreshMinutes <= 0 {
		return fmt.Errorf("invalid config file %q: refresh_minutes must be > 0", path)
	}
	return nil
}

func validLogLevel(v string) bool {
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "debug", "info", "warn", "error":
		return true
	}
	return false
}

func applyFileConfig(cfg *Config, fileCfg fileConfig) {
	if fileCfg.DBPath != nil {
		cfg.DBPath = *fileCfg.DBPath
	}
	if fileCfg.UserEmail != nil {
		cfg.UserEmail = strings.TrimSpace(*fileCfg.UserEmail)
	}
	if fileCfg.StaleMinutes != nil {
		cfg.StaleAfter = time.Duration(*fileCfg.StaleMinutes) * time.Minute
	}
	if fileCfg.FetchConcurrency != nil {
		cfg.FetchConcurrency = *fileCfg.FetchConcurrency
	}
	if fileCfg.RetentionDays != nil {
		cfg.RetentionDays = *fileCfg.RetentionDays
	}
	if fileCfg.MaxEntriesPerFeed != nil {
		cfg.MaxEntriesPerFeed = *fileCfg.MaxEntriesPerFeed
	}
	if fileCfg.HTTPTimeoutSeconds != nil {
		cfg.HTTPTimeout = time.Duration(*fileCfg.HTTPTimeoutSeconds) * time.Second
	}
	if fileCfg.UserAgent != nil {
		cfg.UserAgent = *fileCfg.UserAgent
	}
	if fileCfg.LogLevel != nil {
		cfg.LogLevel = strings.ToLower(strings.TrimSpace(*fileCfg.LogLevel))
	}
	if fileCfg.RefreshMinutes != nil {
		cfg.RefreshInterval = time.Duration(*fileCfg.RefreshMinutes) * time.Minute
	}
}

func lookupEnv(name string) (string, bool) {
	v, ok := os.LookupEnv(envPrefix + name)
	if !ok || strings.TrimSpace(v) == "" {
		return "", false
	}
	return strings.TrimSpace(v), true
}

func applyEnvOverrides(cfg *Config) {
	if v, ok := lookupEnv("DB_PATH"); ok {
		cfg.DBPath = v
	}
	if v, ok := lookupEnv("USER_EMAIL"); ok && strings.Contains(v, "@") {
		cfg.UserEmail = v
	}
	if v, ok := lookupEnv("STALE_MINUTES"); ok {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			cfg.StaleAfter = time.Duration(n) * time.Minute
		}
	}
	if v, ok := lookupEnv("FETCH_CONCURRENCY"); ok {
		if n, err := strconv.Atoi(v); err == nil && n >= 1 {
			cfg.FetchConcurrency = n
		}
	}
	if v, ok := lookupEnv("RETENTION_DAYS"); ok {
		if n, err := strconv.Atoi(v); err == nil && n >= 0 {
			cfg.RetentionDays = n
		}
	}
	if v, ok := lookupEnv("MAX_ENTRIES_PER_FEED"); ok {
		if n, err := strconv.Atoi(v); err == nil && n >= 0 {
			cfg.MaxEntriesPerFeed = n
		}
	}
	if v, ok := lookupEnv("HTTP_TIMEOUT_SECONDS"); ok {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			cfg.HTTPTimeout = time.Duration(n) * time.Second
		}
	}
	if v, ok := lookupEnv("USER_AGENT"); ok {
		cfg.UserAgent = v
	}
	if v, ok := lookupEnv("LOG_LEVEL"); ok && validLogLevel(v) {
		cfg.LogLevel = strings.ToLower(v)
	}
	if v, ok := lookupEnv("REFRESH_MINUTES"); ok {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			cfg.RefreshInterval = time.Duration(n) * time.Minute
		}
	}
}
