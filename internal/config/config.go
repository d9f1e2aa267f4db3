package config

import (
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/pelletier/go-toml/v2"
)

//go:embed sample_config.toml
var sampleConfig string

// Paths contains directory and database location configuration.
type Paths struct {
	DatabasePath string `toml:"db_path"`
	LogDir       string `toml:"log_dir"`
	ExportDir    string `toml:"export_dir"`
}

// HLTB contains configuration for the HowLongToBeat candidate source.
type HLTB struct {
	BaseURL         string  `toml:"base_url"`
	UserAgent       string  `toml:"user_agent"`
	RateLimitPerSec float64 `toml:"rate_limit_per_sec"`
	MaxRetries      int     `toml:"max_retries"`
	BackoffMinSec   int     `toml:"backoff_min_seconds"`
	BackoffMaxSec   int     `toml:"backoff_max_seconds"`
	RequestTimeout  int     `toml:"request_timeout"`
}

// Match contains thresholds for the matching decision policy.
type Match struct {
	AutoAccept             float64 `toml:"auto_accept"`
	ReviewFloor            float64 `toml:"review_floor"`
	MinMargin              float64 `toml:"min_margin"`
	YearTolerance          int     `toml:"year_tolerance"`
	RequirePlatformOverlap bool    `toml:"require_platform_overlap"`
	Rematch                bool    `toml:"rematch"`
}

// Pipeline contains run coordinator tuning.
type Pipeline struct {
	FetchWorkers int `toml:"fetch_workers"`
}

// Export contains configuration for catalog exports.
type Export struct {
	Formats []string `toml:"formats"`
}

// Logging contains configuration for log output.
type Logging struct {
	Format string `toml:"format"`
	Level  string `toml:"level"`
}

// Config encapsulates all configuration values for backlog.
type Config struct {
	Paths    Paths    `toml:"paths"`
	HLTB     HLTB     `toml:"hltb"`
	Match    Match    `toml:"match"`
	Pipeline Pipeline `toml:"pipeline"`
	Export   Export   `toml:"export"`
	Logging  Logging  `toml:"logging"`
}

// DefaultConfigPath returns the absolute path of the default
// configuration file location.
func DefaultConfigPath() (string, error) {
	return expandPath("~/.config/backlog/config.toml")
}

// SampleConfig returns the embedded annotated sample configuration.
func SampleConfig() string {
	return sampleConfig
}

// CreateSample writes the annotated sample configuration to path.
func CreateSample(path string) error {
	return os.WriteFile(path, []byte(sampleConfig), 0o644)
}

// ExpandPath resolves a leading ~ and returns an absolute path.
func ExpandPath(path string) (string, error) {
	return expandPath(path)
}

// Load locates, parses, and validates a configuration file. The
// returned config has all path fields expanded and normalized. The
// bool reports whether a config file was found on disk.
func Load(path string) (*Config, string, bool, error) {
	cfg := Default()

	resolvedPath, exists, err := resolveConfigPath(path)
	if err != nil {
		return nil, "", false, err
	}

	if exists {
		file, err := os.Open(resolvedPath)
		if err != nil {
			return nil, "", false, fmt.Errorf("open config: %w", err)
		}
		defer file.Close()

		decoder := toml.NewDecoder(file)
		if err := decoder.Decode(&cfg); err != nil {
			return nil, "", false, fmt.Errorf("parse config: %w", err)
		}
	}

	if err := cfg.normalize(); err != nil {
		return nil, "", false, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, "", false, err
	}

	return &cfg, resolvedPath, exists, nil
}

func resolveConfigPath(path string) (string, bool, error) {
	if path != "" {
		expanded, err := expandPath(path)
		if err != nil {
			return "", false, err
		}
		if _, err := os.Stat(expanded); err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return expanded, false, nil
			}
			return "", false, fmt.Errorf("stat config: %w", err)
		}
		return expanded, true, nil
	}

	defaultPath, err := DefaultConfigPath()
	if err != nil {
		return "", false, err
	}
	projectPath, err := filepath.Abs("backlog.toml")
	if err != nil {
		return "", false, err
	}

	if info, err := os.Stat(defaultPath); err == nil && !info.IsDir() {
		return defaultPath, true, nil
	}
	if info, err := os.Stat(projectPath); err == nil && !info.IsDir() {
		return projectPath, true, nil
	}
	return defaultPath, false, nil
}

func (c *Config) normalize() error {
	var err error
	if c.Paths.DatabasePath, err = expandPath(c.Paths.DatabasePath); err != nil {
		return fmt.Errorf("paths.db_path: %w", err)
	}
	if c.Paths.LogDir, err = expandPath(c.Paths.LogDir); err != nil {
		return fmt.Errorf("paths.log_dir: %w", err)
	}
	if c.Paths.ExportDir, err = expandPath(c.Paths.ExportDir); err != nil {
		return fmt.Errorf("paths.export_dir: %w", err)
	}

	c.HLTB.BaseURL = strings.TrimSpace(c.HLTB.BaseURL)
	if c.HLTB.BaseURL == "" {
		c.HLTB.BaseURL = defaultHLTBBaseURL
	}
	c.HLTB.UserAgent = strings.TrimSpace(c.HLTB.UserAgent)
	if c.HLTB.UserAgent == "" {
		c.HLTB.UserAgent = defaultHLTBUserAgent
	}

	if len(c.Export.Formats) == 0 {
		c.Export.Formats = []string{"csv"}
	}
	for i, format := range c.Export.Formats {
		c.Export.Formats[i] = strings.ToLower(strings.TrimSpace(format))
	}

	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	if c.Logging.Format == "" {
		c.Logging.Format = defaultLogFormat
	}
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	if c.Logging.Level == "" {
		c.Logging.Level = defaultLogLevel
	}
	return nil
}

// EnsureDirectories creates the directories a pipeline run requires.
func (c *Config) EnsureDirectories() error {
	dirs := []string{filepath.Dir(c.Paths.DatabasePath), c.Paths.LogDir, c.Paths.ExportDir}
	for _, dir := range dirs {
		if strings.TrimSpace(dir) == "" {
			continue
		}
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create directory %q: %w", dir, err)
		}
	}
	return nil
}

func expandPath(pathValue string) (string, error) {
	if pathValue == "" {
		return pathValue, nil
	}
	if strings.HasPrefix(pathValue, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home directory: %w", err)
		}
		if pathValue == "~" {
			pathValue = home
		} else if len(pathValue) > 1 && (pathValue[1] == '/' || pathValue[1] == '\\') {
			pathValue = filepath.Join(home, pathValue[2:])
		}
	}
	cleaned := filepath.Clean(pathValue)
	absolute, err := filepath.Abs(cleaned)
	if err != nil {
		return "", fmt.Errorf("resolve absolute path for %q: %w", cleaned, err)
	}
	return absolute, nil
}
