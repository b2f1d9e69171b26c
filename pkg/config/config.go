// Package config loads namelex settings from an optional YAML file and
// NAMELEX_* environment variables.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
	"go.uber.org/zap/zapcore"

	"github.com/japaniel/namelex/pkg/emit"
)

// Config is the full set of namelex settings.
type Config struct {
	Dataset DatasetConfig `yaml:"dataset"`
	Build   BuildConfig   `yaml:"build"`
	Log     LogConfig     `yaml:"log"`
	Metrics MetricsConfig `yaml:"metrics"`
}

// DatasetConfig locates the name dataset and controls how it is loaded and
// imported.
type DatasetConfig struct {
	Path             string        `yaml:"path"               env:"NAMELEX_DB"                 env-default:"names.db"`
	LoadTimeout      time.Duration `yaml:"load_timeout"       env:"NAMELEX_LOAD_TIMEOUT"       env-default:"2m"`
	MaxResidentBytes int64         `yaml:"max_resident_bytes" env:"NAMELEX_MAX_RESIDENT_BYTES" env-default:"0"`
	SourceDir        string        `yaml:"source_dir"         env:"NAMELEX_SOURCE_DIR"         env-default:"data"`
	SourceURL        string        `yaml:"source_url"         env:"NAMELEX_SOURCE_URL"`
	ImportWorkers    int           `yaml:"import_workers"     env:"NAMELEX_IMPORT_WORKERS"     env-default:"4"`
	ImportBatchSize  int           `yaml:"import_batch_size"  env:"NAMELEX_IMPORT_BATCH_SIZE"  env-default:"64"`
	MaxPerCountry    int           `yaml:"max_per_country"    env:"NAMELEX_MAX_PER_COUNTRY"    env-default:"5000"`
}

// BuildConfig controls lexicon extraction and emission.
type BuildConfig struct {
	TopN      int      `yaml:"top_n"      env:"NAMELEX_TOP_N"      env-default:"500"`
	OutputDir string   `yaml:"output_dir" env:"NAMELEX_OUTPUT"     env-default:"output"`
	Countries []string `yaml:"countries"  env:"NAMELEX_COUNTRIES"  env-separator:","`
	BaseName  string   `yaml:"base_name"  env:"NAMELEX_BASE_NAME"  env-default:"names-lexicon"`
	Formats   []string `yaml:"formats"    env:"NAMELEX_FORMATS"    env-separator:","`
	Parallel  bool     `yaml:"parallel"   env:"NAMELEX_PARALLEL"   env-default:"true"`
	Report    bool     `yaml:"report"     env:"NAMELEX_REPORT"     env-default:"true"`
}

type LogConfig struct {
	Level  string `yaml:"level"  env:"NAMELEX_LOG_LEVEL"  env-default:"info"`
	Format string `yaml:"format" env:"NAMELEX_LOG_FORMAT" env-default:"console"`
}

type MetricsConfig struct {
	// Textfile, when set, receives run metrics in Prometheus text format.
	Textfile string `yaml:"textfile" env:"NAMELEX_METRICS_TEXTFILE"`
}

// Load reads configuration. Priority: ENV > YAML > defaults. With an empty
// path only the environment and defaults are used; a path that does not exist
// is an error. The result is not validated so callers can apply flag
// overrides first.
func Load(path string) (*Config, error) {
	var cfg Config

	if path != "" {
		if _, err := os.Stat(path); err != nil {
			return nil, fmt.Errorf("config: file %s: %w", path, err)
		}
		if err := cleanenv.ReadConfig(path, &cfg); err != nil {
			return nil, fmt.Errorf("config: read %s: %w", path, err)
		}
		return &cfg, nil
	}

	if err := cleanenv.ReadEnv(&cfg); err != nil {
		return nil, fmt.Errorf("config: read env: %w", err)
	}
	return &cfg, nil
}

// Validate checks the configuration and normalizes country codes to unique
// upper-case values, keeping their first-seen order.
func (c *Config) Validate() error {
	var errs []error

	if strings.TrimSpace(c.Dataset.Path) == "" {
		errs = append(errs, errors.New("dataset.path is required"))
	}
	if c.Dataset.LoadTimeout < 0 {
		errs = append(errs, errors.New("dataset.load_timeout must not be negative"))
	}
	if c.Dataset.MaxResidentBytes < 0 {
		errs = append(errs, errors.New("dataset.max_resident_bytes must not be negative"))
	}
	if c.Dataset.ImportWorkers < 1 {
		errs = append(errs, errors.New("dataset.import_workers must be at least 1"))
	}
	if c.Dataset.ImportBatchSize < 1 {
		errs = append(errs, errors.New("dataset.import_batch_size must be at least 1"))
	}
	if c.Dataset.MaxPerCountry < 0 {
		errs = append(errs, errors.New("dataset.max_per_country must not be negative"))
	}

	if c.Build.TopN < 0 {
		errs = append(errs, fmt.Errorf("build.top_n must not be negative, got %d", c.Build.TopN))
	}
	if strings.TrimSpace(c.Build.OutputDir) == "" {
		errs = append(errs, errors.New("build.output_dir is required"))
	}
	if b := c.Build.BaseName; strings.TrimSpace(b) == "" || b != filepath.Base(b) {
		errs = append(errs, fmt.Errorf("build.base_name %q must be a plain file name", b))
	}
	if _, err := c.OutputFormats(); err != nil {
		errs = append(errs, fmt.Errorf("build.formats: %w", err))
	}
	var countries []string
	seen := make(map[string]bool, len(c.Build.Countries))
	for _, code := range c.Build.Countries {
		code = strings.ToUpper(strings.TrimSpace(code))
		if code == "" || seen[code] {
			continue
		}
		seen[code] = true
		countries = append(countries, code)
	}
	c.Build.Countries = countries

	if _, err := zapcore.ParseLevel(c.Log.Level); err != nil {
		errs = append(errs, fmt.Errorf("log.level: %w", err))
	}
	switch c.Log.Format {
	case "json", "console":
	default:
		errs = append(errs, fmt.Errorf("log.format must be json or console, got %q", c.Log.Format))
	}

	return errors.Join(errs...)
}

// OutputFormats returns the configured artifact formats; none means all.
func (c *Config) OutputFormats() ([]emit.Format, error) {
	return emit.ParseFormats(strings.Join(c.Build.Formats, ","))
}
