package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/japaniel/namelex/pkg/emit"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)
	require.NoError(t, cfg.Validate())

	assert.Equal(t, "names.db", cfg.Dataset.Path)
	assert.Equal(t, 2*time.Minute, cfg.Dataset.LoadTimeout)
	assert.Equal(t, 500, cfg.Build.TopN)
	assert.Equal(t, "output", cfg.Build.OutputDir)
	assert.Equal(t, "names-lexicon", cfg.Build.BaseName)
	assert.Empty(t, cfg.Build.Countries)
	assert.True(t, cfg.Build.Report)
	assert.Equal(t, "info", cfg.Log.Level)

	formats, err := cfg.OutputFormats()
	require.NoError(t, err)
	assert.Equal(t, emit.Formats, formats)
}

func TestLoadEnvOverrides(t *testing.T) {
	t.Setenv("NAMELEX_TOP_N", "25")
	t.Setenv("NAMELEX_COUNTRIES", "us, de")
	t.Setenv("NAMELEX_LOAD_TIMEOUT", "5s")

	cfg, err := Load("")
	require.NoError(t, err)
	require.NoError(t, cfg.Validate())

	assert.Equal(t, 25, cfg.Build.TopN)
	assert.Equal(t, []string{"US", "DE"}, cfg.Build.Countries)
	assert.Equal(t, 5*time.Second, cfg.Dataset.LoadTimeout)
}

func TestLoadYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "namelex.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
dataset:
  path: /data/names.db
  load_timeout: 30s
build:
  top_n: 100
  output_dir: dist
  countries: [JP, in]
  formats: [json, cjs]
log:
  level: debug
  format: json
`), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)
	require.NoError(t, cfg.Validate())

	assert.Equal(t, "/data/names.db", cfg.Dataset.Path)
	assert.Equal(t, 30*time.Second, cfg.Dataset.LoadTimeout)
	assert.Equal(t, 100, cfg.Build.TopN)
	assert.Equal(t, "dist", cfg.Build.OutputDir)
	assert.Equal(t, []string{"JP", "IN"}, cfg.Build.Countries)
	assert.Equal(t, "json", cfg.Log.Format)

	formats, err := cfg.OutputFormats()
	require.NoError(t, err)
	assert.Equal(t, []emit.Format{emit.FormatJSON, emit.FormatCommonJS}, formats)
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}

func TestValidateRejectsBadValues(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)

	cfg.Build.TopN = -1
	cfg.Build.OutputDir = " "
	cfg.Build.BaseName = "../escape"
	cfg.Build.Formats = []string{"xml"}
	cfg.Log.Level = "loud"
	cfg.Dataset.ImportWorkers = 0

	err = cfg.Validate()
	require.Error(t, err)
	for _, want := range []string{"top_n", "output_dir", "base_name", "formats", "log.level", "import_workers"} {
		assert.Contains(t, err.Error(), want)
	}
}

func TestValidateAllowsZeroTopN(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)
	cfg.Build.TopN = 0
	assert.NoError(t, cfg.Validate())
}

func TestValidateDeduplicatesCountries(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)
	cfg.Build.Countries = []string{"US", "us", " de ", "", "US", "DE"}

	require.NoError(t, cfg.Validate())
	assert.Equal(t, []string{"US", "DE"}, cfg.Build.Countries)
}
