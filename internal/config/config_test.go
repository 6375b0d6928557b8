package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultIsValid(t *testing.T) {
	cfg := Default()
	assert.NoError(t, cfg.Validate())
	assert.Equal(t, 10, cfg.SiteCount)
	assert.Equal(t, 20, cfg.VarCount)
}

func TestValidateRejectsNonPositiveCounts(t *testing.T) {
	cfg := Default()
	cfg.SiteCount = 0
	assert.Error(t, cfg.Validate())

	cfg = Default()
	cfg.VarCount = -1
	assert.Error(t, cfg.Validate())
}

func TestValidateRejectsOutOfRangeDefaultOverride(t *testing.T) {
	cfg := Default()
	cfg.Defaults[99] = 5
	assert.Error(t, cfg.Validate())
}

func TestLoadOverridesOnlyWhatTheFileSpecifies(t *testing.T) {
	path := filepath.Join(t.TempDir(), "repcrec.toml")
	contents := "site-count = 4\nlog-level = \"debug\"\n"
	require.NoError(t, os.WriteFile(path, []byte(contents), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 4, cfg.SiteCount)
	assert.Equal(t, "debug", cfg.LogLevel)
	// var-count was not in the file, so it keeps Default()'s value.
	assert.Equal(t, 20, cfg.VarCount)
}

func TestLoadParsesDefaultOverrides(t *testing.T) {
	path := filepath.Join(t.TempDir(), "repcrec.toml")
	contents := "[defaults]\n4 = 999\n7 = 1\n"
	require.NoError(t, os.WriteFile(path, []byte(contents), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, map[int]int{4: 999, 7: 1}, cfg.Defaults)
	assert.NoError(t, cfg.Validate())
}

func TestLoadRejectsMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "does-not-exist.toml"))
	assert.Error(t, err)
}
