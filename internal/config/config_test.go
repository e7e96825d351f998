package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validConfig() *Config {
	return &Config{
		App:     AppConfig{Environment: "development"},
		Logger:  LoggerConfig{Level: "info"},
		Storage: StorageConfig{DataPath: "/some/path"},
		Auth:    AuthConfig{RateLimit: 20, RateBurst: 10},
		Tags: TagsConfig{
			MaxNameLength:  64,
			NoteRenameMode: RenameModeRelink,
			DeleteOrphans:  true,
		},
		Suggest: SuggestConfig{DefaultTags: 5, MaxTags: 100, RateLimit: 120, RateBurst: 30},
	}
}

func TestValidate_ValidConfig(t *testing.T) {
	assert.NoError(t, validConfig().Validate())
}

func TestValidate_AllEnvironments(t *testing.T) {
	tests := []struct {
		env   string
		valid bool
	}{
		{"development", true},
		{"staging", true},
		{"production", true},
		{"test", false},
		{"", false},
		{"DEVELOPMENT", false}, // case sensitive
	}

	for _, tt := range tests {
		t.Run(tt.env, func(t *testing.T) {
			cfg := validConfig()
			cfg.App.Environment = tt.env

			err := cfg.Validate()
			if tt.valid {
				assert.NoError(t, err)
			} else {
				assert.Error(t, err)
			}
		})
	}
}

func TestValidate_AllLogLevels(t *testing.T) {
	tests := []struct {
		level string
		valid bool
	}{
		{"debug", true},
		{"info", true},
		{"warn", true},
		{"error", true},
		{"DEBUG", true}, // case insensitive
		{"trace", false},
		{"", false},
	}

	for _, tt := range tests {
		t.Run(tt.level, func(t *testing.T) {
			cfg := validConfig()
			cfg.Logger.Level = tt.level

			err := cfg.Validate()
			if tt.valid {
				assert.NoError(t, err)
			} else {
				assert.Error(t, err)
			}
		})
	}
}

func TestValidate_RenameMode(t *testing.T) {
	for _, mode := range []string{RenameModeRelink, RenameModeGlobal} {
		cfg := validConfig()
		cfg.Tags.NoteRenameMode = mode
		assert.NoError(t, cfg.Validate(), mode)
	}

	cfg := validConfig()
	cfg.Tags.NoteRenameMode = "copy"
	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "rename mode")
}

func TestValidate_SuggestLimits(t *testing.T) {
	cfg := validConfig()
	cfg.Suggest.DefaultTags = 0
	assert.Error(t, cfg.Validate())

	cfg = validConfig()
	cfg.Suggest.DefaultTags = 101
	assert.Error(t, cfg.Validate())

	cfg = validConfig()
	cfg.Suggest.MaxTags = 0
	assert.Error(t, cfg.Validate())
}

func TestValidate_EmptyDataPath(t *testing.T) {
	cfg := validConfig()
	cfg.Storage.DataPath = ""

	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "data path cannot be empty")
}

func TestExpandDataPath(t *testing.T) {
	homeDir, err := os.UserHomeDir()
	require.NoError(t, err)

	tests := []struct {
		name string
		in   string
		want string
	}{
		{"empty uses default", "", filepath.Join(homeDir, "Archipelago", "data")},
		{"tilde", "~/my-data", filepath.Join(homeDir, "my-data")},
		{"absolute", "/absolute/path/to/data", "/absolute/path/to/data"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := &Config{Storage: StorageConfig{DataPath: tt.in}}
			require.NoError(t, cfg.expandDataPath())
			assert.Equal(t, tt.want, cfg.Storage.DataPath)
		})
	}

	cfg := &Config{Storage: StorageConfig{DataPath: "relative/path"}}
	require.NoError(t, cfg.expandDataPath())
	assert.True(t, filepath.IsAbs(cfg.Storage.DataPath))
}

func TestStoragePaths(t *testing.T) {
	s := StorageConfig{DataPath: "/data"}
	assert.Equal(t, "/data/notes.db", s.DatabasePath())
	assert.Equal(t, "/data/search", s.IndexPath())
	assert.Equal(t, "/data/cache/suggest", s.CachePath())
}

func TestGetConfigValue_Precedence(t *testing.T) {
	assert.Equal(t, "flag-value", getConfigValue("flag-value", "ENV_KEY", "default-value"))

	t.Setenv("TEST_ENV_KEY", "env-value")
	assert.Equal(t, "env-value", getConfigValue("", "TEST_ENV_KEY", "default-value"))

	assert.Equal(t, "default-value", getConfigValue("", "NONEXISTENT_KEY", "default-value"))
}

func TestGetBoolAndIntConfigValue(t *testing.T) {
	t.Setenv("TEST_BOOL", "YES")
	assert.True(t, getBoolConfigValue("", "TEST_BOOL", false))
	assert.False(t, getBoolConfigValue("off", "TEST_BOOL", true))
	assert.True(t, getBoolConfigValue("", "MISSING_BOOL", true))

	t.Setenv("TEST_INT", " 42 ")
	assert.Equal(t, 42, getIntConfigValue("", "TEST_INT", 7))
	t.Setenv("TEST_INT", "many")
	assert.Equal(t, 7, getIntConfigValue("", "TEST_INT", 7))
}

func TestGetDurationConfigValue(t *testing.T) {
	d, err := getDurationConfigValue("90s", "TEST_DURATION", "1m")
	require.NoError(t, err)
	assert.Equal(t, 90*time.Second, d)

	_, err = getDurationConfigValue("soon", "TEST_DURATION", "1m")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "TEST_DURATION")
}

func TestLoadConfig_FlagsAndEnv(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("TAGS_NOTE_RENAME_MODE", "GLOBAL")
	t.Setenv("SUGGEST_MAX_TAGS", "50")
	t.Setenv("AUTH_TRUST_USER_HEADER", "false")

	cfg, err := LoadConfig([]string{
		"-data-path", dir,
		"-port", "9090",
		"-env-file", filepath.Join(dir, "missing.env"),
		"-cors-allowed-origins", "http://a.test, http://b.test",
	})
	require.NoError(t, err)

	assert.Equal(t, dir, cfg.Storage.DataPath)
	assert.Equal(t, "9090", cfg.Server.Port)
	assert.Equal(t, RenameModeGlobal, cfg.Tags.NoteRenameMode)
	assert.True(t, cfg.Tags.DeleteOrphans)
	assert.Equal(t, 50, cfg.Suggest.MaxTags)
	assert.Equal(t, 5, cfg.Suggest.DefaultTags)
	assert.False(t, cfg.Auth.TrustUserHeader)
	assert.Equal(t, 24*time.Hour, cfg.Auth.AccessTokenDuration)
	assert.Equal(t, []string{"http://a.test", "http://b.test"}, cfg.Server.CORSAllowedOrigins)
}

func TestLoadConfig_InvalidDuration(t *testing.T) {
	t.Setenv("SUGGEST_CACHE_TTL", "forever")

	_, err := LoadConfig([]string{"-data-path", t.TempDir(), "-env-file", "/nonexistent/.env"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "SUGGEST_CACHE_TTL")
}

func TestLoadEnvFile_ValidFile(t *testing.T) {
	envFile := filepath.Join(t.TempDir(), ".env")

	content := `# Test env file
NOTES_TEST_ENV=staging
# Comment line
NOTES_TEST_QUOTED="some value"
NOTES_TEST_SINGLE='another value'
`
	require.NoError(t, os.WriteFile(envFile, []byte(content), 0o644))

	for _, k := range []string{"NOTES_TEST_ENV", "NOTES_TEST_QUOTED", "NOTES_TEST_SINGLE"} {
		t.Setenv(k, "")
	}

	require.NoError(t, loadEnvFile(envFile))

	assert.Equal(t, "staging", os.Getenv("NOTES_TEST_ENV"))
	assert.Equal(t, "some value", os.Getenv("NOTES_TEST_QUOTED"))
	assert.Equal(t, "another value", os.Getenv("NOTES_TEST_SINGLE"))
}

func TestLoadEnvFile_InvalidFormat(t *testing.T) {
	envFile := filepath.Join(t.TempDir(), ".env")

	content := `VALID_KEY=valid_value
INVALID LINE WITHOUT EQUALS
`
	require.NoError(t, os.WriteFile(envFile, []byte(content), 0o644))

	err := loadEnvFile(envFile)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid format")
}

func TestLoadEnvFile_NonExistentFile(t *testing.T) {
	assert.Error(t, loadEnvFile("/nonexistent/file/.env"))
}

func TestLoadEnvFile_ExistingEnvVarsNotOverwritten(t *testing.T) {
	t.Setenv("NOTES_TEST_VAR", "original-value")

	envFile := filepath.Join(t.TempDir(), ".env")
	require.NoError(t, os.WriteFile(envFile, []byte(`NOTES_TEST_VAR=new-value`), 0o644))

	require.NoError(t, loadEnvFile(envFile))
	assert.Equal(t, "original-value", os.Getenv("NOTES_TEST_VAR"))
}
