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
		App:    AppConfig{Environment: "development"},
		Logger: LoggerConfig{Level: "info"},
		Store: StoreConfig{
			DataPath: "/some/path",
			Backend:  BackendBadger,
			Timeout:  15 * time.Second,
		},
		Resolver: ResolverConfig{
			Timeout:       10 * time.Second,
			ISBNProvider:  ProviderGoogleBooks,
			TitleProvider: ProviderOpenLibrary,
		},
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
		{"DEVELOPMENT", false},
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

func TestValidate_LogLevel(t *testing.T) {
	cfg := validConfig()
	cfg.Logger.Level = "WARN"
	assert.NoError(t, cfg.Validate())

	cfg.Logger.Level = "verbose"
	assert.Error(t, cfg.Validate())
}

func TestValidate_StoreBackend(t *testing.T) {
	tests := []struct {
		backend string
		valid   bool
	}{
		{BackendBadger, true},
		{BackendSQLite, true},
		{"postgres", false},
		{"", false},
	}

	for _, tt := range tests {
		t.Run(tt.backend, func(t *testing.T) {
			cfg := validConfig()
			cfg.Store.Backend = tt.backend

			err := cfg.Validate()
			if tt.valid {
				assert.NoError(t, err)
			} else {
				assert.ErrorContains(t, err, "invalid store backend")
			}
		})
	}
}

func TestValidate_EmptyDataPath(t *testing.T) {
	cfg := validConfig()
	cfg.Store.DataPath = ""

	err := cfg.Validate()
	assert.ErrorContains(t, err, "data path cannot be empty")
}

func TestValidate_Timeouts(t *testing.T) {
	cfg := validConfig()
	cfg.Store.Timeout = 0
	assert.ErrorContains(t, cfg.Validate(), "STORE_TIMEOUT")

	cfg = validConfig()
	cfg.Resolver.Timeout = -time.Second
	assert.ErrorContains(t, cfg.Validate(), "RESOLVER_TIMEOUT")
}

func TestValidate_UnknownProvider(t *testing.T) {
	cfg := validConfig()
	cfg.Resolver.TitleProvider = "amazon"

	assert.ErrorContains(t, cfg.Validate(), "invalid metadata provider")

	cfg.Resolver.TitleProvider = ProviderITunes
	assert.NoError(t, cfg.Validate())
}

func TestValidate_InboxNeedsUser(t *testing.T) {
	cfg := validConfig()
	cfg.Inbox.Path = "/tmp/inbox"
	assert.Error(t, cfg.Validate())

	cfg.Inbox.UserID = "u1"
	assert.NoError(t, cfg.Validate())
}

func TestExpandDataPath_EmptyUsesDefault(t *testing.T) {
	cfg := &Config{}
	require.NoError(t, cfg.expandDataPath())

	homeDir, _ := os.UserHomeDir() //nolint:errcheck // Test setup
	assert.Equal(t, filepath.Join(homeDir, "Shelf", "data"), cfg.Store.DataPath)
}

func TestExpandDataPath_TildeExpansion(t *testing.T) {
	cfg := &Config{Store: StoreConfig{DataPath: "~/my-data"}}
	require.NoError(t, cfg.expandDataPath())

	homeDir, _ := os.UserHomeDir() //nolint:errcheck // Test setup
	assert.Equal(t, filepath.Join(homeDir, "my-data"), cfg.Store.DataPath)
}

func TestExpandDataPath_RelativePath(t *testing.T) {
	cfg := &Config{Store: StoreConfig{DataPath: "relative/path"}}
	require.NoError(t, cfg.expandDataPath())

	assert.True(t, filepath.IsAbs(cfg.Store.DataPath))
	assert.Contains(t, cfg.Store.DataPath, "relative/path")
}

func TestExpandInboxPath_EmptyStaysEmpty(t *testing.T) {
	cfg := &Config{}
	require.NoError(t, cfg.expandInboxPath())
	assert.Empty(t, cfg.Inbox.Path)
}

func TestGetConfigValue_Precedence(t *testing.T) {
	assert.Equal(t, "flag-value", getConfigValue("flag-value", "SHELF_TEST_KEY", "default-value"))

	t.Setenv("SHELF_TEST_KEY", "env-value")
	assert.Equal(t, "env-value", getConfigValue("", "SHELF_TEST_KEY", "default-value"))

	assert.Equal(t, "default-value", getConfigValue("", "SHELF_NONEXISTENT_KEY", "default-value"))
}

func TestSplitList(t *testing.T) {
	assert.Equal(t, []string{"http://a", "http://b"}, splitList(" http://a, ,http://b "))
	assert.Nil(t, splitList(""))
}

func TestLoadEnvFile_ValidFile(t *testing.T) {
	envFile := filepath.Join(t.TempDir(), ".env")

	content := `# Test env file
STORE_BACKEND=sqlite
RESOLVER_TIMEOUT=5s
# Comment line
QUOTED_VALUE="some value"
SINGLE_QUOTED='another value'
`
	require.NoError(t, os.WriteFile(envFile, []byte(content), 0o644))

	for _, k := range []string{"STORE_BACKEND", "RESOLVER_TIMEOUT", "QUOTED_VALUE", "SINGLE_QUOTED"} {
		t.Setenv(k, "")
	}

	require.NoError(t, loadEnvFile(envFile))

	assert.Equal(t, "sqlite", os.Getenv("STORE_BACKEND"))
	assert.Equal(t, "5s", os.Getenv("RESOLVER_TIMEOUT"))
	assert.Equal(t, "some value", os.Getenv("QUOTED_VALUE"))
	assert.Equal(t, "another value", os.Getenv("SINGLE_QUOTED"))
}

func TestLoadEnvFile_InvalidFormat(t *testing.T) {
	envFile := filepath.Join(t.TempDir(), ".env")
	require.NoError(t, os.WriteFile(envFile, []byte("VALID=1\nNOT A PAIR\n"), 0o644))

	err := loadEnvFile(envFile)
	assert.ErrorContains(t, err, "invalid format")
}

func TestLoadEnvFile_NonExistentFile(t *testing.T) {
	assert.Error(t, loadEnvFile("/nonexistent/file/.env"))
}

func TestLoadEnvFile_ExistingEnvVarsNotOverwritten(t *testing.T) {
	t.Setenv("SHELF_TEST_VAR", "original-value")

	envFile := filepath.Join(t.TempDir(), ".env")
	require.NoError(t, os.WriteFile(envFile, []byte("SHELF_TEST_VAR=new-value"), 0o644))

	require.NoError(t, loadEnvFile(envFile))
	assert.Equal(t, "original-value", os.Getenv("SHELF_TEST_VAR"))
}
