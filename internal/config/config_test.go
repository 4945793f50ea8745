package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func TestLoadFromPath_MissingFileUsesDefaults(t *testing.T) {
	cfg, err := LoadFromPath(filepath.Join(t.TempDir(), "nope.yaml"))
	require.NoError(t, err)

	assert.Equal(t, "0.0.0.0", cfg.Server.Host)
	assert.Equal(t, 8000, cfg.Server.Port)
	assert.Equal(t, "postgres", cfg.Database.Driver)
	assert.Equal(t, "info", cfg.Logging.Level)
	assert.Equal(t, "json", cfg.Logging.Format)
	assert.Equal(t, 48, cfg.Redis.SessionTTL)
	assert.Equal(t, "0 0 * * *", cfg.Rotation.Schedule)
	assert.False(t, cfg.Admin.Enabled())
}

func TestLoadFromPath_FileOverridesDefaults(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	content := `
server:
  port: 9100
logging:
  level: debug
  format: text
admin:
  username: admin
  password_hash: "$2a$10$abcdefghijklmnopqrstuv"
  jwt_secret: sekret
rotation:
  enabled: false
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	cfg, err := LoadFromPath(path)
	require.NoError(t, err)

	assert.Equal(t, 9100, cfg.Server.Port)
	assert.Equal(t, "debug", cfg.Logging.Level)
	assert.Equal(t, "text", cfg.Logging.Format)
	assert.True(t, cfg.Admin.Enabled())
	assert.False(t, cfg.Rotation.Enabled)
	// Untouched sections keep their defaults.
	assert.Equal(t, 30, cfg.Server.ReadTimeout)
	assert.Equal(t, 25, cfg.Database.MaxOpenConns)
}

func TestLoadFromPath_EnvironmentOverridesFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("server:\n  port: 9100\n"), 0o600))

	t.Setenv("SERVER_PORT", "9200")
	t.Setenv("DATABASE_URL", "postgres://localhost/tylmus?sslmode=disable")
	t.Setenv("CORS_ALLOWED_ORIGINS", "https://a.example, https://b.example")

	cfg, err := LoadFromPath(path)
	require.NoError(t, err)

	assert.Equal(t, 9200, cfg.Server.Port)
	assert.Equal(t, "postgres://localhost/tylmus?sslmode=disable", cfg.Database.DSN)
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.CORS.Origins())
}

func TestLoadFromPath_InvalidYAML(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("server: [not a map"), 0o600))

	_, err := LoadFromPath(path)
	require.Error(t, err)
}

func TestValidate_PortRange(t *testing.T) {
	cfg := Default()
	cfg.Server.Port = 70000

	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "out of range")
}

func TestValidate_UnsupportedDriver(t *testing.T) {
	cfg := Default()
	cfg.Database.DSN = "something"
	cfg.Database.Driver = "mysql"

	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unsupported database driver")
}

func TestNormalize_Defaults(t *testing.T) {
	cfg := &Config{}
	cfg.Normalize()

	assert.Equal(t, "0.0.0.0", cfg.Server.Host)
	assert.Equal(t, 8000, cfg.Server.Port)
	assert.Equal(t, 30, cfg.Server.ReadTimeout)
	assert.Equal(t, 120, cfg.Server.IdleTimeout)
	assert.Equal(t, "postgres", cfg.Database.Driver)
	assert.Equal(t, "info", cfg.Logging.Level)
	assert.Equal(t, "*", cfg.CORS.AllowedOrigins)
	assert.Equal(t, 10, cfg.RateLimit.RequestsPerSecond)
	assert.Equal(t, 24, cfg.Admin.TokenTTL)
	assert.Equal(t, "0 0 * * *", cfg.Rotation.Schedule)
}

func TestCORSConfig_Origins(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want []string
	}{
		{"empty", "", nil},
		{"single", "https://a.example", []string{"https://a.example"}},
		{"spaced list", " https://a.example , https://b.example ", []string{"https://a.example", "https://b.example"}},
		{"dangling comma", "https://a.example,", []string{"https://a.example"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, CORSConfig{AllowedOrigins: tt.raw}.Origins())
		})
	}
}

func TestAdminConfig_Enabled(t *testing.T) {
	assert.False(t, AdminConfig{}.Enabled())
	assert.False(t, AdminConfig{Username: "admin", JWTSecret: "s"}.Enabled())
	assert.True(t, AdminConfig{Username: "admin", PasswordHash: "h", JWTSecret: "s"}.Enabled())
}

func TestLoadFromPath_HashesPlaintextPassword(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	content := `
admin:
  username: admin
  password: swordfish
  jwt_secret: sekret
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	cfg, err := LoadFromPath(path)
	require.NoError(t, err)

	require.NotEmpty(t, cfg.Admin.PasswordHash)
	assert.NotEqual(t, "swordfish", cfg.Admin.PasswordHash)
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(cfg.Admin.PasswordHash), []byte("swordfish")))
	assert.True(t, cfg.Admin.Enabled())
}

func TestLoadFromPath_IncompleteAdminRejected(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("admin:\n  username: admin\n"), 0o600))

	_, err := LoadFromPath(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "admin config incomplete")
}
