package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_FileThenEnv(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.json")
	body := `{
		"env": "production",
		"server": {"address": ":9090"},
		"social": {"suggestionLimit": 12},
		"storage": {"root": "/srv/blobs"}
	}`
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))

	t.Setenv("APP_CONFIG", path)
	t.Setenv("SERVER_ADDR", ":7070")
	t.Setenv("VERIFICATION_STALE_AFTER", "48h")
	t.Setenv("ALLOWED_METHODS", "get, post")

	cfg := Load()

	assert.True(t, cfg.IsProd())
	assert.Equal(t, ":7070", cfg.Server.Address, "env wins over file")
	assert.Equal(t, 12, cfg.Social.SuggestionLimit)
	assert.Equal(t, "/srv/blobs", cfg.Storage.Root)
	assert.Equal(t, 48*time.Hour, cfg.Verification.StaleAfter)
	assert.Equal(t, []string{"GET", "POST"}, cfg.Middleware.Security.AllowedMethods)
	// untouched defaults survive
	assert.Equal(t, "HS256", cfg.Middleware.JWT.SigningMethod)
}

func TestLoad_FileDurations(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.json")
	body := `{
		"verification": {"staleAfter": "720h"},
		"middleware": {
			"jwt": {"expireDuration": "2h", "issuer": "file"},
			"rateLimit": {"rate": 5, "interval": "500ms"},
			"cors": {"maxAge": 3600000000000}
		}
	}`
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	t.Setenv("APP_CONFIG", path)

	cfg := Load()

	assert.Equal(t, 720*time.Hour, cfg.Verification.StaleAfter)
	assert.Equal(t, 2*time.Hour, cfg.Middleware.JWT.ExpireDuration)
	assert.Equal(t, "file", cfg.Middleware.JWT.Issuer)
	assert.Equal(t, 5, cfg.Middleware.RateLimit.Rate)
	assert.Equal(t, 500*time.Millisecond, cfg.Middleware.RateLimit.Interval)
	assert.Equal(t, time.Hour, cfg.Middleware.CORS.MaxAge, "numbers stay nanoseconds")
	// 未出现的字段保留默认值
	assert.Equal(t, "HS256", cfg.Middleware.JWT.SigningMethod)
	assert.Equal(t, Default().Storage.Root, cfg.Storage.Root)
}

func TestLoadFromFile_BadDuration(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"verification": {"staleAfter": "a month"}}`), 0o600))

	cfg := Default()
	err := loadFromFile(&cfg, path)
	assert.ErrorContains(t, err, "invalid duration")
}

func TestLoadFromEnv_RejectsBadValues(t *testing.T) {
	t.Setenv("JWT_ALGORITHM", "RS256")
	t.Setenv("SUGGESTION_LIMIT", "-3")
	t.Setenv("JWT_EXPIRATION", "soon")

	cfg := Default()
	loadFromEnv(&cfg)

	assert.Equal(t, "HS256", cfg.Middleware.JWT.SigningMethod)
	assert.Equal(t, 30, cfg.Social.SuggestionLimit)
	assert.Equal(t, 24*time.Hour, cfg.Middleware.JWT.ExpireDuration)
}

func TestLoadFromEnv_Algorithm(t *testing.T) {
	t.Setenv("JWT_ALGORITHM", " hs512 ")

	cfg := Default()
	loadFromEnv(&cfg)

	assert.Equal(t, "HS512", cfg.Middleware.JWT.SigningMethod)
}

func TestDSN(t *testing.T) {
	cfg := Default()
	assert.Equal(t, "root:root@tcp(localhost:3306)/sanchari?charset=utf8mb4&parseTime=True&loc=Local", cfg.DSN())

	cfg.Database.UseUnixSock = true
	cfg.Database.Host = "/var/run/mysqld/mysqld.sock"
	assert.Equal(t, "root:root@unix(/var/run/mysqld/mysqld.sock)/sanchari?charset=utf8mb4&parseTime=True&loc=Local", cfg.DSN())
}

func TestDefaultIsACopy(t *testing.T) {
	a := Default()
	a.Middleware.CORS.AllowOrigins[0] = "mutated"
	b := Default()
	assert.Equal(t, "http://localhost:8081", b.Middleware.CORS.AllowOrigins[0])
}
