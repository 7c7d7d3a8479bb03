package config

import (
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cppla/blogapi/models"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.json")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestBuildDefaults(t *testing.T) {
	c := build(filepath.Join(t.TempDir(), "missing.json"))

	assert.Equal(t, "8080", c.AppPort)
	assert.Equal(t, 60, c.TokenTTLMinutes)
	assert.Equal(t, "mysql", c.DBDriver)
	assert.Equal(t, "blog", c.DBName)
	assert.Equal(t, []string{"*"}, c.AllowedOrigins)
	assert.Equal(t, 6379, c.RedisPort)
	assert.Empty(t, c.RedisHost)
	assert.NotEmpty(t, c.JWTSecret)
}

func TestBuildFileThenEnv(t *testing.T) {
	path := writeConfig(t, `{
		"app": {"AppPort": "9000", "JWTSecret": "file-secret", "AllowedOrigins": ["https://a.example"]},
		"database": {"Driver": "sqlite", "DBName": "fromfile"},
		"redis": {"RedisHost": "cache", "RedisPort": 6380},
		"log": {"Level": "debug", "Compress": true}
	}`)
	t.Setenv("APP_PORT", "9100")
	t.Setenv("CORS_ALLOWED_ORIGINS", "https://a.example, https://b.example ,")
	t.Setenv("TOKEN_TTL_MINUTES", "15")

	c := build(path)
	assert.Equal(t, "9100", c.AppPort)
	assert.Equal(t, "file-secret", c.JWTSecret)
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, c.AllowedOrigins)
	assert.Equal(t, 15, c.TokenTTLMinutes)
	assert.Equal(t, "sqlite", c.DBDriver)
	assert.Equal(t, "fromfile", c.DBName)
	assert.Equal(t, "cache", c.RedisHost)
	assert.Equal(t, 6380, c.RedisPort)
	assert.Equal(t, "debug", c.LogLevel)
	assert.True(t, c.LogCompress)
}

func TestWithForeignKeys(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{in: "blog.db", want: "blog.db?_foreign_keys=on"},
		{in: "file:x?mode=memory", want: "file:x?mode=memory&_foreign_keys=on"},
		{in: "blog.db?_foreign_keys=off", want: "blog.db?_foreign_keys=off"},
		{in: "blog.db?_fk=1", want: "blog.db?_fk=1"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, withForeignKeys(tt.in), tt.in)
	}
}

func TestOpenDatabaseUnsupportedDriver(t *testing.T) {
	_, err := OpenDatabase(AppConfig{DBDriver: "oracle"})
	assert.ErrorContains(t, err, "unsupported DB_DRIVER")
}

func TestOpenDatabaseSQLiteEnforcesForeignKeys(t *testing.T) {
	db, err := OpenDatabase(AppConfig{
		DBDriver:    "sqlite",
		DatabaseURI: fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString()),
		LogLevel:    "silent",
	})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	t.Cleanup(func() { sqlDB.Close() })

	for _, model := range []any{&models.User{}, &models.Post{}, &models.Comment{}} {
		assert.True(t, db.Migrator().HasTable(model))
	}

	orphan := models.Post{AuthorID: 42, Title: "t", Content: "c"}
	assert.Error(t, db.Create(&orphan).Error)
}
