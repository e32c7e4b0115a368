package configuration

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadEnv_MissingFiles(t *testing.T) {
	n, err := LoadEnv([]string{filepath.Join(t.TempDir(), "no-existe.env")})
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestLoadEnv_ReadsFile(t *testing.T) {
	dir := t.TempDir()
	envFile := filepath.Join(dir, ".env")
	require.NoError(t, os.WriteFile(envFile, []byte("BULKLOAD_TEST_VAR=hola\n"), 0o644))
	t.Cleanup(func() { _ = os.Unsetenv("BULKLOAD_TEST_VAR") })

	n, err := LoadEnv([]string{envFile})
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	assert.Equal(t, "hola", os.Getenv("BULKLOAD_TEST_VAR"))
}

func TestDatabaseOptions_ConnectionString(t *testing.T) {
	opts := &DatabaseOptions{
		Name:     "sabg",
		Host:     "db.interno",
		Port:     "5433",
		User:     "app",
		Password: "secreto",
	}
	assert.Equal(t,
		"host=db.interno port=5433 user=app dbname=sabg password=secreto sslmode=disable",
		opts.ConnectionString(),
	)
}

func TestLogrusLogLevel(t *testing.T) {
	c := &Configuration{LogLevel: "debug"}
	assert.Equal(t, "debug", c.LogrusLogLevel().String())

	c.LogLevel = "algo-raro"
	assert.Equal(t, "error", c.LogrusLogLevel().String())
}
