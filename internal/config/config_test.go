package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestReadDotEnvParsesKeyValueLines(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, ".env")
	require.NoError(t, os.WriteFile(path, []byte("# comment\nMONGO_HOST=localhost\nMONGO_PORT='27018'\n\n"), 0o600))

	got := readDotEnv(path)
	require.Equal(t, "localhost", got["MONGO_HOST"])
	require.Equal(t, "27018", got["MONGO_PORT"])
}

func TestReadDotEnvMissingFileYieldsEmptyMap(t *testing.T) {
	got := readDotEnv(filepath.Join(t.TempDir(), "does-not-exist.env"))
	require.Empty(t, got)
}

func TestLoadProjectConfigMissingFileIsZeroValue(t *testing.T) {
	pc, err := LoadProjectConfig(filepath.Join(t.TempDir(), "mongosql.yaml"))
	require.NoError(t, err)
	require.Equal(t, ProjectConfig{}, pc)
}

func TestLoadProjectConfigParsesOverrides(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "mongosql.yaml")
	content := "default_tenant: acme\ncollection_overrides:\n  customer: customers_v2\n"
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	pc, err := LoadProjectConfig(path)
	require.NoError(t, err)
	require.Equal(t, "acme", pc.DefaultTenant)

	name, ok := pc.ResolveCollection("customer")
	require.True(t, ok)
	require.Equal(t, "customers_v2", name)

	_, ok = pc.ResolveCollection("unknown_table")
	require.False(t, ok)
}
