package app

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gitforge-admin/gitforge-admin/internal/version"
)

func run(t *testing.T, args ...string) string {
	t.Helper()

	var out bytes.Buffer

	rootCmd.SetOut(&out)
	rootCmd.SetArgs(args)
	t.Cleanup(func() {
		rootCmd.SetOut(nil)
		rootCmd.SetArgs(nil)
	})

	require.NoError(t, rootCmd.Execute())

	return out.String()
}

func writeConfig(t *testing.T) string {
	t.Helper()

	dir := t.TempDir()
	toml := `Title = "Test"

[DB]
GormEngine = "sqlite"
Name = "` + filepath.ToSlash(filepath.Join(dir, "test.db")) + `"

[Webserver]
Port = 8080
URL = "http://localhost:8080"

[Log]
LogLevel = "error"
AppName = "gitforge-admin"
ServiceName = "gitforge-admin"

[Cache]
Driver = "none"
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "main.toml"), []byte(toml), 0o600))

	return dir + string(filepath.Separator)
}

func TestVersion(t *testing.T) {
	assert.Equal(t, version.String()+"\n", run(t, "version"))
}

func TestConfigDump(t *testing.T) {
	dir := writeConfig(t)

	out := run(t, "config", "dump", "--config", dir)
	assert.Contains(t, out, `Title = "Test"`)
	assert.Contains(t, out, `Driver = "none"`)

	out = run(t, "config", "dump", "--json", "--config", dir)
	assert.Contains(t, out, `"Title": "Test"`)
	dumpJSON = false
}

func TestTokenReset(t *testing.T) {
	dir := writeConfig(t)

	first := run(t, "token", "reset", "--config", dir)
	second := run(t, "token", "reset", "--config", dir)

	assert.NotEmpty(t, first)
	assert.NotEqual(t, first, second)
}
