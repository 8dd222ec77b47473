package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tordrt/schemagraph/internal/errs"
)

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	p := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(p, []byte(content), 0o600))
	return p
}

func TestLoad_Defaults(t *testing.T) {
	chdir(t, t.TempDir())

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, ":8080", cfg.Server.Addr)
	assert.Equal(t, "info", cfg.Log.Level)
	assert.Equal(t, int32(4), cfg.Pool.MaxConns)
	assert.Empty(t, cfg.ConnectionString)
}

func TestLoad_FileEnvPrecedence(t *testing.T) {
	dir := t.TempDir()
	chdir(t, dir)
	writeFile(t, dir, ".schemagraph.yaml", `
provider: postgresql
connection: postgres://file@localhost/app
owner: public
exclude:
  tables: ["audit_*", "schema_migrations"]
pool:
  max_conns: 8
  connect_timeout: 3s
log:
  level: debug
  format: json
server:
  addr: ":9000"
`)
	writeFile(t, dir, ".env", "SCHEMAGRAPH_OWNER=sales\n")
	t.Cleanup(func() { _ = os.Unsetenv("SCHEMAGRAPH_OWNER") })
	t.Setenv("SCHEMAGRAPH_CONNECTION", "postgres://env@localhost/app")
	t.Setenv("SCHEMAGRAPH_POOL_MIN_CONNS", "2")

	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, "postgresql", cfg.Provider)
	assert.Equal(t, "postgres://env@localhost/app", cfg.ConnectionString)
	assert.Equal(t, "sales", cfg.Owner)
	assert.Equal(t, []string{"audit_*", "schema_migrations"}, cfg.Exclude.Tables)
	assert.Equal(t, int32(8), cfg.Pool.MaxConns)
	assert.Equal(t, int32(2), cfg.Pool.MinConns)
	assert.Equal(t, 3*time.Second, cfg.Pool.ConnectTimeout)
	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, "json", cfg.Log.Format)
	assert.Equal(t, ":9000", cfg.Server.Addr)
	assert.NoError(t, cfg.Validate())
}

func TestLoad_ExplicitPath(t *testing.T) {
	dir := t.TempDir()
	chdir(t, dir)

	_, err := Load(filepath.Join(dir, "missing.yaml"))
	require.Error(t, err)
	assert.True(t, errs.IsInvalidInput(err))

	bad := writeFile(t, dir, "bad.yaml", "provider: [unterminated")
	_, err = Load(bad)
	require.Error(t, err)
	assert.True(t, errs.IsInvalidInput(err))

	good := writeFile(t, dir, "custom.yaml", "provider: sqlite\nconnection: app.db\n")
	cfg, err := Load(good)
	require.NoError(t, err)
	assert.Equal(t, "app.db", cfg.ConnectionString)
}

func TestLoad_InvalidEnvNumberKeepsDefault(t *testing.T) {
	chdir(t, t.TempDir())
	t.Setenv("SCHEMAGRAPH_POOL_MAX_CONNS", "lots")
	t.Setenv("SCHEMAGRAPH_CONNECT_TIMEOUT", "soon")

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, int32(4), cfg.Pool.MaxConns)
	assert.Equal(t, 10*time.Second, cfg.Pool.ConnectTimeout)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{"url scheme implies provider", func(c *Config) { c.ConnectionString = "sqlite://app.db" }, false},
		{"explicit provider", func(c *Config) { c.Provider = "oracle"; c.ConnectionString = "user/pass@db" }, false},
		{"missing connection", func(c *Config) {}, true},
		{"no provider no scheme", func(c *Config) { c.ConnectionString = "app.db" }, true},
		{"bad log format", func(c *Config) { c.ConnectionString = "sqlite://x"; c.Log.Format = "xml" }, true},
		{"min above max", func(c *Config) { c.ConnectionString = "sqlite://x"; c.Pool.MinConns = 9 }, true},
		{"bad pattern", func(c *Config) { c.ConnectionString = "sqlite://x"; c.Exclude.Views = []string{"[a-"} }, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.wantErr {
				require.Error(t, err)
				assert.True(t, errs.IsInvalidInput(err))
				return
			}
			assert.NoError(t, err)
		})
	}
}

func TestExclusions(t *testing.T) {
	cfg := Default()
	cfg.Exclude.Tables = []string{"audit_*", "Schema_Migrations"}
	cfg.Exclude.Packages = []string{"dbms_*"}

	ex := cfg.Exclusions()
	require.NotNil(t, ex.Table)
	assert.True(t, ex.Table("audit_log"))
	assert.True(t, ex.Table("schema_migrations"))
	assert.False(t, ex.Table("orders"))
	assert.True(t, ex.Package("DBMS_OUTPUT"))
	assert.Nil(t, ex.View)
	assert.Nil(t, ex.Procedure)
}

func TestSplitList(t *testing.T) {
	assert.Equal(t, []string{"a", "b"}, SplitList(" a, ,b ,"))
	assert.Nil(t, SplitList(""))
}

// chdir changes the working directory for the duration of the test
// (equivalent of testing.T.Chdir, which needs Go 1.24).
func chdir(t *testing.T, dir string) {
	t.Helper()
	prev, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { _ = os.Chdir(prev) })
}
