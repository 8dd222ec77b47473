package accessor

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tordrt/schemagraph/internal/db"
	"github.com/tordrt/schemagraph/internal/errs"
)

func TestParseProvider(t *testing.T) {
	tests := []struct {
		provider string
		want     Dialect
	}{
		{"postgres", PostgreSQL},
		{"postgres://", PostgreSQL},
		{"Npgsql", PostgreSQL},
		{"mysql:", MySQL},
		{"System.Data.SqlClient", SQLServer},
		{"sqlserver", SQLServer},
		{"Oracle.ManagedDataAccess.Client", Oracle},
		{"sqlite3", SQLite},
		{"Sybase.Data.AseClient", SybaseASE},
		{"iAnywhere.Data.SQLAnywhere", SybaseASA},
		{"ultralite", SybaseUltraLite},
		{"sybase-asa", SybaseASA},
		{"firebird", Generic},
	}
	for _, tt := range tests {
		t.Run(tt.provider, func(t *testing.T) {
			got, err := ParseProvider(tt.provider)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParseProvider_Empty(t *testing.T) {
	for _, p := range []string{"", "   "} {
		_, err := ParseProvider(p)
		require.Error(t, err)
		assert.True(t, errs.IsInvalidInput(err))
	}
}

func TestDriverFor(t *testing.T) {
	d, err := DriverFor(PostgreSQL, "")
	require.NoError(t, err)
	assert.Equal(t, db.DriverPgx, d)

	d, err = DriverFor(SybaseASE, "odbc")
	require.NoError(t, err)
	assert.Equal(t, "odbc", d)

	_, err = DriverFor(SybaseASE, "")
	assert.True(t, errs.IsInvalidInput(err))

	_, err = DriverFor(Dialect("nope"), "")
	assert.True(t, errs.IsInvalidInput(err))
}

func TestDialects_AllRegistered(t *testing.T) {
	got := Dialects()
	for _, d := range []Dialect{SQLServer, PostgreSQL, MySQL, Oracle, SQLite, SybaseASE, SybaseASA, SybaseUltraLite, Generic} {
		assert.Contains(t, got, d)
	}
}

func TestVariants_CoreCapabilities(t *testing.T) {
	for d, v := range variants {
		for _, c := range []Capability{Tables, Columns, PrimaryKeys} {
			assert.NotEmpty(t, v.queries[c], "%s lacks %s", d, c)
		}
	}
}

func TestPolicyFor(t *testing.T) {
	assert.Equal(t, Soft, PolicyFor(TableDescriptions))
	assert.Equal(t, Soft, PolicyFor(ProcedureSource))
	assert.Equal(t, Hard, PolicyFor(Columns))
	assert.Equal(t, Hard, PolicyFor(ForeignKeys))
}
