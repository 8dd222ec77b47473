package accessor

import (
	"database/sql"
	"testing"

	"github.com/stretchr/testify/assert"
)

const filtered = `WHERE ({owner} IS NULL OR s = {owner}) AND ({name} IS NULL OR t = {name})`

func TestBind(t *testing.T) {
	tests := []struct {
		name      string
		style     BindStyle
		byName    bool
		owner     string
		tableName string
		wantQuery string
		wantArgs  []any
	}{
		{
			name:      "question repeats per occurrence",
			style:     BindQuestion,
			owner:     "dbo",
			tableName: "orders",
			wantQuery: `WHERE (? IS NULL OR s = ?) AND (? IS NULL OR t = ?)`,
			wantArgs:  []any{"dbo", "dbo", "orders", "orders"},
		},
		{
			name:      "dollar numbers distinct parameters",
			style:     BindDollar,
			owner:     "public",
			wantQuery: `WHERE ($1 IS NULL OR s = $1) AND ($2 IS NULL OR t = $2)`,
			wantArgs:  []any{"public", nil},
		},
		{
			name:      "at numbers distinct parameters",
			style:     BindAt,
			tableName: "orders",
			wantQuery: `WHERE (@p1 IS NULL OR s = @p1) AND (@p2 IS NULL OR t = @p2)`,
			wantArgs:  []any{nil, "orders"},
		},
		{
			name:      "colon positional",
			style:     BindColon,
			wantQuery: `WHERE (:1 IS NULL OR s = :2) AND (:3 IS NULL OR t = :4)`,
			wantArgs:  []any{nil, nil, nil, nil},
		},
		{
			name:      "named binds once",
			style:     BindColon,
			byName:    true,
			owner:     "SCOTT",
			wantQuery: `WHERE (:owner IS NULL OR s = :owner) AND (:name IS NULL OR t = :name)`,
			wantArgs:  []any{sql.Named("owner", "SCOTT"), sql.Named("name", nil)},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			q, args := bind(filtered, tt.style, tt.byName, tt.owner, tt.tableName)
			assert.Equal(t, tt.wantQuery, q)
			assert.Equal(t, tt.wantArgs, args)
		})
	}
}

func TestBind_NoTokens(t *testing.T) {
	q, args := bind("SELECT 1", BindDollar, false, "x", "y")
	assert.Equal(t, "SELECT 1", q)
	assert.Empty(t, args)
}
