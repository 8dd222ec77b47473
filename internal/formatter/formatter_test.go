package formatter

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/tordrt/schemagraph/internal/fixup"
	"github.com/tordrt/schemagraph/internal/schema"
)

func intPtr(i int) *int       { return &i }
func strPtr(s string) *string { return &s }

func shopSchema(t *testing.T) *schema.Schema {
	t.Helper()
	s := schema.New("", "postgresql", "public")

	customers := s.AddTable(&schema.Table{Name: "customers", Owner: "public", Description: "People who buy things"})
	customers.AddColumn(&schema.Column{Name: "id", DbDataType: "integer", IsPrimaryKey: true, DefaultValue: strPtr("nextval('customers_id_seq'::regclass)")})
	customers.AddColumn(&schema.Column{Name: "email", DbDataType: "varchar", Length: intPtr(255), IsUniqueKey: true})
	customers.AddColumn(&schema.Column{Name: "nickname", DbDataType: "text", Nullable: true})
	customers.AddConstraint(&schema.Constraint{Kind: schema.PrimaryKey, Name: "customers_pkey", Columns: []string{"id"}})
	customers.AddIndex(&schema.Index{Name: "idx_customers_email", Columns: []string{"email"}, IsUnique: true})

	orders := s.AddTable(&schema.Table{Name: "orders", Owner: "public"})
	orders.AddColumn(&schema.Column{Name: "id", DbDataType: "integer", IsPrimaryKey: true})
	orders.AddColumn(&schema.Column{Name: "customer_id", DbDataType: "integer", IsForeignKey: true})
	orders.AddColumn(&schema.Column{Name: "total", DbDataType: "numeric", Precision: intPtr(10), Scale: intPtr(2)})
	orders.AddConstraint(&schema.Constraint{Kind: schema.PrimaryKey, Name: "orders_pkey", Columns: []string{"id"}})
	orders.AddConstraint(&schema.Constraint{Kind: schema.ForeignKey, Name: "orders_customer_fk", Columns: []string{"customer_id"}, RefersToTable: "customers"})
	orders.AddConstraint(&schema.Constraint{Kind: schema.Check, Name: "orders_total_check", Expression: "total >= 0"})
	orders.AddTrigger(&schema.Trigger{Name: "orders_audit", Timing: "AFTER", Event: "INSERT"})

	v := s.AddView(&schema.View{Name: "order_totals", Owner: "public"})
	v.AddColumn(&schema.Column{Name: "customer_id", DbDataType: "integer"})

	s.StoredProcedures = append(s.StoredProcedures, &schema.StoredProcedure{
		Name:  "close_order",
		Owner: "public",
		Arguments: []*schema.Argument{
			{Name: "order_id", DbDataType: "integer", Direction: schema.In},
			{Name: "closed", DbDataType: "boolean", Direction: schema.Out},
		},
	})

	require.NoError(t, fixup.Run(s))
	return s
}

func TestNew(t *testing.T) {
	var buf bytes.Buffer
	for _, format := range []string{"", FormatText, FormatMarkdown, FormatYAML} {
		f, err := New(format, &buf)
		require.NoError(t, err, format)
		assert.NotNil(t, f)
	}
	_, err := New("html", &buf)
	assert.Error(t, err)
}

func TestTextFormatter(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, NewTextFormatter(&buf).Format(shopSchema(t)))
	out := buf.String()

	assert.Contains(t, out, "TABLE public.customers (PK: id)")
	assert.Contains(t, out, "  id: integer PK AUTO NOT NULL")
	assert.Contains(t, out, "  email: varchar(255) UNIQUE NOT NULL")
	assert.Contains(t, out, "  nickname: text\n")
	assert.Contains(t, out, "  total: numeric(10,2) NOT NULL")
	assert.Contains(t, out, "FK → public.customers")
	assert.Contains(t, out, "customer_id → public.customers(id) (many-to-one)")
	assert.Contains(t, out, "REFERENCED BY: public.orders")
	assert.Contains(t, out, "idx_customers_email (email) UNIQUE")
	assert.Contains(t, out, "CHECK orders_total_check: total >= 0")
	assert.Contains(t, out, "TRIGGER orders_audit AFTER INSERT")
	assert.Contains(t, out, "VIEW public.order_totals")
	assert.Contains(t, out, "ROUTINE public.close_order(order_id integer, closed boolean OUT)")
}

func TestMarkdownFormatter(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, NewMarkdownFormatter(&buf).Format(shopSchema(t)))
	out := buf.String()

	assert.True(t, strings.HasPrefix(out, "# Database Schema\n"))
	assert.Contains(t, out, "## public.customers")
	assert.Contains(t, out, "People who buy things")
	assert.Contains(t, out, "- **id:** integer, PK, AUTO, NOT NULL")
	assert.Contains(t, out, "### References")
	assert.Contains(t, out, "- customer_id → public.customers(id) (many-to-one)")
	assert.Contains(t, out, "- idx_customers_email on (email), unique")
	assert.Contains(t, out, "## View public.order_totals")
	assert.Contains(t, out, "## Routines")
}

func TestMarkdownFormatter_Junction(t *testing.T) {
	s := schema.New("", "sqlserver", "dbo")
	for _, name := range []string{"Student", "Course"} {
		tbl := s.AddTable(&schema.Table{Name: name, Owner: "dbo"})
		tbl.AddColumn(&schema.Column{Name: "Id", DbDataType: "int"})
		tbl.AddConstraint(&schema.Constraint{Kind: schema.PrimaryKey, Name: "PK_" + name, Columns: []string{"Id"}})
	}
	sc := s.AddTable(&schema.Table{Name: "StudentCourse", Owner: "dbo"})
	sc.AddColumn(&schema.Column{Name: "StudentId", DbDataType: "int"})
	sc.AddColumn(&schema.Column{Name: "CourseId", DbDataType: "int"})
	sc.AddConstraint(&schema.Constraint{Kind: schema.PrimaryKey, Name: "PK_SC", Columns: []string{"StudentId", "CourseId"}})
	sc.AddConstraint(&schema.Constraint{Kind: schema.ForeignKey, Name: "FK_SC_S", Columns: []string{"StudentId"}, RefersToTable: "Student"})
	sc.AddConstraint(&schema.Constraint{Kind: schema.ForeignKey, Name: "FK_SC_C", Columns: []string{"CourseId"}, RefersToTable: "Course"})
	require.NoError(t, fixup.Run(s))

	var buf bytes.Buffer
	NewMarkdownFormatter(&buf).FormatTable(sc)
	assert.Contains(t, buf.String(), "Junction between **dbo.Student** and **dbo.Course**.")
}

func TestCardinality(t *testing.T) {
	tbl := &schema.Table{
		PrimaryKey: &schema.Constraint{Columns: []string{"id"}},
		UniqueKeys: []*schema.Constraint{{Columns: []string{"passport_id"}}},
	}
	tests := []struct {
		name string
		cols []string
		want string
	}{
		{"shares primary key", []string{"ID"}, "one-to-one"},
		{"unique key", []string{"passport_id"}, "one-to-one"},
		{"plain column", []string{"customer_id"}, "many-to-one"},
		{"no columns", nil, "many-to-one"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Cardinality(tbl, &schema.Constraint{Columns: tt.cols}))
		})
	}
}

func TestYAMLFormatter(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, NewYAMLFormatter(&buf).Format(shopSchema(t)))

	var snapshot struct {
		Dialect string `yaml:"dialect"`
		Phase   string `yaml:"phase"`
		Tables  []struct {
			Name               string       `yaml:"name"`
			ForeignKeyChildren []schema.Key `yaml:"foreign_key_children"`
			ForeignKeys        []struct {
				Kind       string      `yaml:"kind"`
				Referenced *schema.Key `yaml:"referenced"`
			} `yaml:"foreign_keys"`
		} `yaml:"tables"`
	}
	require.NoError(t, yaml.Unmarshal(buf.Bytes(), &snapshot))

	assert.Equal(t, "postgresql", snapshot.Dialect)
	assert.Equal(t, schema.Finalized.String(), snapshot.Phase)
	require.Len(t, snapshot.Tables, 2)
	assert.Equal(t, []schema.Key{{Owner: "public", Name: "orders"}}, snapshot.Tables[0].ForeignKeyChildren)
	require.Len(t, snapshot.Tables[1].ForeignKeys, 1)
	assert.Equal(t, "FOREIGN KEY", snapshot.Tables[1].ForeignKeys[0].Kind)
	assert.Equal(t, &schema.Key{Owner: "public", Name: "customers"}, snapshot.Tables[1].ForeignKeys[0].Referenced)
	assert.NotContains(t, buf.String(), "connection")
}

func TestMultiFileFormatter(t *testing.T) {
	for _, format := range []string{FormatText, FormatMarkdown} {
		t.Run(format, func(t *testing.T) {
			dir := t.TempDir()
			f := NewMultiFileFormatter(dir, format)
			require.NoError(t, f.Format(shopSchema(t)))

			ext := ".txt"
			if format == FormatMarkdown {
				ext = ".md"
			}
			overview, err := os.ReadFile(filepath.Join(dir, "_overview"+ext))
			require.NoError(t, err)
			assert.Contains(t, string(overview), "(references: public.customers)")
			assert.Contains(t, string(overview), "public.order_totals")

			customers, err := os.ReadFile(filepath.Join(dir, "public.customers"+ext))
			require.NoError(t, err)
			assert.Contains(t, string(customers), "public.orders(customer_id) → id (many-to-one)")

			_, err = os.Stat(filepath.Join(dir, "public.orders"+ext))
			assert.NoError(t, err)
		})
	}
}

func TestMultiFileFormatter_RejectsYAML(t *testing.T) {
	err := NewMultiFileFormatter(t.TempDir(), FormatYAML).Format(shopSchema(t))
	assert.Error(t, err)
}

func TestFindIncomingRelations_SkipsUnresolved(t *testing.T) {
	s := shopSchema(t)
	customers := s.FindTable("public", "customers")
	s.FindTable("public", "orders").ForeignKeys[0].Referenced = nil

	assert.Empty(t, FindIncomingRelations(customers, s))
}
