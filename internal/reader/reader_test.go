package reader

import (
	"context"
	"path"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tordrt/schemagraph/internal/accessor"
	"github.com/tordrt/schemagraph/internal/db"
	"github.com/tordrt/schemagraph/internal/errs"
	"github.com/tordrt/schemagraph/internal/schema"
)

// shop is Customers <- Orders, plus a Student/Course junction and a view.
func shop() *fakeAccessor {
	f := newFake()
	f.add(accessor.Tables,
		tableRow("dbo", "Customers"),
		tableRow("dbo", "Orders"),
		tableRow("dbo", "Student"),
		tableRow("dbo", "Course"),
		tableRow("dbo", "StudentCourse"),
	)
	f.add(accessor.Columns,
		columnRow("dbo", "Customers", "Id", 1, "int"),
		columnRow("dbo", "Customers", "Name", 2, "varchar(50)"),
		columnRow("dbo", "Orders", "CustomerId", 2, "int"),
		columnRow("dbo", "Orders", "Id", 1, "int"),
		columnRow("dbo", "Student", "Id", 1, "int"),
		columnRow("dbo", "Course", "Id", 1, "int"),
		columnRow("dbo", "StudentCourse", "StudentId", 1, "int"),
		columnRow("dbo", "StudentCourse", "CourseId", 2, "int"),
		columnRow("dbo", "OrderTotals", "CustomerId", 1, "int"),
		columnRow("dbo", "OrderTotals", "Total", 2, "numeric(10,2)"),
	)
	f.add(accessor.Views, db.Row{"table_schema": "dbo", "view_name": "OrderTotals", "view_definition": "SELECT ..."})
	f.add(accessor.PrimaryKeys,
		keyRow("dbo", "Customers", "PK_Customers", "Id", 1),
		keyRow("dbo", "Orders", "PK_Orders", "Id", 1),
		keyRow("dbo", "Student", "PK_Student", "Id", 1),
		keyRow("dbo", "Course", "PK_Course", "Id", 1),
		keyRow("dbo", "StudentCourse", "PK_SC", "CourseId", 2),
		keyRow("dbo", "StudentCourse", "PK_SC", "StudentId", 1),
	)
	f.add(accessor.ForeignKeys,
		fkRow("dbo", "Orders", "FK_Orders_Customers", "CustomerId", "Customers", "Id"),
		fkRow("dbo", "StudentCourse", "FK_SC_Student", "StudentId", "Student", "Id"),
		fkRow("dbo", "StudentCourse", "FK_SC_Course", "CourseId", "Course", "Id"),
	)
	f.add(accessor.Users, db.Row{"user_name": "app"})
	f.add(accessor.DataTypes,
		db.Row{"type_name": "int"},
		db.Row{"type_name": "varchar"},
		db.Row{"type_name": "numeric"},
	)
	return f
}

func TestReadAll(t *testing.T) {
	f := shop()
	r := New(f, Options{})

	s, err := r.ReadAll(context.Background())
	require.NoError(t, err)
	require.NotNil(t, s)
	assert.Equal(t, schema.Finalized, s.Phase)
	assert.Len(t, s.Tables, 5)
	assert.Len(t, s.Users, 1)

	orders := s.FindTable("dbo", "Orders")
	customers := s.FindTable("dbo", "Customers")
	require.NotNil(t, orders)
	require.NotNil(t, customers)

	assert.Equal(t, []string{"Id", "CustomerId"}, []string{orders.Columns[0].Name, orders.Columns[1].Name})
	for i, c := range orders.Columns {
		assert.Equal(t, i+1, c.Ordinal)
		assert.Equal(t, orders.Key(), c.Table)
	}

	customerID := orders.Column("CustomerId")
	require.NotNil(t, customerID.ForeignKeyTable)
	assert.Equal(t, customers.Key(), *customerID.ForeignKeyTable)
	assert.Equal(t, []schema.Key{orders.Key()}, customers.ForeignKeyChildren)
	assert.True(t, orders.Column("Id").IsPrimaryKey)
	assert.True(t, customerID.DataType.IsNumeric())

	name := customers.Column("Name")
	assert.Equal(t, "varchar", name.DbDataType)
	require.NotNil(t, name.Length)
	assert.Equal(t, 50, *name.Length)
	assert.True(t, name.DataType.IsString())

	sc := s.FindTable("dbo", "StudentCourse")
	assert.Equal(t, []string{"StudentId", "CourseId"}, sc.PrimaryKey.Columns)
	other, ok := sc.Traverse(s.FindTable("dbo", "Student").Key())
	require.True(t, ok)
	assert.Equal(t, "Course", other.Name)

	view := s.FindView("dbo", "OrderTotals")
	require.NotNil(t, view)
	require.Len(t, view.Columns, 2)
	assert.Equal(t, "numeric", view.Columns[1].DbDataType)
	assert.Nil(t, s.FindTable("dbo", "OrderTotals"))

	assert.NotNil(t, s.Sequences)
	assert.Empty(t, s.Sequences)
	assert.Same(t, s, r.Schema())
}

func TestReadAll_HardFailureYieldsNoSchema(t *testing.T) {
	f := shop()
	r := New(f, Options{})
	before := r.Schema()

	f.errs[accessor.ForeignKeys] = errs.New(errs.ErrKindPermissionDenied, "denied")
	s, err := r.ReadAll(context.Background())
	require.Error(t, err)
	assert.Nil(t, s)
	assert.True(t, errs.IsPermissionDenied(err))
	assert.Same(t, before, r.Schema())
}

func TestReadAll_Exclusions(t *testing.T) {
	f := shop()
	r := New(f, Options{Exclude: Exclusions{
		Table: func(name string) bool { ok, _ := path.Match("Cust*", name); return ok },
		View:  func(name string) bool { return name == "OrderTotals" },
	}})

	s, err := r.ReadAll(context.Background())
	require.NoError(t, err)

	assert.Nil(t, s.FindTable("dbo", "Customers"))
	assert.Empty(t, s.Views)

	orders := s.FindTable("dbo", "Orders")
	require.Len(t, orders.ForeignKeys, 1)
	assert.Nil(t, orders.ForeignKeys[0].Referenced)
	assert.Nil(t, orders.Column("CustomerId").ForeignKeyTable)

	keys, err := r.TableList(context.Background())
	require.NoError(t, err)
	for _, k := range keys {
		assert.NotEqual(t, "Customers", k.Name)
	}
}

func TestReadAll_Progress(t *testing.T) {
	var events []Progress
	r := New(shop(), Options{OnProgress: func(p Progress) { events = append(events, p) }})

	_, err := r.ReadAll(context.Background())
	require.NoError(t, err)

	var tables []Progress
	for _, e := range events {
		if e.Kind == KindTable {
			tables = append(tables, e)
		}
	}
	require.Len(t, tables, 10)
	for i := 0; i < 5; i++ {
		assert.Equal(t, Reading, tables[i].Phase)
		assert.Equal(t, i, tables[i].Index)
		assert.Equal(t, 5, tables[i].Count)
		assert.Equal(t, Processing, tables[i+5].Phase)
	}
	assert.Equal(t, "Customers", tables[0].Name)
}

func TestDiagnostics(t *testing.T) {
	f := shop()
	f.add(accessor.PrimaryKeys, keyRow("dbo", "Customers", "PK_Customers_Old", "Legacy", 1))
	f.soft[accessor.ColumnDescriptions] = errs.New(errs.ErrKindPermissionDenied, "denied")
	r := New(f, Options{})

	s, err := r.ReadAll(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "PK_Customers", s.FindTable("dbo", "Customers").PrimaryKey.Name)

	diags := r.Diagnostics()
	require.Len(t, diags, 2)
	assert.Equal(t, Degraded, diags[0].Kind)
	assert.Equal(t, "column_descriptions", diags[0].Capability)
	assert.Equal(t, AmbiguousPrimaryKey, diags[1].Kind)
	assert.Equal(t, "dbo.Customers", diags[1].Object)
	assert.Contains(t, diags[1].Message, "PK_Customers_Old")
}

func TestReadAll_DiagnosticsRestartPerRead(t *testing.T) {
	f := shop()
	f.soft[accessor.Users] = errs.New(errs.ErrKindPermissionDenied, "denied")
	r := New(f, Options{})

	for i := 0; i < 2; i++ {
		_, err := r.ReadAll(context.Background())
		require.NoError(t, err)
	}

	diags := r.Diagnostics()
	require.Len(t, diags, 1)
	assert.Equal(t, Degraded, diags[0].Kind)
	assert.Equal(t, "users", diags[0].Capability)
}

func TestReadAll_FailureKeepsPreviousDiagnostics(t *testing.T) {
	f := shop()
	f.soft[accessor.Users] = errs.New(errs.ErrKindPermissionDenied, "denied")
	r := New(f, Options{})

	first, err := r.ReadAll(context.Background())
	require.NoError(t, err)

	delete(f.soft, accessor.Users)
	f.soft[accessor.Sequences] = errs.New(errs.ErrKindPermissionDenied, "denied")
	f.errs[accessor.Views] = errs.New(errs.ErrKindConnectionFailed, "connection reset")
	_, err = r.ReadAll(context.Background())
	require.Error(t, err)

	assert.Same(t, first, r.Schema())
	diags := r.Diagnostics()
	require.Len(t, diags, 1)
	assert.Equal(t, "users", diags[0].Capability)
}

func TestReadAll_FetchesColumnsOnce(t *testing.T) {
	tests := []struct {
		name        string
		viewColumns bool
	}{
		{"view columns left over", true},
		{"every column set matches a table", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFake()
			f.add(accessor.Tables, tableRow("dbo", "Customers"))
			f.add(accessor.Columns, columnRow("dbo", "Customers", "Id", 1, "int"))
			if tt.viewColumns {
				f.add(accessor.Columns, columnRow("dbo", "Summary", "Total", 1, "int"))
			}
			f.add(accessor.Views, db.Row{"table_schema": "dbo", "view_name": "Summary", "view_definition": "SELECT ..."})
			r := New(f, Options{})

			s, err := r.ReadAll(context.Background())
			require.NoError(t, err)
			assert.Len(t, f.callsTo(accessor.Columns), 1)
			require.Len(t, s.Views, 1)
			if tt.viewColumns {
				assert.Len(t, s.Views[0].Columns, 1)
			} else {
				assert.Empty(t, s.Views[0].Columns)
			}
		})
	}
}

func TestAllViews_FetchesColumns(t *testing.T) {
	f := shop()
	r := New(f, Options{})

	views, err := r.AllViews(context.Background())
	require.NoError(t, err)
	assert.Len(t, f.callsTo(accessor.Columns), 1)
	require.Len(t, views, 1)
	assert.Len(t, views[0].Columns, 2)
}

func TestTable_InfersOwner(t *testing.T) {
	f := newFake()
	f.add(accessor.Tables, tableRow("sales", "Orders"))
	f.add(accessor.Columns,
		columnRow("sales", "Orders", "Id", 1, "int"),
		columnRow("sales", "Orders", "Total", 2, "numeric"),
	)
	f.add(accessor.PrimaryKeys, keyRow("sales", "Orders", "pk_orders", "Id", 1))
	r := New(f, Options{})

	tbl, err := r.Table(context.Background(), "Orders")
	require.NoError(t, err)
	require.NotNil(t, tbl)
	assert.Equal(t, "sales", tbl.Owner)
	assert.Len(t, tbl.Columns, 2)
	assert.True(t, tbl.Column("Id").IsPrimaryKey)

	calls := f.callsTo(accessor.Columns)
	require.Len(t, calls, 2)
	assert.Equal(t, accessor.Filter{Name: "Orders"}, calls[0])
	assert.Equal(t, accessor.Filter{Owner: "sales", Name: "Orders"}, calls[1])
	assert.Equal(t, []accessor.Filter{{Owner: "sales", Name: "Orders"}}, f.callsTo(accessor.PrimaryKeys))
}

func TestTable_ConfiguredOwnerSkipsRefetch(t *testing.T) {
	f := shop()
	r := New(f, Options{})

	tbl, err := r.Table(context.Background(), "Orders")
	require.NoError(t, err)
	require.NotNil(t, tbl)
	assert.Len(t, f.callsTo(accessor.Columns), 1)
}

func TestTable_Missing(t *testing.T) {
	r := New(shop(), Options{})

	tbl, err := r.Table(context.Background(), "Invoices")
	require.NoError(t, err)
	assert.Nil(t, tbl)

	view, err := r.Table(context.Background(), "OrderTotals")
	require.NoError(t, err)
	assert.Nil(t, view)
	assert.Empty(t, r.Schema().Tables)
}

func TestTable_MergesWithoutDuplicates(t *testing.T) {
	f := shop()
	r := New(f, Options{})
	ctx := context.Background()

	_, err := r.AllTables(ctx)
	require.NoError(t, err)
	orders := r.Schema().FindTable("dbo", "Orders")

	again, err := r.Table(ctx, "Orders")
	require.NoError(t, err)
	assert.Same(t, orders, again)
	assert.Len(t, r.Schema().Tables, 5)
	assert.Len(t, again.Columns, 2)
	assert.Len(t, again.ForeignKeys, 1)
	assert.NotNil(t, again.PrimaryKey)
	assert.NotNil(t, again.Column("CustomerId").ForeignKeyTable)
}

func TestTable_DuringLoadingSkipsFixup(t *testing.T) {
	r := New(shop(), Options{})
	r.Schema().BeginLoading()

	_, err := r.Table(context.Background(), "Customers")
	require.NoError(t, err)
	orders, err := r.Table(context.Background(), "Orders")
	require.NoError(t, err)
	assert.Nil(t, orders.ForeignKeys[0].Referenced)

	r.Schema().Finalize()
	_, err = r.AllTables(context.Background())
	require.NoError(t, err)
	assert.NotNil(t, orders.ForeignKeys[0].Referenced)
}

func TestDataTypes_RepropagatesLoadedColumns(t *testing.T) {
	r := New(shop(), Options{})
	ctx := context.Background()

	tables, err := r.AllTables(ctx)
	require.NoError(t, err)
	require.NotEmpty(t, tables)
	id := r.Schema().FindTable("dbo", "Orders").Column("Id")
	assert.Nil(t, id.DataType)

	types, err := r.DataTypes(ctx)
	require.NoError(t, err)
	assert.Len(t, types, 3)
	assert.True(t, id.DataType.IsNumeric())
}

func TestAllStoredProcedures(t *testing.T) {
	f := newFake()
	f.add(accessor.Procedures,
		db.Row{"routine_schema": "dbo", "routine_name": "usp_orders"},
		db.Row{"routine_schema": "dbo", "routine_name": "tmp_cleanup"},
	)
	f.add(accessor.Functions, db.Row{"routine_schema": "dbo", "routine_name": "fn_total"})
	f.add(accessor.Packages,
		db.Row{"owner": "dbo", "package_name": "billing", "member_name": "charge", "member_type": "PROCEDURE"},
		db.Row{"owner": "dbo", "package_name": "legacy", "member_name": "old", "member_type": "PROCEDURE"},
	)
	f.add(accessor.Arguments,
		db.Row{"routine_schema": "dbo", "routine_name": "usp_orders", "parameter_name": "@customer", "ordinal_position": int64(1), "data_type": "int", "parameter_mode": "IN"},
		db.Row{"routine_schema": "dbo", "routine_name": "usp_orders", "parameter_name": "@count", "ordinal_position": int64(2), "data_type": "int", "parameter_mode": "OUT"},
		db.Row{"routine_schema": "dbo", "routine_name": "fn_total", "ordinal_position": int64(0), "data_type": "decimal"},
		db.Row{"owner": "dbo", "package_name": "billing", "routine_name": "charge", "argument_name": "P_AMOUNT", "position": int64(1), "data_type": "NUMBER", "in_out": "IN"},
	)
	f.add(accessor.ProcedureSource, db.Row{"routine_schema": "dbo", "routine_name": "usp_orders", "name": "usp_orders", "text": "CREATE PROCEDURE usp_orders AS ..."})
	f.add(accessor.ResultSets,
		db.Row{"routine_schema": "dbo", "routine_name": "usp_orders", "column_name": "Id", "ordinal_position": int64(1), "data_type": "int"},
	)
	f.add(accessor.DataTypes, db.Row{"type_name": "int"})

	r := New(f, Options{Exclude: Exclusions{
		Procedure: func(name string) bool { return name == "tmp_cleanup" },
		Package:   func(name string) bool { return name == "legacy" },
	}})
	ctx := context.Background()

	keys, err := r.StoredProcedureList(ctx)
	require.NoError(t, err)
	assert.Equal(t, []schema.Key{
		{Owner: "dbo", Name: "usp_orders"},
		{Owner: "dbo", Name: "fn_total"},
		{Owner: "dbo", Name: "billing"},
	}, keys)

	_, err = r.DataTypes(ctx)
	require.NoError(t, err)
	require.NoError(t, r.AllStoredProcedures(ctx))
	s := r.Schema()

	require.Len(t, s.StoredProcedures, 1)
	proc := s.StoredProcedures[0]
	require.Len(t, proc.Arguments, 2)
	assert.Equal(t, schema.Out, proc.Arguments[1].Direction)
	assert.Equal(t, 2, proc.Arguments[1].Ordinal)
	assert.True(t, proc.Arguments[0].DataType.IsNumeric())
	assert.Contains(t, proc.Source, "CREATE PROCEDURE")
	require.Len(t, proc.ResultSets, 1)
	assert.Equal(t, "Id", proc.ResultSets[0].Columns[0].Name)

	require.Len(t, s.Functions, 1)
	assert.Equal(t, "decimal", s.Functions[0].ReturnType)

	require.Len(t, s.Packages, 1)
	charge := s.FindRoutine("dbo", "billing", "charge")
	require.NotNil(t, charge)
	require.Len(t, charge.Arguments, 1)
	assert.Equal(t, "P_AMOUNT", charge.Arguments[0].Name)
}

func TestOwnersAndSequences(t *testing.T) {
	f := newFake()
	f.add(accessor.Owners, db.Row{"schema_name": "dbo"}, db.Row{"schema_name": "sales"})
	f.add(accessor.Sequences, db.Row{"sequence_schema": "dbo", "sequence_name": "order_seq", "increment": int64(5)})
	r := New(f, Options{})

	owners, err := r.Owners(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"dbo", "sales"}, owners)

	seqs, err := r.Sequences(context.Background())
	require.NoError(t, err)
	require.Len(t, seqs, 1)
	assert.Equal(t, int64(5), seqs[0].IncrementBy)
}
