package schema

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tordrt/schemagraph/internal/errs"
)

func TestFindTable_OwnerRules(t *testing.T) {
	s := New("", "test", "")
	sales := s.AddTable(&Table{Name: "Orders", Owner: "sales"})
	hr := s.AddTable(&Table{Name: "Orders", Owner: "hr"})

	assert.Same(t, sales, s.FindTable("sales", "Orders"))
	assert.Same(t, hr, s.FindTable("HR", "orders"))
	assert.Nil(t, s.FindTable("ops", "Orders"))
	assert.Same(t, sales, s.FindTable("", "Orders"), "first in load order without an owner")

	bare := s.AddTable(&Table{Name: "Orders"})
	assert.Same(t, bare, s.FindTable("", "Orders"), "ownerless table wins without an owner")
}

func TestAddTable_KeepsExisting(t *testing.T) {
	s := New("", "test", "")
	first := s.AddTable(&Table{Name: "A", Owner: "dbo"})
	second := s.AddTable(&Table{Name: "A", Owner: "dbo"})

	assert.Same(t, first, second)
	assert.Len(t, s.Tables, 1)
	assert.Same(t, first, s.Table(first.Key()))
}

func TestAddColumn_Ordinals(t *testing.T) {
	tbl := &Table{Name: "T", Owner: "dbo"}
	for _, name := range []string{"a", "b", "c"} {
		tbl.AddColumn(&Column{Name: name})
	}
	for i, c := range tbl.Columns {
		assert.Equal(t, i+1, c.Ordinal)
		assert.Equal(t, Key{Owner: "dbo", Name: "T"}, c.Table)
	}

	tbl.ClearColumns()
	tbl.AddColumn(&Column{Name: "z"})
	assert.Equal(t, 1, tbl.Columns[0].Ordinal)
}

func TestColumn_ExactMatchWins(t *testing.T) {
	tbl := &Table{Name: "T"}
	lower := &Column{Name: "id"}
	upper := &Column{Name: "ID"}
	tbl.AddColumn(lower)
	tbl.AddColumn(upper)

	assert.Same(t, upper, tbl.Column("ID"))
	assert.Same(t, lower, tbl.Column("Id"))
	assert.Nil(t, tbl.Column("missing"))
}

func TestAddConstraint(t *testing.T) {
	tbl := &Table{Name: "T", Owner: "dbo"}
	assert.True(t, tbl.AddConstraint(&Constraint{Kind: PrimaryKey, Name: "pk", Columns: []string{"a"}}))
	assert.False(t, tbl.AddConstraint(&Constraint{Kind: PrimaryKey, Name: "pk2", Columns: []string{"b"}}))
	assert.Equal(t, "pk", tbl.PrimaryKey.Name)
	assert.False(t, tbl.IsComposite())

	assert.True(t, tbl.AddConstraint(&Constraint{Kind: ForeignKey, Name: "fk"}))
	assert.False(t, tbl.AddConstraint(&Constraint{Kind: ForeignKey, Name: "fk"}))
	assert.Len(t, tbl.ForeignKeys, 1)
	assert.Equal(t, "T", tbl.ForeignKeys[0].TableName)
	assert.Equal(t, "dbo", tbl.ForeignKeys[0].TableOwner)

	composite := &Table{Name: "J"}
	composite.AddConstraint(&Constraint{Kind: PrimaryKey, Columns: []string{"a", "b"}})
	assert.True(t, composite.IsComposite())
}

func TestTraverse(t *testing.T) {
	a, b := Key{Name: "A"}, Key{Name: "B"}
	j := &Table{Name: "J", ManyToMany: []Key{a, b}}

	to, ok := j.Traverse(a)
	require.True(t, ok)
	assert.Equal(t, b, to)
	back, ok := j.Traverse(to)
	require.True(t, ok)
	assert.Equal(t, a, back)

	_, ok = j.Traverse(Key{Name: "C"})
	assert.False(t, ok)
	_, ok = (&Table{Name: "plain"}).Traverse(a)
	assert.False(t, ok)
}

func TestNormalizeTypeName(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"VARCHAR2(30 BYTE)", "varchar2"},
		{"numeric(10,2)", "numeric"},
		{"timestamp(6) with time zone", "timestamp with time zone"},
		{"  Double   Precision ", "double precision"},
		{"int", "int"},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, NormalizeTypeName(tt.in))
		})
	}
}

func TestDataTypeLookup(t *testing.T) {
	s := New("", "test", "")
	assert.Nil(t, s.DataType("int"))

	s.SetDataTypes([]*DataType{{Name: "INT", Kind: KindNumeric}})
	assert.True(t, s.DataType("int(11)").IsNumeric())

	s.DataTypes = append(s.DataTypes, &DataType{Name: "text", Kind: KindString})
	assert.True(t, s.DataType("TEXT").IsString())
}

func TestPhase(t *testing.T) {
	s := New("", "test", "")
	require.NoError(t, s.RequireFinalized())

	s.BeginLoading()
	err := s.RequireFinalized()
	require.Error(t, err)
	assert.True(t, errs.IsInvalidState(err))
	assert.Equal(t, "loading", s.Phase.String())

	s.Finalize()
	assert.NoError(t, s.RequireFinalized())
}

func TestFindRoutine(t *testing.T) {
	s := New("", "test", "")
	s.StoredProcedures = []*StoredProcedure{{Name: "p", Owner: "dbo"}}
	s.Functions = []*Function{{StoredProcedure: StoredProcedure{Name: "f", Owner: "dbo"}}}
	s.Packages = []*Package{{
		Name:             "pkg",
		Owner:            "dbo",
		StoredProcedures: []*StoredProcedure{{Name: "member", Owner: "dbo", Package: "pkg"}},
	}}

	assert.Same(t, s.StoredProcedures[0], s.FindRoutine("dbo", "", "P"))
	assert.Same(t, &s.Functions[0].StoredProcedure, s.FindRoutine("", "", "f"))
	member := s.FindRoutine("dbo", "pkg", "member")
	require.NotNil(t, member)
	assert.Equal(t, Key{Owner: "dbo", Name: "pkg.member"}, member.Key())
	assert.Nil(t, s.FindRoutine("dbo", "", "member"))
	assert.Len(t, s.AllRoutines(), 3)
}

func TestEnumTextRoundTrip(t *testing.T) {
	for _, k := range []ConstraintKind{PrimaryKey, ForeignKey, UniqueKey, Check, Default} {
		text, err := k.MarshalText()
		require.NoError(t, err)
		var got ConstraintKind
		require.NoError(t, got.UnmarshalText(text))
		assert.Equal(t, k, got)
	}
	for _, d := range []Direction{In, Out, InOut, Return} {
		text, _ := d.MarshalText()
		var got Direction
		require.NoError(t, got.UnmarshalText(text))
		assert.Equal(t, d, got)
	}
	var p Phase
	require.NoError(t, p.UnmarshalText([]byte("finalized")))
	assert.Equal(t, Finalized, p)

	var k TypeKind
	assert.Error(t, k.UnmarshalText([]byte("quantum")))
}
