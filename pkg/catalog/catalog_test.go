package catalog

import (
	"strings"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func twoColDef() TableDef {
	return TableDef{Columns: []ColumnDef{
		{Name: "id", Type: TypeInt, Flags: FlagPrimaryKey},
		{Name: "name", Type: TypeString, Flags: FlagNullable},
	}}
}

func TestCreateTable(t *testing.T) {
	c := New()
	tbl, err := c.CreateTable("users", twoColDef())
	require.NoError(t, err)
	assert.Equal(t, "users", tbl.Name)
	assert.Equal(t, int64(1), tbl.ID)

	tbl2, err := c.CreateTable("orders", twoColDef())
	require.NoError(t, err)
	assert.Equal(t, int64(2), tbl2.ID, "ids are never reused")
}

func TestCreateTableDuplicate(t *testing.T) {
	c := New()
	_, err := c.CreateTable("users", twoColDef())
	require.NoError(t, err)

	_, err = c.CreateTable("users", twoColDef())
	assert.True(t, errors.Is(err, ErrTableExists))

	// lookup is case-insensitive, so creation must be too
	_, err = c.CreateTable("USERS", twoColDef())
	assert.True(t, errors.Is(err, ErrTableExists))
}

func TestCreateTableNameTooLong(t *testing.T) {
	c := New()
	_, err := c.CreateTable(strings.Repeat("x", MaxTableNameLen+1), twoColDef())
	assert.True(t, errors.Is(err, ErrNameTooLong))

	_, err = c.CreateTable(strings.Repeat("x", MaxTableNameLen), twoColDef())
	assert.NoError(t, err)
}

func TestCreateTableDuplicateColumn(t *testing.T) {
	c := New()
	def := TableDef{Columns: []ColumnDef{
		{Name: "id", Type: TypeInt},
		{Name: "ID", Type: TypeString},
	}}
	_, err := c.CreateTable("t", def)
	assert.True(t, errors.Is(err, ErrDuplicateCol))
}

func TestTableByNameCaseInsensitive(t *testing.T) {
	c := New()
	_, err := c.CreateTable("Users", twoColDef())
	require.NoError(t, err)

	assert.NotNil(t, c.TableByName("users"))
	assert.NotNil(t, c.TableByName("USERS"))
	assert.Nil(t, c.TableByName("orders"))
}

func TestDropTable(t *testing.T) {
	c := New()
	tbl, err := c.CreateTable("users", twoColDef())
	require.NoError(t, err)

	require.NoError(t, c.DropTable("USERS"))
	assert.Nil(t, c.TableByName("users"))
	assert.Nil(t, c.TableByID(tbl.ID))

	err = c.DropTable("users")
	assert.True(t, errors.Is(err, ErrTableNotFound))
}

func TestTablesSortedByName(t *testing.T) {
	c := New()
	for _, name := range []string{"zebra", "alpha", "mango"} {
		_, err := c.CreateTable(name, twoColDef())
		require.NoError(t, err)
	}
	var got []string
	for _, tbl := range c.Tables() {
		got = append(got, tbl.Name)
	}
	assert.Equal(t, []string{"alpha", "mango", "zebra"}, got)
}

func TestRegisterTransient(t *testing.T) {
	c := New()
	_, err := c.CreateTable("base", twoColDef())
	require.NoError(t, err)

	tr := &Table{Name: "join:abc", Def: twoColDef()}
	c.RegisterTransient(tr)
	assert.Equal(t, int64(2), tr.ID)
	assert.NotNil(t, c.TableByName("join:abc"))

	require.NoError(t, c.DropTable("join:abc"))
}

func TestStatsSampledLazily(t *testing.T) {
	c := New()
	tbl, err := c.CreateTable("t", twoColDef())
	require.NoError(t, err)
	for i := 0; i < 10; i++ {
		require.NoError(t, tbl.AppendRow(Row{Values: []Value{
			NewInt(int64(i)), NewString("x"),
		}}))
	}

	s := c.Stats(tbl.ID)
	assert.Equal(t, int64(10), s.RowCount)
	assert.Equal(t, int64(10), s.DistinctFor(0))
	assert.Equal(t, int64(1), s.DistinctFor(1))

	// cached until invalidated
	require.NoError(t, tbl.AppendRow(Row{Values: []Value{NewInt(99), NewString("y")}}))
	assert.Equal(t, int64(10), c.Stats(tbl.ID).RowCount)

	c.InvalidateStats(tbl.ID)
	assert.Equal(t, int64(11), c.Stats(tbl.ID).RowCount)
}

func TestStatsUnknownTable(t *testing.T) {
	c := New()
	s := c.Stats(999)
	assert.Equal(t, int64(DefaultRowEstimate), s.RowCount)
	assert.Equal(t, int64(DefaultDistinctEstimate), s.DistinctFor(0))
}

func TestStatsEmptyTableSamplesExactly(t *testing.T) {
	c := New()
	tbl, err := c.CreateTable("t", twoColDef())
	require.NoError(t, err)
	s := c.Stats(tbl.ID)
	assert.Equal(t, int64(0), s.RowCount, "a sampled empty table is exact, not a placeholder")
	assert.Equal(t, int64(1), s.DistinctFor(0), "distinct floor keeps selectivity finite")
}

func TestAppendRowPadsWithNull(t *testing.T) {
	c := New()
	tbl, err := c.CreateTable("t", twoColDef())
	require.NoError(t, err)

	require.NoError(t, tbl.AppendRow(Row{Values: []Value{NewInt(1)}}))
	assert.True(t, tbl.Rows[0].Values[1].IsNull())

	err = tbl.AppendRow(Row{Values: []Value{NewInt(1), NewString("a"), NewInt(3)}})
	assert.Error(t, err, "rows wider than the table are rejected")
}

func TestRemoveRowsCompacts(t *testing.T) {
	c := New()
	tbl, err := c.CreateTable("t", twoColDef())
	require.NoError(t, err)
	for i := 0; i < 5; i++ {
		require.NoError(t, tbl.AppendRow(Row{Values: []Value{NewInt(int64(i)), NewString("x")}}))
	}

	tbl.RemoveRows(map[int]bool{1: true, 3: true})
	require.Equal(t, 3, tbl.NumRows())
	var got []int64
	for _, r := range tbl.Rows {
		got = append(got, r.Values[0].Int)
	}
	assert.Equal(t, []int64{0, 2, 4}, got, "survivors keep their relative order")
}

func TestColumnIndexAndNames(t *testing.T) {
	def := twoColDef()
	assert.Equal(t, 0, def.ColumnIndex("ID"))
	assert.Equal(t, 1, def.ColumnIndex("name"))
	assert.Equal(t, -1, def.ColumnIndex("missing"))
	assert.Equal(t, []string{"id", "name"}, def.ColumnNames())
}
