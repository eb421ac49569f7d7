package sql

import (
	"strings"
	"testing"

	"github.com/relishdb/relish/pkg/catalog"
	"github.com/relishdb/relish/pkg/index"
)

// testCatalog builds a catalog with the two tables most tests resolve
// against: users(id, name, age) and orders(id, user_id, total).
func testCatalog(t *testing.T) *catalog.Catalog {
	t.Helper()
	cat := catalog.New()
	_, err := cat.CreateTable("users", catalog.TableDef{Columns: []catalog.ColumnDef{
		{Name: "id", Type: catalog.TypeInt, Flags: catalog.FlagPrimaryKey},
		{Name: "name", Type: catalog.TypeString, Flags: catalog.FlagNullable},
		{Name: "age", Type: catalog.TypeInt, Flags: catalog.FlagNullable},
	}})
	if err != nil {
		t.Fatalf("create users: %v", err)
	}
	_, err = cat.CreateTable("orders", catalog.TableDef{Columns: []catalog.ColumnDef{
		{Name: "id", Type: catalog.TypeInt, Flags: catalog.FlagPrimaryKey},
		{Name: "user_id", Type: catalog.TypeInt, Flags: catalog.FlagNullable},
		{Name: "total", Type: catalog.TypeFloat, Flags: catalog.FlagNullable},
	}})
	if err != nil {
		t.Fatalf("create orders: %v", err)
	}
	return cat
}

func mustParse(t *testing.T, cat *catalog.Catalog, input string) Statement {
	t.Helper()
	stmt, err := NewParser(input, cat).Parse()
	if err != nil {
		t.Fatalf("parse %q: %v", input, err)
	}
	return stmt
}

func parseErr(t *testing.T, cat *catalog.Catalog, input string) *ParseError {
	t.Helper()
	_, err := NewParser(input, cat).Parse()
	if err == nil {
		t.Fatalf("parse %q: expected error", input)
	}
	pe, ok := err.(*ParseError)
	if !ok {
		t.Fatalf("parse %q: want *ParseError, got %T (%v)", input, err, err)
	}
	return pe
}

func TestParseCreateTable(t *testing.T) {
	cat := catalog.New()
	stmt := mustParse(t, cat, `CREATE TABLE t (
		id INT PRIMARY KEY,
		name STRING NOT NULL,
		email TEXT UNIQUE,
		owner INT REFERENCES users(id)
	) STRICT`)
	ct, ok := stmt.(*CreateTableStmt)
	if !ok {
		t.Fatalf("want *CreateTableStmt, got %T", stmt)
	}
	if ct.Name != "t" || !ct.Def.Strict {
		t.Fatalf("name=%q strict=%v", ct.Name, ct.Def.Strict)
	}
	cols := ct.Def.Columns
	if len(cols) != 4 {
		t.Fatalf("want 4 columns, got %d", len(cols))
	}
	if cols[0].Flags&catalog.FlagPrimaryKey == 0 || cols[0].Nullable() {
		t.Error("id should be a non-nullable primary key")
	}
	if cols[1].Nullable() {
		t.Error("name should be NOT NULL")
	}
	if cols[2].Type != catalog.TypeString || !cols[2].Unique() {
		t.Error("email should be a unique string column")
	}
	if !cols[3].IsForeignKey() || cols[3].RefTable != "users" || cols[3].RefColumn != "id" {
		t.Errorf("owner foreign key: %+v", cols[3])
	}
}

func TestParseSelectResolvesColumns(t *testing.T) {
	cat := testCatalog(t)
	stmt := mustParse(t, cat, "SELECT name, age FROM users WHERE id = 1")
	sel := stmt.(*SelectStmt)
	if sel.TableName != "users" {
		t.Fatalf("table: %q", sel.TableName)
	}
	ref := sel.Items[0].Expr.(*ColumnRef)
	if ref.Col != 1 {
		t.Errorf("name resolved to column %d, want 1", ref.Col)
	}
	ref = sel.Items[1].Expr.(*ColumnRef)
	if ref.Col != 2 {
		t.Errorf("age resolved to column %d, want 2", ref.Col)
	}
	where := sel.Where.(*BinaryExpr)
	if where.Op != TOKEN_EQ {
		t.Errorf("where op: %d", where.Op)
	}
	if where.Left.(*ColumnRef).Col != 0 {
		t.Errorf("id resolved to column %d, want 0", where.Left.(*ColumnRef).Col)
	}
}

func TestParseSelectAlias(t *testing.T) {
	cat := testCatalog(t)
	sel := mustParse(t, cat, "SELECT age * 2 AS doubled FROM users").(*SelectStmt)
	if sel.Items[0].Alias != "doubled" {
		t.Fatalf("alias: %q", sel.Items[0].Alias)
	}
}

func TestArithmeticPrecedence(t *testing.T) {
	cat := testCatalog(t)
	sel := mustParse(t, cat, "SELECT * FROM users WHERE age + 2 * 3 = 13").(*SelectStmt)
	eq := sel.Where.(*BinaryExpr)
	if eq.Op != TOKEN_EQ {
		t.Fatalf("top op: %d", eq.Op)
	}
	plus := eq.Left.(*BinaryExpr)
	if plus.Op != TOKEN_PLUS {
		t.Fatalf("want + below =, got %d", plus.Op)
	}
	mul := plus.Right.(*BinaryExpr)
	if mul.Op != TOKEN_STAR {
		t.Fatalf("want * to bind tighter than +, got %d", mul.Op)
	}
}

func TestBooleanPrecedence(t *testing.T) {
	cat := testCatalog(t)
	sel := mustParse(t, cat, "SELECT * FROM users WHERE id = 1 OR id = 2 AND age > 3").(*SelectStmt)
	or := sel.Where.(*BinaryExpr)
	if or.Op != TOKEN_OR {
		t.Fatalf("top op should be OR, got %d", or.Op)
	}
	and := or.Right.(*BinaryExpr)
	if and.Op != TOKEN_AND {
		t.Fatalf("AND should bind tighter than OR, got %d", and.Op)
	}
}

func TestParseAggregates(t *testing.T) {
	cat := testCatalog(t)
	sel := mustParse(t, cat, "SELECT COUNT(*), SUM(DISTINCT age), AVG(age) FROM users").(*SelectStmt)
	cnt := sel.Items[0].Expr.(*AggregateExpr)
	if cnt.Func != TOKEN_COUNT || !cnt.Star {
		t.Fatalf("COUNT(*): %+v", cnt)
	}
	sum := sel.Items[1].Expr.(*AggregateExpr)
	if sum.Func != TOKEN_SUM || !sum.Distinct {
		t.Fatalf("SUM(DISTINCT age): %+v", sum)
	}
	if avg := sel.Items[2].Expr.(*AggregateExpr); avg.Func != TOKEN_AVG || avg.Star || avg.Distinct {
		t.Fatalf("AVG(age): %+v", avg)
	}
}

func TestJoinColumnOffsets(t *testing.T) {
	cat := testCatalog(t)
	sel := mustParse(t, cat,
		"SELECT users.name, orders.total FROM users JOIN orders ON users.id = orders.user_id").(*SelectStmt)
	if sel.Join == nil || sel.Join.Type != JoinInner {
		t.Fatalf("join: %+v", sel.Join)
	}
	// users has 3 columns, so orders.total sits at combined position 3+2
	if ref := sel.Items[1].Expr.(*ColumnRef); ref.Col != 5 {
		t.Errorf("orders.total resolved to %d, want 5", ref.Col)
	}
	on := sel.Join.On.(*BinaryExpr)
	if on.Right.(*ColumnRef).Col != 4 {
		t.Errorf("orders.user_id resolved to %d, want 4", on.Right.(*ColumnRef).Col)
	}
}

func TestLeftJoinParses(t *testing.T) {
	cat := testCatalog(t)
	sel := mustParse(t, cat,
		"SELECT * FROM users LEFT JOIN orders ON users.id = orders.user_id").(*SelectStmt)
	if sel.Join.Type != JoinLeft {
		t.Fatalf("want LEFT join, got %d", sel.Join.Type)
	}
}

func TestLeftFunctionCallParses(t *testing.T) {
	// LEFT is also the join keyword; followed by ( it is a function.
	cat := testCatalog(t)
	sel := mustParse(t, cat, "SELECT LEFT(name, 2) FROM users").(*SelectStmt)
	call, ok := sel.Items[0].Expr.(*FuncCallExpr)
	if !ok {
		t.Fatalf("want FuncCallExpr, got %T", sel.Items[0].Expr)
	}
	if call.Name != "LEFT" || len(call.Args) != 2 {
		t.Fatalf("got %s with %d args", call.Name, len(call.Args))
	}

	sel = mustParse(t, cat,
		"SELECT * FROM users WHERE left(name, 1) = 'a' ORDER BY RIGHT(name, 2)").(*SelectStmt)
	if _, ok := sel.Where.(*BinaryExpr); !ok {
		t.Fatalf("want comparison in WHERE, got %T", sel.Where)
	}
}

func TestAmbiguousColumn(t *testing.T) {
	cat := testCatalog(t)
	pe := parseErr(t, cat, "SELECT id FROM users JOIN orders ON users.id = orders.user_id")
	if pe.Code != ErrUnknownColumn || !strings.Contains(pe.Msg, "ambiguous") {
		t.Fatalf("got %v", pe)
	}
}

func TestUnknownTableSuggestion(t *testing.T) {
	cat := testCatalog(t)
	pe := parseErr(t, cat, "SELECT * FROM usrs")
	if pe.Code != ErrUnknownTable {
		t.Fatalf("code: %v", pe.Code)
	}
	if pe.Suggestion != "users" {
		t.Fatalf("suggestion: %q", pe.Suggestion)
	}
}

func TestUnknownColumnSuggestion(t *testing.T) {
	cat := testCatalog(t)
	pe := parseErr(t, cat, "SELECT nme FROM users")
	if pe.Code != ErrUnknownColumn {
		t.Fatalf("code: %v", pe.Code)
	}
	if pe.Suggestion != "name" {
		t.Fatalf("suggestion: %q", pe.Suggestion)
	}
}

func TestOrderByAndLimit(t *testing.T) {
	cat := testCatalog(t)
	sel := mustParse(t, cat, "SELECT * FROM users ORDER BY age DESC, name LIMIT 10").(*SelectStmt)
	if len(sel.OrderBy) != 2 || !sel.OrderBy[0].Desc || sel.OrderBy[1].Desc {
		t.Fatalf("order by: %+v", sel.OrderBy)
	}
	if !sel.HasLimit || sel.Limit != 10 {
		t.Fatalf("limit: has=%v n=%d", sel.HasLimit, sel.Limit)
	}
}

func TestLimitRejectsFraction(t *testing.T) {
	cat := testCatalog(t)
	pe := parseErr(t, cat, "SELECT * FROM users LIMIT 2.5")
	if pe.Code != ErrInvalidNumber {
		t.Fatalf("code: %v (%v)", pe.Code, pe)
	}
}

func TestLimitRejectsNegative(t *testing.T) {
	cat := testCatalog(t)
	pe := parseErr(t, cat, "SELECT * FROM users LIMIT -1")
	if pe.Code != ErrUnexpectedToken {
		t.Fatalf("code: %v (%v)", pe.Code, pe)
	}
}

func TestMultiRowInsert(t *testing.T) {
	cat := testCatalog(t)
	ins := mustParse(t, cat,
		"INSERT INTO users (id, name) VALUES (1, 'a'), (2, 'b'), (3, NULL)").(*InsertStmt)
	if len(ins.Rows) != 3 {
		t.Fatalf("rows: %d", len(ins.Rows))
	}
	if len(ins.Columns) != 2 || ins.Columns[0] != 0 || ins.Columns[1] != 1 {
		t.Fatalf("columns: %v", ins.Columns)
	}
	if lit := ins.Rows[2][1].(*LiteralExpr); !lit.Value.IsNull() {
		t.Fatalf("third row second value should be NULL, got %v", lit.Value)
	}
}

func TestInsertTooManyValues(t *testing.T) {
	cat := testCatalog(t)
	pe := parseErr(t, cat, "INSERT INTO users VALUES (1, 'a', 30, 'extra')")
	if pe.Code != ErrSyntax || !strings.Contains(pe.Msg, "too many values") {
		t.Fatalf("got %v", pe)
	}
}

func TestInsertRejectsColumnReference(t *testing.T) {
	cat := testCatalog(t)
	pe := parseErr(t, cat, "INSERT INTO users VALUES (id, 'a', 30)")
	if pe.Code != ErrUnknownColumn || !strings.Contains(pe.Msg, "not allowed in VALUES") {
		t.Fatalf("got %v", pe)
	}
}

func TestCreateIndexMethods(t *testing.T) {
	cat := testCatalog(t)

	ci := mustParse(t, cat, "CREATE INDEX idx_age ON users (age)").(*CreateIndexStmt)
	if ci.Kind != index.KindHash || ci.Column != 2 {
		t.Fatalf("default index: %+v", ci)
	}

	ci = mustParse(t, cat, "CREATE INDEX idx_age ON users (age) USING ORDERED").(*CreateIndexStmt)
	if ci.Kind != index.KindBTree {
		t.Fatalf("USING ORDERED: %+v", ci)
	}

	ci = mustParse(t, cat, "CREATE INDEX idx_age ON users (age) USING BTREE").(*CreateIndexStmt)
	if ci.Kind != index.KindBTree {
		t.Fatalf("USING BTREE: %+v", ci)
	}

	pe := parseErr(t, cat, "CREATE INDEX idx_age ON users (age) USING SPLAY")
	if pe.Code != ErrSyntax {
		t.Fatalf("unknown method: %v", pe)
	}
}

func TestParseUpdate(t *testing.T) {
	cat := testCatalog(t)
	up := mustParse(t, cat, "UPDATE users SET age = age + 1, name = 'x' WHERE id = 3").(*UpdateStmt)
	if len(up.Sets) != 2 {
		t.Fatalf("sets: %d", len(up.Sets))
	}
	if up.Sets[0].Column != 2 || up.Sets[0].ColName != "age" {
		t.Fatalf("first set: %+v", up.Sets[0])
	}
	if up.Where == nil {
		t.Fatal("where should be set")
	}
}

func TestParseDelete(t *testing.T) {
	cat := testCatalog(t)
	del := mustParse(t, cat, "DELETE FROM orders WHERE total < 1.0").(*DeleteStmt)
	if del.TableName != "orders" || del.Where == nil {
		t.Fatalf("delete: %+v", del)
	}
	del = mustParse(t, cat, "DELETE FROM orders").(*DeleteStmt)
	if del.Where != nil {
		t.Fatal("bare delete should have nil where")
	}
}

func TestExplainRequiresSelect(t *testing.T) {
	cat := testCatalog(t)
	if _, ok := mustParse(t, cat, "EXPLAIN SELECT * FROM users").(*ExplainStmt); !ok {
		t.Fatal("want *ExplainStmt")
	}
	pe := parseErr(t, cat, "EXPLAIN DELETE FROM users")
	if pe.Expected != "SELECT" {
		t.Fatalf("got %v", pe)
	}
}

func TestLikeBetweenIsNull(t *testing.T) {
	cat := testCatalog(t)
	sel := mustParse(t, cat,
		"SELECT * FROM users WHERE name LIKE 'a%' AND age BETWEEN 1 AND 9 AND name IS NOT NULL").(*SelectStmt)
	and := sel.Where.(*BinaryExpr)
	isn := and.Right.(*IsNullExpr)
	if !isn.Not {
		t.Fatal("IS NOT NULL should set Not")
	}
	inner := and.Left.(*BinaryExpr)
	if _, ok := inner.Left.(*LikeExpr); !ok {
		t.Fatalf("want LikeExpr, got %T", inner.Left)
	}
	btw := inner.Right.(*BetweenExpr)
	if btw.Not {
		t.Fatal("BETWEEN should not set Not")
	}
}

func TestInAndSubqueries(t *testing.T) {
	cat := testCatalog(t)
	sel := mustParse(t, cat, "SELECT * FROM users WHERE id IN (1, 2, 3)").(*SelectStmt)
	in := sel.Where.(*InExpr)
	if len(in.Values) != 3 || in.Sub != nil {
		t.Fatalf("in list: %+v", in)
	}

	sel = mustParse(t, cat,
		"SELECT * FROM users WHERE id NOT IN (SELECT user_id FROM orders)").(*SelectStmt)
	in = sel.Where.(*InExpr)
	if !in.Not || in.Sub == nil {
		t.Fatalf("in subquery: %+v", in)
	}

	sel = mustParse(t, cat,
		"SELECT * FROM users WHERE EXISTS (SELECT id FROM orders WHERE total > 0)").(*SelectStmt)
	if _, ok := sel.Where.(*ExistsExpr); !ok {
		t.Fatalf("want ExistsExpr, got %T", sel.Where)
	}
}

func TestUnknownStatementKeyword(t *testing.T) {
	cat := testCatalog(t)
	pe := parseErr(t, cat, "SELEC * FROM users")
	if pe.Code != ErrUnexpectedToken {
		t.Fatalf("code: %v (%v)", pe.Code, pe)
	}
}

func TestTruncatedStatement(t *testing.T) {
	cat := testCatalog(t)
	pe := parseErr(t, cat, "SELECT * FROM")
	if pe.Code != ErrUnexpectedEnd {
		t.Fatalf("code: %v (%v)", pe.Code, pe)
	}
}

func TestUnterminatedStringLiteral(t *testing.T) {
	cat := testCatalog(t)
	pe := parseErr(t, cat, "SELECT * FROM users WHERE name = 'abc")
	if pe.Code != ErrUnterminatedString {
		t.Fatalf("code: %v (%v)", pe.Code, pe)
	}
}

func TestSuggest(t *testing.T) {
	tests := []struct {
		name       string
		candidates []string
		want       string
	}{
		{"usrs", []string{"users", "orders"}, "users"},
		{"USER", []string{"users", "orders"}, "users"},
		{"ordrs", []string{"users", "orders"}, "orders"},
		{"zzzzzz", []string{"users", "orders"}, ""},
		{"anything", nil, ""},
	}
	for _, tt := range tests {
		if got := Suggest(tt.name, tt.candidates); got != tt.want {
			t.Errorf("Suggest(%q, %v) = %q, want %q", tt.name, tt.candidates, got, tt.want)
		}
	}
}

func TestLevenshtein(t *testing.T) {
	tests := []struct {
		a, b string
		want int
	}{
		{"", "", 0},
		{"abc", "", 3},
		{"", "abc", 3},
		{"kitten", "sitting", 3},
		{"same", "same", 0},
	}
	for _, tt := range tests {
		if got := levenshtein(tt.a, tt.b); got != tt.want {
			t.Errorf("levenshtein(%q, %q) = %d, want %d", tt.a, tt.b, got, tt.want)
		}
	}
}
