package sql

import (
	"github.com/relishdb/relish/pkg/catalog"
	"github.com/relishdb/relish/pkg/index"
)

// AST node types. Table and column names are resolved against the catalog
// during parsing: statements carry numeric table ids, column references
// carry (table id, column index) pairs.

// Statement is the interface for all SQL statements.
type Statement interface {
	statementNode()
}

// Expression is the interface for all SQL expressions. Clone deep-copies
// the tree; lowering clones expressions into the IR so the AST and the IR
// have independent lifetimes.
type Expression interface {
	exprNode()
	Clone() Expression
}

// JoinType selects the join algorithm's outer behavior.
type JoinType int

const (
	JoinInner JoinType = iota
	JoinLeft
)

// CreateTableStmt represents CREATE TABLE.
type CreateTableStmt struct {
	Name string
	Def  catalog.TableDef
}

func (s *CreateTableStmt) statementNode() {}

// DropTableStmt represents DROP TABLE.
type DropTableStmt struct {
	Name    string
	TableID int64
}

func (s *DropTableStmt) statementNode() {}

// CreateIndexStmt represents CREATE INDEX name ON tbl (col) [USING kind].
type CreateIndexStmt struct {
	IndexName string
	TableID   int64
	TableName string
	Column    int
	Kind      index.Kind
}

func (s *CreateIndexStmt) statementNode() {}

// DropIndexStmt represents DROP INDEX.
type DropIndexStmt struct {
	IndexName string
}

func (s *DropIndexStmt) statementNode() {}

// InsertStmt represents INSERT INTO. Columns holds resolved column indexes
// when an explicit column list was given, nil otherwise. Each row is a list
// of value expressions.
type InsertStmt struct {
	TableID   int64
	TableName string
	Columns   []int
	Rows      [][]Expression
}

func (s *InsertStmt) statementNode() {}

// SelectItem is one entry of the SELECT list.
type SelectItem struct {
	Star  bool
	Expr  Expression
	Alias string
}

// JoinClause is the optional join of a SELECT.
type JoinClause struct {
	Type      JoinType
	TableID   int64
	TableName string
	On        Expression
}

// OrderByClause is one (expression, direction) pair of ORDER BY.
type OrderByClause struct {
	Expr Expression
	Desc bool
}

// SelectStmt represents SELECT.
type SelectStmt struct {
	TableID   int64
	TableName string
	Join      *JoinClause
	Items     []SelectItem
	Where     Expression
	OrderBy   []OrderByClause
	Limit     int64
	HasLimit  bool
}

func (s *SelectStmt) statementNode() {}

// Assignment is one SET column = expr pair.
type Assignment struct {
	Column  int
	ColName string
	Value   Expression
}

// UpdateStmt represents UPDATE.
type UpdateStmt struct {
	TableID   int64
	TableName string
	Sets      []Assignment
	Where     Expression
}

func (s *UpdateStmt) statementNode() {}

// DeleteStmt represents DELETE FROM.
type DeleteStmt struct {
	TableID   int64
	TableName string
	Where     Expression
}

func (s *DeleteStmt) statementNode() {}

// ExplainStmt wraps a SELECT and prints its physical plan instead of
// executing it.
type ExplainStmt struct {
	Select *SelectStmt
}

func (s *ExplainStmt) statementNode() {}

// Expressions

// LiteralExpr is a literal value.
type LiteralExpr struct {
	Value catalog.Value
}

func (e *LiteralExpr) exprNode() {}

// Clone copies the literal, deep-copying blob payloads.
func (e *LiteralExpr) Clone() Expression {
	return &LiteralExpr{Value: e.Value.Clone()}
}

// ColumnRef is a resolved column reference. Col is the position within the
// statement's working row: the table's column index for single-table
// statements, the combined (left columns then right columns) position for
// join statements.
type ColumnRef struct {
	Qualifier string // optional table qualifier as written
	Name      string
	TableID   int64
	Col       int
}

func (e *ColumnRef) exprNode() {}

func (e *ColumnRef) Clone() Expression {
	c := *e
	return &c
}

// BinaryExpr is a binary operation: comparisons, AND/OR, arithmetic.
type BinaryExpr struct {
	Left  Expression
	Op    TokenType
	Right Expression
}

func (e *BinaryExpr) exprNode() {}

func (e *BinaryExpr) Clone() Expression {
	return &BinaryExpr{Left: e.Left.Clone(), Op: e.Op, Right: e.Right.Clone()}
}

// UnaryExpr is NOT x or -x.
type UnaryExpr struct {
	Op   TokenType
	Expr Expression
}

func (e *UnaryExpr) exprNode() {}

func (e *UnaryExpr) Clone() Expression {
	return &UnaryExpr{Op: e.Op, Expr: e.Expr.Clone()}
}

// LikeExpr is expr [NOT] LIKE pattern.
type LikeExpr struct {
	Expr    Expression
	Pattern Expression
	Not     bool
}

func (e *LikeExpr) exprNode() {}

func (e *LikeExpr) Clone() Expression {
	return &LikeExpr{Expr: e.Expr.Clone(), Pattern: e.Pattern.Clone(), Not: e.Not}
}

// BetweenExpr is expr [NOT] BETWEEN low AND high.
type BetweenExpr struct {
	Expr Expression
	Low  Expression
	High Expression
	Not  bool
}

func (e *BetweenExpr) exprNode() {}

func (e *BetweenExpr) Clone() Expression {
	return &BetweenExpr{Expr: e.Expr.Clone(), Low: e.Low.Clone(), High: e.High.Clone(), Not: e.Not}
}

// IsNullExpr is expr IS [NOT] NULL.
type IsNullExpr struct {
	Expr Expression
	Not  bool
}

func (e *IsNullExpr) exprNode() {}

func (e *IsNullExpr) Clone() Expression {
	return &IsNullExpr{Expr: e.Expr.Clone(), Not: e.Not}
}

// InExpr is expr [NOT] IN (values) or expr [NOT] IN (SELECT ...).
type InExpr struct {
	Left   Expression
	Values []Expression
	Sub    *SelectStmt
	Not    bool
}

func (e *InExpr) exprNode() {}

func (e *InExpr) Clone() Expression {
	c := &InExpr{Left: e.Left.Clone(), Sub: e.Sub, Not: e.Not}
	for _, v := range e.Values {
		c.Values = append(c.Values, v.Clone())
	}
	return c
}

// ExistsExpr is [NOT] EXISTS (SELECT ...).
type ExistsExpr struct {
	Sub *SelectStmt
	Not bool
}

func (e *ExistsExpr) exprNode() {}

func (e *ExistsExpr) Clone() Expression {
	c := *e
	return &c
}

// SubqueryExpr is a scalar subquery: (SELECT ...) used as a value.
type SubqueryExpr struct {
	Sub *SelectStmt
}

func (e *SubqueryExpr) exprNode() {}

func (e *SubqueryExpr) Clone() Expression {
	c := *e
	return &c
}

// AggregateExpr is COUNT/SUM/AVG/MIN/MAX. Index is assigned during
// lowering and names the aggregate's slot in the per-statement results
// list that the Aggregate node fills and Project consumes.
type AggregateExpr struct {
	Func     TokenType
	Arg      Expression // nil for COUNT(*)
	Star     bool
	Distinct bool
	Index    int
}

func (e *AggregateExpr) exprNode() {}

func (e *AggregateExpr) Clone() Expression {
	c := &AggregateExpr{Func: e.Func, Star: e.Star, Distinct: e.Distinct, Index: e.Index}
	if e.Arg != nil {
		c.Arg = e.Arg.Clone()
	}
	return c
}

// FuncCallExpr is a scalar function call. Names are not validated at parse
// time; an unknown name evaluates to the Error value and aborts the
// statement.
type FuncCallExpr struct {
	Name string
	Args []Expression
}

func (e *FuncCallExpr) exprNode() {}

func (e *FuncCallExpr) Clone() Expression {
	c := &FuncCallExpr{Name: e.Name}
	for _, a := range e.Args {
		c.Args = append(c.Args, a.Clone())
	}
	return c
}
