package sql

import (
	"github.com/relishdb/relish/pkg/catalog"
	"github.com/relishdb/relish/pkg/index"
)

// The IR is a linear chain of relational-algebra operator nodes. The
// executor interprets the chain in order, each node operating on the
// transient state left by the previous one. Lowering deep-clones every
// expression out of the AST, so the AST and IR have independent lifetimes.

// IRNode is one operator of the pipeline.
type IRNode interface {
	irNode()
}

// CreateTableNode materializes a new table in the catalog.
type CreateTableNode struct {
	Name string
	Def  catalog.TableDef
}

func (*CreateTableNode) irNode() {}

// DropTableNode removes a table and its indexes.
type DropTableNode struct {
	TableID int64
	Name    string
}

func (*DropTableNode) irNode() {}

// CreateIndexNode builds an index by scanning the table once.
type CreateIndexNode struct {
	IndexName string
	TableID   int64
	Column    int
	Kind      index.Kind
}

func (*CreateIndexNode) irNode() {}

// DropIndexNode removes an index by name.
type DropIndexNode struct {
	IndexName string
}

func (*DropIndexNode) irNode() {}

// InsertNode appends rows. Value expressions are cloned from the AST and
// evaluated row-free at execution time.
type InsertNode struct {
	TableID int64
	Columns []int // nil when no explicit column list
	Rows    [][]Expression
}

func (*InsertNode) irNode() {}

// UpdateNode rewrites matching rows in place.
type UpdateNode struct {
	TableID int64
	Sets    []Assignment
	Filter  Expression // nil updates every row
}

func (*UpdateNode) irNode() {}

// DeleteNode removes matching rows and compacts the table.
type DeleteNode struct {
	TableID int64
	Filter  Expression
}

func (*DeleteNode) irNode() {}

// ScanTableNode establishes the working row set: every row of the table,
// or the index-selected subset when the planner chose an index scan.
type ScanTableNode struct {
	TableID   int64
	TableName string
	Filter    Expression // the full predicate, for access-path planning
}

func (*ScanTableNode) irNode() {}

// FilterNode keeps the rows satisfying the predicate.
type FilterNode struct {
	Pred Expression
}

func (*FilterNode) irNode() {}

// SortNode stably sorts the working row set by parallel (expression,
// descending) sequences, applied lexicographically.
type SortNode struct {
	Exprs []Expression
	Desc  []bool
}

func (*SortNode) irNode() {}

// JoinNode combines the scanned table with a second one into a transient
// result table.
type JoinNode struct {
	Type         JoinType
	LeftID       int64
	RightID      int64
	RightName    string
	On           Expression
	LeftColumns  int
	RightColumns int
}

func (*JoinNode) irNode() {}

// AggregateNode folds the working row set into one value per aggregate.
// Results land in the execution context's aggregate slots, indexed by each
// aggregate's Index, and Project consumes them in aggregate context.
type AggregateNode struct {
	Aggs []*AggregateExpr
}

func (*AggregateNode) irNode() {}

// Projection is one output column of a Project node.
type Projection struct {
	Star bool
	Expr Expression
	Name string
}

// ProjectNode emits the final QueryResult.
type ProjectNode struct {
	Items    []Projection
	Limit    int64
	HasLimit bool
}

func (*ProjectNode) irNode() {}

// Lower rewrites a statement AST into its IR chain.
func Lower(stmt Statement, cat *catalog.Catalog) []IRNode {
	switch s := stmt.(type) {
	case *CreateTableStmt:
		return []IRNode{&CreateTableNode{Name: s.Name, Def: s.Def}}
	case *DropTableStmt:
		return []IRNode{&DropTableNode{TableID: s.TableID, Name: s.Name}}
	case *CreateIndexStmt:
		return []IRNode{&CreateIndexNode{
			IndexName: s.IndexName, TableID: s.TableID, Column: s.Column, Kind: s.Kind,
		}}
	case *DropIndexStmt:
		return []IRNode{&DropIndexNode{IndexName: s.IndexName}}
	case *InsertStmt:
		return lowerInsert(s)
	case *UpdateStmt:
		return lowerUpdate(s)
	case *DeleteStmt:
		return lowerDelete(s)
	case *SelectStmt:
		return LowerSelect(s, cat)
	}
	return nil
}

func lowerInsert(s *InsertStmt) []IRNode {
	node := &InsertNode{TableID: s.TableID}
	if s.Columns != nil {
		node.Columns = append([]int(nil), s.Columns...)
	}
	for _, row := range s.Rows {
		cloned := make([]Expression, len(row))
		for i, e := range row {
			cloned[i] = e.Clone()
		}
		node.Rows = append(node.Rows, cloned)
	}
	return []IRNode{node}
}

func lowerUpdate(s *UpdateStmt) []IRNode {
	node := &UpdateNode{TableID: s.TableID}
	for _, a := range s.Sets {
		node.Sets = append(node.Sets, Assignment{
			Column: a.Column, ColName: a.ColName, Value: a.Value.Clone(),
		})
	}
	if s.Where != nil {
		node.Filter = s.Where.Clone()
	}
	return []IRNode{node}
}

func lowerDelete(s *DeleteStmt) []IRNode {
	node := &DeleteNode{TableID: s.TableID}
	if s.Where != nil {
		node.Filter = s.Where.Clone()
	}
	return []IRNode{node}
}

// LowerSelect builds the scan/join/filter/sort/aggregate/project chain.
func LowerSelect(s *SelectStmt, cat *catalog.Catalog) []IRNode {
	var chain []IRNode

	scan := &ScanTableNode{TableID: s.TableID, TableName: s.TableName}
	if s.Where != nil && s.Join == nil {
		scan.Filter = s.Where.Clone()
	}
	chain = append(chain, scan)

	if s.Join != nil {
		join := &JoinNode{
			Type:      s.Join.Type,
			LeftID:    s.TableID,
			RightID:   s.Join.TableID,
			RightName: s.Join.TableName,
		}
		if s.Join.On != nil {
			join.On = s.Join.On.Clone()
		}
		if left := cat.TableByID(s.TableID); left != nil {
			join.LeftColumns = len(left.Def.Columns)
		}
		if right := cat.TableByID(s.Join.TableID); right != nil {
			join.RightColumns = len(right.Def.Columns)
		}
		chain = append(chain, join)
		if s.Where != nil {
			chain = append(chain, &FilterNode{Pred: s.Where.Clone()})
		}
	} else if s.Where != nil {
		chain = append(chain, &FilterNode{Pred: s.Where.Clone()})
	}

	// clone the projection list first: aggregate slot indexes are assigned
	// in the clones and shared with the Aggregate node
	project := &ProjectNode{Limit: s.Limit, HasLimit: s.HasLimit}
	var aggs []*AggregateExpr
	for _, item := range s.Items {
		proj := Projection{Star: item.Star}
		if !item.Star {
			proj.Expr = item.Expr.Clone()
			aggs = collectAggregates(proj.Expr, aggs)
			proj.Name = projectionName(item)
		}
		project.Items = append(project.Items, proj)
	}

	if len(aggs) > 0 {
		chain = append(chain, &AggregateNode{Aggs: aggs})
	} else if len(s.OrderBy) > 0 {
		sortNode := &SortNode{}
		for _, ob := range s.OrderBy {
			sortNode.Exprs = append(sortNode.Exprs, ob.Expr.Clone())
			sortNode.Desc = append(sortNode.Desc, ob.Desc)
		}
		chain = append(chain, sortNode)
	}

	chain = append(chain, project)
	return chain
}

// collectAggregates walks an expression, assigning result-slot indexes to
// aggregate calls in encounter order.
func collectAggregates(e Expression, aggs []*AggregateExpr) []*AggregateExpr {
	switch ex := e.(type) {
	case *AggregateExpr:
		ex.Index = len(aggs)
		return append(aggs, ex)
	case *BinaryExpr:
		aggs = collectAggregates(ex.Left, aggs)
		return collectAggregates(ex.Right, aggs)
	case *UnaryExpr:
		return collectAggregates(ex.Expr, aggs)
	case *FuncCallExpr:
		for _, a := range ex.Args {
			aggs = collectAggregates(a, aggs)
		}
		return aggs
	case *LikeExpr:
		aggs = collectAggregates(ex.Expr, aggs)
		return collectAggregates(ex.Pattern, aggs)
	case *BetweenExpr:
		aggs = collectAggregates(ex.Expr, aggs)
		aggs = collectAggregates(ex.Low, aggs)
		return collectAggregates(ex.High, aggs)
	case *IsNullExpr:
		return collectAggregates(ex.Expr, aggs)
	case *InExpr:
		aggs = collectAggregates(ex.Left, aggs)
		for _, v := range ex.Values {
			aggs = collectAggregates(v, aggs)
		}
		return aggs
	}
	return aggs
}

// projectionName picks the output column name: the alias when present, the
// column name for a bare reference, "expr" otherwise.
func projectionName(item SelectItem) string {
	if item.Alias != "" {
		return item.Alias
	}
	if ref, ok := item.Expr.(*ColumnRef); ok {
		return ref.Name
	}
	if agg, ok := item.Expr.(*AggregateExpr); ok {
		return describeToken(agg.Func)
	}
	return "expr"
}
