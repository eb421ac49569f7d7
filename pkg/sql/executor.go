package sql

import (
	"fmt"
	"sort"
	"strings"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/relishdb/relish/pkg/catalog"
	"github.com/relishdb/relish/pkg/index"
)

// Executor interprets lowered IR chains against a catalog and its index
// manager. One statement runs to completion before the next begins; the
// per-statement execution context resets on every Execute call.
type Executor struct {
	cat     *catalog.Catalog
	idx     *index.Manager
	planner *Planner
	log     *zap.Logger
}

// NewExecutor creates an executor over the given catalog and index
// manager. A nil logger disables logging.
func NewExecutor(cat *catalog.Catalog, idx *index.Manager, log *zap.Logger) *Executor {
	if log == nil {
		log = zap.NewNop()
	}
	return &Executor{
		cat:     cat,
		idx:     idx,
		planner: NewPlanner(cat, idx),
		log:     log,
	}
}

// Catalog exposes the executor's catalog for name resolution.
func (e *Executor) Catalog() *catalog.Catalog { return e.cat }

// Indexes exposes the executor's index manager.
func (e *Executor) Indexes() *index.Manager { return e.idx }

// execContext is the per-statement state shared across chain nodes:
// aggregate results flow from Aggregate to Project through it.
type execContext struct {
	aggResults  []catalog.Value
	inAggregate bool
}

// workset is the transient state between chain nodes of one SELECT.
type workset struct {
	table *catalog.Table // shape of the current rows (columns, names)
	rows  [][]catalog.Value
	ctx   execContext
}

// Execute runs one parsed statement and returns its result.
func (e *Executor) Execute(stmt Statement) (*QueryResult, error) {
	switch s := stmt.(type) {
	case *ExplainStmt:
		return e.explain(s)
	case *SelectStmt:
		return e.runSelect(s)
	}

	chain := Lower(stmt, e.cat)
	if chain == nil {
		return nil, execErr(ErrRuntime, "unsupported statement %T", stmt)
	}
	var result *QueryResult
	for _, node := range chain {
		res, err := e.runNode(node)
		if err != nil {
			return nil, err
		}
		result = res
	}
	return result, nil
}

func (e *Executor) runNode(node IRNode) (*QueryResult, error) {
	switch n := node.(type) {
	case *CreateTableNode:
		return e.execCreateTable(n)
	case *DropTableNode:
		return e.execDropTable(n)
	case *CreateIndexNode:
		return e.execCreateIndex(n)
	case *DropIndexNode:
		return e.execDropIndex(n)
	case *InsertNode:
		return e.execInsert(n)
	case *UpdateNode:
		return e.execUpdate(n)
	case *DeleteNode:
		return e.execDelete(n)
	}
	return nil, execErr(ErrRuntime, "unexpected chain node %T", node)
}

func (e *Executor) execCreateTable(n *CreateTableNode) (*QueryResult, error) {
	t, err := e.cat.CreateTable(n.Name, n.Def)
	if err != nil {
		return nil, err
	}
	e.log.Info("table created", zap.String("table", t.Name), zap.Int("columns", len(t.Def.Columns)))
	return messageResult(fmt.Sprintf("Table %s created", t.Name)), nil
}

func (e *Executor) execDropTable(n *DropTableNode) (*QueryResult, error) {
	e.idx.DropTable(n.Name)
	if err := e.cat.DropTable(n.Name); err != nil {
		return nil, err
	}
	e.log.Info("table dropped", zap.String("table", n.Name))
	return messageResult(fmt.Sprintf("Table %s dropped", n.Name)), nil
}

func (e *Executor) execCreateIndex(n *CreateIndexNode) (*QueryResult, error) {
	t := e.cat.TableByID(n.TableID)
	if t == nil {
		return nil, execErr(ErrUnknownTable, "table for index %q no longer exists", n.IndexName)
	}
	idx, err := e.idx.Create(n.IndexName, t, n.Column, n.Kind)
	if err != nil {
		return nil, err
	}
	e.log.Info("index created",
		zap.String("index", idx.Name()),
		zap.String("table", t.Name),
		zap.Int("entries", idx.Len()))
	return messageResult(fmt.Sprintf("Index %s created", idx.Name())), nil
}

func (e *Executor) execDropIndex(n *DropIndexNode) (*QueryResult, error) {
	if err := e.idx.Drop(n.IndexName); err != nil {
		if errors.Is(err, index.ErrIndexNotFound) {
			return nil, execErr(ErrUnknownIndex, "unknown index %q", n.IndexName)
		}
		return nil, err
	}
	e.log.Info("index dropped", zap.String("index", n.IndexName))
	return messageResult(fmt.Sprintf("Index %s dropped", n.IndexName)), nil
}

// execInsert appends rows. NOT NULL, UNIQUE, and type constraints are
// validated before any write; foreign keys follow the write-validate-or-
// undo discipline, and a violation reverts every row of the statement.
func (e *Executor) execInsert(n *InsertNode) (*QueryResult, error) {
	t := e.cat.TableByID(n.TableID)
	if t == nil {
		return nil, execErr(ErrUnknownTable, "insert target no longer exists")
	}
	baseLen := len(t.Rows)
	env := &evalEnv{}

	for _, exprs := range n.Rows {
		values, err := e.buildInsertRow(t, n.Columns, exprs, env)
		if err != nil {
			e.undoAppends(t, baseLen)
			return nil, err
		}
		for ci, col := range t.Def.Columns {
			if err := e.checkNotNull(col, values[ci]); err != nil {
				e.undoAppends(t, baseLen)
				return nil, err
			}
			if err := e.checkUnique(t, ci, values[ci], -1); err != nil {
				e.undoAppends(t, baseLen)
				return nil, err
			}
		}
		if err := t.AppendRow(catalog.Row{Values: values}); err != nil {
			e.undoAppends(t, baseLen)
			return nil, err
		}
		rowIdx := len(t.Rows) - 1
		if err := e.checkForeignKeys(t, t.Rows[rowIdx].Values); err != nil {
			e.undoAppends(t, baseLen)
			return nil, err
		}
		e.idx.OnInsert(t, rowIdx)
	}

	inserted := len(t.Rows) - baseLen
	e.cat.InvalidateStats(t.ID)
	e.log.Debug("rows inserted", zap.String("table", t.Name), zap.Int("rows", inserted))
	return messageResult(fmt.Sprintf("%d row(s) inserted", inserted)), nil
}

// buildInsertRow evaluates the value expressions into a full-width row,
// padding unnamed columns with NULL and coercing each value towards its
// column type. STRICT tables reject values that do not coerce.
func (e *Executor) buildInsertRow(t *catalog.Table, columns []int, exprs []Expression, env *evalEnv) ([]catalog.Value, error) {
	values := make([]catalog.Value, len(t.Def.Columns))
	for i := range values {
		values[i] = catalog.NewNull()
	}
	for i, expr := range exprs {
		v, err := e.evalScalar(env, expr)
		if err != nil {
			return nil, err
		}
		target := i
		if columns != nil {
			target = columns[i]
		}
		if target >= len(values) {
			return nil, execErr(ErrRuntime, "too many values for table %s", t.Name)
		}
		values[target], err = e.coerceForColumn(t, t.Def.Columns[target], v)
		if err != nil {
			return nil, err
		}
	}
	return values, nil
}

func (e *Executor) coerceForColumn(t *catalog.Table, col catalog.ColumnDef, v catalog.Value) (catalog.Value, error) {
	if v.IsNull() {
		return v, nil
	}
	coerced := catalog.Coerce(v, col.Type)
	if coerced.IsError() {
		if t.Def.Strict {
			return catalog.Value{}, execErr(ErrStrictCoercion,
				"%s (table %s is STRICT)", coerced.ErrMsg, t.Name)
		}
		return v, nil
	}
	return coerced, nil
}

func (e *Executor) undoAppends(t *catalog.Table, baseLen int) {
	if len(t.Rows) > baseLen {
		t.Rows = t.Rows[:baseLen]
		e.idx.MarkStale(t.Name)
		e.cat.InvalidateStats(t.ID)
	}
}

func (e *Executor) checkNotNull(col catalog.ColumnDef, v catalog.Value) error {
	if v.IsNull() && !col.Nullable() {
		return execErr(ErrNotNullViolated, "column %q is NOT NULL", col.Name)
	}
	return nil
}

// checkUnique scans the column for an equal value. NULLs never conflict.
// skipRow excludes the row being updated from its own comparison.
func (e *Executor) checkUnique(t *catalog.Table, ci int, v catalog.Value, skipRow int) error {
	col := t.Def.Columns[ci]
	if !col.Unique() || v.IsNull() {
		return nil
	}
	for ri, row := range t.Rows {
		if ri == skipRow || ci >= len(row.Values) {
			continue
		}
		if catalog.Equal(v, row.Values[ci]) {
			return execErr(ErrUniqueViolated, "duplicate value %s for column %q", v.String(), col.Name)
		}
	}
	return nil
}

// checkForeignKeys validates every REFERENCES column of the row. NULL
// passes; otherwise the referenced column must contain a matching value.
func (e *Executor) checkForeignKeys(t *catalog.Table, values []catalog.Value) error {
	for ci, col := range t.Def.Columns {
		if !col.IsForeignKey() || values[ci].IsNull() {
			continue
		}
		ref := e.cat.TableByName(col.RefTable)
		if ref == nil {
			return execErr(ErrForeignKeyViolated,
				"referenced table %q does not exist", col.RefTable)
		}
		refCol := ref.Def.ColumnIndex(col.RefColumn)
		if refCol < 0 {
			return execErr(ErrForeignKeyViolated,
				"referenced column %s.%s does not exist", col.RefTable, col.RefColumn)
		}
		found := false
		for _, row := range ref.Rows {
			if refCol < len(row.Values) && catalog.Equal(values[ci], row.Values[refCol]) {
				found = true
				break
			}
		}
		if !found {
			return execErr(ErrForeignKeyViolated,
				"no row in %s.%s matches %s", col.RefTable, col.RefColumn, values[ci].String())
		}
	}
	return nil
}

// execUpdate rewrites matching rows in place. Old rows are retained so a
// foreign-key violation can revert every change of the statement.
func (e *Executor) execUpdate(n *UpdateNode) (*QueryResult, error) {
	t := e.cat.TableByID(n.TableID)
	if t == nil {
		return nil, execErr(ErrUnknownTable, "update target no longer exists")
	}

	type change struct {
		rowIdx int
		old    catalog.Row
	}
	var applied []change
	undo := func() {
		for i := len(applied) - 1; i >= 0; i-- {
			t.Rows[applied[i].rowIdx] = applied[i].old
		}
		if len(applied) > 0 {
			e.idx.MarkStale(t.Name)
		}
	}

	for ri := range t.Rows {
		if n.Filter != nil {
			ok, err := e.evalPredicate(&evalEnv{row: t.Rows[ri].Values}, n.Filter)
			if err != nil {
				undo()
				return nil, err
			}
			if !ok {
				continue
			}
		}

		old := t.Rows[ri].Clone()
		next := t.Rows[ri].Clone()
		for _, set := range n.Sets {
			v, err := e.evalScalar(&evalEnv{row: old.Values}, set.Value)
			if err != nil {
				undo()
				return nil, err
			}
			col := t.Def.Columns[set.Column]
			v, err = e.coerceForColumn(t, col, v)
			if err != nil {
				undo()
				return nil, err
			}
			if err := e.checkNotNull(col, v); err != nil {
				undo()
				return nil, err
			}
			if err := e.checkUnique(t, set.Column, v, ri); err != nil {
				undo()
				return nil, err
			}
			next.Values[set.Column] = v
		}

		t.Rows[ri] = next
		applied = append(applied, change{rowIdx: ri, old: old})
		if err := e.checkForeignKeys(t, next.Values); err != nil {
			undo()
			return nil, err
		}
		e.idx.OnUpdate(t, ri, old)
	}

	e.cat.InvalidateStats(t.ID)
	e.log.Debug("rows updated", zap.String("table", t.Name), zap.Int("rows", len(applied)))
	return messageResult(fmt.Sprintf("%d row(s) updated", len(applied))), nil
}

func (e *Executor) execDelete(n *DeleteNode) (*QueryResult, error) {
	t := e.cat.TableByID(n.TableID)
	if t == nil {
		return nil, execErr(ErrUnknownTable, "delete target no longer exists")
	}

	drop := make(map[int]bool)
	for ri := range t.Rows {
		if n.Filter == nil {
			drop[ri] = true
			continue
		}
		ok, err := e.evalPredicate(&evalEnv{row: t.Rows[ri].Values}, n.Filter)
		if err != nil {
			return nil, err
		}
		if ok {
			drop[ri] = true
		}
	}
	if len(drop) > 0 {
		t.RemoveRows(drop)
		e.idx.OnDelete(t)
		e.cat.InvalidateStats(t.ID)
	}
	e.log.Debug("rows deleted", zap.String("table", t.Name), zap.Int("rows", len(drop)))
	return messageResult(fmt.Sprintf("%d row(s) deleted", len(drop))), nil
}

// runSelect interprets the SELECT chain. Subqueries re-enter here with
// their own workset and execution context.
func (e *Executor) runSelect(s *SelectStmt) (*QueryResult, error) {
	chain := LowerSelect(s, e.cat)
	ws := &workset{}
	var transient string
	defer func() {
		if transient != "" {
			_ = e.cat.DropTable(transient)
		}
	}()

	for _, node := range chain {
		switch n := node.(type) {
		case *ScanTableNode:
			if err := e.scanTable(n, ws); err != nil {
				return nil, err
			}
		case *JoinNode:
			name, err := e.execJoin(n, ws)
			if err != nil {
				return nil, err
			}
			transient = name
		case *FilterNode:
			if err := e.filterRows(n, ws); err != nil {
				return nil, err
			}
		case *SortNode:
			if err := e.sortRows(n, ws); err != nil {
				return nil, err
			}
		case *AggregateNode:
			if err := e.aggregateRows(n, ws); err != nil {
				return nil, err
			}
		case *ProjectNode:
			return e.projectRows(n, ws)
		default:
			return nil, execErr(ErrRuntime, "unexpected chain node %T", node)
		}
	}
	return nil, execErr(ErrRuntime, "select chain ended without projection")
}

// scanTable establishes the working row set, going through an index when
// the planner picked one.
func (e *Executor) scanTable(n *ScanTableNode, ws *workset) error {
	t := e.cat.TableByID(n.TableID)
	if t == nil {
		return execErr(ErrUnknownTable, "table %q no longer exists", n.TableName)
	}
	ws.table = t

	plan := e.planner.PlanScan(t, n.Filter)
	if plan.Type == PlanIndexScan {
		if rows, ok := e.indexScan(t, plan); ok {
			ws.rows = rows
			e.log.Debug("index scan", zap.String("table", t.Name), zap.String("index", plan.IndexName))
			return nil
		}
	}

	ws.rows = make([][]catalog.Value, len(t.Rows))
	for i, row := range t.Rows {
		ws.rows[i] = row.Values
	}
	return nil
}

// indexScan fetches the matching row indices from the planned index. A
// missing or capability-poor index falls back to the sequential path.
func (e *Executor) indexScan(t *catalog.Table, plan *Plan) ([][]catalog.Value, bool) {
	var idx index.Index
	for _, candidate := range e.idx.ForColumn(t, plan.Column) {
		if strings.EqualFold(candidate.Name(), plan.IndexName) {
			idx = candidate
			break
		}
	}
	if idx == nil {
		return nil, false
	}

	var rowIdxs []int
	switch plan.Op {
	case TOKEN_EQ:
		rowIdxs = idx.Lookup(plan.Key)
	case TOKEN_LT, TOKEN_LE, TOKEN_GT, TOKEN_GE:
		ranged, ok := idx.(index.RangeIndex)
		if !ok {
			return nil, false
		}
		key := plan.Key
		switch plan.Op {
		case TOKEN_LT:
			rowIdxs = ranged.Range(nil, &key, false, false)
		case TOKEN_LE:
			rowIdxs = ranged.Range(nil, &key, false, true)
		case TOKEN_GT:
			rowIdxs = ranged.Range(&key, nil, false, false)
		case TOKEN_GE:
			rowIdxs = ranged.Range(&key, nil, true, false)
		}
	default:
		return nil, false
	}

	rows := make([][]catalog.Value, 0, len(rowIdxs))
	for _, ri := range rowIdxs {
		if ri >= 0 && ri < len(t.Rows) {
			rows = append(rows, t.Rows[ri].Values)
		}
	}
	return rows, true
}

// execJoin combines the working rows with the right table into a
// transient result table registered under a synthetic name for the rest
// of the chain. The caller drops it when the statement finishes.
func (e *Executor) execJoin(n *JoinNode, ws *workset) (string, error) {
	right := e.cat.TableByID(n.RightID)
	if right == nil {
		return "", execErr(ErrUnknownTable, "table %q no longer exists", n.RightName)
	}
	rightRows := make([][]catalog.Value, len(right.Rows))
	for i, row := range right.Rows {
		rightRows[i] = row.Values
	}

	joined, err := e.joinRows(n, ws.rows, rightRows)
	if err != nil {
		return "", err
	}

	def := catalog.TableDef{}
	if left := ws.table; left != nil {
		for _, col := range left.Def.Columns {
			def.Columns = append(def.Columns, catalog.ColumnDef{
				Name: left.Name + "." + col.Name, Type: col.Type, Flags: catalog.FlagNullable,
			})
		}
	}
	for _, col := range right.Def.Columns {
		def.Columns = append(def.Columns, catalog.ColumnDef{
			Name: right.Name + "." + col.Name, Type: col.Type, Flags: catalog.FlagNullable,
		})
	}

	result := &catalog.Table{
		Name: "join:" + uuid.NewString(),
		Def:  def,
	}
	for _, row := range joined {
		result.Rows = append(result.Rows, catalog.Row{Values: row})
	}
	e.cat.RegisterTransient(result)

	ws.table = result
	ws.rows = joined
	return result.Name, nil
}

func (e *Executor) filterRows(n *FilterNode, ws *workset) error {
	kept := ws.rows[:0:0]
	for _, row := range ws.rows {
		ok, err := e.evalPredicate(&evalEnv{row: row, ctx: &ws.ctx}, n.Pred)
		if err != nil {
			return err
		}
		if ok {
			kept = append(kept, row)
		}
	}
	ws.rows = kept
	return nil
}

// sortRows stably sorts the working rows by the node's key expressions,
// compared left to right. NULL sorts before non-NULL ascending.
func (e *Executor) sortRows(n *SortNode, ws *workset) error {
	keys := make([][]catalog.Value, len(ws.rows))
	for i, row := range ws.rows {
		keys[i] = make([]catalog.Value, len(n.Exprs))
		for j, expr := range n.Exprs {
			v, err := e.evalScalar(&evalEnv{row: row, ctx: &ws.ctx}, expr)
			if err != nil {
				return err
			}
			keys[i][j] = v
		}
	}

	idxs := make([]int, len(ws.rows))
	for i := range idxs {
		idxs[i] = i
	}
	sort.SliceStable(idxs, func(a, b int) bool {
		ka, kb := keys[idxs[a]], keys[idxs[b]]
		for j := range ka {
			c := compareForSort(ka[j], kb[j])
			if n.Desc[j] {
				c = -c
			}
			if c != 0 {
				return c < 0
			}
		}
		return false
	})

	sorted := make([][]catalog.Value, len(ws.rows))
	for i, src := range idxs {
		sorted[i] = ws.rows[src]
	}
	ws.rows = sorted
	return nil
}

// aggregateRows folds the working rows into one result per aggregate and
// switches the context into aggregate mode for the projection.
func (e *Executor) aggregateRows(n *AggregateNode, ws *workset) error {
	accs := make([]*accumulator, len(n.Aggs))
	for i, agg := range n.Aggs {
		accs[i] = newAccumulator(agg)
	}

	for _, row := range ws.rows {
		env := &evalEnv{row: row, ctx: &ws.ctx}
		for i, agg := range n.Aggs {
			var v catalog.Value
			if !agg.Star {
				var err error
				v, err = e.evalScalar(env, agg.Arg)
				if err != nil {
					return err
				}
			}
			if err := accs[i].Add(v); err != nil {
				return err
			}
		}
	}

	ws.ctx.aggResults = make([]catalog.Value, len(accs))
	for i, acc := range accs {
		ws.ctx.aggResults[i] = acc.Finalize()
	}
	ws.ctx.inAggregate = true
	return nil
}

// projectRows applies the SELECT list and LIMIT, emitting the final
// QueryResult. In aggregate context exactly one output row is produced
// from the aggregate result slots.
func (e *Executor) projectRows(n *ProjectNode, ws *workset) (*QueryResult, error) {
	res := &QueryResult{}
	for _, item := range n.Items {
		if item.Star {
			if ws.ctx.inAggregate {
				return nil, execErr(ErrRuntime, "SELECT * cannot be combined with aggregates")
			}
			if ws.table != nil {
				res.Columns = append(res.Columns, ws.table.Def.ColumnNames()...)
			}
			continue
		}
		res.Columns = append(res.Columns, item.Name)
	}

	input := ws.rows
	if ws.ctx.inAggregate {
		input = [][]catalog.Value{nil}
	}

	limit := int64(len(input))
	if n.HasLimit && n.Limit < limit {
		limit = n.Limit
	}

	for _, row := range input {
		if int64(len(res.Rows)) >= limit {
			break
		}
		env := &evalEnv{row: row, ctx: &ws.ctx}
		var out []catalog.Value
		for _, item := range n.Items {
			if item.Star {
				out = append(out, row...)
				continue
			}
			v, err := e.evalScalar(env, item.Expr)
			if err != nil {
				return nil, err
			}
			out = append(out, v)
		}
		res.Rows = append(res.Rows, out)
	}

	res.RowCount = len(res.Rows)
	res.ColCount = len(res.Columns)
	return res, nil
}

// explain renders the physical plan of a SELECT without executing it.
func (e *Executor) explain(s *ExplainStmt) (*QueryResult, error) {
	chain := LowerSelect(s.Select, e.cat)
	var lines []string
	for _, node := range chain {
		switch n := node.(type) {
		case *ScanTableNode:
			t := e.cat.TableByID(n.TableID)
			if t == nil {
				return nil, execErr(ErrUnknownTable, "table %q no longer exists", n.TableName)
			}
			lines = append(lines, e.planner.PlanScan(t, n.Filter).Explain())
		case *JoinNode:
			algo := "NestedLoopJoin"
			if _, _, ok := equiJoinColumns(n); ok {
				algo = "HashJoin"
			}
			lines = append(lines, fmt.Sprintf("%s with %s", algo, n.RightName))
		case *FilterNode:
			lines = append(lines, "Filter")
		case *SortNode:
			lines = append(lines, fmt.Sprintf("Sort (%d key(s))", len(n.Exprs)))
		case *AggregateNode:
			lines = append(lines, fmt.Sprintf("Aggregate (%d function(s))", len(n.Aggs)))
		case *ProjectNode:
			if n.HasLimit {
				lines = append(lines, fmt.Sprintf("Project with LIMIT %d", n.Limit))
			} else {
				lines = append(lines, "Project")
			}
		}
	}

	res := &QueryResult{Columns: []string{"plan"}}
	for _, line := range lines {
		res.Rows = append(res.Rows, []catalog.Value{catalog.NewString(line)})
	}
	res.RowCount = len(res.Rows)
	res.ColCount = 1
	return res, nil
}
