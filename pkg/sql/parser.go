package sql

import (
	"strconv"
	"strings"

	"github.com/relishdb/relish/pkg/catalog"
	"github.com/relishdb/relish/pkg/index"
)

// Parser is a recursive-descent parser. Name resolution happens during
// parsing: table names are looked up in the catalog and replaced by numeric
// ids, column names by (table id, column index) pairs. Column references in
// the SELECT list appear before FROM, so references resolve lazily: each
// scope collects its ColumnRefs and binds them once the tables are known.
type Parser struct {
	lexer *Lexer
	cur   Token
	peek  Token
	cat   *catalog.Catalog

	scopes []*scope
}

// scope is the resolution environment of one SELECT (or other statement).
type scope struct {
	tables  []*catalog.Table
	offsets []int // column offset of each table in the working row
	pending []*pendingRef
}

type pendingRef struct {
	ref *ColumnRef
	pos int
}

// NewParser creates a parser for one statement, resolving names against
// the given catalog.
func NewParser(input string, cat *catalog.Catalog) *Parser {
	p := &Parser{lexer: NewLexer(input), cat: cat}
	p.nextToken()
	p.nextToken()
	return p
}

func (p *Parser) nextToken() {
	p.cur = p.peek
	p.peek = p.lexer.NextToken()
}

func (p *Parser) curTokenIs(t TokenType) bool { return p.cur.Type == t }

func (p *Parser) expect(t TokenType) error {
	if p.curTokenIs(t) {
		p.nextToken()
		return nil
	}
	code := ErrMissingToken
	if p.curTokenIs(TOKEN_EOF) {
		code = ErrUnexpectedEnd
	}
	return &ParseError{
		Code:     code,
		Msg:      "unexpected input",
		Pos:      p.cur.Pos,
		Expected: describeToken(t),
		Found:    describeToken(p.cur.Type),
	}
}

func (p *Parser) unexpected(expected string) *ParseError {
	code := ErrUnexpectedToken
	if p.curTokenIs(TOKEN_EOF) {
		code = ErrUnexpectedEnd
	} else if p.curTokenIs(TOKEN_ERROR) {
		// single bad character, or an unterminated quote run
		code = ErrSyntax
		if strings.HasPrefix(p.cur.Literal, "'") && len(p.cur.Literal) > 1 {
			code = ErrUnterminatedString
		}
	}
	return &ParseError{
		Code:     code,
		Msg:      "unexpected input",
		Pos:      p.cur.Pos,
		Expected: expected,
		Found:    describeToken(p.cur.Type),
	}
}

// Parse parses a single SQL statement, dispatching on the first keyword.
func (p *Parser) Parse() (Statement, error) {
	switch p.cur.Type {
	case TOKEN_SELECT:
		return p.parseSelect()
	case TOKEN_INSERT:
		return p.parseInsert()
	case TOKEN_UPDATE:
		return p.parseUpdate()
	case TOKEN_DELETE:
		return p.parseDelete()
	case TOKEN_CREATE:
		return p.parseCreate()
	case TOKEN_DROP:
		return p.parseDrop()
	case TOKEN_EXPLAIN:
		return p.parseExplain()
	default:
		return nil, p.unexpected("statement keyword")
	}
}

// scope management

func (p *Parser) pushScope() *scope {
	s := &scope{}
	p.scopes = append(p.scopes, s)
	return s
}

func (p *Parser) popScope() {
	p.scopes = p.scopes[:len(p.scopes)-1]
}

func (p *Parser) currentScope() *scope {
	if len(p.scopes) == 0 {
		return nil
	}
	return p.scopes[len(p.scopes)-1]
}

func (s *scope) addTable(t *catalog.Table) {
	offset := 0
	if n := len(s.tables); n > 0 {
		offset = s.offsets[n-1] + len(s.tables[n-1].Def.Columns)
	}
	s.tables = append(s.tables, t)
	s.offsets = append(s.offsets, offset)
}

// resolve binds every pending column reference in the scope.
func (p *Parser) resolveScope(s *scope) error {
	for _, pr := range s.pending {
		if err := p.bindColumn(s, pr.ref, pr.pos); err != nil {
			return err
		}
	}
	s.pending = nil
	return nil
}

func (p *Parser) bindColumn(s *scope, ref *ColumnRef, pos int) error {
	if ref.Qualifier != "" {
		for i, t := range s.tables {
			if strings.EqualFold(t.Name, ref.Qualifier) {
				col := t.Def.ColumnIndex(ref.Name)
				if col < 0 {
					return p.unknownColumn(s, ref.Name, pos)
				}
				ref.TableID = t.ID
				ref.Col = s.offsets[i] + col
				return nil
			}
		}
		return &ParseError{
			Code:       ErrUnknownTable,
			Msg:        "no table named " + strconv.Quote(ref.Qualifier),
			Pos:        pos,
			Suggestion: Suggest(ref.Qualifier, p.cat.TableNames()),
		}
	}
	found := -1
	for i, t := range s.tables {
		if col := t.Def.ColumnIndex(ref.Name); col >= 0 {
			if found >= 0 {
				return syntaxErr(ErrUnknownColumn, pos, "ambiguous column %q", ref.Name)
			}
			found = i
			ref.TableID = t.ID
			ref.Col = s.offsets[i] + col
		}
	}
	if found < 0 {
		return p.unknownColumn(s, ref.Name, pos)
	}
	return nil
}

func (p *Parser) unknownColumn(s *scope, name string, pos int) error {
	var candidates []string
	for _, t := range s.tables {
		candidates = append(candidates, t.Def.ColumnNames()...)
	}
	return &ParseError{
		Code:       ErrUnknownColumn,
		Msg:        "no column named " + strconv.Quote(name),
		Pos:        pos,
		Suggestion: Suggest(name, candidates),
	}
}

// lookupTable resolves a table name against the catalog with a suggestion
// on failure.
func (p *Parser) lookupTable(name string, pos int) (*catalog.Table, error) {
	if t := p.cat.TableByName(name); t != nil {
		return t, nil
	}
	return nil, &ParseError{
		Code:       ErrUnknownTable,
		Msg:        "no table named " + strconv.Quote(name),
		Pos:        pos,
		Suggestion: Suggest(name, p.cat.TableNames()),
	}
}

func (p *Parser) parseIdent() (string, int, error) {
	if !p.curTokenIs(TOKEN_IDENT) {
		return "", 0, p.unexpected("identifier")
	}
	name, pos := p.cur.Literal, p.cur.Pos
	p.nextToken()
	return name, pos, nil
}

// CREATE TABLE / CREATE INDEX

func (p *Parser) parseCreate() (Statement, error) {
	p.nextToken() // CREATE
	switch p.cur.Type {
	case TOKEN_TABLE:
		return p.parseCreateTable()
	case TOKEN_INDEX:
		return p.parseCreateIndex()
	default:
		return nil, p.unexpected("TABLE or INDEX")
	}
}

func (p *Parser) parseCreateTable() (Statement, error) {
	p.nextToken() // TABLE
	name, _, err := p.parseIdent()
	if err != nil {
		return nil, err
	}
	if err := p.expect(TOKEN_LPAREN); err != nil {
		return nil, err
	}

	var def catalog.TableDef
	for {
		col, err := p.parseColumnDef()
		if err != nil {
			return nil, err
		}
		def.Columns = append(def.Columns, col)
		if p.curTokenIs(TOKEN_COMMA) {
			p.nextToken()
			continue
		}
		break
	}
	if err := p.expect(TOKEN_RPAREN); err != nil {
		return nil, err
	}
	if p.curTokenIs(TOKEN_STRICT) {
		def.Strict = true
		p.nextToken()
	}
	return &CreateTableStmt{Name: name, Def: def}, nil
}

func (p *Parser) parseColumnDef() (catalog.ColumnDef, error) {
	var col catalog.ColumnDef
	name, _, err := p.parseIdent()
	if err != nil {
		return col, err
	}
	col.Name = name
	if !p.cur.Type.IsTypeKeyword() {
		return col, p.unexpected("data type")
	}
	col.Type = catalog.ParseDataType(p.cur.Literal)
	p.nextToken()
	col.Flags = catalog.FlagNullable

	for {
		switch p.cur.Type {
		case TOKEN_PRIMARY:
			p.nextToken()
			if err := p.expect(TOKEN_KEY); err != nil {
				return col, err
			}
			col.Flags |= catalog.FlagPrimaryKey
			col.Flags &^= catalog.FlagNullable
		case TOKEN_UNIQUE:
			p.nextToken()
			col.Flags |= catalog.FlagUnique
		case TOKEN_NOT:
			p.nextToken()
			if err := p.expect(TOKEN_NULL); err != nil {
				return col, err
			}
			col.Flags &^= catalog.FlagNullable
		case TOKEN_REFERENCES:
			p.nextToken()
			refTable, _, err := p.parseIdent()
			if err != nil {
				return col, err
			}
			if err := p.expect(TOKEN_LPAREN); err != nil {
				return col, err
			}
			refCol, _, err := p.parseIdent()
			if err != nil {
				return col, err
			}
			if err := p.expect(TOKEN_RPAREN); err != nil {
				return col, err
			}
			col.Flags |= catalog.FlagForeignKey
			col.RefTable = refTable
			col.RefColumn = refCol
		default:
			return col, nil
		}
	}
}

func (p *Parser) parseCreateIndex() (Statement, error) {
	p.nextToken() // INDEX
	idxName, _, err := p.parseIdent()
	if err != nil {
		return nil, err
	}
	if err := p.expect(TOKEN_ON); err != nil {
		return nil, err
	}
	tblName, tblPos, err := p.parseIdent()
	if err != nil {
		return nil, err
	}
	t, err := p.lookupTable(tblName, tblPos)
	if err != nil {
		return nil, err
	}
	if err := p.expect(TOKEN_LPAREN); err != nil {
		return nil, err
	}
	colName, colPos, err := p.parseIdent()
	if err != nil {
		return nil, err
	}
	col := t.Def.ColumnIndex(colName)
	if col < 0 {
		return nil, &ParseError{
			Code:       ErrUnknownColumn,
			Msg:        "no column named " + strconv.Quote(colName),
			Pos:        colPos,
			Suggestion: Suggest(colName, t.Def.ColumnNames()),
		}
	}
	if err := p.expect(TOKEN_RPAREN); err != nil {
		return nil, err
	}

	kind := index.KindHash
	if p.curTokenIs(TOKEN_USING) {
		p.nextToken()
		method, pos, err := p.parseIdent()
		if err != nil {
			return nil, err
		}
		switch strings.ToUpper(method) {
		case "HASH":
			kind = index.KindHash
		case "BTREE", "ORDERED":
			kind = index.KindBTree
		default:
			return nil, syntaxErr(ErrSyntax, pos, "unknown index method %q (want HASH or ORDERED)", method)
		}
	}
	return &CreateIndexStmt{
		IndexName: idxName,
		TableID:   t.ID,
		TableName: t.Name,
		Column:    col,
		Kind:      kind,
	}, nil
}

// DROP TABLE / DROP INDEX

func (p *Parser) parseDrop() (Statement, error) {
	p.nextToken() // DROP
	switch p.cur.Type {
	case TOKEN_TABLE:
		p.nextToken()
		name, pos, err := p.parseIdent()
		if err != nil {
			return nil, err
		}
		t, err := p.lookupTable(name, pos)
		if err != nil {
			return nil, err
		}
		return &DropTableStmt{Name: t.Name, TableID: t.ID}, nil
	case TOKEN_INDEX:
		p.nextToken()
		name, _, err := p.parseIdent()
		if err != nil {
			return nil, err
		}
		return &DropIndexStmt{IndexName: name}, nil
	default:
		return nil, p.unexpected("TABLE or INDEX")
	}
}

// INSERT

func (p *Parser) parseInsert() (Statement, error) {
	p.nextToken() // INSERT
	if err := p.expect(TOKEN_INTO); err != nil {
		return nil, err
	}
	name, pos, err := p.parseIdent()
	if err != nil {
		return nil, err
	}
	t, err := p.lookupTable(name, pos)
	if err != nil {
		return nil, err
	}
	stmt := &InsertStmt{TableID: t.ID, TableName: t.Name}

	if p.curTokenIs(TOKEN_LPAREN) {
		p.nextToken()
		for {
			colName, colPos, err := p.parseIdent()
			if err != nil {
				return nil, err
			}
			col := t.Def.ColumnIndex(colName)
			if col < 0 {
				return nil, &ParseError{
					Code:       ErrUnknownColumn,
					Msg:        "no column named " + strconv.Quote(colName),
					Pos:        colPos,
					Suggestion: Suggest(colName, t.Def.ColumnNames()),
				}
			}
			stmt.Columns = append(stmt.Columns, col)
			if p.curTokenIs(TOKEN_COMMA) {
				p.nextToken()
				continue
			}
			break
		}
		if err := p.expect(TOKEN_RPAREN); err != nil {
			return nil, err
		}
	}

	if err := p.expect(TOKEN_VALUES); err != nil {
		return nil, err
	}

	s := p.pushScope()
	defer p.popScope()
	for {
		if err := p.expect(TOKEN_LPAREN); err != nil {
			return nil, err
		}
		var row []Expression
		for {
			expr, err := p.parseExpr()
			if err != nil {
				return nil, err
			}
			row = append(row, expr)
			if p.curTokenIs(TOKEN_COMMA) {
				p.nextToken()
				continue
			}
			break
		}
		if err := p.expect(TOKEN_RPAREN); err != nil {
			return nil, err
		}
		maxCols := len(t.Def.Columns)
		if stmt.Columns != nil {
			maxCols = len(stmt.Columns)
		}
		if len(row) > maxCols {
			return nil, syntaxErr(ErrSyntax, p.cur.Pos, "too many values: %d for %d columns", len(row), maxCols)
		}
		stmt.Rows = append(stmt.Rows, row)
		if p.curTokenIs(TOKEN_COMMA) {
			p.nextToken()
			continue
		}
		break
	}
	// VALUES rows have no row context; any column reference is an error
	if len(s.pending) > 0 {
		pr := s.pending[0]
		return nil, syntaxErr(ErrUnknownColumn, pr.pos, "column reference %q not allowed in VALUES", pr.ref.Name)
	}
	return stmt, nil
}

// SELECT

func (p *Parser) parseSelect() (*SelectStmt, error) {
	p.nextToken() // SELECT
	s := p.pushScope()
	defer p.popScope()

	stmt := &SelectStmt{}
	for {
		item, err := p.parseSelectItem()
		if err != nil {
			return nil, err
		}
		stmt.Items = append(stmt.Items, item)
		if p.curTokenIs(TOKEN_COMMA) {
			p.nextToken()
			continue
		}
		break
	}

	if err := p.expect(TOKEN_FROM); err != nil {
		return nil, err
	}
	name, pos, err := p.parseIdent()
	if err != nil {
		return nil, err
	}
	t, err := p.lookupTable(name, pos)
	if err != nil {
		return nil, err
	}
	stmt.TableID = t.ID
	stmt.TableName = t.Name
	s.addTable(t)

	if p.curTokenIs(TOKEN_JOIN) || p.curTokenIs(TOKEN_LEFT) || p.curTokenIs(TOKEN_INNER) {
		join, err := p.parseJoin(s)
		if err != nil {
			return nil, err
		}
		stmt.Join = join
	}

	if p.curTokenIs(TOKEN_WHERE) {
		p.nextToken()
		where, err := p.parseExpr()
		if err != nil {
			return nil, err
		}
		stmt.Where = where
	}

	if p.curTokenIs(TOKEN_ORDER) {
		p.nextToken()
		if err := p.expect(TOKEN_BY); err != nil {
			return nil, err
		}
		for {
			expr, err := p.parseExpr()
			if err != nil {
				return nil, err
			}
			clause := OrderByClause{Expr: expr}
			if p.curTokenIs(TOKEN_DESC) {
				clause.Desc = true
				p.nextToken()
			} else if p.curTokenIs(TOKEN_ASC) {
				p.nextToken()
			}
			stmt.OrderBy = append(stmt.OrderBy, clause)
			if p.curTokenIs(TOKEN_COMMA) {
				p.nextToken()
				continue
			}
			break
		}
	}

	if p.curTokenIs(TOKEN_LIMIT) {
		p.nextToken()
		if !p.curTokenIs(TOKEN_NUMBER) {
			return nil, p.unexpected("limit count")
		}
		n, err := strconv.ParseInt(p.cur.Literal, 10, 64)
		if err != nil || n < 0 {
			return nil, syntaxErr(ErrInvalidNumber, p.cur.Pos, "invalid LIMIT %q", p.cur.Literal)
		}
		stmt.Limit = n
		stmt.HasLimit = true
		p.nextToken()
	}

	if err := p.resolveScope(s); err != nil {
		return nil, err
	}
	return stmt, nil
}

func (p *Parser) parseSelectItem() (SelectItem, error) {
	if p.curTokenIs(TOKEN_STAR) {
		p.nextToken()
		return SelectItem{Star: true}, nil
	}
	expr, err := p.parseExpr()
	if err != nil {
		return SelectItem{}, err
	}
	item := SelectItem{Expr: expr}
	if p.curTokenIs(TOKEN_AS) {
		p.nextToken()
		alias, _, err := p.parseIdent()
		if err != nil {
			return SelectItem{}, err
		}
		item.Alias = alias
	}
	return item, nil
}

func (p *Parser) parseJoin(s *scope) (*JoinClause, error) {
	join := &JoinClause{Type: JoinInner}
	if p.curTokenIs(TOKEN_LEFT) {
		join.Type = JoinLeft
		p.nextToken()
	} else if p.curTokenIs(TOKEN_INNER) {
		p.nextToken()
	}
	if err := p.expect(TOKEN_JOIN); err != nil {
		return nil, err
	}
	name, pos, err := p.parseIdent()
	if err != nil {
		return nil, err
	}
	t, err := p.lookupTable(name, pos)
	if err != nil {
		return nil, err
	}
	join.TableID = t.ID
	join.TableName = t.Name
	s.addTable(t)

	if err := p.expect(TOKEN_ON); err != nil {
		return nil, err
	}
	on, err := p.parseExpr()
	if err != nil {
		return nil, err
	}
	join.On = on
	return join, nil
}

// UPDATE

func (p *Parser) parseUpdate() (Statement, error) {
	p.nextToken() // UPDATE
	name, pos, err := p.parseIdent()
	if err != nil {
		return nil, err
	}
	t, err := p.lookupTable(name, pos)
	if err != nil {
		return nil, err
	}
	s := p.pushScope()
	defer p.popScope()
	s.addTable(t)

	if err := p.expect(TOKEN_SET); err != nil {
		return nil, err
	}
	stmt := &UpdateStmt{TableID: t.ID, TableName: t.Name}
	for {
		colName, colPos, err := p.parseIdent()
		if err != nil {
			return nil, err
		}
		col := t.Def.ColumnIndex(colName)
		if col < 0 {
			return nil, &ParseError{
				Code:       ErrUnknownColumn,
				Msg:        "no column named " + strconv.Quote(colName),
				Pos:        colPos,
				Suggestion: Suggest(colName, t.Def.ColumnNames()),
			}
		}
		if err := p.expect(TOKEN_EQ); err != nil {
			return nil, err
		}
		value, err := p.parseExpr()
		if err != nil {
			return nil, err
		}
		stmt.Sets = append(stmt.Sets, Assignment{Column: col, ColName: t.Def.Columns[col].Name, Value: value})
		if p.curTokenIs(TOKEN_COMMA) {
			p.nextToken()
			continue
		}
		break
	}

	if p.curTokenIs(TOKEN_WHERE) {
		p.nextToken()
		where, err := p.parseExpr()
		if err != nil {
			return nil, err
		}
		stmt.Where = where
	}
	if err := p.resolveScope(s); err != nil {
		return nil, err
	}
	return stmt, nil
}

// DELETE

func (p *Parser) parseDelete() (Statement, error) {
	p.nextToken() // DELETE
	if err := p.expect(TOKEN_FROM); err != nil {
		return nil, err
	}
	name, pos, err := p.parseIdent()
	if err != nil {
		return nil, err
	}
	t, err := p.lookupTable(name, pos)
	if err != nil {
		return nil, err
	}
	s := p.pushScope()
	defer p.popScope()
	s.addTable(t)

	stmt := &DeleteStmt{TableID: t.ID, TableName: t.Name}
	if p.curTokenIs(TOKEN_WHERE) {
		p.nextToken()
		where, err := p.parseExpr()
		if err != nil {
			return nil, err
		}
		stmt.Where = where
	}
	if err := p.resolveScope(s); err != nil {
		return nil, err
	}
	return stmt, nil
}

// EXPLAIN

func (p *Parser) parseExplain() (Statement, error) {
	p.nextToken() // EXPLAIN
	if !p.curTokenIs(TOKEN_SELECT) {
		return nil, p.unexpected("SELECT")
	}
	sel, err := p.parseSelect()
	if err != nil {
		return nil, err
	}
	return &ExplainStmt{Select: sel}, nil
}

// Expression grammar, precedence lowest to highest:
// OR; AND; NOT; comparison (incl. LIKE, BETWEEN, IS NULL, IN); additive;
// multiplicative; unary minus; primary.

func (p *Parser) parseExpr() (Expression, error) {
	return p.parseOr()
}

func (p *Parser) parseOr() (Expression, error) {
	left, err := p.parseAnd()
	if err != nil {
		return nil, err
	}
	for p.curTokenIs(TOKEN_OR) {
		p.nextToken()
		right, err := p.parseAnd()
		if err != nil {
			return nil, err
		}
		left = &BinaryExpr{Left: left, Op: TOKEN_OR, Right: right}
	}
	return left, nil
}

func (p *Parser) parseAnd() (Expression, error) {
	left, err := p.parseNot()
	if err != nil {
		return nil, err
	}
	for p.curTokenIs(TOKEN_AND) {
		p.nextToken()
		right, err := p.parseNot()
		if err != nil {
			return nil, err
		}
		left = &BinaryExpr{Left: left, Op: TOKEN_AND, Right: right}
	}
	return left, nil
}

func (p *Parser) parseNot() (Expression, error) {
	if p.curTokenIs(TOKEN_NOT) {
		p.nextToken()
		expr, err := p.parseNot()
		if err != nil {
			return nil, err
		}
		return &UnaryExpr{Op: TOKEN_NOT, Expr: expr}, nil
	}
	return p.parseComparison()
}

func (p *Parser) parseComparison() (Expression, error) {
	left, err := p.parseAdditive()
	if err != nil {
		return nil, err
	}

	not := false
	if p.curTokenIs(TOKEN_NOT) {
		// NOT LIKE / NOT BETWEEN / NOT IN
		switch p.peek.Type {
		case TOKEN_LIKE, TOKEN_BETWEEN, TOKEN_IN:
			not = true
			p.nextToken()
		}
	}

	switch p.cur.Type {
	case TOKEN_EQ, TOKEN_NE, TOKEN_LT, TOKEN_LE, TOKEN_GT, TOKEN_GE:
		op := p.cur.Type
		p.nextToken()
		right, err := p.parseAdditive()
		if err != nil {
			return nil, err
		}
		return &BinaryExpr{Left: left, Op: op, Right: right}, nil

	case TOKEN_LIKE:
		p.nextToken()
		pattern, err := p.parseAdditive()
		if err != nil {
			return nil, err
		}
		return &LikeExpr{Expr: left, Pattern: pattern, Not: not}, nil

	case TOKEN_BETWEEN:
		p.nextToken()
		low, err := p.parseAdditive()
		if err != nil {
			return nil, err
		}
		if err := p.expect(TOKEN_AND); err != nil {
			return nil, err
		}
		high, err := p.parseAdditive()
		if err != nil {
			return nil, err
		}
		return &BetweenExpr{Expr: left, Low: low, High: high, Not: not}, nil

	case TOKEN_IS:
		p.nextToken()
		isNot := false
		if p.curTokenIs(TOKEN_NOT) {
			isNot = true
			p.nextToken()
		}
		if err := p.expect(TOKEN_NULL); err != nil {
			return nil, err
		}
		return &IsNullExpr{Expr: left, Not: isNot}, nil

	case TOKEN_IN:
		p.nextToken()
		if err := p.expect(TOKEN_LPAREN); err != nil {
			return nil, err
		}
		in := &InExpr{Left: left, Not: not}
		if p.curTokenIs(TOKEN_SELECT) {
			sub, err := p.parseSelect()
			if err != nil {
				return nil, err
			}
			in.Sub = sub
		} else {
			for {
				v, err := p.parseAdditive()
				if err != nil {
					return nil, err
				}
				in.Values = append(in.Values, v)
				if p.curTokenIs(TOKEN_COMMA) {
					p.nextToken()
					continue
				}
				break
			}
		}
		if err := p.expect(TOKEN_RPAREN); err != nil {
			return nil, err
		}
		return in, nil
	}
	return left, nil
}

func (p *Parser) parseAdditive() (Expression, error) {
	left, err := p.parseMultiplicative()
	if err != nil {
		return nil, err
	}
	for p.curTokenIs(TOKEN_PLUS) || p.curTokenIs(TOKEN_MINUS) {
		op := p.cur.Type
		p.nextToken()
		right, err := p.parseMultiplicative()
		if err != nil {
			return nil, err
		}
		left = &BinaryExpr{Left: left, Op: op, Right: right}
	}
	return left, nil
}

func (p *Parser) parseMultiplicative() (Expression, error) {
	left, err := p.parseUnary()
	if err != nil {
		return nil, err
	}
	for p.curTokenIs(TOKEN_STAR) || p.curTokenIs(TOKEN_SLASH) || p.curTokenIs(TOKEN_PERCENT) {
		op := p.cur.Type
		p.nextToken()
		right, err := p.parseUnary()
		if err != nil {
			return nil, err
		}
		left = &BinaryExpr{Left: left, Op: op, Right: right}
	}
	return left, nil
}

func (p *Parser) parseUnary() (Expression, error) {
	if p.curTokenIs(TOKEN_MINUS) {
		p.nextToken()
		expr, err := p.parseUnary()
		if err != nil {
			return nil, err
		}
		// fold the sign into numeric literals
		if lit, ok := expr.(*LiteralExpr); ok {
			switch lit.Value.Kind {
			case catalog.KindInt:
				return &LiteralExpr{Value: catalog.NewInt(-lit.Value.Int)}, nil
			case catalog.KindFloat:
				return &LiteralExpr{Value: catalog.NewFloat(-lit.Value.Float)}, nil
			}
		}
		return &UnaryExpr{Op: TOKEN_MINUS, Expr: expr}, nil
	}
	return p.parsePrimary()
}

func (p *Parser) parsePrimary() (Expression, error) {
	switch p.cur.Type {
	case TOKEN_NUMBER:
		lit := p.cur.Literal
		pos := p.cur.Pos
		p.nextToken()
		if strings.Contains(lit, ".") {
			f, err := strconv.ParseFloat(lit, 64)
			if err != nil {
				return nil, syntaxErr(ErrInvalidNumber, pos, "invalid number %q", lit)
			}
			return &LiteralExpr{Value: catalog.NewFloat(f)}, nil
		}
		n, err := strconv.ParseInt(lit, 10, 64)
		if err != nil {
			return nil, syntaxErr(ErrInvalidNumber, pos, "invalid number %q", lit)
		}
		return &LiteralExpr{Value: catalog.NewInt(n)}, nil

	case TOKEN_STRING:
		v := catalog.NewString(p.cur.Literal)
		p.nextToken()
		return &LiteralExpr{Value: v}, nil

	case TOKEN_NULL:
		p.nextToken()
		return &LiteralExpr{Value: catalog.NewNull()}, nil

	case TOKEN_TRUE:
		p.nextToken()
		return &LiteralExpr{Value: catalog.NewBool(true)}, nil

	case TOKEN_FALSE:
		p.nextToken()
		return &LiteralExpr{Value: catalog.NewBool(false)}, nil

	case TOKEN_LPAREN:
		p.nextToken()
		if p.curTokenIs(TOKEN_SELECT) {
			sub, err := p.parseSelect()
			if err != nil {
				return nil, err
			}
			if err := p.expect(TOKEN_RPAREN); err != nil {
				return nil, err
			}
			return &SubqueryExpr{Sub: sub}, nil
		}
		expr, err := p.parseExpr()
		if err != nil {
			return nil, err
		}
		if err := p.expect(TOKEN_RPAREN); err != nil {
			return nil, err
		}
		return expr, nil

	case TOKEN_EXISTS:
		p.nextToken()
		if err := p.expect(TOKEN_LPAREN); err != nil {
			return nil, err
		}
		sub, err := p.parseSelect()
		if err != nil {
			return nil, err
		}
		if err := p.expect(TOKEN_RPAREN); err != nil {
			return nil, err
		}
		return &ExistsExpr{Sub: sub}, nil

	case TOKEN_COUNT, TOKEN_SUM, TOKEN_AVG, TOKEN_MIN, TOKEN_MAX:
		return p.parseAggregate()

	case TOKEN_IDENT:
		if p.peek.Type == TOKEN_LPAREN {
			return p.parseFuncCall()
		}
		return p.parseColumnRef()

	case TOKEN_LEFT:
		// LEFT is both the join keyword and a scalar function name.
		if p.peek.Type == TOKEN_LPAREN {
			return p.parseFuncCall()
		}
	}
	return nil, p.unexpected("expression")
}

func (p *Parser) parseAggregate() (Expression, error) {
	agg := &AggregateExpr{Func: p.cur.Type, Index: -1}
	p.nextToken()
	if err := p.expect(TOKEN_LPAREN); err != nil {
		return nil, err
	}
	if agg.Func == TOKEN_COUNT && p.curTokenIs(TOKEN_STAR) {
		agg.Star = true
		p.nextToken()
	} else {
		if p.curTokenIs(TOKEN_DISTINCT) {
			agg.Distinct = true
			p.nextToken()
		}
		arg, err := p.parseExpr()
		if err != nil {
			return nil, err
		}
		agg.Arg = arg
	}
	if err := p.expect(TOKEN_RPAREN); err != nil {
		return nil, err
	}
	return agg, nil
}

func (p *Parser) parseFuncCall() (Expression, error) {
	call := &FuncCallExpr{Name: strings.ToUpper(p.cur.Literal)}
	p.nextToken() // name
	p.nextToken() // (
	if !p.curTokenIs(TOKEN_RPAREN) {
		for {
			arg, err := p.parseExpr()
			if err != nil {
				return nil, err
			}
			call.Args = append(call.Args, arg)
			if p.curTokenIs(TOKEN_COMMA) {
				p.nextToken()
				continue
			}
			break
		}
	}
	if err := p.expect(TOKEN_RPAREN); err != nil {
		return nil, err
	}
	return call, nil
}

func (p *Parser) parseColumnRef() (Expression, error) {
	ref := &ColumnRef{Col: -1}
	name, pos, err := p.parseIdent()
	if err != nil {
		return nil, err
	}
	if p.curTokenIs(TOKEN_DOT) {
		p.nextToken()
		colName, colPos, err := p.parseIdent()
		if err != nil {
			return nil, err
		}
		ref.Qualifier = name
		ref.Name = colName
		pos = colPos
	} else {
		ref.Name = name
	}
	if s := p.currentScope(); s != nil {
		s.pending = append(s.pending, &pendingRef{ref: ref, pos: pos})
	}
	return ref, nil
}
