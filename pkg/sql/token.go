// Package sql implements the query-processing pipeline: tokenizer, parser,
// AST-to-IR lowering, cost-based planning, and execution against the
// in-memory catalog.
package sql

import "strings"

// TokenType represents the type of a token.
type TokenType int

const (
	// Special tokens
	TOKEN_EOF TokenType = iota
	TOKEN_ERROR

	// Literals
	TOKEN_IDENT  // identifiers: table names, column names
	TOKEN_NUMBER // numeric literals, integer or decimal
	TOKEN_STRING // string literals 'hello' or "hello"

	// Punctuation
	TOKEN_COMMA     // ,
	TOKEN_SEMICOLON // ;
	TOKEN_LPAREN    // (
	TOKEN_RPAREN    // )
	TOKEN_DOT       // .

	// Operators
	TOKEN_STAR    // *
	TOKEN_PLUS    // +
	TOKEN_MINUS   // -
	TOKEN_SLASH   // /
	TOKEN_PERCENT // %
	TOKEN_EQ      // =
	TOKEN_NE      // != or <>
	TOKEN_LT      // <
	TOKEN_LE      // <=
	TOKEN_GT      // >
	TOKEN_GE      // >=

	// Statement keywords
	TOKEN_SELECT
	TOKEN_FROM
	TOKEN_WHERE
	TOKEN_INSERT
	TOKEN_INTO
	TOKEN_VALUES
	TOKEN_UPDATE
	TOKEN_SET
	TOKEN_DELETE
	TOKEN_CREATE
	TOKEN_TABLE
	TOKEN_DROP
	TOKEN_INDEX
	TOKEN_EXPLAIN

	// Logical and set operators
	TOKEN_AND
	TOKEN_OR
	TOKEN_NOT
	TOKEN_LIKE
	TOKEN_IN
	TOKEN_EXISTS
	TOKEN_BETWEEN
	TOKEN_IS
	TOKEN_DISTINCT

	// Literals and constants
	TOKEN_NULL
	TOKEN_TRUE
	TOKEN_FALSE

	// Clause keywords
	TOKEN_ORDER
	TOKEN_BY
	TOKEN_ASC
	TOKEN_DESC
	TOKEN_LIMIT
	TOKEN_AS
	TOKEN_ON
	TOKEN_JOIN
	TOKEN_LEFT
	TOKEN_INNER
	TOKEN_USING

	// Constraint keywords
	TOKEN_PRIMARY
	TOKEN_KEY
	TOKEN_UNIQUE
	TOKEN_REFERENCES
	TOKEN_STRICT

	// Data type keywords
	TOKEN_TYPE_INT
	TOKEN_TYPE_STRING
	TOKEN_TYPE_FLOAT
	TOKEN_TYPE_BOOL
	TOKEN_TYPE_DECIMAL
	TOKEN_TYPE_BLOB
	TOKEN_TYPE_DATE
	TOKEN_TYPE_TIME

	// Aggregate function keywords
	TOKEN_COUNT
	TOKEN_SUM
	TOKEN_AVG
	TOKEN_MIN
	TOKEN_MAX
)

var keywords = map[string]TokenType{
	"SELECT":     TOKEN_SELECT,
	"FROM":       TOKEN_FROM,
	"WHERE":      TOKEN_WHERE,
	"INSERT":     TOKEN_INSERT,
	"INTO":       TOKEN_INTO,
	"VALUES":     TOKEN_VALUES,
	"UPDATE":     TOKEN_UPDATE,
	"SET":        TOKEN_SET,
	"DELETE":     TOKEN_DELETE,
	"CREATE":     TOKEN_CREATE,
	"TABLE":      TOKEN_TABLE,
	"DROP":       TOKEN_DROP,
	"INDEX":      TOKEN_INDEX,
	"EXPLAIN":    TOKEN_EXPLAIN,
	"AND":        TOKEN_AND,
	"OR":         TOKEN_OR,
	"NOT":        TOKEN_NOT,
	"LIKE":       TOKEN_LIKE,
	"IN":         TOKEN_IN,
	"EXISTS":     TOKEN_EXISTS,
	"BETWEEN":    TOKEN_BETWEEN,
	"IS":         TOKEN_IS,
	"DISTINCT":   TOKEN_DISTINCT,
	"NULL":       TOKEN_NULL,
	"TRUE":       TOKEN_TRUE,
	"FALSE":      TOKEN_FALSE,
	"ORDER":      TOKEN_ORDER,
	"BY":         TOKEN_BY,
	"ASC":        TOKEN_ASC,
	"DESC":       TOKEN_DESC,
	"LIMIT":      TOKEN_LIMIT,
	"AS":         TOKEN_AS,
	"ON":         TOKEN_ON,
	"JOIN":       TOKEN_JOIN,
	"LEFT":       TOKEN_LEFT,
	"INNER":      TOKEN_INNER,
	"USING":      TOKEN_USING,
	"PRIMARY":    TOKEN_PRIMARY,
	"KEY":        TOKEN_KEY,
	"UNIQUE":     TOKEN_UNIQUE,
	"REFERENCES": TOKEN_REFERENCES,
	"STRICT":     TOKEN_STRICT,
	"INT":        TOKEN_TYPE_INT,
	"INTEGER":    TOKEN_TYPE_INT,
	"BIGINT":     TOKEN_TYPE_INT,
	"STRING":     TOKEN_TYPE_STRING,
	"TEXT":       TOKEN_TYPE_STRING,
	"VARCHAR":    TOKEN_TYPE_STRING,
	"FLOAT":      TOKEN_TYPE_FLOAT,
	"REAL":       TOKEN_TYPE_FLOAT,
	"DOUBLE":     TOKEN_TYPE_FLOAT,
	"BOOL":       TOKEN_TYPE_BOOL,
	"BOOLEAN":    TOKEN_TYPE_BOOL,
	"DECIMAL":    TOKEN_TYPE_DECIMAL,
	"NUMERIC":    TOKEN_TYPE_DECIMAL,
	"BLOB":       TOKEN_TYPE_BLOB,
	"DATE":       TOKEN_TYPE_DATE,
	"TIME":       TOKEN_TYPE_TIME,
	"COUNT":      TOKEN_COUNT,
	"SUM":        TOKEN_SUM,
	"AVG":        TOKEN_AVG,
	"MIN":        TOKEN_MIN,
	"MAX":        TOKEN_MAX,
}

// keywordNames maps each keyword token to one canonical spelling for
// error messages. Type aliases (INTEGER, VARCHAR, ...) render as the
// canonical type name.
var keywordNames = map[TokenType]string{}

func init() {
	for kw, tt := range keywords {
		keywordNames[tt] = kw
	}
	keywordNames[TOKEN_TYPE_INT] = "INT"
	keywordNames[TOKEN_TYPE_STRING] = "STRING"
	keywordNames[TOKEN_TYPE_FLOAT] = "FLOAT"
	keywordNames[TOKEN_TYPE_BOOL] = "BOOL"
	keywordNames[TOKEN_TYPE_DECIMAL] = "DECIMAL"
}

// Token represents a lexical token.
type Token struct {
	Type    TokenType
	Literal string
	Pos     int
}

// IsComparison reports whether the token is a comparison operator.
func (t TokenType) IsComparison() bool {
	switch t {
	case TOKEN_EQ, TOKEN_NE, TOKEN_LT, TOKEN_LE, TOKEN_GT, TOKEN_GE:
		return true
	}
	return false
}

// IsAggregate reports whether the token names an aggregate function.
func (t TokenType) IsAggregate() bool {
	switch t {
	case TOKEN_COUNT, TOKEN_SUM, TOKEN_AVG, TOKEN_MIN, TOKEN_MAX:
		return true
	}
	return false
}

// IsTypeKeyword reports whether the token names a data type.
func (t TokenType) IsTypeKeyword() bool {
	switch t {
	case TOKEN_TYPE_INT, TOKEN_TYPE_STRING, TOKEN_TYPE_FLOAT, TOKEN_TYPE_BOOL,
		TOKEN_TYPE_DECIMAL, TOKEN_TYPE_BLOB, TOKEN_TYPE_DATE, TOKEN_TYPE_TIME:
		return true
	}
	return false
}

func lookupKeyword(ident string) TokenType {
	if tok, ok := keywords[strings.ToUpper(ident)]; ok {
		return tok
	}
	return TOKEN_IDENT
}

// describeToken renders a token type for error messages.
func describeToken(t TokenType) string {
	switch t {
	case TOKEN_EOF:
		return "end of input"
	case TOKEN_ERROR:
		return "invalid character"
	case TOKEN_IDENT:
		return "identifier"
	case TOKEN_NUMBER:
		return "number"
	case TOKEN_STRING:
		return "string literal"
	case TOKEN_COMMA:
		return "','"
	case TOKEN_SEMICOLON:
		return "';'"
	case TOKEN_LPAREN:
		return "'('"
	case TOKEN_RPAREN:
		return "')'"
	case TOKEN_DOT:
		return "'.'"
	case TOKEN_STAR:
		return "'*'"
	case TOKEN_PLUS:
		return "'+'"
	case TOKEN_MINUS:
		return "'-'"
	case TOKEN_SLASH:
		return "'/'"
	case TOKEN_PERCENT:
		return "'%'"
	case TOKEN_EQ:
		return "'='"
	case TOKEN_NE:
		return "'!='"
	case TOKEN_LT:
		return "'<'"
	case TOKEN_LE:
		return "'<='"
	case TOKEN_GT:
		return "'>'"
	case TOKEN_GE:
		return "'>='"
	default:
		if kw, ok := keywordNames[t]; ok {
			return kw
		}
		return "token"
	}
}
