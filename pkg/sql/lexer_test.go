package sql

import "testing"

func TestNextToken(t *testing.T) {
	input := `SELECT id, name FROM users WHERE age >= 21 AND name != 'bob' LIMIT 5;`

	expected := []struct {
		typ     TokenType
		literal string
	}{
		{TOKEN_SELECT, "SELECT"},
		{TOKEN_IDENT, "id"},
		{TOKEN_COMMA, ","},
		{TOKEN_IDENT, "name"},
		{TOKEN_FROM, "FROM"},
		{TOKEN_IDENT, "users"},
		{TOKEN_WHERE, "WHERE"},
		{TOKEN_IDENT, "age"},
		{TOKEN_GE, ">="},
		{TOKEN_NUMBER, "21"},
		{TOKEN_AND, "AND"},
		{TOKEN_IDENT, "name"},
		{TOKEN_NE, "!="},
		{TOKEN_STRING, "bob"},
		{TOKEN_LIMIT, "LIMIT"},
		{TOKEN_NUMBER, "5"},
		{TOKEN_SEMICOLON, ";"},
		{TOKEN_EOF, ""},
	}

	l := NewLexer(input)
	for i, want := range expected {
		tok := l.NextToken()
		if tok.Type != want.typ {
			t.Fatalf("token %d: want type %d, got %d (%q)", i, want.typ, tok.Type, tok.Literal)
		}
		if tok.Literal != want.literal {
			t.Fatalf("token %d: want literal %q, got %q", i, want.literal, tok.Literal)
		}
	}
}

func TestOperators(t *testing.T) {
	input := `< <= > >= = != <> + - * / % . ( )`
	want := []TokenType{
		TOKEN_LT, TOKEN_LE, TOKEN_GT, TOKEN_GE, TOKEN_EQ, TOKEN_NE, TOKEN_NE,
		TOKEN_PLUS, TOKEN_MINUS, TOKEN_STAR, TOKEN_SLASH, TOKEN_PERCENT,
		TOKEN_DOT, TOKEN_LPAREN, TOKEN_RPAREN, TOKEN_EOF,
	}
	l := NewLexer(input)
	for i, typ := range want {
		tok := l.NextToken()
		if tok.Type != typ {
			t.Fatalf("token %d: want %d, got %d (%q)", i, typ, tok.Type, tok.Literal)
		}
	}
}

func TestKeywordsAreCaseInsensitive(t *testing.T) {
	l := NewLexer("select Select SELECT sElEcT")
	for i := 0; i < 4; i++ {
		if tok := l.NextToken(); tok.Type != TOKEN_SELECT {
			t.Fatalf("case %d: want SELECT keyword, got %q", i, tok.Literal)
		}
	}
}

func TestTypeAliases(t *testing.T) {
	tests := map[string]TokenType{
		"INTEGER": TOKEN_TYPE_INT,
		"BIGINT":  TOKEN_TYPE_INT,
		"TEXT":    TOKEN_TYPE_STRING,
		"VARCHAR": TOKEN_TYPE_STRING,
		"REAL":    TOKEN_TYPE_FLOAT,
		"NUMERIC": TOKEN_TYPE_DECIMAL,
		"BOOLEAN": TOKEN_TYPE_BOOL,
	}
	for word, typ := range tests {
		if tok := NewLexer(word).NextToken(); tok.Type != typ {
			t.Errorf("%s: want type token %d, got %d", word, typ, tok.Type)
		}
	}
}

func TestComments(t *testing.T) {
	input := `SELECT -- trailing comment
	/* block
	   comment */ 42`
	l := NewLexer(input)
	if tok := l.NextToken(); tok.Type != TOKEN_SELECT {
		t.Fatalf("want SELECT, got %q", tok.Literal)
	}
	if tok := l.NextToken(); tok.Type != TOKEN_NUMBER || tok.Literal != "42" {
		t.Fatalf("want 42, got %q", tok.Literal)
	}
	if tok := l.NextToken(); tok.Type != TOKEN_EOF {
		t.Fatalf("want EOF, got %q", tok.Literal)
	}
}

func TestNumbers(t *testing.T) {
	l := NewLexer("3.14 100 2.5.6")
	if tok := l.NextToken(); tok.Literal != "3.14" {
		t.Fatalf("want 3.14, got %q", tok.Literal)
	}
	if tok := l.NextToken(); tok.Literal != "100" {
		t.Fatalf("want 100, got %q", tok.Literal)
	}
	// a second decimal point ends the number
	if tok := l.NextToken(); tok.Literal != "2.5" {
		t.Fatalf("want 2.5, got %q", tok.Literal)
	}
}

func TestStringQuoteStyles(t *testing.T) {
	l := NewLexer(`'single' "double"`)
	if tok := l.NextToken(); tok.Type != TOKEN_STRING || tok.Literal != "single" {
		t.Fatalf("got %q", tok.Literal)
	}
	if tok := l.NextToken(); tok.Type != TOKEN_STRING || tok.Literal != "double" {
		t.Fatalf("got %q", tok.Literal)
	}
}

func TestUnterminatedString(t *testing.T) {
	l := NewLexer("'never ends")
	tok := l.NextToken()
	if tok.Type != TOKEN_ERROR {
		t.Fatalf("want TOKEN_ERROR, got type %d (%q)", tok.Type, tok.Literal)
	}
}

func TestBadCharacterDoesNotStopLexing(t *testing.T) {
	l := NewLexer("a @ b")
	if tok := l.NextToken(); tok.Type != TOKEN_IDENT {
		t.Fatalf("want ident, got %d", tok.Type)
	}
	if tok := l.NextToken(); tok.Type != TOKEN_ERROR || tok.Literal != "@" {
		t.Fatalf("want error token for @, got %d %q", tok.Type, tok.Literal)
	}
	if tok := l.NextToken(); tok.Type != TOKEN_IDENT || tok.Literal != "b" {
		t.Fatalf("lexing should continue past bad input, got %q", tok.Literal)
	}
}

func TestTokenPositions(t *testing.T) {
	l := NewLexer("SELECT id")
	if tok := l.NextToken(); tok.Pos != 0 {
		t.Fatalf("SELECT pos: want 0, got %d", tok.Pos)
	}
	if tok := l.NextToken(); tok.Pos != 7 {
		t.Fatalf("id pos: want 7, got %d", tok.Pos)
	}
}

func TestDescribeTokenCanonicalKeywords(t *testing.T) {
	// Aliased type keywords must render with one fixed spelling.
	tests := []struct {
		tok  TokenType
		want string
	}{
		{TOKEN_TYPE_INT, "INT"},
		{TOKEN_TYPE_STRING, "STRING"},
		{TOKEN_TYPE_FLOAT, "FLOAT"},
		{TOKEN_TYPE_BOOL, "BOOL"},
		{TOKEN_TYPE_DECIMAL, "DECIMAL"},
		{TOKEN_SELECT, "SELECT"},
		{TOKEN_COUNT, "COUNT"},
		{TOKEN_LEFT, "LEFT"},
	}
	for _, tt := range tests {
		if got := describeToken(tt.tok); got != tt.want {
			t.Errorf("describeToken(%d) = %q, want %q", tt.tok, got, tt.want)
		}
	}
}
