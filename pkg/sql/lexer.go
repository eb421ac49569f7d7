package sql

import "unicode"

// Lexer tokenizes SQL input. A character that cannot start any token
// produces a TOKEN_ERROR and lexing continues, so the parser can surface
// the position instead of the stream dying mid-statement.
type Lexer struct {
	input   string
	pos     int  // current position
	readPos int  // next position to read
	ch      byte // current character
}

// NewLexer creates a new Lexer for the input string.
func NewLexer(input string) *Lexer {
	l := &Lexer{input: input}
	l.readChar()
	return l
}

func (l *Lexer) readChar() {
	if l.readPos >= len(l.input) {
		l.ch = 0
	} else {
		l.ch = l.input[l.readPos]
	}
	l.pos = l.readPos
	l.readPos++
}

func (l *Lexer) peekChar() byte {
	if l.readPos >= len(l.input) {
		return 0
	}
	return l.input[l.readPos]
}

// skipWhitespace also swallows line comments (-- to end of line) and
// block comments (/* ... */, possibly multi-line).
func (l *Lexer) skipWhitespace() {
	for {
		switch {
		case l.ch == ' ' || l.ch == '\t' || l.ch == '\n' || l.ch == '\r':
			l.readChar()
		case l.ch == '-' && l.peekChar() == '-':
			for l.ch != '\n' && l.ch != 0 {
				l.readChar()
			}
		case l.ch == '/' && l.peekChar() == '*':
			l.readChar()
			l.readChar()
			for l.ch != 0 && !(l.ch == '*' && l.peekChar() == '/') {
				l.readChar()
			}
			if l.ch != 0 {
				l.readChar() // *
				l.readChar() // /
			}
		default:
			return
		}
	}
}

// NextToken returns the next token from the input.
func (l *Lexer) NextToken() Token {
	l.skipWhitespace()

	var tok Token
	tok.Pos = l.pos

	switch l.ch {
	case 0:
		tok.Type = TOKEN_EOF
		tok.Literal = ""
	case ',':
		tok = Token{Type: TOKEN_COMMA, Literal: ",", Pos: l.pos}
		l.readChar()
	case ';':
		tok = Token{Type: TOKEN_SEMICOLON, Literal: ";", Pos: l.pos}
		l.readChar()
	case '(':
		tok = Token{Type: TOKEN_LPAREN, Literal: "(", Pos: l.pos}
		l.readChar()
	case ')':
		tok = Token{Type: TOKEN_RPAREN, Literal: ")", Pos: l.pos}
		l.readChar()
	case '.':
		tok = Token{Type: TOKEN_DOT, Literal: ".", Pos: l.pos}
		l.readChar()
	case '*':
		tok = Token{Type: TOKEN_STAR, Literal: "*", Pos: l.pos}
		l.readChar()
	case '+':
		tok = Token{Type: TOKEN_PLUS, Literal: "+", Pos: l.pos}
		l.readChar()
	case '-':
		tok = Token{Type: TOKEN_MINUS, Literal: "-", Pos: l.pos}
		l.readChar()
	case '/':
		tok = Token{Type: TOKEN_SLASH, Literal: "/", Pos: l.pos}
		l.readChar()
	case '%':
		tok = Token{Type: TOKEN_PERCENT, Literal: "%", Pos: l.pos}
		l.readChar()
	case '=':
		tok = Token{Type: TOKEN_EQ, Literal: "=", Pos: l.pos}
		l.readChar()
	case '<':
		if l.peekChar() == '=' {
			l.readChar()
			tok = Token{Type: TOKEN_LE, Literal: "<=", Pos: l.pos - 1}
			l.readChar()
		} else if l.peekChar() == '>' {
			l.readChar()
			tok = Token{Type: TOKEN_NE, Literal: "<>", Pos: l.pos - 1}
			l.readChar()
		} else {
			tok = Token{Type: TOKEN_LT, Literal: "<", Pos: l.pos}
			l.readChar()
		}
	case '>':
		if l.peekChar() == '=' {
			l.readChar()
			tok = Token{Type: TOKEN_GE, Literal: ">=", Pos: l.pos - 1}
			l.readChar()
		} else {
			tok = Token{Type: TOKEN_GT, Literal: ">", Pos: l.pos}
			l.readChar()
		}
	case '!':
		if l.peekChar() == '=' {
			l.readChar()
			tok = Token{Type: TOKEN_NE, Literal: "!=", Pos: l.pos - 1}
			l.readChar()
		} else {
			tok = Token{Type: TOKEN_ERROR, Literal: string(l.ch), Pos: l.pos}
			l.readChar()
		}
	case '\'', '"':
		str, terminated := l.readString(l.ch)
		tok.Literal = str
		if terminated {
			tok.Type = TOKEN_STRING
		} else {
			tok.Type = TOKEN_ERROR
			tok.Literal = "'" + str
		}
	default:
		if isLetter(l.ch) {
			tok.Literal = l.readIdentifier()
			tok.Type = lookupKeyword(tok.Literal)
			return tok
		} else if isDigit(l.ch) {
			tok.Literal = l.readNumber()
			tok.Type = TOKEN_NUMBER
			return tok
		}
		tok = Token{Type: TOKEN_ERROR, Literal: string(l.ch), Pos: l.pos}
		l.readChar()
	}
	return tok
}

func (l *Lexer) readIdentifier() string {
	pos := l.pos
	for isLetter(l.ch) || isDigit(l.ch) || l.ch == '_' {
		l.readChar()
	}
	return l.input[pos:l.pos]
}

// readNumber consumes a digit run with at most one decimal point. The
// unary-minus sign is the parser's business.
func (l *Lexer) readNumber() string {
	pos := l.pos
	seenDot := false
	for isDigit(l.ch) || (l.ch == '.' && !seenDot && isDigit(l.peekChar())) {
		if l.ch == '.' {
			seenDot = true
		}
		l.readChar()
	}
	return l.input[pos:l.pos]
}

// readString consumes a quoted literal. No escape interpretation beyond
// skipping a backslash-quoted closing quote; date and time literals are
// plain strings whose target type the receiving column decides.
func (l *Lexer) readString(quote byte) (string, bool) {
	l.readChar() // consume opening quote
	pos := l.pos
	for l.ch != quote && l.ch != 0 {
		if l.ch == '\\' && l.peekChar() == quote {
			l.readChar()
		}
		l.readChar()
	}
	str := l.input[pos:l.pos]
	terminated := l.ch == quote
	if terminated {
		l.readChar() // consume closing quote
	}
	return str, terminated
}

func isLetter(ch byte) bool {
	return unicode.IsLetter(rune(ch)) || ch == '_'
}

func isDigit(ch byte) bool {
	return ch >= '0' && ch <= '9'
}
