package sql

import (
	"fmt"
	"strings"
)

// ErrCode classifies parse and execution failures. The shell prints the
// code's display name as the prominent error prefix.
type ErrCode int

const (
	ErrSyntax ErrCode = iota
	ErrUnterminatedString
	ErrInvalidNumber
	ErrUnexpectedToken
	ErrMissingToken
	ErrUnexpectedEnd
	ErrUnknownTable
	ErrUnknownColumn
	ErrUnknownIndex
	ErrNotNullViolated
	ErrUniqueViolated
	ErrForeignKeyViolated
	ErrTypeMismatch
	ErrStrictCoercion
	ErrIntegerOverflow
	ErrRuntime
)

// String returns the user-facing error kind.
func (c ErrCode) String() string {
	switch c {
	case ErrSyntax:
		return "Syntax error"
	case ErrUnterminatedString:
		return "Unterminated string"
	case ErrInvalidNumber:
		return "Invalid number"
	case ErrUnexpectedToken:
		return "Unexpected token"
	case ErrMissingToken:
		return "Missing token"
	case ErrUnexpectedEnd:
		return "Unexpected end of input"
	case ErrUnknownTable:
		return "Unknown table"
	case ErrUnknownColumn:
		return "Unknown column"
	case ErrUnknownIndex:
		return "Unknown index"
	case ErrNotNullViolated:
		return "NOT NULL constraint violated"
	case ErrUniqueViolated:
		return "UNIQUE constraint violated"
	case ErrForeignKeyViolated:
		return "FOREIGN KEY constraint violated"
	case ErrTypeMismatch:
		return "Type error"
	case ErrStrictCoercion:
		return "Strict mode rejection"
	case ErrIntegerOverflow:
		return "Integer overflow"
	case ErrRuntime:
		return "Runtime error"
	}
	return "Error"
}

// ParseError carries everything the shell needs to print a useful
// diagnostic: code, message, position, the expected/found token
// descriptions, and a did-you-mean suggestion when a name lookup failed
// close to a known name.
type ParseError struct {
	Code       ErrCode
	Msg        string
	Pos        int
	Expected   string
	Found      string
	Suggestion string
}

func (e *ParseError) Error() string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s: %s", e.Code, e.Msg)
	if e.Expected != "" {
		fmt.Fprintf(&b, " (expected %s, found %s)", e.Expected, e.Found)
	}
	if e.Pos > 0 {
		fmt.Fprintf(&b, " at position %d", e.Pos)
	}
	if e.Suggestion != "" {
		fmt.Fprintf(&b, " (did you mean %q?)", e.Suggestion)
	}
	return b.String()
}

func syntaxErr(code ErrCode, pos int, format string, args ...interface{}) *ParseError {
	return &ParseError{Code: code, Msg: fmt.Sprintf(format, args...), Pos: pos}
}

// ExecError is a statement-level failure raised by the executor.
type ExecError struct {
	Code ErrCode
	Msg  string
}

func (e *ExecError) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Msg)
}

func execErr(code ErrCode, format string, args ...interface{}) *ExecError {
	return &ExecError{Code: code, Msg: fmt.Sprintf(format, args...)}
}

// suggestThreshold rejects suggestions further than this edit distance.
const suggestThreshold = 3

// Suggest returns the candidate most similar to name, or "" when nothing
// passes the threshold. Case-insensitive Levenshtein with a prefix bias:
// candidates sharing a prefix with the probe get their distance discounted,
// so "usr" suggests "users" over "odds".
func Suggest(name string, candidates []string) string {
	probe := strings.ToLower(name)
	best := ""
	bestScore := suggestThreshold + 1
	for _, cand := range candidates {
		lc := strings.ToLower(cand)
		score := levenshtein(probe, lc)
		if n := commonPrefix(probe, lc); n > 0 {
			score -= n
			if score < 0 {
				score = 0
			}
		}
		if score < bestScore {
			bestScore = score
			best = cand
		}
	}
	if bestScore > suggestThreshold {
		return ""
	}
	return best
}

func commonPrefix(a, b string) int {
	n := 0
	for n < len(a) && n < len(b) && a[n] == b[n] {
		n++
	}
	return n
}

func levenshtein(a, b string) int {
	if len(a) == 0 {
		return len(b)
	}
	if len(b) == 0 {
		return len(a)
	}
	prev := make([]int, len(b)+1)
	cur := make([]int, len(b)+1)
	for j := range prev {
		prev[j] = j
	}
	for i := 1; i <= len(a); i++ {
		cur[0] = i
		for j := 1; j <= len(b); j++ {
			cost := 1
			if a[i-1] == b[j-1] {
				cost = 0
			}
			cur[j] = min3(prev[j]+1, cur[j-1]+1, prev[j-1]+cost)
		}
		prev, cur = cur, prev
	}
	return prev[len(b)]
}

func min3(a, b, c int) int {
	if b < a {
		a = b
	}
	if c < a {
		a = c
	}
	return a
}
