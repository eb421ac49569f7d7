package sql

import "testing"

func TestMatchLike(t *testing.T) {
	tests := []struct {
		s       string
		pattern string
		want    bool
	}{
		{"hello", "hello", true},
		{"hello", "h%", true},
		{"hello", "%o", true},
		{"hello", "%ell%", true},
		{"hello", "h_llo", true},
		{"hello", "h__lo", true},
		{"hello", "h_lo", false},
		{"hello", "%", true},
		{"", "%", true},
		{"", "_", false},
		{"", "", true},
		{"x", "", false},
		{"abc", "abd", false},

		// * and ? are aliases for % and _
		{"hello", "h*o", true},
		{"hello", "h?llo", true},

		// pattern must consume the whole string
		{"hello world", "hello", false},
		{"hello", "hello world", false},

		// backslash escapes the next metacharacter
		{"50%", `50\%`, true},
		{"50x", `50\%`, false},
		{"a_b", `a\_b`, true},
		{"axb", `a\_b`, false},
		{`a\b`, `a\\b`, true},

		// a trailing backslash matches a literal backslash
		{`x\`, `x\`, true},

		// consecutive wildcards collapse
		{"abc", "%%%", true},
		{"abc", "a%%c", true},

		// multibyte runes count as single characters
		{"héllo", "h_llo", true},
		{"日本語", "日_語", true},
		{"日本語", "%語", true},
	}
	for _, tt := range tests {
		if got := MatchLike(tt.s, tt.pattern); got != tt.want {
			t.Errorf("MatchLike(%q, %q) = %v, want %v", tt.s, tt.pattern, got, tt.want)
		}
	}
}

func TestMatchLikeReflexive(t *testing.T) {
	// any string without metacharacters matches itself
	for _, s := range []string{"", "a", "abc def", "ÿ", "tab\tchar"} {
		if !MatchLike(s, s) {
			t.Errorf("%q should LIKE itself", s)
		}
	}
}
