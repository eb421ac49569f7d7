package sql

// MatchLike reports whether s matches the LIKE pattern. % (and its alias
// *) matches any run of characters including none, _ (alias ?) matches
// exactly one character, and a backslash escapes the character after it.
// The whole string must be consumed.
func MatchLike(s, pattern string) bool {
	return matchLike([]rune(s), []rune(pattern))
}

func matchLike(s, p []rune) bool {
	for len(p) > 0 {
		switch p[0] {
		case '%', '*':
			// collapse consecutive wildcards, then try every suffix
			for len(p) > 0 && (p[0] == '%' || p[0] == '*') {
				p = p[1:]
			}
			if len(p) == 0 {
				return true
			}
			for i := 0; i <= len(s); i++ {
				if matchLike(s[i:], p) {
					return true
				}
			}
			return false
		case '_', '?':
			if len(s) == 0 {
				return false
			}
			s, p = s[1:], p[1:]
		case '\\':
			if len(p) < 2 {
				// trailing backslash matches itself
				return len(s) == 1 && s[0] == '\\'
			}
			if len(s) == 0 || s[0] != p[1] {
				return false
			}
			s, p = s[1:], p[2:]
		default:
			if len(s) == 0 || s[0] != p[0] {
				return false
			}
			s, p = s[1:], p[1:]
		}
	}
	return len(s) == 0
}
