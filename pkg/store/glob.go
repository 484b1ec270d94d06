package store

// globMatch implements Redis-style glob matching for KEYS/SCAN patterns:
// '*' matches any run of characters, '?' matches exactly one, and
// '[...]' matches a character class (with leading '^' for negation and
// 'a-z' ranges). A backslash escapes the next pattern character literally.
func globMatch(pattern, s string) bool {
	return globMatchBytes([]byte(pattern), []byte(s))
}

func globMatchBytes(pattern, s []byte) bool {
	for len(pattern) > 0 {
		switch pattern[0] {
		case '*':
			for len(pattern) > 1 && pattern[1] == '*' {
				pattern = pattern[1:]
			}
			if len(pattern) == 1 {
				return true
			}
			for i := 0; i <= len(s); i++ {
				if globMatchBytes(pattern[1:], s[i:]) {
					return true
				}
			}
			return false
		case '?':
			if len(s) == 0 {
				return false
			}
			s = s[1:]
			pattern = pattern[1:]
		case '[':
			if len(s) == 0 {
				return false
			}
			end := classEnd(pattern)
			if end < 0 {
				return matchLiteral(pattern[0], s[0]) && globMatchBytes(pattern[1:], s[1:])
			}
			if !matchClass(pattern[1:end], s[0]) {
				return false
			}
			s = s[1:]
			pattern = pattern[end+1:]
		case '\\':
			if len(pattern) > 1 {
				if len(s) == 0 || s[0] != pattern[1] {
					return false
				}
				s = s[1:]
				pattern = pattern[2:]
				continue
			}
			if len(s) == 0 || s[0] != '\\' {
				return false
			}
			s = s[1:]
			pattern = pattern[1:]
		default:
			if len(s) == 0 || !matchLiteral(pattern[0], s[0]) {
				return false
			}
			s = s[1:]
			pattern = pattern[1:]
		}
	}
	return len(s) == 0
}

func matchLiteral(p, c byte) bool { return p == c }

// classEnd returns the index of the ']' closing the class starting at
// pattern[0]=='[', or -1 if unterminated.
func classEnd(pattern []byte) int {
	for i := 1; i < len(pattern); i++ {
		if pattern[i] == ']' && i > 1 {
			return i
		}
	}
	return -1
}

func matchClass(class []byte, c byte) bool {
	negate := false
	if len(class) > 0 && class[0] == '^' {
		negate = true
		class = class[1:]
	}
	matched := false
	for i := 0; i < len(class); i++ {
		if i+2 < len(class) && class[i+1] == '-' {
			lo, hi := class[i], class[i+2]
			if lo > hi {
				lo, hi = hi, lo
			}
			if c >= lo && c <= hi {
				matched = true
			}
			i += 2
			continue
		}
		if class[i] == c {
			matched = true
		}
	}
	if negate {
		return !matched
	}
	return matched
}
