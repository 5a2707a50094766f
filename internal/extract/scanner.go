package extract

// BalancedSpans returns every top-level brace-balanced object in s, in order.
// Braces inside JSON strings are skipped. Scanning bytes is safe for these
// ASCII delimiters because they never occur inside a UTF-8 multi-byte rune.
func BalancedSpans(s string) []string {
	var (
		out      []string
		depth    int
		start    = -1
		inString bool
		escape   bool
	)
	for i := 0; i < len(s); i++ {
		b := s[i]
		if escape {
			escape = false
			continue
		}
		if inString {
			switch b {
			case '\\':
				escape = true
			case '"':
				inString = false
			}
			continue
		}
		switch b {
		case '"':
			// quotes outside any object are prose
			if depth > 0 {
				inString = true
			}
		case '{':
			if depth == 0 {
				start = i
			}
			depth++
		case '}':
			if depth == 0 {
				continue
			}
			depth--
			if depth == 0 && start >= 0 {
				out = append(out, s[start:i+1])
				start = -1
			}
		}
	}
	return out
}
