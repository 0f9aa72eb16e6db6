package oracle

import "strings"

// Models wrap JSON in markdown fences or prose despite instructions not to.
// The salvage helpers pull the first well-formed array/object substring out
// of a raw completion so parsing survives the wrapping.

// FirstArray returns the first balanced JSON array substring of raw.
func FirstArray(raw string) (string, bool) {
	return firstBalanced(stripFences(raw), '[', ']')
}

// FirstObject returns the first balanced JSON object substring of raw.
func FirstObject(raw string) (string, bool) {
	return firstBalanced(stripFences(raw), '{', '}')
}

func stripFences(raw string) string {
	s := strings.TrimSpace(raw)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```")
	// Drop an optional language tag on the fence line.
	if idx := strings.IndexByte(s, '\n'); idx >= 0 {
		s = s[idx+1:]
	}
	if idx := strings.LastIndex(s, "```"); idx >= 0 {
		s = s[:idx]
	}
	return strings.TrimSpace(s)
}

func firstBalanced(s string, open, close byte) (string, bool) {
	start := strings.IndexByte(s, open)
	if start < 0 {
		return "", false
	}
	depth := 0
	inString := false
	escaped := false
	for i := start; i < len(s); i++ {
		c := s[i]
		switch {
		case escaped:
			escaped = false
		case c == '\\' && inString:
			escaped = true
		case c == '"':
			inString = !inString
		case inString:
		case c == open:
			depth++
		case c == close:
			depth--
			if depth == 0 {
				return s[start : i+1], true
			}
		}
	}
	return "", false
}
