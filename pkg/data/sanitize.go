package data

import (
	"errors"
	"strings"
)

var ErrNoJSON = errors.New("no json object in answer")

// SanitizeAnswer returns the first balanced JSON object found in a model answer,
// skipping any prose or markdown fences around it. Nested objects are kept intact.
func SanitizeAnswer(ans string) (string, error) {
	start := strings.IndexByte(ans, '{')
	if start < 0 {
		return "", ErrNoJSON
	}

	depth := 0
	inString, escaped := false, false
	for i := start; i < len(ans); i++ {
		c := ans[i]
		if inString {
			switch {
			case escaped:
				escaped = false
			case c == '\\':
				escaped = true
			case c == '"':
				inString = false
			}
			continue
		}
		switch c {
		case '"':
			inString = true
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				return ans[start : i+1], nil
			}
		}
	}
	return "", ErrNoJSON
}
