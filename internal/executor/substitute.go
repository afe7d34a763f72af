package executor

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// substitute replaces placeholders in s in one left-to-right pass. Substituted values are
// never rescanned, so the result does not depend on parameter order. {{key}} is matched
// before {key}; a :key placeholder takes the whole identifier that follows the colon, so
// :id never matches inside :id_type. Placeholders without a parameter are left as is.
func substitute(s string, params map[string]any, colon bool) string {
	if len(params) == 0 {
		return s
	}
	var b strings.Builder
	b.Grow(len(s))
	for i := 0; i < len(s); {
		switch {
		case strings.HasPrefix(s[i:], "{{"):
			if end := strings.Index(s[i+2:], "}}"); end >= 0 {
				name := s[i+2 : i+2+end]
				if v, ok := params[name]; ok && !strings.ContainsAny(name, "{}") {
					b.WriteString(stringify(v))
					i += end + 4
					continue
				}
			}
		case s[i] == '{':
			if end := strings.IndexByte(s[i+1:], '}'); end >= 0 {
				name := s[i+1 : i+1+end]
				if v, ok := params[name]; ok && !strings.Contains(name, "{") {
					b.WriteString(stringify(v))
					i += end + 2
					continue
				}
			}
		case colon && s[i] == ':':
			j := i + 1
			for j < len(s) && isIdentByte(s[j]) {
				j++
			}
			if j > i+1 {
				if v, ok := params[s[i+1:j]]; ok {
					b.WriteString(stringify(v))
					i = j
					continue
				}
			}
		}
		b.WriteByte(s[i])
		i++
	}
	return b.String()
}

func isIdentByte(c byte) bool {
	return c == '_' || ('a' <= c && c <= 'z') || ('A' <= c && c <= 'Z') || ('0' <= c && c <= '9')
}

// stringify renders a decoded JSON value the way it should appear in a URL, header or form.
func stringify(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	case float32:
		return strconv.FormatFloat(float64(t), 'f', -1, 32)
	case bool:
		return strconv.FormatBool(t)
	case json.Number:
		return t.String()
	case map[string]any, []any:
		b, err := json.Marshal(t)
		if err != nil {
			return fmt.Sprint(t)
		}
		return string(b)
	default:
		return fmt.Sprint(t)
	}
}
