package util

import (
	"fmt"
	"strings"
	"unicode"
)

// Normalize canonicalizes lookup keys and placeholder names: non-breaking spaces count
// as whitespace, all whitespace is removed and the result is lowercased.
func Normalize(input string) string {
	s := strings.ReplaceAll(input, "\u00a0", " ")
	out := strings.Builder{}
	out.Grow(len(s))
	for _, r := range s {
		if unicode.IsSpace(r) {
			continue
		}
		out.WriteRune(r)
	}
	return strings.ToLower(out.String())
}

// NormalizeAny coerces v to its string form before normalizing. nil becomes "".
func NormalizeAny(v any) string {
	if v == nil {
		return ""
	}
	if s, ok := v.(string); ok {
		return Normalize(s)
	}
	return Normalize(fmt.Sprint(v))
}

func NormalizeAll(values []string) []string {
	out := make([]string, 0, len(values))
	for _, v := range values {
		out = append(out, Normalize(v))
	}
	return out
}

func IsBlank(s string) bool {
	return strings.TrimSpace(s) == ""
}

func SplitLines(text string) []string {
	text = strings.ReplaceAll(text, "\r\n", "\n")
	parts := strings.Split(text, "\n")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}
