package extract

import (
	"encoding/json"
	"regexp"
	"strings"
)

// nameMarkerRe finds the start of a name array in the search payload,
// e.g. `7,[["Business Name","Other"]]`.
var nameMarkerRe = regexp.MustCompile(`\d+,\[\[`)

const (
	maxNameScan = 64 << 10
	maxNameLen  = 200
)

// Names returns display names found in raw. Each marker opens a nested
// array; string literals at depth two are collected, decoded with JSON
// escaping rules, trimmed and deduplicated. URLs are never names.
func Names(raw string) []string {
	var found []string
	for _, loc := range nameMarkerRe.FindAllStringIndex(raw, -1) {
		// loc[1] points just past "[[", rewind to the outer bracket.
		found = append(found, scanNames(raw, loc[1]-2)...)
	}

	cleaned := make([]string, 0, len(found))
	for _, n := range found {
		n = collapseSpace(n)
		if n == "" || len(n) > maxNameLen || strings.HasPrefix(strings.ToLower(n), "http") {
			continue
		}
		cleaned = append(cleaned, n)
	}
	return dedupe(cleaned, func(s string) string { return s })
}

// scanNames walks the bracket structure that starts at raw[start] == '['.
// Payloads embedded in JavaScript often carry the array with escaped quotes
// (\"), so both plain and escaped string delimiters are understood.
func scanNames(raw string, start int) []string {
	end := min(len(raw), start+maxNameScan)
	escaped := start+3 < end && strings.HasPrefix(raw[start+2:], `\"`)

	var out []string
	depth := 0
	for i := start; i < end; i++ {
		switch c := raw[i]; {
		case c == '[':
			depth++
		case c == ']':
			depth--
			if depth <= 0 {
				return out
			}
		case c == '"' && !escaped:
			lit, next, ok := readLiteral(raw[:end], i)
			if !ok {
				return out
			}
			if depth == 2 {
				out = append(out, lit)
			}
			i = next - 1
		case c == '\\' && escaped && i+1 < end && raw[i+1] == '"':
			lit, next, ok := readEscapedLiteral(raw[:end], i)
			if !ok {
				return out
			}
			if depth == 2 {
				out = append(out, lit)
			}
			i = next - 1
		}
	}
	return out
}

// readLiteral decodes the JSON string literal starting at s[i] == '"' and
// returns the index just past its closing quote.
func readLiteral(s string, i int) (string, int, bool) {
	for j := i + 1; j < len(s); j++ {
		switch s[j] {
		case '\\':
			j++
		case '"':
			var v string
			if err := json.Unmarshal([]byte(s[i:j+1]), &v); err != nil {
				return "", 0, false
			}
			return v, j + 1, true
		}
	}
	return "", 0, false
}

// readEscapedLiteral decodes a literal delimited by \" ... \" as found in
// payloads that were themselves JSON-encoded once more.
func readEscapedLiteral(s string, i int) (string, int, bool) {
	body := i + 2
	for j := body; j < len(s)-1; j++ {
		if s[j] == '\\' && s[j+1] == '"' {
			// Content quotes arrive as \\\" (three backslashes), the
			// delimiter as a single \".
			if run := backslashRun(s, j); run%4 == 1 {
				var once, v string
				if err := json.Unmarshal([]byte(`"`+s[body:j]+`"`), &once); err != nil {
					return "", 0, false
				}
				if err := json.Unmarshal([]byte(`"`+once+`"`), &v); err != nil {
					return "", 0, false
				}
				return v, j + 2, true
			}
		}
	}
	return "", 0, false
}

// backslashRun counts consecutive backslashes ending at s[j].
func backslashRun(s string, j int) int {
	n := 0
	for ; j >= 0 && s[j] == '\\'; j-- {
		n++
	}
	return n
}
