package extract

import (
	"regexp"
	"sort"
	"strings"
)

// Moroccan numbers: national 0[5-8]XXXXXXXX, international +212 / 00212 with
// an optional trunk zero. Separators between digits may be space, dot or dash.
var (
	intlPhoneRe  = regexp.MustCompile(`(?:\+|00)\s?212[\s.\-]?(?:\(0\)[\s.\-]?|0[\s.\-]?)?[5-8](?:[\s.\-]?\d){8}`)
	localPhoneRe = regexp.MustCompile(`0[5-8](?:[\s.\-]?\d){8}`)
)

type phoneMatch struct {
	start int
	value string
}

// Phones returns phone numbers found in raw, normalized to +212XXXXXXXXX.
func Phones(raw string) []string {
	var matches []phoneMatch
	for _, re := range []*regexp.Regexp{intlPhoneRe, localPhoneRe} {
		for _, loc := range re.FindAllStringIndex(raw, -1) {
			if !phoneBoundary(raw, loc[0], loc[1]) {
				continue
			}
			if n := NormalizePhone(raw[loc[0]:loc[1]]); n != "" {
				matches = append(matches, phoneMatch{start: loc[0], value: n})
			}
		}
	}
	sort.SliceStable(matches, func(i, j int) bool { return matches[i].start < matches[j].start })

	values := make([]string, len(matches))
	for i, m := range matches {
		values[i] = m.value
	}
	return dedupe(values, func(s string) string { return s })
}

// phoneBoundary rejects matches glued to a longer digit run.
func phoneBoundary(raw string, start, end int) bool {
	if start > 0 {
		prev := raw[start-1]
		if isDigit(prev) || (raw[start] == '0' && prev == '+') {
			return false
		}
	}
	if end < len(raw) && isDigit(raw[end]) {
		return false
	}
	return true
}

// NormalizePhone reduces a Moroccan number in any supported spelling to
// +212 followed by nine digits. Returns "" when the input is not a valid
// number.
func NormalizePhone(s string) string {
	var b strings.Builder
	for i := 0; i < len(s); i++ {
		if isDigit(s[i]) {
			b.WriteByte(s[i])
		}
	}
	digits := b.String()

	var national string
	switch {
	case strings.HasPrefix(digits, "00212"):
		national = digits[5:]
	case strings.HasPrefix(digits, "212"):
		national = digits[3:]
	case strings.HasPrefix(digits, "0"):
		national = digits[1:]
	default:
		return ""
	}
	national = strings.TrimPrefix(national, "0")
	if len(national) != 9 || national[0] < '5' || national[0] > '8' {
		return ""
	}
	return "+212" + national
}

func isDigit(c byte) bool { return c >= '0' && c <= '9' }
