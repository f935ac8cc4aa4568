// Package extract turns raw mapping-service payloads and web pages into
// ordered, deduplicated candidate lists per contact field.
//
// Every extractor is a pure function: it never panics, never returns an
// error, and returns an empty (non-nil) slice when nothing matches.
package extract

import (
	"encoding/hex"
	"regexp"
	"strings"
)

// Extractor exposes one method per field extractor. The pipeline receives a
// single Extractor at construction time.
type Extractor interface {
	Phones(raw string) []string
	Emails(raw string) []string
	Names(raw string) []string
	Links(raw string) []string
	FilterSocial(urls []string) []string
	Websites(urls []string) []string
	Addresses(raw string) []string
}

// Patterns is the regex-backed Extractor.
type Patterns struct{}

var _ Extractor = (*Patterns)(nil)

// New returns the default Extractor.
func New() *Patterns { return &Patterns{} }

func (*Patterns) Phones(raw string) []string          { return Phones(raw) }
func (*Patterns) Emails(raw string) []string          { return Emails(raw) }
func (*Patterns) Names(raw string) []string           { return Names(raw) }
func (*Patterns) Links(raw string) []string           { return Links(raw) }
func (*Patterns) FilterSocial(urls []string) []string { return FilterSocial(urls) }
func (*Patterns) Websites(urls []string) []string     { return Websites(urls) }
func (*Patterns) Addresses(raw string) []string       { return Addresses(raw) }

// dedupe keeps the first occurrence of every key, dropping items whose key
// is empty.
func dedupe(items []string, key func(string) string) []string {
	out := make([]string, 0, len(items))
	seen := make(map[string]struct{}, len(items))
	for _, it := range items {
		k := key(it)
		if k == "" {
			continue
		}
		if _, ok := seen[k]; ok {
			continue
		}
		seen[k] = struct{}{}
		out = append(out, it)
	}
	return out
}

// Unique removes exact duplicates after trimming, preserving order.
func Unique(items []string) []string {
	trimmed := make([]string, len(items))
	for i, it := range items {
		trimmed[i] = strings.TrimSpace(it)
	}
	return dedupe(trimmed, func(s string) string { return s })
}

func collapseSpace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

// hexEscapeRe matches \u00XX escapes behind any number of backslashes, as
// left by pages and payloads that embed JSON-encoded HTML.
var hexEscapeRe = regexp.MustCompile(`\\+u00([0-9a-fA-F]{2})`)

// unescapeHex decodes \u00XX escapes such as \u003c, \u0026 and \u0040.
func unescapeHex(s string) string {
	if !strings.Contains(s, "u00") {
		return s
	}
	return hexEscapeRe.ReplaceAllStringFunc(s, func(m string) string {
		b, err := hex.DecodeString(m[len(m)-2:])
		if err != nil {
			return m
		}
		return string(rune(b[0]))
	})
}
