package extract

import (
	"encoding/hex"
	"net/url"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

var emailRe = regexp.MustCompile(`[a-zA-Z0-9._%+\-]+@[a-zA-Z0-9.\-]+\.[a-zA-Z]{2,}`)

// nonContactAliases are local parts that never reach a person.
var nonContactAliases = map[string]struct{}{
	"noreply":       {},
	"no-reply":      {},
	"no_reply":      {},
	"donotreply":    {},
	"do-not-reply":  {},
	"do_not_reply":  {},
	"mailer-daemon": {},
	"postmaster":    {},
	"bounce":        {},
}

// assetSuffixes catch retina image names such as logo@2x.png.
var assetSuffixes = []string{".png", ".jpg", ".jpeg", ".gif", ".webp", ".svg", ".bmp", ".ico", ".css", ".js"}

// Emails returns contact email addresses found in raw, lowercased and
// deduplicated. Addresses hidden behind mailto: links or Cloudflare email
// protection are appended after the plain-text matches.
func Emails(raw string) []string {
	raw = unescapeHex(raw)
	found := emailRe.FindAllString(raw, -1)
	found = append(found, htmlEmails(raw)...)

	cleaned := make([]string, 0, len(found))
	for _, e := range found {
		if c := cleanEmail(e); c != "" {
			cleaned = append(cleaned, c)
		}
	}
	return dedupe(cleaned, func(s string) string { return s })
}

// IsNonContactAlias reports whether the address belongs to an automated
// sender, whatever its case.
func IsNonContactAlias(email string) bool {
	local, _, ok := strings.Cut(strings.ToLower(email), "@")
	if !ok {
		return false
	}
	_, hit := nonContactAliases[local]
	return hit
}

func cleanEmail(e string) string {
	e = strings.ToLower(strings.Trim(strings.TrimSpace(e), "."))
	if emailRe.FindString(e) != e {
		return ""
	}
	for _, suf := range assetSuffixes {
		if strings.HasSuffix(e, suf) {
			return ""
		}
	}
	if IsNonContactAlias(e) {
		return ""
	}
	return e
}

// htmlEmails recovers addresses that the plain regex misses: percent-encoded
// mailto: hrefs and Cloudflare-obfuscated addresses.
func htmlEmails(raw string) []string {
	if !strings.Contains(raw, "mailto:") && !strings.Contains(raw, "cfemail") && !strings.Contains(raw, "email-protection#") {
		return nil
	}
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(raw))
	if err != nil {
		return nil
	}

	var out []string
	doc.Find(`a[href^="mailto:"]`).Each(func(_ int, s *goquery.Selection) {
		href, _ := s.Attr("href")
		addr := strings.TrimPrefix(href, "mailto:")
		if i := strings.IndexByte(addr, '?'); i >= 0 {
			addr = addr[:i]
		}
		if dec, err := url.PathUnescape(addr); err == nil {
			addr = dec
		}
		out = append(out, strings.Split(addr, ",")...)
	})
	doc.Find("[data-cfemail]").Each(func(_ int, s *goquery.Selection) {
		enc, _ := s.Attr("data-cfemail")
		if dec := DecodeCFEmail(enc); dec != "" {
			out = append(out, dec)
		}
	})
	doc.Find(`a[href*="email-protection#"]`).Each(func(_ int, s *goquery.Selection) {
		href, _ := s.Attr("href")
		_, enc, _ := strings.Cut(href, "#")
		if dec := DecodeCFEmail(enc); dec != "" {
			out = append(out, dec)
		}
	})
	return out
}

// DecodeCFEmail decodes a Cloudflare email-protection payload: a hex string
// whose first byte is the XOR key for the remaining bytes.
func DecodeCFEmail(enc string) string {
	b, err := hex.DecodeString(strings.TrimSpace(enc))
	if err != nil || len(b) < 2 {
		return ""
	}
	key := b[0]
	out := make([]byte, len(b)-1)
	for i, c := range b[1:] {
		out[i] = c ^ key
	}
	return string(out)
}
