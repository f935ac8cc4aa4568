package extract

import (
	"regexp"
	"strings"
)

const (
	addrSegment = `[\p{L}\p{N}][\p{L}\p{N} \t'’.°/\-]*`
	minAddrLen  = 10
)

var (
	addressRe    = regexp.MustCompile(addrSegment + `(?:\s*,\s*` + addrSegment + `){1,5}`)
	streetRe     = regexp.MustCompile(`(?i)(?:^|[^\p{L}])(?:rue|avenue|av\.|bd|boulevard|route|place|quartier|hay|lot|lotissement|r[ée]sidence|imm|immeuble|angle|derb|km|zone industrielle|street|road)(?:[^\p{L}]|$)`)
	arabicStreet = regexp.MustCompile(`شارع|زنقة|حي|طريق`)
	numberRe     = regexp.MustCompile(`\p{N}`)
	postalRe     = regexp.MustCompile(`(?:^|[^\p{N}])\p{N}{5}(?:[^\p{N}]|$)`)
	countryRe    = regexp.MustCompile(`(?i)maroc|morocco|المغرب`)
)

// Addresses returns comma-delimited runs of two to six segments that look
// like postal addresses. Candidates carry no ranking; selection happens in
// the disambiguation step.
func Addresses(raw string) []string {
	out := []string{}
	for _, m := range addressRe.FindAllString(raw, -1) {
		c := collapseSpace(strings.Trim(m, " ,.-"))
		if len([]rune(c)) < minAddrLen {
			continue
		}
		if HasStreetToken(c) || (numberRe.MatchString(c) && (postalRe.MatchString(c) || countryRe.MatchString(c))) {
			out = append(out, c)
		}
	}
	return dedupe(out, func(s string) string { return s })
}

// HasStreetToken reports whether s names a street type in French, English
// or Arabic.
func HasStreetToken(s string) bool {
	return streetRe.MatchString(s) || arabicStreet.MatchString(s)
}

// HasPostalCode reports whether s carries a five-digit postal code.
func HasPostalCode(s string) bool { return postalRe.MatchString(s) }

// HasCountry reports whether s names Morocco.
func HasCountry(s string) bool { return countryRe.MatchString(s) }
