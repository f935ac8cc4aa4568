package disambiguate

import (
	"context"
	"regexp"
	"sort"
	"strings"

	"github.com/sells-group/contact-scraper/internal/extract"
)

const minFragmentLen = 15

var (
	reviewRe  = wordRe(`avis`, `reviews?`, `étoiles`, `stars?`, `note`, `★`)
	hoursRe   = wordRe(`ouvert`, `fermé`, `open`, `closed`, `horaires`, `hours`, `lundi`, `mardi`, `mercredi`, `jeudi`, `vendredi`, `samedi`, `dimanche`, `monday`, `tuesday`, `wednesday`, `thursday`, `friday`, `saturday`, `sunday`, `\d{1,2}\s?[:h]\s?\d{2}`)
	uiRe      = wordRe(`itinéraire`, `directions`, `site web`, `website`, `appeler`, `call`, `partager`, `share`, `enregistrer`, `save`, `menu`, `réserver`, `book`)
	phoneOnly = regexp.MustCompile(`^[\d\s+().\-]+$`)
	digitRe   = regexp.MustCompile(`\d`)
)

// wordRe matches any of words as a whole word, case-insensitively. Word
// edges are Unicode letters so accented words behave.
func wordRe(words ...string) *regexp.Regexp {
	return regexp.MustCompile(`(?i)(?:^|[^\p{L}\d])(?:` + strings.Join(words, "|") + `)(?:[^\p{L}\d]|$)`)
}

// LocalResolver applies the selection rules deterministically, without any
// external call. Raw length only breaks ties between otherwise equal
// candidates.
type LocalResolver struct{}

func (LocalResolver) Name() string { return "local" }

// Resolve never fails.
func (LocalResolver) Resolve(_ context.Context, reqs []Request) ([]string, error) {
	out := make([]string, len(reqs))
	for i, r := range reqs {
		out[i] = Pick(r)
	}
	return out, nil
}

type scored struct {
	text       string
	pos        int
	tier       int
	components int
	street     bool
}

// Pick returns the best address candidate of r, or "" when none qualifies.
func Pick(r Request) string {
	var eligible []scored
	for i, c := range r.Candidates {
		if s, ok := score(c, r.Location); ok {
			s.pos = i
			eligible = append(eligible, s)
		}
	}
	if len(eligible) == 0 {
		return ""
	}
	sort.SliceStable(eligible, func(i, j int) bool {
		a, b := eligible[i], eligible[j]
		if a.tier != b.tier {
			return a.tier > b.tier
		}
		if a.components != b.components {
			return a.components > b.components
		}
		if a.street != b.street {
			return a.street
		}
		if len(a.text) != len(b.text) {
			return len(a.text) > len(b.text)
		}
		return a.pos < b.pos
	})
	return eligible[0].text
}

func score(c, location string) (scored, bool) {
	c = strings.TrimSpace(c)
	if c == "" || phoneOnly.MatchString(c) || reviewRe.MatchString(c) || hoursRe.MatchString(c) || uiRe.MatchString(c) {
		return scored{}, false
	}

	street := extract.HasStreetToken(c)
	number := digitRe.MatchString(c)
	postal := extract.HasPostalCode(c)
	country := extract.HasCountry(c)
	locality := location != "" && strings.Contains(strings.ToLower(c), strings.ToLower(location))

	if len([]rune(c)) < minFragmentLen && !(street && number) {
		return scored{}, false
	}

	s := scored{text: c, street: street, components: strings.Count(c, ",") + 1}
	switch {
	case street && (number || locality || postal || country):
		s.tier = 3
	case street:
		s.tier = 2
	case number && (postal || country || locality):
		s.tier = 1
	default:
		return scored{}, false
	}
	return s, true
}
