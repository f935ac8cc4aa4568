// Package query splits a free-form "<business type> <city>" query.
package query

import (
	"strings"

	"github.com/rotisserie/eris"
)

// DefaultLocation is used when the query names no known city.
const DefaultLocation = "fes"

// Cities are the Moroccan locations recognized in queries, in match
// priority order.
var Cities = []string{
	"casablanca", "rabat", "fes", "fez", "marrakech", "marrakesh", "agadir",
	"tangier", "tanger", "meknes", "oujda", "kenitra", "tetouan", "safi",
	"mohammedia", "khouribga", "beni mellal", "el jadida", "taza", "nador",
	"settat", "larache", "ksar el kebir", "sale", "berrechid", "khemisset",
	"inezgane", "ouarzazate", "tiznit", "taroudant",
}

// ErrEmpty is returned for a query with no business type.
var ErrEmpty = eris.New("query: empty business type")

// Parsed is a query split into its parts.
type Parsed struct {
	BusinessType string
	Location     string
}

// Parse finds the first known city in q, matched on whole words, and
// returns the words left after removing every occurrence of it as the
// business type. Without a city the
// location is DefaultLocation.
func Parse(q string) (Parsed, error) {
	words := strings.Fields(q)
	lower := make([]string, len(words))
	for i, w := range words {
		lower[i] = strings.ToLower(w)
	}

	p := Parsed{Location: DefaultLocation}
	for _, city := range Cities {
		cw := strings.Fields(city)
		at := indexWords(lower, cw)
		if at < 0 {
			continue
		}
		p.Location = city
		for ; at >= 0; at = indexWords(lower, cw) {
			words = append(words[:at:at], words[at+len(cw):]...)
			lower = append(lower[:at:at], lower[at+len(cw):]...)
		}
		break
	}

	p.BusinessType = strings.Join(words, " ")
	if p.BusinessType == "" {
		return p, ErrEmpty
	}
	return p, nil
}

func indexWords(words, seq []string) int {
	for i := 0; i+len(seq) <= len(words); i++ {
		match := true
		for j, s := range seq {
			if words[i+j] != s {
				match = false
				break
			}
		}
		if match {
			return i
		}
	}
	return -1
}
