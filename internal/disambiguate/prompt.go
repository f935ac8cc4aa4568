package disambiguate

import (
	"fmt"
	"strings"
)

const systemPrompt = `You select the postal address of each business from a list of candidate text fragments scraped from a map listing.

Rules:
- Prefer a candidate with a street-type word (rue, avenue, bd, boulevard, route, place, quartier, hay, lot, résidence, immeuble, angle, derb, km, street, road, شارع, زنقة, حي, طريق) AND at least one of: a street number, the business's city, a postal code, or a country name.
- Never select reviews, ratings, UI labels, opening hours or bare phone numbers.
- Prefer full multi-part addresses over fragments.
- Reject fragments shorter than 15 characters unless they are clearly a street with a number.
- On a tie, prefer the line containing the street over one that only has a city or postal code.
- If no candidate is an address, answer with an empty string for that business.

Answer with ONLY a JSON array of strings, one entry per business, in the order given. Copy the chosen candidate text exactly.`

// userPrompt enumerates every business with its numbered candidates.
func userPrompt(reqs []Request) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%d businesses:\n", len(reqs))
	for i, r := range reqs {
		fmt.Fprintf(&b, "\nBusiness %d: %s (location: %s)\n", i+1, r.Name, r.Location)
		for j, c := range r.Candidates {
			fmt.Fprintf(&b, "  %d. %s\n", j+1, c)
		}
	}
	fmt.Fprintf(&b, "\nReturn a JSON array with exactly %d strings.", len(reqs))
	return b.String()
}
