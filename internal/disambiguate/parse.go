package disambiguate

import (
	"encoding/json"
	"regexp"
	"strings"

	"github.com/rotisserie/eris"
)

var (
	listPrefixRe = regexp.MustCompile(`^\s*(?:\d+[.):]|[-*•])\s*`)
	noneAnswers  = map[string]bool{"none": true, "null": true, "n/a": true, `""`: true}
)

// ParseAnswers reads a decision response. The expected form is a JSON array
// of strings, possibly wrapped in a code fence or prose; null entries
// become "". Anything else is split into non-empty lines.
func ParseAnswers(text string) ([]string, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, eris.Wrap(ErrUnavailable, "empty response")
	}

	if start, end := strings.Index(text, "["), strings.LastIndex(text, "]"); start >= 0 && end > start {
		var raw []*string
		if err := json.Unmarshal([]byte(text[start:end+1]), &raw); err == nil {
			out := make([]string, len(raw))
			for i, s := range raw {
				if s != nil {
					out[i] = strings.TrimSpace(*s)
				}
			}
			return out, nil
		}
	}

	var out []string
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "```") {
			continue
		}
		line = strings.Trim(listPrefixRe.ReplaceAllString(line, ""), `"',`)
		if noneAnswers[strings.ToLower(line)] {
			line = ""
		}
		out = append(out, line)
	}
	if len(out) == 0 {
		return nil, eris.Wrap(ErrUnavailable, "no answers in response")
	}
	return out, nil
}
