package fetch

import (
	"bytes"
	"mime"
	"regexp"
	"strings"

	"golang.org/x/text/encoding/htmlindex"
)

var metaCharsetRe = regexp.MustCompile(`(?i)<meta[^>]+charset\s*=\s*["']?([a-zA-Z0-9_\-]+)`)

// decodeBody converts body to UTF-8 using the charset from the Content-Type
// header, falling back to a <meta charset> in the first KB. Unknown or
// missing charsets leave the bytes untouched.
func decodeBody(contentType string, body []byte) string {
	cs := charsetOf(contentType, body)
	if cs == "" || cs == "utf-8" || cs == "utf8" {
		return string(body)
	}
	enc, err := htmlindex.Get(cs)
	if err != nil {
		return string(body)
	}
	out, err := enc.NewDecoder().Bytes(body)
	if err != nil {
		return string(body)
	}
	return string(out)
}

func charsetOf(contentType string, body []byte) string {
	if _, params, err := mime.ParseMediaType(contentType); err == nil {
		if cs := params["charset"]; cs != "" {
			return strings.ToLower(cs)
		}
	}
	head := body[:min(len(body), 1024)]
	if m := metaCharsetRe.FindSubmatch(head); m != nil {
		return strings.ToLower(string(bytes.TrimSpace(m[1])))
	}
	return ""
}
