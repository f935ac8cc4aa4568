package extract

import (
	"net/url"
	"regexp"
	"strings"
)

// linkRe matches Google redirect fragments. The separator after "url?q" is
// "=", its JSON unicode escape, or a run of backslashes depending on how
// many times the payload was encoded.
var linkRe = regexp.MustCompile(`url\?q(?:=|\\+u003d|\\+)?(https?://[^\s"'<>\\&]+)`)

// socialDomains are hosts whose links are never a business's own website.
var socialDomains = []string{
	"facebook.com", "fb.com", "instagram.com", "twitter.com", "x.com",
	"youtube.com", "youtu.be", "tiktok.com", "linkedin.com", "pinterest.com",
	"snapchat.com", "whatsapp.com", "wa.me", "flickr.com", "vimeo.com",
	"threads.net", "t.me",
}

// googleHosts are Google-owned hosts that show up in redirect payloads.
var googleHosts = []string{
	"goo.gl", "gstatic.com", "googleusercontent.com", "googleapis.com",
	"ggpht.com", "g.page", "g.co",
}

// Links returns the raw target URLs of every redirect fragment in raw, in
// order of appearance.
func Links(raw string) []string {
	out := []string{}
	for _, m := range linkRe.FindAllStringSubmatch(raw, -1) {
		out = append(out, m[1])
	}
	return out
}

// FilterSocial removes social-network URLs, preserving order. URLs that do
// not parse are kept.
func FilterSocial(urls []string) []string {
	out := make([]string, 0, len(urls))
	for _, u := range urls {
		if host := hostOf(u); host != "" && matchesDomain(host, socialDomains) {
			continue
		}
		out = append(out, u)
	}
	return out
}

// Websites normalizes candidate URLs, drops Google-owned hosts and
// deduplicates. An http URL is upgraded to https when the same host (www.
// ignored) also appears over https.
func Websites(urls []string) []string {
	parsed := make([]*url.URL, 0, len(urls))
	secure := map[string]bool{}
	for _, raw := range urls {
		u := normalizeURL(raw)
		if u == nil || isGoogleHost(u.Host) {
			continue
		}
		if u.Scheme == "https" {
			secure[bareHost(u.Host)] = true
		}
		parsed = append(parsed, u)
	}

	out := make([]string, 0, len(parsed))
	seen := map[string]struct{}{}
	for _, u := range parsed {
		if u.Scheme == "http" && secure[bareHost(u.Host)] {
			u.Scheme = "https"
		}
		key := u.Scheme + "://" + bareHost(u.Host) + u.Path + "?" + u.RawQuery
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, u.String())
	}
	return out
}

func normalizeURL(raw string) *url.URL {
	raw = strings.TrimSpace(raw)
	raw = unescapeHex(raw)
	// Redirect targets carry tracking parameters after the real URL.
	for _, tail := range []string{"&sa=", "&ved=", "&usg=", "&opi="} {
		if i := strings.Index(raw, tail); i >= 0 {
			raw = raw[:i]
		}
	}
	raw = strings.TrimRight(raw, `.,;)\"'`)

	u, err := url.Parse(raw)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") {
		return nil
	}
	if !strings.Contains(u.Hostname(), ".") {
		return nil
	}
	u.Host = strings.ToLower(u.Host)
	u.Fragment = ""
	u.RawFragment = ""
	if u.Path == "/" {
		u.Path = ""
		u.RawPath = ""
	}
	return u
}

func hostOf(raw string) string {
	u, err := url.Parse(strings.TrimSpace(raw))
	if err != nil {
		return ""
	}
	return strings.ToLower(u.Hostname())
}

func bareHost(host string) string {
	return strings.TrimPrefix(strings.ToLower(host), "www.")
}

func matchesDomain(host string, domains []string) bool {
	for _, d := range domains {
		if host == d || strings.HasSuffix(host, "."+d) {
			return true
		}
	}
	return false
}

// isGoogleHost reports whether any label of host is "google" or host sits
// under a Google-owned domain.
func isGoogleHost(host string) bool {
	host = strings.ToLower(host)
	if h, _, ok := strings.Cut(host, ":"); ok {
		host = h
	}
	for _, label := range strings.Split(host, ".") {
		if label == "google" {
			return true
		}
	}
	return matchesDomain(host, googleHosts)
}
