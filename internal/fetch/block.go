package fetch

import (
	"net/http"
	"strings"
)

// BlockType describes the kind of anti-bot page detected.
type BlockType string

const (
	BlockNone           BlockType = ""
	BlockCloudflare     BlockType = "cloudflare"
	BlockCaptcha        BlockType = "captcha"
	BlockUnusualTraffic BlockType = "unusual_traffic"
)

// DetectBlock checks a response for signs of anti-bot protection. Search
// providers answer automated traffic with a 200 "unusual traffic" page, so
// the body is inspected whatever the status.
func DetectBlock(resp *http.Response, body []byte) (bool, BlockType) {
	if resp == nil {
		return false, BlockNone
	}

	if resp.StatusCode == http.StatusForbidden || resp.StatusCode == http.StatusServiceUnavailable {
		if resp.Header.Get("cf-ray") != "" || strings.EqualFold(resp.Header.Get("server"), "cloudflare") {
			return true, BlockCloudflare
		}
	}
	if resp.StatusCode == http.StatusTooManyRequests && resp.Request != nil && strings.Contains(resp.Request.URL.Path, "/sorry/") {
		return true, BlockUnusualTraffic
	}

	// Only the head of the page matters; real sites mention captcha in
	// footers and scripts far below the fold.
	head := body
	if len(head) > 16<<10 {
		head = head[:16<<10]
	}
	lower := strings.ToLower(string(head))

	switch {
	case strings.Contains(lower, "unusual traffic from your computer network"),
		strings.Contains(lower, "our systems have detected unusual traffic"):
		return true, BlockUnusualTraffic
	case strings.Contains(lower, "checking your browser"),
		strings.Contains(lower, "cf-browser-verification"):
		return true, BlockCloudflare
	case strings.Contains(lower, "g-recaptcha"),
		strings.Contains(lower, "h-captcha"),
		strings.Contains(lower, "captcha-form"):
		return true, BlockCaptcha
	}
	return false, BlockNone
}
