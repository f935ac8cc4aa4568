// Package maps queries the mapping service's search page and returns its
// payload as an opaque text blob.
package maps

import (
	"context"
	"net/url"
	"strings"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/contact-scraper/internal/fetch"
)

// DefaultBaseURL is the search endpoint queries are appended to.
const DefaultBaseURL = "https://www.google.com/maps/search/"

// ErrEmptyPayload is returned when the service answers with an empty body.
var ErrEmptyPayload = eris.New("maps: empty payload")

// Searcher returns the raw payload for a search query.
type Searcher interface {
	Search(ctx context.Context, query string) (string, error)
}

// Options configures a Client.
type Options struct {
	BaseURL  string
	Language string
	Region   string
}

// Client builds search URLs and fetches them through a fetch.Fetcher.
type Client struct {
	fetcher fetch.Fetcher
	opts    Options
}

var _ Searcher = (*Client)(nil)

// NewClient returns a Client. Empty options take defaults (fr, ma).
func NewClient(f fetch.Fetcher, opts Options) *Client {
	if opts.BaseURL == "" {
		opts.BaseURL = DefaultBaseURL
	}
	if !strings.HasSuffix(opts.BaseURL, "/") {
		opts.BaseURL += "/"
	}
	if opts.Language == "" {
		opts.Language = "fr"
	}
	if opts.Region == "" {
		opts.Region = "ma"
	}
	return &Client{fetcher: f, opts: opts}
}

// BuildQuery joins the words of name with "+" and appends location:
// "Cabinet  Dentaire Atlas", "fes" -> "Cabinet+Dentaire+Atlas+fes".
func BuildQuery(name, location string) string {
	return strings.Join(strings.Fields(name), "+") + "+" + location
}

// SearchURL returns the URL fetched for query. Each "+"-separated word is
// path-escaped; the "+" separators are kept.
func (c *Client) SearchURL(query string) string {
	words := strings.Split(query, "+")
	for i, w := range words {
		words[i] = url.PathEscape(w)
	}
	v := url.Values{}
	v.Set("hl", c.opts.Language)
	v.Set("gl", c.opts.Region)
	return c.opts.BaseURL + strings.Join(words, "+") + "?" + v.Encode()
}

// Search fetches the payload for query. A fetch failure or an empty body is
// an error.
func (c *Client) Search(ctx context.Context, query string) (string, error) {
	u := c.SearchURL(query)
	body, err := c.fetcher.Fetch(ctx, u)
	if err != nil {
		return "", eris.Wrapf(err, "maps: search %q", query)
	}
	if strings.TrimSpace(body) == "" {
		return "", eris.Wrapf(ErrEmptyPayload, "query %q", query)
	}
	zap.L().Debug("maps: payload fetched",
		zap.String("query", query),
		zap.Int("bytes", len(body)),
	)
	return body, nil
}
