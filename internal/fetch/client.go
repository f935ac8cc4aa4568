// Package fetch retrieves pages over HTTP and reports every failure as a
// *NetworkError.
package fetch

import (
	"context"
	"io"
	"net"
	"net/http"
	"net/url"
	"sync"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/sells-group/contact-scraper/internal/resilience"
)

// Fetcher retrieves the body of a URL as text.
type Fetcher interface {
	Fetch(ctx context.Context, rawURL string) (string, error)
}

// Client is the net/http Fetcher. It applies per-host rate limits, bounded
// retries on transient failures and per-host circuit breakers.
type Client struct {
	cfg      ClientConfig
	http     *http.Client
	policy   resilience.Policy
	breakers *resilience.HostBreakers

	mu       sync.Mutex
	limiters map[string]*rate.Limiter
}

var _ Fetcher = (*Client)(nil)

// New builds a Client from cfg. Zero fields take their defaults.
func New(cfg ClientConfig) *Client {
	cfg = cfg.withDefaults()
	return &Client{
		cfg: cfg,
		http: &http.Client{
			Timeout: cfg.Timeout,
			Transport: &http.Transport{
				Proxy: http.ProxyFromEnvironment,
				DialContext: (&net.Dialer{
					Timeout: cfg.Timeout,
				}).DialContext,
				TLSHandshakeTimeout: cfg.Timeout,
				MaxIdleConnsPerHost: 10,
			},
		},
		policy:   resilience.NewPolicy(cfg.Attempts, cfg.Backoff, cfg.MaxBackoff),
		breakers: resilience.NewHostBreakers(cfg.BreakerThreshold, cfg.BreakerCooldown),
		limiters: map[string]*rate.Limiter{},
	}
}

// Config returns the client's configuration.
func (c *Client) Config() ClientConfig { return c.cfg }

// Breakers exposes per-host breaker state.
func (c *Client) Breakers() map[string]resilience.State { return c.breakers.Snapshot() }

// Fetch GETs rawURL and returns its body decoded to UTF-8.
func (c *Client) Fetch(ctx context.Context, rawURL string) (string, error) {
	u, err := url.Parse(rawURL)
	if err != nil || u.Host == "" {
		return "", &NetworkError{URL: rawURL, Kind: KindOther, Err: eris.Errorf("fetch: invalid url %q", rawURL)}
	}

	breaker := c.breakers.For(u.Hostname())
	if err := breaker.Allow(); err != nil {
		return "", &NetworkError{URL: rawURL, Kind: KindOther, Err: err}
	}

	body, err := resilience.Retry(ctx, c.policy, "fetch", func(ctx context.Context) (string, error) {
		return c.do(ctx, u)
	})
	breaker.Record(err)
	if err != nil {
		ne := classify(rawURL, err)
		zap.L().Debug("fetch: failed",
			zap.String("url", rawURL),
			zap.String("kind", string(ne.Kind)),
			zap.Error(err),
		)
		return "", ne
	}
	return body, nil
}

func (c *Client) do(ctx context.Context, u *url.URL) (string, error) {
	if lim := c.limiterFor(u.Host); lim != nil {
		if err := lim.Wait(ctx); err != nil {
			return "", eris.Wrap(err, "fetch: rate limiter wait")
		}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return "", eris.Wrap(err, "fetch: create request")
	}
	req.Header.Set("User-Agent", c.cfg.UserAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8")
	if c.cfg.AcceptLanguage != "" {
		req.Header.Set("Accept-Language", c.cfg.AcceptLanguage)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return "", resilience.Transient(classify(u.String(), err), 0)
	}
	defer func() { _ = resp.Body.Close() }()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, c.cfg.MaxBodyBytes))
	if err != nil {
		return "", resilience.Transient(classify(u.String(), err), 0)
	}

	if blocked, bt := DetectBlock(resp, raw); blocked {
		return "", &NetworkError{URL: u.String(), Kind: KindBlocked, Status: resp.StatusCode, Err: eris.Errorf("fetch: blocked (%s)", bt)}
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		ne := &NetworkError{URL: u.String(), Kind: KindStatus, Status: resp.StatusCode, Err: eris.Errorf("fetch: unexpected status %d", resp.StatusCode)}
		if resilience.RetryableStatus(resp.StatusCode) {
			return "", resilience.Transient(ne, resp.StatusCode)
		}
		return "", ne
	}

	return decodeBody(resp.Header.Get("Content-Type"), raw), nil
}

func (c *Client) limiterFor(host string) *rate.Limiter {
	if c.cfg.HostRPS <= 0 {
		return nil
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	lim, ok := c.limiters[host]
	if !ok {
		lim = rate.NewLimiter(rate.Limit(c.cfg.HostRPS), c.cfg.HostBurst)
		c.limiters[host] = lim
	}
	return lim
}
