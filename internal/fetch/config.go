package fetch

import "time"

// ClientConfig is the immutable HTTP configuration shared by every fetch.
// It is built once at startup and passed by value.
type ClientConfig struct {
	UserAgent      string
	AcceptLanguage string
	Timeout        time.Duration
	MaxBodyBytes   int64

	// Attempts is the total number of tries per URL; 1 disables retries.
	Attempts   int
	Backoff    time.Duration
	MaxBackoff time.Duration

	// HostRPS limits requests per host; <= 0 disables limiting.
	HostRPS   float64
	HostBurst int

	// BreakerThreshold consecutive transient failures open a host's
	// breaker for BreakerCooldown. 0 disables breakers.
	BreakerThreshold int
	BreakerCooldown  time.Duration
}

// DefaultClientConfig returns the configuration used when nothing is set.
func DefaultClientConfig() ClientConfig {
	return ClientConfig{
		UserAgent:        "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/124.0 Safari/537.36",
		AcceptLanguage:   "fr-MA,fr;q=0.9,en;q=0.8",
		Timeout:          15 * time.Second,
		MaxBodyBytes:     4 << 20,
		Attempts:         1,
		Backoff:          time.Second,
		MaxBackoff:       10 * time.Second,
		HostRPS:          2,
		HostBurst:        2,
		BreakerThreshold: 5,
		BreakerCooldown:  time.Minute,
	}
}

func (c ClientConfig) withDefaults() ClientConfig {
	d := DefaultClientConfig()
	if c.UserAgent == "" {
		c.UserAgent = d.UserAgent
	}
	if c.Timeout <= 0 {
		c.Timeout = d.Timeout
	}
	if c.MaxBodyBytes <= 0 {
		c.MaxBodyBytes = d.MaxBodyBytes
	}
	if c.Attempts <= 0 {
		c.Attempts = 1
	}
	if c.HostBurst <= 0 {
		c.HostBurst = 1
	}
	return c
}
