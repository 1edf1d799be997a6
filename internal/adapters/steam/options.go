package steam

import (
	"net/http"
	"time"

	"github.com/okian/castassist/pkg/logger"
)

// Option applies a configuration option to the Poller.
type Option func(*Poller)

// WithBaseURL overrides the Steam Web API endpoint.
func WithBaseURL(u string) Option {
	return func(p *Poller) {
		if u != "" {
			p.baseURL = u
		}
	}
}

// WithPollInterval sets the crawl cadence.
func WithPollInterval(d time.Duration) Option {
	return func(p *Poller) {
		if d > 0 {
			p.interval = d
		}
	}
}

// WithRequestTimeout sets the per-request timeout.
func WithRequestTimeout(d time.Duration) Option {
	return func(p *Poller) {
		if d > 0 {
			p.client.Timeout = d
		}
	}
}

// WithHTTPClient replaces the HTTP client entirely.
func WithHTTPClient(c *http.Client) Option {
	return func(p *Poller) {
		if c != nil {
			p.client = c
		}
	}
}

// WithLogger sets a custom logger for the poller.
func WithLogger(log logger.Logger) Option {
	return func(p *Poller) {
		if log != nil {
			p.log = log
		}
	}
}
