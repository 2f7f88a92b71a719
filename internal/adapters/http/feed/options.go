package feed

import (
	"net/http"
	"time"

	"github.com/okian/reto/pkg/logger"
)

type config struct {
	ping        time.Duration
	checkOrigin func(*http.Request) bool
	logger      logger.Logger
}

func defaults() config {
	return config{
		ping:   pingPeriod,
		logger: logger.Get().Named("feed"),
	}
}

// Option configures a feed Handler.
type Option func(*config)

// WithPingInterval overrides how often idle connections are pinged.
func WithPingInterval(d time.Duration) Option {
	return func(c *config) {
		if d > 0 {
			c.ping = d
		}
	}
}

// WithCheckOrigin sets the origin policy for upgrades. The default only
// accepts same-host origins.
func WithCheckOrigin(fn func(*http.Request) bool) Option {
	return func(c *config) {
		c.checkOrigin = fn
	}
}

// WithLogger sets the logger.
func WithLogger(l logger.Logger) Option {
	return func(c *config) {
		if l != nil {
			c.logger = l
		}
	}
}
