package mteam

import "time"

// Option configures a Client.
type Option func(*Client)

// WithTimeout sets the HTTP client timeout.
func WithTimeout(timeout time.Duration) Option {
	return func(c *Client) {
		c.httpClient.Timeout = timeout
	}
}

// WithDelay sets the range of the random pause taken before each API call.
func WithDelay(min, max time.Duration) Option {
	return func(c *Client) {
		if min < 0 || max < min {
			return
		}
		c.minDelay = min
		c.maxDelay = max
	}
}

// WithRSS sets the RSS feed URL used by Latest.
func WithRSS(url string) Option {
	return func(c *Client) {
		c.rss = url
	}
}
