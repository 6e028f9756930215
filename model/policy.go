package model

import "time"

// CrawlPolicy is spec.md §3's CrawlPolicy: whether to respect robots.txt,
// the inter-request delay, retry/timeout limits, the user-agent, the
// content-length cap, the allowed content-type substrings, extra headers,
// and the redirect policy.
type CrawlPolicy struct {
	RespectRobotsTxt bool
	DelayMs          int64
	MaxRetries       int
	TimeoutMs        int64
	UserAgent        string
	MaxContentLength int64
	AllowedTypes     []string
	Headers          map[string]string
	FollowRedirects  bool
	MaxRedirects     int
}

// DefaultPolicy returns spec.md §3's documented defaults.
func DefaultPolicy() CrawlPolicy {
	return CrawlPolicy{
		RespectRobotsTxt: true,
		DelayMs:          1000,
		MaxRetries:       3,
		TimeoutMs:        30_000,
		UserAgent:        "crawlkit/1.0",
		MaxContentLength: 10 * 1024 * 1024,
		AllowedTypes:     []string{"text/html", "application/xhtml+xml"},
		FollowRedirects:  true,
		MaxRedirects:     5,
	}
}

// Timeout returns TimeoutMs as a time.Duration.
func (p CrawlPolicy) Timeout() time.Duration {
	return time.Duration(p.TimeoutMs) * time.Millisecond
}

// Delay returns DelayMs as a time.Duration.
func (p CrawlPolicy) Delay() time.Duration {
	return time.Duration(p.DelayMs) * time.Millisecond
}
