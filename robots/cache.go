package robots

import (
	"fmt"
	"strings"
	"sync"
	"time"

	lru "github.com/hashicorp/golang-lru/v2/expirable"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/webreap/crawlkit/fetcher"
	"github.com/webreap/crawlkit/urlutil"
)

const (
	// DefaultCapacity is the default number of hosts the cache retains.
	DefaultCapacity = 1000
	// DefaultTTL is the default write-expiry of a cached rule set.
	DefaultTTL = 6 * time.Hour
)

// Cache is the robots.txt cache and parser service of spec.md §4.5: a
// capacity- and TTL-bounded per-host cache of parsed Rules, backed by
// hashicorp/golang-lru's expirable LRU (the idiomatic Go answer to "a
// capacity-bounded cache ... with TTL-bounded entries").
type Cache struct {
	fetcher fetcher.Fetcher
	cache   *lru.LRU[string, Rules]
	logger  *zerolog.Logger

	// Scheme is used to build the robots.txt URL for host-only lookups
	// (GetCrawlDelay, GetSitemaps, RefreshRobotsTxt, PrefetchRobots),
	// which the spec only hands a bare host. IsAllowed instead reuses the
	// scheme of the URL it was given. Defaults to "https".
	Scheme string

	// fetchMu serializes concurrent misses on the same host via a single
	// lock rather than a per-host lock table, matching spec.md §4.5's
	// "double-checked locked insert" description (a single lock, recheck
	// the cache, fetch, insert).
	fetchMu sync.Mutex
}

// New builds a Cache that fetches robots.txt through f, with the given
// capacity and TTL (zero values fall back to the spec.md defaults).
func New(f fetcher.Fetcher, capacity int, ttl time.Duration, logger *zerolog.Logger) *Cache {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	if logger == nil {
		l := log.Logger.With().Str("component", "robots").Logger()
		logger = &l
	}
	return &Cache{
		fetcher: f,
		cache:   lru.NewLRU[string, Rules](capacity, nil, ttl),
		logger:  logger,
		Scheme:  "https",
	}
}

// getOrFetch returns the cached Rules for host, fetching and parsing
// robots.txt on a miss.
func (c *Cache) getOrFetch(host string) Rules {
	return c.getOrFetchWithScheme(host, c.Scheme)
}

func (c *Cache) getOrFetchWithScheme(host, scheme string) Rules {
	if rules, ok := c.cache.Get(host); ok {
		return rules
	}
	c.fetchMu.Lock()
	defer c.fetchMu.Unlock()
	if rules, ok := c.cache.Get(host); ok {
		return rules
	}
	rules := c.fetch(host, scheme)
	c.cache.Add(host, rules)
	return rules
}

func schemeOf(rawURL string) string {
	if idx := strings.Index(rawURL, "://"); idx >= 0 {
		return rawURL[:idx]
	}
	return ""
}

func (c *Cache) fetch(host, scheme string) Rules {
	if scheme == "" {
		scheme = "https"
	}
	targetURL := fmt.Sprintf("%s://%s/robots.txt", scheme, host)
	res, err := c.fetcher.Fetch(targetURL)
	if err != nil || !res.IsSuccessful || res.StatusCode < 200 || res.StatusCode >= 300 {
		c.logger.Warn().Str("host", host).Err(err).Int("status", res.StatusCode).Msg("robots.txt fetch failed, allowing everything")
		return Empty()
	}
	return Parse(res.Body)
}

// IsAllowed reports whether userAgent may crawl rawURL, per spec.md §4.5:
// exact lower-cased user-agent match, falling back to "*"; allow if
// neither group exists; otherwise deny iff the path starts with any
// disallow prefix.
func (c *Cache) IsAllowed(rawURL, userAgent string) bool {
	host := urlutil.Host(rawURL)
	path := urlutil.PathOf(rawURL)
	rules := c.getOrFetchWithScheme(host, schemeOf(rawURL))

	group, ok := lookupGroup(rules, userAgent)
	if !ok {
		return true
	}
	for _, disallow := range group.Disallow {
		if disallow == "" {
			continue
		}
		if strings.HasPrefix(path, disallow) {
			return false
		}
	}
	return true
}

func lookupGroup(rules Rules, userAgent string) (Group, bool) {
	ua := strings.ToLower(userAgent)
	if g, ok := rules.Groups[ua]; ok {
		return g, true
	}
	if g, ok := rules.Groups["*"]; ok {
		return g, true
	}
	return Group{}, false
}

// GetCrawlDelay returns the host's crawl-delay for userAgent, or 0 and
// false if none is specified.
func (c *Cache) GetCrawlDelay(host, userAgent string) (time.Duration, bool) {
	rules := c.getOrFetch(host)
	group, ok := lookupGroup(rules, userAgent)
	if !ok || group.CrawlDelay <= 0 {
		return 0, false
	}
	return group.CrawlDelay, true
}

// GetSitemaps returns the sitemap URLs declared in host's robots.txt.
func (c *Cache) GetSitemaps(host string) []string {
	return c.getOrFetch(host).Sitemaps
}

// RefreshRobotsTxt forces a re-fetch of host's robots.txt, replacing the
// cached entry (and resetting its TTL).
func (c *Cache) RefreshRobotsTxt(host string) Rules {
	c.fetchMu.Lock()
	defer c.fetchMu.Unlock()
	rules := c.fetch(host, c.Scheme)
	c.cache.Add(host, rules)
	return rules
}

// PrefetchRobots warms the cache for host without blocking a crawl
// decision on it.
func (c *Cache) PrefetchRobots(host string) {
	c.getOrFetch(host)
}

// ClearCache empties the cache entirely.
func (c *Cache) ClearCache() {
	c.cache.Purge()
}
