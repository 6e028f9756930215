// Package store implements spec.md §6's result sink contract: recording
// completed results and pages, answering "recently crawled?", retrieving
// by various keys, reporting per-source stats, and managing the
// failed-for-retry list.
//
// ResultStore is an external collaborator — spec.md §2 only specifies its
// interface; MemoryStore is the reference, in-memory implementation this
// module ships, generalized from the teacher's (codepr/webcrawler)
// memoryCache namespace/key set into a result-keyed store with
// minute-precision recency tracking and a mutex-guarded retry list.
package store

import (
	"strconv"
	"sync"
	"time"

	"github.com/webreap/crawlkit/model"
)

// ResultStore is spec.md §6's result sink contract.
type ResultStore interface {
	SaveResult(result model.CrawlResult) error
	SaveWebPage(page model.WebPage) error
	WasRecentlyCrawled(url string, withinMinutes int) bool
	FindBySource(source string) []model.CrawlResult
	FindByStatus(status model.Status) []model.CrawlResult
	GetCrawlStats(source string) Stats
	GetFailedForRetry(maxRetries int) []model.Request
}

// Stats is the per-source summary GetCrawlStats returns.
type Stats struct {
	Total     int
	Successes int
	Failures  int
}

// retryEntry is a FAILED result recloned with an incremented retry count
// and a future ready time, per spec.md §7's retry policy.
type retryEntry struct {
	request model.Request
	readyAt time.Time
}

// MemoryStore is the default, non-persistent ResultStore.
type MemoryStore struct {
	mu sync.RWMutex

	results []model.CrawlResult
	pages   map[string]model.WebPage

	// lastSeen tracks, per URL, the minute-truncated time it was last
	// completed, matching spec.md §6's "typically a last-seen map with
	// minute precision".
	lastSeen map[string]time.Time

	retryMu sync.Mutex
	retries []retryEntry
}

// NewMemoryStore builds an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		pages:    map[string]model.WebPage{},
		lastSeen: map[string]time.Time{},
	}
}

// SaveResult records result and, on a FAILED status, enqueues a retry
// entry per spec.md §7: retryCount+1, timestamp = now + 5min.
func (s *MemoryStore) SaveResult(result model.CrawlResult) error {
	s.mu.Lock()
	s.results = append(s.results, result)
	s.lastSeen[result.Request.URL] = time.Now().Truncate(time.Minute)
	s.mu.Unlock()

	if result.Status == model.StatusFailed {
		s.enqueueRetry(result.Request)
	}
	return nil
}

func (s *MemoryStore) enqueueRetry(req model.Request) {
	attrs := make(map[string]string, len(req.Attributes)+1)
	for k, v := range req.Attributes {
		attrs[k] = v
	}
	attrs["retryCount"] = strconv.Itoa(req.RetryCount() + 1)
	retried := req
	retried.Attributes = attrs

	s.retryMu.Lock()
	defer s.retryMu.Unlock()
	s.retries = append(s.retries, retryEntry{request: retried, readyAt: time.Now().Add(5 * time.Minute)})
}

// SaveWebPage records page, keyed by its URL.
func (s *MemoryStore) SaveWebPage(page model.WebPage) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.pages[page.URL] = page
	return nil
}

// WasRecentlyCrawled reports whether url completed within withinMinutes
// minutes, at minute precision.
func (s *MemoryStore) WasRecentlyCrawled(url string, withinMinutes int) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	seen, ok := s.lastSeen[url]
	if !ok {
		return false
	}
	return time.Since(seen) <= time.Duration(withinMinutes)*time.Minute
}

// FindBySource returns every recorded result whose request's "source"
// attribute matches source.
func (s *MemoryStore) FindBySource(source string) []model.CrawlResult {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []model.CrawlResult
	for _, r := range s.results {
		if r.Request.Source() == source {
			out = append(out, r)
		}
	}
	return out
}

// FindByStatus returns every recorded result with the given status.
func (s *MemoryStore) FindByStatus(status model.Status) []model.CrawlResult {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []model.CrawlResult
	for _, r := range s.results {
		if r.Status == status {
			out = append(out, r)
		}
	}
	return out
}

// GetCrawlStats summarizes results for source.
func (s *MemoryStore) GetCrawlStats(source string) Stats {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var st Stats
	for _, r := range s.results {
		if r.Request.Source() != source {
			continue
		}
		st.Total++
		if r.Status == model.StatusSuccess {
			st.Successes++
		} else {
			st.Failures++
		}
	}
	return st
}

// GetFailedForRetry returns every retry-queued request whose ready time
// has elapsed and whose retry count has not yet reached maxRetries.
// Actually re-submitting them to the engine is the caller's
// responsibility, per spec.md §6.
func (s *MemoryStore) GetFailedForRetry(maxRetries int) []model.Request {
	s.retryMu.Lock()
	defer s.retryMu.Unlock()
	now := time.Now()
	var ready []model.Request
	var remaining []retryEntry
	for _, e := range s.retries {
		if now.Before(e.readyAt) {
			remaining = append(remaining, e)
			continue
		}
		if e.request.RetryCount() > maxRetries {
			continue
		}
		ready = append(ready, e.request)
	}
	s.retries = remaining
	return ready
}

