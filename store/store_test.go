package store

import (
	"testing"
	"time"

	"github.com/webreap/crawlkit/model"
)

func newResult(url string, status model.Status, source string) model.CrawlResult {
	req := model.NewRequest(url, 2, nil, model.DefaultPolicy(), model.PriorityNormal, map[string]string{"source": source})
	return model.CrawlResult{
		Request:     req,
		Status:      status,
		CompletedAt: time.Now(),
	}
}

func TestSaveResultAndRecency(t *testing.T) {
	s := NewMemoryStore()
	if s.WasRecentlyCrawled("https://a.test/x", 60) {
		t.Fatal("expected false before any save")
	}
	if err := s.SaveResult(newResult("https://a.test/x", model.StatusSuccess, "feed")); err != nil {
		t.Fatalf("SaveResult: %v", err)
	}
	if !s.WasRecentlyCrawled("https://a.test/x", 60) {
		t.Fatal("expected true within window")
	}
	if s.WasRecentlyCrawled("https://a.test/never-seen", 60) {
		t.Fatal("expected false for unseen url")
	}
}

func TestFindBySourceAndStatus(t *testing.T) {
	s := NewMemoryStore()
	s.SaveResult(newResult("https://a.test/1", model.StatusSuccess, "feed-a"))
	s.SaveResult(newResult("https://a.test/2", model.StatusFailed, "feed-a"))
	s.SaveResult(newResult("https://b.test/1", model.StatusSuccess, "feed-b"))

	if got := s.FindBySource("feed-a"); len(got) != 2 {
		t.Fatalf("expected 2 results for feed-a, got %d", len(got))
	}
	if got := s.FindByStatus(model.StatusFailed); len(got) != 1 {
		t.Fatalf("expected 1 FAILED result, got %d", len(got))
	}
}

func TestGetCrawlStats(t *testing.T) {
	s := NewMemoryStore()
	s.SaveResult(newResult("https://a.test/1", model.StatusSuccess, "feed-a"))
	s.SaveResult(newResult("https://a.test/2", model.StatusFailed, "feed-a"))
	s.SaveResult(newResult("https://a.test/3", model.StatusSuccess, "feed-a"))

	stats := s.GetCrawlStats("feed-a")
	if stats.Total != 3 || stats.Successes != 2 || stats.Failures != 1 {
		t.Fatalf("unexpected stats: %+v", stats)
	}
}

func TestSaveWebPage(t *testing.T) {
	s := NewMemoryStore()
	page := model.WebPage{URL: "https://a.test/x", Title: "hello"}
	if err := s.SaveWebPage(page); err != nil {
		t.Fatalf("SaveWebPage: %v", err)
	}
	s.mu.RLock()
	got, ok := s.pages["https://a.test/x"]
	s.mu.RUnlock()
	if !ok || got.Title != "hello" {
		t.Fatalf("expected saved page, got %+v ok=%v", got, ok)
	}
}

func TestFailedResultQueuesRetryNotYetReady(t *testing.T) {
	s := NewMemoryStore()
	s.SaveResult(newResult("https://a.test/x", model.StatusFailed, "feed"))

	if got := s.GetFailedForRetry(3); len(got) != 0 {
		t.Fatalf("expected no ready retries immediately, got %d", len(got))
	}

	s.retryMu.Lock()
	if len(s.retries) != 1 {
		s.retryMu.Unlock()
		t.Fatalf("expected 1 queued retry, got %d", len(s.retries))
	}
	s.retries[0].readyAt = time.Now().Add(-time.Second)
	s.retryMu.Unlock()

	ready := s.GetFailedForRetry(3)
	if len(ready) != 1 {
		t.Fatalf("expected 1 ready retry, got %d", len(ready))
	}
	if ready[0].RetryCount() != 1 {
		t.Fatalf("expected retryCount 1, got %d", ready[0].RetryCount())
	}

	if got := s.GetFailedForRetry(3); len(got) != 0 {
		t.Fatalf("expected retry list drained, got %d", len(got))
	}
}

func TestFailedResultExceedingMaxRetriesDropped(t *testing.T) {
	s := NewMemoryStore()
	req := model.NewRequest("https://a.test/x", 2, nil, model.DefaultPolicy(), model.PriorityNormal, map[string]string{
		"source":     "feed",
		"retryCount": "3",
	})
	s.SaveResult(model.CrawlResult{Request: req, Status: model.StatusFailed})

	s.retryMu.Lock()
	s.retries[0].readyAt = time.Now().Add(-time.Second)
	s.retryMu.Unlock()

	if got := s.GetFailedForRetry(3); len(got) != 0 {
		t.Fatalf("expected request with retryCount already at max to be dropped, got %d", len(got))
	}
}
