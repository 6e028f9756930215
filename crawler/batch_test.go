package crawler

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/webreap/crawlkit/fetcher"
	"github.com/webreap/crawlkit/model"
	"github.com/webreap/crawlkit/store"
)

func TestBatchCrawlCompletesWithChildren(t *testing.T) {
	var mux http.ServeMux
	mux.HandleFunc("/index", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		w.Write([]byte(`<html><a href="/p2">n</a><a href="/p3">n</a></html>`))
	})
	mux.HandleFunc("/p2", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		w.Write([]byte(`<html>leaf</html>`))
	})
	mux.HandleFunc("/p3", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		w.Write([]byte(`<html>leaf</html>`))
	})
	srv := httptest.NewServer(&mux)
	defer srv.Close()

	f := fetcher.New("test-bot", nil, 0, fetcher.RedirectPolicy{})
	settings := Settings{
		MaxConcurrency: 3,
		Fetcher:        f,
		Robots:         allowAllRobots{},
		Store:          store.NewMemoryStore(),
		Logger:         testLogger(),
	}

	requests := []model.Request{newTestRequest(srv.URL+"/index", 2, nil)}
	results := BatchCrawl(context.Background(), requests, settings)

	var got []model.CrawlResult
	timeout := time.After(5 * time.Second)
drain:
	for {
		select {
		case r, ok := <-results:
			if !ok {
				break drain
			}
			got = append(got, r)
		case <-timeout:
			t.Fatalf("timed out, got %d results so far", len(got))
		}
	}

	if len(got) != 3 {
		t.Fatalf("expected 3 results (1 parent + 2 children), got %d", len(got))
	}
	for _, r := range got {
		assert.Equal(t, model.StatusSuccess, r.Status)
	}
}

func TestBatchCrawlEmptyInputClosesImmediately(t *testing.T) {
	settings := Settings{Fetcher: fetcherThatPanics{}, Robots: allowAllRobots{}, Store: store.NewMemoryStore(), Logger: testLogger()}
	results := BatchCrawl(nil, nil, settings)

	select {
	case _, ok := <-results:
		assert.False(t, ok)
	case <-time.After(time.Second):
		t.Fatal("expected immediately closed channel for empty input")
	}
}

func TestBatchCrawlManyIndependentRequests(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		w.Write([]byte(`<html>leaf</html>`))
	}))
	defer srv.Close()

	f := fetcher.New("test-bot", nil, 0, fetcher.RedirectPolicy{})
	settings := Settings{
		MaxConcurrency: 5,
		Fetcher:        f,
		Robots:         allowAllRobots{},
		Store:          store.NewMemoryStore(),
		Logger:         testLogger(),
	}

	const n = 25
	var requests []model.Request
	for i := 0; i < n; i++ {
		requests = append(requests, newTestRequest(fmt.Sprintf("%s/%d", srv.URL, i), 0, nil))
	}

	results := BatchCrawl(context.Background(), requests, settings)
	count := 0
	timeout := time.After(5 * time.Second)
	for count < n {
		select {
		case <-results:
			count++
		case <-timeout:
			t.Fatalf("timed out after %d/%d", count, n)
		}
	}
}

func TestBatchCrawlCancelUnwindsWorkersWithoutDraining(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		w.Write([]byte(`<html>leaf</html>`))
	}))
	defer srv.Close()

	f := fetcher.New("test-bot", nil, 0, fetcher.RedirectPolicy{})
	settings := Settings{
		MaxConcurrency: 2,
		Fetcher:        f,
		Robots:         allowAllRobots{},
		Store:          store.NewMemoryStore(),
		Logger:         testLogger(),
	}

	// More requests than the result buffer can hold: the workers will
	// fill the buffer and block on the send before a stalled consumer
	// (simulated here by not reading at all for a moment) ever drains it.
	const n = batchResultBufferSize + 50
	var requests []model.Request
	for i := 0; i < n; i++ {
		requests = append(requests, newTestRequest(fmt.Sprintf("%s/%d", srv.URL, i), 0, nil))
	}

	ctx, cancel := context.WithCancel(context.Background())
	results := BatchCrawl(ctx, requests, settings)

	time.Sleep(50 * time.Millisecond)
	cancel()

	timeout := time.After(5 * time.Second)
	for {
		select {
		case _, ok := <-results:
			if !ok {
				return
			}
		case <-timeout:
			t.Fatal("workers did not unwind after context cancellation; result channel never closed")
		}
	}
}
