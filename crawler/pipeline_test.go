package crawler

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/webreap/crawlkit/extract"
	"github.com/webreap/crawlkit/fetcher"
	"github.com/webreap/crawlkit/model"
	"github.com/webreap/crawlkit/store"
)

func testLogger() *zerolog.Logger {
	l := zerolog.Nop()
	return &l
}

func newTestRequest(url string, maxDepth int, rules []extract.Rule) model.Request {
	policy := model.DefaultPolicy()
	return model.NewRequest(url, maxDepth, rules, policy, model.PriorityNormal, map[string]string{"source": "test"})
}

func TestPipelineDedupSkips(t *testing.T) {
	s := store.NewMemoryStore()
	require.NoError(t, s.SaveResult(model.CrawlResult{
		Request: newTestRequest("https://a.test/", 1, nil),
		Status:  model.StatusSuccess,
	}))

	p := newPipeline(fetcherThatPanics{}, nil, s, testLogger())
	result := p.execute(newTestRequest("https://a.test/", 1, nil))

	assert.Equal(t, model.StatusSkipped, result.Status)
}

func TestPipelineRobotsBlocked(t *testing.T) {
	p := newPipeline(fetcherThatPanics{}, denyAllRobots{}, store.NewMemoryStore(), testLogger())
	req := newTestRequest("https://a.test/private/x", 1, nil)
	req.Policy.RespectRobotsTxt = true

	result := p.execute(req)

	assert.Equal(t, model.StatusRobotsBlocked, result.Status)
}

func TestPipelineHappyPathWithChild(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		w.Write([]byte(`<html><h1>Hi</h1><a href="/p2">n</a></html>`))
	}))
	defer srv.Close()

	rules := []extract.Rule{
		{Name: "title", Selector: extract.Selector{Kind: extract.CssSelector, Query: "h1"}, Type: extract.TypeText},
	}
	f := fetcher.New("test-bot", nil, 0, fetcher.RedirectPolicy{})
	p := newPipeline(f, allowAllRobots{}, store.NewMemoryStore(), testLogger())

	result := p.execute(newTestRequest(srv.URL+"/index", 2, rules))

	require.Equal(t, model.StatusSuccess, result.Status)
	require.NotNil(t, result.Page)
	assert.Equal(t, extract.Text("Hi"), result.Page.Fields["title"])
	require.Len(t, result.ChildRequests, 1)
	assert.Equal(t, srv.URL+"/p2", result.ChildRequests[0].URL)
	assert.Equal(t, 1, result.ChildRequests[0].Depth)
	assert.GreaterOrEqual(t, result.Metrics.TotalMs, result.Metrics.DownloadMs+result.Metrics.ExtractionMs)
}

func TestPipelineContentTypeRejected(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/pdf")
		w.Write([]byte("%PDF-1.4"))
	}))
	defer srv.Close()

	f := fetcher.New("test-bot", nil, 0, fetcher.RedirectPolicy{})
	p := newPipeline(f, allowAllRobots{}, store.NewMemoryStore(), testLogger())

	result := p.execute(newTestRequest(srv.URL+"/doc.pdf", 1, nil))

	assert.Equal(t, model.StatusUnsupportedContentType, result.Status)
}

func TestPipelineContentTooLarge(t *testing.T) {
	body := make([]byte, 100)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		w.Write(body)
	}))
	defer srv.Close()

	f := fetcher.New("test-bot", nil, 0, fetcher.RedirectPolicy{})
	p := newPipeline(f, allowAllRobots{}, store.NewMemoryStore(), testLogger())

	req := newTestRequest(srv.URL+"/big", 1, nil)
	req.Policy.MaxContentLength = 99
	result := p.execute(req)
	assert.Equal(t, model.StatusContentTooLarge, result.Status)

	req.Policy.MaxContentLength = 100
	result = p.execute(req)
	assert.Equal(t, model.StatusSuccess, result.Status)
}

func TestPipelineDepthAtMaxYieldsNoChildren(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		w.Write([]byte(`<html><a href="/p2">n</a></html>`))
	}))
	defer srv.Close()

	f := fetcher.New("test-bot", nil, 0, fetcher.RedirectPolicy{})
	p := newPipeline(f, allowAllRobots{}, store.NewMemoryStore(), testLogger())

	req := newTestRequest(srv.URL+"/index", 0, nil)
	result := p.execute(req)

	assert.Equal(t, model.StatusSuccess, result.Status)
	assert.Empty(t, result.ChildRequests)
}

func TestPipelineNetworkErrorStatus(t *testing.T) {
	f := fetcher.New("test-bot", nil, 0, fetcher.RedirectPolicy{})
	p := newPipeline(f, allowAllRobots{}, store.NewMemoryStore(), testLogger())

	result := p.execute(newTestRequest("http://127.0.0.1:1/unreachable", 1, nil))

	assert.Equal(t, model.StatusNetworkError, result.Status)
	assert.NotEmpty(t, result.Error)
}

type fetcherThatPanics struct{}

func (fetcherThatPanics) Fetch(string) (fetcher.Response, error) {
	panic("fetch should not be reached")
}

type allowAllRobots struct{}

func (allowAllRobots) IsAllowed(string, string) bool { return true }

type denyAllRobots struct{}

func (denyAllRobots) IsAllowed(string, string) bool { return false }
