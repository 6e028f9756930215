// Package crawler implements spec.md §4.1/§4.2/§4.7: the Engine
// scheduler/worker pool, the per-page pipeline it drives, and the
// standalone BatchCrawl use case, grounded on the teacher's
// (codepr/webcrawler) crawlPage goroutine-per-page loop and its
// CrawlingRules-driven politeness.
package crawler

import (
	"fmt"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/rs/zerolog"

	"github.com/webreap/crawlkit/extract"
	"github.com/webreap/crawlkit/fetcher"
	"github.com/webreap/crawlkit/model"
	"github.com/webreap/crawlkit/store"
	"github.com/webreap/crawlkit/urlutil"
)

// maxChildrenPerParent is spec.md §4.2 step 8's "take at most 100" cap.
const maxChildrenPerParent = 100

// recentlyCrawledWindowMinutes is spec.md §4.2 step 1's dedup window.
const recentlyCrawledWindowMinutes = 60

// robotsCache is the subset of robots.Cache the pipeline depends on.
type robotsCache interface {
	IsAllowed(rawURL, userAgent string) bool
}

// pipeline executes spec.md §4.2's exact 10-step order over a single
// request. It is unexported: the Engine and BatchCrawl construct one and
// share it across workers, since it holds no per-request state.
type pipeline struct {
	fetcher fetcher.Fetcher
	robots  robotsCache
	store   store.ResultStore
	logger  *zerolog.Logger
}

func newPipeline(f fetcher.Fetcher, r robotsCache, s store.ResultStore, logger *zerolog.Logger) *pipeline {
	return &pipeline{fetcher: f, robots: r, store: s, logger: logger}
}

// execute runs the full pipeline for req, never panicking out: any
// unexpected failure is converted to a StatusFailed result, per spec.md
// §7's "worker-level exceptions ... are not propagated to the caller".
func (p *pipeline) execute(req model.Request) model.CrawlResult {
	start := time.Now()
	defer func() {
		if r := recover(); r != nil {
			p.logger.Error().Interface("panic", r).Str("url", req.URL).Msg("pipeline panic recovered")
		}
	}()
	result := p.run(req, start)
	result.Metrics.TotalMs = time.Since(start).Milliseconds()
	result.CompletedAt = time.Now()
	return result
}

func (p *pipeline) run(req model.Request, start time.Time) model.CrawlResult {
	// 1. Dedup check.
	if p.store != nil && p.store.WasRecentlyCrawled(req.URL, recentlyCrawledWindowMinutes) {
		return terminal(req, model.StatusSkipped, "Recently crawled")
	}

	// 2. Robots check.
	if req.Policy.RespectRobotsTxt && p.robots != nil {
		if !p.robots.IsAllowed(req.URL, req.Policy.UserAgent) {
			return terminal(req, model.StatusRobotsBlocked, "Disallowed by robots.txt")
		}
	}

	// 3. Fetch.
	downloadStart := time.Now()
	resp, err := p.fetcher.Fetch(req.URL)
	downloadMs := time.Since(downloadStart).Milliseconds()
	if err != nil || !resp.IsSuccessful || resp.Body == "" {
		res := terminal(req, networkFailureStatus(resp.Error), fetchErrorMessage(err, resp))
		res.Metrics.DownloadMs = downloadMs
		return res
	}

	// 4. Content-type gate.
	contentType := strings.ToLower(resp.Header("content-type"))
	if contentType == "" {
		p.logger.Warn().Str("url", req.URL).Msg("response has no content-type, accepting anyway")
	} else if !allowedContentType(contentType, req.Policy.AllowedTypes) {
		res := terminal(req, model.StatusUnsupportedContentType, fmt.Sprintf("content-type %q not allowed", contentType))
		res.Metrics.DownloadMs = downloadMs
		return res
	}

	// 5. Size gate.
	contentBytes := int64(len(resp.Body))
	if req.Policy.MaxContentLength > 0 && contentBytes > req.Policy.MaxContentLength {
		msg := fmt.Sprintf("body of %s exceeds limit of %s", humanize.Bytes(uint64(contentBytes)), humanize.Bytes(uint64(req.Policy.MaxContentLength)))
		res := terminal(req, model.StatusContentTooLarge, msg)
		res.Metrics.DownloadMs = downloadMs
		res.Metrics.ContentBytes = contentBytes
		return res
	}

	// 6. Extraction.
	extractStart := time.Now()
	fields := extract.ExtractData(resp.Body, contentType, req.Rules, req.URL, p.logger)
	extractionMs := time.Since(extractStart).Milliseconds()

	// 7. Link/image/meta extraction.
	links := extract.ExtractLinks(resp.Body, req.URL)
	images := extract.ExtractImages(resp.Body, req.URL)
	meta := extract.ExtractMetadata(resp.Body)

	// 8. Child-request generation.
	children := p.childRequests(req, links)

	page := &model.WebPage{
		URL:        resp.URL,
		Title:      meta["title"],
		RawContent: resp.Body,
		Fields:     fields,
		Links:      links,
		Images:     images,
		Metadata: model.PageMetadata{
			StatusCode:    resp.StatusCode,
			ContentType:   contentType,
			ContentLength: contentBytes,
			Headers:       resp.Headers,
			Charset:       meta["charset"],
			Language:      meta["language"],
		},
		CompletedAt:    time.Now(),
		CrawlRequestID: req.ID,
		Depth:          req.Depth,
		Source:         req.Source(),
		ResponseTime:   time.Duration(downloadMs) * time.Millisecond,
	}

	result := model.CrawlResult{
		Request:       req,
		Page:          page,
		Status:        model.StatusSuccess,
		ChildRequests: children,
		Metrics: model.Metrics{
			DownloadMs:          downloadMs,
			ExtractionMs:        extractionMs,
			ContentBytes:        contentBytes,
			ExtractedFieldCount: len(fields),
		},
	}

	// 9. Persist.
	p.persist(result, *page)

	// 10. Return SUCCESS.
	return result
}

func (p *pipeline) persist(result model.CrawlResult, page model.WebPage) {
	if p.store == nil {
		return
	}
	if err := p.store.SaveResult(result); err != nil {
		p.logger.Warn().Err(err).Str("url", result.Request.URL).Msg("failed to persist crawl result")
	}
	if err := p.store.SaveWebPage(page); err != nil {
		p.logger.Warn().Err(err).Str("url", page.URL).Msg("failed to persist web page")
	}
}

// childRequests implements step 8: only when depth allows it, keep
// absolute http(s) same-host links, cap at maxChildrenPerParent, derive
// one child Request per kept link.
func (p *pipeline) childRequests(req model.Request, links []string) []model.Request {
	if req.Depth >= req.MaxDepth {
		return nil
	}
	var children []model.Request
	for _, link := range links {
		if len(children) >= maxChildrenPerParent {
			break
		}
		if !urlutil.IsValidHTTP(link) {
			continue
		}
		if !urlutil.SameHost(link, req.URL) {
			continue
		}
		children = append(children, req.Child(link))
	}
	return children
}

// terminal builds a short-circuited, non-SUCCESS CrawlResult for req.
func terminal(req model.Request, status model.Status, errMsg string) model.CrawlResult {
	return model.CrawlResult{
		Request: req,
		Status:  status,
		Error:   errMsg,
	}
}

func allowedContentType(contentType string, allowed []string) bool {
	for _, a := range allowed {
		if strings.Contains(contentType, strings.ToLower(a)) {
			return true
		}
	}
	return false
}

// networkFailureStatus maps a fetch-level error string to TIMEOUT or
// NETWORK_ERROR, per spec.md §4.2 step 3 and §7's Timeout/NetworkError
// taxonomy entries.
func networkFailureStatus(errMsg string) model.Status {
	lower := strings.ToLower(errMsg)
	if strings.Contains(lower, "timeout") || strings.Contains(lower, "deadline exceeded") {
		return model.StatusTimeout
	}
	return model.StatusNetworkError
}

func fetchErrorMessage(err error, resp fetcher.Response) string {
	if resp.Error != "" {
		return resp.Error
	}
	if err != nil {
		return err.Error()
	}
	return "empty response body"
}
