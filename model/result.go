package model

import (
	"time"

	"github.com/webreap/crawlkit/extract"
)

// Status is the CrawlResult status enum of spec.md §3, whose wire values
// must round-trip through serialization unchanged (spec.md §6).
type Status string

const (
	StatusSuccess                 Status = "SUCCESS"
	StatusFailed                  Status = "FAILED"
	StatusSkipped                 Status = "SKIPPED"
	StatusRobotsBlocked           Status = "ROBOTS_BLOCKED"
	StatusTimeout                 Status = "TIMEOUT"
	StatusTooManyRetries          Status = "TOO_MANY_RETRIES"
	StatusContentTooLarge         Status = "CONTENT_TOO_LARGE"
	StatusUnsupportedContentType  Status = "UNSUPPORTED_CONTENT_TYPE"
	StatusNetworkError            Status = "NETWORK_ERROR"
	StatusParseError              Status = "PARSE_ERROR"
)

// PageMetadata is the response-shaped half of a WebPage: status code,
// content-type, content-length, lower-cased response headers, charset
// and language.
type PageMetadata struct {
	StatusCode    int
	ContentType   string
	ContentLength int64
	Headers       map[string][]string
	Charset       string
	Language      string
}

// WebPage is the final, successfully-crawled shape of a page: spec.md §3.
// CrawlRequestID, Depth, Source and ResponseTime are the Kotlin source's
// "todo"-flagged fields, threaded end-to-end here per SPEC_FULL.md rather
// than left as stubs.
type WebPage struct {
	URL            string
	Title          string
	RawContent     string
	Fields         map[string]extract.Value
	Links          []string
	Images         []extract.Image
	Metadata       PageMetadata
	CompletedAt    time.Time

	CrawlRequestID string
	Depth          int
	Source         string
	ResponseTime   time.Duration
}

// Metrics is the per-result timing/size breakdown of spec.md §3.
type Metrics struct {
	DownloadMs          int64
	ParseMs             int64
	ExtractionMs        int64
	TotalMs             int64
	ContentBytes        int64
	ExtractedFieldCount int
}

// CrawlResult is spec.md §3's CrawlResult: the triggering request, an
// optional WebPage (non-nil iff Status == SUCCESS), a status, an error
// string, any newly generated child requests, a completion timestamp, and
// metrics.
type CrawlResult struct {
	Request      Request
	Page         *WebPage
	Status       Status
	Error        string
	ChildRequests []Request
	CompletedAt  time.Time
	Metrics      Metrics
}
