// Package model holds the crawl engine's data model (spec.md §3): Request,
// CrawlPolicy, WebPage, CrawlResult and their invariants. It is the shared
// vocabulary between the crawler, store and ratelimit packages, kept
// dependency-free of all three to avoid import cycles.
package model

import (
	"time"

	"github.com/google/uuid"

	"github.com/webreap/crawlkit/extract"
)

// Priority is the Request priority enum of spec.md §3.
type Priority string

const (
	PriorityLow    Priority = "LOW"
	PriorityNormal Priority = "NORMAL"
	PriorityHigh   Priority = "HIGH"
	PriorityUrgent Priority = "URGENT"
)

// Request is one crawl request: identity, target URL, depth bookkeeping,
// extraction rules, policy, priority, an attribute map (carrying at least
// "source" and a retry counter), an optional parent id, and a creation
// timestamp. Requests are immutable once submitted — every helper below
// returns a new Request rather than mutating one in place.
type Request struct {
	ID         string
	URL        string
	Depth      int
	MaxDepth   int
	Rules      []extract.Rule
	Policy     CrawlPolicy
	Priority   Priority
	Attributes map[string]string
	ParentID   string
	CreatedAt  time.Time
}

// NewRequest builds a depth-0 seed Request with a fresh id and timestamp.
func NewRequest(url string, maxDepth int, rules []extract.Rule, policy CrawlPolicy, priority Priority, attributes map[string]string) Request {
	return Request{
		ID:         uuid.NewString(),
		URL:        url,
		Depth:      0,
		MaxDepth:   maxDepth,
		Rules:      rules,
		Policy:     policy,
		Priority:   priority,
		Attributes: cloneAttrs(attributes),
		CreatedAt:  now(),
	}
}

// Child derives a new Request from r for a discovered link: same rules,
// policy, priority, max depth and attributes, with a new id, the child
// URL, depth+1, parent id set to r.ID, and a fresh timestamp. The caller
// is responsible for checking r.Depth < r.MaxDepth before calling Child,
// per spec.md §3's invariant that every child satisfies
// depth = parent.depth+1 <= parent.maxDepth.
func (r Request) Child(childURL string) Request {
	return Request{
		ID:         uuid.NewString(),
		URL:        childURL,
		Depth:      r.Depth + 1,
		MaxDepth:   r.MaxDepth,
		Rules:      r.Rules,
		Policy:     r.Policy,
		Priority:   r.Priority,
		Attributes: cloneAttrs(r.Attributes),
		ParentID:   r.ID,
		CreatedAt:  now(),
	}
}

// RetryCount reads the "retryCount" attribute, defaulting to 0.
func (r Request) RetryCount() int {
	v, ok := r.Attributes["retryCount"]
	if !ok {
		return 0
	}
	n := 0
	for _, c := range v {
		if c < '0' || c > '9' {
			return 0
		}
		n = n*10 + int(c-'0')
	}
	return n
}

// Source reads the "source" attribute.
func (r Request) Source() string {
	return r.Attributes["source"]
}

func cloneAttrs(attrs map[string]string) map[string]string {
	if attrs == nil {
		return map[string]string{}
	}
	out := make(map[string]string, len(attrs))
	for k, v := range attrs {
		out[k] = v
	}
	return out
}

// now is a seam so tests can avoid asserting on wall-clock timestamps if
// ever needed; it is always time.Now in production.
var now = time.Now
