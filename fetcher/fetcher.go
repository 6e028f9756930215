// Package fetcher defines the HTTP fetcher contract the crawl engine
// consumes (spec.md §6) and a default implementation grounded on the
// teacher's (codepr/webcrawler) rehttp-wrapped http.Client.
//
// The fetcher is an external collaborator: the core (crawler, robots,
// ratelimit packages) only depends on the Fetcher interface below, never
// on HTTPFetcher directly.
package fetcher

import (
	"crypto/tls"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/PuerkitoBio/rehttp"
)

// Response is the normalized result of a fetch, matching spec.md §6's HTTP
// fetcher contract: header names are always lower-cased.
type Response struct {
	URL           string
	StatusCode    int
	Body          string
	Headers       map[string][]string
	IsSuccessful  bool
	Error         string
}

// Header returns the first value of the lower-cased header name, or "".
func (r Response) Header(name string) string {
	vals := r.Headers[strings.ToLower(name)]
	if len(vals) == 0 {
		return ""
	}
	return vals[0]
}

// Fetcher is the interface the crawl engine consumes to retrieve a page.
type Fetcher interface {
	// Fetch issues a GET to url and returns the normalized response. It
	// never returns a non-nil error together with a usable Response: a
	// network/IO failure is reported through Response.IsSuccessful=false
	// and Response.Error, matching spec.md §4.2 step 3.
	Fetch(url string) (Response, error)
}

// RedirectPolicy controls how HTTPFetcher follows redirects.
type RedirectPolicy struct {
	Follow       bool
	MaxRedirects int
}

// HTTPFetcher is the default Fetcher, built on the teacher's rehttp
// transport: exponential-jitter-delayed retries on temporary errors.
type HTTPFetcher struct {
	userAgent string
	headers   map[string]string
	client    *http.Client
	redirects RedirectPolicy
}

// New builds an HTTPFetcher with a connect/read timeout, a fixed set of
// extra request headers, and a redirect policy, mirroring the teacher's
// fetcher.New signature generalized with CrawlPolicy's knobs.
func New(userAgent string, headers map[string]string, timeout time.Duration, redirects RedirectPolicy) *HTTPFetcher {
	transport := rehttp.NewTransport(
		&http.Transport{
			TLSClientConfig: &tls.Config{InsecureSkipVerify: false},
		},
		rehttp.RetryAll(rehttp.RetryMaxRetries(3), rehttp.RetryTemporaryErr()),
		rehttp.ExpJitterDelay(1, 10*time.Second),
	)
	client := &http.Client{Timeout: timeout, Transport: transport}
	if !redirects.Follow {
		client.CheckRedirect = func(req *http.Request, via []*http.Request) error {
			return http.ErrUseLastResponse
		}
	} else if redirects.MaxRedirects > 0 {
		max := redirects.MaxRedirects
		client.CheckRedirect = func(req *http.Request, via []*http.Request) error {
			if len(via) >= max {
				return fmt.Errorf("stopped after %d redirects", max)
			}
			return nil
		}
	}
	return &HTTPFetcher{userAgent: userAgent, headers: headers, client: client, redirects: redirects}
}

// Fetch implements Fetcher.
func (f *HTTPFetcher) Fetch(targetURL string) (Response, error) {
	req, err := http.NewRequest(http.MethodGet, targetURL, nil)
	if err != nil {
		return Response{URL: targetURL, IsSuccessful: false, Error: err.Error()}, nil
	}
	req.Header.Set("User-Agent", f.userAgent)
	for k, v := range f.headers {
		req.Header.Set(k, v)
	}

	res, err := f.client.Do(req)
	if err != nil {
		return Response{URL: targetURL, IsSuccessful: false, Error: err.Error()}, nil
	}
	defer res.Body.Close()

	body, err := io.ReadAll(res.Body)
	if err != nil {
		return Response{URL: targetURL, StatusCode: res.StatusCode, IsSuccessful: false, Error: err.Error()}, nil
	}

	return Response{
		URL:          targetURL,
		StatusCode:   res.StatusCode,
		Body:         string(body),
		Headers:      normalizeHeaders(res.Header),
		IsSuccessful: res.StatusCode >= 200 && res.StatusCode < 400,
	}, nil
}

func normalizeHeaders(h http.Header) map[string][]string {
	out := make(map[string][]string, len(h))
	for k, v := range h {
		out[strings.ToLower(k)] = v
	}
	return out
}
