// Package urlutil contains leaf-level URL helpers shared by the extraction
// engine, the robots service and the page pipeline: host/path splitting,
// same-host tests and validity checks. None of it depends on any other
// package in this module.
package urlutil

import (
	"net/url"
	"strings"
)

// Host returns the lower-cased authority portion of rawURL, between
// "://" and the next "/" or ":". It mirrors the GLOSSARY definition of
// "Host" rather than relying on url.Parse's own notion of Hostname, so that
// malformed-but-still-navigable URLs behave the same way the spec describes.
func Host(rawURL string) string {
	rest := rawURL
	if idx := strings.Index(rest, "://"); idx >= 0 {
		rest = rest[idx+3:]
	}
	end := len(rest)
	for i, c := range rest {
		if c == '/' || c == ':' {
			end = i
			break
		}
	}
	return strings.ToLower(rest[:end])
}

// SameHost reports whether a and b share the exact lower-cased host, per
// spec.md §4.2's edge-case note and the resolved Open Question in
// SPEC_FULL.md (no registrable-domain relaxation).
func SameHost(a, b string) bool {
	ha, hb := Host(a), Host(b)
	return ha != "" && ha == hb
}

// IsValidHTTP reports whether rawURL parses as an absolute http(s) URL.
func IsValidHTTP(rawURL string) bool {
	u, err := url.Parse(rawURL)
	if err != nil {
		return false
	}
	if !u.IsAbs() {
		return false
	}
	scheme := strings.ToLower(u.Scheme)
	return (scheme == "http" || scheme == "https") && u.Host != ""
}

// Resolve joins a (possibly relative) href against base, returning the
// absolute form. It returns ok=false when either URL fails to parse.
func Resolve(base, href string) (string, bool) {
	baseURL, err := url.Parse(base)
	if err != nil {
		return "", false
	}
	refURL, err := url.Parse(href)
	if err != nil {
		return "", false
	}
	return baseURL.ResolveReference(refURL).String(), true
}

// PathOf returns the path component (including any query string) of
// rawURL, or "/" if it cannot be parsed.
func PathOf(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil {
		return "/"
	}
	if u.RawQuery != "" {
		return u.Path + "?" + u.RawQuery
	}
	if u.Path == "" {
		return "/"
	}
	return u.Path
}
