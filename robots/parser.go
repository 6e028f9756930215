// Package robots implements the robots.txt cache and parser: fetching and
// parsing rules per host, answering allow/deny/crawl-delay/sitemap
// queries, and refreshing/prefetching/clearing the cache, per spec.md
// §4.5.
//
// Parsing is hand-written rather than delegated to temoto/robotstxt (the
// teacher's library): temoto's Group keeps its disallow rules private, so
// it cannot satisfy spec.md §8's round-trip property ("parse → serialise
// → parse yields identical rule set") or the explicit "sitemap list" and
// "disallow path list" shape spec.md §4.5 requires callers to see. The
// parser below implements the same line-based directive grammar the
// teacher's dependency implements internally, just with a transparent
// result type.
package robots

import (
	"strconv"
	"strings"
	"time"
)

// Group holds the rules for one user-agent group.
type Group struct {
	Disallow   []string
	CrawlDelay time.Duration // zero means "not specified"
}

// Rules is the parsed form of one host's robots.txt: a lower-cased
// user-agent to Group map, plus the sitemap URLs listed anywhere in the
// file.
type Rules struct {
	Groups   map[string]Group
	Sitemaps []string
}

// Empty is the "allow everything" rule set used when a fetch fails or
// returns a non-2xx status, per spec.md §4.5/§7.
func Empty() Rules {
	return Rules{Groups: map[string]Group{}}
}

// Parse implements spec.md §4.5's line-based parser: case-insensitive
// directive names, "User-agent:" starts a new group (flushing the
// previous one), "Disallow:" appends a non-blank path, "Crawl-delay:"
// parses a float number of seconds into its millisecond Duration,
// "Sitemap:" appends a URL; comments ("#") and blank lines are skipped;
// the final group is flushed at end-of-input.
func Parse(content string) Rules {
	rules := Rules{Groups: map[string]Group{}}

	var currentAgents []string
	var current Group
	hasCurrent := false

	flush := func() {
		if !hasCurrent {
			return
		}
		for _, agent := range currentAgents {
			rules.Groups[agent] = mergeGroup(rules.Groups[agent], current)
		}
		currentAgents = nil
		current = Group{}
		hasCurrent = false
	}

	for _, line := range strings.Split(content, "\n") {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		directive, value, ok := splitDirective(line)
		if !ok {
			continue
		}
		switch strings.ToLower(directive) {
		case "user-agent":
			if hasCurrent && len(currentAgents) > 0 && groupStarted(current) {
				// A new "User-agent:" after directives were already seen
				// for the current group starts a fresh group.
				flush()
			}
			agent := strings.ToLower(strings.TrimSpace(value))
			if agent == "" {
				continue
			}
			currentAgents = append(currentAgents, agent)
			hasCurrent = true
		case "disallow":
			path := strings.TrimSpace(value)
			if path != "" {
				current.Disallow = append(current.Disallow, path)
			}
		case "crawl-delay":
			if seconds, err := strconv.ParseFloat(strings.TrimSpace(value), 64); err == nil {
				current.CrawlDelay = time.Duration(seconds * float64(time.Second))
			}
		case "sitemap":
			if url := strings.TrimSpace(value); url != "" {
				rules.Sitemaps = append(rules.Sitemaps, url)
			}
		}
	}
	flush()

	return rules
}

func groupStarted(g Group) bool {
	return len(g.Disallow) > 0 || g.CrawlDelay > 0
}

func mergeGroup(existing, incoming Group) Group {
	existing.Disallow = append(existing.Disallow, incoming.Disallow...)
	if incoming.CrawlDelay > 0 {
		existing.CrawlDelay = incoming.CrawlDelay
	}
	return existing
}

func splitDirective(line string) (directive, value string, ok bool) {
	idx := strings.Index(line, ":")
	if idx < 0 {
		return "", "", false
	}
	return line[:idx], line[idx+1:], true
}

// Serialize renders Rules back into robots.txt text, used to verify the
// parse/serialize/parse round-trip property of spec.md §8.
func Serialize(r Rules) string {
	var b strings.Builder
	for agent, group := range r.Groups {
		b.WriteString("User-agent: ")
		b.WriteString(agent)
		b.WriteString("\n")
		for _, path := range group.Disallow {
			b.WriteString("Disallow: ")
			b.WriteString(path)
			b.WriteString("\n")
		}
		if group.CrawlDelay > 0 {
			b.WriteString("Crawl-delay: ")
			b.WriteString(strconv.FormatFloat(group.CrawlDelay.Seconds(), 'f', -1, 64))
			b.WriteString("\n")
		}
	}
	for _, sm := range r.Sitemaps {
		b.WriteString("Sitemap: ")
		b.WriteString(sm)
		b.WriteString("\n")
	}
	return b.String()
}
