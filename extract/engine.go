package extract

import (
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/webreap/crawlkit/postprocess"
)

// ExtractData routes content to the HTML, JSON or text extractor based on
// a case-insensitive substring match on contentType, and runs every rule
// against it, per spec.md §4.3.
func ExtractData(content, contentType string, rules []Rule, baseURL string, logger *zerolog.Logger) map[string]Value {
	if logger == nil {
		l := log.Logger
		logger = &l
	}
	ct := strings.ToLower(contentType)
	switch {
	case strings.Contains(ct, "html"):
		return extractHTML(content, rules, baseURL, logger)
	case strings.Contains(ct, "json"):
		return extractJSON(content, rules, logger)
	default:
		return extractText(content, rules, logger)
	}
}

// emptyValueFor returns the canonical "no match" value for a rule, per
// spec.md §4.2/§4.3: Text("") normally, List([]) when Multiple.
func emptyValueFor(rule Rule) Value {
	if rule.Multiple {
		return List(nil)
	}
	return Text("")
}

func runProcessors(value string, rule Rule, logger *zerolog.Logger) string {
	return postprocess.Chain(value, rule.Processors, logger)
}

// extractText only fires RegexSelector rules, per spec.md §4.3's "non-html,
// non-json content is treated as text; only RegexSelector rules fire."
func extractText(content string, rules []Rule, logger *zerolog.Logger) map[string]Value {
	out := map[string]Value{}
	for _, rule := range rules {
		if rule.Selector.Kind != RegexSelector {
			continue
		}
		v, matched := regexExtract(content, rule, logger)
		if matched {
			out[rule.Name] = v
		} else if rule.Required {
			out[rule.Name] = emptyValueFor(rule)
		}
	}
	return out
}

func regexExtract(content string, rule Rule, logger *zerolog.Logger) (Value, bool) {
	matches := findRegexMatches(content, rule.Selector, rule.Multiple, logger)
	if len(matches) == 0 {
		return Value{}, false
	}
	processed := make([]string, 0, len(matches))
	for _, m := range matches {
		processed = append(processed, runProcessors(m, rule, logger))
	}
	if rule.Multiple {
		vals := make([]Value, 0, len(processed))
		for _, p := range processed {
			vals = append(vals, Text(p))
		}
		return List(vals), true
	}
	return Text(processed[0]), true
}

// goqueryDocFromHTML parses content into a goquery.Document rooted at
// baseURL, used for CSS/XPath selectors and for the link/image/meta
// extraction helpers below.
func goqueryDocFromHTML(content string) (*goquery.Document, error) {
	return goquery.NewDocumentFromReader(strings.NewReader(content))
}
