package postprocess

import (
	"net/url"
	"regexp"
	"strings"
)

// cleanURL strips every query parameter from value except the ones listed
// (comma-separated) under the "keep" config key.
func cleanURL(value string, config map[string]string) string {
	u, err := url.Parse(value)
	if err != nil {
		return value
	}
	keep := map[string]bool{}
	for _, k := range strings.Split(config["keep"], ",") {
		if k = strings.TrimSpace(k); k != "" {
			keep[k] = true
		}
	}
	if len(keep) == 0 {
		u.RawQuery = ""
		return u.String()
	}
	q := u.Query()
	for key := range q {
		if !keep[key] {
			q.Del(key)
		}
	}
	u.RawQuery = q.Encode()
	return u.String()
}

var (
	whitespaceRe = regexp.MustCompile(`\s+`)
	smartQuotes  = map[string]string{
		"‘": "'", "’": "'",
		"“": "\"", "”": "\"",
		"…": "...",
	}
)

// normalizeText collapses runs of whitespace to a single space and
// replaces smart quotes/ellipsis with their plain-ASCII equivalents.
func normalizeText(value string, _ map[string]string) string {
	out := value
	for from, to := range smartQuotes {
		out = strings.ReplaceAll(out, from, to)
	}
	out = whitespaceRe.ReplaceAllString(out, " ")
	return strings.TrimSpace(out)
}

var defaultNumberRe = regexp.MustCompile(`\d+(\.\d+)?`)

// extractNumber returns the first match of config["pattern"] (default
// `\d+(\.\d+)?`), or value unchanged if nothing matches.
func extractNumber(value string, config map[string]string) string {
	re := defaultNumberRe
	if pattern, ok := config["pattern"]; ok && pattern != "" {
		compiled, err := regexp.Compile(pattern)
		if err == nil {
			re = compiled
		}
	}
	if m := re.FindString(value); m != "" {
		return m
	}
	return value
}

var tagRe = regexp.MustCompile(`<[^>]*>`)

// stripHTML removes every "<...>" tag from value.
func stripHTML(value string, _ map[string]string) string {
	return tagRe.ReplaceAllString(value, "")
}

// normalizeWhitespace collapses whitespace without touching punctuation,
// distinct from normalizeText in that it does not rewrite smart quotes.
func normalizeWhitespace(value string, _ map[string]string) string {
	return strings.TrimSpace(whitespaceRe.ReplaceAllString(value, " "))
}
