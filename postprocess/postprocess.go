// Package postprocess implements the post-processor chain that every
// extraction rule applies to the raw string it pulled off a page: an
// ordered list of small, declarative text transforms (trim, case folding,
// regex replace/extract, substring, or a named custom hook) folded
// left-to-right over the current value.
//
// PostProcessor is expressed as a single struct with a Kind discriminator
// rather than as a Go interface hierarchy, because it is meant to be the
// literal shape of caller-supplied, serializable crawl configuration (see
// SPEC_FULL.md's "Configuration surface" note) — a closed set of variants
// that happens to need a JSON/YAML-friendly representation more than it
// needs compile-time exhaustiveness checking.
package postprocess

import (
	"regexp"
	"strings"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// Kind identifies which transform a PostProcessor applies.
type Kind string

const (
	Trim      Kind = "TRIM"
	UpperCase Kind = "UPPER_CASE"
	LowerCase Kind = "LOWER_CASE"
	Replace   Kind = "REPLACE"
	Extract   Kind = "EXTRACT"
	Substring Kind = "SUBSTRING"
	Custom    Kind = "CUSTOM"
)

// PostProcessor is one step of a processor chain. Only the fields relevant
// to Kind are meaningful; the rest are zero.
type PostProcessor struct {
	Kind Kind

	// Replace, Extract
	Pattern     string
	Replacement string // Replace only
	Group       int    // Extract only

	// Substring
	Start int
	End   *int // nil means "to the end"

	// Custom
	CustomID string
	Config   map[string]string
}

// CustomFunc is the shape a custom post-processor registers under.
type CustomFunc func(value string, config map[string]string) string

var customRegistry = map[string]CustomFunc{
	"clean_url":            cleanURL,
	"normalize_text":       normalizeText,
	"extract_number":       extractNumber,
	"strip_html":           stripHTML,
	"normalize_whitespace": normalizeWhitespace,
}

// Register adds or replaces a custom post-processor implementation,
// looked up by PostProcessor.CustomID when Kind is Custom.
func Register(id string, fn CustomFunc) {
	customRegistry[id] = fn
}

// Chain folds processors left-to-right over value. A failure in one
// processor (a panic from a malformed regex, for instance) is recovered,
// logged, and the pre-processor value is kept — per spec.md §4.4/§7, a
// post-processor failure degrades to the previous value, it never aborts
// the chain.
func Chain(value string, processors []PostProcessor, logger *zerolog.Logger) string {
	if logger == nil {
		l := log.Logger
		logger = &l
	}
	current := value
	for _, p := range processors {
		current = applyOne(current, p, logger)
	}
	return current
}

func applyOne(value string, p PostProcessor, logger *zerolog.Logger) (result string) {
	defer func() {
		if r := recover(); r != nil {
			logger.Warn().Interface("panic", r).Str("kind", string(p.Kind)).Msg("post-processor panicked, keeping prior value")
			result = value
		}
	}()

	switch p.Kind {
	case Trim:
		return strings.TrimSpace(value)
	case UpperCase:
		return strings.ToUpper(value)
	case LowerCase:
		return strings.ToLower(value)
	case Replace:
		re, err := regexp.Compile(p.Pattern)
		if err != nil {
			logger.Warn().Err(err).Str("pattern", p.Pattern).Msg("invalid replace pattern, keeping prior value")
			return value
		}
		return re.ReplaceAllString(value, p.Replacement)
	case Extract:
		re, err := regexp.Compile(p.Pattern)
		if err != nil {
			logger.Warn().Err(err).Str("pattern", p.Pattern).Msg("invalid extract pattern, keeping prior value")
			return value
		}
		match := re.FindStringSubmatch(value)
		if match == nil {
			return value
		}
		if p.Group > 0 && p.Group < len(match) {
			return match[p.Group]
		}
		return match[0]
	case Substring:
		return substring(value, p.Start, p.End)
	case Custom:
		fn, ok := customRegistry[p.CustomID]
		if !ok {
			logger.Warn().Str("id", p.CustomID).Msg("unknown custom post-processor, keeping prior value")
			return value
		}
		return fn(value, p.Config)
	default:
		logger.Warn().Str("kind", string(p.Kind)).Msg("unknown post-processor kind, keeping prior value")
		return value
	}
}

// substring clamps start/end into [0, len(value)] per spec.md §4.4.
func substring(value string, start int, end *int) string {
	runes := []rune(value)
	n := len(runes)
	s := clamp(start, 0, n)
	e := n
	if end != nil {
		e = clamp(*end, 0, n)
	}
	if e < s {
		return ""
	}
	return string(runes[s:e])
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
