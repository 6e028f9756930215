package extract

import "github.com/webreap/crawlkit/postprocess"

// SelectorKind discriminates the variant held by a Selector.
type SelectorKind string

const (
	CssSelector   SelectorKind = "CSS"
	XPathSelector SelectorKind = "XPATH"
	RegexSelector SelectorKind = "REGEX"
	JsonPathSelector SelectorKind = "JSON_PATH"
)

// Selector is the closed tagged union of spec.md §3: CssSelector,
// XPathSelector, RegexSelector{pattern,group} or JsonPathSelector.
type Selector struct {
	Kind SelectorKind

	// Query holds the CSS query, the XPath expression, the regex pattern
	// or the dotted JSON path, depending on Kind.
	Query string

	// Group selects a regex capture group (RegexSelector only); 0 or an
	// out-of-range value falls back to the whole match.
	Group int

	// Attr overrides the HTML attribute ATTRIBUTE/LINK/IMAGE_SRC pull from,
	// resolving spec.md §9's first Open Question. Empty defaults to "href"
	// for ATTRIBUTE/LINK and "src" for IMAGE_SRC.
	Attr string
}

// Type is the ExtractionType enum of spec.md §3.
type Type string

const (
	TypeText      Type = "TEXT"
	TypeHTML      Type = "HTML"
	TypeAttribute Type = "ATTRIBUTE"
	TypeLink      Type = "LINK"
	TypeImageSrc  Type = "IMAGE_SRC"
	TypeJSON      Type = "JSON"
)

// Rule is one named extraction rule: a selector, an extraction type, an
// ordered post-processor chain, and the required/multiple flags.
type Rule struct {
	Name       string
	Selector   Selector
	Type       Type
	Processors []postprocess.PostProcessor
	Required   bool
	Multiple   bool
}
