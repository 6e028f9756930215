package extract

import (
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/rs/zerolog"

	"github.com/webreap/crawlkit/urlutil"
)

// extractHTML parses content once and dispatches every rule against the
// resulting document, per spec.md §4.3's HTML path.
func extractHTML(content string, rules []Rule, baseURL string, logger *zerolog.Logger) map[string]Value {
	out := map[string]Value{}
	doc, err := goqueryDocFromHTML(content)
	if err != nil {
		logger.Warn().Err(err).Msg("failed to parse HTML document, all rules yield empty/skip")
		for _, rule := range rules {
			if rule.Required {
				out[rule.Name] = emptyValueFor(rule)
			}
		}
		return out
	}

	for _, rule := range rules {
		v, matched := dispatchHTMLRule(doc, content, rule, baseURL, logger)
		if matched {
			out[rule.Name] = v
		} else if rule.Required {
			out[rule.Name] = emptyValueFor(rule)
		}
	}
	return out
}

func dispatchHTMLRule(doc *goquery.Document, rawHTML string, rule Rule, baseURL string, logger *zerolog.Logger) (Value, bool) {
	switch rule.Selector.Kind {
	case CssSelector:
		return cssExtract(doc, rule, baseURL, logger)
	case XPathSelector:
		return xpathExtract(rawHTML, rule, baseURL, logger)
	case RegexSelector:
		return regexExtract(doc.Text(), rule, logger)
	default:
		logger.Warn().Str("kind", string(rule.Selector.Kind)).Msg("selector kind not supported on HTML content")
		return Value{}, false
	}
}

func cssExtract(doc *goquery.Document, rule Rule, baseURL string, logger *zerolog.Logger) (Value, bool) {
	sel := doc.Find(rule.Selector.Query)
	if sel.Length() == 0 {
		return Value{}, false
	}

	var values []string
	sel.Each(func(_ int, el *goquery.Selection) {
		s := stringFromCSSElement(el, rule, baseURL)
		if strings.TrimSpace(s) == "" {
			return
		}
		values = append(values, runProcessors(s, rule, logger))
	})
	if len(values) == 0 {
		return Value{}, false
	}
	if rule.Multiple {
		vals := make([]Value, 0, len(values))
		for _, v := range values {
			vals = append(vals, Text(v))
		}
		return List(vals), true
	}
	return Text(values[0]), true
}

func stringFromCSSElement(el *goquery.Selection, rule Rule, baseURL string) string {
	switch rule.Type {
	case TypeText:
		return strings.TrimSpace(el.Text())
	case TypeHTML:
		h, _ := el.Html()
		return h
	case TypeAttribute:
		attr := rule.Selector.Attr
		if attr == "" {
			attr = "href"
		}
		v, _ := el.Attr(attr)
		return v
	case TypeLink:
		href, ok := el.Attr(attrOrDefault(rule.Selector.Attr, "href"))
		if !ok {
			return ""
		}
		abs, ok := urlutil.Resolve(baseURL, href)
		if !ok {
			return ""
		}
		return abs
	case TypeImageSrc:
		src, ok := el.Attr(attrOrDefault(rule.Selector.Attr, "src"))
		if !ok {
			return ""
		}
		abs, ok := urlutil.Resolve(baseURL, src)
		if !ok {
			return ""
		}
		return abs
	default:
		return strings.TrimSpace(el.Text())
	}
}

func attrOrDefault(attr, def string) string {
	if attr == "" {
		return def
	}
	return attr
}
