package extract

import (
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/webreap/crawlkit/urlutil"
)

// assetDenylist holds substrings that disqualify an otherwise-valid link
// from being treated as a page to crawl, per spec.md §4.3.
var assetDenylist = []string{
	".js", ".css",
	".png", ".jpg", ".jpeg", ".gif", ".svg", ".webp", ".ico", ".bmp",
	".woff", ".woff2", ".ttf", ".eot", ".otf",
	".pdf", ".zip", ".gz", ".tar", ".rar",
	".mp4", ".mp3", ".avi", ".mov", ".wav", ".webm",
	"/static/", "/assets/", "/images/", "/_static/",
	"javascript:", "mailto:", "#",
}

func isDenylisted(lowerURL string) bool {
	for _, substr := range assetDenylist {
		if strings.Contains(lowerURL, substr) {
			return true
		}
	}
	return false
}

// ExtractLinks returns every absolute, http(s), non-asset link reachable
// from an `a[href]` in content, resolved against baseURL. Order of first
// appearance is preserved; duplicates are dropped.
func ExtractLinks(content, baseURL string) []string {
	doc, err := goqueryDocFromHTML(content)
	if err != nil {
		return nil
	}
	seen := map[string]bool{}
	var links []string
	doc.Find("a[href]").Each(func(_ int, el *goquery.Selection) {
		href, _ := el.Attr("href")
		abs, ok := urlutil.Resolve(baseURL, href)
		if !ok {
			return
		}
		if !qualifiesAsLink(abs) {
			return
		}
		if !seen[abs] {
			seen[abs] = true
			links = append(links, abs)
		}
	})
	return links
}

func qualifiesAsLink(absURL string) bool {
	if !urlutil.IsValidHTTP(absURL) {
		return false
	}
	return !isDenylisted(strings.ToLower(absURL))
}

// Image is one `<img>` record discovered on a page.
type Image struct {
	URL    string
	Alt    string
	Width  string
	Height string
}

// ExtractImages returns every absolute http(s) image URL from `img[src]`
// (including the first candidate of each `srcset` entry) in content,
// resolved against baseURL.
func ExtractImages(content, baseURL string) []Image {
	doc, err := goqueryDocFromHTML(content)
	if err != nil {
		return nil
	}
	seen := map[string]bool{}
	var images []Image
	add := func(rawURL, alt, width, height string) {
		abs, ok := urlutil.Resolve(baseURL, rawURL)
		if !ok || !urlutil.IsValidHTTP(abs) || seen[abs] {
			return
		}
		seen[abs] = true
		images = append(images, Image{URL: abs, Alt: alt, Width: width, Height: height})
	}

	doc.Find("img[src]").Each(func(_ int, el *goquery.Selection) {
		src, _ := el.Attr("src")
		alt, _ := el.Attr("alt")
		width, _ := el.Attr("width")
		height, _ := el.Attr("height")
		add(src, alt, width, height)
	})

	doc.Find("img[srcset]").Each(func(_ int, el *goquery.Selection) {
		srcset, _ := el.Attr("srcset")
		alt, _ := el.Attr("alt")
		for _, entry := range strings.Split(srcset, ",") {
			fields := strings.Fields(strings.TrimSpace(entry))
			if len(fields) == 0 {
				continue
			}
			add(fields[0], alt, "", "")
		}
	})

	return images
}

// ExtractMetadata pulls `<title>`, every named `<meta>` tag, `<meta
// charset>` and `<html lang>` out of content, per spec.md §4.3.
func ExtractMetadata(content string) map[string]string {
	doc, err := goqueryDocFromHTML(content)
	if err != nil {
		return nil
	}
	meta := map[string]string{}

	if title := strings.TrimSpace(doc.Find("title").First().Text()); title != "" {
		meta["title"] = title
	}

	doc.Find("meta").Each(func(_ int, el *goquery.Selection) {
		name, _ := el.Attr("name")
		if name == "" {
			name, _ = el.Attr("property")
		}
		content, _ := el.Attr("content")
		if strings.TrimSpace(name) != "" && strings.TrimSpace(content) != "" {
			meta[name] = content
		}
		if charset, ok := el.Attr("charset"); ok && strings.TrimSpace(charset) != "" {
			meta["charset"] = charset
		}
	})

	if lang, ok := doc.Find("html").First().Attr("lang"); ok && strings.TrimSpace(lang) != "" {
		meta["language"] = lang
	}

	return meta
}
