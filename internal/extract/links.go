// Package extract pulls product links out of search result HTML.
package extract

import (
	"fmt"
	"io"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// DefaultMarker is the path fragment shared by product detail pages.
const DefaultMarker = "/dp/"

// ProductLinks returns, in document order, every anchor href in body that
// contains marker. Hrefs not starting with "http" are resolved against base.
// Duplicates are kept.
func ProductLinks(base *url.URL, body io.Reader, marker string) ([]string, error) {
	if base == nil {
		return nil, fmt.Errorf("extract: nil base url")
	}
	if marker == "" {
		marker = DefaultMarker
	}

	doc, err := goquery.NewDocumentFromReader(body)
	if err != nil {
		return nil, fmt.Errorf("extract: parse html: %w", err)
	}

	var links []string
	doc.Find("a[href]").Each(func(_ int, s *goquery.Selection) {
		href, ok := s.Attr("href")
		if !ok || !strings.Contains(href, marker) {
			return
		}
		links = append(links, Absolute(base, href))
	})

	return links, nil
}

// Absolute rewrites a relative href to an absolute URL on base's scheme and
// host. Hrefs that already start with "http" are returned unchanged.
func Absolute(base *url.URL, href string) string {
	if strings.HasPrefix(href, "http") {
		return href
	}

	ref, err := url.Parse(href)
	if err != nil {
		// keep the link rather than drop it
		return base.Scheme + "://" + base.Host + href
	}
	origin := &url.URL{Scheme: base.Scheme, Host: base.Host, Path: "/"}
	return origin.ResolveReference(ref).String()
}
