package scraper

import (
	"net/url"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// DiscoverLinks filtra as âncoras da listagem pelo padrão do site e resolve
// URLs relativas contra a origem do site. A ordem do documento é mantida e
// duplicatas são descartadas.
func DiscoverLinks(doc *goquery.Document, pageURL string, adapter Adapter, category string) []string {
	base, err := url.Parse(pageURL)
	if err != nil {
		return nil
	}
	origin := &url.URL{Scheme: base.Scheme, Host: base.Host, Path: "/"}

	seen := make(map[string]bool)
	var links []string
	doc.Find("a[href]").Each(func(_ int, s *goquery.Selection) {
		href := strings.TrimSpace(s.AttrOr("href", ""))
		if href == "" || !adapter.IsProductLink(href, category) {
			return
		}

		ref, err := url.Parse(href)
		if err != nil {
			return
		}
		full := origin.ResolveReference(ref)
		full.Fragment = ""
		if full.Scheme != "http" && full.Scheme != "https" {
			return
		}

		key := full.String()
		if seen[key] {
			return
		}
		seen[key] = true
		links = append(links, key)
	})
	return links
}

// PageURL monta a URL da página n da listagem (?page=n)
func PageURL(listingURL string, page int) string {
	u, err := url.Parse(listingURL)
	if err != nil {
		return listingURL
	}
	q := u.Query()
	q.Set("page", strconv.Itoa(page))
	u.RawQuery = q.Encode()
	return u.String()
}
