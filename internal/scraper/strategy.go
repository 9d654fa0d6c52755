package scraper

import (
	"regexp"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"monitor-precos/internal/models"
)

// strategy extrai um texto bruto do documento; string vazia significa que não achou
type strategy func(doc *goquery.Document) string

// text pega o texto do primeiro elemento que casa com o seletor
func text(selector string) strategy {
	return func(doc *goquery.Document) string {
		return strings.TrimSpace(doc.Find(selector).First().Text())
	}
}

// ownText pega apenas os nós de texto diretos do elemento, ignorando filhos
// (preços antigos costumam vir aninhados no mesmo bloco).
func ownText(selector string) strategy {
	return func(doc *goquery.Document) string {
		var b strings.Builder
		doc.Find(selector).First().Contents().Each(func(_ int, s *goquery.Selection) {
			if goquery.NodeName(s) == "#text" {
				b.WriteString(s.Text())
			}
		})
		return strings.TrimSpace(b.String())
	}
}

// attr pega um atributo do primeiro elemento que casa com o seletor
func attr(selector, name string) strategy {
	return func(doc *goquery.Document) string {
		v, _ := doc.Find(selector).First().Attr(name)
		return strings.TrimSpace(v)
	}
}

// scriptMatch procura um grupo de regex dentro dos scripts que casam com o seletor
func scriptMatch(selector string, re *regexp.Regexp, group int) strategy {
	return func(doc *goquery.Document) string {
		var found string
		doc.Find(selector).EachWithBreak(func(_ int, s *goquery.Selection) bool {
			if m := re.FindStringSubmatch(s.Text()); len(m) > group {
				found = m[group]
				return false
			}
			return true
		})
		return found
	}
}

// firstMatch tenta as estratégias em ordem e para na primeira que encontrar algo.
// A primeira que casa vence, mesmo que uma posterior tivesse um valor "melhor".
func firstMatch(doc *goquery.Document, chain []strategy) string {
	for _, s := range chain {
		if v := s(doc); v != "" {
			return v
		}
	}
	return ""
}

// siteAdapter é a base dos adapters de sites conhecidos: cadeias de estratégias por campo
type siteAdapter struct {
	name     string
	price    []strategy
	oldPrice []strategy
	title    []strategy
	// preClean ajusta particularidades de localidade antes de NormalizePrice
	preClean    func(string) string
	productLink func(href, category string) bool
	insecureTLS bool
	now         func() time.Time
}

func (a *siteAdapter) Name() string { return a.name }

func (a *siteAdapter) InsecureTLS() bool { return a.insecureTLS }

func (a *siteAdapter) IsProductLink(href, category string) bool {
	if a.productLink == nil {
		return false
	}
	return a.productLink(href, category)
}

func (a *siteAdapter) normalize(raw string) float64 {
	if raw == "" {
		return 0
	}
	if a.preClean != nil {
		raw = a.preClean(raw)
	}
	return NormalizePrice(raw)
}

func (a *siteAdapter) ExtractPrice(doc *goquery.Document) *models.PriceResult {
	price := a.normalize(firstMatch(doc, a.price))
	if price <= 0 {
		return nil
	}

	now := time.Now
	if a.now != nil {
		now = a.now
	}
	result := &models.PriceResult{
		Price:        price,
		Availability: models.DefaultAvailability,
		Title:        firstMatch(doc, a.title),
		ScrapedAt:    now().UTC(),
	}
	if old := a.normalize(firstMatch(doc, a.oldPrice)); old > 0 {
		result.OldPrice = &old
	}
	return result
}

// containsPath devolve um filtro de links por fragmento literal de caminho
func containsPath(fragment string) func(string, string) bool {
	return func(href, _ string) bool {
		return strings.Contains(href, fragment)
	}
}

// categoryPath filtra links cujo caminho contém /<categoria>/
func categoryPath(href, category string) bool {
	if category == "" {
		return false
	}
	return strings.Contains(href, "/"+strings.ToLower(category)+"/")
}
