package scraper

import (
	"time"

	"github.com/PuerkitoBio/goquery"

	"monitor-precos/internal/models"
)

var genericPriceSelectors = []string{
	".price", ".product-price", ".current-price",
	`[class*="price"]`, "[data-price]",
	".cost", ".amount", ".value",
}

// GenericAdapter é usado para domínios sem adapter próprio
type GenericAdapter struct {
	now func() time.Time
}

// NewGenericAdapter cria o adapter genérico
func NewGenericAdapter() *GenericAdapter {
	return &GenericAdapter{now: time.Now}
}

func (g *GenericAdapter) Name() string { return "generic" }

func (g *GenericAdapter) InsecureTLS() bool { return false }

// IsProductLink: sem padrão conhecido não há como descobrir produtos numa listagem
func (g *GenericAdapter) IsProductLink(string, string) bool { return false }

// ExtractPrice devolve o primeiro valor maior que zero entre os seletores comuns
func (g *GenericAdapter) ExtractPrice(doc *goquery.Document) *models.PriceResult {
	for _, selector := range genericPriceSelectors {
		sel := doc.Find(selector).First()
		if sel.Length() == 0 {
			continue
		}
		raw := sel.Text()
		if v, ok := sel.Attr("data-price"); ok && NormalizePrice(raw) == 0 {
			raw = v
		}
		if price := NormalizePrice(raw); price > 0 {
			return &models.PriceResult{
				Price:        price,
				Availability: models.DefaultAvailability,
				ScrapedAt:    g.now().UTC(),
			}
		}
	}
	return nil
}
