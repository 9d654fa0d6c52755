package scraper

import (
	"regexp"
	"strings"
)

var (
	reOffersPrice = regexp.MustCompile(`"offers"[^}]*"price"\s*:\s*"?([0-9.]+)"?`)
	reListPrice   = regexp.MustCompile(`"(listPrice|highPrice|originalPrice)"\s*:\s*"?([0-9.]+)"?`)
)

// NewMercadoLivreAdapter cria o adapter do Mercado Livre.
// Preços usam vírgula decimal; o JSON-LD usa ponto decimal e passa direto.
func NewMercadoLivreAdapter() Adapter {
	return &siteAdapter{
		name: "mercadolivre",
		// Primeiro o preço promocional, depois o preço normal, depois meta tags e JSON-LD
		price: []strategy{
			text(".ui-pdp-price__second-line .andes-money-amount__fraction"),
			text(".ui-pdp-price--size-large .andes-money-amount__fraction"),
			text("[data-testid='price'] .andes-money-amount__fraction"),
			text(".ui-pdp-price__first-line .andes-money-amount__fraction"),
			text(".price-tag-fraction"),
			attr("meta[property='product:price:amount']", "content"),
			scriptMatch("script[type='application/ld+json']", reOffersPrice, 1),
		},
		oldPrice: []strategy{
			text(".andes-money-amount--previous-price .andes-money-amount__fraction"),
			text(".ui-pdp-price__original .andes-money-amount__fraction"),
			scriptMatch("script[type='application/ld+json']", reListPrice, 2),
		},
		title: []strategy{
			text("h1.ui-pdp-title"),
			text("h1[data-testid='title']"),
			text("h1"),
		},
		preClean: mercadoLivrePrice,
		productLink: func(href, _ string) bool {
			return strings.Contains(href, "/MLB-") || strings.Contains(href, "/p/MLB")
		},
	}
}

// mercadoLivrePrice só troca a vírgula decimal quando ela existe; valores do
// JSON-LD ("1299.90") já vêm com ponto decimal.
func mercadoLivrePrice(raw string) string {
	if strings.Contains(raw, ",") || strings.Count(raw, ".") > 1 || looksLikeThousands(raw) {
		return commaDecimal(raw)
	}
	return raw
}

// looksLikeThousands reconhece "1.299" (ponto seguido de exatamente três dígitos)
func looksLikeThousands(raw string) bool {
	i := strings.LastIndex(raw, ".")
	if i < 0 {
		return false
	}
	tail := strings.TrimSpace(raw[i+1:])
	if len(tail) != 3 {
		return false
	}
	for _, r := range tail {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}
