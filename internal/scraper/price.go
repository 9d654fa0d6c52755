package scraper

import (
	"regexp"
	"strconv"
	"strings"
)

var (
	nonPriceChars = regexp.MustCompile(`[^0-9.]`)
	// ponto de abreviação de moeda ("Rs.", "Rp.")
	abbrevDot = regexp.MustCompile(`(\p{L})\.`)
)

// NormalizePrice converte o texto de preço em número.
// Remove símbolos de moeda, separadores de milhar e espaços; texto vazio ou
// impossível de interpretar vira 0, nunca erro, para não abortar a extração
// dos demais campos.
func NormalizePrice(raw string) float64 {
	cleaned := abbrevDot.ReplaceAllString(raw, "$1")
	cleaned = strings.ReplaceAll(cleaned, ",", "")
	cleaned = nonPriceChars.ReplaceAllString(cleaned, "")
	// ponto à esquerda é decimal (".75"); à direita sobra de "45990."
	cleaned = strings.TrimRight(cleaned, ".")
	if cleaned == "" {
		return 0
	}

	price, err := strconv.ParseFloat(cleaned, 64)
	if err != nil || price < 0 {
		return 0
	}
	return price
}

// stripPeriodThousands trata sites que usam ponto como separador de milhar e não
// mostram centavos ("Rs. 45.990").
func stripPeriodThousands(raw string) string {
	return strings.NewReplacer(".", "", ",", "").Replace(raw)
}

// commaDecimal trata sites com vírgula decimal e ponto de milhar ("R$ 1.299,90").
func commaDecimal(raw string) string {
	raw = strings.ReplaceAll(raw, ".", "")
	return strings.ReplaceAll(raw, ",", ".")
}
