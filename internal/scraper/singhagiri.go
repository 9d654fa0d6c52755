package scraper

// NewSinghagiriAdapter cria o adapter do singhagiri.lk.
// Os preços usam ponto como separador de milhar e não têm centavos.
func NewSinghagiriAdapter() Adapter {
	return &siteAdapter{
		name:        "singhagiri",
		price:       []strategy{text("div.selling-price span.data"), text("div.selling-price")},
		oldPrice:    []strategy{text("div.strikeout")},
		title:       []strategy{text("h1.product-title"), text("h1")},
		preClean:    stripPeriodThousands,
		productLink: containsPath("/product/"),
		insecureTLS: true,
	}
}
