package scraper

// NewBigDealsAdapter cria o adapter do bigdeals.lk.
// O site tem certificado mal configurado, por isso a tolerância de TLS.
func NewBigDealsAdapter() Adapter {
	return &siteAdapter{
		name:        "bigdeals",
		price:       []strategy{text("span.sell-price"), text(".product-price .sell-price")},
		oldPrice:    []strategy{text("span.m-price")},
		title:       []strategy{text("h1.product-name"), text("h1")},
		productLink: categoryPath,
		insecureTLS: true,
	}
}
