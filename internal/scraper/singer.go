package scraper

// NewSingerAdapter cria o adapter do singersl.com
func NewSingerAdapter() Adapter {
	return &siteAdapter{
		name: "singer",
		price: []strategy{
			ownText("h4.fw-bold.mb-0.sing-pro-price"),
			ownText("h4.text-primary.fw-bold.mb-0.productprice"),
			text(".price"),
		},
		oldPrice:    []strategy{text("span.text-decoration-line-through")},
		title:       []strategy{text("h5.single-page-product-title"), text("h1")},
		productLink: containsPath("/product/"),
	}
}
