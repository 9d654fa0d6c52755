package models

import "time"

// CompetitorStats agrega os números exibidos na listagem de concorrentes
type CompetitorStats struct {
	Competitor
	TrackedProducts    int        `json:"tracked_products"`
	AvgCompetitorPrice float64    `json:"avg_competitor_price"`
	LastPriceUpdate    *time.Time `json:"last_price_update"`
}

// CompetitorPrice é o último preço conhecido de um concorrente para um produto
type CompetitorPrice struct {
	CompetitorID    int64      `json:"competitor_id"`
	CompetitorName  string     `json:"competitor_name"`
	WebsiteURL      string     `json:"website_url"`
	LinkID          int64      `json:"competitor_product_id"`
	SKU             string     `json:"competitor_sku"`
	URL             string     `json:"competitor_url"`
	ProductName     string     `json:"product_name"`
	CurrentPrice    *float64   `json:"current_price"`
	OldPrice        *float64   `json:"old_price"`
	Availability    string     `json:"availability"`
	LastUpdated     *time.Time `json:"last_updated"`
	PriceDifference *float64   `json:"price_difference"`
	DifferencePct   *float64   `json:"price_difference_percentage"`
}

// MarketAnalysis resume os preços de mercado de um produto
type MarketAnalysis struct {
	TotalCompetitors int      `json:"total_competitors"`
	CheaperOptions   int      `json:"cheaper_options"`
	MoreExpensive    int      `json:"more_expensive"`
	Lowest           *float64 `json:"lowest_competitor_price"`
	Highest          *float64 `json:"highest_competitor_price"`
	Average          *float64 `json:"average_competitor_price"`
}

// PriceComparison compara o produto próprio com os concorrentes
type PriceComparison struct {
	Product     Product           `json:"our_product"`
	Competitors []CompetitorPrice `json:"competitors"`
	Market      MarketAnalysis    `json:"market_analysis"`
}
