package models

import "time"

// Status de um concorrente
const (
	CompetitorActive   = "active"
	CompetitorInactive = "inactive"
)

// Availability padrão registrada quando o site não informa estoque
const DefaultAvailability = "In Stock"

// Competitor representa uma loja concorrente monitorada
type Competitor struct {
	ID                   int64      `json:"id"`
	Name                 string     `json:"name"`
	WebsiteURL           string     `json:"website_url"`
	Status               string     `json:"status"`
	ScrapeFrequencyHours int        `json:"scrape_frequency_hours"`
	LastScrapedAt        *time.Time `json:"last_scraped"`
	CreatedAt            time.Time  `json:"created_at"`
}

// CompetitorProductLink liga um produto do catálogo ao anúncio equivalente no concorrente
type CompetitorProductLink struct {
	ID           int64  `json:"id"`
	ProductID    int64  `json:"product_id"`
	CompetitorID int64  `json:"competitor_id"`
	SKU          string `json:"competitor_sku"`
	URL          string `json:"competitor_url"`
	ProductName  string `json:"product_name"`
	Active       bool   `json:"is_active"`

	// Preenchidos pelas consultas com JOIN
	CompetitorName string `json:"competitor_name,omitempty"`
}

// PriceHistoryRecord é uma observação de preço imutável
type PriceHistoryRecord struct {
	ID           int64     `json:"id"`
	LinkID       int64     `json:"competitor_product_id"`
	Price        float64   `json:"price"`
	OldPrice     *float64  `json:"old_price"`
	Availability string    `json:"availability"`
	ScrapedAt    time.Time `json:"scraped_at"`
}

// PriceResult é o resultado normalizado da extração de uma página de produto
type PriceResult struct {
	Price        float64
	OldPrice     *float64 // nil quando o site não mostra preço anterior
	Availability string
	Title        string
	ScrapedAt    time.Time
}
