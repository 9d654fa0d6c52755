package monitor

import (
	"context"
	"math"

	"monitor-precos/internal/models"
)

// ComparisonStore é a parte do banco usada na comparação de preços
type ComparisonStore interface {
	GetProductByID(ctx context.Context, id int64) (*models.Product, error)
	ProductCompetitorPrices(ctx context.Context, productID int64) ([]models.CompetitorPrice, error)
}

// Compare monta a comparação do produto com o último preço de cada concorrente
func Compare(ctx context.Context, store ComparisonStore, productID int64) (*models.PriceComparison, error) {
	product, err := store.GetProductByID(ctx, productID)
	if err != nil {
		return nil, err
	}
	prices, err := store.ProductCompetitorPrices(ctx, productID)
	if err != nil {
		return nil, err
	}
	return BuildComparison(*product, prices), nil
}

// BuildComparison calcula diferenças por concorrente e o resumo de mercado
func BuildComparison(product models.Product, prices []models.CompetitorPrice) *models.PriceComparison {
	cmp := &models.PriceComparison{
		Product:     product,
		Competitors: make([]models.CompetitorPrice, 0, len(prices)),
	}

	var sum float64
	var count int
	for _, cp := range prices {
		if cp.CurrentPrice != nil && *cp.CurrentPrice > 0 {
			current := *cp.CurrentPrice
			diff := current - product.CurrentPrice
			cp.PriceDifference = &diff
			if product.CurrentPrice > 0 {
				pct := math.Round(diff/product.CurrentPrice*100*100) / 100
				cp.DifferencePct = &pct
			}

			switch {
			case current < product.CurrentPrice:
				cmp.Market.CheaperOptions++
			case current > product.CurrentPrice:
				cmp.Market.MoreExpensive++
			}
			if cmp.Market.Lowest == nil || current < *cmp.Market.Lowest {
				v := current
				cmp.Market.Lowest = &v
			}
			if cmp.Market.Highest == nil || current > *cmp.Market.Highest {
				v := current
				cmp.Market.Highest = &v
			}
			sum += current
			count++
		}
		cmp.Competitors = append(cmp.Competitors, cp)
	}

	cmp.Market.TotalCompetitors = len(prices)
	if count > 0 {
		avg := sum / float64(count)
		cmp.Market.Average = &avg
	}
	return cmp
}
