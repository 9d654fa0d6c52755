package similar

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"monitor-precos/internal/models"
)

// Faixa de preço do primeiro nível e limites de resultado
const (
	BandLow      = 0.5
	BandHigh     = 2.0
	DefaultLimit = 8
	SizeLimit    = 8
)

// Store é a parte do banco usada na busca de similares
type Store interface {
	GetProductByID(ctx context.Context, id int64) (*models.Product, error)
	SimilarInPriceBand(ctx context.Context, ref models.Product, low, high float64, limit int) ([]models.Product, error)
	SimilarExpansion(ctx context.Context, ref models.Product, exclude []int64, limit int) ([]models.Product, error)
	SimilarByNamePatterns(ctx context.Context, ref models.Product, category string, patterns []string, limit int) ([]models.Product, error)
}

// Matcher ordena produtos parecidos com um produto de referência
type Matcher struct {
	store Store
	log   *zap.Logger
}

// New cria o matcher
func New(store Store, log *zap.Logger) *Matcher {
	if log == nil {
		log = zap.NewNop()
	}
	return &Matcher{store: store, log: log}
}

// FindSimilar busca primeiro outras marcas da mesma categoria dentro da faixa
// [0.5P, 2P] e, se faltar resultado, completa com outras marcas sem faixa de preço.
func (m *Matcher) FindSimilar(ctx context.Context, refID int64, limit int) (*models.Product, []models.Product, error) {
	if limit <= 0 {
		limit = DefaultLimit
	}
	ref, err := m.store.GetProductByID(ctx, refID)
	if err != nil {
		return nil, nil, err
	}

	products, err := m.store.SimilarInPriceBand(ctx, *ref, ref.CurrentPrice*BandLow, ref.CurrentPrice*BandHigh, limit)
	if err != nil {
		return nil, nil, fmt.Errorf("erro na busca por faixa de preço: %w", err)
	}

	if len(products) < limit {
		exclude := make([]int64, 0, len(products))
		for _, p := range products {
			exclude = append(exclude, p.ID)
		}
		more, err := m.store.SimilarExpansion(ctx, *ref, exclude, limit-len(products))
		if err != nil {
			return nil, nil, fmt.Errorf("erro na busca expandida: %w", err)
		}
		products = append(products, more...)
	}

	m.log.Debug("similares encontrados", zap.Int64("product_id", refID), zap.Int("count", len(products)))
	return ref, products, nil
}

// FindSimilarBySize busca produtos da categoria com o mesmo tamanho no nome
// (40" / 40 inch / 40-inch ...). Sem tamanho, ordena a categoria inteira.
func (m *Matcher) FindSimilarBySize(ctx context.Context, excludeID int64, size, category string) ([]models.Product, error) {
	ref, err := m.store.GetProductByID(ctx, excludeID)
	if err != nil {
		return nil, err
	}
	if category == "" {
		category = ref.Category
	}

	products, err := m.store.SimilarByNamePatterns(ctx, *ref, category, SizePatterns(size), SizeLimit)
	if err != nil {
		return nil, fmt.Errorf("erro na busca por tamanho: %w", err)
	}
	return products, nil
}

// SizePatterns gera as variações LIKE de um tamanho de tela
func SizePatterns(size string) []string {
	size = strings.TrimSpace(size)
	if size == "" {
		return nil
	}
	// curingas do LIKE vindos do usuário não devem ampliar a busca
	size = strings.NewReplacer("%", "", "_", "").Replace(size)
	return []string{
		size + `" %`,
		"%" + size + " inch%",
		"%" + size + `"%`,
		"%" + size + "-inch%",
		"%" + size + "inch%",
		"%" + size + " in%",
	}
}
