package database

import (
	"context"
	"strings"

	"monitor-precos/internal/models"
)

// orderByBrandThenDistance ordena marcas diferentes antes da mesma marca e depois
// pela distância absoluta de preço. Parâmetros: marca de referência, preço de referência.
const orderByBrandThenDistance = `
	ORDER BY CASE WHEN brand <> ? THEN 0 ELSE 1 END, ABS(price - ?) ASC, id ASC`

// SimilarInPriceBand busca produtos da mesma categoria, de outra marca, com preço em [low, high]
func (db *DB) SimilarInPriceBand(ctx context.Context, ref models.Product, low, high float64, limit int) ([]models.Product, error) {
	rows, err := db.conn.QueryContext(ctx, "SELECT "+productColumns+`
		FROM products
		WHERE category = ?
		AND id <> ?
		AND brand <> ?
		AND price IS NOT NULL
		AND price > 0
		AND price BETWEEN ? AND ?`+orderByBrandThenDistance+`
		LIMIT ?`,
		ref.Category, ref.ID, ref.Brand, low, high, ref.Brand, ref.CurrentPrice, limit)
	if err != nil {
		return nil, err
	}
	return collectProducts(rows)
}

// SimilarExpansion busca produtos da mesma categoria e de outra marca, sem faixa de
// preço, ignorando os IDs já selecionados.
func (db *DB) SimilarExpansion(ctx context.Context, ref models.Product, exclude []int64, limit int) ([]models.Product, error) {
	ids := append([]int64{ref.ID}, exclude...)
	placeholders := strings.TrimSuffix(strings.Repeat("?,", len(ids)), ",")

	args := []any{ref.Category}
	for _, id := range ids {
		args = append(args, id)
	}
	args = append(args, ref.Brand, ref.Brand, ref.CurrentPrice, limit)

	rows, err := db.conn.QueryContext(ctx, "SELECT "+productColumns+`
		FROM products
		WHERE category = ?
		AND id NOT IN (`+placeholders+`)
		AND brand <> ?
		AND price IS NOT NULL
		AND price > 0`+orderByBrandThenDistance+`
		LIMIT ?`, args...)
	if err != nil {
		return nil, err
	}
	return collectProducts(rows)
}

// SimilarByNamePatterns busca produtos da categoria cujo nome casa com algum dos
// padrões LIKE, priorizando outras marcas e depois a proximidade de preço.
func (db *DB) SimilarByNamePatterns(ctx context.Context, ref models.Product, category string, patterns []string, limit int) ([]models.Product, error) {
	query := "SELECT " + productColumns + " FROM products WHERE category = ? AND id <> ?"
	args := []any{category, ref.ID}

	if len(patterns) > 0 {
		conds := make([]string, len(patterns))
		for i, p := range patterns {
			conds[i] = "name LIKE ?"
			args = append(args, p)
		}
		query += " AND (" + strings.Join(conds, " OR ") + ")"
	}
	query += orderByBrandThenDistance + " LIMIT ?"
	args = append(args, ref.Brand, ref.CurrentPrice, limit)

	rows, err := db.conn.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	return collectProducts(rows)
}
