package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"monitor-precos/internal/models"
)

// InsertPriceHistory anexa uma observação de preço. O histórico nunca é alterado.
func (db *DB) InsertPriceHistory(ctx context.Context, r models.PriceHistoryRecord) (int64, error) {
	res, err := db.conn.ExecContext(ctx,
		"INSERT INTO competitor_price_history (competitor_product_id, price, old_price, availability, scraped_at) VALUES (?, ?, ?, ?, ?)",
		r.LinkID, r.Price, nullableFloat(r.OldPrice), r.Availability, r.ScrapedAt.UTC(),
	)
	if err != nil {
		return 0, fmt.Errorf("erro ao inserir histórico de preço: %w", err)
	}
	return res.LastInsertId()
}

const historyColumns = "id, competitor_product_id, price, old_price, availability, scraped_at"

func scanHistory(row rowScanner) (*models.PriceHistoryRecord, error) {
	var r models.PriceHistoryRecord
	var oldPrice sql.NullFloat64
	var availability sql.NullString
	var scrapedAt any
	if err := row.Scan(&r.ID, &r.LinkID, &r.Price, &oldPrice, &availability, &scrapedAt); err != nil {
		return nil, err
	}
	r.OldPrice = floatPtr(oldPrice)
	r.Availability = availability.String
	if t := scanTime(scrapedAt); t != nil {
		r.ScrapedAt = *t
	}
	return &r, nil
}

// LatestPrice retorna a observação mais recente de um link
func (db *DB) LatestPrice(ctx context.Context, linkID int64) (*models.PriceHistoryRecord, error) {
	row := db.conn.QueryRowContext(ctx,
		"SELECT "+historyColumns+" FROM competitor_price_history WHERE competitor_product_id = ? ORDER BY scraped_at DESC, id DESC LIMIT 1",
		linkID)
	r, err := scanHistory(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	return r, err
}

// LinkHistory retorna o histórico de um link, do mais recente para o mais antigo
func (db *DB) LinkHistory(ctx context.Context, linkID int64) ([]models.PriceHistoryRecord, error) {
	return db.queryHistory(ctx,
		"SELECT "+historyColumns+" FROM competitor_price_history WHERE competitor_product_id = ? ORDER BY scraped_at DESC, id DESC",
		linkID)
}

// ProductHistory retorna o histórico de todos os links de um produto
func (db *DB) ProductHistory(ctx context.Context, productID int64) ([]models.PriceHistoryRecord, error) {
	return db.queryHistory(ctx, `
		SELECT h.id, h.competitor_product_id, h.price, h.old_price, h.availability, h.scraped_at
		FROM competitor_price_history h
		JOIN competitor_products cp ON cp.id = h.competitor_product_id
		WHERE cp.product_id = ?
		ORDER BY h.scraped_at DESC, h.id DESC`, productID)
}

func (db *DB) queryHistory(ctx context.Context, query string, args ...any) ([]models.PriceHistoryRecord, error) {
	rows, err := db.conn.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []models.PriceHistoryRecord
	for rows.Next() {
		r, err := scanHistory(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *r)
	}
	return out, rows.Err()
}
