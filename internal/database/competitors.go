package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"monitor-precos/internal/models"
)

// ErrDuplicateLink indica que o concorrente já é monitorado para o produto
var ErrDuplicateLink = errors.New("concorrente já monitorado para este produto")

// AddCompetitor cadastra um concorrente ativo
func (db *DB) AddCompetitor(ctx context.Context, c models.Competitor) (int64, error) {
	if c.ScrapeFrequencyHours <= 0 {
		c.ScrapeFrequencyHours = 24
	}
	if c.Status == "" {
		c.Status = models.CompetitorActive
	}
	res, err := db.conn.ExecContext(ctx,
		"INSERT INTO competitors (name, website_url, status, scrape_frequency_hours) VALUES (?, ?, ?, ?)",
		c.Name, c.WebsiteURL, c.Status, c.ScrapeFrequencyHours,
	)
	if err != nil {
		return 0, fmt.Errorf("erro ao inserir concorrente: %w", err)
	}
	return res.LastInsertId()
}

// GetCompetitorByID retorna um concorrente pelo ID
func (db *DB) GetCompetitorByID(ctx context.Context, id int64) (*models.Competitor, error) {
	var c models.Competitor
	var lastScraped, createdAt any
	err := db.conn.QueryRowContext(ctx,
		"SELECT id, name, website_url, status, scrape_frequency_hours, last_scraped_at, created_at FROM competitors WHERE id = ?",
		id,
	).Scan(&c.ID, &c.Name, &c.WebsiteURL, &c.Status, &c.ScrapeFrequencyHours, &lastScraped, &createdAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	c.LastScrapedAt = scanTime(lastScraped)
	if t := scanTime(createdAt); t != nil {
		c.CreatedAt = *t
	}
	return &c, nil
}

// TouchCompetitor atualiza last_scraped_at. Concorrência aqui é last-writer-wins.
func (db *DB) TouchCompetitor(ctx context.Context, competitorID int64, at time.Time) error {
	_, err := db.conn.ExecContext(ctx, "UPDATE competitors SET last_scraped_at = ? WHERE id = ?", at.UTC(), competitorID)
	if err != nil {
		return fmt.Errorf("erro ao atualizar last_scraped_at: %w", err)
	}
	return nil
}

// ListCompetitorStats lista os concorrentes ativos com quantidade de produtos
// monitorados, média de preço e última atualização desde since.
func (db *DB) ListCompetitorStats(ctx context.Context, since time.Time) ([]models.CompetitorStats, error) {
	rows, err := db.conn.QueryContext(ctx, `
		SELECT c.id, c.name, c.website_url, c.status, c.scrape_frequency_hours, c.last_scraped_at, c.created_at,
		       COUNT(DISTINCT cp.id), AVG(h.price), MAX(h.scraped_at)
		FROM competitors c
		LEFT JOIN competitor_products cp ON cp.competitor_id = c.id AND cp.is_active = 1
		LEFT JOIN competitor_price_history h ON h.competitor_product_id = cp.id AND h.scraped_at >= ?
		WHERE c.status = ?
		GROUP BY c.id, c.name, c.website_url, c.status, c.scrape_frequency_hours, c.last_scraped_at, c.created_at
		ORDER BY c.name`, since.UTC(), models.CompetitorActive)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []models.CompetitorStats
	for rows.Next() {
		var s models.CompetitorStats
		var lastScraped, createdAt, avg, lastUpdate any
		if err := rows.Scan(&s.ID, &s.Name, &s.WebsiteURL, &s.Status, &s.ScrapeFrequencyHours,
			&lastScraped, &createdAt, &s.TrackedProducts, &avg, &lastUpdate); err != nil {
			return nil, err
		}
		s.LastScrapedAt = scanTime(lastScraped)
		if t := scanTime(createdAt); t != nil {
			s.CreatedAt = *t
		}
		s.AvgCompetitorPrice = scanFloat(avg)
		s.LastPriceUpdate = scanTime(lastUpdate)
		out = append(out, s)
	}
	return out, rows.Err()
}

// AddLink registra o monitoramento de um produto em um concorrente
func (db *DB) AddLink(ctx context.Context, l models.CompetitorProductLink) (int64, error) {
	var existing int64
	err := db.conn.QueryRowContext(ctx,
		"SELECT id FROM competitor_products WHERE product_id = ? AND competitor_id = ?",
		l.ProductID, l.CompetitorID,
	).Scan(&existing)
	if err == nil {
		return 0, ErrDuplicateLink
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return 0, err
	}

	res, err := db.conn.ExecContext(ctx,
		"INSERT INTO competitor_products (product_id, competitor_id, competitor_sku, competitor_url, product_name, is_active) VALUES (?, ?, ?, ?, ?, ?)",
		l.ProductID, l.CompetitorID, l.SKU, l.URL, l.ProductName, true,
	)
	if err != nil {
		return 0, fmt.Errorf("erro ao inserir link de concorrente: %w", err)
	}
	return res.LastInsertId()
}

const linkSelect = `
	SELECT cp.id, cp.product_id, cp.competitor_id, cp.competitor_sku, cp.competitor_url, cp.product_name, cp.is_active, c.name
	FROM competitor_products cp
	JOIN competitors c ON c.id = cp.competitor_id`

func scanLink(row rowScanner) (*models.CompetitorProductLink, error) {
	var l models.CompetitorProductLink
	var sku, name sql.NullString
	if err := row.Scan(&l.ID, &l.ProductID, &l.CompetitorID, &sku, &l.URL, &name, &l.Active, &l.CompetitorName); err != nil {
		return nil, err
	}
	l.SKU = sku.String
	l.ProductName = name.String
	return &l, nil
}

// GetActiveLink retorna um link ativo de um concorrente ativo
func (db *DB) GetActiveLink(ctx context.Context, id int64) (*models.CompetitorProductLink, error) {
	row := db.conn.QueryRowContext(ctx, linkSelect+" WHERE cp.id = ? AND cp.is_active = 1", id)
	l, err := scanLink(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	return l, err
}

// GetActiveLinkByURL procura o link ativo cujo anúncio está em url
func (db *DB) GetActiveLinkByURL(ctx context.Context, url string) (*models.CompetitorProductLink, error) {
	row := db.conn.QueryRowContext(ctx,
		linkSelect+" WHERE cp.competitor_url = ? AND cp.is_active = 1 AND c.status = ? ORDER BY cp.id LIMIT 1",
		url, models.CompetitorActive)
	l, err := scanLink(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	return l, err
}

// ListActiveLinks retorna os links ativos de concorrentes ativos
func (db *DB) ListActiveLinks(ctx context.Context) ([]models.CompetitorProductLink, error) {
	rows, err := db.conn.QueryContext(ctx,
		linkSelect+" WHERE cp.is_active = 1 AND c.status = ? ORDER BY cp.id", models.CompetitorActive)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var links []models.CompetitorProductLink
	for rows.Next() {
		l, err := scanLink(rows)
		if err != nil {
			return nil, err
		}
		links = append(links, *l)
	}
	return links, rows.Err()
}

// DeactivateLink desativa um link (soft delete)
func (db *DB) DeactivateLink(ctx context.Context, id int64) error {
	_, err := db.conn.ExecContext(ctx, "UPDATE competitor_products SET is_active = 0 WHERE id = ?", id)
	return err
}

// FillLinkProductName grava o título extraído quando o link ainda não tem nome
func (db *DB) FillLinkProductName(ctx context.Context, id int64, name string) error {
	_, err := db.conn.ExecContext(ctx,
		"UPDATE competitor_products SET product_name = ? WHERE id = ? AND (product_name IS NULL OR product_name = '')",
		name, id)
	return err
}

// ProductCompetitorPrices retorna, para cada link ativo do produto, o último preço registrado
func (db *DB) ProductCompetitorPrices(ctx context.Context, productID int64) ([]models.CompetitorPrice, error) {
	rows, err := db.conn.QueryContext(ctx, `
		SELECT c.id, c.name, c.website_url, cp.id, cp.competitor_sku, cp.competitor_url, cp.product_name,
		       h.price, h.old_price, h.availability, h.scraped_at
		FROM competitor_products cp
		JOIN competitors c ON c.id = cp.competitor_id
		LEFT JOIN competitor_price_history h ON h.id = (
			SELECT h2.id FROM competitor_price_history h2
			WHERE h2.competitor_product_id = cp.id
			ORDER BY h2.scraped_at DESC, h2.id DESC
			LIMIT 1
		)
		WHERE cp.product_id = ? AND cp.is_active = 1
		ORDER BY c.name`, productID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []models.CompetitorPrice
	for rows.Next() {
		var cp models.CompetitorPrice
		var sku, name, availability sql.NullString
		var price, oldPrice sql.NullFloat64
		var scrapedAt any
		if err := rows.Scan(&cp.CompetitorID, &cp.CompetitorName, &cp.WebsiteURL, &cp.LinkID, &sku, &cp.URL, &name,
			&price, &oldPrice, &availability, &scrapedAt); err != nil {
			return nil, err
		}
		cp.SKU = sku.String
		cp.ProductName = name.String
		cp.CurrentPrice = floatPtr(price)
		cp.OldPrice = floatPtr(oldPrice)
		cp.Availability = availability.String
		cp.LastUpdated = scanTime(scrapedAt)
		out = append(out, cp)
	}
	return out, rows.Err()
}
