package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"monitor-precos/internal/models"
)

const productColumns = "id, name, price, old_price, availability, images, brand, source_url, category, created_at"

// AddProduct insere um produto no catálogo e devolve o ID gerado
func (db *DB) AddProduct(ctx context.Context, p models.Product) (int64, error) {
	res, err := db.conn.ExecContext(ctx,
		"INSERT INTO products (name, price, old_price, availability, images, brand, source_url, category) VALUES (?, ?, ?, ?, ?, ?, ?, ?)",
		p.Name, p.CurrentPrice, nullableFloat(p.PreviousPrice), p.Availability, p.Images, p.Brand, p.SourceURL, p.Category,
	)
	if err != nil {
		return 0, fmt.Errorf("erro ao inserir produto: %w", err)
	}
	return res.LastInsertId()
}

// GetProductByID retorna um produto pelo ID
func (db *DB) GetProductByID(ctx context.Context, id int64) (*models.Product, error) {
	row := db.conn.QueryRowContext(ctx, "SELECT "+productColumns+" FROM products WHERE id = ?", id)
	p, err := scanProduct(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return p, nil
}

// ListProducts retorna os produtos do catálogo, opcionalmente filtrados por categoria
func (db *DB) ListProducts(ctx context.Context, category string) ([]models.Product, error) {
	query := "SELECT " + productColumns + " FROM products"
	var args []any
	if category != "" {
		query += " WHERE category = ?"
		args = append(args, category)
	}
	query += " ORDER BY created_at DESC, id DESC"

	rows, err := db.conn.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	return collectProducts(rows)
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanProduct(row rowScanner) (*models.Product, error) {
	var p models.Product
	var price, oldPrice sql.NullFloat64
	var availability, images, brand, sourceURL, category sql.NullString
	var createdAt any
	if err := row.Scan(&p.ID, &p.Name, &price, &oldPrice, &availability, &images, &brand, &sourceURL, &category, &createdAt); err != nil {
		return nil, err
	}
	p.CurrentPrice = price.Float64
	p.PreviousPrice = floatPtr(oldPrice)
	p.Availability = availability.String
	p.Images = images.String
	p.Brand = brand.String
	p.SourceURL = sourceURL.String
	p.Category = category.String
	if t := scanTime(createdAt); t != nil {
		p.CreatedAt = *t
	}
	return &p, nil
}

func collectProducts(rows *sql.Rows) ([]models.Product, error) {
	defer rows.Close()

	var products []models.Product
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, err
		}
		products = append(products, *p)
	}
	return products, rows.Err()
}

// AddUser cadastra um destinatário de alertas
func (db *DB) AddUser(ctx context.Context, username, email string) (int64, error) {
	res, err := db.conn.ExecContext(ctx, "INSERT INTO users (username, email) VALUES (?, ?)", username, email)
	if err != nil {
		return 0, fmt.Errorf("erro ao inserir usuário: %w", err)
	}
	return res.LastInsertId()
}

// CurrentProductPrice retorna o preço atual de um produto: a observação mais recente
// entre os links ativos dos concorrentes ou, sem histórico, o preço do catálogo.
func (db *DB) CurrentProductPrice(ctx context.Context, productID int64) (float64, error) {
	var price float64
	err := db.conn.QueryRowContext(ctx, `
		SELECT h.price
		FROM competitor_price_history h
		JOIN competitor_products cp ON cp.id = h.competitor_product_id
		WHERE cp.product_id = ? AND cp.is_active = 1
		ORDER BY h.scraped_at DESC, h.id DESC
		LIMIT 1`, productID).Scan(&price)
	if err == nil {
		return price, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return 0, fmt.Errorf("erro ao buscar preço observado: %w", err)
	}

	var catalog sql.NullFloat64
	err = db.conn.QueryRowContext(ctx, "SELECT price FROM products WHERE id = ?", productID).Scan(&catalog)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, ErrNotFound
	}
	if err != nil {
		return 0, fmt.Errorf("erro ao buscar preço do catálogo: %w", err)
	}
	return catalog.Float64, nil
}
