package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"monitor-precos/internal/models"
)

// SetAlert cria ou atualiza o alerta do usuário para o produto.
// Redefinir o alerta o rearma (triggered volta a false).
func (db *DB) SetAlert(ctx context.Context, userID, productID int64, alertPrice float64) (int64, error) {
	tx, err := db.conn.BeginTx(ctx, nil)
	if err != nil {
		return 0, err
	}
	defer tx.Rollback()

	var id int64
	err = tx.QueryRowContext(ctx,
		"SELECT id FROM price_alerts WHERE user_id = ? AND product_id = ?", userID, productID,
	).Scan(&id)
	switch {
	case err == nil:
		if _, err := tx.ExecContext(ctx,
			"UPDATE price_alerts SET alert_price = ?, triggered = ? WHERE id = ?", alertPrice, false, id); err != nil {
			return 0, fmt.Errorf("erro ao atualizar alerta: %w", err)
		}
	case errors.Is(err, sql.ErrNoRows):
		res, err := tx.ExecContext(ctx,
			"INSERT INTO price_alerts (user_id, product_id, alert_price, triggered) VALUES (?, ?, ?, ?)",
			userID, productID, alertPrice, false)
		if err != nil {
			return 0, fmt.Errorf("erro ao inserir alerta: %w", err)
		}
		if id, err = res.LastInsertId(); err != nil {
			return 0, err
		}
	default:
		return 0, err
	}

	return id, tx.Commit()
}

const alertSelect = `
	SELECT pa.id, pa.user_id, pa.product_id, pa.alert_price, pa.triggered, p.name, COALESCE(u.email, '')
	FROM price_alerts pa
	JOIN products p ON p.id = pa.product_id
	LEFT JOIN users u ON u.id = pa.user_id`

// UserAlerts retorna todos os alertas de um usuário
func (db *DB) UserAlerts(ctx context.Context, userID int64) ([]models.PriceAlert, error) {
	return db.queryAlerts(ctx, alertSelect+" WHERE pa.user_id = ? ORDER BY pa.id", userID)
}

// PendingAlerts retorna os alertas ainda não disparados. userID <= 0 lista todos.
func (db *DB) PendingAlerts(ctx context.Context, userID int64) ([]models.PriceAlert, error) {
	if userID > 0 {
		return db.queryAlerts(ctx, alertSelect+" WHERE pa.triggered = 0 AND pa.user_id = ? ORDER BY pa.id", userID)
	}
	return db.queryAlerts(ctx, alertSelect+" WHERE pa.triggered = 0 ORDER BY pa.id")
}

func (db *DB) queryAlerts(ctx context.Context, query string, args ...any) ([]models.PriceAlert, error) {
	rows, err := db.conn.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []models.PriceAlert
	for rows.Next() {
		var a models.PriceAlert
		if err := rows.Scan(&a.ID, &a.UserID, &a.ProductID, &a.AlertPrice, &a.Triggered, &a.ProductName, &a.UserEmail); err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

// MarkAlertTriggered marca o alerta como disparado somente se ele ainda não estava.
// Retorna false quando outra execução já havia marcado.
func (db *DB) MarkAlertTriggered(ctx context.Context, alertID int64) (bool, error) {
	res, err := db.conn.ExecContext(ctx,
		"UPDATE price_alerts SET triggered = ? WHERE id = ? AND triggered = 0", true, alertID)
	if err != nil {
		return false, fmt.Errorf("erro ao marcar alerta: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n == 1, nil
}
