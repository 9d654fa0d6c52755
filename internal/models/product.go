package models

import "time"

// Product representa um produto do catálogo próprio
type Product struct {
	ID            int64     `json:"id"`
	Name          string    `json:"name"`
	CurrentPrice  float64   `json:"price"`
	PreviousPrice *float64  `json:"old_price"`
	Availability  string    `json:"availability"`
	Images        string    `json:"images"`
	Brand         string    `json:"company"`
	SourceURL     string    `json:"product_url"`
	Category      string    `json:"category"`
	CreatedAt     time.Time `json:"created_at"`
}

// User é o destinatário das notificações de alerta
type User struct {
	ID       int64  `json:"id"`
	Username string `json:"username"`
	Email    string `json:"email"`
}
