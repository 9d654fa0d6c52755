package models

// PriceAlert é o limite de preço definido por um usuário para um produto.
// Triggered só passa a true uma vez; para rearmar o usuário define um novo alerta.
type PriceAlert struct {
	ID         int64   `json:"id"`
	UserID     int64   `json:"user_id"`
	ProductID  int64   `json:"product_id"`
	AlertPrice float64 `json:"alert_price"`
	Triggered  bool    `json:"triggered"`

	ProductName string `json:"product_name,omitempty"`
	UserEmail   string `json:"-"`
}

// TriggeredAlert é o evento emitido quando o preço atual cruza o limite
type TriggeredAlert struct {
	AlertID      int64   `json:"alert_id"`
	UserID       int64   `json:"user_id"`
	ProductID    int64   `json:"product_id"`
	ProductName  string  `json:"product_name"`
	AlertPrice   float64 `json:"alert_price"`
	CurrentPrice float64 `json:"current_price"`
}
