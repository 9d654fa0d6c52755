package database

import (
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	_ "github.com/go-sql-driver/mysql"
	_ "github.com/mattn/go-sqlite3"
	"go.uber.org/zap"
)

// Drivers suportados
const (
	DriverSQLite = "sqlite3"
	DriverMySQL  = "mysql"
)

// ErrNotFound indica que a linha procurada não existe
var ErrNotFound = errors.New("registro não encontrado")

// DB encapsula a conexão com o banco de dados
type DB struct {
	conn   *sql.DB
	driver string
	log    *zap.Logger
}

// New abre o banco, ajusta o pool e cria as tabelas necessárias.
// Para MySQL o DSN precisa de parseTime=true.
func New(driver, dsn string, log *zap.Logger) (*DB, error) {
	if driver == "" {
		driver = DriverSQLite
	}
	if driver != DriverSQLite && driver != DriverMySQL {
		return nil, fmt.Errorf("driver de banco não suportado: %s", driver)
	}
	if log == nil {
		log = zap.NewNop()
	}

	conn, err := sql.Open(driver, dsn)
	if err != nil {
		return nil, err
	}

	if driver == DriverSQLite && isMemoryDSN(dsn) {
		// cada conexão de um banco em memória enxerga um banco diferente
		conn.SetMaxOpenConns(1)
	} else if driver == DriverMySQL {
		conn.SetMaxOpenConns(25)
		conn.SetMaxIdleConns(25)
		conn.SetConnMaxLifetime(5 * time.Minute)
	}

	if err := conn.Ping(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("erro ao conectar no banco: %w", err)
	}

	db := &DB{conn: conn, driver: driver, log: log}
	if err := db.init(); err != nil {
		conn.Close()
		return nil, err
	}

	log.Info("banco de dados inicializado", zap.String("driver", driver))
	return db, nil
}

// Close fecha a conexão com o banco de dados
func (db *DB) Close() error {
	return db.conn.Close()
}

func isMemoryDSN(dsn string) bool {
	return dsn == ":memory:" || strings.Contains(dsn, "mode=memory")
}

// init cria as tabelas necessárias
func (db *DB) init() error {
	statements := sqliteSchema
	if db.driver == DriverMySQL {
		statements = mysqlSchema
	}
	for _, stmt := range statements {
		if _, err := db.conn.Exec(stmt); err != nil {
			return fmt.Errorf("erro ao criar schema: %w", err)
		}
	}
	return nil
}

var sqliteSchema = []string{
	`CREATE TABLE IF NOT EXISTS users (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		username VARCHAR(100) NOT NULL,
		email VARCHAR(255) NOT NULL,
		created_at DATETIME DEFAULT CURRENT_TIMESTAMP
	)`,
	`CREATE TABLE IF NOT EXISTS products (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		name VARCHAR(512) NOT NULL,
		price REAL,
		old_price REAL,
		availability VARCHAR(64),
		images VARCHAR(1024),
		brand VARCHAR(255),
		source_url VARCHAR(1024),
		category VARCHAR(128),
		created_at DATETIME DEFAULT CURRENT_TIMESTAMP
	)`,
	`CREATE INDEX IF NOT EXISTS idx_products_category ON products(category)`,
	`CREATE TABLE IF NOT EXISTS competitors (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		name VARCHAR(255) NOT NULL,
		website_url VARCHAR(1024) NOT NULL,
		status VARCHAR(16) NOT NULL DEFAULT 'active',
		scrape_frequency_hours INTEGER NOT NULL DEFAULT 24,
		last_scraped_at DATETIME,
		created_at DATETIME DEFAULT CURRENT_TIMESTAMP
	)`,
	`CREATE TABLE IF NOT EXISTS competitor_products (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		product_id BIGINT NOT NULL REFERENCES products(id),
		competitor_id BIGINT NOT NULL REFERENCES competitors(id),
		competitor_sku VARCHAR(255),
		competitor_url VARCHAR(1024) NOT NULL,
		product_name VARCHAR(512),
		is_active BOOLEAN NOT NULL DEFAULT 1,
		created_at DATETIME DEFAULT CURRENT_TIMESTAMP
	)`,
	`CREATE UNIQUE INDEX IF NOT EXISTS ux_competitor_products_pair ON competitor_products(product_id, competitor_id)`,
	`CREATE INDEX IF NOT EXISTS idx_competitor_products_url ON competitor_products(competitor_url)`,
	`CREATE TABLE IF NOT EXISTS competitor_price_history (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		competitor_product_id BIGINT NOT NULL REFERENCES competitor_products(id),
		price REAL NOT NULL,
		old_price REAL,
		availability VARCHAR(64),
		scraped_at DATETIME NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS idx_price_history_link ON competitor_price_history(competitor_product_id, scraped_at)`,
	`CREATE TABLE IF NOT EXISTS price_alerts (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		user_id BIGINT NOT NULL,
		product_id BIGINT NOT NULL REFERENCES products(id),
		alert_price REAL NOT NULL,
		triggered BOOLEAN NOT NULL DEFAULT 0
	)`,
	`CREATE UNIQUE INDEX IF NOT EXISTS ux_price_alerts_user_product ON price_alerts(user_id, product_id)`,
}

var mysqlSchema = []string{
	`CREATE TABLE IF NOT EXISTS users (
		id BIGINT AUTO_INCREMENT PRIMARY KEY,
		username VARCHAR(100) NOT NULL,
		email VARCHAR(255) NOT NULL,
		created_at DATETIME(6) DEFAULT CURRENT_TIMESTAMP(6)
	)`,
	`CREATE TABLE IF NOT EXISTS products (
		id BIGINT AUTO_INCREMENT PRIMARY KEY,
		name VARCHAR(512) NOT NULL,
		price DECIMAL(12,2),
		old_price DECIMAL(12,2),
		availability VARCHAR(64),
		images VARCHAR(1024),
		brand VARCHAR(255),
		source_url VARCHAR(1024),
		category VARCHAR(128),
		created_at DATETIME(6) DEFAULT CURRENT_TIMESTAMP(6),
		INDEX idx_products_category (category)
	)`,
	`CREATE TABLE IF NOT EXISTS competitors (
		id BIGINT AUTO_INCREMENT PRIMARY KEY,
		name VARCHAR(255) NOT NULL,
		website_url VARCHAR(1024) NOT NULL,
		status VARCHAR(16) NOT NULL DEFAULT 'active',
		scrape_frequency_hours INT NOT NULL DEFAULT 24,
		last_scraped_at DATETIME(6) NULL,
		created_at DATETIME(6) DEFAULT CURRENT_TIMESTAMP(6)
	)`,
	`CREATE TABLE IF NOT EXISTS competitor_products (
		id BIGINT AUTO_INCREMENT PRIMARY KEY,
		product_id BIGINT NOT NULL,
		competitor_id BIGINT NOT NULL,
		competitor_sku VARCHAR(255),
		competitor_url VARCHAR(1024) NOT NULL,
		product_name VARCHAR(512),
		is_active BOOLEAN NOT NULL DEFAULT TRUE,
		created_at DATETIME(6) DEFAULT CURRENT_TIMESTAMP(6),
		UNIQUE KEY ux_competitor_products_pair (product_id, competitor_id),
		INDEX idx_competitor_products_url (competitor_url(255)),
		FOREIGN KEY (product_id) REFERENCES products(id),
		FOREIGN KEY (competitor_id) REFERENCES competitors(id)
	)`,
	`CREATE TABLE IF NOT EXISTS competitor_price_history (
		id BIGINT AUTO_INCREMENT PRIMARY KEY,
		competitor_product_id BIGINT NOT NULL,
		price DECIMAL(12,2) NOT NULL,
		old_price DECIMAL(12,2) NULL,
		availability VARCHAR(64),
		scraped_at DATETIME(6) NOT NULL,
		INDEX idx_price_history_link (competitor_product_id, scraped_at),
		FOREIGN KEY (competitor_product_id) REFERENCES competitor_products(id)
	)`,
	`CREATE TABLE IF NOT EXISTS price_alerts (
		id BIGINT AUTO_INCREMENT PRIMARY KEY,
		user_id BIGINT NOT NULL,
		product_id BIGINT NOT NULL,
		alert_price DECIMAL(12,2) NOT NULL,
		triggered BOOLEAN NOT NULL DEFAULT FALSE,
		UNIQUE KEY ux_price_alerts_user_product (user_id, product_id),
		FOREIGN KEY (product_id) REFERENCES products(id)
	)`,
}

// nullableFloat converte um ponteiro opcional para parâmetro de query
func nullableFloat(v *float64) sql.NullFloat64 {
	if v == nil {
		return sql.NullFloat64{}
	}
	return sql.NullFloat64{Float64: *v, Valid: true}
}

func floatPtr(v sql.NullFloat64) *float64 {
	if !v.Valid {
		return nil
	}
	f := v.Float64
	return &f
}

var timeLayouts = []string{
	"2006-01-02 15:04:05.999999999-07:00",
	"2006-01-02T15:04:05.999999999-07:00",
	"2006-01-02 15:04:05.999999999",
	"2006-01-02T15:04:05.999999999",
	"2006-01-02 15:04:05",
	time.RFC3339Nano,
}

// scanTime interpreta colunas de data que o driver pode devolver como texto
// (agregações como MAX() no SQLite perdem o tipo declarado).
func scanTime(v any) *time.Time {
	switch t := v.(type) {
	case time.Time:
		return &t
	case []byte:
		return parseTime(string(t))
	case string:
		return parseTime(t)
	}
	return nil
}

func parseTime(s string) *time.Time {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	for _, layout := range timeLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return &t
		}
	}
	return nil
}

// scanFloat interpreta agregações numéricas (AVG) que podem vir como texto no MySQL
func scanFloat(v any) float64 {
	switch f := v.(type) {
	case float64:
		return f
	case int64:
		return float64(f)
	case []byte:
		var out float64
		fmt.Sscanf(string(f), "%g", &out)
		return out
	case string:
		var out float64
		fmt.Sscanf(f, "%g", &out)
		return out
	}
	return 0
}
