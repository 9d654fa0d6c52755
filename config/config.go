package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// ScrapeTarget é um par (site, categoria) varrido pelo monitor
type ScrapeTarget struct {
	Site     string
	Category string
	URL      string
	Pages    int
}

// Config contém as configurações da aplicação
type Config struct {
	DBDriver string
	DBDSN    string

	TelegramBotToken string
	TelegramChatID   int64

	CheckIntervalMinutes int
	CheckInterval        time.Duration
	FetchTimeout         time.Duration
	FetchRetryMax        int
	ScrapePages          int
	Targets              []ScrapeTarget

	HTTPAddr string
	LogLevel string
}

// Load carrega as configurações das variáveis de ambiente (e do .env, se existir)
func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{
		DBDriver:             getenv("DB_DRIVER", "sqlite3"),
		DBDSN:                getenv("DB_DSN", "./prices.db"),
		TelegramBotToken:     strings.TrimSpace(os.Getenv("TELEGRAM_BOT_TOKEN")),
		CheckIntervalMinutes: getenvInt("CHECK_INTERVAL_MINUTES", 30),
		FetchTimeout:         time.Duration(getenvInt("FETCH_TIMEOUT_SECONDS", 30)) * time.Second,
		FetchRetryMax:        getenvCount("FETCH_RETRY_MAX", 2),
		ScrapePages:          getenvInt("SCRAPE_PAGES", 1),
		HTTPAddr:             getenv("HTTP_ADDR", ":8080"),
		LogLevel:             getenv("LOG_LEVEL", "info"),
	}

	// Chat ID é opcional (sem ele o bot não envia notificações)
	if chatIDStr := os.Getenv("TELEGRAM_CHAT_ID"); chatIDStr != "" {
		if chatID, err := strconv.ParseInt(chatIDStr, 10, 64); err == nil {
			cfg.TelegramChatID = chatID
		}
	}

	cfg.CheckInterval = time.Duration(cfg.CheckIntervalMinutes) * time.Minute
	cfg.Targets = DefaultTargets(cfg.ScrapePages)

	return cfg, nil
}

// DefaultTargets retorna as categorias varridas em cada site conhecido
func DefaultTargets(pages int) []ScrapeTarget {
	if pages <= 0 {
		pages = 1
	}
	sites := []struct {
		site string
		urls map[string]string
	}{
		{"bigdeals", map[string]string{
			"tv":            "https://bigdeals.lk/tv",
			"laptops":       "https://bigdeals.lk/laptops",
			"mobile_phones": "https://bigdeals.lk/mobile_phones",
		}},
		{"singer", map[string]string{
			"tv":            "https://www.singersl.com/products/entertainment/television",
			"laptops":       "https://www.singersl.com/products/electronics/laptops-notebooks",
			"mobile_phones": "https://www.singersl.com/products/electronics/mobile-phones",
		}},
		{"singhagiri", map[string]string{
			"tv":            "https://singhagiri.lk/products/television",
			"laptops":       "https://singhagiri.lk/products/computers-accessories/laptop",
			"mobile_phones": "https://singhagiri.lk/products/mobile-phones",
		}},
	}

	var targets []ScrapeTarget
	for _, s := range sites {
		for _, category := range []string{"tv", "laptops", "mobile_phones"} {
			targets = append(targets, ScrapeTarget{
				Site:     s.site,
				Category: category,
				URL:      s.urls[category],
				Pages:    pages,
			})
		}
	}
	return targets
}

func getenv(key, fallback string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return fallback
}

func getenvInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if parsed, err := strconv.Atoi(v); err == nil && parsed > 0 {
			return parsed
		}
	}
	return fallback
}

// getenvCount é como getenvInt, mas aceita zero (desliga o recurso)
func getenvCount(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if parsed, err := strconv.Atoi(v); err == nil && parsed >= 0 {
			return parsed
		}
	}
	return fallback
}
