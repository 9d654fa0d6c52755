package api

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"monitor-precos/internal/database"
	"monitor-precos/internal/models"
	"monitor-precos/internal/similar"
)

var requestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
	Name:    "price_monitor_http_request_duration_seconds",
	Help:    "Duração das requisições HTTP.",
	Buckets: prometheus.DefBuckets,
}, []string{"method", "route", "status"})

// LinkScraper faz o scraping imediato de um link monitorado
type LinkScraper interface {
	ScrapeLink(ctx context.Context, linkID int64) (bool, error)
}

// AlertChecker avalia os alertas pendentes de um usuário
type AlertChecker interface {
	Evaluate(ctx context.Context, userID int64) ([]models.TriggeredAlert, error)
}

// Server expõe o monitor de preços por HTTP
type Server struct {
	db      *database.DB
	scraper LinkScraper
	alerts  AlertChecker
	similar *similar.Matcher
	log     *zap.Logger
	now     func() time.Time
}

// New cria o servidor HTTP
func New(db *database.DB, scraper LinkScraper, alerts AlertChecker, matcher *similar.Matcher, log *zap.Logger) *Server {
	if log == nil {
		log = zap.NewNop()
	}
	return &Server{
		db:      db,
		scraper: scraper,
		alerts:  alerts,
		similar: matcher,
		log:     log,
		now:     time.Now,
	}
}

// Router monta o engine do gin com todas as rotas
func (s *Server) Router() *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(s.requestLogger())

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	api := r.Group("/api")
	{
		api.POST("/competitors", s.createCompetitor)
		api.GET("/competitors", s.listCompetitors)
		api.POST("/products/:id/competitors", s.addProductCompetitor)
		api.GET("/products/:id/competitors", s.productCompetitors)
		api.POST("/scrape/competitor/:id", s.scrapeLink)
	}

	r.POST("/products", s.createProduct)
	r.GET("/products", s.listProducts)
	r.GET("/products/similar", s.similarProducts)
	r.GET("/products/similar-tvs", s.similarBySize)
	r.GET("/products/:id", s.getProduct)
	r.GET("/products/:id/price-history", s.priceHistory)

	r.POST("/price-alert", s.setAlert)
	r.GET("/price-alerts", s.userAlerts)
	r.POST("/check-price-alerts", s.checkAlerts)

	return r
}

func (s *Server) requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		status := c.Writer.Status()
		elapsed := time.Since(start)
		requestDuration.WithLabelValues(c.Request.Method, route, strconv.Itoa(status)).Observe(elapsed.Seconds())

		fields := []zap.Field{
			zap.String("method", c.Request.Method),
			zap.String("path", c.Request.URL.Path),
			zap.Int("status", status),
			zap.Duration("elapsed", elapsed),
		}
		if len(c.Errors) > 0 {
			fields = append(fields, zap.String("errors", c.Errors.String()))
		}
		if status >= http.StatusInternalServerError {
			s.log.Error("requisição http", fields...)
			return
		}
		s.log.Debug("requisição http", fields...)
	}
}

// fail traduz erros do banco para status HTTP
func fail(c *gin.Context, err error) {
	_ = c.Error(err)
	switch {
	case errors.Is(err, database.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	case errors.Is(err, database.ErrDuplicateLink):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": "erro interno"})
	}
}

func badRequest(c *gin.Context, msg string) {
	c.JSON(http.StatusBadRequest, gin.H{"error": msg})
}

func paramID(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		badRequest(c, "id inválido")
		return 0, false
	}
	return id, true
}

func queryID(c *gin.Context, key string) (int64, bool) {
	id, err := strconv.ParseInt(c.Query(key), 10, 64)
	if err != nil || id <= 0 {
		badRequest(c, key+" obrigatório")
		return 0, false
	}
	return id, true
}
