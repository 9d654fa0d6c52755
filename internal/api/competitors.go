package api

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"monitor-precos/internal/models"
	"monitor-precos/internal/monitor"
)

type createCompetitorRequest struct {
	Name                 string `json:"name" binding:"required"`
	WebsiteURL           string `json:"website_url" binding:"required,url"`
	ScrapeFrequencyHours int    `json:"scrape_frequency_hours"`
}

// POST /api/competitors
func (s *Server) createCompetitor(c *gin.Context) {
	var req createCompetitorRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "nome e website_url são obrigatórios")
		return
	}

	id, err := s.db.AddCompetitor(c.Request.Context(), models.Competitor{
		Name:                 req.Name,
		WebsiteURL:           req.WebsiteURL,
		ScrapeFrequencyHours: req.ScrapeFrequencyHours,
	})
	if err != nil {
		fail(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"id": id, "message": "concorrente cadastrado"})
}

// GET /api/competitors
func (s *Server) listCompetitors(c *gin.Context) {
	stats, err := s.db.ListCompetitorStats(c.Request.Context(), s.now().Add(-7*24*time.Hour))
	if err != nil {
		fail(c, err)
		return
	}
	if stats == nil {
		stats = []models.CompetitorStats{}
	}
	c.JSON(http.StatusOK, stats)
}

type addLinkRequest struct {
	CompetitorID int64  `json:"competitor_id" binding:"required"`
	URL          string `json:"competitor_url" binding:"required,url"`
	SKU          string `json:"competitor_sku"`
	ProductName  string `json:"product_name"`
}

// POST /api/products/:id/competitors registra o link e faz o primeiro scraping na hora
func (s *Server) addProductCompetitor(c *gin.Context) {
	productID, ok := paramID(c)
	if !ok {
		return
	}
	var req addLinkRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "competitor_id e competitor_url são obrigatórios")
		return
	}

	ctx := c.Request.Context()
	if _, err := s.db.GetProductByID(ctx, productID); err != nil {
		fail(c, err)
		return
	}
	if _, err := s.db.GetCompetitorByID(ctx, req.CompetitorID); err != nil {
		fail(c, err)
		return
	}

	linkID, err := s.db.AddLink(ctx, models.CompetitorProductLink{
		ProductID:    productID,
		CompetitorID: req.CompetitorID,
		SKU:          req.SKU,
		URL:          req.URL,
		ProductName:  req.ProductName,
	})
	if err != nil {
		fail(c, err)
		return
	}

	scraped, err := s.scraper.ScrapeLink(ctx, linkID)
	if err != nil {
		s.log.Warn("erro no scraping inicial", zap.Int64("link_id", linkID), zap.Error(err))
	}

	c.JSON(http.StatusCreated, gin.H{
		"id":      linkID,
		"scraped": scraped,
		"message": "concorrente associado ao produto",
	})
}

// GET /api/products/:id/competitors
func (s *Server) productCompetitors(c *gin.Context) {
	productID, ok := paramID(c)
	if !ok {
		return
	}
	cmp, err := monitor.Compare(c.Request.Context(), s.db, productID)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, cmp)
}

// POST /api/scrape/competitor/:id
func (s *Server) scrapeLink(c *gin.Context) {
	linkID, ok := paramID(c)
	if !ok {
		return
	}
	ok, err := s.scraper.ScrapeLink(c.Request.Context(), linkID)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": ok})
}
