package api

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"monitor-precos/internal/models"
	"monitor-precos/internal/similar"
)

type createProductRequest struct {
	Name         string   `json:"name" binding:"required"`
	Price        float64  `json:"price" binding:"gte=0"`
	OldPrice     *float64 `json:"old_price"`
	Availability string   `json:"availability"`
	Images       string   `json:"images"`
	Company      string   `json:"company"`
	ProductURL   string   `json:"product_url"`
	Category     string   `json:"category" binding:"required"`
}

// POST /products
func (s *Server) createProduct(c *gin.Context) {
	var req createProductRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "nome e categoria são obrigatórios")
		return
	}
	if req.Availability == "" {
		req.Availability = models.DefaultAvailability
	}

	id, err := s.db.AddProduct(c.Request.Context(), models.Product{
		Name:          req.Name,
		CurrentPrice:  req.Price,
		PreviousPrice: req.OldPrice,
		Availability:  req.Availability,
		Images:        req.Images,
		Brand:         req.Company,
		SourceURL:     req.ProductURL,
		Category:      req.Category,
	})
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"id": id})
}

// GET /products?category=
func (s *Server) listProducts(c *gin.Context) {
	products, err := s.db.ListProducts(c.Request.Context(), c.Query("category"))
	if err != nil {
		fail(c, err)
		return
	}
	if products == nil {
		products = []models.Product{}
	}
	c.JSON(http.StatusOK, products)
}

// GET /products/:id
func (s *Server) getProduct(c *gin.Context) {
	id, ok := paramID(c)
	if !ok {
		return
	}
	p, err := s.db.GetProductByID(c.Request.Context(), id)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, p)
}

// GET /products/:id/price-history
func (s *Server) priceHistory(c *gin.Context) {
	id, ok := paramID(c)
	if !ok {
		return
	}
	ctx := c.Request.Context()
	if _, err := s.db.GetProductByID(ctx, id); err != nil {
		fail(c, err)
		return
	}
	history, err := s.db.ProductHistory(ctx, id)
	if err != nil {
		fail(c, err)
		return
	}
	if history == nil {
		history = []models.PriceHistoryRecord{}
	}
	c.JSON(http.StatusOK, history)
}

// GET /products/similar?productId=&limit=
func (s *Server) similarProducts(c *gin.Context) {
	id, ok := queryID(c, "productId")
	if !ok {
		return
	}
	limit := similar.DefaultLimit
	if v := c.Query("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			badRequest(c, "limit inválido")
			return
		}
		limit = n
	}

	ref, products, err := s.similar.FindSimilar(c.Request.Context(), id, limit)
	if err != nil {
		fail(c, err)
		return
	}
	if products == nil {
		products = []models.Product{}
	}
	c.JSON(http.StatusOK, gin.H{
		"products": products,
		"count":    len(products),
		"reference_product": gin.H{
			"id":       ref.ID,
			"price":    ref.CurrentPrice,
			"category": ref.Category,
			"company":  ref.Brand,
		},
	})
}

// GET /products/similar-tvs?excludeId=&size=&category=
func (s *Server) similarBySize(c *gin.Context) {
	id, ok := queryID(c, "excludeId")
	if !ok {
		return
	}
	size := c.Query("size")
	category := c.DefaultQuery("category", "TV")

	products, err := s.similar.FindSimilarBySize(c.Request.Context(), id, size, category)
	if err != nil {
		fail(c, err)
		return
	}
	if products == nil {
		products = []models.Product{}
	}
	c.JSON(http.StatusOK, gin.H{
		"products": products,
		"count":    len(products),
		"search_criteria": gin.H{
			"size":        size,
			"category":    category,
			"excluded_id": id,
		},
	})
}
