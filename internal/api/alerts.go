package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"monitor-precos/internal/models"
)

type setAlertRequest struct {
	UserID     int64   `json:"user_id" binding:"required"`
	ProductID  int64   `json:"product_id" binding:"required"`
	AlertPrice float64 `json:"alert_price" binding:"required,gt=0"`
}

// POST /price-alert cria ou redefine o alerta do usuário para o produto
func (s *Server) setAlert(c *gin.Context) {
	var req setAlertRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "user_id, product_id e alert_price são obrigatórios")
		return
	}

	ctx := c.Request.Context()
	if _, err := s.db.GetProductByID(ctx, req.ProductID); err != nil {
		fail(c, err)
		return
	}
	id, err := s.db.SetAlert(ctx, req.UserID, req.ProductID, req.AlertPrice)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"id": id, "message": "alerta de preço definido"})
}

// GET /price-alerts?userId=
func (s *Server) userAlerts(c *gin.Context) {
	userID, ok := queryID(c, "userId")
	if !ok {
		return
	}
	alerts, err := s.db.UserAlerts(c.Request.Context(), userID)
	if err != nil {
		fail(c, err)
		return
	}
	if alerts == nil {
		alerts = []models.PriceAlert{}
	}
	c.JSON(http.StatusOK, alerts)
}

// POST /check-price-alerts?userId=
func (s *Server) checkAlerts(c *gin.Context) {
	userID, ok := queryID(c, "userId")
	if !ok {
		return
	}
	triggered, err := s.alerts.Evaluate(c.Request.Context(), userID)
	if err != nil && len(triggered) == 0 {
		fail(c, err)
		return
	}
	if triggered == nil {
		triggered = []models.TriggeredAlert{}
	}
	c.JSON(http.StatusOK, gin.H{"triggered": triggered, "count": len(triggered)})
}
