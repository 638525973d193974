package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"arvcalc/config"
)

// ListMarkets returns all configured markets
func (h *Handler) ListMarkets(c *gin.Context) {
	c.JSON(http.StatusOK, h.markets.Markets())
}

// GetMarket returns a specific market
func (h *Handler) GetMarket(c *gin.Context) {
	market := h.markets.MarketByName(c.Param("name"))
	if market == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Market not found"})
		return
	}
	c.JSON(http.StatusOK, market)
}

// UpdateMarket creates or replaces a market
func (h *Handler) UpdateMarket(c *gin.Context) {
	name := c.Param("name")
	var market config.Market
	if err := c.ShouldBindJSON(&market); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	// Ensure the name in the URL matches the name in the body
	if market.Name == "" {
		market.Name = name
	}
	if market.Name != name {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Name in URL does not match name in body"})
		return
	}

	if err := h.markets.UpdateMarket(market); err != nil {
		h.writeError(c, err, "Failed to update market")
		return
	}

	h.logger.WithField("market", market.Name).Info("Market updated")
	c.JSON(http.StatusOK, market)
}

// DeleteMarket deletes a market
func (h *Handler) DeleteMarket(c *gin.Context) {
	if err := h.markets.DeleteMarket(c.Param("name")); err != nil {
		h.writeError(c, err, "Failed to delete market")
		return
	}

	c.Status(http.StatusNoContent)
}
