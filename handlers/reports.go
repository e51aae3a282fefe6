package handlers

import (
	"net/http"

	"github.com/apex/log"
	"github.com/gin-gonic/gin"

	"github.com/ideuxs/toumai-admin/models"
)

// GetReports returns all user reports with their denormalized reporter and
// listing fields. Reports are read-only on this surface.
func (h *Handlers) GetReports(c *gin.Context) {
	reports, err := h.db.FetchReports(c.Request.Context())
	if err != nil {
		log.WithError(err).Error("failed to load reports")
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{Error: "failed to load reports"})
		return
	}
	if reports == nil {
		reports = []models.Report{}
	}

	c.JSON(http.StatusOK, gin.H{
		"reports": reports,
		"count":   len(reports),
	})
}
