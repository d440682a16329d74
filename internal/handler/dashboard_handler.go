package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/studyhub-dev/study-portal-api/internal/service"
	"github.com/studyhub-dev/study-portal-api/pkg/response"
)

// DashboardHandler exposes aggregate endpoints.
type DashboardHandler struct {
	dashboard *service.DashboardService
}

// NewDashboardHandler constructs DashboardHandler.
func NewDashboardHandler(dashboard *service.DashboardService) *DashboardHandler {
	return &DashboardHandler{dashboard: dashboard}
}

// Stats godoc
// @Summary Portal statistics
// @Tags Dashboard
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /stats [get]
func (h *DashboardHandler) Stats(c *gin.Context) {
	response.JSON(c, http.StatusOK, h.dashboard.Stats(c.Request.Context()), nil)
}

// Overview godoc
// @Summary Admin dashboard overview
// @Tags Dashboard
// @Produce json
// @Security BearerAuth
// @Success 200 {object} response.Envelope
// @Router /dashboard [get]
func (h *DashboardHandler) Overview(c *gin.Context) {
	response.JSON(c, http.StatusOK, h.dashboard.Overview(c.Request.Context()), nil)
}
