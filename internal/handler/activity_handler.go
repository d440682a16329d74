package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/studyhub-dev/study-portal-api/internal/models"
	"github.com/studyhub-dev/study-portal-api/internal/service"
	appErrors "github.com/studyhub-dev/study-portal-api/pkg/errors"
	"github.com/studyhub-dev/study-portal-api/pkg/response"
)

// ActivityHandler exposes the per-user recent activity lists.
type ActivityHandler struct {
	activity *service.ActivityService
}

// NewActivityHandler constructs ActivityHandler.
func NewActivityHandler(activity *service.ActivityService) *ActivityHandler {
	return &ActivityHandler{activity: activity}
}

// RecentlyViewed godoc
// @Summary Recently viewed materials
// @Tags Activity
// @Produce json
// @Security BearerAuth
// @Success 200 {object} response.Envelope
// @Router /activity/viewed [get]
func (h *ActivityHandler) RecentlyViewed(c *gin.Context) {
	h.list(c, models.ActivityViewed)
}

// RecentlyDownloaded godoc
// @Summary Recently downloaded materials
// @Tags Activity
// @Produce json
// @Security BearerAuth
// @Success 200 {object} response.Envelope
// @Router /activity/downloaded [get]
func (h *ActivityHandler) RecentlyDownloaded(c *gin.Context) {
	h.list(c, models.ActivityDownloaded)
}

func (h *ActivityHandler) list(c *gin.Context, kind models.ActivityKind) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	entries, err := h.activity.List(c.Request.Context(), claims.UserID, kind)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, entries, nil)
}
