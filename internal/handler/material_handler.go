package handler

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/studyhub-dev/study-portal-api/internal/models"
	"github.com/studyhub-dev/study-portal-api/internal/query"
	"github.com/studyhub-dev/study-portal-api/internal/service"
	appErrors "github.com/studyhub-dev/study-portal-api/pkg/errors"
	"github.com/studyhub-dev/study-portal-api/pkg/response"
)

// MaterialCatalogue is the slice of the state store the material endpoints
// read from.
type MaterialCatalogue interface {
	Materials() []models.Material
	ApprovedMaterials() []models.Material
	PendingMaterials() []models.Material
	MaterialByID(id string) (models.Material, bool)
	SubjectByID(id string) (models.Subject, bool)
	SubjectNames() map[string]string
}

// MaterialHandler exposes material browse and moderation endpoints.
type MaterialHandler struct {
	catalogue MaterialCatalogue
	materials *service.MaterialService
	activity  *service.ActivityService
	metrics   *service.MetricsService
}

// NewMaterialHandler constructs MaterialHandler. activity and metrics may
// be nil.
func NewMaterialHandler(catalogue MaterialCatalogue, materials *service.MaterialService, activity *service.ActivityService, metrics *service.MetricsService) *MaterialHandler {
	return &MaterialHandler{catalogue: catalogue, materials: materials, activity: activity, metrics: metrics}
}

// List godoc
// @Summary Browse approved materials
// @Tags Materials
// @Produce json
// @Param type query string false "Material type or All"
// @Param subject query string false "Subject id or All"
// @Param semester query string false "Semester id or All"
// @Param search query string false "Title or subject substring"
// @Param sort query string false "newest, oldest, title-asc or most-views"
// @Success 200 {object} response.Envelope
// @Router /materials [get]
func (h *MaterialHandler) List(c *gin.Context) {
	params := query.Params{
		Status:       models.StatusApproved,
		Type:         c.Query("type"),
		Subject:      c.Query("subject"),
		Semester:     c.Query("semester"),
		Search:       strings.TrimSpace(c.Query("search")),
		Sort:         c.DefaultQuery("sort", query.SortNewest),
		SubjectNames: h.catalogue.SubjectNames(),
	}
	materials := query.Run(h.catalogue.Materials(), params)
	response.JSON(c, http.StatusOK, materials, nil)
}

// Pending godoc
// @Summary List the moderation queue
// @Tags Materials
// @Produce json
// @Security BearerAuth
// @Success 200 {object} response.Envelope
// @Router /materials/pending [get]
func (h *MaterialHandler) Pending(c *gin.Context) {
	params := query.Params{
		Status:       models.StatusPending,
		Type:         c.Query("type"),
		Subject:      c.Query("subject"),
		Semester:     c.Query("semester"),
		Search:       strings.TrimSpace(c.Query("search")),
		Sort:         c.DefaultQuery("sort", query.SortOldest),
		SubjectNames: h.catalogue.SubjectNames(),
	}
	materials := query.Run(h.catalogue.Materials(), params)
	response.JSON(c, http.StatusOK, materials, nil)
}

// Get godoc
// @Summary Get one material
// @Tags Materials
// @Produce json
// @Param id path string true "Material ID"
// @Success 200 {object} response.Envelope
// @Router /materials/{id} [get]
func (h *MaterialHandler) Get(c *gin.Context) {
	material, ok := h.catalogue.MaterialByID(c.Param("id"))
	if !ok {
		response.Error(c, appErrors.Clone(appErrors.ErrNotFound, "material not found"))
		return
	}
	response.JSON(c, http.StatusOK, material, nil)
}

// Create godoc
// @Summary Submit a material for moderation
// @Tags Materials
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param payload body service.AddMaterialRequest true "Material payload"
// @Success 201 {object} response.Envelope
// @Router /materials [post]
func (h *MaterialHandler) Create(c *gin.Context) {
	var req service.AddMaterialRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	material, err := h.materials.Add(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	h.metrics.CountMaterialEvent("submitted")
	response.Created(c, material)
}

// Approve godoc
// @Summary Approve a pending material
// @Tags Materials
// @Produce json
// @Security BearerAuth
// @Param id path string true "Material ID"
// @Success 200 {object} response.Envelope
// @Router /materials/{id}/approve [post]
func (h *MaterialHandler) Approve(c *gin.Context) {
	material, err := h.materials.Approve(c.Request.Context(), c.Param("id"), actorID(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	h.metrics.CountMaterialEvent("approved")
	response.JSON(c, http.StatusOK, material, nil)
}

// Reject godoc
// @Summary Reject a pending material
// @Tags Materials
// @Security BearerAuth
// @Param id path string true "Material ID"
// @Success 204
// @Router /materials/{id}/reject [post]
func (h *MaterialHandler) Reject(c *gin.Context) {
	if err := h.materials.Reject(c.Request.Context(), c.Param("id"), actorID(c)); err != nil {
		response.Error(c, err)
		return
	}
	h.metrics.CountMaterialEvent("rejected")
	response.NoContent(c)
}

// Update godoc
// @Summary Edit a material
// @Tags Materials
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Material ID"
// @Param payload body service.UpdateMaterialRequest true "Material payload"
// @Success 200 {object} response.Envelope
// @Router /materials/{id} [put]
func (h *MaterialHandler) Update(c *gin.Context) {
	var req service.UpdateMaterialRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	material, err := h.materials.Update(c.Request.Context(), c.Param("id"), req, actorID(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, material, nil)
}

// Delete godoc
// @Summary Delete a material
// @Tags Materials
// @Security BearerAuth
// @Param id path string true "Material ID"
// @Success 204
// @Router /materials/{id} [delete]
func (h *MaterialHandler) Delete(c *gin.Context) {
	if err := h.materials.Delete(c.Request.Context(), c.Param("id"), actorID(c)); err != nil {
		response.Error(c, err)
		return
	}
	h.metrics.CountMaterialEvent("deleted")
	response.NoContent(c)
}

// RecordView godoc
// @Summary Record a view
// @Tags Materials
// @Produce json
// @Param id path string true "Material ID"
// @Success 200 {object} response.Envelope
// @Router /materials/{id}/view [post]
func (h *MaterialHandler) RecordView(c *gin.Context) {
	id := c.Param("id")
	views, err := h.materials.RecordView(c.Request.Context(), id)
	if err != nil {
		response.Error(c, err)
		return
	}
	h.metrics.CountMaterialEvent("viewed")
	h.trackActivity(c, id, models.ActivityViewed)
	response.JSON(c, http.StatusOK, gin.H{"views": views}, nil)
}

// RecordDownload godoc
// @Summary Record a download and resolve the download URL
// @Tags Materials
// @Produce json
// @Param id path string true "Material ID"
// @Success 200 {object} response.Envelope
// @Router /materials/{id}/download [post]
func (h *MaterialHandler) RecordDownload(c *gin.Context) {
	id := c.Param("id")
	result, err := h.materials.RecordDownload(c.Request.Context(), id)
	if err != nil {
		response.Error(c, err)
		return
	}
	h.metrics.CountMaterialEvent("downloaded")
	h.trackActivity(c, id, models.ActivityDownloaded)
	response.JSON(c, http.StatusOK, result, nil)
}

func (h *MaterialHandler) trackActivity(c *gin.Context, materialID string, kind models.ActivityKind) {
	claims := claimsFromContext(c)
	if claims == nil || h.activity == nil {
		return
	}
	material, ok := h.catalogue.MaterialByID(materialID)
	if !ok {
		return
	}
	subjectName := material.SubjectID
	if subject, found := h.catalogue.SubjectByID(material.SubjectID); found {
		subjectName = subject.Name
	}
	h.activity.Record(c.Request.Context(), claims.UserID, kind, &material, subjectName)
}
