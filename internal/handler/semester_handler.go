package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/studyhub-dev/study-portal-api/internal/models"
	appErrors "github.com/studyhub-dev/study-portal-api/pkg/errors"
	"github.com/studyhub-dev/study-portal-api/pkg/response"
)

// SemesterCatalogue is the slice of the state store the semester endpoints
// read from.
type SemesterCatalogue interface {
	Semesters() []models.Semester
	SemesterByID(id string) (models.Semester, bool)
	SubjectsBySemester(semID string) []models.Subject
	MaterialsBySemester(semID string) []models.Material
}

// SemesterHandler exposes the fixed semester enumeration.
type SemesterHandler struct {
	catalogue SemesterCatalogue
}

// NewSemesterHandler constructs SemesterHandler.
func NewSemesterHandler(catalogue SemesterCatalogue) *SemesterHandler {
	return &SemesterHandler{catalogue: catalogue}
}

// List godoc
// @Summary List semesters
// @Tags Semesters
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /semesters [get]
func (h *SemesterHandler) List(c *gin.Context) {
	response.JSON(c, http.StatusOK, h.catalogue.Semesters(), nil)
}

// Get godoc
// @Summary Get one semester with its subjects and approved materials
// @Tags Semesters
// @Produce json
// @Param id path string true "Semester ID"
// @Success 200 {object} response.Envelope
// @Router /semesters/{id} [get]
func (h *SemesterHandler) Get(c *gin.Context) {
	semester, ok := h.catalogue.SemesterByID(c.Param("id"))
	if !ok {
		response.Error(c, appErrors.Clone(appErrors.ErrNotFound, "semester not found"))
		return
	}
	response.JSON(c, http.StatusOK, gin.H{
		"semester":  semester,
		"subjects":  h.catalogue.SubjectsBySemester(semester.ID),
		"materials": h.catalogue.MaterialsBySemester(semester.ID),
	}, nil)
}
