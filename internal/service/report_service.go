package service

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/studyhub-dev/study-portal-api/internal/models"
	appErrors "github.com/studyhub-dev/study-portal-api/pkg/errors"
)

type reportRepo interface {
	ListAll(ctx context.Context) ([]models.Report, error)
	FindByID(ctx context.Context, id string) (*models.Report, error)
	Create(ctx context.Context, report *models.Report) error
	SetStatus(ctx context.Context, id string, status models.ReportStatus) error
	Delete(ctx context.Context, id string) error
}

type materialFinder interface {
	FindByID(ctx context.Context, id string) (*models.Material, error)
}

type subjectNamer interface {
	FindByID(ctx context.Context, id string) (*models.Subject, error)
}

// SubmitReportRequest flags a material as broken or wrong. For the "Other"
// reason the free-form detail is required and appended after a colon.
type SubmitReportRequest struct {
	MaterialID string `json:"material_id" validate:"required"`
	Reason     string `json:"reason" validate:"required"`
	Detail     string `json:"detail" validate:"omitempty,max=500"`
	ReportedBy string `json:"reported_by" validate:"omitempty,max=120"`
}

// ReportService handles issue reports raised against materials.
type ReportService struct {
	reports   reportRepo
	materials materialFinder
	subjects  subjectNamer
	notifier  changeNotifier
	validator *validator.Validate
	logger    *zap.Logger
}

// NewReportService constructs a ReportService.
func NewReportService(reports reportRepo, materials materialFinder, subjects subjectNamer, notifier changeNotifier, validate *validator.Validate, logger *zap.Logger) *ReportService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if notifier == nil {
		notifier = nopNotifier{}
	}
	return &ReportService{
		reports:   reports,
		materials: materials,
		subjects:  subjects,
		notifier:  notifier,
		validator: validate,
		logger:    logger,
	}
}

var knownReasons = map[models.ReportReason]bool{
	models.ReasonBrokenLink: true,
	models.ReasonWrongFile:  true,
	models.ReasonOutdated:   true,
	models.ReasonOther:      true,
}

// List returns every report, newest first.
func (s *ReportService) List(ctx context.Context) ([]models.Report, error) {
	reports, err := s.reports.ListAll(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list reports")
	}
	return reports, nil
}

// Submit files a report against a material. A snapshot of the material's
// title, link, subject name and semester is denormalised into the report so
// it stays readable after the material is deleted.
func (s *ReportService) Submit(ctx context.Context, req SubmitReportRequest) (*models.Report, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid report payload")
	}

	reason := models.ReportReason(req.Reason)
	if !knownReasons[reason] {
		return nil, appErrors.Clone(appErrors.ErrValidation, "unknown report reason")
	}
	if reason == models.ReasonOther && strings.TrimSpace(req.Detail) == "" {
		return nil, appErrors.Clone(appErrors.ErrValidation, "detail is required for the Other reason")
	}

	material, err := s.materials.FindByID(ctx, req.MaterialID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "material not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load material")
	}

	subjectName := material.SubjectID
	if subject, err := s.subjects.FindByID(ctx, material.SubjectID); err == nil {
		subjectName = subject.Name
	}

	reasonText := string(reason)
	if reason == models.ReasonOther {
		reasonText = reasonText + ": " + strings.TrimSpace(req.Detail)
	}

	report := &models.Report{
		MaterialID:    material.ID,
		MaterialTitle: material.Title,
		MaterialLink:  material.Link,
		Subject:       subjectName,
		Semester:      material.SemID,
		Reason:        reasonText,
		Status:        models.ReportUnread,
		ReportedBy:    req.ReportedBy,
	}
	if err := s.reports.Create(ctx, report); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create report")
	}

	s.logger.Info("report submitted",
		zap.String("report_id", report.ID), zap.String("material_id", material.ID))
	s.notifier.CollectionChanged(ctx, collectionReports)
	return report, nil
}

// Resolve marks a report handled.
func (s *ReportService) Resolve(ctx context.Context, id string) (*models.Report, error) {
	return s.setStatus(ctx, id, models.ReportResolved)
}

// Reopen puts a report back into the unread queue.
func (s *ReportService) Reopen(ctx context.Context, id string) (*models.Report, error) {
	return s.setStatus(ctx, id, models.ReportUnread)
}

func (s *ReportService) setStatus(ctx context.Context, id string, status models.ReportStatus) (*models.Report, error) {
	report, err := s.reports.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "report not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load report")
	}

	if err := s.reports.SetStatus(ctx, id, status); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "report not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update report")
	}
	report.Status = status

	s.notifier.CollectionChanged(ctx, collectionReports)
	return report, nil
}

// Delete removes a report.
func (s *ReportService) Delete(ctx context.Context, id string) error {
	if err := s.reports.Delete(ctx, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "report not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete report")
	}
	s.notifier.CollectionChanged(ctx, collectionReports)
	return nil
}
