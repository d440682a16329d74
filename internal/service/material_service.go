package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/studyhub-dev/study-portal-api/internal/models"
	"github.com/studyhub-dev/study-portal-api/pkg/drive"
	appErrors "github.com/studyhub-dev/study-portal-api/pkg/errors"
)

type materialRepo interface {
	FindByID(ctx context.Context, id string) (*models.Material, error)
	ExistsByTitleAndSubject(ctx context.Context, title, subjectID string) (bool, error)
	Create(ctx context.Context, material *models.Material) error
	Approve(ctx context.Context, id string, approvedAt time.Time) error
	UpdateDetails(ctx context.Context, material *models.Material) error
	Delete(ctx context.Context, id string) error
	IncrementViews(ctx context.Context, id string) (int64, error)
	IncrementDownloads(ctx context.Context, id string) (int64, error)
}

type subjectReader interface {
	FindByID(ctx context.Context, id string) (*models.Subject, error)
}

type auditRecorder interface {
	CreateAuditLog(ctx context.Context, log *models.AuditLog) error
}

// AddMaterialRequest is the submission payload for a new material.
type AddMaterialRequest struct {
	Title      string `json:"title" validate:"required,min=3,max=200"`
	SubjectID  string `json:"subject_id" validate:"required"`
	SemID      string `json:"sem_id" validate:"required"`
	Type       string `json:"type" validate:"required"`
	Link       string `json:"link" validate:"required,url"`
	UploadedBy string `json:"uploaded_by" validate:"omitempty,max=120"`
}

// UpdateMaterialRequest edits a material's descriptive fields. The link can
// be replaced; counters and status are never editable through this path.
type UpdateMaterialRequest struct {
	Title     string `json:"title" validate:"required,min=3,max=200"`
	SubjectID string `json:"subject_id" validate:"required"`
	SemID     string `json:"sem_id" validate:"required"`
	Type      string `json:"type" validate:"required"`
	Link      string `json:"link" validate:"required,url"`
}

// DownloadResult carries the bumped counter and the direct-download URL
// derived from the stored link.
type DownloadResult struct {
	Downloads   int64  `json:"downloads"`
	DownloadURL string `json:"download_url"`
}

// MaterialService orchestrates the moderation lifecycle of materials.
type MaterialService struct {
	materials materialRepo
	subjects  subjectReader
	audits    auditRecorder
	notifier  changeNotifier
	validator *validator.Validate
	logger    *zap.Logger
}

// NewMaterialService constructs a MaterialService.
func NewMaterialService(materials materialRepo, subjects subjectReader, audits auditRecorder, notifier changeNotifier, validate *validator.Validate, logger *zap.Logger) *MaterialService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if notifier == nil {
		notifier = nopNotifier{}
	}
	return &MaterialService{
		materials: materials,
		subjects:  subjects,
		audits:    audits,
		notifier:  notifier,
		validator: validate,
		logger:    logger,
	}
}

// Add submits a new material into the pending queue. A material with the
// same title under the same subject is rejected before insert; the check
// and the insert are not atomic, so a concurrent duplicate can still land
// and is left for moderation to catch.
func (s *MaterialService) Add(ctx context.Context, req AddMaterialRequest) (*models.Material, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid material payload")
	}
	if !models.ValidMaterialType(models.MaterialType(req.Type)) {
		return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("unknown material type %q", req.Type))
	}
	if _, err := s.subjects.FindByID(ctx, req.SubjectID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrValidation, "subject does not exist")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to verify subject")
	}

	exists, err := s.materials.ExistsByTitleAndSubject(ctx, req.Title, req.SubjectID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check for duplicates")
	}
	if exists {
		return nil, appErrors.Clone(appErrors.ErrDuplicate, "a material with this title already exists for the subject")
	}

	material := &models.Material{
		Title:      req.Title,
		SubjectID:  req.SubjectID,
		SemID:      req.SemID,
		Type:       models.MaterialType(req.Type),
		Link:       req.Link,
		Status:     models.StatusPending,
		UploadedBy: req.UploadedBy,
	}
	if err := s.materials.Create(ctx, material); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create material")
	}

	s.logger.Info("material submitted",
		zap.String("material_id", material.ID), zap.String("subject_id", material.SubjectID))
	s.notifier.CollectionChanged(ctx, collectionMaterials)
	return material, nil
}

// Approve transitions a pending material into the approved catalogue.
func (s *MaterialService) Approve(ctx context.Context, id, actorID string) (*models.Material, error) {
	material, err := s.find(ctx, id)
	if err != nil {
		return nil, err
	}
	if material.Status == models.StatusApproved {
		return nil, appErrors.Clone(appErrors.ErrConflict, "material is already approved")
	}

	approvedAt := time.Now().UTC()
	if err := s.materials.Approve(ctx, id, approvedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "material not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to approve material")
	}
	material.Status = models.StatusApproved
	material.ApprovedAt = &approvedAt

	s.audit(ctx, actorID, models.AuditActionMaterialApprove, id, material.Title)
	s.notifier.CollectionChanged(ctx, collectionMaterials)
	return material, nil
}

// Reject removes a pending material outright. Rejection and deletion share
// one storage operation; only the recorded audit action differs.
func (s *MaterialService) Reject(ctx context.Context, id, actorID string) error {
	return s.remove(ctx, id, actorID, models.AuditActionMaterialReject)
}

// Delete removes a material regardless of status.
func (s *MaterialService) Delete(ctx context.Context, id, actorID string) error {
	return s.remove(ctx, id, actorID, models.AuditActionMaterialDelete)
}

func (s *MaterialService) remove(ctx context.Context, id, actorID, action string) error {
	material, err := s.find(ctx, id)
	if err != nil {
		return err
	}
	if err := s.materials.Delete(ctx, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "material not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete material")
	}

	s.audit(ctx, actorID, action, id, material.Title)
	s.notifier.CollectionChanged(ctx, collectionMaterials)
	return nil
}

// Update edits the descriptive fields of a material. Changing the title or
// subject re-runs the duplicate check against other materials.
func (s *MaterialService) Update(ctx context.Context, id string, req UpdateMaterialRequest, actorID string) (*models.Material, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid material payload")
	}
	if !models.ValidMaterialType(models.MaterialType(req.Type)) {
		return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("unknown material type %q", req.Type))
	}

	material, err := s.find(ctx, id)
	if err != nil {
		return nil, err
	}

	titleChanged := material.Title != req.Title || material.SubjectID != req.SubjectID
	if titleChanged {
		exists, err := s.materials.ExistsByTitleAndSubject(ctx, req.Title, req.SubjectID)
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check for duplicates")
		}
		if exists {
			return nil, appErrors.Clone(appErrors.ErrDuplicate, "a material with this title already exists for the subject")
		}
	}

	material.Title = req.Title
	material.SubjectID = req.SubjectID
	material.SemID = req.SemID
	material.Type = models.MaterialType(req.Type)
	material.Link = req.Link

	if err := s.materials.UpdateDetails(ctx, material); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "material not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update material")
	}

	s.audit(ctx, actorID, models.AuditActionMaterialEdit, id, material.Title)
	s.notifier.CollectionChanged(ctx, collectionMaterials)
	return material, nil
}

// RecordView bumps the view counter atomically in storage and returns the
// new value. Concurrent viewers never lose increments.
func (s *MaterialService) RecordView(ctx context.Context, id string) (int64, error) {
	views, err := s.materials.IncrementViews(ctx, id)
	switch {
	case err == nil:
		s.notifier.CollectionChanged(ctx, collectionMaterials)
	case errors.Is(err, sql.ErrNoRows):
		return 0, appErrors.Clone(appErrors.ErrNotFound, "material not found")
	default:
		// A lost counter bump must not fail the view ping.
		s.logger.Warn("failed to record view", zap.String("material_id", id), zap.Error(err))
		material, findErr := s.find(ctx, id)
		if findErr != nil {
			return 0, findErr
		}
		views = material.Views
	}
	return views, nil
}

// RecordDownload bumps the download counter and derives the direct-download
// URL from the stored link.
func (s *MaterialService) RecordDownload(ctx context.Context, id string) (*DownloadResult, error) {
	material, err := s.find(ctx, id)
	if err != nil {
		return nil, err
	}
	downloads, err := s.materials.IncrementDownloads(ctx, id)
	switch {
	case err == nil:
		s.notifier.CollectionChanged(ctx, collectionMaterials)
	case errors.Is(err, sql.ErrNoRows):
		return nil, appErrors.Clone(appErrors.ErrNotFound, "material not found")
	default:
		// A lost counter bump must not block the download itself.
		s.logger.Warn("failed to record download", zap.String("material_id", id), zap.Error(err))
		downloads = material.Downloads
	}
	return &DownloadResult{
		Downloads:   downloads,
		DownloadURL: drive.DownloadLink(material.Link),
	}, nil
}

func (s *MaterialService) find(ctx context.Context, id string) (*models.Material, error) {
	material, err := s.materials.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "material not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load material")
	}
	return material, nil
}

func (s *MaterialService) audit(ctx context.Context, actorID, action, resourceID, detail string) {
	if s.audits == nil {
		return
	}
	entry := &models.AuditLog{
		Action:     action,
		Resource:   "materials",
		ResourceID: &resourceID,
		Detail:     detail,
	}
	if actorID != "" {
		entry.UserID = &actorID
	}
	if err := s.audits.CreateAuditLog(ctx, entry); err != nil {
		s.logger.Warn("failed to record audit log",
			zap.String("action", action), zap.Error(err))
	}
}
