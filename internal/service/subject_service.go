package service

import (
	"context"
	"database/sql"
	"errors"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/studyhub-dev/study-portal-api/internal/models"
	appErrors "github.com/studyhub-dev/study-portal-api/pkg/errors"
)

type subjectRepo interface {
	FindByID(ctx context.Context, id string) (*models.Subject, error)
	ExistsByNameAndSem(ctx context.Context, name string, semID int, excludeID string) (bool, error)
	Create(ctx context.Context, subject *models.Subject) error
	Update(ctx context.Context, subject *models.Subject) error
	Delete(ctx context.Context, id string) error
}

type materialCounter interface {
	CountBySubject(ctx context.Context, subjectID string) (int, error)
}

// SubjectRequest is the create/update payload for a subject.
type SubjectRequest struct {
	Name  string `json:"name" validate:"required,min=2,max=120"`
	SemID int    `json:"sem_id" validate:"required,min=1,max=4"`
	Icon  string `json:"icon" validate:"omitempty,max=64"`
}

// SubjectService manages the subject catalogue.
type SubjectService struct {
	subjects  subjectRepo
	materials materialCounter
	notifier  changeNotifier
	validator *validator.Validate
	logger    *zap.Logger
}

// NewSubjectService constructs a SubjectService.
func NewSubjectService(subjects subjectRepo, materials materialCounter, notifier changeNotifier, validate *validator.Validate, logger *zap.Logger) *SubjectService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if notifier == nil {
		notifier = nopNotifier{}
	}
	return &SubjectService{subjects: subjects, materials: materials, notifier: notifier, validator: validate, logger: logger}
}

// Create adds a subject. Names are unique per semester, case-insensitive.
func (s *SubjectService) Create(ctx context.Context, req SubjectRequest) (*models.Subject, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid subject payload")
	}

	exists, err := s.subjects.ExistsByNameAndSem(ctx, req.Name, req.SemID, "")
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check subject name")
	}
	if exists {
		return nil, appErrors.Clone(appErrors.ErrDuplicate, "a subject with this name already exists in the semester")
	}

	subject := &models.Subject{Name: req.Name, SemID: req.SemID, Icon: req.Icon}
	if err := s.subjects.Create(ctx, subject); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create subject")
	}

	s.logger.Info("subject created", zap.String("subject_id", subject.ID))
	s.notifier.CollectionChanged(ctx, collectionSubjects)
	return subject, nil
}

// Update modifies a subject's name, semester or icon.
func (s *SubjectService) Update(ctx context.Context, id string, req SubjectRequest) (*models.Subject, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid subject payload")
	}

	subject, err := s.subjects.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "subject not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load subject")
	}

	exists, err := s.subjects.ExistsByNameAndSem(ctx, req.Name, req.SemID, id)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check subject name")
	}
	if exists {
		return nil, appErrors.Clone(appErrors.ErrDuplicate, "a subject with this name already exists in the semester")
	}

	subject.Name = req.Name
	subject.SemID = req.SemID
	subject.Icon = req.Icon
	if err := s.subjects.Update(ctx, subject); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "subject not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update subject")
	}

	s.notifier.CollectionChanged(ctx, collectionSubjects)
	return subject, nil
}

// Delete removes a subject. A subject still referenced by materials cannot
// be deleted; the materials must be moved or removed first.
func (s *SubjectService) Delete(ctx context.Context, id string) error {
	if _, err := s.subjects.FindByID(ctx, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "subject not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load subject")
	}

	count, err := s.materials.CountBySubject(ctx, id)
	if err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to count subject materials")
	}
	if count > 0 {
		return appErrors.Clone(appErrors.ErrPreconditionFailed, "subject still has materials attached")
	}

	if err := s.subjects.Delete(ctx, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "subject not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete subject")
	}

	s.notifier.CollectionChanged(ctx, collectionSubjects)
	return nil
}
