package service

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/studyhub-dev/study-portal-api/internal/models"
	appErrors "github.com/studyhub-dev/study-portal-api/pkg/errors"
)

type activityStore interface {
	Push(ctx context.Context, userID string, kind models.ActivityKind, entry models.ActivityEntry) error
	List(ctx context.Context, userID string, kind models.ActivityKind) ([]models.ActivityEntry, error)
}

// ActivityService maintains the per-user recently-viewed and
// recently-downloaded lists. Failures to record activity are logged and
// swallowed; the lists are a convenience, not a ledger.
type ActivityService struct {
	activities activityStore
	logger     *zap.Logger
}

// NewActivityService constructs an ActivityService.
func NewActivityService(activities activityStore, logger *zap.Logger) *ActivityService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ActivityService{activities: activities, logger: logger}
}

// Record notes that a user viewed or downloaded a material.
func (s *ActivityService) Record(ctx context.Context, userID string, kind models.ActivityKind, material *models.Material, subjectName string) {
	if userID == "" || material == nil {
		return
	}
	entry := models.ActivityEntry{
		MaterialID: material.ID,
		Title:      material.Title,
		Subject:    subjectName,
		Link:       material.Link,
		Type:       material.Type,
		Timestamp:  time.Now().UTC(),
	}
	if err := s.activities.Push(ctx, userID, kind, entry); err != nil {
		s.logger.Warn("failed to record activity",
			zap.String("user_id", userID), zap.String("kind", string(kind)), zap.Error(err))
	}
}

// List returns a user's recent activity, most recent first.
func (s *ActivityService) List(ctx context.Context, userID string, kind models.ActivityKind) ([]models.ActivityEntry, error) {
	entries, err := s.activities.List(ctx, userID, kind)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list activity")
	}
	return entries, nil
}
