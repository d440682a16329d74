package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/studyhub-dev/study-portal-api/internal/models"
	appErrors "github.com/studyhub-dev/study-portal-api/pkg/errors"
)

type userRepo interface {
	List(ctx context.Context, filter models.UserFilter) ([]models.User, int, error)
	FindByID(ctx context.Context, id string) (*models.User, error)
	SetRole(ctx context.Context, id string, role models.UserRole) error
	SetBanned(ctx context.Context, id string, banned bool) error
	RevokeUserRefreshTokens(ctx context.Context, userID string) error
	CreateAuditLog(ctx context.Context, log *models.AuditLog) error
}

// UserService manages accounts: listing, role changes and bans.
type UserService struct {
	users     userRepo
	notifier  changeNotifier
	validator *validator.Validate
	logger    *zap.Logger
}

// NewUserService constructs a UserService.
func NewUserService(users userRepo, notifier changeNotifier, validate *validator.Validate, logger *zap.Logger) *UserService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if notifier == nil {
		notifier = nopNotifier{}
	}
	return &UserService{users: users, notifier: notifier, validator: validate, logger: logger}
}

// List returns users matching the filter with pagination metadata.
func (s *UserService) List(ctx context.Context, filter models.UserFilter) ([]models.User, int, error) {
	users, total, err := s.users.List(ctx, filter)
	if err != nil {
		return nil, 0, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list users")
	}
	return users, total, nil
}

// Get returns one user.
func (s *UserService) Get(ctx context.Context, id string) (*models.User, error) {
	user, err := s.users.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "user not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load user")
	}
	return user, nil
}

// SetRole changes a user's stored role. Admins cannot strip their own role;
// that prevents locking the last admin out mid-session.
func (s *UserService) SetRole(ctx context.Context, id string, role models.UserRole, actorID string) (*models.User, error) {
	if role != models.RoleStudent && role != models.RoleAdmin {
		return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("unknown role %q", role))
	}
	if id == actorID && role != models.RoleAdmin {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "cannot demote your own account")
	}

	user, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	if err := s.users.SetRole(ctx, id, role); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "user not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to set user role")
	}
	user.Role = role

	s.audit(ctx, actorID, models.AuditActionUserRole, id, string(role))
	s.notifier.CollectionChanged(ctx, collectionUsers)
	return user, nil
}

// SetBanned flips the ban flag. Banning revokes the user's live sessions so
// the gate takes effect on the next request, not the next login.
func (s *UserService) SetBanned(ctx context.Context, id string, banned bool, actorID string) (*models.User, error) {
	if id == actorID && banned {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "cannot ban your own account")
	}

	user, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	if err := s.users.SetBanned(ctx, id, banned); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "user not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to set user ban")
	}
	user.IsBanned = banned

	if banned {
		if err := s.users.RevokeUserRefreshTokens(ctx, id); err != nil {
			s.logger.Warn("failed to revoke sessions of banned user",
				zap.String("user_id", id), zap.Error(err))
		}
	}

	s.audit(ctx, actorID, models.AuditActionUserBan, id, fmt.Sprintf("banned=%t", banned))
	s.notifier.CollectionChanged(ctx, collectionUsers)
	return user, nil
}

func (s *UserService) audit(ctx context.Context, actorID, action, resourceID, detail string) {
	entry := &models.AuditLog{
		Action:     action,
		Resource:   "users",
		ResourceID: &resourceID,
		Detail:     detail,
	}
	if actorID != "" {
		entry.UserID = &actorID
	}
	if err := s.users.CreateAuditLog(ctx, entry); err != nil {
		s.logger.Warn("failed to record audit log",
			zap.String("action", action), zap.Error(err))
	}
}
