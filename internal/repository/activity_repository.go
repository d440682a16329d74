package repository

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/studyhub-dev/study-portal-api/internal/models"
)

// ActivityRepository stores the capped per-user recently-viewed and
// recently-downloaded lists in Redis. The lists are most-recent-first and
// trimmed on every push.
type ActivityRepository struct {
	client *redis.Client
	logger *zap.Logger
	limit  int64
}

// NewActivityRepository constructs an activity repository.
func NewActivityRepository(client *redis.Client, logger *zap.Logger, limit int) *ActivityRepository {
	if logger == nil {
		logger = zap.NewNop()
	}
	if limit <= 0 {
		limit = 10
	}
	return &ActivityRepository{client: client, logger: logger, limit: int64(limit)}
}

func activityKey(userID string, kind models.ActivityKind) string {
	return fmt.Sprintf("portal:activity:%s:%s", userID, kind)
}

// Push prepends an entry to the user's list and trims it to the cap.
func (r *ActivityRepository) Push(ctx context.Context, userID string, kind models.ActivityKind, entry models.ActivityEntry) error {
	if r.client == nil {
		return nil
	}
	payload, err := json.Marshal(entry)
	if err != nil {
		return fmt.Errorf("marshal activity entry: %w", err)
	}

	key := activityKey(userID, kind)
	pipe := r.client.TxPipeline()
	pipe.LPush(ctx, key, payload)
	pipe.LTrim(ctx, key, 0, r.limit-1)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("push activity entry: %w", err)
	}
	return nil
}

// List returns the user's entries, most recent first.
func (r *ActivityRepository) List(ctx context.Context, userID string, kind models.ActivityKind) ([]models.ActivityEntry, error) {
	if r.client == nil {
		return []models.ActivityEntry{}, nil
	}
	raw, err := r.client.LRange(ctx, activityKey(userID, kind), 0, r.limit-1).Result()
	if err != nil {
		return nil, fmt.Errorf("list activity entries: %w", err)
	}

	entries := make([]models.ActivityEntry, 0, len(raw))
	for _, item := range raw {
		var entry models.ActivityEntry
		if err := json.Unmarshal([]byte(item), &entry); err != nil {
			// A malformed entry is skipped rather than poisoning the list.
			r.logger.Warn("skipping malformed activity entry", zap.Error(err))
			continue
		}
		entries = append(entries, entry)
	}
	return entries, nil
}
