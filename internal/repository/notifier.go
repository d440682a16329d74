package repository

import (
	"context"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// Collection names pushed over the change feed.
const (
	CollectionMaterials = "materials"
	CollectionSubjects  = "subjects"
	CollectionUsers     = "users"
	CollectionReports   = "reports"
)

const channelPrefix = "portal:changed:"

// ChannelFor returns the pub/sub channel carrying change events for a
// collection.
func ChannelFor(collection string) string {
	return channelPrefix + collection
}

// ChangeNotifier announces that a collection changed. Subscribers reload a
// full snapshot; the event itself carries no payload.
type ChangeNotifier interface {
	CollectionChanged(ctx context.Context, collection string)
}

// RedisNotifier publishes change events on Redis pub/sub channels.
type RedisNotifier struct {
	client *redis.Client
	logger *zap.Logger
}

// NewRedisNotifier constructs a notifier. A nil client degrades to a no-op
// so single-process deployments without Redis still work.
func NewRedisNotifier(client *redis.Client, logger *zap.Logger) *RedisNotifier {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &RedisNotifier{client: client, logger: logger}
}

// CollectionChanged publishes a change event. Failures are logged, never
// surfaced: a missed event only delays the next mirror refresh.
func (n *RedisNotifier) CollectionChanged(ctx context.Context, collection string) {
	if n == nil || n.client == nil {
		return
	}
	if err := n.client.Publish(ctx, ChannelFor(collection), collection).Err(); err != nil {
		n.logger.Warn("failed to publish change event",
			zap.String("collection", collection), zap.Error(err))
	}
}

// NopNotifier discards change events.
type NopNotifier struct{}

// CollectionChanged implements ChangeNotifier.
func (NopNotifier) CollectionChanged(context.Context, string) {}
