package thread

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"replyhub/internal/cache"
	"replyhub/internal/events"
	"replyhub/internal/models"

	"go.uber.org/zap"
)

// Fetcher is the read side of the gateway.
type Fetcher interface {
	FetchComments(ctx context.Context, postID string) ([]*models.Comment, error)
}

// Loader hydrates a thread from the server, caching the fetched collection.
// Confirmed mutations invalidate the cached snapshot so the next hydration
// reflects server truth.
type Loader struct {
	fetcher Fetcher
	cache   cache.Cache
	ttl     time.Duration
	logger  *zap.Logger
}

// NewLoader creates a thread loader. The cache is optional.
func NewLoader(fetcher Fetcher, c cache.Cache, ttl time.Duration, logger *zap.Logger) *Loader {
	if logger == nil {
		logger = zap.NewNop()
	}
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	return &Loader{fetcher: fetcher, cache: c, ttl: ttl, logger: logger}
}

func threadCacheKey(postID string) string {
	return fmt.Sprintf("thread:%s", postID)
}

// LoadThread returns the comment collection for a post, from cache when
// fresh, otherwise from the server.
func (l *Loader) LoadThread(ctx context.Context, postID string, force bool) ([]*models.Comment, error) {
	key := threadCacheKey(postID)

	if l.cache != nil && !force {
		if data, found := l.cache.Get(ctx, key); found {
			var comments []*models.Comment
			if err := json.Unmarshal(data, &comments); err == nil {
				l.logger.Debug("Thread loaded from cache",
					zap.String("post_id", postID),
					zap.Int("comments", len(comments)))
				return comments, nil
			}
			// Unreadable entry, fall through to a fresh fetch.
			_ = l.cache.Delete(ctx, key)
		}
	}

	comments, err := l.fetcher.FetchComments(ctx, postID)
	if err != nil {
		return nil, NewSyncError("failed to load thread", err)
	}

	if l.cache != nil {
		if data, err := json.Marshal(comments); err == nil {
			if err := l.cache.Set(ctx, key, data, l.ttl); err != nil {
				l.logger.Warn("Failed to cache thread", zap.Error(err))
			}
		}
	}

	l.logger.Debug("Thread loaded from server",
		zap.String("post_id", postID),
		zap.Int("comments", len(comments)))
	return comments, nil
}

// Invalidate drops the cached snapshot for a post.
func (l *Loader) Invalidate(ctx context.Context, postID string) {
	if l.cache == nil {
		return
	}
	if err := l.cache.Delete(ctx, threadCacheKey(postID)); err != nil {
		l.logger.Warn("Failed to invalidate thread cache",
			zap.String("post_id", postID),
			zap.Error(err))
	}
}

// SubscribeInvalidation wires the loader to the event bus: any confirmed
// mutation for a post invalidates that post's cached thread.
func (l *Loader) SubscribeInvalidation(bus events.EventBus) error {
	handler := events.EventHandlerFunc{
		ID: "thread-cache-invalidation",
		Func: func(ctx context.Context, event events.Event) error {
			if e, ok := event.(*events.CommentEvent); ok {
				l.Invalidate(ctx, e.PostID)
			}
			return nil
		},
	}

	for _, eventType := range []string{
		events.TypeCommentCreated,
		events.TypeCommentUpdated,
		events.TypeCommentDeleted,
		events.TypeReplyCreated,
		events.TypeReplyUpdated,
		events.TypeReplyDeleted,
		events.TypeLikeToggled,
	} {
		if err := bus.Subscribe(eventType, handler); err != nil {
			return err
		}
	}
	return nil
}
