package feed

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.uber.org/zap"

	"github.com/openbook/hub/internal/apperr"
	"github.com/openbook/hub/internal/cache"
	"github.com/openbook/hub/internal/db"
	"github.com/openbook/hub/internal/models"
	"github.com/openbook/hub/pkg/config"
	"github.com/openbook/hub/pkg/logging"
	"github.com/openbook/hub/pkg/telemetry"
)

// Service serves content feeds
type Service struct {
	posts    *db.PostRepository
	hashtags *db.HashtagRepository
	cache    *cache.Cache
	limits   config.Limits
	requests metric.Int64Counter
	logger   *zap.Logger
}

// NewService creates a feed service. c may be nil.
func NewService(repo *db.Repository, c *cache.Cache, limits config.Limits) *Service {
	return &Service{
		posts:    db.NewPostRepository(repo),
		hashtags: db.NewHashtagRepository(repo),
		cache:    c,
		limits:   limits,
		requests: telemetry.Counter("hub.feed.requests", "Feed pages requested"),
		logger:   logging.WithComponent("feed"),
	}
}

// PageSize resolves a requested page size: zero or less means the default
func PageSize(count, def, max int) (int, error) {
	if count <= 0 {
		return def, nil
	}
	if count > max {
		return 0, apperr.Validation("count must be at most %d", max)
	}
	return count, nil
}

// HashtagPosts returns the posts tagged hashtagName that viewer may see,
// newest first, with ids below maxID when maxID > 0
func (s *Service) HashtagPosts(ctx context.Context, viewer *models.User, hashtagName string, maxID int64, count int) ([]*models.Post, error) {
	ctx, span := telemetry.StartSpan(ctx, "feed.HashtagPosts")
	defer span.End()

	name := strings.ToLower(strings.TrimPrefix(strings.TrimSpace(hashtagName), "#"))
	if name == "" || len(name) > s.limits.HashtagNameMaxLength {
		return nil, apperr.Validation("hashtag name must be 1 to %d characters", s.limits.HashtagNameMaxLength)
	}

	count, err := PageSize(count, s.limits.FeedDefaultCount, s.limits.FeedMaxCount)
	if err != nil {
		return nil, err
	}

	s.requests.Add(ctx, 1, metric.WithAttributes(attribute.String("feed", "hashtag")))

	hashtag, err := s.hashtags.GetByName(ctx, name)
	if err != nil {
		return nil, fmt.Errorf("failed to get hashtag: %w", err)
	}
	if hashtag == nil {
		return nil, apperr.NotFound("hashtag %q not found", name)
	}

	// read before the query so a page built from pre-change rows lands under the old generation
	gen := s.cache.Generation(ctx, cache.FeedGenerationKey(viewer.ID))
	key := cache.HashKey("feed", "hashtag", name,
		strconv.FormatInt(viewer.ID, 10),
		strconv.FormatInt(gen, 10),
		strconv.FormatInt(maxID, 10),
		strconv.Itoa(count),
	)

	var posts []*models.Post
	if s.cache.GetJSON(ctx, key, &posts) {
		return posts, nil
	}

	filter := HashtagPostsFilter(hashtag.ID, viewer.ID)
	posts, err = s.posts.Find(ctx, filter.Scope(), maxID, count)
	if err != nil {
		return nil, fmt.Errorf("failed to query hashtag posts: %w", err)
	}

	s.logger.Debug("Hashtag feed served",
		zap.String("hashtag", name),
		zap.Int64("viewer_id", viewer.ID),
		zap.Int("posts", len(posts)),
	)

	s.cache.SetJSON(ctx, key, posts, s.limits.FeedCacheTTL)
	return posts, nil
}
