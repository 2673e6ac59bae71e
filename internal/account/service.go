// Package account manages users and the per-user relations the feeds read.
package account

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"go.uber.org/zap"

	"github.com/openbook/hub/internal/apperr"
	"github.com/openbook/hub/internal/cache"
	"github.com/openbook/hub/internal/db"
	"github.com/openbook/hub/internal/models"
	"github.com/openbook/hub/pkg/logging"
	"github.com/openbook/hub/pkg/telemetry"
)

const usernameMaxLength = 30

var usernamePattern = regexp.MustCompile(`^[a-zA-Z0-9_.]+$`)

// Service manages users
type Service struct {
	repo   *db.Repository
	users  *db.UserRepository
	posts  *db.PostRepository
	cache  *cache.Cache
	logger *zap.Logger
}

// NewService creates an account service. c may be nil.
func NewService(repo *db.Repository, c *cache.Cache) *Service {
	return &Service{
		repo:   repo,
		users:  db.NewUserRepository(repo),
		posts:  db.NewPostRepository(repo),
		cache:  c,
		logger: logging.WithComponent("account"),
	}
}

// Create registers a user under username
func (s *Service) Create(ctx context.Context, username string) (*models.User, error) {
	username = strings.TrimSpace(username)
	if username == "" || len(username) > usernameMaxLength || !usernamePattern.MatchString(username) {
		return nil, apperr.Validation("username must be 1 to %d letters, digits, dots or underscores", usernameMaxLength)
	}

	user := &models.User{Username: username}
	err := s.repo.Transaction(ctx, func(tx *db.Repository) error {
		users := db.NewUserRepository(tx)

		existing, err := users.GetByUsername(ctx, username)
		if err != nil {
			return fmt.Errorf("failed to get user: %w", err)
		}
		if existing != nil {
			return apperr.Validation("username %q is taken", username)
		}
		if err := users.Create(ctx, user); err != nil {
			return fmt.Errorf("failed to create user: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return user, nil
}

// GetByID returns the user with id
func (s *Service) GetByID(ctx context.Context, id int64) (*models.User, error) {
	user, err := s.users.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	if user == nil {
		return nil, apperr.NotFound("user %d not found", id)
	}
	return user, nil
}

// GetByUsername returns the user with username
func (s *Service) GetByUsername(ctx context.Context, username string) (*models.User, error) {
	user, err := s.users.GetByUsername(ctx, username)
	if err != nil {
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	if user == nil {
		return nil, apperr.NotFound("user %q not found", username)
	}
	return user, nil
}

// Block hides username's posts from user's feeds and user's posts from username's
func (s *Service) Block(ctx context.Context, user *models.User, username string) error {
	target, err := s.GetByUsername(ctx, username)
	if err != nil {
		return err
	}
	if target.ID == user.ID {
		return apperr.InvalidOperation("you cannot block yourself")
	}

	block := &models.UserBlock{BlockerID: user.ID, BlockedID: target.ID}
	if err := db.NewBlockRepository(s.repo).Create(ctx, block); err != nil {
		return fmt.Errorf("failed to block user: %w", err)
	}
	s.cache.Bump(ctx, cache.FeedGenerationKey(user.ID), cache.FeedGenerationKey(target.ID))
	return nil
}

// Unblock lifts a block; unblocking a user that is not blocked is a no-op
func (s *Service) Unblock(ctx context.Context, user *models.User, username string) error {
	target, err := s.GetByUsername(ctx, username)
	if err != nil {
		return err
	}
	if err := db.NewBlockRepository(s.repo).Delete(ctx, user.ID, target.ID); err != nil {
		return fmt.Errorf("failed to unblock user: %w", err)
	}
	s.cache.Bump(ctx, cache.FeedGenerationKey(user.ID), cache.FeedGenerationKey(target.ID))
	return nil
}

// ReportPost records user's report against a post. Own posts cannot be reported.
func (s *Service) ReportPost(ctx context.Context, user *models.User, postID int64) error {
	post, err := s.posts.GetByID(ctx, postID)
	if err != nil {
		return fmt.Errorf("failed to get post: %w", err)
	}
	if post == nil || post.IsDeleted {
		return apperr.NotFound("post %d not found", postID)
	}
	if post.CreatorID == user.ID {
		return apperr.InvalidOperation("you cannot report your own post")
	}

	if err := s.posts.Report(ctx, &models.PostReport{PostID: post.ID, ReporterID: user.ID}); err != nil {
		return fmt.Errorf("failed to report post: %w", err)
	}
	s.cache.Bump(ctx, cache.FeedGenerationKey(user.ID))
	return nil
}

// DeleteUser removes a user. Communities and categories it created survive
// with their creator reference cleared. Audit log entries keep its id.
func (s *Service) DeleteUser(ctx context.Context, user *models.User) error {
	ctx, span := telemetry.StartSpan(ctx, "account.DeleteUser")
	defer span.End()

	var communityIDs []int64
	err := s.repo.Transaction(ctx, func(tx *db.Repository) error {
		var err error
		if communityIDs, err = db.NewMembershipRepository(tx).CommunityIDsByUser(ctx, user.ID); err != nil {
			return fmt.Errorf("failed to list memberships: %w", err)
		}
		bannedFrom, err := db.NewBanRepository(tx).CommunityIDsByUser(ctx, user.ID)
		if err != nil {
			return fmt.Errorf("failed to list bans: %w", err)
		}
		communityIDs = append(communityIDs, bannedFrom...)

		steps := []struct {
			what string
			fn   func(context.Context, int64) error
		}{
			{"clear community creator", db.NewCommunityRepository(tx).ClearCreator},
			{"clear category creator", db.NewCategoryRepository(tx).ClearCreator},
			{"delete memberships", db.NewMembershipRepository(tx).DeleteByUser},
			{"delete bans", db.NewBanRepository(tx).DeleteByUser},
			{"delete blocks", db.NewBlockRepository(tx).DeleteByUser},
			{"delete posts", db.NewPostRepository(tx).DeleteByCreator},
			{"delete user", db.NewUserRepository(tx).Delete},
		}
		for _, step := range steps {
			if err := step.fn(ctx, user.ID); err != nil {
				return fmt.Errorf("failed to %s: %w", step.what, err)
			}
		}
		return nil
	})
	if err != nil {
		return err
	}

	gens := make([]string, len(communityIDs))
	for i, id := range communityIDs {
		gens[i] = cache.StaffGenerationKey(id)
	}
	s.cache.Bump(ctx, gens...)

	s.logger.Info("User deleted", zap.Int64("user_id", user.ID), zap.String("username", user.Username))
	return nil
}
