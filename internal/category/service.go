// Package category manages the named groupings of communities.
package category

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"go.uber.org/zap"

	"github.com/openbook/hub/internal/apperr"
	"github.com/openbook/hub/internal/db"
	"github.com/openbook/hub/internal/models"
	"github.com/openbook/hub/pkg/config"
	"github.com/openbook/hub/pkg/logging"
)

var namePattern = regexp.MustCompile(`^[a-z0-9_-]+$`)

const avatarMaxLength = 1024

// Input holds the fields of a new category
type Input struct {
	Name        string  `json:"name"`
	Title       string  `json:"title"`
	Description *string `json:"description"`
	Avatar      *string `json:"avatar"`
}

// Service manages categories
type Service struct {
	repo        *db.Repository
	categories  *db.CategoryRepository
	communities *db.CommunityRepository
	members     *db.MembershipRepository
	limits      config.Limits
	logger      *zap.Logger
}

// NewService creates a category service
func NewService(repo *db.Repository, limits config.Limits) *Service {
	return &Service{
		repo:        repo,
		categories:  db.NewCategoryRepository(repo),
		communities: db.NewCommunityRepository(repo),
		members:     db.NewMembershipRepository(repo),
		limits:      limits,
		logger:      logging.WithComponent("category"),
	}
}

// Create validates in and stores a new category created by creator
func (s *Service) Create(ctx context.Context, creator *models.User, in Input) (*models.Category, error) {
	in.Name = strings.ToLower(strings.TrimSpace(in.Name))
	in.Title = strings.TrimSpace(in.Title)
	if err := s.validate(in); err != nil {
		return nil, err
	}

	category := &models.Category{
		CreatorID:   &creator.ID,
		Name:        in.Name,
		Title:       in.Title,
		Description: in.Description,
		Avatar:      in.Avatar,
	}

	err := s.repo.Transaction(ctx, func(tx *db.Repository) error {
		categories := db.NewCategoryRepository(tx)

		existing, err := categories.GetByName(ctx, in.Name)
		if err != nil {
			return fmt.Errorf("failed to get category: %w", err)
		}
		if existing != nil {
			return apperr.Validation("a category named %q already exists", in.Name)
		}

		if err := categories.Create(ctx, category); err != nil {
			return fmt.Errorf("failed to create category: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("Category created", zap.String("category", category.Name), zap.Int64("creator_id", creator.ID))
	return category, nil
}

func (s *Service) validate(in Input) error {
	if in.Name == "" || len(in.Name) > s.limits.CategoryNameMaxLength {
		return apperr.Validation("category name must be 1 to %d characters", s.limits.CategoryNameMaxLength)
	}
	if !namePattern.MatchString(in.Name) {
		return apperr.Validation("category name may only contain letters, digits, hyphens and underscores")
	}
	if in.Title == "" || len(in.Title) > s.limits.CategoryTitleMaxLength {
		return apperr.Validation("category title must be 1 to %d characters", s.limits.CategoryTitleMaxLength)
	}
	if in.Description != nil {
		if d := *in.Description; d == "" || len(d) > s.limits.CategoryDescriptionMaxLength {
			return apperr.Validation("category description must be 1 to %d characters", s.limits.CategoryDescriptionMaxLength)
		}
	}
	if in.Avatar != nil && (*in.Avatar == "" || len(*in.Avatar) > avatarMaxLength) {
		return apperr.Validation("category avatar must be 1 to %d characters", avatarMaxLength)
	}
	return nil
}

// List returns every category ordered by name
func (s *Service) List(ctx context.Context) ([]*models.Category, error) {
	categories, err := s.categories.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list categories: %w", err)
	}
	return categories, nil
}

// Get returns a category by name
func (s *Service) Get(ctx context.Context, name string) (*models.Category, error) {
	category, err := s.categories.GetByName(ctx, name)
	if err != nil {
		return nil, fmt.Errorf("failed to get category: %w", err)
	}
	if category == nil {
		return nil, apperr.NotFound("category %q not found", name)
	}
	return category, nil
}

// Communities returns the communities of a category ordered by name
func (s *Service) Communities(ctx context.Context, name string) ([]*models.Community, error) {
	category, err := s.Get(ctx, name)
	if err != nil {
		return nil, err
	}

	communities, err := s.categories.ListCommunities(ctx, category)
	if err != nil {
		return nil, fmt.Errorf("failed to list category communities: %w", err)
	}
	return communities, nil
}

// AddCommunity files a community under a category. Only administrators of the
// community may do so.
func (s *Service) AddCommunity(ctx context.Context, actor *models.User, categoryName, communityName string) (*models.Category, error) {
	category, err := s.Get(ctx, categoryName)
	if err != nil {
		return nil, err
	}

	community, err := s.communities.GetByName(ctx, communityName)
	if err != nil {
		return nil, fmt.Errorf("failed to get community: %w", err)
	}
	if community == nil {
		return nil, apperr.NotFound("community %q not found", communityName)
	}

	m, err := s.members.Get(ctx, community.ID, actor.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to get membership: %w", err)
	}
	if !community.IsCreator(actor.ID) && (m == nil || m.Role != models.RoleAdministrator) {
		return nil, apperr.PermissionDenied("only administrators of %s can categorize it", community.Name)
	}

	if err := s.categories.AddCommunity(ctx, category, community); err != nil {
		return nil, fmt.Errorf("failed to add community to category: %w", err)
	}
	return category, nil
}
