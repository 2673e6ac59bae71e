package community

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/openbook/hub/internal/apperr"
	"github.com/openbook/hub/internal/db"
	"github.com/openbook/hub/internal/models"
	"github.com/openbook/hub/pkg/telemetry"
)

var communityNamePattern = regexp.MustCompile(`^[a-zA-Z0-9_]+$`)

// Details is a community together with its aggregate counts
type Details struct {
	*models.Community
	Creator            *models.User `json:"creator,omitempty"`
	MembersCount       int64        `json:"members_count"`
	AdministratorCount int64        `json:"administrators_count"`
	ModeratorCount     int64        `json:"moderators_count"`
}

// CreateCommunity creates a community. The creator joins it as administrator
// in the same transaction.
func (s *Service) CreateCommunity(ctx context.Context, creator *models.User, name, title, kind string) (*models.Community, error) {
	ctx, span := telemetry.StartSpan(ctx, "community.CreateCommunity")
	defer span.End()

	name = strings.TrimSpace(name)
	title = strings.TrimSpace(title)
	if kind == "" {
		kind = models.CommunityTypePublic
	}

	if err := s.validateCommunity(name, title, kind); err != nil {
		return nil, err
	}

	community := &models.Community{
		Name:      name,
		Title:     title,
		Type:      kind,
		CreatorID: &creator.ID,
	}

	err := s.repo.Transaction(ctx, func(tx *db.Repository) error {
		communities := db.NewCommunityRepository(tx)

		existing, err := communities.GetByName(ctx, name)
		if err != nil {
			return fmt.Errorf("failed to get community: %w", err)
		}
		if existing != nil {
			return apperr.Validation("a community named %q already exists", name)
		}

		if err := communities.Create(ctx, community); err != nil {
			return conflict(err, "create community",
				apperr.Validation("a community named %q already exists", name))
		}

		membership := &models.Membership{
			CommunityID: community.ID,
			UserID:      creator.ID,
			Role:        models.RoleAdministrator,
		}
		if err := db.NewMembershipRepository(tx).Create(ctx, membership); err != nil {
			return fmt.Errorf("failed to create membership: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("Community created",
		zap.String("community", community.Name),
		zap.Int64("creator_id", creator.ID),
	)
	return community, nil
}

func (s *Service) validateCommunity(name, title, kind string) error {
	if name == "" || len(name) > s.limits.CommunityNameMaxLength {
		return apperr.Validation("community name must be 1 to %d characters", s.limits.CommunityNameMaxLength)
	}
	if !communityNamePattern.MatchString(name) {
		return apperr.Validation("community name may only contain letters, digits and underscores")
	}
	if title == "" || len(title) > s.limits.CommunityTitleMaxLength {
		return apperr.Validation("community title must be 1 to %d characters", s.limits.CommunityTitleMaxLength)
	}
	if kind != models.CommunityTypePublic && kind != models.CommunityTypePrivate {
		return apperr.Validation("community type must be %q or %q", models.CommunityTypePublic, models.CommunityTypePrivate)
	}
	return nil
}

// GetCommunity returns a community with its creator and counts
func (s *Service) GetCommunity(ctx context.Context, name string) (*Details, error) {
	ctx, span := telemetry.StartSpan(ctx, "community.GetCommunity")
	defer span.End()

	community, err := s.getCommunity(ctx, name)
	if err != nil {
		return nil, err
	}

	details := &Details{Community: community}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		if community.CreatorID == nil {
			return nil
		}
		creator, err := s.users.GetByID(gctx, *community.CreatorID)
		details.Creator = creator
		return err
	})
	g.Go(func() error {
		n, err := s.members.CountAll(gctx, community.ID)
		details.MembersCount = n
		return err
	})
	g.Go(func() error {
		n, err := s.members.CountByRole(gctx, community.ID, models.RoleAdministrator)
		details.AdministratorCount = n
		return err
	})
	g.Go(func() error {
		n, err := s.members.CountByRole(gctx, community.ID, models.RoleModerator)
		details.ModeratorCount = n
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("failed to load community details: %w", err)
	}

	return details, nil
}

// JoinCommunity makes user a member. Banned users cannot join.
func (s *Service) JoinCommunity(ctx context.Context, user *models.User, communityName string) (*models.Community, error) {
	u, err := s.mutate(ctx, "JoinCommunity", communityName, func(ctx context.Context, u *unit) error {
		banned, err := u.bans.IsBanned(ctx, u.community.ID, user.ID)
		if err != nil {
			return fmt.Errorf("failed to check ban: %w", err)
		}
		if banned {
			return apperr.PermissionDenied("you are banned from %s", u.community.Name)
		}

		members, err := u.lock(ctx, user.ID)
		if err != nil {
			return err
		}
		if members[user.ID] != nil {
			return apperr.InvalidOperation("you are already a member of %s", u.community.Name)
		}

		membership := &models.Membership{
			CommunityID: u.community.ID,
			UserID:      user.ID,
			Role:        models.RoleMember,
		}
		if err := u.members.Create(ctx, membership); err != nil {
			return conflict(err, "create membership",
				apperr.InvalidOperation("you are already a member of %s", u.community.Name))
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return u.community, nil
}

// LeaveCommunity ends user's membership. The creator cannot leave.
func (s *Service) LeaveCommunity(ctx context.Context, user *models.User, communityName string) (*models.Community, error) {
	u, err := s.mutate(ctx, "LeaveCommunity", communityName, func(ctx context.Context, u *unit) error {
		if u.community.IsCreator(user.ID) {
			return apperr.InvalidOperation("the creator cannot leave %s", u.community.Name)
		}

		members, err := u.lock(ctx, user.ID)
		if err != nil {
			return err
		}
		if members[user.ID] == nil {
			return apperr.InvalidOperation("you are not a member of %s", u.community.Name)
		}

		if err := u.members.Delete(ctx, u.community.ID, user.ID); err != nil {
			return fmt.Errorf("failed to remove membership: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return u.community, nil
}

// ListLogs returns audit log entries newest first
func (s *Service) ListLogs(ctx context.Context, actor *models.User, communityName string, maxID int64, count int) ([]*models.AuditLogEntry, error) {
	ctx, span := telemetry.StartSpan(ctx, "community.ListLogs")
	defer span.End()

	community, err := s.readStaff(ctx, actor, communityName,
		apperr.PermissionDenied("only administrators and moderators can read the log"))
	if err != nil {
		return nil, err
	}

	if count <= 0 {
		count = s.limits.LogsDefaultCount
	}
	if count > s.limits.LogsMaxCount {
		return nil, apperr.Validation("count must be at most %d", s.limits.LogsMaxCount)
	}

	entries, err := s.logs.ListByCommunity(ctx, community.ID, maxID, count)
	if err != nil {
		return nil, fmt.Errorf("failed to list audit log: %w", err)
	}
	return entries, nil
}
