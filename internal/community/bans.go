package community

import (
	"context"
	"fmt"

	"github.com/openbook/hub/internal/apperr"
	"github.com/openbook/hub/internal/cache"
	"github.com/openbook/hub/internal/models"
)

// BanUser bans a user from the community and removes its membership.
// Staff cannot be banned. The target does not need to be a member.
func (s *Service) BanUser(ctx context.Context, actor *models.User, communityName, username string) (*models.User, error) {
	var target *models.User
	_, err := s.mutate(ctx, "BanUser", communityName, func(ctx context.Context, u *unit) error {
		var err error
		if target, err = u.lookupUser(ctx, username); err != nil {
			return err
		}

		members, err := u.lock(ctx, lockIDs(actor, target)...)
		if err != nil {
			return err
		}
		if !isStaff(u.community, actor.ID, members[actor.ID]) {
			return apperr.PermissionDenied("only administrators and moderators can ban users")
		}
		if target == nil {
			return apperr.NotFound("user %q not found", username)
		}
		if target.ID == actor.ID {
			return apperr.InvalidOperation("you cannot ban yourself")
		}
		if isStaff(u.community, target.ID, members[target.ID]) {
			return apperr.InvalidOperation("%s is staff of %s and cannot be banned", username, u.community.Name)
		}

		banned, err := u.bans.IsBanned(ctx, u.community.ID, target.ID)
		if err != nil {
			return fmt.Errorf("failed to check ban: %w", err)
		}
		if banned {
			return apperr.InvalidOperation("%s is already banned from %s", username, u.community.Name)
		}

		if err := u.bans.Create(ctx, &models.CommunityBan{CommunityID: u.community.ID, UserID: target.ID}); err != nil {
			return conflict(err, "create ban",
				apperr.InvalidOperation("%s is already banned from %s", username, u.community.Name))
		}
		if members[target.ID] != nil {
			if err := u.members.Delete(ctx, u.community.ID, target.ID); err != nil {
				return fmt.Errorf("failed to remove membership: %w", err)
			}
		}
		return u.record(ctx, models.ActionBanUser, actor.ID, target.ID)
	})
	if err != nil {
		return nil, err
	}
	return target, nil
}

// UnbanUser lifts a ban. The user has to join again afterwards.
func (s *Service) UnbanUser(ctx context.Context, actor *models.User, communityName, username string) (*models.User, error) {
	var target *models.User
	_, err := s.mutate(ctx, "UnbanUser", communityName, func(ctx context.Context, u *unit) error {
		var err error
		if target, err = u.lookupUser(ctx, username); err != nil {
			return err
		}

		members, err := u.lock(ctx, actor.ID)
		if err != nil {
			return err
		}
		if !isStaff(u.community, actor.ID, members[actor.ID]) {
			return apperr.PermissionDenied("only administrators and moderators can unban users")
		}
		if target == nil {
			return apperr.NotFound("user %q not found", username)
		}

		banned, err := u.bans.IsBanned(ctx, u.community.ID, target.ID)
		if err != nil {
			return fmt.Errorf("failed to check ban: %w", err)
		}
		if !banned {
			return apperr.InvalidOperation("%s is not banned from %s", username, u.community.Name)
		}

		if err := u.bans.Delete(ctx, u.community.ID, target.ID); err != nil {
			return fmt.Errorf("failed to delete ban: %w", err)
		}
		return u.record(ctx, models.ActionUnbanUser, actor.ID, target.ID)
	})
	if err != nil {
		return nil, err
	}
	return target, nil
}

// ListBannedUsers returns the banned users ordered by username
func (s *Service) ListBannedUsers(ctx context.Context, actor *models.User, communityName string) ([]*models.User, error) {
	community, err := s.readStaff(ctx, actor, communityName,
		apperr.PermissionDenied("only administrators and moderators can list banned users"))
	if err != nil {
		return nil, err
	}

	var users []*models.User
	key := s.staffKey(ctx, community, cache.BannedKey)
	if s.cache.GetJSON(ctx, key, &users) {
		return users, nil
	}

	users, err = s.bans.ListUsers(ctx, community.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to list banned users: %w", err)
	}

	s.cache.SetJSON(ctx, key, users, s.limits.StaffCacheTTL)
	return users, nil
}
