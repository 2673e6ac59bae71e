package community

import (
	"context"
	"fmt"
	"sort"

	"github.com/openbook/hub/internal/apperr"
	"github.com/openbook/hub/internal/cache"
	"github.com/openbook/hub/internal/models"
)

// AddAdministrator promotes a member of the community to administrator.
// Promoting an existing administrator changes nothing but is still logged.
func (s *Service) AddAdministrator(ctx context.Context, actor *models.User, communityName, username string) (*models.User, error) {
	var target *models.User
	_, err := s.mutate(ctx, "AddAdministrator", communityName, func(ctx context.Context, u *unit) error {
		var err error
		if target, err = u.lookupUser(ctx, username); err != nil {
			return err
		}

		members, err := u.lock(ctx, lockIDs(actor, target)...)
		if err != nil {
			return err
		}
		if roleOf(u.community, actor.ID, members[actor.ID]) != models.RoleAdministrator {
			return apperr.PermissionDenied("only administrators can add administrators")
		}
		if target == nil {
			return apperr.NotFound("user %q not found", username)
		}

		m := members[target.ID]
		if m == nil {
			return apperr.NotFound("%s is not a member of %s", username, u.community.Name)
		}
		if m.Role != models.RoleAdministrator {
			if err := u.members.SetRole(ctx, u.community.ID, target.ID, models.RoleAdministrator); err != nil {
				return fmt.Errorf("failed to set role: %w", err)
			}
		}
		return u.record(ctx, models.ActionAddAdministrator, actor.ID, target.ID)
	})
	if err != nil {
		return nil, err
	}
	return target, nil
}

// RemoveAdministrator demotes an administrator to member. The creator can
// never be demoted.
func (s *Service) RemoveAdministrator(ctx context.Context, actor *models.User, communityName, username string) (*models.User, error) {
	var target *models.User
	_, err := s.mutate(ctx, "RemoveAdministrator", communityName, func(ctx context.Context, u *unit) error {
		var err error
		if target, err = u.lookupUser(ctx, username); err != nil {
			return err
		}

		members, err := u.lock(ctx, lockIDs(actor, target)...)
		if err != nil {
			return err
		}
		if roleOf(u.community, actor.ID, members[actor.ID]) != models.RoleAdministrator {
			return apperr.PermissionDenied("only administrators can remove administrators")
		}
		if target == nil {
			return apperr.NotFound("user %q not found", username)
		}
		if u.community.IsCreator(target.ID) {
			return apperr.InvalidOperation("the creator of %s cannot be removed as administrator", u.community.Name)
		}

		m := members[target.ID]
		if m == nil {
			return apperr.NotFound("%s is not a member of %s", username, u.community.Name)
		}
		if m.Role != models.RoleAdministrator {
			return apperr.InvalidOperation("%s is not an administrator of %s", username, u.community.Name)
		}
		if err := u.members.SetRole(ctx, u.community.ID, target.ID, models.RoleMember); err != nil {
			return fmt.Errorf("failed to set role: %w", err)
		}
		return u.record(ctx, models.ActionRemoveAdministrator, actor.ID, target.ID)
	})
	if err != nil {
		return nil, err
	}
	return target, nil
}

// ListAdministrators returns the administrators ordered by username. The
// creator is always part of the result.
func (s *Service) ListAdministrators(ctx context.Context, actor *models.User, communityName string) ([]*models.User, error) {
	community, err := s.readStaff(ctx, actor, communityName,
		apperr.PermissionDenied("only administrators and moderators can list administrators"))
	if err != nil {
		return nil, err
	}

	admins, err := s.listByRole(ctx, community, models.RoleAdministrator, s.staffKey(ctx, community, cache.AdministratorsKey))
	if err != nil {
		return nil, err
	}
	return s.withCreator(ctx, community, admins)
}

// withCreator adds the creator when its membership row no longer says administrator
func (s *Service) withCreator(ctx context.Context, community *models.Community, admins []*models.User) ([]*models.User, error) {
	if community.CreatorID == nil {
		return admins, nil
	}
	for _, a := range admins {
		if a.ID == *community.CreatorID {
			return admins, nil
		}
	}

	creator, err := s.users.GetByID(ctx, *community.CreatorID)
	if err != nil {
		return nil, fmt.Errorf("failed to get creator: %w", err)
	}
	if creator == nil {
		return admins, nil
	}

	admins = append(admins, creator)
	sort.Slice(admins, func(i, j int) bool { return admins[i].Username < admins[j].Username })
	return admins, nil
}

// AddModerator makes a member a moderator. Administrators cannot become moderators.
func (s *Service) AddModerator(ctx context.Context, actor *models.User, communityName, username string) (*models.User, error) {
	var target *models.User
	_, err := s.mutate(ctx, "AddModerator", communityName, func(ctx context.Context, u *unit) error {
		var err error
		if target, err = u.lookupUser(ctx, username); err != nil {
			return err
		}

		members, err := u.lock(ctx, lockIDs(actor, target)...)
		if err != nil {
			return err
		}
		if roleOf(u.community, actor.ID, members[actor.ID]) != models.RoleAdministrator {
			return apperr.PermissionDenied("only administrators can add moderators")
		}
		if target == nil {
			return apperr.NotFound("user %q not found", username)
		}

		m := members[target.ID]
		if m == nil && !u.community.IsCreator(target.ID) {
			return apperr.NotFound("%s is not a member of %s", username, u.community.Name)
		}
		if roleOf(u.community, target.ID, m) == models.RoleAdministrator {
			return apperr.InvalidOperation("%s is an administrator of %s", username, u.community.Name)
		}
		if m.Role != models.RoleModerator {
			if err := u.members.SetRole(ctx, u.community.ID, target.ID, models.RoleModerator); err != nil {
				return fmt.Errorf("failed to set role: %w", err)
			}
		}
		return u.record(ctx, models.ActionAddModerator, actor.ID, target.ID)
	})
	if err != nil {
		return nil, err
	}
	return target, nil
}

// RemoveModerator demotes a moderator to member
func (s *Service) RemoveModerator(ctx context.Context, actor *models.User, communityName, username string) (*models.User, error) {
	var target *models.User
	_, err := s.mutate(ctx, "RemoveModerator", communityName, func(ctx context.Context, u *unit) error {
		var err error
		if target, err = u.lookupUser(ctx, username); err != nil {
			return err
		}

		members, err := u.lock(ctx, lockIDs(actor, target)...)
		if err != nil {
			return err
		}
		if roleOf(u.community, actor.ID, members[actor.ID]) != models.RoleAdministrator {
			return apperr.PermissionDenied("only administrators can remove moderators")
		}
		if target == nil {
			return apperr.NotFound("user %q not found", username)
		}

		m := members[target.ID]
		if m == nil {
			return apperr.NotFound("%s is not a member of %s", username, u.community.Name)
		}
		if roleOf(u.community, target.ID, m) != models.RoleModerator {
			return apperr.InvalidOperation("%s is not a moderator of %s", username, u.community.Name)
		}
		if err := u.members.SetRole(ctx, u.community.ID, target.ID, models.RoleMember); err != nil {
			return fmt.Errorf("failed to set role: %w", err)
		}
		return u.record(ctx, models.ActionRemoveModerator, actor.ID, target.ID)
	})
	if err != nil {
		return nil, err
	}
	return target, nil
}

// ListModerators returns the moderators ordered by username
func (s *Service) ListModerators(ctx context.Context, actor *models.User, communityName string) ([]*models.User, error) {
	community, err := s.readStaff(ctx, actor, communityName,
		apperr.PermissionDenied("only administrators and moderators can list moderators"))
	if err != nil {
		return nil, err
	}
	return s.listByRole(ctx, community, models.RoleModerator, s.staffKey(ctx, community, cache.ModeratorsKey))
}

func lockIDs(actor, target *models.User) []int64 {
	if target == nil {
		return []int64{actor.ID}
	}
	return []int64{actor.ID, target.ID}
}
