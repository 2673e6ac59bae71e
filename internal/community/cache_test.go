package community

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/openbook/hub/internal/apperr"
	"github.com/openbook/hub/internal/cache"
	"github.com/openbook/hub/internal/db/dbtest"
	"github.com/openbook/hub/internal/models"
)

func usernames(users []*models.User) []string {
	names := make([]string, len(users))
	for i, u := range users {
		names[i] = u.Username
	}
	return names
}

func TestListAdministratorsCacheFollowsCommits(t *testing.T) {
	f := newCachedFixture(t)
	ctx := context.Background()

	alice := dbtest.MakeUser(t, f.d, "alice")
	bob := dbtest.MakeUser(t, f.d, "bob")
	tech := dbtest.MakeCommunity(t, f.d, "tech", alice)
	dbtest.SetRole(t, f.d, tech, bob, models.RoleMember)

	admins, err := f.svc.ListAdministrators(ctx, alice, "tech")
	require.NoError(t, err)
	assert.Equal(t, []string{"alice"}, usernames(admins))

	staleKey := cache.AdministratorsKey(tech.ID, f.cache.Generation(ctx, cache.StaffGenerationKey(tech.ID)))
	stale := admins

	_, err = f.svc.AddAdministrator(ctx, alice, "tech", "bob")
	require.NoError(t, err)

	// a reader that loaded the listing before the commit writes it back late
	f.cache.SetJSON(ctx, staleKey, stale, time.Minute)

	admins, err = f.svc.ListAdministrators(ctx, alice, "tech")
	require.NoError(t, err)
	assert.Equal(t, []string{"alice", "bob"}, usernames(admins))
}

func TestListBannedUsersCacheFollowsCommits(t *testing.T) {
	f := newCachedFixture(t)
	ctx := context.Background()

	alice := dbtest.MakeUser(t, f.d, "alice")
	dbtest.MakeUser(t, f.d, "eve")
	dbtest.MakeCommunity(t, f.d, "tech", alice)

	banned, err := f.svc.ListBannedUsers(ctx, alice, "tech")
	require.NoError(t, err)
	assert.Empty(t, banned)

	_, err = f.svc.BanUser(ctx, alice, "tech", "eve")
	require.NoError(t, err)

	banned, err = f.svc.ListBannedUsers(ctx, alice, "tech")
	require.NoError(t, err)
	assert.Equal(t, []string{"eve"}, usernames(banned))

	_, err = f.svc.UnbanUser(ctx, alice, "tech", "eve")
	require.NoError(t, err)

	banned, err = f.svc.ListBannedUsers(ctx, alice, "tech")
	require.NoError(t, err)
	assert.Empty(t, banned)
}

func TestBanChangesTargetFeedGeneration(t *testing.T) {
	f := newCachedFixture(t)
	ctx := context.Background()

	alice := dbtest.MakeUser(t, f.d, "alice")
	eve := dbtest.MakeUser(t, f.d, "eve")
	dbtest.MakeCommunity(t, f.d, "tech", alice)
	key := cache.FeedGenerationKey(eve.ID)

	before := f.cache.Generation(ctx, key)
	_, err := f.svc.BanUser(ctx, alice, "tech", "eve")
	require.NoError(t, err)
	assert.Greater(t, f.cache.Generation(ctx, key), before)

	before = f.cache.Generation(ctx, key)
	_, err = f.svc.UnbanUser(ctx, alice, "tech", "eve")
	require.NoError(t, err)
	assert.Greater(t, f.cache.Generation(ctx, key), before)
}

func TestConflict(t *testing.T) {
	invalid := apperr.InvalidOperation("already there")

	tests := []struct {
		name    string
		err     error
		want    error
		wrapped bool
	}{
		{name: "duplicate key", err: gorm.ErrDuplicatedKey, want: apperr.ErrInvalidOperation},
		{name: "wrapped duplicate key", err: fmt.Errorf("insert: %w", gorm.ErrDuplicatedKey), want: apperr.ErrInvalidOperation},
		{name: "other failure", err: errors.New("connection reset"), wrapped: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := conflict(tt.err, "create membership", invalid)
			if tt.wrapped {
				assert.Equal(t, apperr.KindUnknown, apperr.KindOf(got))
				assert.ErrorIs(t, got, tt.err)
				assert.Contains(t, got.Error(), "failed to create membership")
				return
			}
			assert.ErrorIs(t, got, tt.want)
		})
	}
}

func TestJoinCommunityDuplicateMembershipIsInvalid(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	alice := dbtest.MakeUser(t, f.d, "alice")
	bob := dbtest.MakeUser(t, f.d, "bob")
	tech := dbtest.MakeCommunity(t, f.d, "tech", alice)

	// the insert a concurrent join would have committed first
	err := f.d.Create(&models.Membership{CommunityID: tech.ID, UserID: bob.ID, Role: models.RoleMember}).Error
	require.NoError(t, err)
	err = f.d.Create(&models.Membership{CommunityID: tech.ID, UserID: bob.ID, Role: models.RoleMember}).Error
	require.ErrorIs(t, err, gorm.ErrDuplicatedKey)
	assert.ErrorIs(t, conflict(err, "create membership", apperr.InvalidOperation("already a member")), apperr.ErrInvalidOperation)

	_, err = f.svc.JoinCommunity(ctx, bob, "tech")
	assert.ErrorIs(t, err, apperr.ErrInvalidOperation)
}
