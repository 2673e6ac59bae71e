package account

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/openbook/hub/internal/apperr"
	"github.com/openbook/hub/internal/db"
	"github.com/openbook/hub/internal/db/dbtest"
	"github.com/openbook/hub/internal/models"
)

func TestCreate(t *testing.T) {
	d := dbtest.New(t)
	svc := NewService(db.NewRepository(d.DB), nil)
	ctx := context.Background()

	user, err := svc.Create(ctx, "alice")
	require.NoError(t, err)
	assert.NotZero(t, user.ID)

	got, err := svc.GetByUsername(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, user.ID, got.ID)

	for _, name := range []string{"alice", "", "has space", "way_too_long_username_for_the_column"} {
		_, err := svc.Create(ctx, name)
		assert.ErrorIs(t, err, apperr.ErrValidation, name)
	}

	_, err = svc.GetByUsername(ctx, "ghost")
	assert.ErrorIs(t, err, apperr.ErrNotFound)
}

func TestBlockAndReport(t *testing.T) {
	d := dbtest.New(t)
	svc := NewService(db.NewRepository(d.DB), nil)
	ctx := context.Background()

	alice := dbtest.MakeUser(t, d, "alice")
	bob := dbtest.MakeUser(t, d, "bob")
	post := dbtest.MakePost(t, d, bob, nil, nil)

	require.NoError(t, svc.Block(ctx, alice, "bob"))
	require.NoError(t, svc.Block(ctx, alice, "bob"))
	assert.ErrorIs(t, svc.Block(ctx, alice, "alice"), apperr.ErrInvalidOperation)

	var blocks int64
	require.NoError(t, d.Model(&models.UserBlock{}).Count(&blocks).Error)
	assert.Equal(t, int64(1), blocks)

	require.NoError(t, svc.Unblock(ctx, alice, "bob"))
	require.NoError(t, d.Model(&models.UserBlock{}).Count(&blocks).Error)
	assert.Zero(t, blocks)

	require.NoError(t, svc.ReportPost(ctx, alice, post.ID))
	require.NoError(t, svc.ReportPost(ctx, alice, post.ID))
	assert.ErrorIs(t, svc.ReportPost(ctx, bob, post.ID), apperr.ErrInvalidOperation)
	assert.ErrorIs(t, svc.ReportPost(ctx, alice, post.ID+100), apperr.ErrNotFound)

	var reports int64
	require.NoError(t, d.Model(&models.PostReport{}).Count(&reports).Error)
	assert.Equal(t, int64(1), reports)
}

func TestDeleteUserClearsCreatorReferences(t *testing.T) {
	d := dbtest.New(t)
	svc := NewService(db.NewRepository(d.DB), nil)
	ctx := context.Background()

	alice := dbtest.MakeUser(t, d, "alice")
	bob := dbtest.MakeUser(t, d, "bob")
	tech := dbtest.MakeCommunity(t, d, "tech", alice)
	dbtest.SetRole(t, d, tech, bob, models.RoleAdministrator)
	require.NoError(t, d.Create(&models.Category{CreatorID: &alice.ID, Name: "music", Title: "Music"}).Error)
	require.NoError(t, d.Create(&models.AuditLogEntry{
		CommunityID:  tech.ID,
		ActionType:   models.ActionAddAdministrator,
		SourceUserID: alice.ID,
		TargetUserID: bob.ID,
	}).Error)
	dbtest.Block(t, d, alice, bob)
	post := dbtest.MakePost(t, d, alice, nil, nil)
	dbtest.Report(t, d, post, bob)

	require.NoError(t, svc.DeleteUser(ctx, alice))

	var community models.Community
	require.NoError(t, d.First(&community, tech.ID).Error)
	assert.Nil(t, community.CreatorID)

	var category models.Category
	require.NoError(t, d.Where("name = ?", "music").First(&category).Error)
	assert.Nil(t, category.CreatorID)

	assert.Equal(t, models.RoleNone, dbtest.RoleOf(t, d, tech, alice))
	assert.Equal(t, models.RoleAdministrator, dbtest.RoleOf(t, d, tech, bob))

	entries := dbtest.AuditEntries(t, d, tech)
	require.Len(t, entries, 1)
	assert.Equal(t, alice.ID, entries[0].SourceUserID)

	for _, model := range []interface{}{&models.UserBlock{}, &models.Post{}, &models.PostReport{}} {
		var n int64
		require.NoError(t, d.Model(model).Count(&n).Error)
		assert.Zero(t, n)
	}

	_, err := svc.GetByUsername(ctx, "alice")
	assert.ErrorIs(t, err, apperr.ErrNotFound)
}
