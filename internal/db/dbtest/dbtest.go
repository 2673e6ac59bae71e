// Package dbtest opens throwaway in-memory databases for package tests and
// provides fixture helpers on top of them.
package dbtest

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"

	"github.com/openbook/hub/internal/db"
	"github.com/openbook/hub/internal/models"
)

// New returns a migrated in-memory SQLite database closed at test cleanup
func New(t testing.TB) *db.DB {
	t.Helper()

	d, err := db.Open(sqlite.Open(":memory:"), "ERROR")
	require.NoError(t, err)

	sqlDB, err := d.DB.DB()
	require.NoError(t, err)
	// every connection to ":memory:" is a separate database
	sqlDB.SetMaxOpenConns(1)

	require.NoError(t, d.Migrate(context.Background()))

	t.Cleanup(func() {
		_ = d.Close()
	})
	return d
}

// MakeUser inserts a user
func MakeUser(t testing.TB, d *db.DB, username string) *models.User {
	t.Helper()

	user := &models.User{Username: username}
	require.NoError(t, d.Create(user).Error)
	return user
}

// MakeCommunity inserts a public community founded by creator, who joins it as administrator
func MakeCommunity(t testing.TB, d *db.DB, name string, creator *models.User) *models.Community {
	t.Helper()

	community := &models.Community{
		Name:      name,
		Title:     name,
		Type:      models.CommunityTypePublic,
		CreatorID: &creator.ID,
	}
	require.NoError(t, d.Create(community).Error)
	SetRole(t, d, community, creator, models.RoleAdministrator)
	return community
}

// SetRole creates or updates the membership of user in community
func SetRole(t testing.TB, d *db.DB, community *models.Community, user *models.User, role models.Role) {
	t.Helper()

	var existing models.Membership
	res := d.Where("community_id = ? AND user_id = ?", community.ID, user.ID).Limit(1).Find(&existing)
	require.NoError(t, res.Error)

	if res.RowsAffected == 0 {
		require.NoError(t, d.Create(&models.Membership{
			CommunityID: community.ID,
			UserID:      user.ID,
			Role:        role,
		}).Error)
		return
	}

	require.NoError(t, d.Model(&models.Membership{}).
		Where("community_id = ? AND user_id = ?", community.ID, user.ID).
		Update("role", role).Error)
}

// RoleOf returns the role of user in community, RoleNone when not a member
func RoleOf(t testing.TB, d *db.DB, community *models.Community, user *models.User) models.Role {
	t.Helper()

	var m models.Membership
	res := d.Where("community_id = ? AND user_id = ?", community.ID, user.ID).Limit(1).Find(&m)
	require.NoError(t, res.Error)
	if res.RowsAffected == 0 {
		return models.RoleNone
	}
	return m.Role
}

// Ban bans user from community
func Ban(t testing.TB, d *db.DB, community *models.Community, user *models.User) {
	t.Helper()
	require.NoError(t, d.Create(&models.CommunityBan{CommunityID: community.ID, UserID: user.ID}).Error)
}

// Block records that blocker blocked blocked
func Block(t testing.TB, d *db.DB, blocker, blocked *models.User) {
	t.Helper()
	require.NoError(t, d.Create(&models.UserBlock{BlockerID: blocker.ID, BlockedID: blocked.ID}).Error)
}

// AuditEntries returns every audit entry of community, oldest first
func AuditEntries(t testing.TB, d *db.DB, community *models.Community) []models.AuditLogEntry {
	t.Helper()

	var entries []models.AuditLogEntry
	require.NoError(t, d.Where("community_id = ?", community.ID).Order("id ASC").Find(&entries).Error)
	return entries
}

// MakeHashtag inserts a hashtag
func MakeHashtag(t testing.TB, d *db.DB, name string) *models.Hashtag {
	t.Helper()

	hashtag := &models.Hashtag{Name: name}
	require.NoError(t, d.Create(hashtag).Error)
	return hashtag
}

// MakePost inserts a public, published post by creator tagged with hashtag.
// mutate, when not nil, adjusts the post before insertion.
func MakePost(t testing.TB, d *db.DB, creator *models.User, hashtag *models.Hashtag, mutate func(*models.Post)) *models.Post {
	t.Helper()

	post := &models.Post{
		CreatorID:  creator.ID,
		Text:       "hello",
		Visibility: models.VisibilityPublic,
		Status:     models.PostStatusPublished,
	}
	if mutate != nil {
		mutate(post)
	}
	// zero values would otherwise be replaced by column defaults
	require.NoError(t, d.Select("*").Omit("ID").Create(post).Error)

	if hashtag != nil {
		require.NoError(t, d.Create(&models.PostHashtag{PostID: post.ID, HashtagID: hashtag.ID}).Error)
	}
	return post
}

// Report records reporter's report against post
func Report(t testing.TB, d *db.DB, post *models.Post, reporter *models.User) {
	t.Helper()
	require.NoError(t, d.Create(&models.PostReport{PostID: post.ID, ReporterID: reporter.ID}).Error)
}

// Moderate records a moderation verdict on post
func Moderate(t testing.TB, d *db.DB, post *models.Post, status string) {
	t.Helper()
	require.NoError(t, d.Create(&models.PostModeration{PostID: post.ID, Status: status}).Error)
}
