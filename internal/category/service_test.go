package category

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/openbook/hub/internal/apperr"
	"github.com/openbook/hub/internal/db"
	"github.com/openbook/hub/internal/db/dbtest"
	"github.com/openbook/hub/internal/models"
	"github.com/openbook/hub/pkg/config"
)

func strPtr(s string) *string { return &s }

func TestCreate(t *testing.T) {
	d := dbtest.New(t)
	svc := NewService(db.NewRepository(d.DB), config.DefaultLimits())
	alice := dbtest.MakeUser(t, d, "alice")
	ctx := context.Background()

	category, err := svc.Create(ctx, alice, Input{
		Name:        "Music",
		Title:       "Music",
		Description: strPtr("All things music"),
	})
	require.NoError(t, err)
	assert.Equal(t, "music", category.Name)
	assert.False(t, category.Created.IsZero())
	require.NotNil(t, category.CreatorID)
	assert.Equal(t, alice.ID, *category.CreatorID)

	tests := []struct {
		name string
		in   Input
	}{
		{name: "duplicate name", in: Input{Name: "music", Title: "Again"}},
		{name: "empty name", in: Input{Name: "", Title: "Title"}},
		{name: "bad charset", in: Input{Name: "rock & roll", Title: "Title"}},
		{name: "name too long", in: Input{Name: strings.Repeat("n", 33), Title: "Title"}},
		{name: "empty title", in: Input{Name: "art"}},
		{name: "title too long", in: Input{Name: "art", Title: strings.Repeat("t", 65)}},
		{name: "empty description", in: Input{Name: "art", Title: "Art", Description: strPtr("")}},
		{name: "description too long", in: Input{Name: "art", Title: "Art", Description: strPtr(strings.Repeat("d", 65))}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.Create(ctx, alice, tt.in)
			assert.ErrorIs(t, err, apperr.ErrValidation)
		})
	}
}

func TestCreatedIsSetOnce(t *testing.T) {
	d := dbtest.New(t)
	svc := NewService(db.NewRepository(d.DB), config.DefaultLimits())
	alice := dbtest.MakeUser(t, d, "alice")

	category, err := svc.Create(context.Background(), alice, Input{Name: "music", Title: "Music"})
	require.NoError(t, err)
	created := category.Created

	category.Title = "Sounds"
	category.Created = created.Add(48 * time.Hour)
	require.NoError(t, d.Save(category).Error)

	var reloaded models.Category
	require.NoError(t, d.First(&reloaded, category.ID).Error)
	assert.Equal(t, "Sounds", reloaded.Title)
	assert.True(t, created.Equal(reloaded.Created), "created changed from %v to %v", created, reloaded.Created)
}

func TestAddCommunity(t *testing.T) {
	d := dbtest.New(t)
	svc := NewService(db.NewRepository(d.DB), config.DefaultLimits())
	ctx := context.Background()

	alice := dbtest.MakeUser(t, d, "alice")
	bob := dbtest.MakeUser(t, d, "bob")
	tech := dbtest.MakeCommunity(t, d, "tech", alice)
	dbtest.MakeCommunity(t, d, "art", alice)
	dbtest.SetRole(t, d, tech, bob, models.RoleModerator)

	_, err := svc.Create(ctx, alice, Input{Name: "stuff", Title: "Stuff"})
	require.NoError(t, err)

	_, err = svc.AddCommunity(ctx, bob, "stuff", "tech")
	assert.ErrorIs(t, err, apperr.ErrPermissionDenied)

	_, err = svc.AddCommunity(ctx, alice, "stuff", "missing")
	assert.ErrorIs(t, err, apperr.ErrNotFound)

	_, err = svc.AddCommunity(ctx, alice, "missing", "tech")
	assert.ErrorIs(t, err, apperr.ErrNotFound)

	for _, name := range []string{"tech", "art", "tech"} {
		_, err = svc.AddCommunity(ctx, alice, "stuff", name)
		require.NoError(t, err)
	}

	communities, err := svc.Communities(ctx, "stuff")
	require.NoError(t, err)
	require.Len(t, communities, 2)
	assert.Equal(t, "art", communities[0].Name)
	assert.Equal(t, "tech", communities[1].Name)
}

func TestList(t *testing.T) {
	d := dbtest.New(t)
	svc := NewService(db.NewRepository(d.DB), config.DefaultLimits())
	alice := dbtest.MakeUser(t, d, "alice")
	ctx := context.Background()

	for _, name := range []string{"zebra", "apple"} {
		_, err := svc.Create(ctx, alice, Input{Name: name, Title: name})
		require.NoError(t, err)
	}

	categories, err := svc.List(ctx)
	require.NoError(t, err)
	require.Len(t, categories, 2)
	assert.Equal(t, "apple", categories[0].Name)
	assert.Equal(t, "zebra", categories[1].Name)
}
