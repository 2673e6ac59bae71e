package feed

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/openbook/hub/internal/apperr"
	"github.com/openbook/hub/internal/db"
	"github.com/openbook/hub/internal/db/dbtest"
	"github.com/openbook/hub/internal/models"
	"github.com/openbook/hub/pkg/config"
)

func TestHashtagPostsPagination(t *testing.T) {
	d := dbtest.New(t)
	viewer := dbtest.MakeUser(t, d, "viewer")
	author := dbtest.MakeUser(t, d, "author")
	hashtag := dbtest.MakeHashtag(t, d, "golang")

	var posts []*models.Post
	for i := 0; i < 5; i++ {
		posts = append(posts, dbtest.MakePost(t, d, author, hashtag, nil))
	}

	svc := NewService(db.NewRepository(d.DB), nil, config.DefaultLimits())
	ctx := context.Background()

	page, err := svc.HashtagPosts(ctx, viewer, "#GoLang", 0, 2)
	require.NoError(t, err)
	require.Len(t, page, 2)
	assert.Equal(t, posts[4].ID, page[0].ID)
	assert.Equal(t, posts[3].ID, page[1].ID)
	require.NotNil(t, page[0].Creator)
	assert.Equal(t, "author", page[0].Creator.Username)

	page, err = svc.HashtagPosts(ctx, viewer, "golang", page[1].ID, 10)
	require.NoError(t, err)
	require.Len(t, page, 3)
	assert.Equal(t, posts[2].ID, page[0].ID)
	assert.Equal(t, posts[0].ID, page[2].ID)
}

func TestHashtagPostsErrors(t *testing.T) {
	d := dbtest.New(t)
	viewer := dbtest.MakeUser(t, d, "viewer")
	dbtest.MakeHashtag(t, d, "golang")
	svc := NewService(db.NewRepository(d.DB), nil, config.DefaultLimits())

	tests := []struct {
		name    string
		hashtag string
		count   int
		want    error
	}{
		{name: "unknown hashtag", hashtag: "missing", want: apperr.ErrNotFound},
		{name: "empty hashtag", hashtag: "#", want: apperr.ErrValidation},
		{name: "count above max", hashtag: "golang", count: 500, want: apperr.ErrValidation},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.HashtagPosts(context.Background(), viewer, tt.hashtag, 0, tt.count)
			assert.ErrorIs(t, err, tt.want)
		})
	}
}

func TestHashtagPostsEmptyIsNotAnError(t *testing.T) {
	d := dbtest.New(t)
	viewer := dbtest.MakeUser(t, d, "viewer")
	dbtest.MakeHashtag(t, d, "golang")
	svc := NewService(db.NewRepository(d.DB), nil, config.DefaultLimits())

	posts, err := svc.HashtagPosts(context.Background(), viewer, "golang", 0, 0)
	require.NoError(t, err)
	assert.Empty(t, posts)
}

func TestPageSize(t *testing.T) {
	n, err := PageSize(0, 10, 20)
	require.NoError(t, err)
	assert.Equal(t, 10, n)

	n, err = PageSize(20, 10, 20)
	require.NoError(t, err)
	assert.Equal(t, 20, n)

	_, err = PageSize(21, 10, 20)
	assert.ErrorIs(t, err, apperr.ErrValidation)
}
