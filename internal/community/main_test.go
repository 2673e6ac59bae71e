package community

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/openbook/hub/internal/cache"
	"github.com/openbook/hub/internal/cache/cachetest"
	"github.com/openbook/hub/internal/db"
	"github.com/openbook/hub/internal/db/dbtest"
	"github.com/openbook/hub/internal/events"
	"github.com/openbook/hub/internal/models"
	"github.com/openbook/hub/pkg/config"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m,
		goleak.IgnoreTopFunction("database/sql.(*DB).connectionOpener"),
	)
}

type recorder struct {
	mu     sync.Mutex
	events []events.Event
}

func (r *recorder) Publish(_ context.Context, evts ...events.Event) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, evts...)
	return nil
}

func (r *recorder) Close() error { return nil }

func (r *recorder) actions() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]string, len(r.events))
	for i, e := range r.events {
		out[i] = e.Action
	}
	return out
}

type fixture struct {
	svc       *Service
	d         *db.DB
	cache     *cache.Cache
	published *recorder
}

func newFixture(t *testing.T) *fixture {
	return newFixtureWithCache(t, nil)
}

// newCachedFixture backs the service with an in-process Redis
func newCachedFixture(t *testing.T) *fixture {
	c, _ := cachetest.New(t)
	return newFixtureWithCache(t, c)
}

func newFixtureWithCache(t *testing.T, c *cache.Cache) *fixture {
	d := dbtest.New(t)
	published := &recorder{}
	return &fixture{
		svc:       NewService(db.NewRepository(d.DB), c, published, config.DefaultLimits()),
		d:         d,
		cache:     c,
		published: published,
	}
}

type memberRow struct {
	CommunityID int64
	UserID      int64
	Role        models.Role
}

// memberships snapshots every membership row
func (f *fixture) memberships(t *testing.T) []memberRow {
	t.Helper()

	var rows []memberRow
	require.NoError(t, f.d.Model(&models.Membership{}).
		Select("community_id, user_id, role").
		Order("community_id, user_id").
		Scan(&rows).Error)
	return rows
}

func (f *fixture) auditCount(t *testing.T) int64 {
	t.Helper()

	var n int64
	require.NoError(t, f.d.Model(&models.AuditLogEntry{}).Count(&n).Error)
	return n
}
