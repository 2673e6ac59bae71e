// Package community implements membership, staff and ban management of
// communities. Every mutation checks the actor's role, applies the change and
// appends the audit log entry inside one transaction.
package community

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/openbook/hub/internal/apperr"
	"github.com/openbook/hub/internal/cache"
	"github.com/openbook/hub/internal/db"
	"github.com/openbook/hub/internal/events"
	"github.com/openbook/hub/internal/models"
	"github.com/openbook/hub/pkg/config"
	"github.com/openbook/hub/pkg/logging"
	"github.com/openbook/hub/pkg/telemetry"
)

// Service runs the community workflows
type Service struct {
	repo        *db.Repository
	communities *db.CommunityRepository
	members     *db.MembershipRepository
	bans        *db.BanRepository
	logs        *db.AuditLogRepository
	users       *db.UserRepository

	cache      *cache.Cache
	publisher  events.Publisher
	limits     config.Limits
	logEntries metric.Int64Counter
	logger     *zap.Logger
}

// NewService creates a community service. c may be nil.
func NewService(repo *db.Repository, c *cache.Cache, publisher events.Publisher, limits config.Limits) *Service {
	if publisher == nil {
		publisher = events.NopPublisher{}
	}
	return &Service{
		repo:        repo,
		communities: db.NewCommunityRepository(repo),
		members:     db.NewMembershipRepository(repo),
		bans:        db.NewBanRepository(repo),
		logs:        db.NewAuditLogRepository(repo),
		users:       db.NewUserRepository(repo),
		cache:       c,
		publisher:   publisher,
		limits:      limits,
		logEntries:  telemetry.Counter("hub.community.log_entries", "Audit log entries committed"),
		logger:      logging.WithComponent("community"),
	}
}

// unit is the set of repositories bound to one transaction plus the audit
// entries it appended
type unit struct {
	users       *db.UserRepository
	communities *db.CommunityRepository
	members     *db.MembershipRepository
	bans        *db.BanRepository
	logs        *db.AuditLogRepository

	community *models.Community
	entries   []*models.AuditLogEntry
}

func newUnit(tx *db.Repository) *unit {
	return &unit{
		users:       db.NewUserRepository(tx),
		communities: db.NewCommunityRepository(tx),
		members:     db.NewMembershipRepository(tx),
		bans:        db.NewBanRepository(tx),
		logs:        db.NewAuditLogRepository(tx),
	}
}

// lock locks the memberships of userIDs in ascending id order, so two
// transactions touching the same pair of users never wait on each other in a
// cycle. Non-members map to nil.
func (u *unit) lock(ctx context.Context, userIDs ...int64) (map[int64]*models.Membership, error) {
	ids := make([]int64, 0, len(userIDs))
	seen := make(map[int64]bool, len(userIDs))
	for _, id := range userIDs {
		if !seen[id] {
			seen[id] = true
			ids = append(ids, id)
		}
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })

	members := make(map[int64]*models.Membership, len(ids))
	for _, id := range ids {
		m, err := u.members.GetForUpdate(ctx, u.community.ID, id)
		if err != nil {
			return nil, fmt.Errorf("failed to lock membership: %w", err)
		}
		members[id] = m
	}
	return members, nil
}

// lookupUser returns the user or nil when no such username exists
func (u *unit) lookupUser(ctx context.Context, username string) (*models.User, error) {
	user, err := u.users.GetByUsername(ctx, username)
	if err != nil {
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	return user, nil
}

func (u *unit) record(ctx context.Context, action models.AuditAction, sourceID, targetID int64) error {
	entry := &models.AuditLogEntry{
		CommunityID:  u.community.ID,
		ActionType:   action,
		SourceUserID: sourceID,
		TargetUserID: targetID,
	}
	if err := u.logs.Append(ctx, entry); err != nil {
		return fmt.Errorf("failed to append audit log entry: %w", err)
	}
	u.entries = append(u.entries, entry)
	return nil
}

// roleOf is the effective role of userID. The creator is an administrator
// whatever its membership row says.
func roleOf(community *models.Community, userID int64, m *models.Membership) models.Role {
	if community.IsCreator(userID) {
		return models.RoleAdministrator
	}
	if m == nil {
		return models.RoleNone
	}
	return m.Role
}

func isStaff(community *models.Community, userID int64, m *models.Membership) bool {
	return roleOf(community, userID, m).AtLeast(models.RoleModerator)
}

// mutate runs fn in a transaction on the named community, then publishes the
// side effects of whatever it committed
func (s *Service) mutate(ctx context.Context, op, communityName string, fn func(ctx context.Context, u *unit) error) (*unit, error) {
	ctx, span := telemetry.StartSpan(ctx, "community."+op)
	defer span.End()
	span.SetAttributes(attribute.String("community", communityName))

	var committed *unit
	err := s.repo.Transaction(ctx, func(tx *db.Repository) error {
		u := newUnit(tx)

		community, err := u.communities.GetByNameForUpdate(ctx, communityName)
		if err != nil {
			return fmt.Errorf("failed to get community: %w", err)
		}
		if community == nil {
			return apperr.NotFound("community %q not found", communityName)
		}
		u.community = community

		if err := fn(ctx, u); err != nil {
			return err
		}
		committed = u
		return nil
	})
	if err != nil {
		if apperr.KindOf(err) == apperr.KindUnknown {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		}
		return nil, err
	}

	s.afterCommit(ctx, op, committed)
	return committed, nil
}

func (s *Service) afterCommit(ctx context.Context, op string, u *unit) {
	gens := []string{cache.StaffGenerationKey(u.community.ID)}
	for _, entry := range u.entries {
		if entry.ActionType == models.ActionBanUser || entry.ActionType == models.ActionUnbanUser {
			gens = append(gens, cache.FeedGenerationKey(entry.TargetUserID))
		}
	}
	s.cache.Bump(ctx, gens...)

	if len(u.entries) == 0 {
		return
	}

	evts := make([]events.Event, 0, len(u.entries))
	for _, entry := range u.entries {
		s.logEntries.Add(ctx, 1, metric.WithAttributes(attribute.String("action", entry.ActionType.Name())))
		evts = append(evts, events.NewAuditEvent(u.community, entry))

		s.logger.Info("Audit log entry committed",
			zap.String("operation", op),
			zap.String("community", u.community.Name),
			zap.String("action", entry.ActionType.Name()),
			zap.Int64("source_user_id", entry.SourceUserID),
			zap.Int64("target_user_id", entry.TargetUserID),
		)
	}

	if err := s.publisher.Publish(ctx, evts...); err != nil {
		s.logger.Error("Failed to publish audit events",
			zap.String("community", u.community.Name),
			zap.Int("count", len(evts)),
			zap.Error(err),
		)
	}
}

// readStaff loads the community and checks that actor is at least a
// moderator, outside any transaction
func (s *Service) readStaff(ctx context.Context, actor *models.User, communityName string, denied error) (*models.Community, error) {
	community, err := s.getCommunity(ctx, communityName)
	if err != nil {
		return nil, err
	}

	m, err := s.members.Get(ctx, community.ID, actor.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to get membership: %w", err)
	}
	if !isStaff(community, actor.ID, m) {
		return nil, denied
	}
	return community, nil
}

func (s *Service) getCommunity(ctx context.Context, name string) (*models.Community, error) {
	community, err := s.communities.GetByName(ctx, name)
	if err != nil {
		return nil, fmt.Errorf("failed to get community: %w", err)
	}
	if community == nil {
		return nil, apperr.NotFound("community %q not found", name)
	}
	return community, nil
}

// staffKey resolves a staff listing key at the community's current
// generation. It must be read before the listing is loaded.
func (s *Service) staffKey(ctx context.Context, community *models.Community, key func(communityID, gen int64) string) string {
	return key(community.ID, s.cache.Generation(ctx, cache.StaffGenerationKey(community.ID)))
}

// conflict reports a unique-key violation raised by a concurrent writer as
// invalid, anything else as a failure to do what
func conflict(err error, what string, invalid error) error {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return invalid
	}
	return fmt.Errorf("failed to %s: %w", what, err)
}

// listByRole serves a staff listing from cache or the membership store
func (s *Service) listByRole(ctx context.Context, community *models.Community, role models.Role, key string) ([]*models.User, error) {
	var users []*models.User
	if s.cache.GetJSON(ctx, key, &users) {
		return users, nil
	}

	users, err := s.members.ListUsersByRole(ctx, community.ID, role)
	if err != nil {
		return nil, fmt.Errorf("failed to list %ss: %w", role, err)
	}

	s.cache.SetJSON(ctx, key, users, s.limits.StaffCacheTTL)
	return users, nil
}
