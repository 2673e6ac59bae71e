// Package feed composes the read filters behind content listings.
package feed

import (
	"gorm.io/gorm"

	"github.com/openbook/hub/internal/models"
)

// Predicate is one named clause over the posts table
type Predicate struct {
	Name  string
	Apply func(*gorm.DB) *gorm.DB
}

// Filter is an ordered conjunction of predicates. There is no way to OR two
// predicates together: every clause narrows the result.
type Filter struct {
	predicates []Predicate
}

// And returns a new filter with preds appended
func (f Filter) And(preds ...Predicate) Filter {
	next := make([]Predicate, 0, len(f.predicates)+len(preds))
	next = append(next, f.predicates...)
	next = append(next, preds...)
	return Filter{predicates: next}
}

// Names lists the predicate names in application order
func (f Filter) Names() []string {
	names := make([]string, len(f.predicates))
	for i, p := range f.predicates {
		names[i] = p.Name
	}
	return names
}

// Len returns the number of predicates
func (f Filter) Len() int {
	return len(f.predicates)
}

// Scope applies every predicate, for use with gorm's Scopes
func (f Filter) Scope() func(*gorm.DB) *gorm.DB {
	return func(tx *gorm.DB) *gorm.DB {
		for _, p := range f.predicates {
			tx = p.Apply(tx)
		}
		return tx
	}
}

// HashtagPostsFilter is the filter of the hashtag feed as seen by userID
func HashtagPostsFilter(hashtagID, userID int64) Filter {
	return Filter{}.And(
		OnlyWithHashtag(hashtagID),
		OnlyPublic(),
		ExcludeSoftDeleted(),
		ExcludeBlockedFor(userID),
		OnlyPublished(),
		ExcludeReportedAndApproved(),
		ExcludeReportedBy(userID),
		ExcludeBannedCommunitiesFor(userID),
		ExcludeClosed(),
	)
}

func where(name, query string, args ...interface{}) Predicate {
	return Predicate{
		Name: name,
		Apply: func(tx *gorm.DB) *gorm.DB {
			return tx.Where(query, args...)
		},
	}
}

func OnlyWithHashtag(hashtagID int64) Predicate {
	return where("only_with_hashtag",
		"posts.id IN (SELECT post_hashtags.post_id FROM post_hashtags WHERE post_hashtags.hashtag_id = ?)", hashtagID)
}

func OnlyPublic() Predicate {
	return where("only_public", "posts.visibility = ?", models.VisibilityPublic)
}

func ExcludeSoftDeleted() Predicate {
	return where("exclude_soft_deleted", "posts.is_deleted = ?", false)
}

// ExcludeBlockedFor hides authors userID blocked and authors who blocked userID
func ExcludeBlockedFor(userID int64) Predicate {
	return Predicate{
		Name: "exclude_blocked",
		Apply: func(tx *gorm.DB) *gorm.DB {
			return tx.
				Where("posts.creator_id NOT IN (SELECT user_blocks.blocked_id FROM user_blocks WHERE user_blocks.blocker_id = ?)", userID).
				Where("posts.creator_id NOT IN (SELECT user_blocks.blocker_id FROM user_blocks WHERE user_blocks.blocked_id = ?)", userID)
		},
	}
}

func OnlyPublished() Predicate {
	return where("only_published", "posts.status = ?", models.PostStatusPublished)
}

// ExcludeReportedAndApproved hides posts whose report moderators upheld
func ExcludeReportedAndApproved() Predicate {
	return where("exclude_reported_and_approved",
		"posts.id NOT IN (SELECT post_moderations.post_id FROM post_moderations WHERE post_moderations.status = ?)", models.ModerationApproved)
}

func ExcludeReportedBy(userID int64) Predicate {
	return where("exclude_reported_by_viewer",
		"posts.id NOT IN (SELECT post_reports.post_id FROM post_reports WHERE post_reports.reporter_id = ?)", userID)
}

// ExcludeBannedCommunitiesFor hides posts of communities userID is banned
// from. Posts outside any community are kept.
func ExcludeBannedCommunitiesFor(userID int64) Predicate {
	return where("exclude_banned_communities",
		"COALESCE(posts.community_id, 0) NOT IN (SELECT community_bans.community_id FROM community_bans WHERE community_bans.user_id = ?)", userID)
}

func ExcludeClosed() Predicate {
	return where("exclude_closed", "posts.is_closed = ?", false)
}
