package models

import (
	"time"
)

// Post visibility and status values
const (
	VisibilityPublic  = "public"
	VisibilityPrivate = "private"

	PostStatusDraft      = "D"
	PostStatusProcessing = "PG"
	PostStatusPublished  = "P"
)

// Post is read by the feeds, never mutated by them
type Post struct {
	ID          int64     `gorm:"primaryKey;autoIncrement;column:id" json:"id"`
	CreatorID   int64     `gorm:"not null;index;column:creator_id" json:"creator_id"`
	CommunityID *int64    `gorm:"index;column:community_id" json:"community_id,omitempty"`
	Text        string    `gorm:"type:text;column:text" json:"text"`
	Visibility  string    `gorm:"type:varchar(10);not null;default:'public';column:visibility" json:"visibility"`
	Status      string    `gorm:"type:varchar(2);not null;default:'D';column:status" json:"status"`
	IsDeleted   bool      `gorm:"not null;default:false;column:is_deleted" json:"-"`
	IsClosed    bool      `gorm:"not null;default:false;column:is_closed" json:"is_closed"`
	CreatedAt   time.Time `gorm:"not null;column:created_at" json:"created_at"`

	Creator *User `gorm:"foreignKey:CreatorID;references:ID" json:"creator,omitempty"`
}

// TableName specifies the table name for Post
func (Post) TableName() string {
	return "posts"
}

// Hashtag is a normalised #tag
type Hashtag struct {
	ID   int64  `gorm:"primaryKey;autoIncrement;column:id" json:"id"`
	Name string `gorm:"type:varchar(32);not null;uniqueIndex:hashtags_name_ux;column:name" json:"name"`
}

// TableName specifies the table name for Hashtag
func (Hashtag) TableName() string {
	return "hashtags"
}

// PostHashtag represents a post-to-hashtag mapping
type PostHashtag struct {
	PostID    int64 `gorm:"primaryKey;autoIncrement:false;column:post_id"`
	HashtagID int64 `gorm:"primaryKey;autoIncrement:false;index;column:hashtag_id"`
}

// TableName specifies the table name for PostHashtag
func (PostHashtag) TableName() string {
	return "post_hashtags"
}

// PostReport is a user's report against a post
type PostReport struct {
	PostID     int64     `gorm:"primaryKey;autoIncrement:false;column:post_id"`
	ReporterID int64     `gorm:"primaryKey;autoIncrement:false;index;column:reporter_id"`
	CreatedAt  time.Time `gorm:"not null;column:created_at"`
}

// TableName specifies the table name for PostReport
func (PostReport) TableName() string {
	return "post_reports"
}

// Moderation outcomes
const (
	ModerationPending  = "P"
	ModerationApproved = "A"
	ModerationRejected = "R"
)

// PostModeration is the moderators' verdict on a reported post.
// Approved means the report was upheld.
type PostModeration struct {
	PostID    int64     `gorm:"primaryKey;autoIncrement:false;column:post_id"`
	Status    string    `gorm:"type:char(1);not null;default:'P';column:status"`
	UpdatedAt time.Time `gorm:"not null;column:updated_at"`
}

// TableName specifies the table name for PostModeration
func (PostModeration) TableName() string {
	return "post_moderations"
}

// All lists every model for migrations
func All() []interface{} {
	return []interface{}{
		&User{},
		&UserBlock{},
		&Community{},
		&Membership{},
		&CommunityBan{},
		&AuditLogEntry{},
		&Category{},
		&Post{},
		&Hashtag{},
		&PostHashtag{},
		&PostReport{},
		&PostModeration{},
	}
}
