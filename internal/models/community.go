package models

import (
	"time"
)

// Community represents a community
type Community struct {
	ID    int64  `gorm:"primaryKey;autoIncrement;column:id" json:"id"`
	Name  string `gorm:"type:varchar(32);not null;uniqueIndex:communities_name_ux;column:name" json:"name"`
	Title string `gorm:"type:varchar(32);not null;default:'';column:title" json:"title"`
	Type  string `gorm:"type:char(1);not null;default:'P';column:type" json:"type"`

	// CreatorID is a weak reference. Deleting the user nulls it out, see
	// account.Service.DeleteUser.
	CreatorID *int64    `gorm:"index;column:creator_id" json:"creator_id"`
	CreatedAt time.Time `gorm:"not null;column:created_at" json:"created_at"`
}

// TableName specifies the table name for Community
func (Community) TableName() string {
	return "communities"
}

// IsCreator reports whether userID founded the community
func (c *Community) IsCreator(userID int64) bool {
	return c.CreatorID != nil && *c.CreatorID == userID
}

// Community type constants
const (
	CommunityTypePublic  = "P"
	CommunityTypePrivate = "T"
)

// Role is a member's rank inside one community
type Role int16

// Role constants. Higher values include the permissions of lower ones.
const (
	RoleNone          Role = 0
	RoleMember        Role = 2
	RoleModerator     Role = 4
	RoleAdministrator Role = 6
)

func (r Role) String() string {
	switch r {
	case RoleMember:
		return "member"
	case RoleModerator:
		return "moderator"
	case RoleAdministrator:
		return "administrator"
	default:
		return "none"
	}
}

// AtLeast reports whether r grants the permissions of min
func (r Role) AtLeast(min Role) bool {
	return r >= min
}

// Membership relates a user to a community with a role.
// There is at most one row per (community, user).
type Membership struct {
	CommunityID int64     `gorm:"primaryKey;autoIncrement:false;column:community_id"`
	UserID      int64     `gorm:"primaryKey;autoIncrement:false;index;column:user_id"`
	Role        Role      `gorm:"type:smallint;not null;default:2;index;column:role"`
	CreatedAt   time.Time `gorm:"not null;column:created_at"`
	UpdatedAt   time.Time `gorm:"not null;column:updated_at"`

	User *User `gorm:"foreignKey:UserID;references:ID"`
}

// TableName specifies the table name for Membership
func (Membership) TableName() string {
	return "community_memberships"
}

// CommunityBan records a user banned from a community
type CommunityBan struct {
	CommunityID int64     `gorm:"primaryKey;autoIncrement:false;column:community_id"`
	UserID      int64     `gorm:"primaryKey;autoIncrement:false;index;column:user_id"`
	CreatedAt   time.Time `gorm:"not null;column:created_at"`

	User *User `gorm:"foreignKey:UserID;references:ID"`
}

// TableName specifies the table name for CommunityBan
func (CommunityBan) TableName() string {
	return "community_bans"
}
