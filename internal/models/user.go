package models

import (
	"time"
)

// User is an identity known to the service. Authentication lives elsewhere.
type User struct {
	ID        int64     `gorm:"primaryKey;autoIncrement;column:id" json:"id"`
	Username  string    `gorm:"type:varchar(30);not null;uniqueIndex:users_username_ux;column:username" json:"username"`
	CreatedAt time.Time `gorm:"not null;column:created_at" json:"created_at"`
}

// TableName specifies the table name for User
func (User) TableName() string {
	return "users"
}

// UserBlock records that Blocker blocked Blocked
type UserBlock struct {
	BlockerID int64     `gorm:"primaryKey;autoIncrement:false;column:blocker_id"`
	BlockedID int64     `gorm:"primaryKey;autoIncrement:false;index;column:blocked_id"`
	CreatedAt time.Time `gorm:"not null;column:created_at"`
}

// TableName specifies the table name for UserBlock
func (UserBlock) TableName() string {
	return "user_blocks"
}
