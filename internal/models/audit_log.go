package models

import (
	"time"
)

// AuditAction is the code stored in audit_log_entries.action_type
type AuditAction string

// Audit action codes
const (
	ActionAddAdministrator    AuditAction = "AA"
	ActionRemoveAdministrator AuditAction = "RA"
	ActionAddModerator        AuditAction = "AM"
	ActionRemoveModerator     AuditAction = "RM"
	ActionBanUser             AuditAction = "B"
	ActionUnbanUser           AuditAction = "U"
)

// Name returns the long name used in logs and events
func (a AuditAction) Name() string {
	switch a {
	case ActionAddAdministrator:
		return "add_administrator"
	case ActionRemoveAdministrator:
		return "remove_administrator"
	case ActionAddModerator:
		return "add_moderator"
	case ActionRemoveModerator:
		return "remove_moderator"
	case ActionBanUser:
		return "ban_user"
	case ActionUnbanUser:
		return "unban_user"
	default:
		return "unknown"
	}
}

// AuditLogEntry is an immutable record of a role-changing action.
// User ids are kept as plain values so the entry survives user deletion.
type AuditLogEntry struct {
	ID           int64       `gorm:"primaryKey;autoIncrement;column:id" json:"id"`
	CommunityID  int64       `gorm:"not null;index:audit_log_community_idx;column:community_id" json:"community_id"`
	ActionType   AuditAction `gorm:"type:varchar(2);not null;column:action_type" json:"action_type"`
	SourceUserID int64       `gorm:"not null;column:source_user_id" json:"source_user_id"`
	TargetUserID int64       `gorm:"not null;column:target_user_id" json:"target_user_id"`
	CreatedAt    time.Time   `gorm:"not null;column:created_at" json:"created_at"`
}

// TableName specifies the table name for AuditLogEntry
func (AuditLogEntry) TableName() string {
	return "community_audit_log"
}
