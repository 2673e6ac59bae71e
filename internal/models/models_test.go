package models

import "testing"

func TestRole_String(t *testing.T) {
	tests := []struct {
		name     string
		role     Role
		expected string
	}{
		{"none", RoleNone, "none"},
		{"member", RoleMember, "member"},
		{"moderator", RoleModerator, "moderator"},
		{"administrator", RoleAdministrator, "administrator"},
		{"unknown", Role(3), "none"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.role.String(); got != tt.expected {
				t.Errorf("Role(%d).String() = %q, want %q", tt.role, got, tt.expected)
			}
		})
	}
}

func TestRole_AtLeast(t *testing.T) {
	tests := []struct {
		role     Role
		min      Role
		expected bool
	}{
		{RoleAdministrator, RoleModerator, true},
		{RoleAdministrator, RoleAdministrator, true},
		{RoleModerator, RoleModerator, true},
		{RoleModerator, RoleAdministrator, false},
		{RoleMember, RoleModerator, false},
		{RoleNone, RoleMember, false},
	}

	for _, tt := range tests {
		if got := tt.role.AtLeast(tt.min); got != tt.expected {
			t.Errorf("%s.AtLeast(%s) = %v, want %v", tt.role, tt.min, got, tt.expected)
		}
	}
}

func TestAuditAction_Name(t *testing.T) {
	tests := []struct {
		action   AuditAction
		expected string
	}{
		{ActionAddAdministrator, "add_administrator"},
		{ActionRemoveAdministrator, "remove_administrator"},
		{ActionAddModerator, "add_moderator"},
		{ActionRemoveModerator, "remove_moderator"},
		{ActionBanUser, "ban_user"},
		{ActionUnbanUser, "unban_user"},
		{AuditAction("X"), "unknown"},
	}

	for _, tt := range tests {
		t.Run(string(tt.action), func(t *testing.T) {
			if got := tt.action.Name(); got != tt.expected {
				t.Errorf("AuditAction(%q).Name() = %q, want %q", tt.action, got, tt.expected)
			}
		})
	}
}

func TestCommunity_IsCreator(t *testing.T) {
	id := int64(5)
	c := &Community{CreatorID: &id}
	if !c.IsCreator(5) {
		t.Error("IsCreator(5) = false, want true")
	}
	if c.IsCreator(6) {
		t.Error("IsCreator(6) = true, want false")
	}
	if (&Community{}).IsCreator(5) {
		t.Error("IsCreator on a community without creator = true, want false")
	}
}
