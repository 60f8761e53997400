package models

import "time"

// GroupRole represents a user's role within a study group
type GroupRole string

const (
	GroupRoleAdmin     GroupRole = "admin"
	GroupRoleModerator GroupRole = "moderator"
	GroupRoleMember    GroupRole = "member"
)

// Valid reports whether r is one of the known roles
func (r GroupRole) Valid() bool {
	switch r {
	case GroupRoleAdmin, GroupRoleModerator, GroupRoleMember:
		return true
	}
	return false
}

// CanManageMeetings reports whether the role may change any meeting's status
func (r GroupRole) CanManageMeetings() bool {
	return r == GroupRoleAdmin || r == GroupRoleModerator
}

// GroupMembership links a user to a study group
type GroupMembership struct {
	ID       uint      `gorm:"primarykey" json:"id"`
	GroupID  uint      `gorm:"not null;uniqueIndex:idx_group_user" json:"group_id"`
	UserID   uint      `gorm:"not null;uniqueIndex:idx_group_user;index" json:"user_id"`
	Role     GroupRole `gorm:"type:varchar(20);not null;default:'member'" json:"role"`
	JoinedAt time.Time `gorm:"autoCreateTime" json:"joined_at"`

	// Relationships
	User  User       `gorm:"foreignKey:UserID" json:"-"`
	Group StudyGroup `gorm:"foreignKey:GroupID" json:"-"`
}

// TableName keeps the table name stable across drivers
func (GroupMembership) TableName() string {
	return "group_members"
}
