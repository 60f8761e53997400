package models

import "time"

// DefaultMaxMembers applies when a group is created without a capacity
const DefaultMaxMembers = 10

// StudyGroup is a capacity-limited group joined through its invite code
type StudyGroup struct {
	ID          uint      `gorm:"primarykey" json:"id"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
	Name        string    `gorm:"type:varchar(100);not null" json:"name"`
	Description string    `json:"description"`
	CreatorID   uint      `gorm:"not null;index" json:"creator_id"`
	Category    string    `gorm:"type:varchar(50)" json:"category"`
	MaxMembers  int       `gorm:"not null" json:"max_members"`
	IsPrivate   bool      `gorm:"not null" json:"is_private"`
	InviteCode  string    `gorm:"type:varchar(20);uniqueIndex;not null" json:"invite_code"`
	// MemberCount mirrors the number of group_members rows. It is only
	// changed inside the transactions that add memberships.
	MemberCount int `gorm:"not null;default:0" json:"member_count"`

	// Relationships
	Members []GroupMembership `gorm:"foreignKey:GroupID" json:"members,omitempty"`
}

// TableName keeps the table name stable across drivers
func (StudyGroup) TableName() string {
	return "study_groups"
}
