package models

import "time"

// User is the identity record resolved by the auth layer.
// The collaboration packages only ever reference it by ID.
type User struct {
	ID           uint      `gorm:"primarykey" json:"id"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
	Username     string    `gorm:"type:varchar(50);uniqueIndex;not null" json:"username"`
	PasswordHash string    `gorm:"not null" json:"-"`

	// Relationships
	Profile          *UserProfile      `gorm:"foreignKey:UserID" json:"profile,omitempty"`
	GroupMemberships []GroupMembership `gorm:"foreignKey:UserID" json:"group_memberships,omitempty"`
}

// UserProfile holds the optional public-facing data of a user
type UserProfile struct {
	ID                  uint      `gorm:"primarykey" json:"id"`
	CreatedAt           time.Time `json:"created_at"`
	UpdatedAt           time.Time `json:"updated_at"`
	UserID              uint      `gorm:"not null;uniqueIndex" json:"user_id"`
	DisplayName         string    `gorm:"type:varchar(100)" json:"display_name"`
	Bio                 string    `json:"bio"`
	AvatarURL           string    `json:"avatar_url"`
	StudyInterests      []string  `gorm:"serializer:json" json:"study_interests"`
	Timezone            string    `gorm:"type:varchar(64)" json:"timezone"`
	PreferredStudyTimes []string  `gorm:"serializer:json" json:"preferred_study_times"`
	ProductivityScore   int       `json:"productivity_score"`
	IsPublic            bool      `gorm:"not null" json:"is_public"`
}

// UserSummary is the public identity of a user shown next to other records
type UserSummary struct {
	ID                uint   `json:"id"`
	Username          string `json:"username"`
	DisplayName       string `json:"display_name,omitempty"`
	AvatarURL         string `json:"avatar_url,omitempty"`
	ProductivityScore int    `json:"productivity_score"`
}

// Summary returns the public identity fields of u. Profile fields are
// empty when the profile was not loaded or does not exist.
func (u User) Summary() UserSummary {
	s := UserSummary{ID: u.ID, Username: u.Username}
	if u.Profile != nil {
		s.DisplayName = u.Profile.DisplayName
		s.AvatarURL = u.Profile.AvatarURL
		s.ProductivityScore = u.Profile.ProductivityScore
	}
	return s
}
