package models

import "time"

// DefaultMeetingDuration is used when a meeting is scheduled without a duration
const DefaultMeetingDuration = 60

// MeetingStatus is the lifecycle state of a meeting
type MeetingStatus string

const (
	MeetingScheduled MeetingStatus = "scheduled"
	MeetingOngoing   MeetingStatus = "ongoing"
	MeetingCompleted MeetingStatus = "completed"
	MeetingCancelled MeetingStatus = "cancelled"
)

// Valid reports whether s is one of the known statuses
func (s MeetingStatus) Valid() bool {
	switch s {
	case MeetingScheduled, MeetingOngoing, MeetingCompleted, MeetingCancelled:
		return true
	}
	return false
}

// AttendeeStatus is a user's response and attendance for a meeting
type AttendeeStatus string

const (
	AttendeeInvited  AttendeeStatus = "invited"
	AttendeeAccepted AttendeeStatus = "accepted"
	AttendeeDeclined AttendeeStatus = "declined"
	AttendeeAttended AttendeeStatus = "attended"
)

// Valid reports whether s is one of the known statuses
func (s AttendeeStatus) Valid() bool {
	switch s {
	case AttendeeInvited, AttendeeAccepted, AttendeeDeclined, AttendeeAttended:
		return true
	}
	return false
}

// IsResponse reports whether s is a status an invitee may answer with
func (s AttendeeStatus) IsResponse() bool {
	return s == AttendeeAccepted || s == AttendeeDeclined
}

// Meeting is a scheduled session belonging to a study group
type Meeting struct {
	ID              uint          `gorm:"primarykey" json:"id"`
	CreatedAt       time.Time     `json:"created_at"`
	GroupID         uint          `gorm:"not null;index" json:"group_id"`
	Title           string        `gorm:"type:varchar(200);not null" json:"title"`
	Description     string        `json:"description"`
	ScheduledAt     time.Time     `gorm:"not null;index" json:"scheduled_at"`
	DurationMinutes int           `gorm:"not null" json:"duration_minutes"`
	MeetLink        string        `gorm:"not null" json:"meet_link"`
	CreatedBy       uint          `gorm:"not null;index" json:"created_by"`
	Status          MeetingStatus `gorm:"type:varchar(20);not null;default:'scheduled'" json:"status"`

	// Relationships
	Group     StudyGroup        `gorm:"foreignKey:GroupID" json:"-"`
	Creator   User              `gorm:"foreignKey:CreatedBy" json:"-"`
	Attendees []MeetingAttendee `gorm:"foreignKey:MeetingID" json:"-"`
}

// TableName keeps the table name stable across drivers
func (Meeting) TableName() string {
	return "group_meetings"
}

// MeetingAttendee tracks one user's invitation and attendance for a meeting.
// JoinedAt and LeftAt move independently of Status.
type MeetingAttendee struct {
	ID        uint           `gorm:"primarykey" json:"id"`
	MeetingID uint           `gorm:"not null;uniqueIndex:idx_meeting_user" json:"meeting_id"`
	UserID    uint           `gorm:"not null;uniqueIndex:idx_meeting_user;index" json:"user_id"`
	Status    AttendeeStatus `gorm:"type:varchar(20);not null;default:'invited'" json:"status"`
	JoinedAt  *time.Time     `json:"joined_at"`
	LeftAt    *time.Time     `json:"left_at"`

	// Relationships
	User User `gorm:"foreignKey:UserID" json:"-"`
}
