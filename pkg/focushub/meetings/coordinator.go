// Package meetings schedules group meetings and tracks each invited
// member's response and attendance.
package meetings

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/vjfocus/focushub/pkg/focushub/apperr"
	"github.com/vjfocus/focushub/pkg/focushub/groups"
	"github.com/vjfocus/focushub/pkg/focushub/models"
)

const (
	upcomingLimit   = 10
	attendeeBatch   = 100
	missingFieldMsg = "Group ID, title, and scheduled time are required"
)

// Directory is the slice of the group registry the coordinator needs
type Directory interface {
	MembershipOf(ctx context.Context, groupID, userID uint) (*models.GroupMembership, error)
	RosterOf(ctx context.Context, groupID uint) ([]uint, error)
}

// ScheduleParams are the caller-supplied fields of a new meeting
type ScheduleParams struct {
	GroupID         uint
	Title           string
	Description     string
	ScheduledAt     time.Time
	DurationMinutes int // 0 means models.DefaultMeetingDuration
}

// GroupMeeting is a meeting listed for its group
type GroupMeeting struct {
	models.Meeting
	Creator           models.UserSummary `json:"creator"`
	TotalAttendees    int64              `json:"total_attendees"`
	AcceptedAttendees int64              `json:"accepted_attendees"`
}

// UpcomingMeeting is a meeting listed for one of its attendees
type UpcomingMeeting struct {
	models.Meeting
	GroupName        string                `json:"group_name"`
	AttendanceStatus models.AttendeeStatus `json:"attendance_status"`
	Creator          models.UserSummary    `json:"creator"`
}

// Attendee is an attendee row with the attendee's public identity
type Attendee struct {
	models.MeetingAttendee
	User models.UserSummary `json:"user"`
}

// JoinResult is returned when a user joins a meeting
type JoinResult struct {
	Attendance models.MeetingAttendee `json:"attendance"`
	Meeting    models.Meeting         `json:"meeting"`
}

// Coordinator manages meetings and their attendees
type Coordinator struct {
	db        *gorm.DB
	directory func(tx *gorm.DB) Directory
	log       logrus.FieldLogger
	now       func() time.Time
	newLink   func() string
}

// NewCoordinator creates a meeting coordinator. Membership and roster
// lookups go through registry on the same transaction as the write.
func NewCoordinator(db *gorm.DB, registry *groups.Registry, log logrus.FieldLogger, meetBaseURL string) *Coordinator {
	return &Coordinator{
		db:        db,
		directory: func(tx *gorm.DB) Directory { return registry.In(tx) },
		log:       log,
		now:       func() time.Time { return time.Now().UTC() },
		newLink:   MeetLinkGenerator(meetBaseURL),
	}
}

// WithClock replaces the time source; used by tests
func (c *Coordinator) WithClock(now func() time.Time) *Coordinator {
	c.now = now
	return c
}

// MeetLinkGenerator returns a source of opaque join links under baseURL
func MeetLinkGenerator(baseURL string) func() string {
	base := strings.TrimRight(baseURL, "/")
	return func() string {
		raw := strings.ReplaceAll(uuid.NewString(), "-", "")
		return fmt.Sprintf("%s/%s-%s-%s", base, raw[0:3], raw[3:7], raw[7:10])
	}
}

// requireMember maps a missing membership onto Forbidden
func requireMember(ctx context.Context, dir Directory, op string, groupID, userID uint, msg string) (*models.GroupMembership, error) {
	membership, err := dir.MembershipOf(ctx, groupID, userID)
	if errors.Is(err, apperr.ErrNotFound) {
		return nil, apperr.Forbidden(op, msg)
	}
	return membership, err
}

// Schedule creates a meeting in a group and invites every current member.
// The creator is seeded as accepted. The meeting and all attendee rows are
// written in one transaction.
func (c *Coordinator) Schedule(ctx context.Context, creatorID uint, params ScheduleParams) (*models.Meeting, error) {
	const op = "meetings.Schedule"

	title := strings.TrimSpace(params.Title)
	if params.GroupID == 0 || title == "" || params.ScheduledAt.IsZero() {
		return nil, apperr.InvalidArgument(op, missingFieldMsg)
	}
	duration := params.DurationMinutes
	if duration == 0 {
		duration = models.DefaultMeetingDuration
	}
	if duration < 0 {
		return nil, apperr.InvalidArgument(op, "Duration must be positive")
	}

	meeting := models.Meeting{
		GroupID:         params.GroupID,
		Title:           title,
		Description:     params.Description,
		ScheduledAt:     params.ScheduledAt.UTC(),
		DurationMinutes: duration,
		MeetLink:        c.newLink(),
		CreatedBy:       creatorID,
		Status:          models.MeetingScheduled,
		CreatedAt:       c.now(),
	}

	var invited int
	err := c.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		dir := c.directory(tx)
		if _, err := requireMember(ctx, dir, op, params.GroupID, creatorID, "You are not a member of this group"); err != nil {
			return err
		}

		if err := tx.Omit(clause.Associations).Create(&meeting).Error; err != nil {
			return err
		}

		roster, err := dir.RosterOf(ctx, params.GroupID)
		if err != nil {
			return err
		}
		attendees := make([]models.MeetingAttendee, len(roster))
		for i, userID := range roster {
			status := models.AttendeeInvited
			if userID == creatorID {
				status = models.AttendeeAccepted
			}
			attendees[i] = models.MeetingAttendee{MeetingID: meeting.ID, UserID: userID, Status: status}
		}
		invited = len(attendees)
		if invited == 0 {
			return nil
		}
		return tx.Omit(clause.Associations).CreateInBatches(&attendees, attendeeBatch).Error
	})
	if err != nil {
		return nil, apperr.FromDB(op, err, "")
	}

	c.log.WithFields(logrus.Fields{
		"meeting_id": meeting.ID,
		"group_id":   meeting.GroupID,
		"created_by": creatorID,
		"invited":    invited,
	}).Info("meeting scheduled")
	return &meeting, nil
}

type attendeeCounts struct {
	MeetingID uint
	Total     int64
	Accepted  int64
}

// ListForGroup returns a group's meetings in schedule order. Only members
// of the group may list them.
func (c *Coordinator) ListForGroup(ctx context.Context, callerID, groupID uint) ([]GroupMeeting, error) {
	const op = "meetings.ListForGroup"

	db := c.db.WithContext(ctx)
	if _, err := requireMember(ctx, c.directory(db), op, groupID, callerID, "You are not a member of this group"); err != nil {
		return nil, err
	}

	var meetings []models.Meeting
	if err := db.Preload("Creator.Profile").
		Where("group_id = ?", groupID).
		Order("scheduled_at ASC, id ASC").
		Find(&meetings).Error; err != nil {
		return nil, apperr.Internal(op, err)
	}
	if len(meetings) == 0 {
		return []GroupMeeting{}, nil
	}

	ids := make([]uint, len(meetings))
	for i := range meetings {
		ids[i] = meetings[i].ID
	}
	var counts []attendeeCounts
	if err := db.Model(&models.MeetingAttendee{}).
		Select("meeting_id, COUNT(*) AS total, COUNT(CASE WHEN status = ? THEN 1 END) AS accepted", models.AttendeeAccepted).
		Where("meeting_id IN ?", ids).
		Group("meeting_id").
		Scan(&counts).Error; err != nil {
		return nil, apperr.Internal(op, err)
	}
	byMeeting := make(map[uint]attendeeCounts, len(counts))
	for _, ac := range counts {
		byMeeting[ac.MeetingID] = ac
	}

	result := make([]GroupMeeting, len(meetings))
	for i, m := range meetings {
		ac := byMeeting[m.ID]
		result[i] = GroupMeeting{
			Meeting:           m,
			Creator:           m.Creator.Summary(),
			TotalAttendees:    ac.Total,
			AcceptedAttendees: ac.Accepted,
		}
	}
	return result, nil
}

// ListUpcomingForUser returns the nearest future meetings userID is
// invited to across all groups, skipping cancelled ones.
func (c *Coordinator) ListUpcomingForUser(ctx context.Context, userID uint) ([]UpcomingMeeting, error) {
	const op = "meetings.ListUpcomingForUser"

	db := c.db.WithContext(ctx)
	var meetings []models.Meeting
	if err := db.Select("group_meetings.*").
		Preload("Group").
		Preload("Creator.Profile").
		Joins("JOIN meeting_attendees ON meeting_attendees.meeting_id = group_meetings.id").
		Where("meeting_attendees.user_id = ? AND group_meetings.scheduled_at > ? AND group_meetings.status <> ?",
			userID, c.now(), models.MeetingCancelled).
		Order("group_meetings.scheduled_at ASC, group_meetings.id ASC").
		Limit(upcomingLimit).
		Find(&meetings).Error; err != nil {
		return nil, apperr.Internal(op, err)
	}
	if len(meetings) == 0 {
		return []UpcomingMeeting{}, nil
	}

	statuses, err := c.attendanceOf(db, userID, meetings)
	if err != nil {
		return nil, apperr.Internal(op, err)
	}

	result := make([]UpcomingMeeting, len(meetings))
	for i, m := range meetings {
		result[i] = UpcomingMeeting{
			Meeting:          m,
			GroupName:        m.Group.Name,
			AttendanceStatus: statuses[m.ID],
			Creator:          m.Creator.Summary(),
		}
	}
	return result, nil
}

func (c *Coordinator) attendanceOf(db *gorm.DB, userID uint, meetings []models.Meeting) (map[uint]models.AttendeeStatus, error) {
	ids := make([]uint, len(meetings))
	for i := range meetings {
		ids[i] = meetings[i].ID
	}
	var rows []models.MeetingAttendee
	if err := db.Select("meeting_id", "status").
		Where("user_id = ? AND meeting_id IN ?", userID, ids).
		Find(&rows).Error; err != nil {
		return nil, err
	}
	statuses := make(map[uint]models.AttendeeStatus, len(rows))
	for _, r := range rows {
		statuses[r.MeetingID] = r.Status
	}
	return statuses, nil
}

// Respond records userID's answer to a meeting invitation. It may be
// called any number of times.
func (c *Coordinator) Respond(ctx context.Context, userID, meetingID uint, status models.AttendeeStatus) (*models.MeetingAttendee, error) {
	const op = "meetings.Respond"

	if !status.IsResponse() {
		return nil, apperr.InvalidArgument(op, "Invalid status")
	}

	var attendee *models.MeetingAttendee
	err := c.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var err error
		attendee, err = updateAttendee(tx, op, userID, meetingID, false,
			map[string]interface{}{"status": status}, "Meeting invitation not found")
		return err
	})
	if err != nil {
		return nil, apperr.FromDB(op, err, "Meeting invitation not found")
	}

	c.log.WithFields(logrus.Fields{
		"meeting_id": meetingID,
		"user_id":    userID,
		"status":     status,
	}).Info("meeting invitation answered")
	return attendee, nil
}

// Join marks userID as attended and stamps the join time. Earlier status
// and join time are overwritten.
func (c *Coordinator) Join(ctx context.Context, userID, meetingID uint) (*JoinResult, error) {
	const op = "meetings.Join"

	var result JoinResult
	err := c.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		attendee, err := updateAttendee(tx, op, userID, meetingID, false, map[string]interface{}{
			"status":    models.AttendeeAttended,
			"joined_at": c.now(),
		}, "Meeting not found or not invited")
		if err != nil {
			return err
		}
		result.Attendance = *attendee
		return tx.First(&result.Meeting, meetingID).Error
	})
	if err != nil {
		return nil, apperr.FromDB(op, err, "Meeting not found")
	}

	c.log.WithFields(logrus.Fields{
		"meeting_id": meetingID,
		"user_id":    userID,
	}).Info("meeting joined")
	return &result, nil
}

// Leave stamps the leave time for a user who has joined. Status is left
// as it is.
func (c *Coordinator) Leave(ctx context.Context, userID, meetingID uint) (*models.MeetingAttendee, error) {
	const op = "meetings.Leave"

	var attendee *models.MeetingAttendee
	err := c.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var err error
		attendee, err = updateAttendee(tx, op, userID, meetingID, true,
			map[string]interface{}{"left_at": c.now()}, "Meeting not found or not joined")
		return err
	})
	if err != nil {
		return nil, apperr.FromDB(op, err, "Meeting not found or not joined")
	}

	c.log.WithFields(logrus.Fields{
		"meeting_id": meetingID,
		"user_id":    userID,
	}).Info("meeting left")
	return attendee, nil
}

// updateAttendee applies values to the (meetingID, userID) attendee row on
// tx and returns the row as stored. joinedOnly restricts the update to
// rows with a join time.
func updateAttendee(tx *gorm.DB, op string, userID, meetingID uint, joinedOnly bool, values map[string]interface{}, notFound string) (*models.MeetingAttendee, error) {
	query := tx.Where("meeting_id = ? AND user_id = ?", meetingID, userID)
	if joinedOnly {
		query = query.Where("joined_at IS NOT NULL")
	}
	var attendee models.MeetingAttendee
	if err := query.First(&attendee).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.NotFound(op, notFound)
		}
		return nil, err
	}

	if err := tx.Model(&attendee).Updates(values).Error; err != nil {
		return nil, err
	}
	if err := tx.First(&attendee, attendee.ID).Error; err != nil {
		return nil, err
	}
	return &attendee, nil
}

// ListAttendees returns every attendee of a meeting ordered by status then
// username. Only attendees of the meeting may list them.
func (c *Coordinator) ListAttendees(ctx context.Context, callerID, meetingID uint) ([]Attendee, error) {
	const op = "meetings.ListAttendees"

	db := c.db.WithContext(ctx)
	var access int64
	if err := db.Model(&models.MeetingAttendee{}).
		Where("meeting_id = ? AND user_id = ?", meetingID, callerID).
		Count(&access).Error; err != nil {
		return nil, apperr.Internal(op, err)
	}
	if access == 0 {
		return nil, apperr.Forbidden(op, "Access denied")
	}

	var rows []models.MeetingAttendee
	if err := db.Select("meeting_attendees.*").
		Preload("User.Profile").
		Joins("JOIN users ON users.id = meeting_attendees.user_id").
		Where("meeting_attendees.meeting_id = ?", meetingID).
		Order("meeting_attendees.status ASC, users.username ASC").
		Find(&rows).Error; err != nil {
		return nil, apperr.Internal(op, err)
	}

	attendees := make([]Attendee, len(rows))
	for i, r := range rows {
		attendees[i] = Attendee{MeetingAttendee: r, User: r.User.Summary()}
	}
	return attendees, nil
}

// UpdateStatus sets a meeting's status. The caller must be a member of the
// meeting's group and either its creator or an admin or moderator. Any
// status may follow any other.
func (c *Coordinator) UpdateStatus(ctx context.Context, callerID, meetingID uint, status models.MeetingStatus) (*models.Meeting, error) {
	const op = "meetings.UpdateStatus"

	if !status.Valid() {
		return nil, apperr.InvalidArgument(op, "Invalid status")
	}

	var meeting models.Meeting
	err := c.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&meeting, meetingID).Error; err != nil {
			return apperr.FromDB(op, err, "Meeting not found")
		}

		membership, err := requireMember(ctx, c.directory(tx), op, meeting.GroupID, callerID, "Permission denied")
		if err != nil {
			return err
		}
		if meeting.CreatedBy != callerID && !membership.Role.CanManageMeetings() {
			return apperr.Forbidden(op, "Permission denied")
		}

		if err := tx.Model(&meeting).UpdateColumn("status", status).Error; err != nil {
			return err
		}
		meeting.Status = status
		return nil
	})
	if err != nil {
		return nil, apperr.FromDB(op, err, "Meeting not found")
	}

	c.log.WithFields(logrus.Fields{
		"meeting_id": meetingID,
		"changed_by": callerID,
		"status":     status,
	}).Info("meeting status changed")
	return &meeting, nil
}

// CompletedForUser returns the completed meetings userID was invited to,
// most recent first. It never modifies state.
func (c *Coordinator) CompletedForUser(ctx context.Context, userID uint) ([]models.Meeting, error) {
	var meetings []models.Meeting
	if err := c.db.WithContext(ctx).
		Select("group_meetings.*").
		Joins("JOIN meeting_attendees ON meeting_attendees.meeting_id = group_meetings.id").
		Where("meeting_attendees.user_id = ? AND group_meetings.status = ?", userID, models.MeetingCompleted).
		Order("group_meetings.scheduled_at DESC, group_meetings.id DESC").
		Find(&meetings).Error; err != nil {
		return nil, apperr.Internal("meetings.CompletedForUser", err)
	}
	return meetings, nil
}
