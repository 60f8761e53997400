package meetings

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/vjfocus/focushub/pkg/focushub/apperr"
	"github.com/vjfocus/focushub/pkg/focushub/auth"
	"github.com/vjfocus/focushub/pkg/focushub/models"
)

// Handler handles meeting requests
type Handler struct {
	coordinator *Coordinator
}

// NewHandler creates a new meetings handler
func NewHandler(coordinator *Coordinator) *Handler {
	return &Handler{coordinator: coordinator}
}

// ScheduleMeetingRequest represents the request to schedule a meeting
type ScheduleMeetingRequest struct {
	GroupID         uint       `json:"group_id"`
	Title           string     `json:"title"`
	Description     string     `json:"description"`
	ScheduledAt     *time.Time `json:"scheduled_at"`
	DurationMinutes int        `json:"duration_minutes"`
}

// RespondRequest represents an answer to a meeting invitation
type RespondRequest struct {
	Status models.AttendeeStatus `json:"status"`
}

// UpdateStatusRequest represents a meeting status change
type UpdateStatusRequest struct {
	Status models.MeetingStatus `json:"status"`
}

func parseID(c *gin.Context, param, msg string) (uint, bool) {
	id, err := strconv.ParseUint(c.Param(param), 10, 32)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": msg})
		return 0, false
	}
	return uint(id), true
}

// Schedule creates a meeting in a group and invites its members
// @Summary Schedule a meeting
// @Tags meetings
// @Accept json
// @Produce json
// @Param request body ScheduleMeetingRequest true "Meeting details"
// @Success 201 {object} models.Meeting
// @Failure 400 {object} map[string]string "Validation error"
// @Failure 403 {object} map[string]string "Not a member of the group"
// @Security BearerAuth
// @Router /meetings [post]
func (h *Handler) Schedule(c *gin.Context) {
	userID, _ := auth.GetUserID(c)

	var req ScheduleMeetingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	params := ScheduleParams{
		GroupID:         req.GroupID,
		Title:           req.Title,
		Description:     req.Description,
		DurationMinutes: req.DurationMinutes,
	}
	if req.ScheduledAt != nil {
		params.ScheduledAt = *req.ScheduledAt
	}

	meeting, err := h.coordinator.Schedule(c.Request.Context(), userID, params)
	if err != nil {
		apperr.Respond(c, err)
		return
	}

	c.JSON(http.StatusCreated, meeting)
}

// ListForGroup returns the meetings of a group
// @Summary List group meetings
// @Tags meetings
// @Produce json
// @Param groupId path int true "Group ID"
// @Success 200 {array} GroupMeeting
// @Failure 403 {object} map[string]string "Not a member of the group"
// @Security BearerAuth
// @Router /meetings/group/{groupId} [get]
func (h *Handler) ListForGroup(c *gin.Context) {
	userID, _ := auth.GetUserID(c)
	groupID, ok := parseID(c, "groupId", "Invalid group ID")
	if !ok {
		return
	}

	meetings, err := h.coordinator.ListForGroup(c.Request.Context(), userID, groupID)
	if err != nil {
		apperr.Respond(c, err)
		return
	}

	c.JSON(http.StatusOK, meetings)
}

// Upcoming returns the current user's next meetings
// @Summary List upcoming meetings
// @Tags meetings
// @Produce json
// @Success 200 {array} UpcomingMeeting
// @Security BearerAuth
// @Router /meetings/upcoming [get]
func (h *Handler) Upcoming(c *gin.Context) {
	userID, _ := auth.GetUserID(c)

	meetings, err := h.coordinator.ListUpcomingForUser(c.Request.Context(), userID)
	if err != nil {
		apperr.Respond(c, err)
		return
	}

	c.JSON(http.StatusOK, meetings)
}

// Respond answers a meeting invitation
// @Summary Respond to a meeting invitation
// @Tags meetings
// @Accept json
// @Produce json
// @Param meetingId path int true "Meeting ID"
// @Param request body RespondRequest true "accepted or declined"
// @Success 200 {object} models.MeetingAttendee
// @Failure 400 {object} map[string]string "Invalid status"
// @Failure 404 {object} map[string]string "Meeting invitation not found"
// @Security BearerAuth
// @Router /meetings/{meetingId}/respond [put]
func (h *Handler) Respond(c *gin.Context) {
	userID, _ := auth.GetUserID(c)
	meetingID, ok := parseID(c, "meetingId", "Invalid meeting ID")
	if !ok {
		return
	}

	var req RespondRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid status"})
		return
	}

	attendee, err := h.coordinator.Respond(c.Request.Context(), userID, meetingID, req.Status)
	if err != nil {
		apperr.Respond(c, err)
		return
	}

	c.JSON(http.StatusOK, attendee)
}

// Join marks the current user as attending a meeting
// @Summary Join a meeting
// @Tags meetings
// @Produce json
// @Param meetingId path int true "Meeting ID"
// @Success 200 {object} JoinResult
// @Failure 404 {object} map[string]string "Meeting not found or not invited"
// @Security BearerAuth
// @Router /meetings/{meetingId}/join [post]
func (h *Handler) Join(c *gin.Context) {
	userID, _ := auth.GetUserID(c)
	meetingID, ok := parseID(c, "meetingId", "Invalid meeting ID")
	if !ok {
		return
	}

	result, err := h.coordinator.Join(c.Request.Context(), userID, meetingID)
	if err != nil {
		apperr.Respond(c, err)
		return
	}

	c.JSON(http.StatusOK, result)
}

// Leave records that the current user left a meeting
// @Summary Leave a meeting
// @Tags meetings
// @Produce json
// @Param meetingId path int true "Meeting ID"
// @Success 200 {object} models.MeetingAttendee
// @Failure 404 {object} map[string]string "Meeting not found or not joined"
// @Security BearerAuth
// @Router /meetings/{meetingId}/leave [post]
func (h *Handler) Leave(c *gin.Context) {
	userID, _ := auth.GetUserID(c)
	meetingID, ok := parseID(c, "meetingId", "Invalid meeting ID")
	if !ok {
		return
	}

	attendee, err := h.coordinator.Leave(c.Request.Context(), userID, meetingID)
	if err != nil {
		apperr.Respond(c, err)
		return
	}

	c.JSON(http.StatusOK, attendee)
}

// Attendees lists the attendees of a meeting
// @Summary List meeting attendees
// @Tags meetings
// @Produce json
// @Param meetingId path int true "Meeting ID"
// @Success 200 {array} Attendee
// @Failure 403 {object} map[string]string "Access denied"
// @Security BearerAuth
// @Router /meetings/{meetingId}/attendees [get]
func (h *Handler) Attendees(c *gin.Context) {
	userID, _ := auth.GetUserID(c)
	meetingID, ok := parseID(c, "meetingId", "Invalid meeting ID")
	if !ok {
		return
	}

	attendees, err := h.coordinator.ListAttendees(c.Request.Context(), userID, meetingID)
	if err != nil {
		apperr.Respond(c, err)
		return
	}

	c.JSON(http.StatusOK, attendees)
}

// UpdateStatus changes a meeting's status
// @Summary Update meeting status
// @Tags meetings
// @Accept json
// @Produce json
// @Param meetingId path int true "Meeting ID"
// @Param request body UpdateStatusRequest true "New status"
// @Success 200 {object} models.Meeting
// @Failure 400 {object} map[string]string "Invalid status"
// @Failure 403 {object} map[string]string "Permission denied"
// @Security BearerAuth
// @Router /meetings/{meetingId}/status [put]
func (h *Handler) UpdateStatus(c *gin.Context) {
	userID, _ := auth.GetUserID(c)
	meetingID, ok := parseID(c, "meetingId", "Invalid meeting ID")
	if !ok {
		return
	}

	var req UpdateStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid status"})
		return
	}

	meeting, err := h.coordinator.UpdateStatus(c.Request.Context(), userID, meetingID, req.Status)
	if err != nil {
		apperr.Respond(c, err)
		return
	}

	c.JSON(http.StatusOK, meeting)
}

// RegisterRoutes registers meeting routes
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.POST("", h.Schedule)
	rg.GET("/group/:groupId", h.ListForGroup)
	rg.GET("/upcoming", h.Upcoming)
	rg.PUT("/:meetingId/respond", h.Respond)
	rg.POST("/:meetingId/join", h.Join)
	rg.POST("/:meetingId/leave", h.Leave)
	rg.GET("/:meetingId/attendees", h.Attendees)
	rg.PUT("/:meetingId/status", h.UpdateStatus)
}
