package groups

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/vjfocus/focushub/pkg/focushub/apperr"
	"github.com/vjfocus/focushub/pkg/focushub/auth"
	"github.com/vjfocus/focushub/pkg/focushub/models"
)

// Handler handles study group requests
type Handler struct {
	registry *Registry
}

// NewHandler creates a new groups handler
func NewHandler(registry *Registry) *Handler {
	return &Handler{registry: registry}
}

// CreateGroupRequest represents the request to create a group
type CreateGroupRequest struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	Category    string `json:"category"`
	MaxMembers  int    `json:"max_members" binding:"gte=0"`
	IsPrivate   bool   `json:"is_private"`
}

// JoinGroupRequest represents the request to join a group by invite code
type JoinGroupRequest struct {
	InviteCode string `json:"invite_code" binding:"required"`
}

// JoinGroupResponse is returned after a successful join
type JoinGroupResponse struct {
	Message string            `json:"message"`
	Group   models.StudyGroup `json:"group"`
}

// Create creates a new study group with the current user as admin
// @Summary Create a study group
// @Tags groups
// @Accept json
// @Produce json
// @Param request body CreateGroupRequest true "Group details"
// @Success 201 {object} models.StudyGroup
// @Failure 400 {object} map[string]string "Validation error"
// @Security BearerAuth
// @Router /social/groups [post]
func (h *Handler) Create(c *gin.Context) {
	userID, _ := auth.GetUserID(c)

	var req CreateGroupRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	group, err := h.registry.Create(c.Request.Context(), userID, CreateParams{
		Name:        req.Name,
		Description: req.Description,
		Category:    req.Category,
		MaxMembers:  req.MaxMembers,
		IsPrivate:   req.IsPrivate,
	})
	if err != nil {
		apperr.Respond(c, err)
		return
	}

	c.JSON(http.StatusCreated, group)
}

// List returns all groups the current user is a member of
// @Summary List my groups
// @Tags groups
// @Produce json
// @Success 200 {array} Membership
// @Security BearerAuth
// @Router /social/groups [get]
func (h *Handler) List(c *gin.Context) {
	userID, _ := auth.GetUserID(c)

	groups, err := h.registry.ListForUser(c.Request.Context(), userID)
	if err != nil {
		apperr.Respond(c, err)
		return
	}

	c.JSON(http.StatusOK, groups)
}

// Join adds the current user to the group holding the invite code
// @Summary Join a group by invite code
// @Tags groups
// @Accept json
// @Produce json
// @Param request body JoinGroupRequest true "Invite code"
// @Success 200 {object} JoinGroupResponse
// @Failure 404 {object} map[string]string "Invalid invite code"
// @Failure 409 {object} map[string]string "Already a member or group is full"
// @Security BearerAuth
// @Router /social/groups/join [post]
func (h *Handler) Join(c *gin.Context) {
	userID, _ := auth.GetUserID(c)

	var req JoinGroupRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	group, err := h.registry.JoinByInviteCode(c.Request.Context(), userID, req.InviteCode)
	if err != nil {
		apperr.Respond(c, err)
		return
	}

	c.JSON(http.StatusOK, JoinGroupResponse{Message: "Successfully joined group", Group: *group})
}

// RegisterRoutes registers study group routes
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.GET("/groups", h.List)
	rg.POST("/groups", h.Create)
	rg.POST("/groups/join", h.Join)
}
