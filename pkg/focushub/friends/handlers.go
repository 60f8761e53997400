package friends

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/vjfocus/focushub/pkg/focushub/apperr"
	"github.com/vjfocus/focushub/pkg/focushub/auth"
	"github.com/vjfocus/focushub/pkg/focushub/models"
)

// Handler handles friendship requests
type Handler struct {
	ledger *Ledger
}

// NewHandler creates a new friends handler
func NewHandler(ledger *Ledger) *Handler {
	return &Handler{ledger: ledger}
}

// SendRequestRequest represents a friend request
type SendRequestRequest struct {
	AddresseeID uint `json:"addressee_id" binding:"required"`
}

// RespondRequest represents the answer to a friend request
type RespondRequest struct {
	FriendshipID uint   `json:"friendship_id" binding:"required"`
	Status       string `json:"status" binding:"required,oneof=accepted declined"`
}

// VisibilityResponse reports whether the caller may view another user's private data
type VisibilityResponse struct {
	UserID  uint `json:"user_id"`
	CanView bool `json:"can_view"`
}

// SendRequest sends a friend request from the current user
// @Summary Send friend request
// @Tags friends
// @Accept json
// @Produce json
// @Param request body SendRequestRequest true "Addressee"
// @Success 201 {object} models.Friendship
// @Failure 400 {object} map[string]string "Request to self"
// @Failure 409 {object} map[string]string "Friendship already exists"
// @Security BearerAuth
// @Router /social/friends/request [post]
func (h *Handler) SendRequest(c *gin.Context) {
	userID, _ := auth.GetUserID(c)

	var req SendRequestRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	friendship, err := h.ledger.SendRequest(c.Request.Context(), userID, req.AddresseeID)
	if err != nil {
		apperr.Respond(c, err)
		return
	}

	c.JSON(http.StatusCreated, friendship)
}

// Respond accepts or declines a pending friend request
// @Summary Respond to friend request
// @Tags friends
// @Accept json
// @Produce json
// @Param request body RespondRequest true "Response"
// @Success 200 {object} models.Friendship
// @Failure 404 {object} map[string]string "Friend request not found"
// @Security BearerAuth
// @Router /social/friends/respond [put]
func (h *Handler) Respond(c *gin.Context) {
	userID, _ := auth.GetUserID(c)

	var req RespondRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid status"})
		return
	}

	friendship, err := h.ledger.Respond(c.Request.Context(), userID, req.FriendshipID, models.FriendshipStatus(req.Status))
	if err != nil {
		apperr.Respond(c, err)
		return
	}

	c.JSON(http.StatusOK, friendship)
}

// List returns all friendships of the current user
// @Summary List friends
// @Tags friends
// @Produce json
// @Success 200 {array} Entry
// @Security BearerAuth
// @Router /social/friends [get]
func (h *Handler) List(c *gin.Context) {
	userID, _ := auth.GetUserID(c)

	entries, err := h.ledger.List(c.Request.Context(), userID)
	if err != nil {
		apperr.Respond(c, err)
		return
	}

	c.JSON(http.StatusOK, entries)
}

// Visible reports whether the current user may view another user's private data
func (h *Handler) Visible(c *gin.Context) {
	userID, _ := auth.GetUserID(c)
	ownerID, err := strconv.ParseUint(c.Param("userId"), 10, 32)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid user ID"})
		return
	}

	ok, err := h.ledger.CanView(c.Request.Context(), userID, uint(ownerID))
	if err != nil {
		apperr.Respond(c, err)
		return
	}

	c.JSON(http.StatusOK, VisibilityResponse{UserID: uint(ownerID), CanView: ok})
}

// RegisterRoutes registers friendship routes
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.POST("/friends/request", h.SendRequest)
	rg.PUT("/friends/respond", h.Respond)
	rg.GET("/friends", h.List)
	rg.GET("/friends/:userId/visible", h.Visible)
}
