package profiles

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/vjfocus/focushub/pkg/focushub/apperr"
	"github.com/vjfocus/focushub/pkg/focushub/auth"
)

// Handler handles profile and user search requests
type Handler struct {
	service *Service
}

// NewHandler creates a new profiles handler
func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// UpdateProfileRequest represents the request to update the caller's profile
type UpdateProfileRequest struct {
	DisplayName         string   `json:"display_name"`
	Bio                 string   `json:"bio"`
	StudyInterests      []string `json:"study_interests"`
	Timezone            string   `json:"timezone"`
	PreferredStudyTimes []string `json:"preferred_study_times"`
	IsPublic            bool     `json:"is_public"`
}

// Get returns a user's profile, defaulting to the caller's own
// @Summary Get a user profile
// @Tags profiles
// @Produce json
// @Param userId path int false "User ID"
// @Success 200 {object} Profile
// @Failure 403 {object} map[string]string "Profile is private"
// @Failure 404 {object} map[string]string "User not found"
// @Security BearerAuth
// @Router /social/profile/{userId} [get]
func (h *Handler) Get(c *gin.Context) {
	viewerID, _ := auth.GetUserID(c)
	ownerID := viewerID
	if param := c.Param("userId"); param != "" {
		id, err := strconv.ParseUint(param, 10, 32)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid user ID"})
			return
		}
		ownerID = uint(id)
	}

	profile, err := h.service.Get(c.Request.Context(), viewerID, ownerID)
	if err != nil {
		apperr.Respond(c, err)
		return
	}

	c.JSON(http.StatusOK, profile)
}

// Update replaces the caller's profile
// @Summary Update my profile
// @Tags profiles
// @Accept json
// @Produce json
// @Param request body UpdateProfileRequest true "Profile fields"
// @Success 200 {object} Profile
// @Failure 400 {object} map[string]string "Validation error"
// @Security BearerAuth
// @Router /social/profile [put]
func (h *Handler) Update(c *gin.Context) {
	userID, _ := auth.GetUserID(c)

	var req UpdateProfileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	profile, err := h.service.Update(c.Request.Context(), userID, UpdateParams{
		DisplayName:         req.DisplayName,
		Bio:                 req.Bio,
		StudyInterests:      req.StudyInterests,
		Timezone:            req.Timezone,
		PreferredStudyTimes: req.PreferredStudyTimes,
		IsPublic:            req.IsPublic,
	})
	if err != nil {
		apperr.Respond(c, err)
		return
	}

	c.JSON(http.StatusOK, profile)
}

// Search finds users by username or display name
// @Summary Search users
// @Tags profiles
// @Produce json
// @Param q query string true "Search text (at least 2 characters)"
// @Success 200 {array} SearchResult
// @Failure 400 {object} map[string]string "Query too short"
// @Security BearerAuth
// @Router /social/users/search [get]
func (h *Handler) Search(c *gin.Context) {
	userID, _ := auth.GetUserID(c)

	results, err := h.service.Search(c.Request.Context(), userID, c.Query("q"))
	if err != nil {
		apperr.Respond(c, err)
		return
	}

	c.JSON(http.StatusOK, results)
}

// RegisterRoutes registers profile routes
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.GET("/profile", h.Get)
	rg.GET("/profile/:userId", h.Get)
	rg.PUT("/profile", h.Update)
	rg.GET("/users/search", h.Search)
}
