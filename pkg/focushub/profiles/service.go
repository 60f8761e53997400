// Package profiles serves user profiles and user search. Private profiles
// are only shown to their owner and accepted friends.
package profiles

import (
	"context"
	"strings"
	"time"
	_ "time/tzdata"
	"unicode/utf8"

	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/vjfocus/focushub/pkg/focushub/apperr"
	"github.com/vjfocus/focushub/pkg/focushub/models"
	"github.com/vjfocus/focushub/pkg/focushub/visibility"
)

const (
	searchLimit          = 20
	minSearchLength      = 2
	maxDisplayNameLength = 100
	maxTimezoneLength    = 64
)

// Profile is a user joined with their profile fields. A user without a
// profile row has empty fields and is not public.
type Profile struct {
	UserID              uint       `json:"id"`
	Username            string     `json:"username"`
	DisplayName         string     `json:"display_name"`
	Bio                 string     `json:"bio"`
	AvatarURL           string     `json:"avatar_url"`
	StudyInterests      []string   `json:"study_interests"`
	Timezone            string     `json:"timezone"`
	PreferredStudyTimes []string   `json:"preferred_study_times"`
	ProductivityScore   int        `json:"productivity_score"`
	IsPublic            bool       `json:"is_public"`
	CreatedAt           *time.Time `json:"created_at"`
}

func profileOf(u models.User) Profile {
	p := Profile{UserID: u.ID, Username: u.Username}
	if u.Profile != nil {
		p.DisplayName = u.Profile.DisplayName
		p.Bio = u.Profile.Bio
		p.AvatarURL = u.Profile.AvatarURL
		p.StudyInterests = u.Profile.StudyInterests
		p.Timezone = u.Profile.Timezone
		p.PreferredStudyTimes = u.Profile.PreferredStudyTimes
		p.ProductivityScore = u.Profile.ProductivityScore
		p.IsPublic = u.Profile.IsPublic
		createdAt := u.Profile.CreatedAt
		p.CreatedAt = &createdAt
	}
	return p
}

// UpdateParams replace every editable profile field
type UpdateParams struct {
	DisplayName         string
	Bio                 string
	StudyInterests      []string
	Timezone            string
	PreferredStudyTimes []string
	IsPublic            bool
}

// SearchResult is one user matched by Search
type SearchResult struct {
	models.UserSummary
	StudyInterests []string `json:"study_interests"`
}

// Service reads and writes user profiles
type Service struct {
	db     *gorm.DB
	policy *visibility.Policy
	log    logrus.FieldLogger
}

// NewService creates a profile service
func NewService(db *gorm.DB, policy *visibility.Policy, log logrus.FieldLogger) *Service {
	return &Service{db: db, policy: policy, log: log}
}

// Get returns ownerID's profile as seen by viewerID
func (s *Service) Get(ctx context.Context, viewerID, ownerID uint) (*Profile, error) {
	const op = "profiles.Get"

	var user models.User
	if err := s.db.WithContext(ctx).Preload("Profile").First(&user, ownerID).Error; err != nil {
		return nil, apperr.FromDB(op, err, "User not found")
	}

	profile := profileOf(user)
	ok, err := s.policy.CanView(ctx, viewerID, ownerID, profile.IsPublic)
	if err != nil {
		return nil, apperr.FromDB(op, err, "")
	}
	if !ok {
		return nil, apperr.Forbidden(op, "Profile is private")
	}
	return &profile, nil
}

// Update creates or replaces userID's profile
func (s *Service) Update(ctx context.Context, userID uint, params UpdateParams) (*Profile, error) {
	const op = "profiles.Update"

	displayName := strings.TrimSpace(params.DisplayName)
	if utf8.RuneCountInString(displayName) > maxDisplayNameLength {
		return nil, apperr.InvalidArgument(op, "Display name must be at most 100 characters")
	}
	if len(params.Timezone) > maxTimezoneLength {
		return nil, apperr.InvalidArgument(op, "Invalid timezone")
	}
	if params.Timezone != "" {
		if _, err := time.LoadLocation(params.Timezone); err != nil {
			return nil, apperr.InvalidArgument(op, "Invalid timezone")
		}
	}

	row := models.UserProfile{
		UserID:              userID,
		DisplayName:         displayName,
		Bio:                 params.Bio,
		StudyInterests:      params.StudyInterests,
		Timezone:            params.Timezone,
		PreferredStudyTimes: params.PreferredStudyTimes,
		IsPublic:            params.IsPublic,
	}

	var user models.User
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "user_id"}},
			DoUpdates: clause.AssignmentColumns([]string{
				"display_name", "bio", "study_interests", "timezone",
				"preferred_study_times", "is_public", "updated_at",
			}),
		}).Create(&row).Error; err != nil {
			return err
		}
		return tx.Preload("Profile").First(&user, userID).Error
	})
	if err != nil {
		return nil, apperr.FromDB(op, err, "User not found")
	}

	s.log.WithFields(logrus.Fields{
		"user_id":   userID,
		"is_public": params.IsPublic,
	}).Info("profile updated")

	profile := profileOf(user)
	return &profile, nil
}

// Search finds other users by username or display name. Users with a
// private profile are left out.
func (s *Service) Search(ctx context.Context, callerID uint, q string) ([]SearchResult, error) {
	const op = "profiles.Search"

	q = strings.TrimSpace(q)
	if utf8.RuneCountInString(q) < minSearchLength {
		return nil, apperr.InvalidArgument(op, "Search query must be at least 2 characters")
	}
	pattern := "%" + strings.ToLower(q) + "%"

	var users []models.User
	if err := s.db.WithContext(ctx).
		Select("users.*").
		Preload("Profile").
		Joins("LEFT JOIN user_profiles ON user_profiles.user_id = users.id").
		Where("(LOWER(users.username) LIKE ? OR LOWER(user_profiles.display_name) LIKE ?)", pattern, pattern).
		Where("users.id <> ?", callerID).
		Where("(user_profiles.is_public = ? OR user_profiles.id IS NULL)", true).
		Order("users.username ASC").
		Limit(searchLimit).
		Find(&users).Error; err != nil {
		return nil, apperr.Internal(op, err)
	}

	results := make([]SearchResult, len(users))
	for i, u := range users {
		results[i] = SearchResult{UserSummary: u.Summary()}
		if u.Profile != nil {
			results[i].StudyInterests = u.Profile.StudyInterests
		}
	}
	return results, nil
}
