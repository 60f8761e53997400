// Package groups owns study groups, their membership roster and
// invite-code admission.
package groups

import (
	"context"
	"errors"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/vjfocus/focushub/pkg/focushub/apperr"
	"github.com/vjfocus/focushub/pkg/focushub/database"
	"github.com/vjfocus/focushub/pkg/focushub/models"
)

const (
	minNameLength     = 3
	inviteCodeLength  = 10
	inviteCodeRetries = 5
)

// CreateParams are the caller-supplied fields of a new group
type CreateParams struct {
	Name        string
	Description string
	Category    string
	MaxMembers  int // 0 means models.DefaultMaxMembers
	IsPrivate   bool
}

// Membership is a group as seen by one of its members
type Membership struct {
	models.StudyGroup
	Role     models.GroupRole `json:"role"`
	JoinedAt time.Time        `json:"joined_at"`
}

// Registry manages study groups and memberships
type Registry struct {
	db      *gorm.DB
	log     logrus.FieldLogger
	newCode func() string
}

// NewRegistry creates a group registry on the given store handle
func NewRegistry(db *gorm.DB, log logrus.FieldLogger) *Registry {
	return &Registry{db: db, log: log, newCode: NewInviteCode}
}

// WithCodeGenerator replaces the invite code source; used by tests
func (r *Registry) WithCodeGenerator(gen func() string) *Registry {
	r.newCode = gen
	return r
}

// In returns a registry whose queries run on tx
func (r *Registry) In(tx *gorm.DB) *Registry {
	return &Registry{db: tx, log: r.log, newCode: r.newCode}
}

// NewInviteCode returns a random upper-case invite code
func NewInviteCode() string {
	raw := strings.ReplaceAll(uuid.NewString(), "-", "")
	return strings.ToUpper(raw[:inviteCodeLength])
}

func normalizeCode(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}

// Create persists a group and makes the creator its admin in one transaction
func (r *Registry) Create(ctx context.Context, creatorID uint, params CreateParams) (*models.StudyGroup, error) {
	const op = "groups.Create"

	name := strings.TrimSpace(params.Name)
	if utf8.RuneCountInString(name) < minNameLength {
		return nil, apperr.InvalidArgument(op, "Group name must be at least 3 characters")
	}
	maxMembers := params.MaxMembers
	if maxMembers == 0 {
		maxMembers = models.DefaultMaxMembers
	}
	if maxMembers < 1 {
		return nil, apperr.InvalidArgument(op, "Max members must be at least 1")
	}

	group := models.StudyGroup{
		Name:        name,
		Description: params.Description,
		CreatorID:   creatorID,
		Category:    params.Category,
		MaxMembers:  maxMembers,
		IsPrivate:   params.IsPrivate,
		MemberCount: 1,
	}

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		code, err := r.uniqueCode(tx)
		if err != nil {
			return err
		}
		group.InviteCode = code

		if err := tx.Omit(clause.Associations).Create(&group).Error; err != nil {
			return err
		}

		membership := models.GroupMembership{
			GroupID: group.ID,
			UserID:  creatorID,
			Role:    models.GroupRoleAdmin,
		}
		return tx.Omit(clause.Associations).Create(&membership).Error
	})
	if err != nil {
		return nil, apperr.FromDB(op, err, "")
	}

	r.log.WithFields(logrus.Fields{
		"group_id":   group.ID,
		"creator_id": creatorID,
	}).Info("study group created")
	return &group, nil
}

func (r *Registry) uniqueCode(tx *gorm.DB) (string, error) {
	for attempt := 0; attempt < inviteCodeRetries; attempt++ {
		code := normalizeCode(r.newCode())
		var count int64
		if err := tx.Model(&models.StudyGroup{}).Where("UPPER(invite_code) = ?", code).Count(&count).Error; err != nil {
			return "", err
		}
		if count == 0 {
			return code, nil
		}
	}
	return "", apperr.Internal("groups.Create", errors.New("could not generate a unique invite code"))
}

// ListForUser returns the groups userID belongs to, most recently joined first
func (r *Registry) ListForUser(ctx context.Context, userID uint) ([]Membership, error) {
	var memberships []models.GroupMembership
	if err := r.db.WithContext(ctx).
		Preload("Group").
		Where("user_id = ?", userID).
		Order("joined_at DESC, id DESC").
		Find(&memberships).Error; err != nil {
		return nil, apperr.Internal("groups.ListForUser", err)
	}

	groups := make([]Membership, len(memberships))
	for i, m := range memberships {
		groups[i] = Membership{
			StudyGroup: m.Group,
			Role:       m.Role,
			JoinedAt:   m.JoinedAt,
		}
	}
	return groups, nil
}

// JoinByInviteCode admits userID as a member of the group holding code.
// The capacity check and the insert happen in one transaction; the guarded
// counter update serializes concurrent joins on the same group.
func (r *Registry) JoinByInviteCode(ctx context.Context, userID uint, code string) (*models.StudyGroup, error) {
	const op = "groups.JoinByInviteCode"

	code = normalizeCode(code)
	if code == "" {
		return nil, apperr.InvalidArgument(op, "Invite code is required")
	}

	var group models.StudyGroup
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		query := tx
		if database.SupportsRowLocks(tx) {
			query = query.Clauses(clause.Locking{Strength: "UPDATE"})
		}
		if err := query.Where("invite_code = ?", code).First(&group).Error; err != nil {
			return apperr.FromDB(op, err, "Invalid invite code")
		}

		var existing int64
		if err := tx.Model(&models.GroupMembership{}).
			Where("group_id = ? AND user_id = ?", group.ID, userID).
			Count(&existing).Error; err != nil {
			return err
		}
		if existing > 0 {
			return apperr.Conflict(op, "Already a member of this group")
		}

		result := tx.Model(&models.StudyGroup{}).
			Where("id = ? AND member_count < max_members", group.ID).
			UpdateColumn("member_count", gorm.Expr("member_count + 1"))
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return apperr.CapacityExceeded(op, "Group is full")
		}

		membership := models.GroupMembership{
			GroupID: group.ID,
			UserID:  userID,
			Role:    models.GroupRoleMember,
		}
		if err := tx.Omit(clause.Associations).Create(&membership).Error; err != nil {
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				return apperr.Conflict(op, "Already a member of this group")
			}
			return err
		}
		group.MemberCount++
		return nil
	})
	if err != nil {
		return nil, apperr.FromDB(op, err, "Invalid invite code")
	}

	r.log.WithFields(logrus.Fields{
		"group_id": group.ID,
		"user_id":  userID,
	}).Info("member joined study group")
	return &group, nil
}

// MembershipOf returns userID's membership in groupID
func (r *Registry) MembershipOf(ctx context.Context, groupID, userID uint) (*models.GroupMembership, error) {
	var membership models.GroupMembership
	if err := r.db.WithContext(ctx).
		Where("group_id = ? AND user_id = ?", groupID, userID).
		First(&membership).Error; err != nil {
		return nil, apperr.FromDB("groups.MembershipOf", err, "Membership not found")
	}
	return &membership, nil
}

// RosterOf returns the user ids of every current member of groupID
func (r *Registry) RosterOf(ctx context.Context, groupID uint) ([]uint, error) {
	var userIDs []uint
	if err := r.db.WithContext(ctx).
		Model(&models.GroupMembership{}).
		Where("group_id = ?", groupID).
		Order("id").
		Pluck("user_id", &userIDs).Error; err != nil {
		return nil, apperr.Internal("groups.RosterOf", err)
	}
	return userIDs, nil
}
