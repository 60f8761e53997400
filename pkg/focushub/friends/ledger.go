// Package friends owns the friendship relation between users and its
// pending -> accepted/declined lifecycle.
package friends

import (
	"context"
	"errors"
	"time"

	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"github.com/vjfocus/focushub/pkg/focushub/apperr"
	"github.com/vjfocus/focushub/pkg/focushub/models"
)

// RequestType tells the caller which side of a friendship they are on
type RequestType string

const (
	RequestSent     RequestType = "sent"
	RequestReceived RequestType = "received"
)

// Entry is one friendship as seen by one of its parties
type Entry struct {
	FriendshipID uint                    `json:"friendship_id"`
	Status       models.FriendshipStatus `json:"status"`
	CreatedAt    time.Time               `json:"created_at"`
	RequestType  RequestType             `json:"request_type"`
	Friend       models.UserSummary      `json:"friend"`
}

// Ledger manages friendships
type Ledger struct {
	db  *gorm.DB
	log logrus.FieldLogger
	now func() time.Time
}

// NewLedger creates a friendship ledger on the given store handle
func NewLedger(db *gorm.DB, log logrus.FieldLogger) *Ledger {
	return &Ledger{db: db, log: log, now: func() time.Time { return time.Now().UTC() }}
}

// WithClock replaces the time source; used by tests
func (l *Ledger) WithClock(now func() time.Time) *Ledger {
	l.now = now
	return l
}

// SendRequest creates a pending friendship from requester to addressee.
// Any existing row for the pair, in either direction and any status,
// is a conflict.
func (l *Ledger) SendRequest(ctx context.Context, requesterID, addresseeID uint) (*models.Friendship, error) {
	const op = "friends.SendRequest"

	if requesterID == addresseeID {
		return nil, apperr.InvalidArgument(op, "Cannot send friend request to yourself")
	}

	friendship := models.Friendship{
		RequesterID: requesterID,
		AddresseeID: addresseeID,
		Status:      models.FriendshipPending,
	}

	err := l.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Select("id").First(&models.User{}, addresseeID).Error; err != nil {
			return apperr.FromDB(op, err, "User not found")
		}

		low, high := models.OrderedPair(requesterID, addresseeID)
		var existing int64
		if err := tx.Model(&models.Friendship{}).
			Where("pair_low = ? AND pair_high = ?", low, high).
			Count(&existing).Error; err != nil {
			return apperr.Internal(op, err)
		}
		if existing > 0 {
			return apperr.Conflict(op, "Friendship request already exists")
		}

		return tx.Omit("Requester", "Addressee").Create(&friendship).Error
	})
	if err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			// lost a race against the reverse request; the pair index caught it
			return nil, apperr.Conflict(op, "Friendship request already exists")
		}
		return nil, apperr.FromDB(op, err, "")
	}

	l.log.WithFields(logrus.Fields{
		"friendship_id": friendship.ID,
		"requester_id":  requesterID,
		"addressee_id":  addresseeID,
	}).Info("friend request sent")
	return &friendship, nil
}

// Respond answers a pending request addressed to addresseeID. A request
// that was already answered is reported as not found.
func (l *Ledger) Respond(ctx context.Context, addresseeID, friendshipID uint, status models.FriendshipStatus) (*models.Friendship, error) {
	const op = "friends.Respond"

	if !status.IsResponse() {
		return nil, apperr.InvalidArgument(op, "Invalid status")
	}

	var friendship models.Friendship
	err := l.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		result := tx.Model(&models.Friendship{}).
			Where("id = ? AND addressee_id = ? AND status = ?", friendshipID, addresseeID, models.FriendshipPending).
			Updates(map[string]interface{}{"status": status, "updated_at": l.now()})
		if result.Error != nil {
			return apperr.Internal(op, result.Error)
		}
		if result.RowsAffected == 0 {
			return apperr.NotFound(op, "Friend request not found")
		}
		return tx.First(&friendship, friendshipID).Error
	})
	if err != nil {
		return nil, apperr.FromDB(op, err, "Friend request not found")
	}

	l.log.WithFields(logrus.Fields{
		"friendship_id": friendshipID,
		"status":        status,
	}).Info("friend request answered")
	return &friendship, nil
}

// List returns every friendship userID is a party to, newest first
func (l *Ledger) List(ctx context.Context, userID uint) ([]Entry, error) {
	const op = "friends.List"

	var friendships []models.Friendship
	if err := l.db.WithContext(ctx).
		Preload("Requester.Profile").
		Preload("Addressee.Profile").
		Where("requester_id = ? OR addressee_id = ?", userID, userID).
		Order("created_at DESC, id DESC").
		Find(&friendships).Error; err != nil {
		return nil, apperr.Internal(op, err)
	}

	entries := make([]Entry, len(friendships))
	for i, f := range friendships {
		entry := Entry{
			FriendshipID: f.ID,
			Status:       f.Status,
			CreatedAt:    f.CreatedAt,
		}
		if f.RequesterID == userID {
			entry.RequestType = RequestSent
			entry.Friend = f.Addressee.Summary()
		} else {
			entry.RequestType = RequestReceived
			entry.Friend = f.Requester.Summary()
		}
		entries[i] = entry
	}
	return entries, nil
}

// AreFriends reports whether an accepted friendship links a and b
func (l *Ledger) AreFriends(ctx context.Context, a, b uint) (bool, error) {
	low, high := models.OrderedPair(a, b)
	var count int64
	if err := l.db.WithContext(ctx).Model(&models.Friendship{}).
		Where("pair_low = ? AND pair_high = ? AND status = ?", low, high, models.FriendshipAccepted).
		Count(&count).Error; err != nil {
		return false, apperr.Internal("friends.AreFriends", err)
	}
	return count > 0, nil
}

// CanView reports whether viewerID may see ownerID's non-public data
func (l *Ledger) CanView(ctx context.Context, viewerID, ownerID uint) (bool, error) {
	if viewerID == ownerID {
		return true, nil
	}
	return l.AreFriends(ctx, viewerID, ownerID)
}

// AcceptedFriendIDs returns the ids of userID's accepted friends
func (l *Ledger) AcceptedFriendIDs(ctx context.Context, userID uint) ([]uint, error) {
	var friendships []models.Friendship
	if err := l.db.WithContext(ctx).
		Select("requester_id", "addressee_id").
		Where("(requester_id = ? OR addressee_id = ?) AND status = ?", userID, userID, models.FriendshipAccepted).
		Find(&friendships).Error; err != nil {
		return nil, apperr.Internal("friends.AcceptedFriendIDs", err)
	}

	ids := make([]uint, len(friendships))
	for i := range friendships {
		ids[i] = friendships[i].Counterpart(userID)
	}
	return ids, nil
}
