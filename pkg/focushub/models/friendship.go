package models

import (
	"time"

	"gorm.io/gorm"
)

// FriendshipStatus is the lifecycle state of a friendship
type FriendshipStatus string

const (
	FriendshipPending  FriendshipStatus = "pending"
	FriendshipAccepted FriendshipStatus = "accepted"
	FriendshipDeclined FriendshipStatus = "declined"
	// FriendshipBlocked is terminal. No operation moves a row into it yet.
	FriendshipBlocked FriendshipStatus = "blocked"
)

// Valid reports whether s is one of the known statuses
func (s FriendshipStatus) Valid() bool {
	switch s {
	case FriendshipPending, FriendshipAccepted, FriendshipDeclined, FriendshipBlocked:
		return true
	}
	return false
}

// IsResponse reports whether s is a status the addressee may answer with
func (s FriendshipStatus) IsResponse() bool {
	return s == FriendshipAccepted || s == FriendshipDeclined
}

// Friendship is a directed request between two users. The unordered pair is
// unique: PairLow/PairHigh hold min/max of the two ids and carry the index.
type Friendship struct {
	ID          uint             `gorm:"primarykey" json:"id"`
	CreatedAt   time.Time        `gorm:"index" json:"created_at"`
	UpdatedAt   time.Time        `json:"updated_at"`
	RequesterID uint             `gorm:"not null;index" json:"requester_id"`
	AddresseeID uint             `gorm:"not null;index" json:"addressee_id"`
	PairLow     uint             `gorm:"not null;uniqueIndex:idx_friend_pair" json:"-"`
	PairHigh    uint             `gorm:"not null;uniqueIndex:idx_friend_pair" json:"-"`
	Status      FriendshipStatus `gorm:"type:varchar(20);not null;default:'pending'" json:"status"`

	// Relationships
	Requester User `gorm:"foreignKey:RequesterID" json:"-"`
	Addressee User `gorm:"foreignKey:AddresseeID" json:"-"`
}

// OrderedPair returns the two ids sorted ascending
func OrderedPair(a, b uint) (uint, uint) {
	if a > b {
		return b, a
	}
	return a, b
}

// BeforeCreate fills the pair columns from the requester and addressee
func (f *Friendship) BeforeCreate(_ *gorm.DB) error {
	f.PairLow, f.PairHigh = OrderedPair(f.RequesterID, f.AddresseeID)
	return nil
}

// Counterpart returns the other party of the friendship as seen by userID
func (f *Friendship) Counterpart(userID uint) uint {
	if f.RequesterID == userID {
		return f.AddresseeID
	}
	return f.RequesterID
}
