// Package visibility decides whether one user may see another user's
// non-public data.
package visibility

import "context"

// FriendshipChecker reports whether an accepted friendship links two users
// in either direction.
type FriendshipChecker interface {
	AreFriends(ctx context.Context, a, b uint) (bool, error)
}

// Allowed is the decision rule itself: public data, the owner, or an
// accepted friend.
func Allowed(viewerID, ownerID uint, isPublic, friends bool) bool {
	return isPublic || viewerID == ownerID || friends
}

// Policy evaluates Allowed, consulting the friendship ledger only when the
// cheaper checks do not settle it.
type Policy struct {
	friends FriendshipChecker
}

// NewPolicy creates a visibility policy backed by the given checker
func NewPolicy(friends FriendshipChecker) *Policy {
	return &Policy{friends: friends}
}

// CanView reports whether viewerID may see ownerID's data
func (p *Policy) CanView(ctx context.Context, viewerID, ownerID uint, isPublic bool) (bool, error) {
	if Allowed(viewerID, ownerID, isPublic, false) {
		return true, nil
	}
	friends, err := p.friends.AreFriends(ctx, viewerID, ownerID)
	if err != nil {
		return false, err
	}
	return Allowed(viewerID, ownerID, isPublic, friends), nil
}
