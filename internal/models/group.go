package models

// Group represents a set of members that share expenses.
//
// Membership has set semantics (duplicates rejected) and is append-only:
// members join via invitation acceptance and are never removed.
type Group struct {
	// ID is the unique identifier for the group (UUID format).
	ID string

	// Name is the display name of the group (e.g. "Roommates").
	Name string

	// CreatedBy is the user ID of the creator, always the first member.
	CreatedBy string

	// Members holds member user IDs in join order.
	Members []string

	// CreatedAt is the Unix timestamp when the group was created.
	CreatedAt int64
}

// HasMember reports whether userID belongs to the group.
func (g *Group) HasMember(userID string) bool {
	for _, m := range g.Members {
		if m == userID {
			return true
		}
	}
	return false
}

// Invitation status values.
const (
	InvitationPending  = "pending"
	InvitationAccepted = "accepted"
	InvitationRejected = "rejected"
)

// Invitation is a pending request for a user, addressed by email, to join a
// group. Accepting appends the invitee to the group's member set.
type Invitation struct {
	// ID is the unique identifier for the invitation (UUID format).
	ID string

	// GroupID is the group the invitee would join.
	GroupID string

	// InviterID is the member who sent the invitation.
	InviterID string

	// InviteeEmail addresses the invitation; the invitee may not have an
	// account yet when it is created.
	InviteeEmail string

	// Status is one of pending, accepted or rejected.
	Status string

	// CreatedAt is the Unix timestamp when the invitation was sent.
	CreatedAt int64
}
