package models

// Group is a named set of users who share expenses.
type Group struct {
	// ID is the unique identifier for the group (UUID format).
	ID string

	// Name is the display name of the group (e.g., "Roommates", "Weekend Trip").
	Name string

	// Description is optional free text.
	Description string

	// CreatedBy is the user ID of the group's creator.
	CreatedBy string

	// Participants is the ordered list of member user IDs. Order is preserved
	// by every store and drives deterministic tie-breaking in the ledger.
	Participants []string

	// CreatedAt is the Unix timestamp when the group was created.
	CreatedAt int64
}

// HasParticipant reports whether userID is a member of the group.
func (g *Group) HasParticipant(userID string) bool {
	for _, p := range g.Participants {
		if p == userID {
			return true
		}
	}
	return false
}
