package models

// Group is a set of users who share expenses.
// The creator is a member from the moment the group exists.
type Group struct {
	// ID is the unique identifier for the group (UUID format).
	ID string `json:"id" db:"id"`

	// Name is the display name of the group (e.g., "Roommates", "Ski Trip").
	Name string `json:"name" db:"name"`

	// Description is optional free text.
	Description string `json:"description" db:"description"`

	// CreatedBy is the user ID of the creator.
	CreatedBy string `json:"createdBy" db:"created_by"`

	// Members is the list of member user IDs, sorted.
	Members []string `json:"members" db:"-"`

	// CreatedAt is the Unix timestamp when the group was created.
	CreatedAt int64 `json:"createdAt" db:"created_at"`
}

// HasMember reports whether userID is in g.Members.
func (g *Group) HasMember(userID string) bool {
	for _, m := range g.Members {
		if m == userID {
			return true
		}
	}
	return false
}
