package entities

import "time"

// Membership links exactly one User to exactly one Organisation.
// The (UserID, OrgID) pair is the primary key; a user cannot belong to the
// same organisation twice. CreatedAt orders a user's organisations.
type Membership struct {
	UserID    string
	OrgID     string
	CreatedAt time.Time
}
