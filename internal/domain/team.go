package domain

import "time"

// Team groups users. A team led by a user blocks that user's deletion.
type Team struct {
	ID         string
	Name       string
	LeadUserID *string
	CreatedAt  time.Time
}
