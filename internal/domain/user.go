package domain

import (
	"strings"
	"time"
	"unicode"
)

// UserStatus represents lifecycle states for an administrated user.
type UserStatus string

const (
	UserStatusActive   UserStatus = "ACTIVE"
	UserStatusInactive UserStatus = "INACTIVE"
)

// TeamRef is the id and display name of a team embedded in a user.
type TeamRef struct {
	ID   string
	Name string
}

// Creator identifies who created a user record.
type Creator struct {
	ID   string
	Name string
}

// User is the domain model for administrated users.
type User struct {
	ID           string
	FirstName    string
	LastName     string
	Email        string
	Status       UserStatus
	Initials     string
	PasswordHash string
	Team         TeamRef
	CreatedBy    Creator
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// UserUpdate carries the fields of an update. Nil pointers leave the stored value unchanged.
type UserUpdate struct {
	TeamID    string
	FirstName *string
	LastName  *string
	Email     *string
	Status    *UserStatus
	Initials  *string
}

// Apply copies the set fields of the update onto u.
func (up UserUpdate) Apply(u *User) {
	u.Team = TeamRef{ID: up.TeamID}
	if up.FirstName != nil {
		u.FirstName = *up.FirstName
	}
	if up.LastName != nil {
		u.LastName = *up.LastName
	}
	if up.Email != nil {
		u.Email = *up.Email
	}
	if up.Status != nil {
		u.Status = *up.Status
	}
	if up.Initials != nil {
		u.Initials = *up.Initials
	}
}

// UserFilter narrows user listings. Team matches a team id or name.
type UserFilter struct {
	Team *string
}

// UserCriteria describes what makes two users the same person.
type UserCriteria struct {
	Email string
}

// Initials builds upper-case initials from a first and last name.
func Initials(firstName, lastName string) string {
	var b strings.Builder
	for _, part := range []string{firstName, lastName} {
		for _, r := range strings.TrimSpace(part) {
			b.WriteRune(unicode.ToUpper(r))
			break
		}
	}
	return b.String()
}
