package domain

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestInitials(t *testing.T) {
	require.Equal(t, "AL", Initials("ada", "Lovelace"))
	require.Equal(t, "G", Initials("  grace", ""))
	require.Equal(t, "ÉZ", Initials("élodie", "zola"))
	require.Empty(t, Initials("", " "))
}

func TestUserUpdateApply(t *testing.T) {
	user := User{ID: "1", FirstName: "Ada", LastName: "Lovelace", Status: UserStatusActive, Team: TeamRef{ID: "1", Name: "Core"}}
	status := UserStatusInactive
	last := "King"

	UserUpdate{TeamID: "2", LastName: &last, Status: &status}.Apply(&user)

	require.Equal(t, "Ada", user.FirstName)
	require.Equal(t, "King", user.LastName)
	require.Equal(t, UserStatusInactive, user.Status)
	require.Equal(t, "2", user.Team.ID)
	require.Empty(t, user.Team.Name)
}
