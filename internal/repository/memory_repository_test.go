package repository

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/spec-kit/user-service/internal/domain"
	apperrors "github.com/spec-kit/user-service/pkg/util/errorutil"
)

func newStoreWithTeams(t *testing.T) (*MemoryUserStore, string, string) {
	t.Helper()
	store := NewMemoryUserStore()
	platform := store.AddTeam(domain.Team{Name: "Platform"})
	billing := store.AddTeam(domain.Team{Name: "Billing"})
	return store, platform, billing
}

func mustCreate(t *testing.T, store *MemoryUserStore, email, teamID, creator string) string {
	t.Helper()
	id, err := store.CreateUser(context.Background(), &domain.User{
		FirstName: "Test",
		LastName:  "User",
		Email:     email,
		Status:    domain.UserStatusActive,
		Team:      domain.TeamRef{ID: teamID},
		CreatedBy: domain.Creator{ID: creator, Name: "Admin"},
	})
	require.NoError(t, err)
	return id
}

func TestMemoryStoreCreateAndGet(t *testing.T) {
	ctx := context.Background()
	store, platform, _ := newStoreWithTeams(t)

	id := mustCreate(t, store, "a@example.com", platform, "admin")
	require.Equal(t, "1", id)

	user, err := store.GetUserByID(ctx, id)
	require.NoError(t, err)
	require.Equal(t, "Platform", user.Team.Name)
	require.Equal(t, "admin", user.CreatedBy.ID)
	require.False(t, user.CreatedAt.IsZero())

	_, err = store.GetUserByID(ctx, "99")
	require.True(t, apperrors.IsKind(err, apperrors.KindNotFound))
	require.Equal(t, MsgUserNotFound, err.Error())
}

func TestMemoryStoreListFiltersByTeamIDOrName(t *testing.T) {
	ctx := context.Background()
	store, platform, billing := newStoreWithTeams(t)
	mustCreate(t, store, "a@example.com", platform, "admin")
	mustCreate(t, store, "b@example.com", billing, "admin")
	mustCreate(t, store, "c@example.com", platform, "admin")

	all, err := store.ListUsers(ctx, domain.UserFilter{})
	require.NoError(t, err)
	require.Len(t, all, 3)
	require.Equal(t, []string{"1", "2", "3"}, []string{all[0].ID, all[1].ID, all[2].ID})

	byName := "platform"
	users, err := store.ListUsers(ctx, domain.UserFilter{Team: &byName})
	require.NoError(t, err)
	require.Len(t, users, 2)

	users, err = store.ListUsers(ctx, domain.UserFilter{Team: &billing})
	require.NoError(t, err)
	require.Len(t, users, 1)
	require.Equal(t, "b@example.com", users[0].Email)

	unknown := "Nobody"
	users, err = store.ListUsers(ctx, domain.UserFilter{Team: &unknown})
	require.NoError(t, err)
	require.Empty(t, users)
}

func TestMemoryStoreChecks(t *testing.T) {
	ctx := context.Background()
	store, platform, _ := newStoreWithTeams(t)

	require.NoError(t, store.TeamExists(ctx, platform))
	err := store.TeamExists(ctx, "42")
	require.True(t, apperrors.IsKind(err, apperrors.KindNotFound))
	require.Equal(t, MsgTeamNotFound, err.Error())

	mustCreate(t, store, "a@example.com", platform, "admin")
	err = store.UserExists(ctx, domain.UserCriteria{Email: "A@Example.com"})
	require.True(t, apperrors.IsKind(err, apperrors.KindConflict))
	require.Equal(t, MsgUserExists, err.Error())
	require.NoError(t, store.UserExists(ctx, domain.UserCriteria{Email: "b@example.com"}))
}

func TestMemoryStoreAssociations(t *testing.T) {
	ctx := context.Background()
	store, platform, billing := newStoreWithTeams(t)

	lead := mustCreate(t, store, "lead@example.com", platform, "admin")
	creator := mustCreate(t, store, "creator@example.com", platform, "admin")
	mustCreate(t, store, "child@example.com", platform, creator)
	loner := mustCreate(t, store, "loner@example.com", platform, "admin")
	store.SetTeamLead(billing, lead)

	require.True(t, apperrors.IsKind(store.HasAssociations(ctx, lead), apperrors.KindConflict))
	require.True(t, apperrors.IsKind(store.HasAssociations(ctx, creator), apperrors.KindConflict))
	require.NoError(t, store.HasAssociations(ctx, loner))

	require.NoError(t, store.DeleteUser(ctx, loner))
	_, err := store.GetUserByID(ctx, loner)
	require.Error(t, err)
	require.True(t, apperrors.IsKind(store.DeleteUser(ctx, loner), apperrors.KindNotFound))
}

func TestMemoryStoreUpdate(t *testing.T) {
	ctx := context.Background()
	store, platform, billing := newStoreWithTeams(t)
	id := mustCreate(t, store, "a@example.com", platform, "admin")
	mustCreate(t, store, "b@example.com", platform, "admin")

	name := "Grace"
	require.NoError(t, store.UpdateUser(ctx, id, domain.UserUpdate{TeamID: billing, FirstName: &name}))
	user, err := store.GetUserByID(ctx, id)
	require.NoError(t, err)
	require.Equal(t, "Grace", user.FirstName)
	require.Equal(t, "Billing", user.Team.Name)

	taken := "b@example.com"
	err = store.UpdateUser(ctx, id, domain.UserUpdate{TeamID: billing, Email: &taken})
	require.True(t, apperrors.IsKind(err, apperrors.KindConflict))

	err = store.UpdateUser(ctx, "77", domain.UserUpdate{TeamID: billing})
	require.True(t, apperrors.IsKind(err, apperrors.KindInternal))
	require.Equal(t, MsgUserUpdateFails, err.Error())
}
