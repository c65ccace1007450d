package repository

import (
	"context"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/spec-kit/user-service/internal/domain"
	apperrors "github.com/spec-kit/user-service/pkg/util/errorutil"
)

// MemoryUserStore keeps users and teams in process memory. It backs the
// service when no POSTGRES_DSN is configured and is used by tests.
type MemoryUserStore struct {
	mu         sync.RWMutex
	users      map[int64]domain.User
	teams      map[int64]domain.Team
	nextUserID int64
	nextTeamID int64
	now        func() time.Time
}

// NewMemoryUserStore returns an empty store seeded with the given teams.
// Teams without an id get the next free one.
func NewMemoryUserStore(teams ...domain.Team) *MemoryUserStore {
	s := &MemoryUserStore{
		users: make(map[int64]domain.User),
		teams: make(map[int64]domain.Team),
		now:   func() time.Time { return time.Now().UTC() },
	}
	for _, team := range teams {
		s.AddTeam(team)
	}
	return s
}

// AddTeam stores a team and returns its id.
func (s *MemoryUserStore) AddTeam(team domain.Team) string {
	s.mu.Lock()
	defer s.mu.Unlock()

	id, ok := parseID(team.ID)
	if !ok {
		s.nextTeamID++
		id = s.nextTeamID
	} else if id > s.nextTeamID {
		s.nextTeamID = id
	}
	team.ID = strconv.FormatInt(id, 10)
	if team.CreatedAt.IsZero() {
		team.CreatedAt = s.now()
	}
	s.teams[id] = team
	return team.ID
}

// SetTeamLead marks userID as the lead of teamID.
func (s *MemoryUserStore) SetTeamLead(teamID, userID string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	id, ok := parseID(teamID)
	if !ok {
		return
	}
	team, exists := s.teams[id]
	if !exists {
		return
	}
	lead := userID
	team.LeadUserID = &lead
	s.teams[id] = team
}

func (s *MemoryUserStore) withTeam(user domain.User) domain.User {
	if id, ok := parseID(user.Team.ID); ok {
		if team, exists := s.teams[id]; exists {
			user.Team.Name = team.Name
		}
	}
	return user
}

func (s *MemoryUserStore) ListUsers(_ context.Context, filter domain.UserFilter) ([]domain.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]domain.User, 0, len(s.users))
	for _, user := range s.users {
		user = s.withTeam(user)
		if filter.Team != nil && user.Team.ID != *filter.Team && !strings.EqualFold(user.Team.Name, *filter.Team) {
			continue
		}
		result = append(result, user)
	}
	sort.Slice(result, func(i, j int) bool {
		a, _ := parseID(result[i].ID)
		b, _ := parseID(result[j].ID)
		return a < b
	})
	return result, nil
}

func (s *MemoryUserStore) GetUserByID(_ context.Context, id string) (*domain.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	key, ok := parseID(id)
	if !ok {
		return nil, apperrors.NewNotFound(MsgUserNotFound)
	}
	user, exists := s.users[key]
	if !exists {
		return nil, apperrors.NewNotFound(MsgUserNotFound)
	}
	user = s.withTeam(user)
	return &user, nil
}

func (s *MemoryUserStore) TeamExists(_ context.Context, teamID string) error {
	s.mu.RLock()
	defer s.mu.RUnlock()

	key, ok := parseID(teamID)
	if !ok {
		return apperrors.NewNotFound(MsgTeamNotFound)
	}
	if _, exists := s.teams[key]; !exists {
		return apperrors.NewNotFound(MsgTeamNotFound)
	}
	return nil
}

func (s *MemoryUserStore) UserExists(_ context.Context, criteria domain.UserCriteria) error {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.emailTaken(criteria.Email, 0) {
		return apperrors.NewConflict(MsgUserExists, map[string]any{"email": criteria.Email})
	}
	return nil
}

func (s *MemoryUserStore) emailTaken(email string, except int64) bool {
	for id, user := range s.users {
		if id != except && strings.EqualFold(user.Email, email) {
			return true
		}
	}
	return false
}

func (s *MemoryUserStore) CreateUser(_ context.Context, user *domain.User) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	teamID, ok := parseID(user.Team.ID)
	if !ok {
		return "", apperrors.NewNotFound(MsgTeamNotFound)
	}
	if _, exists := s.teams[teamID]; !exists {
		return "", apperrors.NewNotFound(MsgTeamNotFound)
	}
	if s.emailTaken(user.Email, 0) {
		return "", apperrors.NewConflict(MsgUserExists, map[string]any{"email": user.Email})
	}

	s.nextUserID++
	id := s.nextUserID
	now := s.now()
	user.ID = strconv.FormatInt(id, 10)
	user.CreatedAt = now
	user.UpdatedAt = now
	s.users[id] = *user
	return user.ID, nil
}

func (s *MemoryUserStore) UpdateUser(_ context.Context, id string, update domain.UserUpdate) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	key, ok := parseID(id)
	if !ok {
		return apperrors.NewFailure(MsgUserUpdateFails, nil)
	}
	user, exists := s.users[key]
	if !exists {
		return apperrors.NewFailure(MsgUserUpdateFails, nil)
	}
	teamID, ok := parseID(update.TeamID)
	if !ok {
		return apperrors.NewNotFound(MsgTeamNotFound)
	}
	if _, exists := s.teams[teamID]; !exists {
		return apperrors.NewNotFound(MsgTeamNotFound)
	}
	if update.Email != nil && s.emailTaken(*update.Email, key) {
		return apperrors.NewConflict(MsgUserExists, map[string]any{"email": *update.Email})
	}

	update.TeamID = strconv.FormatInt(teamID, 10)
	update.Apply(&user)
	user.UpdatedAt = s.now()
	s.users[key] = user
	return nil
}

func (s *MemoryUserStore) HasAssociations(_ context.Context, id string) error {
	s.mu.RLock()
	defer s.mu.RUnlock()

	key, ok := parseID(id)
	if !ok {
		return apperrors.NewNotFound(MsgUserNotFound)
	}
	userID := strconv.FormatInt(key, 10)

	var createdUsers, ledTeams int64
	for otherID, user := range s.users {
		if otherID != key && user.CreatedBy.ID == userID {
			createdUsers++
		}
	}
	for _, team := range s.teams {
		if team.LeadUserID != nil && *team.LeadUserID == userID {
			ledTeams++
		}
	}
	if createdUsers > 0 || ledTeams > 0 {
		return apperrors.NewConflict(MsgUserAssociated, map[string]any{
			"created_users": createdUsers,
			"led_teams":     ledTeams,
		})
	}
	return nil
}

func (s *MemoryUserStore) DeleteUser(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	key, ok := parseID(id)
	if !ok {
		return apperrors.NewNotFound(MsgUserNotFound)
	}
	if _, exists := s.users[key]; !exists {
		return apperrors.NewNotFound(MsgUserNotFound)
	}
	delete(s.users, key)
	return nil
}

var _ UserStore = (*MemoryUserStore)(nil)
