package service

import (
	"context"
	"strings"

	"go.uber.org/zap"

	"github.com/spec-kit/user-service/internal/auth"
	"github.com/spec-kit/user-service/internal/config"
	"github.com/spec-kit/user-service/internal/domain"
	"github.com/spec-kit/user-service/internal/events"
	"github.com/spec-kit/user-service/internal/repository"
)

// UserService sequences the existence and association checks around every
// user mutation.
type UserService struct {
	store      repository.UserStore
	dispatcher events.Dispatcher
	logger     *zap.Logger
	passwords  auth.PasswordHasher
}

// UserDependencies encapsulates collaborators required by the user service.
type UserDependencies struct {
	Store      repository.UserStore
	Dispatcher events.Dispatcher
}

// UserCreateInput describes a new user.
type UserCreateInput struct {
	FirstName string
	LastName  string
	Email     string
	TeamID    string
	Status    domain.UserStatus
	Initials  string
	Password  string
}

// NewUserService constructs the service.
func NewUserService(cfg config.Config, deps UserDependencies, logger *zap.Logger) *UserService {
	return &UserService{
		store:      deps.Store,
		dispatcher: deps.Dispatcher,
		logger:     logger.Named("service.users"),
		passwords:  auth.NewPasswordHasher(cfg.Auth.BcryptCost),
	}
}

// ListUsers returns every user, or only those of one team when team is set.
func (s *UserService) ListUsers(ctx context.Context, team *string) ([]domain.User, error) {
	return s.store.ListUsers(ctx, domain.UserFilter{Team: team})
}

// GetUser fetches a user by id.
func (s *UserService) GetUser(ctx context.Context, id string) (*domain.User, error) {
	return s.store.GetUserByID(ctx, id)
}

// CreateUser checks the team and email, then inserts the user on behalf of creator.
func (s *UserService) CreateUser(ctx context.Context, creator domain.Principal, input UserCreateInput) (string, error) {
	if err := s.store.TeamExists(ctx, input.TeamID); err != nil {
		return "", err
	}
	if err := s.store.UserExists(ctx, domain.UserCriteria{Email: input.Email}); err != nil {
		return "", err
	}

	user := &domain.User{
		FirstName: strings.TrimSpace(input.FirstName),
		LastName:  strings.TrimSpace(input.LastName),
		Email:     strings.TrimSpace(input.Email),
		Status:    input.Status,
		Initials:  strings.TrimSpace(input.Initials),
		Team:      domain.TeamRef{ID: input.TeamID},
		CreatedBy: domain.Creator{ID: creator.ID, Name: creator.Name},
	}
	if user.Initials == "" {
		user.Initials = domain.Initials(user.FirstName, user.LastName)
	}
	if input.Password != "" {
		hash, err := s.passwords.Hash(input.Password)
		if err != nil {
			return "", err
		}
		user.PasswordHash = hash
	}

	id, err := s.store.CreateUser(ctx, user)
	if err != nil {
		return "", err
	}
	s.logger.Info("user created", zap.String("user_id", id), zap.String("created_by", creator.ID))
	s.publish(ctx, events.NewEvent(events.EventUserCreated, id, actorOf(creator), events.UserCreatedPayload{
		TeamID: input.TeamID,
		Email:  user.Email,
		Status: string(user.Status),
	}))
	return id, nil
}

// UpdateUser checks the target team and persists the changes.
func (s *UserService) UpdateUser(ctx context.Context, actor domain.Principal, id string, update domain.UserUpdate) error {
	if err := s.store.TeamExists(ctx, update.TeamID); err != nil {
		return err
	}
	if err := s.store.UpdateUser(ctx, id, update); err != nil {
		return err
	}
	s.logger.Info("user updated", zap.String("user_id", id), zap.String("team_id", update.TeamID))
	s.publish(ctx, events.NewEvent(events.EventUserUpdated, id, actorOf(actor), events.UserUpdatedPayload{
		TeamID: update.TeamID,
		Fields: changedFields(update),
	}))
	return nil
}

// DeleteUser removes a user that exists and has no associations.
func (s *UserService) DeleteUser(ctx context.Context, actor domain.Principal, id string) error {
	user, err := s.store.GetUserByID(ctx, id)
	if err != nil {
		return err
	}
	if err := s.store.HasAssociations(ctx, id); err != nil {
		return err
	}
	if err := s.store.DeleteUser(ctx, id); err != nil {
		return err
	}
	s.logger.Info("user deleted", zap.String("user_id", id))
	s.publish(ctx, events.NewEvent(events.EventUserDeleted, id, actorOf(actor), events.UserDeletedPayload{
		Email: user.Email,
	}))
	return nil
}

func (s *UserService) publish(ctx context.Context, event events.Event) {
	if s.dispatcher == nil {
		return
	}
	if err := s.dispatcher.Publish(ctx, event); err != nil {
		s.logger.Warn("event delivery failed",
			zap.String("event_type", string(event.Type)),
			zap.String("user_id", event.UserID),
			zap.Error(err))
	}
}

func actorOf(p domain.Principal) events.Actor {
	return events.Actor{ID: p.ID, Name: p.Name}
}

func changedFields(update domain.UserUpdate) []string {
	fields := []string{"teamId"}
	if update.FirstName != nil {
		fields = append(fields, "firstName")
	}
	if update.LastName != nil {
		fields = append(fields, "lastName")
	}
	if update.Email != nil {
		fields = append(fields, "email")
	}
	if update.Status != nil {
		fields = append(fields, "status")
	}
	if update.Initials != nil {
		fields = append(fields, "initials")
	}
	return fields
}
