package handlers

import (
	"context"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/spec-kit/user-service/internal/api/dispatch"
	"github.com/spec-kit/user-service/internal/api/dto"
	"github.com/spec-kit/user-service/internal/domain"
	"github.com/spec-kit/user-service/internal/service"
	"github.com/spec-kit/user-service/internal/validation"
	apperrors "github.com/spec-kit/user-service/pkg/util/errorutil"
)

const (
	msgMissingUserID      = "Missing userId Path Parameter"
	msgMissingUserData    = "Requires User data"
	msgMissingUpdateInput = "Missing userId Path Parameters or User data"
	msgUserCreated        = "User Created Successfully"
	msgUserUpdated        = "User Updated Successfully"
	msgUserDeleted        = "User Deleted Successfully"
	msgUnauthorized       = "Unauthorized"

	isoTimestamp = "2006-01-02T15:04:05.000Z07:00"
)

// UsersHandler exposes the user CRUD operations.
type UsersHandler struct {
	users     *service.UserService
	validator *validation.Validator
	logger    *zap.Logger
}

// NewUsersHandler constructs handler.
func NewUsersHandler(users *service.UserService, validator *validation.Validator, logger *zap.Logger) *UsersHandler {
	return &UsersHandler{users: users, validator: validator, logger: logger.Named("handlers.users")}
}

// Register binds the operations to their (resource, method) pairs.
func (h *UsersHandler) Register(d *dispatch.Dispatcher) {
	d.Handle(dispatch.ResourceUsers, http.MethodGet, h.GetAllUsers)
	d.Handle(dispatch.ResourceCreateUser, http.MethodPost, h.CreateUser)
	d.Handle(dispatch.ResourceUserByID, http.MethodGet, h.GetUserDetails)
	d.Handle(dispatch.ResourceUserByID, http.MethodPut, h.UpdateUser)
	d.Handle(dispatch.ResourceUserByID, http.MethodDelete, h.DeleteUser)
}

// GetAllUsers handles GET /user.
func (h *UsersHandler) GetAllUsers(ctx context.Context, req dispatch.Request) (dispatch.Response, error) {
	var team *string
	if raw, ok := req.Query("team"); ok {
		query, err := h.validator.TeamFilter(raw)
		if err != nil {
			return dispatch.Response{}, err
		}
		team = &query.Team
	}

	users, err := h.users.ListUsers(ctx, team)
	if err != nil {
		return dispatch.Response{}, err
	}
	items := make([]dto.UserSummary, 0, len(users))
	for i := range users {
		items = append(items, userSummary(&users[i]))
	}
	return dispatch.Respond(http.StatusOK, items), nil
}

// GetUserDetails handles GET /user/{userId}.
func (h *UsersHandler) GetUserDetails(ctx context.Context, req dispatch.Request) (dispatch.Response, error) {
	userID := req.PathParam("userId")
	if userID == "" {
		return dispatch.Message(http.StatusBadRequest, msgMissingUserID), nil
	}
	path, err := h.validator.UserID(userID)
	if err != nil {
		return dispatch.Response{}, err
	}

	user, err := h.users.GetUser(ctx, path.UserID)
	if err != nil {
		return dispatch.Response{}, err
	}
	return dispatch.Respond(http.StatusOK, userDetail(user)), nil
}

// CreateUser handles POST /user/create.
func (h *UsersHandler) CreateUser(ctx context.Context, req dispatch.Request) (dispatch.Response, error) {
	if strings.TrimSpace(req.Body) == "" {
		return dispatch.Message(http.StatusBadRequest, msgMissingUserData), nil
	}
	payload, err := h.validator.CreateUser(req.Body)
	if err != nil {
		return dispatch.Response{}, err
	}
	if req.Caller == nil || req.Caller.ID == "" {
		return dispatch.Response{}, apperrors.NewUnauthorized(msgUnauthorized)
	}

	id, err := h.users.CreateUser(ctx, *req.Caller, service.UserCreateInput{
		FirstName: payload.FirstName,
		LastName:  payload.LastName,
		Email:     payload.Email,
		TeamID:    payload.TeamID.String(),
		Status:    domain.UserStatus(payload.Status),
		Initials:  payload.Initials,
		Password:  payload.Password,
	})
	if err != nil {
		return dispatch.Response{}, err
	}
	return dispatch.Respond(http.StatusOK, dto.CreateUserResponse{ID: id, Message: msgUserCreated}), nil
}

// UpdateUser handles PUT /user/{userId}.
func (h *UsersHandler) UpdateUser(ctx context.Context, req dispatch.Request) (dispatch.Response, error) {
	userID := req.PathParam("userId")
	if userID == "" || strings.TrimSpace(req.Body) == "" {
		return dispatch.Message(http.StatusBadRequest, msgMissingUpdateInput), nil
	}
	path, err := h.validator.UserID(userID)
	if err != nil {
		return dispatch.Response{}, err
	}
	payload, err := h.validator.UpdateUser(req.Body)
	if err != nil {
		return dispatch.Response{}, err
	}

	var actor domain.Principal
	if req.Caller != nil {
		actor = *req.Caller
	}
	update := domain.UserUpdate{
		TeamID:    payload.TeamID.String(),
		FirstName: payload.FirstName,
		LastName:  payload.LastName,
		Email:     payload.Email,
		Initials:  payload.Initials,
	}
	if payload.Status != nil {
		status := domain.UserStatus(*payload.Status)
		update.Status = &status
	}

	if err := h.users.UpdateUser(ctx, actor, path.UserID, update); err != nil {
		if apperrors.IsKind(err, apperrors.KindInternal) {
			h.logger.Error("update user failed", zap.String("user_id", path.UserID), zap.Error(err))
			return dispatch.Message(http.StatusInternalServerError, apperrors.ToDomainError(err).Message), nil
		}
		return dispatch.Response{}, err
	}
	return dispatch.Message(http.StatusOK, msgUserUpdated), nil
}

// DeleteUser handles DELETE /user/{userId}.
func (h *UsersHandler) DeleteUser(ctx context.Context, req dispatch.Request) (dispatch.Response, error) {
	userID := req.PathParam("userId")
	if userID == "" {
		return dispatch.Message(http.StatusBadRequest, msgMissingUserID), nil
	}
	path, err := h.validator.UserID(userID)
	if err != nil {
		return dispatch.Response{}, err
	}

	var actor domain.Principal
	if req.Caller != nil {
		actor = *req.Caller
	}
	// TODO: remove the user's rows from the authorization tables once that schema lands here.
	if err := h.users.DeleteUser(ctx, actor, path.UserID); err != nil {
		return dispatch.Response{}, err
	}
	return dispatch.Message(http.StatusOK, msgUserDeleted), nil
}

func userSummary(user *domain.User) dto.UserSummary {
	return dto.UserSummary{
		ID:        user.ID,
		FirstName: user.FirstName,
		LastName:  user.LastName,
		Status:    string(user.Status),
		Team:      dto.TeamResponse{ID: user.Team.ID, Name: user.Team.Name},
		Initials:  user.Initials,
		CreatedBy: dto.CreatorResponse{ID: user.CreatedBy.ID, Name: user.CreatedBy.Name},
		CreatedAt: formatTimestamp(user.CreatedAt),
	}
}

func userDetail(user *domain.User) dto.UserDetail {
	return dto.UserDetail{
		ID:        user.ID,
		FirstName: user.FirstName,
		LastName:  user.LastName,
		Email:     user.Email,
		Status:    string(user.Status),
		Team:      dto.TeamResponse{ID: user.Team.ID, Name: user.Team.Name},
		Initials:  user.Initials,
		CreatedBy: dto.CreatorResponse{ID: user.CreatedBy.ID, Name: user.CreatedBy.Name},
		CreatedAt: formatTimestamp(user.CreatedAt),
	}
}

func formatTimestamp(t time.Time) string {
	return t.UTC().Format(isoTimestamp)
}
