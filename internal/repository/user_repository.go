package repository

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"github.com/spec-kit/user-service/internal/config"
	"github.com/spec-kit/user-service/internal/domain"
	apperrors "github.com/spec-kit/user-service/pkg/util/errorutil"
)

// Messages returned by the store. Handlers pass them to callers unchanged.
const (
	MsgUserNotFound    = "User not found"
	MsgTeamNotFound    = "Team not found"
	MsgUserExists      = "User with this email already exists"
	MsgUserAssociated  = "User has associated records and cannot be deleted"
	MsgUserUpdateFails = "Failed to update user: user no longer exists"
)

// UserStore is the data access collaborator for users and their teams.
// Check methods return nil when the check passes and a DomainError otherwise.
type UserStore interface {
	ListUsers(ctx context.Context, filter domain.UserFilter) ([]domain.User, error)
	GetUserByID(ctx context.Context, id string) (*domain.User, error)
	TeamExists(ctx context.Context, teamID string) error
	UserExists(ctx context.Context, criteria domain.UserCriteria) error
	CreateUser(ctx context.Context, user *domain.User) (string, error)
	UpdateUser(ctx context.Context, id string, update domain.UserUpdate) error
	HasAssociations(ctx context.Context, id string) error
	DeleteUser(ctx context.Context, id string) error
}

type userRepository struct {
	pool   *pgxpool.Pool
	cfg    config.DatastoreConfig
	logger *zap.Logger
	users  string
	teams  string
}

// NewUserRepository returns a Postgres-backed implementation.
func NewUserRepository(pool *pgxpool.Pool, cfg config.DatastoreConfig, logger *zap.Logger) UserStore {
	return &userRepository{
		pool:   pool,
		cfg:    cfg,
		logger: logger.Named("repository.users"),
		users:  pgx.Identifier{tableOrDefault(cfg.UsersTable, "users")}.Sanitize(),
		teams:  pgx.Identifier{tableOrDefault(cfg.TeamsTable, "teams")}.Sanitize(),
	}
}

func (r *userRepository) timeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if d := r.cfg.QueryTimeout(); d > 0 {
		return context.WithTimeout(ctx, d)
	}
	return context.WithCancel(ctx)
}

func tableOrDefault(name, fallback string) string {
	if strings.TrimSpace(name) == "" {
		return fallback
	}
	return name
}

func (r *userRepository) selectUsers() string {
	return fmt.Sprintf(`
        SELECT u.id, u.first_name, u.last_name, u.email, u.status, u.initials,
               t.id, t.name, u.created_by_id, u.created_by_name, u.created_at, u.updated_at
        FROM %s u
        JOIN %s t ON t.id = u.team_id`, r.users, r.teams)
}

func scanUser(row pgx.Row) (*domain.User, error) {
	var (
		user   domain.User
		id     int64
		teamID int64
		status string
	)
	if err := row.Scan(
		&id,
		&user.FirstName,
		&user.LastName,
		&user.Email,
		&status,
		&user.Initials,
		&teamID,
		&user.Team.Name,
		&user.CreatedBy.ID,
		&user.CreatedBy.Name,
		&user.CreatedAt,
		&user.UpdatedAt,
	); err != nil {
		return nil, err
	}
	user.ID = strconv.FormatInt(id, 10)
	user.Team.ID = strconv.FormatInt(teamID, 10)
	user.Status = domain.UserStatus(status)
	return &user, nil
}

func (r *userRepository) ListUsers(ctx context.Context, filter domain.UserFilter) ([]domain.User, error) {
	ctx, cancel := r.timeout(ctx)
	defer cancel()

	query := r.selectUsers()
	var args []any
	if filter.Team != nil {
		query += ` WHERE t.id::text = $1 OR lower(t.name) = lower($1)`
		args = append(args, *filter.Team)
	}
	query += ` ORDER BY u.id`

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	defer rows.Close()

	result := make([]domain.User, 0)
	for rows.Next() {
		user, err := scanUser(rows)
		if err != nil {
			return nil, fmt.Errorf("scan user: %w", err)
		}
		result = append(result, *user)
	}
	return result, rows.Err()
}

func (r *userRepository) GetUserByID(ctx context.Context, id string) (*domain.User, error) {
	key, ok := parseID(id)
	if !ok {
		return nil, apperrors.NewNotFound(MsgUserNotFound)
	}
	ctx, cancel := r.timeout(ctx)
	defer cancel()

	user, err := scanUser(r.pool.QueryRow(ctx, r.selectUsers()+` WHERE u.id = $1`, key))
	if err != nil {
		return nil, apperrors.FromStoreError(err, MsgUserNotFound)
	}
	return user, nil
}

func (r *userRepository) TeamExists(ctx context.Context, teamID string) error {
	key, ok := parseID(teamID)
	if !ok {
		return apperrors.NewNotFound(MsgTeamNotFound)
	}
	ctx, cancel := r.timeout(ctx)
	defer cancel()

	var exists bool
	query := fmt.Sprintf(`SELECT EXISTS (SELECT 1 FROM %s WHERE id = $1)`, r.teams)
	if err := r.pool.QueryRow(ctx, query, key).Scan(&exists); err != nil {
		return fmt.Errorf("team exists: %w", err)
	}
	if !exists {
		return apperrors.NewNotFound(MsgTeamNotFound)
	}
	return nil
}

func (r *userRepository) UserExists(ctx context.Context, criteria domain.UserCriteria) error {
	ctx, cancel := r.timeout(ctx)
	defer cancel()

	var exists bool
	query := fmt.Sprintf(`SELECT EXISTS (SELECT 1 FROM %s WHERE lower(email) = lower($1))`, r.users)
	if err := r.pool.QueryRow(ctx, query, criteria.Email).Scan(&exists); err != nil {
		return fmt.Errorf("user exists: %w", err)
	}
	if exists {
		return apperrors.NewConflict(MsgUserExists, map[string]any{"email": criteria.Email})
	}
	return nil
}

func (r *userRepository) CreateUser(ctx context.Context, user *domain.User) (string, error) {
	teamID, ok := parseID(user.Team.ID)
	if !ok {
		return "", apperrors.NewNotFound(MsgTeamNotFound)
	}
	ctx, cancel := r.timeout(ctx)
	defer cancel()

	query := fmt.Sprintf(`
        INSERT INTO %s (first_name, last_name, email, status, initials, password_hash,
                        team_id, created_by_id, created_by_name)
        VALUES ($1, $2, $3, $4, $5, NULLIF($6, ''), $7, $8, $9)
        RETURNING id, created_at, updated_at`, r.users)

	var id int64
	if err := r.pool.QueryRow(ctx, query,
		user.FirstName,
		user.LastName,
		user.Email,
		string(user.Status),
		user.Initials,
		user.PasswordHash,
		teamID,
		user.CreatedBy.ID,
		user.CreatedBy.Name,
	).Scan(&id, &user.CreatedAt, &user.UpdatedAt); err != nil {
		return "", apperrors.FromStoreError(err, MsgTeamNotFound)
	}
	user.ID = strconv.FormatInt(id, 10)
	r.logger.Debug("user inserted", zap.String("user_id", user.ID))
	return user.ID, nil
}

func (r *userRepository) UpdateUser(ctx context.Context, id string, update domain.UserUpdate) error {
	key, ok := parseID(id)
	if !ok {
		return apperrors.NewFailure(MsgUserUpdateFails, nil)
	}
	teamID, ok := parseID(update.TeamID)
	if !ok {
		return apperrors.NewNotFound(MsgTeamNotFound)
	}
	ctx, cancel := r.timeout(ctx)
	defer cancel()

	var status *string
	if update.Status != nil {
		s := string(*update.Status)
		status = &s
	}

	query := fmt.Sprintf(`
        UPDATE %s SET
            team_id = $1,
            first_name = COALESCE($2, first_name),
            last_name = COALESCE($3, last_name),
            email = COALESCE($4, email),
            status = COALESCE($5, status),
            initials = COALESCE($6, initials),
            updated_at = NOW()
        WHERE id = $7`, r.users)

	cmd, err := r.pool.Exec(ctx, query,
		teamID,
		update.FirstName,
		update.LastName,
		update.Email,
		status,
		update.Initials,
		key,
	)
	if err != nil {
		return apperrors.FromStoreError(err, MsgUserNotFound)
	}
	if cmd.RowsAffected() == 0 {
		return apperrors.NewFailure(MsgUserUpdateFails, pgx.ErrNoRows)
	}
	return nil
}

func (r *userRepository) HasAssociations(ctx context.Context, id string) error {
	key, ok := parseID(id)
	if !ok {
		return apperrors.NewNotFound(MsgUserNotFound)
	}
	ctx, cancel := r.timeout(ctx)
	defer cancel()

	var createdUsers, ledTeams int64
	query := fmt.Sprintf(`
        SELECT
            (SELECT COUNT(*) FROM %s WHERE created_by_id = $2 AND id <> $1),
            (SELECT COUNT(*) FROM %s WHERE lead_user_id = $1)`, r.users, r.teams)
	if err := r.pool.QueryRow(ctx, query, key, strconv.FormatInt(key, 10)).Scan(&createdUsers, &ledTeams); err != nil {
		return fmt.Errorf("user associations: %w", err)
	}
	if createdUsers > 0 || ledTeams > 0 {
		return apperrors.NewConflict(MsgUserAssociated, map[string]any{
			"created_users": createdUsers,
			"led_teams":     ledTeams,
		})
	}
	return nil
}

func (r *userRepository) DeleteUser(ctx context.Context, id string) error {
	key, ok := parseID(id)
	if !ok {
		return apperrors.NewNotFound(MsgUserNotFound)
	}
	ctx, cancel := r.timeout(ctx)
	defer cancel()

	cmd, err := r.pool.Exec(ctx, fmt.Sprintf(`DELETE FROM %s WHERE id = $1`, r.users), key)
	if err != nil {
		return apperrors.FromStoreError(err, MsgUserNotFound)
	}
	if cmd.RowsAffected() == 0 {
		return apperrors.NewNotFound(MsgUserNotFound)
	}
	return nil
}

func parseID(id string) (int64, bool) {
	key, err := strconv.ParseInt(strings.TrimSpace(id), 10, 64)
	if err != nil || key <= 0 {
		return 0, false
	}
	return key, true
}
