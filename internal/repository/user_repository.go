package repository

import (
	"context"
	"fmt"

	"clinic-orders/internal/model"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"
)

// userRepository implements the UserRepository interface using PostgreSQL.
type userRepository struct {
	pool   *pgxpool.Pool
	logger zerolog.Logger
}

// NewUserRepository creates a new PostgreSQL-backed user repository.
func NewUserRepository(pool *pgxpool.Pool, logger zerolog.Logger) UserRepository {
	return &userRepository{
		pool:   pool,
		logger: logger.With().Str("repository", "user").Logger(),
	}
}

// Create inserts a user. A duplicate email yields model.ErrDuplicate.
func (r *userRepository) Create(ctx context.Context, user *model.User) error {
	if user.ID == uuid.Nil {
		user.ID = uuid.New()
	}

	query := `
		INSERT INTO users (id, email, name, company_id, role, clinic_name, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, NOW())
		RETURNING created_at
	`

	err := r.pool.QueryRow(ctx, query,
		user.ID, user.Email, user.Name, user.CompanyID, user.Role, user.ClinicName,
	).Scan(&user.CreatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return model.ErrDuplicate
		}
		r.logger.Error().Err(err).Str("user_id", user.ID.String()).Msg("failed to create user")
		return fmt.Errorf("failed to create user: %w", err)
	}

	return nil
}

func (r *userRepository) List(ctx context.Context) ([]model.User, error) {
	query := `
		SELECT id, email, name, company_id, role, clinic_name, created_at
		FROM users
		ORDER BY name, email
	`

	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		r.logger.Error().Err(err).Msg("failed to list users")
		return nil, fmt.Errorf("failed to list users: %w", err)
	}

	users, err := pgx.CollectRows(rows, pgx.RowToStructByName[model.User])
	if err != nil {
		r.logger.Error().Err(err).Msg("failed to collect users")
		return nil, fmt.Errorf("failed to collect users: %w", err)
	}

	return users, nil
}

func (r *userRepository) Delete(ctx context.Context, id uuid.UUID) (bool, error) {
	tag, err := r.pool.Exec(ctx, `DELETE FROM users WHERE id = $1`, id)
	if err != nil {
		r.logger.Error().Err(err).Str("user_id", id.String()).Msg("failed to delete user")
		return false, fmt.Errorf("failed to delete user: %w", err)
	}

	return tag.RowsAffected() == 1, nil
}
