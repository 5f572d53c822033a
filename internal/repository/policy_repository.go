package repository

import (
	"context"
	"errors"
	"fmt"

	"clinic-orders/internal/model"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"
)

// policyRepository implements the PolicyRepository interface using PostgreSQL.
type policyRepository struct {
	pool   *pgxpool.Pool
	logger zerolog.Logger
}

// NewPolicyRepository creates a new PostgreSQL-backed policy repository.
func NewPolicyRepository(pool *pgxpool.Pool, logger zerolog.Logger) PolicyRepository {
	return &policyRepository{
		pool:   pool,
		logger: logger.With().Str("repository", "policy").Logger(),
	}
}

const policyColumns = `id, title, body, company_id, updated_by, updated_at`

// Save inserts or replaces a policy keyed by its ID.
func (r *policyRepository) Save(ctx context.Context, policy *model.Policy) error {
	query := `
		INSERT INTO policies (id, title, body, company_id, updated_by, updated_at)
		VALUES ($1, $2, $3, $4, $5, NOW())
		ON CONFLICT (id) DO UPDATE
		SET title = EXCLUDED.title,
		    body = EXCLUDED.body,
		    company_id = EXCLUDED.company_id,
		    updated_by = EXCLUDED.updated_by,
		    updated_at = NOW()
		RETURNING updated_at
	`

	err := r.pool.QueryRow(ctx, query,
		policy.ID, policy.Title, policy.Body, policy.CompanyID, policy.UpdatedBy,
	).Scan(&policy.UpdatedAt)
	if err != nil {
		r.logger.Error().Err(err).Str("policy_id", policy.ID).Msg("failed to save policy")
		return fmt.Errorf("failed to save policy: %w", err)
	}

	return nil
}

// GetByID retrieves a policy. Returns nil when absent.
func (r *policyRepository) GetByID(ctx context.Context, id string) (*model.Policy, error) {
	rows, err := r.pool.Query(ctx, `SELECT `+policyColumns+` FROM policies WHERE id = $1`, id)
	if err != nil {
		r.logger.Error().Err(err).Str("policy_id", id).Msg("failed to query policy")
		return nil, fmt.Errorf("failed to query policy: %w", err)
	}

	p, err := pgx.CollectExactlyOneRow(rows, pgx.RowToAddrOfStructByName[model.Policy])
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		r.logger.Error().Err(err).Str("policy_id", id).Msg("failed to scan policy")
		return nil, fmt.Errorf("failed to scan policy: %w", err)
	}

	return p, nil
}

func (r *policyRepository) List(ctx context.Context) ([]model.Policy, error) {
	rows, err := r.pool.Query(ctx, `SELECT `+policyColumns+` FROM policies ORDER BY title, id`)
	if err != nil {
		r.logger.Error().Err(err).Msg("failed to list policies")
		return nil, fmt.Errorf("failed to list policies: %w", err)
	}

	policies, err := pgx.CollectRows(rows, pgx.RowToStructByName[model.Policy])
	if err != nil {
		r.logger.Error().Err(err).Msg("failed to collect policies")
		return nil, fmt.Errorf("failed to collect policies: %w", err)
	}

	return policies, nil
}
