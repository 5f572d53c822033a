package repository

import (
	"context"
	"errors"
	"fmt"

	"clinic-orders/internal/model"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"
)

// companyRepository implements the CompanyRepository interface using PostgreSQL.
type companyRepository struct {
	pool   *pgxpool.Pool
	logger zerolog.Logger
}

// NewCompanyRepository creates a new PostgreSQL-backed company repository.
func NewCompanyRepository(pool *pgxpool.Pool, logger zerolog.Logger) CompanyRepository {
	return &companyRepository{
		pool:   pool,
		logger: logger.With().Str("repository", "company").Logger(),
	}
}

// Create inserts a company. A duplicate name yields model.ErrDuplicate.
func (r *companyRepository) Create(ctx context.Context, company *model.Company) error {
	if company.ID == uuid.Nil {
		company.ID = uuid.New()
	}

	query := `
		INSERT INTO companies (id, name, created_at)
		VALUES ($1, $2, NOW())
		RETURNING created_at
	`

	if err := r.pool.QueryRow(ctx, query, company.ID, company.Name).Scan(&company.CreatedAt); err != nil {
		if isUniqueViolation(err) {
			return model.ErrDuplicate
		}
		r.logger.Error().Err(err).Str("name", company.Name).Msg("failed to create company")
		return fmt.Errorf("failed to create company: %w", err)
	}

	return nil
}

func (r *companyRepository) List(ctx context.Context) ([]model.Company, error) {
	rows, err := r.pool.Query(ctx, `SELECT id, name, created_at FROM companies ORDER BY name`)
	if err != nil {
		r.logger.Error().Err(err).Msg("failed to list companies")
		return nil, fmt.Errorf("failed to list companies: %w", err)
	}

	companies, err := pgx.CollectRows(rows, pgx.RowToStructByName[model.Company])
	if err != nil {
		r.logger.Error().Err(err).Msg("failed to collect companies")
		return nil, fmt.Errorf("failed to collect companies: %w", err)
	}

	return companies, nil
}

// GetByID retrieves a company. Returns nil when absent.
func (r *companyRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.Company, error) {
	var c model.Company
	err := r.pool.QueryRow(ctx, `SELECT id, name, created_at FROM companies WHERE id = $1`, id).
		Scan(&c.ID, &c.Name, &c.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		r.logger.Error().Err(err).Str("company_id", id.String()).Msg("failed to query company")
		return nil, fmt.Errorf("failed to query company: %w", err)
	}

	return &c, nil
}

// Delete removes a company and, by cascade, its access codes.
func (r *companyRepository) Delete(ctx context.Context, id uuid.UUID) (bool, error) {
	tag, err := r.pool.Exec(ctx, `DELETE FROM companies WHERE id = $1`, id)
	if err != nil {
		r.logger.Error().Err(err).Str("company_id", id.String()).Msg("failed to delete company")
		return false, fmt.Errorf("failed to delete company: %w", err)
	}

	return tag.RowsAffected() == 1, nil
}

func (r *companyRepository) CreateAccessCode(ctx context.Context, code *model.AccessCode) error {
	query := `
		INSERT INTO access_codes (code, company_id, role, created_at)
		VALUES ($1, $2, $3, NOW())
		RETURNING created_at
	`

	if err := r.pool.QueryRow(ctx, query, code.Code, code.CompanyID, code.Role).Scan(&code.CreatedAt); err != nil {
		if isUniqueViolation(err) {
			return model.ErrDuplicate
		}
		r.logger.Error().Err(err).Str("company_id", code.CompanyID.String()).Msg("failed to create access code")
		return fmt.Errorf("failed to create access code: %w", err)
	}

	return nil
}

func (r *companyRepository) ListAccessCodes(ctx context.Context, companyID uuid.UUID) ([]model.AccessCode, error) {
	query := `
		SELECT code, company_id, role, created_at
		FROM access_codes
		WHERE company_id = $1
		ORDER BY created_at, code
	`

	rows, err := r.pool.Query(ctx, query, companyID)
	if err != nil {
		r.logger.Error().Err(err).Str("company_id", companyID.String()).Msg("failed to list access codes")
		return nil, fmt.Errorf("failed to list access codes: %w", err)
	}

	codes, err := pgx.CollectRows(rows, pgx.RowToStructByName[model.AccessCode])
	if err != nil {
		r.logger.Error().Err(err).Msg("failed to collect access codes")
		return nil, fmt.Errorf("failed to collect access codes: %w", err)
	}

	return codes, nil
}

func (r *companyRepository) DeleteAccessCode(ctx context.Context, code string) (bool, error) {
	tag, err := r.pool.Exec(ctx, `DELETE FROM access_codes WHERE code = $1`, code)
	if err != nil {
		r.logger.Error().Err(err).Msg("failed to delete access code")
		return false, fmt.Errorf("failed to delete access code: %w", err)
	}

	return tag.RowsAffected() == 1, nil
}
