package repository

import (
	"context"
	"fmt"

	"clinic-orders/internal/model"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"
)

// approvalLogRepository implements the ApprovalLogRepository interface using PostgreSQL.
type approvalLogRepository struct {
	pool   *pgxpool.Pool
	logger zerolog.Logger
}

// NewApprovalLogRepository creates a new PostgreSQL-backed approval log repository.
func NewApprovalLogRepository(pool *pgxpool.Pool, logger zerolog.Logger) ApprovalLogRepository {
	return &approvalLogRepository{
		pool:   pool,
		logger: logger.With().Str("repository", "approval_log").Logger(),
	}
}

// Append records one entry. ID and CreatedAt are filled in when zero.
func (r *approvalLogRepository) Append(ctx context.Context, entry *model.ApprovalLogEntry) error {
	if entry.ID == uuid.Nil {
		entry.ID = uuid.New()
	}

	query := `
		INSERT INTO approval_log (id, cart_id, item_id, action, actor, previous_quantity, new_quantity, note, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, COALESCE($9, NOW()))
		RETURNING created_at
	`

	var createdAt any
	if !entry.CreatedAt.IsZero() {
		createdAt = entry.CreatedAt
	}

	err := r.pool.QueryRow(ctx, query,
		entry.ID,
		entry.CartID,
		entry.ItemID,
		string(entry.Action),
		entry.Actor,
		entry.PreviousQuantity,
		entry.NewQuantity,
		entry.Note,
		createdAt,
	).Scan(&entry.CreatedAt)
	if err != nil {
		r.logger.Error().
			Err(err).
			Str("cart_id", entry.CartID.String()).
			Str("action", string(entry.Action)).
			Msg("failed to append approval log entry")
		return fmt.Errorf("failed to append approval log entry: %w", err)
	}

	return nil
}

// ListByCart returns a cart's entries in the order they were written.
func (r *approvalLogRepository) ListByCart(ctx context.Context, cartID uuid.UUID) ([]model.ApprovalLogEntry, error) {
	query := `
		SELECT id, cart_id, item_id, action, actor, previous_quantity, new_quantity, note, created_at
		FROM approval_log
		WHERE cart_id = $1
		ORDER BY created_at, id
	`

	rows, err := r.pool.Query(ctx, query, cartID)
	if err != nil {
		r.logger.Error().Err(err).Str("cart_id", cartID.String()).Msg("failed to query approval log")
		return nil, fmt.Errorf("failed to query approval log: %w", err)
	}
	defer rows.Close()

	entries := []model.ApprovalLogEntry{}
	for rows.Next() {
		var e model.ApprovalLogEntry
		err := rows.Scan(&e.ID, &e.CartID, &e.ItemID, &e.Action, &e.Actor,
			&e.PreviousQuantity, &e.NewQuantity, &e.Note, &e.CreatedAt)
		if err != nil {
			r.logger.Error().Err(err).Msg("failed to scan approval log row")
			return nil, fmt.Errorf("failed to scan approval log entry: %w", err)
		}
		entries = append(entries, e)
	}

	if err := rows.Err(); err != nil {
		r.logger.Error().Err(err).Msg("error iterating approval log rows")
		return nil, fmt.Errorf("error iterating approval log: %w", err)
	}

	return entries, nil
}
