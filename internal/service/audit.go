package service

import (
	"context"
	"fmt"

	"clinic-orders/internal/model"
	"clinic-orders/internal/repository"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// auditTrail appends approval log entries on behalf of the workflow services.
// An append that fails after the primary write succeeded is logged and
// dropped; the caller's operation still succeeds.
type auditTrail struct {
	repo   repository.ApprovalLogRepository
	logger zerolog.Logger
}

func newAuditTrail(repo repository.ApprovalLogRepository, logger zerolog.Logger) *auditTrail {
	return &auditTrail{repo: repo, logger: logger}
}

func (a *auditTrail) record(ctx context.Context, entry *model.ApprovalLogEntry) {
	if err := a.repo.Append(ctx, entry); err != nil {
		ev := a.logger.Warn().
			Err(err).
			Str("cart_id", entry.CartID.String()).
			Str("action", string(entry.Action)).
			Str("actor", entry.Actor)
		if entry.ItemID != nil {
			ev = ev.Str("item_id", entry.ItemID.String())
		}
		ev.Msg("failed to append approval log entry")
	}
}

func (a *auditTrail) list(ctx context.Context, cartID uuid.UUID) ([]model.ApprovalLogEntry, error) {
	entries, err := a.repo.ListByCart(ctx, cartID)
	if err != nil {
		return nil, fmt.Errorf("failed to load approval history: %w", err)
	}
	return entries, nil
}
