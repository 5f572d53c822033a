package service

import (
	"context"
	"fmt"

	"clinic-orders/internal/model"
	"clinic-orders/internal/repository"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// DefaultReturnNote is recorded when a manager returns a cart without a note.
const DefaultReturnNote = "Returned to staff for changes"

// reviewService implements ReviewService.
type reviewService struct {
	cartRepo     repository.CartRepository
	audit        *auditTrail
	adjustPolicy model.AdjustPolicy
	logger       zerolog.Logger
}

// NewReviewService creates a new review service. adjustPolicy decides what a
// quantity adjustment does to an item's review status.
func NewReviewService(
	cartRepo repository.CartRepository,
	logRepo repository.ApprovalLogRepository,
	adjustPolicy model.AdjustPolicy,
	logger zerolog.Logger,
) ReviewService {
	if !adjustPolicy.Valid() {
		adjustPolicy = model.AdjustKeepStatus
	}
	logger = logger.With().Str("service", "review").Logger()
	return &reviewService{
		cartRepo:     cartRepo,
		audit:        newAuditTrail(logRepo, logger),
		adjustPolicy: adjustPolicy,
		logger:       logger,
	}
}

// ListQueue lists carts for review, submitted ones unless the filter says
// otherwise. Drafts are never listed.
func (s *reviewService) ListQueue(ctx context.Context, identity model.Identity, filter model.CartFilter) ([]model.Cart, error) {
	if err := requireManager(identity); err != nil {
		return nil, err
	}
	if len(filter.Statuses) == 0 {
		filter.Statuses = []model.CartStatus{model.CartStatusSubmitted}
	}
	for _, status := range filter.Statuses {
		if status == model.CartStatusDraft {
			return nil, model.NewDomainError(model.ErrCodeValidationFailed, "draft carts are not reviewable")
		}
	}

	carts, err := s.cartRepo.List(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("failed to list review queue: %w", err)
	}
	return carts, nil
}

// ApproveItem approves a pending item at the given quantity.
func (s *reviewService) ApproveItem(ctx context.Context, identity model.Identity, itemID uuid.UUID, quantity int, note string) (*model.CartItem, error) {
	if quantity < 0 {
		return nil, model.ErrInvalidQuantity
	}

	item, err := s.reviewableItem(ctx, identity, itemID)
	if err != nil {
		return nil, err
	}
	if item.Status != model.ItemStatusPending {
		return nil, model.ErrItemNotPending
	}

	ok, err := s.cartRepo.DecideItem(ctx, itemID, model.ItemStatusApproved, &quantity)
	if err != nil {
		return nil, fmt.Errorf("failed to approve item: %w", err)
	}
	if !ok {
		return nil, model.ErrItemNotPending
	}

	previous := item.Quantity
	item.Status = model.ItemStatusApproved
	item.ApprovedQuantity = &quantity

	s.audit.record(ctx, &model.ApprovalLogEntry{
		CartID:           item.CartID,
		ItemID:           &item.ID,
		Action:           model.ActionApproved,
		Actor:            identity.UserID,
		PreviousQuantity: &previous,
		NewQuantity:      &quantity,
		Note:             note,
	})

	s.logger.Info().
		Str("cart_id", item.CartID.String()).
		Str("item_id", itemID.String()).
		Int("approved_quantity", quantity).
		Msg("item approved")

	return item, nil
}

// DenyItem denies a pending item.
func (s *reviewService) DenyItem(ctx context.Context, identity model.Identity, itemID uuid.UUID, note string) (*model.CartItem, error) {
	item, err := s.reviewableItem(ctx, identity, itemID)
	if err != nil {
		return nil, err
	}
	if item.Status != model.ItemStatusPending {
		return nil, model.ErrItemNotPending
	}

	ok, err := s.cartRepo.DecideItem(ctx, itemID, model.ItemStatusDenied, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to deny item: %w", err)
	}
	if !ok {
		return nil, model.ErrItemNotPending
	}

	previous := item.Quantity
	item.Status = model.ItemStatusDenied
	item.ApprovedQuantity = nil

	s.audit.record(ctx, &model.ApprovalLogEntry{
		CartID:           item.CartID,
		ItemID:           &item.ID,
		Action:           model.ActionDenied,
		Actor:            identity.UserID,
		PreviousQuantity: &previous,
		Note:             note,
	})

	s.logger.Info().
		Str("cart_id", item.CartID.String()).
		Str("item_id", itemID.String()).
		Msg("item denied")

	return item, nil
}

// AdjustQuantity changes an item's working quantity. Under AdjustKeepStatus
// the review status is untouched and an approved item's approved quantity
// follows the new value; under AdjustApproves the item becomes approved.
func (s *reviewService) AdjustQuantity(ctx context.Context, identity model.Identity, itemID uuid.UUID, quantity int, note string) (*model.CartItem, error) {
	if quantity < 0 {
		return nil, model.ErrInvalidQuantity
	}

	item, err := s.reviewableItem(ctx, identity, itemID)
	if err != nil {
		return nil, err
	}

	status := item.Status
	if s.adjustPolicy == model.AdjustApproves {
		status = model.ItemStatusApproved
	}
	var approved *int
	if status == model.ItemStatusApproved {
		approved = &quantity
	}

	ok, err := s.cartRepo.AdjustItem(ctx, itemID, quantity, status, approved)
	if err != nil {
		return nil, fmt.Errorf("failed to adjust item: %w", err)
	}
	if !ok {
		return nil, model.ErrItemNotFound
	}

	previous := item.Quantity
	item.Quantity = quantity
	item.Status = status
	item.ApprovedQuantity = approved

	s.audit.record(ctx, &model.ApprovalLogEntry{
		CartID:           item.CartID,
		ItemID:           &item.ID,
		Action:           model.ActionQuantityAdjusted,
		Actor:            identity.UserID,
		PreviousQuantity: &previous,
		NewQuantity:      &quantity,
		Note:             note,
	})

	s.logger.Info().
		Str("cart_id", item.CartID.String()).
		Str("item_id", itemID.String()).
		Int("previous_quantity", previous).
		Int("quantity", quantity).
		Str("status", string(status)).
		Msg("item quantity adjusted")

	return item, nil
}

// ApproveCart finalises a submitted cart once no item is pending.
func (s *reviewService) ApproveCart(ctx context.Context, identity model.Identity, cartID uuid.UUID, note string) (*model.Cart, error) {
	cart, err := s.managedCart(ctx, identity, cartID)
	if err != nil {
		return nil, err
	}
	if !model.CanTransition(cart.Status, model.CartStatusApproved) {
		return nil, model.ErrInvalidTransition
	}

	_, pending, err := s.cartRepo.CountItems(ctx, cartID)
	if err != nil {
		return nil, fmt.Errorf("failed to count items: %w", err)
	}
	if pending > 0 {
		s.logger.Warn().
			Str("cart_id", cartID.String()).
			Int("pending", pending).
			Msg("cart approval refused, items still pending")
		return nil, model.ErrPendingItems
	}

	if err := s.transition(ctx, cart, model.CartStatusApproved); err != nil {
		return nil, err
	}

	s.audit.record(ctx, &model.ApprovalLogEntry{
		CartID: cartID,
		Action: model.ActionApproved,
		Actor:  identity.UserID,
		Note:   note,
	})

	s.logger.Info().Str("cart_id", cartID.String()).Msg("cart approved")

	return cart, nil
}

// ReturnCart sends a submitted cart back to its owner. Pending items are allowed.
func (s *reviewService) ReturnCart(ctx context.Context, identity model.Identity, cartID uuid.UUID, note string) (*model.Cart, error) {
	cart, err := s.managedCart(ctx, identity, cartID)
	if err != nil {
		return nil, err
	}
	if !model.CanTransition(cart.Status, model.CartStatusReturned) {
		return nil, model.ErrInvalidTransition
	}

	if err := s.transition(ctx, cart, model.CartStatusReturned); err != nil {
		return nil, err
	}

	if note == "" {
		note = DefaultReturnNote
	}
	s.audit.record(ctx, &model.ApprovalLogEntry{
		CartID: cartID,
		Action: model.ActionReturned,
		Actor:  identity.UserID,
		Note:   note,
	})

	s.logger.Info().Str("cart_id", cartID.String()).Msg("cart returned to staff")

	return cart, nil
}

// transition writes the status change conditionally on the status we read.
// Losing a race to another reviewer surfaces as ErrInvalidTransition.
func (s *reviewService) transition(ctx context.Context, cart *model.Cart, to model.CartStatus) error {
	ok, err := s.cartRepo.UpdateStatus(ctx, cart.ID, []model.CartStatus{cart.Status}, to, nil)
	if err != nil {
		return fmt.Errorf("failed to update cart status: %w", err)
	}
	if !ok {
		return model.ErrInvalidTransition
	}
	cart.Status = to
	return nil
}

func (s *reviewService) managedCart(ctx context.Context, identity model.Identity, cartID uuid.UUID) (*model.Cart, error) {
	if err := requireManager(identity); err != nil {
		return nil, err
	}

	cart, err := s.cartRepo.GetByID(ctx, cartID)
	if err != nil {
		return nil, fmt.Errorf("failed to load cart: %w", err)
	}
	if cart == nil {
		return nil, model.ErrCartNotFound
	}
	return cart, nil
}

// reviewableItem loads an item whose cart is awaiting review.
func (s *reviewService) reviewableItem(ctx context.Context, identity model.Identity, itemID uuid.UUID) (*model.CartItem, error) {
	if err := requireManager(identity); err != nil {
		return nil, err
	}

	item, err := s.cartRepo.GetItem(ctx, itemID)
	if err != nil {
		return nil, fmt.Errorf("failed to load item: %w", err)
	}
	if item == nil {
		return nil, model.ErrItemNotFound
	}

	cart, err := s.cartRepo.GetByID(ctx, item.CartID)
	if err != nil {
		return nil, fmt.Errorf("failed to load cart: %w", err)
	}
	if cart == nil {
		return nil, model.ErrCartNotFound
	}
	if !cart.Status.Reviewable() {
		return nil, model.ErrCartNotReviewable
	}

	return item, nil
}
