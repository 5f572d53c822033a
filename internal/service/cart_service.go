package service

import (
	"context"
	"fmt"
	"time"

	"clinic-orders/internal/export"
	"clinic-orders/internal/model"
	"clinic-orders/internal/repository"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/xuri/excelize/v2"
)

// cartService implements CartService.
type cartService struct {
	cartRepo    repository.CartRepository
	productRepo repository.ProductRepository
	audit       *auditTrail
	now         func() time.Time
	logger      zerolog.Logger
}

// NewCartService creates a new cart service.
func NewCartService(
	cartRepo repository.CartRepository,
	productRepo repository.ProductRepository,
	logRepo repository.ApprovalLogRepository,
	logger zerolog.Logger,
) CartService {
	logger = logger.With().Str("service", "cart").Logger()
	return &cartService{
		cartRepo:    cartRepo,
		productRepo: productRepo,
		audit:       newAuditTrail(logRepo, logger),
		now:         time.Now,
		logger:      logger,
	}
}

// GetDraft returns the caller's draft without creating one.
func (s *cartService) GetDraft(ctx context.Context, identity model.Identity) (*model.CartView, error) {
	if err := requireStaff(identity); err != nil {
		return nil, err
	}

	cart, err := s.cartRepo.GetDraft(ctx, identity.UserID, identity.Clinic)
	if err != nil {
		return nil, fmt.Errorf("failed to load draft cart: %w", err)
	}
	if cart == nil {
		return &model.CartView{Items: []model.CartItemDetail{}}, nil
	}

	return s.view(ctx, cart)
}

// AddItem adds a product to the caller's draft, or to an editable cart of theirs.
// Re-adding a product already in the cart increases its quantity.
func (s *cartService) AddItem(ctx context.Context, identity model.Identity, req *model.AddItemRequest) (*model.CartItem, error) {
	if err := requireStaff(identity); err != nil {
		return nil, err
	}
	if req.Quantity <= 0 {
		return nil, model.ErrInvalidQuantity
	}

	product, err := s.productRepo.GetByItemNumber(ctx, req.ProductID)
	if err != nil {
		return nil, fmt.Errorf("failed to load product: %w", err)
	}
	if product == nil {
		return nil, model.ErrProductNotFound
	}

	var cart *model.Cart
	if req.CartID == nil {
		cart, err = s.cartRepo.EnsureDraft(ctx, identity.UserID, identity.Clinic)
		if err != nil {
			return nil, fmt.Errorf("failed to load draft cart: %w", err)
		}
	} else {
		cart, err = s.ownedCart(ctx, identity, *req.CartID)
		if err != nil {
			return nil, err
		}
	}

	if !cart.Status.Editable() {
		return nil, model.ErrCartNotEditable
	}

	item, err := s.cartRepo.AddOrIncrementItem(ctx, cart.ID, product.ItemNumber, req.Quantity)
	if err != nil {
		return nil, fmt.Errorf("failed to add item: %w", err)
	}

	s.logger.Info().
		Str("cart_id", cart.ID.String()).
		Str("product_id", product.ItemNumber).
		Int("quantity", item.Quantity).
		Msg("item added to cart")

	return item, nil
}

// UpdateItemQuantity sets an item's quantity. Zero removes the item.
func (s *cartService) UpdateItemQuantity(ctx context.Context, identity model.Identity, itemID uuid.UUID, quantity int) (*model.CartView, error) {
	if err := requireStaff(identity); err != nil {
		return nil, err
	}
	if quantity < 0 {
		return nil, model.ErrInvalidQuantity
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
	if cart == nil || cart.UserID != identity.UserID {
		return nil, model.ErrItemNotFound
	}
	if !cart.Status.Editable() {
		return nil, model.ErrCartNotEditable
	}

	if quantity == 0 {
		ok, err := s.cartRepo.DeleteItem(ctx, itemID)
		if err != nil {
			return nil, fmt.Errorf("failed to remove item: %w", err)
		}
		if !ok {
			return nil, model.ErrItemNotFound
		}
		s.logger.Info().Str("cart_id", cart.ID.String()).Str("item_id", itemID.String()).Msg("item removed from cart")
	} else {
		ok, err := s.cartRepo.SetItemQuantity(ctx, itemID, quantity)
		if err != nil {
			return nil, fmt.Errorf("failed to update item: %w", err)
		}
		if !ok {
			return nil, model.ErrItemNotFound
		}
	}

	return s.view(ctx, cart)
}

// Submit sends a draft or returned cart for review. Submitting a draft
// also opens a fresh draft for the same user and clinic.
func (s *cartService) Submit(ctx context.Context, identity model.Identity, cartID uuid.UUID) (*model.Cart, error) {
	if err := requireStaff(identity); err != nil {
		return nil, err
	}

	cart, err := s.ownedCart(ctx, identity, cartID)
	if err != nil {
		return nil, err
	}
	if !model.CanTransition(cart.Status, model.CartStatusSubmitted) {
		return nil, model.ErrInvalidTransition
	}

	total, _, err := s.cartRepo.CountItems(ctx, cart.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to count items: %w", err)
	}
	if total == 0 {
		return nil, model.ErrEmptyCart
	}

	from := cart.Status
	now := s.now().UTC()
	ok, err := s.cartRepo.UpdateStatus(ctx, cart.ID, []model.CartStatus{from}, model.CartStatusSubmitted, &now)
	if err != nil {
		return nil, fmt.Errorf("failed to submit cart: %w", err)
	}
	if !ok {
		return nil, model.ErrInvalidTransition
	}

	cart.Status = model.CartStatusSubmitted
	cart.SubmittedAt = &now

	s.audit.record(ctx, &model.ApprovalLogEntry{
		CartID: cart.ID,
		Action: model.ActionSubmitted,
		Actor:  identity.UserID,
	})

	if from == model.CartStatusDraft {
		if _, err := s.cartRepo.EnsureDraft(ctx, identity.UserID, cart.ClinicName); err != nil {
			s.logger.Warn().Err(err).Str("user_id", identity.UserID).Msg("failed to open a new draft after submit")
		}
	}

	s.logger.Info().
		Str("cart_id", cart.ID.String()).
		Str("from", string(from)).
		Int("items", total).
		Msg("cart submitted")

	return cart, nil
}

func (s *cartService) ListMine(ctx context.Context, identity model.Identity) ([]model.Cart, error) {
	if identity.UserID == "" {
		return nil, model.ErrUnauthorised
	}

	carts, err := s.cartRepo.List(ctx, model.CartFilter{UserID: identity.UserID})
	if err != nil {
		return nil, fmt.Errorf("failed to list carts: %w", err)
	}
	return carts, nil
}

func (s *cartService) Get(ctx context.Context, identity model.Identity, cartID uuid.UUID) (*model.CartView, error) {
	cart, err := s.visibleCart(ctx, identity, cartID)
	if err != nil {
		return nil, err
	}
	return s.view(ctx, cart)
}

func (s *cartService) History(ctx context.Context, identity model.Identity, cartID uuid.UUID) ([]model.ApprovalLogEntry, error) {
	if _, err := s.visibleCart(ctx, identity, cartID); err != nil {
		return nil, err
	}
	return s.audit.list(ctx, cartID)
}

// Export renders an approved cart as a workbook.
func (s *cartService) Export(ctx context.Context, identity model.Identity, cartID uuid.UUID) (*excelize.File, error) {
	cart, err := s.visibleCart(ctx, identity, cartID)
	if err != nil {
		return nil, err
	}
	if cart.Status != model.CartStatusApproved {
		return nil, model.ErrCartNotApproved
	}

	view, err := s.view(ctx, cart)
	if err != nil {
		return nil, err
	}

	f, err := export.Build(view)
	if err != nil {
		s.logger.Error().Err(err).Str("cart_id", cartID.String()).Msg("failed to build export")
		return nil, err
	}

	return f, nil
}

// ownedCart loads a cart that must belong to the caller. Other users' carts
// are reported as missing.
func (s *cartService) ownedCart(ctx context.Context, identity model.Identity, cartID uuid.UUID) (*model.Cart, error) {
	cart, err := s.cartRepo.GetByID(ctx, cartID)
	if err != nil {
		return nil, fmt.Errorf("failed to load cart: %w", err)
	}
	if cart == nil || cart.UserID != identity.UserID {
		return nil, model.ErrCartNotFound
	}
	return cart, nil
}

// visibleCart loads a cart the caller may read: their own, or any submitted
// cart for a manager. Another user's draft is reported as missing.
func (s *cartService) visibleCart(ctx context.Context, identity model.Identity, cartID uuid.UUID) (*model.Cart, error) {
	if identity.UserID == "" {
		return nil, model.ErrUnauthorised
	}

	cart, err := s.cartRepo.GetByID(ctx, cartID)
	if err != nil {
		return nil, fmt.Errorf("failed to load cart: %w", err)
	}
	if cart == nil {
		return nil, model.ErrCartNotFound
	}
	if cart.UserID != identity.UserID && (!identity.IsManager() || cart.Status == model.CartStatusDraft) {
		return nil, model.ErrCartNotFound
	}
	return cart, nil
}

func (s *cartService) view(ctx context.Context, cart *model.Cart) (*model.CartView, error) {
	items, err := s.cartRepo.ListItems(ctx, cart.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to load cart items: %w", err)
	}
	return &model.CartView{Cart: cart, Items: items}, nil
}
