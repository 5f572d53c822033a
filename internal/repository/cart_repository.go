package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"clinic-orders/internal/model"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"
)

// cartRepository implements the CartRepository interface using PostgreSQL.
type cartRepository struct {
	pool   *pgxpool.Pool
	logger zerolog.Logger
}

// NewCartRepository creates a new PostgreSQL-backed cart repository.
func NewCartRepository(pool *pgxpool.Pool, logger zerolog.Logger) CartRepository {
	return &cartRepository{
		pool:   pool,
		logger: logger.With().Str("repository", "cart").Logger(),
	}
}

const (
	cartColumns = `id, user_id, clinic_name, status, submitted_at, created_at, updated_at`
	itemColumns = `id, cart_id, product_id, requested_quantity, quantity, approved_quantity, status, created_at, updated_at`
)

func scanCart(row pgx.Row, c *model.Cart) error {
	return row.Scan(&c.ID, &c.UserID, &c.ClinicName, &c.Status, &c.SubmittedAt, &c.CreatedAt, &c.UpdatedAt)
}

func scanItem(row pgx.Row, i *model.CartItem) error {
	return row.Scan(&i.ID, &i.CartID, &i.ProductID, &i.RequestedQuantity, &i.Quantity,
		&i.ApprovedQuantity, &i.Status, &i.CreatedAt, &i.UpdatedAt)
}

// GetDraft returns the draft cart for a user and clinic, or nil.
func (r *cartRepository) GetDraft(ctx context.Context, userID, clinic string) (*model.Cart, error) {
	query := `
		SELECT ` + cartColumns + `
		FROM carts
		WHERE user_id = $1 AND clinic_name = $2 AND status = 'draft'
	`

	var c model.Cart
	if err := scanCart(r.pool.QueryRow(ctx, query, userID, clinic), &c); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		r.logger.Error().Err(err).
			Str("user_id", userID).
			Str("clinic", clinic).
			Msg("failed to query draft cart")
		return nil, fmt.Errorf("failed to query draft cart: %w", err)
	}

	return &c, nil
}

// EnsureDraft returns the draft cart for a user and clinic, creating it if none exists.
// The partial unique index on drafts makes concurrent calls converge on one cart.
func (r *cartRepository) EnsureDraft(ctx context.Context, userID, clinic string) (*model.Cart, error) {
	cart, err := r.GetDraft(ctx, userID, clinic)
	if err != nil || cart != nil {
		return cart, err
	}

	query := `
		INSERT INTO carts (id, user_id, clinic_name, status, created_at, updated_at)
		VALUES ($1, $2, $3, 'draft', NOW(), NOW())
		ON CONFLICT (user_id, clinic_name) WHERE status = 'draft' DO NOTHING
	`

	id := uuid.New()
	tag, err := r.pool.Exec(ctx, query, id, userID, clinic)
	if err != nil {
		r.logger.Error().Err(err).
			Str("user_id", userID).
			Str("clinic", clinic).
			Msg("failed to create draft cart")
		return nil, fmt.Errorf("failed to create draft cart: %w", err)
	}

	if tag.RowsAffected() == 1 {
		r.logger.Debug().
			Str("cart_id", id.String()).
			Str("user_id", userID).
			Msg("draft cart created")
	}

	cart, err = r.GetDraft(ctx, userID, clinic)
	if err != nil {
		return nil, err
	}
	if cart == nil {
		return nil, fmt.Errorf("draft cart for user %s vanished after creation", userID)
	}

	return cart, nil
}

// GetByID retrieves a cart. Returns nil when absent.
func (r *cartRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.Cart, error) {
	query := `SELECT ` + cartColumns + ` FROM carts WHERE id = $1`

	var c model.Cart
	if err := scanCart(r.pool.QueryRow(ctx, query, id), &c); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			r.logger.Debug().Str("cart_id", id.String()).Msg("cart not found")
			return nil, nil
		}
		r.logger.Error().Err(err).Str("cart_id", id.String()).Msg("failed to query cart")
		return nil, fmt.Errorf("failed to query cart: %w", err)
	}

	return &c, nil
}

// List returns carts matching the filter, newest first.
func (r *cartRepository) List(ctx context.Context, filter model.CartFilter) ([]model.Cart, error) {
	statuses := make([]string, len(filter.Statuses))
	for i, s := range filter.Statuses {
		statuses[i] = string(s)
	}

	query := `
		SELECT ` + cartColumns + `
		FROM carts
		WHERE ($1 = '' OR user_id = $1)
		  AND ($2 = '' OR clinic_name = $2)
		  AND (cardinality($3::text[]) = 0 OR status = ANY($3))
		ORDER BY COALESCE(submitted_at, created_at) DESC
	`

	rows, err := r.pool.Query(ctx, query, filter.UserID, filter.Clinic, statuses)
	if err != nil {
		r.logger.Error().Err(err).Msg("failed to list carts")
		return nil, fmt.Errorf("failed to list carts: %w", err)
	}
	defer rows.Close()

	carts := []model.Cart{}
	for rows.Next() {
		var c model.Cart
		if err := scanCart(rows, &c); err != nil {
			r.logger.Error().Err(err).Msg("failed to scan cart row")
			return nil, fmt.Errorf("failed to scan cart: %w", err)
		}
		carts = append(carts, c)
	}

	if err := rows.Err(); err != nil {
		r.logger.Error().Err(err).Msg("error iterating cart rows")
		return nil, fmt.Errorf("error iterating carts: %w", err)
	}

	return carts, nil
}

// UpdateStatus moves a cart to a new status if it is currently in one of from.
func (r *cartRepository) UpdateStatus(ctx context.Context, id uuid.UUID, from []model.CartStatus, to model.CartStatus, submittedAt *time.Time) (bool, error) {
	fromStatuses := make([]string, len(from))
	for i, s := range from {
		fromStatuses[i] = string(s)
	}

	query := `
		UPDATE carts
		SET status = $2,
		    submitted_at = COALESCE($4, submitted_at),
		    updated_at = NOW()
		WHERE id = $1 AND status = ANY($3)
	`

	tag, err := r.pool.Exec(ctx, query, id, string(to), fromStatuses, submittedAt)
	if err != nil {
		r.logger.Error().Err(err).
			Str("cart_id", id.String()).
			Str("to", string(to)).
			Msg("failed to update cart status")
		return false, fmt.Errorf("failed to update cart status: %w", err)
	}

	return tag.RowsAffected() == 1, nil
}

// ListItems returns a cart's items joined with their products.
func (r *cartRepository) ListItems(ctx context.Context, cartID uuid.UUID) ([]model.CartItemDetail, error) {
	query := `
		SELECT ci.id, ci.cart_id, ci.product_id, ci.requested_quantity, ci.quantity,
		       ci.approved_quantity, ci.status, ci.created_at, ci.updated_at,
		       p.item_number, p.name, p.size, p.category, p.supplier, p.created_at, p.updated_at
		FROM cart_items ci
		JOIN products p ON p.item_number = ci.product_id
		WHERE ci.cart_id = $1
		ORDER BY p.supplier, p.name
	`

	rows, err := r.pool.Query(ctx, query, cartID)
	if err != nil {
		r.logger.Error().Err(err).Str("cart_id", cartID.String()).Msg("failed to query cart items")
		return nil, fmt.Errorf("failed to query cart items: %w", err)
	}
	defer rows.Close()

	items := []model.CartItemDetail{}
	for rows.Next() {
		var d model.CartItemDetail
		err := rows.Scan(
			&d.ID, &d.CartID, &d.ProductID, &d.RequestedQuantity, &d.Quantity,
			&d.ApprovedQuantity, &d.Status, &d.CreatedAt, &d.UpdatedAt,
			&d.Product.ItemNumber, &d.Product.Name, &d.Product.Size, &d.Product.Category,
			&d.Product.Supplier, &d.Product.CreatedAt, &d.Product.UpdatedAt,
		)
		if err != nil {
			r.logger.Error().Err(err).Msg("failed to scan cart item row")
			return nil, fmt.Errorf("failed to scan cart item: %w", err)
		}
		items = append(items, d)
	}

	if err := rows.Err(); err != nil {
		r.logger.Error().Err(err).Msg("error iterating cart item rows")
		return nil, fmt.Errorf("error iterating cart items: %w", err)
	}

	return items, nil
}

// GetItem retrieves a cart item. Returns nil when absent.
func (r *cartRepository) GetItem(ctx context.Context, itemID uuid.UUID) (*model.CartItem, error) {
	query := `SELECT ` + itemColumns + ` FROM cart_items WHERE id = $1`

	var item model.CartItem
	if err := scanItem(r.pool.QueryRow(ctx, query, itemID), &item); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			r.logger.Debug().Str("item_id", itemID.String()).Msg("cart item not found")
			return nil, nil
		}
		r.logger.Error().Err(err).Str("item_id", itemID.String()).Msg("failed to query cart item")
		return nil, fmt.Errorf("failed to query cart item: %w", err)
	}

	return &item, nil
}

// CountItems returns the number of items and the number still pending.
func (r *cartRepository) CountItems(ctx context.Context, cartID uuid.UUID) (int, int, error) {
	query := `
		SELECT COUNT(*), COUNT(*) FILTER (WHERE status = 'pending')
		FROM cart_items
		WHERE cart_id = $1
	`

	var total, pending int
	if err := r.pool.QueryRow(ctx, query, cartID).Scan(&total, &pending); err != nil {
		r.logger.Error().Err(err).Str("cart_id", cartID.String()).Msg("failed to count cart items")
		return 0, 0, fmt.Errorf("failed to count cart items: %w", err)
	}

	return total, pending, nil
}

// AddOrIncrementItem adds a product to a cart or increases the existing line's quantity.
// Touching a line puts it back into review.
func (r *cartRepository) AddOrIncrementItem(ctx context.Context, cartID uuid.UUID, productID string, quantity int) (*model.CartItem, error) {
	query := `
		INSERT INTO cart_items (id, cart_id, product_id, requested_quantity, quantity, status, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $4, 'pending', NOW(), NOW())
		ON CONFLICT (cart_id, product_id) DO UPDATE
		SET requested_quantity = cart_items.quantity + EXCLUDED.quantity,
		    quantity = cart_items.quantity + EXCLUDED.quantity,
		    approved_quantity = NULL,
		    status = 'pending',
		    updated_at = NOW()
		RETURNING ` + itemColumns

	var item model.CartItem
	if err := scanItem(r.pool.QueryRow(ctx, query, uuid.New(), cartID, productID, quantity), &item); err != nil {
		r.logger.Error().Err(err).
			Str("cart_id", cartID.String()).
			Str("product_id", productID).
			Msg("failed to add cart item")
		return nil, fmt.Errorf("failed to add cart item: %w", err)
	}

	r.logger.Debug().
		Str("cart_id", cartID.String()).
		Str("item_id", item.ID.String()).
		Int("quantity", item.Quantity).
		Msg("cart item saved")

	return &item, nil
}

// SetItemQuantity overwrites a line's requested and working quantity and resets its review.
func (r *cartRepository) SetItemQuantity(ctx context.Context, itemID uuid.UUID, quantity int) (bool, error) {
	query := `
		UPDATE cart_items
		SET requested_quantity = $2,
		    quantity = $2,
		    approved_quantity = NULL,
		    status = 'pending',
		    updated_at = NOW()
		WHERE id = $1
	`

	tag, err := r.pool.Exec(ctx, query, itemID, quantity)
	if err != nil {
		r.logger.Error().Err(err).Str("item_id", itemID.String()).Msg("failed to set cart item quantity")
		return false, fmt.Errorf("failed to set cart item quantity: %w", err)
	}

	return tag.RowsAffected() == 1, nil
}

// DeleteItem removes a line item.
func (r *cartRepository) DeleteItem(ctx context.Context, itemID uuid.UUID) (bool, error) {
	tag, err := r.pool.Exec(ctx, `DELETE FROM cart_items WHERE id = $1`, itemID)
	if err != nil {
		r.logger.Error().Err(err).Str("item_id", itemID.String()).Msg("failed to delete cart item")
		return false, fmt.Errorf("failed to delete cart item: %w", err)
	}

	return tag.RowsAffected() == 1, nil
}

// DecideItem records an approve or deny decision on a pending item.
func (r *cartRepository) DecideItem(ctx context.Context, itemID uuid.UUID, status model.ItemStatus, approvedQuantity *int) (bool, error) {
	query := `
		UPDATE cart_items
		SET status = $2,
		    approved_quantity = $3,
		    updated_at = NOW()
		WHERE id = $1 AND status = 'pending'
	`

	tag, err := r.pool.Exec(ctx, query, itemID, string(status), approvedQuantity)
	if err != nil {
		r.logger.Error().Err(err).
			Str("item_id", itemID.String()).
			Str("status", string(status)).
			Msg("failed to record item decision")
		return false, fmt.Errorf("failed to record item decision: %w", err)
	}

	return tag.RowsAffected() == 1, nil
}

// AdjustItem overwrites an item's working quantity, status and approved quantity.
func (r *cartRepository) AdjustItem(ctx context.Context, itemID uuid.UUID, quantity int, status model.ItemStatus, approvedQuantity *int) (bool, error) {
	query := `
		UPDATE cart_items
		SET quantity = $2,
		    status = $3,
		    approved_quantity = $4,
		    updated_at = NOW()
		WHERE id = $1
	`

	tag, err := r.pool.Exec(ctx, query, itemID, quantity, string(status), approvedQuantity)
	if err != nil {
		r.logger.Error().Err(err).Str("item_id", itemID.String()).Msg("failed to adjust cart item")
		return false, fmt.Errorf("failed to adjust cart item: %w", err)
	}

	return tag.RowsAffected() == 1, nil
}
