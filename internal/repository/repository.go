package repository

import (
	"context"
	"errors"
	"time"

	"clinic-orders/internal/model"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
)

// ProductRepository defines the interface for product catalogue access.
type ProductRepository interface {
	// Search returns products matching the filter, ordered by name.
	Search(ctx context.Context, filter model.ProductFilter) ([]model.Product, error)

	// GetByItemNumber retrieves a single product. Returns nil when absent.
	GetByItemNumber(ctx context.Context, itemNumber string) (*model.Product, error)

	// Facets lists the distinct categories and suppliers.
	Facets(ctx context.Context) (*model.CatalogFacets, error)

	// UpsertBatch inserts or updates products keyed by item number in one transaction.
	UpsertBatch(ctx context.Context, products []model.Product) error
}

// CartRepository defines the interface for cart and cart item access.
// Every method is a single statement; callers get no cross-call atomicity.
type CartRepository interface {
	// GetDraft returns the draft cart for a user and clinic, or nil.
	GetDraft(ctx context.Context, userID, clinic string) (*model.Cart, error)

	// EnsureDraft returns the draft cart for a user and clinic, creating it if none exists.
	EnsureDraft(ctx context.Context, userID, clinic string) (*model.Cart, error)

	// GetByID retrieves a cart. Returns nil when absent.
	GetByID(ctx context.Context, id uuid.UUID) (*model.Cart, error)

	// List returns carts matching the filter, newest first.
	List(ctx context.Context, filter model.CartFilter) ([]model.Cart, error)

	// UpdateStatus moves a cart to a new status if it is currently in one of from.
	// submittedAt is written only when non-nil. Reports whether a row changed.
	UpdateStatus(ctx context.Context, id uuid.UUID, from []model.CartStatus, to model.CartStatus, submittedAt *time.Time) (bool, error)

	// ListItems returns a cart's items joined with their products.
	ListItems(ctx context.Context, cartID uuid.UUID) ([]model.CartItemDetail, error)

	// GetItem retrieves a cart item. Returns nil when absent.
	GetItem(ctx context.Context, itemID uuid.UUID) (*model.CartItem, error)

	// CountItems returns the number of items and the number still pending.
	CountItems(ctx context.Context, cartID uuid.UUID) (total int, pending int, err error)

	// AddOrIncrementItem adds a product to a cart or increases the existing line's quantity.
	AddOrIncrementItem(ctx context.Context, cartID uuid.UUID, productID string, quantity int) (*model.CartItem, error)

	// SetItemQuantity overwrites a line's requested and working quantity and resets its review.
	// Reports false when the item no longer exists.
	SetItemQuantity(ctx context.Context, itemID uuid.UUID, quantity int) (bool, error)

	// DeleteItem removes a line item. Reports false when it was already gone.
	DeleteItem(ctx context.Context, itemID uuid.UUID) (bool, error)

	// DecideItem records an approve or deny decision on a pending item.
	// Reports false when the item was no longer pending.
	DecideItem(ctx context.Context, itemID uuid.UUID, status model.ItemStatus, approvedQuantity *int) (bool, error)

	// AdjustItem overwrites an item's working quantity, status and approved quantity.
	// Reports false when the item no longer exists.
	AdjustItem(ctx context.Context, itemID uuid.UUID, quantity int, status model.ItemStatus, approvedQuantity *int) (bool, error)
}

// ApprovalLogRepository defines the interface for the append-only audit trail.
type ApprovalLogRepository interface {
	// Append records one entry.
	Append(ctx context.Context, entry *model.ApprovalLogEntry) error

	// ListByCart returns a cart's entries in the order they were written.
	ListByCart(ctx context.Context, cartID uuid.UUID) ([]model.ApprovalLogEntry, error)
}

// CompanyRepository defines the interface for company and access code access.
type CompanyRepository interface {
	Create(ctx context.Context, company *model.Company) error
	List(ctx context.Context) ([]model.Company, error)
	GetByID(ctx context.Context, id uuid.UUID) (*model.Company, error)
	Delete(ctx context.Context, id uuid.UUID) (bool, error)

	CreateAccessCode(ctx context.Context, code *model.AccessCode) error
	ListAccessCodes(ctx context.Context, companyID uuid.UUID) ([]model.AccessCode, error)
	DeleteAccessCode(ctx context.Context, code string) (bool, error)
}

// UserRepository defines the interface for policy manager user access.
type UserRepository interface {
	Create(ctx context.Context, user *model.User) error
	List(ctx context.Context) ([]model.User, error)
	Delete(ctx context.Context, id uuid.UUID) (bool, error)
}

// PolicyRepository defines the interface for policy document access.
type PolicyRepository interface {
	// Save inserts or replaces a policy keyed by its ID.
	Save(ctx context.Context, policy *model.Policy) error
	GetByID(ctx context.Context, id string) (*model.Policy, error)
	List(ctx context.Context) ([]model.Policy, error)
}

const uniqueViolation = "23505"

// isUniqueViolation reports whether err is a Postgres unique constraint failure.
func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == uniqueViolation
}
