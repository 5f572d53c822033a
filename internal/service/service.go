package service

import (
	"context"

	"clinic-orders/internal/model"

	"github.com/google/uuid"
	"github.com/xuri/excelize/v2"
)

// CatalogService defines operations over the product catalogue.
type CatalogService interface {
	// Search returns products matching the filter. Limit defaults to 25 and is capped at 100.
	Search(ctx context.Context, filter model.ProductFilter) ([]model.Product, error)

	// Facets lists the distinct categories and suppliers.
	Facets(ctx context.Context) (*model.CatalogFacets, error)

	// Import reloads the catalogue from its source. Managers only.
	Import(ctx context.Context, identity model.Identity) (*model.ImportResult, error)
}

// CartService defines the staff side of the ordering workflow.
type CartService interface {
	// GetDraft returns the caller's draft for their clinic. The view has a nil
	// Cart when no draft exists yet.
	GetDraft(ctx context.Context, identity model.Identity) (*model.CartView, error)

	// AddItem adds a product to the caller's draft, or to an editable cart of theirs.
	AddItem(ctx context.Context, identity model.Identity, req *model.AddItemRequest) (*model.CartItem, error)

	// UpdateItemQuantity sets an item's quantity. Zero removes the item.
	UpdateItemQuantity(ctx context.Context, identity model.Identity, itemID uuid.UUID, quantity int) (*model.CartView, error)

	// Submit sends a draft or returned cart for review.
	Submit(ctx context.Context, identity model.Identity, cartID uuid.UUID) (*model.Cart, error)

	// ListMine lists the caller's carts, newest first.
	ListMine(ctx context.Context, identity model.Identity) ([]model.Cart, error)

	// Get returns a cart with its items. Visible to its owner and to managers.
	Get(ctx context.Context, identity model.Identity, cartID uuid.UUID) (*model.CartView, error)

	// History returns a cart's approval log.
	History(ctx context.Context, identity model.Identity, cartID uuid.UUID) ([]model.ApprovalLogEntry, error)

	// Export renders an approved cart as a workbook.
	Export(ctx context.Context, identity model.Identity, cartID uuid.UUID) (*excelize.File, error)
}

// ReviewService defines the manager side of the ordering workflow.
type ReviewService interface {
	// ListQueue lists carts awaiting review. Defaults to submitted carts.
	ListQueue(ctx context.Context, identity model.Identity, filter model.CartFilter) ([]model.Cart, error)

	ApproveItem(ctx context.Context, identity model.Identity, itemID uuid.UUID, quantity int, note string) (*model.CartItem, error)
	DenyItem(ctx context.Context, identity model.Identity, itemID uuid.UUID, note string) (*model.CartItem, error)
	AdjustQuantity(ctx context.Context, identity model.Identity, itemID uuid.UUID, quantity int, note string) (*model.CartItem, error)

	// ApproveCart finalises a submitted cart once no item is pending.
	ApproveCart(ctx context.Context, identity model.Identity, cartID uuid.UUID, note string) (*model.Cart, error)

	// ReturnCart sends a submitted cart back to its owner for changes.
	ReturnCart(ctx context.Context, identity model.Identity, cartID uuid.UUID, note string) (*model.Cart, error)
}

// DirectoryService defines company, access code and user management.
type DirectoryService interface {
	CreateCompany(ctx context.Context, identity model.Identity, req *model.CreateCompanyRequest) (*model.Company, error)
	ListCompanies(ctx context.Context) ([]model.Company, error)
	DeleteCompany(ctx context.Context, identity model.Identity, companyID uuid.UUID) error

	CreateAccessCode(ctx context.Context, identity model.Identity, companyID uuid.UUID, req *model.CreateAccessCodeRequest) (*model.AccessCode, error)
	ListAccessCodes(ctx context.Context, companyID uuid.UUID) ([]model.AccessCode, error)
	DeleteAccessCode(ctx context.Context, identity model.Identity, code string) error

	CreateUser(ctx context.Context, identity model.Identity, req *model.CreateUserRequest) (*model.User, error)
	ListUsers(ctx context.Context) ([]model.User, error)
	DeleteUser(ctx context.Context, identity model.Identity, userID uuid.UUID) error
}

// PolicyService defines policy document management.
type PolicyService interface {
	Save(ctx context.Context, identity model.Identity, policyID string, req *model.SavePolicyRequest) (*model.Policy, error)
	Get(ctx context.Context, policyID string) (*model.Policy, error)
	List(ctx context.Context) ([]model.Policy, error)
}

func requireManager(identity model.Identity) error {
	if identity.UserID == "" {
		return model.ErrUnauthorised
	}
	if !identity.IsManager() {
		return model.ErrForbidden
	}
	return nil
}

func requireStaff(identity model.Identity) error {
	if identity.UserID == "" {
		return model.ErrUnauthorised
	}
	if identity.Clinic == "" {
		return model.ErrClinicRequired
	}
	return nil
}
