package model

import (
	"time"

	"github.com/google/uuid"
)

// CartStatus is the lifecycle state of a cart.
type CartStatus string

const (
	CartStatusDraft     CartStatus = "draft"
	CartStatusSubmitted CartStatus = "submitted"
	CartStatusReturned  CartStatus = "returned"
	CartStatusApproved  CartStatus = "approved"
)

var validCartTransitions = map[CartStatus]map[CartStatus]bool{
	CartStatusDraft:     {CartStatusSubmitted: true},
	CartStatusSubmitted: {CartStatusReturned: true, CartStatusApproved: true},
	CartStatusReturned:  {CartStatusSubmitted: true},
	CartStatusApproved:  {},
}

// CanTransition reports whether a cart may move from one status to another.
func CanTransition(from, to CartStatus) bool {
	return validCartTransitions[from][to]
}

// SourcesFor returns every status from which a cart may move to the target status.
func SourcesFor(to CartStatus) []CartStatus {
	var from []CartStatus
	for _, s := range []CartStatus{CartStatusDraft, CartStatusSubmitted, CartStatusReturned, CartStatusApproved} {
		if CanTransition(s, to) {
			from = append(from, s)
		}
	}
	return from
}

// Valid reports whether s is a known cart status.
func (s CartStatus) Valid() bool {
	_, ok := validCartTransitions[s]
	return ok
}

// Editable reports whether the owning staff user may change the cart's items.
// A returned cart behaves like a draft for its owner.
func (s CartStatus) Editable() bool {
	return s == CartStatusDraft || s == CartStatusReturned
}

// Reviewable reports whether a manager may act on the cart's items.
func (s CartStatus) Reviewable() bool {
	return s == CartStatusSubmitted || s == CartStatusReturned
}

// ItemStatus is the review state of a cart item.
type ItemStatus string

const (
	ItemStatusPending  ItemStatus = "pending"
	ItemStatusApproved ItemStatus = "approved"
	ItemStatusDenied   ItemStatus = "denied"
)

// Cart is a staff user's order for one clinic.
type Cart struct {
	ID          uuid.UUID  `json:"id" db:"id"`
	UserID      string     `json:"userId" db:"user_id"`
	ClinicName  string     `json:"clinicName" db:"clinic_name"`
	Status      CartStatus `json:"status" db:"status"`
	SubmittedAt *time.Time `json:"submittedAt,omitempty" db:"submitted_at"`
	CreatedAt   time.Time  `json:"createdAt" db:"created_at"`
	UpdatedAt   time.Time  `json:"updatedAt" db:"updated_at"`
}

// CartItem is a requested product inside a cart.
type CartItem struct {
	ID                uuid.UUID  `json:"id" db:"id"`
	CartID            uuid.UUID  `json:"cartId" db:"cart_id"`
	ProductID         string     `json:"productId" db:"product_id"`
	RequestedQuantity int        `json:"requestedQuantity" db:"requested_quantity"`
	Quantity          int        `json:"quantity" db:"quantity"`
	ApprovedQuantity  *int       `json:"approvedQuantity,omitempty" db:"approved_quantity"`
	Status            ItemStatus `json:"status" db:"status"`
	CreatedAt         time.Time  `json:"createdAt" db:"created_at"`
	UpdatedAt         time.Time  `json:"updatedAt" db:"updated_at"`
}

// ResolvedQuantity returns the approved quantity when set, else the requested quantity.
func (i CartItem) ResolvedQuantity() int {
	if i.ApprovedQuantity != nil {
		return *i.ApprovedQuantity
	}
	return i.RequestedQuantity
}

// CartItemDetail is a cart item joined with its catalogue product.
type CartItemDetail struct {
	CartItem
	Product Product `json:"product"`
}

// CartView is a cart together with its item details.
type CartView struct {
	Cart  *Cart            `json:"cart"`
	Items []CartItemDetail `json:"items"`
}

// CartFilter selects carts for listing.
type CartFilter struct {
	UserID   string
	Clinic   string
	Statuses []CartStatus
}

// AddItemRequest is the payload for adding a product to a cart.
type AddItemRequest struct {
	ProductID string     `json:"productId" validate:"required"`
	Quantity  int        `json:"quantity" validate:"gt=0"`
	CartID    *uuid.UUID `json:"cartId,omitempty"`
}

// UpdateQuantityRequest is the payload for changing an item quantity.
type UpdateQuantityRequest struct {
	Quantity *int `json:"quantity" validate:"required,gte=0"`
}

// ReviewItemRequest is the payload for item approval and quantity adjustment.
type ReviewItemRequest struct {
	Quantity *int   `json:"quantity" validate:"required,gte=0"`
	Note     string `json:"note,omitempty" validate:"max=1000"`
}

// ReviewNoteRequest is the payload for actions that only carry a note.
type ReviewNoteRequest struct {
	Note string `json:"note,omitempty" validate:"max=1000"`
}
