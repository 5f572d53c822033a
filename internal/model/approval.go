package model

import (
	"time"

	"github.com/google/uuid"
)

// ApprovalAction is the kind of change recorded in the approval log.
type ApprovalAction string

const (
	ActionSubmitted        ApprovalAction = "submitted"
	ActionApproved         ApprovalAction = "approved"
	ActionDenied           ApprovalAction = "denied"
	ActionQuantityAdjusted ApprovalAction = "quantity_adjusted"
	ActionReturned         ApprovalAction = "returned"
)

// ApprovalLogEntry is one immutable audit record against a cart or cart item.
// ItemID is a back-reference only; entries outlive item mutation.
type ApprovalLogEntry struct {
	ID               uuid.UUID      `json:"id" db:"id"`
	CartID           uuid.UUID      `json:"cartId" db:"cart_id"`
	ItemID           *uuid.UUID     `json:"itemId,omitempty" db:"item_id"`
	Action           ApprovalAction `json:"action" db:"action"`
	Actor            string         `json:"actor" db:"actor"`
	PreviousQuantity *int           `json:"previousQuantity,omitempty" db:"previous_quantity"`
	NewQuantity      *int           `json:"newQuantity,omitempty" db:"new_quantity"`
	Note             string         `json:"note,omitempty" db:"note"`
	CreatedAt        time.Time      `json:"createdAt" db:"created_at"`
}

// AdjustPolicy decides what a reviewer's quantity adjustment does to an item's review state.
type AdjustPolicy string

const (
	// AdjustKeepStatus changes the working quantity only; the approved quantity
	// follows along only for items that are already approved.
	AdjustKeepStatus AdjustPolicy = "keep_status"

	// AdjustApproves treats an adjustment as approval of the new quantity.
	AdjustApproves AdjustPolicy = "approve"
)

// Valid reports whether p is a known adjust policy.
func (p AdjustPolicy) Valid() bool {
	return p == AdjustKeepStatus || p == AdjustApproves
}
