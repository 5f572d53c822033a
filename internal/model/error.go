package model

// ErrorResponse represents a standardised error response.
type ErrorResponse struct {
	Error         string `json:"error"`
	Message       string `json:"message"`
	CorrelationID string `json:"correlationId,omitempty"`
}

// Standard error codes for API responses
const (
	ErrCodeInvalidJSON        = "INVALID_JSON"
	ErrCodeValidationFailed   = "VALIDATION_FAILED"
	ErrCodeProductNotFound    = "PRODUCT_NOT_FOUND"
	ErrCodeInvalidQuantity    = "INVALID_QUANTITY"
	ErrCodeCartNotFound       = "CART_NOT_FOUND"
	ErrCodeItemNotFound       = "ITEM_NOT_FOUND"
	ErrCodeEmptyCart          = "EMPTY_CART"
	ErrCodePendingItems       = "PENDING_ITEMS"
	ErrCodeInvalidTransition  = "INVALID_TRANSITION"
	ErrCodeItemNotPending     = "ITEM_NOT_PENDING"
	ErrCodeCartNotEditable    = "CART_NOT_EDITABLE"
	ErrCodeCartNotReviewable  = "CART_NOT_REVIEWABLE"
	ErrCodeCartNotApproved    = "CART_NOT_APPROVED"
	ErrCodeImportInProgress   = "IMPORT_IN_PROGRESS"
	ErrCodeCompanyNotFound    = "COMPANY_NOT_FOUND"
	ErrCodeUserNotFound       = "USER_NOT_FOUND"
	ErrCodePolicyNotFound     = "POLICY_NOT_FOUND"
	ErrCodeAccessCodeNotFound = "ACCESS_CODE_NOT_FOUND"
	ErrCodeDuplicate          = "DUPLICATE"
	ErrCodeUnauthorised       = "UNAUTHORIZED"
	ErrCodeForbidden          = "FORBIDDEN"
	ErrCodeNotFound           = "NOT_FOUND"
	ErrCodeInternalError      = "INTERNAL_ERROR"
)

// Domain errors for business logic
type DomainError struct {
	Code    string
	Message string
}

func (e *DomainError) Error() string {
	return e.Message
}

// NewDomainError creates a new domain error
func NewDomainError(code, message string) *DomainError {
	return &DomainError{
		Code:    code,
		Message: message,
	}
}

// Common domain errors
var (
	ErrProductNotFound    = NewDomainError(ErrCodeProductNotFound, "Product not found")
	ErrInvalidQuantity    = NewDomainError(ErrCodeInvalidQuantity, "Quantity must not be negative")
	ErrCartNotFound       = NewDomainError(ErrCodeCartNotFound, "Cart not found")
	ErrItemNotFound       = NewDomainError(ErrCodeItemNotFound, "Cart item not found")
	ErrEmptyCart          = NewDomainError(ErrCodeEmptyCart, "Cart must contain at least one item before it can be submitted")
	ErrPendingItems       = NewDomainError(ErrCodePendingItems, "Pending items remain; approve or deny every item before approving the cart")
	ErrInvalidTransition  = NewDomainError(ErrCodeInvalidTransition, "Cart status does not allow this action")
	ErrItemNotPending     = NewDomainError(ErrCodeItemNotPending, "Item has already been reviewed")
	ErrCartNotEditable    = NewDomainError(ErrCodeCartNotEditable, "Cart can only be edited while it is a draft or returned")
	ErrCartNotReviewable  = NewDomainError(ErrCodeCartNotReviewable, "Cart is not awaiting review")
	ErrCartNotApproved    = NewDomainError(ErrCodeCartNotApproved, "Only approved carts can be exported")
	ErrImportInProgress   = NewDomainError(ErrCodeImportInProgress, "A catalog import is already running")
	ErrCompanyNotFound    = NewDomainError(ErrCodeCompanyNotFound, "Company not found")
	ErrUserNotFound       = NewDomainError(ErrCodeUserNotFound, "User not found")
	ErrPolicyNotFound     = NewDomainError(ErrCodePolicyNotFound, "Policy not found")
	ErrAccessCodeNotFound = NewDomainError(ErrCodeAccessCodeNotFound, "Access code not found")
	ErrDuplicate          = NewDomainError(ErrCodeDuplicate, "A record with the same key already exists")
	ErrClinicRequired     = NewDomainError(ErrCodeValidationFailed, "Clinic is required for cart operations")
	ErrInvalidPolicyID    = NewDomainError(ErrCodeValidationFailed, "Policy ID must be lowercase letters, digits and hyphens")
	ErrUnauthorised       = NewDomainError(ErrCodeUnauthorised, "User identity is required")
	ErrForbidden          = NewDomainError(ErrCodeForbidden, "Manager role is required")
)
