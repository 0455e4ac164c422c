package shared

import "errors"

// DomainError represents a domain-level error
type DomainError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// Error implements the error interface
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
	ErrItemNotFound      = NewDomainError("ITEM_NOT_FOUND", "Inventory item not found")
	ErrRuleNotFound      = NewDomainError("RULE_NOT_FOUND", "Reorder rule not found")
	ErrAlertNotFound     = NewDomainError("ALERT_NOT_FOUND", "Inventory alert not found")
	ErrAlreadyExists     = NewDomainError("ALREADY_EXISTS", "Resource already exists")
	ErrInvalidQuantity   = NewDomainError("INVALID_QUANTITY", "Movement quantity would drive stock negative or is malformed")
	ErrStaleAggregate    = NewDomainError("STALE_AGGREGATE", "Inventory record was modified by another process")
	ErrPermissionDenied  = NewDomainError("PERMISSION_DENIED", "Actor may not access this vendor's inventory")
	ErrInvalidTransition = NewDomainError("INVALID_TRANSITION", "Operation not allowed in current state")
	ErrDispatchFailed    = NewDomainError("NOTIFICATION_DISPATCH_FAILED", "Outbound notification could not be delivered")
	ErrInvalidInput      = NewDomainError("INVALID_INPUT", "Invalid input provided")
	ErrInsufficientStock = NewDomainError("INSUFFICIENT_STOCK", "Insufficient stock available")
)

// ErrorCode extracts the domain error code, or empty string for other errors
func ErrorCode(err error) string {
	var de *DomainError
	if errors.As(err, &de) {
		return de.Code
	}
	return ""
}

// IsCode reports whether err is a DomainError carrying the given code
func IsCode(err error, code string) bool {
	return ErrorCode(err) == code
}
