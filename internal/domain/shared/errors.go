package shared

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
	ErrNotFound             = NewDomainError("NOT_FOUND", "Resource not found")
	ErrDuplicateSKU         = NewDomainError("DUPLICATE_SKU", "An inventory item with this SKU already exists")
	ErrInvalidInput         = NewDomainError("INVALID_INPUT", "Invalid input provided")
	ErrInsufficientStock    = NewDomainError("INSUFFICIENT_STOCK", "Insufficient available stock")
	ErrInsufficientReserved = NewDomainError("INSUFFICIENT_RESERVED", "Insufficient reserved stock")
	ErrStockBelowReserved   = NewDomainError("STOCK_BELOW_RESERVED", "Stock cannot be set below the reserved quantity")
	ErrLockBusy             = NewDomainError("LOCK_BUSY", "Another operation holds the lock for this resource")
	ErrPayloadTooLarge      = NewDomainError("PAYLOAD_TOO_LARGE", "Serialised event payload exceeds the size cap")
)
