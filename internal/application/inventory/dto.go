package inventory

import (
	"errors"

	"github.com/ecom/inventory/internal/domain/inventory"
	"github.com/ecom/inventory/internal/domain/shared"
)

// Result codes mirror the domain error codes plus the transient conditions
// of the lock and the store
const (
	CodeInvalidInput         = "INVALID_INPUT"
	CodeNotFound             = "NOT_FOUND"
	CodeInsufficientStock    = "INSUFFICIENT_STOCK"
	CodeInsufficientReserved = "INSUFFICIENT_RESERVED"
	CodeLockBusy             = "LOCK_BUSY"
	CodeStoreError           = "STORE_ERROR"
)

// OperationResult is the discriminated outcome of a single-item operation.
// Failures are data, not panics: the consumer loop and HTTP layer translate
// the code, and nothing crashes on a business rejection.
type OperationResult struct {
	Success bool
	Code    string
	Message string
	Item    *inventory.InventoryItem
}

// Retryable reports whether the failure is transient and worth re-invoking
func (r *OperationResult) Retryable() bool {
	return !r.Success && (r.Code == CodeLockBusy || r.Code == CodeStoreError)
}

// BatchResult is the outcome of a multi-item operation. FailedSKU points at
// the first offending SKU of an all-or-nothing batch; FailedItems lists the
// per-item failures of a best-effort batch.
type BatchResult struct {
	Success     bool
	Message     string
	FailedSKU   string
	FailedItems []inventory.BatchItem
}

// success wraps an updated row into a successful result
func success(item *inventory.InventoryItem) *OperationResult {
	return &OperationResult{Success: true, Item: item}
}

// failure classifies an error into a result code
func failure(err error) *OperationResult {
	var domainErr *shared.DomainError
	if errors.As(err, &domainErr) {
		return &OperationResult{Code: domainErr.Code, Message: domainErr.Message}
	}
	return &OperationResult{Code: CodeStoreError, Message: err.Error()}
}
