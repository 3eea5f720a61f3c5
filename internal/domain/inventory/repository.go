package inventory

import (
	"context"
	"time"
)

// Filter narrows List queries
type Filter struct {
	SKU      string
	Location string
}

// BatchItem is one (sku, quantity) line of a multi-item operation
type BatchItem struct {
	SKU      string
	Quantity int64
}

// ItemPatch carries the optional fields of an administrative update. Nil
// means "leave unchanged". Stock changes are rejected when they would drop
// the stock below the currently reserved quantity.
type ItemPatch struct {
	Stock    *int64
	Location *string
}

// BatchReserveOutcome reports the result of an all-or-nothing multi-item
// reserve. Applied holds the post-commit row snapshot of every line that
// succeeded, in request order. For a failed batch the applied lines have
// already been compensated in reverse order; their snapshots remain so
// callers can report both sides of the compensation.
type BatchReserveOutcome struct {
	Applied   []*InventoryItem
	FailedSKU string
	Err       error
}

// Failed reports whether the batch was rejected and compensated
func (o *BatchReserveOutcome) Failed() bool {
	return o.Err != nil
}

// ReleasedLine pairs a released batch line with the post-commit row
// snapshot
type ReleasedLine struct {
	Line BatchItem
	Item *InventoryItem
}

// BatchReleaseOutcome reports the result of a best-effort multi-item
// release. Applied holds the lines that succeeded with their post-commit
// snapshots; Failed lists the lines that could not be released.
type BatchReleaseOutcome struct {
	Applied []ReleasedLine
	Failed  []BatchItem
}

// ItemRepository is the persistence port for inventory items. The single-SKU
// write primitives (Reserve, Release, Deduct, UpdateFields) must be atomic
// conditional updates: predicate check and counter mutation happen in one
// statement, and a predicate miss leaves the row untouched.
type ItemRepository interface {
	Create(ctx context.Context, item *InventoryItem) error
	FindBySKU(ctx context.Context, sku string) (*InventoryItem, error)
	List(ctx context.Context, filter Filter) ([]*InventoryItem, error)

	// Reserve atomically moves quantity from available into reserved when
	// stock - reserved >= quantity. Returns the updated row.
	Reserve(ctx context.Context, sku string, quantity int64) (*InventoryItem, error)

	// Release atomically returns quantity from reserved to available when
	// reserved >= quantity. Returns the updated row.
	Release(ctx context.Context, sku string, quantity int64) (*InventoryItem, error)

	// Deduct atomically commits quantity units of a reservation into a sale
	// when stock >= quantity and reserved >= quantity. Returns the updated
	// row.
	Deduct(ctx context.Context, sku string, quantity int64) (*InventoryItem, error)

	// UpdateFields applies an administrative patch. A stock change is
	// guarded by new stock >= reserved. Returns the updated row.
	UpdateFields(ctx context.Context, sku string, patch ItemPatch) (*InventoryItem, error)

	// BatchReserve reserves every item or none. Items are processed in
	// request order; on the first failure every already-applied line is
	// released in reverse order and the outcome carries the offending SKU.
	BatchReserve(ctx context.Context, items []BatchItem) *BatchReserveOutcome

	// BatchRelease releases the items best-effort: a failing line is
	// collected and processing continues with the rest.
	BatchRelease(ctx context.Context, items []BatchItem) *BatchReleaseOutcome
}

// ReservationRepository is the persistence port for the reservation ledger
type ReservationRepository interface {
	Create(ctx context.Context, reservation *Reservation) error

	// FindOpenByOrder returns the active ledger entries for an order, oldest
	// first
	FindOpenByOrder(ctx context.Context, orderID string) ([]*Reservation, error)

	// MarkReleased closes the active entries matching (orderID, sku),
	// recording that their units returned to availability
	MarkReleased(ctx context.Context, orderID, sku string) error

	// MarkConsumed closes the active entries matching (orderID, sku),
	// recording that their units were sold
	MarkConsumed(ctx context.Context, orderID, sku string) error
}

// LockService is the distributed mutual-exclusion port. Locks are
// best-effort lease locks: they expire after their TTL and a release only
// succeeds for the holder's token.
type LockService interface {
	// Acquire takes the lock named key for at most ttl and returns the
	// fencing token needed to release it. Returns shared.ErrLockBusy
	// (wrapped) when another holder owns the lock.
	Acquire(ctx context.Context, key string, ttl time.Duration) (string, error)

	// Release frees the lock if token still owns it. Returns false when the
	// lease had already expired or was taken over.
	Release(ctx context.Context, key string, token string) (bool, error)

	// WithLock acquires key, runs fn, and releases on every exit path,
	// propagating fn's error
	WithLock(ctx context.Context, key string, ttl time.Duration, fn func(ctx context.Context) error) error
}
