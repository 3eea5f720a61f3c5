package inventory

import (
	"context"
	"time"
)

// Event names carried in the `event` field of every outbound payload. The
// publisher derives the destination topic from the name (inventory.<name>).
const (
	EventReserved              = "reserved"
	EventReleased              = "released"
	EventDeducted              = "deducted"
	EventLowStock              = "low_stock"
	EventOutOfStock            = "out_of_stock"
	EventReservationRolledBack = "reservation_rolled_back"
	EventPartialDeduction      = "partial_deduction"
	EventUpdated               = "updated"
)

// LowStockThreshold is the available-stock level at or below which a
// low_stock alert accompanies a deduction (exclusive of zero, which raises
// out_of_stock instead).
const LowStockThreshold = 10

// Event is an outbound inventory notification
type Event interface {
	// Name returns the event discriminator (e.g. "reserved")
	Name() string
	// Key returns the partitioning key for the bus (SKU or order ID)
	Key() string
}

// EventPublisher emits inventory events to the topic bus. Concurrent
// emission is safe; ordering between independent emissions is not
// guaranteed.
type EventPublisher interface {
	Publish(ctx context.Context, events ...Event) error
}

// ReservedEvent is emitted after a reservation commits
type ReservedEvent struct {
	Event          string    `json:"event"`
	OrderID        string    `json:"orderId"`
	SKU            string    `json:"sku"`
	Quantity       int64     `json:"quantity"`
	ReservedStock  int64     `json:"reservedStock"`
	AvailableStock int64     `json:"availableStock"`
	Timestamp      time.Time `json:"timestamp"`
}

// NewReservedEvent builds a ReservedEvent from the post-commit row
func NewReservedEvent(orderID string, item *InventoryItem, quantity int64) *ReservedEvent {
	return &ReservedEvent{
		Event:          EventReserved,
		OrderID:        orderID,
		SKU:            item.SKU,
		Quantity:       quantity,
		ReservedStock:  item.Reserved,
		AvailableStock: item.Available(),
		Timestamp:      time.Now(),
	}
}

func (e *ReservedEvent) Name() string { return e.Event }
func (e *ReservedEvent) Key() string  { return e.SKU }

// ReleasedEvent is emitted after a release commits
type ReleasedEvent struct {
	Event          string    `json:"event"`
	OrderID        string    `json:"orderId"`
	SKU            string    `json:"sku"`
	Quantity       int64     `json:"quantity"`
	ReservedStock  int64     `json:"reservedStock"`
	AvailableStock int64     `json:"availableStock"`
	Reason         string    `json:"reason,omitempty"`
	Timestamp      time.Time `json:"timestamp"`
}

// NewReleasedEvent builds a ReleasedEvent from the post-commit row
func NewReleasedEvent(orderID string, item *InventoryItem, quantity int64, reason string) *ReleasedEvent {
	return &ReleasedEvent{
		Event:          EventReleased,
		OrderID:        orderID,
		SKU:            item.SKU,
		Quantity:       quantity,
		ReservedStock:  item.Reserved,
		AvailableStock: item.Available(),
		Reason:         reason,
		Timestamp:      time.Now(),
	}
}

func (e *ReleasedEvent) Name() string { return e.Event }
func (e *ReleasedEvent) Key() string  { return e.SKU }

// DeductedEvent is emitted after a deduction commits the reservation into a
// sale
type DeductedEvent struct {
	Event          string    `json:"event"`
	OrderID        string    `json:"orderId"`
	SKU            string    `json:"sku"`
	Quantity       int64     `json:"quantity"`
	RemainingStock int64     `json:"remainingStock"`
	ReservedStock  int64     `json:"reservedStock"`
	TotalSold      int64     `json:"totalSold"`
	AvailableStock int64     `json:"availableStock"`
	Timestamp      time.Time `json:"timestamp"`
}

// NewDeductedEvent builds a DeductedEvent from the post-commit row
func NewDeductedEvent(orderID string, item *InventoryItem, quantity int64) *DeductedEvent {
	return &DeductedEvent{
		Event:          EventDeducted,
		OrderID:        orderID,
		SKU:            item.SKU,
		Quantity:       quantity,
		RemainingStock: item.Stock,
		ReservedStock:  item.Reserved,
		TotalSold:      item.Sold,
		AvailableStock: item.Available(),
		Timestamp:      time.Now(),
	}
}

func (e *DeductedEvent) Name() string { return e.Event }
func (e *DeductedEvent) Key() string  { return e.SKU }

// LowStockEvent alerts that available stock dropped into the warning band
type LowStockEvent struct {
	Event          string    `json:"event"`
	SKU            string    `json:"sku"`
	RemainingStock int64     `json:"remainingStock"`
	ReservedStock  int64     `json:"reservedStock"`
	AvailableStock int64     `json:"availableStock"`
	Threshold      int64     `json:"threshold"`
	Timestamp      time.Time `json:"timestamp"`
}

// NewLowStockEvent builds a LowStockEvent with the current counters
func NewLowStockEvent(item *InventoryItem) *LowStockEvent {
	return &LowStockEvent{
		Event:          EventLowStock,
		SKU:            item.SKU,
		RemainingStock: item.Stock,
		ReservedStock:  item.Reserved,
		AvailableStock: item.Available(),
		Threshold:      LowStockThreshold,
		Timestamp:      time.Now(),
	}
}

func (e *LowStockEvent) Name() string { return e.Event }
func (e *LowStockEvent) Key() string  { return e.SKU }

// OutOfStockEvent alerts that no units remain available
type OutOfStockEvent struct {
	Event         string    `json:"event"`
	SKU           string    `json:"sku"`
	ReservedStock int64     `json:"reservedStock"`
	TotalSold     int64     `json:"totalSold"`
	Timestamp     time.Time `json:"timestamp"`
}

// NewOutOfStockEvent builds an OutOfStockEvent with the current counters
func NewOutOfStockEvent(item *InventoryItem) *OutOfStockEvent {
	return &OutOfStockEvent{
		Event:         EventOutOfStock,
		SKU:           item.SKU,
		ReservedStock: item.Reserved,
		TotalSold:     item.Sold,
		Timestamp:     time.Now(),
	}
}

func (e *OutOfStockEvent) Name() string { return e.Event }
func (e *OutOfStockEvent) Key() string  { return e.SKU }

// ReservationRolledBackEvent records the compensation of an eagerly
// published reservation. The original reserved event is not retracted;
// downstream consumers reconcile the pair.
type ReservationRolledBackEvent struct {
	Event     string    `json:"event"`
	OrderID   string    `json:"orderId"`
	SKU       string    `json:"sku"`
	Quantity  int64     `json:"quantity"`
	Timestamp time.Time `json:"timestamp"`
}

// NewReservationRolledBackEvent builds a rollback record for one batch item
func NewReservationRolledBackEvent(orderID, sku string, quantity int64) *ReservationRolledBackEvent {
	return &ReservationRolledBackEvent{
		Event:     EventReservationRolledBack,
		OrderID:   orderID,
		SKU:       sku,
		Quantity:  quantity,
		Timestamp: time.Now(),
	}
}

func (e *ReservationRolledBackEvent) Name() string { return e.Event }
func (e *ReservationRolledBackEvent) Key() string  { return e.SKU }

// DeductionItem identifies one (sku, quantity) pair inside a partial
// deduction report
type DeductionItem struct {
	SKU      string `json:"sku"`
	Quantity int64  `json:"quantity"`
}

// PartialDeductionEvent is the operator reconciliation signal emitted when a
// batch deduction fails for a subset of its items
type PartialDeductionEvent struct {
	Event         string          `json:"event"`
	OrderID       string          `json:"orderId"`
	DeductedItems []DeductionItem `json:"deductedItems"`
	FailedItems   []DeductionItem `json:"failedItems"`
	Timestamp     time.Time       `json:"timestamp"`
}

// NewPartialDeductionEvent builds the per-order partial deduction report
func NewPartialDeductionEvent(orderID string, deducted, failed []DeductionItem) *PartialDeductionEvent {
	return &PartialDeductionEvent{
		Event:         EventPartialDeduction,
		OrderID:       orderID,
		DeductedItems: deducted,
		FailedItems:   failed,
		Timestamp:     time.Now(),
	}
}

func (e *PartialDeductionEvent) Name() string { return e.Event }
func (e *PartialDeductionEvent) Key() string  { return e.OrderID }

// UpdatedEvent is emitted after an administrative or catalog-driven patch
type UpdatedEvent struct {
	Event          string    `json:"event"`
	SKU            string    `json:"sku"`
	Stock          int64     `json:"stock"`
	ReservedStock  int64     `json:"reservedStock"`
	AvailableStock int64     `json:"availableStock"`
	Timestamp      time.Time `json:"timestamp"`
}

// NewUpdatedEvent builds an UpdatedEvent from the patched row
func NewUpdatedEvent(item *InventoryItem) *UpdatedEvent {
	return &UpdatedEvent{
		Event:          EventUpdated,
		SKU:            item.SKU,
		Stock:          item.Stock,
		ReservedStock:  item.Reserved,
		AvailableStock: item.Available(),
		Timestamp:      time.Now(),
	}
}

func (e *UpdatedEvent) Name() string { return e.Event }
func (e *UpdatedEvent) Key() string  { return e.SKU }
