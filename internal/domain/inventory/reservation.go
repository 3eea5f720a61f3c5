package inventory

import (
	"strings"

	"github.com/ecom/inventory/internal/domain/shared"
)

// ReservationStatus represents the lifecycle state of a ledger entry
type ReservationStatus string

const (
	// ReservationActive marks units currently held for an open order
	ReservationActive ReservationStatus = "active"
	// ReservationReleased marks units returned to availability
	ReservationReleased ReservationStatus = "released"
	// ReservationConsumed marks units committed into a sale
	ReservationConsumed ReservationStatus = "consumed"
)

// Reservation is a ledger entry recording that an order holds units of a SKU.
// It is written when a reservation commits and consumed when the order
// terminates. The ledger lets a cancellation without an item list release the
// order's open reservations, and backs per-order reconciliation.
type Reservation struct {
	shared.BaseEntity
	OrderID  string            `gorm:"size:64;index:idx_reservations_order_status,priority:1;not null" json:"orderId"`
	SKU      string            `gorm:"size:64;not null" json:"sku"`
	Quantity int64             `gorm:"not null" json:"quantity"`
	Status   ReservationStatus `gorm:"size:16;index:idx_reservations_order_status,priority:2;not null" json:"status"`
}

// TableName returns the table name for GORM
func (Reservation) TableName() string {
	return "reservations"
}

// NewReservation creates an active ledger entry for (orderID, sku, quantity)
func NewReservation(orderID, sku string, quantity int64) (*Reservation, error) {
	orderID = strings.TrimSpace(orderID)
	sku = strings.TrimSpace(sku)
	if orderID == "" {
		return nil, shared.NewDomainError("INVALID_INPUT", "Order ID cannot be empty")
	}
	if sku == "" {
		return nil, shared.NewDomainError("INVALID_INPUT", "SKU cannot be empty")
	}
	if quantity <= 0 {
		return nil, shared.NewDomainError("INVALID_INPUT", "Quantity must be positive")
	}

	return &Reservation{
		BaseEntity: shared.NewBaseEntity(),
		OrderID:    orderID,
		SKU:        sku,
		Quantity:   quantity,
		Status:     ReservationActive,
	}, nil
}

// IsOpen returns true while the reservation still holds units
func (r *Reservation) IsOpen() bool {
	return r.Status == ReservationActive
}
