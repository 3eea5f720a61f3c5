package inventory

import (
	"strings"

	"github.com/ecom/inventory/internal/domain/shared"
)

// InventoryItem is the aggregate root for stock bookkeeping of a single SKU.
// Three counters are tracked: Stock (physical units on hand, including those
// reserved), Reserved (units claimed by open orders) and Sold (cumulative
// delivered units). At every commit point the following must hold:
//
//	Stock >= 0, Reserved >= 0, Sold >= 0
//	Reserved <= Stock
//	Sold is non-decreasing
type InventoryItem struct {
	shared.BaseEntity
	SKU      string `gorm:"size:64;uniqueIndex;not null" json:"sku"`
	Stock    int64  `gorm:"not null;default:0" json:"stock"`
	Reserved int64  `gorm:"not null;default:0" json:"reserved"`
	Sold     int64  `gorm:"not null;default:0" json:"sold"`
	Location string `gorm:"size:128" json:"location,omitempty"`
}

// TableName returns the table name for GORM
func (InventoryItem) TableName() string {
	return "inventory_items"
}

// NewInventoryItem creates a new inventory item for a SKU with an initial
// stock level. Reserved and Sold start at zero.
func NewInventoryItem(sku string, initialStock int64, location string) (*InventoryItem, error) {
	sku = strings.TrimSpace(sku)
	if sku == "" {
		return nil, shared.NewDomainError("INVALID_INPUT", "SKU cannot be empty")
	}
	if initialStock < 0 {
		return nil, shared.NewDomainError("INVALID_INPUT", "Initial stock cannot be negative")
	}

	return &InventoryItem{
		BaseEntity: shared.NewBaseEntity(),
		SKU:        sku,
		Stock:      initialStock,
		Reserved:   0,
		Sold:       0,
		Location:   location,
	}, nil
}

// Available returns the quantity a new order may claim (stock - reserved).
func (i *InventoryItem) Available() int64 {
	return i.Stock - i.Reserved
}

// CanReserve returns true if the available quantity covers the request
func (i *InventoryItem) CanReserve(quantity int64) bool {
	return quantity > 0 && i.Available() >= quantity
}

// CanRelease returns true if the reserved quantity covers the request
func (i *InventoryItem) CanRelease(quantity int64) bool {
	return quantity > 0 && i.Reserved >= quantity
}

// CanDeduct returns true if both stock and reserved cover the request
func (i *InventoryItem) CanDeduct(quantity int64) bool {
	return quantity > 0 && i.Stock >= quantity && i.Reserved >= quantity
}

// Counters is the read-model projection of an item's counter trio, used by
// the batch read endpoint.
type Counters struct {
	Stock     int64 `json:"stock"`
	Reserved  int64 `json:"reserved"`
	Sold      int64 `json:"sold"`
	Available int64 `json:"available"`
}

// CountersOf projects an item into its counter trio plus derived available
func CountersOf(item *InventoryItem) Counters {
	return Counters{
		Stock:     item.Stock,
		Reserved:  item.Reserved,
		Sold:      item.Sold,
		Available: item.Available(),
	}
}
