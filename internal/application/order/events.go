package order

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/ecom/inventory/internal/domain/inventory"
)

// Lifecycle kinds applied to the inventory counters. The dedup record is
// keyed by (orderId, kind) so that a renamed upstream event with the same
// meaning still deduplicates.
const (
	KindReserve = "reserve"
	KindRelease = "release"
	KindDeduct  = "deduct"
)

// Item is one order line on the wire
type Item struct {
	SKU       string          `json:"sku"`
	Quantity  int64           `json:"quantity"`
	UnitPrice decimal.Decimal `json:"unitPrice"`
	Name      string          `json:"name"`
}

// Event is the common wire shape of the order lifecycle topics. Producers
// disagree on the ID field name; both orderId and _id are accepted.
type Event struct {
	OrderID string `json:"orderId"`
	AltID   string `json:"_id"`
	Status  string `json:"status"`
	BuyerID string `json:"buyerId"`
	Items   []Item `json:"items"`
}

// ParseEvent decodes an order event payload
func ParseEvent(payload []byte) (*Event, error) {
	var event Event
	if err := json.Unmarshal(payload, &event); err != nil {
		return nil, fmt.Errorf("unparseable order event: %w", err)
	}
	return &event, nil
}

// ID returns the order identifier, falling back to _id
func (e *Event) ID() string {
	if id := strings.TrimSpace(e.OrderID); id != "" {
		return id
	}
	return strings.TrimSpace(e.AltID)
}

// BatchItems projects the order lines into inventory batch lines
func (e *Event) BatchItems() []inventory.BatchItem {
	items := make([]inventory.BatchItem, 0, len(e.Items))
	for _, line := range e.Items {
		items = append(items, inventory.BatchItem{SKU: line.SKU, Quantity: line.Quantity})
	}
	return items
}
