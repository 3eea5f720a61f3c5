package inventory

import (
	"context"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/ecom/inventory/internal/domain/inventory"
	"github.com/ecom/inventory/internal/domain/shared"
)

// StockService executes the reservation lifecycle over the inventory
// counters. Every write follows the same sequence: acquire the per-SKU
// lock, run the atomic store primitive, record the ledger, emit events,
// release the lock. The lock serialises event emission with the committed
// state; the counters themselves are protected by the store predicate.
type StockService struct {
	items        inventory.ItemRepository
	reservations inventory.ReservationRepository
	locks        inventory.LockService
	publisher    inventory.EventPublisher
	logger       *zap.Logger
	lockTTL      time.Duration
	retry        RetryPolicy
}

// NewStockService creates a new StockService
func NewStockService(
	items inventory.ItemRepository,
	reservations inventory.ReservationRepository,
	locks inventory.LockService,
	publisher inventory.EventPublisher,
	logger *zap.Logger,
	lockTTL time.Duration,
	retry RetryPolicy,
) *StockService {
	return &StockService{
		items:        items,
		reservations: reservations,
		locks:        locks,
		publisher:    publisher,
		logger:       logger.Named("stock"),
		lockTTL:      lockTTL,
		retry:        retry,
	}
}

// Reserve claims quantity units of a SKU for an order. On success one
// reserved event is emitted; on failure no event is emitted.
func (s *StockService) Reserve(ctx context.Context, orderID, sku string, quantity int64) *OperationResult {
	if err := validateSingle(orderID, sku, quantity); err != nil {
		return failure(err)
	}

	var result *OperationResult
	err := s.locks.WithLock(ctx, sku, s.lockTTL, func(ctx context.Context) error {
		item, err := s.items.Reserve(ctx, sku, quantity)
		if err != nil {
			result = failure(err)
			return nil
		}
		s.recordReservation(ctx, orderID, sku, quantity)
		s.publish(ctx, inventory.NewReservedEvent(orderID, item, quantity))
		result = success(item)
		return nil
	})
	if err != nil {
		return failure(err)
	}
	return result
}

// Release returns quantity units of an order's reservation to
// availability. The reason is an opaque string carried on the event,
// typically order_cancelled or payment_failed.
func (s *StockService) Release(ctx context.Context, orderID, sku string, quantity int64, reason string) *OperationResult {
	if err := validateSingle(orderID, sku, quantity); err != nil {
		return failure(err)
	}

	var result *OperationResult
	err := s.locks.WithLock(ctx, sku, s.lockTTL, func(ctx context.Context) error {
		item, err := s.items.Release(ctx, sku, quantity)
		if err != nil {
			result = failure(err)
			return nil
		}
		s.closeReservation(ctx, orderID, sku, inventory.ReservationReleased)
		s.publish(ctx, inventory.NewReleasedEvent(orderID, item, quantity, reason))
		result = success(item)
		return nil
	})
	if err != nil {
		return failure(err)
	}
	return result
}

// Deduct commits quantity units of an order's reservation into a sale.
// Alongside the deducted event it raises low_stock when the remaining
// availability falls into [1, threshold] and out_of_stock when it reaches
// zero.
func (s *StockService) Deduct(ctx context.Context, orderID, sku string, quantity int64) *OperationResult {
	if err := validateSingle(orderID, sku, quantity); err != nil {
		return failure(err)
	}

	var result *OperationResult
	err := s.locks.WithLock(ctx, sku, s.lockTTL, func(ctx context.Context) error {
		item, err := s.items.Deduct(ctx, sku, quantity)
		if err != nil {
			result = failure(err)
			return nil
		}
		s.closeReservation(ctx, orderID, sku, inventory.ReservationConsumed)

		events := []inventory.Event{inventory.NewDeductedEvent(orderID, item, quantity)}
		switch available := item.Available(); {
		case available == 0:
			events = append(events, inventory.NewOutOfStockEvent(item))
		case available <= inventory.LowStockThreshold:
			events = append(events, inventory.NewLowStockEvent(item))
		}
		s.publish(ctx, events...)
		result = success(item)
		return nil
	})
	if err != nil {
		return failure(err)
	}
	return result
}

// CreateItem creates a new inventory row with reserved = 0 and sold = 0
func (s *StockService) CreateItem(ctx context.Context, sku string, initialStock int64, location string) (*inventory.InventoryItem, error) {
	item, err := inventory.NewInventoryItem(sku, initialStock, location)
	if err != nil {
		return nil, err
	}
	if err := s.items.Create(ctx, item); err != nil {
		return nil, err
	}
	s.logger.Info("inventory item created",
		zap.String("sku", item.SKU),
		zap.Int64("stock", item.Stock),
	)
	return item, nil
}

// GetBySKU reads one item
func (s *StockService) GetBySKU(ctx context.Context, sku string) (*inventory.InventoryItem, error) {
	sku = strings.TrimSpace(sku)
	if sku == "" {
		return nil, shared.ErrInvalidInput
	}
	return s.items.FindBySKU(ctx, sku)
}

// List reads items matching the filter
func (s *StockService) List(ctx context.Context, filter inventory.Filter) ([]*inventory.InventoryItem, error) {
	return s.items.List(ctx, filter)
}

// GetCounters reads the counter trio for each SKU. Unknown SKUs map to all
// zeros rather than being omitted, so callers can distinguish absent from
// present-with-zero via the catalog.
func (s *StockService) GetCounters(ctx context.Context, skus []string) (map[string]inventory.Counters, error) {
	counters := make(map[string]inventory.Counters, len(skus))
	for _, sku := range skus {
		sku = strings.TrimSpace(sku)
		if sku == "" {
			continue
		}
		item, err := s.items.FindBySKU(ctx, sku)
		if err != nil {
			if err == shared.ErrNotFound {
				counters[sku] = inventory.Counters{}
				continue
			}
			return nil, err
		}
		counters[sku] = inventory.CountersOf(item)
	}
	return counters, nil
}

// UpdateItem applies an administrative or catalog-driven patch and emits an
// updated event. This path is not atomic with respect to the reservation
// primitives; the store predicate still refuses a stock level below the
// reserved quantity.
func (s *StockService) UpdateItem(ctx context.Context, sku string, patch inventory.ItemPatch) (*inventory.InventoryItem, error) {
	sku = strings.TrimSpace(sku)
	if sku == "" {
		return nil, shared.ErrInvalidInput
	}

	item, err := s.items.UpdateFields(ctx, sku, patch)
	if err != nil {
		return nil, err
	}
	s.publish(ctx, inventory.NewUpdatedEvent(item))
	return item, nil
}

// recordReservation appends a ledger entry for a committed reservation. A
// ledger failure does not undo the committed counters; it is logged for
// reconciliation.
func (s *StockService) recordReservation(ctx context.Context, orderID, sku string, quantity int64) {
	reservation, err := inventory.NewReservation(orderID, sku, quantity)
	if err != nil {
		s.logger.Error("invalid reservation ledger entry",
			zap.String("order_id", orderID),
			zap.String("sku", sku),
			zap.Error(err),
		)
		return
	}
	if err := s.reservations.Create(ctx, reservation); err != nil {
		s.logger.Error("failed to record reservation",
			zap.String("order_id", orderID),
			zap.String("sku", sku),
			zap.Error(err),
		)
	}
}

// closeReservation marks the ledger entries of (orderID, sku) released or
// consumed
func (s *StockService) closeReservation(ctx context.Context, orderID, sku string, status inventory.ReservationStatus) {
	var err error
	if status == inventory.ReservationConsumed {
		err = s.reservations.MarkConsumed(ctx, orderID, sku)
	} else {
		err = s.reservations.MarkReleased(ctx, orderID, sku)
	}
	if err != nil {
		s.logger.Error("failed to close reservation ledger entry",
			zap.String("order_id", orderID),
			zap.String("sku", sku),
			zap.String("status", string(status)),
			zap.Error(err),
		)
	}
}

// publish emits events, logging failures. The counters are the source of
// truth; a lost event is reconciled downstream, not rolled back here.
func (s *StockService) publish(ctx context.Context, events ...inventory.Event) {
	if len(events) == 0 {
		return
	}
	if err := s.publisher.Publish(ctx, events...); err != nil {
		s.logger.Error("failed to publish inventory events",
			zap.Int("count", len(events)),
			zap.Error(err),
		)
	}
}

func validateSingle(orderID, sku string, quantity int64) error {
	if strings.TrimSpace(orderID) == "" {
		return shared.NewDomainError(CodeInvalidInput, "Order ID cannot be empty")
	}
	if strings.TrimSpace(sku) == "" {
		return shared.NewDomainError(CodeInvalidInput, "SKU cannot be empty")
	}
	if quantity <= 0 {
		return shared.NewDomainError(CodeInvalidInput, "Quantity must be positive")
	}
	return nil
}
