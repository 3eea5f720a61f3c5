package inventory

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/ecom/inventory/internal/domain/inventory"
	"github.com/ecom/inventory/internal/domain/shared"
)

// heldLock is one lock taken during a batch preamble
type heldLock struct {
	key   string
	token string
}

// ReserveBatch reserves every line of an order or none. Locks for all SKUs
// are taken up front in the caller's order; the store then applies the
// lines sequentially with reverse-order compensation on the first failure.
// Reserved events are emitted eagerly per committed line. When the batch
// aborts, a reservation_rolled_back event per compensated line follows; the
// already-emitted reserved events are not retracted, the pair is the
// observable record of the compensation.
func (s *StockService) ReserveBatch(ctx context.Context, orderID string, items []inventory.BatchItem) *BatchResult {
	if err := validateBatch(orderID, items); err != nil {
		return &BatchResult{Message: err.Error()}
	}
	items = coalesceLines(items)

	held := make([]heldLock, 0, len(items))
	defer func() {
		for i := len(held) - 1; i >= 0; i-- {
			s.locks.Release(ctx, held[i].key, held[i].token)
		}
	}()

	for _, line := range items {
		token, err := s.locks.Acquire(ctx, line.SKU, s.lockTTL)
		if err != nil {
			return &BatchResult{
				FailedSKU: line.SKU,
				Message:   fmt.Sprintf("could not lock %s: %s", line.SKU, err),
			}
		}
		held = append(held, heldLock{key: line.SKU, token: token})
	}

	outcome := s.items.BatchReserve(ctx, items)

	events := make([]inventory.Event, 0, 2*len(outcome.Applied))
	for i, item := range outcome.Applied {
		events = append(events, inventory.NewReservedEvent(orderID, item, items[i].Quantity))
	}

	if outcome.Failed() {
		for i := len(outcome.Applied) - 1; i >= 0; i-- {
			events = append(events, inventory.NewReservationRolledBackEvent(orderID, items[i].SKU, items[i].Quantity))
		}
		s.publish(ctx, events...)
		s.logger.Warn("batch reservation rolled back",
			zap.String("order_id", orderID),
			zap.String("failed_sku", outcome.FailedSKU),
			zap.Error(outcome.Err),
		)
		return &BatchResult{
			FailedSKU: outcome.FailedSKU,
			Message:   outcome.Err.Error(),
		}
	}

	for _, line := range items {
		s.recordReservation(ctx, orderID, line.SKU, line.Quantity)
	}
	s.publish(ctx, events...)
	return &BatchResult{Success: true}
}

// ReleaseBatch releases the lines best-effort: a line whose lock cannot be
// taken or whose release fails is collected and the rest proceed
func (s *StockService) ReleaseBatch(ctx context.Context, orderID string, items []inventory.BatchItem, reason string) *BatchResult {
	if err := validateBatch(orderID, items); err != nil {
		return &BatchResult{Message: err.Error()}
	}
	items = coalesceLines(items)

	var failed []inventory.BatchItem
	lockable := make([]inventory.BatchItem, 0, len(items))
	held := make([]heldLock, 0, len(items))
	defer func() {
		for i := len(held) - 1; i >= 0; i-- {
			s.locks.Release(ctx, held[i].key, held[i].token)
		}
	}()

	for _, line := range items {
		token, err := s.locks.Acquire(ctx, line.SKU, s.lockTTL)
		if err != nil {
			failed = append(failed, line)
			continue
		}
		held = append(held, heldLock{key: line.SKU, token: token})
		lockable = append(lockable, line)
	}

	outcome := s.items.BatchRelease(ctx, lockable)
	for _, released := range outcome.Applied {
		s.closeReservation(ctx, orderID, released.Line.SKU, inventory.ReservationReleased)
		s.publish(ctx, inventory.NewReleasedEvent(orderID, released.Item, released.Line.Quantity, reason))
	}
	failed = append(failed, outcome.Failed...)

	if len(failed) > 0 {
		s.logger.Warn("batch release left failed items",
			zap.String("order_id", orderID),
			zap.Int("failed", len(failed)),
		)
		return &BatchResult{
			Message:     fmt.Sprintf("%d of %d items could not be released", len(failed), len(items)),
			FailedItems: failed,
		}
	}
	return &BatchResult{Success: true}
}

// DeductBatch commits the lines best-effort. A partial failure leaves the
// failing SKUs reserved and emits a partial_deduction report for operator
// reconciliation.
func (s *StockService) DeductBatch(ctx context.Context, orderID string, items []inventory.BatchItem) *BatchResult {
	if err := validateBatch(orderID, items); err != nil {
		return &BatchResult{Message: err.Error()}
	}

	var deducted, failedItems []inventory.DeductionItem
	var failed []inventory.BatchItem
	for _, line := range items {
		result := s.Deduct(ctx, orderID, line.SKU, line.Quantity)
		if !result.Success {
			failed = append(failed, line)
			failedItems = append(failedItems, inventory.DeductionItem{SKU: line.SKU, Quantity: line.Quantity})
			continue
		}
		deducted = append(deducted, inventory.DeductionItem{SKU: line.SKU, Quantity: line.Quantity})
	}

	if len(failed) > 0 {
		s.publish(ctx, inventory.NewPartialDeductionEvent(orderID, deducted, failedItems))
		s.logger.Warn("batch deduction partially failed",
			zap.String("order_id", orderID),
			zap.Int("deducted", len(deducted)),
			zap.Int("failed", len(failed)),
		)
		return &BatchResult{
			Message:     fmt.Sprintf("%d of %d items could not be deducted", len(failed), len(items)),
			FailedItems: failed,
		}
	}
	return &BatchResult{Success: true}
}

// ReleaseOrderReservations releases every open reservation of an order
// recorded in the ledger. It backs cancellations whose event carries no
// item list.
func (s *StockService) ReleaseOrderReservations(ctx context.Context, orderID, reason string) *BatchResult {
	if strings.TrimSpace(orderID) == "" {
		return &BatchResult{Message: "Order ID cannot be empty"}
	}

	open, err := s.reservations.FindOpenByOrder(ctx, orderID)
	if err != nil {
		return &BatchResult{Message: fmt.Sprintf("failed to read reservation ledger: %s", err)}
	}
	if len(open) == 0 {
		return &BatchResult{Message: "no open reservations for order"}
	}

	items := make([]inventory.BatchItem, 0, len(open))
	for _, reservation := range open {
		items = append(items, inventory.BatchItem{SKU: reservation.SKU, Quantity: reservation.Quantity})
	}
	return s.ReleaseBatch(ctx, orderID, items, reason)
}

// coalesceLines merges lines that repeat a SKU into one line with the
// summed quantity, keeping first-seen order. The lock preamble takes one
// lock per SKU; a repeated SKU would collide with its own lock.
func coalesceLines(items []inventory.BatchItem) []inventory.BatchItem {
	merged := make([]inventory.BatchItem, 0, len(items))
	index := make(map[string]int, len(items))
	for _, line := range items {
		if i, ok := index[line.SKU]; ok {
			merged[i].Quantity += line.Quantity
			continue
		}
		index[line.SKU] = len(merged)
		merged = append(merged, line)
	}
	return merged
}

func validateBatch(orderID string, items []inventory.BatchItem) error {
	if strings.TrimSpace(orderID) == "" {
		return shared.NewDomainError(CodeInvalidInput, "Order ID cannot be empty")
	}
	if len(items) == 0 {
		return shared.NewDomainError(CodeInvalidInput, "Item list cannot be empty")
	}
	for _, line := range items {
		if strings.TrimSpace(line.SKU) == "" {
			return shared.NewDomainError(CodeInvalidInput, "SKU cannot be empty")
		}
		if line.Quantity <= 0 {
			return shared.NewDomainError(CodeInvalidInput, "Quantity must be positive")
		}
	}
	return nil
}
