package order

import (
	"context"
	"strings"
	"time"

	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"

	appinventory "github.com/ecom/inventory/internal/application/inventory"
	"github.com/ecom/inventory/internal/domain/inventory"
	"github.com/ecom/inventory/internal/domain/shared"
	"github.com/ecom/inventory/internal/infrastructure/cache"
)

// stockOperations is the slice of the stock service the handler drives
type stockOperations interface {
	ReserveBatch(ctx context.Context, orderID string, items []inventory.BatchItem) *appinventory.BatchResult
	ReleaseBatch(ctx context.Context, orderID string, items []inventory.BatchItem, reason string) *appinventory.BatchResult
	DeductBatch(ctx context.Context, orderID string, items []inventory.BatchItem) *appinventory.BatchResult
	ReleaseOrderReservations(ctx context.Context, orderID, reason string) *appinventory.BatchResult
}

// Handler translates order lifecycle events into inventory operations.
// Handle never returns an error for malformed or unprocessable messages:
// the offset must advance so a poison message cannot halt the partition.
type Handler struct {
	stock    stockOperations
	dedup    shared.IdempotencyStore
	dedupTTL time.Duration
	logger   *zap.Logger
}

// NewHandler creates an order event handler
func NewHandler(stock stockOperations, dedup shared.IdempotencyStore, dedupTTL time.Duration, logger *zap.Logger) *Handler {
	return &Handler{
		stock:    stock,
		dedup:    dedup,
		dedupTTL: dedupTTL,
		logger:   logger.Named("order"),
	}
}

// Handle processes one message from an order.* topic
func (h *Handler) Handle(ctx context.Context, msg kafka.Message) error {
	eventName := topicEvent(msg.Topic)

	event, err := ParseEvent(msg.Value)
	if err != nil {
		h.logger.Warn("dropping malformed order event",
			zap.String("topic", msg.Topic),
			zap.Error(err),
		)
		return nil
	}

	orderID := event.ID()
	if orderID == "" {
		h.logger.Warn("dropping order event without order ID",
			zap.String("topic", msg.Topic),
		)
		return nil
	}

	kind := lifecycleKind(eventName, event.Status)
	if kind == "" {
		h.logger.Debug("ignoring order event",
			zap.String("topic", msg.Topic),
			zap.String("order_id", orderID),
			zap.String("status", event.Status),
		)
		return nil
	}

	if !h.markApplied(ctx, orderID, kind) {
		h.logger.Debug("duplicate order event dropped",
			zap.String("order_id", orderID),
			zap.String("kind", kind),
		)
		return nil
	}

	log := h.logger.With(
		zap.String("order_id", orderID),
		zap.String("kind", kind),
	)

	switch kind {
	case KindReserve:
		if len(event.Items) == 0 {
			log.Warn("dropping reserve event without items")
			return nil
		}
		result := h.stock.ReserveBatch(ctx, orderID, event.BatchItems())
		if !result.Success {
			log.Warn("order reservation failed",
				zap.String("failed_sku", result.FailedSKU),
				zap.String("message", result.Message),
			)
		}

	case KindRelease:
		reason := "order_cancelled"
		var result *appinventory.BatchResult
		if len(event.Items) > 0 {
			result = h.stock.ReleaseBatch(ctx, orderID, event.BatchItems(), reason)
		} else {
			// No item list on the wire: fall back to the reservation ledger
			result = h.stock.ReleaseOrderReservations(ctx, orderID, reason)
		}
		if !result.Success {
			log.Warn("order release incomplete",
				zap.Int("failed_items", len(result.FailedItems)),
				zap.String("message", result.Message),
			)
		}

	case KindDeduct:
		if len(event.Items) == 0 {
			log.Warn("dropping deduct event without items")
			return nil
		}
		result := h.stock.DeductBatch(ctx, orderID, event.BatchItems())
		if !result.Success {
			log.Warn("order deduction incomplete",
				zap.Int("failed_items", len(result.FailedItems)),
				zap.String("message", result.Message),
			)
		}
	}

	return nil
}

// markApplied check-and-sets the (orderId, kind) dedup record. A dedup
// store failure lets the event through: duplicate processing is preferable
// to silently dropping an order.
func (h *Handler) markApplied(ctx context.Context, orderID, kind string) bool {
	fresh, err := h.dedup.MarkProcessed(ctx, cache.DedupKey(orderID, kind), h.dedupTTL)
	if err != nil {
		h.logger.Error("dedup store unavailable, processing anyway",
			zap.String("order_id", orderID),
			zap.String("kind", kind),
			zap.Error(err),
		)
		return true
	}
	return fresh
}

// topicEvent strips the topic namespace: order.created -> created
func topicEvent(topic string) string {
	if i := strings.LastIndex(topic, "."); i >= 0 {
		return topic[i+1:]
	}
	return topic
}

// lifecycleKind maps an event name (and status, for order.updated) to the
// inventory operation. An empty kind means no-op.
func lifecycleKind(eventName, status string) string {
	switch eventName {
	case "created":
		return KindReserve
	case "cancelled":
		return KindRelease
	case "delivered":
		return KindDeduct
	case "updated":
		switch strings.ToLower(status) {
		case "delivered":
			return KindDeduct
		case "cancelled":
			return KindRelease
		}
		return ""
	default:
		// shipped, paid and unknown events leave the reservation in place
		return ""
	}
}
