package catalog

import (
	"context"
	"encoding/json"
	"errors"
	"strings"

	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"

	"github.com/ecom/inventory/internal/domain/inventory"
	"github.com/ecom/inventory/internal/domain/shared"
)

// itemWriter is the slice of the stock service the catalog consumer drives
type itemWriter interface {
	CreateItem(ctx context.Context, sku string, initialStock int64, location string) (*inventory.InventoryItem, error)
	UpdateItem(ctx context.Context, sku string, patch inventory.ItemPatch) (*inventory.InventoryItem, error)
}

// productEvent is the wire shape of product.created and product.updated.
// Stock is a pointer so a product.updated without a stock change can be
// told apart from an explicit stock=0.
type productEvent struct {
	SKU          string  `json:"sku"`
	InitialStock int64   `json:"initialStock"`
	Stock        *int64  `json:"stock"`
	Location     *string `json:"location"`
}

// Handler keeps inventory rows in sync with the product catalog.
// Like the order handler it acks everything: a malformed or rejected
// catalog event is logged and dropped, never redelivered.
type Handler struct {
	stock  itemWriter
	logger *zap.Logger
}

// NewHandler creates a catalog event handler
func NewHandler(stock itemWriter, logger *zap.Logger) *Handler {
	return &Handler{
		stock:  stock,
		logger: logger.Named("catalog"),
	}
}

// Handle processes one message from a product.* topic
func (h *Handler) Handle(ctx context.Context, msg kafka.Message) error {
	var event productEvent
	if err := json.Unmarshal(msg.Value, &event); err != nil {
		h.logger.Warn("dropping malformed product event",
			zap.String("topic", msg.Topic),
			zap.Error(err),
		)
		return nil
	}

	event.SKU = strings.TrimSpace(event.SKU)
	if event.SKU == "" {
		h.logger.Warn("dropping product event without sku",
			zap.String("topic", msg.Topic),
		)
		return nil
	}

	switch topicEvent(msg.Topic) {
	case "created":
		h.handleCreated(ctx, &event)
	case "updated":
		h.handleUpdated(ctx, &event)
	default:
		h.logger.Debug("ignoring product event",
			zap.String("topic", msg.Topic),
			zap.String("sku", event.SKU),
		)
	}
	return nil
}

func (h *Handler) handleCreated(ctx context.Context, event *productEvent) {
	location := ""
	if event.Location != nil {
		location = *event.Location
	}

	_, err := h.stock.CreateItem(ctx, event.SKU, event.InitialStock, location)
	switch {
	case err == nil:
		h.logger.Info("inventory row created from catalog",
			zap.String("sku", event.SKU),
			zap.Int64("initial_stock", event.InitialStock),
		)
	case errors.Is(err, shared.ErrDuplicateSKU):
		// redelivery or a concurrent create; the row already exists
		h.logger.Debug("inventory row already exists",
			zap.String("sku", event.SKU),
		)
	default:
		h.logger.Error("failed to create inventory row from catalog",
			zap.String("sku", event.SKU),
			zap.Error(err),
		)
	}
}

func (h *Handler) handleUpdated(ctx context.Context, event *productEvent) {
	patch := inventory.ItemPatch{Stock: event.Stock, Location: event.Location}
	if patch.Stock == nil && patch.Location == nil {
		h.logger.Debug("product update carries no inventory fields",
			zap.String("sku", event.SKU),
		)
		return
	}

	_, err := h.stock.UpdateItem(ctx, event.SKU, patch)
	switch {
	case err == nil:
	case errors.Is(err, shared.ErrStockBelowReserved):
		h.logger.Warn("catalog stock update rejected, below reserved",
			zap.String("sku", event.SKU),
			zap.Int64p("stock", event.Stock),
		)
	case errors.Is(err, shared.ErrNotFound):
		h.logger.Warn("catalog stock update for unknown sku",
			zap.String("sku", event.SKU),
		)
	default:
		h.logger.Error("failed to apply catalog stock update",
			zap.String("sku", event.SKU),
			zap.Error(err),
		)
	}
}

// topicEvent strips the topic namespace: product.created -> created
func topicEvent(topic string) string {
	if i := strings.LastIndex(topic, "."); i >= 0 {
		return topic[i+1:]
	}
	return topic
}
