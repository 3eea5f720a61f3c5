package order

import (
	"context"
	"testing"
	"time"

	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	appinventory "github.com/ecom/inventory/internal/application/inventory"
	"github.com/ecom/inventory/internal/domain/inventory"
	"github.com/ecom/inventory/internal/infrastructure/cache"
)

// call records one invocation on the fake stock service
type call struct {
	op      string
	orderID string
	items   []inventory.BatchItem
	reason  string
}

type fakeStock struct {
	calls  []call
	result *appinventory.BatchResult
}

func newFakeStock() *fakeStock {
	return &fakeStock{result: &appinventory.BatchResult{Success: true}}
}

func (s *fakeStock) ReserveBatch(ctx context.Context, orderID string, items []inventory.BatchItem) *appinventory.BatchResult {
	s.calls = append(s.calls, call{op: "reserve", orderID: orderID, items: items})
	return s.result
}

func (s *fakeStock) ReleaseBatch(ctx context.Context, orderID string, items []inventory.BatchItem, reason string) *appinventory.BatchResult {
	s.calls = append(s.calls, call{op: "release", orderID: orderID, items: items, reason: reason})
	return s.result
}

func (s *fakeStock) DeductBatch(ctx context.Context, orderID string, items []inventory.BatchItem) *appinventory.BatchResult {
	s.calls = append(s.calls, call{op: "deduct", orderID: orderID, items: items})
	return s.result
}

func (s *fakeStock) ReleaseOrderReservations(ctx context.Context, orderID, reason string) *appinventory.BatchResult {
	s.calls = append(s.calls, call{op: "release_order", orderID: orderID, reason: reason})
	return s.result
}

func newTestHandler() (*Handler, *fakeStock) {
	stock := newFakeStock()
	handler := NewHandler(stock, cache.NewInMemoryDedupStore(), time.Hour, zap.NewNop())
	return handler, stock
}

func message(topic, payload string) kafka.Message {
	return kafka.Message{Topic: topic, Value: []byte(payload)}
}

func TestHandler_OrderCreatedReserves(t *testing.T) {
	handler, stock := newTestHandler()

	err := handler.Handle(context.Background(), message("order.created",
		`{"orderId":"O1","status":"created","items":[{"sku":"A","quantity":2,"unitPrice":"9.99","name":"Widget"}]}`))
	require.NoError(t, err)

	require.Len(t, stock.calls, 1)
	assert.Equal(t, "reserve", stock.calls[0].op)
	assert.Equal(t, "O1", stock.calls[0].orderID)
	assert.Equal(t, []inventory.BatchItem{{SKU: "A", Quantity: 2}}, stock.calls[0].items)
}

func TestHandler_AltIDFallback(t *testing.T) {
	handler, stock := newTestHandler()

	err := handler.Handle(context.Background(), message("order.created",
		`{"_id":"O2","items":[{"sku":"A","quantity":1}]}`))
	require.NoError(t, err)

	require.Len(t, stock.calls, 1)
	assert.Equal(t, "O2", stock.calls[0].orderID)
}

func TestHandler_OrderCancelledReleases(t *testing.T) {
	handler, stock := newTestHandler()

	err := handler.Handle(context.Background(), message("order.cancelled",
		`{"orderId":"O1","items":[{"sku":"A","quantity":2}]}`))
	require.NoError(t, err)

	require.Len(t, stock.calls, 1)
	assert.Equal(t, "release", stock.calls[0].op)
	assert.Equal(t, "order_cancelled", stock.calls[0].reason)
}

func TestHandler_CancelWithoutItemsUsesLedger(t *testing.T) {
	handler, stock := newTestHandler()

	err := handler.Handle(context.Background(), message("order.cancelled", `{"orderId":"O1"}`))
	require.NoError(t, err)

	require.Len(t, stock.calls, 1)
	assert.Equal(t, "release_order", stock.calls[0].op)
	assert.Equal(t, "O1", stock.calls[0].orderID)
}

func TestHandler_OrderDeliveredDeducts(t *testing.T) {
	handler, stock := newTestHandler()

	err := handler.Handle(context.Background(), message("order.delivered",
		`{"orderId":"O1","items":[{"sku":"A","quantity":2}]}`))
	require.NoError(t, err)

	require.Len(t, stock.calls, 1)
	assert.Equal(t, "deduct", stock.calls[0].op)
}

func TestHandler_OrderUpdatedByStatus(t *testing.T) {
	t.Run("delivered", func(t *testing.T) {
		handler, stock := newTestHandler()
		err := handler.Handle(context.Background(), message("order.updated",
			`{"orderId":"O1","status":"delivered","items":[{"sku":"A","quantity":1}]}`))
		require.NoError(t, err)
		require.Len(t, stock.calls, 1)
		assert.Equal(t, "deduct", stock.calls[0].op)
	})

	t.Run("cancelled", func(t *testing.T) {
		handler, stock := newTestHandler()
		err := handler.Handle(context.Background(), message("order.updated",
			`{"orderId":"O1","status":"cancelled","items":[{"sku":"A","quantity":1}]}`))
		require.NoError(t, err)
		require.Len(t, stock.calls, 1)
		assert.Equal(t, "release", stock.calls[0].op)
	})

	t.Run("other status is a no-op", func(t *testing.T) {
		handler, stock := newTestHandler()
		err := handler.Handle(context.Background(), message("order.updated",
			`{"orderId":"O1","status":"packed","items":[{"sku":"A","quantity":1}]}`))
		require.NoError(t, err)
		assert.Empty(t, stock.calls)
	})
}

func TestHandler_ShippedAndPaidAreNoops(t *testing.T) {
	handler, stock := newTestHandler()

	for _, topic := range []string{"order.shipped", "order.paid"} {
		err := handler.Handle(context.Background(), message(topic,
			`{"orderId":"O1","items":[{"sku":"A","quantity":1}]}`))
		require.NoError(t, err)
	}
	assert.Empty(t, stock.calls)
}

func TestHandler_DuplicateDeliveryAppliedOnce(t *testing.T) {
	handler, stock := newTestHandler()
	msg := message("order.created", `{"orderId":"O","items":[{"sku":"F","quantity":1}]}`)

	require.NoError(t, handler.Handle(context.Background(), msg))
	require.NoError(t, handler.Handle(context.Background(), msg))

	assert.Len(t, stock.calls, 1)
}

func TestHandler_DifferentKindsOfSameOrderBothApply(t *testing.T) {
	handler, stock := newTestHandler()

	require.NoError(t, handler.Handle(context.Background(),
		message("order.created", `{"orderId":"O","items":[{"sku":"F","quantity":1}]}`)))
	require.NoError(t, handler.Handle(context.Background(),
		message("order.delivered", `{"orderId":"O","items":[{"sku":"F","quantity":1}]}`)))

	require.Len(t, stock.calls, 2)
	assert.Equal(t, "reserve", stock.calls[0].op)
	assert.Equal(t, "deduct", stock.calls[1].op)
}

func TestHandler_MalformedPayloadDropped(t *testing.T) {
	handler, stock := newTestHandler()

	err := handler.Handle(context.Background(), message("order.created", `{not json`))
	require.NoError(t, err, "poison messages must not halt the partition")
	assert.Empty(t, stock.calls)
}

func TestHandler_MissingOrderIDDropped(t *testing.T) {
	handler, stock := newTestHandler()

	err := handler.Handle(context.Background(), message("order.created",
		`{"items":[{"sku":"A","quantity":1}]}`))
	require.NoError(t, err)
	assert.Empty(t, stock.calls)
}

func TestHandler_CreatedWithoutItemsDropped(t *testing.T) {
	handler, stock := newTestHandler()

	err := handler.Handle(context.Background(), message("order.created", `{"orderId":"O1"}`))
	require.NoError(t, err)
	assert.Empty(t, stock.calls)
}

func TestHandler_UseCaseFailureStillAcked(t *testing.T) {
	handler, stock := newTestHandler()
	stock.result = &appinventory.BatchResult{Success: false, FailedSKU: "A", Message: "Insufficient available stock"}

	err := handler.Handle(context.Background(), message("order.created",
		`{"orderId":"O1","items":[{"sku":"A","quantity":99}]}`))
	require.NoError(t, err)
}

func TestLifecycleKind(t *testing.T) {
	assert.Equal(t, KindReserve, lifecycleKind("created", ""))
	assert.Equal(t, KindRelease, lifecycleKind("cancelled", ""))
	assert.Equal(t, KindDeduct, lifecycleKind("delivered", ""))
	assert.Equal(t, KindDeduct, lifecycleKind("updated", "Delivered"))
	assert.Equal(t, KindRelease, lifecycleKind("updated", "cancelled"))
	assert.Equal(t, "", lifecycleKind("updated", "paid"))
	assert.Equal(t, "", lifecycleKind("shipped", ""))
	assert.Equal(t, "", lifecycleKind("paid", ""))
}
