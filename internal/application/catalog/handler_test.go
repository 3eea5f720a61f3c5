package catalog

import (
	"context"
	"testing"

	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/ecom/inventory/internal/domain/inventory"
	"github.com/ecom/inventory/internal/domain/shared"
)

type createCall struct {
	sku          string
	initialStock int64
	location     string
}

type updateCall struct {
	sku   string
	patch inventory.ItemPatch
}

type fakeWriter struct {
	creates   []createCall
	updates   []updateCall
	createErr error
	updateErr error
}

func (w *fakeWriter) CreateItem(ctx context.Context, sku string, initialStock int64, location string) (*inventory.InventoryItem, error) {
	w.creates = append(w.creates, createCall{sku: sku, initialStock: initialStock, location: location})
	if w.createErr != nil {
		return nil, w.createErr
	}
	item, _ := inventory.NewInventoryItem(sku, initialStock, location)
	return item, nil
}

func (w *fakeWriter) UpdateItem(ctx context.Context, sku string, patch inventory.ItemPatch) (*inventory.InventoryItem, error) {
	w.updates = append(w.updates, updateCall{sku: sku, patch: patch})
	if w.updateErr != nil {
		return nil, w.updateErr
	}
	item, _ := inventory.NewInventoryItem(sku, 0, "")
	return item, nil
}

func newTestHandler() (*Handler, *fakeWriter) {
	writer := &fakeWriter{}
	return NewHandler(writer, zap.NewNop()), writer
}

func message(topic, payload string) kafka.Message {
	return kafka.Message{Topic: topic, Value: []byte(payload)}
}

func TestHandler_ProductCreated(t *testing.T) {
	handler, writer := newTestHandler()

	err := handler.Handle(context.Background(), message("product.created",
		`{"sku":"WIDGET-1","initialStock":25,"location":"warehouse-a"}`))
	require.NoError(t, err)

	require.Len(t, writer.creates, 1)
	assert.Equal(t, createCall{sku: "WIDGET-1", initialStock: 25, location: "warehouse-a"}, writer.creates[0])
}

func TestHandler_ProductCreatedWithoutLocation(t *testing.T) {
	handler, writer := newTestHandler()

	err := handler.Handle(context.Background(), message("product.created",
		`{"sku":"WIDGET-1","initialStock":5}`))
	require.NoError(t, err)

	require.Len(t, writer.creates, 1)
	assert.Equal(t, "", writer.creates[0].location)
}

func TestHandler_DuplicateCreateTolerated(t *testing.T) {
	handler, writer := newTestHandler()
	writer.createErr = shared.ErrDuplicateSKU

	err := handler.Handle(context.Background(), message("product.created",
		`{"sku":"WIDGET-1","initialStock":5}`))
	require.NoError(t, err, "redelivered create must ack")
}

func TestHandler_ProductUpdatedPatchesStock(t *testing.T) {
	handler, writer := newTestHandler()

	err := handler.Handle(context.Background(), message("product.updated",
		`{"sku":"WIDGET-1","stock":40}`))
	require.NoError(t, err)

	require.Len(t, writer.updates, 1)
	require.NotNil(t, writer.updates[0].patch.Stock)
	assert.Equal(t, int64(40), *writer.updates[0].patch.Stock)
	assert.Nil(t, writer.updates[0].patch.Location)
}

func TestHandler_ProductUpdatedStockZero(t *testing.T) {
	handler, writer := newTestHandler()

	// stock=0 is a real patch, not an absent field
	err := handler.Handle(context.Background(), message("product.updated",
		`{"sku":"WIDGET-1","stock":0}`))
	require.NoError(t, err)

	require.Len(t, writer.updates, 1)
	require.NotNil(t, writer.updates[0].patch.Stock)
	assert.Equal(t, int64(0), *writer.updates[0].patch.Stock)
}

func TestHandler_ProductUpdatedWithoutInventoryFields(t *testing.T) {
	handler, writer := newTestHandler()

	err := handler.Handle(context.Background(), message("product.updated",
		`{"sku":"WIDGET-1","name":"renamed"}`))
	require.NoError(t, err)
	assert.Empty(t, writer.updates)
}

func TestHandler_StockBelowReservedAcked(t *testing.T) {
	handler, writer := newTestHandler()
	writer.updateErr = shared.ErrStockBelowReserved

	err := handler.Handle(context.Background(), message("product.updated",
		`{"sku":"WIDGET-1","stock":1}`))
	require.NoError(t, err, "rejected patch is logged, not redelivered")
}

func TestHandler_MalformedPayloadDropped(t *testing.T) {
	handler, writer := newTestHandler()

	err := handler.Handle(context.Background(), message("product.created", `{broken`))
	require.NoError(t, err)
	assert.Empty(t, writer.creates)
}

func TestHandler_MissingSKUDropped(t *testing.T) {
	handler, writer := newTestHandler()

	err := handler.Handle(context.Background(), message("product.created", `{"initialStock":5}`))
	require.NoError(t, err)
	assert.Empty(t, writer.creates)
}

func TestHandler_UnknownProductEventIgnored(t *testing.T) {
	handler, writer := newTestHandler()

	err := handler.Handle(context.Background(), message("product.deleted", `{"sku":"WIDGET-1"}`))
	require.NoError(t, err)
	assert.Empty(t, writer.creates)
	assert.Empty(t, writer.updates)
}
