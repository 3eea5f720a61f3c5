package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ecom/inventory/internal/domain/inventory"
	"github.com/ecom/inventory/internal/domain/shared"
	"github.com/ecom/inventory/internal/interfaces/http/dto"
)

type fakeStock struct {
	items map[string]*inventory.InventoryItem
}

func newFakeStock() *fakeStock {
	return &fakeStock{items: make(map[string]*inventory.InventoryItem)}
}

func (s *fakeStock) seed(sku string, stock int64) *inventory.InventoryItem {
	item, _ := inventory.NewInventoryItem(sku, stock, "")
	s.items[sku] = item
	return item
}

func (s *fakeStock) CreateItem(ctx context.Context, sku string, initialStock int64, location string) (*inventory.InventoryItem, error) {
	if _, exists := s.items[sku]; exists {
		return nil, shared.ErrDuplicateSKU
	}
	item, err := inventory.NewInventoryItem(sku, initialStock, location)
	if err != nil {
		return nil, err
	}
	s.items[sku] = item
	return item, nil
}

func (s *fakeStock) GetBySKU(ctx context.Context, sku string) (*inventory.InventoryItem, error) {
	item, ok := s.items[sku]
	if !ok {
		return nil, shared.ErrNotFound
	}
	return item, nil
}

func (s *fakeStock) List(ctx context.Context, filter inventory.Filter) ([]*inventory.InventoryItem, error) {
	var out []*inventory.InventoryItem
	for _, item := range s.items {
		if filter.SKU != "" && item.SKU != filter.SKU {
			continue
		}
		if filter.Location != "" && item.Location != filter.Location {
			continue
		}
		out = append(out, item)
	}
	return out, nil
}

func (s *fakeStock) GetCounters(ctx context.Context, skus []string) (map[string]inventory.Counters, error) {
	counters := make(map[string]inventory.Counters, len(skus))
	for _, sku := range skus {
		if item, ok := s.items[sku]; ok {
			counters[sku] = inventory.CountersOf(item)
		} else {
			counters[sku] = inventory.Counters{}
		}
	}
	return counters, nil
}

func setupRouter(stock *fakeStock) *gin.Engine {
	gin.SetMode(gin.TestMode)
	engine := gin.New()
	api := engine.Group("/api/v1")
	NewInventoryHandler(stock).RegisterRoutes(api)
	return engine
}

func doRequest(engine *gin.Engine, method, path, body string) *httptest.ResponseRecorder {
	var reader *strings.Reader
	if body == "" {
		reader = strings.NewReader("")
	} else {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	recorder := httptest.NewRecorder()
	engine.ServeHTTP(recorder, req)
	return recorder
}

func decodeResponse(t *testing.T, recorder *httptest.ResponseRecorder) dto.Response {
	t.Helper()
	var resp dto.Response
	require.NoError(t, json.Unmarshal(recorder.Body.Bytes(), &resp))
	return resp
}

func TestCreateItem(t *testing.T) {
	engine := setupRouter(newFakeStock())

	recorder := doRequest(engine, http.MethodPost, "/api/v1/inventory",
		`{"sku":"WIDGET-1","initialStock":10,"location":"warehouse-a"}`)

	require.Equal(t, http.StatusCreated, recorder.Code)
	resp := decodeResponse(t, recorder)
	require.True(t, resp.Success)

	data := resp.Data.(map[string]interface{})
	assert.Equal(t, "WIDGET-1", data["sku"])
	assert.Equal(t, float64(10), data["stock"])
	assert.Equal(t, float64(0), data["reserved"])
	assert.Equal(t, float64(10), data["available"])
}

func TestCreateItem_Duplicate(t *testing.T) {
	stock := newFakeStock()
	stock.seed("WIDGET-1", 5)
	engine := setupRouter(stock)

	recorder := doRequest(engine, http.MethodPost, "/api/v1/inventory",
		`{"sku":"WIDGET-1","initialStock":10}`)

	require.Equal(t, http.StatusConflict, recorder.Code)
	resp := decodeResponse(t, recorder)
	assert.Equal(t, "DUPLICATE_SKU", resp.Error.Code)
}

func TestCreateItem_InvalidBody(t *testing.T) {
	engine := setupRouter(newFakeStock())

	recorder := doRequest(engine, http.MethodPost, "/api/v1/inventory", `{"initialStock":10}`)
	assert.Equal(t, http.StatusBadRequest, recorder.Code)

	recorder = doRequest(engine, http.MethodPost, "/api/v1/inventory", `{broken`)
	assert.Equal(t, http.StatusBadRequest, recorder.Code)
}

func TestGetItem(t *testing.T) {
	stock := newFakeStock()
	stock.seed("WIDGET-1", 7)
	engine := setupRouter(stock)

	recorder := doRequest(engine, http.MethodGet, "/api/v1/inventory/WIDGET-1", "")

	require.Equal(t, http.StatusOK, recorder.Code)
	resp := decodeResponse(t, recorder)
	data := resp.Data.(map[string]interface{})
	assert.Equal(t, "WIDGET-1", data["sku"])
	assert.Equal(t, float64(7), data["stock"])
}

func TestGetItem_NotFound(t *testing.T) {
	engine := setupRouter(newFakeStock())

	recorder := doRequest(engine, http.MethodGet, "/api/v1/inventory/MISSING", "")

	require.Equal(t, http.StatusNotFound, recorder.Code)
	resp := decodeResponse(t, recorder)
	assert.Equal(t, "NOT_FOUND", resp.Error.Code)
}

func TestGetBatch_UnknownSKUsZeroed(t *testing.T) {
	stock := newFakeStock()
	stock.seed("A", 5)
	engine := setupRouter(stock)

	recorder := doRequest(engine, http.MethodGet, "/api/v1/inventory/batch?skus=A,GHOST", "")

	require.Equal(t, http.StatusOK, recorder.Code)
	resp := decodeResponse(t, recorder)
	data := resp.Data.(map[string]interface{})

	a := data["A"].(map[string]interface{})
	assert.Equal(t, float64(5), a["stock"])

	// absent SKU present with all-zero counters, not omitted
	ghost, ok := data["GHOST"].(map[string]interface{})
	require.True(t, ok)
	assert.Equal(t, float64(0), ghost["stock"])
	assert.Equal(t, float64(0), ghost["available"])
}

func TestGetBatch_MissingQuery(t *testing.T) {
	engine := setupRouter(newFakeStock())

	recorder := doRequest(engine, http.MethodGet, "/api/v1/inventory/batch", "")
	assert.Equal(t, http.StatusBadRequest, recorder.Code)

	recorder = doRequest(engine, http.MethodGet, "/api/v1/inventory/batch?skus=,%20,", "")
	assert.Equal(t, http.StatusBadRequest, recorder.Code)
}

func TestListItems_Filtered(t *testing.T) {
	stock := newFakeStock()
	stock.seed("A", 5)
	stock.seed("B", 3)
	engine := setupRouter(stock)

	recorder := doRequest(engine, http.MethodGet, "/api/v1/inventory?sku=A", "")

	require.Equal(t, http.StatusOK, recorder.Code)
	resp := decodeResponse(t, recorder)
	items := resp.Data.([]interface{})
	require.Len(t, items, 1)
	assert.Equal(t, "A", items[0].(map[string]interface{})["sku"])
}

func TestListItems_Empty(t *testing.T) {
	engine := setupRouter(newFakeStock())

	recorder := doRequest(engine, http.MethodGet, "/api/v1/inventory", "")

	require.Equal(t, http.StatusOK, recorder.Code)
	resp := decodeResponse(t, recorder)
	items, ok := resp.Data.([]interface{})
	require.True(t, ok, "empty list must serialize as [], not null")
	assert.Empty(t, items)
}
