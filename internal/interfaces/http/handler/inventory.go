package handler

import (
	"context"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/ecom/inventory/internal/domain/inventory"
)

// StockReader is the slice of the stock service the HTTP surface needs.
// Counter mutations ride the event bus; the API is create and read only.
type StockReader interface {
	CreateItem(ctx context.Context, sku string, initialStock int64, location string) (*inventory.InventoryItem, error)
	GetBySKU(ctx context.Context, sku string) (*inventory.InventoryItem, error)
	List(ctx context.Context, filter inventory.Filter) ([]*inventory.InventoryItem, error)
	GetCounters(ctx context.Context, skus []string) (map[string]inventory.Counters, error)
}

// InventoryHandler handles inventory-related API endpoints
type InventoryHandler struct {
	BaseHandler
	stock StockReader
}

// NewInventoryHandler creates a new InventoryHandler
func NewInventoryHandler(stock StockReader) *InventoryHandler {
	return &InventoryHandler{stock: stock}
}

// RegisterRoutes registers inventory routes
func (h *InventoryHandler) RegisterRoutes(rg *gin.RouterGroup) {
	group := rg.Group("/inventory")
	group.POST("", h.CreateItem)
	group.GET("", h.ListItems)
	group.GET("/batch", h.GetBatch)
	group.GET("/:sku", h.GetItem)
}

// CreateItemRequest represents a request to create an inventory item
type CreateItemRequest struct {
	SKU          string `json:"sku" binding:"required,sku"`
	InitialStock int64  `json:"initialStock" binding:"gte=0"`
	Location     string `json:"location"`
}

// ItemResponse represents an inventory item in API responses
type ItemResponse struct {
	SKU       string `json:"sku"`
	Stock     int64  `json:"stock"`
	Reserved  int64  `json:"reserved"`
	Sold      int64  `json:"sold"`
	Available int64  `json:"available"`
	Location  string `json:"location,omitempty"`
	CreatedAt string `json:"created_at"`
	UpdatedAt string `json:"updated_at"`
}

func newItemResponse(item *inventory.InventoryItem) ItemResponse {
	return ItemResponse{
		SKU:       item.SKU,
		Stock:     item.Stock,
		Reserved:  item.Reserved,
		Sold:      item.Sold,
		Available: item.Available(),
		Location:  item.Location,
		CreatedAt: item.CreatedAt.UTC().Format(time.RFC3339),
		UpdatedAt: item.UpdatedAt.UTC().Format(time.RFC3339),
	}
}

// CreateItem handles POST /inventory
func (h *InventoryHandler) CreateItem(c *gin.Context) {
	var req CreateItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, "Invalid request body: "+err.Error())
		return
	}

	item, err := h.stock.CreateItem(c.Request.Context(), req.SKU, req.InitialStock, req.Location)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Created(c, newItemResponse(item))
}

// GetItem handles GET /inventory/:sku
func (h *InventoryHandler) GetItem(c *gin.Context) {
	item, err := h.stock.GetBySKU(c.Request.Context(), c.Param("sku"))
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, newItemResponse(item))
}

// GetBatch handles GET /inventory/batch?skus=a,b,c. Unknown SKUs come
// back with all counters zero rather than being omitted.
func (h *InventoryHandler) GetBatch(c *gin.Context) {
	raw := c.Query("skus")
	if strings.TrimSpace(raw) == "" {
		h.BadRequest(c, "Query parameter 'skus' is required")
		return
	}

	skus := make([]string, 0)
	for _, sku := range strings.Split(raw, ",") {
		if sku = strings.TrimSpace(sku); sku != "" {
			skus = append(skus, sku)
		}
	}
	if len(skus) == 0 {
		h.BadRequest(c, "Query parameter 'skus' must list at least one SKU")
		return
	}

	counters, err := h.stock.GetCounters(c.Request.Context(), skus)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, counters)
}

// ListItems handles GET /inventory with optional sku and location filters
func (h *InventoryHandler) ListItems(c *gin.Context) {
	filter := inventory.Filter{
		SKU:      strings.TrimSpace(c.Query("sku")),
		Location: strings.TrimSpace(c.Query("location")),
	}

	items, err := h.stock.List(c.Request.Context(), filter)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	responses := make([]ItemResponse, 0, len(items))
	for _, item := range items {
		responses = append(responses, newItemResponse(item))
	}

	h.Success(c, responses)
}
