package persistence

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/ecom/inventory/internal/domain/inventory"
	"github.com/ecom/inventory/internal/domain/shared"
)

// GormItemRepository implements inventory.ItemRepository using GORM. The
// write primitives are single-statement conditional updates so that the
// predicate check and the counter mutation are atomic under concurrent
// access; the updated row is read back through RETURNING.
type GormItemRepository struct {
	db *gorm.DB
}

// NewGormItemRepository creates a new GormItemRepository
func NewGormItemRepository(db *gorm.DB) *GormItemRepository {
	return &GormItemRepository{db: db}
}

// Create persists a new inventory item
func (r *GormItemRepository) Create(ctx context.Context, item *inventory.InventoryItem) error {
	if err := r.db.WithContext(ctx).Create(item).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return shared.ErrDuplicateSKU
		}
		return err
	}
	return nil
}

// FindBySKU finds an inventory item by its SKU
func (r *GormItemRepository) FindBySKU(ctx context.Context, sku string) (*inventory.InventoryItem, error) {
	var item inventory.InventoryItem
	if err := r.db.WithContext(ctx).First(&item, "sku = ?", sku).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return &item, nil
}

// List returns inventory items matching the filter, newest first
func (r *GormItemRepository) List(ctx context.Context, filter inventory.Filter) ([]*inventory.InventoryItem, error) {
	query := r.db.WithContext(ctx).Model(&inventory.InventoryItem{})
	if filter.SKU != "" {
		query = query.Where("sku = ?", filter.SKU)
	}
	if filter.Location != "" {
		query = query.Where("location = ?", filter.Location)
	}

	var items []*inventory.InventoryItem
	if err := query.Order("created_at DESC").Find(&items).Error; err != nil {
		return nil, err
	}
	return items, nil
}

// Reserve atomically moves quantity from available into reserved when
// stock - reserved >= quantity
func (r *GormItemRepository) Reserve(ctx context.Context, sku string, quantity int64) (*inventory.InventoryItem, error) {
	if quantity <= 0 {
		return nil, shared.ErrInvalidInput
	}

	var item inventory.InventoryItem
	result := r.db.WithContext(ctx).
		Model(&item).
		Clauses(clause.Returning{}).
		Where("sku = ? AND stock - reserved >= ?", sku, quantity).
		Updates(map[string]interface{}{
			"reserved":   gorm.Expr("reserved + ?", quantity),
			"updated_at": time.Now(),
		})
	if result.Error != nil {
		return nil, result.Error
	}
	if result.RowsAffected == 0 {
		return nil, r.classify(ctx, sku, shared.ErrInsufficientStock)
	}
	return &item, nil
}

// Release atomically returns quantity from reserved to available when
// reserved >= quantity
func (r *GormItemRepository) Release(ctx context.Context, sku string, quantity int64) (*inventory.InventoryItem, error) {
	if quantity <= 0 {
		return nil, shared.ErrInvalidInput
	}

	var item inventory.InventoryItem
	result := r.db.WithContext(ctx).
		Model(&item).
		Clauses(clause.Returning{}).
		Where("sku = ? AND reserved >= ?", sku, quantity).
		Updates(map[string]interface{}{
			"reserved":   gorm.Expr("reserved - ?", quantity),
			"updated_at": time.Now(),
		})
	if result.Error != nil {
		return nil, result.Error
	}
	if result.RowsAffected == 0 {
		return nil, r.classify(ctx, sku, shared.ErrInsufficientReserved)
	}
	return &item, nil
}

// Deduct atomically commits quantity units of a reservation into a sale
// when both stock and reserved cover the quantity
func (r *GormItemRepository) Deduct(ctx context.Context, sku string, quantity int64) (*inventory.InventoryItem, error) {
	if quantity <= 0 {
		return nil, shared.ErrInvalidInput
	}

	var item inventory.InventoryItem
	result := r.db.WithContext(ctx).
		Model(&item).
		Clauses(clause.Returning{}).
		Where("sku = ? AND stock >= ? AND reserved >= ?", sku, quantity, quantity).
		Updates(map[string]interface{}{
			"stock":      gorm.Expr("stock - ?", quantity),
			"reserved":   gorm.Expr("reserved - ?", quantity),
			"sold":       gorm.Expr("sold + ?", quantity),
			"updated_at": time.Now(),
		})
	if result.Error != nil {
		return nil, result.Error
	}
	if result.RowsAffected == 0 {
		return nil, r.classifyDeduct(ctx, sku, quantity)
	}
	return &item, nil
}

// UpdateFields applies an administrative patch. A stock change only commits
// when the new level still covers the reserved quantity.
func (r *GormItemRepository) UpdateFields(ctx context.Context, sku string, patch inventory.ItemPatch) (*inventory.InventoryItem, error) {
	updates := map[string]interface{}{
		"updated_at": time.Now(),
	}
	if patch.Location != nil {
		updates["location"] = *patch.Location
	}

	var item inventory.InventoryItem
	query := r.db.WithContext(ctx).
		Model(&item).
		Clauses(clause.Returning{}).
		Where("sku = ?", sku)
	if patch.Stock != nil {
		if *patch.Stock < 0 {
			return nil, shared.ErrInvalidInput
		}
		updates["stock"] = *patch.Stock
		query = query.Where("reserved <= ?", *patch.Stock)
	}

	result := query.Updates(updates)
	if result.Error != nil {
		return nil, result.Error
	}
	if result.RowsAffected == 0 {
		if patch.Stock != nil {
			return nil, r.classify(ctx, sku, shared.ErrStockBelowReserved)
		}
		return nil, shared.ErrNotFound
	}
	return &item, nil
}

// BatchReserve reserves every line in request order. On the first failure
// the already-applied lines are released in reverse order; their snapshots
// stay in the outcome so callers can report both sides of the compensation.
func (r *GormItemRepository) BatchReserve(ctx context.Context, items []inventory.BatchItem) *inventory.BatchReserveOutcome {
	outcome := &inventory.BatchReserveOutcome{}
	for _, line := range items {
		updated, err := r.Reserve(ctx, line.SKU, line.Quantity)
		if err != nil {
			outcome.FailedSKU = line.SKU
			outcome.Err = err
			r.compensateReserve(ctx, items, len(outcome.Applied))
			return outcome
		}
		outcome.Applied = append(outcome.Applied, updated)
	}
	return outcome
}

// BatchRelease releases the lines best-effort: a failing line is collected
// and processing continues with the rest
func (r *GormItemRepository) BatchRelease(ctx context.Context, items []inventory.BatchItem) *inventory.BatchReleaseOutcome {
	outcome := &inventory.BatchReleaseOutcome{}
	for _, line := range items {
		updated, err := r.Release(ctx, line.SKU, line.Quantity)
		if err != nil {
			outcome.Failed = append(outcome.Failed, line)
			continue
		}
		outcome.Applied = append(outcome.Applied, inventory.ReleasedLine{Line: line, Item: updated})
	}
	return outcome
}

// compensateReserve releases the first applied lines of items in reverse
// order. A release predicate cannot miss here because the units were just
// reserved; a store error leaves the row for manual reconciliation.
func (r *GormItemRepository) compensateReserve(ctx context.Context, items []inventory.BatchItem, applied int) {
	for i := applied - 1; i >= 0; i-- {
		r.Release(ctx, items[i].SKU, items[i].Quantity)
	}
}

// classify distinguishes a missing row from a failed predicate after an
// update touched zero rows
func (r *GormItemRepository) classify(ctx context.Context, sku string, predicateErr error) error {
	if _, err := r.FindBySKU(ctx, sku); err != nil {
		return err
	}
	return predicateErr
}

// classifyDeduct names the side of the compound deduct predicate that failed
func (r *GormItemRepository) classifyDeduct(ctx context.Context, sku string, quantity int64) error {
	item, err := r.FindBySKU(ctx, sku)
	if err != nil {
		return err
	}
	if item.Stock < quantity {
		return shared.ErrInsufficientStock
	}
	return shared.ErrInsufficientReserved
}

// Ensure GormItemRepository implements ItemRepository
var _ inventory.ItemRepository = (*GormItemRepository)(nil)
