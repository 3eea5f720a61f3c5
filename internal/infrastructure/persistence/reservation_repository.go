package persistence

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/ecom/inventory/internal/domain/inventory"
)

// GormReservationRepository implements inventory.ReservationRepository using
// GORM
type GormReservationRepository struct {
	db *gorm.DB
}

// NewGormReservationRepository creates a new GormReservationRepository
func NewGormReservationRepository(db *gorm.DB) *GormReservationRepository {
	return &GormReservationRepository{db: db}
}

// Create persists a new ledger entry
func (r *GormReservationRepository) Create(ctx context.Context, reservation *inventory.Reservation) error {
	return r.db.WithContext(ctx).Create(reservation).Error
}

// FindOpenByOrder returns the active ledger entries for an order, oldest
// first
func (r *GormReservationRepository) FindOpenByOrder(ctx context.Context, orderID string) ([]*inventory.Reservation, error) {
	var reservations []*inventory.Reservation
	if err := r.db.WithContext(ctx).
		Where("order_id = ? AND status = ?", orderID, inventory.ReservationActive).
		Order("created_at ASC").
		Find(&reservations).Error; err != nil {
		return nil, err
	}
	return reservations, nil
}

// MarkReleased closes the active entries matching (orderID, sku)
func (r *GormReservationRepository) MarkReleased(ctx context.Context, orderID, sku string) error {
	return r.markClosed(ctx, orderID, sku, inventory.ReservationReleased)
}

// MarkConsumed closes the active entries matching (orderID, sku)
func (r *GormReservationRepository) MarkConsumed(ctx context.Context, orderID, sku string) error {
	return r.markClosed(ctx, orderID, sku, inventory.ReservationConsumed)
}

func (r *GormReservationRepository) markClosed(ctx context.Context, orderID, sku string, status inventory.ReservationStatus) error {
	// Closing an already-closed entry is a no-op, matching at-least-once
	// event delivery.
	return r.db.WithContext(ctx).
		Model(&inventory.Reservation{}).
		Where("order_id = ? AND sku = ? AND status = ?", orderID, sku, inventory.ReservationActive).
		Updates(map[string]interface{}{
			"status":     status,
			"updated_at": time.Now(),
		}).Error
}

// Ensure GormReservationRepository implements ReservationRepository
var _ inventory.ReservationRepository = (*GormReservationRepository)(nil)
