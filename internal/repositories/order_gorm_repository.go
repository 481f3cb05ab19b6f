package repositories

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"ordersvc/internal/apperrors"
	"ordersvc/internal/models"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// GORMOrderRepository is a GORM implementation of OrderRepository.
type GORMOrderRepository struct {
	db *gorm.DB
}

// NewGORMOrderRepository creates a new instance of GORMOrderRepository.
func NewGORMOrderRepository(db *gorm.DB) *GORMOrderRepository {
	return &GORMOrderRepository{db: db}
}

// preloadItems loads the owned item collection in stable line order.
func preloadItems(db *gorm.DB) *gorm.DB {
	return db.Preload("Items", func(tx *gorm.DB) *gorm.DB {
		return tx.Order("order_items.id ASC")
	})
}

// Create persists the order together with its items. GORM writes the
// association inside a single transaction, so a failure leaves nothing
// behind.
func (r *GORMOrderRepository) Create(ctx context.Context, order *models.Order) error {
	if len(order.Items) == 0 {
		return fmt.Errorf("%w: an order must have at least one item", apperrors.ErrInvalidRequest)
	}
	now := time.Now().UTC()
	if order.CreatedAt.IsZero() {
		order.CreatedAt = now
	}
	if order.UpdatedAt.IsZero() {
		order.UpdatedAt = now
	}
	if err := r.db.WithContext(ctx).Create(order).Error; err != nil {
		return fmt.Errorf("failed to create order: %w", err)
	}
	return nil
}

// GetByID retrieves an order with its items.
func (r *GORMOrderRepository) GetByID(ctx context.Context, id uint) (*models.Order, error) {
	var order models.Order
	err := preloadItems(r.db.WithContext(ctx)).First(&order, "id = ?", id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: order %d", apperrors.ErrNotFound, id)
		}
		return nil, fmt.Errorf("failed to get order %d: %w", id, err)
	}
	return &order, nil
}

// GetByIDAndUserID retrieves an order scoped to its owner. A foreign order
// looks exactly like a missing one.
func (r *GORMOrderRepository) GetByIDAndUserID(ctx context.Context, id, userID uint) (*models.Order, error) {
	var order models.Order
	err := preloadItems(r.db.WithContext(ctx)).First(&order, "id = ? AND user_id = ?", id, userID).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: order %d", apperrors.ErrNotFound, id)
		}
		return nil, fmt.Errorf("failed to get order %d for user %d: %w", id, userID, err)
	}
	return &order, nil
}

// FindByUserID lists a user's orders newest-first.
func (r *GORMOrderRepository) FindByUserID(ctx context.Context, userID uint, params ListParams) ([]models.Order, int64, error) {
	var total int64
	if err := r.db.WithContext(ctx).Model(&models.Order{}).Where("user_id = ?", userID).Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count orders for user %d: %w", userID, err)
	}

	var orders []models.Order
	err := preloadItems(r.db.WithContext(ctx)).
		Where("user_id = ?", userID).
		Order("created_at DESC, id DESC").
		Offset(params.Offset()).
		Limit(params.Size).
		Find(&orders).Error
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list orders for user %d: %w", userID, err)
	}
	return orders, total, nil
}

// FindAll lists all orders newest-first.
func (r *GORMOrderRepository) FindAll(ctx context.Context, params ListParams) ([]models.Order, int64, error) {
	var total int64
	if err := r.db.WithContext(ctx).Model(&models.Order{}).Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count orders: %w", err)
	}

	var orders []models.Order
	err := preloadItems(r.db.WithContext(ctx)).
		Order("created_at DESC, id DESC").
		Offset(params.Offset()).
		Limit(params.Size).
		Find(&orders).Error
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list orders: %w", err)
	}
	return orders, total, nil
}

// UpdateStatus performs the conditional status write. The WHERE clause on the
// previously observed status makes concurrent transitions on one order lose
// cleanly instead of tearing.
func (r *GORMOrderRepository) UpdateStatus(ctx context.Context, id uint, from, to models.OrderStatus) error {
	res := r.db.WithContext(ctx).Model(&models.Order{}).
		Where("id = ? AND status = ?", id, from).
		Updates(map[string]interface{}{
			"status":     to,
			"updated_at": time.Now().UTC(),
		})
	if res.Error != nil {
		return fmt.Errorf("failed to update status of order %d: %w", id, res.Error)
	}
	if res.RowsAffected == 0 {
		var count int64
		if err := r.db.WithContext(ctx).Model(&models.Order{}).Where("id = ?", id).Count(&count).Error; err != nil {
			return fmt.Errorf("failed to check order %d: %w", id, err)
		}
		if count == 0 {
			return fmt.Errorf("%w: order %d", apperrors.ErrNotFound, id)
		}
		return ErrStatusConflict
	}
	return nil
}

// Count returns the total number of orders.
func (r *GORMOrderRepository) Count(ctx context.Context) (int64, error) {
	var total int64
	if err := r.db.WithContext(ctx).Model(&models.Order{}).Count(&total).Error; err != nil {
		return 0, fmt.Errorf("failed to count orders: %w", err)
	}
	return total, nil
}

// SumRevenue sums total amounts excluding the given status.
func (r *GORMOrderRepository) SumRevenue(ctx context.Context, exclude models.OrderStatus) (decimal.Decimal, error) {
	var total decimal.Decimal
	row := r.db.WithContext(ctx).Model(&models.Order{}).
		Select("COALESCE(SUM(total_amount), 0)").
		Where("status <> ?", exclude).
		Row()
	if err := row.Scan(&total); err != nil {
		return decimal.Zero, fmt.Errorf("failed to sum revenue: %w", err)
	}
	return total, nil
}

// SumRevenueInPeriod sums total amounts of orders created in [start, end],
// excluding the given status.
func (r *GORMOrderRepository) SumRevenueInPeriod(ctx context.Context, start, end time.Time, exclude models.OrderStatus) (decimal.Decimal, error) {
	var total decimal.Decimal
	row := r.db.WithContext(ctx).Model(&models.Order{}).
		Select("COALESCE(SUM(total_amount), 0)").
		Where("created_at >= ? AND created_at <= ? AND status <> ?", start, end, exclude).
		Row()
	if err := row.Scan(&total); err != nil {
		return decimal.Zero, fmt.Errorf("failed to sum revenue in period: %w", err)
	}
	return total, nil
}

// CountDistinctUsersInPeriod counts distinct ordering users in [start, end].
func (r *GORMOrderRepository) CountDistinctUsersInPeriod(ctx context.Context, start, end time.Time) (int64, error) {
	var count int64
	row := r.db.WithContext(ctx).Model(&models.Order{}).
		Select("COUNT(DISTINCT user_id)").
		Where("created_at >= ? AND created_at <= ?", start, end).
		Row()
	if err := row.Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count distinct users in period: %w", err)
	}
	return count, nil
}

// MonthlyRevenue groups revenue by UTC calendar month. Month extraction is
// dialect-specific SQL, so the rows are fetched and bucketed here; the
// aggregate contract stays behind the repository interface.
func (r *GORMOrderRepository) MonthlyRevenue(ctx context.Context, exclude models.OrderStatus) ([]models.MonthlyRevenue, error) {
	var rows []revenueRow
	err := r.db.WithContext(ctx).Model(&models.Order{}).
		Select("created_at, total_amount").
		Where("status <> ?", exclude).
		Find(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("failed to load revenue rows: %w", err)
	}
	return bucketByMonth(rows), nil
}

type revenueRow struct {
	CreatedAt   time.Time
	TotalAmount decimal.Decimal
}

func bucketByMonth(rows []revenueRow) []models.MonthlyRevenue {
	type yearMonth struct {
		year  int
		month int
	}
	buckets := make(map[yearMonth]decimal.Decimal)
	for _, row := range rows {
		at := row.CreatedAt.UTC()
		key := yearMonth{year: at.Year(), month: int(at.Month())}
		buckets[key] = buckets[key].Add(row.TotalAmount)
	}

	keys := make([]yearMonth, 0, len(buckets))
	for key := range buckets {
		keys = append(keys, key)
	}
	sort.Slice(keys, func(i, j int) bool {
		if keys[i].year != keys[j].year {
			return keys[i].year < keys[j].year
		}
		return keys[i].month < keys[j].month
	})

	result := make([]models.MonthlyRevenue, 0, len(keys))
	for _, key := range keys {
		result = append(result, models.MonthlyRevenue{
			Year:  key.year,
			Month: key.month,
			Total: buckets[key],
		})
	}
	return result
}

// Recent returns the newest orders first.
func (r *GORMOrderRepository) Recent(ctx context.Context, limit int) ([]models.Order, error) {
	var orders []models.Order
	err := preloadItems(r.db.WithContext(ctx)).
		Order("created_at DESC, id DESC").
		Limit(limit).
		Find(&orders).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list recent orders: %w", err)
	}
	return orders, nil
}
