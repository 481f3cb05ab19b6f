package repositories

import (
	"context"
	"errors"
	"time"

	"ordersvc/internal/models"

	"github.com/shopspring/decimal"
)

// ErrStatusConflict is returned by UpdateStatus when the order's status
// changed between the caller's read and the write. The caller should re-read
// and re-evaluate the transition against the new current state.
var ErrStatusConflict = errors.New("order status changed concurrently")

// ListParams describes one page of an offset-paginated listing. Page is
// 1-based.
type ListParams struct {
	Page int
	Size int
}

// Offset returns the row offset for the page.
func (p ListParams) Offset() int {
	if p.Page < 1 {
		return 0
	}
	return (p.Page - 1) * p.Size
}

// OrderRepository defines data access for the order aggregate. An order and
// its items are always written together; no partial aggregate is ever
// visible.
type OrderRepository interface {
	// Create persists the order with all of its items in one atomic unit.
	// An order without items is rejected.
	Create(ctx context.Context, order *models.Order) error

	// GetByID returns the order with its items, or a not-found error.
	GetByID(ctx context.Context, id uint) (*models.Order, error)

	// GetByIDAndUserID returns the order only if it belongs to userID.
	// A miss and a foreign order are indistinguishable to the caller.
	GetByIDAndUserID(ctx context.Context, id, userID uint) (*models.Order, error)

	// FindByUserID lists a user's orders newest-first with the total count.
	FindByUserID(ctx context.Context, userID uint, params ListParams) ([]models.Order, int64, error)

	// FindAll lists all orders newest-first with the total count.
	FindAll(ctx context.Context, params ListParams) ([]models.Order, int64, error)

	// UpdateStatus moves the order from one status to another with a
	// conditional write on the previously observed status. Returns
	// ErrStatusConflict if the condition no longer holds.
	UpdateStatus(ctx context.Context, id uint, from, to models.OrderStatus) error

	// Count returns the number of orders regardless of status.
	Count(ctx context.Context) (int64, error)

	// SumRevenue sums total amounts over all orders except those in the
	// excluded status.
	SumRevenue(ctx context.Context, exclude models.OrderStatus) (decimal.Decimal, error)

	// SumRevenueInPeriod sums total amounts of orders created within
	// [start, end], excluding the given status.
	SumRevenueInPeriod(ctx context.Context, start, end time.Time, exclude models.OrderStatus) (decimal.Decimal, error)

	// CountDistinctUsersInPeriod counts distinct ordering users within
	// [start, end], regardless of status.
	CountDistinctUsersInPeriod(ctx context.Context, start, end time.Time) (int64, error)

	// MonthlyRevenue groups non-excluded revenue by UTC calendar month,
	// ordered chronologically ascending.
	MonthlyRevenue(ctx context.Context, exclude models.OrderStatus) ([]models.MonthlyRevenue, error)

	// Recent returns the most recently created orders, newest first.
	Recent(ctx context.Context, limit int) ([]models.Order, error)
}
