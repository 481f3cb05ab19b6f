package repositories

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"ordersvc/internal/apperrors"
	"ordersvc/internal/models"

	"github.com/shopspring/decimal"
)

// InMemoryOrderRepository is an in-memory implementation of OrderRepository.
// It is used when no database is configured and by tests.
type InMemoryOrderRepository struct {
	orders     map[uint]models.Order
	nextID     uint
	nextItemID uint
	mu         sync.RWMutex
}

// NewInMemoryOrderRepository creates a new instance of InMemoryOrderRepository.
func NewInMemoryOrderRepository() *InMemoryOrderRepository {
	return &InMemoryOrderRepository{
		orders:     make(map[uint]models.Order),
		nextID:     1,
		nextItemID: 1,
	}
}

func cloneOrder(order models.Order) models.Order {
	items := make([]models.OrderItem, len(order.Items))
	copy(items, order.Items)
	order.Items = items
	return order
}

// Create stores the order and assigns ids to it and its items. Timestamps
// already set by the caller are kept, matching GORM's behavior.
func (r *InMemoryOrderRepository) Create(ctx context.Context, order *models.Order) error {
	if len(order.Items) == 0 {
		return fmt.Errorf("%w: an order must have at least one item", apperrors.ErrInvalidRequest)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	order.ID = r.nextID
	r.nextID++
	now := time.Now().UTC()
	if order.CreatedAt.IsZero() {
		order.CreatedAt = now
	}
	if order.UpdatedAt.IsZero() {
		order.UpdatedAt = now
	}
	for i := range order.Items {
		order.Items[i].ID = r.nextItemID
		order.Items[i].OrderID = order.ID
		r.nextItemID++
	}
	r.orders[order.ID] = cloneOrder(*order)
	return nil
}

// GetByID returns an order by its id.
func (r *InMemoryOrderRepository) GetByID(ctx context.Context, id uint) (*models.Order, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	order, ok := r.orders[id]
	if !ok {
		return nil, fmt.Errorf("%w: order %d", apperrors.ErrNotFound, id)
	}
	order = cloneOrder(order)
	return &order, nil
}

// GetByIDAndUserID returns an order only if it belongs to the user.
func (r *InMemoryOrderRepository) GetByIDAndUserID(ctx context.Context, id, userID uint) (*models.Order, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	order, ok := r.orders[id]
	if !ok || order.UserID != userID {
		return nil, fmt.Errorf("%w: order %d", apperrors.ErrNotFound, id)
	}
	order = cloneOrder(order)
	return &order, nil
}

func sortNewestFirst(orders []models.Order) {
	sort.Slice(orders, func(i, j int) bool {
		if !orders[i].CreatedAt.Equal(orders[j].CreatedAt) {
			return orders[i].CreatedAt.After(orders[j].CreatedAt)
		}
		return orders[i].ID > orders[j].ID
	})
}

func paginate(orders []models.Order, params ListParams) []models.Order {
	offset := params.Offset()
	if offset >= len(orders) {
		return nil
	}
	end := offset + params.Size
	if params.Size <= 0 || end > len(orders) {
		end = len(orders)
	}
	return orders[offset:end]
}

// FindByUserID lists a user's orders newest-first.
func (r *InMemoryOrderRepository) FindByUserID(ctx context.Context, userID uint, params ListParams) ([]models.Order, int64, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var matched []models.Order
	for _, order := range r.orders {
		if order.UserID == userID {
			matched = append(matched, cloneOrder(order))
		}
	}
	sortNewestFirst(matched)
	return paginate(matched, params), int64(len(matched)), nil
}

// FindAll lists all orders newest-first.
func (r *InMemoryOrderRepository) FindAll(ctx context.Context, params ListParams) ([]models.Order, int64, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	all := make([]models.Order, 0, len(r.orders))
	for _, order := range r.orders {
		all = append(all, cloneOrder(order))
	}
	sortNewestFirst(all)
	return paginate(all, params), int64(len(all)), nil
}

// UpdateStatus applies the conditional status write under the repository
// lock, mirroring the database's read-modify-write atomicity.
func (r *InMemoryOrderRepository) UpdateStatus(ctx context.Context, id uint, from, to models.OrderStatus) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	order, ok := r.orders[id]
	if !ok {
		return fmt.Errorf("%w: order %d", apperrors.ErrNotFound, id)
	}
	if order.Status != from {
		return ErrStatusConflict
	}
	order.Status = to
	order.UpdatedAt = time.Now().UTC()
	r.orders[id] = order
	return nil
}

// Count returns the total number of orders.
func (r *InMemoryOrderRepository) Count(ctx context.Context) (int64, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return int64(len(r.orders)), nil
}

// SumRevenue sums total amounts excluding the given status.
func (r *InMemoryOrderRepository) SumRevenue(ctx context.Context, exclude models.OrderStatus) (decimal.Decimal, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	total := decimal.Zero
	for _, order := range r.orders {
		if order.Status != exclude {
			total = total.Add(order.TotalAmount)
		}
	}
	return total, nil
}

func inPeriod(at, start, end time.Time) bool {
	return !at.Before(start) && !at.After(end)
}

// SumRevenueInPeriod sums total amounts of orders created in [start, end],
// excluding the given status.
func (r *InMemoryOrderRepository) SumRevenueInPeriod(ctx context.Context, start, end time.Time, exclude models.OrderStatus) (decimal.Decimal, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	total := decimal.Zero
	for _, order := range r.orders {
		if order.Status != exclude && inPeriod(order.CreatedAt, start, end) {
			total = total.Add(order.TotalAmount)
		}
	}
	return total, nil
}

// CountDistinctUsersInPeriod counts distinct ordering users in [start, end].
func (r *InMemoryOrderRepository) CountDistinctUsersInPeriod(ctx context.Context, start, end time.Time) (int64, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	users := make(map[uint]struct{})
	for _, order := range r.orders {
		if inPeriod(order.CreatedAt, start, end) {
			users[order.UserID] = struct{}{}
		}
	}
	return int64(len(users)), nil
}

// MonthlyRevenue groups non-excluded revenue by UTC calendar month.
func (r *InMemoryOrderRepository) MonthlyRevenue(ctx context.Context, exclude models.OrderStatus) ([]models.MonthlyRevenue, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var rows []revenueRow
	for _, order := range r.orders {
		if order.Status != exclude {
			rows = append(rows, revenueRow{CreatedAt: order.CreatedAt, TotalAmount: order.TotalAmount})
		}
	}
	return bucketByMonth(rows), nil
}

// Recent returns the newest orders first.
func (r *InMemoryOrderRepository) Recent(ctx context.Context, limit int) ([]models.Order, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	all := make([]models.Order, 0, len(r.orders))
	for _, order := range r.orders {
		all = append(all, cloneOrder(order))
	}
	sortNewestFirst(all)
	if limit < len(all) {
		all = all[:limit]
	}
	return all, nil
}
