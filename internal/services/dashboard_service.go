package services

import (
	"context"
	"fmt"
	"time"

	"ordersvc/internal/models"
	"ordersvc/internal/repositories"

	"github.com/shopspring/decimal"
)

const recentOrdersLimit = 5

var oneHundred = decimal.NewFromInt(100)

// DashboardService aggregates historical orders into dashboard statistics.
// Every call re-aggregates from the store against the UTC clock; there is no
// caching.
type DashboardService struct {
	orders repositories.OrderRepository
}

// NewDashboardService creates a new DashboardService.
func NewDashboardService(orders repositories.OrderRepository) *DashboardService {
	return &DashboardService{orders: orders}
}

// GetDashboardStats computes revenue, growth and order-count statistics over
// rolling calendar-month windows. Cancelled orders carry no revenue but
// still count as order attempts.
func (s *DashboardService) GetDashboardStats(ctx context.Context) (*models.DashboardStats, error) {
	totalRevenue, err := s.orders.SumRevenue(ctx, models.StatusCancelled)
	if err != nil {
		return nil, fmt.Errorf("failed to sum revenue: %w", err)
	}

	totalOrders, err := s.orders.Count(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to count orders: %w", err)
	}

	now := time.Now().UTC()
	startOfMonth := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC)

	newCustomers, err := s.orders.CountDistinctUsersInPeriod(ctx, startOfMonth, now)
	if err != nil {
		return nil, fmt.Errorf("failed to count new customers: %w", err)
	}

	growth, err := s.revenueGrowth(ctx, now)
	if err != nil {
		return nil, err
	}

	monthly, err := s.orders.MonthlyRevenue(ctx, models.StatusCancelled)
	if err != nil {
		return nil, fmt.Errorf("failed to load monthly revenue: %w", err)
	}

	recent, err := s.orders.Recent(ctx, recentOrdersLimit)
	if err != nil {
		return nil, fmt.Errorf("failed to load recent orders: %w", err)
	}
	recentViews := make([]models.OrderView, 0, len(recent))
	for i := range recent {
		recentViews = append(recentViews, models.NewOrderView(&recent[i]))
	}

	return &models.DashboardStats{
		TotalRevenue:          totalRevenue,
		RevenueGrowthPct:      growth,
		TotalOrders:           totalOrders,
		NewCustomersThisMonth: newCustomers,
		MonthlyRevenue:        monthly,
		RecentOrders:          recentViews,
	}, nil
}

// revenueGrowth compares this month's non-cancelled revenue to last
// month's. The ratio is rounded to 4 decimal places before the percentage
// multiply. A zero last month yields 100.0 for positive growth and 0.0
// otherwise, so the division by zero never happens.
func (s *DashboardService) revenueGrowth(ctx context.Context, now time.Time) (float64, error) {
	startOfThisMonth := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC)
	startOfLastMonth := startOfThisMonth.AddDate(0, -1, 0)
	endOfLastMonth := startOfThisMonth.Add(-time.Millisecond)

	thisMonth, err := s.orders.SumRevenueInPeriod(ctx, startOfThisMonth, now, models.StatusCancelled)
	if err != nil {
		return 0, fmt.Errorf("failed to sum this month's revenue: %w", err)
	}
	lastMonth, err := s.orders.SumRevenueInPeriod(ctx, startOfLastMonth, endOfLastMonth, models.StatusCancelled)
	if err != nil {
		return 0, fmt.Errorf("failed to sum last month's revenue: %w", err)
	}

	if lastMonth.IsZero() {
		if thisMonth.IsPositive() {
			return 100.0, nil
		}
		return 0.0, nil
	}

	return thisMonth.Sub(lastMonth).DivRound(lastMonth, 4).Mul(oneHundred).InexactFloat64(), nil
}
