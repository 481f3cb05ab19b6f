package services_test

import (
	"context"
	"fmt"
	"testing"
	"time"

	"ordersvc/internal/models"
	"ordersvc/internal/repositories"
	"ordersvc/internal/services"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func seedOrder(t *testing.T, repo *repositories.InMemoryOrderRepository, userID uint, status models.OrderStatus, amount string, createdAt time.Time) {
	t.Helper()
	order := &models.Order{
		UserID:        userID,
		CustomerName:  fmt.Sprintf("Customer %d", userID),
		Status:        status,
		PaymentMethod: models.PaymentMethodCOD,
		PaymentStatus: models.PaymentStatusUnpaid,
		TotalAmount:   decimal.RequireFromString(amount),
		CreatedAt:     createdAt,
		UpdatedAt:     createdAt,
		Items: []models.OrderItem{
			{ProductID: 1, ProductName: "Widget", Price: decimal.RequireFromString(amount), Quantity: 1},
		},
	}
	assert.NoError(t, repo.Create(context.Background(), order))
}

func TestDashboardService_EmptyStore(t *testing.T) {
	repo := repositories.NewInMemoryOrderRepository()
	service := services.NewDashboardService(repo)

	stats, err := service.GetDashboardStats(context.Background())
	assert.NoError(t, err)
	assert.True(t, stats.TotalRevenue.IsZero())
	assert.Equal(t, 0.0, stats.RevenueGrowthPct)
	assert.Equal(t, int64(0), stats.TotalOrders)
	assert.Equal(t, int64(0), stats.NewCustomersThisMonth)
	assert.Empty(t, stats.MonthlyRevenue)
	assert.Empty(t, stats.RecentOrders)
}

func TestDashboardService_CancelledOrdersCarryNoRevenue(t *testing.T) {
	repo := repositories.NewInMemoryOrderRepository()
	service := services.NewDashboardService(repo)
	now := time.Now().UTC()

	seedOrder(t, repo, 1, models.StatusDelivered, "500.00", now.Add(-time.Hour))
	seedOrder(t, repo, 2, models.StatusCancelled, "1000.00", now.Add(-2*time.Hour))

	stats, err := service.GetDashboardStats(context.Background())
	assert.NoError(t, err)
	assert.True(t, stats.TotalRevenue.Equal(decimal.RequireFromString("500.00")),
		"total revenue was %s", stats.TotalRevenue)
	// Cancelled orders still count as order attempts.
	assert.Equal(t, int64(2), stats.TotalOrders)
	assert.Equal(t, int64(2), stats.NewCustomersThisMonth)
}

func TestDashboardService_GrowthAgainstZeroBaseline(t *testing.T) {
	repo := repositories.NewInMemoryOrderRepository()
	service := services.NewDashboardService(repo)
	now := time.Now().UTC()

	// Revenue this month with nothing last month reads as full growth.
	seedOrder(t, repo, 1, models.StatusConfirmed, "250.00", now.Add(-time.Minute))

	stats, err := service.GetDashboardStats(context.Background())
	assert.NoError(t, err)
	assert.Equal(t, 100.0, stats.RevenueGrowthPct)
}

func TestDashboardService_GrowthBetweenMonths(t *testing.T) {
	repo := repositories.NewInMemoryOrderRepository()
	service := services.NewDashboardService(repo)
	now := time.Now().UTC()
	lastMonth := time.Date(now.Year(), now.Month(), 1, 12, 0, 0, 0, time.UTC).AddDate(0, -1, 0)

	seedOrder(t, repo, 1, models.StatusDelivered, "200.00", lastMonth)
	seedOrder(t, repo, 2, models.StatusConfirmed, "300.00", now.Add(-time.Minute))

	stats, err := service.GetDashboardStats(context.Background())
	assert.NoError(t, err)
	// (300 - 200) / 200 = 50%
	assert.InDelta(t, 50.0, stats.RevenueGrowthPct, 0.0001)
	// Only this month's buyer is a new customer.
	assert.Equal(t, int64(1), stats.NewCustomersThisMonth)
}

func TestDashboardService_MonthlyRevenueIsChronological(t *testing.T) {
	repo := repositories.NewInMemoryOrderRepository()
	service := services.NewDashboardService(repo)
	now := time.Now().UTC()
	thisMonth := time.Date(now.Year(), now.Month(), 1, 12, 0, 0, 0, time.UTC)

	seedOrder(t, repo, 1, models.StatusDelivered, "100.00", thisMonth.AddDate(0, -2, 0))
	seedOrder(t, repo, 1, models.StatusDelivered, "40.00", thisMonth)
	seedOrder(t, repo, 2, models.StatusDelivered, "60.00", thisMonth)
	seedOrder(t, repo, 2, models.StatusCancelled, "999.00", thisMonth.AddDate(0, -1, 0))

	stats, err := service.GetDashboardStats(context.Background())
	assert.NoError(t, err)
	// The cancelled month carries no bucket at all.
	assert.Len(t, stats.MonthlyRevenue, 2)
	assert.True(t, stats.MonthlyRevenue[0].Total.Equal(decimal.RequireFromString("100.00")))
	assert.True(t, stats.MonthlyRevenue[1].Total.Equal(decimal.RequireFromString("100.00")))
	first := time.Date(stats.MonthlyRevenue[0].Year, time.Month(stats.MonthlyRevenue[0].Month), 1, 0, 0, 0, 0, time.UTC)
	second := time.Date(stats.MonthlyRevenue[1].Year, time.Month(stats.MonthlyRevenue[1].Month), 1, 0, 0, 0, 0, time.UTC)
	assert.True(t, first.Before(second))
}

func TestDashboardService_RecentOrdersAreCappedAndNewestFirst(t *testing.T) {
	repo := repositories.NewInMemoryOrderRepository()
	service := services.NewDashboardService(repo)
	now := time.Now().UTC()

	for i := 0; i < 7; i++ {
		seedOrder(t, repo, uint(i+1), models.StatusPending, "10.00", now.Add(-time.Duration(i)*time.Hour))
	}

	stats, err := service.GetDashboardStats(context.Background())
	assert.NoError(t, err)
	assert.Len(t, stats.RecentOrders, 5)
	for i := 1; i < len(stats.RecentOrders); i++ {
		assert.False(t, stats.RecentOrders[i].CreatedAt.After(stats.RecentOrders[i-1].CreatedAt))
	}
}
