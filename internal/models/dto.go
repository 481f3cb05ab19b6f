package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// OrderItemRequest is one requested line of a new order.
type OrderItemRequest struct {
	ProductID uint   `json:"product_id" validate:"required"`
	Quantity  int    `json:"quantity" validate:"required,gte=1"`
	Note      string `json:"note" validate:"omitempty,max=500"`
}

// OrderCreateRequest carries the shipping snapshot and requested lines for a
// new order. PaymentMethod is optional and defaults to COD.
type OrderCreateRequest struct {
	CustomerName    string             `json:"customer_name" validate:"required,max=255"`
	ShippingAddress string             `json:"shipping_address" validate:"required,max=500"`
	PhoneNumber     string             `json:"phone_number" validate:"required,max=20"`
	Note            string             `json:"note" validate:"omitempty,max=1000"`
	PaymentMethod   string             `json:"payment_method" validate:"omitempty,max=50"`
	Items           []OrderItemRequest `json:"items" validate:"required,min=1,dive"`
}

// OrderStatusUpdateRequest is the admin request to move an order to a new
// status.
type OrderStatusUpdateRequest struct {
	Status string `json:"status" validate:"required"`
}

// OrderItemView is the response shape of a single order line.
type OrderItemView struct {
	ID          uint            `json:"id"`
	ProductID   uint            `json:"product_id"`
	ProductName string          `json:"product_name"`
	Quantity    int             `json:"quantity"`
	Price       decimal.Decimal `json:"price"`
}

// OrderView is the response shape of an order. Timestamps are UTC.
type OrderView struct {
	ID          uint            `json:"id"`
	UserID      uint            `json:"user_id"`
	Status      string          `json:"status"`
	TotalAmount decimal.Decimal `json:"total_amount"`
	Items       []OrderItemView `json:"items"`
	CreatedAt   time.Time       `json:"created_at"`
	UpdatedAt   time.Time       `json:"updated_at"`
}

// NewOrderView maps a persisted order to its response shape.
func NewOrderView(order *Order) OrderView {
	items := make([]OrderItemView, 0, len(order.Items))
	for _, item := range order.Items {
		items = append(items, OrderItemView{
			ID:          item.ID,
			ProductID:   item.ProductID,
			ProductName: item.ProductName,
			Quantity:    item.Quantity,
			Price:       item.Price,
		})
	}
	return OrderView{
		ID:          order.ID,
		UserID:      order.UserID,
		Status:      string(order.Status),
		TotalAmount: order.TotalAmount,
		Items:       items,
		CreatedAt:   order.CreatedAt.UTC(),
		UpdatedAt:   order.UpdatedAt.UTC(),
	}
}

// OrderPage is an offset-paginated listing of orders.
type OrderPage struct {
	Items      []OrderView `json:"items"`
	Page       int         `json:"page"`
	Size       int         `json:"size"`
	TotalItems int64       `json:"total_items"`
	TotalPages int         `json:"total_pages"`
}

// NewOrderPage builds the page envelope for a slice of orders.
func NewOrderPage(orders []Order, page, size int, totalItems int64) OrderPage {
	views := make([]OrderView, 0, len(orders))
	for i := range orders {
		views = append(views, NewOrderView(&orders[i]))
	}
	totalPages := 0
	if size > 0 {
		totalPages = int((totalItems + int64(size) - 1) / int64(size))
	}
	return OrderPage{
		Items:      views,
		Page:       page,
		Size:       size,
		TotalItems: totalItems,
		TotalPages: totalPages,
	}
}

// MonthlyRevenue is the non-cancelled revenue of one calendar month.
type MonthlyRevenue struct {
	Year  int             `json:"year"`
	Month int             `json:"month"`
	Total decimal.Decimal `json:"total"`
}

// DashboardStats aggregates order history for the admin dashboard.
type DashboardStats struct {
	TotalRevenue          decimal.Decimal  `json:"total_revenue"`
	RevenueGrowthPct      float64          `json:"revenue_growth_pct"`
	TotalOrders           int64            `json:"total_orders"`
	NewCustomersThisMonth int64            `json:"new_customers_this_month"`
	MonthlyRevenue        []MonthlyRevenue `json:"monthly_revenue"`
	RecentOrders          []OrderView      `json:"recent_orders"`
}
