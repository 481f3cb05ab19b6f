package services

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"ordersvc/internal/apperrors"
	"ordersvc/internal/clients"
	"ordersvc/internal/models"
	"ordersvc/internal/notifier"
	"ordersvc/internal/repositories"

	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"
)

// statusUpdateRetries bounds how often a lost conditional write is re-read
// and re-evaluated before giving up.
const statusUpdateRetries = 3

// OrderService orchestrates order creation, the status lifecycle and the
// query surface. It is the only writer of order state.
type OrderService struct {
	orders   repositories.OrderRepository
	identity clients.IdentityClient
	catalog  clients.CatalogClient
	notifier notifier.Notifier
}

// NewOrderService creates a new OrderService. The notifier may be nil, in
// which case events are skipped.
func NewOrderService(orders repositories.OrderRepository, identity clients.IdentityClient, catalog clients.CatalogClient, n notifier.Notifier) *OrderService {
	return &OrderService{
		orders:   orders,
		identity: identity,
		catalog:  catalog,
		notifier: n,
	}
}

// CreateOrder validates the request, resolves the caller and the requested
// products, computes the immutable total, persists the aggregate atomically
// and emits a best-effort creation event.
func (s *OrderService) CreateOrder(ctx context.Context, req *models.OrderCreateRequest, bearerToken string) (*models.OrderView, error) {
	if strings.TrimSpace(bearerToken) == "" {
		return nil, fmt.Errorf("%w: missing bearer credential", apperrors.ErrUnauthenticated)
	}
	if len(req.Items) == 0 {
		return nil, fmt.Errorf("%w: an order must have at least one item", apperrors.ErrInvalidRequest)
	}

	productIDs := dedupeProductIDs(req.Items)

	// The identity and catalog lookups are independent reads; issue them
	// concurrently and gate everything after on their joint completion.
	var (
		user     *clients.User
		products []clients.Product
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		resolved, err := s.identity.ResolveCaller(gctx, bearerToken)
		if err != nil {
			return err
		}
		user = resolved
		return nil
	})
	g.Go(func() error {
		resolved, err := s.catalog.ResolveProducts(gctx, productIDs, bearerToken)
		if err != nil {
			return err
		}
		products = resolved
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	if user == nil || user.ID == 0 {
		return nil, fmt.Errorf("%w: could not resolve caller identity", apperrors.ErrUnauthenticated)
	}

	// Every requested id must resolve to exactly one product; a mismatch
	// aborts before any write.
	if len(products) != len(productIDs) {
		return nil, fmt.Errorf("%w: some products could not be resolved", apperrors.ErrInvalidRequest)
	}
	productByID := make(map[uint]clients.Product, len(products))
	for _, product := range products {
		productByID[product.ID] = product
	}
	for _, id := range productIDs {
		if _, ok := productByID[id]; !ok {
			return nil, fmt.Errorf("%w: some products could not be resolved", apperrors.ErrInvalidRequest)
		}
	}

	paymentMethod := strings.ToUpper(strings.TrimSpace(req.PaymentMethod))
	if paymentMethod == "" {
		paymentMethod = models.PaymentMethodCOD
	}
	paymentStatus := models.PaymentStatusPaid
	if paymentMethod == models.PaymentMethodCOD {
		paymentStatus = models.PaymentStatusUnpaid
	}

	totalAmount := decimal.Zero
	items := make([]models.OrderItem, 0, len(req.Items))
	for _, line := range req.Items {
		if line.Quantity <= 0 {
			return nil, fmt.Errorf("%w: item quantity must be greater than zero", apperrors.ErrInvalidRequest)
		}
		product := productByID[line.ProductID]
		items = append(items, models.OrderItem{
			ProductID:    product.ID,
			ProductName:  product.Name,
			ProductImage: product.Image,
			Price:        product.Price,
			Quantity:     line.Quantity,
			Note:         line.Note,
		})
		totalAmount = totalAmount.Add(product.Price.Mul(decimal.NewFromInt(int64(line.Quantity))))
	}

	order := &models.Order{
		UserID:          user.ID,
		CustomerName:    req.CustomerName,
		ShippingAddress: req.ShippingAddress,
		PhoneNumber:     req.PhoneNumber,
		Note:            req.Note,
		Status:          models.StatusPending,
		PaymentMethod:   paymentMethod,
		PaymentStatus:   paymentStatus,
		TotalAmount:     totalAmount,
		Items:           items,
	}

	if err := s.orders.Create(ctx, order); err != nil {
		return nil, fmt.Errorf("failed to create order: %w", err)
	}
	log.Printf("Created order %d for user %d (total %s)", order.ID, order.UserID, order.TotalAmount)

	s.notifyAsync(order)

	view := models.NewOrderView(order)
	return &view, nil
}

// GetOwnedOrders lists the caller's orders newest-first.
func (s *OrderService) GetOwnedOrders(ctx context.Context, bearerToken string, params repositories.ListParams) (*models.OrderPage, error) {
	user, err := s.identity.ResolveCaller(ctx, bearerToken)
	if err != nil {
		return nil, err
	}
	orders, total, err := s.orders.FindByUserID(ctx, user.ID, params)
	if err != nil {
		return nil, err
	}
	page := models.NewOrderPage(orders, params.Page, params.Size, total)
	return &page, nil
}

// GetOrderByID returns one of the caller's orders. An order belonging to
// another user is reported as not found.
func (s *OrderService) GetOrderByID(ctx context.Context, orderID uint, bearerToken string) (*models.OrderView, error) {
	user, err := s.identity.ResolveCaller(ctx, bearerToken)
	if err != nil {
		return nil, err
	}
	order, err := s.orders.GetByIDAndUserID(ctx, orderID, user.ID)
	if err != nil {
		return nil, err
	}
	view := models.NewOrderView(order)
	return &view, nil
}

// GetAllOrders lists all orders newest-first. Authorization is enforced by
// the API layer.
func (s *OrderService) GetAllOrders(ctx context.Context, params repositories.ListParams) (*models.OrderPage, error) {
	orders, total, err := s.orders.FindAll(ctx, params)
	if err != nil {
		return nil, err
	}
	page := models.NewOrderPage(orders, params.Page, params.Size, total)
	return &page, nil
}

// UpdateOrderStatus moves an order through its lifecycle. The write is
// conditional on the previously read status; a lost race is re-read and
// re-evaluated against the new current state.
func (s *OrderService) UpdateOrderStatus(ctx context.Context, orderID uint, requestedStatus string) (*models.OrderView, error) {
	target, err := models.ParseOrderStatus(requestedStatus)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", apperrors.ErrInvalidRequest, err)
	}

	for attempt := 0; attempt < statusUpdateRetries; attempt++ {
		order, err := s.orders.GetByID(ctx, orderID)
		if err != nil {
			return nil, err
		}

		if order.Status != target {
			if order.Status.IsTerminal() {
				return nil, fmt.Errorf("%w: cannot modify a completed order", apperrors.ErrInvalidState)
			}
			if !order.Status.CanTransitionTo(target) {
				return nil, fmt.Errorf("%w: %s cannot transition to %s", apperrors.ErrInvalidState, order.Status, target)
			}
		}

		err = s.orders.UpdateStatus(ctx, orderID, order.Status, target)
		if errors.Is(err, repositories.ErrStatusConflict) {
			log.Printf("Lost status race on order %d, re-evaluating", orderID)
			continue
		}
		if err != nil {
			return nil, err
		}

		log.Printf("Order %d status: %s -> %s", orderID, order.Status, target)
		order.Status = target
		order.UpdatedAt = time.Now().UTC()

		s.notifyAsync(order)

		view := models.NewOrderView(order)
		return &view, nil
	}
	return nil, fmt.Errorf("too many concurrent modifications of order %d", orderID)
}

// notifyAsync dispatches an order event without blocking the caller. A
// delivery failure is logged and suppressed; it never surfaces to the caller
// or rolls anything back.
func (s *OrderService) notifyAsync(order *models.Order) {
	if s.notifier == nil {
		log.Println("Notifier is not configured, skipping order event")
		return
	}
	event := notifier.NewOrderEvent(order)
	go func() {
		defer func() {
			if r := recover(); r != nil {
				log.Printf("Panic while publishing order event %s: %v", event.EventID, r)
			}
		}()
		if err := s.notifier.NotifyOrderEvent(event); err != nil {
			log.Printf("Warning: failed to publish event for order %d: %v", event.OrderID, err)
		}
	}()
}

func dedupeProductIDs(items []models.OrderItemRequest) []uint {
	seen := make(map[uint]struct{}, len(items))
	ids := make([]uint, 0, len(items))
	for _, item := range items {
		if _, ok := seen[item.ProductID]; ok {
			continue
		}
		seen[item.ProductID] = struct{}{}
		ids = append(ids, item.ProductID)
	}
	return ids
}
