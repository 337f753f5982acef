package orders

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/angelmondragon/pos-backend/internal/stock"
	"github.com/angelmondragon/pos-backend/pkg/audit"
	"github.com/angelmondragon/pos-backend/pkg/db/models"
	"github.com/angelmondragon/pos-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/pos-backend/pkg/errors"
	"github.com/angelmondragon/pos-backend/pkg/logger"
)

// Service drives the order lifecycle: PENDING at creation, CONFIRMED once
// paid and its ingredients are deducted.
type Service interface {
	Create(ctx context.Context, input CreateOrderInput) (*Order, error)
	Confirm(ctx context.Context, input ConfirmOrderInput) (*Order, error)
	List(ctx context.Context, input ListOrdersInput) ([]Order, error)
	Get(ctx context.Context, orderID uuid.UUID) (*Order, error)
}

// ServiceParams wires the order service collaborators. Metrics and Logger are optional.
type ServiceParams struct {
	Repository   Repository
	Tx           txRunner
	Availability AvailabilityChecker
	Stock        StockDeductor
	Audit        auditRecorder
	Metrics      orderMetrics
	Logger       *logger.Logger
}

type service struct {
	repo         Repository
	tx           txRunner
	availability AvailabilityChecker
	stock        StockDeductor
	audit        auditRecorder
	metrics      orderMetrics
	logg         *logger.Logger
	now          func() time.Time
}

// NewService builds an order service with the required dependencies.
func NewService(params ServiceParams) (Service, error) {
	if params.Repository == nil {
		return nil, fmt.Errorf("orders repository required")
	}
	if params.Tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	if params.Availability == nil {
		return nil, fmt.Errorf("availability checker required")
	}
	if params.Stock == nil {
		return nil, fmt.Errorf("stock deductor required")
	}
	if params.Audit == nil {
		return nil, fmt.Errorf("audit recorder required")
	}
	return &service{
		repo:         params.Repository,
		tx:           params.Tx,
		availability: params.Availability,
		stock:        params.Stock,
		audit:        params.Audit,
		metrics:      params.Metrics,
		logg:         params.Logger,
		now:          func() time.Time { return time.Now().UTC() },
	}, nil
}

func validateCreate(input CreateOrderInput) error {
	if len(input.Items) == 0 {
		return pkgerrors.New(pkgerrors.CodeValidation, "order must have at least one item")
	}
	for i, item := range input.Items {
		if item.ProductID == uuid.Nil {
			return pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("items[%d].productId required", i))
		}
		if item.Quantity < 1 {
			return pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("items[%d].quantity must be at least 1", i))
		}
	}
	return nil
}

func (s *service) Create(ctx context.Context, input CreateOrderInput) (*Order, error) {
	if err := validateCreate(input); err != nil {
		return nil, err
	}

	// Distinct products in first-seen order with their summed quantities.
	var productIDs []uuid.UUID
	requested := make(map[uuid.UUID]int64, len(input.Items))
	for _, item := range input.Items {
		if _, ok := requested[item.ProductID]; !ok {
			productIDs = append(productIDs, item.ProductID)
		}
		requested[item.ProductID] += int64(item.Quantity)
	}

	products, err := s.repo.FindActiveProducts(ctx, productIDs)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load products")
	}
	byID := make(map[uuid.UUID]models.Product, len(products))
	for _, p := range products {
		byID[p.ID] = p
	}
	var missing []string
	for _, id := range productIDs {
		if _, ok := byID[id]; !ok {
			missing = append(missing, id.String())
		}
	}
	if len(missing) > 0 {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "one or more products not found or inactive").WithDetails(map[string]any{
			"productIds": missing,
		})
	}

	for _, id := range productIDs {
		ok, err := s.availability.CanFulfill(ctx, id, requested[id])
		if err != nil {
			return nil, err
		}
		if !ok {
			product := byID[id]
			return nil, pkgerrors.New(pkgerrors.CodeInsufficientStock,
				fmt.Sprintf("insufficient stock for %s (requested: %d)", product.Name, requested[id]),
			).WithDetails(map[string]any{
				"productId":   id,
				"productName": product.Name,
				"requested":   requested[id],
			})
		}
	}

	order := &models.Order{
		UserID: input.ActorUserID,
		Status: enums.OrderStatusPending,
		Items:  make([]models.OrderItem, 0, len(input.Items)),
	}
	total := decimal.Zero
	for i, item := range input.Items {
		product := byID[item.ProductID]
		order.Items = append(order.Items, models.OrderItem{
			LineNo:      i + 1,
			ProductID:   product.ID,
			ProductName: product.Name,
			Quantity:    item.Quantity,
			UnitPrice:   product.Price,
		})
		total = total.Add(product.Price.Mul(decimal.NewFromInt(int64(item.Quantity))))
	}
	order.TotalAmount = total

	if err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		if err := s.repo.WithTx(tx).CreateOrder(ctx, order); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create order")
		}
		return nil
	}); err != nil {
		return nil, err
	}

	s.audit.Record(ctx, audit.Entry{
		ActorUserID:  audit.Actor(input.ActorUserID),
		Action:       enums.AuditActionOrderCreated,
		ResourceType: audit.ResourceOrder,
		ResourceID:   order.ID.String(),
		Metadata: map[string]any{
			"itemCount":   len(order.Items),
			"totalAmount": total.StringFixed(2),
		},
	})
	if s.metrics != nil {
		s.metrics.IncOrderCreated()
	}
	if s.logg != nil {
		s.logg.Info(s.logg.WithOrderID(ctx, order.ID.String()), "order created")
	}
	return orderFromModel(order), nil
}

func (s *service) Confirm(ctx context.Context, input ConfirmOrderInput) (*Order, error) {
	if input.OrderID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "order id required")
	}
	if !input.PaymentMethod.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("invalid payment method %q", input.PaymentMethod))
	}

	var (
		confirmed *models.Order
		sale      stock.SaleInput
		movements []models.StockMovement
	)
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)

		current, err := repo.FindOrder(ctx, input.OrderID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load order")
		}
		if !current.Status.CanTransitionTo(enums.OrderStatusConfirmed) {
			return notPending(current.Status)
		}

		claimed, err := repo.ClaimPending(ctx, input.OrderID, input.PaymentMethod, s.now())
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "confirm order")
		}
		if !claimed {
			return notPending(enums.OrderStatusConfirmed)
		}

		deductions, err := repo.IngredientDeductions(ctx, input.OrderID)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "compute ingredient deductions")
		}
		sale = stock.SaleInput{
			OrderID:     input.OrderID,
			ActorUserID: input.ActorUserID,
			Deductions:  deductions,
		}
		movements, err = s.stock.DeductForSale(ctx, tx, sale)
		if err != nil {
			return err
		}

		confirmed, err = repo.FindOrder(ctx, input.OrderID)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "reload order")
		}
		return nil
	})
	if err != nil {
		s.confirmFailed(ctx, input.OrderID, err)
		return nil, err
	}

	s.stock.SaleCommitted(ctx, sale, movements)
	s.audit.Record(ctx, audit.Entry{
		ActorUserID:  audit.Actor(input.ActorUserID),
		Action:       enums.AuditActionOrderConfirmed,
		ResourceType: audit.ResourceOrder,
		ResourceID:   input.OrderID.String(),
		Metadata: map[string]any{
			"paymentMethod": input.PaymentMethod,
			"totalAmount":   confirmed.TotalAmount.StringFixed(2),
		},
	})
	if s.metrics != nil {
		s.metrics.IncOrderConfirmed(input.PaymentMethod.String())
	}
	if s.logg != nil {
		s.logg.Info(s.logg.WithOrderID(ctx, input.OrderID.String()), "order confirmed")
	}
	return orderFromModel(confirmed), nil
}

func notPending(status enums.OrderStatus) error {
	return pkgerrors.New(pkgerrors.CodeStateConflict, "order is not pending").WithDetails(map[string]any{
		"status": status,
	})
}

func (s *service) confirmFailed(ctx context.Context, orderID uuid.UUID, err error) {
	reason := "internal"
	if typed := pkgerrors.As(err); typed != nil {
		reason = strings.ToLower(string(typed.Code()))
	}
	if s.metrics != nil {
		s.metrics.IncConfirmFailure(reason)
	}
	if s.logg != nil {
		s.logg.Warn(s.logg.WithFields(ctx, map[string]any{
			"order_id": orderID.String(),
			"reason":   reason,
		}), "order confirmation rejected")
	}
}

func (s *service) List(ctx context.Context, input ListOrdersInput) ([]Order, error) {
	if input.Status != nil && !input.Status.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("invalid order status %q", *input.Status))
	}
	filters := ListFilters{Status: input.Status, Limit: input.Limit}
	if filters.Limit <= 0 || filters.Limit > MaxListLimit {
		filters.Limit = MaxListLimit
	}
	if !input.ActorRole.IsPrivileged() {
		if input.ActorUserID == uuid.Nil {
			return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "user identity missing")
		}
		userID := input.ActorUserID
		filters.UserID = &userID
	}

	rows, err := s.repo.ListOrders(ctx, filters)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list orders")
	}
	out := make([]Order, 0, len(rows))
	for i := range rows {
		out = append(out, *orderFromModel(&rows[i]))
	}
	return out, nil
}

func (s *service) Get(ctx context.Context, orderID uuid.UUID) (*Order, error) {
	if orderID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "order id required")
	}
	order, err := s.repo.FindOrder(ctx, orderID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load order")
	}
	return orderFromModel(order), nil
}
