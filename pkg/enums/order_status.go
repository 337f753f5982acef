package enums

// OrderStatus tracks an order's lifecycle. Pending to confirmed is the only transition.
type OrderStatus string

const (
	OrderStatusPending   OrderStatus = "pending"
	OrderStatusConfirmed OrderStatus = "confirmed"
)

var orderStatuses = []OrderStatus{OrderStatusPending, OrderStatusConfirmed}

func (o OrderStatus) String() string { return string(o) }

func (o OrderStatus) IsValid() bool { return member(orderStatuses, o) }

// CanTransitionTo reports whether an order in o may move to next.
func (o OrderStatus) CanTransitionTo(next OrderStatus) bool {
	return o == OrderStatusPending && next == OrderStatusConfirmed
}

func ParseOrderStatus(value string) (OrderStatus, error) {
	return parse("order status", orderStatuses, value)
}
