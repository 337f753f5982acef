package enums

// AuditAction names an audited mutation.
type AuditAction string

const (
	AuditActionStockAdd       AuditAction = "STOCK_ADD"
	AuditActionStockAdjust    AuditAction = "STOCK_ADJUST"
	AuditActionStockDeduct    AuditAction = "STOCK_DEDUCT"
	AuditActionOrderCreated   AuditAction = "ORDER_CREATED"
	AuditActionOrderConfirmed AuditAction = "ORDER_CONFIRMED"
)

var auditActions = []AuditAction{
	AuditActionStockAdd,
	AuditActionStockAdjust,
	AuditActionStockDeduct,
	AuditActionOrderCreated,
	AuditActionOrderConfirmed,
}

func (a AuditAction) String() string { return string(a) }

func (a AuditAction) IsValid() bool { return member(auditActions, a) }

func ParseAuditAction(value string) (AuditAction, error) {
	return parse("audit action", auditActions, value)
}
