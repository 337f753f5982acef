package enums

// StockMovementType classifies a ledger entry against an ingredient's stock.
type StockMovementType string

const (
	StockMovementDelivery   StockMovementType = "DELIVERY"
	StockMovementAdjustment StockMovementType = "ADJUSTMENT"
	StockMovementSale       StockMovementType = "SALE"
)

var stockMovementTypes = []StockMovementType{
	StockMovementDelivery,
	StockMovementAdjustment,
	StockMovementSale,
}

func (s StockMovementType) String() string { return string(s) }

func (s StockMovementType) IsValid() bool { return member(stockMovementTypes, s) }

func ParseStockMovementType(value string) (StockMovementType, error) {
	return parse("stock movement type", stockMovementTypes, value)
}
