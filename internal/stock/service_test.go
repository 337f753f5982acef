package stock

import (
	"context"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/angelmondragon/pos-backend/pkg/audit"
	"github.com/angelmondragon/pos-backend/pkg/db"
	"github.com/angelmondragon/pos-backend/pkg/db/dbtest"
	"github.com/angelmondragon/pos-backend/pkg/db/models"
	"github.com/angelmondragon/pos-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/pos-backend/pkg/errors"
)

type recordedAudit struct {
	mu      sync.Mutex
	entries []audit.Entry
}

func (r *recordedAudit) Record(_ context.Context, entry audit.Entry) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.entries = append(r.entries, entry)
}

func (r *recordedAudit) actions() []enums.AuditAction {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]enums.AuditAction, 0, len(r.entries))
	for _, e := range r.entries {
		out = append(out, e.Action)
	}
	return out
}

type countingMetrics struct {
	byType map[string]int
}

func (c *countingMetrics) AddStockMovements(movementType string, n int) {
	if c.byType == nil {
		c.byType = map[string]int{}
	}
	c.byType[movementType] += n
}

type fixture struct {
	svc     Service
	client  *db.Client
	conn    *gorm.DB
	audit   *recordedAudit
	metrics *countingMetrics
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	client, conn := dbtest.Client(t)
	rec := &recordedAudit{}
	metrics := &countingMetrics{}
	svc, err := NewService(ServiceParams{
		Repository: NewRepository(conn),
		Tx:         client,
		Audit:      rec,
		Metrics:    metrics,
	})
	require.NoError(t, err)
	return &fixture{svc: svc, client: client, conn: conn, audit: rec, metrics: metrics}
}

func grams(v int64) decimal.Decimal { return decimal.NewFromInt(v) }

func strPtr(v string) *string { return &v }

func requireCode(t *testing.T, err error, code pkgerrors.Code) *pkgerrors.Error {
	t.Helper()
	require.Error(t, err)
	typed := pkgerrors.As(err)
	require.NotNil(t, typed, "expected coded error, got %v", err)
	require.Equal(t, code, typed.Code(), "unexpected error %v", err)
	return typed
}

func TestNewServiceRequiresDependencies(t *testing.T) {
	_, err := NewService(ServiceParams{})
	require.Error(t, err)

	_, err = NewService(ServiceParams{Repository: NewRepository(nil)})
	require.Error(t, err)
}

func TestDeliveryThenSaleLeavesBalanceAndHistory(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	actor := uuid.New()
	chicken := dbtest.MustCreateIngredient(t, f.conn, "Chicken", 0)

	added, err := f.svc.AddStock(ctx, AddStockInput{IngredientID: chicken.ID, QuantityGrams: grams(6000), ActorUserID: actor})
	require.NoError(t, err)
	require.True(t, added.BalanceGrams.Equal(grams(6000)))
	require.NotEqual(t, uuid.Nil, added.Movement.ID)

	sold, err := f.svc.RecordMovement(ctx, RecordMovementInput{
		IngredientID: chicken.ID,
		Type:         enums.StockMovementSale,
		DeltaGrams:   grams(-300),
		Reference:    strPtr("O1"),
		ActorUserID:  actor,
	})
	require.NoError(t, err)
	require.True(t, sold.BalanceGrams.Equal(grams(5700)))

	qty, err := f.svc.CurrentQuantity(ctx, chicken.ID)
	require.NoError(t, err)
	require.True(t, qty.Equal(grams(5700)), "got %s", qty)

	page, err := f.svc.ListMovements(ctx, MovementQuery{IngredientID: &chicken.ID})
	require.NoError(t, err)
	require.Len(t, page.Items, 2)
	require.Empty(t, page.NextCursor)
	require.Equal(t, enums.StockMovementSale, page.Items[0].Type)
	require.True(t, page.Items[0].QuantityGrams.Equal(grams(-300)))
	require.NotNil(t, page.Items[0].Reference)
	require.Equal(t, "O1", *page.Items[0].Reference)
	require.Equal(t, enums.StockMovementDelivery, page.Items[1].Type)
	require.True(t, page.Items[1].QuantityGrams.Equal(grams(6000)))

	rec, err := f.svc.Reconcile(ctx, chicken.ID)
	require.NoError(t, err)
	require.True(t, rec.Balanced)
	require.Equal(t, int64(2), rec.MovementCount)
	require.True(t, rec.LedgerSumGrams.Equal(grams(5700)))

	require.Equal(t, []enums.AuditAction{enums.AuditActionStockAdd, enums.AuditActionStockDeduct}, f.audit.actions())
	require.Equal(t, 1, f.metrics.byType["DELIVERY"])
	require.Equal(t, 1, f.metrics.byType["SALE"])
}

func TestAdjustBelowZeroIsRejected(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	flour := dbtest.MustCreateIngredient(t, f.conn, "Flour", 0)

	_, err := f.svc.AddStock(ctx, AddStockInput{IngredientID: flour.ID, QuantityGrams: grams(500)})
	require.NoError(t, err)

	_, err = f.svc.AdjustStock(ctx, AdjustStockInput{IngredientID: flour.ID, DeltaGrams: grams(-501), Note: strPtr("spill")})
	typed := requireCode(t, err, pkgerrors.CodeStateConflict)
	require.NotNil(t, typed.Details())

	qty, err := f.svc.CurrentQuantity(ctx, flour.ID)
	require.NoError(t, err)
	require.True(t, qty.Equal(grams(500)))

	page, err := f.svc.ListMovements(ctx, MovementQuery{IngredientID: &flour.ID})
	require.NoError(t, err)
	require.Len(t, page.Items, 1)

	res, err := f.svc.AdjustStock(ctx, AdjustStockInput{IngredientID: flour.ID, DeltaGrams: grams(-500), Note: strPtr("  counted  ")})
	require.NoError(t, err)
	require.True(t, res.BalanceGrams.IsZero())
	require.Equal(t, "counted", *res.Movement.Note)
	require.Equal(t, enums.AuditActionStockAdjust, f.audit.actions()[1])
}

func TestUnknownIngredientIsNotFound(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	missing := uuid.New()

	_, err := f.svc.AdjustStock(ctx, AdjustStockInput{IngredientID: missing, DeltaGrams: grams(10)})
	requireCode(t, err, pkgerrors.CodeNotFound)

	_, err = f.svc.CurrentQuantity(ctx, missing)
	requireCode(t, err, pkgerrors.CodeNotFound)

	_, err = f.svc.Reconcile(ctx, missing)
	requireCode(t, err, pkgerrors.CodeNotFound)

	require.Empty(t, f.audit.actions())
}

func TestRecordMovementValidation(t *testing.T) {
	f := newFixture(t)
	ingredient := dbtest.MustCreateIngredient(t, f.conn, "Salt", 100)

	tests := []struct {
		name  string
		input RecordMovementInput
	}{
		{"missing ingredient", RecordMovementInput{Type: enums.StockMovementAdjustment, DeltaGrams: grams(1)}},
		{"unknown type", RecordMovementInput{IngredientID: ingredient.ID, Type: "GIFT", DeltaGrams: grams(1)}},
		{"zero delta", RecordMovementInput{IngredientID: ingredient.ID, Type: enums.StockMovementAdjustment, DeltaGrams: decimal.Zero}},
		{"negative delivery", RecordMovementInput{IngredientID: ingredient.ID, Type: enums.StockMovementDelivery, DeltaGrams: grams(-5)}},
		{"positive sale", RecordMovementInput{IngredientID: ingredient.ID, Type: enums.StockMovementSale, DeltaGrams: grams(5), Reference: strPtr("O1")}},
		{"sale without reference", RecordMovementInput{IngredientID: ingredient.ID, Type: enums.StockMovementSale, DeltaGrams: grams(-5), Reference: strPtr("  ")}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.svc.RecordMovement(context.Background(), tt.input)
			requireCode(t, err, pkgerrors.CodeValidation)
		})
	}

	_, err := f.svc.AddStock(context.Background(), AddStockInput{IngredientID: ingredient.ID, QuantityGrams: grams(0)})
	requireCode(t, err, pkgerrors.CodeValidation)
}

func TestListBelowThresholdIsStrictAndAscending(t *testing.T) {
	f := newFixture(t)
	dbtest.MustCreateIngredient(t, f.conn, "Basil", 999)
	dbtest.MustCreateIngredient(t, f.conn, "Cheese", 1000)
	dbtest.MustCreateIngredient(t, f.conn, "Dough", 50)
	dbtest.MustCreateIngredient(t, f.conn, "Eggs", 500)

	levels, err := f.svc.ListBelowThreshold(context.Background(), grams(1000))
	require.NoError(t, err)
	require.Len(t, levels, 3)
	require.Equal(t, "Dough", levels[0].IngredientName)
	require.Equal(t, "Eggs", levels[1].IngredientName)
	require.Equal(t, "Basil", levels[2].IngredientName)

	_, err = f.svc.ListBelowThreshold(context.Background(), grams(-1))
	requireCode(t, err, pkgerrors.CodeValidation)

	all, err := f.svc.ListStock(context.Background())
	require.NoError(t, err)
	require.Len(t, all, 4)
	require.Equal(t, "Basil", all[0].IngredientName)
}

func TestListMovementsPagesNewestFirst(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	oil := dbtest.MustCreateIngredient(t, f.conn, "Oil", 0)
	other := dbtest.MustCreateIngredient(t, f.conn, "Vinegar", 0)

	for i := 1; i <= 5; i++ {
		_, err := f.svc.AddStock(ctx, AddStockInput{IngredientID: oil.ID, QuantityGrams: grams(int64(i))})
		require.NoError(t, err)
	}
	_, err := f.svc.AddStock(ctx, AddStockInput{IngredientID: other.ID, QuantityGrams: grams(99)})
	require.NoError(t, err)

	var seen []decimal.Decimal
	cursor := ""
	for pages := 0; pages < 5; pages++ {
		page, err := f.svc.ListMovements(ctx, MovementQuery{IngredientID: &oil.ID, Limit: 2, Cursor: cursor})
		require.NoError(t, err)
		require.LessOrEqual(t, len(page.Items), 2)
		for _, item := range page.Items {
			seen = append(seen, item.QuantityGrams)
		}
		if page.NextCursor == "" {
			break
		}
		cursor = page.NextCursor
	}
	require.Len(t, seen, 5)
	for i, q := range seen {
		require.True(t, q.Equal(grams(int64(5-i))), "position %d got %s", i, q)
	}

	everything, err := f.svc.ListMovements(ctx, MovementQuery{Limit: 1000})
	require.NoError(t, err)
	require.Len(t, everything.Items, 6)
	require.True(t, everything.Items[0].QuantityGrams.Equal(grams(99)))

	_, err = f.svc.ListMovements(ctx, MovementQuery{Cursor: "%%%"})
	requireCode(t, err, pkgerrors.CodeValidation)
}

func TestDeductForSaleRollsBackOnShortfall(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	rice := dbtest.MustCreateIngredient(t, f.conn, "Rice", 1000)
	saffron := dbtest.MustCreateIngredient(t, f.conn, "Saffron", 100)
	orderID := uuid.New()

	err := f.client.WithTx(ctx, func(tx *gorm.DB) error {
		_, err := f.svc.DeductForSale(ctx, tx, SaleInput{
			OrderID: orderID,
			Deductions: []Deduction{
				{IngredientID: rice.ID, Grams: grams(500)},
				{IngredientID: saffron.ID, Grams: grams(200)},
			},
		})
		return err
	})
	typed := requireCode(t, err, pkgerrors.CodeInsufficientStock)
	require.Contains(t, typed.Message(), "Saffron")

	qty, err := f.svc.CurrentQuantity(ctx, rice.ID)
	require.NoError(t, err)
	require.True(t, qty.Equal(grams(1000)), "rice should be untouched, got %s", qty)

	var count int64
	require.NoError(t, f.conn.Model(&models.StockMovement{}).Count(&count).Error)
	require.Zero(t, count)
}

func TestDeductForSaleMergesDuplicateIngredients(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	tomato := dbtest.MustCreateIngredient(t, f.conn, "Tomato", 1000)
	orderID := uuid.New()
	input := SaleInput{
		OrderID:     orderID,
		ActorUserID: uuid.New(),
		Deductions: []Deduction{
			{IngredientID: tomato.ID, Grams: grams(150)},
			{IngredientID: tomato.ID, Grams: grams(250)},
			{IngredientID: uuid.New(), Grams: decimal.Zero},
		},
	}

	var movements []models.StockMovement
	err := f.client.WithTx(ctx, func(tx *gorm.DB) error {
		var err error
		movements, err = f.svc.DeductForSale(ctx, tx, input)
		return err
	})
	require.NoError(t, err)
	require.Len(t, movements, 1)
	require.True(t, movements[0].QuantityGrams.Equal(grams(-400)))
	require.Equal(t, orderID.String(), *movements[0].Reference)
	require.NotEqual(t, uuid.Nil, movements[0].ID)

	f.svc.SaleCommitted(ctx, input, movements)
	require.Equal(t, []enums.AuditAction{enums.AuditActionStockDeduct}, f.audit.actions())
	require.Equal(t, 1, f.metrics.byType["SALE"])

	qty, err := f.svc.CurrentQuantity(ctx, tomato.ID)
	require.NoError(t, err)
	require.True(t, qty.Equal(grams(600)))

	_, err = f.svc.DeductForSale(ctx, nil, input)
	requireCode(t, err, pkgerrors.CodeInternal)
}

func TestMergeDeductionsSortsByIngredientID(t *testing.T) {
	a := uuid.MustParse("00000000-0000-0000-0000-00000000000a")
	b := uuid.MustParse("00000000-0000-0000-0000-00000000000b")
	out := mergeDeductions([]Deduction{
		{IngredientID: b, Grams: grams(1)},
		{IngredientID: a, Grams: grams(2)},
		{IngredientID: b, Grams: grams(3)},
		{IngredientID: a, Grams: grams(-1)},
	})
	require.Len(t, out, 2)
	require.Equal(t, a, out[0].IngredientID)
	require.True(t, out[0].Grams.Equal(grams(2)))
	require.Equal(t, b, out[1].IngredientID)
	require.True(t, out[1].Grams.Equal(grams(4)))
}

func TestListStockOrdersByIngredientName(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	dbtest.MustCreateIngredient(t, f.conn, "Tomatoes", 800)
	dbtest.MustCreateIngredient(t, f.conn, "Basil", 40)

	levels, err := f.svc.ListStock(ctx)
	require.NoError(t, err)
	require.Len(t, levels, 2)
	require.Equal(t, "Basil", levels[0].IngredientName)
	require.True(t, levels[0].QuantityGrams.Equal(grams(40)))
	require.Equal(t, "Tomatoes", levels[1].IngredientName)
}

// interleavingRepo commits a stock write right before each ledger read, the
// way a concurrent delivery would.
type interleavingRepo struct {
	Repository
	write func()
}

func (r *interleavingRepo) FindByIngredient(ctx context.Context, ingredientID uuid.UUID) (*models.Stock, error) {
	r.write()
	return r.Repository.FindByIngredient(ctx, ingredientID)
}

func (r *interleavingRepo) LedgerSnapshot(ctx context.Context, ingredientID uuid.UUID) (*LedgerSnapshot, error) {
	r.write()
	return r.Repository.LedgerSnapshot(ctx, ingredientID)
}

func TestReconcileIsNotTornByConcurrentMovement(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	chicken := dbtest.MustCreateIngredient(t, f.conn, "Chicken", 0)
	_, err := f.svc.AddStock(ctx, AddStockInput{IngredientID: chicken.ID, QuantityGrams: grams(6000)})
	require.NoError(t, err)

	repo := &interleavingRepo{
		Repository: NewRepository(f.conn),
		write: func() {
			_, err := f.svc.AddStock(ctx, AddStockInput{IngredientID: chicken.ID, QuantityGrams: grams(500)})
			require.NoError(t, err)
		},
	}
	svc, err := NewService(ServiceParams{Repository: repo, Tx: f.client, Audit: &recordedAudit{}})
	require.NoError(t, err)

	rec, err := svc.Reconcile(ctx, chicken.ID)
	require.NoError(t, err)
	require.True(t, rec.Balanced, "quantity=%s ledger=%s", rec.QuantityGrams, rec.LedgerSumGrams)
	require.True(t, rec.QuantityGrams.Equal(rec.LedgerSumGrams))
	require.Equal(t, rec.MovementCount, int64(len(mustMovements(t, f, chicken.ID))))
}

func TestReconcileUnknownIngredientIsNotFound(t *testing.T) {
	f := newFixture(t)
	_, err := f.svc.Reconcile(context.Background(), uuid.New())
	requireCode(t, err, pkgerrors.CodeNotFound)
}

func mustMovements(t *testing.T, f *fixture, ingredientID uuid.UUID) []Movement {
	t.Helper()
	page, err := f.svc.ListMovements(context.Background(), MovementQuery{IngredientID: &ingredientID, Limit: 100})
	require.NoError(t, err)
	return page.Items
}
