package availability

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/angelmondragon/pos-backend/pkg/db/dbtest"
	pkgerrors "github.com/angelmondragon/pos-backend/pkg/errors"
)

func req(required, stock string) Requirement {
	return Requirement{
		RequiredGrams: decimal.RequireFromString(required),
		StockGrams:    decimal.RequireFromString(stock),
	}
}

func TestCompute(t *testing.T) {
	tests := []struct {
		name string
		reqs []Requirement
		want int64
	}{
		{"no components", nil, 0},
		{"single component floors", []Requirement{req("200", "3100")}, 15},
		{"minimum wins", []Requirement{req("200", "3000"), req("100", "1200")}, 12},
		{"missing stock", []Requirement{req("200", "3000"), req("50", "0")}, 0},
		{"non-positive requirements ignored", []Requirement{req("0", "0"), req("-5", "10"), req("10", "95")}, 9},
		{"only non-positive requirements", []Requirement{req("0", "100")}, 0},
		{"fractional grams", []Requirement{req("0.5", "2.75")}, 5},
		{"insufficient for one", []Requirement{req("300", "299.999")}, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.Equal(t, tt.want, Compute(tt.reqs))
		})
	}
}

func newService(t *testing.T) (Service, *fixtures) {
	t.Helper()
	conn := dbtest.Open(t)
	svc, err := NewService(NewRepository(conn))
	require.NoError(t, err)

	chicken := dbtest.MustCreateIngredient(t, conn, "Chicken", 3000)
	tomatoes := dbtest.MustCreateIngredient(t, conn, "Tomatoes", 2000)
	salad := dbtest.MustCreateRecipe(t, conn, "Chicken salad",
		dbtest.Component{IngredientID: chicken.ID, Grams: 200},
		dbtest.Component{IngredientID: tomatoes.ID, Grams: 100},
	)
	empty := dbtest.MustCreateRecipe(t, conn, "Water")
	soup := dbtest.MustCreateRecipe(t, conn, "Tomato soup",
		dbtest.Component{IngredientID: tomatoes.ID, Grams: 400},
	)

	f := &fixtures{
		salad: dbtest.MustCreateProduct(t, conn, "Chicken Salad", salad.ID, "12.50").ID,
		water: dbtest.MustCreateProduct(t, conn, "Water", empty.ID, "1.00").ID,
		soup:  dbtest.MustCreateProduct(t, conn, "Tomato Soup", soup.ID, "6.00").ID,
	}
	dbtest.MustDeactivateProduct(t, conn, f.soup)
	return svc, f
}

type fixtures struct {
	salad uuid.UUID
	water uuid.UUID
	soup  uuid.UUID
}

func TestAvailableUnits(t *testing.T) {
	svc, f := newService(t)
	ctx := context.Background()

	units, err := svc.AvailableUnits(ctx, f.salad)
	require.NoError(t, err)
	require.Equal(t, int64(15), units)

	units, err = svc.AvailableUnits(ctx, f.water)
	require.NoError(t, err)
	require.Zero(t, units)

	units, err = svc.AvailableUnits(ctx, f.soup)
	require.NoError(t, err)
	require.Equal(t, int64(5), units)

	_, err = svc.AvailableUnits(ctx, uuid.New())
	require.Error(t, err)
	require.Equal(t, pkgerrors.CodeNotFound, pkgerrors.As(err).Code())
}

func TestAvailabilityMap(t *testing.T) {
	svc, f := newService(t)
	ctx := context.Background()

	active, err := svc.AvailabilityMap(ctx, true)
	require.NoError(t, err)
	require.Equal(t, map[uuid.UUID]int64{f.salad: 15, f.water: 0}, active)

	all, err := svc.AvailabilityMap(ctx, false)
	require.NoError(t, err)
	require.Len(t, all, 3)
	require.Equal(t, int64(5), all[f.soup])

	ghost := uuid.New()
	subset, err := svc.AvailabilityFor(ctx, []uuid.UUID{f.salad, ghost})
	require.NoError(t, err)
	require.Equal(t, int64(15), subset[f.salad])
	require.Zero(t, subset[ghost])
}

func TestCanFulfill(t *testing.T) {
	svc, f := newService(t)
	ctx := context.Background()

	ok, err := svc.CanFulfill(ctx, f.salad, 15)
	require.NoError(t, err)
	require.True(t, ok)

	ok, err = svc.CanFulfill(ctx, f.salad, 16)
	require.NoError(t, err)
	require.False(t, ok)

	ok, err = svc.CanFulfill(ctx, f.water, 1)
	require.NoError(t, err)
	require.False(t, ok)

	_, err = svc.CanFulfill(ctx, f.salad, 0)
	require.Equal(t, pkgerrors.CodeValidation, pkgerrors.As(err).Code())

	_, err = svc.CanFulfill(ctx, uuid.New(), 1)
	require.Equal(t, pkgerrors.CodeNotFound, pkgerrors.As(err).Code())
}

func TestNewServiceRequiresRepository(t *testing.T) {
	_, err := NewService(nil)
	require.Error(t, err)
}
