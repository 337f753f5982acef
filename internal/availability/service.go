package availability

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	pkgerrors "github.com/angelmondragon/pos-backend/pkg/errors"
)

// Service answers how many units of a product current stock can make.
type Service interface {
	AvailableUnits(ctx context.Context, productID uuid.UUID) (int64, error)
	AvailabilityMap(ctx context.Context, activeOnly bool) (map[uuid.UUID]int64, error)
	AvailabilityFor(ctx context.Context, productIDs []uuid.UUID) (map[uuid.UUID]int64, error)
	CanFulfill(ctx context.Context, productID uuid.UUID, quantity int64) (bool, error)
}

type service struct {
	repo Repository
}

// NewService builds the availability calculator.
func NewService(repo Repository) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("availability repository required")
	}
	return &service{repo: repo}, nil
}

// Compute returns the floor-min of stock over required grams across the
// components. Components requiring zero or less are ignored; a product with no
// usable components cannot be made.
func Compute(requirements []Requirement) int64 {
	var (
		units int64
		seen  bool
	)
	for _, req := range requirements {
		if !req.RequiredGrams.IsPositive() {
			continue
		}
		possible := int64(0)
		if req.StockGrams.IsPositive() {
			quotient, _ := req.StockGrams.QuoRem(req.RequiredGrams, 0)
			possible = quotient.IntPart()
		}
		if !seen || possible < units {
			units = possible
			seen = true
		}
	}
	if !seen {
		return 0
	}
	return units
}

func (s *service) AvailableUnits(ctx context.Context, productID uuid.UUID) (int64, error) {
	exists, err := s.repo.ProductExists(ctx, productID)
	if err != nil {
		return 0, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load product")
	}
	if !exists {
		return 0, pkgerrors.New(pkgerrors.CodeNotFound, "product not found")
	}
	reqs, err := s.repo.Requirements(ctx, []uuid.UUID{productID})
	if err != nil {
		return 0, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load recipe requirements")
	}
	return Compute(reqs), nil
}

func (s *service) AvailabilityMap(ctx context.Context, activeOnly bool) (map[uuid.UUID]int64, error) {
	ids, err := s.repo.ProductIDs(ctx, activeOnly)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list products")
	}
	return s.AvailabilityFor(ctx, ids)
}

// AvailabilityFor computes units for each id; unknown ids map to zero.
func (s *service) AvailabilityFor(ctx context.Context, productIDs []uuid.UUID) (map[uuid.UUID]int64, error) {
	out := make(map[uuid.UUID]int64, len(productIDs))
	if len(productIDs) == 0 {
		return out, nil
	}
	reqs, err := s.repo.Requirements(ctx, productIDs)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load recipe requirements")
	}
	grouped := make(map[uuid.UUID][]Requirement, len(productIDs))
	for _, req := range reqs {
		grouped[req.ProductID] = append(grouped[req.ProductID], req)
	}
	for _, id := range productIDs {
		out[id] = Compute(grouped[id])
	}
	return out, nil
}

func (s *service) CanFulfill(ctx context.Context, productID uuid.UUID, quantity int64) (bool, error) {
	if quantity < 1 {
		return false, pkgerrors.New(pkgerrors.CodeValidation, "quantity must be at least 1")
	}
	units, err := s.AvailableUnits(ctx, productID)
	if err != nil {
		return false, err
	}
	return units >= quantity, nil
}
