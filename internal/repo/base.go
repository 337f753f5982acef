package repo

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Base is embedded by the gorm repositories. The zero value is unusable.
type Base struct {
	db *gorm.DB
}

func NewBase(db *gorm.DB) Base {
	return Base{db: db}
}

// WithTx returns a copy bound to tx. A nil tx keeps the current handle.
func (b Base) WithTx(tx *gorm.DB) Base {
	if tx != nil {
		b.db = tx
	}
	return b
}

// DB returns the handle scoped to ctx, or the raw handle for a nil ctx.
func (b Base) DB(ctx context.Context) *gorm.DB {
	if ctx == nil {
		return b.db
	}
	return b.db.WithContext(ctx)
}

func (b Base) Exists(ctx context.Context, model any, query string, args ...any) (bool, error) {
	var n int64
	if err := b.DB(ctx).Model(model).Where(query, args...).Limit(1).Count(&n).Error; err != nil {
		return false, err
	}
	return n > 0, nil
}

// FindByID loads one T by primary key with the given associations preloaded.
// A missing row returns gorm.ErrRecordNotFound.
func FindByID[T any](db *gorm.DB, id uuid.UUID, preloads ...string) (*T, error) {
	for _, assoc := range preloads {
		db = db.Preload(assoc)
	}
	row := new(T)
	if err := db.Where("id = ?", id).First(row).Error; err != nil {
		return nil, err
	}
	return row, nil
}

// Affected turns a write that touched no rows into gorm.ErrRecordNotFound.
func Affected(res *gorm.DB) error {
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func IsNotFound(err error) bool {
	return errors.Is(err, gorm.ErrRecordNotFound)
}
