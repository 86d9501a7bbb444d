package database

import (
	"context"

	"gorm.io/gorm"
)

type (
	// Transactor runs fn as one atomic unit. Calls made while a transaction is
	// already bound to ctx join it instead of opening a new one.
	Transactor interface {
		WithinTransaction(ctx context.Context, fn func(ctx context.Context) error) error
	}

	gormTransactor struct {
		db *gorm.DB
	}

	txKey struct{}
)

func NewTransactor(db *gorm.DB) Transactor {
	return &gormTransactor{db: db}
}

func (t *gormTransactor) WithinTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	if InTransaction(ctx) {
		return fn(ctx)
	}
	return t.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(BindTransaction(ctx, tx))
	})
}

// BindTransaction attaches a backend-specific transaction handle to ctx.
func BindTransaction(ctx context.Context, tx any) context.Context {
	return context.WithValue(ctx, txKey{}, tx)
}

func InTransaction(ctx context.Context) bool {
	return ctx.Value(txKey{}) != nil
}

// Conn returns the GORM transaction bound to ctx, or db when there is none.
func Conn(ctx context.Context, db *gorm.DB) *gorm.DB {
	if tx, ok := ctx.Value(txKey{}).(*gorm.DB); ok {
		return tx.WithContext(ctx)
	}
	return db.WithContext(ctx)
}
