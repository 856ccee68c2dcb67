package persistence

import (
	"context"

	"github.com/localcooks/backend/internal/domain/shared"
	"gorm.io/gorm"
)

// txKey carries the active transaction through the context so repositories
// called inside TxManager.InTx join it instead of opening their own.
type txKey struct{}

// GormTxManager implements shared.TxManager on top of GORM transactions.
// The booking decision, refund, and claim charge paths wrap gateway calls
// and aggregate updates in InTx so a failure rolls both back together.
type GormTxManager struct {
	db *gorm.DB
}

// NewGormTxManager creates a new GormTxManager
func NewGormTxManager(db *gorm.DB) *GormTxManager {
	return &GormTxManager{db: db}
}

// InTx runs fn inside a database transaction. Repository calls made with the
// context passed to fn execute on that transaction. A nested InTx joins the
// outer transaction rather than opening a second one.
func (m *GormTxManager) InTx(ctx context.Context, fn func(ctx context.Context) error) error {
	if _, ok := ctx.Value(txKey{}).(*gorm.DB); ok {
		return fn(ctx)
	}
	return m.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(context.WithValue(ctx, txKey{}, tx))
	})
}

// dbFor returns the transaction bound to ctx when one is active, otherwise
// the repository's base connection. Every repository method goes through
// this so it works the same inside and outside InTx.
func dbFor(ctx context.Context, base *gorm.DB) *gorm.DB {
	if tx, ok := ctx.Value(txKey{}).(*gorm.DB); ok {
		return tx.WithContext(ctx)
	}
	return base.WithContext(ctx)
}

// Ensure GormTxManager implements TxManager
var _ shared.TxManager = (*GormTxManager)(nil)
