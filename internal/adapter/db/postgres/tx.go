package postgres

import (
	"context"

	"go.uber.org/zap"
	"gorm.io/gorm"

	apperrors "user-store-service/pkg/errors"
)

type txKey struct{}

// TxManager scopes repository calls to a single GORM transaction.
type TxManager struct {
	db  *gorm.DB
	log *zap.Logger
}

// NewTxManager creates a new TxManager over db.
func NewTxManager(db *gorm.DB, log *zap.Logger) *TxManager {
	return &TxManager{db: db, log: log}
}

// WithinTx runs fn inside a transaction carried by the context passed to fn.
// It commits when fn returns nil and rolls back when fn returns an error or panics;
// a panic is re-raised after the rollback. A call made with a context that already
// carries a transaction joins it instead of opening a new one.
func (m *TxManager) WithinTx(ctx context.Context, fn func(ctx context.Context) error) error {
	if _, ok := txFromContext(ctx); ok {
		return fn(ctx)
	}

	var fnErr error
	err := m.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		fnErr = fn(context.WithValue(ctx, txKey{}, tx))
		return fnErr
	})
	if err == nil {
		return nil
	}
	if fnErr != nil {
		m.log.Debug("transaction rolled back", zap.Error(fnErr))
		return fnErr
	}

	// begin or commit failed
	m.log.Error("transaction failed", zap.Error(err))
	return apperrors.NewInternalError("transaction failed", err)
}

func txFromContext(ctx context.Context) (*gorm.DB, bool) {
	tx, ok := ctx.Value(txKey{}).(*gorm.DB)
	return tx, ok && tx != nil
}
