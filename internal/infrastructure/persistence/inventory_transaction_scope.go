package persistence

import (
	"context"
	"database/sql"

	appinv "github.com/pharmstock/backend/internal/application/inventory"
	"github.com/pharmstock/backend/internal/domain/inventory"
	"gorm.io/gorm"
)

// GormTransactionScope runs mutation flows inside a serializable database
// transaction, so a concurrent sale can neither observe nor produce partial
// deductions.
type GormTransactionScope struct {
	db *gorm.DB
}

var _ appinv.TransactionScope = (*GormTransactionScope)(nil)

// NewGormTransactionScope wraps db in a TransactionScope.
func NewGormTransactionScope(db *gorm.DB) *GormTransactionScope {
	return &GormTransactionScope{db: db}
}

// Execute opens a serializable transaction, hands fn a repository bound to
// it, and commits when fn returns nil. Any error rolls everything back.
func (s *GormTransactionScope) Execute(ctx context.Context, fn func(repo inventory.BatchRepository) error) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(NewGormBatchRepository(tx))
	}, &sql.TxOptions{Isolation: sql.LevelSerializable})
}
