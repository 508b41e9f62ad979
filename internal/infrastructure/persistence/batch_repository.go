package persistence

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/pharmstock/backend/internal/domain/inventory"
	"github.com/pharmstock/backend/internal/domain/shared"
	"gorm.io/gorm"
)

// GormBatchRepository implements BatchRepository using GORM
type GormBatchRepository struct {
	db *gorm.DB
}

// NewGormBatchRepository creates a new GormBatchRepository
func NewGormBatchRepository(db *gorm.DB) *GormBatchRepository {
	return &GormBatchRepository{db: db}
}

// FindAll returns every batch in insertion order
func (r *GormBatchRepository) FindAll(ctx context.Context) ([]*inventory.Batch, error) {
	var batches []*inventory.Batch
	if err := r.db.WithContext(ctx).
		Order("seq ASC").
		Find(&batches).Error; err != nil {
		return nil, err
	}
	return batches, nil
}

// FindByNameKey returns the batches whose folded name equals key, in insertion order
func (r *GormBatchRepository) FindByNameKey(ctx context.Context, key string) ([]*inventory.Batch, error) {
	var batches []*inventory.Batch
	if err := r.db.WithContext(ctx).
		Where("name_key = ?", key).
		Order("seq ASC").
		Find(&batches).Error; err != nil {
		return nil, err
	}
	return batches, nil
}

// FindByName returns the batches whose stored name equals name exactly
func (r *GormBatchRepository) FindByName(ctx context.Context, name string) ([]*inventory.Batch, error) {
	var batches []*inventory.Batch
	if err := r.db.WithContext(ctx).
		Where("name = ?", name).
		Order("seq ASC").
		Find(&batches).Error; err != nil {
		return nil, err
	}
	return batches, nil
}

// FindByIdentity finds the batch matching the exact (name, strength, expiry) tuple
func (r *GormBatchRepository) FindByIdentity(ctx context.Context, name, strength string, expiryDate time.Time) (*inventory.Batch, error) {
	var batch inventory.Batch
	if err := r.db.WithContext(ctx).
		Where("name = ? AND strength = ? AND expiry_date = ?", name, strength, expiryDate).
		First(&batch).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return &batch, nil
}

// Create persists a new batch, assigning it the next insertion sequence
func (r *GormBatchRepository) Create(ctx context.Context, batch *inventory.Batch) error {
	var maxSeq int64
	if err := r.db.WithContext(ctx).
		Model(&inventory.Batch{}).
		Select("COALESCE(MAX(seq), 0)").
		Scan(&maxSeq).Error; err != nil {
		return err
	}
	batch.Seq = maxSeq + 1
	return r.db.WithContext(ctx).Create(batch).Error
}

// Update persists changes to an existing batch. A batch that no longer
// exists is reported as shared.ErrNotFound, never recreated.
func (r *GormBatchRepository) Update(ctx context.Context, batch *inventory.Batch) error {
	result := r.db.WithContext(ctx).Model(batch).Updates(batch)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return shared.ErrNotFound
	}
	return nil
}

// DeleteByIDs removes the batches with the given IDs
func (r *GormBatchRepository) DeleteByIDs(ctx context.Context, ids []uuid.UUID) error {
	if len(ids) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).
		Where("id IN ?", ids).
		Delete(&inventory.Batch{}).Error
}

// DeleteByNameKey removes every batch whose folded name equals key and
// returns the number of rows removed
func (r *GormBatchRepository) DeleteByNameKey(ctx context.Context, key string) (int64, error) {
	result := r.db.WithContext(ctx).
		Where("name_key = ?", key).
		Delete(&inventory.Batch{})
	if result.Error != nil {
		return 0, result.Error
	}
	return result.RowsAffected, nil
}

// Count returns the number of batches
func (r *GormBatchRepository) Count(ctx context.Context) (int64, error) {
	var count int64
	if err := r.db.WithContext(ctx).
		Model(&inventory.Batch{}).
		Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

// Ensure GormBatchRepository implements BatchRepository
var _ inventory.BatchRepository = (*GormBatchRepository)(nil)
