package gormpersistence

import (
	"context"
	"fmt"

	"gorm.io/gorm"

	"github.com/Saschakew/ShoppingLists/internal/domain"
	"github.com/Saschakew/ShoppingLists/internal/repository"
)

// GormShareRepository is the GORM implementation of repository.ShareRepository.
type GormShareRepository struct {
	db *gorm.DB
}

// NewGormShareRepository creates a GormShareRepository.
func NewGormShareRepository(db *gorm.DB) *GormShareRepository {
	if db == nil {
		panic("database connection cannot be nil for GormShareRepository")
	}
	return &GormShareRepository{db: db}
}

func (r *GormShareRepository) Exists(ctx context.Context, listID, userID uint) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&domain.ListShare{}).
		Where("list_id = ? AND user_id = ?", listID, userID).
		Count(&count).Error
	if err != nil {
		return false, fmt.Errorf("gorm: count shares of list %d for user %d: %w", listID, userID, err)
	}
	return count > 0, nil
}

func (r *GormShareRepository) Create(ctx context.Context, share *domain.ListShare) error {
	if err := r.db.WithContext(ctx).Create(share).Error; err != nil {
		if isDuplicateEntryError(err) {
			return repository.ErrDuplicateEntry
		}
		return fmt.Errorf("gorm: create share of list %d for user %d: %w", share.ListID, share.UserID, err)
	}
	return nil
}

func (r *GormShareRepository) Delete(ctx context.Context, listID, userID uint) error {
	result := r.db.WithContext(ctx).
		Where("list_id = ? AND user_id = ?", listID, userID).
		Delete(&domain.ListShare{})
	if result.Error != nil {
		return fmt.Errorf("gorm: delete share of list %d for user %d: %w", listID, userID, result.Error)
	}
	if result.RowsAffected == 0 {
		return repository.ErrShareNotFound
	}
	return nil
}

func (r *GormShareRepository) ListIDsForUser(ctx context.Context, userID uint) ([]uint, error) {
	var ids []uint
	err := r.db.WithContext(ctx).Model(&domain.ListShare{}).
		Where("user_id = ?", userID).
		Pluck("list_id", &ids).Error
	if err != nil {
		return nil, fmt.Errorf("gorm: list shared ids for user %d: %w", userID, err)
	}
	return ids, nil
}
