package gormpersistence

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/Saschakew/ShoppingLists/internal/domain"
	"github.com/Saschakew/ShoppingLists/internal/repository"
)

// GormItemRepository is the GORM implementation of repository.ItemRepository.
type GormItemRepository struct {
	db *gorm.DB
}

// NewGormItemRepository creates a GormItemRepository.
func NewGormItemRepository(db *gorm.DB) *GormItemRepository {
	if db == nil {
		panic("database connection cannot be nil for GormItemRepository")
	}
	return &GormItemRepository{db: db}
}

func (r *GormItemRepository) FindByID(ctx context.Context, id uint) (*domain.ListItem, error) {
	var item domain.ListItem
	err := r.db.WithContext(ctx).First(&item, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, repository.ErrItemNotFound
		}
		return nil, fmt.Errorf("gorm: find item by id %d: %w", id, err)
	}
	return &item, nil
}

func (r *GormItemRepository) FindByList(ctx context.Context, listID uint) ([]domain.ListItem, error) {
	var items []domain.ListItem
	err := r.db.WithContext(ctx).
		Where("list_id = ?", listID).
		Order("added_at ASC").Order("id ASC").
		Find(&items).Error
	if err != nil {
		return nil, fmt.Errorf("gorm: find items of list %d: %w", listID, err)
	}
	return items, nil
}

func (r *GormItemRepository) FindByListSince(ctx context.Context, listID uint, since time.Time) ([]domain.ListItem, error) {
	var items []domain.ListItem
	err := r.db.WithContext(ctx).
		Where("list_id = ? AND added_at >= ?", listID, since).
		Order("added_at ASC").Order("id ASC").
		Find(&items).Error
	if err != nil {
		return nil, fmt.Errorf("gorm: find items of list %d since %s: %w", listID, since.Format(time.RFC3339), err)
	}
	return items, nil
}

func (r *GormItemRepository) Create(ctx context.Context, item *domain.ListItem) error {
	if err := r.db.WithContext(ctx).Create(item).Error; err != nil {
		return fmt.Errorf("gorm: create item in list %d: %w", item.ListID, err)
	}
	return nil
}

func (r *GormItemRepository) Delete(ctx context.Context, listID, itemID uint) error {
	result := r.db.WithContext(ctx).
		Where("id = ? AND list_id = ?", itemID, listID).
		Delete(&domain.ListItem{})
	if result.Error != nil {
		return fmt.Errorf("gorm: delete item %d of list %d: %w", itemID, listID, result.Error)
	}
	if result.RowsAffected == 0 {
		return repository.ErrItemNotFound
	}
	return nil
}
