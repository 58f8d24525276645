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

// GormListRepository is the GORM implementation of repository.ListRepository.
type GormListRepository struct {
	db *gorm.DB
}

// NewGormListRepository creates a GormListRepository.
func NewGormListRepository(db *gorm.DB) *GormListRepository {
	if db == nil {
		panic("database connection cannot be nil for GormListRepository")
	}
	return &GormListRepository{db: db}
}

func (r *GormListRepository) FindByID(ctx context.Context, id uint) (*domain.ShoppingList, error) {
	var list domain.ShoppingList
	err := r.db.WithContext(ctx).First(&list, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, repository.ErrListNotFound
		}
		return nil, fmt.Errorf("gorm: find list by id %d: %w", id, err)
	}
	return &list, nil
}

func (r *GormListRepository) FindByOwner(ctx context.Context, ownerID uint) ([]domain.ShoppingList, error) {
	var lists []domain.ShoppingList
	err := r.db.WithContext(ctx).
		Where("owner_id = ?", ownerID).
		Order("created_at DESC").Order("id DESC").
		Find(&lists).Error
	if err != nil {
		return nil, fmt.Errorf("gorm: find lists of owner %d: %w", ownerID, err)
	}
	return lists, nil
}

func (r *GormListRepository) FindByIDs(ctx context.Context, ids []uint) ([]domain.ShoppingList, error) {
	var lists []domain.ShoppingList
	if len(ids) == 0 {
		return lists, nil
	}
	err := r.db.WithContext(ctx).
		Where("id IN ?", ids).
		Order("created_at DESC").Order("id DESC").
		Find(&lists).Error
	if err != nil {
		return nil, fmt.Errorf("gorm: find lists by ids: %w", err)
	}
	return lists, nil
}

func (r *GormListRepository) Create(ctx context.Context, list *domain.ShoppingList) error {
	if list.LastActive.IsZero() {
		list.LastActive = time.Now().UTC()
	}
	if err := r.db.WithContext(ctx).Create(list).Error; err != nil {
		return fmt.Errorf("gorm: create list '%s': %w", list.Name, err)
	}
	return nil
}

// Delete removes shares, items and the list row in a single transaction and
// unsets the favorite pointer of users that referenced the list.
func (r *GormListRepository) Delete(ctx context.Context, id uint) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		err := tx.Model(&domain.User{}).
			Where("favorite_list_id = ?", id).
			Update("favorite_list_id", nil).Error
		if err != nil {
			return fmt.Errorf("gorm: clear favorites of list %d: %w", id, err)
		}
		if err := tx.Where("list_id = ?", id).Delete(&domain.ListShare{}).Error; err != nil {
			return fmt.Errorf("gorm: delete shares of list %d: %w", id, err)
		}
		if err := tx.Where("list_id = ?", id).Delete(&domain.ListItem{}).Error; err != nil {
			return fmt.Errorf("gorm: delete items of list %d: %w", id, err)
		}
		result := tx.Delete(&domain.ShoppingList{}, id)
		if result.Error != nil {
			return fmt.Errorf("gorm: delete list %d: %w", id, result.Error)
		}
		if result.RowsAffected == 0 {
			return repository.ErrListNotFound
		}
		return nil
	})
}

func (r *GormListRepository) Touch(ctx context.Context, id uint, at time.Time) error {
	db := r.db.WithContext(ctx)
	result := db.Model(&domain.ShoppingList{}).
		Where("id = ? AND last_active < ?", id, at).
		UpdateColumn("last_active", at)
	if result.Error != nil {
		return fmt.Errorf("gorm: touch list %d: %w", id, result.Error)
	}
	if result.RowsAffected > 0 {
		return nil
	}

	// nothing moved: either the stored value is newer or the list is gone
	var count int64
	if err := db.Model(&domain.ShoppingList{}).Where("id = ?", id).Count(&count).Error; err != nil {
		return fmt.Errorf("gorm: touch list %d: %w", id, err)
	}
	if count == 0 {
		return repository.ErrListNotFound
	}
	return nil
}
