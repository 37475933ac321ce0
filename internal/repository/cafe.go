package repository

import (
	"context"
	"errors"

	"cafedex/internal/cache"
	"cafedex/internal/models"

	"gorm.io/gorm"
)

// CafeRepository defines persistence operations for cafes. Cafes are created
// and edited through the web forms; there is no delete path.
type CafeRepository interface {
	Create(ctx context.Context, cafe *models.Cafe) error
	GetByID(ctx context.Context, id uint) (*models.Cafe, error)
	List(ctx context.Context) ([]models.Cafe, error)
	Update(ctx context.Context, cafe *models.Cafe) error
	CountLikes(ctx context.Context, cafeID uint) (int64, error)
}

type cafeRepository struct {
	db *gorm.DB
}

// NewCafeRepository returns a new CafeRepository implementation.
func NewCafeRepository(db *gorm.DB) CafeRepository {
	return &cafeRepository{db: db}
}

func (r *cafeRepository) Create(ctx context.Context, cafe *models.Cafe) error {
	if cafe.ImageURL == "" {
		cafe.ImageURL = models.DefaultCafeImageURL
	}
	if err := r.db.WithContext(ctx).Create(cafe).Error; err != nil {
		return models.NewInternalError(err)
	}
	return nil
}

func (r *cafeRepository) GetByID(ctx context.Context, id uint) (*models.Cafe, error) {
	var cafe models.Cafe
	key := cache.CafeKey(id)

	err := cache.Aside(ctx, key, &cafe, cache.CafeTTL, func() error {
		if err := r.db.WithContext(ctx).Preload("City").First(&cafe, id).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return models.NewNotFoundError("Cafe", id)
			}
			return models.NewInternalError(err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &cafe, nil
}

// List returns all cafes ordered by name ascending.
func (r *cafeRepository) List(ctx context.Context) ([]models.Cafe, error) {
	var cafes []models.Cafe
	if err := r.db.WithContext(ctx).Preload("City").Order("name ASC").Find(&cafes).Error; err != nil {
		return nil, models.NewInternalError(err)
	}
	return cafes, nil
}

func (r *cafeRepository) Update(ctx context.Context, cafe *models.Cafe) error {
	if cafe.ImageURL == "" {
		cafe.ImageURL = models.DefaultCafeImageURL
	}
	if err := r.db.WithContext(ctx).Save(cafe).Error; err != nil {
		return models.NewInternalError(err)
	}
	cache.InvalidateCafe(ctx, cafe.ID)
	return nil
}

func (r *cafeRepository) CountLikes(ctx context.Context, cafeID uint) (int64, error) {
	var count int64
	if err := r.db.WithContext(ctx).Model(&models.Like{}).Where("cafe_id = ?", cafeID).Count(&count).Error; err != nil {
		return 0, models.NewInternalError(err)
	}
	return count, nil
}
