package repository

import (
	"context"
	"errors"

	"cafedex/internal/models"

	"gorm.io/gorm"
)

// CityRepository reads the city reference data. Cities are created by
// seeding only; the application never mutates them.
type CityRepository interface {
	Get(ctx context.Context, code string) (*models.City, error)
	List(ctx context.Context) ([]models.City, error)
	Codes(ctx context.Context) ([]string, error)
}

type cityRepository struct {
	db *gorm.DB
}

// NewCityRepository returns a new CityRepository implementation.
func NewCityRepository(db *gorm.DB) CityRepository {
	return &cityRepository{db: db}
}

func (r *cityRepository) Get(ctx context.Context, code string) (*models.City, error) {
	var city models.City
	if err := r.db.WithContext(ctx).First(&city, "code = ?", code).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, models.NewNotFoundError("City", code)
		}
		return nil, models.NewInternalError(err)
	}
	return &city, nil
}

func (r *cityRepository) List(ctx context.Context) ([]models.City, error) {
	var cities []models.City
	if err := r.db.WithContext(ctx).Order("name ASC").Find(&cities).Error; err != nil {
		return nil, models.NewInternalError(err)
	}
	return cities, nil
}

// Codes returns the currently known city codes, the vocabulary for the cafe
// form's city drop-down.
func (r *cityRepository) Codes(ctx context.Context) ([]string, error) {
	var codes []string
	if err := r.db.WithContext(ctx).Model(&models.City{}).Order("code ASC").Pluck("code", &codes).Error; err != nil {
		return nil, models.NewInternalError(err)
	}
	return codes, nil
}
