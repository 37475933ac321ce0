// Package seed provides helpers to create reference and demo data for the
// application database. City seeding is required for the cafe form's city
// drop-down; demo data is for development and testing only.
package seed

import (
	"fmt"

	"cafedex/internal/models"

	"gorm.io/gorm"
)

// Cities returns the city reference rows the application ships with.
func Cities() []models.City {
	return []models.City{
		{Code: "berk", Name: "Berkeley", State: "CA"},
		{Code: "chi", Name: "Chicago", State: "IL"},
		{Code: "nyc", Name: "New York", State: "NY"},
		{Code: "oak", Name: "Oakland", State: "CA"},
		{Code: "pdx", Name: "Portland", State: "OR"},
		{Code: "sea", Name: "Seattle", State: "WA"},
		{Code: "sf", Name: "San Francisco", State: "CA"},
	}
}

// SeedCities inserts the city reference rows, skipping codes that already
// exist, so it is safe to run at every startup.
func SeedCities(db *gorm.DB) error {
	for _, city := range Cities() {
		city := city
		if err := db.Where(models.City{Code: city.Code}).FirstOrCreate(&city).Error; err != nil {
			return fmt.Errorf("seeding city %s: %w", city.Code, err)
		}
	}
	return nil
}
