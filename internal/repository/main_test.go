package repository

import (
	"testing"

	"cafedex/internal/models"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}

	if err := db.AutoMigrate(
		&models.City{},
		&models.User{},
		&models.Cafe{},
		&models.Like{},
	); err != nil {
		t.Fatalf("migrate sqlite: %v", err)
	}

	return db
}

func seedCity(t *testing.T, db *gorm.DB, code, name, state string) {
	t.Helper()
	if err := db.Create(&models.City{Code: code, Name: name, State: state}).Error; err != nil {
		t.Fatalf("seed city: %v", err)
	}
}

func seedCafe(t *testing.T, db *gorm.DB, name, cityCode string) *models.Cafe {
	t.Helper()
	cafe := &models.Cafe{
		Name:     name,
		Address:  "1 Test St",
		CityCode: cityCode,
		ImageURL: models.DefaultCafeImageURL,
	}
	if err := db.Create(cafe).Error; err != nil {
		t.Fatalf("seed cafe: %v", err)
	}
	return cafe
}

func seedUser(t *testing.T, db *gorm.DB, username string) *models.User {
	t.Helper()
	user := &models.User{
		Username:    username,
		Email:       username + "@example.com",
		FirstName:   "Test",
		LastName:    "User",
		Description: "test user",
		ImageURL:    models.DefaultUserImageURL,
		Password:    "not-a-real-hash",
	}
	if err := db.Create(user).Error; err != nil {
		t.Fatalf("seed user: %v", err)
	}
	return user
}
