package seed

import (
	"fmt"
	"math/rand"
	"time"

	"cafedex/internal/models"

	"github.com/brianvoe/gofakeit/v6"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// DemoOptions controls the size of the generated demo dataset.
type DemoOptions struct {
	Users int
	Cafes int
	// LikeChance is the probability (0..1) that a given user likes a given
	// cafe.
	LikeChance float64
	// Password is assigned to every demo user. Defaults to "secret1".
	Password string
}

// Factory builds demo entities and persists them to the database.
type Factory struct {
	db   *gorm.DB
	rand *rand.Rand
}

// NewFactory creates a new Factory bound to the provided Gorm DB.
func NewFactory(db *gorm.DB, seedValue int64) *Factory {
	gofakeit.Seed(seedValue)
	return &Factory{db: db, rand: rand.New(rand.NewSource(seedValue))}
}

// CreateUser persists a fake user with the given password.
func (f *Factory) CreateUser(password string) (*models.User, error) {
	hashed, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	if err != nil {
		return nil, err
	}

	user := &models.User{
		Username:    fmt.Sprintf("%s%d", gofakeit.Username(), f.rand.Intn(10000)),
		Email:       gofakeit.Email(),
		FirstName:   gofakeit.FirstName(),
		LastName:    gofakeit.LastName(),
		Description: gofakeit.Sentence(6),
		ImageURL:    models.DefaultUserImageURL,
		Password:    string(hashed),
	}
	if err := f.db.Create(user).Error; err != nil {
		return nil, err
	}
	return user, nil
}

// CreateCafe persists a fake cafe in the given city.
func (f *Factory) CreateCafe(cityCode string) (*models.Cafe, error) {
	cafe := &models.Cafe{
		Name:        fmt.Sprintf("%s %s", gofakeit.LastName(), cafeSuffixes[f.rand.Intn(len(cafeSuffixes))]),
		Description: gofakeit.Sentence(10),
		URL:         gofakeit.URL(),
		Address:     gofakeit.Street(),
		CityCode:    cityCode,
		ImageURL:    models.DefaultCafeImageURL,
	}
	if err := f.db.Create(cafe).Error; err != nil {
		return nil, err
	}
	return cafe, nil
}

var cafeSuffixes = []string{"Coffee", "Roasters", "Espresso", "Cafe", "Beanery", "Brew Bar"}

// Demo populates the database with a demo dataset. Cities must be seeded
// first.
func Demo(db *gorm.DB, opts DemoOptions) error {
	if opts.Users <= 0 {
		opts.Users = 10
	}
	if opts.Cafes <= 0 {
		opts.Cafes = 15
	}
	if opts.LikeChance <= 0 {
		opts.LikeChance = 0.2
	}
	if opts.Password == "" {
		opts.Password = "secret1"
	}

	f := NewFactory(db, time.Now().UnixNano())

	var codes []string
	if err := db.Model(&models.City{}).Pluck("code", &codes).Error; err != nil {
		return fmt.Errorf("loading city codes: %w", err)
	}
	if len(codes) == 0 {
		return fmt.Errorf("no cities seeded; run SeedCities first")
	}

	users := make([]*models.User, 0, opts.Users)
	for i := 0; i < opts.Users; i++ {
		user, err := f.CreateUser(opts.Password)
		if err != nil {
			return fmt.Errorf("creating demo user: %w", err)
		}
		users = append(users, user)
	}

	cafes := make([]*models.Cafe, 0, opts.Cafes)
	for i := 0; i < opts.Cafes; i++ {
		cafe, err := f.CreateCafe(codes[f.rand.Intn(len(codes))])
		if err != nil {
			return fmt.Errorf("creating demo cafe: %w", err)
		}
		cafes = append(cafes, cafe)
	}

	for _, user := range users {
		for _, cafe := range cafes {
			if f.rand.Float64() >= opts.LikeChance {
				continue
			}
			like := models.Like{UserID: user.ID, CafeID: cafe.ID}
			if err := db.Create(&like).Error; err != nil {
				return fmt.Errorf("creating demo like: %w", err)
			}
		}
	}

	return nil
}
