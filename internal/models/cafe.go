package models

import (
	"fmt"
	"time"
)

// DefaultCafeImageURL is used when a cafe is created without an image.
const DefaultCafeImageURL = "/static/images/default-cafe.jpg"

// Cafe is a community-curated cafe listing. Cafes are created and edited
// through the web forms; there is no delete path.
type Cafe struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	Name        string    `gorm:"not null" json:"name"`
	Description string    `json:"description"`
	URL         string    `json:"url"`
	Address     string    `gorm:"not null" json:"address"`
	CityCode    string    `gorm:"not null;index" json:"city_code"`
	ImageURL    string    `gorm:"not null" json:"image_url"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`

	City City `gorm:"foreignKey:CityCode;references:Code" json:"city,omitempty"`
}

// CityState returns "City, ST" for display. The City association must be
// loaded.
func (c Cafe) CityState() string {
	return fmt.Sprintf("%s, %s", c.City.Name, c.City.State)
}
