// Package models contains data structures for the application's domain models.
package models

import (
	"fmt"
	"time"
)

// DefaultUserImageURL is used when a user signs up without an image.
const DefaultUserImageURL = "/static/images/default-pic.png"

// User represents an account in the cafe directory.
//
// Username and email uniqueness is declared at the schema level; the
// repository maps the resulting driver error to a Conflict AppError so the
// signup flow can re-present the form.
type User struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	Username    string    `gorm:"uniqueIndex;not null" json:"username"`
	Email       string    `gorm:"uniqueIndex;not null" json:"email"`
	FirstName   string    `gorm:"size:100;not null" json:"first_name"`
	LastName    string    `gorm:"size:100;not null" json:"last_name"`
	Description string    `gorm:"size:100;not null" json:"description"`
	ImageURL    string    `json:"image_url"`
	Password    string    `gorm:"not null" json:"-"`
	Admin       bool      `gorm:"not null;default:false" json:"admin"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// FullName returns the user's first and last name.
func (u *User) FullName() string {
	return fmt.Sprintf("%s %s", u.FirstName, u.LastName)
}
