package models

// City is reference data for the cafe city drop-down. Rows are created by
// seeding and are never mutated or deleted by the application.
type City struct {
	Code  string `gorm:"primaryKey" json:"code"`
	Name  string `gorm:"not null" json:"name"`
	State string `gorm:"type:char(2);not null" json:"state"`
}
