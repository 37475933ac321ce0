package models

import "time"

// Like is the join row expressing "user likes cafe". The composite primary
// key guarantees at most one row per (user, cafe) pair and is the backstop
// against concurrent duplicate toggles.
type Like struct {
	UserID    uint      `gorm:"primaryKey;autoIncrement:false" json:"user_id"`
	CafeID    uint      `gorm:"primaryKey;autoIncrement:false" json:"cafe_id"`
	CreatedAt time.Time `json:"created_at"`

	User User `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE" json:"-"`
	Cafe Cafe `gorm:"foreignKey:CafeID;constraint:OnDelete:CASCADE" json:"-"`
}
