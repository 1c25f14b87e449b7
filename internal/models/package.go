package models

import "time"

// Package represents a purchasable travel itinerary. The catalog store owns
// the full record; the booking core only needs price and display metadata.
type Package struct {
	ID         string    `json:"id" db:"id"`
	Name       string    `json:"name" db:"name"`
	Price      float64   `json:"price" db:"price"`
	Duration   int       `json:"duration" db:"duration"`
	ImageCover string    `json:"image_cover" db:"image_cover"`
	CreatedAt  time.Time `json:"created_at" db:"created_at"`
	UpdatedAt  time.Time `json:"updated_at" db:"updated_at"`
}
