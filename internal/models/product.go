package models

import "github.com/google/uuid"

// Product is a sellable catalog item. Quantity is the live stock count and
// never goes below zero; order items keep their own snapshot of name and
// price, so editing or removing a product leaves historical orders intact.
type Product struct {
	BaseModel
	Name        string    `json:"name"`
	Description string    `json:"description"`
	Price       float64   `json:"price"`
	Quantity    int       `json:"quantity"`
	Image       string    `json:"image"`
	CategoryID  uuid.UUID `gorm:"type:uuid;index;not null" json:"category_id"`
	Category    *Category `json:"category,omitempty"`
}
