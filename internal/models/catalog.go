package models

// Category groups products. Name is unique; a category with products
// attached cannot be deleted.
type Category struct {
	BaseModel
	Name        string    `gorm:"uniqueIndex" json:"name"`
	Description string    `json:"description"`
	Products    []Product `json:"products,omitempty"`
}
