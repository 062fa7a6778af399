package models

// User represents a registered customer or administrator.
type User struct {
	BaseModel
	Email        string     `gorm:"uniqueIndex" json:"email"`
	PasswordHash string     `json:"-"`
	FirstName    string     `json:"first_name"`
	LastName     string     `json:"last_name"`
	IsAdmin      bool       `json:"is_admin"`
	CartItems    []CartItem `json:"cart_items,omitempty"`
	Orders       []Order    `json:"orders,omitempty"`
}
