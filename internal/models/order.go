package models

import (
	"time"

	"github.com/google/uuid"
)

// Order statuses.
const (
	OrderStatusPending    = "PENDING"
	OrderStatusProcessing = "PROCESSING"
	OrderStatusShipped    = "SHIPPED"
	OrderStatusCancelled  = "CANCELLED"
)

// Payment statuses. An order moves PENDING -> PAID exactly once.
const (
	PaymentStatusPending = "PENDING"
	PaymentStatusPaid    = "PAID"
)

// Order log actions.
const (
	LogActionOrderCreated     = "ORDER_CREATED"
	LogActionPaymentCompleted = "PAYMENT_COMPLETED"
	LogActionStatusChanged    = "STATUS_CHANGED"
)

// Order is a placed checkout. Customer fields and totals are snapshotted at
// creation time and never recomputed afterwards.
type Order struct {
	BaseModel
	UserID          *uuid.UUID  `gorm:"type:uuid;index" json:"user_id"`
	User            *User       `json:"user,omitempty"`
	OrderNumber     string      `gorm:"uniqueIndex" json:"order_number"`
	Status          string      `gorm:"index" json:"status"`
	PaymentStatus   string      `gorm:"index" json:"payment_status"`
	PaymentMethod   string      `json:"payment_method"`
	SessionID       string      `gorm:"index" json:"session_id"`
	PaymentIntentID string      `json:"payment_intent_id"`
	Email           string      `json:"email"`
	Phone           string      `json:"phone"`
	FirstName       string      `json:"first_name"`
	LastName        string      `json:"last_name"`
	Address         string      `json:"address"`
	City            string      `json:"city"`
	PostalCode      string      `json:"postal_code"`
	Country         string      `json:"country"`
	Subtotal        float64     `json:"subtotal"`
	Tax             float64     `json:"tax"`
	Shipping        float64     `json:"shipping"`
	Total           float64     `json:"total"`
	PlacedAt        time.Time   `json:"placed_at"`
	Items           []OrderItem `gorm:"constraint:OnDelete:CASCADE" json:"items,omitempty"`
	Logs            []OrderLog  `gorm:"constraint:OnDelete:CASCADE" json:"logs,omitempty"`
}

// OrderItem is one snapshotted line of an order. ProductID is a weak
// reference: name, price and image are copied so later product changes never
// touch historical orders.
type OrderItem struct {
	BaseModel
	OrderID     uuid.UUID  `gorm:"type:uuid;index" json:"order_id"`
	ProductID   *uuid.UUID `gorm:"type:uuid;index" json:"product_id"`
	ProductName string     `json:"product_name"`
	UnitPrice   float64    `json:"unit_price"`
	Quantity    int        `json:"quantity"`
	Image       string     `json:"image"`
}

// OrderLog is an append-only audit entry. Rows are never updated or deleted.
type OrderLog struct {
	BaseModel
	OrderID     uuid.UUID `gorm:"type:uuid;index" json:"order_id"`
	Action      string    `json:"action"`
	Description string    `json:"description"`
	PerformedBy string    `json:"performed_by"`
}
