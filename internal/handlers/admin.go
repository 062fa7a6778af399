package handlers

import (
	"errors"
	"fmt"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/example/maison/internal/middleware"
	"github.com/example/maison/internal/models"
	"github.com/example/maison/internal/services"
	"github.com/example/maison/internal/utils"
)

// AdminOrderHandler manages the back-office order views.
type AdminOrderHandler struct {
	db     *gorm.DB
	events *services.EventPublisher
}

// NewAdminOrderHandler constructs AdminOrderHandler.
func NewAdminOrderHandler(db *gorm.DB, events *services.EventPublisher) *AdminOrderHandler {
	return &AdminOrderHandler{db: db, events: events}
}

// validStatusTransitions lists the allowed admin-driven order moves.
var validStatusTransitions = map[string][]string{
	models.OrderStatusPending:    {models.OrderStatusCancelled},
	models.OrderStatusProcessing: {models.OrderStatusShipped, models.OrderStatusCancelled},
}

// ListOrders returns all orders, optionally filtered by status.
func (h *AdminOrderHandler) ListOrders(c *fiber.Ctx) error {
	pg := utils.ParsePagination(c)
	query := h.db.Model(&models.Order{})

	if status := c.Query("status"); status != "" {
		query = query.Where("status = ?", status)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return err
	}

	var orders []models.Order
	if err := query.Preload("Items").
		Order("placed_at desc").
		Limit(pg.Limit).Offset(pg.Offset).
		Find(&orders).Error; err != nil {
		return err
	}

	return c.JSON(fiber.Map{
		"success": true,
		"data":    orders,
		"pagination": fiber.Map{
			"current_page":   pg.Page,
			"items_per_page": pg.Limit,
			"total_items":    total,
		},
	})
}

// GetOrder returns any order with items and audit log.
func (h *AdminOrderHandler) GetOrder(c *fiber.Ctx) error {
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid id")
	}

	var order models.Order
	if err := h.db.Preload("Items").Preload("Logs").
		First(&order, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return fiber.NewError(fiber.StatusNotFound, "order not found")
		}
		return err
	}

	return c.JSON(fiber.Map{"success": true, "data": order})
}

type statusUpdateRequest struct {
	Status string `json:"status"`
}

// UpdateStatus moves an order along its status lifecycle and appends an
// audit log entry tagged with the acting admin.
func (h *AdminOrderHandler) UpdateStatus(c *fiber.Ctx) error {
	adminID, ok := middleware.GetCurrentUserID(c)
	if !ok {
		return fiber.NewError(fiber.StatusUnauthorized, "unauthorized")
	}

	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid id")
	}

	var req statusUpdateRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}

	var order models.Order
	if err := h.db.First(&order, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return fiber.NewError(fiber.StatusNotFound, "order not found")
		}
		return err
	}

	if !transitionAllowed(order.Status, req.Status) {
		return fiber.NewError(fiber.StatusConflict,
			fmt.Sprintf("cannot move order from %s to %s", order.Status, req.Status))
	}

	if err := h.db.Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&models.Order{}).
			Where("id = ? AND status = ?", id, order.Status).
			Update("status", req.Status)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return fiber.NewError(fiber.StatusConflict, "order status changed concurrently")
		}

		return tx.Create(&models.OrderLog{
			OrderID:     order.ID,
			Action:      models.LogActionStatusChanged,
			Description: fmt.Sprintf("Status changed from %s to %s", order.Status, req.Status),
			PerformedBy: adminID.String(),
		}).Error
	}); err != nil {
		return err
	}

	h.events.Publish(c.Context(), services.OrderEvent{
		Type:        models.LogActionStatusChanged,
		OrderID:     order.ID.String(),
		OrderNumber: order.OrderNumber,
		Total:       order.Total,
	})

	order.Status = req.Status
	return c.JSON(fiber.Map{"success": true, "data": order})
}

// ListLogs returns the append-only audit trail of an order, oldest first.
func (h *AdminOrderHandler) ListLogs(c *fiber.Ctx) error {
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid id")
	}

	var logs []models.OrderLog
	if err := h.db.Where("order_id = ?", id).
		Order("created_at asc").
		Find(&logs).Error; err != nil {
		return err
	}

	return c.JSON(fiber.Map{"success": true, "data": logs})
}

func transitionAllowed(from, to string) bool {
	for _, allowed := range validStatusTransitions[from] {
		if allowed == to {
			return true
		}
	}
	return false
}
