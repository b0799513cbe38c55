package handlers

import (
	"github.com/borrowd/backend/internal/middleware"
	"github.com/borrowd/backend/internal/models"
	"github.com/borrowd/backend/internal/services"
	"github.com/borrowd/backend/pkg/utils"
	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

type NotificationsHandler struct {
	DB       *gorm.DB
	Notifier *services.NotificationService
}

func NewNotificationsHandler(db *gorm.DB, notifier *services.NotificationService) *NotificationsHandler {
	return &NotificationsHandler{DB: db, Notifier: notifier}
}

func (h *NotificationsHandler) List(c *fiber.Ctx) error {
	currentUser := middleware.GetCurrentUser(c)
	if currentUser == nil {
		return utils.Error(c, fiber.StatusUnauthorized, "unauthorized")
	}

	p := utils.ParsePagination(c)

	query := h.DB.Model(&models.Notification{}).Where("user_id = ?", currentUser.ID)
	if status := c.Query("status"); status != "" {
		query = query.Where("status = ?", status)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return utils.Error(c, fiber.StatusInternalServerError, "failed counting notifications")
	}

	var notifications []models.Notification
	if err := utils.ApplyPagination(query.Order("created_at DESC"), p).Find(&notifications).Error; err != nil {
		return utils.Error(c, fiber.StatusInternalServerError, "failed listing notifications")
	}

	return utils.Paginated(c, notifications, p.Page, p.Limit, total)
}

func (h *NotificationsHandler) PendingCount(c *fiber.Ctx) error {
	currentUser := middleware.GetCurrentUser(c)
	if currentUser == nil {
		return utils.Error(c, fiber.StatusUnauthorized, "unauthorized")
	}

	var count int64
	if err := h.DB.Model(&models.Notification{}).
		Where("user_id = ? AND status = ?", currentUser.ID, models.NotificationStatusPending).
		Count(&count).Error; err != nil {
		return utils.Error(c, fiber.StatusInternalServerError, "failed counting notifications")
	}

	return utils.Success(c, fiber.StatusOK, fiber.Map{"count": count})
}

type updateNotificationStatusRequest struct {
	Status       models.NotificationStatus `json:"status"`
	ErrorMessage *string                   `json:"errorMessage"`
}

// UpdateStatus is the write-back surface for the external delivery
// worker: it may only move rows to SENT or FAILED.
func (h *NotificationsHandler) UpdateStatus(c *fiber.Ctx) error {
	currentUser := middleware.GetCurrentUser(c)
	if currentUser == nil {
		return utils.Error(c, fiber.StatusUnauthorized, "unauthorized")
	}

	notificationID, err := parseUUID(c.Params("id"))
	if err != nil {
		return utils.Error(c, fiber.StatusBadRequest, "invalid notification id")
	}

	var req updateNotificationStatusRequest
	if err := c.BodyParser(&req); err != nil {
		return utils.Error(c, fiber.StatusBadRequest, "invalid request body")
	}
	if req.Status != models.NotificationStatusSent && req.Status != models.NotificationStatusFailed {
		return utils.Error(c, fiber.StatusBadRequest, "status must be SENT or FAILED")
	}

	notification, err := h.Notifier.MarkDelivered(c.Context(), notificationID, req.Status, req.ErrorMessage)
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return utils.Error(c, fiber.StatusNotFound, "notification not found")
		}
		return utils.Error(c, fiber.StatusInternalServerError, "failed updating notification")
	}

	return utils.Success(c, fiber.StatusOK, notification)
}
