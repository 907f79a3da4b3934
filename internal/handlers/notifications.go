package handlers

import (
	"github.com/gofiber/fiber/v2"
	"github.com/teammanda/manda-api/internal/services"
	"github.com/teammanda/manda-api/internal/utils"
	"gorm.io/gorm"
)

// NotificationHandler handles notification routes
type NotificationHandler struct {
	DB *gorm.DB
}

// List handles GET /api/notifications
// @Summary List notifications
// @Description Get the caller's most recent notifications, newest first
// @Tags Notifications
// @Produce json
// @Success 200 {object} map[string]interface{}
// @Failure 403 {object} utils.ErrorResponseStruct
// @Failure 500 {object} utils.ErrorResponseStruct
// @Router /notifications [get]
func (h *NotificationHandler) List(c *fiber.Ctx) error {
	userID, err := getUserID(c)
	if err != nil {
		return utils.ErrorResponse(c, err.Error(), fiber.StatusForbidden, "notifications.list")
	}

	entries, err := services.ListNotifications(h.DB, userID)
	if err != nil {
		return serviceErrorResponse(c, err, "notifications.list")
	}

	unread, err := services.UnreadNotificationCount(h.DB, userID)
	if err != nil {
		return serviceErrorResponse(c, err, "notifications.list")
	}

	return utils.SuccessResponse(c, fiber.Map{
		"notifications": entries,
		"unread_count":  unread,
	}, fiber.StatusOK)
}

// MarkRead handles PATCH /api/notifications/:notiID/read
// @Summary Mark a notification read
// @Tags Notifications
// @Produce json
// @Param notiID path int true "Notification ID"
// @Success 200 {object} map[string]interface{}
// @Failure 400 {object} utils.ErrorResponseStruct
// @Failure 403 {object} utils.ErrorResponseStruct
// @Failure 404 {object} utils.ErrorResponseStruct
// @Failure 500 {object} utils.ErrorResponseStruct
// @Router /notifications/{notiID}/read [patch]
func (h *NotificationHandler) MarkRead(c *fiber.Ctx) error {
	userID, err := getUserID(c)
	if err != nil {
		return utils.ErrorResponse(c, err.Error(), fiber.StatusForbidden, "notifications.read")
	}
	notiID, err := parseIDParam(c, "notiID")
	if err != nil {
		return utils.ErrorResponse(c, err.Error(), fiber.StatusBadRequest, "notifications.read")
	}

	if err := services.MarkNotificationRead(h.DB, userID, notiID); err != nil {
		return serviceErrorResponse(c, err, "notifications.read")
	}
	return utils.MutationSuccessResponse(c, nil)
}
