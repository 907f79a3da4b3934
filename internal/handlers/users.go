package handlers

import (
	"github.com/gofiber/fiber/v2"
	"github.com/teammanda/manda-api/internal/services"
	"github.com/teammanda/manda-api/internal/utils"
	"gorm.io/gorm"
)

// UserHandler handles profile routes
type UserHandler struct {
	DB *gorm.DB
}

// GetProfile handles GET /api/users/:userID/profile
// @Summary Get a user profile
// @Description Get a user page with follower and following counts
// @Tags Users
// @Produce json
// @Param userID path int true "User ID"
// @Success 200 {object} map[string]interface{}
// @Failure 400 {object} utils.ErrorResponseStruct
// @Failure 403 {object} utils.ErrorResponseStruct
// @Failure 404 {object} utils.ErrorResponseStruct
// @Failure 500 {object} utils.ErrorResponseStruct
// @Router /users/{userID}/profile [get]
func (h *UserHandler) GetProfile(c *fiber.Ctx) error {
	viewerID, err := getUserID(c)
	if err != nil {
		return utils.ErrorResponse(c, err.Error(), fiber.StatusForbidden, "users.profile")
	}
	targetID, err := parseIDParam(c, "userID")
	if err != nil {
		return utils.ErrorResponse(c, err.Error(), fiber.StatusBadRequest, "users.profile")
	}

	profile, err := services.GetProfile(h.DB, viewerID, targetID)
	if err != nil {
		return serviceErrorResponse(c, err, "users.profile")
	}
	return utils.SuccessResponse(c, profile, fiber.StatusOK)
}

// UpdateProfile handles PATCH /api/users/profile
// @Summary Edit own profile
// @Tags Users
// @Accept json
// @Produce json
// @Param profile body services.ProfileUpdate true "Fields to change"
// @Success 200 {object} map[string]interface{}
// @Failure 400 {object} utils.ErrorResponseStruct
// @Failure 403 {object} utils.ErrorResponseStruct
// @Failure 409 {object} utils.ErrorResponseStruct
// @Failure 500 {object} utils.ErrorResponseStruct
// @Router /users/profile [patch]
func (h *UserHandler) UpdateProfile(c *fiber.Ctx) error {
	userID, err := getUserID(c)
	if err != nil {
		return utils.ErrorResponse(c, err.Error(), fiber.StatusForbidden, "users.update")
	}

	var update services.ProfileUpdate
	if err := c.BodyParser(&update); err != nil {
		return utils.ErrorResponse(c, "Invalid request body", fiber.StatusBadRequest, "users.update")
	}

	profile, err := services.UpdateProfile(h.DB, userID, update)
	if err != nil {
		return serviceErrorResponse(c, err, "users.update")
	}
	return utils.MutationSuccessResponse(c, profile)
}

// Deactivate handles DELETE /api/users/me
// @Summary Deactivate own account
// @Description Turn the account inactive; its content stops appearing everywhere
// @Tags Users
// @Produce json
// @Success 200 {object} map[string]interface{}
// @Failure 403 {object} utils.ErrorResponseStruct
// @Failure 404 {object} utils.ErrorResponseStruct
// @Failure 500 {object} utils.ErrorResponseStruct
// @Router /users/me [delete]
func (h *UserHandler) Deactivate(c *fiber.Ctx) error {
	userID, err := getUserID(c)
	if err != nil {
		return utils.ErrorResponse(c, err.Error(), fiber.StatusForbidden, "users.deactivate")
	}

	if err := services.DeactivateUser(h.DB, userID); err != nil {
		return serviceErrorResponse(c, err, "users.deactivate")
	}
	return utils.MutationSuccessResponse(c, nil)
}
