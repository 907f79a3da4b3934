package handlers

import (
	"github.com/gofiber/fiber/v2"
	"github.com/teammanda/manda-api/internal/services"
	"github.com/teammanda/manda-api/internal/utils"
	"gorm.io/gorm"
)

// SocialHandler handles follow and block routes
type SocialHandler struct {
	DB         *gorm.DB
	Dispatcher *services.Dispatcher
}

// Follow handles POST /api/users/:userID/follow
// @Summary Follow a user
// @Description Follow a user and notify them
// @Tags Social
// @Produce json
// @Param userID path int true "User ID to follow"
// @Success 201 {object} map[string]interface{}
// @Failure 400 {object} utils.ErrorResponseStruct
// @Failure 403 {object} utils.ErrorResponseStruct
// @Failure 404 {object} utils.ErrorResponseStruct
// @Failure 409 {object} utils.ErrorResponseStruct
// @Failure 500 {object} utils.ErrorResponseStruct
// @Router /users/{userID}/follow [post]
func (h *SocialHandler) Follow(c *fiber.Ctx) error {
	userID, err := getUserID(c)
	if err != nil {
		return utils.ErrorResponse(c, err.Error(), fiber.StatusForbidden, "social.follow")
	}
	targetID, err := parseIDParam(c, "userID")
	if err != nil {
		return utils.ErrorResponse(c, err.Error(), fiber.StatusBadRequest, "social.follow")
	}

	if err := services.FollowUser(h.DB, h.Dispatcher, userID, targetID); err != nil {
		return serviceErrorResponse(c, err, "social.follow")
	}
	return utils.CreatedResponse(c, nil)
}

// Unfollow handles DELETE /api/users/:userID/follow
// @Summary Unfollow a user
// @Tags Social
// @Produce json
// @Param userID path int true "User ID to unfollow"
// @Success 200 {object} map[string]interface{}
// @Failure 400 {object} utils.ErrorResponseStruct
// @Failure 403 {object} utils.ErrorResponseStruct
// @Failure 404 {object} utils.ErrorResponseStruct
// @Failure 500 {object} utils.ErrorResponseStruct
// @Router /users/{userID}/follow [delete]
func (h *SocialHandler) Unfollow(c *fiber.Ctx) error {
	userID, err := getUserID(c)
	if err != nil {
		return utils.ErrorResponse(c, err.Error(), fiber.StatusForbidden, "social.unfollow")
	}
	targetID, err := parseIDParam(c, "userID")
	if err != nil {
		return utils.ErrorResponse(c, err.Error(), fiber.StatusBadRequest, "social.unfollow")
	}

	if err := services.UnfollowUser(h.DB, userID, targetID); err != nil {
		return serviceErrorResponse(c, err, "social.unfollow")
	}
	return utils.MutationSuccessResponse(c, nil)
}

// Block handles POST /api/users/:userID/block
// @Summary Block a user
// @Description Hide a user's content and sever follows in both directions
// @Tags Social
// @Produce json
// @Param userID path int true "User ID to block"
// @Success 201 {object} map[string]interface{}
// @Failure 400 {object} utils.ErrorResponseStruct
// @Failure 403 {object} utils.ErrorResponseStruct
// @Failure 404 {object} utils.ErrorResponseStruct
// @Failure 409 {object} utils.ErrorResponseStruct
// @Failure 500 {object} utils.ErrorResponseStruct
// @Router /users/{userID}/block [post]
func (h *SocialHandler) Block(c *fiber.Ctx) error {
	userID, err := getUserID(c)
	if err != nil {
		return utils.ErrorResponse(c, err.Error(), fiber.StatusForbidden, "social.block")
	}
	targetID, err := parseIDParam(c, "userID")
	if err != nil {
		return utils.ErrorResponse(c, err.Error(), fiber.StatusBadRequest, "social.block")
	}

	if err := services.BlockUser(h.DB, userID, targetID); err != nil {
		return serviceErrorResponse(c, err, "social.block")
	}
	return utils.CreatedResponse(c, nil)
}

// Unblock handles DELETE /api/users/:userID/block
// @Summary Unblock a user
// @Tags Social
// @Produce json
// @Param userID path int true "User ID to unblock"
// @Success 200 {object} map[string]interface{}
// @Failure 400 {object} utils.ErrorResponseStruct
// @Failure 403 {object} utils.ErrorResponseStruct
// @Failure 404 {object} utils.ErrorResponseStruct
// @Failure 500 {object} utils.ErrorResponseStruct
// @Router /users/{userID}/block [delete]
func (h *SocialHandler) Unblock(c *fiber.Ctx) error {
	userID, err := getUserID(c)
	if err != nil {
		return utils.ErrorResponse(c, err.Error(), fiber.StatusForbidden, "social.unblock")
	}
	targetID, err := parseIDParam(c, "userID")
	if err != nil {
		return utils.ErrorResponse(c, err.Error(), fiber.StatusBadRequest, "social.unblock")
	}

	if err := services.UnblockUser(h.DB, userID, targetID); err != nil {
		return serviceErrorResponse(c, err, "social.unblock")
	}
	return utils.MutationSuccessResponse(c, nil)
}

// Followers handles GET /api/users/:userID/followers
// @Summary List a user's followers
// @Tags Social
// @Produce json
// @Param userID path int true "User ID"
// @Success 200 {object} map[string]interface{}
// @Failure 400 {object} utils.ErrorResponseStruct
// @Failure 403 {object} utils.ErrorResponseStruct
// @Failure 500 {object} utils.ErrorResponseStruct
// @Router /users/{userID}/followers [get]
func (h *SocialHandler) Followers(c *fiber.Ctx) error {
	viewerID, err := getUserID(c)
	if err != nil {
		return utils.ErrorResponse(c, err.Error(), fiber.StatusForbidden, "social.followers")
	}
	targetID, err := parseIDParam(c, "userID")
	if err != nil {
		return utils.ErrorResponse(c, err.Error(), fiber.StatusBadRequest, "social.followers")
	}

	entries, err := services.ListFollowers(h.DB, viewerID, targetID)
	if err != nil {
		return serviceErrorResponse(c, err, "social.followers")
	}
	return utils.SuccessResponse(c, entries, fiber.StatusOK)
}

// Following handles GET /api/users/:userID/following
// @Summary List the users a user follows
// @Tags Social
// @Produce json
// @Param userID path int true "User ID"
// @Success 200 {object} map[string]interface{}
// @Failure 400 {object} utils.ErrorResponseStruct
// @Failure 403 {object} utils.ErrorResponseStruct
// @Failure 500 {object} utils.ErrorResponseStruct
// @Router /users/{userID}/following [get]
func (h *SocialHandler) Following(c *fiber.Ctx) error {
	viewerID, err := getUserID(c)
	if err != nil {
		return utils.ErrorResponse(c, err.Error(), fiber.StatusForbidden, "social.following")
	}
	targetID, err := parseIDParam(c, "userID")
	if err != nil {
		return utils.ErrorResponse(c, err.Error(), fiber.StatusBadRequest, "social.following")
	}

	entries, err := services.ListFollowing(h.DB, viewerID, targetID)
	if err != nil {
		return serviceErrorResponse(c, err, "social.following")
	}
	return utils.SuccessResponse(c, entries, fiber.StatusOK)
}
