package handlers

import (
	"errors"
	"fmt"

	"github.com/gofiber/fiber/v2"
	"github.com/teammanda/manda-api/internal/services"
	"github.com/teammanda/manda-api/internal/utils"
)

// getUserID extracts the authenticated account id from context (set by
// auth middleware).
func getUserID(c *fiber.Ctx) (uint64, error) {
	userID, ok := c.Locals("userID").(uint64)
	if !ok || userID == 0 {
		return 0, fmt.Errorf("user not found in context")
	}
	return userID, nil
}

// parsePage reads the page query parameter. Absent means the first page;
// anything below 1 is rejected.
func parsePage(c *fiber.Ctx) (int, error) {
	page := c.QueryInt("page", 1)
	if page < 1 {
		return 0, fmt.Errorf("page must be >= 1")
	}
	return page, nil
}

// parseIDParam reads a numeric path parameter.
func parseIDParam(c *fiber.Ctx, name string) (uint64, error) {
	id, err := c.ParamsInt(name)
	if err != nil || id < 1 {
		return 0, fmt.Errorf("invalid %s", name)
	}
	return uint64(id), nil
}

// serviceErrorResponse maps the service sentinel errors onto the JSON
// error envelopes. Anything unrecognized is an internal error.
func serviceErrorResponse(c *fiber.Ctx, err error, errorType string) error {
	switch {
	case errors.Is(err, services.ErrNoMorePages):
		return utils.NoMorePagesResponse(c)
	case errors.Is(err, services.ErrNotFound):
		return utils.NotFoundResponse(c, err.Error())
	case errors.Is(err, services.ErrConflict):
		return utils.ConflictResponse(c, err.Error(), errorType)
	case errors.Is(err, services.ErrValidation):
		return utils.ErrorResponse(c, err.Error(), fiber.StatusBadRequest, errorType)
	default:
		return utils.ErrorResponse(c, err.Error(), fiber.StatusInternalServerError, errorType)
	}
}
