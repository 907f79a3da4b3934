package middleware

import (
	"fmt"

	"github.com/gofiber/fiber/v2"
	"github.com/teammanda/manda-api/internal/services"
	"github.com/teammanda/manda-api/internal/types"
	"gorm.io/gorm"
)

// AuthUser validates that the request carries a valid user session and
// resolves it to a local account. The account's id is stored in
// c.Locals("userID") for the handlers.
func AuthUser(db *gorm.DB) fiber.Handler {
	return func(c *fiber.Ctx) error {
		return authorize(c, db, []string{"user"}, "manda.authorization.user")
	}
}

// authorize performs the authorization check
func authorize(c *fiber.Ctx, db *gorm.DB, roles []string, errorType string) error {
	session := c.Cookies("cookie_session")
	if session == "" {
		return &types.CustomError{
			Code:    fiber.StatusForbidden,
			Message: "Authorizer cookie \"cookie_session\" not found",
			Type:    errorType,
		}
	}

	info, err := services.ValidateSession(session, roles)
	if err != nil {
		return &types.CustomError{
			Code:    fiber.StatusForbidden,
			Message: fmt.Sprintf("Invalid session: %v", err),
			Type:    errorType,
		}
	}

	user, err := services.EnsureUser(db, info.Subject)
	if err != nil {
		return &types.CustomError{
			Code:    fiber.StatusForbidden,
			Message: fmt.Sprintf("Account resolution failed: %v", err),
			Type:    errorType,
		}
	}

	c.Locals("userID", user.UserID)
	return c.Next()
}
