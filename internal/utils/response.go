package utils

import (
	"time"

	"github.com/gofiber/fiber/v2"
)

// SuccessResponse sends a standard success response
func SuccessResponse(c *fiber.Ctx, data interface{}, status int) error {
	return c.Status(status).JSON(data)
}

// ErrorResponse sends a standard error response
func ErrorResponse(c *fiber.Ctx, message string, status int, errorType string) error {
	return c.Status(status).JSON(fiber.Map{
		"status":    status,
		"message":   message,
		"ok":        false,
		"timestamp": time.Now().UTC().Format(time.RFC3339),
		"url":       c.OriginalURL(),
		"type":      errorType,
	})
}

// NotFoundResponse sends a 404 not found response
func NotFoundResponse(c *fiber.Ctx, message string) error {
	return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
		"status":    fiber.StatusNotFound,
		"message":   message,
		"ok":        false,
		"timestamp": time.Now().UTC().Format(time.RFC3339),
		"url":       c.OriginalURL(),
	})
}

// ConflictResponse sends a 409 for duplicate relationship writes
// (follow, block, report, reaction).
func ConflictResponse(c *fiber.Ctx, message string, errorType string) error {
	return ErrorResponse(c, message, fiber.StatusConflict, errorType)
}

// PageResponse sends one page of results with pagination metadata.
// HasMore is false on the last non-empty page and on an empty result.
func PageResponse(c *fiber.Ctx, data interface{}, page int, hasMore bool) error {
	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"ok":      true,
		"page":    page,
		"hasMore": hasMore,
		"data":    data,
	})
}

// NoMorePagesResponse is the sentinel for an out-of-range page request.
// It is a valid 200, deliberately distinguishable from an empty first page.
func NoMorePagesResponse(c *fiber.Ctx) error {
	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"ok":      true,
		"message": "No more pages",
		"data":    []interface{}{},
	})
}

// MutationSuccessResponse sends a success response for mutations (POST/PATCH/DELETE)
func MutationSuccessResponse(c *fiber.Ctx, data interface{}) error {
	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"message":   "Success",
		"ok":        true,
		"timestamp": time.Now().UTC().Format(time.RFC3339),
		"data":      data,
	})
}

// CreatedResponse sends a 201 with the created entity
func CreatedResponse(c *fiber.Ctx, data interface{}) error {
	return c.Status(fiber.StatusCreated).JSON(data)
}

// ErrorResponseStruct defines the schema for error responses
type ErrorResponseStruct struct {
	Status    int    `json:"status"`
	Message   string `json:"message"`
	Ok        bool   `json:"ok"`
	Timestamp string `json:"timestamp"`
	URL       string `json:"url"`
	Type      string `json:"type,omitempty"`
}

// PageResponseStruct defines the schema for paginated responses
type PageResponseStruct struct {
	Ok      bool        `json:"ok"`
	Page    int         `json:"page"`
	HasMore bool        `json:"hasMore"`
	Data    interface{} `json:"data"`
}
