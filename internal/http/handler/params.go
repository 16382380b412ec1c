package handler

import (
	"strconv"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

// paramError is a malformed path or query parameter.
type paramError struct {
	code    string
	message string
}

func (e *paramError) Error() string { return e.message }

func writeParamError(c *fiber.Ctx, err *paramError) error {
	return writeError(c, fiber.StatusBadRequest, err.code, err.message)
}

func pageParams(c *fiber.Ctx) (limit, offset int, perr *paramError) {
	limit, err := strconv.Atoi(c.Query("limit", "10"))
	if err != nil {
		return 0, 0, &paramError{"INVALID_LIMIT", "invalid limit"}
	}
	offset, err = strconv.Atoi(c.Query("offset", "0"))
	if err != nil {
		return 0, 0, &paramError{"INVALID_OFFSET", "invalid offset"}
	}
	return limit, offset, nil
}

// idParam returns the :id path parameter if it is a UUID.
func idParam(c *fiber.Ctx) (string, *paramError) {
	id := c.Params("id")
	if _, err := uuid.Parse(id); err != nil {
		return "", &paramError{"INVALID_ID", "invalid id format"}
	}
	return id, nil
}
