package handler

import (
	"github.com/gofiber/fiber/v2"

	"printdesk/internal/service"
)

type generateCodeRequest struct {
	Phone string `json:"phone"`
	Code  string `json:"code"`
}

// GenerateCode stores a one-time login code sent by the messaging bot.
//
// @Summary  Store a login code
// @Tags     codes
// @Accept   json
// @Produce  json
// @Param    body body generateCodeRequest true "phone and code"
// @Success  200 {object} map[string]string
// @Failure  400 {object} errorPayload
// @Router   /api/v1/codes/generate [post]
func GenerateCode(svc service.CodeService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var req generateCodeRequest
		if err := c.BodyParser(&req); err != nil {
			return writeError(c, fiber.StatusBadRequest, "INVALID_BODY", "invalid request body")
		}
		if _, err := svc.Generate(c.UserContext(), req.Phone, req.Code); err != nil {
			return writeServiceError(c, err)
		}
		return c.JSON(fiber.Map{"status": "ok"})
	}
}
