package handler

import (
	"github.com/gofiber/fiber/v2"

	"printdesk/internal/http/middleware"
	"printdesk/internal/service"
)

type createOrderRequest struct {
	Items  []service.OrderItemInput `json:"items"`
	Duplex bool                     `json:"duplex"`
}

// CreateOrder prices and stores an order over the caller's documents.
//
// @Summary   Create an order
// @Tags      orders
// @Security  BearerAuth
// @Accept    json
// @Produce   json
// @Param     body body createOrderRequest true "items and duplex flag"
// @Success   201 {object} model.Order
// @Failure   400 {object} errorPayload
// @Failure   403 {object} errorPayload
// @Router    /api/v1/orders [post]
func CreateOrder(svc service.OrderService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var req createOrderRequest
		if err := c.BodyParser(&req); err != nil {
			return writeError(c, fiber.StatusBadRequest, "INVALID_BODY", "invalid request body")
		}
		order, err := svc.Create(c.UserContext(), service.CreateOrderInput{
			OwnerID: middleware.OwnerID(c),
			Items:   req.Items,
			Duplex:  req.Duplex,
		})
		if err != nil {
			return writeServiceError(c, err)
		}
		return c.Status(fiber.StatusCreated).JSON(order)
	}
}

// ListOrders returns the caller's orders without items.
//
// @Summary   List orders
// @Tags      orders
// @Security  BearerAuth
// @Produce   json
// @Param     limit  query int false "page size" default(10)
// @Param     offset query int false "offset"    default(0)
// @Success   200 {object} service.OrderListResult
// @Router    /api/v1/orders [get]
func ListOrders(svc service.OrderService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		limit, offset, perr := pageParams(c)
		if perr != nil {
			return writeParamError(c, perr)
		}
		res, err := svc.List(c.UserContext(), middleware.OwnerID(c), limit, offset)
		if err != nil {
			return writeServiceError(c, err)
		}
		return c.JSON(res)
	}
}

// GetOrder returns an order with its items.
//
// @Summary   Get an order
// @Tags      orders
// @Security  BearerAuth
// @Produce   json
// @Param     id path string true "order id"
// @Success   200 {object} model.Order
// @Failure   404 {object} errorPayload
// @Router    /api/v1/orders/{id} [get]
func GetOrder(svc service.OrderService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, perr := idParam(c)
		if perr != nil {
			return writeParamError(c, perr)
		}
		order, err := svc.Get(c.UserContext(), middleware.OwnerID(c), id)
		if err != nil {
			return writeServiceError(c, err)
		}
		return c.JSON(order)
	}
}

// DeleteOrder removes an order in any state.
//
// @Summary   Delete an order
// @Tags      orders
// @Security  BearerAuth
// @Param     id path string true "order id"
// @Success   204
// @Failure   404 {object} errorPayload
// @Router    /api/v1/orders/{id} [delete]
func DeleteOrder(svc service.OrderService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, perr := idParam(c)
		if perr != nil {
			return writeParamError(c, perr)
		}
		if err := svc.Delete(c.UserContext(), middleware.OwnerID(c), id); err != nil {
			return writeServiceError(c, err)
		}
		return c.SendStatus(fiber.StatusNoContent)
	}
}

// PayOrder confirms payment of a created order.
//
// @Summary   Confirm payment
// @Tags      orders
// @Security  BearerAuth
// @Produce   json
// @Param     id path string true "order id"
// @Success   200 {object} model.Order
// @Failure   404 {object} errorPayload
// @Failure   409 {object} errorPayload
// @Router    /api/v1/orders/{id}/pay [post]
func PayOrder(svc service.OrderService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, perr := idParam(c)
		if perr != nil {
			return writeParamError(c, perr)
		}
		order, err := svc.ConfirmPayment(c.UserContext(), middleware.OwnerID(c), id)
		if err != nil {
			return writeServiceError(c, err)
		}
		return c.JSON(order)
	}
}

// PrintOrder dispatches a paid order to the printer and closes it.
//
// @Summary   Print an order
// @Tags      orders
// @Security  BearerAuth
// @Produce   json
// @Param     id path string true "order id"
// @Success   200 {object} model.Order
// @Failure   404 {object} errorPayload
// @Failure   409 {object} errorPayload
// @Failure   502 {object} errorPayload
// @Router    /api/v1/orders/{id}/print [post]
func PrintOrder(svc service.DispatchService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, perr := idParam(c)
		if perr != nil {
			return writeParamError(c, perr)
		}
		order, err := svc.Dispatch(c.UserContext(), middleware.OwnerID(c), id)
		if err != nil {
			return writeServiceError(c, err)
		}
		return c.JSON(order)
	}
}
