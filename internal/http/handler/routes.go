package handler

import (
	"database/sql"

	"github.com/gofiber/fiber/v2"

	"printdesk/internal/http/middleware"
	"printdesk/internal/identity"
	"printdesk/internal/service"
)

// Dependencies are the collaborators the HTTP layer needs.
type Dependencies struct {
	DB        *sql.DB
	Documents service.DocumentService
	Orders    service.OrderService
	Dispatch  service.DispatchService
	Codes     service.CodeService
	Verifier  identity.Verifier
}

// RegisterRoutes attaches HTTP routes to the provided Fiber app.
// Handlers stay thin; business rules live in the services.
func RegisterRoutes(app *fiber.App, d Dependencies) {
	app.Get("/health", HealthCheck(d.DB))
	app.Get("/healthz", Liveness())

	v1 := app.Group("/api/v1")

	// Called by the messaging bot, before the user has a token.
	v1.Post("/codes/generate", GenerateCode(d.Codes))

	auth := middleware.Auth(d.Verifier, Unauthorized)

	docs := v1.Group("/documents", auth)
	docs.Get("/", ListDocuments(d.Documents))
	docs.Post("/", UploadDocument(d.Documents))
	docs.Get("/:id", GetDocument(d.Documents))
	docs.Get("/:id/content", DownloadDocument(d.Documents))
	docs.Patch("/:id", RenameDocument(d.Documents))
	docs.Delete("/:id", DeleteDocument(d.Documents))

	orders := v1.Group("/orders", auth)
	orders.Get("/", ListOrders(d.Orders))
	orders.Post("/", CreateOrder(d.Orders))
	orders.Get("/:id", GetOrder(d.Orders))
	orders.Delete("/:id", DeleteOrder(d.Orders))
	orders.Post("/:id/pay", PayOrder(d.Orders))
	orders.Post("/:id/print", PrintOrder(d.Dispatch))
}
