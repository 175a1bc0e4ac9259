package http

import (
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/supportdesk/ticket-router/internal/api/http/handlers"
	"github.com/supportdesk/ticket-router/internal/auth"
	"github.com/supportdesk/ticket-router/internal/domain"
)

// RouteConfig bundles dependencies for route registration.
type RouteConfig struct {
	Health         *handlers.HealthHandler
	Auth           *handlers.AuthHandler
	Agents         *handlers.AgentsHandler
	ProblemTypes   *handlers.ProblemTypesHandler
	Tickets        *handlers.TicketsHandler
	AuthMiddleware *auth.Middleware
}

// RegisterRoutes wires HTTP routes.
func RegisterRoutes(app *fiber.App, cfg RouteConfig) {
	app.Get("/health/live", cfg.Health.Live)
	app.Get("/health/ready", cfg.Health.Ready)
	app.Get("/metrics", adaptor.HTTPHandler(promhttp.Handler()))

	api := app.Group("/api")

	authGroup := api.Group("/auth")
	authGroup.Post("/register", cfg.Auth.Register)
	authGroup.Post("/login", cfg.Auth.Login)
	authGroup.Get("/me", cfg.AuthMiddleware.Handle, auth.RequireAuthenticated(), cfg.Auth.Me)

	agents := api.Group("/agents", cfg.AuthMiddleware.Handle, auth.RequireAuthenticated())
	agents.Post("", auth.RequireRole(domain.RoleAdmin), cfg.Agents.CreateAgent)
	agents.Get("", auth.RequireRole(domain.RoleAdmin), cfg.Agents.ListAgents)
	agents.Get("/:id", auth.RequireRole(domain.RoleAdmin), cfg.Agents.GetAgent)

	problemTypes := api.Group("/problem-types", cfg.AuthMiddleware.Handle, auth.RequireAuthenticated())
	problemTypes.Get("", cfg.ProblemTypes.ListProblemTypes)
	problemTypes.Get("/:id", cfg.ProblemTypes.GetProblemType)

	tickets := api.Group("/tickets", cfg.AuthMiddleware.Handle, auth.RequireAuthenticated())
	tickets.Post("", cfg.Tickets.CreateTicket)
	tickets.Get("", cfg.Tickets.ListTickets)
	tickets.Get("/:id", cfg.Tickets.GetTicket)
	tickets.Put("/:id", cfg.Tickets.UpdateTicket)
	tickets.Put("/:id/assign", auth.RequireRole(domain.RoleAdmin), cfg.Tickets.AssignTicket)
	tickets.Delete("/:id", auth.RequireRole(domain.RoleAdmin), cfg.Tickets.DeleteTicket)
	tickets.Post("/:id/replies", cfg.Tickets.AddReply)
	tickets.Get("/:id/replies", cfg.Tickets.ListReplies)
}
