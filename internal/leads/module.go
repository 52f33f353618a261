// Package leads provides the lead intake and management bounded context.
package leads

import (
	"chatlead_backend/internal/events"
	apphttp "chatlead_backend/internal/http"
	"chatlead_backend/internal/leads/handler"
	"chatlead_backend/internal/leads/repository"
	"chatlead_backend/internal/leads/scoring"
	"chatlead_backend/internal/leads/service"
	"chatlead_backend/platform/validator"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Module is the leads bounded context module implementing http.Module.
type Module struct {
	handler *handler.Handler
	service *service.Service
	repo    *repository.Repository
}

// NewModule wires the lead intake and query stack.
func NewModule(pool *pgxpool.Pool, chatbots service.ChatbotResolver, engine *scoring.Engine, bus events.Bus, val *validator.Validator) *Module {
	repo := repository.New(pool)
	svc := service.New(repo, chatbots, engine, bus, val)
	return &Module{
		handler: handler.New(svc),
		service: svc,
		repo:    repo,
	}
}

// Name returns the module identifier.
func (m *Module) Name() string {
	return "leads"
}

// Repository exposes lead lookups for the notification dispatcher.
func (m *Module) Repository() *repository.Repository {
	return m.repo
}

// RegisterRoutes mounts the intake route publicly (rate limited) and the
// management routes behind authentication.
func (m *Module) RegisterRoutes(ctx *apphttp.RouterContext) {
	intake := ctx.V1.Group("/intake")
	intake.Use(ctx.IntakeRateLimiter.RateLimit())
	m.handler.RegisterIntakeRoutes(intake)

	m.handler.RegisterRoutes(ctx.Protected.Group("/leads"))
}

var _ apphttp.Module = (*Module)(nil)
