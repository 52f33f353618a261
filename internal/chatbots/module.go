// Package chatbots provides the chatbot configuration bounded context module.
package chatbots

import (
	"chatlead_backend/internal/chatbots/handler"
	"chatlead_backend/internal/chatbots/repository"
	"chatlead_backend/internal/chatbots/service"
	"chatlead_backend/internal/crm"
	apphttp "chatlead_backend/internal/http"
	"chatlead_backend/platform/validator"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Module is the chatbots bounded context module implementing http.Module.
type Module struct {
	handler *handler.Handler
	service *service.Service
	repo    *repository.Repository
}

// NewModule wires the chatbot settings stack.
func NewModule(pool *pgxpool.Pool, forwarder *crm.Forwarder, val *validator.Validator) *Module {
	repo := repository.New(pool)
	svc := service.New(repo, forwarder, val)
	return &Module{
		handler: handler.New(svc),
		service: svc,
		repo:    repo,
	}
}

// Name returns the module identifier.
func (m *Module) Name() string {
	return "chatbots"
}

// Service exposes chatbot resolution for the intake path.
func (m *Module) Service() *service.Service {
	return m.service
}

// Repository exposes chatbot lookups for the notification dispatcher.
func (m *Module) Repository() *repository.Repository {
	return m.repo
}

// RegisterRoutes mounts chatbot settings routes. All of them require
// authentication.
func (m *Module) RegisterRoutes(ctx *apphttp.RouterContext) {
	group := ctx.Protected.Group("/chatbots")
	m.handler.RegisterRoutes(group)
}

var _ apphttp.Module = (*Module)(nil)
