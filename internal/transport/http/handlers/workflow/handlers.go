// Package workflowhandler exposes the approval chain reference data clients
// use to render status badges.
package workflowhandler

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"hris/internal/domain/workflow"
	"hris/internal/transport/http/api"
	"hris/internal/transport/http/middleware"
	"hris/internal/transport/http/shared"
)

type Handler struct{}

func NewHandler() *Handler {
	return &Handler{}
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/workflow", func(r chi.Router) {
		r.Get("/badges", h.handleBadges)
	})
}

func (h *Handler) handleBadges(w http.ResponseWriter, r *http.Request) {
	if _, ok := shared.RequireUser(w, r); !ok {
		return
	}
	api.Success(w, map[string]any{
		"badges":  workflow.Badges(),
		"unknown": workflow.UnknownBadge,
	}, middleware.GetRequestID(r.Context()))
}
