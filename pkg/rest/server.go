// Package rest is the HTTP surface over the engine. It owns transport and
// user-facing error translation only; every operation is a thin call into the
// engine's synchronous API.
package rest

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/icehousedb/icehouse/pkg/engine"
)

// Server wires the engine into an HTTP router.
type Server struct {
	engine *engine.Engine
	router chi.Router
}

// NewServer creates the HTTP surface for an engine.
func NewServer(e *engine.Engine) *Server {
	s := &Server{engine: e}

	r := chi.NewRouter()
	r.Use(requestID)
	r.Use(requestLogger)

	r.Get("/health", s.handleHealth)

	r.Route("/v1", func(r chi.Router) {
		r.Post("/transactions", s.handleBegin)
		r.Get("/transactions", s.handleRegistryView)
		r.Post("/transactions/{id}/commit", s.handleCommit)
		r.Post("/transactions/{id}/rollback", s.handleRollback)

		r.Get("/tables", s.handleListTables)
		r.Post("/tables", s.handleCreateTable)
		r.Delete("/tables/{name}", s.handleDropTable)

		r.Post("/tables/{name}/read", s.handleRead)
		r.Post("/tables/{name}/insert", s.handleInsert)
		r.Post("/tables/{name}/update", s.handleUpdate)
		r.Post("/tables/{name}/delete", s.handleDelete)
	})

	s.router = r
	return s
}

// Handler returns the root http handler.
func (s *Server) Handler() http.Handler {
	return s.router
}
