package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/atinyakov/keychain/internal/middleware"
)

// BasePath is the mount point of the keychain endpoints.
const BasePath = "/api/v1/plugins/keychain"

// NewRouter constructs the HTTP handler serving the keychain API.
//
// Routes (relative to BasePath):
//
//	POST /get-keychain-entry    → GetEntry
//	POST /set-keychain-entry    → SetEntry
//	POST /has-keychain-entry    → HasEntry
//	POST /delete-keychain-entry → DeleteEntry
//	GET  /info                  → Info
//
// POST routes only accept application/json bodies.
func NewRouter(kh *KeychainHandler, logger *zap.Logger) http.Handler {
	r := chi.NewRouter()

	r.Use(chiMiddleware.RequestID)
	r.Use(middleware.WithRequestLogging(logger))
	r.Use(chiMiddleware.Recoverer)

	r.Route(BasePath, func(r chi.Router) {
		r.Get("/info", kh.Info)

		r.Group(func(r chi.Router) {
			r.Use(chiMiddleware.AllowContentType("application/json"))
			r.Post("/get-keychain-entry", kh.GetEntry)
			r.Post("/set-keychain-entry", kh.SetEntry)
			r.Post("/has-keychain-entry", kh.HasEntry)
			r.Post("/delete-keychain-entry", kh.DeleteEntry)
		})
	})

	return r
}
