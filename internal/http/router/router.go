// Package router assembles the HTTP surface of the server.
package router

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	ctrl "github.com/janboddez/indieauth/internal/http/controllers/indieauth"
	mw "github.com/janboddez/indieauth/internal/http/middlewares"
)

// Deps contains the router dependencies.
type Deps struct {
	Controllers *ctrl.Controllers
}

// New builds the server handler: the IndieAuth endpoints plus metrics
// and health.
func New(d Deps) http.Handler {
	c := d.Controllers

	r := chi.NewRouter()
	r.Use(mw.WithRecover())
	r.Use(mw.WithRequestID())
	r.Use(mw.WithSecurityHeaders())
	r.Use(mw.WithLogging())

	r.Route("/indieauth", func(r chi.Router) {
		r.Get("/metadata", c.Metadata.Metadata)

		// Protocol endpoints carry no-store: codes and tokens must
		// never land in a shared cache.
		r.Group(func(r chi.Router) {
			r.Use(mw.WithNoStore())
			r.Get("/", c.Authorize.Begin)
			r.Post("/", c.Authorize.Submit)
			r.Get("/token", c.Introspect.Introspect)
			r.Post("/token", c.Token.Token)
			r.Post("/token/revocation", c.Revoke.Revoke)
		})
	})

	r.Handle("/metrics", promhttp.Handler())
	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json; charset=utf-8")
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})

	return r
}
