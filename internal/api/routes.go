package api

import (
	"net/http"

	"github.com/scorely/scorely/pkg/routes"
)

func registerRoutes(
	mux *http.ServeMux,
	domain *Domain,
	runtime *Runtime,
) {
	archives := newArchiveHandler(runtime.Storage, runtime.Logger)

	routes.Register(
		mux,
		domain.Runs.Handler().Routes(),
		domain.History.Handler().Routes(),
		archives.routes(),
	)
}
