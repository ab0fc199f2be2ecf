package api

import (
	_ "embed"
	"net/http"

	httpSwagger "github.com/swaggo/http-swagger/v2"
)

// openapiSpec is a hand-maintained OpenAPI document for the admin API,
// served the same way the pack's scoracle-data repo serves its generated
// swag spec: a static doc.json behind httpSwagger.Handler. This repo has
// no `swag init` step in its build, so the spec is embedded directly
// rather than generated from annotations.
//
//go:embed openapi.json
var openapiSpec []byte

func docJSON(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	_, _ = w.Write(openapiSpec)
}

// mountDocs wires the swagger UI on a router already mounted at
// /admin/docs, reusing http-swagger the way albapepper-scoracle-data's
// server.go does.
func mountDocs(r interface {
	Get(pattern string, h http.HandlerFunc)
}) {
	r.Get("/doc.json", docJSON)
	r.Get("/*", httpSwagger.Handler(
		httpSwagger.URL("/admin/docs/doc.json"),
	))
}
