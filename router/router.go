package router

import (
	"go-access-gate/config"
	"go-access-gate/handler"
	"net/http"

	_ "go-access-gate/docs"

	httpSwagger "github.com/swaggo/http-swagger/v2"
)

// Handlers groups what NewRouter wires. Admin and Sessions are only needed
// when issuance is admin-gated.
type Handlers struct {
	Links    *handler.LinkHandler
	Pages    *handler.PageHandler
	Admin    *handler.AdminHandler
	Sessions *handler.SessionMiddleware
}

var assetPatterns = []string{
	"GET /images/",
	"GET /music/",
	"GET /style.css",
	"GET /index.js",
}

// NewRouter registers the routes for one issuance mode. The open and admin
// issuance routes are never registered together.
func NewRouter(mode string, h Handlers) http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /health", handler.HealthCheck)
	mux.Handle("GET /swagger/", httpSwagger.Handler(httpSwagger.URL("/swagger/doc.json")))

	mux.Handle("GET /access/{token}", handler.TextErrorHandlingMiddleware(h.Links.Access))
	mux.HandleFunc("GET /{$}", h.Pages.Root)
	mux.Handle("GET /index.html", handler.TextErrorHandlingMiddleware(h.Pages.BlockDirect))

	assets := h.Pages.Assets()
	for _, pattern := range assetPatterns {
		mux.Handle(pattern, assets)
	}

	var root http.Handler = mux
	switch mode {
	case config.ModeAdmin:
		mux.Handle("POST /admin/login", handler.ErrorHandlingMiddleware(h.Admin.Login))
		mux.Handle("POST /admin/logout", handler.ErrorHandlingMiddleware(h.Admin.Logout))
		mux.Handle("POST /admin/create-link", handler.RequireAdmin(handler.ErrorHandlingMiddleware(h.Links.AdminCreateLink)))
		root = h.Sessions.Handler(mux)
	default:
		mux.Handle("GET /create-link", handler.ErrorHandlingMiddleware(h.Links.CreateLink))
	}

	return handler.RecoverMiddleware(handler.LoggingMiddleware(root))
}
