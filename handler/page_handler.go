package handler

import (
	_ "embed"
	"go-access-gate/common"
	"net/http"
	"strings"
)

//go:embed templates/admin.html
var adminPanel []byte

const deniedMessage = "Access denied. Use your private link."

// PageHandler serves the root page, static assets and the direct-access block.
type PageHandler struct {
	staticDir  string
	adminPanel bool
}

func NewPageHandler(staticDir string, adminPanel bool) *PageHandler {
	return &PageHandler{staticDir: staticDir, adminPanel: adminPanel}
}

// Root shows the admin panel when issuance is admin-gated, a denial otherwise.
func (h *PageHandler) Root(w http.ResponseWriter, r *http.Request) {
	if h.adminPanel {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		w.WriteHeader(http.StatusOK)
		w.Write(adminPanel)
		return
	}
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte(deniedMessage))
}

// BlockDirect denies the protected page's own path no matter who asks.
func (h *PageHandler) BlockDirect(w http.ResponseWriter, r *http.Request) *common.AppError {
	return common.NewAppError(http.StatusForbidden, deniedMessage, nil)
}

// Assets serves files from the static directory without directory listings.
func (h *PageHandler) Assets() http.Handler {
	files := http.FileServer(http.Dir(h.staticDir))
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if strings.HasSuffix(r.URL.Path, "/") {
			http.NotFound(w, r)
			return
		}
		files.ServeHTTP(w, r)
	})
}
