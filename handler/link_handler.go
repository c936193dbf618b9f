package handler

import (
	"errors"
	"go-access-gate/common"
	"go-access-gate/model"
	"go-access-gate/service"
	"net/http"
	"net/url"
	"strings"
)

// LinkHandler issues access links and serves the page they protect.
type LinkHandler struct {
	service       *service.TokenService
	publicURL     string
	protectedPage string
}

// NewLinkHandler creates a LinkHandler. publicURL may be empty, in which case
// links are built from the incoming request.
func NewLinkHandler(s *service.TokenService, publicURL, protectedPage string) *LinkHandler {
	return &LinkHandler{
		service:       s,
		publicURL:     strings.TrimRight(publicURL, "/"),
		protectedPage: protectedPage,
	}
}

// CreateLink godoc
// @Summary      Create an access link
// @Description  Issues a new expiring link. Only registered when issuance is open.
// @Tags         links
// @Produce      json
// @Param        hours query number false "Lifetime in hours, defaults to 24"
// @Success      200  {object}  model.LinkResponse
// @Failure      500  {object}  common.AppError "Token storage failure"
// @Router       /create-link [get]
func (h *LinkHandler) CreateLink(w http.ResponseWriter, r *http.Request) *common.AppError {
	var raw interface{}
	if q := r.URL.Query(); q.Has("hours") {
		raw = q.Get("hours")
	}
	return h.issue(w, r, h.service.CoerceTTLHours(raw))
}

// AdminCreateLink godoc
// @Summary      Create an access link as admin
// @Description  Issues a new expiring link. Requires an admin session cookie.
// @Tags         admin
// @Accept       json
// @Produce      json
// @Param        request body model.CreateLinkRequest false "Optional lifetime"
// @Success      200  {object}  model.LinkResponse
// @Failure      400  {object}  common.AppError "Malformed body"
// @Failure      401  {object}  common.AppError "No admin session"
// @Failure      500  {object}  common.AppError "Token storage failure"
// @Router       /admin/create-link [post]
func (h *LinkHandler) AdminCreateLink(w http.ResponseWriter, r *http.Request) *common.AppError {
	var req model.CreateLinkRequest
	if err := common.ValidateAndDecode(r, &req); err != nil {
		return err
	}
	return h.issue(w, r, h.service.CoerceTTLHours(req.Hours))
}

func (h *LinkHandler) issue(w http.ResponseWriter, r *http.Request, hours float64) *common.AppError {
	issued, err := h.service.Issue(r.Context(), hours)
	if err != nil {
		return common.NewAppError(http.StatusInternalServerError, "Could not create link", err)
	}

	writeJSON(w, http.StatusOK, model.LinkResponse{Link: h.linkFor(r, issued.Token)})
	return nil
}

func (h *LinkHandler) linkFor(r *http.Request, token string) string {
	base := h.publicURL
	if base == "" {
		scheme := "http"
		if r.TLS != nil || strings.EqualFold(r.Header.Get("X-Forwarded-Proto"), "https") {
			scheme = "https"
		}
		base = scheme + "://" + r.Host
	}
	return base + "/access/" + url.PathEscape(token)
}

// Access godoc
// @Summary      Open the protected page
// @Description  Serves the protected page for a live token, 403 otherwise.
// @Tags         links
// @Produce      html
// @Param        token path string true "Access token"
// @Success      200  {string}  string "Protected page"
// @Failure      403  {string}  string "Invalid link or Link expired"
// @Failure      500  {string}  string "Token storage failure"
// @Router       /access/{token} [get]
func (h *LinkHandler) Access(w http.ResponseWriter, r *http.Request) *common.AppError {
	err := h.service.Validate(r.Context(), r.PathValue("token"))
	switch {
	case errors.Is(err, service.ErrTokenNotFound):
		return common.NewAppError(http.StatusForbidden, "Invalid link", nil)
	case errors.Is(err, service.ErrTokenExpired):
		return common.NewAppError(http.StatusForbidden, "Link expired", nil)
	case err != nil:
		return common.NewAppError(http.StatusInternalServerError, "Could not verify link", err)
	}

	w.Header().Set("Cache-Control", "no-store")
	http.ServeFile(w, r, h.protectedPage)
	return nil
}
