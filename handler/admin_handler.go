package handler

import (
	"errors"
	"go-access-gate/common"
	"go-access-gate/model"
	"go-access-gate/service"
	"net/http"
)

type AdminHandler struct {
	auth     *service.AdminAuthService
	sessions *SessionMiddleware
}

func NewAdminHandler(auth *service.AdminAuthService, sessions *SessionMiddleware) *AdminHandler {
	return &AdminHandler{auth: auth, sessions: sessions}
}

// Login godoc
// @Summary      Admin login
// @Description  Marks the caller's session as admin when the password matches.
// @Tags         admin
// @Accept       json
// @Produce      json
// @Param        request body model.AdminLoginRequest true "Admin password"
// @Success      200  {object}  model.StatusResponse
// @Failure      400  {object}  common.AppError "Malformed body"
// @Failure      401  {object}  common.AppError "Invalid credentials"
// @Router       /admin/login [post]
func (h *AdminHandler) Login(w http.ResponseWriter, r *http.Request) *common.AppError {
	var req model.AdminLoginRequest
	if err := common.ValidateAndDecode(r, &req); err != nil {
		return err
	}

	session, ok := SessionFromContext(r.Context())
	if !ok {
		return common.NewAppError(http.StatusInternalServerError, "Session unavailable", nil)
	}

	if err := h.auth.Login(r.Context(), session, req.Password); err != nil {
		if errors.Is(err, service.ErrBadCredentials) {
			return common.NewAppError(http.StatusUnauthorized, "Invalid credentials", nil)
		}
		return common.NewAppError(http.StatusInternalServerError, "Could not log in", err)
	}

	if err := h.sessions.Persist(w, session); err != nil {
		return common.NewAppError(http.StatusInternalServerError, "Could not store session", err)
	}

	writeJSON(w, http.StatusOK, model.StatusResponse{Status: "ok"})
	return nil
}

// Logout godoc
// @Summary      Admin logout
// @Tags         admin
// @Success      204
// @Router       /admin/logout [post]
func (h *AdminHandler) Logout(w http.ResponseWriter, r *http.Request) *common.AppError {
	if session, ok := SessionFromContext(r.Context()); ok {
		h.auth.Logout(session)
	}
	h.sessions.Clear(w)
	w.WriteHeader(http.StatusNoContent)
	return nil
}
