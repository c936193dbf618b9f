package handler

import (
	"context"
	"go-access-gate/common"
	"go-access-gate/logger"
	"go-access-gate/model"
	"go-access-gate/service"
	"net/http"
	"time"
)

type contextKey string

const SessionKey contextKey = "session"

// SessionMiddleware attaches an AdminSession to every request and writes it
// back as a signed cookie when a handler changes it.
type SessionMiddleware struct {
	manager    *service.SessionManager
	cookieName string
	secure     bool
}

func NewSessionMiddleware(manager *service.SessionManager, cookieName string, secure bool) *SessionMiddleware {
	return &SessionMiddleware{manager: manager, cookieName: cookieName, secure: secure}
}

// Handler resolves the session from the cookie, or starts an anonymous one.
func (m *SessionMiddleware) Handler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var session *model.AdminSession
		if cookie, err := r.Cookie(m.cookieName); err == nil {
			parsed, err := m.manager.Parse(cookie.Value)
			if err != nil {
				logger.Log.WithError(err).Debug("Ignoring invalid session cookie")
			} else {
				session = parsed
			}
		}
		if session == nil {
			session = m.manager.NewSession()
		}

		ctx := context.WithValue(r.Context(), SessionKey, session)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// Persist signs session into the response cookie.
func (m *SessionMiddleware) Persist(w http.ResponseWriter, session *model.AdminSession) error {
	value, err := m.manager.Sign(session)
	if err != nil {
		return err
	}
	ttl := m.manager.TTL()
	http.SetCookie(w, &http.Cookie{
		Name:     m.cookieName,
		Value:    value,
		Path:     "/",
		Expires:  time.Now().Add(ttl),
		MaxAge:   int(ttl.Seconds()),
		HttpOnly: true,
		Secure:   m.secure,
		SameSite: http.SameSiteLaxMode,
	})
	return nil
}

// Clear expires the session cookie.
func (m *SessionMiddleware) Clear(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     m.cookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   m.secure,
		SameSite: http.SameSiteLaxMode,
	})
}

func SessionFromContext(ctx context.Context) (*model.AdminSession, bool) {
	session, ok := ctx.Value(SessionKey).(*model.AdminSession)
	return session, ok && session != nil
}

// RequireAdmin lets the request through only for an authenticated admin session.
func RequireAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		session, ok := SessionFromContext(r.Context())
		if !ok || !session.IsAdmin {
			err := common.NewAppError(http.StatusUnauthorized, "Admin authentication required", nil)
			err.Send(w)
			return
		}

		next.ServeHTTP(w, r)
	})
}
