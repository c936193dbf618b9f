// file: service/auth_service.go

package service

import (
	"context"
	"errors"
	"go-access-gate/logger"
	"go-access-gate/model"
)

var ErrBadCredentials = errors.New("invalid credentials")

// AdminAuthService marks sessions as admin after a successful credential check.
// It knows nothing about tokens.
type AdminAuthService struct {
	verifier CredentialVerifier
}

func NewAdminAuthService(verifier CredentialVerifier) *AdminAuthService {
	return &AdminAuthService{verifier: verifier}
}

// Login authenticates session with password. On failure the session is left as is.
func (s *AdminAuthService) Login(ctx context.Context, session *model.AdminSession, password string) error {
	log := logger.Log.WithField("session_id", session.ID)
	if !s.verifier.Verify(password) {
		log.Warn("Admin login rejected")
		return ErrBadCredentials
	}
	session.IsAdmin = true
	log.Info("Admin login succeeded")
	return nil
}

func (s *AdminAuthService) Logout(session *model.AdminSession) {
	session.IsAdmin = false
}
