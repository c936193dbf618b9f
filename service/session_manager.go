// file: service/session_manager.go

package service

import (
	"errors"
	"fmt"
	"go-access-gate/model"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

var ErrInvalidSession = errors.New("invalid session")

// SessionManager signs sessions into cookie values and parses them back.
type SessionManager struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

func NewSessionManager(secret string, ttl time.Duration) *SessionManager {
	return &SessionManager{secret: []byte(secret), ttl: ttl, now: time.Now}
}

// NewSession returns a fresh unauthenticated session.
func (m *SessionManager) NewSession() *model.AdminSession {
	return &model.AdminSession{ID: uuid.NewString()}
}

func (m *SessionManager) TTL() time.Duration {
	return m.ttl
}

// Sign encodes session as an HS256 JWT valid for the configured TTL.
func (m *SessionManager) Sign(session *model.AdminSession) (string, error) {
	now := m.now()
	claims := &model.SessionClaims{
		SessionID: session.ID,
		IsAdmin:   session.IsAdmin,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(m.ttl)),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(m.secret)
	if err != nil {
		return "", fmt.Errorf("failed to sign session: %w", err)
	}
	return signed, nil
}

// Parse verifies a cookie value and returns the session it carries.
func (m *SessionManager) Parse(value string) (*model.AdminSession, error) {
	claims := &model.SessionClaims{}
	token, err := jwt.ParseWithClaims(value, claims, func(token *jwt.Token) (interface{}, error) {
		return m.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithTimeFunc(m.now))
	if err != nil || !token.Valid {
		return nil, fmt.Errorf("%w: %v", ErrInvalidSession, err)
	}
	if claims.SessionID == "" {
		return nil, ErrInvalidSession
	}
	return &model.AdminSession{ID: claims.SessionID, IsAdmin: claims.IsAdmin}, nil
}
