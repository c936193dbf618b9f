// file: service/token_service.go

package service

import (
	"context"
	"errors"
	"fmt"
	"go-access-gate/logger"
	"go-access-gate/model"
	"go-access-gate/repository"
	"math"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cast"
)

var (
	ErrTokenNotFound = errors.New("invalid link")
	ErrTokenExpired  = errors.New("link expired")
	ErrTokenIDSpace  = errors.New("could not generate an unused token id")
)

const (
	DefaultTTLHours = 24.0
	// maxTTLHours keeps expiresAt well inside int64 milliseconds.
	maxTTLHours = 24 * 365 * 1000

	maxIDAttempts = 5
)

// TokenService owns issuance and validation of expiring access tokens.
type TokenService struct {
	store        repository.ITokenStore
	evictExpired bool
	defaultHours float64
	now          func() time.Time
	newID        func() (string, error)
}

type TokenOption func(*TokenService)

func WithClock(now func() time.Time) TokenOption {
	return func(s *TokenService) { s.now = now }
}

func WithIDGenerator(gen func() (string, error)) TokenOption {
	return func(s *TokenService) { s.newID = gen }
}

// WithEviction controls whether expired records are deleted when hit.
func WithEviction(enabled bool) TokenOption {
	return func(s *TokenService) { s.evictExpired = enabled }
}

// WithDefaultHours overrides the fallback lifetime. Non-positive values are ignored.
func WithDefaultHours(hours float64) TokenOption {
	return func(s *TokenService) {
		if hours > 0 && hours <= maxTTLHours {
			s.defaultHours = hours
		}
	}
}

func NewTokenService(store repository.ITokenStore, opts ...TokenOption) *TokenService {
	s := &TokenService{
		store:        store,
		evictExpired: true,
		defaultHours: DefaultTTLHours,
		now:          time.Now,
		newID:        NewTokenID,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// CoerceTTLHours turns a loosely typed hours value into a usable lifetime.
// Missing, non-numeric (booleans included) and non-positive input yield the default.
func (s *TokenService) CoerceTTLHours(raw interface{}) float64 {
	switch raw.(type) {
	case nil, bool:
		return s.defaultHours
	}
	hours, err := cast.ToFloat64E(raw)
	if err != nil {
		return s.defaultHours
	}
	return s.normalizeHours(hours)
}

func (s *TokenService) normalizeHours(hours float64) float64 {
	if math.IsNaN(hours) || math.IsInf(hours, 0) || hours <= 0 {
		return s.defaultHours
	}
	return math.Min(hours, maxTTLHours)
}

// Issue mints a new token that expires ttlHours from now and persists it.
func (s *TokenService) Issue(ctx context.Context, ttlHours float64) (*model.IssuedToken, error) {
	hours := s.normalizeHours(ttlHours)
	expiresAt := s.now().UnixMilli() + int64(hours*float64(time.Hour/time.Millisecond))

	var issued model.IssuedToken
	err := s.store.Update(ctx, func(table model.TokenTable) (bool, error) {
		for attempt := 0; attempt < maxIDAttempts; attempt++ {
			id, err := s.newID()
			if err != nil {
				return false, err
			}
			if _, taken := table[id]; taken {
				continue
			}
			table[id] = model.TokenRecord{ExpiresAt: expiresAt}
			issued = model.IssuedToken{Token: id, ExpiresAt: expiresAt}
			return true, nil
		}
		return false, ErrTokenIDSpace
	})
	if err != nil {
		logger.Log.WithError(err).Error("Failed to issue access token")
		return nil, fmt.Errorf("could not issue token: %w", err)
	}

	logger.Log.WithFields(logrus.Fields{
		"token":      redact(issued.Token),
		"hours":      hours,
		"expires_at": expiresAt,
	}).Info("Access token issued")
	return &issued, nil
}

// Validate returns nil for a live token, ErrTokenNotFound or ErrTokenExpired
// for a denial, and a wrapped storage error otherwise.
func (s *TokenService) Validate(ctx context.Context, token string) error {
	if token == "" {
		return ErrTokenNotFound
	}
	log := logger.Log.WithField("token", redact(token))
	now := s.now()

	table, err := s.store.Load(ctx)
	if err != nil {
		return fmt.Errorf("could not load tokens: %w", err)
	}

	rec, ok := table[token]
	if !ok {
		log.Info("Access denied for unknown token")
		return ErrTokenNotFound
	}
	if !rec.ExpiredAt(now) {
		return nil
	}

	log.WithField("expires_at", rec.ExpiresAt).Info("Access denied for expired token")
	if !s.evictExpired {
		return ErrTokenExpired
	}

	err = s.store.Update(ctx, func(table model.TokenTable) (bool, error) {
		current, ok := table[token]
		if !ok || !current.ExpiredAt(now) {
			return false, nil
		}
		delete(table, token)
		return true, nil
	})
	if err != nil {
		return fmt.Errorf("could not evict expired token: %w", err)
	}
	return ErrTokenExpired
}

// Sweep deletes every expired record and returns how many were removed.
func (s *TokenService) Sweep(ctx context.Context) (int, error) {
	now := s.now()
	removed := 0
	err := s.store.Update(ctx, func(table model.TokenTable) (bool, error) {
		removed = 0
		for token, rec := range table {
			if rec.ExpiredAt(now) {
				delete(table, token)
				removed++
			}
		}
		return removed > 0, nil
	})
	if err != nil {
		return 0, fmt.Errorf("could not sweep tokens: %w", err)
	}
	if removed > 0 {
		logger.Log.WithField("removed", removed).Info("Expired access tokens swept")
	}
	return removed, nil
}

func redact(token string) string {
	if len(token) <= 8 {
		return token
	}
	return token[:8]
}
