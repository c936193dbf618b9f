package service

import (
	"crypto/subtle"
	"go-access-gate/logger"

	"golang.org/x/crypto/bcrypt"
)

// CredentialVerifier decides whether a supplied admin credential is acceptable.
type CredentialVerifier interface {
	Verify(credential string) bool
}

// ConstantTimeVerifier compares against a plain configured secret.
type ConstantTimeVerifier struct {
	secret []byte
}

func NewConstantTimeVerifier(secret string) *ConstantTimeVerifier {
	return &ConstantTimeVerifier{secret: []byte(secret)}
}

func (v *ConstantTimeVerifier) Verify(credential string) bool {
	if len(v.secret) == 0 {
		return false
	}
	return subtle.ConstantTimeCompare(v.secret, []byte(credential)) == 1
}

// BcryptVerifier compares against a bcrypt hash of the secret.
type BcryptVerifier struct {
	hash []byte
}

func NewBcryptVerifier(hash string) *BcryptVerifier {
	return &BcryptVerifier{hash: []byte(hash)}
}

func (v *BcryptVerifier) Verify(credential string) bool {
	return bcrypt.CompareHashAndPassword(v.hash, []byte(credential)) == nil
}

func HashPassword(password string, cost int) (string, error) {
	bytes, err := bcrypt.GenerateFromPassword([]byte(password), cost)
	if err != nil {
		logger.Log.WithError(err).Error("Failed to hash password")
		return "", err
	}
	return string(bytes), nil
}
