// file: model/session.go

package model

import "github.com/golang-jwt/jwt/v5"

// AdminSession is the per-client session attached to each request.
type AdminSession struct {
	ID      string
	IsAdmin bool
}

// SessionClaims is the signed cookie representation of an AdminSession.
type SessionClaims struct {
	SessionID string `json:"sid"`
	IsAdmin   bool   `json:"is_admin"`
	jwt.RegisteredClaims
}
