// file: model/token.go

package model

import "time"

// TokenRecord is the persisted metadata of one access token.
type TokenRecord struct {
	ExpiresAt int64 `json:"expiresAt"` // milliseconds since epoch
}

// ExpiredAt reports whether the record is past its expiry at now.
// A token is still valid at exactly ExpiresAt.
func (r TokenRecord) ExpiredAt(now time.Time) bool {
	return now.UnixMilli() > r.ExpiresAt
}

// TokenTable is the full mapping of token id to record as stored on disk.
type TokenTable map[string]TokenRecord

// IssuedToken is returned when a new access token is minted.
type IssuedToken struct {
	Token     string `json:"token"`
	ExpiresAt int64  `json:"expiresAt"`
}
