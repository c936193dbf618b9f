// file: model/request.go

package model

// AdminLoginRequest defines the payload for admin authentication.
type AdminLoginRequest struct {
	Password string `json:"password" validate:"max=1024"`
}

// CreateLinkRequest carries the optional lifetime of a new link in hours.
// Hours is left untyped so strings and junk values can fall back to the default.
type CreateLinkRequest struct {
	Hours interface{} `json:"hours" swaggertype:"number"`
}

// LinkResponse is returned by both link creation endpoints.
type LinkResponse struct {
	Link string `json:"link"`
}

type StatusResponse struct {
	Status string `json:"status"`
}
