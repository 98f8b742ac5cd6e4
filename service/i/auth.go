package i

import (
	dmn "github.com/beka-birhanu/profesores-api/domain"
	"github.com/google/uuid"
)

// Authenticator registers users and issues access tokens.
type Authenticator interface {
	Register(username, password string) error
	SignIn(username, password string) (*dmn.User, string, error)
}

// Identifier resolves an access token to the verified user it was issued for.
type Identifier interface {
	Identify(token string) (uuid.UUID, string, error)
}
