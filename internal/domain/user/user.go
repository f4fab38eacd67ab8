package user

import "github.com/geocoder89/clubhub/internal/apperr"

const RoleAdmin = "admin"

// Actor is the authenticated caller as asserted by the access token.
type Actor struct {
	ID    string `json:"id"`
	Email string `json:"email"`
	Name  string `json:"name"`
	Role  string `json:"role"`
}

func (a Actor) IsAdmin() bool {
	return a.Role == RoleAdmin
}

var ErrForbidden = apperr.New(apperr.Authorization, "you do not have permission to do that")

func (a Actor) RequireAdmin() error {
	if !a.IsAdmin() {
		return ErrForbidden
	}
	return nil
}
