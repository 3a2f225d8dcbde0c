package auth

import (
	"errors"
	"strings"

	"github.com/xyz-asif/lostfound/internal/pkg/validator"
)

// ValidateRegister trims the username and checks its characters.
// Lengths are enforced by the binding tags on RegisterRequest.
func ValidateRegister(req *RegisterRequest) error {
	req.Username = strings.TrimSpace(req.Username)

	if !validator.IsValidUsername(req.Username) {
		return errors.New("username must be 3-20 characters of letters, numbers, underscores or hyphens")
	}
	return nil
}
