// Package identity translates external provider profiles into onboarding
// identities.
package identity

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/ag863k/Flowmatic-pm/internal/app/system/onboarding"
	"github.com/ag863k/Flowmatic-pm/internal/domain/models"
)

var (
	ErrMissingID    = errors.New("provider profile has no id")
	ErrMissingEmail = errors.New("provider profile has no email")
)

// GoogleProfile is the subset of Google's userinfo response we use. The v3
// endpoint reports the account id as "sub", the v2 endpoint as "id".
type GoogleProfile struct {
	Sub     string `json:"sub"`
	ID      string `json:"id"`
	Email   string `json:"email"`
	Name    string `json:"name"`
	Picture string `json:"picture"`
}

// DecodeGoogleProfile reads a userinfo JSON document.
func DecodeGoogleProfile(r io.Reader) (GoogleProfile, error) {
	var p GoogleProfile
	if err := json.NewDecoder(io.LimitReader(r, 1<<20)).Decode(&p); err != nil {
		return GoogleProfile{}, fmt.Errorf("decode google profile: %w", err)
	}
	return p, nil
}

// FromGoogle requires an account id and an email; name and picture pass
// through as given. A missing name is filled in when the user is created.
func FromGoogle(p GoogleProfile) (onboarding.Identity, error) {
	id := strings.TrimSpace(p.Sub)
	if id == "" {
		id = strings.TrimSpace(p.ID)
	}
	if id == "" {
		return onboarding.Identity{}, ErrMissingID
	}
	email := strings.TrimSpace(p.Email)
	if email == "" {
		return onboarding.Identity{}, ErrMissingEmail
	}
	return onboarding.Identity{
		Provider:    models.ProviderGoogle,
		ProviderID:  id,
		DisplayName: p.Name,
		Email:       email,
		Picture:     p.Picture,
	}, nil
}
