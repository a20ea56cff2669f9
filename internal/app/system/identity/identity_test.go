package identity

import (
	"errors"
	"strings"
	"testing"

	"github.com/ag863k/Flowmatic-pm/internal/domain/models"
)

func TestFromGoogle(t *testing.T) {
	tests := []struct {
		name    string
		in      GoogleProfile
		wantID  string
		wantErr error
	}{
		{"sub", GoogleProfile{Sub: "123", Email: "a@example.com", Name: "A"}, "123", nil},
		{"legacy id", GoogleProfile{ID: "456", Email: "a@example.com"}, "456", nil},
		{"sub wins", GoogleProfile{Sub: "1", ID: "2", Email: "a@example.com"}, "1", nil},
		{"no id", GoogleProfile{Email: "a@example.com"}, "", ErrMissingID},
		{"blank id", GoogleProfile{Sub: "  ", Email: "a@example.com"}, "", ErrMissingID},
		{"no email", GoogleProfile{Sub: "123"}, "", ErrMissingEmail},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := FromGoogle(tt.in)
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("err = %v, want %v", err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("FromGoogle: %v", err)
			}
			if got.ProviderID != tt.wantID || got.Provider != models.ProviderGoogle {
				t.Errorf("got %+v", got)
			}
		})
	}
}

func TestFromGoogle_PassesOptionalFields(t *testing.T) {
	got, err := FromGoogle(GoogleProfile{Sub: "1", Email: "a@example.com"})
	if err != nil {
		t.Fatal(err)
	}
	if got.DisplayName != "" || got.Picture != "" {
		t.Errorf("optional fields should stay empty: %+v", got)
	}
}

func TestDecodeGoogleProfile(t *testing.T) {
	p, err := DecodeGoogleProfile(strings.NewReader(`{"sub":"9","email":"g@example.com","name":"G","picture":"https://x/p.png","email_verified":true}`))
	if err != nil {
		t.Fatalf("DecodeGoogleProfile: %v", err)
	}
	if p.Sub != "9" || p.Email != "g@example.com" || p.Picture != "https://x/p.png" {
		t.Errorf("got %+v", p)
	}
	if _, err := DecodeGoogleProfile(strings.NewReader("not json")); err == nil {
		t.Error("expected error for bad JSON")
	}
}
