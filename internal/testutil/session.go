package testutil

import (
	"net/http"
	"testing"
	"time"

	userstore "github.com/ag863k/Flowmatic-pm/internal/app/store/users"
	"github.com/ag863k/Flowmatic-pm/internal/app/system/auth"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

// TestSessionKey is a fixed cookie-store key for tests.
const TestSessionKey = "test-session-key-for-testing-only-0123456789"

// NewSessionManager builds a non-secure session manager that loads users
// from db.
func NewSessionManager(t *testing.T, db *mongo.Database) *auth.SessionManager {
	t.Helper()
	tokens, err := auth.NewTokenIssuer("test-jwt-secret", time.Hour)
	if err != nil {
		t.Fatalf("NewTokenIssuer: %v", err)
	}
	sm, err := auth.NewSessionManager(tokens, userstore.NewFetcher(db), TestSessionKey, "test-oauth", "", false, zap.NewNop())
	if err != nil {
		t.Fatalf("NewSessionManager: %v", err)
	}
	return sm
}

// Cookie returns the named cookie set on the response, or nil.
func (r *ResponseRecorder) Cookie(name string) *http.Cookie {
	for _, c := range r.Result().Cookies() {
		if c.Name == name {
			return c
		}
	}
	return nil
}
