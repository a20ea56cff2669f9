package auth

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/ag863k/Flowmatic-pm/internal/domain/models"
	"github.com/gorilla/securecookie"
	"github.com/gorilla/sessions"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

const (
	// TokenCookieName carries the access token.
	TokenCookieName = "authToken"

	// oauthMaxAge bounds the browser binding that survives the Google redirect.
	oauthMaxAge = 10 * 60

	oauthStateKey  = "oauth_state"
	oauthReturnKey = "oauth_return"
)

// UserLoader resolves the user named by a token.
type UserLoader interface {
	GetByID(ctx context.Context, id primitive.ObjectID) (*models.User, error)
}

// SessionUser is the authenticated user injected into r.Context().
type SessionUser struct {
	ID               string
	Name             string
	Email            string
	CurrentWorkspace string
}

// ObjectID returns the user's id, or NilObjectID if the hex is malformed.
func (u *SessionUser) ObjectID() primitive.ObjectID {
	id, err := primitive.ObjectIDFromHex(u.ID)
	if err != nil {
		return primitive.NilObjectID
	}
	return id
}

type ctxKey string

const currentUserKey ctxKey = "currentUser"

// SessionManager issues the access-token cookie, authenticates requests and
// keeps the short-lived OAuth binding cookie.
type SessionManager struct {
	tokens      *TokenIssuer
	users       UserLoader
	oauthStore  *sessions.CookieStore
	sessionName string
	domain      string
	secure      bool
	logger      *zap.Logger
}

// NewSessionManager wires the token issuer and the cookie store used for the
// OAuth binding. secure marks cookies Secure with SameSite=None; otherwise
// SameSite=Lax so plain-http local development works.
func NewSessionManager(tokens *TokenIssuer, users UserLoader, sessionKey, sessionName, domain string, secure bool, logger *zap.Logger) (*SessionManager, error) {
	if tokens == nil {
		return nil, errors.New("token issuer is required")
	}
	if sessionKey == "" {
		return nil, fmt.Errorf("session key is empty; provide ≥32 random chars")
	}
	if len(sessionKey) < 32 {
		logger.Warn("session key is short; 32+ chars recommended",
			zap.Int("length", len(sessionKey)))
	}
	if sessionName == "" {
		sessionName = "flowmatic-oauth"
	}

	store := sessions.NewCookieStore([]byte(sessionKey))
	store.Options = &sessions.Options{
		Domain:   domain,
		Path:     "/",
		MaxAge:   oauthMaxAge,
		Secure:   secure,
		HttpOnly: true,
		SameSite: sameSite(secure),
	}

	logger.Info("session manager initialized",
		zap.Bool("secure", secure),
		zap.String("domain", domain),
		zap.Duration("token_ttl", tokens.TTL()))

	return &SessionManager{
		tokens:      tokens,
		users:       users,
		oauthStore:  store,
		sessionName: sessionName,
		domain:      domain,
		secure:      secure,
		logger:      logger,
	}, nil
}

func sameSite(secure bool) http.SameSite {
	if secure {
		return http.SameSiteNoneMode
	}
	return http.SameSiteLaxMode
}

// Tokens exposes the issuer.
func (sm *SessionManager) Tokens() *TokenIssuer { return sm.tokens }

// SignIn issues a token for userID and sets it as the auth cookie. The token is
// also returned so API clients can use it as a bearer token.
func (sm *SessionManager) SignIn(w http.ResponseWriter, userID primitive.ObjectID) (string, error) {
	tok, exp, err := sm.tokens.Issue(userID)
	if err != nil {
		return "", err
	}
	http.SetCookie(w, &http.Cookie{
		Name:     TokenCookieName,
		Value:    tok,
		Path:     "/",
		Domain:   sm.domain,
		Expires:  exp,
		MaxAge:   int(time.Until(exp).Seconds()),
		HttpOnly: true,
		Secure:   sm.secure,
		SameSite: sameSite(sm.secure),
	})
	return tok, nil
}

// SignOut clears the auth cookie.
func (sm *SessionManager) SignOut(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     TokenCookieName,
		Value:    "",
		Path:     "/",
		Domain:   sm.domain,
		MaxAge:   -1,
		Expires:  time.Unix(0, 0),
		HttpOnly: true,
		Secure:   sm.secure,
		SameSite: sameSite(sm.secure),
	})
}

// LoadSessionUser authenticates the request from the auth cookie or an
// Authorization bearer header and injects the user into the context. Invalid
// tokens and unknown users leave the request anonymous.
func (sm *SessionManager) LoadSessionUser(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		raw := tokenFromRequest(r)
		if raw == "" {
			next.ServeHTTP(w, r)
			return
		}

		uid, err := sm.tokens.Parse(raw)
		if err != nil {
			next.ServeHTTP(w, r)
			return
		}

		u, err := sm.users.GetByID(r.Context(), uid)
		if err != nil || u == nil {
			if err != nil {
				sm.logger.Debug("token user not loaded", zap.String("user_id", uid.Hex()), zap.Error(err))
			}
			next.ServeHTTP(w, r)
			return
		}

		su := &SessionUser{ID: u.ID.Hex(), Name: u.Name, Email: u.Email}
		if u.CurrentWorkspace != nil {
			su.CurrentWorkspace = u.CurrentWorkspace.Hex()
		}
		next.ServeHTTP(w, withUser(r, su))
	})
}

// RequireSignedIn rejects anonymous requests with 401 JSON.
func (sm *SessionManager) RequireSignedIn(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if _, ok := CurrentUser(r); ok {
			next.ServeHTTP(w, r)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusUnauthorized)
		_ = json.NewEncoder(w).Encode(map[string]string{
			"message":   "Unauthorized. Please log in.",
			"errorCode": "ACCESS_UNAUTHORIZED",
		})
	})
}

// SaveOAuthBinding stores the CSRF state and return target in the browser
// before redirecting to the identity provider.
func (sm *SessionManager) SaveOAuthBinding(w http.ResponseWriter, r *http.Request, state, returnURL string) error {
	sess, err := sm.oauthStore.Get(r, sm.sessionName)
	if err != nil && !isDecodeErr(err) {
		return err
	}
	sess.Values[oauthStateKey] = state
	sess.Values[oauthReturnKey] = returnURL
	return sess.Save(r, w)
}

// PopOAuthBinding returns the stored state and return target and clears the
// binding cookie. ok is false when no binding is present.
func (sm *SessionManager) PopOAuthBinding(w http.ResponseWriter, r *http.Request) (state, returnURL string, ok bool) {
	sess, err := sm.oauthStore.Get(r, sm.sessionName)
	if err != nil {
		if !isDecodeErr(err) {
			sm.logger.Warn("oauth binding read failed", zap.Error(err))
		}
		return "", "", false
	}
	state, _ = sess.Values[oauthStateKey].(string)
	returnURL, _ = sess.Values[oauthReturnKey].(string)

	sess.Options.MaxAge = -1
	if err := sess.Save(r, w); err != nil {
		sm.logger.Warn("oauth binding clear failed", zap.Error(err))
	}
	return state, returnURL, state != ""
}

// CurrentUser returns the authenticated user and a found flag.
func CurrentUser(r *http.Request) (*SessionUser, bool) {
	u, ok := r.Context().Value(currentUserKey).(*SessionUser)
	return u, ok && u != nil
}

// WithTestUser injects u as the current user. Used by handler tests.
func WithTestUser(r *http.Request, u *SessionUser) *http.Request {
	return withUser(r, u)
}

func withUser(r *http.Request, u *SessionUser) *http.Request {
	return r.WithContext(context.WithValue(r.Context(), currentUserKey, u))
}

func tokenFromRequest(r *http.Request) string {
	if c, err := r.Cookie(TokenCookieName); err == nil && c.Value != "" {
		return c.Value
	}
	h := r.Header.Get("Authorization")
	if len(h) > 7 && strings.EqualFold(h[:7], "bearer ") {
		return strings.TrimSpace(h[7:])
	}
	return ""
}

// isDecodeErr reports a cookie that could not be decoded, e.g. after the
// session key rotated. Such cookies are treated as absent.
func isDecodeErr(err error) bool {
	var se securecookie.Error
	return errors.As(err, &se) && se.IsDecode()
}
