// internal/app/features/authgoogle/handler.go
package authgoogle

import (
	"context"
	"crypto/rand"
	"crypto/subtle"
	"encoding/base64"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/ag863k/Flowmatic-pm/internal/app/store/oauthstate"
	userstore "github.com/ag863k/Flowmatic-pm/internal/app/store/users"
	"github.com/ag863k/Flowmatic-pm/internal/app/system/auditlog"
	"github.com/ag863k/Flowmatic-pm/internal/app/system/auth"
	"github.com/ag863k/Flowmatic-pm/internal/app/system/identity"
	"github.com/ag863k/Flowmatic-pm/internal/app/system/metrics"
	"github.com/ag863k/Flowmatic-pm/internal/app/system/onboarding"
	"github.com/ag863k/Flowmatic-pm/internal/app/system/timeouts"
	"github.com/ag863k/Flowmatic-pm/internal/domain/models"
	"github.com/dalemusser/waffle/pantry/query"
	"github.com/dalemusser/waffle/pantry/urlutil"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
)

// UserinfoURL is Google's OpenID Connect userinfo endpoint.
const UserinfoURL = "https://openidconnect.googleapis.com/v1/userinfo"

// stateTTL bounds how long a user may take on Google's consent screen.
const stateTTL = 10 * time.Minute

// Failure codes sent to the front end as ?error=.
const (
	failNotConfigured = "google_not_configured"
	failDenied        = "google_denied"
	failInvalidState  = "invalid_state"
	failTokenExchange = "token_exchange"
	failUserNotFound  = "user_not_found"
	failNoWorkspace   = "no_workspace"
	failInternal      = "internal"
)

// Config holds the OAuth client and front-end redirect targets.
type Config struct {
	ClientID     string
	ClientSecret string
	BaseURL      string // API origin; the callback is BaseURL + "/api/auth/google/callback"

	FrontendOrigin      string // success redirects go to FrontendOrigin + "/workspace/<id>"
	FrontendCallbackURL string // failure redirects go here with ?status=failure
}

// Handler handles Google OAuth authentication.
type Handler struct {
	Log        *zap.Logger
	SessionMgr *auth.SessionManager
	AuditLog   *auditlog.Logger
	Metrics    *metrics.Metrics
	StateStore *oauthstate.Store
	Onboarding *onboarding.Service
	Users      *userstore.Store
	Config     Config

	// Exchange and FetchProfile talk to Google; tests replace them.
	Exchange     func(ctx context.Context, code string) (*oauth2.Token, error)
	FetchProfile func(ctx context.Context, tok *oauth2.Token) (identity.GoogleProfile, error)
}

// NewHandler creates a new Google OAuth handler.
func NewHandler(
	db *mongo.Database,
	sessionMgr *auth.SessionManager,
	audit *auditlog.Logger,
	m *metrics.Metrics,
	cfg Config,
	logger *zap.Logger,
) *Handler {
	h := &Handler{
		Log:        logger,
		SessionMgr: sessionMgr,
		AuditLog:   audit,
		Metrics:    m,
		StateStore: oauthstate.New(db),
		Onboarding: onboarding.New(db, logger),
		Users:      userstore.New(db),
		Config:     cfg,
	}
	h.Exchange = func(ctx context.Context, code string) (*oauth2.Token, error) {
		return h.oauth2Config().Exchange(ctx, code)
	}
	h.FetchProfile = h.fetchProfile
	return h
}

func (h *Handler) oauth2Config() *oauth2.Config {
	return &oauth2.Config{
		ClientID:     h.Config.ClientID,
		ClientSecret: h.Config.ClientSecret,
		RedirectURL:  strings.TrimRight(h.Config.BaseURL, "/") + "/api/auth/google/callback",
		Scopes:       []string{"openid", "email", "profile"},
		Endpoint:     google.Endpoint,
	}
}

// IsConfigured returns true if Google OAuth is configured.
func (h *Handler) IsConfigured() bool {
	return h.Config.ClientID != "" && h.Config.ClientSecret != ""
}

/*─────────────────────────────────────────────────────────────────────────────*
| GET /api/auth/google                                                         |
| Redirects to Google's consent screen.                                        |
*─────────────────────────────────────────────────────────────────────────────*/

func (h *Handler) ServeLogin(w http.ResponseWriter, r *http.Request) {
	if !h.IsConfigured() {
		h.Log.Warn("Google OAuth not configured")
		h.fail(w, r, failNotConfigured)
		return
	}

	state, err := generateState()
	if err != nil {
		h.Log.Error("failed to generate OAuth state", zap.Error(err))
		h.fail(w, r, failInternal)
		return
	}
	returnURL := query.Get(r, "return")

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	if err := h.StateStore.Save(ctx, state, returnURL, time.Now().Add(stateTTL)); err != nil {
		h.Log.Error("failed to save OAuth state", zap.Error(err))
		h.fail(w, r, failInternal)
		return
	}
	if err := h.SessionMgr.SaveOAuthBinding(w, r, state, returnURL); err != nil {
		h.Log.Error("failed to save OAuth binding", zap.Error(err))
		h.fail(w, r, failInternal)
		return
	}

	http.Redirect(w, r, h.oauth2Config().AuthCodeURL(state), http.StatusTemporaryRedirect)
}

/*─────────────────────────────────────────────────────────────────────────────*
| GET /api/auth/google/callback                                                |
| Exchanges the code, resolves the user and signs them in.                     |
*─────────────────────────────────────────────────────────────────────────────*/

func (h *Handler) ServeCallback(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	if errParam := query.Get(r, "error"); errParam != "" {
		h.Log.Warn("Google OAuth error",
			zap.String("error", errParam),
			zap.String("description", query.Get(r, "error_description")))
		h.AuditLog.OAuthLoginFailed(ctx, r, models.ProviderGoogle, "provider returned "+errParam)
		h.fail(w, r, failDenied)
		return
	}

	// The state must match the browser binding and be unused in the store.
	state := query.Get(r, "state")
	bound, returnURL, ok := h.SessionMgr.PopOAuthBinding(w, r)
	if state == "" || !ok || subtle.ConstantTimeCompare([]byte(state), []byte(bound)) != 1 {
		h.Log.Warn("OAuth state does not match browser binding")
		h.AuditLog.OAuthLoginFailed(ctx, r, models.ProviderGoogle, "state mismatch")
		h.fail(w, r, failInvalidState)
		return
	}

	sctx, cancel := context.WithTimeout(ctx, timeouts.Short())
	_, valid, err := h.StateStore.Consume(sctx, state)
	cancel()
	if err != nil {
		h.Log.Error("failed to validate OAuth state", zap.Error(err))
		h.fail(w, r, failInternal)
		return
	}
	if !valid {
		h.Log.Warn("invalid or expired OAuth state")
		h.AuditLog.OAuthLoginFailed(ctx, r, models.ProviderGoogle, "state expired or reused")
		h.fail(w, r, failInvalidState)
		return
	}

	code := query.Get(r, "code")
	if code == "" {
		h.fail(w, r, failTokenExchange)
		return
	}

	lctx, lcancel := context.WithTimeout(ctx, timeouts.Long())
	defer lcancel()

	tok, err := h.Exchange(lctx, code)
	if err != nil {
		h.Log.Error("failed to exchange OAuth code", zap.Error(err))
		h.AuditLog.OAuthLoginFailed(ctx, r, models.ProviderGoogle, "token exchange failed")
		h.fail(w, r, failTokenExchange)
		return
	}

	profile, err := h.FetchProfile(lctx, tok)
	if err != nil {
		h.Log.Error("failed to fetch Google profile", zap.Error(err))
		h.fail(w, r, failUserNotFound)
		return
	}

	id, err := identity.FromGoogle(profile)
	if err != nil {
		h.Log.Warn("Google profile rejected", zap.Error(err))
		h.AuditLog.OAuthLoginFailed(ctx, r, models.ProviderGoogle, err.Error())
		h.Metrics.Auth(models.ProviderGoogle, "failed")
		h.fail(w, r, failUserNotFound)
		return
	}

	u, err := h.Onboarding.LoginOrCreateFromIdentity(lctx, id)
	if err != nil {
		h.Log.Error("Google sign-in failed", zap.Error(err), zap.String("email", id.Email))
		h.AuditLog.OAuthLoginFailed(ctx, r, models.ProviderGoogle, err.Error())
		h.Metrics.Auth(models.ProviderGoogle, "failed")
		h.fail(w, r, failUserNotFound)
		return
	}
	if u.CurrentWorkspace == nil {
		h.fail(w, r, failNoWorkspace)
		return
	}

	if _, err := h.SessionMgr.SignIn(w, u.ID); err != nil {
		h.Log.Error("failed to issue token", zap.Error(err))
		h.fail(w, r, failInternal)
		return
	}
	if err := h.Users.TouchLastLogin(lctx, u.ID); err != nil {
		h.Log.Warn("failed to record last login", zap.Error(err))
	}
	h.Metrics.Auth(models.ProviderGoogle, "success")
	h.AuditLog.OAuthLoginSuccess(ctx, r, u.ID, u.CurrentWorkspace, models.ProviderGoogle)

	dest := urlutil.SafeReturn(returnURL, "", "/workspace/"+u.CurrentWorkspace.Hex())
	http.Redirect(w, r, h.frontend(dest, url.Values{"status": {"success"}}), http.StatusSeeOther)
}

/*─────────────────────────────────────────────────────────────────────────────*
| Helpers                                                                      |
*─────────────────────────────────────────────────────────────────────────────*/

// fail redirects to the front end's Google callback page with an error code.
func (h *Handler) fail(w http.ResponseWriter, r *http.Request, code string) {
	dest := h.Config.FrontendCallbackURL
	if dest == "" {
		dest = h.frontend("/", nil)
	}
	http.Redirect(w, r, appendQuery(dest, url.Values{"status": {"failure"}, "error": {code}}), http.StatusSeeOther)
}

func (h *Handler) frontend(path string, q url.Values) string {
	return appendQuery(strings.TrimRight(h.Config.FrontendOrigin, "/")+path, q)
}

func appendQuery(dest string, q url.Values) string {
	if len(q) == 0 {
		return dest
	}
	sep := "?"
	if strings.Contains(dest, "?") {
		sep = "&"
	}
	return dest + sep + q.Encode()
}

func (h *Handler) fetchProfile(ctx context.Context, tok *oauth2.Token) (identity.GoogleProfile, error) {
	resp, err := h.oauth2Config().Client(ctx, tok).Get(UserinfoURL)
	if err != nil {
		return identity.GoogleProfile{}, fmt.Errorf("fetch user info: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return identity.GoogleProfile{}, fmt.Errorf("user info: unexpected status %d", resp.StatusCode)
	}
	return identity.DecodeGoogleProfile(resp.Body)
}

// generateState creates a cryptographically secure random state string.
func generateState() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}
