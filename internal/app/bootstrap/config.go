// internal/app/bootstrap/config.go
package bootstrap

import (
	"errors"
	"fmt"
	"net/url"
	"time"

	"github.com/ag863k/Flowmatic-pm/internal/app/system/auditlog"
	"github.com/dalemusser/waffle/config"
	wafflemongo "github.com/dalemusser/waffle/pantry/mongo"
	"go.uber.org/zap"
)

const (
	defaultJWTSecret  = "dev-only-jwt-secret-change-me"
	defaultSessionKey = "dev-only-change-me-please-0123456789ABCDEF"
)

// appConfigKeys defines the configuration keys for Flowmatic.
// These are loaded via WAFFLE's config system with support for:
//   - Config files: mongo_uri, jwt_secret, etc.
//   - Environment variables: FLOWMATIC_MONGO_URI, FLOWMATIC_JWT_SECRET, etc.
//   - Command-line flags: --mongo_uri, --jwt_secret, etc.
var appConfigKeys = []config.AppKey{
	{Name: "mongo_uri", Default: "mongodb://localhost:27017", Desc: "MongoDB connection URI"},
	{Name: "mongo_database", Default: "flowmatic", Desc: "MongoDB database name"},
	{Name: "mongo_max_pool_size", Default: 100, Desc: "MongoDB max connection pool size"},
	{Name: "mongo_min_pool_size", Default: 5, Desc: "MongoDB min connection pool size"},
	{Name: "mongo_txn_fallback", Default: false, Desc: "Run transactional writes without a transaction when the server is standalone (dev only)"},

	{Name: "jwt_secret", Default: defaultJWTSecret, Desc: "HMAC secret for access tokens (required in production)"},
	{Name: "jwt_ttl", Default: "168h", Desc: "Access token lifetime"},

	{Name: "session_key", Default: defaultSessionKey, Desc: "Signing key for the OAuth binding cookie"},
	{Name: "session_name", Default: "flowmatic-oauth", Desc: "OAuth binding cookie name"},
	{Name: "session_domain", Default: "", Desc: "Cookie domain (blank means current host)"},

	{Name: "google_client_id", Default: "", Desc: "Google OAuth2 client ID"},
	{Name: "google_client_secret", Default: "", Desc: "Google OAuth2 client secret"},

	{Name: "base_url", Default: "http://localhost:8000", Desc: "Public base URL of this API"},
	{Name: "frontend_origin", Default: "http://localhost:5173", Desc: "Front-end origin for CORS and login redirects"},
	{Name: "frontend_google_callback_url", Default: "http://localhost:5173/google/oauth/callback", Desc: "Front-end page that receives failed Google logins"},

	{Name: "audit_log_auth", Default: "all", Desc: "Auth event logging: 'all' (db+log), 'db', 'log', or 'off'"},
	{Name: "audit_log_admin", Default: "all", Desc: "Membership event logging: 'all' (db+log), 'db', 'log', or 'off'"},

	{Name: "login_rate_limit", Default: 10, Desc: "Login/register attempts allowed per client IP per window"},
	{Name: "login_rate_window", Default: "1m", Desc: "Window for login_rate_limit"},

	{Name: "timeout_short", Default: "", Desc: "Deadline for single-document reads (blank keeps default)"},
	{Name: "timeout_medium", Default: "", Desc: "Deadline for list queries and simple writes (blank keeps default)"},
	{Name: "timeout_long", Default: "", Desc: "Deadline for transactional work (blank keeps default)"},

	{Name: "oauth_state_cleanup_interval", Default: "15m", Desc: "How often expired OAuth state tokens are swept"},
}

// LoadConfig loads WAFFLE core config and app-specific config.
//
// WAFFLE's config.LoadWithAppConfig merges .env files, config files,
// FLOWMATIC_* environment variables and flags with precedence
// flags > env > files > defaults.
func LoadConfig(logger *zap.Logger) (*config.CoreConfig, AppConfig, error) {
	coreCfg, appValues, err := config.LoadWithAppConfig(logger, "FLOWMATIC", appConfigKeys)
	if err != nil {
		return nil, AppConfig{}, err
	}

	appCfg := AppConfig{
		MongoURI:         appValues.String("mongo_uri"),
		MongoDatabase:    appValues.String("mongo_database"),
		MongoMaxPoolSize: uint64(appValues.Int("mongo_max_pool_size")),
		MongoMinPoolSize: uint64(appValues.Int("mongo_min_pool_size")),
		MongoTxnFallback: appValues.Bool("mongo_txn_fallback"),

		JWTSecret: appValues.String("jwt_secret"),
		JWTTTL:    appValues.Duration("jwt_ttl", 7*24*time.Hour),

		SessionKey:    appValues.String("session_key"),
		SessionName:   appValues.String("session_name"),
		SessionDomain: appValues.String("session_domain"),

		GoogleClientID:     appValues.String("google_client_id"),
		GoogleClientSecret: appValues.String("google_client_secret"),

		BaseURL:                   appValues.String("base_url"),
		FrontendOrigin:            appValues.String("frontend_origin"),
		FrontendGoogleCallbackURL: appValues.String("frontend_google_callback_url"),

		AuditLogAuth:  appValues.String("audit_log_auth"),
		AuditLogAdmin: appValues.String("audit_log_admin"),

		LoginRateLimit:  appValues.Int("login_rate_limit"),
		LoginRateWindow: appValues.Duration("login_rate_window", time.Minute),

		TimeoutShort:  appValues.Duration("timeout_short", 0),
		TimeoutMedium: appValues.Duration("timeout_medium", 0),
		TimeoutLong:   appValues.Duration("timeout_long", 0),

		OAuthStateCleanupInterval: appValues.Duration("oauth_state_cleanup_interval", 15*time.Minute),
	}

	return coreCfg, appCfg, nil
}

// ValidateConfig performs app-specific config validation.
//
// Return nil to accept the loaded config, or an error to abort startup.
func ValidateConfig(coreCfg *config.CoreConfig, appCfg AppConfig, logger *zap.Logger) error {
	if err := wafflemongo.ValidateURI(appCfg.MongoURI); err != nil {
		logger.Error("invalid MongoDB URI", zap.Error(err))
		return fmt.Errorf("invalid MongoDB URI: %w", err)
	}
	if appCfg.MongoDatabase == "" {
		return errors.New("mongo_database must be set")
	}

	prod := coreCfg != nil && coreCfg.Env == "prod"
	if appCfg.JWTSecret == "" || (prod && appCfg.JWTSecret == defaultJWTSecret) {
		return errors.New("jwt_secret must be set to a non-default value")
	}
	if prod && appCfg.SessionKey == defaultSessionKey {
		return errors.New("session_key must be changed in production")
	}
	if prod && appCfg.MongoTxnFallback {
		return errors.New("mongo_txn_fallback is for development only")
	}
	if appCfg.JWTTTL <= 0 {
		return fmt.Errorf("jwt_ttl must be positive, got %s", appCfg.JWTTTL)
	}

	for key, v := range map[string]string{"audit_log_auth": appCfg.AuditLogAuth, "audit_log_admin": appCfg.AuditLogAdmin} {
		if !auditlog.IsValidDest(v) {
			return fmt.Errorf("%s: unknown destination %q (want all, db, log or off)", key, v)
		}
	}

	if !absoluteHTTP(appCfg.BaseURL) {
		return fmt.Errorf("base_url must be an absolute http(s) URL, got %q", appCfg.BaseURL)
	}
	origins := splitOrigins(appCfg.FrontendOrigin)
	if len(origins) == 0 {
		return errors.New("frontend_origin must be set")
	}
	for _, o := range origins {
		if !absoluteHTTP(o) {
			return fmt.Errorf("frontend_origin entries must be absolute http(s) URLs, got %q", o)
		}
	}

	if (appCfg.GoogleClientID == "") != (appCfg.GoogleClientSecret == "") {
		logger.Warn("google OAuth partially configured; sign-in with Google stays disabled")
	}

	return nil
}

func absoluteHTTP(v string) bool {
	u, err := url.Parse(v)
	return err == nil && (u.Scheme == "http" || u.Scheme == "https") && u.Host != ""
}
