// internal/app/bootstrap/appconfig.go
package bootstrap

import "time"

// AppConfig holds service-specific configuration for this WAFFLE app.
//
// These values come from environment variables, configuration files, or
// command-line flags (loaded in LoadConfig). WAFFLE's CoreConfig covers the
// framework side (ports, TLS, log level); everything Flowmatic needs lives
// here and is passed to every lifecycle hook.
type AppConfig struct {
	// MongoDB connection configuration
	MongoURI         string // MongoDB connection string (e.g., mongodb://localhost:27017)
	MongoDatabase    string // Database name within MongoDB
	MongoMaxPoolSize uint64
	MongoMinPoolSize uint64
	MongoTxnFallback bool // run transactional writes without a transaction on standalone servers (dev only)

	// Access token
	JWTSecret string
	JWTTTL    time.Duration

	// OAuth binding cookie
	SessionKey    string
	SessionName   string
	SessionDomain string // blank means current host

	// Google OAuth
	GoogleClientID     string
	GoogleClientSecret string

	BaseURL                   string // public URL of this API, used for the OAuth redirect
	FrontendOrigin            string // allowed CORS origin and post-login redirect target
	FrontendGoogleCallbackURL string // where failed Google logins land

	// Audit logging destinations: all, db, log, off
	AuditLogAuth  string
	AuditLogAdmin string

	// Login/register throttling per client IP
	LoginRateLimit  int
	LoginRateWindow time.Duration

	// Database deadlines; zero keeps the built-in defaults
	TimeoutShort  time.Duration
	TimeoutMedium time.Duration
	TimeoutLong   time.Duration

	OAuthStateCleanupInterval time.Duration
}
