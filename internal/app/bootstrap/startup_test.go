package bootstrap

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/ag863k/Flowmatic-pm/internal/app/system/auth"
	"github.com/ag863k/Flowmatic-pm/internal/app/system/timeouts"
	"github.com/ag863k/Flowmatic-pm/internal/testutil"
	"github.com/dalemusser/waffle/config"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

func testLogger() *zap.Logger {
	return zap.NewNop()
}

func validConfig() AppConfig {
	return AppConfig{
		MongoURI:                  "mongodb://localhost:27017",
		MongoDatabase:             "flowmatic_test",
		JWTSecret:                 "test-secret",
		JWTTTL:                    7 * 24 * time.Hour,
		SessionKey:                "test-session-key-0123456789ABCDEF0123456789",
		SessionName:               "flowmatic-oauth",
		BaseURL:                   "http://localhost:8000",
		FrontendOrigin:            "http://localhost:5173",
		FrontendGoogleCallbackURL: "http://localhost:5173/google/oauth/callback",
		AuditLogAuth:              "log",
		AuditLogAdmin:             "off",
		LoginRateLimit:            10,
		LoginRateWindow:           time.Minute,
		OAuthStateCleanupInterval: time.Hour,
	}
}

func TestValidateConfig(t *testing.T) {
	tests := []struct {
		name    string
		env     string
		mutate  func(*AppConfig)
		wantErr bool
	}{
		{name: "valid dev", env: "dev", mutate: func(*AppConfig) {}},
		{name: "valid prod", env: "prod", mutate: func(*AppConfig) {}},
		{name: "origin list", env: "dev", mutate: func(c *AppConfig) { c.FrontendOrigin = "http://a.test, https://b.test/" }},
		{name: "bad mongo uri", env: "dev", mutate: func(c *AppConfig) { c.MongoURI = "postgres://nope" }, wantErr: true},
		{name: "empty database", env: "dev", mutate: func(c *AppConfig) { c.MongoDatabase = "" }, wantErr: true},
		{name: "empty jwt secret", env: "dev", mutate: func(c *AppConfig) { c.JWTSecret = "" }, wantErr: true},
		{name: "default jwt secret in prod", env: "prod", mutate: func(c *AppConfig) { c.JWTSecret = defaultJWTSecret }, wantErr: true},
		{name: "default jwt secret in dev", env: "dev", mutate: func(c *AppConfig) { c.JWTSecret = defaultJWTSecret }},
		{name: "default session key in prod", env: "prod", mutate: func(c *AppConfig) { c.SessionKey = defaultSessionKey }, wantErr: true},
		{name: "txn fallback in prod", env: "prod", mutate: func(c *AppConfig) { c.MongoTxnFallback = true }, wantErr: true},
		{name: "zero ttl", env: "dev", mutate: func(c *AppConfig) { c.JWTTTL = 0 }, wantErr: true},
		{name: "bad audit destination", env: "dev", mutate: func(c *AppConfig) { c.AuditLogAuth = "syslog" }, wantErr: true},
		{name: "relative base url", env: "dev", mutate: func(c *AppConfig) { c.BaseURL = "/api" }, wantErr: true},
		{name: "empty frontend origin", env: "dev", mutate: func(c *AppConfig) { c.FrontendOrigin = " , " }, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.mutate(&cfg)
			err := ValidateConfig(&config.CoreConfig{Env: tt.env}, cfg, testLogger())
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidateConfig() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestSplitOrigins(t *testing.T) {
	got := splitOrigins(" http://a.test/, ,https://b.test ")
	if len(got) != 2 || got[0] != "http://a.test" || got[1] != "https://b.test" {
		t.Errorf("splitOrigins = %v", got)
	}
	if firstOrigin("") != "" {
		t.Error("firstOrigin of empty list should be empty")
	}
}

func TestBuildHandler_RequiresStartup(t *testing.T) {
	prev := svc
	svc = nil
	t.Cleanup(func() { svc = prev })

	if _, err := BuildHandler(&config.CoreConfig{Env: "dev"}, validConfig(), DBDeps{}, testLogger()); err == nil {
		t.Fatal("expected error when Startup has not run")
	}
}

// startApp runs EnsureSchema, Startup and BuildHandler against a test database.
func startApp(t *testing.T, db *mongo.Database) http.Handler {
	t.Helper()
	ctx, cancel := testutil.TestContext()
	defer cancel()

	core := &config.CoreConfig{Env: "dev"}
	cfg := validConfig()
	deps := DBDeps{MongoClient: db.Client(), MongoDatabase: db}

	if err := EnsureSchema(ctx, core, cfg, deps, testLogger()); err != nil {
		t.Fatalf("EnsureSchema: %v", err)
	}
	if err := Startup(ctx, core, cfg, deps, testLogger()); err != nil {
		t.Fatalf("Startup: %v", err)
	}
	t.Cleanup(func() {
		svc.stateCleanup.Stop()
		svc = nil
		timeouts.Reset()
	})

	h, err := BuildHandler(core, cfg, deps, testLogger())
	if err != nil {
		t.Fatalf("BuildHandler: %v", err)
	}
	return h
}

func TestStartup_SeedsRolesIdempotently(t *testing.T) {
	db := testutil.SetupTestDB(t)
	startApp(t, db)

	ctx, cancel := testutil.TestContext()
	defer cancel()

	// A second Startup must not duplicate the catalog.
	svc.stateCleanup.Stop()
	deps := DBDeps{MongoClient: db.Client(), MongoDatabase: db}
	if err := Startup(ctx, &config.CoreConfig{Env: "dev"}, validConfig(), deps, testLogger()); err != nil {
		t.Fatalf("second Startup: %v", err)
	}

	n, err := db.Collection("roles").CountDocuments(ctx, bson.M{})
	if err != nil {
		t.Fatalf("count roles: %v", err)
	}
	if n != 3 {
		t.Errorf("expected 3 roles, got %d", n)
	}
}

func TestBuildHandler_PublicRoutes(t *testing.T) {
	db := testutil.SetupTestDB(t)
	h := startApp(t, db)

	tests := []struct {
		name   string
		method string
		target string
		status int
		body   string
	}{
		{"banner", http.MethodGet, "/", http.StatusOK, "Flowmatic Backend API"},
		{"health", http.MethodGet, "/health", http.StatusOK, `"database":"connected"`},
		{"metrics", http.MethodGet, "/metrics", http.StatusOK, "flowmatic_"},
		{"unknown route", http.MethodGet, "/nope", http.StatusNotFound, "RESOURCE_NOT_FOUND"},
		{"protected without cookie", http.MethodGet, "/api/user/current", http.StatusUnauthorized, ""},
		{"workspace list without cookie", http.MethodGet, "/api/workspace/all", http.StatusUnauthorized, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := testutil.NewRecorder()
			h.ServeHTTP(rec, httptest.NewRequest(tt.method, tt.target, nil))
			rec.AssertStatus(t, tt.status)
			if tt.body != "" {
				rec.AssertContains(t, tt.body)
			}
		})
	}
}

func TestBuildHandler_CORSPreflight(t *testing.T) {
	db := testutil.SetupTestDB(t)
	h := startApp(t, db)

	req := httptest.NewRequest(http.MethodOptions, "/api/auth/login", nil)
	req.Header.Set("Origin", "http://localhost:5173")
	req.Header.Set("Access-Control-Request-Method", "POST")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	if got := rec.Header().Get("Access-Control-Allow-Origin"); got != "http://localhost:5173" {
		t.Errorf("Allow-Origin = %q", got)
	}
	if got := rec.Header().Get("Access-Control-Allow-Credentials"); got != "true" {
		t.Errorf("Allow-Credentials = %q", got)
	}
}

func TestBuildHandler_RegisterThenCurrentUser(t *testing.T) {
	db := testutil.SetupTestDB(t)
	testutil.RequireTransactions(t, db)
	h := startApp(t, db)

	rec := testutil.NewRecorder()
	h.ServeHTTP(rec, testutil.NewJSONRequest(http.MethodPost, "/api/auth/register", map[string]string{
		"name":     "Ada Lovelace",
		"email":    "ada@example.com",
		"password": "s3cret-pass",
	}))
	rec.AssertStatus(t, http.StatusCreated)

	cookie := rec.Cookie(auth.TokenCookieName)
	if cookie == nil || cookie.Value == "" {
		t.Fatal("expected auth cookie after register")
	}

	req := httptest.NewRequest(http.MethodGet, "/api/user/current", nil)
	req.AddCookie(cookie)
	rec = testutil.NewRecorder()
	h.ServeHTTP(rec, req)
	rec.AssertStatus(t, http.StatusOK)
	rec.AssertContains(t, "ada@example.com")

	req = httptest.NewRequest(http.MethodGet, "/api/workspace/all", nil)
	req.AddCookie(cookie)
	rec = testutil.NewRecorder()
	h.ServeHTTP(rec, req)
	rec.AssertStatus(t, http.StatusOK)
	if !strings.Contains(rec.Body.String(), "My Workspace") {
		t.Errorf("expected default workspace in list, got %s", rec.Body.String())
	}
}

func TestBuildHandler_LoginRateLimited(t *testing.T) {
	db := testutil.SetupTestDB(t)
	h := startApp(t, db)

	var last int
	for i := 0; i < validConfig().LoginRateLimit+1; i++ {
		rec := testutil.NewRecorder()
		h.ServeHTTP(rec, testutil.NewJSONRequest(http.MethodPost, "/api/auth/login", map[string]string{
			"email":    "nobody@example.com",
			"password": "wrong",
		}))
		last = rec.Code
	}
	if last != http.StatusTooManyRequests {
		t.Errorf("expected 429 after limit, got %d", last)
	}
}
