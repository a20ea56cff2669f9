// internal/app/bootstrap/routes.go
package bootstrap

import (
	"errors"
	"net/http"
	"strings"

	authgooglefeature "github.com/ag863k/Flowmatic-pm/internal/app/features/authgoogle"
	errorsfeature "github.com/ag863k/Flowmatic-pm/internal/app/features/errors"
	healthfeature "github.com/ag863k/Flowmatic-pm/internal/app/features/health"
	loginfeature "github.com/ag863k/Flowmatic-pm/internal/app/features/login"
	logoutfeature "github.com/ag863k/Flowmatic-pm/internal/app/features/logout"
	membersfeature "github.com/ag863k/Flowmatic-pm/internal/app/features/members"
	projectsfeature "github.com/ag863k/Flowmatic-pm/internal/app/features/projects"
	tasksfeature "github.com/ag863k/Flowmatic-pm/internal/app/features/tasks"
	userfeature "github.com/ag863k/Flowmatic-pm/internal/app/features/user"
	workspacesfeature "github.com/ag863k/Flowmatic-pm/internal/app/features/workspaces"
	userstore "github.com/ag863k/Flowmatic-pm/internal/app/store/users"
	"github.com/ag863k/Flowmatic-pm/internal/app/system/auth"
	"github.com/ag863k/Flowmatic-pm/internal/app/system/ratelimit"
	"github.com/dalemusser/waffle/config"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"go.uber.org/zap"
)

// BuildHandler constructs the root HTTP handler for this WAFFLE app.
//
// WAFFLE calls this after configuration, DB connection, schema setup and
// Startup have completed. Public routes are /, /health, /metrics and the
// /api/auth endpoints; everything else under /api requires the authToken
// cookie.
func BuildHandler(coreCfg *config.CoreConfig, appCfg AppConfig, deps DBDeps, logger *zap.Logger) (http.Handler, error) {
	if svc == nil {
		return nil, errors.New("bootstrap: Startup has not run")
	}
	db := deps.MongoDatabase

	// Secure cookies (SameSite=None) in production, where the front end is
	// served from another origin.
	secure := coreCfg.Env == "prod"
	sessionMgr, err := auth.NewSessionManager(svc.tokens, userstore.NewFetcher(db),
		appCfg.SessionKey, appCfg.SessionName, appCfg.SessionDomain, secure, logger)
	if err != nil {
		logger.Error("session manager init failed", zap.Error(err))
		return nil, err
	}

	r := chi.NewRouter()

	errorsHandler := errorsfeature.NewHandler()
	r.NotFound(errorsHandler.NotFound)
	r.MethodNotAllowed(errorsHandler.MethodNotAllowed)

	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   splitOrigins(appCfg.FrontendOrigin),
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Content-Type", "Authorization"},
		AllowCredentials: true,
		MaxAge:           300,
	}))
	r.Use(svc.metrics.Middleware)

	// Loads SessionUser into context when a valid authToken is present.
	r.Use(sessionMgr.LoadSessionUser)

	healthHandler := healthfeature.NewHandler(deps.MongoClient, logger)
	r.Get("/", healthHandler.ServeRoot)
	r.Mount("/health", healthfeature.Routes(healthHandler))
	r.Handle("/metrics", svc.metrics.Handler())

	loginLimiter := ratelimit.New(appCfg.LoginRateLimit, appCfg.LoginRateWindow)
	limit := loginLimiter.Middleware(func(req *http.Request) {
		svc.metrics.Limited(req)
		svc.audit.LoginFailedRateLimit(req.Context(), req, req.URL.Path)
	})

	loginHandler := loginfeature.NewHandler(db, sessionMgr, svc.audit, svc.metrics, logger)
	logoutHandler := logoutfeature.NewHandler(sessionMgr, svc.audit, logger)
	googleHandler := authgooglefeature.NewHandler(db, sessionMgr, svc.audit, svc.metrics, authgooglefeature.Config{
		ClientID:            appCfg.GoogleClientID,
		ClientSecret:        appCfg.GoogleClientSecret,
		BaseURL:             appCfg.BaseURL,
		FrontendOrigin:      firstOrigin(appCfg.FrontendOrigin),
		FrontendCallbackURL: appCfg.FrontendGoogleCallbackURL,
	}, logger)

	r.Route("/api/auth", func(r chi.Router) {
		r.Mount("/google", authgooglefeature.Routes(googleHandler))
		r.Mount("/logout", logoutfeature.Routes(logoutHandler))
		r.Mount("/", loginfeature.Routes(loginHandler, limit))
	})

	userHandler := userfeature.NewHandler(db, svc.tokens, logger)
	workspacesHandler := workspacesfeature.NewHandler(db, svc.audit, svc.metrics, logger)
	membersHandler := membersfeature.NewHandler(db, svc.audit, svc.metrics, logger)
	projectsHandler := projectsfeature.NewHandler(db, logger)
	tasksHandler := tasksfeature.NewHandler(db, logger)

	r.Group(func(r chi.Router) {
		r.Use(sessionMgr.RequireSignedIn)
		r.Mount("/api/user", userfeature.Routes(userHandler))
		r.Mount("/api/workspace", workspacesfeature.Routes(workspacesHandler))
		r.Mount("/api/member", membersfeature.Routes(membersHandler))
		r.Mount("/api/project", projectsfeature.Routes(projectsHandler))
		r.Mount("/api/task", tasksfeature.Routes(tasksHandler))
	})

	return r, nil
}

// splitOrigins accepts a comma-separated origin list.
func splitOrigins(s string) []string {
	var out []string
	for _, o := range strings.Split(s, ",") {
		if o = strings.TrimRight(strings.TrimSpace(o), "/"); o != "" {
			out = append(out, o)
		}
	}
	return out
}

func firstOrigin(s string) string {
	if o := splitOrigins(s); len(o) > 0 {
		return o[0]
	}
	return ""
}
