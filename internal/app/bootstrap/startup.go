// internal/app/bootstrap/startup.go
package bootstrap

import (
	"context"
	"fmt"

	"github.com/ag863k/Flowmatic-pm/internal/app/store/audit"
	"github.com/ag863k/Flowmatic-pm/internal/app/store/oauthstate"
	rolestore "github.com/ag863k/Flowmatic-pm/internal/app/store/roles"
	"github.com/ag863k/Flowmatic-pm/internal/app/system/auditlog"
	"github.com/ag863k/Flowmatic-pm/internal/app/system/auth"
	"github.com/ag863k/Flowmatic-pm/internal/app/system/metrics"
	"github.com/ag863k/Flowmatic-pm/internal/app/system/timeouts"
	"github.com/ag863k/Flowmatic-pm/internal/app/system/txn"
	"github.com/ag863k/Flowmatic-pm/internal/app/system/workers"
	"github.com/dalemusser/waffle/config"
	"go.uber.org/zap"
)

// services are built once in Startup and consumed by BuildHandler and
// Shutdown. WAFFLE hooks share no return values, so they live here.
type services struct {
	tokens       *auth.TokenIssuer
	audit        *auditlog.Logger
	metrics      *metrics.Metrics
	stateCleanup *workers.OAuthStateCleanup
}

var svc *services

// Startup runs after the DB is connected and indexes exist, before the HTTP
// handler is built. It seeds the role catalog (a failure aborts startup),
// applies timeouts and the transaction fallback, and starts background work.
func Startup(ctx context.Context, coreCfg *config.CoreConfig, appCfg AppConfig, deps DBDeps, logger *zap.Logger) error {
	timeouts.Configure(timeouts.Config{
		Short:  appCfg.TimeoutShort,
		Medium: appCfg.TimeoutMedium,
		Long:   appCfg.TimeoutLong,
	})
	cur := timeouts.Current()
	logger.Info("database timeouts",
		zap.Duration("short", cur.Short),
		zap.Duration("medium", cur.Medium),
		zap.Duration("long", cur.Long))

	txn.SetFallback(appCfg.MongoTxnFallback)
	if appCfg.MongoTxnFallback {
		logger.Warn("transaction fallback enabled; multi-document writes are not atomic on standalone servers")
	}

	seedCtx, cancel := context.WithTimeout(ctx, timeouts.Long())
	defer cancel()
	inserted, err := rolestore.New(deps.MongoDatabase).EnsureSeeded(seedCtx)
	if err != nil {
		logger.Error("role seeding failed", zap.Error(err))
		return fmt.Errorf("seed roles: %w", err)
	}
	logger.Info("role catalog ready", zap.Int("inserted", inserted))

	tokens, err := auth.NewTokenIssuer(appCfg.JWTSecret, appCfg.JWTTTL)
	if err != nil {
		return fmt.Errorf("token issuer: %w", err)
	}

	cleanup := workers.NewOAuthStateCleanup(oauthstate.New(deps.MongoDatabase), logger, appCfg.OAuthStateCleanupInterval)
	cleanup.Start()

	svc = &services{
		tokens: tokens,
		audit: auditlog.New(audit.New(deps.MongoDatabase), logger, auditlog.Config{
			Auth:  appCfg.AuditLogAuth,
			Admin: appCfg.AuditLogAdmin,
		}),
		metrics:      metrics.New("flowmatic"),
		stateCleanup: cleanup,
	}
	return nil
}
