// internal/app/system/auditlog/logger.go
package auditlog

import (
	"context"
	"net/http"

	"github.com/ag863k/Flowmatic-pm/internal/app/store/audit"
	"github.com/ag863k/Flowmatic-pm/internal/app/system/ratelimit"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

// Destinations accepted by Config fields.
const (
	DestAll = "all" // MongoDB + zap
	DestDB  = "db"  // MongoDB only
	DestLog = "log" // zap only
	DestOff = "off"
)

// Config holds audit logging configuration.
type Config struct {
	// Auth controls logging for authentication events (register, login, logout, OAuth).
	Auth string
	// Admin controls logging for membership events (join, remove, role change).
	Admin string
}

// IsValidDest reports whether s is an accepted destination.
func IsValidDest(s string) bool {
	switch s {
	case DestAll, DestDB, DestLog, DestOff:
		return true
	}
	return false
}

// Logger provides convenience methods for logging audit events.
// It logs to MongoDB (via audit.Store) and/or structured logs (via zap).
type Logger struct {
	store  *audit.Store
	zapLog *zap.Logger
	config Config
}

// New creates a new audit Logger.
func New(store *audit.Store, zapLog *zap.Logger, config Config) *Logger {
	return &Logger{
		store:  store,
		zapLog: zapLog,
		config: config,
	}
}

func (l *Logger) logToZap(event audit.Event) {
	fields := []zap.Field{
		zap.Bool("audit", true),
		zap.String("category", event.Category),
		zap.String("event_type", event.EventType),
		zap.Bool("success", event.Success),
		zap.String("ip", event.IP),
	}

	if event.UserID != nil {
		fields = append(fields, zap.String("user_id", event.UserID.Hex()))
	}
	if event.ActorID != nil {
		fields = append(fields, zap.String("actor_id", event.ActorID.Hex()))
	}
	if event.WorkspaceID != nil {
		fields = append(fields, zap.String("workspace_id", event.WorkspaceID.Hex()))
	}
	if event.FailureReason != "" {
		fields = append(fields, zap.String("failure_reason", event.FailureReason))
	}
	for k, v := range event.Details {
		fields = append(fields, zap.String("detail_"+k, v))
	}

	if event.Success {
		l.zapLog.Info("audit event", fields...)
	} else {
		l.zapLog.Warn("audit event", fields...)
	}
}

// Log records an audit event based on configuration.
// A nil Logger is a no-op.
func (l *Logger) Log(ctx context.Context, event audit.Event) {
	if l == nil {
		return
	}

	var setting string
	switch event.Category {
	case audit.CategoryAuth:
		setting = l.config.Auth
	case audit.CategoryMembership:
		setting = l.config.Admin
	default:
		setting = DestAll
	}

	if setting == DestOff {
		return
	}
	if setting == DestAll || setting == DestLog {
		l.logToZap(event)
	}
	if (setting == DestAll || setting == DestDB) && l.store != nil {
		if err := l.store.Log(ctx, event); err != nil {
			l.zapLog.Error("failed to store audit event",
				zap.Error(err),
				zap.String("event_type", event.EventType),
			)
		}
	}
}

func (l *Logger) auth(r *http.Request, eventType string, userID *primitive.ObjectID, success bool, reason string, details map[string]string) audit.Event {
	return audit.Event{
		Category:      audit.CategoryAuth,
		EventType:     eventType,
		UserID:        userID,
		IP:            ratelimit.ClientIP(r),
		UserAgent:     r.UserAgent(),
		Success:       success,
		FailureReason: reason,
		Details:       details,
	}
}

// --- Authentication Events ---

// Registered logs a new account created with a password.
func (l *Logger) Registered(ctx context.Context, r *http.Request, userID, workspaceID primitive.ObjectID) {
	ev := l.auth(r, audit.EventRegistered, &userID, true, "", nil)
	ev.WorkspaceID = &workspaceID
	l.Log(ctx, ev)
}

// LoginSuccess logs a successful login.
func (l *Logger) LoginSuccess(ctx context.Context, r *http.Request, userID primitive.ObjectID, workspaceID *primitive.ObjectID, provider string) {
	ev := l.auth(r, audit.EventLoginSuccess, &userID, true, "", map[string]string{"provider": provider})
	ev.WorkspaceID = workspaceID
	l.Log(ctx, ev)
}

// LoginFailedUserNotFound logs a failed login for an unknown email.
func (l *Logger) LoginFailedUserNotFound(ctx context.Context, r *http.Request, attemptedEmail string) {
	l.Log(ctx, l.auth(r, audit.EventLoginFailedUserNotFound, nil, false, "user not found",
		map[string]string{"attempted_email": attemptedEmail}))
}

// LoginFailedWrongPassword logs a failed login due to wrong password.
func (l *Logger) LoginFailedWrongPassword(ctx context.Context, r *http.Request, email string) {
	l.Log(ctx, l.auth(r, audit.EventLoginFailedWrongPassword, nil, false, "wrong password",
		map[string]string{"email": email}))
}

// LoginFailedRateLimit logs a login or registration rejected by the rate limiter.
func (l *Logger) LoginFailedRateLimit(ctx context.Context, r *http.Request, path string) {
	l.Log(ctx, l.auth(r, audit.EventLoginFailedRateLimit, nil, false, "rate limit exceeded",
		map[string]string{"path": path}))
}

// OAuthLoginSuccess logs a completed OAuth sign-in.
func (l *Logger) OAuthLoginSuccess(ctx context.Context, r *http.Request, userID primitive.ObjectID, workspaceID *primitive.ObjectID, provider string) {
	ev := l.auth(r, audit.EventOAuthLoginSuccess, &userID, true, "", map[string]string{"provider": provider})
	ev.WorkspaceID = workspaceID
	l.Log(ctx, ev)
}

// OAuthLoginFailed logs an OAuth callback that did not produce a session.
func (l *Logger) OAuthLoginFailed(ctx context.Context, r *http.Request, provider, reason string) {
	l.Log(ctx, l.auth(r, audit.EventOAuthLoginFailed, nil, false, reason,
		map[string]string{"provider": provider}))
}

// Logout logs a user logout. userIDStr may be empty when no session was present.
func (l *Logger) Logout(ctx context.Context, r *http.Request, userIDStr string) {
	var uid *primitive.ObjectID
	if oid, err := primitive.ObjectIDFromHex(userIDStr); err == nil {
		uid = &oid
	}
	l.Log(ctx, l.auth(r, audit.EventLogout, uid, true, "", nil))
}

// --- Membership Events ---

// MemberJoined logs a user joining a workspace by invite code.
func (l *Logger) MemberJoined(ctx context.Context, r *http.Request, userID, workspaceID primitive.ObjectID, role string) {
	l.Log(ctx, audit.Event{
		Category:    audit.CategoryMembership,
		EventType:   audit.EventMemberJoined,
		UserID:      &userID,
		WorkspaceID: &workspaceID,
		IP:          ratelimit.ClientIP(r),
		UserAgent:   r.UserAgent(),
		Success:     true,
		Details:     map[string]string{"role": role},
	})
}

// MemberRemoved logs an actor removing a member from a workspace.
func (l *Logger) MemberRemoved(ctx context.Context, r *http.Request, actorID, userID, workspaceID primitive.ObjectID) {
	l.Log(ctx, audit.Event{
		Category:    audit.CategoryMembership,
		EventType:   audit.EventMemberRemoved,
		UserID:      &userID,
		ActorID:     &actorID,
		WorkspaceID: &workspaceID,
		IP:          ratelimit.ClientIP(r),
		UserAgent:   r.UserAgent(),
		Success:     true,
	})
}

// MemberRoleChanged logs a role change for a workspace member.
func (l *Logger) MemberRoleChanged(ctx context.Context, r *http.Request, actorID, userID, workspaceID primitive.ObjectID, newRole string) {
	l.Log(ctx, audit.Event{
		Category:    audit.CategoryMembership,
		EventType:   audit.EventMemberRoleChanged,
		UserID:      &userID,
		ActorID:     &actorID,
		WorkspaceID: &workspaceID,
		IP:          ratelimit.ClientIP(r),
		UserAgent:   r.UserAgent(),
		Success:     true,
		Details:     map[string]string{"new_role": newRole},
	})
}
