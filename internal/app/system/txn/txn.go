// Package txn runs groups of MongoDB writes inside a multi-document
// transaction.
//
// Transactions need a replica set or sharded cluster. On a standalone server
// Run fails with an error for which IsNotSupported reports true, unless the
// non-transactional fallback has been enabled with SetFallback. The fallback
// exists for local development only; production deployments keep it off.
package txn

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync/atomic"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

var fallback atomic.Bool

// SetFallback enables or disables running fn without a transaction when the
// server does not support transactions.
func SetFallback(enabled bool) {
	fallback.Store(enabled)
}

// FallbackEnabled reports the current fallback setting.
func FallbackEnabled() bool {
	return fallback.Load()
}

// Run executes fn inside one transaction scope: commit happens only after fn
// returns nil, and any error or panic aborts. The ctx passed to fn carries the
// session and must be used for every operation that belongs to the
// transaction. An error returned by fn is returned unchanged so callers can
// inspect it with errors.Is/As. Run never retries; retry policy belongs to
// the caller.
func Run(ctx context.Context, db *mongo.Database, log *zap.Logger, fn func(ctx context.Context) error) error {
	if log == nil {
		log = zap.NewNop()
	}

	sess, err := db.Client().StartSession()
	if err != nil {
		return fmt.Errorf("start session: %w", err)
	}
	defer sess.EndSession(ctx)

	if err := sess.StartTransaction(); err != nil {
		return fmt.Errorf("start transaction: %w", err)
	}
	sc := mongo.NewSessionContext(ctx, sess)

	committed := false
	defer func() {
		if committed {
			return
		}
		// Abort on a fresh context so a cancelled ctx still releases the txn.
		abortCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
		defer cancel()
		if aerr := sess.AbortTransaction(abortCtx); aerr != nil {
			log.Debug("abort transaction", zap.Error(aerr))
		}
	}()

	if fnErr := fn(sc); fnErr != nil {
		if FallbackEnabled() && IsNotSupported(fnErr) {
			return runWithoutTxn(ctx, log, fnErr, fn)
		}
		return fnErr
	}

	if err := sess.CommitTransaction(ctx); err != nil {
		if FallbackEnabled() && IsNotSupported(err) {
			return runWithoutTxn(ctx, log, err, fn)
		}
		return fmt.Errorf("commit transaction: %w", err)
	}
	committed = true
	return nil
}

func runWithoutTxn(ctx context.Context, log *zap.Logger, cause error, fn func(ctx context.Context) error) error {
	log.Warn("transactions unavailable, running without one", zap.Error(cause))
	return fn(ctx)
}

// IsNotSupported reports whether err indicates that the server cannot run
// multi-document transactions (for example a standalone mongod).
func IsNotSupported(err error) bool {
	if err == nil {
		return false
	}

	var ce mongo.CommandError
	if errors.As(err, &ce) {
		switch ce.Code {
		case 20, // IllegalOperation
			51,  // standalone: transaction numbers only allowed on replica set
			263: // OperationNotSupportedInTransaction
			return true
		}
	}

	msg := strings.ToLower(err.Error())
	pairs := [][2]string{
		{"transaction", "replica set"},
		{"session", "not supported"},
		{"transaction", "session"},
		{"illegal", "operation"},
	}
	for _, p := range pairs {
		if strings.Contains(msg, p[0]) && strings.Contains(msg, p[1]) {
			return true
		}
	}
	return false
}

// writeConflictCode is the server's WriteConflict error code.
const writeConflictCode = 112

// IsWriteConflict reports whether err is the error the losing side gets when
// two transactions write the same document or unique key. Callers racing on a
// unique key treat it like a duplicate-key error.
func IsWriteConflict(err error) bool {
	var se mongo.ServerError
	if errors.As(err, &se) {
		return se.HasErrorCode(writeConflictCode)
	}
	return false
}

// Supported asks the server whether it is a replica set member or mongos.
func Supported(ctx context.Context, db *mongo.Database) bool {
	var hello bson.M
	if err := db.RunCommand(ctx, bson.D{{Key: "hello", Value: 1}}).Decode(&hello); err != nil {
		return false
	}
	if _, ok := hello["setName"]; ok {
		return true
	}
	return hello["msg"] == "isdbgrid"
}
