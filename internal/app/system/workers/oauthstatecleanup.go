// internal/app/system/workers/oauthstatecleanup.go
package workers

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"
)

// ExpiredStateCleaner removes expired OAuth state tokens.
type ExpiredStateCleaner interface {
	CleanupExpired(ctx context.Context) (int64, error)
}

// OAuthStateCleanup is a background worker that sweeps expired OAuth state
// tokens between TTL monitor passes.
type OAuthStateCleanup struct {
	states   ExpiredStateCleaner
	log      *zap.Logger
	interval time.Duration
	stopCh   chan struct{}
	stopOnce sync.Once
	wg       sync.WaitGroup
}

// NewOAuthStateCleanup creates a new cleanup worker running every interval.
func NewOAuthStateCleanup(states ExpiredStateCleaner, logger *zap.Logger, interval time.Duration) *OAuthStateCleanup {
	return &OAuthStateCleanup{
		states:   states,
		log:      logger,
		interval: interval,
		stopCh:   make(chan struct{}),
	}
}

// Start begins the background cleanup loop.
func (w *OAuthStateCleanup) Start() {
	w.wg.Add(1)
	go w.run()
	w.log.Info("oauth state cleanup worker started", zap.Duration("interval", w.interval))
}

// Stop signals the worker to stop and waits for it to finish. Safe to call twice.
func (w *OAuthStateCleanup) Stop() {
	w.stopOnce.Do(func() {
		close(w.stopCh)
		w.wg.Wait()
		w.log.Info("oauth state cleanup worker stopped")
	})
}

func (w *OAuthStateCleanup) run() {
	defer w.wg.Done()

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-w.stopCh:
			return
		case <-ticker.C:
			w.cleanup()
		}
	}
}

func (w *OAuthStateCleanup) cleanup() {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	count, err := w.states.CleanupExpired(ctx)
	if err != nil {
		w.log.Error("failed to clean up expired oauth states", zap.Error(err))
		return
	}
	if count > 0 {
		w.log.Info("removed expired oauth states", zap.Int64("count", count))
	}
}
