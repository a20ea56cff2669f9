package timeouts

import (
	"context"
	"testing"
	"time"

	"go.uber.org/zap"
)

func TestConfigure_IgnoresZero(t *testing.T) {
	t.Cleanup(Reset)

	Configure(Config{Short: 7 * time.Second})

	if Short() != 7*time.Second {
		t.Errorf("Short() = %v, want 7s", Short())
	}
	if Medium() != DefaultMedium {
		t.Errorf("Medium() = %v, want default", Medium())
	}
	if Long() != DefaultLong {
		t.Errorf("Long() = %v, want default", Long())
	}
}

func TestReset(t *testing.T) {
	Configure(Config{Ping: time.Second, Long: time.Minute})
	Reset()

	cur := Current()
	if cur.Ping != DefaultPing || cur.Long != DefaultLong {
		t.Errorf("Reset did not restore defaults: %+v", cur)
	}
}

func TestWithTimeout_Expires(t *testing.T) {
	ctx, cancel := WithTimeout(context.Background(), time.Millisecond, zap.NewNop(), "test")
	defer cancel()

	<-ctx.Done()
	if ctx.Err() != context.DeadlineExceeded {
		t.Errorf("ctx.Err() = %v", ctx.Err())
	}
}
