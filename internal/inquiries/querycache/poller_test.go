package querycache

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"inquiry_desk/platform/logger"
)

func TestPoller_KeepsTickingAfterFailures(t *testing.T) {
	var ticks int32
	p := NewPoller("stats", 5*time.Millisecond, func(context.Context) error {
		n := atomic.AddInt32(&ticks, 1)
		if n%2 == 1 {
			return errors.New("upstream down")
		}
		return nil
	}, logger.Nop())

	p.Start(context.Background())
	require.Eventually(t, func() bool { return atomic.LoadInt32(&ticks) >= 4 }, time.Second, time.Millisecond)
	p.Stop()

	assert.False(t, p.Running())
	after := atomic.LoadInt32(&ticks)
	time.Sleep(20 * time.Millisecond)
	assert.Equal(t, after, atomic.LoadInt32(&ticks), "no ticks after Stop")
}

func TestPoller_StartIsIdempotentAndSurvivesCallerCancel(t *testing.T) {
	var ticks int32
	p := NewPoller("stats", 5*time.Millisecond, func(context.Context) error {
		atomic.AddInt32(&ticks, 1)
		return nil
	}, logger.Nop())

	ctx, cancel := context.WithCancel(context.Background())
	p.Start(ctx)
	p.Start(ctx)
	cancel()

	require.Eventually(t, func() bool { return atomic.LoadInt32(&ticks) >= 2 }, time.Second, time.Millisecond)
	p.Stop()
	p.Stop()
}
