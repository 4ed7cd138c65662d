package app

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/riskibarqy/dota2-results/internal/platform/logging"
)

func TestGuard_RecoversPanic(t *testing.T) {
	run := guard(context.Background(), logging.NewNop(), Job{
		Name: "boom",
		Run:  func(context.Context) { panic("tick exploded") },
	})
	assert.NotPanics(t, run)
}

func TestGuard_SkipsCancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	var calls atomic.Int32
	guard(ctx, logging.NewNop(), Job{Name: "tick", Run: func(context.Context) { calls.Add(1) }})()
	assert.Zero(t, calls.Load())
}

func TestScheduler_RunsImmediateJob(t *testing.T) {
	ran := make(chan struct{}, 1)
	s, err := NewScheduler(context.Background(), []Job{
		{Name: "results.tick", Every: time.Hour, Immediate: true, Run: func(context.Context) {
			select {
			case ran <- struct{}{}:
			default:
			}
		}},
		{Name: "leagues.refresh", Every: 24 * time.Hour, Run: func(context.Context) {}},
	}, logging.NewNop())
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"results.tick", "leagues.refresh"}, s.JobNames())

	s.Start()
	t.Cleanup(func() { _ = s.Stop() })

	select {
	case <-ran:
	case <-time.After(5 * time.Second):
		t.Fatalf("expected immediate job to run")
	}
}

func TestScheduler_RejectsInvalidInterval(t *testing.T) {
	_, err := NewScheduler(context.Background(), []Job{{Name: "bad", Every: 0, Run: func(context.Context) {}}}, nil)
	assert.Error(t, err)
}
