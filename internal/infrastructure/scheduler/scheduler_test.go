package scheduler_test

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/jhoicas/stockflow-api/internal/infrastructure/scheduler"
)

func TestInterval_RunOnceNoSeSolapa(t *testing.T) {
	release := make(chan struct{})
	started := make(chan struct{})
	var calls atomic.Int32
	s := scheduler.NewInterval("sweep", time.Hour, func(ctx context.Context) error {
		calls.Add(1)
		close(started)
		<-release
		return nil
	}, nil)

	done := make(chan bool)
	go func() { done <- s.RunOnce(context.Background()) }()
	<-started

	assert.False(t, s.RunOnce(context.Background()), "la segunda ejecución debe omitirse")
	close(release)
	assert.True(t, <-done)
	assert.Equal(t, int32(1), calls.Load())
}

func TestInterval_ErrorYPanicNoDetienenElRunner(t *testing.T) {
	var calls atomic.Int32
	s := scheduler.NewInterval("sweep", time.Hour, func(ctx context.Context) error {
		if calls.Add(1) == 1 {
			panic("boom")
		}
		return errors.New("fallo")
	}, nil)

	assert.True(t, s.RunOnce(context.Background()))
	assert.True(t, s.RunOnce(context.Background()))
	assert.Equal(t, int32(2), calls.Load())
}

func TestInterval_StartYStop(t *testing.T) {
	var calls atomic.Int32
	s := scheduler.NewInterval("sweep", 10*time.Millisecond, func(ctx context.Context) error {
		calls.Add(1)
		return nil
	}, nil)

	s.Start(context.Background())
	assert.Eventually(t, func() bool { return calls.Load() >= 2 }, time.Second, 5*time.Millisecond)
	s.Stop()

	after := calls.Load()
	time.Sleep(30 * time.Millisecond)
	assert.Equal(t, after, calls.Load())
}
