package scheduler

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

type countingPurger struct {
	calls int
	n     int64
	err   error
}

func (p *countingPurger) PurgeExpired(context.Context) (int64, error) {
	p.calls++
	return p.n, p.err
}

func TestAddPurge_BadSpec(t *testing.T) {
	s := New(nil)
	assert.Error(t, s.AddPurge("every tuesday", &countingPurger{}))
	assert.NoError(t, s.AddPurge("@hourly", &countingPurger{}))
}

func TestPurgeJob_Logs(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)
	s := New(zap.New(core))

	ok := &countingPurger{n: 4}
	s.purgeJob(ok)()
	assert.Equal(t, 1, ok.calls)
	require.Equal(t, 1, logs.FilterMessage("expired slots purged").Len())

	failing := &countingPurger{err: errors.New("db gone")}
	s.purgeJob(failing)()
	assert.Equal(t, 1, logs.FilterMessage("purge expired slots failed").Len())

	// пустой прогон не шумит
	s.purgeJob(&countingPurger{})()
	assert.Equal(t, 2, logs.Len())
}

func TestRun_StopsOnCancel(t *testing.T) {
	s := New(nil)
	require.NoError(t, s.AddPurge("@hourly", &countingPurger{}))

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- s.Run(ctx) }()

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("scheduler did not stop")
	}
}
