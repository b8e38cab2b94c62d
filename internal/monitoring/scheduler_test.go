package monitoring

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/inventory-cli/internal/config"
)

type fakeRunner struct {
	mu    sync.Mutex
	hours []int
	err   error
}

func (f *fakeRunner) RunDueAlarms(_ context.Context, hour int) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.hours = append(f.hours, hour)
	return 1, f.err
}

func TestNewScheduler_BadTimezone(t *testing.T) {
	t.Parallel()

	_, err := NewScheduler(config.AlarmConfig{Timezone: "Mars/Olympus"}, &fakeRunner{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "load timezone")
}

func TestScheduler_TickUsesLocalHour(t *testing.T) {
	t.Parallel()

	runner := &fakeRunner{}
	s, err := NewScheduler(config.AlarmConfig{Timezone: "America/Chicago"}, runner)
	require.NoError(t, err)

	// 11:00 UTC in January is 05:00 in Chicago.
	s.tick(context.Background(), time.Date(2026, 1, 15, 11, 0, 0, 0, time.UTC))
	n, err := s.RunNow(context.Background(), time.Date(2026, 1, 15, 12, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	assert.Equal(t, []int{5, 6}, runner.hours)
}

func TestScheduler_TickSkipsCancelledContext(t *testing.T) {
	t.Parallel()

	runner := &fakeRunner{}
	s, err := NewScheduler(config.AlarmConfig{}, runner)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	s.tick(ctx, time.Now())
	assert.Empty(t, runner.hours)
}

func TestScheduler_TickRunnerError(t *testing.T) {
	t.Parallel()

	runner := &fakeRunner{err: errors.New("store down")}
	s, err := NewScheduler(config.AlarmConfig{}, runner)
	require.NoError(t, err)

	s.tick(context.Background(), time.Date(2026, 3, 1, 6, 0, 0, 0, time.UTC))
	assert.Equal(t, []int{6}, runner.hours)
}

func TestScheduler_StartStop(t *testing.T) {
	t.Parallel()

	s, err := NewScheduler(config.AlarmConfig{Timezone: "UTC"}, &fakeRunner{})
	require.NoError(t, err)
	require.NoError(t, s.Start(context.Background()))
	s.Stop()
}
