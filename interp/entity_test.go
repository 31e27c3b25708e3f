package interp

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestTimerEntityDiesAfterDuration(t *testing.T) {
	sched := NewScheduler(context.Background())
	timer := NewTimerEntity(sched, "T", 5*time.Millisecond)

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	require.NoError(t, timer.WaitForDeath(ctx))
	require.False(t, timer.IsAlive())
}

func TestTimerEntityDiesImmediatelyWhenKilled(t *testing.T) {
	sched := NewScheduler(context.Background())
	timer := NewTimerEntity(sched, "T", time.Hour)
	timer.Die()

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	require.NoError(t, timer.WaitForDeath(ctx))
}

func TestDieIsIdempotent(t *testing.T) {
	sched := NewScheduler(context.Background())
	timer := NewTimerEntity(sched, "T", time.Hour)
	timer.Die()
	require.NotPanics(t, func() { timer.Die() })
	require.False(t, timer.IsAlive())
}

func TestWatcherEntityDiesWhenFileMissing(t *testing.T) {
	sched := NewScheduler(context.Background())
	w := NewWatcherEntity(sched, "W", "/nonexistent/path/for/tildeath/tests", time.Millisecond)

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	require.NoError(t, w.WaitForDeath(ctx))
}

func TestWatcherEntityModuleExports(t *testing.T) {
	sched := NewScheduler(context.Background())
	w := NewWatcherEntity(sched, "W", "/nonexistent/path/for/tildeath/tests", time.Millisecond)
	require.False(t, w.IsModule())

	w.SetModule(map[string]interface{}{"X": int64(1)})
	require.True(t, w.IsModule())
	v, ok := w.Export("X")
	require.True(t, ok)
	require.Equal(t, int64(1), v)

	_, ok = w.Export("missing")
	require.False(t, ok)
}

func TestBranchEntityCompleteDies(t *testing.T) {
	b := newBranchEntity("A")
	require.True(t, b.IsAlive())
	b.Complete()
	require.False(t, b.IsAlive())
}

func TestCompositeAndWaitsForBoth(t *testing.T) {
	sched := NewScheduler(context.Background())
	a := NewTimerEntity(sched, "A", 5*time.Millisecond)
	b := NewTimerEntity(sched, "B", 20*time.Millisecond)
	composite := NewCompositeEntity(sched, "A&&B", CompositeAnd, []Entity{a, b})

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	require.NoError(t, composite.WaitForDeath(ctx))
	require.False(t, a.IsAlive())
	require.False(t, b.IsAlive())
}

func TestCompositeOrFiresOnFirstDeath(t *testing.T) {
	sched := NewScheduler(context.Background())
	a := NewTimerEntity(sched, "A", 5*time.Millisecond)
	b := NewTimerEntity(sched, "B", time.Hour)
	composite := NewCompositeEntity(sched, "A||B", CompositeOr, []Entity{a, b})

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	require.NoError(t, composite.WaitForDeath(ctx))
}

func TestCompositeNotAlwaysFiresNextTick(t *testing.T) {
	sched := NewScheduler(context.Background())
	alive := NewTimerEntity(sched, "A", time.Hour)
	composite := NewCompositeEntity(sched, "!A", CompositeNot, []Entity{alive})

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	require.NoError(t, composite.WaitForDeath(ctx))
	require.True(t, alive.IsAlive())
}
