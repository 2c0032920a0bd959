package pacing

import (
	"context"
	"math/rand/v2"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fixedSource float64

func (f fixedSource) Float64() float64 { return float64(f) }

func recordSleeps(out *[]time.Duration) SleepFunc {
	return func(ctx context.Context, d time.Duration) error {
		*out = append(*out, d)
		return ctx.Err()
	}
}

func TestDraw(t *testing.T) {
	r := Between(60*time.Second, 180*time.Second)

	assert.Equal(t, 60*time.Second, New(fixedSource(0), nil).Draw(r))
	assert.Equal(t, 120*time.Second, New(fixedSource(0.5), nil).Draw(r))

	// Degenerate range collapses to Min.
	assert.Equal(t, time.Second, New(fixedSource(0.9), nil).Draw(Between(time.Second, time.Second)))
}

func TestDrawStaysInRange(t *testing.T) {
	p := New(rand.New(rand.NewPCG(9, 9)), nil)
	r := Between(5*time.Minute, 10*time.Minute)
	for i := 0; i < 1000; i++ {
		d := p.Draw(r)
		require.GreaterOrEqual(t, d, r.Min)
		require.Less(t, d, r.Max)
	}
}

func TestWaitUsesSleepFunc(t *testing.T) {
	var slept []time.Duration
	p := New(fixedSource(0.25), recordSleeps(&slept))

	d, err := p.Wait(context.Background(), Between(0, 4*time.Second))
	require.NoError(t, err)
	assert.Equal(t, time.Second, d)

	require.NoError(t, p.Pause(context.Background(), 500*time.Millisecond))
	require.NoError(t, p.Keystroke(context.Background(), Between(0, 100*time.Millisecond)))

	assert.Equal(t, []time.Duration{time.Second, 500 * time.Millisecond, 25 * time.Millisecond}, slept)
}

func TestSleepHonorsContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	start := time.Now()
	err := Sleep(ctx, time.Hour)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Less(t, time.Since(start), time.Second)

	assert.NoError(t, Sleep(context.Background(), time.Millisecond))
}
