// Package pacing spaces out UI actions so they resemble a person using the
// site: randomized pauses between steps and per-keystroke typing delays.
package pacing

import (
	"context"
	"time"
)

// Range is an inclusive duration interval.
type Range struct {
	Min time.Duration `yaml:"min" json:"min"`
	Max time.Duration `yaml:"max" json:"max"`
}

// Between builds a Range.
func Between(min, max time.Duration) Range {
	return Range{Min: min, Max: max}
}

// Source yields uniform floats in [0, 1). *rand.Rand satisfies it.
type Source interface {
	Float64() float64
}

// SleepFunc blocks for d or until ctx is done.
type SleepFunc func(ctx context.Context, d time.Duration) error

// Sleep is the real SleepFunc.
func Sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

// Pacer draws random durations and sleeps them.
type Pacer struct {
	src   Source
	sleep SleepFunc
}

// New returns a Pacer. A nil sleep uses the real clock.
func New(src Source, sleep SleepFunc) *Pacer {
	if sleep == nil {
		sleep = Sleep
	}
	return &Pacer{src: src, sleep: sleep}
}

// Draw returns a uniform duration in r.
func (p *Pacer) Draw(r Range) time.Duration {
	if r.Max <= r.Min {
		return r.Min
	}
	span := float64(r.Max - r.Min)
	return r.Min + time.Duration(p.src.Float64()*span)
}

// Wait sleeps for a random duration in r and returns how long it chose.
func (p *Pacer) Wait(ctx context.Context, r Range) (time.Duration, error) {
	d := p.Draw(r)
	return d, p.sleep(ctx, d)
}

// Pause sleeps for exactly d.
func (p *Pacer) Pause(ctx context.Context, d time.Duration) error {
	return p.sleep(ctx, d)
}

// Keystroke sleeps for one typing delay drawn from r.
func (p *Pacer) Keystroke(ctx context.Context, r Range) error {
	return p.sleep(ctx, p.Draw(r))
}
