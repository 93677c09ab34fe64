// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package codes

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/danielhkuo/now-showing/clock"
	"github.com/danielhkuo/now-showing/events"
	"github.com/danielhkuo/now-showing/models"
	"github.com/danielhkuo/now-showing/store/memstore"
)

var epoch = time.Date(2025, 6, 1, 20, 0, 0, 0, time.UTC)

// script returns a generator that yields values in order, repeating the last
func script(values ...string) func(string, int) (string, error) {
	var mu sync.Mutex
	i := 0
	return func(string, int) (string, error) {
		mu.Lock()
		defer mu.Unlock()
		v := values[len(values)-1]
		if i < len(values) {
			v = values[i]
		}
		i++
		return v, nil
	}
}

func newTestStore(t *testing.T, sink events.Sink) (*Store, *clock.Fake) {
	t.Helper()
	clk := clock.NewFake(epoch)
	return New(memstore.New(), clk, DefaultPolicy(), sink), clk
}

func TestSMSRotationAndGrace(t *testing.T) {
	ctx := context.Background()
	s, clk := newTestStore(t, nil)
	s.generate = script("abc123", "xyz789")

	c, err := s.Current(ctx, models.ClassSMS)
	require.NoError(t, err)
	assert.Equal(t, "abc123", c.Value)

	// Rotation period not yet elapsed
	clk.Set(epoch.Add(5 * time.Minute))
	c, err = s.Current(ctx, models.ClassSMS)
	require.NoError(t, err)
	assert.Equal(t, "abc123", c.Value)

	clk.Set(epoch.Add(11 * time.Minute))
	c, err = s.Current(ctx, models.ClassSMS)
	require.NoError(t, err)
	assert.Equal(t, "xyz789", c.Value)
	assert.Equal(t, int64(2), c.Generation)

	// Previous code is inside the grace window of xyz789's creation
	ok, err := s.Validate(ctx, models.ClassSMS, "abc123")
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = s.Validate(ctx, models.ClassSMS, " ABC123 ")
	require.NoError(t, err)
	assert.True(t, ok, "validation ignores case and surrounding space")

	clk.Set(epoch.Add(22 * time.Minute))
	ok, err = s.Validate(ctx, models.ClassSMS, "abc123")
	require.NoError(t, err)
	assert.False(t, ok, "grace window has closed")

	// The newest code outlives its rotation period by the grace window
	ok, err = s.Validate(ctx, models.ClassSMS, "xyz789")
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestSMSValidateDoesNotRotate(t *testing.T) {
	ctx := context.Background()
	s, clk := newTestStore(t, nil)
	s.generate = script("abc123", "xyz789")

	_, err := s.Current(ctx, models.ClassSMS)
	require.NoError(t, err)

	clk.Advance(time.Hour)
	_, err = s.Validate(ctx, models.ClassSMS, "nope99")
	require.NoError(t, err)

	recent, err := s.codes.RecentCodes(ctx, models.ClassSMS, 5)
	require.NoError(t, err)
	assert.Len(t, recent, 1)
}

func TestSMSStaleNewestCode(t *testing.T) {
	ctx := context.Background()
	s, clk := newTestStore(t, nil)
	s.generate = script("abc123", "xyz789")

	c, err := s.Current(ctx, models.ClassSMS)
	require.NoError(t, err)
	require.Equal(t, "abc123", c.Value)

	clk.Set(epoch.Add(20*time.Minute - time.Nanosecond))
	ok, err := s.Validate(ctx, models.ClassSMS, "abc123")
	require.NoError(t, err)
	assert.True(t, ok, "overdue code is still inside its grace window")

	clk.Set(epoch.Add(20 * time.Minute))
	ok, err = s.Validate(ctx, models.ClassSMS, "abc123")
	require.NoError(t, err)
	assert.False(t, ok)

	clk.Advance(24 * time.Hour)
	ok, err = s.Validate(ctx, models.ClassSMS, "abc123")
	require.NoError(t, err)
	assert.False(t, ok, "nobody polled the board all day")

	recent, err := s.codes.RecentCodes(ctx, models.ClassSMS, 5)
	require.NoError(t, err)
	assert.Len(t, recent, 1, "validation must not mint a replacement")
}

func TestSMSGraceBoundary(t *testing.T) {
	ctx := context.Background()
	s, clk := newTestStore(t, nil)
	s.generate = script("first1", "second")

	_, err := s.Current(ctx, models.ClassSMS)
	require.NoError(t, err)
	rotatedAt := clk.Advance(10 * time.Minute)
	c, err := s.Current(ctx, models.ClassSMS)
	require.NoError(t, err)
	require.Equal(t, "second", c.Value)

	clk.Set(rotatedAt.Add(10*time.Minute - time.Nanosecond))
	ok, err := s.Validate(ctx, models.ClassSMS, "first1")
	require.NoError(t, err)
	assert.True(t, ok)

	clk.Set(rotatedAt.Add(10 * time.Minute))
	ok, err = s.Validate(ctx, models.ClassSMS, "first1")
	require.NoError(t, err)
	assert.False(t, ok, "grace is a half-open window")
}

func TestValidateEmptyAndUnknown(t *testing.T) {
	ctx := context.Background()
	s, _ := newTestStore(t, nil)

	tests := []struct {
		name      string
		class     models.CodeClass
		candidate string
	}{
		{"empty store sms", models.ClassSMS, "abc123"},
		{"empty store qr", models.ClassQR, "foobarqr1"},
		{"empty candidate sms", models.ClassSMS, ""},
		{"blank candidate qr", models.ClassQR, "   "},
		{"unknown class", models.CodeClass("email"), "abc123"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ok, err := s.Validate(ctx, tt.class, tt.candidate)
			require.NoError(t, err)
			assert.False(t, ok)
		})
	}
}

func TestQRSingleUse(t *testing.T) {
	ctx := context.Background()
	s, _ := newTestStore(t, nil)
	s.generate = script("foo-bar-1", "foo-bar-2")

	c, err := s.Current(ctx, models.ClassQR)
	require.NoError(t, err)
	require.Equal(t, "foo-bar-1", c.Value)

	ok, err := s.Validate(ctx, models.ClassQR, "foo-bar-1")
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = s.Validate(ctx, models.ClassQR, "foo-bar-1")
	require.NoError(t, err)
	assert.False(t, ok, "a spent QR code never validates again")

	next, err := s.Current(ctx, models.ClassQR)
	require.NoError(t, err)
	assert.Equal(t, "foo-bar-2", next.Value)
	assert.NotEqual(t, "foo-bar-1", next.Value)
}

func TestQRDoesNotRotateOnTimer(t *testing.T) {
	ctx := context.Background()
	s, clk := newTestStore(t, nil)

	first, err := s.Current(ctx, models.ClassQR)
	require.NoError(t, err)

	clk.Advance(24 * time.Hour)
	later, err := s.Current(ctx, models.ClassQR)
	require.NoError(t, err)
	assert.Equal(t, first.Value, later.Value)
}

func TestQRConcurrentValidation(t *testing.T) {
	ctx := context.Background()
	s, _ := newTestStore(t, nil)

	c, err := s.Current(ctx, models.ClassQR)
	require.NoError(t, err)

	var wins atomic.Int32
	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			ok, err := s.Validate(ctx, models.ClassQR, c.Value)
			if err == nil && ok {
				wins.Add(1)
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, int32(1), wins.Load())

	next, err := s.Current(ctx, models.ClassQR)
	require.NoError(t, err)
	assert.NotEqual(t, c.Value, next.Value)
	assert.False(t, next.Consumed)
}

func TestConcurrentRotationConverges(t *testing.T) {
	ctx := context.Background()
	s, clk := newTestStore(t, nil)

	_, err := s.Current(ctx, models.ClassSMS)
	require.NoError(t, err)
	clk.Advance(15 * time.Minute)

	results := make([]string, 20)
	var wg sync.WaitGroup
	for i := range results {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			c, err := s.Current(ctx, models.ClassSMS)
			if err == nil {
				results[i] = c.Value
			}
		}(i)
	}
	wg.Wait()

	for _, v := range results {
		assert.Equal(t, results[0], v, "every caller sees the single winning rotation")
	}

	recent, err := s.codes.RecentCodes(ctx, models.ClassSMS, 10)
	require.NoError(t, err)
	assert.Len(t, recent, 2, "one original code and exactly one rotation")
}

func TestValueCollisionIsRetried(t *testing.T) {
	ctx := context.Background()
	s, clk := newTestStore(t, nil)
	s.generate = script("dup111", "dup111", "dup111", "fresh2")

	first, err := s.Current(ctx, models.ClassSMS)
	require.NoError(t, err)
	require.Equal(t, "dup111", first.Value)

	clk.Advance(11 * time.Minute)
	second, err := s.Current(ctx, models.ClassSMS)
	require.NoError(t, err)
	assert.Equal(t, "fresh2", second.Value)
	assert.Equal(t, int64(2), second.Generation)
}

func TestGenerationExhausted(t *testing.T) {
	ctx := context.Background()
	s, clk := newTestStore(t, nil)
	s.generate = script("same11")

	_, err := s.Current(ctx, models.ClassSMS)
	require.NoError(t, err)

	clk.Advance(11 * time.Minute)
	_, err = s.Current(ctx, models.ClassSMS)
	assert.True(t, errors.Is(err, ErrGenerationExhausted), "got %v", err)
}

func TestCodesAreUniqueWithinClass(t *testing.T) {
	ctx := context.Background()
	s, clk := newTestStore(t, nil)

	seen := map[string]bool{}
	for i := 0; i < 200; i++ {
		c, err := s.Current(ctx, models.ClassSMS)
		require.NoError(t, err)
		assert.False(t, seen[c.Value], "code %q reused", c.Value)
		seen[c.Value] = true
		assert.Len(t, c.Value, 6)
		clk.Advance(10 * time.Minute)
	}
}

func TestRotationPublishesEvents(t *testing.T) {
	ctx := context.Background()

	var mu sync.Mutex
	var got []models.Event
	sink := events.Listener(func(ev models.Event) {
		mu.Lock()
		got = append(got, ev)
		mu.Unlock()
	})

	s, _ := newTestStore(t, sink)
	s.generate = script("smscd1", "qrcode001", "qrcode002")

	_, err := s.Current(ctx, models.ClassSMS)
	require.NoError(t, err)
	_, err = s.Current(ctx, models.ClassSMS) // no rotation, no event
	require.NoError(t, err)
	_, err = s.Current(ctx, models.ClassQR)
	require.NoError(t, err)
	ok, err := s.Validate(ctx, models.ClassQR, "qrcode001")
	require.NoError(t, err)
	require.True(t, ok)

	assert.Equal(t, []models.Event{
		{Kind: models.EventSMSCode, Value: "smscd1"},
		{Kind: models.EventQRCode, Value: "qrcode001"},
		{Kind: models.EventQRCode, Value: "qrcode002"},
	}, got)
}
