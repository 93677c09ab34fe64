// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package board

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/danielhkuo/now-showing/clock"
	"github.com/danielhkuo/now-showing/events"
	"github.com/danielhkuo/now-showing/models"
	"github.com/danielhkuo/now-showing/store/memstore"
)

var epoch = time.Date(2025, 6, 1, 20, 0, 0, 0, time.UTC)

const throttle = 5 * time.Minute

type fixture struct {
	store  *memstore.Store
	clock  *clock.Fake
	queue  *Queue
	ledger *Ledger
	events []models.Event
	mu     sync.Mutex
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	f := &fixture{store: memstore.New(), clock: clock.NewFake(epoch)}
	sink := events.Listener(func(ev models.Event) {
		f.mu.Lock()
		f.events = append(f.events, ev)
		f.mu.Unlock()
	})
	f.queue = NewQueue(f.store, f.clock, throttle, sink)
	f.ledger = NewLedger(f.store, f.queue, f.clock, sink)
	return f
}

func (f *fixture) user(t *testing.T) *models.User {
	t.Helper()
	u := &models.User{ID: uuid.NewString(), QRIssued: true, CreatedAt: f.clock.Now(), LastCheckIn: f.clock.Now()}
	require.NoError(t, f.store.CreateUser(context.Background(), u))
	return u
}

func (f *fixture) kinds() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]string, 0, len(f.events))
	for _, ev := range f.events {
		out = append(out, ev.Kind)
	}
	return out
}

func TestEnqueuePosition(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	for i := 1; i <= 3; i++ {
		pos, err := f.queue.Enqueue(ctx, f.user(t), fmt.Sprintf("post %d", i))
		require.NoError(t, err)
		assert.Equal(t, i, pos)
		f.clock.Advance(time.Second)
	}

	queued, err := f.queue.AllQueued(ctx)
	require.NoError(t, err)
	require.Len(t, queued, 3)
	assert.Equal(t, "post 1", queued[0].Message)
	assert.Equal(t, "post 3", queued[2].Message)
}

func TestEnqueueRejectsEmptyMessage(t *testing.T) {
	f := newFixture(t)
	_, err := f.queue.Enqueue(context.Background(), f.user(t), "   ")
	assert.ErrorIs(t, err, ErrEmptyMessage)

	_, err = f.queue.Enqueue(context.Background(), nil, "hello")
	assert.ErrorIs(t, err, ErrNoUser)
}

func TestEnqueueThrottle(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	u := f.user(t)

	_, err := f.queue.Enqueue(ctx, u, "first")
	require.NoError(t, err)

	f.clock.Advance(2 * time.Minute)
	_, err = f.queue.Enqueue(ctx, u, "too soon")
	require.ErrorIs(t, err, ErrChillOut)

	var chill *ChillOutError
	require.True(t, errors.As(err, &chill))
	assert.True(t, chill.RetryAt.Equal(epoch.Add(throttle)))

	// Another user is unaffected
	_, err = f.queue.Enqueue(ctx, f.user(t), "other")
	require.NoError(t, err)

	// Exactly one throttle interval later is allowed
	f.clock.Set(epoch.Add(throttle))
	pos, err := f.queue.Enqueue(ctx, u, "second")
	require.NoError(t, err)
	assert.Equal(t, 3, pos)
}

func TestAdvanceEmptyQueue(t *testing.T) {
	f := newFixture(t)
	p, err := f.queue.Advance(context.Background())
	require.NoError(t, err)
	assert.Nil(t, p)

	current, err := f.queue.Current(context.Background())
	require.NoError(t, err)
	assert.Nil(t, current)
	assert.Empty(t, f.kinds())
}

func TestAdvanceInOrder(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	for _, msg := range []string{"a", "b", "c"} {
		_, err := f.queue.Enqueue(ctx, f.user(t), msg)
		require.NoError(t, err)
		f.clock.Advance(time.Second)
	}

	for _, want := range []string{"a", "b", "c"} {
		p, err := f.queue.Advance(ctx)
		require.NoError(t, err)
		require.NotNil(t, p)
		assert.Equal(t, want, p.Message)
		require.NotNil(t, p.Showtime)

		current, err := f.queue.Current(ctx)
		require.NoError(t, err)
		assert.Equal(t, p.ID, current.ID)
		f.clock.Advance(time.Second)
	}

	n, err := f.queue.Len(ctx)
	require.NoError(t, err)
	assert.Zero(t, n)

	// Draining the queue leaves the last post current
	p, err := f.queue.Advance(ctx)
	require.NoError(t, err)
	assert.Nil(t, p)
	current, err := f.queue.Current(ctx)
	require.NoError(t, err)
	assert.Equal(t, "c", current.Message)

	assert.Equal(t, []string{models.EventShowing, models.EventShowing, models.EventShowing}, f.kinds())
}

func TestConcurrentAdvanceShowsOnePost(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	for _, msg := range []string{"a", "b", "c"} {
		_, err := f.queue.Enqueue(ctx, f.user(t), msg)
		require.NoError(t, err)
		f.clock.Advance(time.Second)
	}

	var wg sync.WaitGroup
	results := make([]*models.Post, 8)
	for i := range results {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			p, err := f.queue.Advance(ctx)
			assert.NoError(t, err)
			results[i] = p
		}(i)
	}
	wg.Wait()

	// Same instant: exactly one showing, everyone sees it
	n, err := f.queue.Len(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, n)
	for _, p := range results {
		require.NotNil(t, p)
		assert.Equal(t, "a", p.Message)
	}
}

func TestVoteCurrentPost(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	poster := f.user(t)

	_, err := f.ledger.Vote(ctx, poster, nil)
	require.ErrorIs(t, err, ErrNoCurrentPost)

	_, err = f.queue.Enqueue(ctx, poster, "vote for me")
	require.NoError(t, err)
	p, err := f.queue.Advance(ctx)
	require.NoError(t, err)

	// Poster's self-vote counts from the start
	n, err := f.ledger.VoteCount(ctx, p)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	a, b := f.user(t), f.user(t)
	n, err = f.ledger.Vote(ctx, a, nil)
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	n, err = f.ledger.Vote(ctx, b, p)
	require.NoError(t, err)
	assert.Equal(t, 3, n)

	// Repeat votes are idempotent
	n, err = f.ledger.Vote(ctx, a, nil)
	require.NoError(t, err)
	assert.Equal(t, 3, n)
	n, err = f.ledger.Vote(ctx, poster, nil)
	require.NoError(t, err)
	assert.Equal(t, 3, n)
}

func TestConcurrentVotes(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	_, err := f.queue.Enqueue(ctx, f.user(t), "crowd")
	require.NoError(t, err)
	p, err := f.queue.Advance(ctx)
	require.NoError(t, err)

	voters := make([]*models.User, 20)
	for i := range voters {
		voters[i] = f.user(t)
	}

	var wg sync.WaitGroup
	for _, u := range voters {
		for j := 0; j < 2; j++ {
			wg.Add(1)
			go func(u *models.User) {
				defer wg.Done()
				_, err := f.ledger.Vote(ctx, u, nil)
				assert.NoError(t, err)
			}(u)
		}
	}
	wg.Wait()

	n, err := f.ledger.VoteCount(ctx, p)
	require.NoError(t, err)
	assert.Equal(t, 21, n)
}

func TestRunAdvancesOnTicker(t *testing.T) {
	f := newFixture(t)
	_, err := f.queue.Enqueue(context.Background(), f.user(t), "scheduled")
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go f.queue.Run(ctx, 10*time.Millisecond)

	require.Eventually(t, func() bool {
		p, err := f.queue.Current(context.Background())
		return err == nil && p != nil && p.Message == "scheduled"
	}, 2*time.Second, 10*time.Millisecond)
}
