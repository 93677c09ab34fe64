// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

// Package storetest holds the behavioural suite every store implementation
// must pass. Implementations call Run from their own tests.
package storetest

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/danielhkuo/now-showing/models"
	"github.com/danielhkuo/now-showing/store"
)

var base = time.Date(2025, 6, 1, 20, 0, 0, 0, time.UTC)

// Run executes the suite; newStore must return an empty store per call.
func Run(t *testing.T, newStore func(t *testing.T) store.Store) {
	t.Run("Users", func(t *testing.T) { testUsers(t, newStore(t)) })
	t.Run("Codes", func(t *testing.T) { testCodes(t, newStore(t)) })
	t.Run("ConsumeOnce", func(t *testing.T) { testConsumeOnce(t, newStore(t)) })
	t.Run("PostQueue", func(t *testing.T) { testPostQueue(t, newStore(t)) })
	t.Run("Votes", func(t *testing.T) { testVotes(t, newStore(t)) })
	t.Run("ShowtimeUnique", func(t *testing.T) { testShowtimeUnique(t, newStore(t)) })
}

func phoneUser(phone string, at time.Time) *models.User {
	return &models.User{ID: uuid.NewString(), PhoneNumber: &phone, CreatedAt: at, LastCheckIn: at}
}

func testUsers(t *testing.T, s store.Store) {
	ctx := context.Background()

	u := phoneUser("+15551230001", base)
	got, err := s.EnsurePhoneUser(ctx, u)
	require.NoError(t, err)
	assert.Equal(t, u.ID, got.ID)

	// Same phone, different candidate id: the stored row wins
	again, err := s.EnsurePhoneUser(ctx, phoneUser("+15551230001", base.Add(time.Minute)))
	require.NoError(t, err)
	assert.Equal(t, u.ID, again.ID)

	byPhone, err := s.UserByPhone(ctx, "+15551230001")
	require.NoError(t, err)
	assert.Equal(t, u.ID, byPhone.ID)

	_, err = s.UserByPhone(ctx, "+15550000000")
	assert.ErrorIs(t, err, store.ErrNotFound)
	_, err = s.UserByID(ctx, "missing")
	assert.ErrorIs(t, err, store.ErrNotFound)

	qr := &models.User{ID: uuid.NewString(), QRIssued: true, CreatedAt: base, LastCheckIn: base}
	require.NoError(t, s.CreateUser(ctx, qr))
	assert.ErrorIs(t, s.CreateUser(ctx, qr), store.ErrDuplicate)

	loaded, err := s.UserByID(ctx, qr.ID)
	require.NoError(t, err)
	assert.True(t, loaded.QRIssued)
	assert.Nil(t, loaded.PhoneNumber)

	// last_check_in only moves forward
	require.NoError(t, s.TouchCheckIn(ctx, qr.ID, base.Add(time.Hour)))
	require.NoError(t, s.TouchCheckIn(ctx, qr.ID, base.Add(time.Minute)))
	loaded, err = s.UserByID(ctx, qr.ID)
	require.NoError(t, err)
	assert.True(t, loaded.LastCheckIn.Equal(base.Add(time.Hour)), "got %v", loaded.LastCheckIn)

	assert.ErrorIs(t, s.TouchCheckIn(ctx, "missing", base), store.ErrNotFound)
}

func code(class models.CodeClass, value string, gen int64, at time.Time) *models.VerificationCode {
	return &models.VerificationCode{ID: uuid.NewString(), Class: class, Value: value, Generation: gen, CreatedAt: at}
}

func testCodes(t *testing.T, s store.Store) {
	ctx := context.Background()

	recent, err := s.RecentCodes(ctx, models.ClassSMS, 2)
	require.NoError(t, err)
	assert.Empty(t, recent)

	require.NoError(t, s.InsertCode(ctx, code(models.ClassSMS, "abc123", 1, base)))
	require.NoError(t, s.InsertCode(ctx, code(models.ClassSMS, "xyz789", 2, base.Add(11*time.Minute))))

	// Same value in another class is fine
	require.NoError(t, s.InsertCode(ctx, code(models.ClassQR, "abc123", 1, base)))

	err = s.InsertCode(ctx, code(models.ClassSMS, "abc123", 3, base))
	assert.ErrorIs(t, err, store.ErrDuplicate, "value collision")
	err = s.InsertCode(ctx, code(models.ClassSMS, "fresh1", 2, base))
	assert.ErrorIs(t, err, store.ErrDuplicate, "generation collision")

	recent, err = s.RecentCodes(ctx, models.ClassSMS, 2)
	require.NoError(t, err)
	require.Len(t, recent, 2)
	assert.Equal(t, "xyz789", recent[0].Value)
	assert.Equal(t, "abc123", recent[1].Value)
	assert.Equal(t, models.ClassSMS, recent[0].Class)
	assert.True(t, recent[0].CreatedAt.Equal(base.Add(11*time.Minute)))

	one, err := s.RecentCodes(ctx, models.ClassSMS, 1)
	require.NoError(t, err)
	require.Len(t, one, 1)
	assert.Equal(t, int64(2), one[0].Generation)
}

func testConsumeOnce(t *testing.T, s store.Store) {
	ctx := context.Background()

	require.NoError(t, s.InsertCode(ctx, code(models.ClassQR, "foobarqr1", 1, base)))
	require.NoError(t, s.InsertCode(ctx, code(models.ClassQR, "foobarqr2", 2, base)))

	// Only the newest generation can be consumed
	won, err := s.ConsumeCode(ctx, models.ClassQR, "foobarqr1")
	require.NoError(t, err)
	assert.False(t, won)

	var wins atomic.Int32
	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			ok, err := s.ConsumeCode(ctx, models.ClassQR, "foobarqr2")
			if err == nil && ok {
				wins.Add(1)
			}
		}()
	}
	wg.Wait()
	assert.Equal(t, int32(1), wins.Load(), "exactly one consumer must win")

	recent, err := s.RecentCodes(ctx, models.ClassQR, 1)
	require.NoError(t, err)
	assert.True(t, recent[0].Consumed)
}

func newPost(poster *models.User, msg string, at time.Time) *models.Post {
	return &models.Post{ID: uuid.NewString(), Message: msg, PosterID: poster.ID, SubmittedAt: at, Voters: []string{poster.ID}}
}

func testPostQueue(t *testing.T, s store.Store) {
	ctx := context.Background()

	alice := phoneUser("+15551230002", base)
	bob := phoneUser("+15551230003", base)
	require.NoError(t, s.CreateUser(ctx, alice))
	require.NoError(t, s.CreateUser(ctx, bob))

	_, err := s.OldestQueued(ctx)
	assert.ErrorIs(t, err, store.ErrNotFound)
	_, err = s.CurrentPost(ctx)
	assert.ErrorIs(t, err, store.ErrNotFound)
	_, err = s.LatestPostBy(ctx, alice.ID)
	assert.ErrorIs(t, err, store.ErrNotFound)

	first := newPost(alice, "first!", base.Add(time.Second))
	second := newPost(bob, "second", base.Add(2*time.Second))
	third := newPost(alice, "third", base.Add(3*time.Second))
	for _, p := range []*models.Post{first, second, third} {
		require.NoError(t, s.InsertPost(ctx, p))
	}

	latest, err := s.LatestPostBy(ctx, alice.ID)
	require.NoError(t, err)
	assert.Equal(t, third.ID, latest.ID)
	assert.Equal(t, []string{alice.ID}, latest.Voters)

	n, err := s.CountQueued(ctx)
	require.NoError(t, err)
	assert.Equal(t, 3, n)

	queued, err := s.QueuedPosts(ctx)
	require.NoError(t, err)
	require.Len(t, queued, 3)
	assert.Equal(t, []string{first.ID, second.ID, third.ID}, []string{queued[0].ID, queued[1].ID, queued[2].ID})

	oldest, err := s.OldestQueued(ctx)
	require.NoError(t, err)
	assert.Equal(t, first.ID, oldest.ID)

	shown := base.Add(time.Minute)
	won, err := s.MarkShown(ctx, first.ID, shown)
	require.NoError(t, err)
	assert.True(t, won)

	// Showtime is set once and never changed
	won, err = s.MarkShown(ctx, first.ID, shown.Add(time.Minute))
	require.NoError(t, err)
	assert.False(t, won)

	current, err := s.CurrentPost(ctx)
	require.NoError(t, err)
	assert.Equal(t, first.ID, current.ID)
	require.NotNil(t, current.Showtime)
	assert.True(t, current.Showtime.Equal(shown))

	won, err = s.MarkShown(ctx, second.ID, shown.Add(time.Minute))
	require.NoError(t, err)
	assert.True(t, won)
	current, err = s.CurrentPost(ctx)
	require.NoError(t, err)
	assert.Equal(t, second.ID, current.ID)

	// Re-querying reflects the new state
	queued, err = s.QueuedPosts(ctx)
	require.NoError(t, err)
	require.Len(t, queued, 1)
	assert.Equal(t, third.ID, queued[0].ID)
}

func testVotes(t *testing.T, s store.Store) {
	ctx := context.Background()

	poster := phoneUser("+15551230004", base)
	require.NoError(t, s.CreateUser(ctx, poster))
	p := newPost(poster, "vote for me", base)
	require.NoError(t, s.InsertPost(ctx, p))

	voters := make([]*models.User, 20)
	for i := range voters {
		voters[i] = &models.User{ID: uuid.NewString(), QRIssued: true, CreatedAt: base, LastCheckIn: base}
		require.NoError(t, s.CreateUser(ctx, voters[i]))
	}

	var wg sync.WaitGroup
	var failures atomic.Int32
	for _, v := range voters {
		for j := 0; j < 2; j++ { // every voter votes twice
			wg.Add(1)
			go func(id string) {
				defer wg.Done()
				if err := s.AddVoter(ctx, p.ID, id, base); err != nil {
					failures.Add(1)
				}
			}(v.ID)
		}
	}
	wg.Wait()
	assert.Zero(t, failures.Load())

	n, err := s.CountVoters(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, 21, n, "20 voters plus the poster's self-vote")

	loaded, err := s.PostByID(ctx, p.ID)
	require.NoError(t, err)
	assert.Len(t, loaded.Voters, 21)
	assert.Contains(t, loaded.Voters, poster.ID)
}

func testShowtimeUnique(t *testing.T, s store.Store) {
	ctx := context.Background()

	poster := phoneUser("+15551230005", base)
	require.NoError(t, s.CreateUser(ctx, poster))
	a := newPost(poster, "a", base)
	b := newPost(poster, "b", base.Add(time.Second))
	require.NoError(t, s.InsertPost(ctx, a))
	require.NoError(t, s.InsertPost(ctx, b))

	at := base.Add(time.Hour)
	won, err := s.MarkShown(ctx, a.ID, at)
	require.NoError(t, err)
	require.True(t, won)

	_, err = s.MarkShown(ctx, b.ID, at)
	assert.True(t, errors.Is(err, store.ErrDuplicate), "two posts cannot share a showtime, got %v", err)
}
