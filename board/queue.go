// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package board

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/danielhkuo/now-showing/clock"
	"github.com/danielhkuo/now-showing/events"
	"github.com/danielhkuo/now-showing/models"
	"github.com/danielhkuo/now-showing/store"
)

// maxAdvanceAttempts bounds retries when concurrent advances pick the same post
const maxAdvanceAttempts = 5

var (
	ErrChillOut      = errors.New("chill out")
	ErrEmptyMessage  = errors.New("empty message")
	ErrNoCurrentPost = errors.New("no current post")
	ErrNoUser        = errors.New("user required")
)

// ChillOutError is returned when a user posts again inside the throttle
// window. It matches ErrChillOut with errors.Is.
type ChillOutError struct {
	RetryAt time.Time
}

func (e *ChillOutError) Error() string {
	return fmt.Sprintf("chill out: next post allowed at %s", e.RetryAt.Format(time.RFC3339))
}

func (e *ChillOutError) Is(target error) bool {
	return target == ErrChillOut
}

// Queue is the FIFO of posts waiting for the board.
type Queue struct {
	posts    store.Posts
	clock    clock.Clock
	throttle time.Duration
	sink     events.Sink
}

func NewQueue(posts store.Posts, clk clock.Clock, throttle time.Duration, sink events.Sink) *Queue {
	return &Queue{posts: posts, clock: clk, throttle: throttle, sink: events.OrDiscard(sink)}
}

// Enqueue appends a post and returns its 1-based position in the queue.
// The poster's self-vote is recorded with the post.
func (q *Queue) Enqueue(ctx context.Context, u *models.User, message string) (int, error) {
	if u == nil {
		return 0, ErrNoUser
	}
	message = strings.TrimSpace(message)
	if message == "" {
		return 0, ErrEmptyMessage
	}

	now := q.clock.Now()

	// Read-then-write: two racing requests can both pass, which costs at
	// most one extra post
	last, err := q.posts.LatestPostBy(ctx, u.ID)
	switch {
	case err == nil:
		if last.SubmittedAt.After(now.Add(-q.throttle)) {
			return 0, &ChillOutError{RetryAt: last.SubmittedAt.Add(q.throttle)}
		}
	case !errors.Is(err, store.ErrNotFound):
		return 0, fmt.Errorf("failed to load latest post: %w", err)
	}

	p := &models.Post{
		ID:          uuid.NewString(),
		Message:     message,
		PosterID:    u.ID,
		SubmittedAt: now,
		Voters:      []string{u.ID},
	}
	if err := q.posts.InsertPost(ctx, p); err != nil {
		return 0, fmt.Errorf("failed to insert post: %w", err)
	}

	position, err := q.posts.CountQueued(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to count queue: %w", err)
	}

	slog.Info("post queued", "post_id", p.ID, "user_id", u.ID, "position", position)
	return position, nil
}

// Advance promotes the oldest queued post to current. An empty queue is a
// no-op returning nil. When another advance already promoted a post at this
// same instant, that post is returned instead of showing a second one.
func (q *Queue) Advance(ctx context.Context) (*models.Post, error) {
	for attempt := 0; attempt < maxAdvanceAttempts; attempt++ {
		oldest, err := q.posts.OldestQueued(ctx)
		if errors.Is(err, store.ErrNotFound) {
			return nil, nil
		}
		if err != nil {
			return nil, fmt.Errorf("failed to load queue head: %w", err)
		}

		now := q.clock.Now()
		won, err := q.posts.MarkShown(ctx, oldest.ID, now)
		if errors.Is(err, store.ErrDuplicate) {
			return q.Current(ctx)
		}
		if err != nil {
			return nil, fmt.Errorf("failed to mark post shown: %w", err)
		}
		if !won {
			// Another advance took this post; look at the new head
			continue
		}

		oldest.Showtime = &now
		slog.Info("post showing", "post_id", oldest.ID)
		q.sink.Publish(models.Event{Kind: models.EventShowing, Value: oldest.Message})
		return oldest, nil
	}
	return q.Current(ctx)
}

// Current returns the shown post with the latest showtime, or nil
func (q *Queue) Current(ctx context.Context) (*models.Post, error) {
	p, err := q.posts.CurrentPost(ctx)
	if errors.Is(err, store.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load current post: %w", err)
	}
	return p, nil
}

// AllQueued returns unshown posts in submission order, freshly queried
func (q *Queue) AllQueued(ctx context.Context) ([]models.Post, error) {
	posts, err := q.posts.QueuedPosts(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load queue: %w", err)
	}
	return posts, nil
}

// Len returns the number of queued posts
func (q *Queue) Len(ctx context.Context) (int, error) {
	n, err := q.posts.CountQueued(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to count queue: %w", err)
	}
	return n, nil
}

// Run advances the queue every interval until ctx is done
func (q *Queue) Run(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if _, err := q.Advance(ctx); err != nil {
				slog.Error("scheduled advance failed", "error", err)
			}
		}
	}
}
