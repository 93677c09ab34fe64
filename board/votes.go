// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package board

import (
	"context"
	"fmt"
	"strconv"

	"github.com/danielhkuo/now-showing/clock"
	"github.com/danielhkuo/now-showing/events"
	"github.com/danielhkuo/now-showing/models"
	"github.com/danielhkuo/now-showing/store"
)

// Ledger records at most one vote per user per post.
type Ledger struct {
	posts store.Posts
	queue *Queue
	clock clock.Clock
	sink  events.Sink
}

func NewLedger(posts store.Posts, queue *Queue, clk clock.Clock, sink events.Sink) *Ledger {
	return &Ledger{posts: posts, queue: queue, clock: clk, sink: events.OrDiscard(sink)}
}

// Vote adds u to the post's voters and returns the vote count. A nil post
// means the current one. Voting twice is not an error.
func (l *Ledger) Vote(ctx context.Context, u *models.User, post *models.Post) (int, error) {
	if u == nil {
		return 0, ErrNoUser
	}
	if post == nil {
		current, err := l.queue.Current(ctx)
		if err != nil {
			return 0, err
		}
		if current == nil {
			return 0, ErrNoCurrentPost
		}
		post = current
	}

	if err := l.posts.AddVoter(ctx, post.ID, u.ID, l.clock.Now()); err != nil {
		return 0, fmt.Errorf("failed to record vote: %w", err)
	}

	n, err := l.VoteCount(ctx, post)
	if err != nil {
		return 0, err
	}

	l.sink.Publish(models.Event{Kind: models.EventVote, Value: strconv.Itoa(n)})
	return n, nil
}

// VoteCount returns the number of distinct voters on post
func (l *Ledger) VoteCount(ctx context.Context, post *models.Post) (int, error) {
	if post == nil {
		return 0, ErrNoCurrentPost
	}
	n, err := l.posts.CountVoters(ctx, post.ID)
	if err != nil {
		return 0, fmt.Errorf("failed to count votes: %w", err)
	}
	return n, nil
}
