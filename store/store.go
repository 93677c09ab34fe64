// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

// Package store defines the persistence contracts for users, verification
// codes and posts. Each method is a single atomic operation; none of them
// spans collections except InsertPost, which writes the poster's self-vote
// together with the post.
package store

import (
	"context"
	"errors"
	"time"

	"github.com/danielhkuo/now-showing/models"
)

var (
	ErrNotFound  = errors.New("record not found")
	ErrDuplicate = errors.New("duplicate record")
)

type Users interface {
	CreateUser(ctx context.Context, u *models.User) error
	UserByID(ctx context.Context, id string) (*models.User, error)
	UserByPhone(ctx context.Context, phone string) (*models.User, error)
	// EnsurePhoneUser inserts u unless its phone number is already taken,
	// then returns the stored row for that number.
	EnsurePhoneUser(ctx context.Context, u *models.User) (*models.User, error)
	// TouchCheckIn moves last_check_in forward to at; never backwards.
	TouchCheckIn(ctx context.Context, id string, at time.Time) error
}

type Codes interface {
	// RecentCodes returns up to n codes of the class, newest generation first.
	RecentCodes(ctx context.Context, class models.CodeClass, n int) ([]models.VerificationCode, error)
	// InsertCode returns ErrDuplicate when the value or generation is taken.
	InsertCode(ctx context.Context, c *models.VerificationCode) error
	// ConsumeCode flips consumed on the newest code of the class if it
	// carries value and is still unconsumed. Reports whether this call won.
	ConsumeCode(ctx context.Context, class models.CodeClass, value string) (bool, error)
}

type Posts interface {
	// InsertPost stores the post and its voters in one transaction.
	InsertPost(ctx context.Context, p *models.Post) error
	PostByID(ctx context.Context, id string) (*models.Post, error)
	// LatestPostBy returns ErrNotFound when the user never posted.
	LatestPostBy(ctx context.Context, posterID string) (*models.Post, error)
	QueuedPosts(ctx context.Context) ([]models.Post, error)
	CountQueued(ctx context.Context) (int, error)
	// OldestQueued returns ErrNotFound when the queue is empty.
	OldestQueued(ctx context.Context) (*models.Post, error)
	// MarkShown sets showtime on a queued post. Reports false when the post
	// was already shown; returns ErrDuplicate when another post holds at.
	MarkShown(ctx context.Context, id string, at time.Time) (bool, error)
	// CurrentPost returns ErrNotFound when nothing has been shown.
	CurrentPost(ctx context.Context) (*models.Post, error)
	// AddVoter is an insert-or-ignore set add.
	AddVoter(ctx context.Context, postID, userID string, at time.Time) error
	CountVoters(ctx context.Context, postID string) (int, error)
}

// Store bundles the three collections.
type Store interface {
	Users
	Codes
	Posts
}
