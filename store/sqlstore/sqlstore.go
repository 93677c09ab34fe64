// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

// Package sqlstore implements the store contracts on PostgreSQL or SQLite.
// Queries use $N placeholders, which both lib/pq and modernc.org/sqlite bind
// positionally. Timestamps are written in UTC so lexical and chronological
// order agree on SQLite.
package sqlstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/danielhkuo/now-showing/db"
	"github.com/danielhkuo/now-showing/models"
	"github.com/danielhkuo/now-showing/store"
)

type Store struct {
	db *sqlx.DB
}

var _ store.Store = (*Store)(nil)

func New(conn *sqlx.DB) *Store {
	return &Store{db: conn}
}

// translate maps driver errors onto the store sentinels
func translate(err error, op string) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, sql.ErrNoRows):
		return store.ErrNotFound
	case db.IsUniqueViolation(err):
		return fmt.Errorf("%s: %w", op, store.ErrDuplicate)
	default:
		return fmt.Errorf("%s: %w", op, err)
	}
}

// Users

const userColumns = `id, phone_number, qr_issued, created_at, last_check_in`

func (s *Store) CreateUser(ctx context.Context, u *models.User) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO attendee (id, phone_number, qr_issued, created_at, last_check_in)
		VALUES ($1, $2, $3, $4, $5)
	`, u.ID, u.PhoneNumber, u.QRIssued, u.CreatedAt.UTC(), u.LastCheckIn.UTC())
	return translate(err, "insert attendee")
}

func (s *Store) UserByID(ctx context.Context, id string) (*models.User, error) {
	var u models.User
	err := s.db.GetContext(ctx, &u, `SELECT `+userColumns+` FROM attendee WHERE id = $1`, id)
	if err != nil {
		return nil, translate(err, "query attendee")
	}
	return &u, nil
}

func (s *Store) UserByPhone(ctx context.Context, phone string) (*models.User, error) {
	var u models.User
	err := s.db.GetContext(ctx, &u, `SELECT `+userColumns+` FROM attendee WHERE phone_number = $1`, phone)
	if err != nil {
		return nil, translate(err, "query attendee by phone")
	}
	return &u, nil
}

func (s *Store) EnsurePhoneUser(ctx context.Context, u *models.User) (*models.User, error) {
	if u.PhoneNumber == nil {
		return nil, errors.New("ensure phone user: phone number required")
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO attendee (id, phone_number, qr_issued, created_at, last_check_in)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (phone_number) DO NOTHING
	`, u.ID, *u.PhoneNumber, u.QRIssued, u.CreatedAt.UTC(), u.LastCheckIn.UTC())
	if err != nil {
		return nil, translate(err, "upsert attendee")
	}

	return s.UserByPhone(ctx, *u.PhoneNumber)
}

func (s *Store) TouchCheckIn(ctx context.Context, id string, at time.Time) error {
	res, err := s.db.ExecContext(ctx, `
		UPDATE attendee SET last_check_in = $1
		WHERE id = $2 AND last_check_in < $1
	`, at.UTC(), id)
	if err != nil {
		return translate(err, "touch check-in")
	}

	if n, _ := res.RowsAffected(); n == 0 {
		// Either the user is gone or a later check-in already landed
		var exists bool
		if err := s.db.GetContext(ctx, &exists, `SELECT EXISTS(SELECT 1 FROM attendee WHERE id = $1)`, id); err != nil {
			return translate(err, "query attendee")
		}
		if !exists {
			return store.ErrNotFound
		}
	}
	return nil
}

// Codes

const codeColumns = `id, class, value, generation, created_at, consumed`

func (s *Store) RecentCodes(ctx context.Context, class models.CodeClass, n int) ([]models.VerificationCode, error) {
	codes := []models.VerificationCode{}
	err := s.db.SelectContext(ctx, &codes, `
		SELECT `+codeColumns+` FROM verification_code
		WHERE class = $1
		ORDER BY generation DESC
		LIMIT $2
	`, string(class), n)
	if err != nil {
		return nil, translate(err, "query codes")
	}
	return codes, nil
}

func (s *Store) InsertCode(ctx context.Context, c *models.VerificationCode) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO verification_code (id, class, value, generation, created_at, consumed)
		VALUES ($1, $2, $3, $4, $5, $6)
	`, c.ID, string(c.Class), c.Value, c.Generation, c.CreatedAt.UTC(), c.Consumed)
	return translate(err, "insert code")
}

func (s *Store) ConsumeCode(ctx context.Context, class models.CodeClass, value string) (bool, error) {
	res, err := s.db.ExecContext(ctx, `
		UPDATE verification_code SET consumed = TRUE
		WHERE class = $1 AND value = $2 AND consumed = FALSE
		  AND generation = (SELECT MAX(generation) FROM verification_code WHERE class = $1)
	`, string(class), value)
	if err != nil {
		return false, translate(err, "consume code")
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, translate(err, "consume code")
	}
	return n == 1, nil
}

// Posts

const postColumns = `id, message, poster_id, submitted_at, showtime`

func (s *Store) InsertPost(ctx context.Context, p *models.Post) error {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return translate(err, "begin transaction")
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx, `
		INSERT INTO post (id, message, poster_id, submitted_at)
		VALUES ($1, $2, $3, $4)
	`, p.ID, p.Message, p.PosterID, p.SubmittedAt.UTC())
	if err != nil {
		return translate(err, "insert post")
	}

	for _, voter := range p.Voters {
		_, err = tx.ExecContext(ctx, `
			INSERT INTO vote (post_id, user_id, voted_at)
			VALUES ($1, $2, $3)
			ON CONFLICT (post_id, user_id) DO NOTHING
		`, p.ID, voter, p.SubmittedAt.UTC())
		if err != nil {
			return translate(err, "insert vote")
		}
	}

	return translate(tx.Commit(), "commit post")
}

func (s *Store) PostByID(ctx context.Context, id string) (*models.Post, error) {
	return s.getPost(ctx, `SELECT `+postColumns+` FROM post WHERE id = $1`, id)
}

func (s *Store) LatestPostBy(ctx context.Context, posterID string) (*models.Post, error) {
	return s.getPost(ctx, `
		SELECT `+postColumns+` FROM post
		WHERE poster_id = $1
		ORDER BY submitted_at DESC, id DESC
		LIMIT 1
	`, posterID)
}

func (s *Store) QueuedPosts(ctx context.Context) ([]models.Post, error) {
	posts := []models.Post{}
	err := s.db.SelectContext(ctx, &posts, `
		SELECT `+postColumns+` FROM post
		WHERE showtime IS NULL
		ORDER BY submitted_at ASC, id ASC
	`)
	if err != nil {
		return nil, translate(err, "query queued posts")
	}
	return posts, nil
}

func (s *Store) CountQueued(ctx context.Context) (int, error) {
	var n int
	err := s.db.GetContext(ctx, &n, `SELECT COUNT(*) FROM post WHERE showtime IS NULL`)
	if err != nil {
		return 0, translate(err, "count queued posts")
	}
	return n, nil
}

func (s *Store) OldestQueued(ctx context.Context) (*models.Post, error) {
	return s.getPost(ctx, `
		SELECT `+postColumns+` FROM post
		WHERE showtime IS NULL
		ORDER BY submitted_at ASC, id ASC
		LIMIT 1
	`)
}

func (s *Store) MarkShown(ctx context.Context, id string, at time.Time) (bool, error) {
	res, err := s.db.ExecContext(ctx, `
		UPDATE post SET showtime = $1
		WHERE id = $2 AND showtime IS NULL
	`, at.UTC(), id)
	if err != nil {
		return false, translate(err, "mark post shown")
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, translate(err, "mark post shown")
	}
	return n == 1, nil
}

func (s *Store) CurrentPost(ctx context.Context) (*models.Post, error) {
	return s.getPost(ctx, `
		SELECT `+postColumns+` FROM post
		WHERE showtime IS NOT NULL
		ORDER BY showtime DESC
		LIMIT 1
	`)
}

func (s *Store) AddVoter(ctx context.Context, postID, userID string, at time.Time) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO vote (post_id, user_id, voted_at)
		VALUES ($1, $2, $3)
		ON CONFLICT (post_id, user_id) DO NOTHING
	`, postID, userID, at.UTC())
	return translate(err, "insert vote")
}

func (s *Store) CountVoters(ctx context.Context, postID string) (int, error) {
	var n int
	err := s.db.GetContext(ctx, &n, `SELECT COUNT(*) FROM vote WHERE post_id = $1`, postID)
	if err != nil {
		return 0, translate(err, "count votes")
	}
	return n, nil
}

// getPost loads one post and its voter set
func (s *Store) getPost(ctx context.Context, query string, args ...interface{}) (*models.Post, error) {
	var p models.Post
	if err := s.db.GetContext(ctx, &p, query, args...); err != nil {
		return nil, translate(err, "query post")
	}

	voters := []string{}
	err := s.db.SelectContext(ctx, &voters, `
		SELECT user_id FROM vote WHERE post_id = $1 ORDER BY voted_at, user_id
	`, p.ID)
	if err != nil {
		return nil, translate(err, "query voters")
	}
	p.Voters = voters
	return &p, nil
}
