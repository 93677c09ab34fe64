// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package sqlstore_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/danielhkuo/now-showing/models"
	"github.com/danielhkuo/now-showing/store"
	"github.com/danielhkuo/now-showing/store/sqlstore"
	"github.com/danielhkuo/now-showing/store/storetest"
	"github.com/danielhkuo/now-showing/testutil"
)

func TestSQLStore(t *testing.T) {
	storetest.Run(t, func(t *testing.T) store.Store {
		return sqlstore.New(testutil.SetupTestDB(t))
	})
}

func TestVotesRequireExistingPost(t *testing.T) {
	conn := testutil.SetupTestDB(t)
	s := sqlstore.New(conn)
	voter := testutil.CreateTestUser(t, conn, "", testutil.Epoch)

	err := s.AddVoter(context.Background(), "no-such-post", voter, testutil.Epoch)
	assert.Error(t, err, "foreign key should reject votes on unknown posts")
}

func newMockStore(t *testing.T) (*sqlstore.Store, sqlmock.Sqlmock) {
	t.Helper()
	conn, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	return sqlstore.New(sqlx.NewDb(conn, "sqlmock")), mock
}

func TestStoreUnavailablePropagates(t *testing.T) {
	s, mock := newMockStore(t)
	outage := errors.New("connection refused")

	mock.ExpectQuery("SELECT id, class, value, generation, created_at, consumed FROM verification_code").
		WithArgs("sms", 2).
		WillReturnError(outage)

	_, err := s.RecentCodes(context.Background(), models.ClassSMS, 2)
	require.Error(t, err)
	assert.ErrorIs(t, err, outage)
	assert.NotErrorIs(t, err, store.ErrNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestConsumeCodeLosesRace(t *testing.T) {
	s, mock := newMockStore(t)

	mock.ExpectExec("UPDATE verification_code SET consumed = TRUE").
		WithArgs("qr", "foobarqr1").
		WillReturnResult(sqlmock.NewResult(0, 0))

	won, err := s.ConsumeCode(context.Background(), models.ClassQR, "foobarqr1")
	require.NoError(t, err)
	assert.False(t, won)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestInsertPostRollsBackOnVoteFailure(t *testing.T) {
	s, mock := newMockStore(t)
	at := time.Date(2025, 6, 1, 20, 0, 0, 0, time.UTC)

	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO post").
		WithArgs("post-1", "hello", "user-1", at).
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectExec("INSERT INTO vote").
		WithArgs("post-1", "user-1", at).
		WillReturnError(errors.New("disk full"))
	mock.ExpectRollback()

	err := s.InsertPost(context.Background(), &models.Post{
		ID: "post-1", Message: "hello", PosterID: "user-1", SubmittedAt: at, Voters: []string{"user-1"},
	})
	assert.Error(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}
