// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package testutil

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/danielhkuo/now-showing/cliparse"
	"github.com/danielhkuo/now-showing/db"
)

// Epoch is the fixed start time used by fake clocks in tests
var Epoch = time.Date(2025, 6, 1, 20, 0, 0, 0, time.UTC)

// SetupTestDB creates a fresh SQLite database with the full schema
func SetupTestDB(t *testing.T) *sqlx.DB {
	t.Helper()

	conn, err := db.Open(db.TypeSQLite, filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("Failed to open test database: %v", err)
	}
	t.Cleanup(func() { conn.Close() })

	return conn
}

// GetTestConfig returns a standard test configuration
func GetTestConfig() cliparse.Config {
	return cliparse.Config{
		Port:           3318,
		DatabaseType:   db.TypeSQLite,
		AdminKey:       "test-admin-key",
		LogSalt:        "test-log-salt",
		PublicURL:      "https://board.example.com",
		RotationPeriod: 10 * time.Minute,
		Grace:          10 * time.Minute,
		CheckInTTL:     time.Hour,
		PostThrottle:   5 * time.Minute,
	}
}

// CreateTestUser inserts a checked-in attendee and returns its ID.
// Pass an empty phone for a QR-issued user.
func CreateTestUser(t *testing.T, conn *sqlx.DB, phone string, lastCheckIn time.Time) string {
	t.Helper()

	id := uuid.NewString()
	var phoneArg interface{}
	if phone != "" {
		phoneArg = phone
	}

	_, err := conn.Exec(`
		INSERT INTO attendee (id, phone_number, qr_issued, created_at, last_check_in)
		VALUES ($1, $2, $3, $4, $5)
	`, id, phoneArg, phone == "", lastCheckIn.UTC(), lastCheckIn.UTC())
	if err != nil {
		t.Fatalf("Failed to create test user: %v", err)
	}

	return id
}

// MakeRequest creates an HTTP test request with a JSON body
func MakeRequest(method, path string, body interface{}, headers map[string]string) *http.Request {
	var req *http.Request
	if body != nil {
		jsonBody, _ := json.Marshal(body)
		req = httptest.NewRequest(method, path, bytes.NewReader(jsonBody))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, path, nil)
	}

	for k, v := range headers {
		req.Header.Set(k, v)
	}

	return req
}

// MakeFormRequest creates a form-encoded request the way Twilio posts webhooks
func MakeFormRequest(path string, form url.Values, headers map[string]string) *http.Request {
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	return req
}

// AssertStatus checks that the response has the expected status code
func AssertStatus(t *testing.T, w *httptest.ResponseRecorder, expected int) {
	t.Helper()
	if w.Code != expected {
		t.Errorf("Expected status %d, got %d. Body: %s", expected, w.Code, w.Body.String())
	}
}

// AssertJSON decodes the response body into the provided struct
func AssertJSON(t *testing.T, w *httptest.ResponseRecorder, v interface{}) {
	t.Helper()
	if err := json.NewDecoder(w.Body).Decode(v); err != nil {
		t.Fatalf("Failed to decode JSON response: %v", err)
	}
}
