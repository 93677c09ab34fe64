// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package codes

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/danielhkuo/now-showing/auth"
	"github.com/danielhkuo/now-showing/clock"
	"github.com/danielhkuo/now-showing/events"
	"github.com/danielhkuo/now-showing/models"
	"github.com/danielhkuo/now-showing/store"
)

// ErrGenerationExhausted means every attempt to mint a code collided. The
// alphabet or length is too small for the load; it is not a request error.
var ErrGenerationExhausted = errors.New("code generation exhausted retries")

// Policy holds the per-class code rules.
type Policy struct {
	RotationPeriod time.Duration // SMS codes are replaced once this old
	Grace          time.Duration // previous SMS code stays valid this long after a rotation
	SMSLength      int
	QRLength       int
	Alphabet       string
	MaxAttempts    int
}

func DefaultPolicy() Policy {
	return Policy{
		RotationPeriod: 10 * time.Minute,
		Grace:          10 * time.Minute,
		SMSLength:      6,
		QRLength:       9,
		Alphabet:       auth.CodeAlphabet,
		MaxAttempts:    10,
	}
}

// Store mints, rotates and validates verification codes.
type Store struct {
	codes    store.Codes
	clock    clock.Clock
	policy   Policy
	sink     events.Sink
	generate func(alphabet string, length int) (string, error)
}

func New(codes store.Codes, clk clock.Clock, policy Policy, sink events.Sink) *Store {
	if policy.MaxAttempts <= 0 {
		policy.MaxAttempts = DefaultPolicy().MaxAttempts
	}
	if policy.Alphabet == "" {
		policy.Alphabet = auth.CodeAlphabet
	}
	return &Store{
		codes:    codes,
		clock:    clk,
		policy:   policy,
		sink:     events.OrDiscard(sink),
		generate: auth.GenerateCode,
	}
}

// Current returns the active code for the class, creating one when there is
// none, when the SMS code has outlived its rotation period, or when the QR
// code has been spent.
//
// Concurrent callers may race to rotate. Each new code claims the next
// generation number, which the store keeps unique per class, so exactly one
// rotation lands and the losers re-read and return the winner.
func (s *Store) Current(ctx context.Context, class models.CodeClass) (models.VerificationCode, error) {
	for attempt := 0; attempt < s.policy.MaxAttempts; attempt++ {
		recent, err := s.codes.RecentCodes(ctx, class, 1)
		if err != nil {
			return models.VerificationCode{}, fmt.Errorf("failed to load %s code: %w", class, err)
		}

		var newest *models.VerificationCode
		if len(recent) > 0 {
			newest = &recent[0]
			if !s.expired(*newest) {
				return *newest, nil
			}
		}

		code, err := s.mint(ctx, class, newest)
		if err == nil {
			return code, nil
		}
		if !errors.Is(err, store.ErrDuplicate) {
			return models.VerificationCode{}, err
		}
		// Value collision or a concurrent rotation; re-read and try again
	}

	slog.Error("code generation exhausted", "class", class, "attempts", s.policy.MaxAttempts)
	return models.VerificationCode{}, ErrGenerationExhausted
}

// Validate reports whether candidate is currently acceptable for the class.
// It never fails for bad input; only store errors are returned.
func (s *Store) Validate(ctx context.Context, class models.CodeClass, candidate string) (bool, error) {
	switch class {
	case models.ClassSMS:
		return s.validateSMS(ctx, candidate)
	case models.ClassQR:
		return s.validateQR(ctx, candidate)
	}
	return false, nil
}

// validateSMS accepts the newest code until it would have aged out as a
// previous code, or the one before it while the newest is younger than the
// grace window
func (s *Store) validateSMS(ctx context.Context, candidate string) (bool, error) {
	candidate = strings.TrimSpace(candidate)
	if candidate == "" {
		return false, nil
	}

	recent, err := s.codes.RecentCodes(ctx, models.ClassSMS, 2)
	if err != nil {
		return false, fmt.Errorf("failed to load sms codes: %w", err)
	}
	if len(recent) == 0 {
		return false, nil
	}

	// Phones like to capitalize the first letter of a message
	now := s.clock.Now()
	current := recent[0]
	if strings.EqualFold(candidate, current.Value) {
		// Nobody called Current to rotate it; stale all the same
		return now.Before(current.CreatedAt.Add(s.policy.RotationPeriod + s.policy.Grace)), nil
	}
	if len(recent) > 1 && strings.EqualFold(candidate, recent[1].Value) {
		return now.Before(current.CreatedAt.Add(s.policy.Grace)), nil
	}
	return false, nil
}

// validateQR spends the active QR code and mints its replacement
func (s *Store) validateQR(ctx context.Context, candidate string) (bool, error) {
	candidate = strings.TrimSpace(candidate)
	if candidate == "" {
		return false, nil
	}

	won, err := s.codes.ConsumeCode(ctx, models.ClassQR, candidate)
	if err != nil {
		return false, fmt.Errorf("failed to consume qr code: %w", err)
	}
	if !won {
		return false, nil
	}

	// The check-in already succeeded; a failed replacement is retried by the
	// next Current call since a consumed code always counts as expired
	if _, err := s.Current(ctx, models.ClassQR); err != nil {
		slog.Error("failed to replace qr code", "error", err)
	}
	return true, nil
}

func (s *Store) expired(c models.VerificationCode) bool {
	switch c.Class {
	case models.ClassQR:
		return c.Consumed
	default:
		return !s.clock.Now().Before(c.CreatedAt.Add(s.policy.RotationPeriod))
	}
}

// mint makes one attempt at inserting the successor of prev
func (s *Store) mint(ctx context.Context, class models.CodeClass, prev *models.VerificationCode) (models.VerificationCode, error) {
	value, err := s.generate(s.policy.Alphabet, s.length(class))
	if err != nil {
		return models.VerificationCode{}, err
	}

	code := models.VerificationCode{
		ID:         uuid.NewString(),
		Class:      class,
		Value:      value,
		Generation: 1,
		CreatedAt:  s.clock.Now(),
	}
	if prev != nil {
		code.Generation = prev.Generation + 1
	}

	if err := s.codes.InsertCode(ctx, &code); err != nil {
		return models.VerificationCode{}, err
	}

	slog.Info("code rotated", "class", class, "generation", code.Generation)
	s.sink.Publish(models.Event{Kind: eventKind(class), Value: code.Value})
	return code, nil
}

func (s *Store) length(class models.CodeClass) int {
	if class == models.ClassQR {
		return s.policy.QRLength
	}
	return s.policy.SMSLength
}

func eventKind(class models.CodeClass) string {
	if class == models.ClassQR {
		return models.EventQRCode
	}
	return models.EventSMSCode
}
