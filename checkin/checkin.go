// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package checkin

import (
	"context"
	"errors"
	"time"

	"github.com/danielhkuo/now-showing/clock"
	"github.com/danielhkuo/now-showing/models"
)

var (
	ErrInvalidCode  = errors.New("invalid code")
	ErrNoSuchUser   = errors.New("no such user")
	ErrNotCheckedIn = errors.New("not checked in")
	ErrMissingPhone = errors.New("missing phone number")
)

// CodeValidator is the part of the code store check-in depends on.
type CodeValidator interface {
	Validate(ctx context.Context, class models.CodeClass, candidate string) (bool, error)
}

// Service turns a valid code plus an identity hint into a checked-in user.
type Service struct {
	registry *Registry
	codes    CodeValidator
	clock    clock.Clock
	ttl      time.Duration
}

func NewService(registry *Registry, codes CodeValidator, clk clock.Clock, ttl time.Duration) *Service {
	return &Service{registry: registry, codes: codes, clock: clk, ttl: ttl}
}

// Registry exposes the user registry backing the service
func (s *Service) Registry() *Registry {
	return s.registry
}

// CheckInWithSMSCode validates an SMS code and checks in the phone's owner,
// creating the attendee on first contact
func (s *Service) CheckInWithSMSCode(ctx context.Context, phone, code string) (*models.User, error) {
	if NormalizePhone(phone) == "" {
		return nil, ErrMissingPhone
	}
	if err := s.validate(ctx, models.ClassSMS, code); err != nil {
		return nil, err
	}
	return s.registry.CheckInPhone(ctx, phone)
}

// CheckInWithQRCode re-checks-in an existing QR attendee. The user is
// resolved before the code so an unknown id does not burn the QR code.
func (s *Service) CheckInWithQRCode(ctx context.Context, userID, code string) (*models.User, error) {
	u, err := s.registry.ByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if err := s.validate(ctx, models.ClassQR, code); err != nil {
		return nil, err
	}
	return s.registry.Touch(ctx, u)
}

// CreateAccountWithQRCode spends a QR code on a brand-new attendee
func (s *Service) CreateAccountWithQRCode(ctx context.Context, code string) (*models.User, error) {
	if err := s.validate(ctx, models.ClassQR, code); err != nil {
		return nil, err
	}
	return s.registry.CreateQRUser(ctx)
}

// IsCheckedIn reports whether the user's last check-in is younger than the TTL
func (s *Service) IsCheckedIn(u *models.User) bool {
	return u != nil && s.clock.Now().Sub(u.LastCheckIn) < s.ttl
}

// RequireCheckedIn returns ErrNotCheckedIn unless IsCheckedIn holds
func (s *Service) RequireCheckedIn(u *models.User) error {
	if !s.IsCheckedIn(u) {
		return ErrNotCheckedIn
	}
	return nil
}

// CheckedInUser loads a user by id and requires an active check-in
func (s *Service) CheckedInUser(ctx context.Context, userID string) (*models.User, error) {
	u, err := s.registry.ByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if err := s.RequireCheckedIn(u); err != nil {
		return nil, err
	}
	return u, nil
}

func (s *Service) validate(ctx context.Context, class models.CodeClass, code string) error {
	ok, err := s.codes.Validate(ctx, class, code)
	if err != nil {
		return err
	}
	if !ok {
		return ErrInvalidCode
	}
	return nil
}
