// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package checkin

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"unicode"

	"github.com/google/uuid"

	"github.com/danielhkuo/now-showing/clock"
	"github.com/danielhkuo/now-showing/models"
	"github.com/danielhkuo/now-showing/store"
)

// Registry creates and looks up attendees.
type Registry struct {
	users store.Users
	clock clock.Clock
}

func NewRegistry(users store.Users, clk clock.Clock) *Registry {
	return &Registry{users: users, clock: clk}
}

// ByID returns ErrNoSuchUser for unknown ids
func (r *Registry) ByID(ctx context.Context, id string) (*models.User, error) {
	u, err := r.users.UserByID(ctx, id)
	if errors.Is(err, store.ErrNotFound) {
		return nil, ErrNoSuchUser
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load user: %w", err)
	}
	return u, nil
}

// ByPhone returns ErrNoSuchUser for unknown numbers
func (r *Registry) ByPhone(ctx context.Context, phone string) (*models.User, error) {
	u, err := r.users.UserByPhone(ctx, NormalizePhone(phone))
	if errors.Is(err, store.ErrNotFound) {
		return nil, ErrNoSuchUser
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load user: %w", err)
	}
	return u, nil
}

// CheckInPhone finds or creates the attendee for phone and stamps the check-in
func (r *Registry) CheckInPhone(ctx context.Context, phone string) (*models.User, error) {
	phone = NormalizePhone(phone)
	now := r.clock.Now()

	u, err := r.users.EnsurePhoneUser(ctx, &models.User{
		ID:          uuid.NewString(),
		PhoneNumber: &phone,
		CreatedAt:   now,
		LastCheckIn: now,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to upsert user: %w", err)
	}
	return r.Touch(ctx, u)
}

// CreateQRUser creates an attendee with no phone number, checked in now
func (r *Registry) CreateQRUser(ctx context.Context) (*models.User, error) {
	now := r.clock.Now()
	u := &models.User{
		ID:          uuid.NewString(),
		QRIssued:    true,
		CreatedAt:   now,
		LastCheckIn: now,
	}
	if err := r.users.CreateUser(ctx, u); err != nil {
		return nil, fmt.Errorf("failed to create user: %w", err)
	}
	return u, nil
}

// Touch refreshes the last check-in. The store only moves it forward.
func (r *Registry) Touch(ctx context.Context, u *models.User) (*models.User, error) {
	now := r.clock.Now()
	err := r.users.TouchCheckIn(ctx, u.ID, now)
	if errors.Is(err, store.ErrNotFound) {
		return nil, ErrNoSuchUser
	}
	if err != nil {
		return nil, fmt.Errorf("failed to record check-in: %w", err)
	}
	if now.After(u.LastCheckIn) {
		u.LastCheckIn = now
	}
	return u, nil
}

// NormalizePhone strips formatting from a phone number, keeping a leading +
func NormalizePhone(phone string) string {
	phone = strings.TrimSpace(phone)
	var b strings.Builder
	for i, r := range phone {
		if unicode.IsDigit(r) || (r == '+' && i == 0) {
			b.WriteRune(r)
		}
	}
	return b.String()
}
