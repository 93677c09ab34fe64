// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

// Package memstore is an in-memory implementation of the store contracts.
// A single mutex makes every method atomic, which gives the same guarantees
// the SQL store gets from conditional updates and unique constraints.
package memstore

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	"github.com/danielhkuo/now-showing/models"
	"github.com/danielhkuo/now-showing/store"
)

type Store struct {
	mu     sync.Mutex
	users  map[string]*models.User
	phones map[string]string // phone -> user id
	codes  map[models.CodeClass][]models.VerificationCode
	posts  map[string]*models.Post
	order  []string // post ids in insertion order
	voters map[string]map[string]struct{}
}

var _ store.Store = (*Store)(nil)

func New() *Store {
	return &Store{
		users:  make(map[string]*models.User),
		phones: make(map[string]string),
		codes:  make(map[models.CodeClass][]models.VerificationCode),
		posts:  make(map[string]*models.Post),
		voters: make(map[string]map[string]struct{}),
	}
}

// Users

func (s *Store) CreateUser(ctx context.Context, u *models.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.insertUserLocked(u)
}

func (s *Store) insertUserLocked(u *models.User) error {
	if _, ok := s.users[u.ID]; ok {
		return store.ErrDuplicate
	}
	if u.PhoneNumber != nil {
		if _, ok := s.phones[*u.PhoneNumber]; ok {
			return store.ErrDuplicate
		}
		s.phones[*u.PhoneNumber] = u.ID
	}
	cp := copyUser(u)
	s.users[u.ID] = cp
	return nil
}

func (s *Store) UserByID(ctx context.Context, id string) (*models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	return copyUser(u), nil
}

func (s *Store) UserByPhone(ctx context.Context, phone string) (*models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	id, ok := s.phones[phone]
	if !ok {
		return nil, store.ErrNotFound
	}
	return copyUser(s.users[id]), nil
}

func (s *Store) EnsurePhoneUser(ctx context.Context, u *models.User) (*models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if u.PhoneNumber == nil {
		return nil, errors.New("ensure phone user: phone number required")
	}
	if id, ok := s.phones[*u.PhoneNumber]; ok {
		return copyUser(s.users[id]), nil
	}
	if err := s.insertUserLocked(u); err != nil {
		return nil, err
	}
	return copyUser(u), nil
}

func (s *Store) TouchCheckIn(ctx context.Context, id string, at time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[id]
	if !ok {
		return store.ErrNotFound
	}
	if at.After(u.LastCheckIn) {
		u.LastCheckIn = at
	}
	return nil
}

// Codes

func (s *Store) RecentCodes(ctx context.Context, class models.CodeClass, n int) ([]models.VerificationCode, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	chain := s.codes[class]
	out := []models.VerificationCode{}
	for i := len(chain) - 1; i >= 0 && len(out) < n; i-- {
		out = append(out, chain[i])
	}
	return out, nil
}

func (s *Store) InsertCode(ctx context.Context, c *models.VerificationCode) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, existing := range s.codes[c.Class] {
		if existing.Value == c.Value || existing.Generation == c.Generation {
			return store.ErrDuplicate
		}
	}
	chain := append(s.codes[c.Class], *c)
	sort.Slice(chain, func(i, j int) bool { return chain[i].Generation < chain[j].Generation })
	s.codes[c.Class] = chain
	return nil
}

func (s *Store) ConsumeCode(ctx context.Context, class models.CodeClass, value string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	chain := s.codes[class]
	if len(chain) == 0 {
		return false, nil
	}
	newest := &chain[len(chain)-1]
	if newest.Value != value || newest.Consumed {
		return false, nil
	}
	newest.Consumed = true
	return true, nil
}

// Posts

func (s *Store) InsertPost(ctx context.Context, p *models.Post) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.posts[p.ID]; ok {
		return store.ErrDuplicate
	}
	if _, ok := s.users[p.PosterID]; !ok {
		return store.ErrNotFound
	}
	cp := *p
	cp.Voters = nil
	s.posts[p.ID] = &cp
	s.order = append(s.order, p.ID)
	set := make(map[string]struct{}, len(p.Voters))
	for _, v := range p.Voters {
		set[v] = struct{}{}
	}
	s.voters[p.ID] = set
	return nil
}

func (s *Store) PostByID(ctx context.Context, id string) (*models.Post, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.posts[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	return s.snapshotLocked(p), nil
}

func (s *Store) LatestPostBy(ctx context.Context, posterID string) (*models.Post, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var latest *models.Post
	for _, id := range s.order {
		p := s.posts[id]
		if p.PosterID != posterID {
			continue
		}
		if latest == nil || !p.SubmittedAt.Before(latest.SubmittedAt) {
			latest = p
		}
	}
	if latest == nil {
		return nil, store.ErrNotFound
	}
	return s.snapshotLocked(latest), nil
}

func (s *Store) QueuedPosts(ctx context.Context) ([]models.Post, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	queued := s.queuedLocked()
	out := make([]models.Post, 0, len(queued))
	for _, p := range queued {
		out = append(out, *s.snapshotLocked(p))
	}
	return out, nil
}

func (s *Store) CountQueued(ctx context.Context) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.queuedLocked()), nil
}

func (s *Store) OldestQueued(ctx context.Context) (*models.Post, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	queued := s.queuedLocked()
	if len(queued) == 0 {
		return nil, store.ErrNotFound
	}
	return s.snapshotLocked(queued[0]), nil
}

func (s *Store) MarkShown(ctx context.Context, id string, at time.Time) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.posts[id]
	if !ok || p.Showtime != nil {
		return false, nil
	}
	for _, other := range s.posts {
		if other.Showtime != nil && other.Showtime.Equal(at) {
			return false, store.ErrDuplicate
		}
	}
	shown := at
	p.Showtime = &shown
	return true, nil
}

func (s *Store) CurrentPost(ctx context.Context) (*models.Post, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var current *models.Post
	for _, p := range s.posts {
		if p.Showtime == nil {
			continue
		}
		if current == nil || p.Showtime.After(*current.Showtime) {
			current = p
		}
	}
	if current == nil {
		return nil, store.ErrNotFound
	}
	return s.snapshotLocked(current), nil
}

func (s *Store) AddVoter(ctx context.Context, postID, userID string, at time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	set, ok := s.voters[postID]
	if !ok {
		return store.ErrNotFound
	}
	set[userID] = struct{}{}
	return nil
}

func (s *Store) CountVoters(ctx context.Context, postID string) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.voters[postID]), nil
}

// queuedLocked returns unshown posts ordered by submission time, ties by id
func (s *Store) queuedLocked() []*models.Post {
	queued := []*models.Post{}
	for _, id := range s.order {
		if p := s.posts[id]; p.Showtime == nil {
			queued = append(queued, p)
		}
	}
	sort.SliceStable(queued, func(i, j int) bool {
		if !queued[i].SubmittedAt.Equal(queued[j].SubmittedAt) {
			return queued[i].SubmittedAt.Before(queued[j].SubmittedAt)
		}
		return queued[i].ID < queued[j].ID
	})
	return queued
}

func (s *Store) snapshotLocked(p *models.Post) *models.Post {
	cp := *p
	if p.Showtime != nil {
		t := *p.Showtime
		cp.Showtime = &t
	}
	cp.Voters = make([]string, 0, len(s.voters[p.ID]))
	for v := range s.voters[p.ID] {
		cp.Voters = append(cp.Voters, v)
	}
	sort.Strings(cp.Voters)
	return &cp
}

func copyUser(u *models.User) *models.User {
	cp := *u
	if u.PhoneNumber != nil {
		phone := *u.PhoneNumber
		cp.PhoneNumber = &phone
	}
	return &cp
}
