/*
Package memstore provides in-process implementations of the user and message
stores. They back the test suites and the STORE_DRIVER=memory mode; contents
are lost on restart.
*/
package memstore

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"dmchat/internal/app/user"
)

// UserStore is an in-memory user.Store.
type UserStore struct {
	mu         sync.RWMutex
	byID       map[string]*user.User
	byUsername map[string]*user.User
}

// NewUserStore returns an empty UserStore.
func NewUserStore() *UserStore {
	return &UserStore{
		byID:       make(map[string]*user.User),
		byUsername: make(map[string]*user.User),
	}
}

func copyUser(u *user.User) *user.User {
	c := *u
	c.Contacts = append([]string(nil), u.Contacts...)
	return &c
}

func (s *UserStore) Create(ctx context.Context, u *user.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.byUsername[u.Username]; exists {
		return user.ErrDuplicateUsername
	}

	stored := copyUser(u)
	s.byID[u.ID] = stored
	s.byUsername[u.Username] = stored
	return nil
}

func (s *UserStore) GetByID(ctx context.Context, id string) (*user.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	u, ok := s.byID[id]
	if !ok {
		return nil, user.ErrNotFound
	}
	return copyUser(u), nil
}

func (s *UserStore) GetByUsername(ctx context.Context, username string) (*user.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	u, ok := s.byUsername[username]
	if !ok {
		return nil, user.ErrNotFound
	}
	return copyUser(u), nil
}

func (s *UserStore) List(ctx context.Context) ([]*user.User, error) {
	return s.filter(func(*user.User) bool { return true }), nil
}

func (s *UserStore) SearchByUsername(ctx context.Context, query string) ([]*user.User, error) {
	q := strings.ToLower(query)
	return s.filter(func(u *user.User) bool {
		return strings.Contains(strings.ToLower(u.Username), q)
	}), nil
}

func (s *UserStore) SetOnline(ctx context.Context, id string, online bool, at time.Time) (*user.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	u, ok := s.byID[id]
	if !ok {
		return nil, user.ErrNotFound
	}
	u.Online = online
	u.LastSeen = at
	return copyUser(u), nil
}

func (s *UserStore) filter(keep func(*user.User) bool) []*user.User {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]*user.User, 0, len(s.byID))
	for _, u := range s.byID {
		if keep(u) {
			out = append(out, copyUser(u))
		}
	}

	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].Username < out[j].Username
		}
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	return out
}
