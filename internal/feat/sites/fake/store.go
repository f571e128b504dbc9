package fake

import (
	"context"
	"sync"

	"github.com/cliossg/sitesmith/internal/feat/sites"
)

// Store is an in-memory sites.Store.
type Store struct {
	mu    sync.Mutex
	Sites map[string]*sites.Site

	UpsertCalls []*sites.Site
	UpsertErr   error
	FetchErr    error
	PingErr     error
	Name        string
}

func NewStore() *Store {
	return &Store{Sites: make(map[string]*sites.Site), Name: "memory"}
}

func (s *Store) Backend() string { return s.Name }

func (s *Store) Upsert(_ context.Context, site *sites.Site) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.UpsertCalls = append(s.UpsertCalls, site)
	if s.UpsertErr != nil {
		return s.UpsertErr
	}
	stored := *site
	if prev, ok := s.Sites[site.Slug]; ok {
		stored.ID = prev.ID
		stored.CreatedAt = prev.CreatedAt
	}
	s.Sites[site.Slug] = &stored
	return nil
}

func (s *Store) Fetch(_ context.Context, slug string) (*sites.Site, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.FetchErr != nil {
		return nil, s.FetchErr
	}
	site, ok := s.Sites[slug]
	if !ok {
		return nil, sites.ErrNotFound
	}
	out := *site
	return &out, nil
}

func (s *Store) Ping(_ context.Context) error { return s.PingErr }

// Len returns the number of stored sites.
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.Sites)
}
