// Package memory is an in-process entity store. Transactions work on a copy
// of the whole state and swap it in on commit, so a failed transaction leaves
// nothing behind. It backs the tests and APP_STORE=memory.
package memory

import (
	"context"
	"sync"

	"github.com/rehab-hub/rehab-adherence/internal/domain/catalog"
	"github.com/rehab-hub/rehab-adherence/internal/domain/progress"
	"github.com/rehab-hub/rehab-adherence/internal/domain/schedule"
	"github.com/rehab-hub/rehab-adherence/internal/domain/store"
	"github.com/rehab-hub/rehab-adherence/internal/domain/user"
)

type data struct {
	users      map[string]*user.User
	categories map[string]*catalog.Category
	videos     map[string]*catalog.Video
	schedules  map[string]*schedule.Schedule
	progress   map[string]*progress.Entry
}

func newData() *data {
	return &data{
		users:      make(map[string]*user.User),
		categories: make(map[string]*catalog.Category),
		videos:     make(map[string]*catalog.Video),
		schedules:  make(map[string]*schedule.Schedule),
		progress:   make(map[string]*progress.Entry),
	}
}

func (d *data) clone() *data {
	c := newData()
	for k, v := range d.users {
		c.users[k] = copyUser(v)
	}
	for k, v := range d.categories {
		cp := *v
		c.categories[k] = &cp
	}
	for k, v := range d.videos {
		cp := *v
		c.videos[k] = &cp
	}
	for k, v := range d.schedules {
		c.schedules[k] = copySchedule(v)
	}
	for k, v := range d.progress {
		c.progress[k] = copyEntry(v)
	}
	return c
}

// state is how repositories reach the data: under locks for the shared
// store, directly for a transaction's private copy.
type state interface {
	read(fn func(d *data))
	write(fn func(d *data) error) error
}

// Store is the shared in-memory store.
type Store struct {
	mu   sync.RWMutex
	txMu sync.Mutex
	d    *data
}

var _ store.Store = (*Store)(nil)

// New creates an empty store.
func New() *Store {
	return &Store{d: newData()}
}

func (s *Store) read(fn func(d *data)) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	fn(s.d)
}

func (s *Store) write(fn func(d *data) error) error {
	s.txMu.Lock()
	defer s.txMu.Unlock()
	s.mu.Lock()
	defer s.mu.Unlock()
	return fn(s.d)
}

func (s *Store) Users() user.Repository         { return &userRepo{st: s} }
func (s *Store) Catalog() catalog.Repository    { return &catalogRepo{st: s} }
func (s *Store) Schedules() schedule.Repository { return &scheduleRepo{st: s} }
func (s *Store) Progress() progress.Repository  { return &progressRepo{st: s} }

// Atomic serializes with every other write, runs fn on a private copy and
// publishes the copy only when fn returns nil.
func (s *Store) Atomic(ctx context.Context, fn func(tx store.Store) error) error {
	s.txMu.Lock()
	defer s.txMu.Unlock()

	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.RLock()
	working := s.d.clone()
	s.mu.RUnlock()

	if err := fn(&txStore{d: working}); err != nil {
		return err
	}

	s.mu.Lock()
	s.d = working
	s.mu.Unlock()
	return nil
}

// ─────────────────────────────────────────────────────────────────────────────
// Seeding
// ─────────────────────────────────────────────────────────────────────────────

// PutUser inserts or replaces a user. Users are owned elsewhere, so the
// repository interface has no writer for them.
func (s *Store) PutUser(u *user.User) {
	_ = s.write(func(d *data) error {
		d.users[u.ID] = copyUser(u)
		return nil
	})
}

// PutCategory inserts or replaces a category.
func (s *Store) PutCategory(c *catalog.Category) {
	cp := *c
	_ = s.write(func(d *data) error {
		d.categories[c.ID] = &cp
		return nil
	})
}

// PutVideo inserts or replaces a video.
func (s *Store) PutVideo(v *catalog.Video) {
	cp := *v
	_ = s.write(func(d *data) error {
		d.videos[v.ID] = &cp
		return nil
	})
}

// ─────────────────────────────────────────────────────────────────────────────
// Transaction view
// ─────────────────────────────────────────────────────────────────────────────

type txStore struct {
	d *data
}

func (t *txStore) read(fn func(d *data))              { fn(t.d) }
func (t *txStore) write(fn func(d *data) error) error { return fn(t.d) }

func (t *txStore) Users() user.Repository         { return &userRepo{st: t} }
func (t *txStore) Catalog() catalog.Repository    { return &catalogRepo{st: t} }
func (t *txStore) Schedules() schedule.Repository { return &scheduleRepo{st: t} }
func (t *txStore) Progress() progress.Repository  { return &progressRepo{st: t} }

// Atomic joins the running transaction.
func (t *txStore) Atomic(_ context.Context, fn func(tx store.Store) error) error {
	return fn(t)
}

func copyUser(u *user.User) *user.User {
	cp := *u
	if u.Hospital != nil {
		h := *u.Hospital
		cp.Hospital = &h
	}
	if u.AssignedExpertID != nil {
		e := *u.AssignedExpertID
		cp.AssignedExpertID = &e
	}
	return &cp
}

func copySchedule(s *schedule.Schedule) *schedule.Schedule {
	cp := *s
	if s.CompletedAt != nil {
		at := *s.CompletedAt
		cp.CompletedAt = &at
	}
	return &cp
}

func copyEntry(e *progress.Entry) *progress.Entry {
	cp := *e
	if e.Rating != nil {
		r := *e.Rating
		cp.Rating = &r
	}
	if e.Notes != nil {
		n := *e.Notes
		cp.Notes = &n
	}
	return &cp
}
