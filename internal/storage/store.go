package storage

import (
	"context"

	"github.com/SeamusWaldron/cubetimer"
)

// DefaultSession is the session used when none is named.
const DefaultSession = "default"

// SessionStore persists one session's log. It implements
// cubetimer.Persister, so the machine writes through it on every change.
type SessionStore struct {
	repo    *ResultRepository
	session string
}

var _ cubetimer.Persister = (*SessionStore)(nil)

// OpenSession returns a store for the named session, creating it if needed.
func OpenSession(ctx context.Context, db *DB, session string) (*SessionStore, error) {
	if session == "" {
		session = DefaultSession
	}
	repo := NewResultRepository(db)
	if err := repo.EnsureSession(ctx, session); err != nil {
		return nil, err
	}
	return &SessionStore{repo: repo, session: session}, nil
}

// Name returns the session name.
func (s *SessionStore) Name() string {
	return s.session
}

// Load returns the stored results, ready to seed a new Session.
func (s *SessionStore) Load(ctx context.Context) ([]cubetimer.Result, error) {
	return s.repo.List(ctx, s.session)
}

// ResultAppended stores a new or restored result.
func (s *SessionStore) ResultAppended(r cubetimer.Result) error {
	return s.repo.Insert(context.Background(), s.session, r)
}

// ResultUpdated stores a penalty change.
func (s *SessionStore) ResultUpdated(r cubetimer.Result) error {
	return s.repo.UpdatePenalty(context.Background(), r.ID, r.Penalty)
}

// ResultDeleted removes a deleted result.
func (s *SessionStore) ResultDeleted(r cubetimer.Result) error {
	return s.repo.Delete(context.Background(), r.ID)
}
