// Package memory is an in-process store for tests and local development.
// Transactions are serialised and work on a private copy that replaces the
// committed state only on success.
package memory

import (
	"context"
	"fmt"
	"sync"

	"go.uber.org/zap"

	"github.com/garyjia/ats-pipeline/internal/application/port"
	"github.com/garyjia/ats-pipeline/internal/domain/entity"
)

type contextKey string

const txKey contextKey = "tx"

type assignmentKey struct {
	applicationID int64
	userID        int64
}

// state is everything the store holds. Entities are stored by value so a
// clone never shares memory with the committed copy.
type state struct {
	companies   map[int64]entity.Company
	users       map[int64]entity.User
	jobs        map[int64]entity.Job
	apps        map[int64]entity.Application
	history     []entity.HistoryEntry
	assignments map[assignmentKey]bool
	seq         map[string]int64
}

func newState() *state {
	return &state{
		companies:   make(map[int64]entity.Company),
		users:       make(map[int64]entity.User),
		jobs:        make(map[int64]entity.Job),
		apps:        make(map[int64]entity.Application),
		assignments: make(map[assignmentKey]bool),
		seq:         make(map[string]int64),
	}
}

func (st *state) clone() *state {
	c := newState()
	for k, v := range st.companies {
		c.companies[k] = v
	}
	for k, v := range st.users {
		v.CompanyID = copyID(v.CompanyID)
		c.users[k] = v
	}
	for k, v := range st.jobs {
		c.jobs[k] = v
	}
	for k, v := range st.apps {
		c.apps[k] = v
	}
	c.history = append([]entity.HistoryEntry(nil), st.history...)
	for k, v := range st.assignments {
		c.assignments[k] = v
	}
	for k, v := range st.seq {
		c.seq[k] = v
	}
	return c
}

func (st *state) nextID(table string) int64 {
	st.seq[table]++
	return st.seq[table]
}

// Store implements every persistence port in memory
type Store struct {
	mu        sync.RWMutex
	committed *state
	txSlot    chan struct{}
	logger    *zap.Logger
}

// NewStore creates an empty store
func NewStore(logger *zap.Logger) *Store {
	return &Store{
		committed: newState(),
		txSlot:    make(chan struct{}, 1),
		logger:    logger,
	}
}

// WithTransaction implements port.TransactionManager.
// Only one transaction runs at a time; waiting honours ctx.
func (s *Store) WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	if _, ok := ctx.Value(txKey).(*state); ok {
		return fn(ctx)
	}

	select {
	case s.txSlot <- struct{}{}:
	case <-ctx.Done():
		return fmt.Errorf("failed to begin transaction: %w", ctx.Err())
	}
	defer func() { <-s.txSlot }()

	s.mu.RLock()
	working := s.committed.clone()
	s.mu.RUnlock()

	txCtx := context.WithValue(ctx, txKey, working)
	if err := fn(txCtx); err != nil {
		s.logger.Debug("Transaction rolled back", zap.Error(err))
		return err
	}
	if err := ctx.Err(); err != nil {
		s.logger.Debug("Transaction rolled back on cancelled context", zap.Error(err))
		return err
	}

	s.mu.Lock()
	s.committed = working
	s.mu.Unlock()
	return nil
}

// read runs fn against the transaction state or a read-locked committed state
func (s *Store) read(ctx context.Context, fn func(st *state) error) error {
	if st, ok := ctx.Value(txKey).(*state); ok {
		return fn(st)
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	return fn(s.committed)
}

// write runs fn inside the caller's transaction, or in its own one
func (s *Store) write(ctx context.Context, fn func(st *state) error) error {
	if st, ok := ctx.Value(txKey).(*state); ok {
		return fn(st)
	}
	return s.WithTransaction(ctx, func(txCtx context.Context) error {
		return fn(txCtx.Value(txKey).(*state))
	})
}

func inTx(ctx context.Context) bool {
	_, ok := ctx.Value(txKey).(*state)
	return ok
}

// Applications returns the application repository
func (s *Store) Applications() port.ApplicationRepository { return &applicationRepo{s: s} }

// History returns the append-only history repository
func (s *Store) History() port.HistoryRepository { return &historyRepo{s: s} }

// Jobs returns the job repository
func (s *Store) Jobs() *JobRepository { return &JobRepository{s: s} }

// Users returns the user repository
func (s *Store) Users() *UserRepository { return &UserRepository{s: s} }

// Assignments returns the hiring manager assignment checker
func (s *Store) Assignments() *AssignmentRepository { return &AssignmentRepository{s: s} }

func copyID(id *int64) *int64 {
	if id == nil {
		return nil
	}
	v := *id
	return &v
}

var _ port.TransactionManager = (*Store)(nil)
