package memory

import (
	"context"
	"sort"

	"github.com/garyjia/ats-pipeline/internal/application/apperr"
	"github.com/garyjia/ats-pipeline/internal/application/port"
	"github.com/garyjia/ats-pipeline/internal/domain/entity"
)

type historyRepo struct {
	s *Store
}

func (r *historyRepo) Append(ctx context.Context, entry *entity.HistoryEntry) error {
	return r.s.write(ctx, func(st *state) error {
		if _, ok := st.apps[entry.ApplicationID]; !ok {
			return apperr.NotFound("application", entry.ApplicationID)
		}
		entry.ID = st.nextID("application_history")
		st.history = append(st.history, *entry)
		return nil
	})
}

func (r *historyRepo) ListByApplication(ctx context.Context, applicationID int64) ([]*entity.HistoryEntry, error) {
	entries := []*entity.HistoryEntry{}
	err := r.s.read(ctx, func(st *state) error {
		for _, e := range st.history {
			if e.ApplicationID == applicationID {
				e := e
				entries = append(entries, &e)
			}
		}
		return nil
	})
	sort.SliceStable(entries, func(i, j int) bool {
		if !entries[i].ChangedAt.Equal(entries[j].ChangedAt) {
			return entries[i].ChangedAt.Before(entries[j].ChangedAt)
		}
		return entries[i].ID < entries[j].ID
	})
	return entries, err
}

var _ port.HistoryRepository = (*historyRepo)(nil)
