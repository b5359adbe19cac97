package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/viant/retract/model/request"
	"github.com/viant/retract/service/dao"
	"github.com/viant/retract/service/dao/criteria"
	"github.com/viant/retract/service/dao/deletion"
)

// Service is an in-memory deletion.Service. Records are kept by id with a
// secondary correlation key index; every read returns a copy.
type Service struct {
	mu      sync.RWMutex
	records map[string]*request.DeletionRequest
	byKey   map[string]string
}

// Create stores a new request.
func (s *Service) Create(_ context.Context, r *request.DeletionRequest) (string, error) {
	if err := deletion.Prepare(r); err != nil {
		return "", err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.byKey[r.CorrelationKey]; ok {
		return "", dao.ErrConflict
	}
	if _, ok := s.records[r.ID]; ok {
		return "", dao.ErrConflict
	}
	s.records[r.ID] = r.Clone()
	s.byKey[r.CorrelationKey] = r.ID
	return r.ID, nil
}

// Load returns a request by id.
func (s *Service) Load(_ context.Context, id string) (*request.DeletionRequest, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.records[id].Clone(), nil
}

// GetByCorrelationKey returns a request by correlation key.
func (s *Service) GetByCorrelationKey(_ context.Context, key string) (*request.DeletionRequest, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	id, ok := s.byKey[key]
	if !ok {
		return nil, nil
	}
	return s.records[id].Clone(), nil
}

// CompareAndSwapStatus applies t under the write lock.
func (s *Service) CompareAndSwapStatus(_ context.Context, t *deletion.Transition) (bool, error) {
	if err := t.Validate(); err != nil {
		return false, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.records[t.ID]
	if !ok {
		return false, dao.ErrNotFound
	}
	if r.Status != t.Expected {
		return false, nil
	}
	t.Apply(r)
	return true, nil
}

// List returns matching requests, newest first.
func (s *Service) List(_ context.Context, parameters ...*dao.Parameter) ([]*request.DeletionRequest, error) {
	s.mu.RLock()
	out := make([]*request.DeletionRequest, 0, len(s.records))
	for _, r := range s.records {
		if criteria.Match(r, parameters) {
			out = append(out, r.Clone())
		}
	}
	s.mu.RUnlock()
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	if limit := criteria.Limit(parameters); limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

// New creates an empty in-memory store.
func New() *Service {
	return &Service{
		records: make(map[string]*request.DeletionRequest),
		byKey:   make(map[string]string),
	}
}

var _ deletion.Service = (*Service)(nil)
