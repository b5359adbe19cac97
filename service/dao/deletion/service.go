package deletion

import (
	"context"
	"time"

	"github.com/viant/retract/internal/clock"
	"github.com/viant/retract/internal/idgen"
	"github.com/viant/retract/model/request"
	"github.com/viant/retract/service/dao"
)

// Service is the durable deletion request store. It is the only component
// mutating persisted requests; everything it returns is a detached snapshot.
type Service interface {
	// Create persists a new request and returns its id. It fails with
	// dao.ErrConflict when the correlation key is already taken.
	Create(ctx context.Context, r *request.DeletionRequest) (string, error)

	// Load returns a request by id, nil when absent.
	Load(ctx context.Context, id string) (*request.DeletionRequest, error)

	// GetByCorrelationKey returns a request by correlation key, nil when absent.
	GetByCorrelationKey(ctx context.Context, key string) (*request.DeletionRequest, error)

	// CompareAndSwapStatus atomically applies t when the current status equals
	// t.Expected. It returns false without mutation otherwise.
	CompareAndSwapStatus(ctx context.Context, t *Transition) (bool, error)

	// List returns requests matching parameters, newest first.
	List(ctx context.Context, parameters ...*dao.Parameter) ([]*request.DeletionRequest, error)
}

// Transition describes a conditional status change. Empty DecidedBy,
// DeciderName and Notes, and nil DecidedAt, leave the stored values untouched.
type Transition struct {
	ID          string
	Expected    request.Status
	Status      request.Status
	DecidedBy   string
	DeciderName string
	DecidedAt   *time.Time
	Notes       string
}

// Apply writes the transition onto r without checking the expected status.
func (t *Transition) Apply(r *request.DeletionRequest) {
	r.Status = t.Status
	if t.DecidedBy != "" {
		r.DecidedBy = t.DecidedBy
	}
	if t.DeciderName != "" {
		r.DeciderName = t.DeciderName
	}
	if t.DecidedAt != nil {
		decidedAt := *t.DecidedAt
		r.DecidedAt = &decidedAt
	}
	if t.Notes != "" {
		r.Notes = t.Notes
	}
}

// Validate checks transition fields.
func (t *Transition) Validate() error {
	if t == nil {
		return dao.ErrNilEntity
	}
	if t.ID == "" {
		return dao.ErrInvalidID
	}
	return nil
}

// Prepare validates r and fills store-assigned fields: id, initial status
// and creation time.
func Prepare(r *request.DeletionRequest) error {
	if r == nil {
		return dao.ErrNilEntity
	}
	if r.CorrelationKey == "" {
		return dao.ErrInvalidID
	}
	if r.ID == "" {
		r.ID = idgen.New()
	}
	if r.Status == "" {
		r.Status = request.StatusPending
	}
	if r.CreatedAt.IsZero() {
		r.CreatedAt = clock.Now()
	}
	return nil
}
