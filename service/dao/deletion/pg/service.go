package pg

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/viant/retract/model/request"
	"github.com/viant/retract/service/dao"
	"github.com/viant/retract/service/dao/criteria"
	"github.com/viant/retract/service/dao/deletion"
	"go.uber.org/zap"
)

const schema = `
CREATE TABLE IF NOT EXISTS deletion_requests (
	id TEXT PRIMARY KEY,
	correlation_key TEXT NOT NULL UNIQUE,
	target_location TEXT NOT NULL,
	target_version TEXT NOT NULL,
	target_name TEXT,
	author_id TEXT NOT NULL,
	author_name TEXT,
	requester_id TEXT NOT NULL,
	requester_name TEXT,
	preview TEXT,
	status TEXT NOT NULL DEFAULT 'pending',
	created_at TIMESTAMPTZ NOT NULL,
	decided_at TIMESTAMPTZ,
	decided_by TEXT,
	notes TEXT,
	decider_name TEXT
);
CREATE INDEX IF NOT EXISTS idx_deletion_requests_status ON deletion_requests(status);
CREATE INDEX IF NOT EXISTS idx_deletion_requests_created_at ON deletion_requests(created_at)`

const columns = `id, correlation_key, target_location, target_version, target_name, author_id, author_name,
	requester_id, requester_name, preview, status, created_at, decided_at, decided_by, notes, decider_name`

// Service is a Postgres deletion.Service backed by a pgx pool.
type Service struct {
	pool   *pgxpool.Pool
	logger *zap.Logger
}

// Create inserts a new request; conflicts are reported as dao.ErrConflict.
func (s *Service) Create(ctx context.Context, r *request.DeletionRequest) (string, error) {
	if err := deletion.Prepare(r); err != nil {
		return "", err
	}
	query := `
		INSERT INTO deletion_requests (` + columns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16)
		ON CONFLICT DO NOTHING
	`
	result, err := s.pool.Exec(ctx, query,
		r.ID, r.CorrelationKey, r.Target.Location, r.Target.Version, r.Target.Name, r.AuthorID, r.AuthorName,
		r.RequesterID, r.RequesterName, r.Preview, string(r.Status), r.CreatedAt, r.DecidedAt, r.DecidedBy, r.Notes, r.DeciderName)
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}
	if result.RowsAffected() == 0 {
		return "", dao.ErrConflict
	}
	s.logger.Info("Deletion request created",
		zap.String("request_id", r.ID),
		zap.String("correlation_key", r.CorrelationKey),
		zap.String("requester_id", r.RequesterID))
	return r.ID, nil
}

// Load gets a request by id.
func (s *Service) Load(ctx context.Context, id string) (*request.DeletionRequest, error) {
	return s.queryOne(ctx, `SELECT `+columns+` FROM deletion_requests WHERE id = $1`, id)
}

// GetByCorrelationKey gets a request by correlation key.
func (s *Service) GetByCorrelationKey(ctx context.Context, key string) (*request.DeletionRequest, error) {
	return s.queryOne(ctx, `SELECT `+columns+` FROM deletion_requests WHERE correlation_key = $1`, key)
}

// CompareAndSwapStatus updates the row only while it still has the expected status.
func (s *Service) CompareAndSwapStatus(ctx context.Context, t *deletion.Transition) (bool, error) {
	if err := t.Validate(); err != nil {
		return false, err
	}
	query := `
		UPDATE deletion_requests
		SET status = $1,
			decided_by = COALESCE(NULLIF($2::text, ''), decided_by),
			decided_at = COALESCE($3::timestamptz, decided_at),
			notes = COALESCE(NULLIF($4::text, ''), notes),
			decider_name = COALESCE(NULLIF($7::text, ''), decider_name)
		WHERE id = $5 AND status = $6
	`
	result, err := s.pool.Exec(ctx, query, string(t.Status), t.DecidedBy, t.DecidedAt, t.Notes, t.ID, string(t.Expected), t.DeciderName)
	if err != nil {
		return false, fmt.Errorf("failed to update request status: %w", err)
	}
	if result.RowsAffected() > 0 {
		s.logger.Info("Deletion request transitioned",
			zap.String("request_id", t.ID),
			zap.String("from", string(t.Expected)),
			zap.String("to", string(t.Status)))
		return true, nil
	}
	var exists bool
	if err = s.pool.QueryRow(ctx, `SELECT EXISTS(SELECT 1 FROM deletion_requests WHERE id = $1)`, t.ID).Scan(&exists); err != nil {
		return false, fmt.Errorf("failed to check request: %w", err)
	}
	if !exists {
		return false, dao.ErrNotFound
	}
	return false, nil
}

// List returns matching requests, newest first.
func (s *Service) List(ctx context.Context, parameters ...*dao.Parameter) ([]*request.DeletionRequest, error) {
	query, args := listQuery(parameters)
	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query requests: %w", err)
	}
	defer rows.Close()
	var result []*request.DeletionRequest
	for rows.Next() {
		r, err := scanRequest(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, r)
	}
	return result, rows.Err()
}

func listQuery(parameters []*dao.Parameter) (string, []interface{}) {
	var where []string
	var args []interface{}
	if statuses := criteria.Statuses(parameters); len(statuses) > 0 {
		args = append(args, statuses)
		where = append(where, fmt.Sprintf("status = ANY($%d)", len(args)))
	}
	if key := criteria.TargetKey(parameters); key != "" {
		args = append(args, key)
		where = append(where, fmt.Sprintf("target_location || '|' || target_version = $%d", len(args)))
	}
	query := `SELECT ` + columns + ` FROM deletion_requests`
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	query += " ORDER BY created_at DESC"
	if limit := criteria.Limit(parameters); limit > 0 {
		args = append(args, limit)
		query += fmt.Sprintf(" LIMIT $%d", len(args))
	}
	return query, args
}

func (s *Service) queryOne(ctx context.Context, query string, arg string) (*request.DeletionRequest, error) {
	r, err := scanRequest(s.pool.QueryRow(ctx, query, arg))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get request: %w", err)
	}
	return r, nil
}

func scanRequest(row pgx.Row) (*request.DeletionRequest, error) {
	var (
		r                                              request.DeletionRequest
		status                                         string
		targetName, authorName, requesterName, preview *string
		decidedBy, notes, deciderName                  *string
		decidedAt                                      *time.Time
	)
	err := row.Scan(&r.ID, &r.CorrelationKey, &r.Target.Location, &r.Target.Version, &targetName, &r.AuthorID, &authorName,
		&r.RequesterID, &requesterName, &preview, &status, &r.CreatedAt, &decidedAt, &decidedBy, &notes, &deciderName)
	if err != nil {
		return nil, err
	}
	r.Target.AuthorID = r.AuthorID
	r.Target.Name = deref(targetName)
	r.AuthorName = deref(authorName)
	r.RequesterName = deref(requesterName)
	r.Preview = deref(preview)
	r.Status = request.Status(status)
	r.DecidedBy = deref(decidedBy)
	r.DeciderName = deref(deciderName)
	r.Notes = deref(notes)
	r.CreatedAt = r.CreatedAt.UTC()
	if decidedAt != nil {
		ts := decidedAt.UTC()
		r.DecidedAt = &ts
	}
	return &r, nil
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

// Migrate creates the deletion_requests table when missing.
func (s *Service) Migrate(ctx context.Context) error {
	if _, err := s.pool.Exec(ctx, schema); err != nil {
		return fmt.Errorf("failed to migrate deletion_requests: %w", err)
	}
	return nil
}

// New creates a store over pool.
func New(pool *pgxpool.Pool, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{pool: pool, logger: logger}
}

var _ deletion.Service = (*Service)(nil)
