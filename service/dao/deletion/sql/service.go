package sql

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/viant/retract/model/request"
	"github.com/viant/retract/service/dao"
	"github.com/viant/retract/service/dao/criteria"
	"github.com/viant/retract/service/dao/deletion"
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
	created_at TEXT NOT NULL,
	decided_at TEXT,
	decided_by TEXT,
	notes TEXT,
	decider_name TEXT
)`

var indexes = []string{
	`CREATE INDEX IF NOT EXISTS idx_deletion_requests_status ON deletion_requests(status)`,
	`CREATE INDEX IF NOT EXISTS idx_deletion_requests_created_at ON deletion_requests(created_at)`,
	`CREATE INDEX IF NOT EXISTS idx_deletion_requests_author ON deletion_requests(author_id)`,
}

const columns = `id, correlation_key, target_location, target_version, target_name, author_id, author_name,
	requester_id, requester_name, preview, status, created_at, decided_at, decided_by, notes, decider_name`

const insertSQL = `INSERT INTO deletion_requests (` + columns + `)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	ON CONFLICT DO NOTHING`

const casSQL = `UPDATE deletion_requests
	SET status = ?,
		decided_by = COALESCE(NULLIF(?, ''), decided_by),
		decided_at = COALESCE(?, decided_at),
		notes = COALESCE(NULLIF(?, ''), notes),
		decider_name = COALESCE(NULLIF(?, ''), decider_name)
	WHERE id = ? AND status = ?`

const existsSQL = `SELECT COUNT(1) FROM deletion_requests WHERE id = ?`

// Service is a database/sql deletion.Service for drivers using '?'
// placeholders, such as modernc.org/sqlite. Compare-and-swap is a single
// conditional UPDATE.
type Service struct {
	db *sql.DB
}

// Create inserts a new request; a taken id or correlation key is reported as dao.ErrConflict.
func (s *Service) Create(ctx context.Context, r *request.DeletionRequest) (string, error) {
	if err := deletion.Prepare(r); err != nil {
		return "", err
	}
	result, err := s.db.ExecContext(ctx, insertSQL,
		r.ID, r.CorrelationKey, r.Target.Location, r.Target.Version, r.Target.Name, r.AuthorID, r.AuthorName,
		r.RequesterID, r.RequesterName, r.Preview, string(r.Status), formatTime(r.CreatedAt),
		formatTimePtr(r.DecidedAt), r.DecidedBy, r.Notes, r.DeciderName)
	if err != nil {
		return "", fmt.Errorf("failed to insert request %v: %w", r.CorrelationKey, err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return "", fmt.Errorf("failed to insert request %v: %w", r.CorrelationKey, err)
	}
	if affected == 0 {
		return "", dao.ErrConflict
	}
	return r.ID, nil
}

// Load returns a request by id.
func (s *Service) Load(ctx context.Context, id string) (*request.DeletionRequest, error) {
	return s.queryOne(ctx, `SELECT `+columns+` FROM deletion_requests WHERE id = ?`, id)
}

// GetByCorrelationKey returns a request by correlation key.
func (s *Service) GetByCorrelationKey(ctx context.Context, key string) (*request.DeletionRequest, error) {
	return s.queryOne(ctx, `SELECT `+columns+` FROM deletion_requests WHERE correlation_key = ?`, key)
}

// CompareAndSwapStatus runs the conditional update and inspects the affected row count.
func (s *Service) CompareAndSwapStatus(ctx context.Context, t *deletion.Transition) (bool, error) {
	if err := t.Validate(); err != nil {
		return false, err
	}
	result, err := s.db.ExecContext(ctx, casSQL,
		string(t.Status), t.DecidedBy, formatTimePtr(t.DecidedAt), t.Notes, t.DeciderName, t.ID, string(t.Expected))
	if err != nil {
		return false, fmt.Errorf("failed to update request %v status: %w", t.ID, err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to update request %v status: %w", t.ID, err)
	}
	if affected > 0 {
		return true, nil
	}
	var count int
	if err = s.db.QueryRowContext(ctx, existsSQL, t.ID).Scan(&count); err != nil {
		return false, fmt.Errorf("failed to check request %v: %w", t.ID, err)
	}
	if count == 0 {
		return false, dao.ErrNotFound
	}
	return false, nil
}

// List returns matching requests, newest first.
func (s *Service) List(ctx context.Context, parameters ...*dao.Parameter) ([]*request.DeletionRequest, error) {
	query, args := listQuery(parameters)
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list requests: %w", err)
	}
	defer func() { _ = rows.Close() }()
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
		where = append(where, "status IN (?"+strings.Repeat(", ?", len(statuses)-1)+")")
		for _, s := range statuses {
			args = append(args, s)
		}
	}
	if key := criteria.TargetKey(parameters); key != "" {
		where = append(where, "target_location || '|' || target_version = ?")
		args = append(args, key)
	}
	query := `SELECT ` + columns + ` FROM deletion_requests`
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	query += " ORDER BY created_at DESC"
	if limit := criteria.Limit(parameters); limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}
	return query, args
}

func (s *Service) queryOne(ctx context.Context, query string, arg string) (*request.DeletionRequest, error) {
	r, err := scanRequest(s.db.QueryRowContext(ctx, query, arg))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	return r, err
}

type scanner interface {
	Scan(dest ...interface{}) error
}

func scanRequest(row scanner) (*request.DeletionRequest, error) {
	var (
		r                                              request.DeletionRequest
		status, createdAt                              string
		targetName, authorName, requesterName, preview sql.NullString
		decidedAt, decidedBy, notes, deciderName       sql.NullString
	)
	err := row.Scan(&r.ID, &r.CorrelationKey, &r.Target.Location, &r.Target.Version, &targetName, &r.AuthorID, &authorName,
		&r.RequesterID, &requesterName, &preview, &status, &createdAt, &decidedAt, &decidedBy, &notes, &deciderName)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to scan request: %w", err)
	}
	r.Target.AuthorID = r.AuthorID
	r.Target.Name = targetName.String
	r.AuthorName = authorName.String
	r.RequesterName = requesterName.String
	r.Preview = preview.String
	r.Status = request.Status(status)
	r.DecidedBy = decidedBy.String
	r.DeciderName = deciderName.String
	r.Notes = notes.String
	if r.CreatedAt, err = time.Parse(time.RFC3339Nano, createdAt); err != nil {
		return nil, fmt.Errorf("invalid created_at %q: %w", createdAt, err)
	}
	if decidedAt.Valid && decidedAt.String != "" {
		ts, err := time.Parse(time.RFC3339Nano, decidedAt.String)
		if err != nil {
			return nil, fmt.Errorf("invalid decided_at %q: %w", decidedAt.String, err)
		}
		r.DecidedAt = &ts
	}
	return &r, nil
}

// timeLayout is fixed width so that text ordering matches time ordering.
const timeLayout = "2006-01-02T15:04:05.000000000Z"

func formatTime(t time.Time) string {
	return t.UTC().Format(timeLayout)
}

func formatTimePtr(t *time.Time) interface{} {
	if t == nil {
		return nil
	}
	return formatTime(*t)
}

func (s *Service) migrate(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("failed to create deletion_requests: %w", err)
	}
	for _, index := range indexes {
		if _, err := s.db.ExecContext(ctx, index); err != nil {
			return fmt.Errorf("failed to create index: %w", err)
		}
	}
	return nil
}

// New creates a store over db and ensures the schema exists.
func New(ctx context.Context, db *sql.DB) (*Service, error) {
	ret := &Service{db: db}
	if err := ret.migrate(ctx); err != nil {
		return nil, err
	}
	return ret, nil
}

// NewWithoutMigration creates a store over an already provisioned schema.
func NewWithoutMigration(db *sql.DB) *Service {
	return &Service{db: db}
}

var _ deletion.Service = (*Service)(nil)
