package redis

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/viant/retract/model/request"
	"github.com/viant/retract/service/dao"
	"github.com/viant/retract/service/dao/criteria"
	"github.com/viant/retract/service/dao/deletion"
)

// createScript inserts a request hash guarded by the correlation key index.
// KEYS[1] = correlation key index
// KEYS[2] = request hash
// KEYS[3] = creation time sorted set
// ARGV[1] = request id
// ARGV[2] = created at (unix nanos)
// ARGV[3..] = hash field/value pairs
var createScript = redis.NewScript(`
if redis.call("EXISTS", KEYS[2]) == 1 then
    return 0
end
if redis.call("SETNX", KEYS[1], ARGV[1]) == 0 then
    return 0
end
local fields = {}
for i = 3, #ARGV do
    fields[#fields + 1] = ARGV[i]
end
redis.call("HSET", KEYS[2], unpack(fields))
redis.call("ZADD", KEYS[3], ARGV[2], ARGV[1])
return 1
`)

// casScript swaps the status field when it equals the expected value.
// KEYS[1] = request hash
// ARGV[1] = expected status
// ARGV[2] = new status
// ARGV[3] = decided by (empty keeps)
// ARGV[4] = decided at (empty keeps)
// ARGV[5] = notes (empty keeps)
// ARGV[6] = decider name (empty keeps)
var casScript = redis.NewScript(`
local status = redis.call("HGET", KEYS[1], "status")
if not status then
    return -1
end
if status ~= ARGV[1] then
    return 0
end
redis.call("HSET", KEYS[1], "status", ARGV[2])
if ARGV[3] ~= "" then
    redis.call("HSET", KEYS[1], "decided_by", ARGV[3])
end
if ARGV[4] ~= "" then
    redis.call("HSET", KEYS[1], "decided_at", ARGV[4])
end
if ARGV[5] ~= "" then
    redis.call("HSET", KEYS[1], "notes", ARGV[5])
end
if ARGV[6] ~= "" then
    redis.call("HSET", KEYS[1], "decider_name", ARGV[6])
end
return 1
`)

// Service is a Redis deletion.Service. Each request is a hash; a string key
// indexes correlation keys and a sorted set orders requests by creation time.
type Service struct {
	client redis.UniversalClient
	prefix string
}

func (s *Service) requestKey(id string) string {
	return s.prefix + ":request:" + id
}

func (s *Service) correlationKey(key string) string {
	return s.prefix + ":key:" + key
}

func (s *Service) createdKey() string {
	return s.prefix + ":created"
}

// Create inserts a new request.
func (s *Service) Create(ctx context.Context, r *request.DeletionRequest) (string, error) {
	if err := deletion.Prepare(r); err != nil {
		return "", err
	}
	args := []interface{}{r.ID, r.CreatedAt.UnixNano()}
	args = append(args, encode(r)...)
	res, err := createScript.Run(ctx, s.client,
		[]string{s.correlationKey(r.CorrelationKey), s.requestKey(r.ID), s.createdKey()}, args...).Int64()
	if err != nil {
		return "", fmt.Errorf("redis create error: %w", err)
	}
	if res == 0 {
		return "", dao.ErrConflict
	}
	return r.ID, nil
}

// Load returns a request by id.
func (s *Service) Load(ctx context.Context, id string) (*request.DeletionRequest, error) {
	values, err := s.client.HGetAll(ctx, s.requestKey(id)).Result()
	if err != nil {
		return nil, fmt.Errorf("redis load error: %w", err)
	}
	if len(values) == 0 {
		return nil, nil
	}
	return decode(values)
}

// GetByCorrelationKey resolves the key index, then loads the request.
func (s *Service) GetByCorrelationKey(ctx context.Context, key string) (*request.DeletionRequest, error) {
	id, err := s.client.Get(ctx, s.correlationKey(key)).Result()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("redis key lookup error: %w", err)
	}
	return s.Load(ctx, id)
}

// CompareAndSwapStatus runs the swap as a single script.
func (s *Service) CompareAndSwapStatus(ctx context.Context, t *deletion.Transition) (bool, error) {
	if err := t.Validate(); err != nil {
		return false, err
	}
	decidedAt := ""
	if t.DecidedAt != nil {
		decidedAt = formatTime(*t.DecidedAt)
	}
	res, err := casScript.Run(ctx, s.client, []string{s.requestKey(t.ID)},
		string(t.Expected), string(t.Status), t.DecidedBy, decidedAt, t.Notes, t.DeciderName).Int64()
	if err != nil {
		return false, fmt.Errorf("redis status update error: %w", err)
	}
	switch res {
	case -1:
		return false, dao.ErrNotFound
	case 1:
		return true, nil
	}
	return false, nil
}

// List walks the creation index newest first and filters each request.
func (s *Service) List(ctx context.Context, parameters ...*dao.Parameter) ([]*request.DeletionRequest, error) {
	ids, err := s.client.ZRevRange(ctx, s.createdKey(), 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("redis list error: %w", err)
	}
	limit := criteria.Limit(parameters)
	var result []*request.DeletionRequest
	for _, id := range ids {
		r, err := s.Load(ctx, id)
		if err != nil {
			return nil, err
		}
		if !criteria.Match(r, parameters) {
			continue
		}
		result = append(result, r)
		if limit > 0 && len(result) == limit {
			break
		}
	}
	return result, nil
}

func encode(r *request.DeletionRequest) []interface{} {
	fields := []interface{}{
		"id", r.ID,
		"correlation_key", r.CorrelationKey,
		"target_location", r.Target.Location,
		"target_version", r.Target.Version,
		"target_name", r.Target.Name,
		"author_id", r.AuthorID,
		"author_name", r.AuthorName,
		"requester_id", r.RequesterID,
		"requester_name", r.RequesterName,
		"preview", r.Preview,
		"status", string(r.Status),
		"created_at", formatTime(r.CreatedAt),
		"decided_by", r.DecidedBy,
		"decider_name", r.DeciderName,
		"notes", r.Notes,
	}
	if r.DecidedAt != nil {
		fields = append(fields, "decided_at", formatTime(*r.DecidedAt))
	}
	return fields
}

func decode(values map[string]string) (*request.DeletionRequest, error) {
	r := &request.DeletionRequest{
		ID:             values["id"],
		CorrelationKey: values["correlation_key"],
		Target: request.Target{
			Location: values["target_location"],
			Version:  values["target_version"],
			Name:     values["target_name"],
			AuthorID: values["author_id"],
		},
		AuthorID:      values["author_id"],
		AuthorName:    values["author_name"],
		RequesterID:   values["requester_id"],
		RequesterName: values["requester_name"],
		Preview:       values["preview"],
		Status:        request.Status(values["status"]),
		DecidedBy:     values["decided_by"],
		DeciderName:   values["decider_name"],
		Notes:         values["notes"],
	}
	createdAt, err := parseTime(values["created_at"])
	if err != nil {
		return nil, fmt.Errorf("invalid created_at for %v: %w", r.ID, err)
	}
	r.CreatedAt = createdAt
	if v := values["decided_at"]; v != "" {
		decidedAt, err := parseTime(v)
		if err != nil {
			return nil, fmt.Errorf("invalid decided_at for %v: %w", r.ID, err)
		}
		r.DecidedAt = &decidedAt
	}
	return r, nil
}

func formatTime(t time.Time) string {
	return strconv.FormatInt(t.UTC().UnixNano(), 10)
}

func parseTime(v string) (time.Time, error) {
	nanos, err := strconv.ParseInt(v, 10, 64)
	if err != nil {
		return time.Time{}, err
	}
	return time.Unix(0, nanos).UTC(), nil
}

// New creates a store using prefix to namespace every key.
func New(client redis.UniversalClient, prefix string) *Service {
	if prefix == "" {
		prefix = "retract"
	}
	return &Service{client: client, prefix: prefix}
}

var _ deletion.Service = (*Service)(nil)
