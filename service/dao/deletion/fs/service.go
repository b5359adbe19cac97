package fs

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/viant/afs"
	"github.com/viant/afs/file"
	"github.com/viant/afs/url"
	"github.com/viant/retract/model/request"
	"github.com/viant/retract/service/dao"
	"github.com/viant/retract/service/dao/criteria"
	"github.com/viant/retract/service/dao/deletion"
	"go.uber.org/zap"
)

// Service stores each request as <baseURL>/requests/<id>.json and keeps a
// correlation key index under <baseURL>/keys. Writes are serialized by an
// in-process mutex, so the compare-and-swap is atomic only when a single
// process owns baseURL.
type Service struct {
	baseURL string
	fs      afs.Service
	logger  *zap.Logger
	mu      sync.RWMutex
}

// Create persists a new request.
func (s *Service) Create(ctx context.Context, r *request.DeletionRequest) (string, error) {
	if err := deletion.Prepare(r); err != nil {
		return "", err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	keyURL := s.keyURL(r.CorrelationKey)
	exists, err := s.fs.Exists(ctx, keyURL)
	if err != nil {
		return "", fmt.Errorf("failed to check correlation key %v: %w", r.CorrelationKey, err)
	}
	if exists {
		return "", dao.ErrConflict
	}
	if err = s.save(ctx, r); err != nil {
		return "", err
	}
	if err = s.fs.Upload(ctx, keyURL, file.DefaultFileOsMode, strings.NewReader(r.ID)); err != nil {
		if delErr := s.fs.Delete(ctx, s.requestURL(r.ID)); delErr != nil {
			s.logger.Warn("failed to remove unindexed request",
				zap.String("request_id", r.ID),
				zap.Error(delErr))
		}
		return "", fmt.Errorf("failed to index correlation key %v: %w", r.CorrelationKey, err)
	}
	return r.ID, nil
}

// Load returns a request by id.
func (s *Service) Load(ctx context.Context, id string) (*request.DeletionRequest, error) {
	if id == "" {
		return nil, dao.ErrInvalidID
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.load(ctx, id)
}

// GetByCorrelationKey resolves the key index and loads the request.
func (s *Service) GetByCorrelationKey(ctx context.Context, key string) (*request.DeletionRequest, error) {
	if key == "" {
		return nil, dao.ErrInvalidID
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	keyURL := s.keyURL(key)
	exists, err := s.fs.Exists(ctx, keyURL)
	if err != nil {
		return nil, fmt.Errorf("failed to check correlation key %v: %w", key, err)
	}
	if !exists {
		return nil, nil
	}
	data, err := s.fs.DownloadWithURL(ctx, keyURL)
	if err != nil {
		return nil, fmt.Errorf("failed to read correlation key %v: %w", key, err)
	}
	return s.load(ctx, strings.TrimSpace(string(data)))
}

// CompareAndSwapStatus reads, compares and rewrites the record under the write lock.
func (s *Service) CompareAndSwapStatus(ctx context.Context, t *deletion.Transition) (bool, error) {
	if err := t.Validate(); err != nil {
		return false, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	r, err := s.load(ctx, t.ID)
	if err != nil {
		return false, err
	}
	if r == nil {
		return false, dao.ErrNotFound
	}
	if r.Status != t.Expected {
		return false, nil
	}
	t.Apply(r)
	if err = s.save(ctx, r); err != nil {
		return false, err
	}
	return true, nil
}

// List scans stored requests, newest first.
func (s *Service) List(ctx context.Context, parameters ...*dao.Parameter) ([]*request.DeletionRequest, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	objects, err := s.fs.List(ctx, s.requestsURL())
	if err != nil {
		return nil, fmt.Errorf("failed to list requests: %w", err)
	}
	var result []*request.DeletionRequest
	for _, object := range objects {
		if object.IsDir() || !strings.HasSuffix(object.Name(), ".json") {
			continue
		}
		data, err := s.fs.Download(ctx, object)
		if err != nil {
			s.logger.Warn("skipping unreadable request", zap.String("url", object.URL()), zap.Error(err))
			continue
		}
		r := &request.DeletionRequest{}
		if err = json.Unmarshal(data, r); err != nil {
			s.logger.Warn("skipping malformed request", zap.String("url", object.URL()), zap.Error(err))
			continue
		}
		if criteria.Match(r, parameters) {
			result = append(result, r)
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].CreatedAt.After(result[j].CreatedAt) })
	if limit := criteria.Limit(parameters); limit > 0 && len(result) > limit {
		result = result[:limit]
	}
	return result, nil
}

func (s *Service) load(ctx context.Context, id string) (*request.DeletionRequest, error) {
	URL := s.requestURL(id)
	exists, err := s.fs.Exists(ctx, URL)
	if err != nil {
		return nil, fmt.Errorf("failed to check request %v: %w", id, err)
	}
	if !exists {
		return nil, nil
	}
	data, err := s.fs.DownloadWithURL(ctx, URL)
	if err != nil {
		return nil, fmt.Errorf("failed to read request %v: %w", id, err)
	}
	r := &request.DeletionRequest{}
	if err = json.Unmarshal(data, r); err != nil {
		return nil, fmt.Errorf("failed to unmarshal request %v: %w", id, err)
	}
	return r, nil
}

func (s *Service) save(ctx context.Context, r *request.DeletionRequest) error {
	data, err := json.Marshal(r)
	if err != nil {
		return fmt.Errorf("failed to marshal request %v: %w", r.ID, err)
	}
	if err = s.fs.Upload(ctx, s.requestURL(r.ID), file.DefaultFileOsMode, bytes.NewReader(data)); err != nil {
		return fmt.Errorf("failed to save request %v: %w", r.ID, err)
	}
	return nil
}

func (s *Service) requestsURL() string { return url.Join(s.baseURL, "requests") }

func (s *Service) requestURL(id string) string {
	return url.Join(s.baseURL, "requests", id+".json")
}

func (s *Service) keyURL(key string) string {
	return url.Join(s.baseURL, "keys", base64.RawURLEncoding.EncodeToString([]byte(key)))
}

// New creates a store rooted at baseURL, creating the folders when missing.
func New(ctx context.Context, fs afs.Service, baseURL string, logger *zap.Logger) (*Service, error) {
	if baseURL == "" {
		return nil, fmt.Errorf("base URL cannot be empty")
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	baseURL = url.Normalize(baseURL, file.Scheme)
	ret := &Service{baseURL: baseURL, fs: fs, logger: logger}
	for _, dir := range []string{ret.requestsURL(), url.Join(baseURL, "keys")} {
		exists, _ := fs.Exists(ctx, dir)
		if exists {
			continue
		}
		if err := fs.Create(ctx, dir, file.DefaultDirOsMode, true); err != nil {
			return nil, fmt.Errorf("failed to create %v: %w", dir, err)
		}
	}
	return ret, nil
}

var _ deletion.Service = (*Service)(nil)
