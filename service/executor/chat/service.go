// Package chat deletes chat messages through a chat.delete style HTTP API:
// the target location is the channel id and the version the message
// timestamp.
package chat

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/viant/retract/model/request"
	"github.com/viant/retract/service/executor"
	"github.com/viant/scy"
)

// Config represents chat API settings. The token is either given directly
// or revealed from SecretURL with SecretKey.
type Config struct {
	Endpoint  string        `json:"endpoint" yaml:"endpoint"`
	Token     string        `json:"-" yaml:"-"`
	SecretURL string        `json:"secretURL,omitempty" yaml:"secretURL,omitempty"`
	SecretKey string        `json:"secretKey,omitempty" yaml:"secretKey,omitempty"`
	Timeout   time.Duration `json:"timeout,omitempty" yaml:"timeout,omitempty"`
}

var notFoundCodes = map[string]bool{
	"message_not_found": true,
}

var permissionCodes = map[string]bool{
	"channel_not_found":   true,
	"not_in_channel":      true,
	"cant_delete_message": true,
	"not_authed":          true,
	"invalid_auth":        true,
	"missing_scope":       true,
	"account_inactive":    true,
}

var transientCodes = map[string]bool{
	"ratelimited":         true,
	"internal_error":      true,
	"service_unavailable": true,
	"request_timeout":     true,
}

type response struct {
	OK    bool   `json:"ok"`
	Error string `json:"error,omitempty"`
}

// Service deletes chat messages.
type Service struct {
	config  *Config
	client  *http.Client
	secrets *scy.Service
	mux     sync.Mutex
	token   string
}

// Execute deletes the message addressed by target.
func (s *Service) Execute(ctx context.Context, target request.Target) error {
	token, err := s.resolveToken(ctx)
	if err != nil {
		return executor.NewFailure(executor.KindPermissionDenied, "failed to load chat credential", err)
	}
	form := url.Values{}
	form.Set("channel", target.Location)
	form.Set("ts", target.Version)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.config.Endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return executor.NewFailure(executor.KindUnknown, "invalid chat endpoint", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("Authorization", "Bearer "+token)
	resp, err := s.client.Do(req)
	if err != nil {
		return executor.NewFailure(executor.KindTransientNetwork, err.Error(), err)
	}
	defer resp.Body.Close()
	data, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return executor.NewFailure(executor.KindTransientNetwork, "failed to read chat response", err)
	}
	switch {
	case resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= http.StatusInternalServerError:
		return executor.NewFailure(executor.KindTransientNetwork, fmt.Sprintf("chat API responded with %d", resp.StatusCode), nil)
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		return executor.NewFailure(executor.KindPermissionDenied, fmt.Sprintf("chat API responded with %d", resp.StatusCode), nil)
	}
	var body response
	if err = json.Unmarshal(data, &body); err != nil {
		return executor.NewFailure(executor.KindUnknown, fmt.Sprintf("invalid chat response (%d)", resp.StatusCode), err)
	}
	if body.OK {
		return nil
	}
	return classify(body.Error)
}

func classify(code string) error {
	switch {
	case notFoundCodes[code]:
		return executor.NewFailure(executor.KindNotFound, code, nil)
	case permissionCodes[code]:
		return executor.NewFailure(executor.KindPermissionDenied, code, nil)
	case transientCodes[code]:
		return executor.NewFailure(executor.KindTransientNetwork, code, nil)
	}
	if code == "" {
		code = "unspecified chat API error"
	}
	return executor.NewFailure(executor.KindUnknown, code, nil)
}

func (s *Service) resolveToken(ctx context.Context) (string, error) {
	s.mux.Lock()
	defer s.mux.Unlock()
	if s.token != "" {
		return s.token, nil
	}
	if s.config.SecretURL == "" {
		return "", fmt.Errorf("chat token was not configured")
	}
	resource := scy.NewResource(nil, s.config.SecretURL, s.config.SecretKey)
	secret, err := s.secrets.Load(ctx, resource)
	if err != nil {
		return "", fmt.Errorf("failed to load secret from %s: %w", s.config.SecretURL, err)
	}
	s.token = strings.TrimSpace(secret.String())
	if s.token == "" {
		return "", fmt.Errorf("secret %s was empty", s.config.SecretURL)
	}
	return s.token, nil
}

// Option customises a chat executor.
type Option func(s *Service)

// WithHTTPClient overrides the HTTP client.
func WithHTTPClient(client *http.Client) Option {
	return func(s *Service) {
		if client != nil {
			s.client = client
		}
	}
}

// New creates a chat executor.
func New(config *Config, options ...Option) (*Service, error) {
	if config == nil || config.Endpoint == "" {
		return nil, fmt.Errorf("chat endpoint was empty")
	}
	if config.Token == "" && config.SecretURL == "" {
		return nil, fmt.Errorf("chat token and secret URL were both empty")
	}
	timeout := config.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	ret := &Service{
		config:  config,
		client:  &http.Client{Timeout: timeout},
		secrets: scy.New(),
		token:   config.Token,
	}
	for _, option := range options {
		option(ret)
	}
	return ret, nil
}

var _ executor.Executor = (*Service)(nil)
