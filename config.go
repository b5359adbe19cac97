package retract

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/viant/afs"
	"github.com/viant/afs/storage"
	"github.com/viant/retract/policy"
	"github.com/viant/retract/service/trigger"
	"gopkg.in/yaml.v3"
)

// Store vendors.
const (
	StoreMemory   = "memory"
	StoreFS       = "fs"
	StoreSQLite   = "sqlite"
	StorePostgres = "postgres"
	StoreRedis    = "redis"
)

// Executor kinds.
const (
	ExecutorStorage = "storage"
	ExecutorChat    = "chat"
)

// Config is a serialisable representation of the service configuration. It
// can be populated from YAML or JSON and overridden from the environment.
type Config struct {
	Policy            policy.Config      `json:"policy" yaml:"policy"`
	ReviewDestination string             `json:"reviewDestination" yaml:"reviewDestination"`
	AuditDestination  string             `json:"auditDestination,omitempty" yaml:"auditDestination,omitempty"`
	Store             StoreConfig        `json:"store" yaml:"store"`
	Executor          ExecutorConfig     `json:"executor" yaml:"executor"`
	Notification      NotificationConfig `json:"notification" yaml:"notification"`
	AutoApprove       AutoApproveConfig  `json:"autoApprove" yaml:"autoApprove"`
	Reactions         *trigger.Reactions `json:"reactions,omitempty" yaml:"reactions,omitempty"`
	HTTP              HTTPConfig         `json:"http" yaml:"http"`
	Tracing           TracingConfig      `json:"tracing" yaml:"tracing"`
}

// StoreConfig selects the request store.
type StoreConfig struct {
	Vendor  string `json:"vendor" yaml:"vendor"`
	DSN     string `json:"dsn,omitempty" yaml:"dsn,omitempty"`
	BaseURL string `json:"baseURL,omitempty" yaml:"baseURL,omitempty"`
	Prefix  string `json:"prefix,omitempty" yaml:"prefix,omitempty"`
}

// ExecutorConfig selects the privileged deletion backend.
type ExecutorConfig struct {
	Kind      string        `json:"kind" yaml:"kind"`
	Endpoint  string        `json:"endpoint,omitempty" yaml:"endpoint,omitempty"`
	Token     string        `json:"-" yaml:"-"`
	SecretURL string        `json:"secretURL,omitempty" yaml:"secretURL,omitempty"`
	SecretKey string        `json:"secretKey,omitempty" yaml:"secretKey,omitempty"`
	Timeout   time.Duration `json:"timeout,omitempty" yaml:"timeout,omitempty"`
}

// NotificationConfig controls notice delivery.
type NotificationConfig struct {
	OutboxURL    string `json:"outboxURL,omitempty" yaml:"outboxURL,omitempty"`
	QueueBuffer  int    `json:"queueBuffer,omitempty" yaml:"queueBuffer,omitempty"`
	PreviewLimit int    `json:"previewLimit,omitempty" yaml:"previewLimit,omitempty"`
}

// AutoApproveConfig approves requests left pending longer than After. A
// zero After disables auto approval.
type AutoApproveConfig struct {
	After    time.Duration `json:"after,omitempty" yaml:"after,omitempty"`
	Interval time.Duration `json:"interval,omitempty" yaml:"interval,omitempty"`
	Actor    string        `json:"actor,omitempty" yaml:"actor,omitempty"`
}

// Enabled reports whether auto approval is on.
func (c *AutoApproveConfig) Enabled() bool { return c.After > 0 }

// HTTPConfig represents the API listener.
type HTTPConfig struct {
	Addr string `json:"addr" yaml:"addr"`
}

// TracingConfig controls the stdout trace exporter.
type TracingConfig struct {
	Enabled bool   `json:"enabled,omitempty" yaml:"enabled,omitempty"`
	Output  string `json:"output,omitempty" yaml:"output,omitempty"`
}

// DefaultConfig returns a Config with defaults; callers must still set the
// review destination and reviewers.
func DefaultConfig() *Config {
	return &Config{
		Store:        StoreConfig{Vendor: StoreMemory, Prefix: "retract"},
		Executor:     ExecutorConfig{Kind: ExecutorStorage, Timeout: 30 * time.Second},
		Notification: NotificationConfig{QueueBuffer: 100},
		AutoApprove:  AutoApproveConfig{Interval: time.Minute, Actor: "auto-approver"},
		HTTP:         HTTPConfig{Addr: ":3000"},
	}
}

// Validate returns an error describing the first invalid setting or nil.
func (c *Config) Validate() error {
	if c == nil {
		return fmt.Errorf("config was empty")
	}
	if c.ReviewDestination == "" {
		return fmt.Errorf("reviewDestination was empty")
	}
	if err := c.Policy.Validate(); err != nil {
		return fmt.Errorf("invalid policy: %w", err)
	}
	switch c.Store.Vendor {
	case StoreMemory:
	case StoreFS:
		if c.Store.BaseURL == "" {
			return fmt.Errorf("store.baseURL was empty for %v store", c.Store.Vendor)
		}
	case StoreSQLite, StorePostgres, StoreRedis:
		if c.Store.DSN == "" {
			return fmt.Errorf("store.dsn was empty for %v store", c.Store.Vendor)
		}
	default:
		return fmt.Errorf("unsupported store vendor: %q", c.Store.Vendor)
	}
	switch c.Executor.Kind {
	case ExecutorStorage:
	case ExecutorChat:
		if c.Executor.Endpoint == "" {
			return fmt.Errorf("executor.endpoint was empty for chat executor")
		}
		if c.Executor.Token == "" && c.Executor.SecretURL == "" {
			return fmt.Errorf("executor.secretURL was empty for chat executor")
		}
	default:
		return fmt.Errorf("unsupported executor kind: %q", c.Executor.Kind)
	}
	if c.AutoApprove.Enabled() && c.AutoApprove.Actor == "" {
		return fmt.Errorf("autoApprove.actor was empty")
	}
	return nil
}

// PolicyConfig returns the effective policy: with auto approval on, the
// auto approval actor is an additional reviewer.
func (c *Config) PolicyConfig() *policy.Config {
	ret := c.Policy.Clone()
	if c.AutoApprove.Enabled() {
		ret.Reviewers = append(ret.Reviewers, c.AutoApprove.Actor)
	}
	return ret
}

// ApplyEnv overrides settings from environment variables read with lookup
// (os.LookupEnv in production).
func (c *Config) ApplyEnv(lookup func(string) (string, bool)) error {
	str := func(name string, dest *string) {
		if v, ok := lookup(name); ok && v != "" {
			*dest = v
		}
	}
	if v, ok := lookup("REVIEWER_IDS"); ok && v != "" {
		c.Policy.Reviewers = splitList(v)
	}
	str("REVIEW_DESTINATION", &c.ReviewDestination)
	str("REVIEW_AUDIENCE", &c.Policy.Audience)
	str("AUDIT_DESTINATION", &c.AuditDestination)
	str("STORE_VENDOR", &c.Store.Vendor)
	str("STORE_DSN", &c.Store.DSN)
	str("STORE_BASE_URL", &c.Store.BaseURL)
	str("EXECUTOR_KIND", &c.Executor.Kind)
	str("EXECUTOR_ENDPOINT", &c.Executor.Endpoint)
	str("EXECUTOR_TOKEN", &c.Executor.Token)
	str("EXECUTOR_SECRET_URL", &c.Executor.SecretURL)
	str("EXECUTOR_SECRET_KEY", &c.Executor.SecretKey)
	str("NOTIFICATION_OUTBOX_URL", &c.Notification.OutboxURL)
	str("HTTP_ADDR", &c.HTTP.Addr)
	if v, ok := lookup("OPEN_REVIEWER_MEMBERSHIP"); ok && v != "" {
		open, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("invalid OPEN_REVIEWER_MEMBERSHIP: %w", err)
		}
		c.Policy.OpenMembership = open
	}
	if v, ok := lookup("AUTO_APPROVE_MINUTES"); ok && v != "" {
		minutes, err := strconv.Atoi(v)
		if err != nil || minutes < 0 {
			return fmt.Errorf("invalid AUTO_APPROVE_MINUTES: %q", v)
		}
		c.AutoApprove.After = time.Duration(minutes) * time.Minute
	}
	return nil
}

func splitList(v string) []string {
	var ret []string
	for _, item := range strings.Split(v, ",") {
		if item = strings.TrimSpace(item); item != "" {
			ret = append(ret, item)
		}
	}
	return ret
}

// LoadConfig reads a YAML (or JSON) config from URL on top of DefaultConfig.
func LoadConfig(ctx context.Context, URL string, options ...storage.Option) (*Config, error) {
	data, err := afs.New().DownloadWithURL(ctx, URL, options...)
	if err != nil {
		return nil, fmt.Errorf("failed to load config %v: %w", URL, err)
	}
	ret := DefaultConfig()
	if err = yaml.Unmarshal(data, ret); err != nil {
		return nil, fmt.Errorf("failed to decode config %v: %w", URL, err)
	}
	return ret, nil
}
