package retract_test

import (
	"context"
	"embed"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	_ "github.com/viant/afs/embed"
	"github.com/viant/retract"
)

//go:embed testdata/*
var embedFS embed.FS

func TestLoadConfig(t *testing.T) {
	cfg, err := retract.LoadConfig(context.Background(), "embed:///testdata/config.yaml", &embedFS)
	require.NoError(t, err)
	assert.Equal(t, "C-review", cfg.ReviewDestination)
	assert.Equal(t, "C-audit", cfg.AuditDestination)
	assert.Equal(t, []string{"U-rev1", "U-rev2"}, cfg.Policy.Reviewers)
	assert.Equal(t, retract.StoreFS, cfg.Store.Vendor)
	assert.Equal(t, "retract", cfg.Store.Prefix)
	assert.Equal(t, 5*time.Second, cfg.Executor.Timeout)
	assert.Equal(t, 80, cfg.Notification.PreviewLimit)
	assert.Equal(t, 100, cfg.Notification.QueueBuffer)
	assert.Equal(t, 30*time.Minute, cfg.AutoApprove.After)
	assert.Equal(t, time.Minute, cfg.AutoApprove.Interval)
	assert.Equal(t, []string{"white_check_mark", "+1"}, cfg.Reactions.Approve)
	assert.Equal(t, ":3000", cfg.HTTP.Addr)
	assert.NoError(t, cfg.Validate())
	assert.Equal(t, []string{"U-rev1", "U-rev2", "auto-approver"}, cfg.PolicyConfig().Reviewers)
	assert.Equal(t, []string{"U-rev1", "U-rev2"}, cfg.Policy.Reviewers)
}

func TestConfig_ApplyEnv(t *testing.T) {
	var testCases = []struct {
		description string
		env         map[string]string
		expectErr   bool
		check       func(t *testing.T, cfg *retract.Config)
	}{
		{
			description: "reviewers and destinations",
			env: map[string]string{
				"REVIEWER_IDS":       " U1, U2 ,,",
				"REVIEW_DESTINATION": "C-review",
				"AUDIT_DESTINATION":  "C-audit",
				"REVIEW_AUDIENCE":    "team",
			},
			check: func(t *testing.T, cfg *retract.Config) {
				assert.Equal(t, []string{"U1", "U2"}, cfg.Policy.Reviewers)
				assert.Equal(t, "C-review", cfg.ReviewDestination)
				assert.Equal(t, "C-audit", cfg.AuditDestination)
				assert.Equal(t, "team", cfg.Policy.Audience)
			},
		},
		{
			description: "store and executor",
			env: map[string]string{
				"STORE_VENDOR":        "sqlite",
				"STORE_DSN":           "file:retract.db",
				"EXECUTOR_KIND":       "chat",
				"EXECUTOR_ENDPOINT":   "https://chat.example/api/chat.delete",
				"EXECUTOR_SECRET_URL": "mem://localhost/secret.json",
				"HTTP_ADDR":           ":8080",
			},
			check: func(t *testing.T, cfg *retract.Config) {
				assert.Equal(t, retract.StoreSQLite, cfg.Store.Vendor)
				assert.Equal(t, "file:retract.db", cfg.Store.DSN)
				assert.Equal(t, retract.ExecutorChat, cfg.Executor.Kind)
				assert.Equal(t, "mem://localhost/secret.json", cfg.Executor.SecretURL)
				assert.Equal(t, ":8080", cfg.HTTP.Addr)
			},
		},
		{
			description: "open membership and auto approve",
			env: map[string]string{
				"OPEN_REVIEWER_MEMBERSHIP": "true",
				"AUTO_APPROVE_MINUTES":     "15",
			},
			check: func(t *testing.T, cfg *retract.Config) {
				assert.True(t, cfg.Policy.OpenMembership)
				assert.Equal(t, 15*time.Minute, cfg.AutoApprove.After)
				assert.True(t, cfg.AutoApprove.Enabled())
			},
		},
		{
			description: "empty values keep defaults",
			env:         map[string]string{"STORE_VENDOR": "", "HTTP_ADDR": ""},
			check: func(t *testing.T, cfg *retract.Config) {
				assert.Equal(t, retract.StoreMemory, cfg.Store.Vendor)
				assert.Equal(t, ":3000", cfg.HTTP.Addr)
			},
		},
		{
			description: "invalid membership flag",
			env:         map[string]string{"OPEN_REVIEWER_MEMBERSHIP": "maybe"},
			expectErr:   true,
		},
		{
			description: "negative auto approve",
			env:         map[string]string{"AUTO_APPROVE_MINUTES": "-1"},
			expectErr:   true,
		},
	}

	for _, testCase := range testCases {
		cfg := retract.DefaultConfig()
		lookup := func(name string) (string, bool) {
			v, ok := testCase.env[name]
			return v, ok
		}
		err := cfg.ApplyEnv(lookup)
		if testCase.expectErr {
			assert.Error(t, err, testCase.description)
			continue
		}
		require.NoError(t, err, testCase.description)
		testCase.check(t, cfg)
	}
}

func TestConfig_Validate(t *testing.T) {
	valid := func() *retract.Config {
		cfg := retract.DefaultConfig()
		cfg.ReviewDestination = "C-review"
		cfg.Policy.Reviewers = []string{"U-rev"}
		return cfg
	}
	var testCases = []struct {
		description string
		mutate      func(cfg *retract.Config)
		expectErr   bool
	}{
		{description: "defaults with reviewers", mutate: func(cfg *retract.Config) {}},
		{description: "missing review destination", mutate: func(cfg *retract.Config) { cfg.ReviewDestination = "" }, expectErr: true},
		{description: "no reviewers closed membership", mutate: func(cfg *retract.Config) { cfg.Policy.Reviewers = nil }, expectErr: true},
		{description: "no reviewers open membership", mutate: func(cfg *retract.Config) {
			cfg.Policy.Reviewers = nil
			cfg.Policy.OpenMembership = true
		}},
		{description: "fs store without base url", mutate: func(cfg *retract.Config) { cfg.Store.Vendor = retract.StoreFS }, expectErr: true},
		{description: "redis store without dsn", mutate: func(cfg *retract.Config) { cfg.Store.Vendor = retract.StoreRedis }, expectErr: true},
		{description: "unknown store", mutate: func(cfg *retract.Config) { cfg.Store.Vendor = "mongo" }, expectErr: true},
		{description: "chat executor without endpoint", mutate: func(cfg *retract.Config) {
			cfg.Executor.Kind = retract.ExecutorChat
			cfg.Executor.Token = "t"
		}, expectErr: true},
		{description: "chat executor without credentials", mutate: func(cfg *retract.Config) {
			cfg.Executor.Kind = retract.ExecutorChat
			cfg.Executor.Endpoint = "https://chat.example"
		}, expectErr: true},
		{description: "chat executor with token", mutate: func(cfg *retract.Config) {
			cfg.Executor.Kind = retract.ExecutorChat
			cfg.Executor.Endpoint = "https://chat.example"
			cfg.Executor.Token = "t"
		}},
		{description: "unknown executor", mutate: func(cfg *retract.Config) { cfg.Executor.Kind = "ftp" }, expectErr: true},
		{description: "auto approve without actor", mutate: func(cfg *retract.Config) {
			cfg.AutoApprove.After = time.Minute
			cfg.AutoApprove.Actor = ""
		}, expectErr: true},
	}

	for _, testCase := range testCases {
		cfg := valid()
		testCase.mutate(cfg)
		err := cfg.Validate()
		if testCase.expectErr {
			assert.Error(t, err, testCase.description)
			continue
		}
		assert.NoError(t, err, testCase.description)
	}
	var empty *retract.Config
	assert.Error(t, empty.Validate())
}
