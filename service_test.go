package retract_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/viant/afs"
	"github.com/viant/retract"
	"github.com/viant/retract/model/request"
	"github.com/viant/retract/service/approval"
	"github.com/viant/retract/service/executor"
	"github.com/viant/retract/service/notification"
	"github.com/viant/retract/service/trigger"
	"go.uber.org/zap/zaptest"
)

type noticeRecorder struct {
	mux     sync.Mutex
	notices []*notification.Notice
}

func (r *noticeRecorder) Notify(_ context.Context, notice *notification.Notice) error {
	r.mux.Lock()
	defer r.mux.Unlock()
	r.notices = append(r.notices, notice)
	return nil
}

func (r *noticeRecorder) audiences() []string {
	r.mux.Lock()
	defer r.mux.Unlock()
	var ret []string
	for _, notice := range r.notices {
		ret = append(ret, notice.Audience)
	}
	return ret
}

func testConfig() *retract.Config {
	cfg := retract.DefaultConfig()
	cfg.ReviewDestination = "C-review"
	cfg.AuditDestination = "C-audit"
	cfg.Policy.Reviewers = []string{"U-rev"}
	return cfg
}

func TestService_Lifecycle(t *testing.T) {
	ctx := context.Background()
	var calls int32
	exec := executor.Func(func(ctx context.Context, target request.Target) error {
		atomic.AddInt32(&calls, 1)
		return nil
	})
	recorder := &noticeRecorder{}
	srv, err := retract.New(ctx, testConfig(),
		retract.WithLogger(zaptest.NewLogger(t)),
		retract.WithExecutor(exec),
		retract.WithNotifiers(recorder))
	require.NoError(t, err)
	srv.Start(ctx)
	defer srv.Shutdown()

	created, err := srv.Router().Submit(ctx, &trigger.SubmissionEvent{
		ActorID: "U1",
		Target:  request.Target{Location: "C1", Version: "1700000000.000100", AuthorID: "U1"},
		Preview: "oops",
	})
	require.NoError(t, err)
	assert.Equal(t, request.StatusPending, created.Status)

	outcome, err := srv.Router().React(ctx, &trigger.ReactionEvent{
		Location:       "C-review",
		CorrelationKey: created.CorrelationKey,
		Reaction:       "white_check_mark",
		ActorID:        "U-rev",
	})
	require.NoError(t, err)
	require.NotNil(t, outcome)
	assert.Equal(t, request.StatusApproved, outcome.Status)
	assert.EqualValues(t, 1, atomic.LoadInt32(&calls))

	again, err := srv.Approval().Resolve(ctx, created.CorrelationKey, request.DecisionDeny, "U-rev")
	require.NoError(t, err)
	assert.True(t, again.AlreadyDecided)
	assert.Equal(t, request.StatusApproved, again.Status)

	assert.Eventually(t, func() bool {
		return len(recorder.audiences()) == 5
	}, 2*time.Second, 10*time.Millisecond)
	assert.ElementsMatch(t, []string{
		notification.AudienceRequester,
		notification.AudienceReviewers,
		notification.AudienceRequester,
		notification.AudienceReviewers,
		notification.AudienceAudit,
	}, recorder.audiences())
}

func TestService_Handler(t *testing.T) {
	ctx := context.Background()
	fs := afs.New()
	objectURL := "mem://localhost/retract/content/report.csv"
	require.NoError(t, fs.Upload(ctx, objectURL, 0644, strings.NewReader("a,b")))

	srv, err := retract.New(ctx, testConfig(), retract.WithFileSystem(fs))
	require.NoError(t, err)
	defer srv.Shutdown()

	submit, err := srv.Approval().Submit(ctx, &approval.SubmitInput{
		Actor:  "U1",
		Target: request.Target{Location: "mem://localhost/retract/content", Version: "report.csv", AuthorID: "U1"},
	})
	require.NoError(t, err)

	server := httptest.NewServer(srv.Handler())
	defer server.Close()
	req, err := http.NewRequest(http.MethodPost, server.URL+"/v1/requests/"+submit.CorrelationKey+"/decision",
		strings.NewReader(`{"decision":"approve"}`))
	require.NoError(t, err)
	req.Header.Set("X-Actor-ID", "U-rev")
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	exists, err := fs.Exists(ctx, objectURL)
	require.NoError(t, err)
	assert.False(t, exists)
	stored, err := srv.Approval().GetByCorrelationKey(ctx, submit.CorrelationKey)
	require.NoError(t, err)
	assert.Equal(t, request.StatusApproved, stored.Status)
}

func TestNew(t *testing.T) {
	var testCases = []struct {
		description string
		mutate      func(cfg *retract.Config)
		expectErr   bool
	}{
		{description: "memory store", mutate: func(cfg *retract.Config) {}},
		{description: "fs store", mutate: func(cfg *retract.Config) {
			cfg.Store.Vendor = retract.StoreFS
			cfg.Store.BaseURL = "mem://localhost/retract/new/requests"
			cfg.Notification.OutboxURL = "mem://localhost/retract/new/outbox"
		}},
		{description: "sqlite store", mutate: func(cfg *retract.Config) {
			cfg.Store.Vendor = retract.StoreSQLite
			cfg.Store.DSN = ":memory:"
		}},
		{description: "auto approve", mutate: func(cfg *retract.Config) { cfg.AutoApprove.After = time.Hour }},
		{description: "invalid config", mutate: func(cfg *retract.Config) { cfg.ReviewDestination = "" }, expectErr: true},
		{description: "unreachable redis", mutate: func(cfg *retract.Config) {
			cfg.Store.Vendor = retract.StoreRedis
			cfg.Store.DSN = "redis://127.0.0.1:1/0"
		}, expectErr: true},
	}

	for _, testCase := range testCases {
		cfg := testConfig()
		testCase.mutate(cfg)
		srv, err := retract.New(context.Background(), cfg)
		if testCase.expectErr {
			assert.Error(t, err, testCase.description)
			continue
		}
		require.NoError(t, err, testCase.description)
		srv.Start(context.Background())
		srv.Shutdown()
	}
}
