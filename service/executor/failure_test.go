package executor

import (
	"context"
	"errors"
	"fmt"
	"net"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/viant/retract/model/request"
)

type timeoutError struct{}

func (timeoutError) Error() string   { return "i/o timeout" }
func (timeoutError) Timeout() bool   { return true }
func (timeoutError) Temporary() bool { return true }

var _ net.Error = timeoutError{}

func TestAsFailure(t *testing.T) {
	type testCase struct {
		name   string
		err    error
		expect Kind
	}
	for _, tc := range []testCase{
		{name: "classified", err: NewFailure(KindNotFound, "message_not_found", nil), expect: KindNotFound},
		{name: "wrapped classified", err: fmt.Errorf("delete: %w", NewFailure(KindPermissionDenied, "not_in_channel", nil)), expect: KindPermissionDenied},
		{name: "deadline", err: context.DeadlineExceeded, expect: KindTransientNetwork},
		{name: "net timeout", err: &net.OpError{Op: "dial", Err: timeoutError{}}, expect: KindTransientNetwork},
		{name: "plain error", err: errors.New("boom"), expect: KindUnknown},
	} {
		t.Run(tc.name, func(t *testing.T) {
			f := AsFailure(tc.err)
			require.NotNil(t, f)
			assert.Equal(t, tc.expect, f.Kind)
		})
	}
	assert.Nil(t, AsFailure(nil))
}

func TestFailure_Notes(t *testing.T) {
	type testCase struct {
		name    string
		failure *Failure
		expect  string
	}
	for _, tc := range []testCase{
		{
			name:    "not found",
			failure: NewFailure(KindNotFound, "message_not_found", nil),
			expect:  "the content may already be gone: message_not_found",
		},
		{
			name:    "permission",
			failure: NewFailure(KindPermissionDenied, "not_in_channel", nil),
			expect:  "the acting credential needs access to the target location: not_in_channel",
		},
		{
			name:    "message from error",
			failure: NewFailure(KindUnknown, "", errors.New("boom")),
			expect:  "the deletion failed unexpectedly: boom",
		},
		{
			name:    "no message",
			failure: NewFailure(KindTransientNetwork, "", nil),
			expect:  "a temporary network problem interrupted the deletion, please resubmit",
		},
	} {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.expect, tc.failure.Notes())
		})
	}
}

func TestWithTimeout(t *testing.T) {
	slow := Func(func(ctx context.Context, target request.Target) error {
		<-ctx.Done()
		return ctx.Err()
	})
	err := WithTimeout(slow, 10*time.Millisecond).Execute(context.Background(), request.Target{Location: "C1", Version: "1"})
	require.Error(t, err)
	assert.Equal(t, KindTransientNetwork, AsFailure(err).Kind)

	notFound := Func(func(ctx context.Context, target request.Target) error {
		<-ctx.Done()
		return NewFailure(KindNotFound, "gone", nil)
	})
	err = WithTimeout(notFound, 10*time.Millisecond).Execute(context.Background(), request.Target{})
	assert.Equal(t, KindNotFound, AsFailure(err).Kind)

	fast := Func(func(ctx context.Context, target request.Target) error { return nil })
	assert.NoError(t, WithTimeout(fast, time.Second).Execute(context.Background(), request.Target{}))
}

func TestWithListener(t *testing.T) {
	var observed []error
	failing := Func(func(ctx context.Context, target request.Target) error { return errors.New("boom") })
	e := WithListener(failing, func(target request.Target, elapsed time.Duration, err error) {
		observed = append(observed, err)
	})
	assert.Error(t, e.Execute(context.Background(), request.Target{}))
	require.Len(t, observed, 1)
	assert.EqualError(t, observed[0], "boom")
	_, wrapped := WithListener(failing, nil).(*listened)
	assert.False(t, wrapped)
}
