package storage

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/viant/afs"
	"github.com/viant/afs/file"

	"github.com/viant/retract/model/request"
	"github.com/viant/retract/service/executor"
)

func TestService_Execute(t *testing.T) {
	ctx := context.Background()
	mfs := afs.New()
	target := request.Target{Location: "mem://localhost/retract/content/C1", Version: "1700000000.1", AuthorID: "U1"}
	require.NoError(t, mfs.Upload(ctx, URL(target), file.DefaultFileOsMode, strings.NewReader("hello")))

	srv := New(mfs)
	require.NoError(t, srv.Execute(ctx, target))
	exists, err := mfs.Exists(ctx, URL(target))
	require.NoError(t, err)
	assert.False(t, exists)

	err = srv.Execute(ctx, target)
	require.Error(t, err)
	assert.Equal(t, executor.KindNotFound, executor.AsFailure(err).Kind)

	err = srv.Execute(ctx, request.Target{})
	assert.Equal(t, executor.KindNotFound, executor.AsFailure(err).Kind)
}

func TestClassify(t *testing.T) {
	type testCase struct {
		name   string
		err    error
		expect executor.Kind
	}
	for _, tc := range []testCase{
		{name: "not exist", err: fs.ErrNotExist, expect: executor.KindNotFound},
		{name: "permission", err: &fs.PathError{Op: "remove", Path: "/x", Err: fs.ErrPermission}, expect: executor.KindPermissionDenied},
		{name: "cloud access denied", err: errors.New("googleapi: Error 403: AccessDenied"), expect: executor.KindPermissionDenied},
		{name: "other", err: errors.New("boom"), expect: executor.KindUnknown},
	} {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.expect, executor.AsFailure(classify("mem://localhost/x", tc.err)).Kind)
		})
	}
}

func TestClassify_KeepsWrappedFailure(t *testing.T) {
	inner := executor.NewFailure(executor.KindTransientNetwork, "connection reset", nil)
	err := classify("mem://localhost/x", fmt.Errorf("delete: %w", inner))
	f := executor.AsFailure(err)
	assert.Equal(t, executor.KindTransientNetwork, f.Kind)
	assert.Contains(t, f.Message, "failed to delete mem://localhost/x")
	assert.Equal(t, "connection reset", inner.Message)
	assert.NotSame(t, inner, f)
}

func TestURL(t *testing.T) {
	assert.Equal(t, "mem://localhost/a/b", URL(request.Target{Location: "mem://localhost/a", Version: "b"}))
	assert.Equal(t, "mem://localhost/a", URL(request.Target{Location: "mem://localhost/a"}))
}
