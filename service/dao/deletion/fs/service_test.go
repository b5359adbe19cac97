package fs_test

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/viant/afs"
	"github.com/viant/afs/storage"

	"github.com/viant/retract/model/request"
	"github.com/viant/retract/service/dao/criteria"
	"github.com/viant/retract/service/dao/deletion"
	"github.com/viant/retract/service/dao/deletion/fs"
	"github.com/viant/retract/service/dao/deletion/storetest"
)

func newStore(t *testing.T) *fs.Service {
	baseURL := fmt.Sprintf("mem://localhost/retract/%s/%d", t.Name(), time.Now().UnixNano())
	store, err := fs.New(context.Background(), afs.New(), baseURL, nil)
	require.NoError(t, err)
	return store
}

func TestService(t *testing.T) {
	storetest.Run(t, func(t *testing.T) deletion.Service { return newStore(t) })
}

func TestService_PersistsAcrossInstances(t *testing.T) {
	ctx := context.Background()
	fileService := afs.New()
	baseURL := fmt.Sprintf("mem://localhost/retract/reopen/%d", time.Now().UnixNano())

	first, err := fs.New(ctx, fileService, baseURL, nil)
	require.NoError(t, err)
	id, err := first.Create(ctx, storetest.NewRequest("reopen", time.Now()))
	require.NoError(t, err)

	second, err := fs.New(ctx, fileService, baseURL, nil)
	require.NoError(t, err)
	actual, err := second.GetByCorrelationKey(ctx, "reopen")
	require.NoError(t, err)
	require.NotNil(t, actual)
	assert.Equal(t, id, actual.ID)
}

// indexFailingFS fails uploads into the correlation key index.
type indexFailingFS struct {
	afs.Service
}

func (f *indexFailingFS) Upload(ctx context.Context, URL string, mode os.FileMode, reader io.Reader, options ...storage.Option) error {
	if strings.Contains(URL, "/keys/") {
		return errors.New("quota exceeded")
	}
	return f.Service.Upload(ctx, URL, mode, reader, options...)
}

func TestService_Create_IndexFailure(t *testing.T) {
	ctx := context.Background()
	baseURL := fmt.Sprintf("mem://localhost/retract/index/%d", time.Now().UnixNano())
	store, err := fs.New(ctx, &indexFailingFS{Service: afs.New()}, baseURL, nil)
	require.NoError(t, err)

	r := storetest.NewRequest("orphan", time.Now())
	_, err = store.Create(ctx, r)
	require.Error(t, err)
	require.NotEmpty(t, r.ID)

	loaded, err := store.Load(ctx, r.ID)
	require.NoError(t, err)
	assert.Nil(t, loaded)
	pending, err := store.List(ctx, criteria.WithStatus(request.StatusPending))
	require.NoError(t, err)
	assert.Empty(t, pending)
}
