package fs

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/viant/afs"

	"github.com/viant/retract/service/notification"
)

func TestNotifier_Notify(t *testing.T) {
	ctx := context.Background()
	mfs := afs.New()
	baseURL := "mem://localhost/retract/outbox"
	notifier := New(mfs, baseURL)

	require.NoError(t, notifier.Notify(ctx, &notification.Notice{Destination: "C-review", Audience: notification.AudienceReviewers, Text: "first"}))
	require.NoError(t, notifier.Notify(ctx, &notification.Notice{Destination: "C-review", Audience: notification.AudienceReviewers, Text: "second"}))
	require.NoError(t, notifier.Notify(ctx, nil))

	objects, err := mfs.List(ctx, baseURL+"/C-review")
	require.NoError(t, err)
	var texts []string
	for _, object := range objects {
		if object.IsDir() {
			continue
		}
		data, err := mfs.DownloadWithURL(ctx, object.URL())
		require.NoError(t, err)
		notice := &notification.Notice{}
		require.NoError(t, json.Unmarshal(data, notice))
		texts = append(texts, notice.Text)
	}
	assert.ElementsMatch(t, []string{"first", "second"}, texts)
}
