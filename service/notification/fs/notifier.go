// Package fs implements an outbox notifier: every notice is written as a JSON
// file under a per destination folder, for pick-up by an external sender.
package fs

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"time"

	"github.com/viant/afs"
	"github.com/viant/afs/file"
	aurl "github.com/viant/afs/url"
	"github.com/viant/retract/internal/idgen"
	"github.com/viant/retract/service/notification"
)

// Notifier writes notices to an afs outbox.
type Notifier struct {
	fs      afs.Service
	baseURL string
}

// Notify uploads notice to <base>/<destination>/<unix nanos>-<id>.json.
func (n *Notifier) Notify(ctx context.Context, notice *notification.Notice) error {
	if notice == nil {
		return nil
	}
	data, err := json.Marshal(notice)
	if err != nil {
		return fmt.Errorf("failed to encode notice: %w", err)
	}
	name := fmt.Sprintf("%d-%s.json", time.Now().UnixNano(), idgen.New())
	URL := aurl.Join(n.baseURL, url.PathEscape(notice.Destination), name)
	if err = n.fs.Upload(ctx, URL, file.DefaultFileOsMode, bytes.NewReader(data)); err != nil {
		return fmt.Errorf("failed to write notice %v: %w", URL, err)
	}
	return nil
}

// New creates an outbox notifier rooted at baseURL.
func New(fs afs.Service, baseURL string) *Notifier {
	if fs == nil {
		fs = afs.New()
	}
	return &Notifier{fs: fs, baseURL: baseURL}
}

var _ notification.Notifier = (*Notifier)(nil)
