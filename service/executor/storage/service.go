// Package storage deletes content stored as objects reachable through afs:
// the target location is a folder URL and the version names the object.
package storage

import (
	"context"
	"errors"
	"io/fs"
	"strings"

	"github.com/viant/afs"
	"github.com/viant/afs/url"
	"github.com/viant/retract/model/request"
	"github.com/viant/retract/service/executor"
)

// Service deletes objects through an afs.Service.
type Service struct {
	fs afs.Service
}

// URL returns the object URL addressed by target.
func URL(target request.Target) string {
	if target.Version == "" {
		return target.Location
	}
	return url.Join(target.Location, target.Version)
}

// Execute deletes the object addressed by target.
func (s *Service) Execute(ctx context.Context, target request.Target) error {
	objectURL := URL(target)
	if objectURL == "" {
		return executor.NewFailure(executor.KindNotFound, "empty target location", nil)
	}
	exists, err := s.fs.Exists(ctx, objectURL)
	if err != nil {
		return classify(objectURL, err)
	}
	if !exists {
		return executor.NewFailure(executor.KindNotFound, objectURL+" does not exist", nil)
	}
	if err = s.fs.Delete(ctx, objectURL); err != nil {
		return classify(objectURL, err)
	}
	return nil
}

func classify(URL string, err error) error {
	message := "failed to delete " + URL + ": " + err.Error()
	if errors.Is(err, fs.ErrNotExist) {
		return executor.NewFailure(executor.KindNotFound, message, err)
	}
	if errors.Is(err, fs.ErrPermission) || isPermissionMessage(err.Error()) {
		return executor.NewFailure(executor.KindPermissionDenied, message, err)
	}
	return executor.NewFailure(executor.AsFailure(err).Kind, message, err)
}

func isPermissionMessage(message string) bool {
	message = strings.ToLower(message)
	for _, fragment := range []string{"permission denied", "accessdenied", "access denied", "forbidden", "403"} {
		if strings.Contains(message, fragment) {
			return true
		}
	}
	return false
}

// New creates a storage executor.
func New(fs afs.Service) *Service {
	if fs == nil {
		fs = afs.New()
	}
	return &Service{fs: fs}
}

var _ executor.Executor = (*Service)(nil)
