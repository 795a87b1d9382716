package artifact

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

// Store persists binary payloads (generated images) keyed by project and path.
type Store interface {
	Put(ctx context.Context, projectID, path string, content []byte) error
	Get(ctx context.Context, projectID, path string) ([]byte, error)
	GetURL(ctx context.Context, projectID, path string) (string, error)
	Delete(ctx context.Context, projectID, path string) error
}

var ErrNotFound = errors.New("artifact not found")

// Scheme prefixes artifact references stored in project documents.
const Scheme = "artifact://"

// Ref builds the reference stored in a result's image URL.
func Ref(projectID, path string) string {
	return Scheme + objectKey(projectID, path)
}

// ParseRef splits a reference produced by Ref.
func ParseRef(ref string) (projectID, path string, ok bool) {
	rest, found := strings.CutPrefix(ref, Scheme)
	if !found {
		return "", "", false
	}
	projectID, path, ok = strings.Cut(rest, "/")
	if !ok || projectID == "" || path == "" {
		return "", "", false
	}
	return projectID, path, true
}

func objectKey(projectID, path string) string {
	normalized := strings.TrimLeft(strings.TrimSpace(path), "/")
	return strings.TrimSpace(projectID) + "/" + normalized
}

func checkKey(projectID, path string) error {
	if strings.TrimSpace(projectID) == "" {
		return fmt.Errorf("project_id is required")
	}
	if strings.TrimLeft(strings.TrimSpace(path), "/") == "" {
		return fmt.Errorf("path is required")
	}
	return nil
}
