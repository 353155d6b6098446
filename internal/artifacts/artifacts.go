// Package artifacts stores uploaded model files.
//
// Uploads are first spooled to a temporary file while their SHA-256 digest
// and size are computed, then handed to a backend: the local filesystem or
// an S3-compatible bucket.
package artifacts

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"io"
	"os"
	"path"
	"regexp"
	"strings"

	"github.com/evalia-ai/evalia/pkg/errors"
)

// Object describes a stored artifact.
type Object struct {
	Key      string `json:"key"`
	Size     int64  `json:"size"`
	Checksum string `json:"checksum"` // "sha256:<hex>"
}

// Store persists artifacts by key.
type Store interface {
	// Put stores the content of r under key.
	Put(ctx context.Context, key string, r io.Reader) (Object, error)
	// Open returns a reader for the artifact stored under key.
	Open(ctx context.Context, key string) (io.ReadCloser, error)
	// Delete removes the artifact. Deleting a missing key is not an error.
	Delete(ctx context.Context, key string) error
}

var unsafeChars = regexp.MustCompile(`[^A-Za-z0-9._-]+`)

// Key builds the storage key of a submission file.
func Key(eventID, submissionID, fileName string) string {
	name := unsafeChars.ReplaceAllString(path.Base(strings.ReplaceAll(fileName, `\`, "/")), "_")
	for strings.Contains(name, "..") {
		name = strings.ReplaceAll(name, "..", ".")
	}
	name = strings.TrimLeft(name, ".")
	if name == "" {
		name = "artifact"
	}
	return path.Join("events", eventID, submissionID, name)
}

// spool copies r to a temporary file, returning it rewound along with the
// size and checksum of the content. The caller removes the file.
func spool(r io.Reader, dir string) (*os.File, int64, string, error) {
	f, err := os.CreateTemp(dir, "evalia-upload-*")
	if err != nil {
		return nil, 0, "", errors.WrapIO("create", dir, err)
	}
	h := sha256.New()
	n, err := io.Copy(io.MultiWriter(f, h), r)
	if err == nil {
		_, err = f.Seek(0, io.SeekStart)
	}
	if err != nil {
		_ = f.Close()
		_ = os.Remove(f.Name())
		return nil, 0, "", errors.WrapIO("write", f.Name(), err)
	}
	return f, n, "sha256:" + hex.EncodeToString(h.Sum(nil)), nil
}

func validKey(key string) error {
	if key == "" || strings.HasPrefix(key, "/") || strings.Contains(key, "..") {
		return errors.NewValidationError("key", key, "invalid artifact key")
	}
	return nil
}
