/*
Package storage persists uploaded attachments and serves them back.

Files live in one folder per category (images, videos, audio, documents) on a
FileStore backend: the local disk or an S3-compatible bucket.
*/
package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"
)

// ErrNotExist is returned by a FileStore when the requested file is absent.
var ErrNotExist = errors.New("file does not exist")

const (
	// MaxUploadSizeMB is the upload ceiling in megabytes.
	MaxUploadSizeMB = 65

	// MaxUploadSize is the upload ceiling in bytes.
	MaxUploadSize = MaxUploadSizeMB * 1024 * 1024

	// Backend names accepted by NewFileStore.
	BackendLocal = "local"
	BackendS3    = "s3"
)

// Object is an opened stored file. The caller closes Body.
type Object struct {
	Body        io.ReadCloser
	ContentType string
	Size        int64
	ModTime     time.Time
}

// FileStore is a flat key space of folder/name files.
type FileStore interface {
	// Save stores size bytes read from r under folder/name, replacing any previous file.
	Save(ctx context.Context, folder, name, contentType string, size int64, r io.Reader) error

	// Open returns the file stored under folder/name, or ErrNotExist.
	Open(ctx context.Context, folder, name string) (*Object, error)
}

// ServiceConfig selects and configures the FileStore backend.
type ServiceConfig struct {
	Backend  string
	MediaDir string

	S3BucketName      string
	S3Endpoint        string
	S3AccessKeyID     string
	S3SecretAccessKey string
}

// NewFileStore builds the backend named by cfg.Backend.
func NewFileStore(ctx context.Context, cfg ServiceConfig) (FileStore, error) {
	switch cfg.Backend {
	case "", BackendLocal:
		return NewLocalStore(cfg.MediaDir)
	case BackendS3:
		return newS3Store(ctx, cfg)
	default:
		return nil, fmt.Errorf("unknown file storage backend %q", cfg.Backend)
	}
}

// Folders lists every category folder.
var Folders = []string{"images", "videos", "audio", "documents"}

// category describes one upload category.
type category struct {
	folder      string
	mimePrefix  string // empty accepts any content type
	displayName string
}

var categories = map[string]category{
	"IMAGE": {folder: "images", mimePrefix: "image/", displayName: "IMAGE"},
	"VIDEO": {folder: "videos", mimePrefix: "video/", displayName: "VIDEO"},
	"AUDIO": {folder: "audio", mimePrefix: "audio/", displayName: "AUDIO"},
	"VOICE": {folder: "audio", mimePrefix: "audio/", displayName: "VOICE"},
	"FILE":  {folder: "documents", displayName: "FILE"},
}

func lookupCategory(raw string) (category, bool) {
	c, ok := categories[strings.ToUpper(strings.TrimSpace(raw))]
	return c, ok
}

// FolderFor returns the folder files of the given category are stored in.
func FolderFor(rawCategory string) (string, bool) {
	c, ok := lookupCategory(rawCategory)
	return c.folder, ok
}

// isFolder reports whether folder is one of Folders.
func isFolder(folder string) bool {
	for _, f := range Folders {
		if f == folder {
			return true
		}
	}
	return false
}

// validName reports whether name is a single plain path element.
func validName(name string) bool {
	if name == "" || strings.HasPrefix(name, ".") {
		return false
	}
	return !strings.ContainsAny(name, `/\`) && !strings.Contains(name, "..")
}
