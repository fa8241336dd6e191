package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"dmchat/internal/pkg/errs"
	"dmchat/internal/pkg/logx"
	"dmchat/internal/pkg/randx"
)

const nameTimeLayout = "20060102_150405"

var (
	unsafeNameChars = regexp.MustCompile(`[^A-Za-z0-9_-]+`)
	extPattern      = regexp.MustCompile(`^\.[a-z0-9]{1,10}$`)
)

// UploadInput describes one file to store.
type UploadInput struct {
	Category     string
	UserID       string
	Username     string
	OriginalName string
	ContentType  string
	Size         int64
	Body         io.Reader
}

// UploadResult is the record returned to the uploader.
type UploadResult struct {
	Filename     string    `json:"filename"`
	OriginalName string    `json:"originalName"`
	URL          string    `json:"url"`
	Size         int64     `json:"size"`
	Type         string    `json:"type"`
	UploadedBy   string    `json:"uploadedBy"`
	Username     string    `json:"username"`
	UploadedAt   time.Time `json:"uploadedAt"`
}

// Service validates uploads and resolves downloads on a FileStore.
type Service struct {
	store  FileStore
	now    func() time.Time
	logger zerolog.Logger
}

// NewService constructs a Service over store.
func NewService(store FileStore) *Service {
	return &Service{
		store:  store,
		now:    func() time.Time { return time.Now().UTC() },
		logger: logx.Component("storage"),
	}
}

// Upload validates in against its category and stores it under a generated name.
func (s *Service) Upload(ctx context.Context, in UploadInput) (*UploadResult, error) {
	cat, err := validate(in.Category, in.ContentType, in.Size)
	if err != nil {
		return nil, err
	}

	now := s.now()
	name, err := generateName(in.Username, in.OriginalName, now)
	if err != nil {
		return nil, errs.NewError(errs.ErrUnknown, err)
	}

	if err := s.store.Save(ctx, cat.folder, name, in.ContentType, in.Size, in.Body); err != nil {
		return nil, errs.NewError(errs.ErrFileStorageFailed, err)
	}

	s.logger.Info().
		Str("user_id", in.UserID).
		Str("folder", cat.folder).
		Str("filename", name).
		Int64("size", in.Size).
		Msg("File uploaded")

	return &UploadResult{
		Filename:     name,
		OriginalName: in.OriginalName,
		URL:          "/api/files/" + cat.folder + "/" + name,
		Size:         in.Size,
		Type:         in.ContentType,
		UploadedBy:   in.UserID,
		Username:     in.Username,
		UploadedAt:   now,
	}, nil
}

// Download opens folder/name. Unknown folders, unsafe names and missing
// files all report ErrFileNotFound.
func (s *Service) Download(ctx context.Context, folder, name string) (*Object, error) {
	if !isFolder(folder) || !validName(name) {
		return nil, errs.NewError(errs.ErrFileNotFound)
	}

	obj, err := s.store.Open(ctx, folder, name)
	if err != nil {
		if errors.Is(err, ErrNotExist) {
			return nil, errs.NewError(errs.ErrFileNotFound)
		}
		return nil, errs.NewError(errs.ErrFileStorageFailed, err)
	}

	if obj.ContentType == "" {
		obj.ContentType = "application/octet-stream"
	}
	return obj, nil
}

// Find looks name up in every category folder, for links that carry no folder.
func (s *Service) Find(ctx context.Context, name string) (*Object, error) {
	for _, folder := range Folders {
		obj, err := s.Download(ctx, folder, name)
		if err == nil {
			return obj, nil
		}
		if !errs.HasCode(err, errs.ErrFileNotFound) {
			return nil, err
		}
	}
	return nil, errs.NewError(errs.ErrFileNotFound)
}

// validate checks category, content type and size of an upload.
func validate(rawCategory, contentType string, size int64) (category, error) {
	cat, ok := lookupCategory(rawCategory)
	if !ok {
		return category{}, errs.NewError(errs.ErrInvalidParams)
	}

	if size <= 0 {
		return category{}, errs.NewError(errs.ErrFileEmpty)
	}

	if size > MaxUploadSize {
		return category{}, errs.NewError(errs.ErrFileTooLarge, MaxUploadSizeMB)
	}

	if contentType == "" || !strings.HasPrefix(strings.ToLower(contentType), cat.mimePrefix) {
		return category{}, errs.NewError(errs.ErrFileTypeInvalid, cat.displayName)
	}

	return cat, nil
}

// generateName builds <username>_<yyyyMMdd_HHmmss>_<suffix><ext>.
func generateName(username, originalName string, at time.Time) (string, error) {
	suffix, err := randx.Suffix()
	if err != nil {
		return "", fmt.Errorf("generate file name suffix: %w", err)
	}

	owner := unsafeNameChars.ReplaceAllString(username, "_")
	if owner == "" || strings.Trim(owner, "_") == "" {
		owner = "user"
	}

	ext := strings.ToLower(filepath.Ext(originalName))
	if !extPattern.MatchString(ext) {
		ext = ""
	}

	return fmt.Sprintf("%s_%s_%s%s", owner, at.Format(nameTimeLayout), suffix, ext), nil
}
