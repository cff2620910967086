// Package storage wraps the remote file-storage endpoints: uploads, folder
// listings, downloads and file management. All content moves through the
// HTTP transport; nothing is written to the local filesystem.
package storage

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/mixcore/sdk-go/apiclient"
	"github.com/mixcore/sdk-go/common"
	"github.com/mixcore/sdk-go/internal/logging"
)

// FileInfo describes a stored file as reported by the server.
type FileInfo struct {
	FileName  string `json:"fileName"`
	Extension string `json:"extension"`
	Folder    string `json:"folder"`
	FullPath  string `json:"fullPath"`
	WebPath   string `json:"webPath"`
	Size      int64  `json:"size"`
	Content   string `json:"content,omitempty"`
}

// UploadFile is one file part of an upload request.
type UploadFile struct {
	FileName string
	Content  io.Reader
}

// Service is the file-storage layer for one client instance.
type Service struct {
	api *apiclient.Client
	log logging.Logger
}

// NewService builds the file-storage layer.
func NewService(api *apiclient.Client, log logging.Logger) *Service {
	if log == nil {
		log = logging.NewNop()
	}
	return &Service{api: api, log: log}
}

func validatePath(field, path string) error {
	if path == "" {
		return common.NewValidationError(field, "is required")
	}
	if strings.Contains(path, "..") {
		return common.NewValidationError(field, "must not contain '..'")
	}
	return nil
}

// Upload sends a single file into folder and returns the server's record of
// it. folder may be empty for the storage root.
func (s *Service) Upload(ctx context.Context, folder string, file UploadFile) (*FileInfo, error) {
	if file.FileName == "" {
		return nil, common.NewValidationError("fileName", "is required")
	}
	if file.Content == nil {
		return nil, common.NewValidationError("content", "is required")
	}

	form := apiclient.NewForm().AddFile("file", file.FileName, file.Content)
	if folder != "" {
		form.AddField("folder", folder)
	}

	var info FileInfo
	if err := s.api.Upload(ctx, "/storage/upload", form, &info); err != nil {
		return nil, fmt.Errorf("uploading %s: %w", file.FileName, err)
	}
	s.log.Debug(ctx, "file uploaded", "file", file.FileName, "folder", folder)
	return &info, nil
}

// UploadMultiple sends several files into folder in one multipart request.
func (s *Service) UploadMultiple(ctx context.Context, folder string, files []UploadFile) ([]FileInfo, error) {
	if len(files) == 0 {
		return nil, common.NewValidationError("files", "must not be empty")
	}

	form := apiclient.NewForm()
	if folder != "" {
		form.AddField("folder", folder)
	}
	for _, f := range files {
		if f.FileName == "" {
			return nil, common.NewValidationError("fileName", "is required")
		}
		form.AddFile("files", f.FileName, f.Content)
	}

	var infos []FileInfo
	if err := s.api.Upload(ctx, "/storage/upload/multiple", form, &infos); err != nil {
		return nil, fmt.Errorf("uploading %d files: %w", len(files), err)
	}
	return infos, nil
}

// List enumerates the files under folder. An empty folder lists the root.
func (s *Service) List(ctx context.Context, folder string) ([]FileInfo, error) {
	params := map[string]any{}
	if folder != "" {
		params["folder"] = folder
	}
	var infos []FileInfo
	if err := s.api.Get(ctx, "/storage/list", params, &infos); err != nil {
		return nil, fmt.Errorf("listing %s: %w", folder, err)
	}
	return infos, nil
}

// Info fetches the stored record for one file path.
func (s *Service) Info(ctx context.Context, path string) (*FileInfo, error) {
	if err := validatePath("path", path); err != nil {
		return nil, err
	}
	var info FileInfo
	if err := s.api.Get(ctx, "/storage/info", map[string]any{"path": path}, &info); err != nil {
		return nil, fmt.Errorf("stat %s: %w", path, err)
	}
	return &info, nil
}

// FileURL resolves a stored path to its public URL.
func (s *Service) FileURL(ctx context.Context, path string) (string, error) {
	if err := validatePath("path", path); err != nil {
		return "", err
	}
	var out struct {
		URL string `json:"url"`
	}
	if err := s.api.Get(ctx, "/storage/url", map[string]any{"path": path}, &out); err != nil {
		return "", fmt.Errorf("resolving url for %s: %w", path, err)
	}
	return out.URL, nil
}

// Download fetches the raw content of a stored file.
func (s *Service) Download(ctx context.Context, path string) ([]byte, error) {
	if err := validatePath("path", path); err != nil {
		return nil, err
	}
	var content []byte
	if err := s.api.Get(ctx, "/storage/download", map[string]any{"path": path}, &content); err != nil {
		return nil, fmt.Errorf("downloading %s: %w", path, err)
	}
	return content, nil
}

// Move relocates a stored file.
func (s *Service) Move(ctx context.Context, srcPath, destPath string) error {
	if err := validatePath("srcPath", srcPath); err != nil {
		return err
	}
	if err := validatePath("destPath", destPath); err != nil {
		return err
	}
	body := map[string]string{"srcPath": srcPath, "destPath": destPath}
	if err := s.api.Post(ctx, "/storage/move", body, nil); err != nil {
		return fmt.Errorf("moving %s: %w", srcPath, err)
	}
	return nil
}

// Copy duplicates a stored file.
func (s *Service) Copy(ctx context.Context, srcPath, destPath string) error {
	if err := validatePath("srcPath", srcPath); err != nil {
		return err
	}
	if err := validatePath("destPath", destPath); err != nil {
		return err
	}
	body := map[string]string{"srcPath": srcPath, "destPath": destPath}
	if err := s.api.Post(ctx, "/storage/copy", body, nil); err != nil {
		return fmt.Errorf("copying %s: %w", srcPath, err)
	}
	return nil
}

// CreateDirectory creates a folder, including missing parents.
func (s *Service) CreateDirectory(ctx context.Context, path string) error {
	if err := validatePath("path", path); err != nil {
		return err
	}
	if err := s.api.Post(ctx, "/storage/directory", map[string]string{"path": path}, nil); err != nil {
		return fmt.Errorf("creating directory %s: %w", path, err)
	}
	return nil
}

// Delete removes a stored file, reporting the outcome instead of an error so
// cleanup loops can treat missing files as already gone.
func (s *Service) Delete(ctx context.Context, path string) bool {
	if err := validatePath("path", path); err != nil {
		s.log.Warn(ctx, "storage delete rejected", "path", path, "error", err)
		return false
	}
	if err := s.api.Delete(ctx, "/storage/delete", map[string]string{"path": path}, nil); err != nil {
		s.log.Warn(ctx, "storage delete failed", "path", path, "error", err)
		return false
	}
	return true
}

// DeleteMany removes a batch of files one by one and returns how many were
// deleted. Failures are skipped, not fatal.
func (s *Service) DeleteMany(ctx context.Context, paths []string) int {
	deleted := 0
	for _, p := range paths {
		if s.Delete(ctx, p) {
			deleted++
		}
	}
	return deleted
}
