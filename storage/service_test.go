package storage

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mixcore/sdk-go/apiclient"
	"github.com/mixcore/sdk-go/common"
)

func newTestService(t *testing.T, handler http.Handler) *Service {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return NewService(apiclient.New(srv.URL), nil)
}

func writeJSON(t *testing.T, w http.ResponseWriter, v any) {
	t.Helper()
	w.Header().Set("Content-Type", "application/json")
	require.NoError(t, json.NewEncoder(w).Encode(v))
}

func TestUpload(t *testing.T) {
	svc := newTestService(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/storage/upload", r.URL.Path)
		require.NoError(t, r.ParseMultipartForm(1<<20))
		assert.Equal(t, "assets", r.FormValue("folder"))

		file, header, err := r.FormFile("file")
		require.NoError(t, err)
		defer file.Close()
		assert.Equal(t, "logo.png", header.Filename)

		writeJSON(t, w, FileInfo{
			FileName: "logo.png",
			Folder:   "assets",
			FullPath: "assets/logo.png",
			WebPath:  "/uploads/assets/logo.png",
			Size:     9,
		})
	}))

	info, err := svc.Upload(context.Background(), "assets", UploadFile{
		FileName: "logo.png",
		Content:  strings.NewReader("png-bytes"),
	})
	require.NoError(t, err)
	assert.Equal(t, "assets/logo.png", info.FullPath)
	assert.Equal(t, int64(9), info.Size)
}

func TestUpload_Validation(t *testing.T) {
	svc := NewService(apiclient.New("http://127.0.0.1:1"), nil)

	_, err := svc.Upload(context.Background(), "", UploadFile{Content: strings.NewReader("x")})
	require.Error(t, err)
	assert.True(t, common.IsValidation(err))

	_, err = svc.Upload(context.Background(), "", UploadFile{FileName: "a.txt"})
	require.Error(t, err)
	assert.True(t, common.IsValidation(err))
}

func TestUploadMultiple(t *testing.T) {
	svc := newTestService(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/storage/upload/multiple", r.URL.Path)
		require.NoError(t, r.ParseMultipartForm(1<<20))
		require.Len(t, r.MultipartForm.File["files"], 2)

		writeJSON(t, w, []FileInfo{
			{FileName: "a.txt", FullPath: "docs/a.txt"},
			{FileName: "b.txt", FullPath: "docs/b.txt"},
		})
	}))

	infos, err := svc.UploadMultiple(context.Background(), "docs", []UploadFile{
		{FileName: "a.txt", Content: strings.NewReader("aaa")},
		{FileName: "b.txt", Content: strings.NewReader("bbb")},
	})
	require.NoError(t, err)
	assert.Len(t, infos, 2)

	_, err = svc.UploadMultiple(context.Background(), "docs", nil)
	require.Error(t, err)
	assert.True(t, common.IsValidation(err))
}

func TestList(t *testing.T) {
	svc := newTestService(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/storage/list", r.URL.Path)
		assert.Equal(t, "assets", r.URL.Query().Get("folder"))
		writeJSON(t, w, []FileInfo{{FileName: "logo.png"}, {FileName: "banner.jpg"}})
	}))

	infos, err := svc.List(context.Background(), "assets")
	require.NoError(t, err)
	assert.Len(t, infos, 2)
}

func TestInfoAndFileURL(t *testing.T) {
	svc := newTestService(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/storage/info":
			assert.Equal(t, "assets/logo.png", r.URL.Query().Get("path"))
			writeJSON(t, w, FileInfo{FileName: "logo.png", Size: 1024})
		case "/storage/url":
			writeJSON(t, w, map[string]string{"url": "https://cdn.example.com/assets/logo.png"})
		default:
			t.Fatalf("unexpected path %s", r.URL.Path)
		}
	}))

	ctx := context.Background()
	info, err := svc.Info(ctx, "assets/logo.png")
	require.NoError(t, err)
	assert.Equal(t, int64(1024), info.Size)

	url, err := svc.FileURL(ctx, "assets/logo.png")
	require.NoError(t, err)
	assert.Equal(t, "https://cdn.example.com/assets/logo.png", url)
}

func TestDownload(t *testing.T) {
	svc := newTestService(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/storage/download", r.URL.Path)
		w.Header().Set("Content-Type", "application/octet-stream")
		_, _ = w.Write([]byte("raw-bytes"))
	}))

	content, err := svc.Download(context.Background(), "assets/logo.png")
	require.NoError(t, err)
	assert.Equal(t, []byte("raw-bytes"), content)
}

func TestPathTraversalRejected(t *testing.T) {
	svc := NewService(apiclient.New("http://127.0.0.1:1"), nil)
	ctx := context.Background()

	_, err := svc.Info(ctx, "../etc/passwd")
	require.Error(t, err)
	assert.True(t, common.IsValidation(err))

	_, err = svc.Download(ctx, "")
	require.Error(t, err)
	assert.True(t, common.IsValidation(err))

	assert.False(t, svc.Delete(ctx, "a/../b"))
}

func TestMoveCopyCreateDirectory(t *testing.T) {
	var moved, copied, created bool
	svc := newTestService(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var body map[string]string
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		switch r.URL.Path {
		case "/storage/move":
			moved = true
			assert.Equal(t, "a.txt", body["srcPath"])
			assert.Equal(t, "archive/a.txt", body["destPath"])
		case "/storage/copy":
			copied = true
		case "/storage/directory":
			created = true
			assert.Equal(t, "archive/2026", body["path"])
		default:
			t.Fatalf("unexpected path %s", r.URL.Path)
		}
		w.WriteHeader(http.StatusOK)
	}))

	ctx := context.Background()
	require.NoError(t, svc.Move(ctx, "a.txt", "archive/a.txt"))
	require.NoError(t, svc.Copy(ctx, "a.txt", "backup/a.txt"))
	require.NoError(t, svc.CreateDirectory(ctx, "archive/2026"))
	assert.True(t, moved)
	assert.True(t, copied)
	assert.True(t, created)
}

func TestDeleteAndDeleteMany(t *testing.T) {
	svc := newTestService(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodDelete, r.Method)
		assert.Equal(t, "/storage/delete", r.URL.Path)
		var body map[string]string
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		if body["path"] == "gone.txt" {
			http.Error(w, `{"message":"not found"}`, http.StatusNotFound)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}))

	ctx := context.Background()
	assert.True(t, svc.Delete(ctx, "a.txt"))
	assert.False(t, svc.Delete(ctx, "gone.txt"))

	deleted := svc.DeleteMany(ctx, []string{"a.txt", "gone.txt", "b.txt"})
	assert.Equal(t, 2, deleted)
}
