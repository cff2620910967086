package cli

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/mixcore/sdk-go/storage"
)

// Files lists stored files: files [folder].
func (a *App) Files(ctx context.Context, args []string) error {
	folder := ""
	if len(args) > 0 {
		folder = args[0]
	}
	infos, err := a.client.Storage.List(ctx, folder)
	if err != nil {
		fmt.Fprintf(a.out, "error: %v\n", err)
		return err
	}
	for _, info := range infos {
		fmt.Fprintf(a.out, "%s\t%d bytes\n", info.FullPath, info.Size)
	}
	fmt.Fprintf(a.out, "%d file(s)\n", len(infos))
	return nil
}

// Upload sends a local file to remote storage: upload <folder> <path>.
func (a *App) Upload(ctx context.Context, args []string) error {
	if len(args) < 2 {
		fmt.Fprintln(a.out, "Usage: upload <folder> <path>")
		return nil
	}
	folder, path := args[0], args[1]

	f, err := os.Open(path)
	if err != nil {
		fmt.Fprintf(a.out, "error: %v\n", err)
		return err
	}
	defer f.Close()

	info, err := a.client.Storage.Upload(ctx, folder, storage.UploadFile{
		FileName: filepath.Base(path),
		Content:  f,
	})
	if err != nil {
		fmt.Fprintf(a.out, "Upload unsuccessful: %s\n", err.Error())
		return err
	}

	fmt.Fprintf(a.out, "Uploaded %s (%d bytes)\n", info.FullPath, info.Size)
	return nil
}
