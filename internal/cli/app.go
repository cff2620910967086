// Package cli implements the interactive mixc shell on top of the SDK: a
// read-eval-print loop with commands for authentication, data access and
// file storage.
package cli

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/mixcore/sdk-go/auth"
	"github.com/mixcore/sdk-go/auth/sqlitestore"
	"github.com/mixcore/sdk-go/internal/cli/config"
	"github.com/mixcore/sdk-go/internal/filex"
	"github.com/mixcore/sdk-go/internal/logging"
	"github.com/mixcore/sdk-go/mixcore"
)

// App is the interactive shell. It owns one SDK client and the terminal I/O.
type App struct {
	cfg    *config.Config
	client *mixcore.Client
	reader *bufio.Reader
	out    io.Writer

	// closeStore releases the session store when it holds resources
	// (the SQLite adapter). Nil for the in-memory and file stores.
	closeStore func() error
}

// NewApp wires the SDK client from cfg and prepares terminal I/O.
func NewApp(ctx context.Context, cfg *config.Config) (*App, error) {
	store, closeStore, err := newStore(ctx, cfg)
	if err != nil {
		return nil, err
	}

	client, err := mixcore.New(ctx, mixcore.Config{
		Endpoint: cfg.Endpoint,
		Timeout:  cfg.Timeout,
		CacheTTL: cfg.CacheTTL,
		Store:    store,
		Logger:   logging.NewDefault(),
	})
	if err != nil {
		if closeStore != nil {
			_ = closeStore()
		}
		return nil, err
	}

	return &App{
		cfg:        cfg,
		client:     client,
		reader:     bufio.NewReader(os.Stdin),
		out:        os.Stdout,
		closeStore: closeStore,
	}, nil
}

// newStore builds the session store selected by cfg.StoreKind. Persistent
// stores live under cfg.DataDir, which is created on demand.
func newStore(ctx context.Context, cfg *config.Config) (auth.Store, func() error, error) {
	switch cfg.StoreKind {
	case "", config.StoreMemory:
		return auth.NewMemoryStore(), nil, nil
	case config.StoreFile:
		dir, err := filex.EnsureDir(cfg.DataDir)
		if err != nil {
			return nil, nil, err
		}
		return auth.NewFileStore(filepath.Join(dir, "session.json")), nil, nil
	case config.StoreSQLite:
		dir, err := filex.EnsureDir(cfg.DataDir)
		if err != nil {
			return nil, nil, err
		}
		store, err := sqlitestore.Open(ctx, filepath.Join(dir, "session.db"))
		if err != nil {
			return nil, nil, err
		}
		return store, store.Close, nil
	default:
		return nil, nil, fmt.Errorf("unknown store kind %q", cfg.StoreKind)
	}
}

// Run starts the shell and blocks until the user exits or stdin closes.
func (a *App) Run(ctx context.Context) {
	defer a.Close()

	fmt.Fprintf(a.out, "mixc — Mixcore shell, connected to %s (type 'help' for commands)\n", a.cfg.Endpoint)
	scanner := bufio.NewScanner(os.Stdin)
	runREPL(ctx, a, a.status, scanner)
}

// Close releases held resources.
func (a *App) Close() {
	if a.closeStore != nil {
		_ = a.closeStore()
	}
}

func (a *App) isLoggedIn() bool {
	return a.client.IsAuthenticated()
}

// status renders the prompt fragment: the current username, or "guest".
func (a *App) status() string {
	if user := a.client.Auth.CurrentUser(); user != nil && user.Username != "" {
		return user.Username
	}
	if a.isLoggedIn() {
		return "authenticated"
	}
	return "guest"
}
