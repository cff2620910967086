// Package mixcore assembles the SDK layers into one client: a shared HTTP
// transport, the authentication session, the cached data-access layer and
// the file-storage layer, all wired from a single Config.
package mixcore

import (
	"context"
	"net/http"
	"time"

	"github.com/mixcore/sdk-go/apiclient"
	"github.com/mixcore/sdk-go/auth"
	"github.com/mixcore/sdk-go/cache"
	"github.com/mixcore/sdk-go/common"
	"github.com/mixcore/sdk-go/database"
	"github.com/mixcore/sdk-go/internal/logging"
	"github.com/mixcore/sdk-go/query"
	"github.com/mixcore/sdk-go/storage"
)

// Default storage-slot names for the persisted token pair.
const (
	DefaultTokenKey        = "mix_access_token"
	DefaultRefreshTokenKey = "mix_refresh_token"
)

// Config carries everything needed to assemble a client. The zero value is
// usable: it talks to the default endpoint with an in-memory session store.
type Config struct {
	// Endpoint is the base URL of the Mixcore instance. Defaults to
	// common.DefaultEndpoint.
	Endpoint string

	// TokenKey and RefreshTokenKey name the session-store slots.
	TokenKey        string
	RefreshTokenKey string

	// TokenType is the Authorization scheme. Defaults to "Bearer".
	TokenType string

	// Timeout bounds each HTTP request. Zero keeps the transport default.
	Timeout time.Duration

	// CacheTTL is how long data-layer reads stay cached. Zero keeps the
	// cache default.
	CacheTTL time.Duration

	// Store persists the token pair across restarts. Defaults to an
	// in-memory store that forgets everything on exit.
	Store auth.Store

	// HTTPClient overrides the underlying HTTP client, e.g. for proxies or
	// custom TLS. Nil uses http.DefaultClient semantics.
	HTTPClient *http.Client

	// Logger receives structured SDK logs. Nil disables logging.
	Logger logging.Logger

	// OnAuthSuccess and OnAuthError observe the session lifecycle.
	OnAuthSuccess func(*auth.User)
	OnAuthError   func(error)
}

// Client is a fully wired Mixcore SDK instance. Subsystems are exported so
// callers can reach the full surface; the methods below cover the common
// paths.
type Client struct {
	API      *apiclient.Client
	Auth     *auth.Service
	Database *database.Service
	Storage  *storage.Service
	Cache    *cache.Cache
}

// New assembles a client. The transport pulls its bearer token from the
// session layer on every request, so a login or refresh is immediately
// visible to all subsystems.
func New(ctx context.Context, cfg Config) (*Client, error) {
	if cfg.Endpoint == "" {
		cfg.Endpoint = common.DefaultEndpoint
	}
	if cfg.TokenKey == "" {
		cfg.TokenKey = DefaultTokenKey
	}
	if cfg.RefreshTokenKey == "" {
		cfg.RefreshTokenKey = DefaultRefreshTokenKey
	}
	if cfg.Store == nil {
		cfg.Store = auth.NewMemoryStore()
	}
	log := cfg.Logger
	if log == nil {
		log = logging.NewNop()
	}

	c := &Client{Cache: cache.New()}

	opts := []apiclient.Option{
		apiclient.WithLogger(log),
		// late-bound: c.Auth is assigned below, before any request is made
		apiclient.WithTokenProvider(func() string {
			if c.Auth == nil {
				return ""
			}
			return c.Auth.AccessToken()
		}),
	}
	if cfg.TokenType != "" {
		opts = append(opts, apiclient.WithTokenType(cfg.TokenType))
	}
	if cfg.Timeout > 0 {
		opts = append(opts, apiclient.WithTimeout(cfg.Timeout))
	}
	if cfg.HTTPClient != nil {
		opts = append(opts, apiclient.WithHTTPClient(cfg.HTTPClient))
	}
	c.API = apiclient.New(cfg.Endpoint, opts...)

	authService, err := auth.NewService(ctx, c.API, cfg.Store, auth.Config{
		TokenKey:        cfg.TokenKey,
		RefreshTokenKey: cfg.RefreshTokenKey,
		TokenType:       cfg.TokenType,
		OnAuthSuccess:   cfg.OnAuthSuccess,
		OnAuthError:     cfg.OnAuthError,
	}, log)
	if err != nil {
		return nil, err
	}
	c.Auth = authService

	c.Database = database.NewService(c.API, c.Cache, cfg.CacheTTL, log)
	c.Storage = storage.NewService(c.API, log)
	return c, nil
}

// Login authenticates with a username or email plus password.
func (c *Client) Login(ctx context.Context, identifier, password string, rememberMe bool) (*auth.User, error) {
	return c.Auth.Login(ctx, identifier, password, rememberMe)
}

// Logout ends the session, best-effort on the server side.
func (c *Client) Logout(ctx context.Context) {
	c.Auth.Logout(ctx)
	c.Cache.Clear()
}

// IsAuthenticated reports whether a live session token is held.
func (c *Client) IsAuthenticated() bool {
	return c.Auth.IsAuthenticated()
}

// Query starts a fluent query for use with the data layer.
func (c *Client) Query() *query.Query {
	return query.New()
}

// GetData lists rows from a table through the cached data layer.
func (c *Client) GetData(ctx context.Context, table string, q *query.Query) (*database.Result, error) {
	return c.Database.GetData(ctx, table, q)
}

// GetDataByID fetches one row by id through the cached data layer.
func (c *Client) GetDataByID(ctx context.Context, table string, id any) (database.Record, error) {
	return c.Database.GetDataByID(ctx, table, id)
}
