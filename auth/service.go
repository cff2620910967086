// Package auth owns the authentication lifecycle for a Mixcore client:
// credential validation, login, registration, profile maintenance, token
// refresh with in-flight de-duplication, logout, and persisted-token
// loading/saving through a pluggable Store.
package auth

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/mixcore/sdk-go/apiclient"
	"github.com/mixcore/sdk-go/common"
	"github.com/mixcore/sdk-go/internal/logging"
)

const (
	loginPath          = "/rest/auth/user/login-unsecure"
	registerPath       = "/rest/auth/register/"
	profilePath        = "/rest/auth/user/my-profile"
	refreshPath        = "/rest/auth/refresh/"
	logoutPath         = "/rest/auth/logout/"
	changePasswordPath = "/rest/auth/change-password/"
	resetPasswordPath  = "/rest/auth/reset-password/"
	updateProfilePath  = "/rest/auth/profile/"
)

// Config carries the session-layer settings.
type Config struct {
	// TokenKey and RefreshTokenKey name the slots in the Store. Both are
	// required.
	TokenKey        string
	RefreshTokenKey string

	// TokenType is the Authorization scheme applied to tokens the server
	// returns without one. Defaults to "Bearer".
	TokenType string

	// OnAuthSuccess fires after a successful login. The user may be nil when
	// the post-login profile fetch failed.
	OnAuthSuccess func(*User)

	// OnAuthError fires for login and refresh failures.
	OnAuthError func(error)
}

// batchStore is the optional capability of writing several keys atomically.
// The SQLite adapter implements it.
type batchStore interface {
	SetMany(ctx context.Context, values map[string][]byte) error
}

// Service is the token/session layer. Safe for concurrent use.
type Service struct {
	api   *apiclient.Client
	store Store
	cfg   Config
	log   logging.Logger

	mu    sync.RWMutex
	token *TokenInfo
	user  *User

	// refresh coalesces concurrent RefreshToken calls into one request.
	refresh singleflight.Group

	// now is a test seam for expiry checks.
	now func() time.Time
}

// NewService builds the session layer and loads any persisted token. A
// persisted token that already expired is discarded from the store instead
// of being exposed as current.
func NewService(ctx context.Context, api *apiclient.Client, store Store, cfg Config, log logging.Logger) (*Service, error) {
	if cfg.TokenKey == "" {
		return nil, common.NewValidationError("tokenKey", "is required")
	}
	if cfg.RefreshTokenKey == "" {
		return nil, common.NewValidationError("refreshTokenKey", "is required")
	}
	if cfg.TokenType == "" {
		cfg.TokenType = common.DefaultTokenType
	}
	if log == nil {
		log = logging.NewNop()
	}
	s := &Service{api: api, store: store, cfg: cfg, log: log, now: time.Now}
	s.loadPersisted(ctx)
	return s, nil
}

func (s *Service) loadPersisted(ctx context.Context) {
	raw, err := s.store.Get(ctx, s.cfg.TokenKey)
	if err != nil {
		s.log.Warn(ctx, "reading persisted token failed", "error", err)
		return
	}
	if raw == nil {
		return
	}
	var token TokenInfo
	if err := json.Unmarshal(raw, &token); err != nil {
		s.log.Warn(ctx, "persisted token is corrupt, discarding", "error", err)
		s.clearPersisted(ctx)
		return
	}
	if token.Expired(s.now()) {
		s.log.Debug(ctx, "persisted token expired, discarding")
		s.clearPersisted(ctx)
		return
	}
	s.token = &token
}

// TokenProvider returns the closure the transport layer consults for the
// current access token.
func (s *Service) TokenProvider() apiclient.TokenProvider {
	return s.AccessToken
}

// AccessToken returns the current access token, or "" when no session is
// active.
func (s *Service) AccessToken() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.token == nil {
		return ""
	}
	return s.token.AccessToken
}

// Token returns a copy of the current token pair, or nil.
func (s *Service) Token() *TokenInfo {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.token == nil {
		return nil
	}
	t := *s.token
	return &t
}

// IsAuthenticated reports whether a non-expired token is held.
func (s *Service) IsAuthenticated() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.token != nil && !s.token.Expired(s.now())
}

// CurrentUser returns the identity fetched for the active session, or nil
// when no profile has been loaded.
func (s *Service) CurrentUser() *User {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.user
}

// Login validates the identifier and password, authenticates against the
// server, persists the returned token, and fetches the user profile. A
// failed profile fetch does not roll back the login; the returned user is
// nil in that case. Any other failure clears partial session state before
// returning.
func (s *Service) Login(ctx context.Context, identifier, password string, rememberMe bool) (*User, error) {
	if err := ValidateLoginCredentials(identifier, password); err != nil {
		return nil, err
	}

	payload := loginPayload{Password: password, RememberMe: rememberMe}
	if strings.Contains(identifier, "@") {
		payload.Email = identifier
	} else {
		payload.UserName = identifier
	}

	var token TokenInfo
	if err := s.api.Post(ctx, loginPath, payload, &token); err != nil {
		s.clearSession(ctx)
		failure := loginFailure(err)
		s.notifyError(failure)
		return nil, failure
	}

	s.stamp(&token)
	if err := s.persistToken(ctx, &token); err != nil {
		s.clearSession(ctx)
		s.notifyError(err)
		return nil, fmt.Errorf("persisting token: %w", err)
	}

	s.mu.Lock()
	s.token = &token
	s.mu.Unlock()

	user, err := s.GetProfile(ctx)
	if err != nil {
		s.log.Warn(ctx, "profile fetch after login failed", "error", err)
	}
	if s.cfg.OnAuthSuccess != nil {
		s.cfg.OnAuthSuccess(user)
	}
	return user, nil
}

// Register creates a new account. It does not log the new user in.
func (s *Service) Register(ctx context.Context, req RegisterRequest) (*User, error) {
	if err := ValidateRegistration(req); err != nil {
		return nil, err
	}
	var user User
	if err := s.api.Post(ctx, registerPath, req, &user); err != nil {
		return nil, fmt.Errorf("registration failed: %w", err)
	}
	return &user, nil
}

// RefreshToken exchanges the held refresh token for a new pair. Concurrent
// callers share a single in-flight request and receive the same outcome.
// With no refresh token held it resolves to (nil, nil). A rejected refresh
// is fatal for the session: all local and persisted state is cleared.
func (s *Service) RefreshToken(ctx context.Context) (*TokenInfo, error) {
	s.mu.RLock()
	refreshToken := ""
	if s.token != nil {
		refreshToken = s.token.RefreshToken
	}
	s.mu.RUnlock()
	if refreshToken == "" {
		return nil, nil
	}

	v, err, _ := s.refresh.Do("refresh", func() (any, error) {
		var token TokenInfo
		if err := s.api.Post(ctx, refreshPath, refreshPayload{RefreshToken: refreshToken}, &token); err != nil {
			s.log.Warn(ctx, "token refresh rejected", "error", err)
			s.clearSession(ctx)
			return nil, common.NewAuthError("session expired: token refresh rejected", statusOf(err))
		}
		s.stamp(&token)
		if err := s.persistToken(ctx, &token); err != nil {
			s.clearSession(ctx)
			return nil, fmt.Errorf("persisting refreshed token: %w", err)
		}
		s.mu.Lock()
		s.token = &token
		s.mu.Unlock()
		return &token, nil
	})
	if err != nil {
		s.notifyError(err)
		return nil, err
	}
	return v.(*TokenInfo), nil
}

// Logout posts to the logout endpoint best-effort and unconditionally clears
// persisted and in-memory session state. It never returns an error: a failed
// server call is logged and discarded.
func (s *Service) Logout(ctx context.Context) {
	if err := s.api.Post(ctx, logoutPath, nil, nil); err != nil {
		s.log.Warn(ctx, "logout endpoint call failed", "error", err)
	}
	s.clearSession(ctx)
}

// GetProfile fetches the identity for the active session and caches it as
// the current user.
func (s *Service) GetProfile(ctx context.Context) (*User, error) {
	var user User
	if err := s.api.Get(ctx, profilePath, nil, &user); err != nil {
		return nil, fmt.Errorf("fetching profile: %w", err)
	}
	s.mu.Lock()
	s.user = &user
	s.mu.Unlock()
	return &user, nil
}

// UpdateProfile writes profile changes and refreshes the cached user.
func (s *Service) UpdateProfile(ctx context.Context, user User) (*User, error) {
	var updated User
	if err := s.api.Put(ctx, updateProfilePath, user, &updated); err != nil {
		return nil, fmt.Errorf("updating profile: %w", err)
	}
	s.mu.Lock()
	s.user = &updated
	s.mu.Unlock()
	return &updated, nil
}

// ChangePassword rotates the account password. The new password must meet
// the registration-strength rules.
func (s *Service) ChangePassword(ctx context.Context, currentPassword, newPassword string) error {
	if err := validateRegisterPassword(newPassword); err != nil {
		return err
	}
	payload := changePasswordPayload{CurrentPassword: currentPassword, NewPassword: newPassword}
	if err := s.api.Post(ctx, changePasswordPath, payload, nil); err != nil {
		return fmt.Errorf("changing password: %w", err)
	}
	return nil
}

// ResetPassword requests a password-reset email for the given address.
func (s *Service) ResetPassword(ctx context.Context, email string) error {
	if err := validateEmail(email); err != nil {
		return err
	}
	if err := s.api.Post(ctx, resetPasswordPath, resetPasswordPayload{Email: email}, nil); err != nil {
		return fmt.Errorf("requesting password reset: %w", err)
	}
	return nil
}

// stamp fills in the fields the server may omit before the token is stored.
func (s *Service) stamp(token *TokenInfo) {
	if token.IssuedAt.IsZero() {
		token.IssuedAt = s.now()
	}
	if token.TokenType == "" {
		token.TokenType = s.cfg.TokenType
	}
}

func (s *Service) persistToken(ctx context.Context, token *TokenInfo) error {
	raw, err := json.Marshal(token)
	if err != nil {
		return err
	}
	values := map[string][]byte{
		s.cfg.TokenKey:        raw,
		s.cfg.RefreshTokenKey: []byte(token.RefreshToken),
	}
	if bs, ok := s.store.(batchStore); ok {
		return bs.SetMany(ctx, values)
	}
	if err := s.store.Set(ctx, s.cfg.TokenKey, raw); err != nil {
		return err
	}
	return s.store.Set(ctx, s.cfg.RefreshTokenKey, []byte(token.RefreshToken))
}

func (s *Service) clearPersisted(ctx context.Context) {
	if err := s.store.Delete(ctx, s.cfg.TokenKey); err != nil {
		s.log.Warn(ctx, "clearing persisted token failed", "error", err)
	}
	if err := s.store.Delete(ctx, s.cfg.RefreshTokenKey); err != nil {
		s.log.Warn(ctx, "clearing persisted refresh token failed", "error", err)
	}
}

func (s *Service) clearSession(ctx context.Context) {
	s.clearPersisted(ctx)
	s.mu.Lock()
	s.token = nil
	s.user = nil
	s.mu.Unlock()
}

func (s *Service) notifyError(err error) {
	if s.cfg.OnAuthError != nil {
		s.cfg.OnAuthError(err)
	}
}

// loginFailure translates endpoint failures into the user-facing messages
// the UI shows, keeping the original kind and status.
func loginFailure(err error) error {
	e := common.AsError(err)
	if e == nil {
		return fmt.Errorf("login failed: %w", err)
	}
	switch e.Kind {
	case common.KindAuth:
		return common.NewAuthError("login failed: check your credentials", e.StatusCode)
	case common.KindNetwork:
		failure := common.NewNetworkError("login failed: server unreachable", e.StatusCode, e)
		failure.Timeout = e.Timeout
		return failure
	default:
		return fmt.Errorf("login failed: %w", err)
	}
}

func statusOf(err error) int {
	if e := common.AsError(err); e != nil {
		return e.StatusCode
	}
	return 0
}
