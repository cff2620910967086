package auth

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/mixcore/sdk-go/apiclient"
	"github.com/mixcore/sdk-go/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testConfig = Config{TokenKey: "mix_access_token", RefreshTokenKey: "mix_refresh_token"}

func newTestService(t *testing.T, handler http.HandlerFunc) (*Service, *MemoryStore, *httptest.Server) {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	store := NewMemoryStore()
	s, err := NewService(context.Background(), apiclient.New(srv.URL), store, testConfig, nil)
	require.NoError(t, err)
	return s, store, srv
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(v)
}

func TestNewService_RequiresStorageKeys(t *testing.T) {
	api := apiclient.New("http://localhost")

	_, err := NewService(context.Background(), api, NewMemoryStore(), Config{RefreshTokenKey: "r"}, nil)
	require.Error(t, err)
	assert.True(t, common.IsValidation(err))

	_, err = NewService(context.Background(), api, NewMemoryStore(), Config{TokenKey: "t"}, nil)
	require.Error(t, err)
	assert.True(t, common.IsValidation(err))
}

func TestLogin_ValidationFailsBeforeNetwork(t *testing.T) {
	var calls int32
	s, _, _ := newTestService(t, func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
	})

	_, err := s.Login(context.Background(), "a@b.com", "short", false)

	require.Error(t, err)
	assert.True(t, common.IsValidation(err))
	assert.Contains(t, err.Error(), "at least 6 characters")
	assert.Equal(t, int32(0), atomic.LoadInt32(&calls), "validation must short-circuit before any network call")
}

func TestLogin_EmailIdentifier(t *testing.T) {
	var gotLogin loginPayload
	s, store, _ := newTestService(t, func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case loginPath:
			json.NewDecoder(r.Body).Decode(&gotLogin)
			writeJSON(w, TokenInfo{AccessToken: "A1", RefreshToken: "R1", ExpiresIn: 3600})
		case profilePath:
			writeJSON(w, User{ID: "u1", Email: "a@b.com", Name: "Alice"})
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	})

	user, err := s.Login(context.Background(), "a@b.com", "secret1", true)
	require.NoError(t, err)

	// exact backend shape: both identifier fields present, unused one empty
	assert.Equal(t, "a@b.com", gotLogin.Email)
	assert.Equal(t, "", gotLogin.UserName)
	assert.True(t, gotLogin.RememberMe)

	require.NotNil(t, user)
	assert.Equal(t, "u1", user.ID)
	assert.True(t, s.IsAuthenticated())
	assert.Equal(t, "A1", s.AccessToken())
	assert.Equal(t, user, s.CurrentUser())

	raw, err := store.Get(context.Background(), testConfig.TokenKey)
	require.NoError(t, err)
	require.NotNil(t, raw, "token must be persisted")
	refresh, err := store.Get(context.Background(), testConfig.RefreshTokenKey)
	require.NoError(t, err)
	assert.Equal(t, []byte("R1"), refresh)
}

func TestLogin_UsernameIdentifier(t *testing.T) {
	var gotLogin loginPayload
	s, _, _ := newTestService(t, func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case loginPath:
			json.NewDecoder(r.Body).Decode(&gotLogin)
			writeJSON(w, TokenInfo{AccessToken: "A1", ExpiresIn: 3600})
		case profilePath:
			writeJSON(w, User{ID: "u1", Username: "alice"})
		}
	})

	_, err := s.Login(context.Background(), "alice", "secret1", false)
	require.NoError(t, err)
	assert.Equal(t, "alice", gotLogin.UserName)
	assert.Equal(t, "", gotLogin.Email)
}

func TestLogin_BadCredentials(t *testing.T) {
	var authErrs []error
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer srv.Close()

	cfg := testConfig
	cfg.OnAuthError = func(err error) { authErrs = append(authErrs, err) }
	store := NewMemoryStore()
	s, err := NewService(context.Background(), apiclient.New(srv.URL), store, cfg, nil)
	require.NoError(t, err)

	_, err = s.Login(context.Background(), "a@b.com", "secret1", false)

	require.Error(t, err)
	assert.True(t, common.IsAuth(err))
	assert.Contains(t, err.Error(), "check your credentials")
	assert.False(t, s.IsAuthenticated())
	assert.Len(t, authErrs, 1)

	raw, _ := store.Get(context.Background(), testConfig.TokenKey)
	assert.Nil(t, raw, "failed login must not leave persisted state")
}

func TestLogin_ServerUnreachable(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	srv.Close()

	s, err := NewService(context.Background(), apiclient.New(srv.URL), NewMemoryStore(), testConfig, nil)
	require.NoError(t, err)

	_, err = s.Login(context.Background(), "a@b.com", "secret1", false)
	require.Error(t, err)
	assert.True(t, common.IsNetwork(err))
	assert.Contains(t, err.Error(), "server unreachable")
}

func TestLogin_ProfileFetchFailureDoesNotRollBack(t *testing.T) {
	s, store, _ := newTestService(t, func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case loginPath:
			writeJSON(w, TokenInfo{AccessToken: "A1", RefreshToken: "R1", ExpiresIn: 3600})
		case profilePath:
			w.WriteHeader(http.StatusInternalServerError)
		}
	})

	user, err := s.Login(context.Background(), "a@b.com", "secret1", false)

	require.NoError(t, err, "login must succeed even when the profile fetch fails")
	assert.Nil(t, user)
	assert.True(t, s.IsAuthenticated())

	raw, _ := store.Get(context.Background(), testConfig.TokenKey)
	assert.NotNil(t, raw)
}

func TestRegister_DoesNotLogIn(t *testing.T) {
	var gotPath string
	s, _, _ := newTestService(t, func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		writeJSON(w, User{ID: "u2", Username: "bob", Email: "bob@example.com"})
	})

	user, err := s.Register(context.Background(), RegisterRequest{
		Username: "bob", Email: "bob@example.com", Password: "Str0ng!pass",
	})
	require.NoError(t, err)
	assert.Equal(t, registerPath, gotPath)
	assert.Equal(t, "u2", user.ID)
	assert.False(t, s.IsAuthenticated())
}

func TestRegister_WeakPasswordRejected(t *testing.T) {
	var calls int32
	s, _, _ := newTestService(t, func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
	})

	_, err := s.Register(context.Background(), RegisterRequest{
		Username: "bob", Email: "bob@example.com", Password: "weakpass",
	})
	require.Error(t, err)
	assert.True(t, common.IsValidation(err))
	assert.Equal(t, int32(0), atomic.LoadInt32(&calls))
}

// seedSession installs a persisted token so the service starts authenticated.
func seedSession(t *testing.T, store *MemoryStore, token TokenInfo) {
	t.Helper()
	raw, err := json.Marshal(token)
	require.NoError(t, err)
	require.NoError(t, store.Set(context.Background(), testConfig.TokenKey, raw))
	require.NoError(t, store.Set(context.Background(), testConfig.RefreshTokenKey, []byte(token.RefreshToken)))
}

func TestRefreshToken_NoRefreshTokenHeld(t *testing.T) {
	var calls int32
	s, _, _ := newTestService(t, func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
	})

	token, err := s.RefreshToken(context.Background())
	require.NoError(t, err)
	assert.Nil(t, token)
	assert.Equal(t, int32(0), atomic.LoadInt32(&calls))
}

func TestRefreshToken_ConcurrentCallsCoalesce(t *testing.T) {
	var refreshCalls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, refreshPath, r.URL.Path)
		var p refreshPayload
		json.NewDecoder(r.Body).Decode(&p)
		assert.Equal(t, "R1", p.RefreshToken)
		atomic.AddInt32(&refreshCalls, 1)
		time.Sleep(100 * time.Millisecond) // hold the request so callers pile up
		writeJSON(w, TokenInfo{AccessToken: "A2", RefreshToken: "R2", ExpiresIn: 3600})
	}))
	defer srv.Close()

	store := NewMemoryStore()
	seedSession(t, store, TokenInfo{AccessToken: "A1", RefreshToken: "R1", ExpiresIn: 3600, IssuedAt: time.Now()})
	s, err := NewService(context.Background(), apiclient.New(srv.URL), store, testConfig, nil)
	require.NoError(t, err)

	const callers = 25
	start := make(chan struct{})
	results := make([]*TokenInfo, callers)
	errs := make([]error, callers)
	var wg sync.WaitGroup
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			<-start
			results[i], errs[i] = s.RefreshToken(context.Background())
		}(i)
	}
	close(start)
	wg.Wait()

	assert.Equal(t, int32(1), atomic.LoadInt32(&refreshCalls), "concurrent refreshes must share one request")
	for i := 0; i < callers; i++ {
		require.NoError(t, errs[i])
		require.NotNil(t, results[i])
		assert.Equal(t, "A2", results[i].AccessToken)
	}
	assert.Equal(t, "A2", s.AccessToken())
}

func TestRefreshToken_FailureClearsSession(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer srv.Close()

	store := NewMemoryStore()
	seedSession(t, store, TokenInfo{AccessToken: "A1", RefreshToken: "R1", ExpiresIn: 3600, IssuedAt: time.Now()})
	s, err := NewService(context.Background(), apiclient.New(srv.URL), store, testConfig, nil)
	require.NoError(t, err)
	require.True(t, s.IsAuthenticated())

	_, err = s.RefreshToken(context.Background())

	require.Error(t, err)
	assert.True(t, common.IsAuth(err))
	assert.False(t, s.IsAuthenticated())
	raw, _ := store.Get(context.Background(), testConfig.TokenKey)
	assert.Nil(t, raw, "a failed refresh is fatal for the session")
}

func TestLogout_BestEffort(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == logoutPath {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
	}))
	defer srv.Close()

	store := NewMemoryStore()
	seedSession(t, store, TokenInfo{AccessToken: "A1", RefreshToken: "R1", ExpiresIn: 3600, IssuedAt: time.Now()})
	s, err := NewService(context.Background(), apiclient.New(srv.URL), store, testConfig, nil)
	require.NoError(t, err)

	s.Logout(context.Background())

	assert.False(t, s.IsAuthenticated())
	assert.Nil(t, s.CurrentUser())
	raw, _ := store.Get(context.Background(), testConfig.TokenKey)
	assert.Nil(t, raw, "local cleanup must happen even when the server call fails")
}

func TestNewService_DiscardsExpiredPersistedToken(t *testing.T) {
	store := NewMemoryStore()
	seedSession(t, store, TokenInfo{
		AccessToken: "stale", RefreshToken: "R1",
		ExpiresIn: 60, IssuedAt: time.Now().Add(-2 * time.Minute),
	})

	s, err := NewService(context.Background(), apiclient.New("http://localhost"), store, testConfig, nil)
	require.NoError(t, err)

	assert.False(t, s.IsAuthenticated())
	assert.Empty(t, s.AccessToken())
	raw, _ := store.Get(context.Background(), testConfig.TokenKey)
	assert.Nil(t, raw, "expired persisted token must be removed from storage")
}

func TestNewService_LoadsLiveToken(t *testing.T) {
	store := NewMemoryStore()
	seedSession(t, store, TokenInfo{AccessToken: "live", RefreshToken: "R1", ExpiresIn: 3600, IssuedAt: time.Now()})

	s, err := NewService(context.Background(), apiclient.New("http://localhost"), store, testConfig, nil)
	require.NoError(t, err)
	assert.True(t, s.IsAuthenticated())
	assert.Equal(t, "live", s.AccessToken())
}

func TestChangePassword_EnforcesStrictRules(t *testing.T) {
	var calls int32
	s, _, _ := newTestService(t, func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
	})

	err := s.ChangePassword(context.Background(), "OldP4ss!", "tooweak")
	require.Error(t, err)
	assert.True(t, common.IsValidation(err))
	assert.Equal(t, int32(0), atomic.LoadInt32(&calls))

	require.NoError(t, s.ChangePassword(context.Background(), "OldP4ss!", "NewStr0ng!pass"))
	assert.Equal(t, int32(1), atomic.LoadInt32(&calls))
}

func TestResetPassword_ValidatesEmail(t *testing.T) {
	var gotPath string
	s, _, _ := newTestService(t, func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
	})

	err := s.ResetPassword(context.Background(), "not-an-email@")
	require.Error(t, err)
	assert.True(t, common.IsValidation(err))

	require.NoError(t, s.ResetPassword(context.Background(), "a@b.com"))
	assert.Equal(t, resetPasswordPath, gotPath)
}
