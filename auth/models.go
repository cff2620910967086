package auth

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// TokenInfo is the credential pair returned by login and refresh. It is
// replaced wholesale on refresh, never patched field by field.
type TokenInfo struct {
	AccessToken  string    `json:"accessToken"`
	RefreshToken string    `json:"refreshToken"`
	TokenType    string    `json:"tokenType"`
	ExpiresIn    int64     `json:"expiresIn"`
	IssuedAt     time.Time `json:"issuedAt"`
}

// ExpiresAt reports when the access token stops being current. When the
// server omitted expiresIn, the expiry is read from the JWT exp claim; a
// token with no expiry information at all reports the zero time.
func (t *TokenInfo) ExpiresAt() time.Time {
	if t.ExpiresIn > 0 {
		return t.IssuedAt.Add(time.Duration(t.ExpiresIn) * time.Second)
	}
	if exp, ok := t.jwtExpiry(); ok {
		return exp
	}
	return time.Time{}
}

// Expired reports whether the access token is no longer current at now.
// A token without expiry information is treated as expired only when empty.
func (t *TokenInfo) Expired(now time.Time) bool {
	if t.AccessToken == "" {
		return true
	}
	exp := t.ExpiresAt()
	if exp.IsZero() {
		return false
	}
	return now.After(exp)
}

// jwtExpiry parses the access token without verifying the signature, purely
// to read the exp claim. Signature validation belongs to the server.
func (t *TokenInfo) jwtExpiry() (time.Time, bool) {
	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(t.AccessToken, claims); err != nil {
		return time.Time{}, false
	}
	exp, err := claims.GetExpirationTime()
	if err != nil || exp == nil {
		return time.Time{}, false
	}
	return exp.Time, true
}

// User is the session identity fetched from the profile endpoint. It is
// always re-derived over the network, never persisted on its own.
type User struct {
	ID       string `json:"id"`
	Username string `json:"username,omitempty"`
	Email    string `json:"email"`
	Name     string `json:"name,omitempty"`
	Role     string `json:"role,omitempty"`
	Avatar   string `json:"avatar,omitempty"`
}

// RegisterRequest carries the fields sent to the registration endpoint.
type RegisterRequest struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

// loginPayload mirrors the exact shape the backend expects: both identifier
// fields are always present, with the unused one left as an empty string.
type loginPayload struct {
	Email       string `json:"email"`
	UserName    string `json:"userName"`
	PhoneNumber string `json:"phoneNumber"`
	Password    string `json:"password"`
	RememberMe  bool   `json:"rememberMe"`
	ReturnURL   string `json:"returnUrl"`
}

type refreshPayload struct {
	RefreshToken string `json:"refresh_token"`
}

type changePasswordPayload struct {
	CurrentPassword string `json:"currentPassword"`
	NewPassword     string `json:"newPassword"`
}

type resetPasswordPayload struct {
	Email string `json:"email"`
}
