package session

import (
	"crypto/rand"
	"encoding/base64"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/oklog/ulid/v2"

	"roundtable/internal/security/token"
)

const tokenVersion = "v1"

// Claims is the verified content of a session token.
type Claims struct {
	UserID    int64
	SessionID string
	ExpiresAt time.Time
}

// Manager issues and verifies signed session tokens and manages the
// transport cookie.
type Manager struct {
	cfg Config
	key []byte
}

// NewManager constructs a Manager. The signing key must be at least 32 bytes.
func NewManager(cfg Config, key []byte) (*Manager, error) {
	if len(key) < 32 {
		return nil, token.ErrSecretTooShort
	}
	if strings.TrimSpace(cfg.CookieName) == "" || cfg.TTL <= 0 {
		return nil, ErrConfig
	}
	return &Manager{cfg: cfg, key: key}, nil
}

// Issue creates a signed session token for userID.
// Token format: v1.<payload-b64url>.<hmac-b64url> where the payload is
// "<userID>|<sessionID>|<expiresAtUnix>". The session ID is a ULID so audit
// log entries sort chronologically.
func (m *Manager) Issue(userID int64, now time.Time) (string, Claims, error) {
	if now.IsZero() {
		now = time.Now().UTC()
	}

	sessionID, err := newSessionID(now)
	if err != nil {
		return "", Claims{}, err
	}
	exp := now.Add(m.cfg.TTL)

	payload := fmt.Sprintf("%d|%s|%d", userID, sessionID, exp.Unix())
	b64 := base64.RawURLEncoding
	sig := token.SignHMACSHA256(payload, m.key)

	tok := tokenVersion + "." + b64.EncodeToString([]byte(payload)) + "." + b64.EncodeToString(sig)

	return tok, Claims{UserID: userID, SessionID: sessionID, ExpiresAt: exp}, nil
}

// Verify checks the token's signature (constant-time) and expiry and
// returns the embedded claims.
func (m *Manager) Verify(tok string, now time.Time) (Claims, error) {
	if now.IsZero() {
		now = time.Now().UTC()
	}

	parts := strings.Split(tok, ".")
	if len(parts) != 3 || parts[0] != tokenVersion {
		return Claims{}, ErrInvalidToken
	}

	b64 := base64.RawURLEncoding
	payloadBytes, err := b64.DecodeString(parts[1])
	if err != nil {
		return Claims{}, ErrInvalidToken
	}
	sig, err := b64.DecodeString(parts[2])
	if err != nil {
		return Claims{}, ErrInvalidToken
	}

	want := token.SignHMACSHA256(string(payloadBytes), m.key)
	if !token.ConstantTimeEqual(sig, want) {
		return Claims{}, ErrInvalidToken
	}

	fields := strings.Split(string(payloadBytes), "|")
	if len(fields) != 3 {
		return Claims{}, ErrInvalidToken
	}
	userID, err := strconv.ParseInt(fields[0], 10, 64)
	if err != nil || userID <= 0 {
		return Claims{}, ErrInvalidToken
	}
	expUnix, err := strconv.ParseInt(fields[2], 10, 64)
	if err != nil {
		return Claims{}, ErrInvalidToken
	}

	exp := time.Unix(expUnix, 0).UTC()
	if !exp.After(now) {
		return Claims{}, ErrTokenExpired
	}

	return Claims{UserID: userID, SessionID: fields[1], ExpiresAt: exp}, nil
}

// SetCookie writes the session cookie for tok.
func (m *Manager) SetCookie(w http.ResponseWriter, tok string, exp time.Time) {
	http.SetCookie(w, &http.Cookie{
		Name:     m.cfg.CookieName,
		Value:    tok,
		Path:     m.cfg.CookiePath,
		Expires:  exp,
		HttpOnly: true,
		Secure:   m.cfg.CookieSecure,
		SameSite: m.cfg.CookieSameSite,
	})
}

// ClearCookie expires the session cookie.
func (m *Manager) ClearCookie(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     m.cfg.CookieName,
		Value:    "",
		Path:     m.cfg.CookiePath,
		Expires:  time.Unix(0, 0).UTC(),
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   m.cfg.CookieSecure,
		SameSite: m.cfg.CookieSameSite,
	})
}

// FromRequest extracts the raw session token from the request cookie.
func (m *Manager) FromRequest(r *http.Request) (string, bool) {
	c, err := r.Cookie(m.cfg.CookieName)
	if err != nil {
		return "", false
	}
	v := strings.TrimSpace(c.Value)
	if v == "" {
		return "", false
	}
	return v, true
}

func newSessionID(now time.Time) (string, error) {
	id, err := ulid.New(ulid.Timestamp(now), rand.Reader)
	if err != nil {
		return "", err
	}
	return id.String(), nil
}
