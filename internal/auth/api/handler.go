// Package api wires Roundtable's HTTP auth endpoints to the identity store,
// session manager, rate limiter, and chat proxy.
package api

import (
	"context"
	"errors"
	"log/slog"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"roundtable/internal/auth/session"
	"roundtable/internal/identity"
	"roundtable/internal/ratelimit"
	"roundtable/internal/security/password"
)

const resetTokenTTL = time.Hour

// ChatService is the upstream assistant boundary consumed by /api/chat.
type ChatService interface {
	Send(ctx context.Context, message string) (string, error)
}

// Handler implements the JSON auth API.
type Handler struct {
	log *slog.Logger
	cfg Config

	store    identity.Store
	sessions *session.Manager

	loginLimiter    ratelimit.Limiter
	registerLimiter ratelimit.Limiter
	resetLimiter    ratelimit.Limiter

	chat   ChatService
	mailer ResetMailer

	hashParams password.Params
	dummyHash  string
}

// Option configures optional Handler dependencies.
type Option func(*Handler)

// WithChatService wires the assistant proxy; without it /api/chat reports
// the assistant as unavailable.
func WithChatService(svc ChatService) Option {
	return func(h *Handler) {
		if h == nil || svc == nil {
			return
		}
		h.chat = svc
	}
}

// WithResetMailer overrides the default no-op reset mailer.
func WithResetMailer(m ResetMailer) Option {
	return func(h *Handler) {
		if h == nil || m == nil {
			return
		}
		h.mailer = m
	}
}

// WithLimiter overrides all three per-action limiters (used by tests).
func WithLimiter(l ratelimit.Limiter) Option {
	return func(h *Handler) {
		if h == nil || l == nil {
			return
		}
		h.loginLimiter = l
		h.registerLimiter = l
		h.resetLimiter = l
	}
}

// NewHandler constructs an auth Handler.
func NewHandler(log *slog.Logger, store identity.Store, sessions *session.Manager, cfg Config, opts ...Option) (*Handler, error) {
	if log == nil {
		log = slog.Default()
	}
	if store == nil {
		return nil, errors.New("auth: nil store")
	}
	if sessions == nil {
		return nil, errors.New("auth: nil session manager")
	}

	h := &Handler{
		log:             log,
		cfg:             cfg,
		store:           store,
		sessions:        sessions,
		loginLimiter:    ratelimit.NewSlidingWindow(cfg.LoginMax, cfg.LoginWindow),
		registerLimiter: ratelimit.NewSlidingWindow(cfg.RegisterMax, cfg.RegisterWindow),
		resetLimiter:    ratelimit.NewSlidingWindow(cfg.ResetMax, cfg.ResetWindow),
		mailer:          NoopResetMailer{},
		hashParams:      password.FromEnv(),
	}

	for _, opt := range opts {
		if opt == nil {
			continue
		}
		opt(h)
	}

	// Dummy hash for timing-resistant login checks.
	if hash, err := password.Hash("dummy-password-for-timing-only", h.hashParams); err == nil {
		h.dummyHash = hash
	}

	return h, nil
}

// Register wires auth routes onto the provided mux.
func (h *Handler) Register(mux *http.ServeMux) {
	if h == nil || mux == nil {
		return
	}
	mux.HandleFunc("/api/register", h.handleRegister)
	mux.HandleFunc("/api/login", h.handleLogin)
	mux.HandleFunc("/api/logout", h.handleLogout)
	mux.Handle("/api/profile", session.Require(http.HandlerFunc(h.handleProfile), unauthorizedJSON()))
	mux.HandleFunc("/api/reset-password", h.handleResetPassword)
	mux.Handle("/api/chat", session.Require(http.HandlerFunc(h.handleChat), unauthorizedJSON()))
}

func unauthorizedJSON() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		writeResult(w, http.StatusUnauthorized, false, "Authentication required")
	})
}

// ---- handlers ----

func (h *Handler) handleRegister(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	var req registerRequest
	if err := decodeJSON(w, r, h.cfg.MaxBodyBytes, &req); err != nil {
		writeResult(w, http.StatusBadRequest, false, "Invalid request body")
		return
	}

	ctx := r.Context()
	now := time.Now().UTC()
	ip := clientIP(r, h.cfg.TrustProxy)

	if !h.registerLimiter.Allow("register_"+ip, now) {
		rateLimitedTotal.WithLabelValues("register").Inc()
		h.log.Warn("auth.register.rate_limited", "ip", ip)
		writeResult(w, http.StatusTooManyRequests, false, "Too many attempts, please try again later")
		return
	}

	// Validation order matters: email, username, password; first failure wins.
	email, err := identity.ValidateEmail(req.Email)
	if err != nil {
		h.writeValidationFailure(w, "register", err)
		return
	}
	username, err := identity.ValidateUsername(req.Username)
	if err != nil {
		h.writeValidationFailure(w, "register", err)
		return
	}
	if err := identity.ValidatePassword(req.Password); err != nil {
		h.writeValidationFailure(w, "register", err)
		return
	}

	// Pre-checks give precise messages; the store's unique indexes remain
	// the authority under concurrency.
	if _, err := h.store.FindByEmail(ctx, email); err == nil {
		registerTotal.WithLabelValues("conflict").Inc()
		writeResult(w, http.StatusConflict, false, "Email already registered")
		return
	} else if !identity.IsNotFound(err) {
		h.serverError(w, "auth.register.lookup_email.fail", err)
		return
	}
	if _, err := h.store.FindByUsername(ctx, username); err == nil {
		registerTotal.WithLabelValues("conflict").Inc()
		writeResult(w, http.StatusConflict, false, "Username already taken")
		return
	} else if !identity.IsNotFound(err) {
		h.serverError(w, "auth.register.lookup_username.fail", err)
		return
	}

	hash, err := password.Hash(req.Password, h.hashParams)
	if err != nil {
		h.serverError(w, "auth.register.hash.fail", err)
		return
	}

	user, err := h.store.Insert(ctx, identity.InsertInput{
		Username:     username,
		Email:        email,
		PasswordHash: hash,
		Now:          now,
	})
	if err != nil {
		switch identity.ConflictField(err) {
		case "email":
			registerTotal.WithLabelValues("conflict").Inc()
			writeResult(w, http.StatusConflict, false, "Email already registered")
		case "username":
			registerTotal.WithLabelValues("conflict").Inc()
			writeResult(w, http.StatusConflict, false, "Username already taken")
		default:
			h.serverError(w, "auth.register.insert.fail", err)
		}
		return
	}

	if !h.startSession(w, user.ID, now) {
		return
	}

	registerTotal.WithLabelValues("success").Inc()
	h.log.Info("auth.register.success", "user_id", user.ID, "ip", ip)
	writeResult(w, http.StatusOK, true, "Registration successful")
}

func (h *Handler) handleLogin(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	var req loginRequest
	if err := decodeJSON(w, r, h.cfg.MaxBodyBytes, &req); err != nil {
		writeResult(w, http.StatusBadRequest, false, "Invalid request body")
		return
	}
	ctx := r.Context()
	now := time.Now().UTC()
	ip := clientIP(r, h.cfg.TrustProxy)
	identifier := identity.NormalizeEmail(req.Email)

	if !h.loginLimiter.Allow("login_"+ip, now) {
		rateLimitedTotal.WithLabelValues("login").Inc()
		h.log.Warn("auth.login.rate_limited", "ip", ip, "identifier", identifier)
		writeResult(w, http.StatusTooManyRequests, false, "Too many attempts, please try again later")
		return
	}

	if strings.TrimSpace(req.Email) == "" || req.Password == "" {
		writeResult(w, http.StatusBadRequest, false, "Email and password are required")
		return
	}

	user, err := h.store.FindByEmail(ctx, identifier)
	if err != nil {
		if !identity.IsNotFound(err) {
			h.serverError(w, "auth.login.lookup.fail", err)
			return
		}
		// Timing resistance: perform a dummy verify when the user is missing
		// so unknown-account and bad-password paths cost the same.
		if h.dummyHash != "" {
			_, _ = password.Verify(h.dummyHash, req.Password, h.hashParams)
		}
		h.failLogin(w, ip, identifier, "not_found")
		return
	}

	ok, err := password.Verify(user.PasswordHash, req.Password, h.hashParams)
	if err != nil {
		// A verify error means the stored hash is unreadable, not that the
		// caller got the password wrong. Keep the response generic but record
		// the cause server-side.
		h.log.Error("auth.login.verify.fail", "err", err, "user_id", user.ID)
		h.failLogin(w, ip, identifier, "verify_error")
		return
	}
	if !ok {
		h.failLogin(w, ip, identifier, "bad_password")
		return
	}

	if !h.startSession(w, user.ID, now) {
		return
	}

	loginTotal.WithLabelValues("success").Inc()
	h.log.Info("auth.login.success", "user_id", user.ID, "ip", ip, "identifier", identifier)
	writeResult(w, http.StatusOK, true, "Login successful")
}

func (h *Handler) handleLogout(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	// Clearing an absent cookie is a no-op, so repeated logouts succeed.
	h.sessions.ClearCookie(w)
	if claims, ok := session.ClaimsFrom(r.Context()); ok {
		h.log.Info("auth.logout", "user_id", claims.UserID, "session_id", claims.SessionID)
	}
	writeResult(w, http.StatusOK, true, "")
}

func (h *Handler) handleProfile(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		h.handleProfileGet(w, r)
	case http.MethodPut:
		h.handleProfileUpdate(w, r)
	default:
		w.WriteHeader(http.StatusMethodNotAllowed)
	}
}

func (h *Handler) handleProfileGet(w http.ResponseWriter, r *http.Request) {
	claims, _ := session.ClaimsFrom(r.Context())

	user, err := h.store.FindByID(r.Context(), claims.UserID)
	if err != nil {
		if identity.IsNotFound(err) {
			writeResult(w, http.StatusUnauthorized, false, "Authentication required")
			return
		}
		h.serverError(w, "auth.profile.lookup.fail", err)
		return
	}

	writeJSON(w, http.StatusOK, profileResponse{
		Success:   true,
		Username:  user.Username,
		Email:     user.Email,
		CreatedAt: user.CreatedAt,
	})
}

func (h *Handler) handleProfileUpdate(w http.ResponseWriter, r *http.Request) {
	claims, _ := session.ClaimsFrom(r.Context())

	var req updateProfileRequest
	if err := decodeJSON(w, r, h.cfg.MaxBodyBytes, &req); err != nil {
		writeResult(w, http.StatusBadRequest, false, "Invalid request body")
		return
	}
	if req.Username == nil {
		writeResult(w, http.StatusBadRequest, false, "Nothing to update")
		return
	}

	username, err := identity.ValidateUsername(*req.Username)
	if err != nil {
		h.writeValidationFailure(w, "profile", err)
		return
	}

	ctx := r.Context()
	user, err := h.store.FindByID(ctx, claims.UserID)
	if err != nil {
		h.serverError(w, "auth.profile.lookup.fail", err)
		return
	}

	if identity.NormalizeUsername(username) != identity.NormalizeUsername(user.Username) {
		if other, err := h.store.FindByUsername(ctx, username); err == nil && other.ID != user.ID {
			writeResult(w, http.StatusConflict, false, "Username already taken")
			return
		} else if err != nil && !identity.IsNotFound(err) {
			h.serverError(w, "auth.profile.lookup_username.fail", err)
			return
		}
	}

	user.Username = username
	if err := h.store.Update(ctx, user); err != nil {
		if identity.ConflictField(err) == "username" {
			writeResult(w, http.StatusConflict, false, "Username already taken")
			return
		}
		h.serverError(w, "auth.profile.update.fail", err)
		return
	}

	h.log.Info("auth.profile.updated", "user_id", user.ID)
	writeResult(w, http.StatusOK, true, "Profile updated")
}

func (h *Handler) handleResetPassword(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	var req resetPasswordRequest
	if err := decodeJSON(w, r, h.cfg.MaxBodyBytes, &req); err != nil {
		writeResult(w, http.StatusBadRequest, false, "Invalid request body")
		return
	}

	ctx := r.Context()
	now := time.Now().UTC()
	ip := clientIP(r, h.cfg.TrustProxy)

	if !h.resetLimiter.Allow("reset_"+ip, now) {
		rateLimitedTotal.WithLabelValues("reset").Inc()
		writeResult(w, http.StatusTooManyRequests, false, "Too many attempts, please try again later")
		return
	}

	email, err := identity.ValidateEmail(req.Email)
	if err != nil {
		h.writeValidationFailure(w, "reset", err)
		return
	}

	// The response never reveals whether the account exists.
	user, err := h.store.FindByEmail(ctx, email)
	if err != nil {
		if identity.IsNotFound(err) {
			h.log.Info("auth.reset.unknown_email", "ip", ip)
			writeResult(w, http.StatusOK, true, "If the email is registered, a reset link has been sent")
			return
		}
		h.serverError(w, "auth.reset.lookup.fail", err)
		return
	}

	resetToken := uuid.NewString()
	expires := now.Add(resetTokenTTL)
	user.ResetToken = &resetToken
	user.ResetTokenExpiresAt = &expires
	if err := h.store.Update(ctx, user); err != nil {
		h.serverError(w, "auth.reset.update.fail", err)
		return
	}

	if err := h.mailer.SendResetEmail(ctx, user, resetToken); err != nil {
		h.log.Error("auth.reset.send.fail", "err", err, "user_id", user.ID)
	}

	h.log.Info("auth.reset.token_issued", "user_id", user.ID, "ip", ip)
	writeResult(w, http.StatusOK, true, "If the email is registered, a reset link has been sent")
}

func (h *Handler) handleChat(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	var req chatRequest
	if err := decodeJSON(w, r, h.cfg.MaxBodyBytes, &req); err != nil {
		writeResult(w, http.StatusBadRequest, false, "Invalid request body")
		return
	}
	if strings.TrimSpace(req.Message) == "" {
		writeResult(w, http.StatusBadRequest, false, "Message is required")
		return
	}

	if h.chat == nil {
		chatTotal.WithLabelValues("unavailable").Inc()
		writeJSON(w, http.StatusOK, chatResponse{Success: false, Message: "Error: the assistant is not configured"})
		return
	}

	reply, err := h.chat.Send(r.Context(), req.Message)
	if err != nil {
		chatTotal.WithLabelValues("upstream_error").Inc()
		h.log.Error("chat.upstream.fail", "err", err)
		writeJSON(w, http.StatusOK, chatResponse{Success: false, Message: "Error: the assistant is unavailable right now"})
		return
	}

	chatTotal.WithLabelValues("success").Inc()
	writeJSON(w, http.StatusOK, chatResponse{Success: true, Message: reply})
}

// ---- helpers ----

// startSession issues a session token and sets the cookie. It reports false
// after writing an error response on failure.
func (h *Handler) startSession(w http.ResponseWriter, userID int64, now time.Time) bool {
	tok, claims, err := h.sessions.Issue(userID, now)
	if err != nil {
		h.serverError(w, "auth.session.issue.fail", err)
		return false
	}
	h.sessions.SetCookie(w, tok, claims.ExpiresAt)
	return true
}

// failLogin logs the failure for audit (reason stays server-side) and
// returns the generic credentials failure: the response must not reveal
// whether the account exists.
func (h *Handler) failLogin(w http.ResponseWriter, ip, identifier, reason string) {
	loginTotal.WithLabelValues("failure").Inc()
	h.log.Warn("auth.login.failed", "ip", ip, "identifier", identifier, "reason", reason)
	writeJSON(w, http.StatusOK, apiResponse{Success: false, Message: "Invalid email or password"})
}

func (h *Handler) writeValidationFailure(w http.ResponseWriter, action string, err error) {
	var ve identity.ValidationError
	msg := "Invalid input"
	if errors.As(err, &ve) {
		msg = ve.Reason
	}
	if action == "register" {
		registerTotal.WithLabelValues("validation_failed").Inc()
	}
	writeResult(w, http.StatusBadRequest, false, msg)
}

func (h *Handler) serverError(w http.ResponseWriter, event string, err error) {
	h.log.Error(event, "err", err)
	writeResult(w, http.StatusInternalServerError, false, "Internal server error")
}

func clientIP(r *http.Request, trustProxy bool) string {
	if trustProxy {
		if ip := parseForwardedIP(r.Header.Get("X-Forwarded-For")); ip != nil {
			return ip.String()
		}
		if ip := net.ParseIP(strings.TrimSpace(r.Header.Get("X-Real-IP"))); ip != nil {
			return ip.String()
		}
	}
	host, _, err := net.SplitHostPort(strings.TrimSpace(r.RemoteAddr))
	if err == nil {
		if ip := net.ParseIP(host); ip != nil {
			return ip.String()
		}
	}
	return "unknown"
}

func parseForwardedIP(raw string) net.IP {
	if raw == "" {
		return nil
	}
	for _, p := range strings.Split(raw, ",") {
		if ip := net.ParseIP(strings.TrimSpace(p)); ip != nil {
			return ip
		}
	}
	return nil
}
