// internal/httpserver/auth.go
//
// Email + verification-code authentication.
// Endpoints under /api/auth:
//   - POST /request-code    → issue a 6-digit code (signup or login) by mail
//   - POST /signup/verify   → consume signup code, set password, issue JWT
//   - POST /login/password  → password login, issue JWT
//   - POST /login/code      → code login, issue JWT
//
// Tokens are HS256 JWTs carrying id/email, sent as Authorization bearers.
// Users live in the users table; passwords are bcrypt hashes.

package httpserver

import (
	"context"
	"crypto/rand"
	"database/sql"
	"encoding/base64"
	"encoding/json"
	"errors"
	"net/http"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/golang-jwt/jwt/v5"
	"github.com/rs/zerolog/log"
	"golang.org/x/crypto/bcrypt"

	"github.com/mfigueiredo/blackjack/server/internal/auth"
)

// authUser is placed into request context by auth middleware.
type authUser struct {
	ID    string `json:"id"`
	Email string `json:"email"`
}

// ctxUserKey is the context key type for storing authUser.
type ctxUserKey struct{}

// currentUser returns the authenticated user from request context, or nil.
func currentUser(r *http.Request) *authUser {
	u, _ := r.Context().Value(ctxUserKey{}).(*authUser)
	return u
}

// mountAuth registers the /auth routes on r.
func (s *Server) mountAuth(r chi.Router) {
	r.Route("/auth", func(r chi.Router) {
		r.Post("/request-code", s.handleRequestCode)
		r.Post("/signup/verify", s.handleSignupVerify)
		r.Post("/login/password", s.handleLoginPassword)
		r.Post("/login/code", s.handleLoginCode)
	})
}

// ------------------------------- handlers ----------------------------------

type requestCodeReq struct {
	Email   string       `json:"email"`
	Purpose auth.Purpose `json:"purpose"`
}

// handleRequestCode issues a verification code for signup or login and mails
// it. Login codes require an existing account; signup codes do not.
func (s *Server) handleRequestCode(w http.ResponseWriter, r *http.Request) {
	var req requestCodeReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, `{"error":"invalid_json"}`, http.StatusBadRequest)
		return
	}
	email := normalizeEmail(req.Email)
	if email == "" || !auth.ValidPurpose(req.Purpose) {
		http.Error(w, `{"error":"bad request"}`, http.StatusBadRequest)
		return
	}
	if req.Purpose == auth.PurposeLogin {
		if _, err := s.findUserByEmail(email); err != nil {
			http.Error(w, `{"error":"no such user"}`, http.StatusBadRequest)
			return
		}
	}

	code := s.codes.Issue(email, req.Purpose)
	if err := s.mailer.SendVerificationCode(r.Context(), email, code, req.Purpose); err != nil {
		log.Error().Err(err).Str("email", email).Msg("send verification code")
		http.Error(w, `{"error":"failed to send code"}`, http.StatusInternalServerError)
		return
	}
	_ = json.NewEncoder(w).Encode(map[string]bool{"ok": true})
}

type signupVerifyReq struct {
	Email    string `json:"email"`
	Code     string `json:"code"`
	Password string `json:"password"`
}

// handleSignupVerify consumes a signup code, creates the user with the given
// password, and returns a fresh token.
func (s *Server) handleSignupVerify(w http.ResponseWriter, r *http.Request) {
	var req signupVerifyReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, `{"error":"invalid_json"}`, http.StatusBadRequest)
		return
	}
	email := normalizeEmail(req.Email)
	if email == "" || !auth.ValidFormat(req.Code) || !validPassword(req.Password) {
		http.Error(w, `{"error":"invalid request"}`, http.StatusBadRequest)
		return
	}
	if !s.codes.Consume(email, req.Code, auth.PurposeSignup) {
		http.Error(w, `{"error":"invalid or expired code"}`, http.StatusBadRequest)
		return
	}
	if _, err := s.findUserByEmail(email); err == nil {
		http.Error(w, `{"error":"user exists"}`, http.StatusBadRequest)
		return
	}

	u, err := s.createUser(email, req.Password)
	if err != nil {
		log.Error().Err(err).Str("email", email).Msg("create user")
		http.Error(w, `{"error":"signup failed"}`, http.StatusInternalServerError)
		return
	}
	s.writeToken(w, u)
}

type loginPasswordReq struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (s *Server) handleLoginPassword(w http.ResponseWriter, r *http.Request) {
	var req loginPasswordReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, `{"error":"invalid_json"}`, http.StatusBadRequest)
		return
	}
	u, err := s.findUserByEmail(normalizeEmail(req.Email))
	if err != nil {
		http.Error(w, `{"error":"no such user"}`, http.StatusBadRequest)
		return
	}
	if bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(req.Password)) != nil {
		http.Error(w, `{"error":"wrong credentials"}`, http.StatusBadRequest)
		return
	}
	s.writeToken(w, u)
}

type loginCodeReq struct {
	Email string `json:"email"`
	Code  string `json:"code"`
}

func (s *Server) handleLoginCode(w http.ResponseWriter, r *http.Request) {
	var req loginCodeReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, `{"error":"invalid_json"}`, http.StatusBadRequest)
		return
	}
	email := normalizeEmail(req.Email)
	u, err := s.findUserByEmail(email)
	if err != nil {
		http.Error(w, `{"error":"no such user"}`, http.StatusBadRequest)
		return
	}
	if !s.codes.Consume(email, req.Code, auth.PurposeLogin) {
		http.Error(w, `{"error":"invalid code"}`, http.StatusBadRequest)
		return
	}
	s.writeToken(w, u)
}

// writeToken signs and returns a JWT for u.
func (s *Server) writeToken(w http.ResponseWriter, u *userRow) {
	token, err := signJWT(u.ID, u.Email)
	if err != nil {
		http.Error(w, `{"error":"sign_failed"}`, http.StatusInternalServerError)
		return
	}
	_ = json.NewEncoder(w).Encode(map[string]string{"token": token})
}

// ------------------------------- users -------------------------------------

// userRow matches the users table shape.
type userRow struct {
	ID           string
	Email        string
	PasswordHash string
	CreatedAt    time.Time
}

// createUser hashes the password and inserts a new user row.
func (s *Server) createUser(email, pw string) (*userRow, error) {
	h, err := bcrypt.GenerateFromPassword([]byte(pw), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}
	now := time.Now().UTC()
	u := &userRow{ID: genID(), Email: email, PasswordHash: string(h), CreatedAt: now}
	_, err = s.db.Exec(`INSERT INTO users (id, email, password_hash, created_at) VALUES (?,?,?,?)`,
		u.ID, u.Email, u.PasswordHash, now.Format(time.RFC3339))
	if err != nil {
		return nil, err
	}
	return u, nil
}

func (s *Server) findUserByEmail(email string) (*userRow, error) {
	row := s.db.QueryRow(`SELECT id, email, password_hash, created_at
	                      FROM users WHERE lower(email)=lower(?)`, email)
	return scanUser(row)
}

func (s *Server) findUserByID(id string) (*userRow, error) {
	row := s.db.QueryRow(`SELECT id, email, password_hash, created_at
	                      FROM users WHERE id=?`, id)
	return scanUser(row)
}

// scanUser converts a *sql.Row into a userRow.
func scanUser(row *sql.Row) (*userRow, error) {
	var u userRow
	var created string
	if err := row.Scan(&u.ID, &u.Email, &u.PasswordHash, &created); err != nil {
		return nil, err
	}
	u.CreatedAt, _ = time.Parse(time.RFC3339, created)
	return &u, nil
}

func normalizeEmail(e string) string {
	return strings.ToLower(strings.TrimSpace(e))
}

// validPassword enforces basic password length rules.
func validPassword(p string) bool {
	return len(p) >= 8 && len(p) <= 100
}

// genID creates a 22-char URL-safe, crypto-random identifier (no padding).
func genID() string {
	var b [16]byte
	_, _ = rand.Read(b[:])
	return base64.RawURLEncoding.EncodeToString(b[:])
}

// ------------------------------ JWT ----------------------------------------

// signJWT creates an HS256 JWT with id/email and a configurable expiry
// (JWT_EXPIRES_HOURS; default 2).
func signJWT(id, email string) (string, error) {
	secret := getEnv("JWT_SECRET", "dev_secret_change_me")
	hours := 2
	if v := os.Getenv("JWT_EXPIRES_HOURS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			hours = n
		}
	}
	t := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"id":    id,
		"email": email,
		"exp":   time.Now().Add(time.Duration(hours) * time.Hour).Unix(),
		"iat":   time.Now().Unix(),
	})
	return t.SignedString([]byte(secret))
}

// bearerToken extracts a bearer token from the Authorization header.
func bearerToken(r *http.Request) string {
	if a := r.Header.Get("Authorization"); strings.HasPrefix(strings.ToLower(a), "bearer ") {
		return strings.TrimSpace(a[7:])
	}
	return ""
}

// parseToken verifies a JWT and resolves it to an existing user.
func (s *Server) parseToken(tokenStr string) (*authUser, error) {
	claims := jwt.MapClaims{}
	token, err := jwt.ParseWithClaims(tokenStr, claims, func(t *jwt.Token) (interface{}, error) {
		return []byte(getEnv("JWT_SECRET", "dev_secret_change_me")), nil
	})
	if err != nil || !token.Valid {
		return nil, errInvalidToken
	}
	email, _ := claims["email"].(string)
	if email == "" {
		return nil, errInvalidToken
	}
	if id, _ := claims["id"].(string); id != "" {
		// Ensure user still exists
		if _, err := s.findUserByID(id); err != nil {
			return nil, errInvalidToken
		}
		return &authUser{ID: id, Email: email}, nil
	}
	u, err := s.findUserByEmail(email)
	if err != nil {
		return nil, errInvalidToken
	}
	return &authUser{ID: u.ID, Email: u.Email}, nil
}

var errInvalidToken = errors.New("invalid token")

// ---------------------------- auth middleware ------------------------------

// withOptionalAuth decorates requests with user context when a valid token
// is present. Requests without a token pass through as guests; a present but
// invalid token is rejected.
func (s *Server) withOptionalAuth() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			tok := bearerToken(r)
			if tok == "" {
				next.ServeHTTP(w, r)
				return
			}
			u, err := s.parseToken(tok)
			if err != nil {
				http.Error(w, `{"error":"Unauthorized"}`, http.StatusUnauthorized)
				return
			}
			ctx := context.WithValue(r.Context(), ctxUserKey{}, u)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// requireAuth enforces a valid bearer token and injects authUser into
// request context.
func (s *Server) requireAuth() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			tok := bearerToken(r)
			if tok == "" {
				http.Error(w, `{"error":"Unauthorized"}`, http.StatusUnauthorized)
				return
			}
			u, err := s.parseToken(tok)
			if err != nil {
				http.Error(w, `{"error":"Unauthorized"}`, http.StatusUnauthorized)
				return
			}
			ctx := context.WithValue(r.Context(), ctxUserKey{}, u)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
