package httpserver

import (
	"encoding/json"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mfigueiredo/blackjack/server/internal/auth"
)

func tokenFromBody(t *testing.T, body []byte) string {
	t.Helper()
	var resp struct {
		Token string `json:"token"`
	}
	require.NoError(t, json.Unmarshal(body, &resp))
	require.NotEmpty(t, resp.Token)
	return resp.Token
}

func TestSignupVerifyAndLogin(t *testing.T) {
	s := newTestServer(t)
	email := "new@example.com"

	rec, body := doJSON(t, s, http.MethodPost, "/api/auth/request-code", "", map[string]any{
		"email": email, "purpose": "signup",
	})
	require.Equal(t, http.StatusOK, rec.Code, string(body))
	assert.JSONEq(t, `{"ok":true}`, string(body))

	// The handler mailed its own code; replace it with a known one.
	code := s.codes.Issue(email, auth.PurposeSignup)

	rec, body = doJSON(t, s, http.MethodPost, "/api/auth/signup/verify", "", map[string]any{
		"email": email, "code": code, "password": "password123",
	})
	require.Equal(t, http.StatusOK, rec.Code, string(body))
	tok := tokenFromBody(t, body)

	// Token works against a gated route.
	rec, _ = doJSON(t, s, http.MethodGet, "/api/history", tok, nil)
	assert.Equal(t, http.StatusOK, rec.Code)

	// Password login for the new account.
	rec, body = doJSON(t, s, http.MethodPost, "/api/auth/login/password", "", map[string]any{
		"email": email, "password": "password123",
	})
	require.Equal(t, http.StatusOK, rec.Code, string(body))
	tokenFromBody(t, body)

	rec, _ = doJSON(t, s, http.MethodPost, "/api/auth/login/password", "", map[string]any{
		"email": email, "password": "wrong-password",
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestSignupVerifyRejectsBadCode(t *testing.T) {
	s := newTestServer(t)
	email := "new@example.com"
	s.codes.Issue(email, auth.PurposeSignup)

	rec, _ := doJSON(t, s, http.MethodPost, "/api/auth/signup/verify", "", map[string]any{
		"email": email, "code": "000000", "password": "password123",
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestSignupVerifyRejectsExistingUser(t *testing.T) {
	s := newTestServer(t)
	email := "taken@example.com"
	_, err := s.createUser(email, "password123")
	require.NoError(t, err)

	code := s.codes.Issue(email, auth.PurposeSignup)
	rec, body := doJSON(t, s, http.MethodPost, "/api/auth/signup/verify", "", map[string]any{
		"email": email, "code": code, "password": "password456",
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, string(body), "user exists")
}

func TestSignupVerifyRejectsShortPassword(t *testing.T) {
	s := newTestServer(t)
	email := "new@example.com"
	code := s.codes.Issue(email, auth.PurposeSignup)

	rec, _ := doJSON(t, s, http.MethodPost, "/api/auth/signup/verify", "", map[string]any{
		"email": email, "code": code, "password": "short",
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestLoginWithCode(t *testing.T) {
	s := newTestServer(t)
	email := "player@example.com"
	_, err := s.createUser(email, "password123")
	require.NoError(t, err)

	code := s.codes.Issue(email, auth.PurposeLogin)
	rec, body := doJSON(t, s, http.MethodPost, "/api/auth/login/code", "", map[string]any{
		"email": email, "code": code,
	})
	require.Equal(t, http.StatusOK, rec.Code, string(body))
	tokenFromBody(t, body)

	// Consumed on first use.
	rec, _ = doJSON(t, s, http.MethodPost, "/api/auth/login/code", "", map[string]any{
		"email": email, "code": code,
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestLoginCodeWrongPurpose(t *testing.T) {
	s := newTestServer(t)
	email := "player@example.com"
	_, err := s.createUser(email, "password123")
	require.NoError(t, err)

	code := s.codes.Issue(email, auth.PurposeSignup)
	rec, _ := doJSON(t, s, http.MethodPost, "/api/auth/login/code", "", map[string]any{
		"email": email, "code": code,
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestRequestCodeLoginUnknownUser(t *testing.T) {
	s := newTestServer(t)

	rec, body := doJSON(t, s, http.MethodPost, "/api/auth/request-code", "", map[string]any{
		"email": "nobody@example.com", "purpose": "login",
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, string(body), "no such user")
}

func TestRequestCodeBadPurpose(t *testing.T) {
	s := newTestServer(t)

	rec, _ := doJSON(t, s, http.MethodPost, "/api/auth/request-code", "", map[string]any{
		"email": "a@example.com", "purpose": "reset",
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestOptionalAuthRejectsInvalidToken(t *testing.T) {
	s := newTestServer(t)
	g := rigGame(t, s, "10-S", "9-H", "7-D", "8-C")

	rec, _ := doJSON(t, s, http.MethodPost, "/api/games/start", "garbage-token", map[string]any{
		"id": g.ID, "bet": 100,
	})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestTokenForDeletedUserRejected(t *testing.T) {
	s := newTestServer(t)
	u, err := s.createUser("gone@example.com", "password123")
	require.NoError(t, err)
	tok, err := signJWT(u.ID, u.Email)
	require.NoError(t, err)

	_, err = s.db.Exec(`DELETE FROM users WHERE id=?`, u.ID)
	require.NoError(t, err)

	rec, _ := doJSON(t, s, http.MethodGet, "/api/history", tok, nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}
