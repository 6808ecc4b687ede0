package api

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

// ─── Login Tests ───────────────────────────────────────────────────

func TestLogin(t *testing.T) {
	srv := testServer(t)
	router := srv.buildRouter()

	w := doJSON(t, router, http.MethodPost, "/api/auth/login",
		`{"email":"alice@example.com","password":"password123"}`, "")

	if w.Code != http.StatusOK {
		t.Fatalf("login status = %d, body = %s", w.Code, w.Body.String())
	}

	var resp loginResponse
	decodeBody(t, w, &resp)

	if resp.User.Email != "alice@example.com" {
		t.Errorf("user.email = %q, want alice@example.com", resp.User.Email)
	}
	if resp.User.Role != "user" {
		t.Errorf("user.role = %q, want user", resp.User.Role)
	}
	if resp.Tokens.AccessToken == "" {
		t.Error("accessToken is empty")
	}
	if resp.Tokens.RefreshToken == "" {
		t.Error("refreshToken is empty")
	}
	if resp.Tokens.ExpiresIn != "15m" {
		t.Errorf("expiresIn = %q, want 15m", resp.Tokens.ExpiresIn)
	}
}

func TestLogin_WrongPassword(t *testing.T) {
	srv := testServer(t)
	router := srv.buildRouter()

	w := doJSON(t, router, http.MethodPost, "/api/auth/login",
		`{"email":"alice@example.com","password":"wrong"}`, "")

	if w.Code != http.StatusUnauthorized {
		t.Errorf("status = %d, want %d", w.Code, http.StatusUnauthorized)
	}

	var resp ErrorResponse
	decodeBody(t, w, &resp)
	if resp.Error != "Invalid credentials" {
		t.Errorf("error = %q, want Invalid credentials", resp.Error)
	}
}

func TestLogin_UnknownEmail(t *testing.T) {
	srv := testServer(t)
	router := srv.buildRouter()

	w := doJSON(t, router, http.MethodPost, "/api/auth/login",
		`{"email":"nobody@example.com","password":"password123"}`, "")

	// Same response as a wrong password so attackers can't enumerate accounts
	if w.Code != http.StatusUnauthorized {
		t.Errorf("status = %d, want %d", w.Code, http.StatusUnauthorized)
	}

	var resp ErrorResponse
	decodeBody(t, w, &resp)
	if resp.Error != "Invalid credentials" {
		t.Errorf("error = %q, want Invalid credentials", resp.Error)
	}
}

func TestLogin_MissingFields(t *testing.T) {
	srv := testServer(t)
	router := srv.buildRouter()

	tests := []struct {
		name string
		body string
	}{
		{"no email", `{"password":"password123"}`},
		{"no password", `{"email":"alice@example.com"}`},
		{"empty body", `{}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := doJSON(t, router, http.MethodPost, "/api/auth/login", tt.body, "")

			if w.Code != http.StatusBadRequest {
				t.Errorf("status = %d, want %d", w.Code, http.StatusBadRequest)
			}

			var resp ErrorResponse
			decodeBody(t, w, &resp)
			if resp.Error != "Email and password are required" {
				t.Errorf("error = %q", resp.Error)
			}
		})
	}
}

func TestLogin_InvalidJSON(t *testing.T) {
	srv := testServer(t)
	router := srv.buildRouter()

	w := doJSON(t, router, http.MethodPost, "/api/auth/login", "not json", "")

	if w.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want %d", w.Code, http.StatusBadRequest)
	}
}

// ─── Refresh Tests ─────────────────────────────────────────────────

func TestRefresh(t *testing.T) {
	srv := testServer(t)
	router := srv.buildRouter()

	_, refreshToken := loginAs(t, router, "alice@example.com")

	w := doJSON(t, router, http.MethodPost, "/api/auth/refresh",
		`{"refreshToken":"`+refreshToken+`"}`, "")

	if w.Code != http.StatusOK {
		t.Fatalf("refresh status = %d, body = %s", w.Code, w.Body.String())
	}

	var resp refreshResponse
	decodeBody(t, w, &resp)

	if resp.AccessToken == "" {
		t.Error("accessToken is empty")
	}
	if resp.ExpiresIn != "15m" {
		t.Errorf("expiresIn = %q, want 15m", resp.ExpiresIn)
	}
}

func TestRefresh_AccessTokenUsable(t *testing.T) {
	srv := testServer(t)
	router := srv.buildRouter()

	_, refreshToken := loginAs(t, router, "alice@example.com")

	w := doJSON(t, router, http.MethodPost, "/api/auth/refresh",
		`{"refreshToken":"`+refreshToken+`"}`, "")
	var resp refreshResponse
	decodeBody(t, w, &resp)

	// The refreshed access token must pass the auth middleware
	w = doJSON(t, router, http.MethodPost, "/api/posts",
		`{"title":"Hello","content":"World"}`, resp.AccessToken)
	if w.Code != http.StatusCreated {
		t.Errorf("create post with refreshed token: status = %d, body = %s", w.Code, w.Body.String())
	}
}

func TestRefresh_InvalidToken(t *testing.T) {
	srv := testServer(t)
	router := srv.buildRouter()

	w := doJSON(t, router, http.MethodPost, "/api/auth/refresh",
		`{"refreshToken":"never-issued"}`, "")

	if w.Code != http.StatusUnauthorized {
		t.Errorf("status = %d, want %d", w.Code, http.StatusUnauthorized)
	}

	var resp ErrorResponse
	decodeBody(t, w, &resp)
	if resp.Error != "Invalid or expired refresh token" {
		t.Errorf("error = %q", resp.Error)
	}
}

func TestRefresh_MissingToken(t *testing.T) {
	srv := testServer(t)
	router := srv.buildRouter()

	w := doJSON(t, router, http.MethodPost, "/api/auth/refresh", `{}`, "")

	if w.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want %d", w.Code, http.StatusBadRequest)
	}

	var resp ErrorResponse
	decodeBody(t, w, &resp)
	if resp.Error != "Refresh token is required" {
		t.Errorf("error = %q", resp.Error)
	}
}

// ─── Logout Tests ──────────────────────────────────────────────────

func TestLogout_InvalidatesRefreshToken(t *testing.T) {
	srv := testServer(t)
	router := srv.buildRouter()

	_, refreshToken := loginAs(t, router, "alice@example.com")

	w := doJSON(t, router, http.MethodPost, "/api/auth/logout",
		`{"refreshToken":"`+refreshToken+`"}`, "")
	if w.Code != http.StatusOK {
		t.Fatalf("logout status = %d", w.Code)
	}

	var resp map[string]string
	decodeBody(t, w, &resp)
	if resp["message"] != "Logged out successfully" {
		t.Errorf("message = %q", resp["message"])
	}

	// The refresh token must no longer work
	w = doJSON(t, router, http.MethodPost, "/api/auth/refresh",
		`{"refreshToken":"`+refreshToken+`"}`, "")
	if w.Code != http.StatusUnauthorized {
		t.Errorf("refresh after logout: status = %d, want %d", w.Code, http.StatusUnauthorized)
	}
}

func TestLogout_Idempotent(t *testing.T) {
	srv := testServer(t)
	router := srv.buildRouter()

	_, refreshToken := loginAs(t, router, "alice@example.com")

	// Logging out twice, with an unknown token, and with no body at all
	// are all fine
	bodies := []string{
		`{"refreshToken":"` + refreshToken + `"}`,
		`{"refreshToken":"` + refreshToken + `"}`,
		`{"refreshToken":"never-issued"}`,
		``,
	}
	for i, body := range bodies {
		w := doJSON(t, router, http.MethodPost, "/api/auth/logout", body, "")
		if w.Code != http.StatusOK {
			t.Errorf("logout #%d: status = %d, want %d", i, w.Code, http.StatusOK)
		}
	}
}

// ─── Auth Middleware Tests ─────────────────────────────────────────

func TestAuthMiddleware_MissingHeader(t *testing.T) {
	srv := testServer(t)
	router := srv.buildRouter()

	w := doJSON(t, router, http.MethodPost, "/api/posts",
		`{"title":"Hello","content":"World"}`, "")

	if w.Code != http.StatusUnauthorized {
		t.Errorf("status = %d, want %d", w.Code, http.StatusUnauthorized)
	}

	var resp ErrorResponse
	decodeBody(t, w, &resp)
	if resp.Error != "Missing or invalid authorization header" {
		t.Errorf("error = %q", resp.Error)
	}
}

func TestAuthMiddleware_MalformedHeader(t *testing.T) {
	srv := testServer(t)
	router := srv.buildRouter()

	// A non-Bearer scheme is rejected before token parsing
	req := httptest.NewRequest(http.MethodPost, "/api/posts", strings.NewReader(`{}`))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Basic dXNlcjpwYXNz")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if w.Code != http.StatusUnauthorized {
		t.Errorf("status = %d, want %d", w.Code, http.StatusUnauthorized)
	}

	var resp ErrorResponse
	decodeBody(t, w, &resp)
	if resp.Error != "Missing or invalid authorization header" {
		t.Errorf("error = %q", resp.Error)
	}
}

func TestAuthMiddleware_InvalidToken(t *testing.T) {
	srv := testServer(t)
	router := srv.buildRouter()

	w := doJSON(t, router, http.MethodPost, "/api/posts",
		`{"title":"Hello","content":"World"}`, "garbage.token.here")

	if w.Code != http.StatusUnauthorized {
		t.Errorf("status = %d, want %d", w.Code, http.StatusUnauthorized)
	}

	var resp ErrorResponse
	decodeBody(t, w, &resp)
	if resp.Error != "Invalid or expired token" {
		t.Errorf("error = %q", resp.Error)
	}
}

func TestAuthMiddleware_DeletedUser(t *testing.T) {
	srv := testServer(t)
	router := srv.buildRouter()

	accessToken, _ := loginAs(t, router, "alice@example.com")

	// Delete alice out from under her live token
	w := doJSON(t, router, http.MethodDelete, "/api/users/1", "", "")
	if w.Code != http.StatusOK {
		t.Fatalf("delete user status = %d", w.Code)
	}

	w = doJSON(t, router, http.MethodPost, "/api/posts",
		`{"title":"Hello","content":"World"}`, accessToken)
	if w.Code != http.StatusUnauthorized {
		t.Errorf("status = %d, want %d", w.Code, http.StatusUnauthorized)
	}

	var resp ErrorResponse
	decodeBody(t, w, &resp)
	if resp.Error != "User not found" {
		t.Errorf("error = %q", resp.Error)
	}
}
