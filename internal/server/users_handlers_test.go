package server

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestRegisterCreatesAccount(t *testing.T) {
	env := newTestEnv(t)

	recorder := env.do(t, jsonRequest(http.MethodPost, "/users/register", `{"userName":"writer1","password":"longenough"}`))
	if recorder.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", recorder.Code, recorder.Body.String())
	}

	recorder = env.do(t, jsonRequest(http.MethodPost, "/users/register", `{"userName":"writer1","password":"longenough"}`))
	if recorder.Code != http.StatusConflict {
		t.Fatalf("expected 409 for duplicate user, got %d", recorder.Code)
	}
}

func TestRegisterRejectsMalformedPayload(t *testing.T) {
	env := newTestEnv(t)

	cases := []string{
		`{"userName":"ab","password":"longenough"}`,
		`{"userName":"writer1"}`,
		`{"userName":"no spaces","password":"longenough"}`,
		`not-json`,
	}
	for _, body := range cases {
		recorder := env.do(t, jsonRequest(http.MethodPost, "/users/register", body))
		if recorder.Code != http.StatusBadRequest {
			t.Fatalf("payload %s returned %d, want 400", body, recorder.Code)
		}
	}
}

func TestLoginIssuesSessionCookie(t *testing.T) {
	env := newTestEnv(t)

	if err := env.users.Register(context.Background(), "writer1", "longenough"); err != nil {
		t.Fatalf("failed to register: %v", err)
	}

	cookie := env.login(t, "writer1", "longenough")
	if !cookie.HttpOnly {
		t.Fatalf("session cookie must be http-only")
	}
	if cookie.MaxAge <= 0 {
		t.Fatalf("session cookie must carry a positive max age, got %d", cookie.MaxAge)
	}
}

func TestLoginRejectsBadCredentials(t *testing.T) {
	env := newTestEnv(t)

	if err := env.users.Register(context.Background(), "writer1", "longenough"); err != nil {
		t.Fatalf("failed to register: %v", err)
	}

	recorder := env.do(t, jsonRequest(http.MethodPost, "/users/login", `{"userName":"writer1","password":"wrongpass"}`))
	if recorder.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 for wrong password, got %d", recorder.Code)
	}

	recorder = env.do(t, jsonRequest(http.MethodPost, "/users/login", `{"userName":"nobody1","password":"wrongpass"}`))
	if recorder.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 for unknown user, got %d", recorder.Code)
	}
}

func TestCheckReportsSessionIdentity(t *testing.T) {
	env := newTestEnv(t)
	env.registerAdmin(t, "rootadmin", "longenough")
	cookie := env.login(t, "rootadmin", "longenough")

	request := httptest.NewRequest(http.MethodGet, "/users/check", nil)
	request.AddCookie(cookie)
	recorder := env.do(t, request)
	if recorder.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", recorder.Code)
	}

	var payload struct {
		UserName string `json:"userName"`
		Auth     int    `json:"auth"`
	}
	if err := json.Unmarshal(recorder.Body.Bytes(), &payload); err != nil {
		t.Fatalf("failed to decode check payload: %v", err)
	}
	if payload.UserName != "rootadmin" || payload.Auth != 1 {
		t.Fatalf("unexpected identity %+v", payload)
	}
}

func TestCheckWithoutSessionReturnsUnauthorized(t *testing.T) {
	env := newTestEnv(t)

	recorder := env.do(t, httptest.NewRequest(http.MethodGet, "/users/check", nil))
	if recorder.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 without session, got %d", recorder.Code)
	}
}

func TestLogoutClearsSessionCookie(t *testing.T) {
	env := newTestEnv(t)
	env.registerAdmin(t, "rootadmin", "longenough")
	cookie := env.login(t, "rootadmin", "longenough")

	request := httptest.NewRequest(http.MethodPost, "/users/logout", nil)
	request.AddCookie(cookie)
	recorder := env.do(t, request)
	if recorder.Code != http.StatusNoContent {
		t.Fatalf("expected 204, got %d", recorder.Code)
	}

	cleared := false
	for _, responseCookie := range recorder.Result().Cookies() {
		if responseCookie.Name == testCookieName && responseCookie.Value == "" && responseCookie.MaxAge < 0 {
			cleared = true
		}
	}
	if !cleared {
		t.Fatalf("logout must clear the session cookie")
	}
}
