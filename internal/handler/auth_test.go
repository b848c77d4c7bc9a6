package handler_test

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/pquerna/otp/totp"
	"golang.org/x/crypto/bcrypt"

	"github.com/orderdesk/admin-api/internal/auth"
	"github.com/orderdesk/admin-api/internal/handler"
	"github.com/orderdesk/admin-api/internal/store"
)

// --- Mock AuthStore ---

type mockAuthStore struct {
	getUserByUsernameFn func(ctx context.Context, username string) (store.User, error)
	getUserByIDFn       func(ctx context.Context, id uuid.UUID) (store.User, error)
}

func (m *mockAuthStore) GetUserByUsername(ctx context.Context, username string) (store.User, error) {
	if m.getUserByUsernameFn != nil {
		return m.getUserByUsernameFn(ctx, username)
	}
	return store.User{}, pgx.ErrNoRows
}

func (m *mockAuthStore) GetUserByID(ctx context.Context, id uuid.UUID) (store.User, error) {
	if m.getUserByIDFn != nil {
		return m.getUserByIDFn(ctx, id)
	}
	return store.User{}, pgx.ErrNoRows
}

// --- Test helpers ---

const authTestSecret = "test-secret-for-auth"

func setupAuthRouter(st *mockAuthStore) *chi.Mux {
	h := handler.NewAuthHandler(st, authTestSecret)
	r := chi.NewRouter()
	r.Route("/api", h.RegisterRoutes)
	return r
}

func doJSONRequest(t *testing.T, router http.Handler, method, path string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	b, err := json.Marshal(body)
	if err != nil {
		t.Fatalf("marshal request: %v", err)
	}
	req := httptest.NewRequest(method, path, bytes.NewReader(b))
	req.Header.Set("Content-Type", "application/json")
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)
	return rr
}

func testUser(t *testing.T, password string) store.User {
	t.Helper()
	hashed, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	if err != nil {
		t.Fatalf("hash password: %v", err)
	}
	return store.User{
		ID:             uuid.New(),
		Username:       "admin",
		FullName:       "Back Office Admin",
		HashedPassword: string(hashed),
		Role:           "ADMIN",
	}
}

// --- Login tests ---

func TestLogin_HappyPath(t *testing.T) {
	user := testUser(t, "correct-horse")
	st := &mockAuthStore{
		getUserByUsernameFn: func(ctx context.Context, username string) (store.User, error) {
			if username != "admin" {
				t.Errorf("username: got %s, want admin", username)
			}
			return user, nil
		},
	}

	router := setupAuthRouter(st)
	rr := doJSONRequest(t, router, "POST", "/api/auth/login", map[string]string{
		"username": "admin", "password": "correct-horse",
	})

	if rr.Code != http.StatusOK {
		t.Fatalf("status: got %d, want 200; body: %s", rr.Code, rr.Body.String())
	}

	resp := decodeResponse(t, rr)
	if resp["accessToken"] == "" || resp["accessToken"] == nil {
		t.Error("missing accessToken")
	}
	if resp["refreshToken"] == "" || resp["refreshToken"] == nil {
		t.Error("missing refreshToken")
	}

	// The access token must validate against the same secret.
	claims, err := auth.ValidateToken(authTestSecret, resp["accessToken"].(string))
	if err != nil {
		t.Fatalf("validate issued token: %v", err)
	}
	if claims.UserID != user.ID {
		t.Errorf("claims user: got %v, want %v", claims.UserID, user.ID)
	}
	if claims.Role != "ADMIN" {
		t.Errorf("claims role: got %s, want ADMIN", claims.Role)
	}

	u := resp["user"].(map[string]interface{})
	if u["username"] != "admin" {
		t.Errorf("user.username: got %v", u["username"])
	}
}

func TestLogin_WrongPassword(t *testing.T) {
	user := testUser(t, "correct-horse")
	st := &mockAuthStore{
		getUserByUsernameFn: func(ctx context.Context, username string) (store.User, error) {
			return user, nil
		},
	}

	router := setupAuthRouter(st)
	rr := doJSONRequest(t, router, "POST", "/api/auth/login", map[string]string{
		"username": "admin", "password": "wrong",
	})

	if rr.Code != http.StatusUnauthorized {
		t.Fatalf("status: got %d, want 401", rr.Code)
	}
}

func TestLogin_UnknownUser(t *testing.T) {
	router := setupAuthRouter(&mockAuthStore{})
	rr := doJSONRequest(t, router, "POST", "/api/auth/login", map[string]string{
		"username": "ghost", "password": "whatever",
	})

	if rr.Code != http.StatusUnauthorized {
		t.Fatalf("status: got %d, want 401", rr.Code)
	}
}

func TestLogin_MissingFields(t *testing.T) {
	router := setupAuthRouter(&mockAuthStore{})
	rr := doJSONRequest(t, router, "POST", "/api/auth/login", map[string]string{
		"username": "admin",
	})

	if rr.Code != http.StatusBadRequest {
		t.Fatalf("status: got %d, want 400", rr.Code)
	}
}

func TestLogin_TwoFactorChallenge(t *testing.T) {
	key, err := totp.Generate(totp.GenerateOpts{Issuer: "orderdesk", AccountName: "admin"})
	if err != nil {
		t.Fatalf("generate totp key: %v", err)
	}

	user := testUser(t, "correct-horse")
	user.TOTPSecret = pgtype.Text{String: key.Secret(), Valid: true}
	st := &mockAuthStore{
		getUserByUsernameFn: func(ctx context.Context, username string) (store.User, error) {
			return user, nil
		},
	}
	router := setupAuthRouter(st)

	// First step: correct password, no code. The handler asks for the code
	// instead of issuing tokens.
	rr := doJSONRequest(t, router, "POST", "/api/auth/login", map[string]string{
		"username": "admin", "password": "correct-horse",
	})
	if rr.Code != http.StatusOK {
		t.Fatalf("status: got %d, want 200; body: %s", rr.Code, rr.Body.String())
	}
	resp := decodeResponse(t, rr)
	if resp["requireTwoFactor"] != true {
		t.Fatalf("expected requireTwoFactor, got %v", resp)
	}
	if _, ok := resp["accessToken"]; ok {
		t.Error("no tokens before the second factor")
	}

	// Second step: wrong code is rejected.
	rr = doJSONRequest(t, router, "POST", "/api/auth/login", map[string]string{
		"username": "admin", "password": "correct-horse", "totpCode": "000000",
	})
	if rr.Code != http.StatusUnauthorized {
		t.Fatalf("wrong code status: got %d, want 401", rr.Code)
	}

	// Second step: valid code completes the login.
	code, err := totp.GenerateCode(key.Secret(), time.Now())
	if err != nil {
		t.Fatalf("generate code: %v", err)
	}
	rr = doJSONRequest(t, router, "POST", "/api/auth/login", map[string]string{
		"username": "admin", "password": "correct-horse", "totpCode": code,
	})
	if rr.Code != http.StatusOK {
		t.Fatalf("valid code status: got %d, want 200; body: %s", rr.Code, rr.Body.String())
	}
	resp = decodeResponse(t, rr)
	if resp["accessToken"] == nil {
		t.Error("missing accessToken after 2FA")
	}
}

// --- Refresh tests ---

func TestRefresh_HappyPath(t *testing.T) {
	user := testUser(t, "irrelevant")
	st := &mockAuthStore{
		getUserByIDFn: func(ctx context.Context, id uuid.UUID) (store.User, error) {
			if id != user.ID {
				t.Errorf("user id: got %v, want %v", id, user.ID)
			}
			return user, nil
		},
	}

	refreshToken, err := auth.GenerateRefreshToken(authTestSecret, user.ID)
	if err != nil {
		t.Fatalf("generate refresh token: %v", err)
	}

	router := setupAuthRouter(st)
	rr := doJSONRequest(t, router, "POST", "/api/auth/refresh", map[string]string{
		"refreshToken": refreshToken,
	})

	if rr.Code != http.StatusOK {
		t.Fatalf("status: got %d, want 200; body: %s", rr.Code, rr.Body.String())
	}
	resp := decodeResponse(t, rr)
	if resp["accessToken"] == nil || resp["refreshToken"] == nil {
		t.Error("missing token pair in refresh response")
	}
}

func TestRefresh_InvalidToken(t *testing.T) {
	router := setupAuthRouter(&mockAuthStore{})
	rr := doJSONRequest(t, router, "POST", "/api/auth/refresh", map[string]string{
		"refreshToken": "not-a-jwt",
	})

	if rr.Code != http.StatusUnauthorized {
		t.Fatalf("status: got %d, want 401", rr.Code)
	}
}

func TestRefresh_WrongSecret(t *testing.T) {
	refreshToken, err := auth.GenerateRefreshToken("a-different-secret", uuid.New())
	if err != nil {
		t.Fatalf("generate refresh token: %v", err)
	}

	router := setupAuthRouter(&mockAuthStore{})
	rr := doJSONRequest(t, router, "POST", "/api/auth/refresh", map[string]string{
		"refreshToken": refreshToken,
	})

	if rr.Code != http.StatusUnauthorized {
		t.Fatalf("status: got %d, want 401", rr.Code)
	}
}

func TestRefresh_DeletedUser(t *testing.T) {
	refreshToken, err := auth.GenerateRefreshToken(authTestSecret, uuid.New())
	if err != nil {
		t.Fatalf("generate refresh token: %v", err)
	}

	router := setupAuthRouter(&mockAuthStore{})
	rr := doJSONRequest(t, router, "POST", "/api/auth/refresh", map[string]string{
		"refreshToken": refreshToken,
	})

	if rr.Code != http.StatusUnauthorized {
		t.Fatalf("status: got %d, want 401", rr.Code)
	}
}
