package middleware

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"

	"github.com/educonnect-africa/auth-service/internal/domain"
	"github.com/educonnect-africa/auth-service/internal/usecase"
	res "github.com/educonnect-africa/auth-service/pkg/http"
)

type stubResolver struct {
	usecase.Service
	users map[string]*domain.User
}

func (s *stubResolver) CurrentUser(_ context.Context, _ string, tok string) (*domain.User, error) {
	if user, ok := s.users[tok]; ok {
		return user, nil
	}
	return nil, domain.ErrUnauthenticated
}

func newTestContext(method string) (echo.Context, *httptest.ResponseRecorder, *http.Request) {
	e := echo.New()
	req := httptest.NewRequest(method, "/", nil)
	rec := httptest.NewRecorder()
	return e.NewContext(req, rec), rec, req
}

func okHandler(c echo.Context) error { return c.String(http.StatusOK, "ok") }

func TestRequireMissingToken(t *testing.T) {
	c, rec, _ := newTestContext(http.MethodGet)
	mw := NewSessionMiddleware(&stubResolver{})

	_ = mw.Require(okHandler)(c)

	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rec.Code)
	}
	var errResp res.ErrorResponse
	_ = json.Unmarshal(rec.Body.Bytes(), &errResp)
	if errResp.Error.Code != "unauthorized" {
		t.Fatalf("unexpected error code: %s", errResp.Error.Code)
	}
}

func TestRequireBearerToken(t *testing.T) {
	user := &domain.User{ID: "user-1", Role: domain.RoleStudent}
	c, rec, req := newTestContext(http.MethodGet)
	req.Header.Set(echo.HeaderAuthorization, "Bearer good-token")
	mw := NewSessionMiddleware(&stubResolver{users: map[string]*domain.User{"good-token": user}})

	_ = mw.Require(func(c echo.Context) error {
		if UserFromCtx(c).ID != "user-1" {
			t.Fatalf("user not set in context")
		}
		return c.String(http.StatusOK, "ok")
	})(c)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
}

func TestRequireSessionCookie(t *testing.T) {
	user := &domain.User{ID: "user-2", Role: domain.RoleCounselor}
	c, rec, req := newTestContext(http.MethodGet)
	req.AddCookie(&http.Cookie{Name: SessionCookieName, Value: "cookie-token"})
	mw := NewSessionMiddleware(&stubResolver{users: map[string]*domain.User{"cookie-token": user}})

	_ = mw.Require(okHandler)(c)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
}

func TestRequireBearerTakesPrecedenceOverCookie(t *testing.T) {
	bearerUser := &domain.User{ID: "bearer-user"}
	c, rec, req := newTestContext(http.MethodGet)
	req.Header.Set(echo.HeaderAuthorization, "Bearer bearer-token")
	req.AddCookie(&http.Cookie{Name: SessionCookieName, Value: "cookie-token"})
	mw := NewSessionMiddleware(&stubResolver{users: map[string]*domain.User{"bearer-token": bearerUser}})

	_ = mw.Require(func(c echo.Context) error {
		if UserFromCtx(c).ID != "bearer-user" {
			t.Fatalf("expected bearer token to win, got %s", UserFromCtx(c).ID)
		}
		return c.String(http.StatusOK, "ok")
	})(c)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
}

func TestRequireRejectsUnknownToken(t *testing.T) {
	c, rec, req := newTestContext(http.MethodGet)
	req.Header.Set(echo.HeaderAuthorization, "Bearer forged")
	mw := NewSessionMiddleware(&stubResolver{})

	_ = mw.Require(okHandler)(c)

	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rec.Code)
	}
}

func TestRequireRole(t *testing.T) {
	admin := &domain.User{ID: "admin-1", Role: domain.RoleAdmin}
	student := &domain.User{ID: "student-1", Role: domain.RoleStudent}
	mw := NewSessionMiddleware(&stubResolver{users: map[string]*domain.User{
		"admin-token":   admin,
		"student-token": student,
	}})

	c, rec, req := newTestContext(http.MethodGet)
	req.Header.Set(echo.HeaderAuthorization, "Bearer admin-token")
	_ = mw.RequireRole(domain.RoleAdmin)(okHandler)(c)
	if rec.Code != http.StatusOK {
		t.Fatalf("admin should pass, got %d", rec.Code)
	}

	c, rec, req = newTestContext(http.MethodGet)
	req.Header.Set(echo.HeaderAuthorization, "Bearer student-token")
	_ = mw.RequireRole(domain.RoleAdmin)(okHandler)(c)
	if rec.Code != http.StatusForbidden {
		t.Fatalf("student should be forbidden, got %d", rec.Code)
	}

	c, rec, _ = newTestContext(http.MethodGet)
	_ = mw.RequireRole(domain.RoleAdmin)(okHandler)(c)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("anonymous should be 401, got %d", rec.Code)
	}
}
