package middleware

import (
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/educonnect-africa/auth-service/internal/domain"
	"github.com/educonnect-africa/auth-service/internal/usecase"
	res "github.com/educonnect-africa/auth-service/pkg/http"
)

// SessionCookieName is the cookie carrying the session token.
const SessionCookieName = "session"

// ContextUserKey is where the resolved user lives in the echo context.
const ContextUserKey = "user"

type SessionMiddleware struct {
	svc usecase.Service
}

func NewSessionMiddleware(svc usecase.Service) *SessionMiddleware {
	return &SessionMiddleware{svc: svc}
}

// TokenFromRequest locates the session token: bearer header first, then
// the session cookie.
func TokenFromRequest(c echo.Context) string {
	authz := c.Request().Header.Get(echo.HeaderAuthorization)
	parts := strings.SplitN(authz, " ", 2)
	if len(parts) == 2 && strings.EqualFold(parts[0], "bearer") && parts[1] != "" {
		return parts[1]
	}
	if cookie, err := c.Request().Cookie(SessionCookieName); err == nil {
		return cookie.Value
	}
	return ""
}

// Require rejects unauthenticated requests. Whatever the failure reason
// (missing, expired, forged token, deleted user) the response is the same
// 401.
func (m *SessionMiddleware) Require(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		tok := TokenFromRequest(c)
		if tok == "" {
			return res.ErrorJSON(c, http.StatusUnauthorized, "unauthorized", "authentication required", requestIDFromCtx(c), nil)
		}
		user, err := m.svc.CurrentUser(c.Request().Context(), requestIDFromCtx(c), tok)
		if err != nil || user == nil {
			return res.ErrorJSON(c, http.StatusUnauthorized, "unauthorized", "authentication required", requestIDFromCtx(c), nil)
		}
		c.Set(ContextUserKey, user)
		return next(c)
	}
}

// RequireRole layers a role check on top of Require.
func (m *SessionMiddleware) RequireRole(roles ...domain.Role) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return m.Require(func(c echo.Context) error {
			user := UserFromCtx(c)
			for _, role := range roles {
				if user.Role == role {
					return next(c)
				}
			}
			return res.ErrorJSON(c, http.StatusForbidden, "forbidden", "admin access required", requestIDFromCtx(c), nil)
		})
	}
}

// UserFromCtx returns the user set by Require. Only valid behind it.
func UserFromCtx(c echo.Context) *domain.User {
	user, _ := c.Get(ContextUserKey).(*domain.User)
	return user
}

func requestIDFromCtx(c echo.Context) string {
	if reqID := c.Response().Header().Get(echo.HeaderXRequestID); reqID != "" {
		return reqID
	}
	return c.Request().Header.Get(echo.HeaderXRequestID)
}
