package handlers

import (
	"errors"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/educonnect-africa/auth-service/config"
	mw "github.com/educonnect-africa/auth-service/internal/adapters/http/middleware"
	"github.com/educonnect-africa/auth-service/internal/domain"
	"github.com/educonnect-africa/auth-service/internal/provider"
	"github.com/educonnect-africa/auth-service/internal/tokenverify"
	"github.com/educonnect-africa/auth-service/internal/usecase"
	res "github.com/educonnect-africa/auth-service/pkg/http"
)

type AuthHandler struct {
	cfg      *config.Config
	service  usecase.Service
	provider provider.CredentialsProvider
}

func NewAuthHandler(cfg *config.Config, s usecase.Service, p provider.CredentialsProvider) *AuthHandler {
	return &AuthHandler{cfg: cfg, service: s, provider: p}
}

type signinRequest struct {
	Email      string `json:"email"`
	Password   string `json:"password"`
	RememberMe bool   `json:"remember_me"`
}

type signinProviderRequest struct {
	Provider          string                 `json:"provider"`
	ProviderAccountID string                 `json:"provider_account_id"`
	Email             string                 `json:"email"`
	FirstName         string                 `json:"first_name"`
	LastName          string                 `json:"last_name"`
	Image             string                 `json:"image"`
	Profile           map[string]interface{} `json:"profile"`
}

type registerRequest struct {
	Email       string `json:"email"`
	Password    string `json:"password"`
	FirstName   string `json:"first_name"`
	LastName    string `json:"last_name"`
	Nationality string `json:"nationality"`
	Role        string `json:"role"`
}

type changePasswordRequest struct {
	CurrentPassword string `json:"current_password"`
	NewPassword     string `json:"new_password"`
}

type verifyTokenRequest struct {
	Token string `json:"token"`
}

func (h *AuthHandler) SignInPassword(c echo.Context) error {
	req := new(signinRequest)
	if err := c.Bind(req); err != nil {
		return res.ErrorJSON(c, http.StatusBadRequest, "bad_request", "invalid payload", requestIDFromCtx(c), nil)
	}
	user, tok, err := h.service.SignInWithPassword(c.Request().Context(), requestIDFromCtx(c), req.Email, req.Password, req.RememberMe)
	if err != nil {
		return respondError(c, err)
	}
	ttl := h.cfg.SessionTTL
	if req.RememberMe {
		ttl = h.cfg.LongSessionTTL
	}
	h.setSessionCookie(c, tok, ttl)
	return res.JSON(c, http.StatusOK, map[string]interface{}{
		"user":                    user,
		"require_password_change": user.RequirePasswordChange,
	})
}

// SignInProvider accepts an identity already verified by an OAuth provider
// and exchanges it for a local session. The trust boundary is the API
// gateway: this route is only reachable from the session frontend.
func (h *AuthHandler) SignInProvider(c echo.Context) error {
	req := new(signinProviderRequest)
	if err := c.Bind(req); err != nil {
		return res.ErrorJSON(c, http.StatusBadRequest, "bad_request", "invalid payload", requestIDFromCtx(c), nil)
	}
	user, tok, err := h.service.SignInWithProvider(c.Request().Context(), requestIDFromCtx(c), usecase.ExternalSignInInput{
		Provider:          req.Provider,
		ProviderAccountID: req.ProviderAccountID,
		Email:             req.Email,
		FirstName:         req.FirstName,
		LastName:          req.LastName,
		Image:             req.Image,
		RawProfile:        req.Profile,
	})
	if err != nil {
		return respondError(c, err)
	}
	h.setSessionCookie(c, tok, h.cfg.SessionTTL)
	return res.JSON(c, http.StatusOK, map[string]interface{}{"user": user})
}

func (h *AuthHandler) Register(c echo.Context) error {
	req := new(registerRequest)
	if err := c.Bind(req); err != nil {
		return res.ErrorJSON(c, http.StatusBadRequest, "bad_request", "invalid payload", requestIDFromCtx(c), nil)
	}
	user, err := h.service.Register(c.Request().Context(), requestIDFromCtx(c), usecase.RegisterInput{
		Email:       req.Email,
		Password:    req.Password,
		FirstName:   req.FirstName,
		LastName:    req.LastName,
		Nationality: req.Nationality,
		Role:        domain.Role(req.Role),
	})
	if err != nil {
		return respondError(c, err)
	}
	return res.JSON(c, http.StatusCreated, user)
}

func (h *AuthHandler) ChangePassword(c echo.Context) error {
	user := mw.UserFromCtx(c)
	req := new(changePasswordRequest)
	if err := c.Bind(req); err != nil {
		return res.ErrorJSON(c, http.StatusBadRequest, "bad_request", "invalid payload", requestIDFromCtx(c), nil)
	}
	updated, err := h.service.ChangePassword(c.Request().Context(), requestIDFromCtx(c), user.ID, req.CurrentPassword, req.NewPassword)
	if err != nil {
		return respondError(c, err)
	}
	return res.JSON(c, http.StatusOK, updated)
}

func (h *AuthHandler) SignOut(c echo.Context) error {
	h.clearSessionCookie(c)
	return res.JSON(c, http.StatusOK, map[string]string{"status": "signed_out"})
}

func (h *AuthHandler) Me(c echo.Context) error {
	return res.JSON(c, http.StatusOK, mw.UserFromCtx(c))
}

func (h *AuthHandler) VerifyToken(c echo.Context) error {
	req := new(verifyTokenRequest)
	if err := c.Bind(req); err != nil {
		return res.ErrorJSON(c, http.StatusBadRequest, "bad_request", "invalid payload", requestIDFromCtx(c), nil)
	}
	result, err := h.service.VerifyToken(c.Request().Context(), requestIDFromCtx(c), req.Token)
	if err != nil {
		return respondError(c, err)
	}
	return res.JSON(c, http.StatusOK, map[string]string{
		"user_id": result.UserID,
		"email":   result.Email,
		"role":    result.Role,
	})
}

// Authorize is the framework-facing credentials callback. Any
// authentication failure collapses to a bare 401 the session layer maps to
// its generic sign-in error.
func (h *AuthHandler) Authorize(c echo.Context) error {
	req := new(signinRequest)
	if err := c.Bind(req); err != nil {
		return res.ErrorJSON(c, http.StatusBadRequest, "bad_request", "invalid payload", requestIDFromCtx(c), nil)
	}
	identity, err := h.provider.Authorize(c.Request().Context(), requestIDFromCtx(c), req.Email, req.Password)
	if err != nil {
		return res.ErrorJSON(c, http.StatusInternalServerError, "internal_error", "authorization failed", requestIDFromCtx(c), nil)
	}
	if identity == nil {
		return res.ErrorJSON(c, http.StatusUnauthorized, "invalid_credentials", domain.ErrInvalidCredentials.Error(), requestIDFromCtx(c), nil)
	}
	return res.JSON(c, http.StatusOK, identity)
}

func (h *AuthHandler) setSessionCookie(c echo.Context, token string, ttl time.Duration) {
	c.SetCookie(&http.Cookie{
		Name:     mw.SessionCookieName,
		Value:    token,
		Path:     "/",
		MaxAge:   int(ttl.Seconds()),
		HttpOnly: true,
		Secure:   h.cfg.SecureCookies(),
		SameSite: http.SameSiteLaxMode,
	})
}

func (h *AuthHandler) clearSessionCookie(c echo.Context) {
	c.SetCookie(&http.Cookie{
		Name:     mw.SessionCookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   h.cfg.SecureCookies(),
		SameSite: http.SameSiteLaxMode,
	})
}

// respondError maps service errors onto the wire envelope. Anything
// unrecognized is a 500 with a generic message; detail stays in the server
// log.
func respondError(c echo.Context, err error) error {
	traceID := requestIDFromCtx(c)
	if ve, ok := domain.AsValidation(err); ok {
		return res.ErrorJSON(c, http.StatusBadRequest, "validation_failed", ve.Message, traceID, ve.Details)
	}
	switch {
	case errors.Is(err, domain.ErrInvalidCredentials):
		return res.ErrorJSON(c, http.StatusUnauthorized, "invalid_credentials", domain.ErrInvalidCredentials.Error(), traceID, nil)
	case errors.Is(err, domain.ErrUnauthenticated):
		return res.ErrorJSON(c, http.StatusUnauthorized, "unauthorized", "authentication required", traceID, nil)
	case errors.Is(err, domain.ErrForbidden):
		return res.ErrorJSON(c, http.StatusForbidden, "forbidden", "admin access required", traceID, nil)
	case errors.Is(err, domain.ErrEmailTaken):
		return res.ErrorJSON(c, http.StatusConflict, "email_taken", domain.ErrEmailTaken.Error(), traceID, nil)
	case errors.Is(err, tokenverify.ErrTokenExpired):
		return res.ErrorJSON(c, http.StatusUnauthorized, "token_expired", "token expired", traceID, nil)
	case errors.Is(err, tokenverify.ErrInvalidToken), errors.Is(err, tokenverify.ErrSubjectMissing):
		return res.ErrorJSON(c, http.StatusUnauthorized, "invalid_token", "invalid token", traceID, nil)
	}
	return res.ErrorJSON(c, http.StatusInternalServerError, "internal_error", "internal error", traceID, nil)
}

func requestIDFromCtx(c echo.Context) string {
	if reqID := c.Response().Header().Get(echo.HeaderXRequestID); reqID != "" {
		return reqID
	}
	return c.Request().Header.Get(echo.HeaderXRequestID)
}
