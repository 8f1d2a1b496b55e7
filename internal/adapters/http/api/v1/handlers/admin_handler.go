package handlers

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	repo "github.com/educonnect-africa/auth-service/internal/adapters/postgres"
	"github.com/educonnect-africa/auth-service/internal/domain"
	"github.com/educonnect-africa/auth-service/internal/usecase"
	res "github.com/educonnect-africa/auth-service/pkg/http"
)

type AdminHandler struct {
	service usecase.Service
}

func NewAdminHandler(s usecase.Service) *AdminHandler { return &AdminHandler{service: s} }

type adminCreateUserRequest struct {
	Email       string `json:"email"`
	FirstName   string `json:"first_name"`
	LastName    string `json:"last_name"`
	Role        string `json:"role"`
	Nationality string `json:"nationality"`
	Verified    bool   `json:"verified"`
}

func (h *AdminHandler) ListUsers(c echo.Context) error {
	page, _ := strconv.Atoi(c.QueryParam("page"))
	limit, _ := strconv.Atoi(c.QueryParam("limit"))
	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = 20
	}
	filter := repo.UserFilter{
		Role:   domain.Role(c.QueryParam("role")),
		Search: c.QueryParam("search"),
		Page:   page,
		Limit:  limit,
	}
	users, total, err := h.service.ListUsers(c.Request().Context(), requestIDFromCtx(c), filter)
	if err != nil {
		return respondError(c, err)
	}
	return res.JSON(c, http.StatusOK, map[string]interface{}{
		"users":      users,
		"pagination": res.NewPagination(page, limit, total),
	})
}

func (h *AdminHandler) CreateUser(c echo.Context) error {
	req := new(adminCreateUserRequest)
	if err := c.Bind(req); err != nil {
		return res.ErrorJSON(c, http.StatusBadRequest, "bad_request", "invalid payload", requestIDFromCtx(c), nil)
	}
	user, tempPassword, err := h.service.AdminCreateUser(c.Request().Context(), requestIDFromCtx(c), usecase.AdminCreateUserInput{
		Email:       req.Email,
		FirstName:   req.FirstName,
		LastName:    req.LastName,
		Role:        domain.Role(req.Role),
		Nationality: req.Nationality,
		Verified:    req.Verified,
	})
	if err != nil {
		return respondError(c, err)
	}
	body := map[string]interface{}{"user": user}
	if tempPassword != "" {
		// Shown exactly once; only the hash is persisted.
		body["temp_password"] = tempPassword
	}
	return res.JSON(c, http.StatusCreated, body)
}
