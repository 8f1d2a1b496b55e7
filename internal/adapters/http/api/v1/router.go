package v1

import (
	"github.com/labstack/echo/v4"

	"github.com/educonnect-africa/auth-service/internal/adapters/http/api/v1/handlers"
	mw "github.com/educonnect-africa/auth-service/internal/adapters/http/middleware"
	"github.com/educonnect-africa/auth-service/internal/domain"
)

type Router struct {
	auth    *handlers.AuthHandler
	admin   *handlers.AdminHandler
	session *mw.SessionMiddleware
}

func NewRouter(auth *handlers.AuthHandler, admin *handlers.AdminHandler, session *mw.SessionMiddleware) *Router {
	return &Router{auth: auth, admin: admin, session: session}
}

func (r *Router) Register(g *echo.Group) {
	auth := g.Group("/auth")
	auth.POST("/signin-password", r.auth.SignInPassword)
	auth.POST("/signin-provider", r.auth.SignInProvider)
	auth.POST("/register", r.auth.Register)
	auth.POST("/signout", r.auth.SignOut)
	auth.POST("/verify", r.auth.VerifyToken)
	auth.POST("/authorize", r.auth.Authorize)

	protected := auth.Group("", r.session.Require)
	protected.POST("/change-password", r.auth.ChangePassword)
	protected.GET("/me", r.auth.Me)

	admin := g.Group("/admin", r.session.RequireRole(domain.RoleAdmin))
	admin.GET("/users", r.admin.ListUsers)
	admin.POST("/users", r.admin.CreateUser)
}
