package provider

import (
	"context"
	"errors"

	"github.com/educonnect-africa/auth-service/internal/adapters/audit"
	"github.com/educonnect-africa/auth-service/internal/domain"
	"github.com/educonnect-africa/auth-service/internal/usecase"
	pkglog "github.com/educonnect-africa/auth-service/pkg/log"
)

// Identity is the resolved identity handed back to a framework-managed
// session layer. It never carries the password hash.
type Identity struct {
	ID                    string `json:"id"`
	Email                 string `json:"email"`
	Name                  string `json:"name"`
	Role                  string `json:"role"`
	RequirePasswordChange bool   `json:"require_password_change"`
	Image                 string `json:"image,omitempty"`
}

// CredentialsProvider is the explicit replacement for callback-hook style
// provider configuration: one interface, one concrete implementation.
// Authorize returns (nil, nil) on any authentication failure so the caller
// maps every failure to the same generic sign-in error.
type CredentialsProvider interface {
	Authorize(ctx context.Context, traceID, email, password string) (*Identity, error)
	OnTokenIssued(ctx context.Context, user *domain.User, token string)
	OnSessionResolved(ctx context.Context, user *domain.User)
}

type credentialsProvider struct {
	svc    usecase.Service
	audit  audit.Client
	logger pkglog.Logger
}

func NewCredentialsProvider(svc usecase.Service, auditClient audit.Client, logger pkglog.Logger) CredentialsProvider {
	return &credentialsProvider{svc: svc, audit: auditClient, logger: logger}
}

func (p *credentialsProvider) Authorize(ctx context.Context, traceID, email, password string) (*Identity, error) {
	user, err := p.svc.Authenticate(ctx, traceID, email, password)
	if err != nil {
		if errors.Is(err, domain.ErrInvalidCredentials) {
			return nil, nil
		}
		if _, ok := domain.AsValidation(err); ok {
			return nil, nil
		}
		return nil, err
	}
	return identityOf(user), nil
}

func (p *credentialsProvider) OnTokenIssued(ctx context.Context, user *domain.User, token string) {
	p.audit.Record(ctx, "SESSION_CREATED", map[string]interface{}{"user_id": user.ID})
	p.logger.Debug().Str("user_id", user.ID).Str("role", string(user.Role)).Msg("session token issued")
}

func (p *credentialsProvider) OnSessionResolved(ctx context.Context, user *domain.User) {
	p.logger.Debug().Str("user_id", user.ID).Msg("session resolved")
}

func identityOf(user *domain.User) *Identity {
	return &Identity{
		ID:                    user.ID,
		Email:                 user.Email,
		Name:                  user.Name,
		Role:                  string(user.Role),
		RequirePasswordChange: user.RequirePasswordChange,
		Image:                 user.Image,
	}
}
