package usecase

import (
	"context"
	"errors"
	"strings"
	"time"

	"gorm.io/gorm"

	"github.com/educonnect-africa/auth-service/config"
	"github.com/educonnect-africa/auth-service/internal/adapters/audit"
	repo "github.com/educonnect-africa/auth-service/internal/adapters/postgres"
	"github.com/educonnect-africa/auth-service/internal/domain"
	"github.com/educonnect-africa/auth-service/internal/password"
	"github.com/educonnect-africa/auth-service/internal/token"
	"github.com/educonnect-africa/auth-service/internal/tokenverify"
	pkglog "github.com/educonnect-africa/auth-service/pkg/log"
)

type RegisterInput struct {
	Email       string
	Password    string
	FirstName   string
	LastName    string
	Nationality string
	Role        domain.Role
}

// ExternalSignInInput carries a verified identity asserted by an OAuth
// provider. ProviderAccountID is the provider's stable subject, not ours.
type ExternalSignInInput struct {
	Provider          string
	ProviderAccountID string
	Email             string
	FirstName         string
	LastName          string
	Image             string
	RawProfile        map[string]interface{}
}

type AdminCreateUserInput struct {
	Email       string
	FirstName   string
	LastName    string
	Role        domain.Role
	Nationality string
	Verified    bool
}

// SessionHooks receives notifications at the two session lifecycle points.
// Implementations must be cheap and must not fail the calling flow.
type SessionHooks interface {
	OnTokenIssued(ctx context.Context, user *domain.User, token string)
	OnSessionResolved(ctx context.Context, user *domain.User)
}

type Service interface {
	// Authenticate is the single password-check path. Every failure mode
	// (unknown email, passwordless account, wrong password) returns
	// domain.ErrInvalidCredentials so callers cannot enumerate accounts.
	Authenticate(ctx context.Context, traceID, email, pass string) (*domain.User, error)
	IssueSession(user *domain.User, ttl time.Duration) (string, error)
	// SignInWithPassword issues a 7-day session, or the long (30-day)
	// session when remember is set.
	SignInWithPassword(ctx context.Context, traceID, email, pass string, remember bool) (*domain.User, string, error)
	// SignInWithProvider resolves an OAuth assertion to a local user,
	// creating the user or linking the identity on first contact.
	SignInWithProvider(ctx context.Context, traceID string, input ExternalSignInInput) (*domain.User, string, error)
	Register(ctx context.Context, traceID string, input RegisterInput) (*domain.User, error)
	ChangePassword(ctx context.Context, traceID, userID, currentPassword, newPassword string) (*domain.User, error)
	CurrentUser(ctx context.Context, traceID, tok string) (*domain.User, error)
	AdminCreateUser(ctx context.Context, traceID string, input AdminCreateUserInput) (*domain.User, string, error)
	ListUsers(ctx context.Context, traceID string, filter repo.UserFilter) ([]domain.User, int64, error)
	VerifyToken(ctx context.Context, traceID, tok string) (*tokenverify.Result, error)
	SetHooks(hooks SessionHooks)
}

type authService struct {
	cfg        *config.Config
	logger     pkglog.Logger
	users      repo.UserRepository
	identities repo.AuthIdentityRepository
	hasher     *password.Hasher
	signer     token.Signer
	audit      audit.Client
	hooks      SessionHooks
}

func NewAuthService(cfg *config.Config, logger pkglog.Logger, users repo.UserRepository, identities repo.AuthIdentityRepository, hasher *password.Hasher, signer token.Signer, auditClient audit.Client) Service {
	return &authService{cfg: cfg, logger: logger, users: users, identities: identities, hasher: hasher, signer: signer, audit: auditClient}
}

// SetHooks registers the session lifecycle hooks. Called once during
// wiring, before the service handles requests.
func (s *authService) SetHooks(hooks SessionHooks) { s.hooks = hooks }

func (s *authService) Authenticate(ctx context.Context, traceID, email, pass string) (*domain.User, error) {
	norm := normalizeEmail(email)
	if norm == "" || pass == "" {
		return nil, domain.NewValidationError("email and password are required")
	}
	user, err := s.users.FindByEmail(ctx, norm)
	if err != nil {
		s.logger.Debug().Str("trace_id", traceID).Str("email", norm).Msg("signin: unknown email")
		return nil, domain.ErrInvalidCredentials
	}
	if !user.HasPassword() {
		// External-provider account; the response must not reveal that.
		s.logger.Debug().Str("trace_id", traceID).Str("user_id", user.ID).Msg("signin: account has no password")
		return nil, domain.ErrInvalidCredentials
	}
	if !s.hasher.Verify(pass, user.PasswordHash) {
		s.logger.Debug().Str("trace_id", traceID).Str("user_id", user.ID).Msg("signin: password mismatch")
		return nil, domain.ErrInvalidCredentials
	}
	return user, nil
}

func (s *authService) IssueSession(user *domain.User, ttl time.Duration) (string, error) {
	return s.signer.Sign(token.Claims{UserID: user.ID, Email: user.Email, Role: string(user.Role)}, ttl)
}

func (s *authService) SignInWithPassword(ctx context.Context, traceID, email, pass string, remember bool) (*domain.User, string, error) {
	user, err := s.Authenticate(ctx, traceID, email, pass)
	if err != nil {
		return nil, "", err
	}
	ttl := s.cfg.SessionTTL
	if remember {
		ttl = s.cfg.LongSessionTTL
	}
	tok, err := s.completeSignIn(ctx, traceID, user, ttl, map[string]interface{}{"user_id": user.ID})
	if err != nil {
		return nil, "", err
	}
	return user, tok, nil
}

func (s *authService) SignInWithProvider(ctx context.Context, traceID string, input ExternalSignInInput) (*domain.User, string, error) {
	norm := normalizeEmail(input.Email)
	if input.Provider == "" || input.ProviderAccountID == "" || validateEmail(norm) != nil {
		return nil, "", domain.NewValidationError("provider, account id and email are required")
	}

	var user *domain.User
	identity, err := s.identities.FindByProvider(ctx, input.Provider, input.ProviderAccountID)
	switch {
	case err == nil:
		user, err = s.users.FindByID(ctx, identity.UserID)
		if err != nil {
			s.logger.Warn().Str("trace_id", traceID).Str("user_id", identity.UserID).Msg("identity points at a missing user")
			return nil, "", domain.ErrInvalidCredentials
		}
	case errors.Is(err, gorm.ErrRecordNotFound):
		user, err = s.resolveProviderUser(ctx, traceID, norm, input)
		if err != nil {
			return nil, "", err
		}
	default:
		return nil, "", err
	}

	tok, err := s.completeSignIn(ctx, traceID, user, s.cfg.SessionTTL, map[string]interface{}{
		"user_id":  user.ID,
		"provider": input.Provider,
	})
	if err != nil {
		return nil, "", err
	}
	return user, tok, nil
}

// resolveProviderUser handles the first sign-in through a provider: an
// existing account with the same email gets the identity linked, otherwise
// a password-less verified user is created.
func (s *authService) resolveProviderUser(ctx context.Context, traceID, norm string, input ExternalSignInInput) (*domain.User, error) {
	user, err := s.users.FindByEmail(ctx, norm)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		user = &domain.User{
			Email:     norm,
			FirstName: strings.TrimSpace(input.FirstName),
			LastName:  strings.TrimSpace(input.LastName),
			Name:      strings.TrimSpace(strings.TrimSpace(input.FirstName) + " " + strings.TrimSpace(input.LastName)),
			Role:      domain.Role(s.cfg.DefaultRole),
			Verified:  true,
			Image:     input.Image,
		}
		if err := s.users.Create(ctx, user); err != nil {
			return nil, err
		}
		s.audit.Record(ctx, "USER_REGISTERED", map[string]interface{}{"user_id": user.ID, "provider": input.Provider})
		s.logger.Info().Str("trace_id", traceID).Str("user_id", user.ID).Str("provider", input.Provider).Msg("user registered via provider")
	} else if err != nil {
		return nil, err
	}

	identity := &domain.AuthIdentity{
		UserID:         user.ID,
		Provider:       input.Provider,
		ProviderUserID: input.ProviderAccountID,
		Email:          norm,
		RawProfile:     input.RawProfile,
	}
	if err := s.identities.Create(ctx, identity); err != nil {
		return nil, err
	}
	s.audit.Record(ctx, "IDENTITY_LINKED", map[string]interface{}{"user_id": user.ID, "provider": input.Provider})
	return user, nil
}

func (s *authService) completeSignIn(ctx context.Context, traceID string, user *domain.User, ttl time.Duration, details map[string]interface{}) (string, error) {
	now := time.Now()
	user.LastLoginAt = &now
	if err := s.users.Update(ctx, user); err != nil {
		// The session is still valid; only the login timestamp is stale.
		s.logger.Warn().Str("trace_id", traceID).Str("user_id", user.ID).Err(err).Msg("last login not persisted")
	}
	tok, err := s.IssueSession(user, ttl)
	if err != nil {
		return "", err
	}
	if s.hooks != nil {
		s.hooks.OnTokenIssued(ctx, user, tok)
	}
	s.audit.Record(ctx, "SIGNIN", details)
	s.logger.Info().Str("trace_id", traceID).Str("user_id", user.ID).Msg("signin")
	return tok, nil
}

func (s *authService) Register(ctx context.Context, traceID string, input RegisterInput) (*domain.User, error) {
	norm := normalizeEmail(input.Email)
	var missing []string
	if err := validateEmail(norm); err != nil {
		missing = append(missing, "valid email is required")
	}
	if strings.TrimSpace(input.FirstName) == "" {
		missing = append(missing, "first name is required")
	}
	if strings.TrimSpace(input.LastName) == "" {
		missing = append(missing, "last name is required")
	}
	if strings.TrimSpace(input.Nationality) == "" {
		missing = append(missing, "nationality is required")
	}
	if len(missing) > 0 {
		return nil, domain.NewValidationError("validation failed", missing...)
	}
	role := input.Role
	if role == "" {
		role = domain.Role(s.cfg.DefaultRole)
	}
	if role != domain.RoleStudent && role != domain.RoleCounselor {
		return nil, domain.NewValidationError("validation failed", "role must be STUDENT or COUNSELOR")
	}
	if strength := password.ValidateStrength(input.Password); !strength.IsValid {
		return nil, domain.NewValidationError("password does not meet security requirements", strength.Errors...)
	}

	if _, err := s.users.FindByEmail(ctx, norm); err == nil {
		s.audit.Record(ctx, "REGISTRATION_ATTEMPT_DUPLICATE_EMAIL", map[string]interface{}{"email": norm})
		return nil, domain.ErrEmailTaken
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	hash, err := s.hasher.Hash(input.Password)
	if err != nil {
		return nil, err
	}
	user := &domain.User{
		Email:        norm,
		PasswordHash: hash,
		FirstName:    strings.TrimSpace(input.FirstName),
		LastName:     strings.TrimSpace(input.LastName),
		Name:         strings.TrimSpace(input.FirstName) + " " + strings.TrimSpace(input.LastName),
		Nationality:  input.Nationality,
		Role:         role,
	}
	if err := s.users.Create(ctx, user); err != nil {
		return nil, err
	}
	s.audit.Record(ctx, "USER_REGISTERED", map[string]interface{}{"user_id": user.ID, "role": string(role)})
	s.logger.Info().Str("trace_id", traceID).Str("user_id", user.ID).Msg("user registered")
	return user, nil
}

func (s *authService) ChangePassword(ctx context.Context, traceID, userID, currentPassword, newPassword string) (*domain.User, error) {
	user, err := s.users.FindByID(ctx, userID)
	if err != nil {
		return nil, domain.ErrUnauthenticated
	}
	if newPassword == "" {
		return nil, domain.NewValidationError("new password is required")
	}
	// A forced first-login reset may omit the current password.
	if !user.RequirePasswordChange {
		if currentPassword == "" {
			return nil, domain.NewValidationError("current password is required")
		}
		if user.HasPassword() && !s.hasher.Verify(currentPassword, user.PasswordHash) {
			return nil, domain.NewValidationError("current password is incorrect")
		}
	}
	if strength := password.ValidateStrength(newPassword); !strength.IsValid {
		return nil, domain.NewValidationError("password does not meet requirements", strength.Errors...)
	}
	hash, err := s.hasher.Hash(newPassword)
	if err != nil {
		return nil, err
	}
	user.PasswordHash = hash
	user.RequirePasswordChange = false
	if err := s.users.Update(ctx, user); err != nil {
		return nil, err
	}
	s.audit.Record(ctx, "PASSWORD_CHANGED", map[string]interface{}{"user_id": user.ID})
	s.logger.Info().Str("trace_id", traceID).Str("user_id", user.ID).Msg("password changed")
	return user, nil
}

// CurrentUser resolves the user a session token asserts. Any failure
// (malformed, expired, forged token, vanished user) is reported uniformly
// as ErrUnauthenticated; the reason only reaches the log.
func (s *authService) CurrentUser(ctx context.Context, traceID, tok string) (*domain.User, error) {
	result, err := tokenverify.Verify(s.signer, tok, time.Now)
	if err != nil {
		s.logger.Debug().Str("trace_id", traceID).Err(err).Msg("session rejected")
		return nil, domain.ErrUnauthenticated
	}
	user, err := s.users.FindByID(ctx, result.UserID)
	if err != nil {
		s.logger.Debug().Str("trace_id", traceID).Str("user_id", result.UserID).Msg("session user no longer exists")
		return nil, domain.ErrUnauthenticated
	}
	if s.hooks != nil {
		s.hooks.OnSessionResolved(ctx, user)
	}
	return user, nil
}

func (s *authService) AdminCreateUser(ctx context.Context, traceID string, input AdminCreateUserInput) (*domain.User, string, error) {
	norm := normalizeEmail(input.Email)
	var missing []string
	if err := validateEmail(norm); err != nil {
		missing = append(missing, "valid email is required")
	}
	if strings.TrimSpace(input.FirstName) == "" {
		missing = append(missing, "first name is required")
	}
	if strings.TrimSpace(input.LastName) == "" {
		missing = append(missing, "last name is required")
	}
	if !domain.ValidRole(input.Role) {
		missing = append(missing, "role must be STUDENT, COUNSELOR or ADMIN")
	}
	if len(missing) > 0 {
		return nil, "", domain.NewValidationError("validation failed", missing...)
	}
	if _, err := s.users.FindByEmail(ctx, norm); err == nil {
		return nil, "", domain.ErrEmailTaken
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, "", err
	}

	user := &domain.User{
		Email:       norm,
		FirstName:   strings.TrimSpace(input.FirstName),
		LastName:    strings.TrimSpace(input.LastName),
		Name:        strings.TrimSpace(input.FirstName) + " " + strings.TrimSpace(input.LastName),
		Role:        input.Role,
		Nationality: input.Nationality,
		Verified:    input.Verified,
	}

	// Counselors sign in with a password; hand out a generated temporary
	// one and force a change on first login.
	var tempPassword string
	if input.Role == domain.RoleCounselor {
		generated, err := password.GenerateTemporaryPassword()
		if err != nil {
			return nil, "", err
		}
		hash, err := s.hasher.Hash(generated)
		if err != nil {
			return nil, "", err
		}
		user.PasswordHash = hash
		user.RequirePasswordChange = true
		tempPassword = generated
	}

	if err := s.users.Create(ctx, user); err != nil {
		return nil, "", err
	}
	s.audit.Record(ctx, "USER_CREATED_BY_ADMIN", map[string]interface{}{"user_id": user.ID, "role": string(user.Role)})
	s.logger.Info().Str("trace_id", traceID).Str("user_id", user.ID).Str("role", string(user.Role)).Msg("user created by admin")
	return user, tempPassword, nil
}

func (s *authService) ListUsers(ctx context.Context, traceID string, filter repo.UserFilter) ([]domain.User, int64, error) {
	if filter.Role != "" && !domain.ValidRole(filter.Role) {
		return nil, 0, domain.NewValidationError("validation failed", "unknown role filter")
	}
	return s.users.List(ctx, filter)
}

func (s *authService) VerifyToken(ctx context.Context, traceID, tok string) (*tokenverify.Result, error) {
	result, err := tokenverify.Verify(s.signer, tok, time.Now)
	if err != nil {
		return nil, err
	}
	s.logger.Debug().Str("trace_id", traceID).Str("user_id", result.UserID).Msg("token verified")
	return result, nil
}

func normalizeEmail(email string) string { return strings.ToLower(strings.TrimSpace(email)) }

func validateEmail(email string) error {
	if !strings.Contains(email, "@") || len(email) > 255 || email == "" {
		return errors.New("invalid email")
	}
	return nil
}
