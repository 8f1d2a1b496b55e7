package provider

import (
	"context"
	"errors"
	"testing"

	"github.com/rs/zerolog"

	"github.com/educonnect-africa/auth-service/internal/domain"
	"github.com/educonnect-africa/auth-service/internal/usecase"
)

type stubService struct {
	usecase.Service
	authenticateFn func(email, password string) (*domain.User, error)
}

func (s *stubService) Authenticate(_ context.Context, _ string, email, password string) (*domain.User, error) {
	return s.authenticateFn(email, password)
}

type recordedEvent struct {
	event   string
	details map[string]interface{}
}

type recordingAudit struct {
	events []recordedEvent
}

func (r *recordingAudit) Record(_ context.Context, event string, details map[string]interface{}) {
	r.events = append(r.events, recordedEvent{event: event, details: details})
}

func TestAuthorizeSuccess(t *testing.T) {
	user := &domain.User{ID: "user-1", Email: "c@educonnect.africa", Name: "C O", Role: domain.RoleCounselor, RequirePasswordChange: true}
	svc := &stubService{authenticateFn: func(email, password string) (*domain.User, error) {
		if email != "c@educonnect.africa" || password != "secret" {
			t.Fatalf("unexpected input: %s/%s", email, password)
		}
		return user, nil
	}}
	p := NewCredentialsProvider(svc, &recordingAudit{}, zerolog.Nop())

	identity, err := p.Authorize(context.Background(), "t1", "c@educonnect.africa", "secret")
	if err != nil {
		t.Fatalf("authorize: %v", err)
	}
	if identity == nil || identity.ID != "user-1" || identity.Role != "COUNSELOR" || !identity.RequirePasswordChange {
		t.Fatalf("unexpected identity: %+v", identity)
	}
}

func TestAuthorizeFailureIsNilIdentity(t *testing.T) {
	svc := &stubService{authenticateFn: func(string, string) (*domain.User, error) {
		return nil, domain.ErrInvalidCredentials
	}}
	p := NewCredentialsProvider(svc, &recordingAudit{}, zerolog.Nop())

	identity, err := p.Authorize(context.Background(), "t1", "x@y.z", "nope")
	if err != nil {
		t.Fatalf("authorize must not surface auth failures: %v", err)
	}
	if identity != nil {
		t.Fatalf("expected nil identity, got %+v", identity)
	}
}

func TestAuthorizePropagatesInternalErrors(t *testing.T) {
	boom := errors.New("store unreachable")
	svc := &stubService{authenticateFn: func(string, string) (*domain.User, error) {
		return nil, boom
	}}
	p := NewCredentialsProvider(svc, &recordingAudit{}, zerolog.Nop())

	if _, err := p.Authorize(context.Background(), "t1", "x@y.z", "pw"); !errors.Is(err, boom) {
		t.Fatalf("expected internal error to propagate, got %v", err)
	}
}

func TestHooksRecordAuditEvents(t *testing.T) {
	rec := &recordingAudit{}
	p := NewCredentialsProvider(&stubService{}, rec, zerolog.Nop())
	user := &domain.User{ID: "user-1", Role: domain.RoleAdmin}

	p.OnTokenIssued(context.Background(), user, "tok")
	p.OnSessionResolved(context.Background(), user)

	if len(rec.events) != 1 || rec.events[0].event != "SESSION_CREATED" {
		t.Fatalf("unexpected audit events: %+v", rec.events)
	}
}
