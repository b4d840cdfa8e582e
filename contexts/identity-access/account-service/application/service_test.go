package application_test

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"testing"

	"atrium/contexts/identity-access/account-service/adapters/memory"
	"atrium/contexts/identity-access/account-service/application"
	domainerrors "atrium/contexts/identity-access/account-service/domain/errors"
	"atrium/internal/shared/events"
)

type plainHasher struct{}

func (plainHasher) Hash(plaintext string) (string, error) { return "hash:" + plaintext, nil }
func (plainHasher) Verify(plaintext, credential string) bool {
	return credential == "hash:"+plaintext
}

type staticTokens struct{}

func (staticTokens) Issue(userID string) (string, error)  { return "token-for-" + userID, nil }
func (staticTokens) Subject(token string) (string, error) { return "", domainerrors.ErrInvalidToken }

func newTestService() (application.Service, *memory.Store) {
	store := memory.NewStore()
	return application.Service{
		Repo:   store,
		Hasher: plainHasher{},
		Tokens: staticTokens{},
		Clock:  store,
		IDs:    store,
		Logger: slog.Default(),
	}, store
}

func register(t *testing.T, svc application.Service, firstName, email string) application.Session {
	t.Helper()
	session, err := svc.Register(context.Background(), application.RegisterInput{
		FirstName: firstName,
		LastName:  "Doe",
		Email:     email,
		Password:  "secret",
	})
	if err != nil {
		t.Fatalf("register: %v", err)
	}
	return session
}

func TestRegisterWritesAccountAndOutboxEvent(t *testing.T) {
	svc, store := newTestService()
	session := register(t, svc, "Jane", "jane@example.com")

	if session.AccessToken != "token-for-"+session.User.UserID {
		t.Fatalf("unexpected access token %q", session.AccessToken)
	}
	if session.User.Credential != "hash:secret" {
		t.Fatalf("credential was not hashed: %q", session.User.Credential)
	}

	orgs, err := store.ListOrganisationsForUser(context.Background(), session.User.UserID)
	if err != nil {
		t.Fatalf("listing organisations: %v", err)
	}
	if len(orgs) != 1 || orgs[0].Name != "Jane's Organisation" {
		t.Fatalf("unexpected default organisation: %+v", orgs)
	}

	pending, err := store.ListPendingOutbox(context.Background(), 10)
	if err != nil {
		t.Fatalf("listing outbox: %v", err)
	}
	if len(pending) != 1 {
		t.Fatalf("expected one pending outbox row, got %d", len(pending))
	}
	var envelope events.Envelope
	if err := json.Unmarshal(pending[0].Payload, &envelope); err != nil {
		t.Fatalf("decoding envelope: %v", err)
	}
	if envelope.EventType != application.EventUserRegistered || envelope.EntityID != session.User.UserID {
		t.Fatalf("unexpected envelope: %+v", envelope)
	}
}

func TestRegisterCollectsMissingFields(t *testing.T) {
	svc, _ := newTestService()
	_, err := svc.Register(context.Background(), application.RegisterInput{})
	validation, ok := domainerrors.AsValidation(err)
	if !ok {
		t.Fatalf("expected validation error, got %v", err)
	}
	fields := make(map[string]bool)
	for _, item := range validation.Fields {
		fields[item.Field] = true
	}
	for _, field := range []string{"firstName", "lastName", "email", "password"} {
		if !fields[field] {
			t.Fatalf("missing field error for %q: %+v", field, validation.Fields)
		}
	}
}

func TestRegisterRejectsDigitNames(t *testing.T) {
	svc, _ := newTestService()
	_, err := svc.Register(context.Background(), application.RegisterInput{
		FirstName: "J4ne",
		LastName:  "D03",
		Email:     "jane@example.com",
		Password:  "secret",
	})
	validation, ok := domainerrors.AsValidation(err)
	if !ok {
		t.Fatalf("expected validation error, got %v", err)
	}
	if len(validation.Fields) != 2 {
		t.Fatalf("expected both names flagged, got %+v", validation.Fields)
	}
}

func TestRegisterRejectsMalformedEmail(t *testing.T) {
	svc, _ := newTestService()
	for _, email := range []string{"plain", "missing@tld", "@nouser.com", "two@@example.com"} {
		_, err := svc.Register(context.Background(), application.RegisterInput{
			FirstName: "Jane",
			LastName:  "Doe",
			Email:     email,
			Password:  "secret",
		})
		if !errors.Is(err, domainerrors.ErrInvalidEmail) {
			t.Fatalf("email %q: expected ErrInvalidEmail, got %v", email, err)
		}
	}
}

func TestRegisterDuplicateEmail(t *testing.T) {
	svc, _ := newTestService()
	register(t, svc, "Jane", "jane@example.com")

	_, err := svc.Register(context.Background(), application.RegisterInput{
		FirstName: "John",
		LastName:  "Smith",
		Email:     "jane@example.com",
		Password:  "other",
	})
	if !errors.Is(err, domainerrors.ErrDuplicateEmail) {
		t.Fatalf("expected ErrDuplicateEmail, got %v", err)
	}
}

func TestLoginCollapsesFailureModes(t *testing.T) {
	svc, _ := newTestService()
	register(t, svc, "Jane", "jane@example.com")

	cases := []struct {
		name     string
		email    string
		password string
	}{
		{"unknown email", "nobody@example.com", "secret"},
		{"wrong password", "jane@example.com", "nope"},
		{"blank email", "", "secret"},
		{"blank password", "jane@example.com", ""},
	}
	for _, tc := range cases {
		_, err := svc.Login(context.Background(), tc.email, tc.password)
		if !errors.Is(err, domainerrors.ErrAuthenticationFailed) {
			t.Fatalf("%s: expected ErrAuthenticationFailed, got %v", tc.name, err)
		}
	}
}

func TestGetUserIsSelfOnly(t *testing.T) {
	svc, _ := newTestService()
	jane := register(t, svc, "Jane", "jane@example.com")
	john := register(t, svc, "John", "john@example.com")

	got, err := svc.GetUser(context.Background(), jane.User.UserID, jane.User.UserID)
	if err != nil || got.Email != "jane@example.com" {
		t.Fatalf("self lookup failed: %v %+v", err, got)
	}

	if _, err := svc.GetUser(context.Background(), jane.User.UserID, john.User.UserID); !errors.Is(err, domainerrors.ErrAccessDenied) {
		t.Fatalf("expected ErrAccessDenied for foreign id, got %v", err)
	}
	if _, err := svc.GetUser(context.Background(), jane.User.UserID, "ghost"); !errors.Is(err, domainerrors.ErrAccessDenied) {
		t.Fatalf("expected ErrAccessDenied for unknown id, got %v", err)
	}
}

func TestCreateOrganisationLinksCreator(t *testing.T) {
	svc, store := newTestService()
	jane := register(t, svc, "Jane", "jane@example.com")

	org, err := svc.CreateOrganisation(context.Background(), jane.User.UserID, "Research Guild", "shared workspace")
	if err != nil {
		t.Fatalf("create organisation: %v", err)
	}

	orgs, err := store.ListOrganisationsForUser(context.Background(), jane.User.UserID)
	if err != nil {
		t.Fatalf("listing organisations: %v", err)
	}
	if len(orgs) != 2 || orgs[1].OrgID != org.OrgID {
		t.Fatalf("creator membership missing or out of order: %+v", orgs)
	}

	if _, err := svc.CreateOrganisation(context.Background(), jane.User.UserID, "   ", ""); !errors.Is(err, domainerrors.ErrNameRequired) {
		t.Fatalf("expected ErrNameRequired, got %v", err)
	}
}

func TestGetOrganisationEnforcesMembership(t *testing.T) {
	svc, _ := newTestService()
	jane := register(t, svc, "Jane", "jane@example.com")
	john := register(t, svc, "John", "john@example.com")

	org, err := svc.CreateOrganisation(context.Background(), jane.User.UserID, "Research Guild", "")
	if err != nil {
		t.Fatalf("create organisation: %v", err)
	}

	if _, err := svc.GetOrganisation(context.Background(), jane.User.UserID, org.OrgID); err != nil {
		t.Fatalf("member fetch failed: %v", err)
	}
	if _, err := svc.GetOrganisation(context.Background(), john.User.UserID, org.OrgID); !errors.Is(err, domainerrors.ErrAccessDenied) {
		t.Fatalf("expected ErrAccessDenied for non-member, got %v", err)
	}
	if _, err := svc.GetOrganisation(context.Background(), jane.User.UserID, "ghost"); !errors.Is(err, domainerrors.ErrOrganisationNotFound) {
		t.Fatalf("expected ErrOrganisationNotFound, got %v", err)
	}
}

func TestAddMember(t *testing.T) {
	svc, _ := newTestService()
	jane := register(t, svc, "Jane", "jane@example.com")
	john := register(t, svc, "John", "john@example.com")

	org, err := svc.CreateOrganisation(context.Background(), jane.User.UserID, "Research Guild", "")
	if err != nil {
		t.Fatalf("create organisation: %v", err)
	}

	if err := svc.AddMember(context.Background(), org.OrgID, ""); !errors.Is(err, domainerrors.ErrUserIDRequired) {
		t.Fatalf("expected ErrUserIDRequired, got %v", err)
	}
	if err := svc.AddMember(context.Background(), org.OrgID, john.User.UserID); err != nil {
		t.Fatalf("add member: %v", err)
	}
	if err := svc.AddMember(context.Background(), org.OrgID, john.User.UserID); !errors.Is(err, domainerrors.ErrAlreadyMember) {
		t.Fatalf("expected ErrAlreadyMember, got %v", err)
	}
	if err := svc.AddMember(context.Background(), "ghost", john.User.UserID); !errors.Is(err, domainerrors.ErrOrganisationNotFound) {
		t.Fatalf("expected ErrOrganisationNotFound, got %v", err)
	}
}
