package application

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"regexp"
	"strings"
	"unicode"

	"atrium/contexts/identity-access/account-service/domain/entities"
	domainerrors "atrium/contexts/identity-access/account-service/domain/errors"
	"atrium/contexts/identity-access/account-service/domain/services"
	"atrium/contexts/identity-access/account-service/ports"
	"atrium/internal/shared/events"
	"atrium/internal/shared/outbox"
)

const (
	sourceService = "identity-access/account-service"

	EventUserRegistered      = "user.registered"
	EventOrganisationCreated = "organisation.created"

	TopicAccountEvents = "account.events"
)

var emailPattern = regexp.MustCompile(`^[a-zA-Z0-9_.+-]+@[a-zA-Z0-9-]+\.[a-zA-Z0-9-.]+$`)

type Service struct {
	Repo   ports.Repository
	Hasher ports.PasswordHasher
	Tokens ports.TokenCodec
	Clock  ports.Clock
	IDs    ports.IDGenerator
	Logger *slog.Logger
}

type RegisterInput struct {
	FirstName string
	LastName  string
	Email     string
	Password  string
	Phone     string
}

// Session is an authenticated account plus its bearer token.
type Session struct {
	AccessToken string
	User        entities.User
}

// Register creates a user, a default organisation named
// "{firstName}'s Organisation", and the membership linking them, all in one
// transaction. A duplicate email surfaces as a field-scoped validation
// error driven by the storage unique constraint.
func (s Service) Register(ctx context.Context, input RegisterInput) (Session, error) {
	if err := validateRegistration(input); err != nil {
		return Session{}, err
	}

	credential, err := s.Hasher.Hash(input.Password)
	if err != nil {
		return Session{}, err
	}

	userID, err := s.IDs.NewID(ctx)
	if err != nil {
		return Session{}, err
	}
	orgID, err := s.IDs.NewID(ctx)
	if err != nil {
		return Session{}, err
	}

	now := s.Clock.Now().UTC()
	user := entities.User{
		UserID:     userID,
		FirstName:  input.FirstName,
		LastName:   input.LastName,
		Email:      input.Email,
		Credential: credential,
		Phone:      input.Phone,
	}
	org := entities.Organisation{
		OrgID: orgID,
		Name:  fmt.Sprintf("%s's Organisation", input.FirstName),
	}
	membership := entities.Membership{
		UserID:    userID,
		OrgID:     orgID,
		CreatedAt: now,
	}

	event, err := s.outboxMessage(ctx, EventUserRegistered, "user", userID, map[string]any{
		"user_id": userID,
		"org_id":  orgID,
	})
	if err != nil {
		return Session{}, err
	}

	if err := s.Repo.CreateAccount(ctx, user, org, membership, event); err != nil {
		return Session{}, err
	}

	token, err := s.Tokens.Issue(userID)
	if err != nil {
		return Session{}, err
	}

	resolveLogger(s.Logger).Info("account registered",
		"event", "account_registered",
		"module", "identity-access/account-service",
		"layer", "application",
		"user_id", userID,
		"org_id", orgID,
	)
	return Session{AccessToken: token, User: user}, nil
}

// Login authenticates by email and password. Unknown email and wrong
// password collapse into the same failure so callers cannot enumerate
// accounts.
func (s Service) Login(ctx context.Context, email, password string) (Session, error) {
	if strings.TrimSpace(email) == "" || password == "" {
		return Session{}, domainerrors.ErrAuthenticationFailed
	}

	user, err := s.Repo.FindUserByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, domainerrors.ErrUserNotFound) {
			return Session{}, domainerrors.ErrAuthenticationFailed
		}
		return Session{}, err
	}

	if !s.Hasher.Verify(password, user.Credential) {
		resolveLogger(s.Logger).Info("login rejected",
			"event", "account_login_rejected",
			"module", "identity-access/account-service",
			"layer", "application",
		)
		return Session{}, domainerrors.ErrAuthenticationFailed
	}

	token, err := s.Tokens.Issue(user.UserID)
	if err != nil {
		return Session{}, err
	}
	return Session{AccessToken: token, User: user}, nil
}

// GetUser returns the target user's record. Only the user themselves may
// read it; the policy runs before the lookup so a foreign id never leaks
// whether the record exists.
func (s Service) GetUser(ctx context.Context, requesterID, targetID string) (entities.User, error) {
	if !services.CanViewUser(requesterID, targetID) {
		return entities.User{}, domainerrors.ErrAccessDenied
	}
	return s.Repo.GetUser(ctx, targetID)
}

// ListOrganisations returns the requester's organisations in membership
// creation order.
func (s Service) ListOrganisations(ctx context.Context, requesterID string) ([]entities.Organisation, error) {
	return s.Repo.ListOrganisationsForUser(ctx, requesterID)
}

// GetOrganisation returns a single organisation if the requester is a
// member of it.
func (s Service) GetOrganisation(ctx context.Context, requesterID, orgID string) (entities.Organisation, error) {
	org, err := s.Repo.GetOrganisation(ctx, orgID)
	if err != nil {
		return entities.Organisation{}, err
	}
	memberships, err := s.Repo.ListOrganisationsForUser(ctx, requesterID)
	if err != nil {
		return entities.Organisation{}, err
	}
	if !services.CanViewOrganisation(orgID, memberships) {
		return entities.Organisation{}, domainerrors.ErrAccessDenied
	}
	return org, nil
}

// CreateOrganisation creates a standalone organisation and links the
// creator as its first member in the same transaction.
func (s Service) CreateOrganisation(ctx context.Context, requesterID, name, description string) (entities.Organisation, error) {
	if strings.TrimSpace(name) == "" {
		return entities.Organisation{}, domainerrors.ErrNameRequired
	}

	orgID, err := s.IDs.NewID(ctx)
	if err != nil {
		return entities.Organisation{}, err
	}
	org := entities.Organisation{
		OrgID:       orgID,
		Name:        name,
		Description: description,
	}
	membership := entities.Membership{
		UserID:    requesterID,
		OrgID:     orgID,
		CreatedAt: s.Clock.Now().UTC(),
	}

	event, err := s.outboxMessage(ctx, EventOrganisationCreated, "organisation", orgID, map[string]any{
		"org_id":     orgID,
		"created_by": requesterID,
	})
	if err != nil {
		return entities.Organisation{}, err
	}

	if err := s.Repo.CreateOrganisation(ctx, org, membership, event); err != nil {
		return entities.Organisation{}, err
	}

	resolveLogger(s.Logger).Info("organisation created",
		"event", "organisation_created",
		"module", "identity-access/account-service",
		"layer", "application",
		"org_id", orgID,
		"created_by", requesterID,
	)
	return org, nil
}

// AddMember links an existing user to an existing organisation. Any
// authenticated identity may call this; membership of the target
// organisation is not required.
func (s Service) AddMember(ctx context.Context, orgID, userID string) error {
	if strings.TrimSpace(userID) == "" {
		return domainerrors.ErrUserIDRequired
	}
	return s.Repo.AddMembership(ctx, entities.Membership{
		UserID:    userID,
		OrgID:     orgID,
		CreatedAt: s.Clock.Now().UTC(),
	})
}

func (s Service) outboxMessage(ctx context.Context, eventType, entityType, entityID string, payload map[string]any) (outbox.Message, error) {
	eventID, err := s.IDs.NewID(ctx)
	if err != nil {
		return outbox.Message{}, err
	}
	outboxID, err := s.IDs.NewID(ctx)
	if err != nil {
		return outbox.Message{}, err
	}
	now := s.Clock.Now().UTC()
	raw, err := json.Marshal(events.Envelope{
		EventID:        eventID,
		EventType:      eventType,
		SourceService:  sourceService,
		OccurredAtUTC:  now,
		EntityType:     entityType,
		EntityID:       entityID,
		PayloadVersion: 1,
		Payload:        payload,
	})
	if err != nil {
		return outbox.Message{}, err
	}
	return outbox.Message{
		OutboxID:  outboxID,
		EventType: eventType,
		Payload:   raw,
		Status:    outbox.StatusPending,
		CreatedAt: now,
	}, nil
}

func validateRegistration(input RegisterInput) error {
	required := []struct {
		field string
		value string
	}{
		{"firstName", input.FirstName},
		{"lastName", input.LastName},
		{"email", input.Email},
		{"password", input.Password},
	}

	var missing []domainerrors.FieldError
	for _, item := range required {
		if strings.TrimSpace(item.value) == "" {
			missing = append(missing, domainerrors.FieldError{
				Field:   item.field,
				Message: item.field + " is required",
			})
		}
	}
	if len(missing) > 0 {
		return &domainerrors.Validation{Fields: missing}
	}

	var digits []domainerrors.FieldError
	for _, item := range []struct {
		field string
		value string
	}{
		{"firstName", input.FirstName},
		{"lastName", input.LastName},
	} {
		if containsDigit(item.value) {
			digits = append(digits, domainerrors.FieldError{
				Field:   item.field,
				Message: item.field + " must not contain digits",
			})
		}
	}
	if len(digits) > 0 {
		return &domainerrors.Validation{Fields: digits}
	}

	if !emailPattern.MatchString(input.Email) {
		return domainerrors.ErrInvalidEmail
	}
	return nil
}

func containsDigit(value string) bool {
	for _, r := range value {
		if unicode.IsDigit(r) {
			return true
		}
	}
	return false
}
