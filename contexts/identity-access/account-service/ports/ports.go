package ports

import (
	"context"
	"time"

	"atrium/contexts/identity-access/account-service/domain/entities"
	"atrium/internal/shared/events"
	"atrium/internal/shared/outbox"
)

type Clock interface {
	Now() time.Time
}

type IDGenerator interface {
	NewID(ctx context.Context) (string, error)
}

// PasswordHasher is the credential store boundary. Hash is salted, so the
// same plaintext maps to different credentials across calls; Verify never
// errors on mismatch, it reports false.
type PasswordHasher interface {
	Hash(plaintext string) (string, error)
	Verify(plaintext, credential string) bool
}

// TokenCodec issues and decodes bearer access tokens. Subject returns the
// user id encoded in a valid token, or ErrInvalidToken/ErrTokenExpired.
type TokenCodec interface {
	Issue(userID string) (string, error)
	Subject(token string) (string, error)
}

type EventPublisher interface {
	Publish(ctx context.Context, topic string, event events.Envelope) error
}

// Repository is the Identity Store boundary. It exclusively owns User,
// Organisation, and Membership rows.
//
// CreateAccount and CreateOrganisation are single transactions: every row
// they take is written atomically or not at all. Email uniqueness is
// enforced by the storage-level unique constraint, never by a
// check-then-insert.
type Repository interface {
	CreateAccount(ctx context.Context, user entities.User, org entities.Organisation, membership entities.Membership, event outbox.Message) error
	CreateOrganisation(ctx context.Context, org entities.Organisation, membership entities.Membership, event outbox.Message) error
	AddMembership(ctx context.Context, membership entities.Membership) error

	GetUser(ctx context.Context, userID string) (entities.User, error)
	FindUserByEmail(ctx context.Context, email string) (entities.User, error)
	GetOrganisation(ctx context.Context, orgID string) (entities.Organisation, error)
	ListOrganisationsForUser(ctx context.Context, userID string) ([]entities.Organisation, error)
}

// OutboxRepository is consumed by the worker relay.
type OutboxRepository interface {
	ListPendingOutbox(ctx context.Context, limit int) ([]outbox.Message, error)
	MarkOutboxSent(ctx context.Context, outboxID string, now time.Time) error
}
