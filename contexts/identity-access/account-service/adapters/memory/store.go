package memory

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"atrium/contexts/identity-access/account-service/domain/entities"
	domainerrors "atrium/contexts/identity-access/account-service/domain/errors"
	"atrium/internal/shared/outbox"
)

// Store is the in-memory Identity Store used for development and tests.
// It implements the Repository, OutboxRepository, Clock, and IDGenerator
// ports. Mutating methods take the write lock for the whole operation, so
// multi-row writes are atomic and email uniqueness cannot race.
type Store struct {
	mu sync.RWMutex

	usersByID     map[string]entities.User
	userIDByEmail map[string]string
	orgsByID      map[string]entities.Organisation
	// membershipsByUser keeps insertion order; it backs the ordered
	// organisations listing.
	membershipsByUser map[string][]entities.Membership
	outboxRows        []outbox.Message

	sequence uint64
}

func NewStore() *Store {
	return &Store{
		usersByID:         make(map[string]entities.User),
		userIDByEmail:     make(map[string]string),
		orgsByID:          make(map[string]entities.Organisation),
		membershipsByUser: make(map[string][]entities.Membership),
	}
}

func (s *Store) CreateAccount(_ context.Context, user entities.User, org entities.Organisation, membership entities.Membership, event outbox.Message) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.userIDByEmail[user.Email]; exists {
		return domainerrors.ErrDuplicateEmail
	}

	s.usersByID[user.UserID] = user
	s.userIDByEmail[user.Email] = user.UserID
	s.orgsByID[org.OrgID] = org
	s.membershipsByUser[membership.UserID] = append(s.membershipsByUser[membership.UserID], membership)
	s.outboxRows = append(s.outboxRows, event)
	return nil
}

func (s *Store) CreateOrganisation(_ context.Context, org entities.Organisation, membership entities.Membership, event outbox.Message) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.orgsByID[org.OrgID] = org
	s.membershipsByUser[membership.UserID] = append(s.membershipsByUser[membership.UserID], membership)
	s.outboxRows = append(s.outboxRows, event)
	return nil
}

func (s *Store) AddMembership(_ context.Context, membership entities.Membership) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.usersByID[membership.UserID]; !ok {
		return domainerrors.ErrUserNotFound
	}
	if _, ok := s.orgsByID[membership.OrgID]; !ok {
		return domainerrors.ErrOrganisationNotFound
	}
	for _, existing := range s.membershipsByUser[membership.UserID] {
		if existing.OrgID == membership.OrgID {
			return domainerrors.ErrAlreadyMember
		}
	}
	s.membershipsByUser[membership.UserID] = append(s.membershipsByUser[membership.UserID], membership)
	return nil
}

func (s *Store) GetUser(_ context.Context, userID string) (entities.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	user, ok := s.usersByID[userID]
	if !ok {
		return entities.User{}, domainerrors.ErrUserNotFound
	}
	return user, nil
}

func (s *Store) FindUserByEmail(_ context.Context, email string) (entities.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	userID, ok := s.userIDByEmail[email]
	if !ok {
		return entities.User{}, domainerrors.ErrUserNotFound
	}
	return s.usersByID[userID], nil
}

func (s *Store) GetOrganisation(_ context.Context, orgID string) (entities.Organisation, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	org, ok := s.orgsByID[orgID]
	if !ok {
		return entities.Organisation{}, domainerrors.ErrOrganisationNotFound
	}
	return org, nil
}

func (s *Store) ListOrganisationsForUser(_ context.Context, userID string) ([]entities.Organisation, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	memberships := s.membershipsByUser[userID]
	items := make([]entities.Organisation, 0, len(memberships))
	for _, membership := range memberships {
		if org, ok := s.orgsByID[membership.OrgID]; ok {
			items = append(items, org)
		}
	}
	return items, nil
}

func (s *Store) ListPendingOutbox(_ context.Context, limit int) ([]outbox.Message, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	items := make([]outbox.Message, 0, limit)
	for _, row := range s.outboxRows {
		if row.Status != outbox.StatusPending {
			continue
		}
		items = append(items, row)
		if len(items) == limit {
			break
		}
	}
	return items, nil
}

func (s *Store) MarkOutboxSent(_ context.Context, outboxID string, _ time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i := range s.outboxRows {
		if s.outboxRows[i].OutboxID == outboxID {
			s.outboxRows[i].Status = outbox.StatusPublished
			return nil
		}
	}
	return nil
}

func (s *Store) Now() time.Time {
	return time.Now().UTC()
}

func (s *Store) NewID(_ context.Context) (string, error) {
	return fmt.Sprintf("id_%d", atomic.AddUint64(&s.sequence, 1)), nil
}
