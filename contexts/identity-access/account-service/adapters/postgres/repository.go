package postgresadapter

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"

	"atrium/contexts/identity-access/account-service/domain/entities"
	domainerrors "atrium/contexts/identity-access/account-service/domain/errors"
	"atrium/internal/shared/outbox"
)

// Repository is the PostgreSQL Identity Store. Multi-row writes run inside
// one transaction; email uniqueness comes from the unique index on
// users.email, never from a check-then-insert.
type Repository struct {
	db     *gorm.DB
	logger *slog.Logger
}

func NewRepository(db *gorm.DB, logger *slog.Logger) *Repository {
	if logger == nil {
		logger = slog.Default()
	}
	return &Repository{
		db:     db,
		logger: logger,
	}
}

func (r *Repository) CreateAccount(ctx context.Context, user entities.User, org entities.Organisation, membership entities.Membership, event outbox.Message) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(userModelFromEntity(user)).Error; err != nil {
			if isUniqueViolation(err) {
				return domainerrors.ErrDuplicateEmail
			}
			return err
		}
		if err := tx.Create(organisationModelFromEntity(org)).Error; err != nil {
			return err
		}
		if err := tx.Create(membershipModelFromEntity(membership)).Error; err != nil {
			return err
		}
		return tx.Create(outboxModelFromMessage(event)).Error
	})
}

func (r *Repository) CreateOrganisation(ctx context.Context, org entities.Organisation, membership entities.Membership, event outbox.Message) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(organisationModelFromEntity(org)).Error; err != nil {
			return err
		}
		if err := tx.Create(membershipModelFromEntity(membership)).Error; err != nil {
			return err
		}
		return tx.Create(outboxModelFromMessage(event)).Error
	})
}

func (r *Repository) AddMembership(ctx context.Context, membership entities.Membership) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var count int64
		if err := tx.Model(&userModel{}).Where("id = ?", membership.UserID).Count(&count).Error; err != nil {
			return err
		}
		if count == 0 {
			return domainerrors.ErrUserNotFound
		}
		if err := tx.Model(&organisationModel{}).Where("id = ?", membership.OrgID).Count(&count).Error; err != nil {
			return err
		}
		if count == 0 {
			return domainerrors.ErrOrganisationNotFound
		}

		if err := tx.Create(membershipModelFromEntity(membership)).Error; err != nil {
			if isUniqueViolation(err) {
				return domainerrors.ErrAlreadyMember
			}
			return err
		}
		return nil
	})
}

func (r *Repository) GetUser(ctx context.Context, userID string) (entities.User, error) {
	var row userModel
	err := r.db.WithContext(ctx).
		Where("id = ?", userID).
		First(&row).
		Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return entities.User{}, domainerrors.ErrUserNotFound
		}
		return entities.User{}, err
	}
	return row.toEntity(), nil
}

func (r *Repository) FindUserByEmail(ctx context.Context, email string) (entities.User, error) {
	var row userModel
	err := r.db.WithContext(ctx).
		Where("email = ?", email).
		First(&row).
		Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return entities.User{}, domainerrors.ErrUserNotFound
		}
		return entities.User{}, err
	}
	return row.toEntity(), nil
}

func (r *Repository) GetOrganisation(ctx context.Context, orgID string) (entities.Organisation, error) {
	var row organisationModel
	err := r.db.WithContext(ctx).
		Where("id = ?", orgID).
		First(&row).
		Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return entities.Organisation{}, domainerrors.ErrOrganisationNotFound
		}
		return entities.Organisation{}, err
	}
	return row.toEntity(), nil
}

func (r *Repository) ListOrganisationsForUser(ctx context.Context, userID string) ([]entities.Organisation, error) {
	var rows []organisationModel
	err := r.db.WithContext(ctx).
		Model(&organisationModel{}).
		Joins("JOIN user_organizations ON user_organizations.organization_id = organizations.id").
		Where("user_organizations.user_id = ?", userID).
		Order("user_organizations.created_at ASC").
		Find(&rows).
		Error
	if err != nil {
		return nil, err
	}

	items := make([]entities.Organisation, 0, len(rows))
	for _, row := range rows {
		items = append(items, row.toEntity())
	}
	return items, nil
}

func (r *Repository) ListPendingOutbox(ctx context.Context, limit int) ([]outbox.Message, error) {
	var rows []outboxModel
	err := r.db.WithContext(ctx).
		Where("status = ?", outbox.StatusPending).
		Order("created_at ASC").
		Limit(limit).
		Find(&rows).
		Error
	if err != nil {
		return nil, err
	}

	items := make([]outbox.Message, 0, len(rows))
	for _, row := range rows {
		items = append(items, row.toMessage())
	}
	return items, nil
}

func (r *Repository) MarkOutboxSent(ctx context.Context, outboxID string, now time.Time) error {
	return r.db.WithContext(ctx).
		Model(&outboxModel{}).
		Where("id = ?", outboxID).
		Updates(map[string]any{
			"status":       outbox.StatusPublished,
			"published_at": now,
		}).
		Error
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}

type userModel struct {
	ID         string `gorm:"column:id;primaryKey"`
	FirstName  string `gorm:"column:first_name"`
	LastName   string `gorm:"column:last_name"`
	Email      string `gorm:"column:email;uniqueIndex"`
	Credential string `gorm:"column:password_hash"`
	Phone      string `gorm:"column:phone"`
}

func (userModel) TableName() string {
	return "users"
}

func userModelFromEntity(user entities.User) *userModel {
	return &userModel{
		ID:         user.UserID,
		FirstName:  user.FirstName,
		LastName:   user.LastName,
		Email:      user.Email,
		Credential: user.Credential,
		Phone:      user.Phone,
	}
}

func (m userModel) toEntity() entities.User {
	return entities.User{
		UserID:     m.ID,
		FirstName:  m.FirstName,
		LastName:   m.LastName,
		Email:      m.Email,
		Credential: m.Credential,
		Phone:      m.Phone,
	}
}

type organisationModel struct {
	ID          string `gorm:"column:id;primaryKey"`
	Name        string `gorm:"column:name"`
	Description string `gorm:"column:description"`
}

func (organisationModel) TableName() string {
	return "organizations"
}

func organisationModelFromEntity(org entities.Organisation) *organisationModel {
	return &organisationModel{
		ID:          org.OrgID,
		Name:        org.Name,
		Description: org.Description,
	}
}

func (m organisationModel) toEntity() entities.Organisation {
	return entities.Organisation{
		OrgID:       m.ID,
		Name:        m.Name,
		Description: m.Description,
	}
}

type membershipModel struct {
	UserID         string    `gorm:"column:user_id;primaryKey"`
	OrganizationID string    `gorm:"column:organization_id;primaryKey"`
	CreatedAt      time.Time `gorm:"column:created_at"`
}

func (membershipModel) TableName() string {
	return "user_organizations"
}

func membershipModelFromEntity(membership entities.Membership) *membershipModel {
	return &membershipModel{
		UserID:         membership.UserID,
		OrganizationID: membership.OrgID,
		CreatedAt:      membership.CreatedAt,
	}
}

type outboxModel struct {
	ID          string     `gorm:"column:id;primaryKey"`
	EventType   string     `gorm:"column:event_type"`
	Payload     []byte     `gorm:"column:payload"`
	Status      string     `gorm:"column:status"`
	CreatedAt   time.Time  `gorm:"column:created_at"`
	PublishedAt *time.Time `gorm:"column:published_at"`
}

func (outboxModel) TableName() string {
	return "account_outbox"
}

func outboxModelFromMessage(message outbox.Message) *outboxModel {
	return &outboxModel{
		ID:        message.OutboxID,
		EventType: message.EventType,
		Payload:   message.Payload,
		Status:    message.Status,
		CreatedAt: message.CreatedAt,
	}
}

func (m outboxModel) toMessage() outbox.Message {
	return outbox.Message{
		OutboxID:  m.ID,
		EventType: m.EventType,
		Payload:   m.Payload,
		Status:    m.Status,
		CreatedAt: m.CreatedAt,
	}
}
