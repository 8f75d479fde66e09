package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	escalationDomain "github.com/slotwise/service-scheduling/internal/domain/escalation"
	"github.com/slotwise/service-scheduling/internal/domain/shared"
	"gorm.io/gorm"
)

// EscalationModel is the GORM model for the payment_escalations table.
type EscalationModel struct {
	ID          uuid.UUID  `gorm:"type:uuid;primaryKey"`
	PaymentRef  string     `gorm:"not null;size:255;index"`
	BusinessID  uuid.UUID  `gorm:"type:uuid;index;not null"`
	ClientID    uuid.UUID  `gorm:"type:uuid;not null"`
	WorkerID    uuid.UUID  `gorm:"type:uuid;not null"`
	ServiceID   uuid.UUID  `gorm:"type:uuid;not null"`
	StartTime   time.Time  `gorm:"not null"`
	EndTime     time.Time  `gorm:"not null"`
	AmountCents int64      `gorm:"not null"`
	Resolved    bool       `gorm:"not null;default:false;index"`
	ResolvedAt  *time.Time
	Resolution  string    `gorm:"size:1000"`
	CreatedAt   time.Time `gorm:"not null"`
}

// TableName returns the table name for the GORM model.
func (EscalationModel) TableName() string { return "payment_escalations" }

// GormEscalationRepository is the GORM-based escalation repository.
type GormEscalationRepository struct {
	db *gorm.DB
}

// NewGormEscalationRepository creates a new GormEscalationRepository.
func NewGormEscalationRepository(db *gorm.DB) *GormEscalationRepository {
	return &GormEscalationRepository{db: db}
}

// Save persists a new escalation.
func (r *GormEscalationRepository) Save(ctx context.Context, e *escalationDomain.PaymentEscalation) error {
	if err := r.db.WithContext(ctx).Create(toEscalationModel(e)).Error; err != nil {
		return fmt.Errorf("failed to save escalation: %w", err)
	}
	return nil
}

// Update persists resolution changes.
func (r *GormEscalationRepository) Update(ctx context.Context, e *escalationDomain.PaymentEscalation) error {
	m := toEscalationModel(e)
	result := r.db.WithContext(ctx).
		Model(&EscalationModel{}).
		Where("id = ?", m.ID).
		Updates(map[string]interface{}{
			"resolved":    m.Resolved,
			"resolved_at": m.ResolvedAt,
			"resolution":  m.Resolution,
		})
	if result.Error != nil {
		return fmt.Errorf("failed to update escalation: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return shared.NewNotFoundError("PaymentEscalation", m.ID.String())
	}
	return nil
}

// FindByID retrieves an escalation by ID.
func (r *GormEscalationRepository) FindByID(ctx context.Context, id uuid.UUID) (*escalationDomain.PaymentEscalation, error) {
	var m EscalationModel
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&m).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.NewNotFoundError("PaymentEscalation", id.String())
		}
		return nil, fmt.Errorf("failed to find escalation: %w", err)
	}
	return toDomainEscalation(&m), nil
}

// ListUnresolved returns all open escalations, oldest first.
func (r *GormEscalationRepository) ListUnresolved(ctx context.Context) ([]*escalationDomain.PaymentEscalation, error) {
	var models []EscalationModel
	if err := r.db.WithContext(ctx).
		Where("resolved = ?", false).
		Order("created_at ASC").
		Find(&models).Error; err != nil {
		return nil, fmt.Errorf("failed to list unresolved escalations: %w", err)
	}
	escalations := make([]*escalationDomain.PaymentEscalation, len(models))
	for i, m := range models {
		escalations[i] = toDomainEscalation(&m)
	}
	return escalations, nil
}

func toEscalationModel(e *escalationDomain.PaymentEscalation) *EscalationModel {
	return &EscalationModel{
		ID:          e.ID(),
		PaymentRef:  e.PaymentRef(),
		BusinessID:  e.BusinessID(),
		ClientID:    e.ClientID(),
		WorkerID:    e.WorkerID(),
		ServiceID:   e.ServiceID(),
		StartTime:   e.StartTime(),
		EndTime:     e.EndTime(),
		AmountCents: e.AmountCents(),
		Resolved:    e.Resolved(),
		ResolvedAt:  e.ResolvedAt(),
		Resolution:  e.Resolution(),
		CreatedAt:   e.CreatedAt(),
	}
}

func toDomainEscalation(m *EscalationModel) *escalationDomain.PaymentEscalation {
	return escalationDomain.Reconstruct(
		m.ID,
		m.PaymentRef,
		m.BusinessID,
		m.ClientID,
		m.WorkerID,
		m.ServiceID,
		m.StartTime,
		m.EndTime,
		m.AmountCents,
		m.Resolved,
		m.ResolvedAt,
		m.Resolution,
		m.CreatedAt,
	)
}
