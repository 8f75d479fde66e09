package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/slotwise/service-scheduling/internal/domain/directory"
	"github.com/slotwise/service-scheduling/internal/domain/shared"
	"gorm.io/gorm"
)

// BusinessModel is the GORM model for the businesses table. The table is
// owned by the profile service; this service reads it only.
type BusinessModel struct {
	ID                 uuid.UUID `gorm:"type:uuid;primaryKey"`
	OwnerID            uuid.UUID `gorm:"type:uuid;index;not null"`
	Name               string    `gorm:"not null;size:255"`
	Timezone           string    `gorm:"not null;size:64;default:'UTC'"`
	OpenMinute         int       `gorm:"not null;default:540"`
	CloseMinute        int       `gorm:"not null;default:1020"`
	SlotStepMinutes    int       `gorm:"not null;default:30"`
	RequiresPrepayment bool      `gorm:"not null;default:false"`
	DepositPercent     int       `gorm:"not null;default:0"`
	CreatedAt          time.Time `gorm:"not null"`
	UpdatedAt          time.Time `gorm:"not null"`
}

// TableName returns the table name for the GORM model.
func (BusinessModel) TableName() string { return "businesses" }

// WorkerModel is the GORM model for the workers table (read-only here). A
// worker's ID is their platform user ID.
type WorkerModel struct {
	ID         uuid.UUID `gorm:"type:uuid;primaryKey"`
	BusinessID uuid.UUID `gorm:"type:uuid;index;not null"`
	Name       string    `gorm:"not null;size:255"`
	Active     bool      `gorm:"not null;default:true"`
	CreatedAt  time.Time `gorm:"not null"`
	UpdatedAt  time.Time `gorm:"not null"`
}

// TableName returns the table name for the GORM model.
func (WorkerModel) TableName() string { return "workers" }

// ServiceModel is the GORM model for the services table (read-only here).
type ServiceModel struct {
	ID              uuid.UUID `gorm:"type:uuid;primaryKey"`
	BusinessID      uuid.UUID `gorm:"type:uuid;index;not null"`
	Name            string    `gorm:"not null;size:255"`
	DurationMinutes int       `gorm:"not null"`
	PriceCents      int64     `gorm:"not null"`
	Active          bool      `gorm:"not null;default:true"`
	CreatedAt       time.Time `gorm:"not null"`
	UpdatedAt       time.Time `gorm:"not null"`
}

// TableName returns the table name for the GORM model.
func (ServiceModel) TableName() string { return "services" }

// GormDirectory implements directory.Directory against the shared tables.
type GormDirectory struct {
	db *gorm.DB
}

// NewGormDirectory creates a new GormDirectory.
func NewGormDirectory(db *gorm.DB) *GormDirectory {
	return &GormDirectory{db: db}
}

// GetBusiness retrieves a business by ID.
func (r *GormDirectory) GetBusiness(ctx context.Context, id uuid.UUID) (*directory.Business, error) {
	var m BusinessModel
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&m).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.NewNotFoundError("Business", id.String())
		}
		return nil, fmt.Errorf("failed to find business: %w", err)
	}
	return &directory.Business{
		ID:                 m.ID,
		OwnerID:            m.OwnerID,
		Name:               m.Name,
		Timezone:           m.Timezone,
		OpenMinute:         m.OpenMinute,
		CloseMinute:        m.CloseMinute,
		SlotStepMinutes:    m.SlotStepMinutes,
		RequiresPrepayment: m.RequiresPrepayment,
		DepositPercent:     m.DepositPercent,
		CreatedAt:          m.CreatedAt,
		UpdatedAt:          m.UpdatedAt,
	}, nil
}

// GetWorker retrieves a worker by ID.
func (r *GormDirectory) GetWorker(ctx context.Context, id uuid.UUID) (*directory.Worker, error) {
	var m WorkerModel
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&m).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.NewNotFoundError("Worker", id.String())
		}
		return nil, fmt.Errorf("failed to find worker: %w", err)
	}
	return &directory.Worker{
		ID:         m.ID,
		BusinessID: m.BusinessID,
		Name:       m.Name,
		Active:     m.Active,
		CreatedAt:  m.CreatedAt,
		UpdatedAt:  m.UpdatedAt,
	}, nil
}

// GetService retrieves a service by ID.
func (r *GormDirectory) GetService(ctx context.Context, id uuid.UUID) (*directory.Service, error) {
	var m ServiceModel
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&m).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.NewNotFoundError("Service", id.String())
		}
		return nil, fmt.Errorf("failed to find service: %w", err)
	}
	return &directory.Service{
		ID:              m.ID,
		BusinessID:      m.BusinessID,
		Name:            m.Name,
		DurationMinutes: m.DurationMinutes,
		PriceCents:      m.PriceCents,
		Active:          m.Active,
		CreatedAt:       m.CreatedAt,
		UpdatedAt:       m.UpdatedAt,
	}, nil
}
