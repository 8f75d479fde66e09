package application

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/slotwise/service-scheduling/internal/domain/escalation"
	"go.uber.org/zap"
)

// EscalationDTO is the admin-facing representation of a payment escalation.
type EscalationDTO struct {
	ID          uuid.UUID  `json:"id"`
	PaymentRef  string     `json:"payment_ref"`
	BusinessID  uuid.UUID  `json:"business_id"`
	ClientID    uuid.UUID  `json:"client_id"`
	WorkerID    uuid.UUID  `json:"worker_id"`
	ServiceID   uuid.UUID  `json:"service_id"`
	StartTime   time.Time  `json:"start_time"`
	EndTime     time.Time  `json:"end_time"`
	AmountCents int64      `json:"amount_cents"`
	Resolved    bool       `json:"resolved"`
	ResolvedAt  *time.Time `json:"resolved_at,omitempty"`
	Resolution  string     `json:"resolution,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
}

// ResolveEscalationRequest carries the support operator's resolution note.
type ResolveEscalationRequest struct {
	Resolution string `json:"resolution" binding:"required"`
}

// EscalationService exposes the support workflow over payment escalations.
type EscalationService struct {
	repo   escalation.Repository
	logger *zap.Logger
}

// NewEscalationService creates a new EscalationService.
func NewEscalationService(repo escalation.Repository, logger *zap.Logger) *EscalationService {
	return &EscalationService{repo: repo, logger: logger}
}

// ListUnresolved returns all open escalations, oldest first.
func (s *EscalationService) ListUnresolved(ctx context.Context) ([]EscalationDTO, error) {
	escs, err := s.repo.ListUnresolved(ctx)
	if err != nil {
		return nil, err
	}
	dtos := make([]EscalationDTO, len(escs))
	for i, e := range escs {
		dtos[i] = toEscalationDTO(e)
	}
	return dtos, nil
}

// Resolve marks an escalation as handled (refund issued, manual rebooking, ...).
func (s *EscalationService) Resolve(ctx context.Context, id uuid.UUID, resolution string) (*EscalationDTO, error) {
	esc, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := esc.Resolve(resolution); err != nil {
		return nil, err
	}
	if err := s.repo.Update(ctx, esc); err != nil {
		return nil, err
	}
	s.logger.Info("payment escalation resolved",
		zap.String("escalation_id", esc.ID().String()),
		zap.String("payment_ref", esc.PaymentRef()),
	)
	dto := toEscalationDTO(esc)
	return &dto, nil
}

func toEscalationDTO(e *escalation.PaymentEscalation) EscalationDTO {
	return EscalationDTO{
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
