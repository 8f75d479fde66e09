package application

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	bookingDomain "github.com/slotwise/service-scheduling/internal/domain/booking"
	"github.com/slotwise/service-scheduling/internal/domain/checkout"
	"github.com/slotwise/service-scheduling/internal/domain/directory"
	"github.com/slotwise/service-scheduling/internal/domain/escalation"
	"github.com/slotwise/service-scheduling/internal/domain/payment"
	"github.com/slotwise/service-scheduling/internal/domain/schedule"
	"github.com/slotwise/service-scheduling/internal/domain/shared"
	"github.com/slotwise/service-scheduling/internal/platform/kafka"
)

// fakeBookingRepo is an in-memory booking repository. A single mutex plays the
// role of the per-worker transaction serialization the real implementation
// gets from the database.
type fakeBookingRepo struct {
	mu       sync.Mutex
	bookings map[uuid.UUID]*bookingDomain.Booking
}

func newFakeBookingRepo() *fakeBookingRepo {
	return &fakeBookingRepo{bookings: make(map[uuid.UUID]*bookingDomain.Booking)}
}

func (r *fakeBookingRepo) FindByID(_ context.Context, id uuid.UUID) (*bookingDomain.Booking, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	bk, ok := r.bookings[id]
	if !ok {
		return nil, shared.NewNotFoundError("Booking", id.String())
	}
	return bk, nil
}

func (r *fakeBookingRepo) overlapping(workerID uuid.UUID, start, end time.Time, excludeID uuid.UUID) []*bookingDomain.Booking {
	var out []*bookingDomain.Booking
	for _, bk := range r.bookings {
		if bk.WorkerID() != workerID || bk.ID() == excludeID {
			continue
		}
		if bk.Status() == bookingDomain.StatusCancelled {
			continue
		}
		if schedule.Overlaps(start, end, bk.StartTime(), bk.EndTime()) {
			out = append(out, bk)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].StartTime().Before(out[j].StartTime()) })
	return out
}

func (r *fakeBookingRepo) FindOverlapping(_ context.Context, workerID uuid.UUID, start, end time.Time, excludeID uuid.UUID) ([]*bookingDomain.Booking, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.overlapping(workerID, start, end, excludeID), nil
}

func (r *fakeBookingRepo) HasConflict(_ context.Context, workerID uuid.UUID, start, end time.Time, excludeID uuid.UUID) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.overlapping(workerID, start, end, excludeID)) > 0, nil
}

func (r *fakeBookingRepo) FindForWorkerDay(_ context.Context, workerID uuid.UUID, dayStart, dayEnd time.Time) ([]*bookingDomain.Booking, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.overlapping(workerID, dayStart, dayEnd, uuid.Nil), nil
}

func (r *fakeBookingRepo) findBy(match func(*bookingDomain.Booking) bool, page, limit int) ([]*bookingDomain.Booking, int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var all []*bookingDomain.Booking
	for _, bk := range r.bookings {
		if match(bk) {
			all = append(all, bk)
		}
	}
	sort.Slice(all, func(i, j int) bool { return all[i].StartTime().After(all[j].StartTime()) })
	total := int64(len(all))
	offset := (page - 1) * limit
	if offset >= len(all) {
		return nil, total, nil
	}
	end := offset + limit
	if end > len(all) {
		end = len(all)
	}
	return all[offset:end], total, nil
}

func (r *fakeBookingRepo) FindByClientID(_ context.Context, clientID uuid.UUID, page, limit int) ([]*bookingDomain.Booking, int64, error) {
	return r.findBy(func(b *bookingDomain.Booking) bool { return b.ClientID() == clientID }, page, limit)
}

func (r *fakeBookingRepo) FindByWorkerID(_ context.Context, workerID uuid.UUID, page, limit int) ([]*bookingDomain.Booking, int64, error) {
	return r.findBy(func(b *bookingDomain.Booking) bool { return b.WorkerID() == workerID }, page, limit)
}

func (r *fakeBookingRepo) FindByBusinessID(_ context.Context, businessID uuid.UUID, page, limit int) ([]*bookingDomain.Booking, int64, error) {
	return r.findBy(func(b *bookingDomain.Booking) bool { return b.BusinessID() == businessID }, page, limit)
}

func (r *fakeBookingRepo) ListAll(_ context.Context, page, limit int) ([]*bookingDomain.Booking, int64, error) {
	return r.findBy(func(*bookingDomain.Booking) bool { return true }, page, limit)
}

func (r *fakeBookingRepo) CountByStatus(_ context.Context) (map[string]int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	counts := make(map[string]int64)
	for _, bk := range r.bookings {
		counts[string(bk.Status())]++
	}
	return counts, nil
}

func (r *fakeBookingRepo) CreateIfSlotFree(_ context.Context, bk *bookingDomain.Booking) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.overlapping(bk.WorkerID(), bk.StartTime(), bk.EndTime(), uuid.Nil)) > 0 {
		return shared.NewSlotUnavailableError("the requested time slot is no longer available")
	}
	r.bookings[bk.ID()] = bk
	return nil
}

func (r *fakeBookingRepo) RescheduleIfSlotFree(_ context.Context, bk *bookingDomain.Booking) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.bookings[bk.ID()]; !ok {
		return shared.NewNotFoundError("Booking", bk.ID().String())
	}
	if len(r.overlapping(bk.WorkerID(), bk.StartTime(), bk.EndTime(), bk.ID())) > 0 {
		return shared.NewSlotUnavailableError("the requested time slot is no longer available")
	}
	r.bookings[bk.ID()] = bk
	return nil
}

func (r *fakeBookingRepo) Update(_ context.Context, bk *bookingDomain.Booking) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.bookings[bk.ID()]; !ok {
		return shared.NewNotFoundError("Booking", bk.ID().String())
	}
	r.bookings[bk.ID()] = bk
	return nil
}

// fakeDirectory serves fixed businesses, workers and services.
type fakeDirectory struct {
	businesses map[uuid.UUID]*directory.Business
	workers    map[uuid.UUID]*directory.Worker
	services   map[uuid.UUID]*directory.Service
}

func newFakeDirectory() *fakeDirectory {
	return &fakeDirectory{
		businesses: make(map[uuid.UUID]*directory.Business),
		workers:    make(map[uuid.UUID]*directory.Worker),
		services:   make(map[uuid.UUID]*directory.Service),
	}
}

func (d *fakeDirectory) GetBusiness(_ context.Context, id uuid.UUID) (*directory.Business, error) {
	b, ok := d.businesses[id]
	if !ok {
		return nil, shared.NewNotFoundError("Business", id.String())
	}
	return b, nil
}

func (d *fakeDirectory) GetWorker(_ context.Context, id uuid.UUID) (*directory.Worker, error) {
	w, ok := d.workers[id]
	if !ok {
		return nil, shared.NewNotFoundError("Worker", id.String())
	}
	return w, nil
}

func (d *fakeDirectory) GetService(_ context.Context, id uuid.UUID) (*directory.Service, error) {
	s, ok := d.services[id]
	if !ok {
		return nil, shared.NewNotFoundError("Service", id.String())
	}
	return s, nil
}

// fakeSessionStore is an in-memory checkout.Store; TTLs are ignored.
type fakeSessionStore struct {
	mu       sync.Mutex
	sessions map[uuid.UUID]*checkout.Session
}

func newFakeSessionStore() *fakeSessionStore {
	return &fakeSessionStore{sessions: make(map[uuid.UUID]*checkout.Session)}
}

func (s *fakeSessionStore) Put(_ context.Context, session *checkout.Session, _ time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sessions[session.ID] = session
	return nil
}

func (s *fakeSessionStore) Get(_ context.Context, id uuid.UUID) (*checkout.Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	session, ok := s.sessions[id]
	if !ok {
		return nil, shared.NewNotFoundError("CheckoutSession", id.String())
	}
	return session, nil
}

func (s *fakeSessionStore) Delete(_ context.Context, id uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sessions, id)
	return nil
}

func (s *fakeSessionStore) has(id uuid.UUID) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.sessions[id]
	return ok
}

// fakeGateway reports a configurable capture status per payment ref.
type fakeGateway struct {
	mu       sync.Mutex
	statuses map[string]payment.CaptureStatus
	created  []payment.Intent
}

func newFakeGateway() *fakeGateway {
	return &fakeGateway{statuses: make(map[string]payment.CaptureStatus)}
}

func (g *fakeGateway) CreateIntent(_ context.Context, amountCents int64, currency string, _ map[string]string) (*payment.Intent, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	intent := payment.Intent{
		Ref:          "pi_fake_" + uuid.NewString(),
		ClientSecret: "secret",
		AmountCents:  amountCents,
		Currency:     currency,
	}
	g.created = append(g.created, intent)
	g.statuses[intent.Ref] = payment.CapturePending
	return &intent, nil
}

func (g *fakeGateway) GetCaptureStatus(_ context.Context, ref string) (payment.CaptureStatus, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	status, ok := g.statuses[ref]
	if !ok {
		return payment.CapturePending, nil
	}
	return status, nil
}

func (g *fakeGateway) setStatus(ref string, status payment.CaptureStatus) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.statuses[ref] = status
}

// fakeEscalationRepo is an in-memory escalation repository.
type fakeEscalationRepo struct {
	mu          sync.Mutex
	escalations map[uuid.UUID]*escalation.PaymentEscalation
	saveErr     error
}

func newFakeEscalationRepo() *fakeEscalationRepo {
	return &fakeEscalationRepo{escalations: make(map[uuid.UUID]*escalation.PaymentEscalation)}
}

func (r *fakeEscalationRepo) Save(_ context.Context, e *escalation.PaymentEscalation) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.saveErr != nil {
		return r.saveErr
	}
	r.escalations[e.ID()] = e
	return nil
}

func (r *fakeEscalationRepo) Update(_ context.Context, e *escalation.PaymentEscalation) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.escalations[e.ID()]; !ok {
		return shared.NewNotFoundError("PaymentEscalation", e.ID().String())
	}
	r.escalations[e.ID()] = e
	return nil
}

func (r *fakeEscalationRepo) FindByID(_ context.Context, id uuid.UUID) (*escalation.PaymentEscalation, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	e, ok := r.escalations[id]
	if !ok {
		return nil, shared.NewNotFoundError("PaymentEscalation", id.String())
	}
	return e, nil
}

func (r *fakeEscalationRepo) ListUnresolved(_ context.Context) ([]*escalation.PaymentEscalation, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*escalation.PaymentEscalation
	for _, e := range r.escalations {
		if !e.Resolved() {
			out = append(out, e)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt().Before(out[j].CreatedAt()) })
	return out, nil
}

// fakePublisher records published CloudEvents.
type fakePublisher struct {
	mu     sync.Mutex
	events []kafka.CloudEvent
}

func (p *fakePublisher) PublishEvent(_ context.Context, _ string, event kafka.CloudEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, event)
	return nil
}

func (p *fakePublisher) eventTypes() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	types := make([]string, len(p.events))
	for i, e := range p.events {
		types[i] = e.Type
	}
	return types
}
