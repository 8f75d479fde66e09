//go:build integration

package main_test

import (
	"context"
	"fmt"
	"net"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	kafkago "github.com/segmentio/kafka-go"
	"github.com/slotwise/service-scheduling/internal/application"
	bookingDomain "github.com/slotwise/service-scheduling/internal/domain/booking"
	"github.com/slotwise/service-scheduling/internal/domain/checkout"
	"github.com/slotwise/service-scheduling/internal/domain/payment"
	"github.com/slotwise/service-scheduling/internal/domain/shared"
	"github.com/slotwise/service-scheduling/internal/events/consumer"
	"github.com/slotwise/service-scheduling/internal/platform/kafka"
	"github.com/slotwise/service-scheduling/internal/repository"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	kafkamodule "github.com/testcontainers/testcontainers-go/modules/kafka"
	"github.com/testcontainers/testcontainers-go/wait"
	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

// testInfra holds shared test infrastructure.
type testInfra struct {
	DB           *gorm.DB
	KafkaBrokers []string
	Cleanup      func()
}

// schedulingStack holds wired-up scheduling service components. The payment
// gateway and the session store are in-process stands-in; everything else is
// real.
type schedulingStack struct {
	Bookings        *application.BookingService
	Saga            *application.CheckoutSaga
	Consumer        *consumer.PaymentEventConsumer
	Gateway         *stubGateway
	CleanupProducer func()
}

// testDirectory holds the IDs of a seeded business with one worker and one
// 45-minute service.
type testDirectory struct {
	BusinessID uuid.UUID
	OwnerID    uuid.UUID
	WorkerID   uuid.UUID
	ServiceID  uuid.UUID
}

// stubGateway is an in-process payment.Gateway whose capture status the test
// controls.
type stubGateway struct {
	mu       sync.Mutex
	statuses map[string]payment.CaptureStatus
}

func newStubGateway() *stubGateway {
	return &stubGateway{statuses: make(map[string]payment.CaptureStatus)}
}

func (g *stubGateway) CreateIntent(_ context.Context, amountCents int64, currency string, _ map[string]string) (*payment.Intent, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	intent := &payment.Intent{
		Ref:          "pi_it_" + uuid.NewString(),
		ClientSecret: "secret",
		AmountCents:  amountCents,
		Currency:     currency,
	}
	g.statuses[intent.Ref] = payment.CapturePending
	return intent, nil
}

func (g *stubGateway) GetCaptureStatus(_ context.Context, ref string) (payment.CaptureStatus, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.statuses[ref], nil
}

func (g *stubGateway) Capture(ref string) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.statuses[ref] = payment.CaptureSucceeded
}

// memorySessionStore is an in-process checkout.Store for integration tests
// that exercise the saga without a Redis container.
type memorySessionStore struct {
	mu       sync.Mutex
	sessions map[uuid.UUID]*checkout.Session
}

func newMemorySessionStore() *memorySessionStore {
	return &memorySessionStore{sessions: make(map[uuid.UUID]*checkout.Session)}
}

func (s *memorySessionStore) Put(_ context.Context, session *checkout.Session, _ time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sessions[session.ID] = session
	return nil
}

func (s *memorySessionStore) Get(_ context.Context, id uuid.UUID) (*checkout.Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	session, ok := s.sessions[id]
	if !ok {
		return nil, shared.NewNotFoundError("CheckoutSession", id.String())
	}
	return session, nil
}

func (s *memorySessionStore) Delete(_ context.Context, id uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sessions, id)
	return nil
}

// setupContainers starts PostgreSQL and Kafka testcontainers and returns a connected GORM DB.
func setupContainers(t *testing.T) *testInfra {
	t.Helper()
	ctx := context.Background()

	pgReq := testcontainers.ContainerRequest{
		Image:        "postgres:16-alpine",
		ExposedPorts: []string{"5432/tcp"},
		Env: map[string]string{
			"POSTGRES_USER":     "test",
			"POSTGRES_PASSWORD": "test",
			"POSTGRES_DB":       "test_scheduling",
		},
		WaitingFor: wait.ForLog("database system is ready to accept connections").
			WithOccurrence(2).
			WithStartupTimeout(60 * time.Second),
	}
	pgContainer, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: pgReq,
		Started:          true,
	})
	require.NoError(t, err, "failed to start PostgreSQL container")

	pgHost, err := pgContainer.Host(ctx)
	require.NoError(t, err)
	pgPort, err := pgContainer.MappedPort(ctx, "5432")
	require.NoError(t, err)

	dsn := fmt.Sprintf("host=%s port=%s user=test password=test dbname=test_scheduling sslmode=disable", pgHost, pgPort.Port())

	// Poll until GORM can actually connect and ping.
	var db *gorm.DB
	require.Eventually(t, func() bool {
		var err error
		db, err = gorm.Open(postgres.Open(dsn), &gorm.Config{})
		if err != nil {
			return false
		}
		sqlDB, err := db.DB()
		if err != nil {
			return false
		}
		return sqlDB.Ping() == nil
	}, 30*time.Second, 1*time.Second, "PostgreSQL not ready for connections")

	require.NoError(t, db.AutoMigrate(
		&repository.BusinessModel{},
		&repository.WorkerModel{},
		&repository.ServiceModel{},
		&repository.BookingModel{},
		&repository.EscalationModel{},
	))

	// Start Kafka container using confluent-local (supports KRaft natively).
	kafkaContainer, err := kafkamodule.Run(ctx, "confluentinc/confluent-local:7.5.0")
	require.NoError(t, err, "failed to start Kafka container")

	kafkaBrokers, err := kafkaContainer.Brokers(ctx)
	require.NoError(t, err, "failed to get Kafka brokers")

	// Pre-create required topics.
	createTopics(t, kafkaBrokers, "booking.events", "payment.events")

	cleanup := func() {
		if err := kafkaContainer.Terminate(ctx); err != nil {
			t.Logf("failed to terminate Kafka container: %v", err)
		}
		if err := pgContainer.Terminate(ctx); err != nil {
			t.Logf("failed to terminate PostgreSQL container: %v", err)
		}
	}

	return &testInfra{
		DB:           db,
		KafkaBrokers: kafkaBrokers,
		Cleanup:      cleanup,
	}
}

// setupSchedulingStack wires up the full scheduling service stack.
func setupSchedulingStack(t *testing.T, db *gorm.DB, brokers []string) *schedulingStack {
	t.Helper()
	logger, _ := zap.NewDevelopment()

	bookingRepo := repository.NewGormBookingRepository(db)
	dir := repository.NewGormDirectory(db)
	escalationRepo := repository.NewGormEscalationRepository(db)
	gateway := newStubGateway()
	producer := kafka.NewProducer(brokers, logger)

	bookingSvc := application.NewBookingService(bookingRepo, dir, producer, logger)
	saga := application.NewCheckoutSaga(
		bookingRepo,
		dir,
		newMemorySessionStore(),
		gateway,
		bookingDomain.NewStandardPricingStrategy(),
		escalationRepo,
		producer,
		logger,
		30*time.Minute,
	)

	groupID := fmt.Sprintf("test-scheduling-%s", uuid.New().String()[:8])
	paymentConsumer := consumer.NewPaymentEventConsumer(brokers, groupID, saga, logger)

	return &schedulingStack{
		Bookings:        bookingSvc,
		Saga:            saga,
		Consumer:        paymentConsumer,
		Gateway:         gateway,
		CleanupProducer: func() { _ = producer.Close() },
	}
}

// seedDirectory inserts a business with one active worker and one 45-minute
// service that requires prepayment.
func seedDirectory(t *testing.T, db *gorm.DB) testDirectory {
	t.Helper()
	now := time.Now().UTC()
	d := testDirectory{
		BusinessID: uuid.New(),
		OwnerID:    uuid.New(),
		WorkerID:   uuid.New(),
		ServiceID:  uuid.New(),
	}

	require.NoError(t, db.Create(&repository.BusinessModel{
		ID:                 d.BusinessID,
		OwnerID:            d.OwnerID,
		Name:               "Integration Cuts",
		Timezone:           "UTC",
		OpenMinute:         9 * 60,
		CloseMinute:        17 * 60,
		SlotStepMinutes:    15,
		RequiresPrepayment: true,
		DepositPercent:     0,
		CreatedAt:          now,
		UpdatedAt:          now,
	}).Error)

	require.NoError(t, db.Create(&repository.WorkerModel{
		ID:         d.WorkerID,
		BusinessID: d.BusinessID,
		Name:       "Integration Worker",
		Active:     true,
		CreatedAt:  now,
		UpdatedAt:  now,
	}).Error)

	require.NoError(t, db.Create(&repository.ServiceModel{
		ID:              d.ServiceID,
		BusinessID:      d.BusinessID,
		Name:            "Integration Haircut",
		DurationMinutes: 45,
		PriceCents:      5000,
		Active:          true,
		CreatedAt:       now,
		UpdatedAt:       now,
	}).Error)

	return d
}

func ownerActor(d testDirectory) shared.Actor {
	return shared.Actor{ID: d.OwnerID, Role: shared.RoleBusinessOwner}
}

// publishTestEvent publishes a CloudEvent to Kafka.
func publishTestEvent(t *testing.T, brokers []string, topic, source, eventType string, data interface{}) {
	t.Helper()
	logger, _ := zap.NewDevelopment()
	producer := kafka.NewProducer(brokers, logger)
	defer func() { _ = producer.Close() }()

	ce, err := kafka.NewCloudEvent(source, eventType, data)
	require.NoError(t, err, "failed to create cloud event")

	err = producer.PublishEvent(context.Background(), topic, ce)
	require.NoError(t, err, "failed to publish event")
}

// waitForBookingStatus polls the bookings table until a booking for the worker
// at the given start time reaches the status.
func waitForBookingStatus(t *testing.T, db *gorm.DB, workerID uuid.UUID, start time.Time, expectedStatus string, timeout time.Duration) repository.BookingModel {
	t.Helper()
	var result repository.BookingModel
	require.Eventually(t, func() bool {
		var model repository.BookingModel
		err := db.Where("worker_id = ? AND start_time = ? AND status = ?", workerID, start, expectedStatus).
			First(&model).Error
		if err != nil {
			return false
		}
		result = model
		return true
	}, timeout, 200*time.Millisecond, "no booking reached status %s", expectedStatus)
	return result
}

// consumeOneEvent reads from a Kafka topic until it finds an event of the expected type.
func consumeOneEvent(t *testing.T, brokers []string, topic, expectedType string, timeout time.Duration) kafka.CloudEvent {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	groupID := fmt.Sprintf("test-assert-%s", uuid.New().String()[:8])
	reader := kafkago.NewReader(kafkago.ReaderConfig{
		Brokers:     brokers,
		GroupID:     groupID,
		Topic:       topic,
		MinBytes:    1,
		MaxBytes:    10e6,
		StartOffset: kafkago.FirstOffset,
	})
	defer func() { _ = reader.Close() }()

	for {
		msg, err := reader.ReadMessage(ctx)
		if err != nil {
			if ctx.Err() != nil {
				t.Fatalf("timed out waiting for event type %q on topic %q", expectedType, topic)
			}
			continue
		}
		ce, err := kafka.ParseCloudEvent(msg.Value)
		if err != nil {
			continue
		}
		if ce.Type == expectedType {
			return ce
		}
	}
}

// createTopics pre-creates Kafka topics so producers don't fail with "Unknown Topic".
func createTopics(t *testing.T, brokers []string, topics ...string) {
	t.Helper()
	conn, err := kafkago.Dial("tcp", brokers[0])
	require.NoError(t, err, "failed to dial Kafka for topic creation")
	defer conn.Close()

	controller, err := conn.Controller()
	require.NoError(t, err, "failed to get Kafka controller")

	controllerConn, err := kafkago.Dial("tcp", net.JoinHostPort(controller.Host, fmt.Sprintf("%d", controller.Port)))
	require.NoError(t, err, "failed to connect to Kafka controller")
	defer controllerConn.Close()

	topicConfigs := make([]kafkago.TopicConfig, len(topics))
	for i, topic := range topics {
		topicConfigs[i] = kafkago.TopicConfig{
			Topic:             topic,
			NumPartitions:     1,
			ReplicationFactor: 1,
		}
	}
	err = controllerConn.CreateTopics(topicConfigs...)
	require.NoError(t, err, "failed to create Kafka topics")

	// Give Kafka a moment to propagate topic metadata.
	time.Sleep(1 * time.Second)
}
