package test

import (
	"context"
	"encoding/json"
	"fmt"
	"testing"
	"time"

	"github.com/autohive/arledger/internal/ledger/activity"
	"github.com/autohive/arledger/internal/ledger/controller"
	"github.com/autohive/arledger/internal/ledger/db"
	"github.com/autohive/arledger/internal/ledger/events"
	"github.com/autohive/arledger/internal/ledger/models"
	"github.com/autohive/arledger/internal/ledger/reconcile"
	"github.com/cenkalti/backoff/v4"
	"github.com/google/uuid"
	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/suite"
	"go.uber.org/zap"
)

const testTopic = "ledger.activity.test"

type IntegrationTestSuite struct {
	suite.Suite
	dbRepo      *db.Repository
	kafkaReader *kafka.Reader
	producer    *events.Producer
	logger      *zap.Logger
	testTimeout time.Duration
}

func TestIntegrationSuite(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration tests")
	}
	suite.Run(t, new(IntegrationTestSuite))
}

func (s *IntegrationTestSuite) SetupSuite() {
	s.logger = zap.NewNop()
	s.testTimeout = 20 * time.Second

	var dbErr error
	s.dbRepo, dbErr = initializeDBWithRetry()
	if dbErr != nil {
		s.T().Fatal("Database initialization failed:", dbErr)
	}
}

func initializeDBWithRetry() (*db.Repository, error) {
	cfg := &db.Config{
		Host:     "localhost",
		Port:     5432,
		User:     "test",
		Password: "test",
		DBName:   "test",
		SSLMode:  "disable",
	}

	var repo *db.Repository
	var err error

	err = backoff.Retry(func() error {
		repo, err = db.NewRepository(cfg)
		return err
	}, backoff.NewExponentialBackOff())

	return repo, err
}

func initializeKafkaWithRetry(topic string) (*events.Producer, *kafka.Reader, error) {
	kafkaBrokers := []string{"localhost:9092"}
	var producer *events.Producer
	var reader *kafka.Reader
	var err error

	err = backoff.Retry(func() error {
		producer, err = events.NewProducer(kafkaBrokers, zap.NewNop(), topic)
		if err != nil || producer == nil {
			return fmt.Errorf("failed to create Kafka producer: %v", err)
		}
		return nil
	}, backoff.NewExponentialBackOff())

	if err != nil {
		return nil, nil, fmt.Errorf("Kafka producer initialization failed: %w", err)
	}

	err = backoff.Retry(func() error {
		conn, err := kafka.Dial("tcp", kafkaBrokers[0])
		if err != nil {
			return err
		}
		defer conn.Close()

		partitions, err := conn.ReadPartitions(topic)
		if err != nil || len(partitions) == 0 {
			return fmt.Errorf("topic %s not found", topic)
		}
		return nil
	}, backoff.WithMaxRetries(backoff.NewExponentialBackOff(), 5))

	if err != nil {
		return nil, nil, fmt.Errorf("Kafka topic check failed: %w", err)
	}

	reader = kafka.NewReader(kafka.ReaderConfig{
		Brokers:     kafkaBrokers,
		Topic:       topic,
		MinBytes:    1,
		MaxBytes:    10e6,
		StartOffset: kafka.LastOffset,
	})

	return producer, reader, nil
}

func (s *IntegrationTestSuite) SetupTest() {
	if s.dbRepo == nil {
		s.T().Fatal("Database connection not initialized")
	}

	ctx, cancel := context.WithTimeout(context.Background(), s.testTimeout)
	defer cancel()

	if err := s.dbRepo.Exec(ctx, "TRUNCATE TABLE companies, contracts, alternative_contacts, activity_logs CASCADE"); err != nil {
		s.T().Fatal("Failed to clean database:", err)
	}
}

func (s *IntegrationTestSuite) TestReconcileUpload() {
	var kafkaErr error
	s.producer, s.kafkaReader, kafkaErr = initializeKafkaWithRetry(testTopic)
	if kafkaErr != nil {
		s.T().Fatal("Kafka initialization failed:", kafkaErr)
	}

	ctx, cancel := context.WithTimeout(context.Background(), s.testTimeout)
	defer cancel()

	act := activity.NewLogger(s.producer, s.logger)
	engine := reconcile.NewEngine(s.dbRepo, act, s.logger)

	// An unpaid contract on record that the extract no longer lists. The
	// pass must settle it and announce the settlement on the stream.
	stale := &models.Company{Name: "Stale Corp"}
	if err := s.dbRepo.CreateCompany(ctx, stale); err != nil {
		s.T().Fatal("CreateCompany failed:", err)
	}
	if err := s.dbRepo.CreateContract(ctx, &models.Contract{
		ContractNumber: "S-1", AmountDue: 75, DateIn: time.Now(), CompanyID: stale.ID,
	}); err != nil {
		s.T().Fatal("CreateContract failed:", err)
	}

	result, err := engine.Reconcile(ctx, []reconcile.Row{
		{CompanyName: "Acme Corp", ContractNumber: "A-1", AmountDue: "500", DateIn: "01/15/2024", Paid: "No"},
	})
	if err != nil {
		s.T().Fatal("Reconcile failed:", err)
	}

	assert.Equal(s.T(), 1, result.CompaniesCreated)
	assert.Equal(s.T(), 1, result.ContractsCreated)
	assert.Equal(s.T(), 1, result.ContractsSettled)

	settled, err := s.dbRepo.GetContract(ctx, stale.ID, "S-1")
	if err != nil {
		s.T().Fatal("GetContract failed:", err)
	}
	assert.True(s.T(), settled.Paid)

	time.Sleep(2 * time.Second)
	s.verifyKafkaEvent(ctx, events.ContractSettled, stale.ID)
}

func (s *IntegrationTestSuite) TestTogglePaidStatus() {
	var kafkaErr error
	s.producer, s.kafkaReader, kafkaErr = initializeKafkaWithRetry(testTopic)
	if kafkaErr != nil {
		s.T().Fatal("Kafka initialization failed:", kafkaErr)
	}

	ctx, cancel := context.WithTimeout(context.Background(), s.testTimeout)
	defer cancel()

	act := activity.NewLogger(s.producer, s.logger)
	ctrl := controller.NewService(s.dbRepo, act, s.logger)

	company := &models.Company{Name: "Acme Corp"}
	if err := s.dbRepo.CreateCompany(ctx, company); err != nil {
		s.T().Fatal("CreateCompany failed:", err)
	}
	if err := s.dbRepo.CreateContract(ctx, &models.Contract{
		ContractNumber: "A-1", AmountDue: 500, DateIn: time.Now(), CompanyID: company.ID,
	}); err != nil {
		s.T().Fatal("CreateContract failed:", err)
	}

	contract, err := ctrl.TogglePaidStatus(ctx, "Jordan", company.ID, "A-1")
	if err != nil {
		s.T().Fatal("TogglePaidStatus failed:", err)
	}
	assert.True(s.T(), contract.Paid)

	entries, err := s.dbRepo.ListActivities(ctx, company.ID)
	if err != nil {
		s.T().Fatal("ListActivities failed:", err)
	}
	assert.Len(s.T(), entries, 1)
	assert.Equal(s.T(), string(models.ActionMarkedPaid), entries[0].Action)

	time.Sleep(2 * time.Second)
	s.verifyKafkaEvent(ctx, events.ActivityRecorded, company.ID)
}

func (s *IntegrationTestSuite) verifyKafkaEvent(ctx context.Context, eventType events.EventType, companyID uuid.UUID) {
	event := s.consumeKafkaEvent(ctx, eventType, companyID)

	if event.Entry == nil {
		s.T().Fatal("Received nil entry in Kafka event")
	}
	if event.Entry.CompanyID == nil {
		s.T().Fatal("Received event without company ID")
	}
	assert.Equal(s.T(), companyID.String(), event.Entry.CompanyID.String(), "Kafka message company ID mismatch")
}

func (s *IntegrationTestSuite) consumeKafkaEvent(ctx context.Context, eventType events.EventType, companyID uuid.UUID) events.Event {
	ctx, cancel := context.WithTimeout(ctx, 60*time.Second)
	defer cancel()

	maxRetries := 200
	attempts := 0
	for {
		select {
		case <-ctx.Done():
			s.T().Fatalf("Timeout: No %s event received after %d attempts", eventType, attempts)
			return events.Event{}
		default:
			if attempts >= maxRetries {
				s.T().Fatalf("Max retry attempts reached for %s", eventType)
				return events.Event{}
			}
			msg, err := s.kafkaReader.ReadMessage(ctx)
			if err != nil {
				s.T().Logf("Kafka read attempt %d failed: %v", attempts, err)
				attempts++
				time.Sleep(1 * time.Second)
				continue
			}
			if string(msg.Key) != companyID.String() {
				s.T().Logf("Skipping message with unmatched key: %s (Expected: %s)", string(msg.Key), companyID.String())
				attempts++
				continue
			}
			var event events.Event
			if err := json.Unmarshal(msg.Value, &event); err != nil {
				s.T().Fatalf("Failed to unmarshal Kafka message: %v", err)
			}
			if event.Type != eventType {
				s.T().Logf("Skipping message with unmatched eventType: %s (Expected: %s)", string(event.Type), eventType)
				attempts++
				continue
			}
			return event
		}
	}
}
