// internal/events/kafka_publisher.go
package events

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/lightningnetwork/lnd/clock"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"

	"wallet-sync-service/internal/domain"
	"wallet-sync-service/pkg/utils"
)

const (
	EventStateUpdated    = "wallet.state.updated"
	EventTransactionSent = "wallet.transaction.sent"

	publishTimeout = 10 * time.Second
)

var kafkaPublishErrors = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Name: "wallet_event_publish_errors_total",
		Help: "Total number of wallet events that failed to publish",
	},
	[]string{"event"},
)

// MessageWriter is the part of *kafka.Writer the publisher needs
type MessageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// Event is the envelope of every published message
type Event struct {
	ID         string          `json:"id"`
	Type       string          `json:"type"`
	PublicKey  string          `json:"public_key"`
	OccurredAt time.Time       `json:"occurred_at"`
	Payload    json.RawMessage `json:"payload"`
}

// StateUpdatedPayload summarises a persisted refresh
type StateUpdatedPayload struct {
	Balance            string                      `json:"balance"`
	BalanceNano        int64                       `json:"balance_nano"`
	LastTransactionID  *domain.WalletTransactionID `json:"last_transaction_id,omitempty"`
	SyncTimestamp      int64                       `json:"sync_timestamp"`
	TopTransactions    int                         `json:"top_transactions"`
	PendingTransaction int                         `json:"pending_transactions"`
}

// TransactionSentPayload describes a broadcast transfer
type TransactionSentPayload struct {
	BodyHash            []byte `json:"body_hash"`
	Destination         string `json:"destination"`
	Amount              string `json:"amount"`
	AmountNano          int64  `json:"amount_nano"`
	ValidUntilTimestamp int64  `json:"valid_until_timestamp"`
}

// KafkaPublisher emits wallet events. Failures are logged and counted, never
// returned to the operation that produced the event.
type KafkaPublisher struct {
	writer MessageWriter
	clock  clock.Clock
	logger *zap.Logger
}

var _ domain.EventPublisher = (*KafkaPublisher)(nil)

// NewKafkaWriter builds the batched async writer used in production
func NewKafkaWriter(brokers []string, topic string, logger *zap.Logger) *kafka.Writer {
	return &kafka.Writer{
		Addr:         kafka.TCP(brokers...),
		Topic:        topic,
		Balancer:     &kafka.LeastBytes{},
		RequiredAcks: kafka.RequireOne,
		Async:        true,
		MaxAttempts:  3,
		BatchSize:    100,
		BatchTimeout: 10 * time.Millisecond,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
		ErrorLogger: kafka.LoggerFunc(func(msg string, args ...interface{}) {
			logger.Sugar().Warnf(msg, args...)
		}),
	}
}

func NewKafkaPublisher(writer MessageWriter, clk clock.Clock, logger *zap.Logger) *KafkaPublisher {
	if clk == nil {
		clk = clock.NewDefaultClock()
	}
	return &KafkaPublisher{writer: writer, clock: clk, logger: logger}
}

func (p *KafkaPublisher) PublishStateUpdated(ctx context.Context, publicKey domain.WalletPublicKey, state *domain.CombinedWalletState) {
	if state == nil {
		return
	}
	payload := StateUpdatedPayload{
		Balance:            utils.FormatBalance(state.WalletState.Balance),
		BalanceNano:        state.WalletState.Balance,
		LastTransactionID:  state.WalletState.LastTransactionID,
		SyncTimestamp:      state.Timestamp,
		TopTransactions:    len(state.TopTransactions),
		PendingTransaction: len(state.PendingTransactions),
	}
	p.publish(ctx, EventStateUpdated, publicKey, payload)
}

func (p *KafkaPublisher) PublishTransactionSent(ctx context.Context, publicKey domain.WalletPublicKey, pending domain.PendingWalletTransaction) {
	payload := TransactionSentPayload{
		BodyHash:            pending.BodyHash,
		Destination:         pending.Address,
		Amount:              utils.FormatBalance(pending.Value),
		AmountNano:          pending.Value,
		ValidUntilTimestamp: pending.ValidUntilTimestamp,
	}
	p.publish(ctx, EventTransactionSent, publicKey, payload)
}

// Close flushes pending async writes
func (p *KafkaPublisher) Close() error {
	return p.writer.Close()
}

func (p *KafkaPublisher) publish(ctx context.Context, eventType string, publicKey domain.WalletPublicKey, payload interface{}) {
	msg, err := p.buildMessage(eventType, publicKey, payload)
	if err != nil {
		p.logger.Error("failed to marshal wallet event",
			zap.String("event", eventType),
			zap.Error(err),
		)
		kafkaPublishErrors.WithLabelValues(eventType).Inc()
		return
	}

	// Detached from the caller so a finished request does not drop the event
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), publishTimeout)
	defer cancel()

	if err := p.writer.WriteMessages(ctx, msg); err != nil {
		p.logger.Warn("failed to publish wallet event",
			zap.String("event", eventType),
			zap.String("public_key", string(publicKey)),
			zap.Error(err),
		)
		kafkaPublishErrors.WithLabelValues(eventType).Inc()
		return
	}

	p.logger.Debug("wallet event published",
		zap.String("event", eventType),
		zap.String("public_key", string(publicKey)),
	)
}

func (p *KafkaPublisher) buildMessage(eventType string, publicKey domain.WalletPublicKey, payload interface{}) (kafka.Message, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return kafka.Message{}, err
	}

	now := p.clock.Now().UTC()
	event := Event{
		ID:         uuid.NewString(),
		Type:       eventType,
		PublicKey:  string(publicKey),
		OccurredAt: now,
		Payload:    body,
	}

	value, err := json.Marshal(event)
	if err != nil {
		return kafka.Message{}, err
	}

	return kafka.Message{
		Key:   []byte(publicKey),
		Value: value,
		Time:  now,
		Headers: []kafka.Header{
			{Key: "event_type", Value: []byte(eventType)},
		},
	}, nil
}
