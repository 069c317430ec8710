package matchpublisher

import (
	"context"
	"fmt"

	matchpublisherv1 "github.com/quantfold/exchange-sim/internal/domain/match-publisher/v1"
	"github.com/quantfold/exchange-sim/pkg/config"
	"github.com/quantfold/exchange-sim/pkg/logger"
	"github.com/segmentio/kafka-go"
)

// Publisher writes match events to the match topic.
type Publisher struct {
	kafkaWriter *kafka.Writer
	logger      logger.Interface
}

// NewPublisher creates a Kafka writer for the match topic. It returns an
// implementation of the MatchPublisher interface.
func NewPublisher(cfg config.MatchPublisherConfig, log logger.Interface) *Publisher {
	kafkaWriter := &kafka.Writer{
		Addr:         kafka.TCP(cfg.Brokers...),
		Topic:        cfg.Topic,
		Balancer:     &kafka.Hash{},
		RequiredAcks: kafka.RequireOne,
	}

	return &Publisher{
		kafkaWriter: kafkaWriter,
		logger:      log,
	}
}

// PublishMatchEvent writes a match event to the match topic, keyed by symbol
// so consumers observe per-symbol ordering.
func (p *Publisher) PublishMatchEvent(ctx context.Context, matchEvent *matchpublisherv1.MatchEvent) error {
	value := matchpublisherv1.ToBytes(matchEvent)
	if value == nil {
		return fmt.Errorf("failed to serialize match event for %s", matchEvent.Symbol)
	}

	msg := kafka.Message{
		Key:   []byte(matchEvent.Symbol),
		Value: value,
	}

	if err := p.kafkaWriter.WriteMessages(ctx, msg); err != nil {
		p.logger.ErrorContext(ctx, err,
			logger.Field{Key: "operation", Value: "PublishMatchEvent"},
			logger.Field{Key: "symbol", Value: matchEvent.Symbol},
		)
		return err
	}

	p.logger.DebugContext(ctx, "PublishMatchEvent",
		logger.Field{Key: "symbol", Value: matchEvent.Symbol},
		logger.Field{Key: "buy_order_id", Value: matchEvent.BuyOrderID},
		logger.Field{Key: "sell_order_id", Value: matchEvent.SellOrderID},
		logger.Field{Key: "quantity", Value: matchEvent.Quantity},
		logger.Field{Key: "price", Value: matchEvent.Price.String()},
	)

	return nil
}

// Close flushes and closes the Kafka writer.
func (p *Publisher) Close() error {
	if err := p.kafkaWriter.Close(); err != nil {
		p.logger.Error(err,
			logger.Field{Key: "operation", Value: "Close"},
		)
		return err
	}
	return nil
}
