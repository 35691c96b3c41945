package gateway

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/nats-io/nats.go/jetstream"
	"github.com/rs/zerolog/log"

	"github.com/feudcast/feudcast/internal/feed"
)

// ConsumerConfig holds configuration for the JetStream change consumer.
type ConsumerConfig struct {
	URL           string
	StreamName    string
	ConsumerName  string
	SubjectFilter string        // e.g., "feud.changes.>"
	MaxDeliver    int           // Max delivery attempts
	AckWait       time.Duration // How long to wait for ack
	MaxAckPending int           // Max messages pending ack
	MaxReconnects int
	ReconnectWait time.Duration
}

// DefaultConsumerConfig returns default consumer configuration.
func DefaultConsumerConfig() ConsumerConfig {
	return ConsumerConfig{
		URL:           nats.DefaultURL,
		StreamName:    "FEUD_CHANGES",
		ConsumerName:  "screen-gateway",
		SubjectFilter: "feud.changes.>",
		MaxDeliver:    5,
		AckWait:       30 * time.Second,
		MaxAckPending: 100,
		MaxReconnects: -1, // Infinite
		ReconnectWait: 2 * time.Second,
	}
}

// ChangeConsumer consumes row changes from JetStream, folds them into the
// state manager and pushes them to the affected sessions' screens.
type ChangeConsumer struct {
	connectionManager *ConnectionManager
	stateManager      *StateManager
	nc                *nats.Conn
	js                jetstream.JetStream
	consumer          jetstream.Consumer
	config            ConsumerConfig
}

// NewChangeConsumer connects to NATS and ensures the durable consumer.
func NewChangeConsumer(cm *ConnectionManager, sm *StateManager, config ConsumerConfig) (*ChangeConsumer, error) {
	opts := []nats.Option{
		nats.MaxReconnects(config.MaxReconnects),
		nats.ReconnectWait(config.ReconnectWait),
		nats.DisconnectErrHandler(func(nc *nats.Conn, err error) {
			log.Error().Err(err).Msg("NATS disconnected")
		}),
		nats.ReconnectHandler(func(nc *nats.Conn) {
			log.Info().Str("url", nc.ConnectedUrl()).Msg("NATS reconnected")
		}),
		nats.ErrorHandler(func(nc *nats.Conn, sub *nats.Subscription, err error) {
			log.Error().Err(err).Msg("NATS error")
		}),
	}

	nc, err := nats.Connect(config.URL, opts...)
	if err != nil {
		return nil, fmt.Errorf("connect to NATS: %w", err)
	}

	js, err := jetstream.New(nc)
	if err != nil {
		nc.Close()
		return nil, fmt.Errorf("create JetStream context: %w", err)
	}

	cc := &ChangeConsumer{
		connectionManager: cm,
		stateManager:      sm,
		nc:                nc,
		js:                js,
		config:            config,
	}

	if err := cc.ensureConsumer(context.Background()); err != nil {
		nc.Close()
		return nil, fmt.Errorf("ensure consumer: %w", err)
	}

	return cc, nil
}

func (cc *ChangeConsumer) ensureConsumer(ctx context.Context) error {
	stream, err := cc.js.Stream(ctx, cc.config.StreamName)
	if err != nil {
		return fmt.Errorf("get stream: %w", err)
	}

	consumerConfig := jetstream.ConsumerConfig{
		Name:          cc.config.ConsumerName,
		Durable:       cc.config.ConsumerName,
		Description:   "Screen gateway change consumer",
		FilterSubject: cc.config.SubjectFilter,
		DeliverPolicy: jetstream.DeliverNewPolicy,
		AckPolicy:     jetstream.AckExplicitPolicy,
		MaxDeliver:    cc.config.MaxDeliver,
		AckWait:       cc.config.AckWait,
		MaxAckPending: cc.config.MaxAckPending,
		ReplayPolicy:  jetstream.ReplayInstantPolicy,
	}

	consumer, err := stream.Consumer(ctx, cc.config.ConsumerName)
	if err != nil {
		consumer, err = stream.CreateConsumer(ctx, consumerConfig)
		if err != nil {
			return fmt.Errorf("create consumer: %w", err)
		}
		log.Info().
			Str("consumer", cc.config.ConsumerName).
			Str("stream", cc.config.StreamName).
			Msg("created JetStream consumer")
	} else {
		log.Info().
			Str("consumer", cc.config.ConsumerName).
			Str("stream", cc.config.StreamName).
			Msg("using existing JetStream consumer")
	}

	cc.consumer = consumer
	return nil
}

// Start begins consuming change events until the context is cancelled.
func (cc *ChangeConsumer) Start(ctx context.Context) error {
	log.Info().
		Str("consumer", cc.config.ConsumerName).
		Str("stream", cc.config.StreamName).
		Msg("starting change consumer")

	messageCh := make(chan jetstream.Msg, 100)

	consumeCtx, err := cc.consumer.Consume(func(msg jetstream.Msg) {
		select {
		case messageCh <- msg:
		case <-ctx.Done():
			msg.Nak()
		}
	})
	if err != nil {
		return fmt.Errorf("start consumer: %w", err)
	}
	defer consumeCtx.Stop()

	for {
		select {
		case <-ctx.Done():
			log.Info().Msg("change consumer shutting down")
			return nil
		case msg := <-messageCh:
			if err := cc.processMessage(msg); err != nil {
				log.Error().
					Err(err).
					Str("subject", msg.Subject()).
					Msg("failed to process message")
				if nakErr := msg.Nak(); nakErr != nil {
					log.Error().Err(nakErr).Msg("failed to NAK message")
				}
			} else {
				if ackErr := msg.Ack(); ackErr != nil {
					log.Error().Err(ackErr).Msg("failed to ACK message")
				}
			}
		}
	}
}

// processMessage folds one change into the held states and broadcasts it to
// the sessions it touched.
func (cc *ChangeConsumer) processMessage(msg jetstream.Msg) error {
	var event feed.ChangeEvent
	if err := json.Unmarshal(msg.Data(), &event); err != nil {
		return fmt.Errorf("unmarshal change event: %w", err)
	}

	log.Debug().
		Str("table", event.Table).
		Str("op", event.Op).
		Str("subject", msg.Subject()).
		Msg("processing change event")

	affected, err := cc.stateManager.ApplyChange(event)
	if err != nil {
		return fmt.Errorf("apply change: %w", err)
	}

	for _, sessionID := range affected {
		cc.connectionManager.BroadcastToSession(sessionID, &ScreenMessage{
			Type:      MessageTypeChange,
			SessionID: sessionID.String(),
			Table:     event.Table,
			Op:        event.Op,
			Row:       event.Row,
			Timestamp: event.Timestamp,
		})
	}

	return nil
}

// Stop gracefully shuts down the consumer.
func (cc *ChangeConsumer) Stop() error {
	log.Info().Msg("stopping change consumer")
	if cc.nc != nil {
		cc.nc.Close()
	}
	return nil
}
