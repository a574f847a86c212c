package feed

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/segmentio/kafka-go"

	"github.com/Dicklesworthstone/netfall/internal/util"
)

// KafkaConfig selects the topic to consume request events from.
type KafkaConfig struct {
	Brokers []string
	Topic   string
	GroupID string
}

// ErrKafkaConfig is returned when brokers or topic are missing.
var ErrKafkaConfig = errors.New("kafka feed needs brokers and a topic")

// payloadPreview bounds the bytes of a skipped message that are logged.
const payloadPreview = 120

// messageReader is the part of *kafka.Reader the feed uses.
type messageReader interface {
	ReadMessage(ctx context.Context) (kafka.Message, error)
	Close() error
}

// Kafka consumes JSON lifecycle events (see Event) from a topic.
type Kafka struct {
	cfg       KafkaConfig
	newReader func(kafka.ReaderConfig) messageReader
	backoff   time.Duration
}

// NewKafka creates a Kafka source.
func NewKafka(cfg KafkaConfig) (*Kafka, error) {
	brokers := make([]string, 0, len(cfg.Brokers))
	for _, b := range cfg.Brokers {
		for _, part := range strings.Split(b, ",") {
			if part = strings.TrimSpace(part); part != "" {
				brokers = append(brokers, part)
			}
		}
	}
	cfg.Brokers = brokers
	if len(cfg.Brokers) == 0 || strings.TrimSpace(cfg.Topic) == "" {
		return nil, ErrKafkaConfig
	}
	return &Kafka{
		cfg: cfg,
		newReader: func(rc kafka.ReaderConfig) messageReader {
			return kafka.NewReader(rc)
		},
		backoff: 500 * time.Millisecond,
	}, nil
}

// Name implements Source.
func (k *Kafka) Name() string { return "kafka" }

// Run reads until ctx is cancelled. Read errors are logged and retried;
// malformed messages are logged and skipped.
func (k *Kafka) Run(ctx context.Context, sink Sink) error {
	reader := k.newReader(kafka.ReaderConfig{
		Brokers:  k.cfg.Brokers,
		Topic:    k.cfg.Topic,
		GroupID:  k.cfg.GroupID,
		MinBytes: 1,
		MaxBytes: 10e6,
	})
	defer reader.Close()

	slog.Default().Info("kafka feed reading", "brokers", k.cfg.Brokers, "topic", k.cfg.Topic, "group", k.cfg.GroupID)
	for {
		msg, err := reader.ReadMessage(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			slog.Default().Warn("kafka read error", "topic", k.cfg.Topic, "error", err)
			select {
			case <-ctx.Done():
				return nil
			case <-time.After(k.backoff):
			}
			continue
		}
		if err := k.handle(sink, msg); err != nil {
			slog.Default().Warn("kafka message skipped", "topic", msg.Topic,
				"partition", msg.Partition, "offset", msg.Offset, "error", err,
				"payload", util.Truncate(string(msg.Value), payloadPreview))
		}
	}
}

func (k *Kafka) handle(sink Sink, msg kafka.Message) error {
	ev, err := DecodeEvent(msg.Value)
	if err != nil {
		return err
	}
	if ev.ID == "" && len(msg.Key) > 0 {
		ev.ID = string(msg.Key)
	}
	if err := ev.Dispatch(sink); err != nil {
		return fmt.Errorf("%s %s: %w", ev.Op, ev.ID, err)
	}
	return nil
}
