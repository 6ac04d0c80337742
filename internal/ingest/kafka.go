package ingest

import (
	"context"
	"errors"
	"io"
	"strings"
	"time"

	"github.com/dongbab/power-demand-prediction-platform-sub000/internal/metrics"
	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"
)

// Recorder receives ingest counters. *metrics.Metrics implements it.
type Recorder interface {
	IngestMessage(source, outcome string)
	SetBuffered(station string, count int)
}

type nopRecorder struct{}

func (nopRecorder) IngestMessage(string, string) {}
func (nopRecorder) SetBuffered(string, int)      {}

// KafkaConfig holds the consumer settings. Brokers, Topic and GroupID are required.
type KafkaConfig struct {
	Brokers     []string
	Topic       string
	GroupID     string
	PollTimeout time.Duration
}

// messageReader is the subset of *kafka.Reader the consumer depends on.
type messageReader interface {
	FetchMessage(ctx context.Context) (kafka.Message, error)
	CommitMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// KafkaConsumer streams session readings from Kafka into a SessionStore.
type KafkaConsumer struct {
	cfg      KafkaConfig
	reader   messageReader
	store    *SessionStore
	logger   *zap.Logger
	recorder Recorder
	poll     time.Duration
}

// NewKafkaConsumer builds a group reader for cfg.
func NewKafkaConsumer(cfg KafkaConfig, store *SessionStore, logger *zap.Logger, rec Recorder) (*KafkaConsumer, error) {
	if len(cfg.Brokers) == 0 {
		return nil, errors.New("at least one broker is required")
	}
	if strings.TrimSpace(cfg.Topic) == "" {
		return nil, errors.New("session topic must not be empty")
	}
	if strings.TrimSpace(cfg.GroupID) == "" {
		return nil, errors.New("consumer group must not be empty")
	}

	reader := kafka.NewReader(kafka.ReaderConfig{
		Brokers:     cfg.Brokers,
		GroupID:     cfg.GroupID,
		Topic:       cfg.Topic,
		StartOffset: kafka.FirstOffset,
		MinBytes:    1,
		MaxBytes:    10e6,
	})
	return newKafkaConsumer(cfg, reader, store, logger, rec), nil
}

func newKafkaConsumer(cfg KafkaConfig, reader messageReader, store *SessionStore, logger *zap.Logger, rec Recorder) *KafkaConsumer {
	if logger == nil {
		logger = zap.NewNop()
	}
	if rec == nil {
		rec = nopRecorder{}
	}
	if store == nil {
		store = NewSessionStore(0)
	}
	poll := cfg.PollTimeout
	if poll <= 0 {
		poll = 5 * time.Second
	}
	return &KafkaConsumer{cfg: cfg, reader: reader, store: store, logger: logger, recorder: rec, poll: poll}
}

// Close shuts down the underlying reader.
func (c *KafkaConsumer) Close() error {
	if c == nil || c.reader == nil {
		return nil
	}
	return c.reader.Close()
}

// Run consumes messages until ctx is cancelled or the reader is closed.
// Undecodable messages are logged and committed so they are not redelivered.
func (c *KafkaConsumer) Run(ctx context.Context) error {
	c.logger.Info("session consumer started",
		zap.String("op", "ingest.KafkaConsumer.Run"),
		zap.String("topic", c.cfg.Topic),
		zap.String("group", c.cfg.GroupID),
		zap.Strings("brokers", c.cfg.Brokers),
		zap.Duration("pollTimeout", c.poll),
	)
	defer c.logger.Info("session consumer stopped", zap.String("op", "ingest.KafkaConsumer.Run"))

	for {
		if err := ctx.Err(); err != nil {
			return err
		}

		fetchCtx, cancel := context.WithTimeout(ctx, c.poll)
		msg, err := c.reader.FetchMessage(fetchCtx)
		cancel()
		if err != nil {
			switch {
			case errors.Is(err, context.DeadlineExceeded):
				continue
			case errors.Is(err, context.Canceled):
				if ctx.Err() != nil {
					return ctx.Err()
				}
				continue
			case errors.Is(err, io.EOF), errors.Is(err, io.ErrClosedPipe), errors.Is(err, kafka.ErrGroupClosed):
				return nil
			}
			c.recorder.IngestMessage("kafka", metrics.OutcomeError)
			c.logger.Error("failed to fetch session message",
				zap.String("op", "ingest.KafkaConsumer.Run"),
				zap.Error(err),
			)
			continue
		}

		c.handle(msg)

		commitCtx, commitCancel := context.WithTimeout(ctx, c.poll)
		if err := c.reader.CommitMessages(commitCtx, msg); err != nil && !(errors.Is(err, context.Canceled) && ctx.Err() != nil) {
			c.logger.Error("failed to commit session message",
				zap.String("op", "ingest.KafkaConsumer.Run"),
				zap.Int64("offset", msg.Offset),
				zap.Error(err),
			)
		}
		commitCancel()
	}
}

func (c *KafkaConsumer) handle(msg kafka.Message) {
	reading, err := DecodeReading(msg.Value, string(msg.Key))
	if err != nil {
		c.recorder.IngestMessage("kafka", metrics.OutcomeInvalid)
		c.logger.Warn("dropping session message",
			zap.String("op", "ingest.KafkaConsumer.handle"),
			zap.Int64("offset", msg.Offset),
			zap.Error(err),
		)
		return
	}
	buffer(c.store, c.recorder, c.logger, "kafka", reading)
}

func buffer(store *SessionStore, rec Recorder, logger *zap.Logger, source string, reading Reading) {
	count, evicted := store.Append(reading.Station, reading.Point)
	rec.IngestMessage(source, metrics.OutcomeBuffered)
	rec.SetBuffered(reading.Station, count)

	if ce := logger.Check(zap.DebugLevel, "session reading buffered"); ce != nil {
		f := []zap.Field{
			zap.String("op", "ingest.buffer"),
			zap.String("source", source),
			zap.String("station", reading.Station),
			zap.Time("date", reading.Point.Date),
			zap.Float64("powerKw", reading.Point.PowerKW),
			zap.Int("bufferDepth", count),
		}
		if evicted != nil {
			f = append(f, zap.Time("evicted", evicted.Date))
		}
		ce.Write(f...)
	}
}
