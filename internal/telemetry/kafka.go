package telemetry

import (
	"context"
	"time"

	"dexter/internal/adapters/kafka"
	"dexter/internal/agent"
	"dexter/internal/metrics"
	"dexter/pkg/logger"
)

const publishTimeout = 5 * time.Second

// KafkaSink publishes finished-session records to the chat.sessions
// topic. Publishing is fire-and-forget: a broker outage never fails or
// delays a chat session.
type KafkaSink struct {
	producer *kafka.Producer
	log      *logger.Logger
}

// NewKafkaSink creates a telemetry sink over an existing producer.
func NewKafkaSink(producer *kafka.Producer) *KafkaSink {
	return &KafkaSink{
		producer: producer,
		log:      logger.Get().With("component", "telemetry"),
	}
}

var _ agent.TelemetrySink = (*KafkaSink)(nil)

// PublishSession sends the session record asynchronously, keyed by
// caller id so one caller's sessions stay ordered within a partition.
func (s *KafkaSink) PublishSession(ctx context.Context, ev agent.SessionEvent) {
	go func() {
		pubCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), publishTimeout)
		defer cancel()

		err := s.producer.Publish(pubCtx, kafka.TopicChatSessions, ev.CallerID, ev)
		if err != nil {
			metrics.KafkaMessages.WithLabelValues(kafka.TopicChatSessions, "error").Inc()
			s.log.Warnf("Failed to publish session %s: %v", ev.QueryID, err)
			return
		}
		metrics.KafkaMessages.WithLabelValues(kafka.TopicChatSessions, "success").Inc()
	}()
}

// NoopSink discards telemetry. Used when Kafka is not configured.
type NoopSink struct{}

var _ agent.TelemetrySink = NoopSink{}

// PublishSession discards the record.
func (NoopSink) PublishSession(context.Context, agent.SessionEvent) {}
