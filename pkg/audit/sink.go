package audit

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	cloudevents "github.com/cloudevents/sdk-go/v2"
)

// Sink delivers events to a telemetry backend.
type Sink interface {
	Write(ctx context.Context, e Event) error
}

// NewSink builds the sink selected by cfg.
func NewSink(cfg *Config, logger *slog.Logger) (Sink, error) {
	switch cfg.Sink {
	case SinkCloudEvents:
		return NewCloudEventsSink(cfg.Target, cfg.Source)
	default:
		return NewLogSink(logger), nil
	}
}

type logSink struct {
	logger *slog.Logger
}

// NewLogSink writes each event as a structured log record.
// Failure events are logged at error level.
func NewLogSink(logger *slog.Logger) Sink {
	return &logSink{logger: logger.With("system", "audit")}
}

func (s *logSink) Write(ctx context.Context, e Event) error {
	level := slog.LevelInfo
	if e.Type.IsError() {
		level = slog.LevelError
	}

	args := make([]any, 0, 2+len(e.Attributes))
	args = append(args, slog.String("event_id", e.ID))
	for k, v := range e.Attributes {
		args = append(args, slog.Any(k, v))
	}

	s.logger.Log(ctx, level, string(e.Type), args...)
	return nil
}

type cloudEventsSink struct {
	client cloudevents.Client
	target string
	source string
}

// NewCloudEventsSink posts each event as a structured-mode CloudEvent to target.
func NewCloudEventsSink(target, source string) (Sink, error) {
	client, err := cloudevents.NewClientHTTP()
	if err != nil {
		return nil, fmt.Errorf("create cloudevents client: %w", err)
	}
	return &cloudEventsSink{
		client: client,
		target: target,
		source: source,
	}, nil
}

func (s *cloudEventsSink) Write(ctx context.Context, e Event) error {
	ce := cloudevents.NewEvent()
	ce.SetID(e.ID)
	ce.SetSource(s.source)
	ce.SetType(CloudEventType(e.Type))
	ce.SetTime(e.Time)

	if err := ce.SetData(cloudevents.ApplicationJSON, e.Attributes); err != nil {
		return fmt.Errorf("encode event %s: %w", e.ID, err)
	}

	ctx = cloudevents.ContextWithTarget(ctx, s.target)
	if result := s.client.Send(ctx, ce); !cloudevents.IsACK(result) {
		return fmt.Errorf("send event %s: %w", e.ID, result)
	}
	return nil
}

// CloudEventType maps an audit event type to its CloudEvents type attribute,
// e.g. DECRYPTION_START becomes courier.audit.decryption_start.
func CloudEventType(t EventType) string {
	return "courier.audit." + strings.ToLower(string(t))
}
