package events

import (
	"context"

	"go.uber.org/zap"
)

// LogPublisher records events in the service log when no broker is configured.
type LogPublisher struct {
	log *zap.Logger
}

func NewLogPublisher(log *zap.Logger) *LogPublisher {
	return &LogPublisher{log: log.Named("events.log")}
}

func (p *LogPublisher) Publish(ctx context.Context, eventType EventType, key string, payload any) error {
	event, err := NewEvent(ctx, eventType, key, payload)
	if err != nil {
		return err
	}
	p.log.Info("event",
		zap.String("event_id", event.ID),
		zap.String("event_type", string(event.Type)),
		zap.String("key", event.Key),
		zap.ByteString("data", event.Data),
	)
	return nil
}
