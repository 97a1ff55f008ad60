// Package events provides fire-and-forget emission of account events.
package events

import (
	"context"
	"time"

	"go.uber.org/zap"

	"dinehub/backend/internal/events/domain"
	"dinehub/backend/internal/events/producer"
)

// emitTimeout is the max time allowed for a single async emit. Used by EmitAsync and by ShutdownDrainDuration.
const emitTimeout = 5 * time.Second

// ShutdownDrainDuration is how long to wait after the HTTP server drains
// before closing the producer, so in-flight async emits have time to
// complete. Must be >= emitTimeout.
const ShutdownDrainDuration = emitTimeout

// EmitAsync runs Emit in a goroutine with a short timeout so the caller is
// not blocked. Use from request handlers for fire-and-forget, best-effort
// event emission; errors are logged.
//
// p and event may be nil; EmitAsync returns immediately without starting a
// goroutine. The goroutine uses context.Background() with emitTimeout so
// request cancellation does not abort an in-flight emit.
func EmitAsync(p producer.Producer, log *zap.Logger, event *domain.Envelope) {
	if p == nil || event == nil {
		return
	}
	go func() {
		emitCtx, cancel := context.WithTimeout(context.Background(), emitTimeout)
		defer cancel()
		if err := p.Emit(emitCtx, event); err != nil {
			log.Warn("async emit failed", zap.String("event_type", event.EventType), zap.Error(err))
		}
	}()
}
