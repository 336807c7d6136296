package internal

import (
	"context"
	"strconv"
	"sync"
)

// telemetry.go
// Lightweight telemetry hook layer for the request path. Callers may register
// a metrics-backed emitter (or a test stub) via RegisterTelemetryEmitter; the
// default emitter is a no-op.

type TelemetryEmitter func(ctx context.Context, name string, labels map[string]string, value any)

var (
	teleMu   sync.Mutex
	teleImpl TelemetryEmitter = func(ctx context.Context, name string, labels map[string]string, value any) {
		// noop by default
	}
)

// RegisterTelemetryEmitter registers a custom emitter function. Passing nil
// restores the no-op emitter.
func RegisterTelemetryEmitter(fn TelemetryEmitter) {
	teleMu.Lock()
	defer teleMu.Unlock()
	if fn == nil {
		teleImpl = func(ctx context.Context, name string, labels map[string]string, value any) {}
		return
	}
	teleImpl = fn
}

func emitter() TelemetryEmitter {
	teleMu.Lock()
	defer teleMu.Unlock()
	return teleImpl
}

// EmitRequestLatency records the round-trip time (milliseconds) of one request.
// name: "activestore_request_latency_ms" with labels {"model", "action"}
func EmitRequestLatency(ctx context.Context, model, action string, ms int64) {
	labels := map[string]string{"model": model, "action": action}
	emitter()(ctx, "activestore_request_latency_ms", labels, ms)
}

// EmitRequestOutcome counts finished requests by status code.
// name: "activestore_request_total" with labels {"model", "action", "status"}
func EmitRequestOutcome(ctx context.Context, model, action string, status int) {
	labels := map[string]string{"model": model, "action": action, "status": strconv.Itoa(status)}
	emitter()(ctx, "activestore_request_total", labels, int64(1))
}

// EmitBreakerRejection counts requests refused by an open circuit breaker.
// name: "activestore_breaker_rejections_total" with label {"model"}
func EmitBreakerRejection(ctx context.Context, model string) {
	labels := map[string]string{"model": model}
	emitter()(ctx, "activestore_breaker_rejections_total", labels, int64(1))
}
