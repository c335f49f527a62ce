// Package observability provides hooks for metrics, tracing, and logging.
//
// Libraries emit events through the registered hooks; main decides what
// receives them. The defaults are no-ops, so library code never depends on a
// particular backend.
//
// # Usage
//
// Register hooks at application startup:
//
//	func main() {
//	    observability.SetGenerationHooks(observability.NewLogHooks(logger))
//	    observability.SetDeliveryHooks(observability.NewLogHooks(logger))
//	    // ... run application
//	}
//
// Libraries call hooks to emit events:
//
//	observability.Generation().OnGenerateStart(ctx, templateID, formats)
//	// ... compose and export ...
//	observability.Generation().OnGenerateComplete(ctx, templateID, formats, elapsed, err)
package observability

import (
	"context"
	"sync"
	"time"
)

// =============================================================================
// Generation Hooks
// =============================================================================

// GenerationHooks receives events from invitation rendering.
type GenerationHooks interface {
	OnGenerateStart(ctx context.Context, templateID string, formats []string)
	OnGenerateComplete(ctx context.Context, templateID string, formats []string, duration time.Duration, err error)

	// OnFallback records a degraded render: a font or background asset that
	// could not be used and was replaced by a default.
	OnFallback(ctx context.Context, templateID, resource, name string, err error)
}

// =============================================================================
// Delivery Hooks
// =============================================================================

// Redeem outcomes reported to DeliveryHooks.
const (
	OutcomeServed   = "served"
	OutcomeNotFound = "not_found"
	OutcomeExpired  = "expired"
	OutcomeConsumed = "consumed"
	OutcomeError    = "error"
)

// DeliveryHooks receives events from the delivery store.
type DeliveryHooks interface {
	OnIssue(ctx context.Context, formats int, expiresAt time.Time)
	OnRedeem(ctx context.Context, format, outcome string, size int)
	OnSweep(ctx context.Context, removed int, duration time.Duration, err error)
}

// =============================================================================
// HTTP Hooks
// =============================================================================

// HTTPHooks receives events from outgoing asset requests.
type HTTPHooks interface {
	OnRequest(ctx context.Context, method, host, path string)
	OnResponse(ctx context.Context, method, host, path string, statusCode int, duration time.Duration)
	OnError(ctx context.Context, method, host, path string, err error)
}

// =============================================================================
// No-op Implementations
// =============================================================================

// NoopGenerationHooks is a no-op implementation of GenerationHooks.
type NoopGenerationHooks struct{}

func (NoopGenerationHooks) OnGenerateStart(context.Context, string, []string) {}
func (NoopGenerationHooks) OnGenerateComplete(context.Context, string, []string, time.Duration, error) {
}
func (NoopGenerationHooks) OnFallback(context.Context, string, string, string, error) {}

// NoopDeliveryHooks is a no-op implementation of DeliveryHooks.
type NoopDeliveryHooks struct{}

func (NoopDeliveryHooks) OnIssue(context.Context, int, time.Time)            {}
func (NoopDeliveryHooks) OnRedeem(context.Context, string, string, int)      {}
func (NoopDeliveryHooks) OnSweep(context.Context, int, time.Duration, error) {}

// NoopHTTPHooks is a no-op implementation of HTTPHooks.
type NoopHTTPHooks struct{}

func (NoopHTTPHooks) OnRequest(context.Context, string, string, string)                      {}
func (NoopHTTPHooks) OnResponse(context.Context, string, string, string, int, time.Duration) {}
func (NoopHTTPHooks) OnError(context.Context, string, string, string, error)                 {}

// =============================================================================
// Global Hook Registry
// =============================================================================

var (
	generationHooks GenerationHooks = NoopGenerationHooks{}
	deliveryHooks   DeliveryHooks   = NoopDeliveryHooks{}
	httpHooks       HTTPHooks       = NoopHTTPHooks{}
	hooksMu         sync.RWMutex
)

// SetGenerationHooks registers custom generation hooks.
// This should be called once at application startup before any rendering.
func SetGenerationHooks(h GenerationHooks) {
	hooksMu.Lock()
	defer hooksMu.Unlock()
	if h != nil {
		generationHooks = h
	}
}

// SetDeliveryHooks registers custom delivery hooks.
func SetDeliveryHooks(h DeliveryHooks) {
	hooksMu.Lock()
	defer hooksMu.Unlock()
	if h != nil {
		deliveryHooks = h
	}
}

// SetHTTPHooks registers custom HTTP hooks.
func SetHTTPHooks(h HTTPHooks) {
	hooksMu.Lock()
	defer hooksMu.Unlock()
	if h != nil {
		httpHooks = h
	}
}

// Generation returns the registered generation hooks.
func Generation() GenerationHooks {
	hooksMu.RLock()
	defer hooksMu.RUnlock()
	return generationHooks
}

// Delivery returns the registered delivery hooks.
func Delivery() DeliveryHooks {
	hooksMu.RLock()
	defer hooksMu.RUnlock()
	return deliveryHooks
}

// HTTP returns the registered HTTP hooks.
func HTTP() HTTPHooks {
	hooksMu.RLock()
	defer hooksMu.RUnlock()
	return httpHooks
}

// Reset restores all hooks to their no-op defaults.
// This is primarily useful for testing.
func Reset() {
	hooksMu.Lock()
	defer hooksMu.Unlock()
	generationHooks = NoopGenerationHooks{}
	deliveryHooks = NoopDeliveryHooks{}
	httpHooks = NoopHTTPHooks{}
}
