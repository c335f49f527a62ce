package observability

import (
	"context"
	"time"

	"github.com/charmbracelet/log"
)

// LogHooks writes every event to a structured logger. Fallbacks and failures
// log at warn, routine events at debug.
type LogHooks struct {
	logger *log.Logger
}

var (
	_ GenerationHooks = (*LogHooks)(nil)
	_ DeliveryHooks   = (*LogHooks)(nil)
	_ HTTPHooks       = (*LogHooks)(nil)
)

// NewLogHooks returns hooks that log to l.
func NewLogHooks(l *log.Logger) *LogHooks {
	return &LogHooks{logger: l}
}

func (h *LogHooks) OnGenerateStart(_ context.Context, templateID string, formats []string) {
	h.logger.Debug("generation started", "template", templateID, "formats", formats)
}

func (h *LogHooks) OnGenerateComplete(_ context.Context, templateID string, formats []string, d time.Duration, err error) {
	if err != nil {
		h.logger.Warn("generation failed", "template", templateID, "formats", formats, "elapsed", d, "err", err)
		return
	}
	h.logger.Info("generation complete", "template", templateID, "formats", formats, "elapsed", d.Round(time.Millisecond))
}

func (h *LogHooks) OnFallback(_ context.Context, templateID, resource, name string, err error) {
	h.logger.Warn("render degraded", "template", templateID, "resource", resource, "name", name, "err", err)
}

func (h *LogHooks) OnIssue(_ context.Context, formats int, expiresAt time.Time) {
	h.logger.Debug("token issued", "formats", formats, "expires", expiresAt.UTC().Format(time.RFC3339))
}

func (h *LogHooks) OnRedeem(_ context.Context, format, outcome string, size int) {
	if outcome == OutcomeError {
		h.logger.Warn("redeem failed", "format", format)
		return
	}
	h.logger.Debug("token redeemed", "format", format, "outcome", outcome, "bytes", size)
}

func (h *LogHooks) OnSweep(_ context.Context, removed int, d time.Duration, err error) {
	if err != nil {
		h.logger.Warn("sweep failed", "err", err)
		return
	}
	if removed > 0 {
		h.logger.Info("sweep complete", "removed", removed, "elapsed", d.Round(time.Millisecond))
	}
}

func (h *LogHooks) OnRequest(_ context.Context, method, host, path string) {
	h.logger.Debug("asset request", "method", method, "host", host, "path", path)
}

func (h *LogHooks) OnResponse(_ context.Context, method, host, path string, status int, d time.Duration) {
	h.logger.Debug("asset response", "method", method, "host", host, "path", path, "status", status, "elapsed", d)
}

func (h *LogHooks) OnError(_ context.Context, method, host, path string, err error) {
	h.logger.Warn("asset request failed", "method", method, "host", host, "path", path, "err", err)
}
