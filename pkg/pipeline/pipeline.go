// Package pipeline provides the invitation generation pipeline shared by the
// HTTP server and the CLI.
//
// A generation runs five stages:
//
//  1. Resolve: look up the template in the catalog
//  2. Bind: validate fields and formats against the template
//  3. Compose: draw the canonical surface, embedding the RSVP QR code
//  4. Export: encode every requested format concurrently
//  5. Issue: hand the artifacts to the delivery store under one token
//
// The delivery token is drawn before composition so the QR code can point
// at it; nothing is stored until every format has been encoded.
//
// # Usage
//
//	gen := pipeline.NewGenerator(registry, composer, deliverySvc,
//	    pipeline.WithBaseURL("https://invites.example"),
//	    pipeline.WithLogger(logger))
//	res, err := gen.Generate(ctx, pipeline.Request{
//	    TemplateID: "goan-beach-bliss",
//	    Fields:     fields,
//	    Formats:    []string{"png", "pdf"},
//	})
//	if err != nil {
//	    return err
//	}
//	url := pipeline.DownloadPath(res.Token, "png")
package pipeline

import (
	"time"

	"github.com/Truthmedia123/weddingreplit-sub000/pkg/export"
)

// =============================================================================
// Default Values
// =============================================================================

// DownloadPrefix is the path under which artifacts are redeemed.
const DownloadPrefix = "/api/downloads/"

// =============================================================================
// Request and Result
// =============================================================================

// Request is one generation request. It supports JSON for the API.
type Request struct {
	TemplateID string            `json:"templateId"`
	Fields     map[string]string `json:"fields"`
	Formats    []string          `json:"formats"`
}

// Download describes one issued artifact.
type Download struct {
	Format      export.Format `json:"format"`
	ContentType string        `json:"contentType"`
	Filename    string        `json:"filename"`
	Size        int           `json:"size"`
}

// Stats holds per-stage timings.
type Stats struct {
	BindTime    time.Duration
	ComposeTime time.Duration
	ExportTime  time.Duration
	IssueTime   time.Duration
}

// Total returns the sum of all stage timings.
func (s Stats) Total() time.Duration {
	return s.BindTime + s.ComposeTime + s.ExportTime + s.IssueTime
}

// Result is the outcome of a successful generation.
type Result struct {
	ID         string
	TemplateID string
	Token      string
	ExpiresAt  time.Time
	Downloads  []Download
	Stats      Stats
}

// DownloadPath returns the redeem path for one artifact.
func DownloadPath(token string, f export.Format) string {
	return DownloadPrefix + token + "/" + string(f)
}
