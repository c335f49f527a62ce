package pipeline

import (
	"context"
	"fmt"
	"io"
	"runtime"
	"time"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"
	"golang.org/x/sync/semaphore"

	"github.com/Truthmedia123/weddingreplit-sub000/pkg/binder"
	"github.com/Truthmedia123/weddingreplit-sub000/pkg/catalog"
	"github.com/Truthmedia123/weddingreplit-sub000/pkg/compose"
	"github.com/Truthmedia123/weddingreplit-sub000/pkg/delivery"
	errs "github.com/Truthmedia123/weddingreplit-sub000/pkg/errors"
	"github.com/Truthmedia123/weddingreplit-sub000/pkg/export"
	"github.com/Truthmedia123/weddingreplit-sub000/pkg/observability"
	"github.com/Truthmedia123/weddingreplit-sub000/pkg/qr"
)

// Generator runs the generation pipeline.
//
// A Generator holds no per-request state; it is safe for concurrent use.
// CPU-bound stages share one weighted semaphore so concurrent requests
// cannot oversubscribe the machine.
type Generator struct {
	catalog  *catalog.Registry
	composer *compose.Composer
	delivery *delivery.Service
	baseURL  string
	workers  int
	sem      *semaphore.Weighted
	tokens   func() (string, error)
	logger   *log.Logger
}

// Option configures a Generator.
type Option func(*Generator)

// WithBaseURL sets the public base URL embedded in RSVP QR codes. Without
// one, QR codes are omitted.
func WithBaseURL(u string) Option {
	return func(g *Generator) { g.baseURL = u }
}

// WithWorkers bounds concurrent compose and encode work. n <= 0 means
// runtime.NumCPU().
func WithWorkers(n int) Option {
	return func(g *Generator) {
		if n > 0 {
			g.workers = n
		}
	}
}

// WithTokenSource replaces delivery.NewToken.
func WithTokenSource(f func() (string, error)) Option {
	return func(g *Generator) {
		if f != nil {
			g.tokens = f
		}
	}
}

// WithLogger sets the logger.
func WithLogger(l *log.Logger) Option {
	return func(g *Generator) {
		if l != nil {
			g.logger = l
		}
	}
}

// NewGenerator creates a generator over the given catalog, composer and
// delivery service.
func NewGenerator(reg *catalog.Registry, c *compose.Composer, svc *delivery.Service, opts ...Option) *Generator {
	g := &Generator{
		catalog:  reg,
		composer: c,
		delivery: svc,
		workers:  runtime.NumCPU(),
		tokens:   delivery.NewToken,
		logger:   log.New(io.Discard),
	}
	for _, opt := range opts {
		opt(g)
	}
	g.sem = semaphore.NewWeighted(int64(g.workers))
	return g
}

// Catalog returns the generator's template registry.
func (g *Generator) Catalog() *catalog.Registry { return g.catalog }

// Delivery returns the generator's delivery service.
func (g *Generator) Delivery() *delivery.Service { return g.delivery }

// Generate renders req and issues its artifacts.
//
// Errors carry codes: TEMPLATE_NOT_FOUND, VALIDATION_FAILED (with per-field
// details), INVALID_FORMAT, RENDER_FAILED. Nothing is issued on failure.
func (g *Generator) Generate(ctx context.Context, req Request) (res *Result, err error) {
	hooks := observability.Generation()
	hooks.OnGenerateStart(ctx, req.TemplateID, req.Formats)
	start := time.Now()
	defer func() {
		hooks.OnGenerateComplete(ctx, req.TemplateID, req.Formats, time.Since(start), err)
	}()

	// Stage 1: Resolve
	tmpl, err := g.catalog.Get(req.TemplateID)
	if err != nil {
		return nil, err
	}

	// Stage 2: Bind
	bindStart := time.Now()
	inv, formats, err := bind(tmpl, req)
	if err != nil {
		return nil, err
	}
	scheme, ok := tmpl.Scheme(inv.Customization.Scheme)
	if !ok {
		return nil, errs.New(errs.ErrCodeInternal, "template %s has no scheme %q", tmpl.ID, inv.Customization.Scheme)
	}
	res = &Result{
		ID:         uuid.NewString(),
		TemplateID: tmpl.ID,
	}
	res.Stats.BindTime = time.Since(bindStart)

	token, err := g.tokens()
	if err != nil {
		return nil, errs.Wrap(errs.ErrCodeInternal, err, "generate token")
	}
	var rsvp string
	if g.baseURL != "" {
		rsvp = qr.RSVPURL(g.baseURL, token)
	}

	// Stage 3: Compose
	composeStart := time.Now()
	if err := g.sem.Acquire(ctx, 1); err != nil {
		return nil, err
	}
	img, err := g.composer.Compose(ctx, tmpl, inv, scheme, compose.Options{RSVPURL: rsvp})
	g.sem.Release(1)
	if err != nil {
		return nil, fmt.Errorf("compose: %w", err)
	}
	res.Stats.ComposeTime = time.Since(composeStart)
	g.logger.Debug("composed", "template", tmpl.ID, "id", res.ID, "duration", res.Stats.ComposeTime)

	// Stage 4: Export
	exportStart := time.Now()
	encoded, err := export.Export(ctx, img, formats, export.Options{
		Background: scheme.Color(catalog.RoleBackground),
		Title:      title(inv),
		Limiter:    g.sem,
	})
	if err != nil {
		return nil, fmt.Errorf("export: %w", err)
	}
	res.Stats.ExportTime = time.Since(exportStart)

	// Stage 5: Issue
	issueStart := time.Now()
	stem := inv.FileStem()
	artifacts := make([]delivery.Artifact, len(formats))
	res.Downloads = make([]Download, len(formats))
	for i, f := range formats {
		artifacts[i] = delivery.Artifact{
			Format:       string(f),
			ContentType:  f.ContentType(),
			Filename:     f.Filename(stem),
			TemplateID:   tmpl.ID,
			GenerationID: res.ID,
			Data:         encoded[f],
		}
		res.Downloads[i] = Download{
			Format:      f,
			ContentType: f.ContentType(),
			Filename:    f.Filename(stem),
			Size:        len(encoded[f]),
		}
	}
	receipt, err := g.delivery.IssueToken(ctx, token, artifacts)
	if err != nil {
		return nil, fmt.Errorf("issue: %w", err)
	}
	res.Token = receipt.Token
	res.ExpiresAt = receipt.ExpiresAt
	res.Stats.IssueTime = time.Since(issueStart)

	g.logger.Info("generated invitation",
		"template", tmpl.ID,
		"id", res.ID,
		"formats", len(formats),
		"duration", res.Stats.Total())
	return res, nil
}

// bind validates fields and formats together so callers see every problem
// at once. Format problems alone keep their INVALID_FORMAT code.
func bind(tmpl *catalog.Template, req Request) (*binder.Invitation, []export.Format, error) {
	formats, ferr := export.ParseFormats(req.Formats)
	inv, berr := binder.Bind(tmpl, req.Fields)
	if berr == nil {
		if ferr != nil {
			return nil, nil, ferr
		}
		return inv, formats, nil
	}
	var verr *errs.ValidationError
	if !errs.As(berr, &verr) {
		return nil, nil, berr
	}
	if ferr != nil {
		merged := &errs.ValidationError{}
		merged.Merge(verr)
		merged.Add("formats", "%s", errs.UserMessage(ferr))
		return nil, nil, merged.Err()
	}
	return nil, nil, verr
}

func title(inv *binder.Invitation) string {
	groom, bride := inv.Value(binder.FieldGroomName), inv.Value(binder.FieldBrideName)
	return groom + compose.NameSeparator + bride
}
