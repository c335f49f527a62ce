package delivery

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/charmbracelet/log"

	errs "github.com/Truthmedia123/weddingreplit-sub000/pkg/errors"
	"github.com/Truthmedia123/weddingreplit-sub000/pkg/observability"
)

const (
	// DefaultTTL is how long issued artifacts stay redeemable.
	DefaultTTL = 24 * time.Hour

	// DefaultRetention is how long tombstones outlive their expiry.
	DefaultRetention = 24 * time.Hour

	// DefaultSweepInterval is the RunSweeper period used by the server.
	DefaultSweepInterval = time.Minute
)

// Receipt describes a successful issue.
type Receipt struct {
	Token     string
	ExpiresAt time.Time
	Formats   []string
}

// Service applies lifetime policy on top of a Store.
type Service struct {
	store     Store
	ttl       time.Duration
	retention time.Duration
	now       func() time.Time
	logger    *log.Logger
}

// Option configures a Service.
type Option func(*Service)

// WithTTL sets how long artifacts remain redeemable.
func WithTTL(d time.Duration) Option {
	return func(s *Service) {
		if d > 0 {
			s.ttl = d
		}
	}
}

// WithRetention sets how long tombstones are kept after expiry.
func WithRetention(d time.Duration) Option {
	return func(s *Service) {
		if d >= 0 {
			s.retention = d
		}
	}
}

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		if now != nil {
			s.now = now
		}
	}
}

// WithLogger sets the logger. The default discards output.
func WithLogger(l *log.Logger) Option {
	return func(s *Service) {
		if l != nil {
			s.logger = l
		}
	}
}

// NewService wraps store.
func NewService(store Store, opts ...Option) *Service {
	s := &Service{
		store:     store,
		ttl:       DefaultTTL,
		retention: DefaultRetention,
		now:       time.Now,
		logger:    log.New(io.Discard),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// TTL returns the configured time-to-live.
func (s *Service) TTL() time.Duration { return s.ttl }

// Now returns the service clock's current time.
func (s *Service) Now() time.Time { return s.now() }

// Store returns the underlying store.
func (s *Service) Store() Store { return s.store }

// Issue stores artifacts under a fresh token.
func (s *Service) Issue(ctx context.Context, artifacts []Artifact) (Receipt, error) {
	token, err := NewToken()
	if err != nil {
		return Receipt{}, errs.Wrap(errs.ErrCodeInternal, err, "generate token")
	}
	return s.IssueToken(ctx, token, artifacts)
}

// IssueToken stores artifacts under a caller-chosen token. The token must
// come from NewToken; callers use this form when the token has to be known
// before the artifacts are rendered.
func (s *Service) IssueToken(ctx context.Context, token string, artifacts []Artifact) (Receipt, error) {
	if !ValidToken(token) {
		return Receipt{}, errs.New(errs.ErrCodeInvalidInput, "malformed token")
	}
	if len(artifacts) == 0 {
		return Receipt{}, errs.New(errs.ErrCodeInvalidInput, "no artifacts to issue")
	}

	issued := s.now()
	expires := issued.Add(s.ttl)
	entries := make([]Entry, 0, len(artifacts))
	formats := make([]string, 0, len(artifacts))
	seen := make(map[string]bool, len(artifacts))
	for _, a := range artifacts {
		if seen[a.Format] {
			return Receipt{}, errs.New(errs.ErrCodeInvalidInput, "format %q issued twice", a.Format)
		}
		seen[a.Format] = true
		entries = append(entries, Entry{
			Artifact:  a,
			ExpiresAt: expires,
			PurgeAt:   expires.Add(s.retention),
		})
		formats = append(formats, a.Format)
	}

	if err := s.store.Put(ctx, token, entries); err != nil {
		return Receipt{}, errs.Wrap(errs.ErrCodeInternal, err, "store artifacts")
	}
	observability.Delivery().OnIssue(ctx, len(entries), expires)
	s.logger.Debug("issued", "formats", formats, "expires", expires.Format(time.RFC3339))
	return Receipt{Token: token, ExpiresAt: expires, Formats: formats}, nil
}

// Redeem consumes the artifact for (token, format).
func (s *Service) Redeem(ctx context.Context, token, format string) (Artifact, error) {
	if !ValidToken(token) {
		observability.Delivery().OnRedeem(ctx, format, observability.OutcomeNotFound, 0)
		return Artifact{}, ErrNotFound
	}
	art, err := s.store.Redeem(ctx, token, format, s.now())
	outcome := outcomeOf(err)
	observability.Delivery().OnRedeem(ctx, format, outcome, len(art.Data))
	if err != nil {
		if outcome == observability.OutcomeError {
			return Artifact{}, errs.Wrap(errs.ErrCodeInternal, err, "redeem")
		}
		return Artifact{}, err
	}
	return art, nil
}

func outcomeOf(err error) string {
	switch {
	case err == nil:
		return observability.OutcomeServed
	case errors.Is(err, ErrNotFound):
		return observability.OutcomeNotFound
	case errors.Is(err, ErrExpired):
		return observability.OutcomeExpired
	case errors.Is(err, ErrConsumed):
		return observability.OutcomeConsumed
	default:
		return observability.OutcomeError
	}
}

// Sweep runs one sweep at the service clock's current time.
func (s *Service) Sweep(ctx context.Context) (int, error) {
	start := time.Now()
	n, err := s.store.Sweep(ctx, s.now())
	observability.Delivery().OnSweep(ctx, n, time.Since(start), err)
	if err != nil {
		return n, fmt.Errorf("sweep: %w", err)
	}
	return n, nil
}

// RunSweeper sweeps every interval until ctx is cancelled.
func (s *Service) RunSweeper(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		interval = DefaultSweepInterval
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			n, err := s.Sweep(ctx)
			if err != nil {
				if ctx.Err() != nil {
					return
				}
				s.logger.Warn("sweep failed", "err", err)
				continue
			}
			if n > 0 {
				s.logger.Debug("swept", "entries", n)
			}
		}
	}
}

// Close closes the underlying store.
func (s *Service) Close() error {
	return s.store.Close()
}
