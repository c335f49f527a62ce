package delivery_test

import (
	"context"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/Truthmedia123/weddingreplit-sub000/pkg/delivery"
	errs "github.com/Truthmedia123/weddingreplit-sub000/pkg/errors"
	"github.com/Truthmedia123/weddingreplit-sub000/pkg/observability"
)

type clock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *clock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *clock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

func newService(t *testing.T) (*delivery.Service, *clock) {
	t.Helper()
	c := &clock{now: time.Date(2026, 5, 16, 10, 0, 0, 0, time.UTC)}
	svc := delivery.NewService(delivery.NewMemoryStore(), delivery.WithClock(c.Now))
	t.Cleanup(func() { _ = svc.Close() })
	return svc, c
}

func artifacts(formats ...string) []delivery.Artifact {
	out := make([]delivery.Artifact, len(formats))
	for i, f := range formats {
		out[i] = delivery.Artifact{Format: f, ContentType: "image/" + f, Filename: "x." + f, Data: []byte(f)}
	}
	return out
}

func TestNewToken(t *testing.T) {
	seen := map[string]bool{}
	for range 100 {
		tok, err := delivery.NewToken()
		if err != nil {
			t.Fatal(err)
		}
		if len(tok) != 43 || strings.ContainsAny(tok, "+/=") {
			t.Fatalf("token %q is not 43 url-safe characters", tok)
		}
		if !delivery.ValidToken(tok) {
			t.Fatalf("ValidToken(%q) = false", tok)
		}
		if seen[tok] {
			t.Fatalf("duplicate token %q", tok)
		}
		seen[tok] = true
	}
	for _, bad := range []string{"", "short", strings.Repeat("!", 43), strings.Repeat("a", 44)} {
		if delivery.ValidToken(bad) {
			t.Errorf("ValidToken(%q) = true", bad)
		}
	}
}

func TestIssueRedeem(t *testing.T) {
	svc, c := newService(t)
	ctx := context.Background()

	rcpt, err := svc.Issue(ctx, artifacts("png", "pdf"))
	if err != nil {
		t.Fatal(err)
	}
	if want := c.Now().Add(delivery.DefaultTTL); !rcpt.ExpiresAt.Equal(want) {
		t.Errorf("ExpiresAt = %v, want %v", rcpt.ExpiresAt, want)
	}
	if len(rcpt.Formats) != 2 || rcpt.Formats[0] != "png" || rcpt.Formats[1] != "pdf" {
		t.Errorf("Formats = %v", rcpt.Formats)
	}

	art, err := svc.Redeem(ctx, rcpt.Token, "png")
	if err != nil {
		t.Fatal(err)
	}
	if string(art.Data) != "png" {
		t.Errorf("data = %q", art.Data)
	}
	if _, err := svc.Redeem(ctx, rcpt.Token, "png"); !errs.Is(err, errs.ErrCodeTokenConsumed) {
		t.Errorf("second redeem err = %v, want TOKEN_CONSUMED", err)
	}
	if _, err := svc.Redeem(ctx, rcpt.Token, "pdf"); err != nil {
		t.Errorf("pdf should still be redeemable: %v", err)
	}
}

func TestRedeemExpired(t *testing.T) {
	svc, c := newService(t)
	ctx := context.Background()
	rcpt, err := svc.Issue(ctx, artifacts("png"))
	if err != nil {
		t.Fatal(err)
	}
	c.Advance(delivery.DefaultTTL + time.Second)
	if _, err := svc.Redeem(ctx, rcpt.Token, "png"); !errs.Is(err, errs.ErrCodeTokenExpired) {
		t.Errorf("err = %v, want TOKEN_EXPIRED", err)
	}
}

func TestRedeemMalformedToken(t *testing.T) {
	svc, _ := newService(t)
	if _, err := svc.Redeem(context.Background(), "../../etc/passwd", "png"); !errs.Is(err, errs.ErrCodeTokenNotFound) {
		t.Errorf("err = %v, want TOKEN_NOT_FOUND", err)
	}
}

func TestSweepPolicy(t *testing.T) {
	svc, c := newService(t)
	ctx := context.Background()
	rcpt, err := svc.Issue(ctx, artifacts("png"))
	if err != nil {
		t.Fatal(err)
	}

	c.Advance(24*time.Hour + time.Second)
	if n, err := svc.Sweep(ctx); err != nil || n != 1 {
		t.Fatalf("Sweep = %d, %v; want 1 entry", n, err)
	}
	if _, err := svc.Redeem(ctx, rcpt.Token, "png"); !errs.Is(err, errs.ErrCodeTokenExpired) {
		t.Errorf("after sweep err = %v, want TOKEN_EXPIRED", err)
	}

	c.Advance(delivery.DefaultRetention)
	if n, err := svc.Sweep(ctx); err != nil || n != 1 {
		t.Fatalf("purge Sweep = %d, %v; want 1 entry", n, err)
	}
	if _, err := svc.Redeem(ctx, rcpt.Token, "png"); !errs.Is(err, errs.ErrCodeTokenNotFound) {
		t.Errorf("after purge err = %v, want TOKEN_NOT_FOUND", err)
	}
}

func TestIssueTokenRejects(t *testing.T) {
	svc, _ := newService(t)
	ctx := context.Background()
	tok, _ := delivery.NewToken()

	tests := []struct {
		name  string
		token string
		arts  []delivery.Artifact
	}{
		{"malformed token", "nope", artifacts("png")},
		{"no artifacts", tok, nil},
		{"repeated format", tok, artifacts("png", "png")},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := svc.IssueToken(ctx, tt.token, tt.arts); !errs.Is(err, errs.ErrCodeInvalidInput) {
				t.Errorf("err = %v, want INVALID_INPUT", err)
			}
		})
	}

	if _, err := svc.IssueToken(ctx, tok, artifacts("png")); err != nil {
		t.Fatal(err)
	}
	if _, err := svc.IssueToken(ctx, tok, artifacts("pdf")); err == nil {
		t.Error("reissuing a token should fail")
	}
}

type recorder struct {
	observability.NoopDeliveryHooks
	mu       sync.Mutex
	outcomes []string
	issued   int
}

func (r *recorder) OnIssue(_ context.Context, formats int, _ time.Time) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.issued += formats
}

func (r *recorder) OnRedeem(_ context.Context, _, outcome string, _ int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.outcomes = append(r.outcomes, outcome)
}

func TestDeliveryHooks(t *testing.T) {
	rec := &recorder{}
	observability.SetDeliveryHooks(rec)
	t.Cleanup(observability.Reset)

	svc, c := newService(t)
	ctx := context.Background()
	rcpt, err := svc.Issue(ctx, artifacts("png", "jpg"))
	if err != nil {
		t.Fatal(err)
	}
	svc.Redeem(ctx, rcpt.Token, "png")
	svc.Redeem(ctx, rcpt.Token, "png")
	svc.Redeem(ctx, rcpt.Token, "gif")
	c.Advance(delivery.DefaultTTL)
	svc.Redeem(ctx, rcpt.Token, "jpg")

	want := []string{
		observability.OutcomeServed,
		observability.OutcomeConsumed,
		observability.OutcomeNotFound,
		observability.OutcomeExpired,
	}
	if rec.issued != 2 {
		t.Errorf("issued = %d, want 2", rec.issued)
	}
	if strings.Join(rec.outcomes, ",") != strings.Join(want, ",") {
		t.Errorf("outcomes = %v, want %v", rec.outcomes, want)
	}
}

func TestRunSweeperStops(t *testing.T) {
	svc, c := newService(t)
	ctx, cancel := context.WithCancel(context.Background())
	rcpt, err := svc.Issue(ctx, artifacts("png"))
	if err != nil {
		t.Fatal(err)
	}
	c.Advance(delivery.DefaultTTL + delivery.DefaultRetention)

	done := make(chan struct{})
	go func() {
		svc.RunSweeper(ctx, time.Millisecond)
		close(done)
	}()

	deadline := time.After(5 * time.Second)
	for {
		_, err := svc.Redeem(context.Background(), rcpt.Token, "png")
		if errs.Is(err, errs.ErrCodeTokenNotFound) {
			break
		}
		select {
		case <-deadline:
			t.Fatal("sweeper never purged the entry")
		case <-time.After(time.Millisecond):
		}
	}

	cancel()
	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("RunSweeper did not return after cancel")
	}
}
