// Package storetest is a conformance suite for delivery.Store backends.
package storetest

import (
	"bytes"
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/Truthmedia123/weddingreplit-sub000/pkg/delivery"
)

// Factory returns an empty store. The suite closes it.
type Factory func(t *testing.T) delivery.Store

// Run exercises every Store contract against stores built by newStore.
//
// Times are anchored to the wall clock so backends that also rely on server
// side expiry keep the entries alive for the duration of the test.
func Run(t *testing.T, newStore Factory) {
	tests := []struct {
		name string
		fn   func(*testing.T, delivery.Store)
	}{
		{"RoundTrip", testRoundTrip},
		{"SingleUse", testSingleUse},
		{"FormatsIndependent", testFormatsIndependent},
		{"NotFound", testNotFound},
		{"ExpiredAtBoundary", testExpiredAtBoundary},
		{"Duplicate", testDuplicate},
		{"SweepKeepsTombstones", testSweepKeepsTombstones},
		{"SweepPurges", testSweepPurges},
		{"ConcurrentRedeem", testConcurrentRedeem},
		{"SweepDuringRedeem", testSweepDuringRedeem},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := newStore(t)
			t.Cleanup(func() { _ = s.Close() })
			tt.fn(t, s)
		})
	}
}

var base = time.Now().Add(time.Hour).Truncate(time.Millisecond)

const (
	ttl       = 24 * time.Hour
	retention = 24 * time.Hour
)

func entry(format string, data []byte) delivery.Entry {
	return delivery.Entry{
		Artifact: delivery.Artifact{
			Format:       format,
			ContentType:  "application/octet-stream",
			Filename:     "armando-and-gabriella-invitation." + format,
			TemplateID:   "goan-beach-bliss",
			GenerationID: "gen-1",
			Data:         data,
		},
		ExpiresAt: base.Add(ttl),
		PurgeAt:   base.Add(ttl + retention),
	}
}

func put(t *testing.T, s delivery.Store, formats ...string) string {
	t.Helper()
	token, err := delivery.NewToken()
	if err != nil {
		t.Fatal(err)
	}
	entries := make([]delivery.Entry, len(formats))
	for i, f := range formats {
		entries[i] = entry(f, []byte("bytes of "+f))
	}
	if err := s.Put(context.Background(), token, entries); err != nil {
		t.Fatalf("Put: %v", err)
	}
	return token
}

func expect(t *testing.T, err, want error) {
	t.Helper()
	if !errors.Is(err, want) {
		t.Fatalf("err = %v, want %v", err, want)
	}
}

func testRoundTrip(t *testing.T, s delivery.Store) {
	token := put(t, s, "png")
	art, err := s.Redeem(context.Background(), token, "png", base)
	if err != nil {
		t.Fatal(err)
	}
	want := entry("png", []byte("bytes of png")).Artifact
	if !bytes.Equal(art.Data, want.Data) {
		t.Errorf("data = %q, want %q", art.Data, want.Data)
	}
	if art.Format != want.Format || art.ContentType != want.ContentType || art.Filename != want.Filename {
		t.Errorf("metadata = %+v, want %+v", art, want)
	}
	if art.TemplateID != want.TemplateID || art.GenerationID != want.GenerationID {
		t.Errorf("origin = %q/%q", art.TemplateID, art.GenerationID)
	}
}

func testSingleUse(t *testing.T, s delivery.Store) {
	token := put(t, s, "png")
	ctx := context.Background()
	if _, err := s.Redeem(ctx, token, "png", base); err != nil {
		t.Fatal(err)
	}
	_, err := s.Redeem(ctx, token, "png", base.Add(time.Second))
	expect(t, err, delivery.ErrConsumed)

	// Consumption outranks expiry.
	_, err = s.Redeem(ctx, token, "png", base.Add(ttl+time.Second))
	expect(t, err, delivery.ErrConsumed)
}

func testFormatsIndependent(t *testing.T, s delivery.Store) {
	token := put(t, s, "png", "pdf")
	ctx := context.Background()
	if _, err := s.Redeem(ctx, token, "png", base); err != nil {
		t.Fatal(err)
	}
	art, err := s.Redeem(ctx, token, "pdf", base)
	if err != nil {
		t.Fatalf("pdf after png: %v", err)
	}
	if string(art.Data) != "bytes of pdf" {
		t.Errorf("pdf data = %q", art.Data)
	}
}

func testNotFound(t *testing.T, s delivery.Store) {
	token := put(t, s, "png")
	other, _ := delivery.NewToken()
	ctx := context.Background()

	_, err := s.Redeem(ctx, other, "png", base)
	expect(t, err, delivery.ErrNotFound)
	_, err = s.Redeem(ctx, token, "pdf", base)
	expect(t, err, delivery.ErrNotFound)
}

func testExpiredAtBoundary(t *testing.T, s delivery.Store) {
	token := put(t, s, "png", "jpg")
	ctx := context.Background()

	if _, err := s.Redeem(ctx, token, "jpg", base.Add(ttl-time.Millisecond)); err != nil {
		t.Fatalf("just before expiry: %v", err)
	}
	_, err := s.Redeem(ctx, token, "png", base.Add(ttl))
	expect(t, err, delivery.ErrExpired)
	_, err = s.Redeem(ctx, token, "png", base.Add(ttl+time.Hour))
	expect(t, err, delivery.ErrExpired)
}

func testDuplicate(t *testing.T, s delivery.Store) {
	token := put(t, s, "png")
	err := s.Put(context.Background(), token, []delivery.Entry{entry("pdf", []byte("x"))})
	expect(t, err, delivery.ErrDuplicate)
}

func testSweepKeepsTombstones(t *testing.T, s delivery.Store) {
	token := put(t, s, "png", "pdf")
	ctx := context.Background()
	if _, err := s.Redeem(ctx, token, "pdf", base); err != nil {
		t.Fatal(err)
	}

	n, err := s.Sweep(ctx, base.Add(ttl-time.Second))
	if err != nil {
		t.Fatal(err)
	}
	if n != 0 {
		t.Errorf("sweep before expiry changed %d entries", n)
	}

	// 24h+1s after issuance: the unredeemed png loses its payload.
	n, err = s.Sweep(ctx, base.Add(ttl+time.Second))
	if err != nil {
		t.Fatal(err)
	}
	if n != 1 {
		t.Errorf("sweep after expiry changed %d entries, want 1", n)
	}
	_, err = s.Redeem(ctx, token, "png", base.Add(ttl+2*time.Second))
	expect(t, err, delivery.ErrExpired)
	_, err = s.Redeem(ctx, token, "pdf", base.Add(ttl+2*time.Second))
	expect(t, err, delivery.ErrConsumed)
}

func testSweepPurges(t *testing.T, s delivery.Store) {
	token := put(t, s, "png", "pdf")
	ctx := context.Background()
	if _, err := s.Redeem(ctx, token, "pdf", base); err != nil {
		t.Fatal(err)
	}

	purge := base.Add(ttl + retention)
	n, err := s.Sweep(ctx, purge)
	if err != nil {
		t.Fatal(err)
	}
	if n != 2 {
		t.Errorf("purge sweep changed %d entries, want 2", n)
	}
	for _, f := range []string{"png", "pdf"} {
		_, err = s.Redeem(ctx, token, f, purge)
		expect(t, err, delivery.ErrNotFound)
	}
}

func testConcurrentRedeem(t *testing.T, s delivery.Store) {
	token := put(t, s, "png")
	const n = 16

	var (
		wg       sync.WaitGroup
		mu       sync.Mutex
		served   int
		consumed int
	)
	for range n {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := s.Redeem(context.Background(), token, "png", base)
			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				served++
			case errors.Is(err, delivery.ErrConsumed):
				consumed++
			default:
				t.Errorf("unexpected err: %v", err)
			}
		}()
	}
	wg.Wait()
	if served != 1 || consumed != n-1 {
		t.Errorf("served=%d consumed=%d, want 1 and %d", served, consumed, n-1)
	}
}

// testSweepDuringRedeem races sweeps against redeems that share one clock
// reading, just before and exactly at expiry. Every redeem must end served,
// consumed or expired, and no entry may be served twice.
func testSweepDuringRedeem(t *testing.T, s delivery.Store) {
	tests := []struct {
		name       string
		now        time.Time
		wantServed bool
	}{
		{"before expiry", base.Add(ttl - time.Millisecond), true},
		{"at expiry", base.Add(ttl), false},
	}
	formats := []string{"png", "jpg", "pdf"}
	const (
		tokens    = 4
		redeemers = 4
	)

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx := context.Background()
			issued := make([]string, tokens)
			for i := range issued {
				issued[i] = put(t, s, formats...)
			}

			type key struct{ token, format string }
			var (
				wg       sync.WaitGroup
				mu       sync.Mutex
				served   = map[key]int{}
				sweeping = make(chan struct{})
			)
			go func() {
				defer close(sweeping)
				for range 8 {
					if _, err := s.Sweep(ctx, tt.now); err != nil {
						t.Errorf("Sweep: %v", err)
						return
					}
				}
			}()
			for _, token := range issued {
				for _, f := range formats {
					for range redeemers {
						wg.Add(1)
						go func() {
							defer wg.Done()
							art, err := s.Redeem(ctx, token, f, tt.now)
							mu.Lock()
							defer mu.Unlock()
							switch {
							case err == nil:
								served[key{token, f}]++
								if string(art.Data) != "bytes of "+f {
									t.Errorf("%s served %q", f, art.Data)
								}
							case errors.Is(err, delivery.ErrConsumed), errors.Is(err, delivery.ErrExpired):
							default:
								t.Errorf("Redeem(%s): unexpected err %v", f, err)
							}
						}()
					}
				}
			}
			wg.Wait()
			<-sweeping

			for _, token := range issued {
				for _, f := range formats {
					n := served[key{token, f}]
					switch {
					case tt.wantServed && n != 1:
						t.Errorf("%s served %d times, want once", f, n)
					case !tt.wantServed && n != 0:
						t.Errorf("%s served %d times after expiry", f, n)
					}
				}
			}
		})
	}
}
