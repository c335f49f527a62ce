//go:build integration

package redis

import (
	"context"
	"fmt"
	"os"
	"testing"
	"time"

	"github.com/Truthmedia123/weddingreplit-sub000/pkg/delivery"
	"github.com/Truthmedia123/weddingreplit-sub000/pkg/delivery/storetest"
)

// Set INVITEKIT_TEST_REDIS_ADDR (e.g. localhost:6379) to run.
func TestStore(t *testing.T) {
	addr := os.Getenv("INVITEKIT_TEST_REDIS_ADDR")
	if addr == "" {
		t.Skip("INVITEKIT_TEST_REDIS_ADDR not set")
	}
	storetest.Run(t, func(t *testing.T) delivery.Store {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		s, err := NewStore(ctx, Config{
			Addr:   addr,
			Prefix: fmt.Sprintf("invitekit-test:%d:", time.Now().UnixNano()),
		})
		if err != nil {
			t.Fatal(err)
		}
		return s
	})
}
