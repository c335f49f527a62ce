//go:build integration

package mongo

import (
	"context"
	"fmt"
	"os"
	"testing"
	"time"

	"github.com/Truthmedia123/weddingreplit-sub000/pkg/delivery"
	"github.com/Truthmedia123/weddingreplit-sub000/pkg/delivery/storetest"
)

// Set INVITEKIT_TEST_MONGO_URI (e.g. mongodb://localhost:27017) to run.
func TestStore(t *testing.T) {
	uri := os.Getenv("INVITEKIT_TEST_MONGO_URI")
	if uri == "" {
		t.Skip("INVITEKIT_TEST_MONGO_URI not set")
	}
	storetest.Run(t, func(t *testing.T) delivery.Store {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		s, err := NewStore(ctx, Config{
			URI:        uri,
			Database:   "invitekit_test",
			Collection: fmt.Sprintf("deliveries_%d", time.Now().UnixNano()),
		})
		if err != nil {
			t.Fatal(err)
		}
		t.Cleanup(func() { _ = s.coll.Drop(context.Background()) })
		return s
	})
}
