package redis

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"github.com/Truthmedia123/weddingreplit-sub000/pkg/delivery"
)

func TestNewStoreRequiresAddr(t *testing.T) {
	if _, err := NewStore(context.Background(), Config{}); err == nil {
		t.Error("NewStore without an address should fail")
	}
}

func TestKeys(t *testing.T) {
	s := NewStoreFromClient(nil, "")
	if got := s.entryKey(member("tok", "png")); got != "invitekit:entry:tok/png" {
		t.Errorf("entryKey = %q", got)
	}
	if got := s.tokenKey("tok"); got != "invitekit:token:tok" {
		t.Errorf("tokenKey = %q", got)
	}
	s = NewStoreFromClient(nil, "x:")
	if got := s.purgeIndex(); got != "x:index:purge" {
		t.Errorf("purgeIndex = %q", got)
	}
}

func TestCloseNil(t *testing.T) {
	var s *Store
	if err := s.Close(); err != nil {
		t.Errorf("nil Close = %v", err)
	}
	if err := NewStoreFromClient(nil, "").Close(); err != nil {
		t.Errorf("Close without client = %v", err)
	}
}

// failingExec answers SET and DEL locally and fails every transaction, so
// Put's error path runs without a server.
type failingExec struct {
	mu   sync.Mutex
	cmds []string
}

func (h *failingExec) DialHook(next goredis.DialHook) goredis.DialHook { return next }

func (h *failingExec) ProcessHook(next goredis.ProcessHook) goredis.ProcessHook {
	return func(ctx context.Context, cmd goredis.Cmder) error {
		h.mu.Lock()
		h.cmds = append(h.cmds, strings.ToLower(cmd.Name())+" "+fmt.Sprint(cmd.Args()[1]))
		h.mu.Unlock()
		switch c := cmd.(type) {
		case *goredis.StatusCmd:
			c.SetVal("OK")
		case *goredis.IntCmd:
			c.SetVal(1)
		}
		return nil
	}
}

func (h *failingExec) ProcessPipelineHook(next goredis.ProcessPipelineHook) goredis.ProcessPipelineHook {
	return func(ctx context.Context, cmds []goredis.Cmder) error {
		return errors.New("connection reset")
	}
}

func TestPutReleasesTokenWhenExecFails(t *testing.T) {
	client := goredis.NewClient(&goredis.Options{Addr: "127.0.0.1:1"})
	hook := &failingExec{}
	client.AddHook(hook)
	s := NewStoreFromClient(client, "t:")
	t.Cleanup(func() { _ = s.Close() })

	now := time.Now()
	entries := []delivery.Entry{{
		Artifact:  delivery.Artifact{Format: "png", Data: []byte("png")},
		ExpiresAt: now.Add(time.Hour),
		PurgeAt:   now.Add(25 * time.Hour),
	}}
	if err := s.Put(context.Background(), "tok", entries); err == nil {
		t.Fatal("Put succeeded although the transaction failed")
	}

	hook.mu.Lock()
	defer hook.mu.Unlock()
	want := []string{"set t:token:tok", "del t:token:tok"}
	if len(hook.cmds) != len(want) {
		t.Fatalf("commands = %q, want %q", hook.cmds, want)
	}
	for i := range want {
		if hook.cmds[i] != want[i] {
			t.Errorf("command %d = %q, want %q", i, hook.cmds[i], want[i])
		}
	}
}
