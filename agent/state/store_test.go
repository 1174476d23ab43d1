package state

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/tanpawarit/link-companion-assistant/pkg/errx"
)

func TestRedisStoreRedisKey(t *testing.T) {
	t.Parallel()

	store, err := NewRedisStore(redis.NewClient(&redis.Options{Addr: "127.0.0.1:1"}), WithKeyPrefix(" conv: "))
	if err != nil {
		t.Fatalf("NewRedisStore() error = %v", err)
	}
	got, err := store.redisKey("abc")
	if err != nil {
		t.Fatalf("redisKey() error = %v", err)
	}
	if got != "conv:abc" {
		t.Fatalf("redisKey() = %q, want %q", got, "conv:abc")
	}
	if _, err := store.redisKey("   "); !errors.Is(err, ErrInvalidSession) {
		t.Fatalf("redisKey() error = %v, want ErrInvalidSession", err)
	}
}

func TestNewRedisStoreValidation(t *testing.T) {
	t.Parallel()

	if _, err := NewRedisStore(nil); err == nil {
		t.Fatalf("expected error for nil client")
	}
	client := redis.NewClient(&redis.Options{Addr: "127.0.0.1:1"})
	t.Cleanup(func() { _ = client.Close() })
	if _, err := NewRedisStore(client, WithTTL(-time.Second)); err == nil {
		t.Fatalf("expected error for negative ttl")
	}
}

func TestRedisStoreWrapsConnectionErrors(t *testing.T) {
	t.Parallel()

	client := redis.NewClient(&redis.Options{
		Addr:        "127.0.0.1:1",
		DialTimeout: 200 * time.Millisecond,
		MaxRetries:  -1,
	})
	t.Cleanup(func() { _ = client.Close() })

	store, err := NewRedisStore(client)
	if err != nil {
		t.Fatalf("NewRedisStore() error = %v", err)
	}
	_, err = store.Append(context.Background(), "s1", Exchange("q", "a")...)
	if err == nil {
		t.Fatalf("expected dial failure")
	}
	var app *errx.AppError
	if !errors.As(err, &app) || app.Status != http.StatusBadGateway {
		t.Fatalf("Append() error = %v, want AppError 502", err)
	}
}

// Runs against a real server when REDIS_TEST_URL is set.
func TestRedisStoreIntegration(t *testing.T) {
	url := os.Getenv("REDIS_TEST_URL")
	if url == "" {
		t.Skip("REDIS_TEST_URL not set")
	}
	opts, err := redis.ParseURL(url)
	if err != nil {
		t.Fatalf("ParseURL() error = %v", err)
	}
	client := redis.NewClient(opts)
	t.Cleanup(func() { _ = client.Close() })

	prefix := fmt.Sprintf("lca:test:%d:", time.Now().UnixNano())
	store, err := NewRedisStore(client, WithKeyPrefix(prefix), WithTTL(time.Minute))
	if err != nil {
		t.Fatalf("NewRedisStore() error = %v", err)
	}
	ctx := context.Background()
	t.Cleanup(func() { _ = store.Delete(ctx, "s1") })

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			got, err := store.Append(ctx, "s1", Exchange(fmt.Sprintf("q%d", i), fmt.Sprintf("a%d", i))...)
			if err != nil {
				t.Errorf("Append() error = %v", err)
				return
			}
			if len(got) > MaxHistoryEntries {
				t.Errorf("observed %d entries", len(got))
			}
		}(i)
	}
	wg.Wait()

	hist, err := store.History(ctx, "s1")
	if err != nil {
		t.Fatalf("History() error = %v", err)
	}
	if len(hist) != MaxHistoryEntries {
		t.Fatalf("len = %d, want %d", len(hist), MaxHistoryEntries)
	}
}
