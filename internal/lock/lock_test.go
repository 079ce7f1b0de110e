package lock

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

func exerciseMutualExclusion(t *testing.T, l Locker) {
	t.Helper()

	var active, maxActive atomic.Int32
	var wg sync.WaitGroup
	for i := 0; i < 5; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			release, err := l.Acquire(context.Background())
			if err != nil {
				t.Errorf("acquire: %v", err)
				return
			}
			n := active.Add(1)
			for {
				m := maxActive.Load()
				if n <= m || maxActive.CompareAndSwap(m, n) {
					break
				}
			}
			time.Sleep(5 * time.Millisecond)
			active.Add(-1)
			release()
		}()
	}
	wg.Wait()

	if got := maxActive.Load(); got != 1 {
		t.Errorf("expected at most one holder, saw %d", got)
	}
}

func TestLocal(t *testing.T) {
	t.Run("mutual_exclusion", func(t *testing.T) {
		exerciseMutualExclusion(t, NewLocal())
	})

	t.Run("context_cancelled_while_waiting", func(t *testing.T) {
		l := NewLocal()
		release, err := l.Acquire(context.Background())
		if err != nil {
			t.Fatalf("acquire: %v", err)
		}

		ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
		defer cancel()
		if _, err := l.Acquire(ctx); !errors.Is(err, ErrNotAcquired) {
			t.Errorf("expected ErrNotAcquired, got %v", err)
		}

		release()
		next, err := l.Acquire(context.Background())
		if err != nil {
			t.Fatalf("expected lock to be free after release: %v", err)
		}
		next()
	})
}

func newTestRedis(t *testing.T) (*miniredis.Miniredis, *redis.Client) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return mr, client
}

func TestRedis(t *testing.T) {
	t.Run("mutual_exclusion", func(t *testing.T) {
		_, client := newTestRedis(t)
		exerciseMutualExclusion(t, NewRedis(client, "ledger", WithRetryInterval(time.Millisecond)))
	})

	t.Run("release_deletes_key", func(t *testing.T) {
		mr, client := newTestRedis(t)
		l := NewRedis(client, "ledger")

		release, err := l.Acquire(context.Background())
		if err != nil {
			t.Fatalf("acquire: %v", err)
		}
		if !mr.Exists("ledger") {
			t.Fatal("expected key to exist while held")
		}
		release()
		if mr.Exists("ledger") {
			t.Error("expected key to be deleted after release")
		}
	})

	t.Run("release_keeps_foreign_lease", func(t *testing.T) {
		mr, client := newTestRedis(t)
		l := NewRedis(client, "ledger")

		release, err := l.Acquire(context.Background())
		if err != nil {
			t.Fatalf("acquire: %v", err)
		}
		// Lease expired and another process took it.
		if err := mr.Set("ledger", "someone-else"); err != nil {
			t.Fatalf("set: %v", err)
		}
		release()

		if got, _ := mr.Get("ledger"); got != "someone-else" {
			t.Errorf("expected foreign lease to survive, got %q", got)
		}
	})

	t.Run("times_out_while_held", func(t *testing.T) {
		mr, client := newTestRedis(t)
		if err := mr.Set("ledger", "held"); err != nil {
			t.Fatalf("set: %v", err)
		}
		l := NewRedis(client, "ledger", WithRetryInterval(5*time.Millisecond))

		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Millisecond)
		defer cancel()
		if _, err := l.Acquire(ctx); !errors.Is(err, ErrNotAcquired) {
			t.Errorf("expected ErrNotAcquired, got %v", err)
		}
	})
}
