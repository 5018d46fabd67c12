package ratelimit

import (
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

func newRedisLimiter(t *testing.T) (*RedisLimiter, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return NewRedis(client, time.Minute), mr
}

func TestRedisLimiter_AllowThenDeny(t *testing.T) {
	l, _ := newRedisLimiter(t)

	for i := 1; i <= 3; i++ {
		dec := l.Allow("k", 3)
		if !dec.Allowed {
			t.Fatalf("request %d unexpectedly denied", i)
		}
		if dec.Count != i {
			t.Fatalf("Count = %d, want %d", dec.Count, i)
		}
	}
	dec := l.Allow("k", 3)
	if dec.Allowed {
		t.Fatal("4th request should be denied")
	}
	if dec.Count != 4 {
		t.Fatalf("Count = %d, want 4（被拒绝的请求同样计入）", dec.Count)
	}
}

func TestRedisLimiter_WindowExpiry(t *testing.T) {
	l, mr := newRedisLimiter(t)

	for i := 0; i < 3; i++ {
		l.Allow("k", 2)
	}
	if dec := l.Allow("k", 2); dec.Allowed {
		t.Fatal("expected denial within window")
	}

	mr.FastForward(61 * time.Second)
	dec := l.Allow("k", 2)
	if !dec.Allowed {
		t.Fatal("expected allow after TTL expiry")
	}
	if dec.Count != 1 {
		t.Fatalf("Count = %d, want 1", dec.Count)
	}
}

func TestRedisLimiter_FailsClosedOnBackendError(t *testing.T) {
	l, mr := newRedisLimiter(t)
	mr.Close()

	// 计数后端不可达时按拒绝处理：静默放行会让限流失效。
	dec := l.Allow("k", 100)
	if dec.Allowed {
		t.Fatal("expected denial when redis is unreachable")
	}
}

func TestRedisLimiter_FailsClosedWithoutClient(t *testing.T) {
	t.Parallel()

	l := NewRedis(nil, time.Minute)
	if dec := l.Allow("k", 100); dec.Allowed {
		t.Fatal("expected denial with nil client")
	}
}
