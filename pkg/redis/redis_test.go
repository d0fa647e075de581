package redis

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	goredis "github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

func newTestClient(t *testing.T) *Client {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := goredis.NewClient(&goredis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { rdb.Close() })
	return NewFromClient(rdb, zap.NewNop())
}

func TestClient_CheckRateLimit_RejectsOverLimit(t *testing.T) {
	c := newTestClient(t)
	ctx := context.Background()

	for i := 1; i <= 3; i++ {
		allowed, err := c.CheckRateLimit(ctx, "rate_limit:test", 3, time.Minute)
		if err != nil {
			t.Fatalf("第 %d 次请求出错: %v", i, err)
		}
		if !allowed {
			t.Fatalf("第 %d 次请求应放行", i)
		}
	}

	allowed, err := c.CheckRateLimit(ctx, "rate_limit:test", 3, time.Minute)
	if err != nil {
		t.Fatalf("第 4 次请求出错: %v", err)
	}
	if allowed {
		t.Error("超过上限的请求应被拒绝")
	}

	// 不同 key 互不影响
	if allowed, _ := c.CheckRateLimit(ctx, "rate_limit:other", 3, time.Minute); !allowed {
		t.Error("其他 key 不应受影响")
	}
}

func TestClient_CheckRateLimit_WindowExpires(t *testing.T) {
	c := newTestClient(t)
	ctx := context.Background()
	window := 200 * time.Millisecond

	for i := 0; i < 2; i++ {
		c.CheckRateLimit(ctx, "rate_limit:win", 1, window)
	}
	if allowed, _ := c.CheckRateLimit(ctx, "rate_limit:win", 1, window); allowed {
		t.Fatal("窗口内超限请求应被拒绝")
	}

	time.Sleep(window + 100*time.Millisecond)

	allowed, err := c.CheckRateLimit(ctx, "rate_limit:win", 1, window)
	if err != nil {
		t.Fatalf("请求出错: %v", err)
	}
	if !allowed {
		t.Error("窗口过期后应重新放行")
	}
}
