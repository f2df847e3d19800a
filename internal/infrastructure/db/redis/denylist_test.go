package redis

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
)

type fakeRedis struct {
	keys   map[string]time.Duration
	setErr error
	exErr  error
}

func (f *fakeRedis) Set(_ context.Context, key string, _ any, exp time.Duration) *redis.StatusCmd {
	if f.setErr != nil {
		return redis.NewStatusResult("", f.setErr)
	}
	if f.keys == nil {
		f.keys = make(map[string]time.Duration)
	}
	f.keys[key] = exp
	return redis.NewStatusResult("OK", nil)
}

func (f *fakeRedis) Exists(_ context.Context, keys ...string) *redis.IntCmd {
	if f.exErr != nil {
		return redis.NewIntResult(0, f.exErr)
	}
	var n int64
	for _, k := range keys {
		if _, ok := f.keys[k]; ok {
			n++
		}
	}
	return redis.NewIntResult(n, nil)
}

func (f *fakeRedis) Ping(context.Context) *redis.StatusCmd {
	return redis.NewStatusResult("PONG", nil)
}

func TestDenylist_RevokeSetsTTLToRemainingLifetime(t *testing.T) {
	fake := &fakeRedis{}
	d := NewDenylist(fake)
	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	d.now = func() time.Time { return now }

	if err := d.Revoke(context.Background(), "abc", now.Add(90*time.Minute)); err != nil {
		t.Fatalf("Revoke: %v", err)
	}
	if got := fake.keys["denylist:jti:abc"]; got != 90*time.Minute {
		t.Fatalf("ttl = %v, want 90m", got)
	}

	revoked, err := d.IsRevoked(context.Background(), "abc")
	if err != nil || !revoked {
		t.Fatalf("IsRevoked = %v, %v", revoked, err)
	}
	revoked, err = d.IsRevoked(context.Background(), "other")
	if err != nil || revoked {
		t.Fatalf("IsRevoked(other) = %v, %v", revoked, err)
	}
}

func TestDenylist_ExpiredTokenIsNotStored(t *testing.T) {
	fake := &fakeRedis{}
	d := NewDenylist(fake)

	if err := d.Revoke(context.Background(), "old", time.Now().Add(-time.Minute)); err != nil {
		t.Fatalf("Revoke: %v", err)
	}
	if len(fake.keys) != 0 {
		t.Fatalf("expected nothing stored, got %v", fake.keys)
	}
}

func TestDenylist_Errors(t *testing.T) {
	boom := errors.New("connection refused")
	d := NewDenylist(&fakeRedis{setErr: boom, exErr: boom})

	if err := d.Revoke(context.Background(), "x", time.Now().Add(time.Hour)); !errors.Is(err, boom) {
		t.Fatalf("Revoke err = %v", err)
	}
	if _, err := d.IsRevoked(context.Background(), "x"); !errors.Is(err, boom) {
		t.Fatalf("IsRevoked err = %v", err)
	}
}
