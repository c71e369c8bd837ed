package auth

import (
	"context"
	"errors"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

func testSessions(t *testing.T) (*RedisSessions, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return NewRedisSessions(client), mr
}

func TestRedisSessions_UserID(t *testing.T) {
	ctx := context.Background()

	t.Run("resolves token", func(t *testing.T) {
		sessions, mr := testSessions(t)
		want := uuid.New()
		mr.Set("session:tok-1", want.String())

		got, err := sessions.UserID(ctx, "tok-1")
		if err != nil {
			t.Fatalf("UserID: %v", err)
		}
		if got != want {
			t.Errorf("got %s, want %s", got, want)
		}
	})

	t.Run("unknown token", func(t *testing.T) {
		sessions, _ := testSessions(t)
		_, err := sessions.UserID(ctx, "missing")
		if !errors.Is(err, ErrNoSession) {
			t.Errorf("got err %v", err)
		}
	})

	t.Run("corrupt session value", func(t *testing.T) {
		sessions, mr := testSessions(t)
		mr.Set("session:tok-2", "not-a-uuid")
		_, err := sessions.UserID(ctx, "tok-2")
		if err == nil || errors.Is(err, ErrNoSession) {
			t.Errorf("got err %v", err)
		}
	})
}
