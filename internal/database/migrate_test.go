package database

import (
	"context"
	"net"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWithConnectTimeout(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{
			name: "adds timeout",
			in:   "postgres://u:p@db:5432/busseva?sslmode=disable",
			want: "postgres://u:p@db:5432/busseva?connect_timeout=5&sslmode=disable",
		},
		{
			name: "postgresql scheme",
			in:   "postgresql://db/busseva",
			want: "postgresql://db/busseva?connect_timeout=5",
		},
		{
			name: "keeps existing timeout",
			in:   "postgres://db/busseva?connect_timeout=30",
			want: "postgres://db/busseva?connect_timeout=30",
		},
		{
			name: "key value dsn unchanged",
			in:   "host=db user=u dbname=busseva",
			want: "host=db user=u dbname=busseva",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, WithConnectTimeout(tt.in))
		})
	}
}

func TestMigrate_CancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := Migrate(ctx, "postgres://u:p@127.0.0.1:1/busseva?sslmode=disable")
	assert.ErrorIs(t, err, context.Canceled)
}

// A server that accepts connections and never answers must not hold
// Migrate past its context.
func TestMigrate_SilentServerHonoursDeadline(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	defer ln.Close()

	go func() {
		var held []net.Conn
		for {
			c, err := ln.Accept()
			if err != nil {
				for _, c := range held {
					_ = c.Close()
				}
				return
			}
			held = append(held, c)
		}
	}()

	ctx, cancel := context.WithTimeout(context.Background(), 200*time.Millisecond)
	defer cancel()

	start := time.Now()
	err = Migrate(ctx, "postgres://u:p@"+ln.Addr().String()+"/busseva?sslmode=disable")
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Less(t, time.Since(start), 2*time.Second)
}
