package handler

import (
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"Futures/internal/session"

	"github.com/stretchr/testify/assert"
)

func TestIdentity(t *testing.T) {
	var got int64
	h := Identity(session.NewResolver(999))(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got, _ = UserID(r.Context())
	}))

	tests := []struct {
		name   string
		setup  func(r *http.Request)
		target string
		want   int64
	}{
		{name: "no identity", target: "/", want: 999},
		{name: "telegram header", target: "/", setup: func(r *http.Request) { r.Header.Set("X-Telegram-User-Id", "42") }, want: 42},
		{name: "telegram wins", target: "/?user_id=7", setup: func(r *http.Request) {
			r.Header.Set("X-Telegram-User-Id", "42")
			r.Header.Set("X-User-Id", "43")
		}, want: 42},
		{name: "query", target: "/?user_id=7", want: 7},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, tt.target, nil)
			if tt.setup != nil {
				tt.setup(req)
			}
			h.ServeHTTP(httptest.NewRecorder(), req)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestRateLimiter_Evict(t *testing.T) {
	rl := NewRateLimiter(slog.New(slog.NewTextHandler(io.Discard, nil)), 1, 1)
	rl.getVisitor(1)
	rl.getVisitor(2)

	rl.evict(time.Now())
	assert.Len(t, rl.visitors, 2)

	rl.evict(time.Now().Add(time.Hour))
	assert.Empty(t, rl.visitors)
}
