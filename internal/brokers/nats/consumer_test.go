package nats

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"Futures/internal/domain/models"

	"github.com/nats-io/nats.go"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeSubscriber struct {
	subject string
	opts    int
	err     error
	ready   chan struct{}
}

func (f *fakeSubscriber) Subscribe(subj string, _ nats.MsgHandler, opts ...nats.SubOpt) (*nats.Subscription, error) {
	f.subject = subj
	f.opts = len(opts)
	if f.ready != nil {
		close(f.ready)
	}
	return nil, f.err
}

func TestConsumer_Run(t *testing.T) {
	sub := &fakeSubscriber{ready: make(chan struct{})}
	c := NewConsumer(discardLogger(), sub, "TEST", func(context.Context, models.LedgerEvent) error { return nil })

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- c.Run(ctx) }()

	select {
	case <-sub.ready:
	case <-time.After(time.Second):
		t.Fatal("consumer did not subscribe")
	}
	assert.Equal(t, "ledger.*", sub.subject)
	assert.Equal(t, 2, sub.opts)

	cancel()
	require.NoError(t, <-done)
}

func TestConsumer_SubscribeError(t *testing.T) {
	sub := &fakeSubscriber{err: errors.New("no stream")}
	c := NewConsumer(discardLogger(), sub, "TEST", func(context.Context, models.LedgerEvent) error { return nil })

	assert.Error(t, c.Run(context.Background()))
}

func TestConsumer_OnMsg(t *testing.T) {
	var got []models.LedgerEvent
	handleErr := error(nil)
	c := NewConsumer(discardLogger(), &fakeSubscriber{}, "TEST", func(_ context.Context, e models.LedgerEvent) error {
		got = append(got, e)
		return handleErr
	})

	ev := models.LedgerEvent{Type: models.EventPositionOpened, UserId: 9, PositionId: 1 << 60, Amount: decimal.NewFromInt(250)}
	data, err := json.Marshal(ev)
	require.NoError(t, err)

	// unbound messages cannot be acked; the call must still be harmless
	c.onMsg(&nats.Msg{Subject: "ledger.position_opened", Data: data})
	c.onMsg(&nats.Msg{Subject: "ledger.position_opened", Data: []byte("{")})
	handleErr = errors.New("busy")
	c.onMsg(&nats.Msg{Subject: "ledger.position_opened", Data: data})

	require.Len(t, got, 2)
	assert.Equal(t, int64(9), got[0].UserId)
	assert.Equal(t, int64(1<<60), got[0].PositionId)
	assert.True(t, got[0].Amount.Equal(decimal.NewFromInt(250)))
}
