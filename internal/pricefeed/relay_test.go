package pricefeed

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"Futures/internal/domain/models"

	"github.com/nats-io/nats.go"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeSubscriber struct {
	mu      sync.Mutex
	subject string
	cb      nats.MsgHandler
	err     error
}

func (f *fakeSubscriber) Subscribe(subj string, cb nats.MsgHandler) (*nats.Subscription, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	f.subject = subj
	f.cb = cb
	return nil, nil
}

func (f *fakeSubscriber) deliver(subject string, data string) bool {
	f.mu.Lock()
	cb := f.cb
	f.mu.Unlock()
	if cb == nil {
		return false
	}
	cb(&nats.Msg{Subject: subject, Data: []byte(data)})
	return true
}

func TestRelay_AppliesTicks(t *testing.T) {
	sub := &fakeSubscriber{}
	book := NewBook()
	r := NewRelay(discardLogger(), book, sub, "")

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- r.Run(ctx) }()

	require.Eventually(t, func() bool {
		return sub.deliver("prices.BTCUSDT", `{"symbol":"BTCUSDT","price":"69000"}`)
	}, time.Second, 5*time.Millisecond)
	assert.Equal(t, PriceSubjects, sub.subject)

	sub.deliver("prices.ETHUSDT", `garbage`)
	sub.deliver("prices.ETHUSDT", `{"symbol":"ETHUSDT","price":"-1"}`)

	require.Eventually(t, func() bool {
		p, err := book.Price(ctx, models.BTC)
		return err == nil && p.Equal(decimal.NewFromInt(69000))
	}, time.Second, 5*time.Millisecond)

	_, err := book.Price(ctx, models.ETH)
	require.ErrorIs(t, err, ErrPriceUnavailable)

	cancel()
	require.NoError(t, <-done)
}

func TestRelay_SubscribeError(t *testing.T) {
	sub := &fakeSubscriber{err: errors.New("no connection")}
	r := NewRelay(discardLogger(), NewBook(), sub, "prices.*")

	err := r.Run(context.Background())
	require.Error(t, err)
}
