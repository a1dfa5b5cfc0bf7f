package nats

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"Futures/internal/domain/models"

	"github.com/nats-io/nats.go"
)

type JetSubscriber interface {
	Subscribe(subj string, cb nats.MsgHandler, opts ...nats.SubOpt) (*nats.Subscription, error)
}

type EventHandler func(ctx context.Context, event models.LedgerEvent) error

// Consumer reads committed ledger events from the LEDGER stream through a durable consumer.
type Consumer struct {
	log     *slog.Logger
	js      JetSubscriber
	durable string
	handle  EventHandler
	ctx     context.Context
}

func NewConsumer(log *slog.Logger, js JetSubscriber, durable string, handle EventHandler) *Consumer {
	return &Consumer{
		log:     log,
		js:      js,
		durable: durable,
		handle:  handle,
		ctx:     context.Background(),
	}
}

// Run blocks until ctx is done. The durable consumer survives restarts.
func (c *Consumer) Run(ctx context.Context) error {
	const op = "nats.Consumer.Run"

	c.ctx = ctx
	_, err := c.js.Subscribe(LedgerSubjects(), c.onMsg, nats.Durable(c.durable), nats.ManualAck())
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	c.log.Info("ledger consumer subscribed", "op", op, "durable", c.durable)

	<-ctx.Done()
	return nil
}

func (c *Consumer) onMsg(msg *nats.Msg) {
	const op = "nats.Consumer.onMsg"

	var event models.LedgerEvent
	if err := json.Unmarshal(msg.Data, &event); err != nil {
		c.log.Error("invalid ledger event", "op", op, "subject", msg.Subject, "err", err)
		// redelivery cannot fix a bad payload
		_ = msg.Term()
		return
	}

	if err := c.handle(c.ctx, event); err != nil {
		c.log.Warn("ledger event handling failed", "op", op, "event_id", event.Id, "err", err)
		_ = msg.Nak()
		return
	}
	_ = msg.Ack()
}
