package pricefeed

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"Futures/internal/domain/models"

	"github.com/nats-io/nats.go"
)

const PriceSubjects = "prices.*"

type Subscriber interface {
	Subscribe(subj string, cb nats.MsgHandler) (*nats.Subscription, error)
}

// Relay applies price ticks published on NATS by a standalone feed process to the local book.
type Relay struct {
	log     *slog.Logger
	book    *Book
	sub     Subscriber
	subject string
	updates chan models.PriceResponse
}

func NewRelay(log *slog.Logger, book *Book, sub Subscriber, subject string) *Relay {
	if subject == "" {
		subject = PriceSubjects
	}
	return &Relay{
		log:     log,
		book:    book,
		sub:     sub,
		subject: subject,
		updates: make(chan models.PriceResponse, 1024),
	}
}

// Run subscribes and applies ticks in arrival order until ctx is done.
func (r *Relay) Run(ctx context.Context) error {
	const op = "pricefeed.Relay.Run"

	s, err := r.sub.Subscribe(r.subject, r.onMsg)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	defer func() {
		if s != nil {
			_ = s.Unsubscribe()
		}
	}()
	r.log.Info("price relay subscribed", "op", op, "subject", r.subject)

	for {
		select {
		case <-ctx.Done():
			return nil
		case pu := <-r.updates:
			if err := r.book.UpdateTicker(ctx, pu); err != nil {
				r.log.Warn("relayed price rejected", "op", op, "symbol", pu.Symbol, "err", err)
			}
		}
	}
}

func (r *Relay) onMsg(msg *nats.Msg) {
	const op = "pricefeed.Relay.onMsg"

	var pu models.PriceResponse
	if err := json.Unmarshal(msg.Data, &pu); err != nil {
		r.log.Warn("invalid price message", "op", op, "subject", msg.Subject, "err", err)
		return
	}

	select {
	case r.updates <- pu:
	default:
		r.log.Warn("price relay backlog full, dropping tick", "op", op, "symbol", pu.Symbol)
	}
}
