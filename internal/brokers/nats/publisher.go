package nats

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"Futures/internal/domain/models"

	"github.com/nats-io/nats.go"
)

const (
	PricesStream = "PRICES"
	LedgerStream = "LEDGER"

	pricesPrefix = "prices."
	ledgerPrefix = "ledger."
)

// JetStream is the part of nats.JetStreamContext the publisher needs.
type JetStream interface {
	Publish(subj string, data []byte, opts ...nats.PubOpt) (*nats.PubAck, error)
}

type StreamManager interface {
	AddStream(cfg *nats.StreamConfig, opts ...nats.JSOpt) (*nats.StreamInfo, error)
}

type Publisher struct {
	log *slog.Logger
	js  JetStream
}

func New(log *slog.Logger, nc *nats.Conn) (*Publisher, error) {
	js, err := nc.JetStream()
	if err != nil {
		return nil, err
	}
	if err := EnsureStreams(js); err != nil {
		return nil, err
	}
	return NewWithJetStream(log, js), nil
}

func NewWithJetStream(log *slog.Logger, js JetStream) *Publisher {
	return &Publisher{log: log, js: js}
}

// EnsureStreams creates the price and ledger streams if they do not exist yet.
func EnsureStreams(sm StreamManager) error {
	const op = "nats.EnsureStreams"

	streams := []*nats.StreamConfig{
		{Name: PricesStream, Subjects: []string{pricesPrefix + "*"}, MaxMsgsPerSubject: 1000},
		{Name: LedgerStream, Subjects: []string{ledgerPrefix + "*"}},
	}
	for _, cfg := range streams {
		if _, err := sm.AddStream(cfg); err != nil && !errors.Is(err, nats.ErrStreamNameAlreadyInUse) {
			return fmt.Errorf("%s: %s: %w", op, cfg.Name, err)
		}
	}
	return nil
}

func (p *Publisher) Publish(ctx context.Context, subject string, msg any) error {
	const op = "nats.Publish"

	data, err := json.Marshal(msg)
	if err != nil {
		p.log.Error("marshalling message", "op", op, "error", err)
		return fmt.Errorf("%s: marshal %T: %w", op, msg, err)
	}

	if _, err := p.js.Publish(subject, data, nats.Context(ctx)); err != nil {
		p.log.Error("publishing message", "op", op, "subject", subject, "error", err)
		return fmt.Errorf("%s: %w", op, err)
	}
	p.log.Debug("message published", "op", op, "subject", subject)
	return nil
}

// PublishPrices sends each tick to prices.<TICKER>.
func (p *Publisher) PublishPrices(ctx context.Context, prices []models.PriceResponse) error {
	var errs []error
	for _, pr := range prices {
		if err := p.Publish(ctx, PriceSubject(pr.Symbol), pr); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func (p *Publisher) PublishEvent(ctx context.Context, event models.LedgerEvent) error {
	return p.Publish(ctx, ledgerPrefix+string(event.Type), event)
}

func (p *Publisher) OnQuote(ctx context.Context, q models.Quote) {
	pr := models.PriceResponse{Symbol: q.Asset.Ticker(), Price: q.Price.String()}
	if err := p.Publish(ctx, PriceSubject(pr.Symbol), pr); err != nil {
		p.log.Warn("price publish failed", "asset", q.Asset, "err", err)
	}
}

func PriceSubject(ticker string) string {
	return pricesPrefix + ticker
}

func LedgerSubjects() string {
	return ledgerPrefix + "*"
}
