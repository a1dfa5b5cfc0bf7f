package pricefeed

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"Futures/internal/domain/models"

	"github.com/gorilla/websocket"
)

const DefaultStreamURL = "wss://stream.binance.com:9443/ws"

type streamRequest struct {
	Method string   `json:"method"`
	Params []string `json:"params"`
	Id     int      `json:"id"`
}

// tradeEvent is the part of a Binance <symbol>@trade message the feed needs.
type tradeEvent struct {
	Symbol string `json:"s"`
	Price  string `json:"p"`
}

// Stream follows Binance trade streams for every asset and feeds the book,
// reconnecting with exponential backoff.
type Stream struct {
	log  *slog.Logger
	book *Book
	url  string

	mu      sync.Mutex
	conn    *websocket.Conn
	writeMu sync.Mutex

	ReadTimeout  time.Duration
	PingInterval time.Duration
	backoff      func(retry int) time.Duration
}

func NewStream(log *slog.Logger, book *Book, url string) *Stream {
	if url == "" {
		url = DefaultStreamURL
	}
	return &Stream{
		log:          log,
		book:         book,
		url:          url,
		ReadTimeout:  60 * time.Second,
		PingInterval: 30 * time.Second,
		backoff:      Backoff,
	}
}

// Run blocks until ctx is done.
func (s *Stream) Run(ctx context.Context) error {
	const op = "pricefeed.Stream.Run"

	retry := 0
	for {
		if ctx.Err() != nil {
			return nil
		}

		if err := s.connect(ctx); err != nil {
			delay := s.backoff(retry)
			s.log.Warn("stream connection failed", "op", op, "url", s.url, "retry", retry, "delay", delay, "err", err)
			retry++

			select {
			case <-ctx.Done():
				return nil
			case <-time.After(delay):
				continue
			}
		}

		retry = 0
		s.log.Info("stream connected", "op", op, "url", s.url)
		s.process(ctx)
	}
}

func (s *Stream) connect(ctx context.Context) error {
	dialer := websocket.Dialer{HandshakeTimeout: 10 * time.Second}
	conn, _, err := dialer.DialContext(ctx, s.url, nil)
	if err != nil {
		return err
	}

	s.mu.Lock()
	s.conn = conn
	s.mu.Unlock()

	if err := s.send(streamRequest{Method: "SUBSCRIBE", Params: Streams(), Id: 1}); err != nil {
		s.close()
		return fmt.Errorf("subscribe: %w", err)
	}
	return nil
}

func (s *Stream) process(ctx context.Context) {
	const op = "pricefeed.Stream.process"

	s.mu.Lock()
	conn := s.conn
	s.mu.Unlock()
	if conn == nil {
		return
	}

	done := make(chan struct{})
	defer close(done)
	go s.watch(ctx, done)

	for {
		_ = conn.SetReadDeadline(time.Now().Add(s.ReadTimeout))
		_, msg, err := conn.ReadMessage()
		if err != nil {
			if ctx.Err() == nil {
				s.log.Warn("stream read failed", "op", op, "err", err)
			}
			s.close()
			return
		}
		s.handle(ctx, msg)
	}
}

// watch pings the server and, once ctx is done, unsubscribes and closes the connection
// so that process returns.
func (s *Stream) watch(ctx context.Context, done <-chan struct{}) {
	const op = "pricefeed.Stream.watch"

	var tick <-chan time.Time
	if s.PingInterval > 0 {
		ticker := time.NewTicker(s.PingInterval)
		defer ticker.Stop()
		tick = ticker.C
	}

	for {
		select {
		case <-done:
			return
		case <-ctx.Done():
			_ = s.send(streamRequest{Method: "UNSUBSCRIBE", Params: Streams(), Id: 1})
			s.close()
			return
		case <-tick:
			if err := s.write(websocket.PingMessage, nil); err != nil {
				s.log.Warn("stream ping failed", "op", op, "err", err)
				s.close()
				return
			}
		}
	}
}

func (s *Stream) handle(ctx context.Context, msg []byte) {
	const op = "pricefeed.Stream.handle"

	var ev tradeEvent
	if err := json.Unmarshal(msg, &ev); err != nil {
		s.log.Debug("skipping non-json frame", "op", op, "err", err)
		return
	}
	// subscription acks look like {"result":null,"id":1}
	if ev.Symbol == "" || ev.Price == "" {
		return
	}
	if _, ok := models.AssetByTicker(ev.Symbol); !ok {
		return
	}

	if err := s.book.UpdateTicker(ctx, models.PriceResponse{Symbol: ev.Symbol, Price: ev.Price}); err != nil {
		s.log.Warn("trade price rejected", "op", op, "symbol", ev.Symbol, "err", err)
	}
}

func (s *Stream) send(req streamRequest) error {
	data, err := json.Marshal(req)
	if err != nil {
		return err
	}
	return s.write(websocket.TextMessage, data)
}

func (s *Stream) write(msgType int, data []byte) error {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	s.mu.Lock()
	conn := s.conn
	s.mu.Unlock()
	if conn == nil {
		return fmt.Errorf("stream not connected")
	}

	_ = conn.SetWriteDeadline(time.Now().Add(5 * time.Second))
	return conn.WriteMessage(msgType, data)
}

func (s *Stream) close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.conn != nil {
		_ = s.conn.Close()
		s.conn = nil
	}
}

// Streams lists the trade stream names for every asset, e.g. "btcusdt@trade".
func Streams() []string {
	res := make([]string, 0, len(models.Assets()))
	for _, a := range models.Assets() {
		res = append(res, strings.ToLower(a.Ticker())+"@trade")
	}
	return res
}
