// Package exchangefeed adapts a streaming betting exchange to the engine's
// fetch capability. Quotes arrive over WebSocket and are cached; FetchQuotes
// serves the current cache so streaming providers plug into the same polling
// cycle as REST ones.
package exchangefeed

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"

	"github.com/mvickers/surebet/business/odds/domain"
	"github.com/mvickers/surebet/internal/apperror"
	"github.com/mvickers/surebet/internal/logger"
	"github.com/mvickers/surebet/internal/wsconn"
)

const meterName = "exchangefeed"

// maxQuoteAge bounds how stale a cached streamed quote may be before it is
// dropped from fetch results.
const maxQuoteAge = 2 * time.Minute

// Initial-dial retry backoff. Once connected, wsconn owns reconnection.
const (
	connectRetryInitial = 1 * time.Second
	connectRetryMax     = 30 * time.Second
)

// Config holds the streaming adapter's settings for one exchange.
type Config struct {
	Provider     domain.ProviderID
	WebSocketURL string
	APIKey       string
	Sports       []domain.Sport
}

// feedMetrics holds OTEL metric instruments.
type feedMetrics struct {
	messagesReceived metric.Int64Counter
	parseErrors      metric.Int64Counter
}

// Feed is a streaming exchange adapter.
type Feed struct {
	config Config
	log    logger.LoggerInterface

	conn *wsconn.Client

	mu    sync.RWMutex
	cache map[string]domain.Quote // keyed by event key + market name

	metrics feedMetrics
	started bool
}

// New creates a Feed. Call Start before the first FetchQuotes.
func New(config Config, log logger.LoggerInterface) (*Feed, error) {
	if config.WebSocketURL == "" {
		return nil, fmt.Errorf("exchangefeed: provider %s has no websocket URL", config.Provider)
	}

	f := &Feed{
		config: config,
		log:    log.With("provider", config.Provider.String()),
		cache:  make(map[string]domain.Quote),
	}
	if err := f.initMetrics(); err != nil {
		return nil, fmt.Errorf("exchangefeed: init metrics: %w", err)
	}
	return f, nil
}

func (f *Feed) initMetrics() error {
	meter := otel.Meter(meterName)
	var err error
	if f.metrics.messagesReceived, err = meter.Int64Counter("exchangefeed_messages_total",
		metric.WithDescription("Stream messages received")); err != nil {
		return err
	}
	if f.metrics.parseErrors, err = meter.Int64Counter("exchangefeed_parse_errors_total",
		metric.WithDescription("Stream messages that failed to parse")); err != nil {
		return err
	}
	return nil
}

// Start connects the stream, subscribes to the configured sports, and begins
// consuming updates. Subscriptions are replayed after every reconnect. A
// failed initial dial is retried in the background with backoff; until a
// connection exists, FetchQuotes reports the provider offline and the cycle
// isolates it.
func (f *Feed) Start(ctx context.Context) error {
	f.conn = wsconn.New(wsconn.DefaultConfig(f.config.WebSocketURL))
	f.conn.OnReconnect(func(attempt int) {
		f.log.Info(ctx, "stream reconnected, replaying subscriptions", "attempt", attempt)
		f.subscribe(ctx)
	})
	f.started = true
	go f.consume(ctx)

	if err := f.conn.Connect(ctx); err != nil {
		f.log.Warn(ctx, "stream connect failed, retrying in background", "error", err.Error())
		go f.redial(ctx)
		return nil
	}
	f.subscribe(ctx)
	return nil
}

// redial retries the initial dial until it succeeds or the context ends.
// wsconn only reconnects on its own after a first successful Connect.
func (f *Feed) redial(ctx context.Context) {
	backoff := connectRetryInitial
	for {
		select {
		case <-ctx.Done():
			return
		case <-time.After(backoff):
		}

		if err := f.conn.Connect(ctx); err != nil {
			f.log.Warn(ctx, "stream connect retry failed",
				"error", err.Error(), "backoff", backoff.String())
			backoff *= 2
			if backoff > connectRetryMax {
				backoff = connectRetryMax
			}
			continue
		}

		f.log.Info(ctx, "stream connected after retry")
		f.subscribe(ctx)
		return
	}
}

type subscribeMessage struct {
	Op     string   `json:"op"`
	Sports []string `json:"sports"`
	APIKey string   `json:"api_key,omitempty"`
}

func (f *Feed) subscribe(ctx context.Context) {
	sports := make([]string, len(f.config.Sports))
	for i, s := range f.config.Sports {
		sports[i] = string(s)
	}
	msg, _ := json.Marshal(subscribeMessage{Op: "subscribe", Sports: sports, APIKey: f.config.APIKey})
	if err := f.conn.Send(ctx, msg); err != nil {
		f.log.Error(ctx, "subscribe failed", "error", err.Error())
	}
}

// quoteEvent is one priced outcome pushed by the exchange.
type quoteEvent struct {
	Sport     string          `json:"sport"`
	HomeTeam  string          `json:"home_team"`
	AwayTeam  string          `json:"away_team"`
	StartTime time.Time       `json:"start_time"`
	Market    string          `json:"market"`
	Odds      decimal.Decimal `json:"odds"`
	Currency  string          `json:"currency"`
}

func (f *Feed) consume(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case data, ok := <-f.conn.Messages():
			if !ok {
				f.log.Warn(ctx, "stream closed")
				return
			}
			f.metrics.messagesReceived.Add(ctx, 1,
				metric.WithAttributes(attribute.String("provider", f.config.Provider.String())))
			f.handleMessage(ctx, data)
		}
	}
}

func (f *Feed) handleMessage(ctx context.Context, data []byte) {
	var ev quoteEvent
	if err := json.Unmarshal(data, &ev); err != nil {
		f.metrics.parseErrors.Add(ctx, 1,
			metric.WithAttributes(attribute.String("provider", f.config.Provider.String())))
		f.log.Debug(ctx, "unparseable stream message", "error", err.Error())
		return
	}

	quote := domain.Quote{
		Provider:  f.config.Provider,
		Sport:     domain.Sport(ev.Sport),
		HomeTeam:  ev.HomeTeam,
		AwayTeam:  ev.AwayTeam,
		StartTime: ev.StartTime,
		Market:    ev.Market,
		Odds:      ev.Odds,
		Currency:  ev.Currency,
		FetchedAt: time.Now().UTC(),
	}
	if !quote.Valid() {
		return
	}

	f.mu.Lock()
	f.cache[quote.EventKey()+"|"+quote.Market] = quote
	f.mu.Unlock()
}

// Provider implements app.QuoteFetcher.
func (f *Feed) Provider() domain.ProviderID { return f.config.Provider }

// FetchQuotes implements app.QuoteFetcher by snapshotting the stream cache.
// A disconnected stream is a fetch failure so the cycle isolates the provider
// instead of matching against stale prices.
func (f *Feed) FetchQuotes(_ context.Context, sport domain.Sport) ([]domain.Quote, error) {
	if !f.started || f.conn.State() != wsconn.StateConnected {
		return nil, apperror.New(apperror.CodeProviderOffline,
			apperror.WithContext(f.config.Provider.String()))
	}

	cutoff := time.Now().Add(-maxQuoteAge)

	f.mu.RLock()
	defer f.mu.RUnlock()
	var quotes []domain.Quote
	for _, q := range f.cache {
		if q.Sport == sport && q.FetchedAt.After(cutoff) {
			quotes = append(quotes, q)
		}
	}
	return quotes, nil
}

// Stop closes the stream.
func (f *Feed) Stop() error {
	if f.conn == nil {
		return nil
	}
	return f.conn.Close()
}
