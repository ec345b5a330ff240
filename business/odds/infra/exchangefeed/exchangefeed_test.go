package exchangefeed

import (
	"context"
	"encoding/json"
	"io"
	"net"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/coder/websocket"

	"github.com/mvickers/surebet/business/odds/domain"
	"github.com/mvickers/surebet/internal/apperror"
	"github.com/mvickers/surebet/internal/logger"
)

func testLogger() *logger.Logger {
	return logger.New(io.Discard, logger.LevelError, "test", nil)
}

func quoteEventJSON(t *testing.T) []byte {
	t.Helper()
	payload, err := json.Marshal(map[string]any{
		"sport":      "football",
		"home_team":  "Arsenal",
		"away_team":  "Chelsea",
		"start_time": time.Now().Add(24 * time.Hour).UTC().Format(time.RFC3339),
		"market":     "moneyline",
		"odds":       "2.10",
		"currency":   "USD",
	})
	if err != nil {
		t.Fatalf("marshal quote event: %v", err)
	}
	return payload
}

// pushHandler accepts one WebSocket connection, pushes the given message, and
// keeps the connection open until the client closes it.
func pushHandler(push []byte) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		c, err := websocket.Accept(w, r, nil)
		if err != nil {
			return
		}
		defer c.Close(websocket.StatusNormalClosure, "")

		if err := c.Write(r.Context(), websocket.MessageText, push); err != nil {
			return
		}
		for {
			if _, _, err := c.Read(r.Context()); err != nil {
				return
			}
		}
	})
}

func wsURL(httpURL string) string {
	return "ws" + strings.TrimPrefix(httpURL, "http")
}

func awaitQuotes(t *testing.T, feed *Feed, within time.Duration) []domain.Quote {
	t.Helper()
	deadline := time.Now().Add(within)
	for {
		quotes, err := feed.FetchQuotes(context.Background(), domain.SportFootball)
		if err == nil && len(quotes) > 0 {
			return quotes
		}
		if time.Now().After(deadline) {
			t.Fatalf("no quotes after %s (last err: %v)", within, err)
		}
		time.Sleep(20 * time.Millisecond)
	}
}

func TestFeed_ServesCachedStreamQuotes(t *testing.T) {
	srv := httptest.NewServer(pushHandler(quoteEventJSON(t)))

	ctx, cancel := context.WithCancel(context.Background())
	feed, err := New(Config{
		Provider:     "betexchange",
		WebSocketURL: wsURL(srv.URL),
		Sports:       []domain.Sport{domain.SportFootball},
	}, testLogger())
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if err := feed.Start(ctx); err != nil {
		t.Fatalf("Start: %v", err)
	}

	quotes := awaitQuotes(t, feed, 3*time.Second)
	if quotes[0].HomeTeam != "Arsenal" || quotes[0].Market != "moneyline" {
		t.Errorf("unexpected quote %+v", quotes[0])
	}
	if quotes[0].Provider != "betexchange" {
		t.Errorf("Provider = %s, want betexchange", quotes[0].Provider)
	}

	_ = feed.Stop()
	cancel()
	srv.Close()
}

func TestFeed_RecoversFromFailedInitialDial(t *testing.T) {
	// Reserve a port, then release it so the first dial finds nothing
	// listening.
	l, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("reserve port: %v", err)
	}
	addr := l.Addr().String()
	l.Close()

	ctx, cancel := context.WithCancel(context.Background())
	feed, err := New(Config{
		Provider:     "betexchange",
		WebSocketURL: "ws://" + addr,
		Sports:       []domain.Sport{domain.SportFootball},
	}, testLogger())
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	// A dead endpoint must not fail Start; the feed keeps redialing.
	if err := feed.Start(ctx); err != nil {
		t.Fatalf("Start with unreachable endpoint: %v", err)
	}

	// Until the stream connects, the provider reports offline so the cycle
	// isolates it instead of matching stale prices.
	if _, err := feed.FetchQuotes(ctx, domain.SportFootball); apperror.GetCode(err) != apperror.CodeProviderOffline {
		t.Fatalf("FetchQuotes err = %v, want %s", err, apperror.CodeProviderOffline)
	}

	// Bring the exchange up on the reserved port; the redial loop should find
	// it and begin streaming.
	srv := httptest.NewUnstartedServer(pushHandler(quoteEventJSON(t)))
	srv.Listener.Close()
	for i := 0; ; i++ {
		srv.Listener, err = net.Listen("tcp", addr)
		if err == nil {
			break
		}
		if i == 20 {
			t.Fatalf("rebind %s: %v", addr, err)
		}
		time.Sleep(50 * time.Millisecond)
	}
	srv.Start()

	quotes := awaitQuotes(t, feed, 10*time.Second)
	if quotes[0].AwayTeam != "Chelsea" {
		t.Errorf("unexpected quote %+v", quotes[0])
	}

	_ = feed.Stop()
	cancel()
	srv.Close()
}
