package ingest

import (
	"context"
	"log"
	"os"
	"time"

	"github.com/gorilla/websocket"

	"purchase-intent-lab/internal/domain"
	"purchase-intent-lab/internal/observability"
)

const (
	maxDialRetries = 3
	baseRetryDelay = 500 * time.Millisecond
)

// WSSource streams sessions from a live tracking feed over WebSocket.
// Each text message carries one session record in the export format.
type WSSource struct {
	url    string
	dialer *websocket.Dialer
	logger *log.Logger
}

// NewWSSource creates a source connected to the tracking feed at url.
func NewWSSource(url string) *WSSource {
	return &WSSource{
		url:    url,
		dialer: websocket.DefaultDialer,
		logger: log.New(os.Stdout, "[ingest-ws] ", log.LstdFlags),
	}
}

var _ SessionSource = (*WSSource)(nil)

// Subscribe connects to the feed and streams decoded sessions. Read failures
// trigger reconnection with exponential backoff; the channel closes when the
// context is cancelled or reconnection is exhausted.
func (w *WSSource) Subscribe(ctx context.Context) (<-chan *domain.Session, error) {
	conn, err := w.dial(ctx)
	if err != nil {
		return nil, err
	}
	w.logger.Printf("Connected to tracking feed: %s", w.url)

	ch := make(chan *domain.Session, 100)
	go func() {
		defer close(ch)
		// conn is swapped on reconnect and is nil after exhausted redials;
		// close whichever is current on exit
		defer func() {
			if conn != nil {
				conn.Close()
			}
		}()

		for {
			if ctx.Err() != nil {
				return
			}

			_, message, err := conn.ReadMessage()
			if err != nil {
				if ctx.Err() != nil {
					return
				}
				w.logger.Printf("Read failed, reconnecting: %v", err)
				conn.Close()
				conn, err = w.dial(ctx)
				if err != nil {
					w.logger.Printf("Reconnect exhausted: %v", err)
					return
				}
				continue
			}

			session, err := ParseRecord(message)
			if err != nil {
				observability.RecordMalformedRecord()
				w.logger.Printf("Skipping malformed record: %v", err)
				continue
			}

			select {
			case ch <- session:
			case <-ctx.Done():
				return
			}
		}
	}()

	return ch, nil
}

// dial connects with exponential backoff: 500ms, 1s, 2s.
func (w *WSSource) dial(ctx context.Context) (*websocket.Conn, error) {
	var lastErr error
	for attempt := 0; attempt < maxDialRetries; attempt++ {
		conn, _, err := w.dialer.DialContext(ctx, w.url, nil)
		if err == nil {
			return conn, nil
		}
		lastErr = err
		observability.RecordFeedReconnect()

		if ctx.Err() != nil {
			return nil, ctx.Err()
		}

		delay := baseRetryDelay * time.Duration(1<<attempt)
		w.logger.Printf("Dial %d/%d failed, retrying after %v: %v", attempt+1, maxDialRetries, delay, err)

		select {
		case <-time.After(delay):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	return nil, lastErr
}
