// Package ingest loads raw session rows from tracking feeds into the event log.
package ingest

import (
	"context"

	"purchase-intent-lab/internal/domain"
)

// SessionSource provides raw session rows from an external feed.
type SessionSource interface {
	// Subscribe returns a channel of raw sessions. The channel is closed when
	// the context is cancelled or the feed ends. Rows may arrive in any order;
	// the event log keys them by (visitor_id, visit_id).
	Subscribe(ctx context.Context) (<-chan *domain.Session, error)
}

// SliceSource replays an in-memory slice of sessions. Used by tests and
// dry runs.
type SliceSource struct {
	sessions []*domain.Session
}

// NewSliceSource creates a source that emits the given sessions in order.
func NewSliceSource(sessions []*domain.Session) *SliceSource {
	return &SliceSource{sessions: sessions}
}

var _ SessionSource = (*SliceSource)(nil)

// Subscribe emits every session and closes the channel.
func (s *SliceSource) Subscribe(ctx context.Context) (<-chan *domain.Session, error) {
	ch := make(chan *domain.Session, 100)
	go func() {
		defer close(ch)
		for _, sess := range s.sessions {
			select {
			case ch <- sess:
			case <-ctx.Done():
				return
			}
		}
	}()
	return ch, nil
}
