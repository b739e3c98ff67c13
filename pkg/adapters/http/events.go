package http

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"sync"

	"github.com/aretw0/stepflow/internal/logging"
)

// StreamManager fans run updates out to SSE subscribers.
type StreamManager struct {
	mu          sync.RWMutex
	subscribers map[string]map[chan<- string]struct{} // run ID -> set of channels
	logger      *slog.Logger
}

func NewStreamManager() *StreamManager {
	return &StreamManager{
		subscribers: make(map[string]map[chan<- string]struct{}),
		logger:      logging.NewNop(),
	}
}

// Subscribe registers a channel for runID. The returned func unsubscribes and
// closes the channel.
func (sm *StreamManager) Subscribe(runID string) (chan string, func()) {
	sm.mu.Lock()
	defer sm.mu.Unlock()

	ch := make(chan string, 10)
	if _, ok := sm.subscribers[runID]; !ok {
		sm.subscribers[runID] = make(map[chan<- string]struct{})
	}
	sm.subscribers[runID][ch] = struct{}{}

	return ch, func() {
		sm.mu.Lock()
		defer sm.mu.Unlock()
		if subs, ok := sm.subscribers[runID]; ok {
			delete(subs, ch)
			close(ch)
			if len(subs) == 0 {
				delete(sm.subscribers, runID)
			}
		}
	}
}

// Broadcast sends msg to every subscriber of runID. Slow subscribers miss messages.
func (sm *StreamManager) Broadcast(runID string, msg string) {
	sm.mu.RLock()
	defer sm.mu.RUnlock()

	for ch := range sm.subscribers[runID] {
		select {
		case ch <- msg:
		default:
			sm.logger.Warn("sse client buffer full, dropping message", "run", runID)
		}
	}
}

// SubscribeEvents handles GET /events. With a run query parameter the stream
// carries that run's navigation updates, otherwise task reload notifications.
func (s *Server) SubscribeEvents(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "Streaming not supported", http.StatusInternalServerError)
		return
	}

	var (
		events <-chan string
		cancel = func() {}
	)
	if runID := r.URL.Query().Get("run"); runID != "" {
		events, cancel = s.Streams.Subscribe(runID)
		s.logger.Debug("sse subscribed to run", "run", runID)
	} else {
		changes, err := s.Nav.Watch(r.Context())
		if err != nil {
			s.writeError(w, http.StatusNotImplemented, err)
			return
		}
		events = reloads(r.Context(), changes)
	}
	defer cancel()

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")

	fmt.Fprintf(w, "event: ping\ndata: connected\n\n")
	flusher.Flush()

	for {
		select {
		case <-r.Context().Done():
			return
		case msg, ok := <-events:
			if !ok {
				return
			}
			fmt.Fprintf(w, "data: %s\n\n", msg)
			flusher.Flush()
		}
	}
}

func reloads(ctx context.Context, changes <-chan struct{}) <-chan string {
	out := make(chan string)
	go func() {
		defer close(out)
		for range changes {
			select {
			case out <- "reload":
			case <-ctx.Done():
				return
			}
		}
	}()
	return out
}
