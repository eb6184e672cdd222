package service

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"nexus-capture/internal/domain"
)

// webhookTimeout bounds each webhook delivery.
const webhookTimeout = 5 * time.Second

// streamBuffer is the per-subscriber event backlog before events are dropped.
const streamBuffer = 16

// Broadcaster fans a completed dispatch out to every registered observer.
// Observer failures never reach the caller.
type Broadcaster struct {
	mu        sync.RWMutex
	observers []domain.Observer
	logger    domain.Logger
}

func NewBroadcaster(logger domain.Logger, observers ...domain.Observer) *Broadcaster {
	return &Broadcaster{
		observers: observers,
		logger:    logger,
	}
}

// Register adds an observer.
func (b *Broadcaster) Register(observer domain.Observer) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.observers = append(b.observers, observer)
}

// Notify always returns nil.
func (b *Broadcaster) Notify(ctx context.Context, capture *domain.Capture, result *domain.DispatchResult) error {
	b.mu.RLock()
	observers := append([]domain.Observer(nil), b.observers...)
	b.mu.RUnlock()

	for _, observer := range observers {
		b.notifyOne(ctx, observer, capture, result)
	}
	return nil
}

func (b *Broadcaster) notifyOne(ctx context.Context, observer domain.Observer, capture *domain.Capture, result *domain.DispatchResult) {
	defer func() {
		if r := recover(); r != nil {
			b.logger.Debug("Observer panicked", "capture_id", capture.ID, "panic", r)
		}
	}()
	if err := observer.Notify(ctx, capture, result); err != nil {
		b.logger.Debug("Observer failed", "capture_id", capture.ID, "error", err)
	}
}

// StreamHub delivers capture events to in-process subscribers such as open SSE connections.
type StreamHub struct {
	mu          sync.Mutex
	subscribers map[chan domain.CaptureEvent]struct{}
	logger      domain.Logger
}

func NewStreamHub(logger domain.Logger) *StreamHub {
	return &StreamHub{
		subscribers: make(map[chan domain.CaptureEvent]struct{}),
		logger:      logger,
	}
}

// Subscribe registers a subscriber. The returned cancel func must be called to release it.
func (h *StreamHub) Subscribe() (<-chan domain.CaptureEvent, func()) {
	ch := make(chan domain.CaptureEvent, streamBuffer)

	h.mu.Lock()
	h.subscribers[ch] = struct{}{}
	h.mu.Unlock()

	var once sync.Once
	cancel := func() {
		once.Do(func() {
			h.mu.Lock()
			delete(h.subscribers, ch)
			h.mu.Unlock()
			close(ch)
		})
	}
	return ch, cancel
}

// SubscriberCount returns the number of live subscribers.
func (h *StreamHub) SubscriberCount() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.subscribers)
}

// Notify never blocks; a subscriber with a full buffer misses the event.
func (h *StreamHub) Notify(ctx context.Context, capture *domain.Capture, result *domain.DispatchResult) error {
	event := domain.CaptureEvent{
		Action:  domain.CaptureCompleteAction,
		Capture: capture,
		Results: result,
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	for ch := range h.subscribers {
		select {
		case ch <- event:
		default:
			h.logger.Debug("Dropping event for slow subscriber", "capture_id", capture.ID)
		}
	}
	return nil
}

// WebhookObserver posts every capture event to a fixed list of URLs.
type WebhookObserver struct {
	urls   []string
	client *http.Client
	logger domain.Logger
}

func NewWebhookObserver(urls []string, logger domain.Logger) *WebhookObserver {
	return &WebhookObserver{
		urls:   urls,
		client: &http.Client{Timeout: webhookTimeout},
		logger: logger,
	}
}

// Notify delivers to every URL and joins the failures.
func (w *WebhookObserver) Notify(ctx context.Context, capture *domain.Capture, result *domain.DispatchResult) error {
	body, err := json.Marshal(domain.CaptureEvent{
		Action:  domain.CaptureCompleteAction,
		Capture: capture,
		Results: result,
	})
	if err != nil {
		return fmt.Errorf("failed to encode event: %w", err)
	}

	var errs []error
	for _, url := range w.urls {
		if err := w.post(ctx, url, body); err != nil {
			errs = append(errs, fmt.Errorf("webhook %s: %w", url, err))
		}
	}
	return errors.Join(errs...)
}

func (w *WebhookObserver) post(ctx context.Context, url string, body []byte) error {
	ctx, cancel := context.WithTimeout(ctx, webhookTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := w.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if !isSuccess(resp.StatusCode) {
		return fmt.Errorf("unexpected status %d", resp.StatusCode)
	}
	return nil
}
