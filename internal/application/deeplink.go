package application

import (
	"context"
	"log/slog"
	"sync"

	"github.com/pkgpanel/pkgpanel/internal/domain/model"
)

// DeepLinkQueue buffers "add repository" requests delivered through OS deep
// links. It is an explicit bounded queue of capacity 1 with
// overwrite-on-full semantics: at most one request waits, and a newer
// request replaces an older unconsumed one.
type DeepLinkQueue struct {
	mu     sync.Mutex
	slot   *model.AddRequest
	notify chan struct{}
}

// NewDeepLinkQueue creates an empty queue.
func NewDeepLinkQueue() *DeepLinkQueue {
	return &DeepLinkQueue{notify: make(chan struct{}, 1)}
}

// Offer buffers req, replacing any unconsumed request, and signals a
// waiting intake. The signal channel holds one pending notification;
// offering twice before intake wakes still results in a single wake, which
// is sufficient because Take drains the single slot.
func (q *DeepLinkQueue) Offer(req model.AddRequest) {
	q.mu.Lock()
	q.slot = &req
	q.mu.Unlock()

	select {
	case q.notify <- struct{}{}:
	default:
	}
}

// Take removes and returns the buffered request, or nil when the queue is
// empty.
func (q *DeepLinkQueue) Take() *model.AddRequest {
	q.mu.Lock()
	defer q.mu.Unlock()
	req := q.slot
	q.slot = nil
	return req
}

// Notify returns the channel signaled on every Offer.
func (q *DeepLinkQueue) Notify() <-chan struct{} {
	return q.notify
}

// IntakeService bridges deep-link notifications into the add flow. On start
// and on every queue signal it polls for a pending request and forwards it
// into the AddService exactly once.
//
// Reentrancy guard: a naturally-triggered poll is dropped while an add flow
// is already in progress. Whenever an add flow settles, whether this
// service or an API caller started it, a forced re-check runs and always
// proceeds, so one request can queue behind another without being lost.
type IntakeService struct {
	queue  *DeepLinkQueue
	adder  *AddService
	logger *slog.Logger
}

// NewIntakeService creates an IntakeService.
func NewIntakeService(queue *DeepLinkQueue, adder *AddService, logger *slog.Logger) *IntakeService {
	return &IntakeService{
		queue:  queue,
		adder:  adder,
		logger: logger,
	}
}

// Run polls once immediately, then on every queue signal, and forcedly
// whenever an add flow settles. It blocks until the context is canceled.
func (s *IntakeService) Run(ctx context.Context) {
	s.Poll(ctx, false)

	for {
		select {
		case <-ctx.Done():
			s.logger.Info("deep link intake stopped")
			return
		case <-s.queue.Notify():
			s.Poll(ctx, false)
		case <-s.adder.Settled():
			s.Poll(ctx, true)
		}
	}
}

// Poll takes the pending request, if any, and runs the add flow for it.
// A non-forced poll is dropped while another add flow is in progress; the
// request stays buffered for the forced re-check. After each completed
// flow, Poll re-checks forcedly for a request that arrived meanwhile.
func (s *IntakeService) Poll(ctx context.Context, forced bool) {
	for {
		if !forced && s.adder.InProgress() {
			s.logger.Debug("deep link intake dropped, add flow in progress")
			return
		}

		req := s.queue.Take()
		if req == nil {
			return
		}

		s.logger.Info("deep link add repository", "url", req.URL)
		if _, err := s.adder.Add(ctx, req.URL, req.Headers); err != nil {
			s.logger.Error("deep link add failed", "url", req.URL, "error", err)
		}

		// The completed flow triggers the forced re-check.
		forced = true
	}
}
