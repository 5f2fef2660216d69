package notify

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/time/rate"

	"github.com/lysyi3m/review-hook/app/database"
)

const (
	DefaultQueueSize = 100
	sendTimeout      = 30 * time.Second
)

// Request is one payload to deliver to a webhook.
type Request struct {
	AppName    string
	ReviewID   string
	Kind       database.DeliveryKind
	WebhookURL string
	Payload    any
}

// Dispatcher delivers requests in the background. Dispatch never blocks
// and failed deliveries are logged and recorded, never retried.
type Dispatcher struct {
	sender   Sender
	repo     database.DeliveryRepository
	limiter  *rate.Limiter
	queue    chan Request
	ctx      context.Context
	cancel   context.CancelFunc
	wg       sync.WaitGroup
	mu       sync.RWMutex
	stopped  bool
	stopOnce sync.Once
}

// NewDispatcher creates a dispatcher sending at most ratePerSecond
// payloads per second. repo may be nil.
func NewDispatcher(sender Sender, repo database.DeliveryRepository, ratePerSecond float64, queueSize int) *Dispatcher {
	ctx, cancel := context.WithCancel(context.Background())
	if queueSize <= 0 {
		queueSize = DefaultQueueSize
	}

	return &Dispatcher{
		sender:  sender,
		repo:    repo,
		limiter: rate.NewLimiter(rate.Limit(ratePerSecond), 1),
		queue:   make(chan Request, queueSize),
		ctx:     ctx,
		cancel:  cancel,
	}
}

func (d *Dispatcher) Start() {
	d.wg.Add(1)
	go d.worker()
}

// Stop stops accepting requests and waits for queued ones to be delivered.
// When ctx expires first, the remaining requests are dropped.
func (d *Dispatcher) Stop(ctx context.Context) {
	d.stopOnce.Do(func() {
		d.mu.Lock()
		d.stopped = true
		close(d.queue)
		d.mu.Unlock()

		done := make(chan struct{})
		go func() {
			d.wg.Wait()
			close(done)
		}()

		select {
		case <-done:
		case <-ctx.Done():
			slog.Warn("Dispatcher stop timed out, dropping pending deliveries", "pending", len(d.queue))
			d.cancel()
			<-done
		}
		d.cancel()
	})
}

func (d *Dispatcher) Dispatch(req Request) {
	d.mu.RLock()
	defer d.mu.RUnlock()

	if d.stopped {
		slog.Warn("Dispatcher stopped, dropping delivery", "app", req.AppName, "review_id", req.ReviewID)
		d.record(req, database.DeliveryStatusDropped, "dispatcher stopped")
		return
	}

	select {
	case d.queue <- req:
	default:
		slog.Error("Delivery queue is full, dropping delivery", "app", req.AppName, "review_id", req.ReviewID)
		d.record(req, database.DeliveryStatusDropped, "delivery queue is full")
	}
}

func (d *Dispatcher) worker() {
	defer d.wg.Done()

	for req := range d.queue {
		d.deliver(req)
	}
}

func (d *Dispatcher) deliver(req Request) {
	if err := d.limiter.Wait(d.ctx); err != nil {
		slog.Warn("Delivery cancelled", "app", req.AppName, "review_id", req.ReviewID, "error", err)
		d.record(req, database.DeliveryStatusDropped, err.Error())
		return
	}

	sendCtx, cancel := context.WithTimeout(d.ctx, sendTimeout)
	defer cancel()

	start := time.Now()
	if err := d.sender.Send(sendCtx, req.WebhookURL, req.Payload); err != nil {
		slog.Error("Failed to deliver webhook", "app", req.AppName, "kind", req.Kind, "review_id", req.ReviewID, "error", err)
		d.record(req, database.DeliveryStatusFailed, err.Error())
		return
	}

	slog.Debug("Webhook delivered", "app", req.AppName, "kind", req.Kind, "review_id", req.ReviewID, "duration", time.Since(start))
	d.record(req, database.DeliveryStatusSent, "")
}

func (d *Dispatcher) record(req Request, status database.DeliveryStatus, errMsg string) {
	if d.repo == nil {
		return
	}

	err := d.repo.RecordDelivery(database.Delivery{
		ID:        uuid.NewString(),
		AppName:   req.AppName,
		ReviewID:  req.ReviewID,
		Kind:      req.Kind,
		Status:    status,
		Error:     errMsg,
		CreatedAt: time.Now().UTC(),
	})
	if err != nil {
		slog.Error("Failed to record delivery", "app", req.AppName, "review_id", req.ReviewID, "error", err)
	}
}
