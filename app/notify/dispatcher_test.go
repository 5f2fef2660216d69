package notify

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/lysyi3m/review-hook/app/database"
)

type fakeSender struct {
	mu    sync.Mutex
	urls  []string
	err   error
	block chan struct{}
}

func (s *fakeSender) Send(ctx context.Context, url string, payload any) error {
	if s.block != nil {
		select {
		case <-s.block:
		case <-ctx.Done():
			return ctx.Err()
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.urls = append(s.urls, url)
	return s.err
}

func (s *fakeSender) sent() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.urls...)
}

type fakeRepo struct {
	mu         sync.Mutex
	deliveries []database.Delivery
}

func (r *fakeRepo) RecordDelivery(d database.Delivery) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.deliveries = append(r.deliveries, d)
	return nil
}

func (r *fakeRepo) GetRecentDeliveries(appName string, limit int) ([]database.Delivery, error) {
	return nil, nil
}

func (r *fakeRepo) GetDeliveryStats(appName string) (database.DeliveryStats, error) {
	return database.DeliveryStats{}, nil
}

func (r *fakeRepo) statuses() []database.DeliveryStatus {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []database.DeliveryStatus
	for _, d := range r.deliveries {
		out = append(out, d.Status)
	}
	return out
}

func TestDispatcherDeliversInOrder(t *testing.T) {
	sender := &fakeSender{}
	repo := &fakeRepo{}
	d := NewDispatcher(sender, repo, 1000, 10)
	d.Start()

	for _, url := range []string{"http://a", "http://b", "http://c"} {
		d.Dispatch(Request{AppName: "app", ReviewID: url, Kind: database.DeliveryKindReview, WebhookURL: url})
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	d.Stop(ctx)

	got := sender.sent()
	if len(got) != 3 {
		t.Fatalf("Expected 3 deliveries, got: %d", len(got))
	}
	for i, want := range []string{"http://a", "http://b", "http://c"} {
		if got[i] != want {
			t.Errorf("Expected delivery %d to %s, got: %s", i, want, got[i])
		}
	}

	for _, status := range repo.statuses() {
		if status != database.DeliveryStatusSent {
			t.Errorf("Expected sent status, got: %s", status)
		}
	}
}

func TestDispatcherRecordsFailure(t *testing.T) {
	sender := &fakeSender{err: errors.New("HTTP error: 500")}
	repo := &fakeRepo{}
	d := NewDispatcher(sender, repo, 1000, 10)
	d.Start()

	d.Dispatch(Request{AppName: "app", ReviewID: "1", Kind: database.DeliveryKindReview, WebhookURL: "http://a"})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	d.Stop(ctx)

	statuses := repo.statuses()
	if len(statuses) != 1 || statuses[0] != database.DeliveryStatusFailed {
		t.Errorf("Expected one failed delivery, got: %v", statuses)
	}
	if len(sender.sent()) != 1 {
		t.Errorf("Expected exactly one attempt without retry, got: %d", len(sender.sent()))
	}
}

func TestDispatcherDropsWhenQueueFull(t *testing.T) {
	sender := &fakeSender{}
	repo := &fakeRepo{}
	// Worker not started, so the queue never drains.
	d := NewDispatcher(sender, repo, 1000, 1)

	d.Dispatch(Request{AppName: "app", ReviewID: "1", WebhookURL: "http://a"})
	d.Dispatch(Request{AppName: "app", ReviewID: "2", WebhookURL: "http://a"})

	statuses := repo.statuses()
	if len(statuses) != 1 || statuses[0] != database.DeliveryStatusDropped {
		t.Errorf("Expected one dropped delivery, got: %v", statuses)
	}
}

func TestDispatcherDropsAfterStop(t *testing.T) {
	sender := &fakeSender{}
	repo := &fakeRepo{}
	d := NewDispatcher(sender, repo, 1000, 10)
	d.Start()
	d.Stop(context.Background())

	d.Dispatch(Request{AppName: "app", ReviewID: "1", WebhookURL: "http://a"})

	if len(sender.sent()) != 0 {
		t.Errorf("Expected no deliveries after stop, got: %d", len(sender.sent()))
	}
	statuses := repo.statuses()
	if len(statuses) != 1 || statuses[0] != database.DeliveryStatusDropped {
		t.Errorf("Expected one dropped delivery, got: %v", statuses)
	}
}

func TestDispatcherStopTimeoutCancelsPending(t *testing.T) {
	sender := &fakeSender{block: make(chan struct{})}
	d := NewDispatcher(sender, nil, 1000, 10)
	d.Start()

	d.Dispatch(Request{AppName: "app", ReviewID: "1", WebhookURL: "http://a"})
	d.Dispatch(Request{AppName: "app", ReviewID: "2", WebhookURL: "http://b"})

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	done := make(chan struct{})
	go func() {
		d.Stop(ctx)
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("Expected Stop to return after its context expired")
	}
}
