package publisher

import (
	"context"
	"sync"

	"github.com/segmentio/kafka-go"

	"github.com/fjod/storefront/internal/repository"
)

type MockRepository struct {
	m            sync.Mutex
	OutboxEvents []*repository.OutboxEvent
	FetchErr     error
	MarkErr      error
	ProcessedIDs []int
}

func (r *MockRepository) GetUnprocessedEvents(_ context.Context, limit int) ([]*repository.OutboxEvent, error) {
	r.m.Lock()
	defer r.m.Unlock()
	if r.FetchErr != nil {
		return nil, r.FetchErr
	}
	var out []*repository.OutboxEvent
	for _, e := range r.OutboxEvents {
		if r.processed(e.ID) {
			continue
		}
		out = append(out, e)
		if len(out) == limit {
			break
		}
	}
	return out, nil
}

func (r *MockRepository) MarkEventAsProcessed(_ context.Context, id int) error {
	r.m.Lock()
	defer r.m.Unlock()
	if r.MarkErr != nil {
		return r.MarkErr
	}
	r.ProcessedIDs = append(r.ProcessedIDs, id)
	return nil
}

func (r *MockRepository) processed(id int) bool {
	for _, p := range r.ProcessedIDs {
		if p == id {
			return true
		}
	}
	return false
}

func (r *MockRepository) processedIDs() []int {
	r.m.Lock()
	defer r.m.Unlock()
	return append([]int(nil), r.ProcessedIDs...)
}

type mockWriter struct {
	m        sync.Mutex
	messages []kafka.Message
	failFrom int // with err set, writes fail once this many messages were accepted
	err      error
	calls    int
}

func (w *mockWriter) WriteMessages(_ context.Context, msgs ...kafka.Message) error {
	w.m.Lock()
	defer w.m.Unlock()
	w.calls++
	if w.err != nil && len(w.messages) >= w.failFrom {
		return w.err
	}
	w.messages = append(w.messages, msgs...)
	return nil
}

func (w *mockWriter) Close() error { return nil }
