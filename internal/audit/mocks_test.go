package audit

import (
	"context"
	"sync"

	"github.com/segmentio/kafka-go"

	"github.com/fjod/storefront/internal/domain"
)

type mockRecorder struct {
	m        sync.Mutex
	events   []domain.OrderEvent
	failures int // number of Record calls to fail before succeeding
	err      error
	calls    int
}

func (r *mockRecorder) Record(_ context.Context, event *domain.OrderEvent) error {
	r.m.Lock()
	defer r.m.Unlock()
	r.calls++
	if r.failures > 0 {
		r.failures--
		return r.err
	}
	r.events = append(r.events, *event)
	return nil
}

type mockReader struct {
	m         sync.Mutex
	messages  []kafka.Message
	fetchErr  error
	committed []int64
	closed    bool
}

func (r *mockReader) FetchMessage(ctx context.Context) (kafka.Message, error) {
	r.m.Lock()
	defer r.m.Unlock()
	if r.fetchErr != nil {
		return kafka.Message{}, r.fetchErr
	}
	if len(r.messages) == 0 {
		return kafka.Message{}, context.Canceled
	}
	m := r.messages[0]
	r.messages = r.messages[1:]
	return m, nil
}

func (r *mockReader) CommitMessages(_ context.Context, msgs ...kafka.Message) error {
	r.m.Lock()
	defer r.m.Unlock()
	for _, m := range msgs {
		r.committed = append(r.committed, m.Offset)
	}
	return nil
}

func (r *mockReader) Close() error {
	r.closed = true
	return nil
}
