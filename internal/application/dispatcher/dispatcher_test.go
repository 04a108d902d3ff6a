package dispatcher

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/djishijima/hellbuild-v3/internal/domain/event"
)

// mockLogger implements Logger for testing
type mockLogger struct {
	mu     sync.Mutex
	infos  []string
	errors []string
}

func (m *mockLogger) Info(msg string, keysAndValues ...interface{}) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.infos = append(m.infos, msg)
}

func (m *mockLogger) Error(msg string, keysAndValues ...interface{}) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.errors = append(m.errors, msg)
}

func (m *mockLogger) ErrorCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.errors)
}

func (m *mockLogger) HasInfo(msg string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, info := range m.infos {
		if info == msg {
			return true
		}
	}
	return false
}

func submitted() *event.Event {
	return event.NewEvent(event.TypeApprovalSubmitted, "rec-1", nil)
}

func noop(ctx context.Context, evt *event.Event) error { return nil }

func TestSubscribe(t *testing.T) {
	t.Run("runs handlers in registration order", func(t *testing.T) {
		logger := &mockLogger{}
		d := NewDispatcher(WithLogger(logger))
		var order []int

		d.Subscribe(event.TypeApprovalSubmitted, func(ctx context.Context, evt *event.Event) error {
			order = append(order, 1)
			return nil
		})
		d.Subscribe(event.TypeApprovalSubmitted, func(ctx context.Context, evt *event.Event) error {
			order = append(order, 2)
			return nil
		})

		if err := d.Dispatch(context.Background(), submitted()); err != nil {
			t.Fatalf("dispatch failed: %v", err)
		}
		if len(order) != 2 || order[0] != 1 || order[1] != 2 {
			t.Errorf("expected handlers to run in order [1, 2], got %v", order)
		}
		if !logger.HasInfo("Handler registered") {
			t.Error("expected registration to be logged")
		}
	})

	t.Run("generates distinct names", func(t *testing.T) {
		d := NewDispatcher()
		d.Subscribe(event.TypeApprovalSubmitted, noop)
		d.Subscribe(event.TypeApprovalSubmitted, noop)

		handlers := d.ListHandlers(event.TypeApprovalSubmitted)
		if len(handlers) != 2 || handlers[0].Name == handlers[1].Name {
			t.Errorf("expected two distinctly named handlers, got %+v", handlers)
		}
	})

	t.Run("does not call handlers of other types", func(t *testing.T) {
		d := NewDispatcher()
		called := false
		d.Subscribe(event.TypeApprovalApproved, func(ctx context.Context, evt *event.Event) error {
			called = true
			return nil
		})

		if err := d.Dispatch(context.Background(), submitted()); err != nil {
			t.Fatalf("dispatch failed: %v", err)
		}
		if called {
			t.Error("expected approved handler not to see a submitted event")
		}
	})
}

func TestSubscribe_Wildcard(t *testing.T) {
	d := NewDispatcher()
	var seen []string

	d.SubscribeNamed(event.TypeAny, "broadcast", func(ctx context.Context, evt *event.Event) error {
		seen = append(seen, "any:"+evt.Type.String())
		return nil
	})
	d.SubscribeNamed(event.TypeApprovalApproved, "notify", func(ctx context.Context, evt *event.Event) error {
		seen = append(seen, "typed:"+evt.Type.String())
		return nil
	})

	ctx := context.Background()
	if err := d.Dispatch(ctx, event.NewEvent(event.TypeApprovalApproved, "rec-1", nil)); err != nil {
		t.Fatalf("dispatch failed: %v", err)
	}
	if err := d.Dispatch(ctx, submitted()); err != nil {
		t.Fatalf("dispatch failed: %v", err)
	}

	want := []string{"typed:approval.approved", "any:approval.approved", "any:approval.submitted"}
	if fmt.Sprint(seen) != fmt.Sprint(want) {
		t.Errorf("seen = %v, want %v", seen, want)
	}
}

func TestUnsubscribe(t *testing.T) {
	d := NewDispatcher()
	called1, called2 := false, false

	d.SubscribeNamed(event.TypeApprovalSubmitted, "handler-1", func(ctx context.Context, evt *event.Event) error {
		called1 = true
		return nil
	})
	d.SubscribeNamed(event.TypeApprovalSubmitted, "handler-2", func(ctx context.Context, evt *event.Event) error {
		called2 = true
		return nil
	})

	d.Unsubscribe(event.TypeApprovalSubmitted, "handler-1")

	if err := d.Dispatch(context.Background(), submitted()); err != nil {
		t.Fatalf("dispatch failed: %v", err)
	}
	if called1 {
		t.Error("expected handler-1 not to be called")
	}
	if !called2 {
		t.Error("expected handler-2 to be called")
	}
}

func TestDispatch(t *testing.T) {
	t.Run("returns first error encountered", func(t *testing.T) {
		d := NewDispatcher()
		expectedErr := errors.New("handler error")
		called := false

		d.Subscribe(event.TypeApprovalSubmitted, func(ctx context.Context, evt *event.Event) error {
			return expectedErr
		})
		d.Subscribe(event.TypeApprovalSubmitted, func(ctx context.Context, evt *event.Event) error {
			called = true
			return nil
		})

		err := d.Dispatch(context.Background(), submitted())
		if !errors.Is(err, expectedErr) {
			t.Errorf("expected error to wrap %v, got %v", expectedErr, err)
		}
		if called {
			t.Error("expected second handler not to be called after first error")
		}
	})

	t.Run("recovers from handler panic", func(t *testing.T) {
		logger := &mockLogger{}
		d := NewDispatcher(WithLogger(logger))

		d.Subscribe(event.TypeApprovalSubmitted, func(ctx context.Context, evt *event.Event) error {
			panic("test panic")
		})

		if err := d.Dispatch(context.Background(), submitted()); err == nil {
			t.Fatal("expected error from panic recovery")
		}
		if logger.ErrorCount() == 0 {
			t.Error("expected panic to be logged as error")
		}
	})

	t.Run("returns error when dispatcher is closed", func(t *testing.T) {
		d := NewDispatcher()
		if err := d.Close(); err != nil {
			t.Fatalf("close failed: %v", err)
		}

		if err := d.Dispatch(context.Background(), submitted()); err == nil {
			t.Fatal("expected error when dispatching to closed dispatcher")
		}
	})
}

func TestDispatchAsync(t *testing.T) {
	t.Run("Close waits for handlers", func(t *testing.T) {
		d := NewDispatcher()
		var called atomic.Int32

		for i := 0; i < 2; i++ {
			d.Subscribe(event.TypeApprovalSubmitted, func(ctx context.Context, evt *event.Event) error {
				time.Sleep(10 * time.Millisecond)
				called.Add(1)
				return nil
			})
		}

		d.DispatchAsync(context.Background(), submitted())

		if err := d.Close(); err != nil {
			t.Fatalf("close failed: %v", err)
		}
		if called.Load() != 2 {
			t.Errorf("expected 2 handlers to be called, got %d", called.Load())
		}
	})

	t.Run("handlers outlive the caller's context", func(t *testing.T) {
		d := NewDispatcher()
		var ctxErr atomic.Value

		d.Subscribe(event.TypeApprovalSubmitted, func(ctx context.Context, evt *event.Event) error {
			time.Sleep(10 * time.Millisecond)
			ctxErr.Store(fmt.Sprint(ctx.Err()))
			return nil
		})

		ctx, cancel := context.WithCancel(context.Background())
		d.DispatchAsync(ctx, submitted())
		cancel()

		if err := d.Close(); err != nil {
			t.Fatalf("close failed: %v", err)
		}
		if got := ctxErr.Load(); got != "<nil>" {
			t.Errorf("handler context error = %v, want none", got)
		}
	})

	t.Run("logs handler errors and panics", func(t *testing.T) {
		logger := &mockLogger{}
		d := NewDispatcher(WithLogger(logger))
		var called atomic.Int32

		d.Subscribe(event.TypeApprovalSubmitted, func(ctx context.Context, evt *event.Event) error {
			return errors.New("handler error")
		})
		d.Subscribe(event.TypeApprovalSubmitted, func(ctx context.Context, evt *event.Event) error {
			panic("async panic")
		})
		d.Subscribe(event.TypeApprovalSubmitted, func(ctx context.Context, evt *event.Event) error {
			called.Add(1)
			return nil
		})

		d.DispatchAsync(context.Background(), submitted())
		if err := d.Close(); err != nil {
			t.Fatalf("close failed: %v", err)
		}

		if called.Load() != 1 {
			t.Errorf("expected healthy handler to run, got %d calls", called.Load())
		}
		if logger.ErrorCount() < 2 {
			t.Errorf("expected error and panic to be logged, got %d errors", logger.ErrorCount())
		}
	})

	t.Run("does not dispatch when dispatcher is closed", func(t *testing.T) {
		logger := &mockLogger{}
		d := NewDispatcher(WithLogger(logger))
		var called atomic.Int32

		d.Subscribe(event.TypeApprovalSubmitted, func(ctx context.Context, evt *event.Event) error {
			called.Add(1)
			return nil
		})

		if err := d.Close(); err != nil {
			t.Fatalf("close failed: %v", err)
		}
		d.DispatchAsync(context.Background(), submitted())
		time.Sleep(20 * time.Millisecond)

		if called.Load() > 0 {
			t.Error("expected handler not to be called after close")
		}
		if logger.ErrorCount() == 0 {
			t.Error("expected error log for dispatching to closed dispatcher")
		}
	})
}

func TestListHandlers(t *testing.T) {
	d := NewDispatcher()

	if handlers := d.ListHandlers(event.TypeApprovalSubmitted); len(handlers) != 0 {
		t.Errorf("expected 0 handlers, got %d", len(handlers))
	}

	d.SubscribeNamed(event.TypeApprovalSubmitted, "test-handler", noop)
	d.SubscribeNamed(event.TypeApprovalApproved, "other-handler", noop)

	handlers := d.ListHandlers(event.TypeApprovalSubmitted)
	if len(handlers) != 1 {
		t.Fatalf("expected 1 handler, got %d", len(handlers))
	}
	if handlers[0].Name != "test-handler" || handlers[0].EventType != event.TypeApprovalSubmitted {
		t.Errorf("unexpected handler info %+v", handlers[0])
	}
	if handlers[0].Handler != nil {
		t.Error("expected handler function not to be exposed")
	}
}

func TestClose_Twice(t *testing.T) {
	d := NewDispatcher()
	if err := d.Close(); err != nil {
		t.Fatalf("first close failed: %v", err)
	}
	if err := d.Close(); err == nil {
		t.Fatal("expected error on second close")
	}
}

func TestConcurrency(t *testing.T) {
	d := NewDispatcher()
	var called atomic.Int32
	var wg sync.WaitGroup

	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func(id int) {
			defer wg.Done()
			d.SubscribeNamed(event.TypeApprovalSubmitted, fmt.Sprintf("handler-%d", id), func(ctx context.Context, evt *event.Event) error {
				called.Add(1)
				return nil
			})
		}(i)
	}
	wg.Wait()

	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_ = d.Dispatch(context.Background(), submitted())
		}()
	}
	wg.Wait()

	if called.Load() != 100 {
		t.Errorf("expected 100 handler calls, got %d", called.Load())
	}
}
