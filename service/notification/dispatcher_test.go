package notification

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/viant/retract/service/messaging/memory"
)

type recorder struct {
	mux     sync.Mutex
	notices []*Notice
}

func (r *recorder) Notify(_ context.Context, notice *Notice) error {
	r.mux.Lock()
	defer r.mux.Unlock()
	r.notices = append(r.notices, notice)
	return nil
}

func (r *recorder) count() int {
	r.mux.Lock()
	defer r.mux.Unlock()
	return len(r.notices)
}

func TestDispatcher_Delivers(t *testing.T) {
	rec := &recorder{}
	core, logs := observer.New(zap.WarnLevel)
	failing := NotifierFunc(func(ctx context.Context, notice *Notice) error { return errors.New("chat down") })
	dispatcher := New(&Config{ReviewDestination: "C-review"}, WithNotifiers(failing, rec), WithLogger(zap.New(core)))
	dispatcher.Start(context.Background())
	defer dispatcher.Stop()

	dispatcher.Publish(context.Background(), NewCreatedEvent(newRequest()))
	require.Eventually(t, func() bool { return rec.count() == 2 }, time.Second, 5*time.Millisecond)
	assert.Equal(t, 2, logs.FilterMessage("failed to deliver notice").Len())
}

func TestDispatcher_PublishNeverBlocks(t *testing.T) {
	core, logs := observer.New(zap.WarnLevel)
	queue := memory.NewQueue[Event](memory.Config{QueueBuffer: 1})
	dispatcher := New(&Config{ReviewDestination: "C-review"}, WithQueue(queue), WithLogger(zap.New(core)))

	done := make(chan struct{})
	go func() {
		defer close(done)
		for i := 0; i < 5; i++ {
			dispatcher.Publish(context.Background(), NewCreatedEvent(newRequest()))
		}
	}()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("publish blocked")
	}
	assert.Equal(t, 1, queue.Size())
	assert.Equal(t, 4, logs.FilterMessage("notification dropped").Len())
}

func TestDispatcher_StartStop(t *testing.T) {
	dispatcher := New(nil)
	dispatcher.Stop()
	dispatcher.Start(context.Background())
	dispatcher.Start(context.Background())
	dispatcher.Stop()
	dispatcher.Stop()
}
