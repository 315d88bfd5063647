package queue_test

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"

	"github.com/telegramsouls/server/internal/game/message"
	"github.com/telegramsouls/server/internal/game/queue"
)

func msg(id int64) message.Message {
	return message.Message{
		SenderID:   id,
		SenderName: fmt.Sprintf("user-%d", id),
		Text:       fmt.Sprintf("text-%d", id),
		MessageID:  id,
	}
}

func TestQueue_FIFO(t *testing.T) {
	q := queue.New()
	q.Enqueue(msg(1))
	q.Enqueue(msg(2))
	q.Enqueue(msg(3))

	for want := int64(1); want <= 3; want++ {
		got, ok := q.TryDequeue()
		require.True(t, ok)
		assert.Equal(t, want, got.MessageID)
	}
	_, ok := q.TryDequeue()
	assert.False(t, ok)
}

func TestQueue_TryDequeueEmpty(t *testing.T) {
	q := queue.New()
	got, ok := q.TryDequeue()
	assert.False(t, ok)
	assert.Zero(t, got)
	assert.Equal(t, 0, q.Len())
}

func TestQueue_DequeueBlocksUntilEnqueue(t *testing.T) {
	q := queue.New()

	got := make(chan message.Message, 1)
	go func() {
		m, ok := q.Dequeue(context.Background())
		if ok {
			got <- m
		}
	}()

	// Give the consumer a moment to park.
	time.Sleep(20 * time.Millisecond)
	q.Enqueue(msg(42))

	select {
	case m := <-got:
		assert.Equal(t, int64(42), m.MessageID)
	case <-time.After(2 * time.Second):
		t.Fatal("consumer never woke up")
	}
}

func TestQueue_DequeueCancelled(t *testing.T) {
	q := queue.New()
	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan bool, 1)
	go func() {
		_, ok := q.Dequeue(ctx)
		done <- ok
	}()

	cancel()
	select {
	case ok := <-done:
		assert.False(t, ok)
	case <-time.After(2 * time.Second):
		t.Fatal("Dequeue did not observe cancellation")
	}
}

func TestQueue_DrainAfterBurst(t *testing.T) {
	q := queue.New()
	for i := int64(0); i < 100; i++ {
		q.Enqueue(msg(i))
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	// A single blocking consumer must see every message in order even
	// though only one wake-up signal may be pending.
	for i := int64(0); i < 100; i++ {
		m, ok := q.Dequeue(ctx)
		require.True(t, ok)
		require.Equal(t, i, m.MessageID)
	}
}

func TestQueue_ConcurrentProducers(t *testing.T) {
	q := queue.New()

	const producers = 8
	const perProducer = 50

	var wg sync.WaitGroup
	for p := 0; p < producers; p++ {
		wg.Add(1)
		go func(p int) {
			defer wg.Done()
			for i := 0; i < perProducer; i++ {
				q.Enqueue(message.Message{
					SenderID:  int64(p),
					MessageID: int64(i),
				})
			}
		}(p)
	}
	wg.Wait()

	require.Equal(t, producers*perProducer, q.Len())

	// Arrival order across producers is nondeterministic, but each
	// producer's own messages must come out in the order it sent them.
	lastSeen := make(map[int64]int64)
	for {
		m, ok := q.TryDequeue()
		if !ok {
			break
		}
		if prev, seen := lastSeen[m.SenderID]; seen {
			require.Greater(t, m.MessageID, prev, "producer %d reordered", m.SenderID)
		}
		lastSeen[m.SenderID] = m.MessageID
	}
}

func TestQueue_FIFOProperty(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		q := queue.New()

		var nextID int64
		var expected []int64

		numOps := rapid.IntRange(1, 200).Draw(t, "num_ops")
		for i := 0; i < numOps; i++ {
			if rapid.Bool().Draw(t, "enqueue") {
				q.Enqueue(msg(nextID))
				expected = append(expected, nextID)
				nextID++
			} else {
				m, ok := q.TryDequeue()
				if len(expected) == 0 {
					if ok {
						t.Fatalf("dequeue from empty queue returned %v", m)
					}
					continue
				}
				if !ok {
					t.Fatalf("dequeue returned empty with %d buffered", len(expected))
				}
				if m.MessageID != expected[0] {
					t.Fatalf("got %d, want %d", m.MessageID, expected[0])
				}
				expected = expected[1:]
			}
		}

		if q.Len() != len(expected) {
			t.Fatalf("queue length %d, want %d", q.Len(), len(expected))
		}
	})
}
