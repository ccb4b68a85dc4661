package consumer

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/twmb/franz-go/pkg/kgo"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func fetchOf(topic string, values ...string) kgo.Fetches {
	records := make([]*kgo.Record, 0, len(values))
	for i, v := range values {
		records = append(records, &kgo.Record{Topic: topic, Key: []byte("k"), Value: []byte(v), Offset: int64(i)})
	}
	return kgo.Fetches{{Topics: []kgo.FetchTopic{{
		Topic:      topic,
		Partitions: []kgo.FetchPartition{{Partition: 0, Records: records}},
	}}}}
}

// fakeFetcher serves queued batches, then cancels the run.
type fakeFetcher struct {
	mu        sync.Mutex
	batches   []kgo.Fetches
	committed []*kgo.Record
	cancel    context.CancelFunc
}

func (f *fakeFetcher) PollFetches(ctx context.Context) kgo.Fetches {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.batches) == 0 {
		f.cancel()
		return nil
	}
	next := f.batches[0]
	f.batches = f.batches[1:]
	return next
}

func (f *fakeFetcher) CommitRecords(_ context.Context, rs ...*kgo.Record) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.committed = append(f.committed, rs...)
	return nil
}

func TestRunHandlesAndCommitsAll(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	fetcher := &fakeFetcher{
		batches: []kgo.Fetches{fetchOf("conversation-status", "a", "b"), fetchOf("conversation-status", "c")},
		cancel:  cancel,
	}
	var seen []string
	handler := HandlerFunc(func(_ context.Context, msg *Message) error {
		seen = append(seen, string(msg.Value))
		return nil
	})

	err := New(fetcher, handler, discardLogger()).Run(ctx)

	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b", "c"}, seen)
	assert.Len(t, fetcher.committed, 3)
}

func TestRunStopsOnHandlerError(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	fetcher := &fakeFetcher{
		batches: []kgo.Fetches{fetchOf("conversation-status", "a", "bad", "c")},
		cancel:  cancel,
	}
	dbDown := errors.New("db down")
	handler := HandlerFunc(func(_ context.Context, msg *Message) error {
		if string(msg.Value) == "bad" {
			return dbDown
		}
		return nil
	})

	err := New(fetcher, handler, discardLogger()).Run(ctx)

	require.ErrorIs(t, err, dbDown)
	require.Len(t, fetcher.committed, 1)
	assert.Equal(t, "a", string(fetcher.committed[0].Value))
}

func TestRouter(t *testing.T) {
	var got []string
	record := func(name string) Handler {
		return HandlerFunc(func(context.Context, *Message) error {
			got = append(got, name)
			return nil
		})
	}

	t.Run("routes by topic and skips unknown", func(t *testing.T) {
		got = nil
		r := NewRouter(discardLogger(), nil)
		r.Register("conversation-status", record("status"))

		require.NoError(t, r.Handle(context.Background(), &Message{Topic: "conversation-status"}))
		require.NoError(t, r.Handle(context.Background(), &Message{Topic: "other"}))
		assert.Equal(t, []string{"status"}, got)
		assert.Equal(t, []string{"conversation-status"}, r.Topics())
	})

	t.Run("fallback", func(t *testing.T) {
		got = nil
		r := NewRouter(discardLogger(), record("fallback"))
		require.NoError(t, r.Handle(context.Background(), &Message{Topic: "other"}))
		assert.Equal(t, []string{"fallback"}, got)
	})
}
