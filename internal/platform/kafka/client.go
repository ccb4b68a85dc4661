// Package kafka builds franz-go clients for the audit and status topics.
package kafka

import (
	"context"
	"errors"
	"fmt"

	"github.com/twmb/franz-go/pkg/kadm"
	"github.com/twmb/franz-go/pkg/kerr"
	"github.com/twmb/franz-go/pkg/kgo"

	"recruitline/internal/platform/config"
)

// ErrNoBrokers is returned when the event bus is requested without brokers.
var ErrNoBrokers = errors.New("kafka: no brokers configured")

// NewClient builds a client for cfg.Brokers. Extra options are appended, so
// callers add consumer-group settings for the status consumer.
func NewClient(cfg config.KafkaConfig, opts ...kgo.Opt) (*kgo.Client, error) {
	if len(cfg.Brokers) == 0 {
		return nil, ErrNoBrokers
	}
	base := []kgo.Opt{
		kgo.SeedBrokers(cfg.Brokers...),
		kgo.ClientID(cfg.ClientID),
		kgo.RequiredAcks(kgo.AllISRAcks()),
	}
	client, err := kgo.NewClient(append(base, opts...)...)
	if err != nil {
		return nil, fmt.Errorf("create kafka client: %w", err)
	}
	return client, nil
}

// ConsumerOptions configures a group consumer that commits explicitly.
func ConsumerOptions(cfg config.KafkaConfig, topics ...string) []kgo.Opt {
	return []kgo.Opt{
		kgo.ConsumerGroup(cfg.Group),
		kgo.ConsumeTopics(topics...),
		kgo.DisableAutoCommit(),
		kgo.ConsumeResetOffset(kgo.NewOffset().AtStart()),
	}
}

// EnsureTopics creates any missing topics. Topics that already exist are not
// an error.
func EnsureTopics(ctx context.Context, client *kgo.Client, partitions int32, replicationFactor int16, topics ...string) error {
	admin := kadm.NewClient(client)
	resp, err := admin.CreateTopics(ctx, partitions, replicationFactor, nil, topics...)
	if err != nil {
		return fmt.Errorf("create topics: %w", err)
	}
	for _, t := range resp.Sorted() {
		if t.Err != nil && !errors.Is(t.Err, kerr.TopicAlreadyExists) {
			return fmt.Errorf("create topic %s: %w", t.Topic, t.Err)
		}
	}
	return nil
}

// Health wraps a client so the status route can ping the brokers.
type Health struct {
	Client *kgo.Client
}

func (h Health) Name() string { return "kafka" }

func (h Health) Health(ctx context.Context) error {
	return h.Client.Ping(ctx)
}
