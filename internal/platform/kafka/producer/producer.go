// Package producer publishes JSON records to a single topic.
package producer

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/twmb/franz-go/pkg/kgo"

	"recruitline/pkg/platform/audit"
)

// SyncProducer is the subset of *kgo.Client the producer uses.
type SyncProducer interface {
	ProduceSync(ctx context.Context, rs ...*kgo.Record) kgo.ProduceResults
}

// Producer writes to one topic and waits for broker acknowledgement.
type Producer struct {
	client SyncProducer
	topic  string
}

func New(client SyncProducer, topic string) *Producer {
	return &Producer{client: client, topic: topic}
}

// Publish sends one record. It serves as the outbox relay's sink.
func (p *Producer) Publish(ctx context.Context, key string, payload []byte) error {
	rec := &kgo.Record{Topic: p.topic, Key: []byte(key), Value: payload}
	if err := p.client.ProduceSync(ctx, rec).FirstErr(); err != nil {
		return fmt.Errorf("produce to %s: %w", p.topic, err)
	}
	return nil
}

// Append publishes an audit event directly, keyed so that one candidate's
// events share a partition.
func (p *Producer) Append(ctx context.Context, event audit.Event) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshal audit event: %w", err)
	}
	return p.Publish(ctx, event.Key(), payload)
}
