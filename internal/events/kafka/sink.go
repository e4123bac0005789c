// Package kafka forwards ledger events to a Kafka topic.
package kafka

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/twmb/franz-go/pkg/kadm"
	"github.com/twmb/franz-go/pkg/kerr"
	"github.com/twmb/franz-go/pkg/kgo"

	"veridion/internal/events"
)

// Sink produces each event as a JSON record keyed by identity, so one
// wallet's changes stay ordered within a partition.
type Sink struct {
	client *kgo.Client
	topic  string
}

// NewSink connects a producer to brokers. The topic is not created here;
// call EnsureTopic at startup.
func NewSink(brokers []string, topic string) (*Sink, error) {
	if len(brokers) == 0 {
		return nil, errors.New("kafka: no brokers configured")
	}
	client, err := kgo.NewClient(
		kgo.SeedBrokers(brokers...),
		kgo.DefaultProduceTopic(topic),
		kgo.RequiredAcks(kgo.AllISRAcks()),
	)
	if err != nil {
		return nil, fmt.Errorf("kafka: create client: %w", err)
	}
	return &Sink{client: client, topic: topic}, nil
}

// EnsureTopic creates the topic when missing.
func (s *Sink) EnsureTopic(ctx context.Context, partitions int32, replicas int16) error {
	adm := kadm.NewClient(s.client)
	resp, err := adm.CreateTopics(ctx, partitions, replicas, nil, s.topic)
	if err != nil {
		return fmt.Errorf("kafka: create topic: %w", err)
	}
	for _, r := range resp {
		if r.Err != nil && !errors.Is(r.Err, kerr.TopicAlreadyExists) {
			return fmt.Errorf("kafka: create topic %s: %w", r.Topic, r.Err)
		}
	}
	return nil
}

// Write produces events synchronously and returns the first failure.
func (s *Sink) Write(ctx context.Context, evs ...events.Event) error {
	records := make([]*kgo.Record, 0, len(evs))
	for _, e := range evs {
		value, err := json.Marshal(e)
		if err != nil {
			return fmt.Errorf("kafka: encode event: %w", err)
		}
		records = append(records, &kgo.Record{
			Key:   []byte(e.Identity.String()),
			Value: value,
			Headers: []kgo.RecordHeader{
				{Key: "event_type", Value: []byte(e.Type)},
			},
		})
	}
	if err := s.client.ProduceSync(ctx, records...).FirstErr(); err != nil {
		return fmt.Errorf("kafka: produce: %w", err)
	}
	return nil
}

// Close flushes and closes the producer.
func (s *Sink) Close() {
	s.client.Close()
}
