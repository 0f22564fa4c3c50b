package publish

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/segmentio/kafka-go"

	"github.com/kilianp07/careplan/core/report"
	"github.com/kilianp07/careplan/pkg/export"
)

// KafkaConfig configures the Kafka publisher.
type KafkaConfig struct {
	Brokers []string      `json:"brokers"`
	Topic   string        `json:"topic"`
	Timeout time.Duration `json:"timeout"`
}

type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// KafkaPublisher emits one message per occurrence, keyed by activity id, so
// consumers can partition by activity. A final message keyed "summary"
// carries the conflicts and the run summary.
type KafkaPublisher struct {
	w       messageWriter
	timeout time.Duration
}

// NewKafkaPublisher creates a synchronous writer that waits for all replicas.
func NewKafkaPublisher(cfg KafkaConfig) (*KafkaPublisher, error) {
	if len(cfg.Brokers) == 0 || cfg.Topic == "" {
		return nil, fmt.Errorf("kafka publisher: brokers and topic are required")
	}
	w := &kafka.Writer{
		Addr:         kafka.TCP(cfg.Brokers...),
		Topic:        cfg.Topic,
		RequiredAcks: kafka.RequireAll,
		Compression:  kafka.Snappy,
		Async:        false,
	}
	return newKafkaPublisher(w, cfg.Timeout), nil
}

func newKafkaPublisher(w messageWriter, timeout time.Duration) *KafkaPublisher {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &KafkaPublisher{w: w, timeout: timeout}
}

type summaryMessage struct {
	RunID     string          `json:"run_id"`
	Start     string          `json:"start"`
	End       string          `json:"end"`
	Conflicts int             `json:"conflicts"`
	Summary   *report.Summary `json:"summary,omitempty"`
}

func headers(runID, kind string) []kafka.Header {
	return []kafka.Header{
		{Key: "run_id", Value: []byte(runID)},
		{Key: "kind", Value: []byte(kind)},
	}
}

// Publish writes the batch in a single call.
func (p *KafkaPublisher) Publish(ctx context.Context, doc export.Document) error {
	now := time.Now().UTC()
	msgs := make([]kafka.Message, 0, len(doc.Occurrences)+1)
	for _, o := range doc.Occurrences {
		b, err := json.Marshal(o)
		if err != nil {
			return err
		}
		msgs = append(msgs, kafka.Message{
			Key:     []byte(o.ActivityID),
			Value:   b,
			Headers: headers(doc.RunID, "occurrence"),
			Time:    now,
		})
	}
	b, err := json.Marshal(summaryMessage{
		RunID:     doc.RunID,
		Start:     doc.Start,
		End:       doc.End,
		Conflicts: len(doc.Conflicts),
		Summary:   doc.Summary,
	})
	if err != nil {
		return err
	}
	msgs = append(msgs, kafka.Message{
		Key:     []byte("summary"),
		Value:   b,
		Headers: headers(doc.RunID, "summary"),
		Time:    now,
	})

	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()
	if err := p.w.WriteMessages(ctx, msgs...); err != nil {
		return fmt.Errorf("kafka publish: %w", err)
	}
	return nil
}

// Close releases the writer.
func (p *KafkaPublisher) Close() error { return p.w.Close() }
