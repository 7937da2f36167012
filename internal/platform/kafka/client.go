package kafka

import (
	"context"
	"errors"
	"fmt"

	"github.com/twmb/franz-go/pkg/kadm"
	"github.com/twmb/franz-go/pkg/kerr"
	"github.com/twmb/franz-go/pkg/kgo"

	"agencyhub/internal/platform/config"
)

// Client produces records to a default topic.
type Client struct {
	kc    *kgo.Client
	topic string
}

// New builds a producer for cfg.AuditTopic and makes sure the topic exists.
// Returns nil when no brokers are configured.
func New(ctx context.Context, cfg config.KafkaConfig) (*Client, error) {
	if len(cfg.Brokers) == 0 {
		return nil, nil
	}
	kc, err := kgo.NewClient(
		kgo.SeedBrokers(cfg.Brokers...),
		kgo.DefaultProduceTopic(cfg.AuditTopic),
		kgo.ClientID("agencyhub"),
	)
	if err != nil {
		return nil, fmt.Errorf("create kafka client: %w", err)
	}
	if err := kc.Ping(ctx); err != nil {
		kc.Close()
		return nil, fmt.Errorf("ping kafka: %w", err)
	}
	c := &Client{kc: kc, topic: cfg.AuditTopic}
	if err := c.ensureTopic(ctx); err != nil {
		kc.Close()
		return nil, err
	}
	return c, nil
}

// ensureTopic creates the topic with broker-default partitions and
// replication. An existing topic is left untouched.
func (c *Client) ensureTopic(ctx context.Context) error {
	resp, err := kadm.NewClient(c.kc).CreateTopics(ctx, -1, -1, nil, c.topic)
	if err != nil {
		return fmt.Errorf("create topic %s: %w", c.topic, err)
	}
	for _, r := range resp {
		if r.Err != nil && !errors.Is(r.Err, kerr.TopicAlreadyExists) {
			return fmt.Errorf("create topic %s: %w", r.Topic, r.Err)
		}
	}
	return nil
}

// Produce writes one record synchronously to the default topic.
func (c *Client) Produce(ctx context.Context, key, value []byte) error {
	record := &kgo.Record{Topic: c.topic, Key: key, Value: value}
	if err := c.kc.ProduceSync(ctx, record).FirstErr(); err != nil {
		return fmt.Errorf("produce to %s: %w", c.topic, err)
	}
	return nil
}

func (c *Client) Topic() string {
	return c.topic
}

func (c *Client) Close() {
	c.kc.Close()
}
