//go:build integration

package kafka

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/twmb/franz-go/pkg/kgo"

	"agencyhub/internal/platform/config"
	"agencyhub/pkg/testutil/containers"
)

func TestClientProducesToAuditTopic(t *testing.T) {
	broker := containers.GetManager().GetKafka(t).Broker
	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	cfg := config.KafkaConfig{Brokers: []string{broker}, AuditTopic: "agencyhub.audit.test"}
	client, err := New(ctx, cfg)
	require.NoError(t, err)
	defer client.Close()

	// a second client finds the topic already created
	again, err := New(ctx, cfg)
	require.NoError(t, err)
	again.Close()

	require.NoError(t, client.Produce(ctx, []byte("A1"), []byte(`{"action":"agency_onboarded"}`)))

	consumer, err := kgo.NewClient(
		kgo.SeedBrokers(broker),
		kgo.ConsumeTopics(cfg.AuditTopic),
		kgo.ConsumeResetOffset(kgo.NewOffset().AtStart()),
	)
	require.NoError(t, err)
	defer consumer.Close()

	fetches := consumer.PollFetches(ctx)
	require.NoError(t, fetches.Err())
	records := fetches.Records()
	require.NotEmpty(t, records)
	assert.Equal(t, "A1", string(records[0].Key))
	assert.JSONEq(t, `{"action":"agency_onboarded"}`, string(records[0].Value))
}

func TestNewWithoutBrokersIsDisabled(t *testing.T) {
	client, err := New(context.Background(), config.KafkaConfig{})
	require.NoError(t, err)
	assert.Nil(t, client)
}
