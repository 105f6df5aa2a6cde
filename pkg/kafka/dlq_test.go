package kafka

import (
	"context"
	"errors"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDLQProducer_PublishCarriesFailureContext(t *testing.T) {
	w := &fakeWriter{}
	d := &DLQProducer{writer: w, logger: discardLogger()}
	topic := Topic("rating", "submitted")

	msg := kafka.Message{
		Topic:     topic,
		Partition: 2,
		Offset:    41,
		Key:       []byte("item-1"),
		Value:     []byte(`{"event_type":"rating.submitted"}`),
		Headers:   []kafka.Header{{Key: "correlation_id", Value: []byte("corr-1")}},
	}

	before := testutil.ToFloat64(ConsumerDLQPublished.WithLabelValues(topic, "audit"))
	require.NoError(t, d.Publish(context.Background(), msg, errors.New("mongo down"), "audit"))

	out := w.written()
	require.Len(t, out, 1)
	assert.Equal(t, DLQTopic(topic), out[0].Topic)
	assert.Equal(t, msg.Key, out[0].Key)
	assert.Equal(t, msg.Value, out[0].Value)
	assert.Equal(t, "corr-1", headerValue(out[0].Headers, "correlation_id"))
	assert.Equal(t, topic, headerValue(out[0].Headers, "dlq.original_topic"))
	assert.Equal(t, "2", headerValue(out[0].Headers, "dlq.original_partition"))
	assert.Equal(t, "41", headerValue(out[0].Headers, "dlq.original_offset"))
	assert.Equal(t, "audit", headerValue(out[0].Headers, "dlq.consumer_group"))
	assert.Equal(t, "mongo down", headerValue(out[0].Headers, "dlq.error"))
	assert.Equal(t, before+1, testutil.ToFloat64(ConsumerDLQPublished.WithLabelValues(topic, "audit")))

	assert.Len(t, msg.Headers, 1, "original headers are not mutated")
}

func TestDLQProducer_PublishError(t *testing.T) {
	d := &DLQProducer{writer: &fakeWriter{err: errors.New("no leader")}, logger: discardLogger()}
	err := d.Publish(context.Background(), kafka.Message{Topic: "t"}, nil, "g")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "storefront.dlq.t")
}
