package database

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/event"
)

func TestPoolStatsCollector_TracksPoolEvents(t *testing.T) {
	c := NewPoolStatsCollector("storefront")
	mon := c.PoolMonitor()

	for _, typ := range []string{
		event.ConnectionCreated,
		event.ConnectionCreated,
		event.GetSucceeded,
		event.GetSucceeded,
		event.ConnectionReturned,
		event.GetFailed,
		event.ConnectionClosed,
		event.PoolCleared,
	} {
		mon.Event(&event.PoolEvent{Type: typ})
	}

	expected := `
# HELP db_pool_checked_out_connections Number of connections currently checked out
# TYPE db_pool_checked_out_connections gauge
db_pool_checked_out_connections{service="storefront"} 1
# HELP db_pool_open_connections Number of open connections to MongoDB
# TYPE db_pool_open_connections gauge
db_pool_open_connections{service="storefront"} 1
# HELP db_pool_failed_checkout_count_total Total number of failed connection checkouts
# TYPE db_pool_failed_checkout_count_total counter
db_pool_failed_checkout_count_total{service="storefront"} 1
# HELP db_pool_cleared_total Total number of times the pool was cleared after an error
# TYPE db_pool_cleared_total counter
db_pool_cleared_total{service="storefront"} 1
`
	require.NoError(t, testutil.CollectAndCompare(c, strings.NewReader(expected),
		"db_pool_checked_out_connections",
		"db_pool_open_connections",
		"db_pool_failed_checkout_count_total",
		"db_pool_cleared_total",
	))
}

func TestPoolStatsCollector_ObservesCommands(t *testing.T) {
	c := NewPoolStatsCollector("storefront")
	mon := c.CommandMonitor()

	mon.Succeeded(context.Background(), &event.CommandSucceededEvent{
		CommandFinishedEvent: event.CommandFinishedEvent{CommandName: "update", Duration: 3 * time.Millisecond},
	})
	mon.Failed(context.Background(), &event.CommandFailedEvent{
		CommandFinishedEvent: event.CommandFinishedEvent{CommandName: "update", Duration: time.Millisecond},
		Failure:              "WriteConflict",
	})

	assert.Equal(t, 2, testutil.CollectAndCount(c, "db_command_duration_seconds"))
}

func TestRegisterPoolMetrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	c, err := RegisterPoolMetrics(reg, "storefront")
	require.NoError(t, err)
	require.NotNil(t, c)

	_, err = RegisterPoolMetrics(reg, "storefront")
	assert.Error(t, err, "duplicate registration is rejected")
}
