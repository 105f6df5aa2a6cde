package database

import (
	"context"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"go.mongodb.org/mongo-driver/event"
)

// PoolStatsCollector exports MongoDB connection pool and command metrics.
// The driver pushes pool events through PoolMonitor; the collector keeps
// running totals and emits them on scrape.
type PoolStatsCollector struct {
	service string

	mu          sync.Mutex
	open        int64
	checkedOut  int64
	created     uint64
	closed      uint64
	checkouts   uint64
	failedGets  uint64
	poolCleared uint64

	openConns        *prometheus.Desc
	checkedOutConns  *prometheus.Desc
	createdConns     *prometheus.Desc
	closedConns      *prometheus.Desc
	checkoutCount    *prometheus.Desc
	failedCheckouts  *prometheus.Desc
	poolClearedCount *prometheus.Desc

	commandDuration *prometheus.HistogramVec
}

// NewPoolStatsCollector creates a collector labelled with service.
func NewPoolStatsCollector(service string) *PoolStatsCollector {
	labels := []string{"service"}
	return &PoolStatsCollector{
		service: service,
		openConns: prometheus.NewDesc("db_pool_open_connections",
			"Number of open connections to MongoDB", labels, nil),
		checkedOutConns: prometheus.NewDesc("db_pool_checked_out_connections",
			"Number of connections currently checked out", labels, nil),
		createdConns: prometheus.NewDesc("db_pool_created_connections_total",
			"Total number of connections created", labels, nil),
		closedConns: prometheus.NewDesc("db_pool_closed_connections_total",
			"Total number of connections closed", labels, nil),
		checkoutCount: prometheus.NewDesc("db_pool_checkout_count_total",
			"Total number of successful connection checkouts", labels, nil),
		failedCheckouts: prometheus.NewDesc("db_pool_failed_checkout_count_total",
			"Total number of failed connection checkouts", labels, nil),
		poolClearedCount: prometheus.NewDesc("db_pool_cleared_total",
			"Total number of times the pool was cleared after an error", labels, nil),
		commandDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "db_command_duration_seconds",
			Help:    "MongoDB command duration in seconds",
			Buckets: prometheus.DefBuckets,
		}, []string{"service", "command", "outcome"}),
	}
}

// PoolMonitor returns the driver hook that feeds the collector.
func (c *PoolStatsCollector) PoolMonitor() *event.PoolMonitor {
	return &event.PoolMonitor{Event: c.handlePoolEvent}
}

// CommandMonitor returns a driver hook that observes command latency.
func (c *PoolStatsCollector) CommandMonitor() *event.CommandMonitor {
	return &event.CommandMonitor{
		Succeeded: func(_ context.Context, e *event.CommandSucceededEvent) {
			c.commandDuration.WithLabelValues(c.service, e.CommandName, "success").Observe(e.Duration.Seconds())
		},
		Failed: func(_ context.Context, e *event.CommandFailedEvent) {
			c.commandDuration.WithLabelValues(c.service, e.CommandName, "failure").Observe(e.Duration.Seconds())
		},
	}
}

func (c *PoolStatsCollector) handlePoolEvent(e *event.PoolEvent) {
	c.mu.Lock()
	defer c.mu.Unlock()

	switch e.Type {
	case event.ConnectionCreated:
		c.created++
		c.open++
	case event.ConnectionClosed:
		c.closed++
		c.open--
	case event.GetSucceeded:
		c.checkouts++
		c.checkedOut++
	case event.ConnectionReturned:
		c.checkedOut--
	case event.GetFailed:
		c.failedGets++
	case event.PoolCleared:
		c.poolCleared++
	}
}

// Describe sends the descriptors of all metrics to ch.
func (c *PoolStatsCollector) Describe(ch chan<- *prometheus.Desc) {
	ch <- c.openConns
	ch <- c.checkedOutConns
	ch <- c.createdConns
	ch <- c.closedConns
	ch <- c.checkoutCount
	ch <- c.failedCheckouts
	ch <- c.poolClearedCount
	c.commandDuration.Describe(ch)
}

// Collect sends the current pool totals and command histograms to ch.
func (c *PoolStatsCollector) Collect(ch chan<- prometheus.Metric) {
	c.mu.Lock()
	open, checkedOut := c.open, c.checkedOut
	created, closed := c.created, c.closed
	checkouts, failed, cleared := c.checkouts, c.failedGets, c.poolCleared
	c.mu.Unlock()

	ch <- prometheus.MustNewConstMetric(c.openConns, prometheus.GaugeValue, float64(open), c.service)
	ch <- prometheus.MustNewConstMetric(c.checkedOutConns, prometheus.GaugeValue, float64(checkedOut), c.service)
	ch <- prometheus.MustNewConstMetric(c.createdConns, prometheus.CounterValue, float64(created), c.service)
	ch <- prometheus.MustNewConstMetric(c.closedConns, prometheus.CounterValue, float64(closed), c.service)
	ch <- prometheus.MustNewConstMetric(c.checkoutCount, prometheus.CounterValue, float64(checkouts), c.service)
	ch <- prometheus.MustNewConstMetric(c.failedCheckouts, prometheus.CounterValue, float64(failed), c.service)
	ch <- prometheus.MustNewConstMetric(c.poolClearedCount, prometheus.CounterValue, float64(cleared), c.service)
	c.commandDuration.Collect(ch)
}

// RegisterPoolMetrics creates a collector and registers it with reg.
func RegisterPoolMetrics(reg prometheus.Registerer, service string) (*PoolStatsCollector, error) {
	c := NewPoolStatsCollector(service)
	if err := reg.Register(c); err != nil {
		return nil, err
	}
	return c, nil
}
