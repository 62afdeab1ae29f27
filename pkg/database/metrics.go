package database

import (
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus"
)

// PoolStatsCollector exports pgxpool statistics as Prometheus metrics.
type PoolStatsCollector struct {
	stat    func() *pgxpool.Stat
	service string

	acquiredConns *prometheus.Desc
	idleConns     *prometheus.Desc
	totalConns    *prometheus.Desc
	maxConns      *prometheus.Desc
	acquireCount  *prometheus.Desc
	emptyAcquires *prometheus.Desc
}

// NewPoolStatsCollector creates a collector for pool labelled with service.
func NewPoolStatsCollector(pool *pgxpool.Pool, service string) *PoolStatsCollector {
	labels := []string{"service"}
	desc := func(name, help string) *prometheus.Desc {
		return prometheus.NewDesc(name, help, labels, nil)
	}
	return &PoolStatsCollector{
		stat:          pool.Stat,
		service:       service,
		acquiredConns: desc("db_pool_acquired_connections", "Number of currently acquired connections"),
		idleConns:     desc("db_pool_idle_connections", "Number of currently idle connections"),
		totalConns:    desc("db_pool_total_connections", "Total number of connections in the pool"),
		maxConns:      desc("db_pool_max_connections", "Maximum number of connections allowed"),
		acquireCount:  desc("db_pool_acquire_count_total", "Total number of connection acquires"),
		emptyAcquires: desc("db_pool_empty_acquire_count_total", "Acquires that had to wait for a connection"),
	}
}

// Describe implements prometheus.Collector.
func (c *PoolStatsCollector) Describe(ch chan<- *prometheus.Desc) {
	ch <- c.acquiredConns
	ch <- c.idleConns
	ch <- c.totalConns
	ch <- c.maxConns
	ch <- c.acquireCount
	ch <- c.emptyAcquires
}

// Collect implements prometheus.Collector.
func (c *PoolStatsCollector) Collect(ch chan<- prometheus.Metric) {
	s := c.stat()
	gauge := func(d *prometheus.Desc, v float64) {
		ch <- prometheus.MustNewConstMetric(d, prometheus.GaugeValue, v, c.service)
	}
	counter := func(d *prometheus.Desc, v float64) {
		ch <- prometheus.MustNewConstMetric(d, prometheus.CounterValue, v, c.service)
	}

	gauge(c.acquiredConns, float64(s.AcquiredConns()))
	gauge(c.idleConns, float64(s.IdleConns()))
	gauge(c.totalConns, float64(s.TotalConns()))
	gauge(c.maxConns, float64(s.MaxConns()))
	counter(c.acquireCount, float64(s.AcquireCount()))
	counter(c.emptyAcquires, float64(s.EmptyAcquireCount()))
}

// RegisterPoolMetrics registers a pool collector with reg.
func RegisterPoolMetrics(reg prometheus.Registerer, pool *pgxpool.Pool, service string) error {
	return reg.Register(NewPoolStatsCollector(pool, service))
}
