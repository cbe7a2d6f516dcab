// Package metrics aggregates per-host fetch outcomes so operators can see
// which sources are slow or failing without an external metrics stack.
package metrics

import (
	"sort"
	"sync"
	"time"
)

// HostMetrics is the aggregated view of one remote host.
type HostMetrics struct {
	Host            string        `json:"host"`
	TotalRequests   int64         `json:"total_requests"`
	SuccessCount    int64         `json:"success_count"`
	FailureCount    int64         `json:"failure_count"`
	SuccessRate     float64       `json:"success_rate"`
	AvgResponseTime time.Duration `json:"avg_response_time_ms"`
	MaxResponseTime time.Duration `json:"max_response_time_ms"`
	LastRequestTime time.Time     `json:"last_request_time"`
}

// Snapshot is a point-in-time report over all hosts.
type Snapshot struct {
	Uptime        time.Duration `json:"uptime_ms"`
	TotalRequests int64         `json:"total_requests"`
	SuccessCount  int64         `json:"success_count"`
	FailureCount  int64         `json:"failure_count"`
	SuccessRate   float64       `json:"success_rate"`
	Hosts         []HostMetrics `json:"hosts"`
}

type hostAgg struct {
	total     int64
	success   int64
	failure   int64
	totalTime time.Duration
	maxTime   time.Duration
	last      time.Time
}

// Collector accumulates fetch outcomes. All methods are safe for concurrent
// use.
type Collector struct {
	mu      sync.RWMutex
	started time.Time
	hosts   map[string]*hostAgg
}

func NewCollector() *Collector {
	return &Collector{
		started: time.Now(),
		hosts:   make(map[string]*hostAgg),
	}
}

// RecordFetch records one request attempt against host. A non-nil err counts
// as a failure regardless of duration.
func (c *Collector) RecordFetch(host string, duration time.Duration, err error) {
	if host == "" {
		return
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	agg, ok := c.hosts[host]
	if !ok {
		agg = &hostAgg{}
		c.hosts[host] = agg
	}

	agg.total++
	if err != nil {
		agg.failure++
	} else {
		agg.success++
	}
	agg.totalTime += duration
	if duration > agg.maxTime {
		agg.maxTime = duration
	}
	agg.last = time.Now()
}

// Snapshot returns the aggregated report, hosts ordered by request volume.
func (c *Collector) Snapshot() Snapshot {
	c.mu.RLock()
	defer c.mu.RUnlock()

	snap := Snapshot{
		Uptime: time.Since(c.started),
		Hosts:  make([]HostMetrics, 0, len(c.hosts)),
	}

	for host, agg := range c.hosts {
		hm := HostMetrics{
			Host:            host,
			TotalRequests:   agg.total,
			SuccessCount:    agg.success,
			FailureCount:    agg.failure,
			MaxResponseTime: agg.maxTime,
			LastRequestTime: agg.last,
		}
		if agg.total > 0 {
			hm.SuccessRate = float64(agg.success) / float64(agg.total)
			hm.AvgResponseTime = agg.totalTime / time.Duration(agg.total)
		}
		snap.Hosts = append(snap.Hosts, hm)

		snap.TotalRequests += agg.total
		snap.SuccessCount += agg.success
		snap.FailureCount += agg.failure
	}

	if snap.TotalRequests > 0 {
		snap.SuccessRate = float64(snap.SuccessCount) / float64(snap.TotalRequests)
	}

	sort.Slice(snap.Hosts, func(i, j int) bool {
		if snap.Hosts[i].TotalRequests != snap.Hosts[j].TotalRequests {
			return snap.Hosts[i].TotalRequests > snap.Hosts[j].TotalRequests
		}
		return snap.Hosts[i].Host < snap.Hosts[j].Host
	})

	return snap
}
