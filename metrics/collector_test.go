package metrics

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCollectorAggregatesPerHost(t *testing.T) {
	c := NewCollector()

	c.RecordFetch("example.com", 100*time.Millisecond, nil)
	c.RecordFetch("example.com", 300*time.Millisecond, nil)
	c.RecordFetch("example.com", 200*time.Millisecond, errors.New("timeout"))
	c.RecordFetch("other.org", 50*time.Millisecond, nil)

	snap := c.Snapshot()

	assert.EqualValues(t, 4, snap.TotalRequests)
	assert.EqualValues(t, 3, snap.SuccessCount)
	assert.EqualValues(t, 1, snap.FailureCount)
	assert.InDelta(t, 0.75, snap.SuccessRate, 0.001)

	require.Len(t, snap.Hosts, 2)
	top := snap.Hosts[0]
	assert.Equal(t, "example.com", top.Host)
	assert.EqualValues(t, 3, top.TotalRequests)
	assert.EqualValues(t, 1, top.FailureCount)
	assert.Equal(t, 200*time.Millisecond, top.AvgResponseTime)
	assert.Equal(t, 300*time.Millisecond, top.MaxResponseTime)
	assert.False(t, top.LastRequestTime.IsZero())
}

func TestCollectorIgnoresEmptyHost(t *testing.T) {
	c := NewCollector()
	c.RecordFetch("", time.Second, nil)

	snap := c.Snapshot()
	assert.Zero(t, snap.TotalRequests)
	assert.Empty(t, snap.Hosts)
}

func TestSnapshotEmptyCollector(t *testing.T) {
	c := NewCollector()
	snap := c.Snapshot()

	assert.Zero(t, snap.TotalRequests)
	assert.Zero(t, snap.SuccessRate)
	assert.NotNil(t, snap.Hosts)
}
