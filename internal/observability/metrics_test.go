package observability

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMetrics_RecordAndSnapshot(t *testing.T) {
	m := NewMetrics()

	m.RecordRequest("parse", 2*time.Millisecond)
	m.RecordRequest("parse", 4*time.Millisecond)
	m.RecordFailure("parse")
	m.RecordRequest("check", time.Millisecond)
	m.RecordConflicts(3)

	snap := m.Snapshot()
	assert.EqualValues(t, 3, snap.RequestTotal)
	assert.EqualValues(t, 1, snap.RequestFailed)
	assert.EqualValues(t, 3, snap.Conflicts)
	assert.Equal(t, []string{"check", "parse"}, snap.OperationNames())

	parse := snap.Operations["parse"]
	require.NotNil(t, parse)
	assert.EqualValues(t, 2, parse.ExecutionCount)
	assert.EqualValues(t, 1, parse.ErrorCount)
	assert.Equal(t, 3*time.Millisecond, parse.AverageDuration)
	assert.InDelta(t, 66.67, snap.SuccessRate(), 0.01)
}

func TestMetrics_Reset(t *testing.T) {
	m := NewMetrics()
	m.RecordRequest("plan", time.Millisecond)
	m.Reset()

	snap := m.Snapshot()
	assert.Zero(t, snap.RequestTotal)
	assert.Empty(t, snap.Operations)
	assert.Equal(t, 100.0, snap.SuccessRate())
}

func TestMetrics_ConcurrentRecording(t *testing.T) {
	m := NewMetrics()

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			m.RecordRequest("check", time.Microsecond)
		}()
	}
	wg.Wait()

	assert.EqualValues(t, 50, m.Snapshot().Operations["check"].ExecutionCount)
}
