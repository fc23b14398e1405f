package metrics

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iudanet/caresync/internal/models"
)

func TestCollector_Counters(t *testing.T) {
	c := NewCollector()

	c.ListenerAdded()
	c.ListenerAdded()
	c.ListenerRemoved()
	c.UpdateReceived(3)
	c.UpdateReceived(2)
	c.SetQueueSize(4)

	snap := c.Snapshot()
	assert.Equal(t, 1, snap.ListenersActive)
	assert.Equal(t, 5, snap.UpdatesReceived)
	assert.Equal(t, 4, snap.SyncQueueSize)
}

func TestCollector_ListenerRemoved_NotBelowZero(t *testing.T) {
	c := NewCollector()

	c.ListenerRemoved()

	assert.Equal(t, 0, c.Snapshot().ListenersActive)
}

func TestCollector_ConflictLifecycle(t *testing.T) {
	c := NewCollector()

	c.ConflictDetected()
	c.ConflictDetected()
	assert.Equal(t, 2, c.Snapshot().ConflictsPending)

	c.ConflictResolved()
	snap := c.Snapshot()
	assert.Equal(t, 1, snap.ConflictsPending)
	assert.Equal(t, 1, snap.ConflictsResolved)

	// Resolved не уводит pending в минус
	c.ConflictResolved()
	c.ConflictResolved()
	snap = c.Snapshot()
	assert.Equal(t, 0, snap.ConflictsPending)
	assert.Equal(t, 3, snap.ConflictsResolved)
}

func TestCollector_SyncCompleted(t *testing.T) {
	c := NewCollector()

	at := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)
	c.SyncCompleted(at)

	assert.Equal(t, at, c.Snapshot().LastSyncTime)
}

func TestCollector_RecentErrorsRingBuffer(t *testing.T) {
	c := NewCollector()

	for i := 0; i < maxRecentErrors+5; i++ {
		c.RecordError(models.ErrorRecord{
			Time:       time.Now(),
			Collection: "medications",
			DocumentID: fmt.Sprintf("med_%d", i),
			Op:         models.OpUpdate,
			Message:    "connection refused",
		})
	}

	snap := c.Snapshot()
	require.Len(t, snap.RecentErrors, maxRecentErrors)
	// Буфер хранит последние записи, старые вытеснены
	assert.Equal(t, "med_5", snap.RecentErrors[0].DocumentID)
	assert.Equal(t, fmt.Sprintf("med_%d", maxRecentErrors+4), snap.RecentErrors[len(snap.RecentErrors)-1].DocumentID)
}

func TestCollector_OnChangedCallback(t *testing.T) {
	c := NewCollector()

	var got []models.SyncMetrics
	c.OnChanged(func(m models.SyncMetrics) {
		got = append(got, m)
	})

	c.SetQueueSize(7)
	c.ConflictDetected()

	require.Len(t, got, 2)
	assert.Equal(t, 7, got[0].SyncQueueSize)
	assert.Equal(t, 7, got[1].SyncQueueSize)
	assert.Equal(t, 1, got[1].ConflictsPending)
}

func TestCollector_SnapshotIsolation(t *testing.T) {
	c := NewCollector()
	c.RecordError(models.ErrorRecord{DocumentID: "med_1", Message: "timeout"})

	snap := c.Snapshot()
	snap.RecentErrors[0].Message = "mutated"

	// Снимок — копия, мутация снаружи не влияет на сборщик
	assert.Equal(t, "timeout", c.Snapshot().RecentErrors[0].Message)
}

func TestCollector_Reset(t *testing.T) {
	c := NewCollector()
	c.ListenerAdded()
	c.UpdateReceived(10)
	c.ConflictDetected()
	c.SyncCompleted(time.Now())
	c.RecordError(models.ErrorRecord{Message: "boom"})

	c.Reset()

	snap := c.Snapshot()
	assert.Zero(t, snap.ListenersActive)
	assert.Zero(t, snap.UpdatesReceived)
	assert.Zero(t, snap.ConflictsPending)
	assert.Zero(t, snap.ConflictsResolved)
	assert.True(t, snap.LastSyncTime.IsZero())
	assert.Empty(t, snap.RecentErrors)
}
