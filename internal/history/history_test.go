package history

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"hyperion/internal/event"
	"hyperion/internal/types"
)

func TestSnapshotIsAppendOrderedAndDefensive(t *testing.T) {
	h := New()
	h.UpdateByEvent(event.NewAdded(event.Added{OrderId: 1}))
	h.UpdateByEvent(event.NewRemoved(event.Removed{OrderId: 1}))

	snap := h.Snapshot()
	assert.Len(t, snap, 2)
	assert.Equal(t, event.OrderAdded, snap[0].K)
	assert.Equal(t, event.OrderRemoved, snap[1].K)

	// Mutating the snapshot must not affect the log's next snapshot.
	snap[0] = event.NewAdded(event.Added{OrderId: types.OrderId(999)})
	fresh := h.Snapshot()
	assert.Equal(t, types.OrderId(1), fresh[0].Added.OrderId)
}
