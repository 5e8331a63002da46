package ringqueue

import (
	"encoding/binary"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ehrlich-b/nanolog/internal/constants"
)

// writeMessage writes a size-prefixed message of exactly sizeBytes total
// length (header + payload) into buf, stamping the payload with tag so
// readers can assert they drained messages in order.
func writeMessage(buf []byte, sizeBytes uint32, tag byte) {
	binary.LittleEndian.PutUint32(buf[0:4], sizeBytes)
	for i := 4; i < int(sizeBytes); i++ {
		buf[i] = tag
	}
}

func TestFIFODrainInOrder(t *testing.T) {
	q := New(4) // 4 blocks of 64 bytes = 256 bytes arena
	p := NewProducer(q)
	c := NewConsumer(q)

	for i := byte(0); i < 3; i++ {
		buf, ok := p.TryAlloc(constants.BlockSize)
		require.True(t, ok)
		writeMessage(buf, constants.BlockSize, i)
		p.Commit()
	}

	for i := byte(0); i < 3; i++ {
		front, ok := c.Front()
		require.True(t, ok)
		assert.Equal(t, i, front[4])
		c.Pop()
	}

	_, ok := c.Front()
	assert.False(t, ok)
}

func TestRewindMarkerOnWrap(t *testing.T) {
	q := New(4) // 4 blocks; a 3-block message won't fit after a 2-block one
	p := NewProducer(q)
	c := NewConsumer(q)

	// First message takes 2 blocks (128 bytes), leaving 2 blocks of tail.
	buf1, ok := p.TryAlloc(2 * constants.BlockSize)
	require.True(t, ok)
	writeMessage(buf1, 2*constants.BlockSize, 1)
	p.Commit()

	// Drain it so the consumer's readIdx tracks forward and there's free
	// capacity, but the physical tail before wraparound is only 2 blocks.
	front, ok := c.Front()
	require.True(t, ok)
	assert.Equal(t, byte(1), front[4])
	c.Pop()

	// Second message needs 3 blocks: doesn't fit in the remaining 2-block
	// tail, so TryAlloc must plant a rewind marker and wrap to block 0.
	buf2, ok := p.TryAlloc(3 * constants.BlockSize)
	require.True(t, ok)
	writeMessage(buf2, 3*constants.BlockSize, 2)
	p.Commit()

	front, ok = c.Front()
	require.True(t, ok)
	assert.Equal(t, byte(2), front[4])
	c.Pop()

	_, ok = c.Front()
	assert.False(t, ok)
}

func TestTryAllocFailsWhenFull(t *testing.T) {
	q := New(2)
	p := NewProducer(q)

	buf, ok := p.TryAlloc(2 * constants.BlockSize)
	require.True(t, ok)
	writeMessage(buf, 2*constants.BlockSize, 9)
	p.Commit()

	_, ok = p.TryAlloc(constants.BlockSize)
	assert.False(t, ok)
}

func TestTryAllocRejectsOversizedMessage(t *testing.T) {
	q := New(2)
	p := NewProducer(q)
	_, ok := p.TryAlloc(3 * constants.BlockSize)
	assert.False(t, ok)
}

func TestRegistryRoundRobin(t *testing.T) {
	reg := NewRegistry()
	q1, q2 := New(4), New(4)
	id1 := reg.Register(q1)
	id2 := reg.Register(q2)
	assert.NotEqual(t, id1, id2)
	assert.Equal(t, 2, reg.Len())

	snap := reg.Snapshot()
	require.Len(t, snap, 2)
	assert.Same(t, q1, snap[0].Queue)
	assert.Equal(t, id1, snap[0].ID)
	assert.Same(t, q2, snap[1].Queue)
	assert.Equal(t, id2, snap[1].ID)

	reg.Unregister(id1)
	assert.Equal(t, 1, reg.Len())
	snap = reg.Snapshot()
	require.Len(t, snap, 1)
	assert.Same(t, q2, snap[0].Queue)
}
