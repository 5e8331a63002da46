// Package ringqueue implements the lock-free, single-producer/single-
// consumer variable-size block ring described by the wire format's Queue
// section: a fixed byte arena divided into fixed-size blocks, messages
// span a run of contiguous blocks, and a zero-size rewind marker lets a
// message that would otherwise straddle the arena's end restart at block 0.
package ringqueue

import (
	"encoding/binary"
	"sync/atomic"

	"github.com/ehrlich-b/nanolog/internal/constants"
)

// Queue is the shared arena and the two atomic cursors the producer and
// consumer publish to each other. writtenIdx and readIdx are the only
// cross-goroutine-visible state; each side also keeps its own unshared
// cursor (in Producer/Consumer) between TryAlloc/Commit and Front/Pop.
type Queue struct {
	blocks     []byte
	blockCount uint32
	blockMask  uint32

	writtenIdx atomic.Uint32 // producer-published; consumer reads
	readIdx    atomic.Uint32 // consumer-published; producer reads

	rewindCount atomic.Uint64 // rewind markers written over the queue's lifetime
}

// RewindCount returns the number of rewind markers written to this queue
// over its lifetime, for metrics reporting.
func (q *Queue) RewindCount() uint64 {
	return q.rewindCount.Load()
}

// New allocates a queue with capacity for blockCount blocks, rounded up to
// the next power of two so block-index-to-offset reduces to a mask. Each
// block is constants.BlockSize bytes.
func New(blockCount uint32) *Queue {
	if blockCount == 0 {
		blockCount = constants.DefaultQueueBlocks
	}
	blockCount = nextPow2(blockCount)
	return &Queue{
		blocks:     make([]byte, int(blockCount)*constants.BlockSize),
		blockCount: blockCount,
		blockMask:  blockCount - 1,
	}
}

func nextPow2(n uint32) uint32 {
	p := uint32(1)
	for p < n {
		p <<= 1
	}
	return p
}

// blocksFor returns the number of blocks needed to hold sizeBytes.
func blocksFor(sizeBytes int) uint32 {
	return uint32((sizeBytes + constants.BlockSize - 1) / constants.BlockSize)
}

// Producer is the single writer side of a Queue. Not safe for concurrent
// use by more than one goroutine.
type Producer struct {
	q          *Queue
	writingIdx uint32 // producer-local reservation cursor
	pending    uint32 // blocks reserved by the outstanding TryAlloc
}

// NewProducer binds a Producer to q.
func NewProducer(q *Queue) *Producer {
	return &Producer{q: q}
}

// TryAlloc reserves enough contiguous blocks to hold sizeBytes and returns
// a slice over them. The caller must write the message (including its
// length-prefixed header whose first four bytes are the little-endian
// message size) into the returned slice before calling Commit. TryAlloc
// returns ok=false if the queue has no room; the caller should then either
// drop the message or apply its overflow policy.
func (p *Producer) TryAlloc(sizeBytes int) (payload []byte, ok bool) {
	needed := blocksFor(sizeBytes)
	if needed == 0 || needed > p.q.blockCount {
		return nil, false
	}

	for {
		ri := p.q.readIdx.Load()
		used := p.writingIdx - ri
		free := p.q.blockCount - used
		if free < needed {
			return nil, false
		}

		physPos := p.writingIdx & p.q.blockMask
		tail := p.q.blockCount - physPos
		if tail < needed {
			// Not enough contiguous room before the arena wraps: drop a
			// rewind marker (size=0) in the remaining tail blocks and
			// retry from the top.
			off := int(physPos) * constants.BlockSize
			binary.LittleEndian.PutUint32(p.q.blocks[off:off+4], 0)
			p.writingIdx += tail
			p.q.rewindCount.Add(1)
			continue
		}

		off := int(physPos) * constants.BlockSize
		p.pending = needed
		return p.q.blocks[off : off+int(needed)*constants.BlockSize], true
	}
}

// Commit publishes the message written into the slice returned by the
// preceding TryAlloc. The message's size field must already be in place;
// Commit's atomic store of writtenIdx is what makes it visible to the
// consumer, carrying every plain store that preceded it along with it.
func (p *Producer) Commit() {
	p.writingIdx += p.pending
	p.pending = 0
	p.q.writtenIdx.Store(p.writingIdx)
}

// Consumer is the single reader side of a Queue. Not safe for concurrent
// use by more than one goroutine.
type Consumer struct {
	q       *Queue
	readIdx uint32
	pending uint32
}

// NewConsumer binds a Consumer to q.
func NewConsumer(q *Queue) *Consumer {
	return &Consumer{q: q}
}

// Front returns the next unread message's bytes (header included) without
// consuming it, transparently skipping any rewind marker in the way.
// ok=false means the queue is caught up to the producer.
func (c *Consumer) Front() (payload []byte, ok bool) {
	wi := c.q.writtenIdx.Load()
	for {
		if c.readIdx == wi {
			return nil, false
		}

		physPos := c.readIdx & c.q.blockMask
		off := int(physPos) * constants.BlockSize
		size := binary.LittleEndian.Uint32(c.q.blocks[off : off+4])
		if size == 0 {
			tail := c.q.blockCount - physPos
			c.readIdx += tail
			if c.readIdx == wi {
				return nil, false
			}
			continue
		}

		needed := blocksFor(int(size))
		c.pending = needed
		return c.q.blocks[off : off+int(needed)*constants.BlockSize], true
	}
}

// Pop retires the message last returned by Front, making its blocks
// available to the producer again.
func (c *Consumer) Pop() {
	c.readIdx += c.pending
	c.pending = 0
	c.q.readIdx.Store(c.readIdx)
}
