package idgen

import (
	"sync"
	"time"
)

const (
	nodeBits     = 10
	sequenceBits = 12
	maxNode      = 1<<nodeBits - 1
	maxSequence  = 1<<sequenceBits - 1
)

// Generator produces time-ordered, process-unique int64 ids:
// 41 bits of milliseconds, 10 bits of node id, 12 bits of sequence.
type Generator struct {
	mu       sync.Mutex
	nodeID   int64
	lastTs   int64
	sequence int64
	now      func() time.Time
}

func New(nodeID int64) *Generator {
	return &Generator{nodeID: nodeID & maxNode, now: time.Now}
}

func (g *Generator) Next() int64 {
	g.mu.Lock()
	defer g.mu.Unlock()

	ts := g.now().UnixMilli()
	if ts < g.lastTs {
		// clock went backwards, keep issuing from the last seen millisecond
		ts = g.lastTs
	}

	if ts == g.lastTs {
		g.sequence = (g.sequence + 1) & maxSequence
		if g.sequence == 0 {
			// sequence exhausted within this millisecond
			ts++
		}
	} else {
		g.sequence = 0
	}
	g.lastTs = ts

	return ts<<(nodeBits+sequenceBits) | g.nodeID<<sequenceBits | g.sequence
}
