package driver

import (
	"sort"

	"github.com/singer-io/tap-stripe/logger"
)

const (
	emitCreated = "created"
	emitUpdated = "updated"
)

// Counters accumulates per-stream emission counts, split by whether a record
// came from the creation pass or the event-driven update pass.
type Counters struct {
	created map[string]int64
	updated map[string]int64
}

func NewCounters() *Counters {
	return &Counters{
		created: map[string]int64{},
		updated: map[string]int64{},
	}
}

func (c *Counters) RecordEmitted(stream, kind string) {
	if kind == emitUpdated {
		c.updated[stream]++
		return
	}
	c.created[stream]++
}

func (c *Counters) Total() int64 {
	var total int64
	for _, count := range c.created {
		total += count
	}
	for _, count := range c.updated {
		total += count
	}
	return total
}

// Report logs per-stream totals in stable order.
func (c *Counters) Report() {
	streams := map[string]bool{}
	for stream := range c.created {
		streams[stream] = true
	}
	for stream := range c.updated {
		streams[stream] = true
	}

	names := make([]string, 0, len(streams))
	for stream := range streams {
		names = append(names, stream)
	}
	sort.Strings(names)

	for _, stream := range names {
		logger.Infof("Stream %s: %d new, %d updated", stream, c.created[stream], c.updated[stream])
	}
	logger.Infof("Total records emitted: %d", c.Total())
}
