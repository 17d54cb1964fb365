package coord

import (
	"sort"
	"sync"

	"github.com/jmallek/conclave/pkg/models"
)

// channelKey identifies the directed channel between one source and one
// target agent.
type channelKey struct {
	source string
	target string
}

// Channel is the ordered message queue between one ordered pair of agents.
// The queue holds messages not yet dequeued; history holds messages that
// reached delivered or acknowledged.
type Channel struct {
	// source is the sending agent id.
	source string
	// target is the receiving agent id.
	target string
	// queue holds queued messages in arrival order. Read order is
	// recomputed from (priority rank, timestamp) on every access.
	queue []*models.Message
	// history holds delivered and acknowledged messages in delivery order.
	history []*models.Message
	// mu protects queue and history.
	mu sync.Mutex
}

// newChannel creates an empty channel for the (source, target) pair.
func newChannel(source, target string) *Channel {
	return &Channel{source: source, target: target}
}

// enqueue appends a message to the queue.
func (c *Channel) enqueue(msg *models.Message) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.queue = append(c.queue, msg)
}

// retire moves a queued message to history. Returns false if the message is
// not in the queue (already retired or never queued here).
func (c *Channel) retire(msgID string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	for i, m := range c.queue {
		if m.ID == msgID {
			c.queue = append(c.queue[:i], c.queue[i+1:]...)
			c.history = append(c.history, m)
			return true
		}
	}
	return false
}

// Pending returns a snapshot of the queued messages sorted by (priority
// rank, timestamp). The sort is recomputed on every call; priority is not a
// static heap ordering because later arrivals can outrank earlier ones.
func (c *Channel) Pending() []models.Message {
	c.mu.Lock()
	defer c.mu.Unlock()

	snapshot := make([]*models.Message, len(c.queue))
	copy(snapshot, c.queue)
	sortByPriority(snapshot)

	out := make([]models.Message, len(snapshot))
	for i, m := range snapshot {
		out[i] = *m
	}
	return out
}

// History returns a snapshot of the delivered/acknowledged messages.
func (c *Channel) History() []models.Message {
	c.mu.Lock()
	defer c.mu.Unlock()

	out := make([]models.Message, len(c.history))
	for i, m := range c.history {
		out[i] = *m
	}
	return out
}

// QueueLen returns the number of queued messages.
func (c *Channel) QueueLen() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.queue)
}

// sortByPriority orders messages by (priority rank, timestamp ascending).
// Two observers sorting the same snapshot see the same order.
func sortByPriority(msgs []*models.Message) {
	sort.SliceStable(msgs, func(i, j int) bool {
		ri, rj := msgs[i].Priority.Rank(), msgs[j].Priority.Rank()
		if ri != rj {
			return ri < rj
		}
		return msgs[i].Timestamp.Before(msgs[j].Timestamp)
	})
}
