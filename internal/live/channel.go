package live

import (
	"log/slog"

	"github.com/google/uuid"

	"github.com/colin-cd72/cards/internal/metrics"
)

// GroupOutputs is the broadcast group holding every joined output display.
const GroupOutputs = "outputs"

// Channel is the pub/sub fan-out for named connection groups. Delivery is
// fire-and-forget: only members at publish time receive an event, and a
// member that cannot accept it simply misses it (and is reported as slow).
//
// Like Registry, it is owned by the coordinator goroutine and performs no
// internal locking. Events published from that goroutine reach each member
// in publish order.
type Channel struct {
	groups map[string]map[uuid.UUID]Subscriber
}

func NewChannel() *Channel {
	return &Channel{groups: make(map[string]map[uuid.UUID]Subscriber)}
}

// Join adds a connection to a group. Joining twice is a no-op.
func (c *Channel) Join(group string, id uuid.UUID, sub Subscriber) {
	members, ok := c.groups[group]
	if !ok {
		members = make(map[uuid.UUID]Subscriber)
		c.groups[group] = members
	}
	if _, exists := members[id]; exists {
		return
	}
	members[id] = sub
}

// Leave removes a connection from a group. Leaving a group the connection is
// not in is a no-op.
func (c *Channel) Leave(group string, id uuid.UUID) {
	delete(c.groups[group], id)
}

// Members returns the current size of a group.
func (c *Channel) Members(group string) int {
	return len(c.groups[group])
}

// Publish delivers an event to every current member of the group and returns
// the ids of members whose buffers were full. Marshal failures drop the event
// entirely; there is nothing useful to deliver.
func (c *Channel) Publish(group, event string, payload any) []uuid.UUID {
	members := c.groups[group]
	if len(members) == 0 {
		return nil
	}

	data, err := marshalEvent(event, payload)
	if err != nil {
		slog.Error("Dropping undeliverable event", "event", event, "error", err)
		return nil
	}

	metrics.BroadcastsTotal.WithLabelValues(event).Inc()

	var slow []uuid.UUID
	for id, sub := range members {
		if !sub.Send(data) {
			slow = append(slow, id)
		}
	}
	return slow
}
