package live

import "github.com/google/uuid"

// Role-defining registry groups. A connection belongs to at most one of them
// at a time; the coordinator's state machine enforces that.
type Group string

const (
	GroupDisplays  Group = "displays"
	GroupProducers Group = "producers"
)

// Counts is a derived snapshot of the registry's group sizes. It is the
// payload of the connection:count event.
type Counts struct {
	Displays  int `json:"displays"`
	Producers int `json:"producers"`
}

// Registry tracks live connections partitioned by role. It is a plain data
// structure owned by the coordinator goroutine and is not safe for concurrent
// use on its own.
type Registry struct {
	groups map[Group]map[uuid.UUID]struct{}
}

func NewRegistry() *Registry {
	return &Registry{
		groups: map[Group]map[uuid.UUID]struct{}{
			GroupDisplays:  {},
			GroupProducers: {},
		},
	}
}

// AddToGroup inserts a connection into a group. Adding an existing member is
// a no-op.
func (r *Registry) AddToGroup(id uuid.UUID, group Group) {
	members, ok := r.groups[group]
	if !ok {
		members = make(map[uuid.UUID]struct{})
		r.groups[group] = members
	}
	members[id] = struct{}{}
}

// RemoveFromGroup deletes a connection from a group. Removing an absent
// member is a no-op.
func (r *Registry) RemoveFromGroup(id uuid.UUID, group Group) {
	delete(r.groups[group], id)
}

// RemoveEverywhere deletes the connection from all groups in a single pass,
// regardless of role. Called on disconnect.
func (r *Registry) RemoveEverywhere(id uuid.UUID) {
	for _, members := range r.groups {
		delete(members, id)
	}
}

// CountsSnapshot recomputes the current group sizes.
func (r *Registry) CountsSnapshot() Counts {
	return Counts{
		Displays:  len(r.groups[GroupDisplays]),
		Producers: len(r.groups[GroupProducers]),
	}
}
