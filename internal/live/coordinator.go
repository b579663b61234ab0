package live

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"

	"github.com/colin-cd72/cards/internal/domain"
	"github.com/colin-cd72/cards/internal/metrics"
)

const (
	commandTimeout  = 5 * time.Second
	stopTimeout     = 10 * time.Second
	commandCapacity = 256
)

// Per-connection lifecycle states. A closed connection is removed from the
// map entirely, so removal doubles as the terminal state.
type connRole int

const (
	roleUnjoined connRole = iota
	roleDisplay
	roleProducer
)

type connState struct {
	sub  Subscriber
	role connRole
}

// coordinatorCmd is the command interface for the Coordinator actor.
type coordinatorCmd interface{ isCoordinatorCmd() }

type baseCoordinatorCmd struct{}

func (baseCoordinatorCmd) isCoordinatorCmd() {}

type connectCmd struct {
	baseCoordinatorCmd
	id           uuid.UUID
	sub          Subscriber
	errorChannel chan error
}

type joinCmd struct {
	baseCoordinatorCmd
	id   uuid.UUID
	role connRole
}

type closeCmd struct {
	baseCoordinatorCmd
	id     uuid.UUID
	reason string
}

type displayCardCmd struct {
	baseCoordinatorCmd
	card        domain.LiveCard
	doneChannel chan struct{}
}

type clearCardCmd struct {
	baseCoordinatorCmd
	doneChannel chan struct{}
}

type settingsCmd struct {
	baseCoordinatorCmd
	key   string
	value json.RawMessage
}

type countsCmd struct {
	baseCoordinatorCmd
	replyChannel chan Counts
}

type stopCmd struct {
	baseCoordinatorCmd
}

// Coordinator drives the per-connection join/leave state machine and owns the
// registry and the broadcast channel. All state mutation happens on a single
// goroutine fed by a command channel; card display and clear execute the
// store write and the publish back-to-back on that goroutine, so no observer
// can see the store updated without the matching broadcast issued.
type Coordinator struct {
	cmdCh          chan coordinatorCmd
	clock          clockwork.Clock
	store          *CardStore
	registry       *Registry
	channel        *Channel
	connections    map[uuid.UUID]*connState
	maxConnections int
	done           chan struct{}
}

func NewCoordinator(store *CardStore, clock clockwork.Clock, maxConnections int) *Coordinator {
	c := &Coordinator{
		cmdCh:          make(chan coordinatorCmd, commandCapacity),
		clock:          clock,
		store:          store,
		registry:       NewRegistry(),
		channel:        NewChannel(),
		connections:    make(map[uuid.UUID]*connState),
		maxConnections: maxConnections,
		done:           make(chan struct{}),
	}
	go c.run()
	return c
}

// Connect attaches a new, unjoined connection and pushes the current-card
// snapshot to it, so it never waits for the next broadcast to learn what is
// on air. Returns an error when the server is at capacity.
func (c *Coordinator) Connect(id uuid.UUID, sub Subscriber) error {
	errCh := make(chan error, 1)
	c.cmdCh <- connectCmd{id: id, sub: sub, errorChannel: errCh}

	timer := c.clock.NewTimer(commandTimeout)
	defer timer.Stop()

	select {
	case err := <-errCh:
		return err
	case <-timer.Chan():
		return fmt.Errorf("connect command timed out after %v", commandTimeout)
	}
}

// JoinDisplay transitions the connection to the display role and adds it to
// the outputs broadcast group. Duplicate or out-of-order joins are ignored.
func (c *Coordinator) JoinDisplay(id uuid.UUID) {
	c.cmdCh <- joinCmd{id: id, role: roleDisplay}
}

// JoinProducer transitions the connection to the producer role.
func (c *Coordinator) JoinProducer(id uuid.UUID) {
	c.cmdCh <- joinCmd{id: id, role: roleProducer}
}

// Leave handles an explicit leave. The connection is cleaned up exactly once;
// a later transport disconnect for the same id is a no-op.
func (c *Coordinator) Leave(id uuid.UUID) {
	c.cmdCh <- closeCmd{id: id, reason: "left"}
}

// Disconnect handles a transport-level disconnect. Idempotent with Leave.
func (c *Coordinator) Disconnect(id uuid.UUID) {
	c.cmdCh <- closeCmd{id: id, reason: "disconnected"}
}

// DisplayCard replaces the on-air card and broadcasts card:display to the
// outputs group. Blocks until the store write and the publish have executed.
func (c *Coordinator) DisplayCard(card domain.LiveCard) {
	done := make(chan struct{})
	c.cmdCh <- displayCardCmd{card: card, doneChannel: done}
	c.awaitDone(done, EventCardDisplay)
}

// ClearCard blanks the on-air card and broadcasts card:blank to the outputs
// group. Clearing an already-blank state still broadcasts; displays treat it
// as a no-op.
func (c *Coordinator) ClearCard() {
	done := make(chan struct{})
	c.cmdCh <- clearCardCmd{doneChannel: done}
	c.awaitDone(done, EventCardBlank)
}

// BroadcastSettings pushes a settings:update event to every live connection.
func (c *Coordinator) BroadcastSettings(key string, value json.RawMessage) {
	c.cmdCh <- settingsCmd{key: key, value: value}
}

// Counts returns the current role counts. Because commands are processed in
// order, the snapshot reflects every operation enqueued before this call.
func (c *Coordinator) Counts() Counts {
	replyCh := make(chan Counts, 1)
	c.cmdCh <- countsCmd{replyChannel: replyCh}

	timer := c.clock.NewTimer(commandTimeout)
	defer timer.Stop()

	select {
	case counts := <-replyCh:
		return counts
	case <-timer.Chan():
		slog.Warn("Counts command timed out", "timeout", commandTimeout)
		return Counts{}
	}
}

// Stop shuts the coordinator down, closing every live connection. Blocks
// until the goroutine has exited or the stop timeout is reached.
func (c *Coordinator) Stop() {
	c.cmdCh <- stopCmd{}

	timer := c.clock.NewTimer(stopTimeout)
	defer timer.Stop()

	select {
	case <-c.done:
		slog.Info("Coordinator stopped")
	case <-timer.Chan():
		slog.Error("Coordinator stop timeout exceeded", "timeout", stopTimeout,
			"live_connections", len(c.connections))
	}
}

func (c *Coordinator) awaitDone(done chan struct{}, event string) {
	timer := c.clock.NewTimer(commandTimeout)
	defer timer.Stop()

	select {
	case <-done:
	case <-timer.Chan():
		slog.Warn("Broadcast command timed out", "event", event, "timeout", commandTimeout)
	}
}

func (c *Coordinator) run() {
	defer func() {
		if r := recover(); r != nil {
			slog.Error("Coordinator panic recovered", "panic", r)
			c.closeAll("internal error")
			close(c.done)
		}
	}()

	depthTicker := c.clock.NewTicker(time.Second)
	defer depthTicker.Stop()

	for {
		select {
		case <-depthTicker.Chan():
			metrics.CoordinatorCommandChannelDepth.Set(float64(len(c.cmdCh)))

		case cmd := <-c.cmdCh:
			switch cmd := cmd.(type) {
			case connectCmd:
				c.handleConnect(cmd)
			case joinCmd:
				c.handleJoin(cmd)
			case closeCmd:
				c.handleClose(cmd.id, cmd.reason)
			case displayCardCmd:
				c.handleDisplayCard(cmd)
			case clearCardCmd:
				c.handleClearCard(cmd)
			case settingsCmd:
				c.handleSettings(cmd)
			case countsCmd:
				cmd.replyChannel <- c.registry.CountsSnapshot()
			case stopCmd:
				c.closeAll("server shutting down")
				close(c.done)
				return
			default:
				slog.Warn("Coordinator received unknown command", "command_type", fmt.Sprintf("%T", cmd))
			}
		}
	}
}

func (c *Coordinator) handleConnect(cmd connectCmd) {
	if len(c.connections) >= c.maxConnections {
		slog.Warn("Rejecting connection: limit reached", "max_connections", c.maxConnections)
		cmd.sub.Close("server full")
		cmd.errorChannel <- fmt.Errorf("connection limit (%d) reached", c.maxConnections)
		return
	}

	c.connections[cmd.id] = &connState{sub: cmd.sub, role: roleUnjoined}

	// Snapshot push: the new connection learns the on-air state immediately.
	c.sendSnapshot(cmd.id, cmd.sub)

	slog.Debug("Connection attached", "connection_id", cmd.id.String(), "total", len(c.connections))
	cmd.errorChannel <- nil
}

func (c *Coordinator) sendSnapshot(id uuid.UUID, sub Subscriber) {
	payload := CurrentCard{}
	if card, ok := c.store.Current(); ok {
		payload.Card = &card
	}

	data, err := marshalEvent(EventCardCurrent, payload)
	if err != nil {
		slog.Error("Failed to marshal snapshot", "error", err)
		return
	}
	if !sub.Send(data) {
		slog.Warn("Snapshot dropped: send buffer full", "connection_id", id.String())
	}
}

func (c *Coordinator) handleJoin(cmd joinCmd) {
	state, ok := c.connections[cmd.id]
	if !ok {
		slog.Debug("Ignoring join for unknown connection", "connection_id", cmd.id.String())
		return
	}
	if state.role != roleUnjoined {
		// Duplicate join. Presence bookkeeping never errors a connection out.
		slog.Debug("Ignoring duplicate join", "connection_id", cmd.id.String())
		return
	}

	state.role = cmd.role
	switch cmd.role {
	case roleDisplay:
		c.registry.AddToGroup(cmd.id, GroupDisplays)
		c.channel.Join(GroupOutputs, cmd.id, state.sub)
		slog.Info("Output display joined", "connection_id", cmd.id.String())
	case roleProducer:
		c.registry.AddToGroup(cmd.id, GroupProducers)
		slog.Info("Producer joined", "connection_id", cmd.id.String())
	}

	c.updateGauges()
	c.broadcastCounts()
}

// handleClose runs cleanup exactly once per connection: a second close for
// the same id finds nothing in the map and returns.
func (c *Coordinator) handleClose(id uuid.UUID, reason string) {
	state, ok := c.connections[id]
	if !ok {
		return
	}

	delete(c.connections, id)
	c.registry.RemoveEverywhere(id)
	c.channel.Leave(GroupOutputs, id)
	state.sub.Close(reason)

	slog.Info("Connection closed", "connection_id", id.String(), "reason", reason,
		"remaining", len(c.connections))

	c.updateGauges()
	c.broadcastCounts()
}

func (c *Coordinator) handleDisplayCard(cmd displayCardCmd) {
	c.store.Replace(cmd.card)
	slow := c.channel.Publish(GroupOutputs, EventCardDisplay, cmd.card)
	close(cmd.doneChannel)
	c.evictSlow(slow)
}

func (c *Coordinator) handleClearCard(cmd clearCardCmd) {
	c.store.Clear()
	slow := c.channel.Publish(GroupOutputs, EventCardBlank, nil)
	close(cmd.doneChannel)
	c.evictSlow(slow)
}

func (c *Coordinator) handleSettings(cmd settingsCmd) {
	data, err := marshalEvent(EventSettingsUpdate, SettingsUpdate{Key: cmd.key, Value: cmd.value})
	if err != nil {
		slog.Error("Failed to marshal settings update", "error", err)
		return
	}
	metrics.BroadcastsTotal.WithLabelValues(EventSettingsUpdate).Inc()

	slow := c.sendToAll(data)
	c.evictSlow(slow)
}

// broadcastCounts pushes the current counts to every live connection. Slow
// connections are evicted, which changes the counts, so the send repeats
// until a pass completes without evictions. Terminates because each pass
// shrinks the connection set.
func (c *Coordinator) broadcastCounts() {
	for {
		counts := c.registry.CountsSnapshot()
		data, err := marshalEvent(EventConnectionCount, counts)
		if err != nil {
			slog.Error("Failed to marshal counts", "error", err)
			return
		}
		metrics.BroadcastsTotal.WithLabelValues(EventConnectionCount).Inc()

		slow := c.sendToAll(data)
		if len(slow) == 0 {
			return
		}
		for _, id := range slow {
			c.evictOne(id)
		}
		c.updateGauges()
	}
}

func (c *Coordinator) sendToAll(data []byte) []uuid.UUID {
	var slow []uuid.UUID
	for id, state := range c.connections {
		if !state.sub.Send(data) {
			slow = append(slow, id)
		}
	}
	return slow
}

func (c *Coordinator) evictSlow(slow []uuid.UUID) {
	if len(slow) == 0 {
		return
	}
	for _, id := range slow {
		c.evictOne(id)
	}
	c.updateGauges()
	c.broadcastCounts()
}

func (c *Coordinator) evictOne(id uuid.UUID) {
	state, ok := c.connections[id]
	if !ok {
		return
	}
	delete(c.connections, id)
	c.registry.RemoveEverywhere(id)
	c.channel.Leave(GroupOutputs, id)
	state.sub.Close("too slow")

	metrics.SlowClientsEvicted.Inc()
	slog.Warn("Evicted slow client", "connection_id", id.String())
}

func (c *Coordinator) closeAll(reason string) {
	total := len(c.connections)
	for id, state := range c.connections {
		state.sub.Close(reason)
		delete(c.connections, id)
		c.registry.RemoveEverywhere(id)
		c.channel.Leave(GroupOutputs, id)
	}
	c.updateGauges()
	slog.Info("All live connections closed", "count", total, "reason", reason)
}

func (c *Coordinator) updateGauges() {
	counts := c.registry.CountsSnapshot()
	metrics.ConnectedDisplays.Set(float64(counts.Displays))
	metrics.ConnectedProducers.Set(float64(counts.Producers))
}
