package broadcast

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/jonboulle/clockwork"

	"github.com/shanebarringer/ultracoach-sub001/internal/metrics"
)

const (
	commandTimeout = 5 * time.Second
	stopTimeout    = 10 * time.Second
)

type conversationClients map[*websocket.Conn]*clientWriter

// hubCmd is the command interface for the Hub actor.
type hubCmd interface{ isHubCmd() }

type baseHubCmd struct{}

func (baseHubCmd) isHubCmd() {}

type registerCmd struct {
	baseHubCmd
	conversationID uuid.UUID
	connection     *websocket.Conn
	errorChannel   chan error
}

type unregisterCmd struct {
	baseHubCmd
	conversationID uuid.UUID
	connection     *websocket.Conn
}

type broadcastCmd struct {
	baseHubCmd
	conversationID uuid.UUID
	payload        []byte
}

type clientCountCmd struct {
	baseHubCmd
	conversationID uuid.UUID
	replyChannel   chan int
}

type stopCmd struct {
	baseHubCmd
}

// Hub routes chat messages to the websocket clients of each conversation.
// Messages arrive via Broadcast, typically pumped from a Redis subscription,
// so every server instance delivers to its own clients only.
type Hub struct {
	cmdCh                chan hubCmd
	clock                clockwork.Clock
	activeClients        map[uuid.UUID]conversationClients
	onFirstClient        func(conversationID uuid.UUID)
	onConversationEmpty  func(conversationID uuid.UUID)
	done                 chan struct{}
	maxClientsPerConvers int
}

// NewHub creates the hub and starts its actor goroutine.
// onFirstClient fires when the first local client joins a conversation,
// onConversationEmpty when the last one leaves; the server uses these to
// open and close the Redis subscription for that conversation.
func NewHub(onFirstClient, onConversationEmpty func(uuid.UUID), clock clockwork.Clock, maxClientsPerConversation int) *Hub {
	h := &Hub{
		cmdCh:                make(chan hubCmd, 256),
		clock:                clock,
		activeClients:        make(map[uuid.UUID]conversationClients),
		onFirstClient:        onFirstClient,
		onConversationEmpty:  onConversationEmpty,
		done:                 make(chan struct{}),
		maxClientsPerConvers: maxClientsPerConversation,
	}
	go h.run()
	return h
}

// Register adds a client to a conversation.
// Returns an error only if the per-conversation client cap is reached.
func (h *Hub) Register(conversationID uuid.UUID, conn *websocket.Conn) error {
	errCh := make(chan error, 1)
	h.cmdCh <- registerCmd{conversationID: conversationID, connection: conn, errorChannel: errCh}

	timer := h.clock.NewTimer(commandTimeout)
	defer timer.Stop()

	select {
	case err := <-errCh:
		return err
	case <-timer.Chan():
		return fmt.Errorf("register command timed out after %v", commandTimeout)
	}
}

// Unregister removes a client from a conversation.
func (h *Hub) Unregister(conversationID uuid.UUID, conn *websocket.Conn) {
	h.cmdCh <- unregisterCmd{conversationID: conversationID, connection: conn}
}

// Broadcast delivers an already-encoded event to every local client of a
// conversation. Marshal failures are the caller's problem; the hub only
// moves bytes.
func (h *Hub) Broadcast(conversationID uuid.UUID, event any) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal broadcast event: %w", err)
	}
	h.cmdCh <- broadcastCmd{conversationID: conversationID, payload: payload}
	return nil
}

// ClientCount returns the number of local clients in a conversation.
// Returns -1 if the command times out.
func (h *Hub) ClientCount(conversationID uuid.UUID) int {
	replyCh := make(chan int, 1)
	h.cmdCh <- clientCountCmd{conversationID: conversationID, replyChannel: replyCh}

	timer := h.clock.NewTimer(commandTimeout)
	defer timer.Stop()

	select {
	case count := <-replyCh:
		return count
	case <-timer.Chan():
		slog.Warn("ClientCount timed out", "timeout", commandTimeout)
		return -1
	}
}

// Stop shuts down the hub, closing all client connections.
// Blocks until the actor goroutine has exited or the timeout is reached.
func (h *Hub) Stop() {
	h.cmdCh <- stopCmd{}

	timer := h.clock.NewTimer(stopTimeout)
	defer timer.Stop()

	select {
	case <-h.done:
		slog.Info("Chat hub stopped gracefully")
	case <-timer.Chan():
		slog.Warn("Chat hub stop timeout exceeded, forcing exit", "timeout", stopTimeout)
		close(h.done)
	}
}

func (h *Hub) run() {
	defer func() {
		if r := recover(); r != nil {
			slog.Error("Chat hub panic recovered", "panic", r)
			h.closeAllClients("chat hub panic")
		}
	}()
	defer close(h.done)

	for cmd := range h.cmdCh {
		switch c := cmd.(type) {
		case registerCmd:
			h.handleRegister(c)
		case unregisterCmd:
			h.handleUnregister(c)
		case broadcastCmd:
			h.handleBroadcast(c)
		case clientCountCmd:
			c.replyChannel <- len(h.activeClients[c.conversationID])
		case stopCmd:
			h.handleStop()
			return
		default:
			slog.Warn("Chat hub received unknown command type", "command_type", fmt.Sprintf("%T", cmd))
		}
	}
}

func (h *Hub) handleRegister(c registerCmd) {
	clients, exists := h.activeClients[c.conversationID]
	if !exists {
		clients = make(conversationClients)
		h.activeClients[c.conversationID] = clients
	}

	if len(clients) >= h.maxClientsPerConvers {
		slog.Warn("Rejecting client: max clients reached",
			"conversation_id", c.conversationID.String(), "max_clients", h.maxClientsPerConvers)
		c.connection.Close()
		c.errorChannel <- fmt.Errorf("max clients per conversation (%d) reached", h.maxClientsPerConvers)
		return
	}

	// Run callback asynchronously to avoid blocking Register on the Redis
	// subscription setup.
	if !exists && h.onFirstClient != nil {
		go h.onFirstClient(c.conversationID)
	}

	clients[c.connection] = newClientWriter(c.connection, h.clock)
	metrics.WebsocketConnections.Inc()

	slog.Debug("Client registered",
		"conversation_id", c.conversationID.String(), "total_clients", len(clients))
	c.errorChannel <- nil
}

func (h *Hub) handleUnregister(c unregisterCmd) {
	clients, exists := h.activeClients[c.conversationID]
	if !exists {
		return
	}

	cw, exists := clients[c.connection]
	if !exists {
		return
	}

	cw.stop()
	delete(clients, c.connection)
	metrics.WebsocketConnections.Dec()

	if len(clients) == 0 {
		delete(h.activeClients, c.conversationID)
		if h.onConversationEmpty != nil {
			h.onConversationEmpty(c.conversationID)
		}
		slog.Debug("Last client disconnected", "conversation_id", c.conversationID.String())
	}
}

func (h *Hub) handleBroadcast(c broadcastCmd) {
	clients := h.activeClients[c.conversationID]
	if len(clients) == 0 {
		return
	}

	var slow []*websocket.Conn
	for conn, writer := range clients {
		select {
		case writer.sendChannel <- c.payload:
		default:
			slow = append(slow, conn)
		}
	}

	for _, conn := range slow {
		slog.Warn("Disconnecting slow client", "conversation_id", c.conversationID.String())
		h.handleUnregister(unregisterCmd{conversationID: c.conversationID, connection: conn})
	}
}

func (h *Hub) handleStop() {
	totalClients := 0
	for _, clients := range h.activeClients {
		totalClients += len(clients)
	}

	slog.Info("Chat hub shutting down",
		"conversations", len(h.activeClients), "total_clients", totalClients)
	h.closeAllClients("Server shutting down")
}

func (h *Hub) closeAllClients(reason string) {
	for conversationID, clients := range h.activeClients {
		for _, cw := range clients {
			cw.stopGraceful(reason)
			metrics.WebsocketConnections.Dec()
		}
		delete(h.activeClients, conversationID)
		if h.onConversationEmpty != nil {
			h.onConversationEmpty(conversationID)
		}
	}
}
