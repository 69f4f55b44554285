package handler

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/ftzops/backend/internal/domain/lot"
	"github.com/ftzops/backend/internal/domain/shared"
	"github.com/ftzops/backend/internal/interfaces/http/middleware"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// SSEClient represents a connected SSE client
type SSEClient struct {
	ID         string
	UserID     string
	CustomerID uuid.UUID // uuid.Nil for operators, who see all events
	Chan       chan SSEMessage
	Done       chan struct{}
}

// SSEMessage represents a message to be sent to SSE clients
type SSEMessage struct {
	Event string `json:"event"`
	Data  string `json:"data"`
	ID    string `json:"id,omitempty"`
}

// LotStreamHandler broadcasts lot lifecycle events over Server-Sent
// Events. It subscribes to the in-process event bus, so clients observe
// each lot's events in the order the ledger recorded them. Customer
// principals only receive events for their own lots.
type LotStreamHandler struct {
	BaseHandler
	bus        shared.EventSubscriber
	logger     *zap.Logger
	clients    sync.Map // map[string]*SSEClient
	ctx        context.Context
	cancel     context.CancelFunc
	heartbeat  time.Duration
	started    bool
	startMu    sync.Mutex
	maxClients int
}

// LotStreamOption is a functional option for configuring the handler
type LotStreamOption func(*LotStreamHandler)

// WithStreamLogger sets the logger for the handler
func WithStreamLogger(logger *zap.Logger) LotStreamOption {
	return func(h *LotStreamHandler) {
		h.logger = logger
	}
}

// WithStreamHeartbeat sets the heartbeat interval
func WithStreamHeartbeat(interval time.Duration) LotStreamOption {
	return func(h *LotStreamHandler) {
		h.heartbeat = interval
	}
}

// WithStreamMaxClients sets the maximum number of concurrent SSE clients
func WithStreamMaxClients(max int) LotStreamOption {
	return func(h *LotStreamHandler) {
		h.maxClients = max
	}
}

// NewLotStreamHandler creates a new SSE handler for lot lifecycle events
func NewLotStreamHandler(bus shared.EventSubscriber, opts ...LotStreamOption) *LotStreamHandler {
	ctx, cancel := context.WithCancel(context.Background())
	h := &LotStreamHandler{
		bus:        bus,
		logger:     zap.NewNop(),
		ctx:        ctx,
		cancel:     cancel,
		heartbeat:  30 * time.Second,
		maxClients: 10000,
	}

	for _, opt := range opts {
		opt(h)
	}

	return h
}

// Start subscribes to the event bus and begins heartbeating
func (h *LotStreamHandler) Start() error {
	h.startMu.Lock()
	defer h.startMu.Unlock()

	if h.started {
		return fmt.Errorf("lot stream handler already started")
	}

	h.bus.Subscribe(h,
		lot.EventTypeLotCreated,
		lot.EventTypeLotQuantityChanged,
		lot.EventTypeLotStatusChanged,
		lot.EventTypeLotDepleted,
		lot.EventTypeLotVoided,
		lot.EventTypePreadmissionProcessed,
		lot.EventTypePreshipmentAllocated,
	)

	go h.sendHeartbeats()

	h.started = true
	h.logger.Info("Lot stream handler started")
	return nil
}

// Stop unsubscribes and disconnects every client
func (h *LotStreamHandler) Stop() {
	h.bus.Unsubscribe(h)
	h.cancel()

	h.clients.Range(func(key, value any) bool {
		if client, ok := value.(*SSEClient); ok {
			close(client.Done)
		}
		return true
	})

	h.logger.Info("Lot stream handler stopped")
}

// Handle implements shared.EventHandler: it serializes the event and
// broadcasts it to every client entitled to see it
func (h *LotStreamHandler) Handle(_ context.Context, event shared.DomainEvent) error {
	data, err := json.Marshal(event)
	if err != nil {
		h.logger.Error("Failed to marshal lot event for SSE", zap.Error(err))
		return nil
	}

	msg := SSEMessage{
		Event: event.EventType(),
		Data:  string(data),
		ID:    event.EventID().String(),
	}

	h.broadcast(msg, eventCustomerID(event))
	return nil
}

// EventTypes implements shared.EventHandler
func (h *LotStreamHandler) EventTypes() []string {
	return []string{
		lot.EventTypeLotCreated,
		lot.EventTypeLotQuantityChanged,
		lot.EventTypeLotStatusChanged,
		lot.EventTypeLotDepleted,
		lot.EventTypeLotVoided,
		lot.EventTypePreadmissionProcessed,
		lot.EventTypePreshipmentAllocated,
	}
}

// eventCustomerID extracts the owning customer from a lot event.
// Returns uuid.Nil when the event type carries no customer, in which
// case only operators receive it.
func eventCustomerID(event shared.DomainEvent) uuid.UUID {
	switch e := event.(type) {
	case *lot.LotCreatedEvent:
		return e.CustomerID
	case *lot.LotQuantityChangedEvent:
		return e.CustomerID
	case *lot.LotStatusChangedEvent:
		return e.CustomerID
	case *lot.LotDepletedEvent:
		return e.CustomerID
	case *lot.LotVoidedEvent:
		return e.CustomerID
	case *lot.PreadmissionProcessedEvent:
		return e.CustomerID
	case *lot.PreshipmentAllocatedEvent:
		return e.CustomerID
	default:
		return uuid.Nil
	}
}

// broadcast sends a message to every entitled connected client. A slow
// client's full buffer drops the message for that client only.
func (h *LotStreamHandler) broadcast(msg SSEMessage, customerID uuid.UUID) {
	h.clients.Range(func(key, value any) bool {
		client, ok := value.(*SSEClient)
		if !ok {
			return true
		}

		// Customer-scoped clients only receive their own lots' events
		if client.CustomerID != uuid.Nil && client.CustomerID != customerID {
			return true
		}

		select {
		case client.Chan <- msg:
		default:
			h.logger.Warn("SSE client channel full, dropping message",
				zap.String("client_id", client.ID),
				zap.String("event", msg.Event))
		}
		return true
	})
}

// sendHeartbeats periodically sends heartbeat messages to keep connections alive
func (h *LotStreamHandler) sendHeartbeats() {
	ticker := time.NewTicker(h.heartbeat)
	defer ticker.Stop()

	for {
		select {
		case <-h.ctx.Done():
			return
		case <-ticker.C:
			heartbeat := SSEMessage{
				Event: "heartbeat",
				Data:  fmt.Sprintf(`{"timestamp":%d}`, time.Now().Unix()),
			}
			h.clients.Range(func(_, value any) bool {
				if client, ok := value.(*SSEClient); ok {
					select {
					case client.Chan <- heartbeat:
					default:
					}
				}
				return true
			})
		}
	}
}

// Stream establishes an SSE connection and relays lot events until the
// client disconnects
func (h *LotStreamHandler) Stream(c *gin.Context) {
	if h.maxClients > 0 && h.GetClientCount() >= h.maxClients {
		c.JSON(503, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "MAX_CONNECTIONS_REACHED",
				"message": "Maximum number of SSE connections reached",
			},
		})
		return
	}

	c.Writer.Header().Set("Content-Type", "text/event-stream")
	c.Writer.Header().Set("Cache-Control", "no-cache")
	c.Writer.Header().Set("Connection", "keep-alive")
	c.Writer.Header().Set("X-Accel-Buffering", "no")

	userID := middleware.GetJWTUserID(c)
	scopeID, _ := middleware.CustomerScope(c)

	const sseMessageBufferSize = 100
	client := &SSEClient{
		ID:         uuid.New().String(),
		UserID:     userID,
		CustomerID: scopeID,
		Chan:       make(chan SSEMessage, sseMessageBufferSize),
		Done:       make(chan struct{}),
	}

	h.clients.Store(client.ID, client)
	// The channel is deliberately left open on disconnect: a concurrent
	// broadcast may still hold a reference, and sending on a closed
	// channel would panic. The GC reclaims it once deregistered.
	defer h.clients.Delete(client.ID)

	h.logger.Info("SSE client connected",
		zap.String("client_id", client.ID),
		zap.String("user_id", userID))

	h.sendEvent(c.Writer, SSEMessage{
		Event: "connected",
		Data:  fmt.Sprintf(`{"client_id":"%s","timestamp":%d}`, client.ID, time.Now().Unix()),
	})
	c.Writer.Flush()

	reqCtx := c.Request.Context()

	for {
		select {
		case <-reqCtx.Done():
			h.logger.Info("SSE client disconnected",
				zap.String("client_id", client.ID))
			return
		case <-client.Done:
			return
		case <-h.ctx.Done():
			return
		case msg, ok := <-client.Chan:
			if !ok {
				return
			}
			h.sendEvent(c.Writer, msg)
			c.Writer.Flush()
		}
	}
}

// sendEvent writes an SSE event to the response writer
func (h *LotStreamHandler) sendEvent(w io.Writer, msg SSEMessage) {
	if msg.Event != "" {
		fmt.Fprintf(w, "event: %s\n", msg.Event)
	}
	if msg.ID != "" {
		fmt.Fprintf(w, "id: %s\n", msg.ID)
	}
	fmt.Fprintf(w, "data: %s\n\n", msg.Data)
}

// GetClientCount returns the number of connected SSE clients
func (h *LotStreamHandler) GetClientCount() int {
	count := 0
	h.clients.Range(func(_, _ any) bool {
		count++
		return true
	})
	return count
}
