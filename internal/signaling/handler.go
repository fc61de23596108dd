package signaling

import (
	"context"
	"log/slog"
)

// Handler routes inbound relay events to registered callbacks.
//
// A single dispatch goroutine drains the client's incoming channel, so
// callbacks run one at a time in relay-arrival order and never
// concurrently with each other. Callbacks must therefore not block on
// relay round-trips of their own.
type Handler struct {
	client *Client

	onJoinRequest  func(participantID string)
	onUserAccepted func(participantID string)
	onSignal       func(senderID string, payload *SignalPayload)
	onChatMessage  func(senderID, text string)
	onReconnect    func()
}

// NewHandler creates a handler for the given client. Register all
// callbacks before calling Run.
func NewHandler(client *Client) *Handler {
	return &Handler{client: client}
}

func (h *Handler) OnJoinRequest(fn func(participantID string)) {
	h.onJoinRequest = fn
}

func (h *Handler) OnUserAccepted(fn func(participantID string)) {
	h.onUserAccepted = fn
}

func (h *Handler) OnSignal(fn func(senderID string, payload *SignalPayload)) {
	h.onSignal = fn
}

func (h *Handler) OnChatMessage(fn func(senderID, text string)) {
	h.onChatMessage = fn
}

// OnReconnect fires after the transport has been re-established. The
// callback decides whether to re-announce membership; nothing is
// replayed automatically.
func (h *Handler) OnReconnect(fn func()) {
	h.onReconnect = fn
}

// Run dispatches events until the context is canceled or the client
// is closed.
func (h *Handler) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case <-h.client.ctx.Done():
			return
		case <-h.client.Reconnected():
			if h.onReconnect != nil {
				h.onReconnect()
			}
		case msg := <-h.client.Incoming():
			h.dispatch(msg)
		}
	}
}

func (h *Handler) dispatch(msg *Message) {
	switch msg.Event {

	case EventJoinRequestReceived:
		if h.onJoinRequest != nil {
			h.onJoinRequest(msg.ParticipantID)
		}

	case EventUserAccepted:
		if h.onUserAccepted != nil {
			h.onUserAccepted(msg.ParticipantID)
		}

	case EventReceiveSignal:
		if msg.Signal == nil {
			slog.Debug("signal event without payload", "sender", msg.SenderID)
			return
		}
		if h.onSignal != nil {
			h.onSignal(msg.SenderID, msg.Signal)
		}

	case EventReceiveMessage:
		if h.onChatMessage != nil {
			h.onChatMessage(msg.SenderID, msg.Text)
		}

	default:
		slog.Debug("unhandled relay event", "event", msg.Event)
	}
}
