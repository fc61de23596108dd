package chat

import (
	"sync"

	"github.com/minhaz-lariya/virtual-class/internal/signaling"
)

// Message is one chat line as delivered by the relay. Order is
// relay-arrival order, not send order, and duplicates are kept.
type Message struct {
	SenderID string
	Text     string
}

// Invoker sends relay events. Satisfied by *signaling.Client.
type Invoker interface {
	Invoke(msg *signaling.Message) error
}

// Channel is the reliable-broadcast chat over the relay. Messages
// sent while disconnected are dropped, not queued; the send error
// tells the operator.
type Channel struct {
	invoker Invoker
	roomID  string
	selfID  string

	mu        sync.Mutex
	history   []Message
	onMessage func(msg Message)
}

func NewChannel(invoker Invoker, roomID, selfID string) *Channel {
	return &Channel{invoker: invoker, roomID: roomID, selfID: selfID}
}

// OnMessage registers the per-message subscriber, invoked in arrival
// order.
func (c *Channel) OnMessage(fn func(msg Message)) {
	c.onMessage = fn
}

// Send broadcasts a chat line to the room.
func (c *Channel) Send(text string) error {
	if text == "" {
		return nil
	}
	return c.invoker.Invoke(signaling.NewChatMessage(c.roomID, c.selfID, text))
}

// HandleMessage appends an inbound chat line and notifies the
// subscriber.
func (c *Channel) HandleMessage(senderID, text string) {
	msg := Message{SenderID: senderID, Text: text}

	c.mu.Lock()
	c.history = append(c.history, msg)
	c.mu.Unlock()

	if c.onMessage != nil {
		c.onMessage(msg)
	}
}

// History returns a snapshot of all delivered messages in arrival
// order.
func (c *Channel) History() []Message {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]Message, len(c.history))
	copy(out, c.history)
	return out
}
