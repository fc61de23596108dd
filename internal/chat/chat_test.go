package chat

import (
	"errors"
	"sync"
	"testing"

	"github.com/minhaz-lariya/virtual-class/internal/signaling"
)

type fakeInvoker struct {
	mu       sync.Mutex
	messages []*signaling.Message
	failWith error
}

func (f *fakeInvoker) Invoke(msg *signaling.Message) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failWith != nil {
		return f.failWith
	}
	f.messages = append(f.messages, msg)
	return nil
}

func (f *fakeInvoker) sent() []*signaling.Message {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]*signaling.Message, len(f.messages))
	copy(out, f.messages)
	return out
}

func TestChannel_SendBroadcasts(t *testing.T) {
	invoker := &fakeInvoker{}
	ch := NewChannel(invoker, "room-1", "ab12cd")

	if err := ch.Send("hello class"); err != nil {
		t.Fatalf("send: %v", err)
	}

	sent := invoker.sent()
	if len(sent) != 1 {
		t.Fatalf("sent %d messages, want 1", len(sent))
	}
	msg := sent[0]
	if msg.Event != signaling.EventSendMessage {
		t.Errorf("event = %q, want %q", msg.Event, signaling.EventSendMessage)
	}
	if msg.RoomID != "room-1" || msg.SenderID != "ab12cd" || msg.Text != "hello class" {
		t.Errorf("message = %+v", msg)
	}
}

func TestChannel_SendDoesNotAppendLocally(t *testing.T) {
	invoker := &fakeInvoker{}
	ch := NewChannel(invoker, "room-1", "ab12cd")

	// The relay echoes the message back to the sender; the local copy
	// arrives through HandleMessage like everyone else's.
	if err := ch.Send("hello"); err != nil {
		t.Fatal(err)
	}
	if got := len(ch.History()); got != 0 {
		t.Errorf("history length = %d, want 0 before the echo", got)
	}

	ch.HandleMessage("ab12cd", "hello")
	if got := len(ch.History()); got != 1 {
		t.Errorf("history length = %d, want 1 after the echo", got)
	}
}

func TestChannel_SendEmptyIsNoop(t *testing.T) {
	invoker := &fakeInvoker{}
	ch := NewChannel(invoker, "room-1", "ab12cd")

	if err := ch.Send(""); err != nil {
		t.Fatalf("send empty: %v", err)
	}
	if got := len(invoker.sent()); got != 0 {
		t.Errorf("sent %d messages, want 0", got)
	}
}

func TestChannel_SendSurfacesTransportError(t *testing.T) {
	sentinel := errors.New("relay down")
	invoker := &fakeInvoker{failWith: sentinel}
	ch := NewChannel(invoker, "room-1", "ab12cd")

	if err := ch.Send("lost line"); !errors.Is(err, sentinel) {
		t.Errorf("err = %v, want %v", err, sentinel)
	}
	// Not queued for retry either.
	invoker.mu.Lock()
	invoker.failWith = nil
	invoker.mu.Unlock()
	if err := ch.Send("next line"); err != nil {
		t.Fatal(err)
	}
	sent := invoker.sent()
	if len(sent) != 1 || sent[0].Text != "next line" {
		t.Errorf("sent = %+v, want only the second line", sent)
	}
}

func TestChannel_HistoryKeepsArrivalOrderAndDuplicates(t *testing.T) {
	ch := NewChannel(&fakeInvoker{}, "room-1", "ab12cd")

	var observed []Message
	ch.OnMessage(func(msg Message) { observed = append(observed, msg) })

	ch.HandleMessage("teacher", "welcome")
	ch.HandleMessage("student", "hi")
	ch.HandleMessage("student", "hi")

	history := ch.History()
	want := []Message{
		{SenderID: "teacher", Text: "welcome"},
		{SenderID: "student", Text: "hi"},
		{SenderID: "student", Text: "hi"},
	}
	if len(history) != len(want) {
		t.Fatalf("history length = %d, want %d", len(history), len(want))
	}
	for i := range want {
		if history[i] != want[i] {
			t.Errorf("history[%d] = %+v, want %+v", i, history[i], want[i])
		}
	}
	if len(observed) != len(want) {
		t.Errorf("observer saw %d messages, want %d", len(observed), len(want))
	}
}

func TestChannel_HistoryIsSnapshot(t *testing.T) {
	ch := NewChannel(&fakeInvoker{}, "room-1", "ab12cd")
	ch.HandleMessage("teacher", "one")

	snap := ch.History()
	ch.HandleMessage("teacher", "two")

	if len(snap) != 1 {
		t.Errorf("snapshot grew to %d entries", len(snap))
	}
}
