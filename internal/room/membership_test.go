package room

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/minhaz-lariya/virtual-class/internal/session"
	"github.com/minhaz-lariya/virtual-class/internal/signaling"
)

// fakeInvoker records relay events and can simulate a down transport.
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

func (f *fakeInvoker) setFailure(err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.failWith = err
}

func (f *fakeInvoker) countEvent(event string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for _, msg := range f.messages {
		if msg.Event == event {
			n++
		}
	}
	return n
}

func (f *fakeInvoker) lastEvent(event string) *signaling.Message {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i := len(f.messages) - 1; i >= 0; i-- {
		if f.messages[i].Event == event {
			return f.messages[i]
		}
	}
	return nil
}

func waitFor(t *testing.T, timeout time.Duration, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatal("condition not reached before timeout")
}

func TestMembership_TeacherStartsAdmitted(t *testing.T) {
	m := NewMembership(&fakeInvoker{}, "room1", "teach1", signaling.RoleTeacher)
	if got := m.State(); got != Admitted {
		t.Errorf("teacher state = %v, want %v", got, Admitted)
	}
}

func TestMembership_StudentStartsUnrequested(t *testing.T) {
	m := NewMembership(&fakeInvoker{}, "room1", "stud1", signaling.RoleStudent)
	if got := m.State(); got != Unrequested {
		t.Errorf("student state = %v, want %v", got, Unrequested)
	}
}

func TestMembership_DuplicateJoinRequests(t *testing.T) {
	m := NewMembership(&fakeInvoker{}, "room1", "teach1", signaling.RoleTeacher)

	m.HandleJoinRequest("stud1")
	m.HandleJoinRequest("stud1")
	m.HandleJoinRequest("stud2")
	m.HandleJoinRequest("stud1")

	pending := m.Pending()
	if len(pending) != 2 {
		t.Fatalf("pending = %v, want 2 entries", pending)
	}
	if pending[0] != "stud1" || pending[1] != "stud2" {
		t.Errorf("pending order = %v, want [stud1 stud2]", pending)
	}
}

func TestMembership_StudentIgnoresJoinRequests(t *testing.T) {
	m := NewMembership(&fakeInvoker{}, "room1", "stud1", signaling.RoleStudent)
	m.HandleJoinRequest("stud2")
	if len(m.Pending()) != 0 {
		t.Error("student should not track pending requests")
	}
}

func TestMembership_AdmitRemovesPendingOptimistically(t *testing.T) {
	invoker := &fakeInvoker{}
	m := NewMembership(invoker, "room1", "teach1", signaling.RoleTeacher)

	m.HandleJoinRequest("stud1")
	m.HandleJoinRequest("stud2")
	m.Admit("stud1")

	pending := m.Pending()
	if len(pending) != 1 || pending[0] != "stud2" {
		t.Errorf("pending after admit = %v, want [stud2]", pending)
	}

	msg := invoker.lastEvent(signaling.EventAcceptUser)
	if msg == nil {
		t.Fatal("AcceptUser was not invoked")
	}
	if msg.ParticipantID != "stud1" || msg.RoomID != "room1" {
		t.Errorf("AcceptUser = %+v, want stud1 in room1", msg)
	}
}

func TestMembership_AdmitNotRolledBackOnFailure(t *testing.T) {
	invoker := &fakeInvoker{}
	invoker.setFailure(session.ErrNotConnected)
	m := NewMembership(invoker, "room1", "teach1", signaling.RoleTeacher)

	m.HandleJoinRequest("stud1")
	m.Admit("stud1")

	// Fire-and-forget: the entry stays removed even though the relay
	// call failed. The student's next retry re-surfaces the request.
	if len(m.Pending()) != 0 {
		t.Errorf("pending after failed admit = %v, want empty", m.Pending())
	}

	m.HandleJoinRequest("stud1")
	if len(m.Pending()) != 1 {
		t.Error("retry should re-surface the candidate")
	}
}

func TestMembership_AdmitUnknownIsNoop(t *testing.T) {
	invoker := &fakeInvoker{}
	m := NewMembership(invoker, "room1", "teach1", signaling.RoleTeacher)

	m.Admit("ghost")
	if invoker.countEvent(signaling.EventAcceptUser) != 0 {
		t.Error("admitting an unknown id should not hit the relay")
	}
}

func TestMembership_AdmissionMonotonic(t *testing.T) {
	m := NewMembership(&fakeInvoker{}, "room1", "stud1", signaling.RoleStudent)

	admittedCalls := 0
	m.OnAdmitted(func() { admittedCalls++ })

	// Acceptance of someone else does not move us.
	m.HandleUserAccepted("other")
	if m.State() != Unrequested {
		t.Errorf("state = %v after foreign acceptance, want Unrequested", m.State())
	}

	m.HandleUserAccepted("stud1")
	if m.State() != Admitted {
		t.Errorf("state = %v, want Admitted", m.State())
	}

	// Reentrancy: a duplicate acceptance is a no-op.
	m.HandleUserAccepted("stud1")
	if admittedCalls != 1 {
		t.Errorf("OnAdmitted fired %d times, want 1", admittedCalls)
	}
	if m.State() != Admitted {
		t.Error("admission must not revert")
	}
}

func TestMembership_JoinRetryUntilAdmitted(t *testing.T) {
	invoker := &fakeInvoker{}
	m := NewMembership(invoker, "room1", "stud1", signaling.RoleStudent)
	m.retryInterval = 10 * time.Millisecond

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	done := make(chan struct{})
	go func() {
		m.RunJoinRequests(ctx)
		close(done)
	}()

	waitFor(t, 2*time.Second, func() bool {
		return invoker.countEvent(signaling.EventRequestToJoin) >= 3
	})
	if m.State() != Pending {
		t.Errorf("state while polling = %v, want Pending", m.State())
	}

	m.HandleUserAccepted("stud1")

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("retry loop did not stop after admission")
	}

	// After cancellation no further RequestToJoin may be issued.
	count := invoker.countEvent(signaling.EventRequestToJoin)
	time.Sleep(50 * time.Millisecond)
	if after := invoker.countEvent(signaling.EventRequestToJoin); after != count {
		t.Errorf("requests kept flowing after admission: %d -> %d", count, after)
	}
}

func TestMembership_JoinRetryAbsorbsTransportLoss(t *testing.T) {
	invoker := &fakeInvoker{}
	invoker.setFailure(session.ErrNotConnected)
	m := NewMembership(invoker, "room1", "stud1", signaling.RoleStudent)
	m.retryInterval = 10 * time.Millisecond

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go m.RunJoinRequests(ctx)

	// All sends fail while disconnected; the loop keeps ticking and
	// recovers once the transport is back.
	time.Sleep(50 * time.Millisecond)
	invoker.setFailure(nil)

	waitFor(t, 2*time.Second, func() bool {
		return invoker.countEvent(signaling.EventRequestToJoin) >= 1
	})
}

func TestMembership_RunJoinRequestsIsTeacherNoop(t *testing.T) {
	invoker := &fakeInvoker{}
	m := NewMembership(invoker, "room1", "teach1", signaling.RoleTeacher)

	done := make(chan struct{})
	go func() {
		m.RunJoinRequests(context.Background())
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("teacher join loop should return immediately")
	}
	if invoker.countEvent(signaling.EventRequestToJoin) != 0 {
		t.Error("teacher must not send join requests")
	}
}

func TestMembership_AnnounceSendsJoinRoom(t *testing.T) {
	invoker := &fakeInvoker{}
	m := NewMembership(invoker, "room1", "stud1", signaling.RoleStudent)

	if err := m.Announce(); err != nil {
		t.Fatalf("announce failed: %v", err)
	}

	msg := invoker.lastEvent(signaling.EventJoinRoom)
	if msg == nil {
		t.Fatal("JoinRoom was not invoked")
	}
	if msg.RoomID != "room1" || msg.ParticipantID != "stud1" || msg.Role != signaling.RoleStudent {
		t.Errorf("JoinRoom = %+v", msg)
	}
}
