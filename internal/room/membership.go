package room

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/minhaz-lariya/virtual-class/internal/signaling"
)

// JoinRetryInterval is how often a waiting student re-sends its join
// request until the teacher admits it.
const JoinRetryInterval = 3 * time.Second

// AdmissionState tracks the local participant's standing in the room.
// Transitions are monotonic: once Admitted, never back.
type AdmissionState int

const (
	Unrequested AdmissionState = iota
	Pending
	Admitted
)

func (s AdmissionState) String() string {
	switch s {
	case Unrequested:
		return "unrequested"
	case Pending:
		return "pending"
	case Admitted:
		return "admitted"
	default:
		return "unknown"
	}
}

// Invoker sends relay events. Satisfied by *signaling.Client; tests
// substitute a recorder.
type Invoker interface {
	Invoke(msg *signaling.Message) error
}

// Membership tracks who is in the room and who is allowed in.
//
// The teacher side keeps the pending-admission set and acts on
// operator Admit calls. The student side polls RequestToJoin until its
// own UserAccepted arrives. Both sides share one announce path.
type Membership struct {
	roomID  string
	selfID  string
	role    signaling.Role
	invoker Invoker

	retryInterval time.Duration

	mu           sync.Mutex
	state        AdmissionState
	pending      map[string]struct{}
	pendingOrder []string
	retryStopped bool
	stopRetry    chan struct{}

	onPendingChange func(pending []string)
	onAdmitted      func()
}

// NewMembership creates the membership state machine for one
// participant. Teachers are self-admitted from the start.
func NewMembership(invoker Invoker, roomID, selfID string, role signaling.Role) *Membership {
	state := Unrequested
	if role == signaling.RoleTeacher {
		state = Admitted
	}
	return &Membership{
		roomID:        roomID,
		selfID:        selfID,
		role:          role,
		invoker:       invoker,
		retryInterval: JoinRetryInterval,
		state:         state,
		pending:       make(map[string]struct{}),
		stopRetry:     make(chan struct{}),
	}
}

// OnPendingChange registers the teacher-side callback fired with a
// snapshot of the pending list whenever it changes.
func (m *Membership) OnPendingChange(fn func(pending []string)) {
	m.onPendingChange = fn
}

// OnAdmitted registers the student-side callback fired exactly once,
// on the transition to Admitted.
func (m *Membership) OnAdmitted(fn func()) {
	m.onAdmitted = fn
}

// State returns the local participant's admission state.
func (m *Membership) State() AdmissionState {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state
}

// Announce declares presence in the room. Called once after connect,
// and again by the caller after a relay reconnect if it wants its
// membership re-established.
func (m *Membership) Announce() error {
	return m.invoker.Invoke(signaling.NewJoinRoom(m.roomID, m.selfID, m.role))
}

// HandleJoinRequest records a student asking to be admitted. Duplicate
// requests for the same id collapse into one pending entry.
func (m *Membership) HandleJoinRequest(participantID string) {
	if m.role != signaling.RoleTeacher || participantID == "" {
		return
	}

	m.mu.Lock()
	if _, ok := m.pending[participantID]; ok {
		m.mu.Unlock()
		return
	}
	m.pending[participantID] = struct{}{}
	m.pendingOrder = append(m.pendingOrder, participantID)
	snapshot := m.pendingSnapshot()
	m.mu.Unlock()

	if m.onPendingChange != nil {
		m.onPendingChange(snapshot)
	}
}

// Pending returns the pending-admission ids in arrival order.
func (m *Membership) Pending() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.pendingSnapshot()
}

func (m *Membership) pendingSnapshot() []string {
	out := make([]string, len(m.pendingOrder))
	copy(out, m.pendingOrder)
	return out
}

// Admit grants a pending student entry. The local pending entry is
// removed optimistically before the relay call; an invoke failure is
// logged but not rolled back, the operator simply admits again when
// the student's next retry re-surfaces the request.
func (m *Membership) Admit(participantID string) {
	m.mu.Lock()
	if _, ok := m.pending[participantID]; !ok {
		m.mu.Unlock()
		return
	}
	delete(m.pending, participantID)
	for i, id := range m.pendingOrder {
		if id == participantID {
			m.pendingOrder = append(m.pendingOrder[:i], m.pendingOrder[i+1:]...)
			break
		}
	}
	snapshot := m.pendingSnapshot()
	m.mu.Unlock()

	if err := m.invoker.Invoke(signaling.NewAcceptUser(m.roomID, participantID)); err != nil {
		slog.Warn("admit failed", "participant", participantID, "err", err)
	}

	if m.onPendingChange != nil {
		m.onPendingChange(snapshot)
	}
}

// HandleUserAccepted processes an admission event. Only an event
// naming this participant moves the student to Admitted; the
// transition happens at most once and cancels the retry loop.
func (m *Membership) HandleUserAccepted(participantID string) {
	if participantID != m.selfID {
		return
	}

	m.mu.Lock()
	if m.state == Admitted {
		m.mu.Unlock()
		return
	}
	m.state = Admitted
	stopped := m.retryStopped
	m.retryStopped = true
	m.mu.Unlock()

	if !stopped {
		close(m.stopRetry)
	}
	if m.onAdmitted != nil {
		m.onAdmitted()
	}
}

// RunJoinRequests polls RequestToJoin at a fixed interval until the
// participant is admitted or the context ends. Invoke failures while
// the relay is down are absorbed by the next tick. No-op for teachers.
func (m *Membership) RunJoinRequests(ctx context.Context) {
	if m.role != signaling.RoleStudent {
		return
	}

	m.mu.Lock()
	if m.state == Admitted {
		m.mu.Unlock()
		return
	}
	if m.state == Unrequested {
		m.state = Pending
	}
	m.mu.Unlock()

	m.sendJoinRequest()

	ticker := time.NewTicker(m.retryInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-m.stopRetry:
			return
		case <-ticker.C:
			m.sendJoinRequest()
		}
	}
}

func (m *Membership) sendJoinRequest() {
	// A tick racing the admission transition must not leak one more
	// request after the timer was canceled.
	m.mu.Lock()
	admitted := m.state == Admitted
	m.mu.Unlock()
	if admitted {
		return
	}

	if err := m.invoker.Invoke(signaling.NewRequestToJoin(m.roomID, m.selfID)); err != nil {
		slog.Debug("join request not sent", "err", err)
	}
}
