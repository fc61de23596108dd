package signaling

// Role identifies which side of the meeting a participant runs.
type Role string

const (
	RoleTeacher Role = "teacher"
	RoleStudent Role = "student"
)

// Relay event names. The relay hub brokers these between the
// participants of a room; it never interprets signal payloads.
const (
	EventJoinRoom      = "JoinRoom"
	EventRequestToJoin = "RequestToJoin"
	EventAcceptUser    = "AcceptUser"
	EventSendSignal    = "SendSignal"
	EventSendMessage   = "SendMessage"

	EventJoinRequestReceived = "JoinRequestReceived"
	EventUserAccepted        = "UserAccepted"
	EventReceiveSignal       = "ReceiveSignal"
	EventReceiveMessage      = "ReceiveMessage"
)

// Message is the wire envelope for every relay event.
type Message struct {
	Event         string         `json:"event"`
	RoomID        string         `json:"room_id,omitempty"`
	ParticipantID string         `json:"participant_id,omitempty"`
	Role          Role           `json:"role,omitempty"`
	SenderID      string         `json:"sender_id,omitempty"`
	Text          string         `json:"text,omitempty"`
	Signal        *SignalPayload `json:"signal,omitempty"`
}

// SignalPayload carries the WebRTC handshake data: an SDP offer or
// answer, or a single ICE candidate. Exactly one form per payload.
type SignalPayload struct {
	Type      string `json:"type,omitempty"` // "offer" or "answer"
	SDP       string `json:"sdp,omitempty"`
	Candidate any    `json:"candidate,omitempty"`
}

// IsCandidate reports whether the payload carries an ICE candidate.
func (p *SignalPayload) IsCandidate() bool {
	return p.Candidate != nil
}

func NewJoinRoom(roomID, participantID string, role Role) *Message {
	return &Message{Event: EventJoinRoom, RoomID: roomID, ParticipantID: participantID, Role: role}
}

func NewRequestToJoin(roomID, participantID string) *Message {
	return &Message{Event: EventRequestToJoin, RoomID: roomID, ParticipantID: participantID}
}

func NewAcceptUser(roomID, participantID string) *Message {
	return &Message{Event: EventAcceptUser, RoomID: roomID, ParticipantID: participantID}
}

func NewSignal(roomID, senderID string, payload *SignalPayload) *Message {
	return &Message{Event: EventSendSignal, RoomID: roomID, SenderID: senderID, Signal: payload}
}

func NewChatMessage(roomID, senderID, text string) *Message {
	return &Message{Event: EventSendMessage, RoomID: roomID, SenderID: senderID, Text: text}
}
