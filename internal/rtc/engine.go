package rtc

import (
	"encoding/json"
	"log/slog"
	"sync"
	"time"

	"github.com/pion/rtcp"
	"github.com/pion/webrtc/v4"

	"github.com/minhaz-lariya/virtual-class/internal/config"
	"github.com/minhaz-lariya/virtual-class/internal/session"
	"github.com/minhaz-lariya/virtual-class/internal/signaling"
)

// pliInterval is how often a keyframe is requested on inbound video so
// a peer that joined mid-stream gets a decodable picture quickly.
const pliInterval = 3 * time.Second

// Signaler carries WebRTC signal payloads to the remote peer. It
// decouples the negotiation state machine from the relay transport.
type Signaler interface {
	SendSignal(payload *signaling.SignalPayload) error
}

// Invoker sends relay events. Satisfied by *signaling.Client.
type Invoker interface {
	Invoke(msg *signaling.Message) error
}

// RelaySignaler sends signal payloads through the relay, tagged with
// the sender id.
type RelaySignaler struct {
	invoker Invoker
	roomID  string
	selfID  string
}

func NewRelaySignaler(invoker Invoker, roomID, selfID string) *RelaySignaler {
	return &RelaySignaler{invoker: invoker, roomID: roomID, selfID: selfID}
}

func (s *RelaySignaler) SendSignal(payload *signaling.SignalPayload) error {
	return s.invoker.Invoke(signaling.NewSignal(s.roomID, s.selfID, payload))
}

// Engine drives the offer/answer/candidate exchange for the room's
// single peer connection, which it owns exclusively.
//
// The direction is fixed by role: the teacher originates the offer on
// the first UserAccepted, the student answers once admitted. Each
// session has exactly one offer/answer exchange; duplicate triggers
// are ignored. Remote candidates that arrive before the remote
// description are buffered and flushed in arrival order once it is
// set.
type Engine struct {
	role     signaling.Role
	signaler Signaler
	pc       *webrtc.PeerConnection
	admitted func() bool

	done      chan struct{}
	closeOnce sync.Once

	mu                sync.Mutex
	offered           bool
	answered          bool
	remoteSet         bool
	pendingCandidates []webrtc.ICECandidateInit
	videoSender       *webrtc.RTPSender
	control           *webrtc.DataChannel

	onTrack       func(track *webrtc.TrackRemote)
	onStateChange func(state webrtc.PeerConnectionState)
	onMediaState  func(state MediaStatePayload)
}

// NewEngine creates the peer connection and its negotiation state.
// Called right after joining the room so the ICE/SDP machinery is
// ready the instant admission happens. The admitted guard tells the
// student side whether an incoming offer may be answered yet.
func NewEngine(cfg *config.Config, signaler Signaler, role signaling.Role, admitted func() bool) (*Engine, error) {
	pc, err := newPeerConnection(cfg)
	if err != nil {
		return nil, err
	}

	e := &Engine{
		role:     role,
		signaler: signaler,
		pc:       pc,
		admitted: admitted,
		done:     make(chan struct{}),
	}

	pc.OnICECandidate(func(c *webrtc.ICECandidate) {
		if c == nil {
			return
		}
		if err := e.signaler.SendSignal(&signaling.SignalPayload{Candidate: c.ToJSON()}); err != nil {
			slog.Debug("candidate not sent", "err", err)
		}
	})

	pc.OnConnectionStateChange(func(state webrtc.PeerConnectionState) {
		slog.Info("peer connection state", "state", state.String())
		if e.onStateChange != nil {
			e.onStateChange(state)
		}
	})

	pc.OnTrack(func(track *webrtc.TrackRemote, _ *webrtc.RTPReceiver) {
		if track.Kind() == webrtc.RTPCodecTypeVideo {
			go e.requestKeyframes(track.SSRC())
		}
		if e.onTrack != nil {
			e.onTrack(track)
		}
	})

	pc.OnDataChannel(func(dc *webrtc.DataChannel) {
		if dc.Label() == controlChannelLabel {
			e.adoptControlChannel(dc)
		}
	})

	return e, nil
}

// OnTrack registers the sink for inbound media tracks.
func (e *Engine) OnTrack(fn func(track *webrtc.TrackRemote)) {
	e.onTrack = fn
}

// OnStateChange registers the observer for peer-connection state
// transitions. Negotiation failures surface here; recovery is a
// manual rejoin, not renegotiation.
func (e *Engine) OnStateChange(fn func(state webrtc.PeerConnectionState)) {
	e.onStateChange = fn
}

// AddTracks attaches local capture tracks to the connection. Must
// happen before the offer is created for them to be negotiated.
func (e *Engine) AddTracks(tracks ...webrtc.TrackLocal) error {
	for _, track := range tracks {
		sender, err := e.pc.AddTrack(track)
		if err != nil {
			return session.NewError("add track", err)
		}
		if track.Kind() == webrtc.RTPCodecTypeVideo {
			e.mu.Lock()
			e.videoSender = sender
			e.mu.Unlock()
		}
		go e.drainSender(sender)
	}
	return nil
}

// drainSender reads and discards RTCP reports so interceptors keep
// running.
func (e *Engine) drainSender(sender *webrtc.RTPSender) {
	buf := make([]byte, 1500)
	for {
		if _, _, err := sender.Read(buf); err != nil {
			return
		}
	}
}

// ReplaceVideoTrack swaps the outbound video track in place, without
// renegotiation. Used for screen-share substitution and its revert.
func (e *Engine) ReplaceVideoTrack(track webrtc.TrackLocal) error {
	e.mu.Lock()
	sender := e.videoSender
	e.mu.Unlock()

	if sender == nil {
		return session.WrapError("replace track", session.ErrMediaUnavailable, "no outbound video")
	}
	if err := sender.ReplaceTrack(track); err != nil {
		return session.NewError("replace track", err)
	}
	return nil
}

// HandleUserAccepted is the teacher-side negotiation trigger: in the
// two-party model, acceptance of the student means the peer is about
// to be present, so the offer goes out now. Only the first acceptance
// produces an offer.
func (e *Engine) HandleUserAccepted() error {
	if e.role != signaling.RoleTeacher {
		return nil
	}

	e.mu.Lock()
	if e.offered {
		e.mu.Unlock()
		return nil
	}
	e.offered = true
	e.mu.Unlock()

	offer, err := e.pc.CreateOffer(nil)
	if err != nil {
		return session.NewError("create offer", err)
	}
	if err := e.pc.SetLocalDescription(offer); err != nil {
		return session.NewError("set local description", err)
	}

	return e.signaler.SendSignal(&signaling.SignalPayload{
		Type: webrtc.SDPTypeOffer.String(),
		SDP:  offer.SDP,
	})
}

// HandleSignal dispatches one inbound signal payload.
func (e *Engine) HandleSignal(payload *signaling.SignalPayload) error {
	if payload.IsCandidate() {
		return e.addRemoteCandidate(payload)
	}

	switch payload.Type {
	case webrtc.SDPTypeOffer.String():
		return e.handleOffer(payload)
	case webrtc.SDPTypeAnswer.String():
		return e.handleAnswer(payload)
	default:
		return session.WrapError("handle signal", session.ErrUnexpectedSignal, payload.Type)
	}
}

// handleOffer runs the student's half of the handshake: apply the
// remote offer, answer it, send the answer back. Offers are ignored
// on the teacher side, before admission, and after the first exchange.
func (e *Engine) handleOffer(payload *signaling.SignalPayload) error {
	if e.role != signaling.RoleStudent {
		return nil
	}
	if e.admitted != nil && !e.admitted() {
		slog.Debug("offer before admission, ignoring")
		return nil
	}

	e.mu.Lock()
	if e.answered {
		e.mu.Unlock()
		return nil
	}
	e.answered = true
	e.mu.Unlock()

	offer := webrtc.SessionDescription{Type: webrtc.SDPTypeOffer, SDP: payload.SDP}
	if err := e.setRemoteDescription(offer); err != nil {
		return err
	}

	answer, err := e.pc.CreateAnswer(nil)
	if err != nil {
		return session.NewError("create answer", err)
	}
	if err := e.pc.SetLocalDescription(answer); err != nil {
		return session.NewError("set local description", err)
	}

	return e.signaler.SendSignal(&signaling.SignalPayload{
		Type: webrtc.SDPTypeAnswer.String(),
		SDP:  answer.SDP,
	})
}

// handleAnswer completes the teacher's half. One answer per session;
// later ones are dropped.
func (e *Engine) handleAnswer(payload *signaling.SignalPayload) error {
	if e.role != signaling.RoleTeacher {
		return nil
	}

	e.mu.Lock()
	if e.answered {
		e.mu.Unlock()
		slog.Debug("duplicate answer, ignoring")
		return nil
	}
	e.answered = true
	e.mu.Unlock()

	answer := webrtc.SessionDescription{Type: webrtc.SDPTypeAnswer, SDP: payload.SDP}
	return e.setRemoteDescription(answer)
}

// setRemoteDescription applies the remote description and flushes any
// candidates that arrived before it existed, in arrival order.
func (e *Engine) setRemoteDescription(desc webrtc.SessionDescription) error {
	if err := e.pc.SetRemoteDescription(desc); err != nil {
		return session.NewError("set remote description", err)
	}

	e.mu.Lock()
	e.remoteSet = true
	queued := e.pendingCandidates
	e.pendingCandidates = nil
	e.mu.Unlock()

	for _, candidate := range queued {
		if err := e.pc.AddICECandidate(candidate); err != nil {
			return session.NewError("add buffered ICE candidate", err)
		}
	}
	return nil
}

// addRemoteCandidate applies a remote ICE candidate, buffering it when
// the remote description is not set yet.
func (e *Engine) addRemoteCandidate(payload *signaling.SignalPayload) error {
	candidateBytes, err := json.Marshal(payload.Candidate)
	if err != nil {
		return session.NewError("parse ICE candidate", err)
	}
	var candidate webrtc.ICECandidateInit
	if err := json.Unmarshal(candidateBytes, &candidate); err != nil {
		return session.NewError("parse ICE candidate", err)
	}

	e.mu.Lock()
	if !e.remoteSet {
		e.pendingCandidates = append(e.pendingCandidates, candidate)
		e.mu.Unlock()
		return nil
	}
	e.mu.Unlock()

	if err := e.pc.AddICECandidate(candidate); err != nil {
		return session.NewError("add ICE candidate", err)
	}
	return nil
}

// ConnectionState returns the current peer-connection state.
func (e *Engine) ConnectionState() webrtc.PeerConnectionState {
	return e.pc.ConnectionState()
}

// requestKeyframes sends a PLI for the given video stream until the
// engine closes.
func (e *Engine) requestKeyframes(ssrc webrtc.SSRC) {
	ticker := time.NewTicker(pliInterval)
	defer ticker.Stop()

	for {
		select {
		case <-e.done:
			return
		case <-ticker.C:
			pli := &rtcp.PictureLossIndication{MediaSSRC: uint32(ssrc)}
			if err := e.pc.WriteRTCP([]rtcp.Packet{pli}); err != nil {
				return
			}
		}
	}
}

// Close releases the peer connection. Safe to call more than once.
func (e *Engine) Close() error {
	var err error
	e.closeOnce.Do(func() {
		close(e.done)
		err = e.pc.Close()
	})
	return err
}
