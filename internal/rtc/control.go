package rtc

import (
	"log/slog"

	"github.com/pion/webrtc/v4"
	"github.com/vmihailenco/msgpack/v5"

	"github.com/minhaz-lariya/virtual-class/internal/session"
)

// The control channel carries in-meeting state (mute, camera,
// screen-share) between the peers. It is created before the offer so
// later toggles ride the already-negotiated channel and never touch
// negotiation state.
const controlChannelLabel = "control"

const (
	ControlTypeMediaState  = "media_state"
	ControlTypeScreenShare = "screen_share"
)

// ControlMessage is the msgpack envelope for control-channel traffic.
type ControlMessage struct {
	Type    string             `msgpack:"type"`
	Payload msgpack.RawMessage `msgpack:"payload"`
}

// MediaStatePayload announces the sender's current mute/camera state.
type MediaStatePayload struct {
	MicOn    bool `msgpack:"mic_on"`
	CameraOn bool `msgpack:"camera_on"`
}

// ScreenSharePayload announces that the sender's video track now
// carries (or stopped carrying) a screen capture.
type ScreenSharePayload struct {
	Active bool `msgpack:"active"`
}

// DecodePayload decodes the message payload into the provided struct.
func (m ControlMessage) DecodePayload(v any) error {
	return msgpack.Unmarshal(m.Payload, v)
}

// NewControlMessage creates a control message with the given type and
// payload.
func NewControlMessage(t string, payload any) (ControlMessage, error) {
	b, err := msgpack.Marshal(payload)
	if err != nil {
		return ControlMessage{}, err
	}
	return ControlMessage{Type: t, Payload: b}, nil
}

// OnMediaState registers the observer for the peer's mute/camera
// announcements.
func (e *Engine) OnMediaState(fn func(state MediaStatePayload)) {
	e.onMediaState = fn
}

// CreateControlChannel opens the control data channel. The offering
// side calls this before HandleUserAccepted so the channel is part of
// the single offer/answer exchange; the answering side adopts it via
// OnDataChannel instead.
func (e *Engine) CreateControlChannel() error {
	dc, err := e.pc.CreateDataChannel(controlChannelLabel, nil)
	if err != nil {
		return session.NewError("create control channel", err)
	}
	e.adoptControlChannel(dc)
	return nil
}

func (e *Engine) adoptControlChannel(dc *webrtc.DataChannel) {
	e.mu.Lock()
	e.control = dc
	e.mu.Unlock()

	dc.OnMessage(func(msg webrtc.DataChannelMessage) {
		var message ControlMessage
		if err := msgpack.Unmarshal(msg.Data, &message); err != nil {
			slog.Debug("bad control message", "err", err)
			return
		}
		e.handleControl(message)
	})
}

func (e *Engine) handleControl(msg ControlMessage) {
	switch msg.Type {
	case ControlTypeMediaState:
		var state MediaStatePayload
		if err := msg.DecodePayload(&state); err != nil {
			slog.Debug("bad media state payload", "err", err)
			return
		}
		if e.onMediaState != nil {
			e.onMediaState(state)
		}

	case ControlTypeScreenShare:
		var share ScreenSharePayload
		if err := msg.DecodePayload(&share); err != nil {
			slog.Debug("bad screen share payload", "err", err)
			return
		}
		slog.Info("peer screen share", "active", share.Active)

	default:
		slog.Debug("unknown control message", "type", msg.Type)
	}
}

// SendMediaState tells the peer about the local mute/camera state.
// Dropped silently when the channel is not open yet.
func (e *Engine) SendMediaState(micOn, cameraOn bool) error {
	return e.sendControl(ControlTypeMediaState, MediaStatePayload{MicOn: micOn, CameraOn: cameraOn})
}

// SendScreenShareState tells the peer whether the video track now
// carries screen capture.
func (e *Engine) SendScreenShareState(active bool) error {
	return e.sendControl(ControlTypeScreenShare, ScreenSharePayload{Active: active})
}

func (e *Engine) sendControl(t string, payload any) error {
	e.mu.Lock()
	dc := e.control
	e.mu.Unlock()

	if dc == nil || dc.ReadyState() != webrtc.DataChannelStateOpen {
		return nil
	}

	msg, err := NewControlMessage(t, payload)
	if err != nil {
		return session.NewError("encode control message", err)
	}
	data, err := msgpack.Marshal(msg)
	if err != nil {
		return session.NewError("encode control message", err)
	}
	if err := dc.Send(data); err != nil {
		return session.NewError("send control message", err)
	}
	return nil
}
