package rtc

import (
	"testing"

	"github.com/vmihailenco/msgpack/v5"
)

func TestControlMessage_MediaStateRoundTrip(t *testing.T) {
	msg, err := NewControlMessage(ControlTypeMediaState, MediaStatePayload{MicOn: true, CameraOn: false})
	if err != nil {
		t.Fatalf("encode: %v", err)
	}

	// Over the wire the whole envelope is msgpack too.
	wire, err := msgpack.Marshal(msg)
	if err != nil {
		t.Fatalf("marshal envelope: %v", err)
	}
	var decoded ControlMessage
	if err := msgpack.Unmarshal(wire, &decoded); err != nil {
		t.Fatalf("unmarshal envelope: %v", err)
	}
	if decoded.Type != ControlTypeMediaState {
		t.Errorf("type = %q, want %q", decoded.Type, ControlTypeMediaState)
	}

	var state MediaStatePayload
	if err := decoded.DecodePayload(&state); err != nil {
		t.Fatalf("decode payload: %v", err)
	}
	if !state.MicOn || state.CameraOn {
		t.Errorf("state = %+v, want mic on, camera off", state)
	}
}

func TestHandleControl_DispatchesMediaState(t *testing.T) {
	e := newTeacherEngine(t, &fakeSignaler{})

	var got MediaStatePayload
	e.OnMediaState(func(state MediaStatePayload) { got = state })

	msg, err := NewControlMessage(ControlTypeMediaState, MediaStatePayload{MicOn: false, CameraOn: true})
	if err != nil {
		t.Fatal(err)
	}
	e.handleControl(msg)

	if got.MicOn || !got.CameraOn {
		t.Errorf("observed state = %+v, want mic off, camera on", got)
	}
}

func TestHandleControl_IgnoresUnknownType(t *testing.T) {
	e := newTeacherEngine(t, &fakeSignaler{})
	e.OnMediaState(func(MediaStatePayload) { t.Error("unexpected media state callback") })

	msg, err := NewControlMessage("hand_raise", struct{}{})
	if err != nil {
		t.Fatal(err)
	}
	e.handleControl(msg)
}

func TestSendControl_NoopWhenChannelNotOpen(t *testing.T) {
	e := newTeacherEngine(t, &fakeSignaler{})

	// The channel exists but SCTP is not up, so sends are dropped
	// rather than failing the caller.
	if err := e.SendMediaState(true, true); err != nil {
		t.Errorf("SendMediaState = %v, want nil", err)
	}
	if err := e.SendScreenShareState(true); err != nil {
		t.Errorf("SendScreenShareState = %v, want nil", err)
	}
}
