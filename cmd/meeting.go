package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/pion/webrtc/v4"

	"github.com/minhaz-lariya/virtual-class/internal/chat"
	"github.com/minhaz-lariya/virtual-class/internal/config"
	"github.com/minhaz-lariya/virtual-class/internal/media"
	"github.com/minhaz-lariya/virtual-class/internal/room"
	"github.com/minhaz-lariya/virtual-class/internal/rtc"
	"github.com/minhaz-lariya/virtual-class/internal/session"
	"github.com/minhaz-lariya/virtual-class/internal/signaling"
	"github.com/minhaz-lariya/virtual-class/internal/ui"
	"github.com/minhaz-lariya/virtual-class/internal/utils"
)

// meetingSession wires the relay client, membership, negotiation
// engine, chat and media into one room lifetime. Everything it owns
// dies with it: no goroutine outlives the room.
type meetingSession struct {
	cfg    *config.Config
	roomID string
	selfID string
	role   signaling.Role

	client     *signaling.Client
	handler    *signaling.Handler
	membership *room.Membership
	engine     *rtc.Engine
	chatRoom   *chat.Channel

	source   *media.FileSource
	screen   *media.FileSource
	recorder *media.Recorder

	view *ui.Meeting

	micOn    bool
	camOn    bool
	sharing  bool
	admitted atomic.Int32

	startedAt time.Time
}

// LoadConfig loads configuration with flag overrides applied.
func LoadConfig(opts config.Options) (*config.Config, error) {
	cfg, err := config.Load(opts)
	if err != nil {
		return nil, session.NewError("load config", err)
	}
	return cfg, nil
}

// runMeeting is the shared meeting flow for both roles: connect,
// announce, negotiate, then hand the terminal to the meeting view
// until the operator leaves.
func runMeeting(cfg *config.Config, roomID string, role signaling.Role) error {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	s := &meetingSession{
		cfg:       cfg,
		roomID:    roomID,
		selfID:    utils.NewParticipantID(),
		role:      role,
		micOn:     true,
		camOn:     true,
		startedAt: time.Now(),
	}

	stopSpinner := ui.RunConnectionSpinner("Connecting to relay...")
	if err := s.connect(ctx); err != nil {
		stopSpinner()
		return err
	}
	defer s.teardown()
	stopSpinner()

	if err := s.setup(ctx); err != nil {
		return err
	}

	// Announce presence; the peer connection is already in place so
	// negotiation can start the moment admission happens.
	if err := s.membership.Announce(); err != nil {
		return session.NewError("announce presence", err)
	}
	if role == signaling.RoleStudent {
		go s.membership.RunJoinRequests(ctx)
	}

	if err := s.view.Run(); err != nil {
		return session.NewError("run meeting view", err)
	}

	s.printSummary()
	return nil
}

func (s *meetingSession) connect(ctx context.Context) error {
	s.client = signaling.NewClient(s.cfg.RelayURL)
	return s.client.Connect(ctx)
}

// setup builds the room components and registers every callback
// before any event can arrive.
func (s *meetingSession) setup(ctx context.Context) error {
	s.handler = signaling.NewHandler(s.client)
	s.membership = room.NewMembership(s.client, s.roomID, s.selfID, s.role)
	s.chatRoom = chat.NewChannel(s.client, s.roomID, s.selfID)

	signaler := rtc.NewRelaySignaler(s.client, s.roomID, s.selfID)
	engine, err := rtc.NewEngine(s.cfg, signaler, s.role, func() bool {
		return s.membership.State() == room.Admitted
	})
	if err != nil {
		return err
	}
	s.engine = engine

	if err := s.setupMedia(ctx); err != nil {
		return err
	}

	// The offering side opens the control channel before the offer so
	// mute/camera/share toggles never renegotiate.
	if s.role == signaling.RoleTeacher {
		if err := s.engine.CreateControlChannel(); err != nil {
			return err
		}
	}

	s.view = ui.NewMeeting(s.roomID, s.selfID, string(s.role), ui.Handlers{
		SendChat:     s.chatRoom.Send,
		Admit:        s.membership.Admit,
		ToggleMic:    s.toggleMic,
		ToggleCamera: s.toggleCamera,
		ToggleShare:  s.toggleShare,
	})

	s.membership.OnPendingChange(s.view.SetPending)
	s.membership.OnAdmitted(func() {
		s.view.SetStatus("admitted, waiting for teacher's offer")
	})
	s.chatRoom.OnMessage(func(msg chat.Message) {
		s.view.AppendChat(msg.SenderID, msg.Text)
	})
	s.engine.OnStateChange(func(state webrtc.PeerConnectionState) {
		s.view.SetStatus("peer connection " + state.String())
	})
	s.engine.OnMediaState(func(state rtc.MediaStatePayload) {
		s.view.SetStatus(fmt.Sprintf("peer media: mic %s, camera %s",
			onOff(state.MicOn), onOff(state.CameraOn)))
	})

	s.handler.OnJoinRequest(s.membership.HandleJoinRequest)
	s.handler.OnUserAccepted(func(id string) {
		s.membership.HandleUserAccepted(id)
		if s.role == signaling.RoleTeacher {
			s.admitted.Add(1)
			if err := s.engine.HandleUserAccepted(); err != nil {
				slog.Error("offer failed", "err", err)
				s.view.SetStatus("offer failed: " + err.Error())
			}
		}
	})
	s.handler.OnSignal(func(senderID string, payload *signaling.SignalPayload) {
		if err := s.engine.HandleSignal(payload); err != nil {
			slog.Error("signal handling failed", "sender", senderID, "err", err)
		}
	})
	s.handler.OnChatMessage(s.chatRoom.HandleMessage)
	s.handler.OnReconnect(func() {
		// The transport came back on its own; membership does not.
		s.view.SetStatus("relay reconnected, re-announcing presence")
		if err := s.membership.Announce(); err != nil {
			slog.Warn("re-announce failed", "err", err)
		}
	})

	go s.handler.Run(ctx)
	return nil
}

// setupMedia attaches configured local capture and the optional
// recording sink. Capture failure is reported but does not abort the
// room: membership and chat still work.
func (s *meetingSession) setupMedia(ctx context.Context) error {
	if s.cfg.RecordDir != "" {
		s.recorder = media.NewRecorder(s.cfg.RecordDir)
		s.engine.OnTrack(func(track *webrtc.TrackRemote) {
			s.recorder.HandleTrack(track)
		})
	}

	if s.cfg.VideoFile == "" && s.cfg.AudioFile == "" {
		return nil
	}

	source, err := media.NewFileSource(s.cfg.VideoFile, s.cfg.AudioFile)
	if err != nil {
		ui.PrintWarning("media unavailable: " + err.Error())
		return nil
	}
	if err := s.engine.AddTracks(source.Tracks()...); err != nil {
		source.Close()
		return err
	}
	source.Start(ctx)
	s.source = source
	return nil
}

func (s *meetingSession) toggleMic() bool {
	if s.source == nil {
		return false
	}
	s.micOn = !s.micOn
	s.source.SetAudioEnabled(s.micOn)
	s.notifyMediaState()
	return s.micOn
}

func (s *meetingSession) toggleCamera() bool {
	if s.source == nil {
		return false
	}
	s.camOn = !s.camOn
	s.source.SetVideoEnabled(s.camOn)
	s.notifyMediaState()
	return s.camOn
}

func (s *meetingSession) notifyMediaState() {
	if err := s.engine.SendMediaState(s.micOn, s.camOn); err != nil {
		slog.Debug("media state not sent", "err", err)
	}
}

// toggleShare swaps the outbound video between camera and screen
// capture with an in-place track replacement; the negotiated session
// is untouched.
func (s *meetingSession) toggleShare() (bool, error) {
	if s.source == nil || s.source.VideoTrack() == nil {
		return false, session.WrapError("screen share", session.ErrMediaUnavailable, "no outbound video")
	}

	if s.sharing {
		if err := s.engine.ReplaceVideoTrack(s.source.VideoTrack()); err != nil {
			return true, err
		}
		if s.screen != nil {
			s.screen.Close()
			s.screen = nil
		}
		s.sharing = false
		s.engine.SendScreenShareState(false)
		return false, nil
	}

	if s.cfg.ScreenFile == "" {
		return false, session.WrapError("screen share", session.ErrMediaUnavailable, "no screen source configured")
	}
	screen, err := media.NewFileSource(s.cfg.ScreenFile, "")
	if err != nil {
		return false, err
	}
	if err := s.engine.ReplaceVideoTrack(screen.VideoTrack()); err != nil {
		screen.Close()
		return false, err
	}
	screen.Start(context.Background())
	s.screen = screen
	s.sharing = true
	s.engine.SendScreenShareState(true)
	return true, nil
}

// teardown releases everything the room owned, media first so writers
// flush before the connection drops.
func (s *meetingSession) teardown() {
	if s.recorder != nil {
		s.recorder.Close()
	}
	if s.screen != nil {
		s.screen.Close()
	}
	if s.source != nil {
		s.source.Close()
	}
	if s.engine != nil {
		s.engine.Close()
	}
	if s.client != nil {
		s.client.Close()
	}
}

func (s *meetingSession) printSummary() {
	fmt.Println()
	ui.RenderSessionSummary(ui.SessionSummary{
		RoomID:   s.roomID,
		Role:     string(s.role),
		Duration: utils.FormatDuration(time.Since(s.startedAt)),
		Admitted: int(s.admitted.Load()),
		Messages: len(s.chatRoom.History()),
	})
}

func onOff(on bool) string {
	if on {
		return "on"
	}
	return "off"
}
