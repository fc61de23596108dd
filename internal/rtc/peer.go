package rtc

import (
	"github.com/pion/webrtc/v4"

	"github.com/minhaz-lariya/virtual-class/internal/config"
	"github.com/minhaz-lariya/virtual-class/internal/session"
)

func newPeerConnection(cfg *config.Config) (*webrtc.PeerConnection, error) {
	iceServers := []webrtc.ICEServer{{URLs: cfg.GetSTUNServers()}}

	if turnServers := cfg.GetTURNServers(); turnServers != nil {
		username, password := cfg.GetTURNCredentials()
		iceServers = append(iceServers, webrtc.ICEServer{
			URLs:       turnServers,
			Username:   username,
			Credential: password,
		})
	}

	pc, err := webrtc.NewPeerConnection(webrtc.Configuration{
		ICEServers: iceServers,
	})
	if err != nil {
		return nil, session.NewError("create peer connection", err)
	}
	return pc, nil
}
