package config

import (
	"fmt"
	"os"
)

// Default configuration values (production)
const (
	DefaultDomain   = "class.minhaz.dev"
	DefaultHubPath  = "/meetingHub"
	DefaultSTUN     = "stun:stun.l.google.com:19302"
	DefaultTURN     = "turn:global.relay.metered.ca"
	DefaultTURNUser = "openai"
	DefaultTURNPass = "openai"
)

// Config holds application configuration
type Config struct {
	// Domain is the relay server domain
	Domain string

	// RelayURL is the websocket endpoint of the signaling relay
	RelayURL string

	// ICE servers for WebRTC
	STUNServer string
	TURNServer string
	TURNUser   string
	TURNPass   string

	// Local media playback sources (the CLI stand-in for camera and
	// screen capture). Empty means the participant publishes nothing.
	VideoFile  string
	AudioFile  string
	ScreenFile string

	// RecordDir enables local recording of inbound media when set.
	RecordDir string
}

// Options for loading config with CLI flag overrides
type Options struct {
	Domain     string
	STUNServer string
	TURNServer string
	TURNUser   string
	TURNPass   string
	VideoFile  string
	AudioFile  string
	ScreenFile string
	RecordDir  string
}

// Load reads configuration with the following priority:
// 1. CLI flags (passed via Options) - highest priority
// 2. Environment variables
// 3. Hardcoded defaults - lowest priority
func Load(opts Options) (*Config, error) {
	domain := firstOf(opts.Domain, os.Getenv("VCLASS_DOMAIN"), DefaultDomain)
	stunServer := firstOf(opts.STUNServer, os.Getenv("VCLASS_STUN"), DefaultSTUN)
	turnServer := firstOf(opts.TURNServer, os.Getenv("VCLASS_TURN"), DefaultTURN)
	turnUser := firstOf(opts.TURNUser, os.Getenv("VCLASS_TURN_USERNAME"), DefaultTURNUser)
	turnPass := firstOf(opts.TURNPass, os.Getenv("VCLASS_TURN_PASSWORD"), DefaultTURNPass)

	return &Config{
		Domain:     domain,
		RelayURL:   fmt.Sprintf("wss://%s%s", domain, DefaultHubPath),
		STUNServer: stunServer,
		TURNServer: turnServer,
		TURNUser:   turnUser,
		TURNPass:   turnPass,
		VideoFile:  firstOf(opts.VideoFile, os.Getenv("VCLASS_VIDEO")),
		AudioFile:  firstOf(opts.AudioFile, os.Getenv("VCLASS_AUDIO")),
		ScreenFile: firstOf(opts.ScreenFile, os.Getenv("VCLASS_SCREEN")),
		RecordDir:  firstOf(opts.RecordDir, os.Getenv("VCLASS_RECORD_DIR")),
	}, nil
}

func firstOf(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}

// GetRoomLink returns the shareable student URL for a room ID. The URL
// is the only persisted, shareable state of a meeting.
func (c *Config) GetRoomLink(roomID string) string {
	return fmt.Sprintf("https://%s/meeting/%s?role=student", c.Domain, roomID)
}

// GetSTUNServers returns STUN server URLs as strings
func (c *Config) GetSTUNServers() []string {
	return []string{c.STUNServer}
}

// GetTURNServers returns TURN server URLs if configured
func (c *Config) GetTURNServers() []string {
	if c.TURNServer == "" {
		return nil
	}
	return []string{
		fmt.Sprintf("%s:80?transport=tcp", c.TURNServer),
		fmt.Sprintf("%s:443?transport=tcp", c.TURNServer),
	}
}

// GetTURNCredentials returns TURN username and password
func (c *Config) GetTURNCredentials() (string, string) {
	return c.TURNUser, c.TURNPass
}
