package cmd

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/spf13/cobra"

	"github.com/minhaz-lariya/virtual-class/internal/config"
	"github.com/minhaz-lariya/virtual-class/internal/session"
	"github.com/minhaz-lariya/virtual-class/internal/signaling"
	"github.com/minhaz-lariya/virtual-class/internal/ui"
)

var (
	flagJoinDomain    string
	flagJoinSTUN      string
	flagJoinTURN      string
	flagJoinTURNUser  string
	flagJoinTURNPass  string
	flagJoinVideo     string
	flagJoinAudio     string
	flagJoinRecordDir string
)

var joinCmd = &cobra.Command{
	Use:     "join <room-id|url>",
	Aliases: []string{"j"},
	Short:   "Join a meeting room as a student",
	Long: `Join a meeting room and wait for the teacher's approval.

The join request is re-sent every few seconds until the teacher admits
you; once admitted, the teacher's audio/video arrives directly over
WebRTC.

Examples:
  vclass join be6a8781-0024-4bc8-8d62-f7c580ee7827
  vclass join https://class.example.com/meeting/be6a8781?role=student`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		roomID, err := parseRoomInput(args[0])
		if err != nil {
			return err
		}
		return joinMeeting(roomID)
	},
}

func joinMeeting(roomID string) error {
	cfg, err := LoadConfig(config.Options{
		Domain:     flagJoinDomain,
		STUNServer: flagJoinSTUN,
		TURNServer: flagJoinTURN,
		TURNUser:   flagJoinTURNUser,
		TURNPass:   flagJoinTURNPass,
		VideoFile:  flagJoinVideo,
		AudioFile:  flagJoinAudio,
		RecordDir:  flagJoinRecordDir,
	})
	if err != nil {
		return err
	}

	return runMeeting(cfg, roomID, signaling.RoleStudent)
}

// parseRoomInput accepts either a bare room id or a shared meeting URL.
func parseRoomInput(input string) (string, error) {
	if input == "" {
		return "", fmt.Errorf("room ID cannot be empty")
	}

	if strings.Contains(input, "://") {
		roomID, err := extractRoomIDFromURL(input)
		if err != nil {
			return "", err
		}
		ui.PrintSuccessf("Extracted room ID: %s", roomID)
		return roomID, nil
	}

	return input, nil
}

func extractRoomIDFromURL(urlStr string) (string, error) {
	parsedURL, err := url.Parse(urlStr)
	if err != nil {
		return "", session.NewError("parse URL", err)
	}

	path := strings.TrimSuffix(parsedURL.Path, "/")
	parts := strings.Split(path, "/")

	for i, part := range parts {
		if part == "meeting" && i+1 < len(parts) && parts[i+1] != "" {
			return parts[i+1], nil
		}
	}

	return "", fmt.Errorf("could not extract room ID from URL: %s", urlStr)
}

func init() {
	rootCmd.AddCommand(joinCmd)

	joinCmd.Flags().StringVarP(&flagJoinDomain, "domain", "d", "", "Custom relay domain")
	joinCmd.Flags().StringVarP(&flagJoinSTUN, "stun", "s", "", "Custom STUN server")
	joinCmd.Flags().StringVarP(&flagJoinTURN, "turn", "t", "", "Custom TURN server")
	joinCmd.Flags().StringVar(&flagJoinTURNUser, "turn-user", "", "TURN username")
	joinCmd.Flags().StringVar(&flagJoinTURNPass, "turn-pass", "", "TURN password")
	joinCmd.Flags().StringVar(&flagJoinVideo, "video", "", "IVF (VP8) file to publish back to the room")
	joinCmd.Flags().StringVar(&flagJoinAudio, "audio", "", "Ogg (Opus) file to publish back to the room")
	joinCmd.Flags().StringVar(&flagJoinRecordDir, "record-dir", "", "Directory for local recordings of inbound media")
}
