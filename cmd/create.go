package cmd

import (
	"fmt"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/minhaz-lariya/virtual-class/internal/config"
	"github.com/minhaz-lariya/virtual-class/internal/signaling"
	"github.com/minhaz-lariya/virtual-class/internal/ui"
)

var (
	flagDomain    string
	flagSTUN      string
	flagTURN      string
	flagTURNUser  string
	flagTURNPass  string
	flagVideo     string
	flagAudio     string
	flagScreen    string
	flagRecordDir string
)

var createCmd = &cobra.Command{
	Use:     "create",
	Aliases: []string{"c"},
	Short:   "Create a meeting room as the teacher",
	Long: `Create a meeting room and wait for students.

The room id is generated locally; share the printed invite link with
students. Join requests show up in the meeting view and are admitted
with /admit.

Examples:
  vclass create --video lecture.ivf --audio lecture.ogg
  vclass create --screen slides.ivf --record-dir ./recordings`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return createMeeting()
	},
}

func createMeeting() error {
	cfg, err := LoadConfig(config.Options{
		Domain:     flagDomain,
		STUNServer: flagSTUN,
		TURNServer: flagTURN,
		TURNUser:   flagTURNUser,
		TURNPass:   flagTURNPass,
		VideoFile:  flagVideo,
		AudioFile:  flagAudio,
		ScreenFile: flagScreen,
		RecordDir:  flagRecordDir,
	})
	if err != nil {
		return err
	}

	roomID := uuid.NewString()

	fmt.Println()
	ui.RenderRoomInfo(roomID, cfg.GetRoomLink(roomID))
	fmt.Println()

	return runMeeting(cfg, roomID, signaling.RoleTeacher)
}

func init() {
	rootCmd.AddCommand(createCmd)

	createCmd.Flags().StringVarP(&flagDomain, "domain", "d", "", "Custom relay domain")
	createCmd.Flags().StringVarP(&flagSTUN, "stun", "s", "", "Custom STUN server")
	createCmd.Flags().StringVarP(&flagTURN, "turn", "t", "", "Custom TURN server")
	createCmd.Flags().StringVar(&flagTURNUser, "turn-user", "", "TURN username")
	createCmd.Flags().StringVar(&flagTURNPass, "turn-pass", "", "TURN password")
	createCmd.Flags().StringVar(&flagVideo, "video", "", "IVF (VP8) file to publish as camera video")
	createCmd.Flags().StringVar(&flagAudio, "audio", "", "Ogg (Opus) file to publish as microphone audio")
	createCmd.Flags().StringVar(&flagScreen, "screen", "", "IVF (VP8) file to publish when screen sharing")
	createCmd.Flags().StringVar(&flagRecordDir, "record-dir", "", "Directory for local recordings of inbound media")
}
