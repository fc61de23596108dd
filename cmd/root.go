package cmd

import (
	"os"
	"os/signal"

	"github.com/spf13/cobra"

	"github.com/minhaz-lariya/virtual-class/internal/ui"
	"github.com/minhaz-lariya/virtual-class/internal/version"
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:     "vclass",
	Short:   "Terminal client for teacher-led video classrooms over WebRTC",
	Long: `vclass is a command-line client for virtual classrooms. A teacher
creates a room and shares the invite link; students ask to join and,
once admitted by the teacher, exchange audio/video directly over a
peer-to-peer WebRTC connection while chat and admission control flow
through the signaling relay.`,
	Version: version.Version,
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	sig := make(chan os.Signal, 1)
	signal.Notify(sig, os.Interrupt)
	go func() {
		<-sig
		os.Exit(0)
	}()

	rootCmd.SilenceErrors = true
	rootCmd.SilenceUsage = true

	if err := rootCmd.Execute(); err != nil {
		ui.PrintError(err.Error())
		os.Exit(1)
	}
}
