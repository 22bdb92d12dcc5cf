package main

import (
	"os"

	"github.com/spf13/cobra"

	"iotguardian/internal/logx"
)

var verbose bool

var rootCmd = &cobra.Command{
	Use:   "iotguardian",
	Short: "IoT Guardian monitoring backend",
	Long: `IoT Guardian collects temperature, humidity and water-leak readings from
devices, queues ON/OFF commands back to them and serves the web dashboard API.

Run "iotguardian serve" to start the HTTP API or "iotguardian simulate" to
post mock readings to a running server.`,
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "debug logging")
	rootCmd.AddCommand(serveCmd, simulateCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		logx.Error().Err(err).Msg("Command failed")
		os.Exit(1)
	}
}
