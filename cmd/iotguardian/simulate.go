package main

import (
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"iotguardian/internal/logx"
	"iotguardian/internal/simulator"
)

var simCfg simulator.Config

var simulateCmd = &cobra.Command{
	Use:   "simulate",
	Short: "Post mock sensor readings to a running server",
	RunE: func(cmd *cobra.Command, args []string) error {
		logx.Init(logx.Options{Production: !verbose})
		if simCfg.Seed == 0 {
			simCfg.Seed = time.Now().UnixNano()
		}
		sim, err := simulator.New(simCfg)
		if err != nil {
			return err
		}
		defer sim.Close()

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()
		logx.Info().Str("url", simCfg.URL).Int("devices", simCfg.Devices).Dur("interval", simCfg.Interval).Msg("Starting simulation")
		return sim.Run(ctx)
	},
}

func init() {
	f := simulateCmd.Flags()
	f.StringVar(&simCfg.URL, "url", "http://localhost:8081", "server base URL")
	f.IntVar(&simCfg.Devices, "devices", 3, "number of mock devices")
	f.DurationVar(&simCfg.Interval, "interval", 5*time.Second, "delay between readings of one device")
	f.IntVar(&simCfg.Count, "count", 0, "readings per device, 0 runs until interrupted")
	f.Int64Var(&simCfg.Seed, "seed", 0, "random seed, 0 picks one from the clock")
}
