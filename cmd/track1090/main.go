package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"track1090/internal/app"
)

func main() {
	var config app.Config

	rootCmd := &cobra.Command{
		Use:   "track1090",
		Short: "ADS-B aircraft tracker",
		Long: `Aircraft tracker for 1090 MHz extended squitter traffic.

Connects to a Beast-format feed (dump1090/readsb port 30005), decodes
Mode S messages, and maintains per-aircraft kinematic state: position
recovered via global CPR decoding, velocity, altitude, vertical rate,
and identity. Stale contacts are evicted automatically. State can be
swept to a BaseStation (SBS-1) log and observed via Prometheus metrics.

Example usage:
  track1090 --feed localhost:30005 --sbs ./aircraft.sbs --metrics :9109`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if config.ShowVersion {
				app.ShowVersion()
				return nil
			}

			application := app.NewApplication(config)
			return application.Start()
		},
	}

	rootCmd.Flags().StringVarP(&config.FeedAddr, "feed", "f", app.DefaultFeedAddr, "Beast feed address (host:port)")
	rootCmd.Flags().StringVarP(&config.MetricsAddr, "metrics", "m", "", "Prometheus metrics listen address (empty to disable)")
	rootCmd.Flags().StringVarP(&config.SBSPath, "sbs", "s", "", "BaseStation output file (empty to disable)")
	rootCmd.Flags().StringVar(&config.SBSDir, "sbs-dir", "", "Directory for daily-rotated, compressed BaseStation captures (overrides --sbs)")
	rootCmd.Flags().DurationVarP(&config.Timeout, "timeout", "t", app.DefaultTimeout, "Evict aircraft not heard from for this long")
	rootCmd.Flags().DurationVar(&config.SweepInterval, "sweep", app.DefaultSweepInterval, "SBS output sweep interval")
	rootCmd.Flags().BoolVarP(&config.Verbose, "verbose", "v", false, "Verbose logging")
	rootCmd.Flags().BoolVar(&config.ShowVersion, "version", false, "Show version information")

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
