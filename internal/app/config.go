package app

import "time"

// Default configuration constants
const (
	DefaultFeedAddr      = "localhost:30005" // Beast feed (dump1090/readsb)
	DefaultSweepInterval = 1 * time.Second
	DefaultTimeout       = 60 * time.Second
)

// Config holds application configuration
type Config struct {
	FeedAddr      string
	MetricsAddr   string
	SBSPath       string
	SBSDir        string
	SweepInterval time.Duration
	Timeout       time.Duration
	Verbose       bool
	ShowVersion   bool
}
