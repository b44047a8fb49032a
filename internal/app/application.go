package app

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"

	"track1090/internal/adsb"
	"track1090/internal/beast"
	"track1090/internal/sbs"
	"track1090/internal/tracker"
)

// Application wires the Beast feed, the frame decoder, and the tracker
// together and owns their lifecycle.
type Application struct {
	config    Config
	logger    *logrus.Logger
	registry  *prometheus.Registry
	directory *tracker.Directory
	sbsFile   *os.File
	rotator   *sbs.Rotator
	ctx       context.Context
	cancel    context.CancelFunc
	wg        sync.WaitGroup
}

// NewApplication creates a new application instance
func NewApplication(config Config) *Application {
	ctx, cancel := context.WithCancel(context.Background())

	logger := logrus.New()
	if config.Verbose {
		logger.SetLevel(logrus.DebugLevel)
	} else {
		logger.SetLevel(logrus.InfoLevel)
	}

	if config.SweepInterval <= 0 {
		config.SweepInterval = DefaultSweepInterval
	}
	if config.Timeout <= 0 {
		config.Timeout = DefaultTimeout
	}

	return &Application{
		config:   config,
		logger:   logger,
		registry: prometheus.NewRegistry(),
		ctx:      ctx,
		cancel:   cancel,
	}
}

// Start runs the application until a shutdown signal arrives.
func (app *Application) Start() error {
	app.logger.WithFields(logrus.Fields{
		"version":    Version,
		"build_time": BuildTime,
		"git_commit": GitCommit,
		"feed":       app.config.FeedAddr,
	}).Info("starting track1090")

	metrics := tracker.NewMetrics(app.registry)
	app.directory = tracker.NewDirectory(tracker.Config{
		Timeout: app.config.Timeout,
	}, app.logger, metrics)

	if app.config.MetricsAddr != "" {
		app.serveMetrics()
	}

	switch {
	case app.config.SBSDir != "":
		r, err := sbs.NewRotator(app.config.SBSDir, app.logger)
		if err != nil {
			return fmt.Errorf("failed to open SBS capture directory: %w", err)
		}
		app.rotator = r
		app.wg.Add(2)
		go func() {
			defer app.wg.Done()
			r.Run(app.ctx)
		}()
		go app.runSweep(sbs.NewWriter(r, app.logger))
	case app.config.SBSPath != "":
		f, err := os.OpenFile(app.config.SBSPath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			return fmt.Errorf("failed to open SBS output: %w", err)
		}
		app.sbsFile = f
		app.wg.Add(1)
		go app.runSweep(sbs.NewWriter(f, app.logger))
	}

	app.wg.Add(1)
	go app.runFeed()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	<-sigChan
	app.logger.Info("received shutdown signal")

	app.shutdown()
	return nil
}

func (app *Application) shutdown() {
	app.cancel()
	app.wg.Wait()
	app.directory.Stop()
	if app.sbsFile != nil {
		app.sbsFile.Close()
	}
	if app.rotator != nil {
		app.rotator.Close()
	}
	app.logger.Info("shutdown complete")
}

// runFeed keeps a connection to the Beast feed alive, reconnecting with
// capped exponential backoff.
func (app *Application) runFeed() {
	defer app.wg.Done()

	backoff := time.Second
	for {
		select {
		case <-app.ctx.Done():
			return
		default:
		}

		conn, err := net.Dial("tcp", app.config.FeedAddr)
		if err != nil {
			app.logger.WithError(err).WithField("feed", app.config.FeedAddr).Warn("feed connection failed")
			select {
			case <-app.ctx.Done():
				return
			case <-time.After(backoff):
			}
			backoff *= 2
			if backoff > 30*time.Second {
				backoff = 30 * time.Second
			}
			continue
		}

		app.logger.WithField("feed", app.config.FeedAddr).Info("connected to beast feed")
		backoff = time.Second
		app.readFeed(conn)
	}
}

// readFeed pumps one connection until it fails or shutdown starts.
func (app *Application) readFeed(conn net.Conn) {
	defer conn.Close()

	done := make(chan struct{})
	defer close(done)
	go func() {
		select {
		case <-app.ctx.Done():
			conn.Close()
		case <-done:
		}
	}()

	decoder := beast.NewDecoder(app.logger)
	buf := make([]byte, 4096)
	for {
		n, err := conn.Read(buf)
		if n > 0 {
			for _, frame := range decoder.Push(buf[:n]) {
				if !frame.IsModeS() {
					continue
				}
				msg, derr := adsb.DecodeFrame(frame.Data)
				if derr != nil {
					app.logger.WithError(derr).Debug("dropping unparseable frame")
					continue
				}
				app.directory.Dispatch(msg)
			}
		}
		if err != nil {
			if app.ctx.Err() == nil {
				app.logger.WithError(err).Warn("feed read failed, reconnecting")
			}
			return
		}
	}
}

// runSweep periodically writes every aircraft snapshot as SBS output.
func (app *Application) runSweep(w *sbs.Writer) {
	defer app.wg.Done()

	ticker := time.NewTicker(app.config.SweepInterval)
	defer ticker.Stop()

	for {
		select {
		case <-app.ctx.Done():
			return
		case <-ticker.C:
			if err := w.WriteSnapshots(app.directory.Snapshots()); err != nil {
				app.logger.WithError(err).Warn("SBS sweep failed")
			}
		}
	}
}

func (app *Application) serveMetrics() {
	srv := &http.Server{
		Addr: app.config.MetricsAddr,
		Handler: promhttp.HandlerFor(app.registry, promhttp.HandlerOpts{
			ErrorLog: app.logger,
		}),
	}

	app.wg.Add(1)
	go func() {
		defer app.wg.Done()
		<-app.ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		srv.Shutdown(shutdownCtx)
	}()

	go func() {
		app.logger.WithField("addr", app.config.MetricsAddr).Info("serving metrics")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			app.logger.WithError(err).Error("metrics server failed")
		}
	}()
}
