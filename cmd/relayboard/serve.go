package main

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/muurk/relayboard/internal/config"
	"github.com/muurk/relayboard/internal/discovery"
	"github.com/muurk/relayboard/internal/feed"
	"github.com/muurk/relayboard/internal/gpio"
	"github.com/muurk/relayboard/internal/logging"
	"github.com/muurk/relayboard/internal/metrics"
	"github.com/muurk/relayboard/internal/page"
	"github.com/muurk/relayboard/internal/relay"
	"github.com/muurk/relayboard/internal/server"
	"github.com/muurk/relayboard/internal/status"
	"github.com/muurk/relayboard/internal/version"
)

var (
	listenAddr    string
	logLevel      string
	driverName    string
	metricsListen string
	noMDNS        bool
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the relay board",
	Long: `Start the control socket, the status publisher and the mDNS announcement.

Flags override the matching config file keys.`,
	Example: `  # Run with the built-in four relay layout on the in-memory driver
  relayboard serve --listen :8080

  # Drive real GPIO lines from a config file, with metrics on :9100
  relayboard serve -c /etc/relayboard.yaml --driver periph --metrics-listen :9100`,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().StringVar(&listenAddr, "listen", "", "Control socket address (config: listen)")
	serveCmd.Flags().StringVar(&logLevel, "log-level", "", "Log level: debug, info, warn, error (config: log_level)")
	serveCmd.Flags().StringVar(&driverName, "driver", "", "Relay driver: memory or periph (config: driver)")
	serveCmd.Flags().StringVar(&metricsListen, "metrics-listen", "", "Address for /metrics and /ws/status (config: metrics.listen)")
	serveCmd.Flags().BoolVar(&noMDNS, "no-mdns", false, "Do not announce the board over mDNS")
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}
	applyFlags(cmd, cfg)
	if err := cfg.Validate(); err != nil {
		return err
	}

	level := cfg.LogLevel
	if level == "" {
		level = os.Getenv(logging.LogLevelEnvVar)
	}
	if level == "" {
		level = "info"
	}
	if err := logging.Initialize(level); err != nil {
		return fmt.Errorf("failed to initialize logging: %w", err)
	}
	defer logging.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	return run(ctx, cfg)
}

// applyFlags copies explicitly set flags over the loaded config.
func applyFlags(cmd *cobra.Command, cfg *config.Config) {
	flags := cmd.Flags()
	if flags.Changed("listen") {
		cfg.Listen = listenAddr
	}
	if flags.Changed("log-level") {
		cfg.LogLevel = logLevel
	}
	if flags.Changed("driver") {
		cfg.Driver = driverName
	}
	if flags.Changed("metrics-listen") {
		cfg.Metrics.Listen = metricsListen
	}
	if noMDNS {
		cfg.MDNS.Enabled = false
	}
}

func newDriver(cfg *config.Config) relay.PinDriver {
	if cfg.Driver == config.DriverPeriph {
		return gpio.NewPeriph(cfg.PinNames())
	}
	return gpio.NewMemory()
}

// run wires the board together and blocks until ctx is cancelled or the
// control socket fails.
func run(ctx context.Context, cfg *config.Config) error {
	logging.Info("Starting relay board",
		zap.String("version", version.Full()),
		zap.String("listen", cfg.Listen),
		zap.String("driver", cfg.Driver),
		zap.Strings("pins", cfg.PinNames()),
	)

	bank, err := relay.New(newDriver(cfg), len(cfg.Relays))
	if err != nil {
		return fmt.Errorf("failed to initialize relays: %w", err)
	}

	pageBytes, err := page.Load(cfg.PageFile)
	if err != nil {
		return err
	}

	var m *metrics.Metrics
	var hub *feed.Hub
	hooks := []func(*status.Document){}
	if cfg.Metrics.Listen != "" {
		m = metrics.New()
		hub = feed.NewHub()
		hooks = append(hooks,
			func(d *status.Document) {
				r := d.Report()
				m.ObserveSnapshot(r.Levels(), len(d.Bytes()))
			},
			hub.Publish,
		)
	}

	pub, err := status.NewPublisher(bank, status.NewRuntimeCounters(), status.Options{
		SSID:      cfg.SSID,
		Interval:  cfg.PublishInterval(),
		OnPublish: hooks,
	})
	if err != nil {
		return fmt.Errorf("failed to start status publisher: %w", err)
	}

	srv, err := server.New(server.Config{
		Bank:           bank,
		Status:         pub,
		Page:           pageBytes,
		ReadBufferSize: cfg.ReadBuffer,
		ConnTimeout:    cfg.ConnTimeout(),
		Metrics:        m,
	})
	if err != nil {
		return err
	}
	if err := srv.Listen(cfg.Listen); err != nil {
		return err
	}

	if cfg.MDNS.Enabled {
		adv, err := discovery.Advertise(discovery.AdvertiseOptions{
			Instance: cfg.MDNS.Instance,
			Service:  cfg.MDNS.Service,
			Domain:   cfg.MDNS.Domain,
			Port:     srv.Addr().(*net.TCPAddr).Port,
			Relays:   bank.Count(),
			Version:  version.Version,
		})
		if err != nil {
			// The control socket works without an announcement.
			logging.Warn("mDNS announcement failed", zap.Error(err))
		} else {
			defer adv.Shutdown()
		}
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	var wg sync.WaitGroup
	errCh := make(chan error, 2)

	wg.Add(1)
	go func() {
		defer wg.Done()
		pub.Run(ctx)
	}()

	if cfg.Metrics.Listen != "" {
		wg.Add(2)
		go func() {
			defer wg.Done()
			hub.Run(ctx)
		}()
		go func() {
			defer wg.Done()
			if err := serveHTTP(ctx, cfg.Metrics.Listen, m, hub); err != nil {
				errCh <- err
			}
		}()
	}

	wg.Add(1)
	go func() {
		defer wg.Done()
		if err := srv.Serve(ctx); err != nil {
			errCh <- err
		}
	}()

	var runErr error
	select {
	case <-ctx.Done():
		logging.Info("Shutdown signal received, stopping board...")
	case runErr = <-errCh:
		logging.Error("Board stopped", zap.Error(runErr))
	}
	cancel()
	wg.Wait()
	return runErr
}

// serveHTTP runs the companion listener until ctx is done.
func serveHTTP(ctx context.Context, addr string, m *metrics.Metrics, hub *feed.Hub) error {
	mux := http.NewServeMux()
	mux.Handle("/metrics", m.Handler())
	mux.Handle(feed.Path, hub)

	httpSrv := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		_ = httpSrv.Shutdown(shutdownCtx)
	}()

	logging.Info("Metrics listener started", zap.String("addr", addr))
	if err := httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("metrics listener: %w", err)
	}
	return nil
}
