// Command permaconf-server exposes a configuration console over TCP.
//
// It hosts the sample configuration groups (network, motor, uart) backed by
// a flash image file, accepts the text protocol from any number of TCP
// clients, periodically persists dirty state, and optionally advertises
// itself via mDNS.
//
// Usage:
//
//	permaconf-server [flags]
//
// Flags:
//
//	-addr string       Listen address (default ":7776")
//	-path string       Flash image path (default "permaconf.img")
//	-size int          Flash region size in bytes (default 4096)
//	-profile string    YAML profile applied over defaults at startup
//	-autosave duration Autosave interval, 0 disables (default 30s)
//	-mdns              Advertise the console via mDNS
//	-name string       mDNS instance name (default hostname-derived)
//	-log-level string  Log level: debug, info, warn, error (default "info")
//	-event-log string  Append engine events to this CBOR log file
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"net"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"

	"github.com/permaconf/permaconf-go/pkg/command"
	"github.com/permaconf/permaconf-go/pkg/conf"
	"github.com/permaconf/permaconf-go/pkg/discovery"
	"github.com/permaconf/permaconf-go/pkg/examples"
	"github.com/permaconf/permaconf-go/pkg/flash"
	"github.com/permaconf/permaconf-go/pkg/log"
	"github.com/permaconf/permaconf-go/pkg/profile"
	"github.com/permaconf/permaconf-go/pkg/transport"
	"github.com/permaconf/permaconf-go/pkg/version"
)

// Config holds the server configuration.
type Config struct {
	Address      string
	FlashPath    string
	FlashSize    int
	ProfilePath  string
	Autosave     time.Duration
	MDNS         bool
	InstanceName string
	LogLevel     string
	EventLogPath string
}

var config Config

func init() {
	flag.StringVar(&config.Address, "addr", fmt.Sprintf(":%d", transport.DefaultPort), "Listen address")
	flag.StringVar(&config.FlashPath, "path", "permaconf.img", "Flash image path")
	flag.IntVar(&config.FlashSize, "size", 4096, "Flash region size in bytes")
	flag.StringVar(&config.ProfilePath, "profile", "", "YAML profile applied over defaults at startup")
	flag.DurationVar(&config.Autosave, "autosave", conf.DefaultAutoSaveInterval, "Autosave interval, 0 disables")
	flag.BoolVar(&config.MDNS, "mdns", false, "Advertise the console via mDNS")
	flag.StringVar(&config.InstanceName, "name", "", "mDNS instance name (default hostname-derived)")
	flag.StringVar(&config.LogLevel, "log-level", "info", "Log level: debug, info, warn, error")
	flag.StringVar(&config.EventLogPath, "event-log", "", "Append engine events to this CBOR log file")
}

func main() {
	flag.Parse()

	logger := setupLogging(config.LogLevel)

	fl, err := flash.NewFile(config.FlashPath, config.FlashSize)
	if err != nil {
		logger.Error("failed to open flash image", "path", config.FlashPath, "error", err)
		os.Exit(1)
	}

	mgr := command.NewManager()
	cfg := conf.New(mgr, fl)

	engineLog, cleanup, err := setupEngineLog(logger)
	if err != nil {
		logger.Error("failed to open event log", "path", config.EventLogPath, "error", err)
		os.Exit(1)
	}
	defer cleanup()
	cfg.SetLogger(engineLog)

	cfg.Register("network", examples.NewNetwork().Handler(), nil)
	cfg.Register("motor", examples.NewMotor().Handler(), nil)
	cfg.Register("uart", examples.NewUART().Handler(), nil)

	if config.ProfilePath != "" {
		prof, err := profile.Load(config.ProfilePath)
		if err != nil {
			logger.Error("failed to load profile", "path", config.ProfilePath, "error", err)
			os.Exit(1)
		}
		if err := prof.Apply(cfg.Registry()); err != nil {
			logger.Error("failed to apply profile", "error", err)
			os.Exit(1)
		}
		logger.Info("applied profile", "path", config.ProfilePath)
	}

	cfg.Load()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var saver *conf.AutoSaver
	if config.Autosave > 0 {
		saver = conf.NewAutoSaver(cfg, config.Autosave)
		saver.Exclusive = mgr.Exclusive
		saver.OnError = func(err error) {
			logger.Warn("autosave failed", "error", err)
		}
		cfg.SetUpdateHook(saver.MarkDirty)
		saver.Start(ctx)
		logger.Info("autosave enabled", "interval", config.Autosave)
	}

	server, err := transport.NewServer(transport.ServerConfig{
		Address:  config.Address,
		Manager:  mgr,
		Greeting: fmt.Sprintf("permaconf %s", version.Current),
		Logger:   engineLog,
		OnConnect: func(conn *transport.ServerConn) {
			logger.Info("client connected", "id", conn.ID(), "remote", conn.RemoteAddr())
		},
		OnDisconnect: func(conn *transport.ServerConn) {
			logger.Info("client disconnected", "id", conn.ID())
		},
	})
	if err != nil {
		logger.Error("failed to create server", "error", err)
		os.Exit(1)
	}

	if err := server.Start(ctx); err != nil {
		logger.Error("failed to start server", "error", err)
		os.Exit(1)
	}
	logger.Info("listening", "addr", server.Addr().String())

	var advertiser discovery.Advertiser
	if config.MDNS {
		advertiser = discovery.NewMDNSAdvertiser(discovery.DefaultAdvertiserConfig())
		info := &discovery.Info{
			InstanceName: instanceName(),
			Port:         listenPort(server),
			DeviceID:     uuid.NewString(),
			Version:      version.Current,
			GroupCount:   cfg.Registry().Len(),
		}
		if err := advertiser.Advertise(ctx, info); err != nil {
			logger.Warn("mDNS advertise failed", "error", err)
		} else {
			logger.Info("advertising", "instance", info.InstanceName, "service", discovery.ServiceType)
		}
	}

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	sig := <-sigCh
	logger.Info("shutting down", "signal", sig.String())

	if advertiser != nil {
		advertiser.Stop()
	}
	if err := server.Stop(); err != nil {
		logger.Warn("error stopping server", "error", err)
	}
	if saver != nil {
		saver.Stop()
	} else if err := cfg.Write(); err != nil {
		logger.Warn("final write failed", "error", err)
	}
}

func setupLogging(level string) *slog.Logger {
	var lv slog.Level
	switch level {
	case "debug":
		lv = slog.LevelDebug
	case "warn":
		lv = slog.LevelWarn
	case "error":
		lv = slog.LevelError
	default:
		lv = slog.LevelInfo
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: lv}))
	slog.SetDefault(logger)
	return logger
}

// setupEngineLog builds the engine event logger: slog always, plus the CBOR
// file log when requested.
func setupEngineLog(logger *slog.Logger) (log.Logger, func(), error) {
	adapter := log.NewSlogAdapter(logger)
	if config.EventLogPath == "" {
		return adapter, func() {}, nil
	}
	fileLog, err := log.NewFileLogger(config.EventLogPath)
	if err != nil {
		return nil, nil, err
	}
	return log.NewMultiLogger(adapter, fileLog), func() { _ = fileLog.Close() }, nil
}

func instanceName() string {
	if config.InstanceName != "" {
		return config.InstanceName
	}
	host, err := os.Hostname()
	if err != nil {
		host = "permaconf"
	}
	return fmt.Sprintf("permaconf-%s", host)
}

// listenPort extracts the bound TCP port, falling back to the default when
// the address is not a TCP address.
func listenPort(server *transport.Server) int {
	if addr, ok := server.Addr().(*net.TCPAddr); ok {
		return addr.Port
	}
	return transport.DefaultPort
}
