// Command permaconf-console is an interactive configuration console.
//
// It hosts the sample configuration groups (network, motor, uart) over a
// simulated flash region and accepts the text protocol on stdin:
//
//	conf enumerate
//	conf get <group>.<field>
//	conf set <group>.<field> <value>
//	conf write
//	conf load
//	conf default
//
// Usage:
//
//	permaconf-console [flags]
//
// Flags:
//
//	-flash string    Flash backend: mem or file (default "mem")
//	-path string     Flash image path for the file backend (default "permaconf.img")
//	-size int        Flash region size in bytes (default 4096)
//	-profile string  YAML profile applied over defaults at startup
//	-event-log string  Append engine events to this CBOR log file
package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/permaconf/permaconf-go/cmd/permaconf-console/interactive"
	"github.com/permaconf/permaconf-go/pkg/command"
	"github.com/permaconf/permaconf-go/pkg/conf"
	"github.com/permaconf/permaconf-go/pkg/examples"
	"github.com/permaconf/permaconf-go/pkg/flash"
	"github.com/permaconf/permaconf-go/pkg/log"
	"github.com/permaconf/permaconf-go/pkg/profile"
)

// Config holds the console configuration.
type Config struct {
	FlashBackend string
	FlashPath    string
	FlashSize    int
	ProfilePath  string
	EventLogPath string
}

var config Config

func init() {
	flag.StringVar(&config.FlashBackend, "flash", "mem", "Flash backend: mem or file")
	flag.StringVar(&config.FlashPath, "path", "permaconf.img", "Flash image path for the file backend")
	flag.IntVar(&config.FlashSize, "size", 4096, "Flash region size in bytes")
	flag.StringVar(&config.ProfilePath, "profile", "", "YAML profile applied over defaults at startup")
	flag.StringVar(&config.EventLogPath, "event-log", "", "Append engine events to this CBOR log file")
}

func main() {
	flag.Parse()

	fl, err := openFlash()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to open flash: %v\n", err)
		os.Exit(1)
	}

	mgr := command.NewManager()
	cfg := conf.New(mgr, fl)

	var eventLog *log.FileLogger
	if config.EventLogPath != "" {
		eventLog, err = log.NewFileLogger(config.EventLogPath)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Failed to open event log: %v\n", err)
			os.Exit(1)
		}
		defer eventLog.Close()
		cfg.SetLogger(eventLog)
	}

	cfg.Register("network", examples.NewNetwork().Handler(), nil)
	cfg.Register("motor", examples.NewMotor().Handler(), nil)
	cfg.Register("uart", examples.NewUART().Handler(), nil)

	if config.ProfilePath != "" {
		prof, err := profile.Load(config.ProfilePath)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Failed to load profile: %v\n", err)
			os.Exit(1)
		}
		if err := prof.Apply(cfg.Registry()); err != nil {
			fmt.Fprintf(os.Stderr, "Failed to apply profile: %v\n", err)
			os.Exit(1)
		}
	}

	// Pick up whatever a previous session persisted.
	cfg.Load()

	console, err := interactive.New(mgr, cfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to start console: %v\n", err)
		os.Exit(1)
	}
	console.Run()
}

func openFlash() (flash.Interface, error) {
	switch config.FlashBackend {
	case "mem":
		return flash.NewMem(config.FlashSize), nil
	case "file":
		return flash.NewFile(config.FlashPath, config.FlashSize)
	default:
		return nil, fmt.Errorf("unknown flash backend: %s", config.FlashBackend)
	}
}
