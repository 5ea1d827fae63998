// Package interactive provides the interactive command loop for
// permaconf-console.
package interactive

import (
	"fmt"
	"io"
	"strings"

	"github.com/chzyer/readline"

	"github.com/permaconf/permaconf-go/pkg/command"
	"github.com/permaconf/permaconf-go/pkg/conf"
	"github.com/permaconf/permaconf-go/pkg/stream"
)

// Console handles interactive mode for permaconf-console.
type Console struct {
	mgr *command.Manager
	cfg *conf.Config
	rl  *readline.Instance
}

// New creates a new interactive console.
func New(mgr *command.Manager, cfg *conf.Config) (*Console, error) {
	rl, err := readline.NewEx(&readline.Config{
		Prompt:          "conf> ",
		InterruptPrompt: "^C",
		EOFPrompt:       "exit",
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create readline: %w", err)
	}

	return &Console{mgr: mgr, cfg: cfg, rl: rl}, nil
}

// Stdout returns a writer that coordinates with the readline prompt.
func (c *Console) Stdout() io.Writer {
	return c.rl.Stdout()
}

// Run starts the interactive command loop and blocks until the user exits.
func (c *Console) Run() {
	defer c.rl.Close()

	c.printHelp()

	for {
		line, err := c.rl.Readline()
		if err != nil {
			if err == readline.ErrInterrupt {
				continue
			}
			fmt.Fprintln(c.rl.Stdout(), "Exiting...")
			return
		}

		input := strings.TrimSpace(line)
		if input == "" {
			continue
		}

		switch strings.ToLower(strings.Fields(input)[0]) {
		case "help", "?":
			c.printHelp()

		case "groups":
			c.printGroups()

		case "quit", "exit", "q":
			fmt.Fprintln(c.rl.Stdout(), "Exiting...")
			return

		default:
			c.dispatch(input)
		}
	}
}

// dispatch hands a raw protocol line to the command manager and prints the
// reply. The manager completes synchronously over a terminal stream.
func (c *Console) dispatch(line string) {
	c.mgr.Dispatch(line, command.Response{
		Stream: stream.NewSyncWriter(c.rl.Stdout()),
		Done: func(err error) {
			if err != nil {
				fmt.Fprintf(c.rl.Stdout(), "stream error: %v\n", err)
			}
		},
	})
}

func (c *Console) printGroups() {
	reg := c.cfg.Registry()
	fmt.Fprintf(c.rl.Stdout(), "Registered groups (%d):\n", reg.Len())
	for i := 0; i < reg.Len(); i++ {
		fmt.Fprintf(c.rl.Stdout(), "  %s\n", reg.At(i).Name)
	}
}

func (c *Console) printHelp() {
	fmt.Fprintln(c.rl.Stdout(), `
Configuration Console Commands:
  Protocol:
    conf enumerate                 - List every field and value
    conf get <group>.<field>       - Read one field
    conf set <group>.<field> <val> - Set one field
    conf write                     - Persist all groups to flash
    conf load                      - Restore all groups from flash
    conf default                   - Reset all groups to defaults

  General:
    groups                         - List registered groups
    help                           - Show this help
    quit                           - Exit console`)
}
