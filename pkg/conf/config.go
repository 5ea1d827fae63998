package conf

import (
	"bytes"
	"fmt"
	"time"

	"github.com/permaconf/permaconf-go/pkg/command"
	"github.com/permaconf/permaconf-go/pkg/flash"
	"github.com/permaconf/permaconf-go/pkg/group"
	"github.com/permaconf/permaconf-go/pkg/log"
	"github.com/permaconf/permaconf-go/pkg/record"
	"github.com/permaconf/permaconf-go/pkg/stream"
)

// CommandWord is the word the engine registers on the command dispatcher.
const CommandWord = "conf"

// sendBufferSize is the shared scratch buffer handlers format into. It is
// reused across enumerate steps; handlers must not retain it.
const sendBufferSize = 256

// Config is the persistence engine. Create it with New, register groups
// before serving commands, and drive it either through a command dispatcher
// or directly via Command, Load and Write.
type Config struct {
	flash    flash.Interface
	logger   log.Logger
	elements *Registry

	sendBuf []byte

	// Enumerate continuation state, valid only while an enumerate command
	// is in flight. One command in flight at a time by contract.
	enumResp  command.Response
	enumIndex int

	afterSet func()
}

// New creates an engine over the given flash region and registers its
// command handler under CommandWord.
func New(registry command.Registry, fl flash.Interface) *Config {
	c := &Config{
		flash:    fl,
		logger:   log.NoopLogger{},
		elements: NewRegistry(),
		sendBuf:  make([]byte, sendBufferSize),
	}
	registry.Register(CommandWord, c.Command)
	return c
}

// SetLogger configures event logging. Pass nil to disable.
func (c *Config) SetLogger(logger log.Logger) {
	if logger == nil {
		logger = log.NoopLogger{}
	}
	c.logger = logger
}

// SetUpdateHook registers a callback invoked after every successful set
// command, after the group's own Updated callback. Used by AutoSaver.
func (c *Config) SetUpdateHook(fn func()) {
	c.afterSet = fn
}

// Register adds a configuration group. Must be called before any command is
// served; duplicate names and capacity overflow panic.
func (c *Config) Register(name string, handler group.Handler, updated func()) {
	c.elements.Register(name, handler, updated)
}

// Registry exposes the registered elements for read-only iteration.
func (c *Config) Registry() *Registry {
	return c.elements
}

// Command serves one protocol line (the text after the command word).
func (c *Config) Command(args string, resp command.Response) {
	tokenizer := command.NewTokenizer(args, " ")
	verb := tokenizer.Next()

	c.logger.Log(log.Event{
		Timestamp: time.Now(),
		Category:  log.CategoryCommand,
		Verb:      verb,
	})

	switch verb {
	case "enumerate":
		c.enumerate(resp)
	case "get":
		c.get(tokenizer.Remaining(), resp)
	case "set":
		c.set(tokenizer.Remaining(), resp)
	case "load":
		c.Load()
		c.writeOK(resp)
	case "write":
		if err := c.Write(); err != nil {
			c.logger.Log(log.Event{
				Timestamp: time.Now(),
				Category:  log.CategoryError,
				Verb:      "write",
				Error:     err.Error(),
			})
		}
		c.writeOK(resp)
	case "default":
		c.setDefault(resp)
	default:
		c.writeMessage("ERR unknown subcommand\r\n", resp)
	}
}

// enumerate starts the per-group continuation at index 0.
func (c *Config) enumerate(resp command.Response) {
	c.enumResp = resp
	c.enumIndex = 0

	c.enumerateStep(nil)
}

// enumerateStep is the continuation: each completed group either aborts the
// command or advances to the next index. Reaching the end replies OK.
func (c *Config) enumerateStep(err error) {
	if err != nil {
		c.enumResp.Done(err)
		return
	}

	if c.enumIndex == c.elements.Len() {
		c.writeOK(c.enumResp)
		return
	}

	element := c.elements.At(c.enumIndex)
	c.enumIndex++

	element.Handler.Enumerate(c.sendBuf, element.Name, c.enumResp.Stream, c.enumerateStep)
}

func (c *Config) get(args string, resp command.Response) {
	tokenizer := command.NewTokenizer(args, ".")
	groupName := tokenizer.Next()

	element, ok := c.elements.Find(groupName)
	if !ok {
		c.writeMessage("ERR unknown group\r\n", resp)
		return
	}

	err := element.Handler.Read(tokenizer.Remaining(), c.sendBuf, resp.Stream, func(err error) {
		if err != nil {
			resp.Done(err)
			return
		}
		// The value plus trailing CRLF is the whole reply; no OK line.
		c.writeMessage("\r\n", resp)
	})
	if err != nil {
		c.writeMessage("ERR error reading\r\n", resp)
	}
}

func (c *Config) set(args string, resp command.Response) {
	tokenizer := command.NewTokenizer(args, ".")
	groupName := tokenizer.Next()

	element, ok := c.elements.Find(groupName)
	if !ok {
		c.writeMessage("ERR unknown group\r\n", resp)
		return
	}

	nameValue := command.NewTokenizer(tokenizer.Remaining(), " ")
	key := nameValue.Next()
	value := nameValue.Remaining()

	if err := element.Handler.Set(key, value); err != nil {
		c.logger.Log(log.Event{
			Timestamp: time.Now(),
			Category:  log.CategoryError,
			Verb:      "set",
			Group:     groupName,
			Field:     key,
			Error:     err.Error(),
		})
		c.writeMessage("ERR error setting\r\n", resp)
		return
	}

	element.Updated()
	if c.afterSet != nil {
		c.afterSet()
	}
	c.writeOK(resp)
}

func (c *Config) setDefault(resp command.Response) {
	for i := 0; i < c.elements.Len(); i++ {
		c.elements.At(i).Handler.SetDefault()
	}
	c.writeOK(resp)
}

// Load re-derives in-memory state from the flash image. It never fails:
// corruption ends the scan, unknown groups and schema drift skip their
// payloads, and handler decode errors are best effort. Every registered
// group's Updated callback fires once afterwards, in registration order,
// whether or not its record was found.
func (c *Config) Load() {
	scanner := record.NewScanner(c.flash.Read())

	for {
		rec, ok := scanner.Next()
		if !ok {
			break
		}

		element, found := c.elements.Find(rec.Name)
		if !found {
			c.logger.Log(log.Event{
				Timestamp: time.Now(),
				Category:  log.CategorySkip,
				Group:     rec.Name,
				Message:   "unknown group",
			})
			continue
		}

		if record.SchemaCRC(element.Handler) != rec.SchemaCRC {
			c.logger.Log(log.Event{
				Timestamp: time.Now(),
				Category:  log.CategorySkip,
				Group:     rec.Name,
				Message:   "schema mismatch",
			})
			continue
		}

		if err := element.Handler.ReadBinary(bytes.NewReader(rec.Data)); err != nil {
			c.logger.Log(log.Event{
				Timestamp: time.Now(),
				Category:  log.CategoryError,
				Verb:      "load",
				Group:     rec.Name,
				Error:     err.Error(),
			})
		}
	}

	for i := 0; i < c.elements.Len(); i++ {
		c.elements.At(i).Updated()
	}
}

// Write encodes every registered group onto the flash region: unlock, erase,
// one record per group in registration order, terminator, lock. The data
// length of each record comes from a size-counting dry run so nothing needs
// backpatching on the sequential stream. There is no rollback if a step
// fails mid-sequence; the region is re-locked either way.
func (c *Config) Write() error {
	if err := c.flash.Unlock(); err != nil {
		return fmt.Errorf("failed to unlock flash: %w", err)
	}

	err := c.writeImage()

	if lockErr := c.flash.Lock(); lockErr != nil && err == nil {
		err = fmt.Errorf("failed to lock flash: %w", lockErr)
	}

	if err == nil {
		c.logger.Log(log.Event{
			Timestamp: time.Now(),
			Category:  log.CategoryFlash,
			Verb:      "write",
			Message:   fmt.Sprintf("%d groups", c.elements.Len()),
		})
	}
	return err
}

func (c *Config) writeImage() error {
	if err := c.flash.Erase(); err != nil {
		return fmt.Errorf("failed to erase flash: %w", err)
	}

	flashWriter := c.flash.Writer()
	w := record.NewWriter(flashWriter)

	for i := 0; i < c.elements.Len(); i++ {
		element := c.elements.At(i)

		if err := w.WriteName(element.Name); err != nil {
			return err
		}
		if err := w.WriteUint32(record.SchemaCRC(element.Handler)); err != nil {
			return err
		}

		var counter stream.SizeCounter
		if err := element.Handler.WriteBinary(&counter); err != nil {
			return fmt.Errorf("failed to size %q payload: %w", element.Name, err)
		}
		if err := w.WriteUint32(uint32(counter.Size())); err != nil {
			return err
		}

		if err := element.Handler.WriteBinary(flashWriter); err != nil {
			return fmt.Errorf("failed to write %q payload: %w", element.Name, err)
		}
	}

	return w.WriteTerminator()
}

func (c *Config) writeOK(resp command.Response) {
	c.writeMessage("OK\r\n", resp)
}

func (c *Config) writeMessage(message string, resp command.Response) {
	resp.Stream.AsyncWrite([]byte(message), resp.Done)
}
