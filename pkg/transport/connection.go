package transport

import (
	"bufio"
	"net"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/permaconf/permaconf-go/pkg/command"
	"github.com/permaconf/permaconf-go/pkg/log"
)

// maxLineLen bounds an incoming command line.
const maxLineLen = 1024

// ServerConn is one console connection.
type ServerConn struct {
	server *Server
	conn   net.Conn
	id     string
}

func newServerConn(s *Server, conn net.Conn) *ServerConn {
	return &ServerConn{
		server: s,
		conn:   conn,
		id:     uuid.NewString(),
	}
}

// ID returns the connection's unique identifier.
func (c *ServerConn) ID() string {
	return c.id
}

// RemoteAddr returns the remote network address of the client.
func (c *ServerConn) RemoteAddr() net.Addr {
	return c.conn.RemoteAddr()
}

// Close closes the connection.
func (c *ServerConn) Close() error {
	return c.conn.Close()
}

// serve runs the connection's line loop. One command is in flight at a
// time: the next line is read only after the previous command completed.
func (c *ServerConn) serve() {
	defer c.conn.Close()

	writer := &connWriter{conn: c.conn}

	if c.server.config.Greeting != "" {
		sent := make(chan error, 1)
		writer.AsyncWrite([]byte(c.server.config.Greeting+"\r\n"), func(err error) { sent <- err })
		if <-sent != nil {
			return
		}
	}

	scanner := bufio.NewScanner(c.conn)
	scanner.Buffer(make([]byte, maxLineLen), maxLineLen)

	for scanner.Scan() {
		line := strings.TrimRight(scanner.Text(), "\r")
		if line == "" {
			continue
		}

		c.server.logger.Log(log.Event{
			Timestamp:    time.Now(),
			Category:     log.CategoryCommand,
			ConnectionID: c.id,
			Message:      line,
		})

		completed := make(chan error, 1)
		c.server.config.Manager.Dispatch(line, command.Response{
			Stream: writer,
			Done:   func(err error) { completed <- err },
		})

		if err := <-completed; err != nil {
			c.server.logger.Log(log.Event{
				Timestamp:    time.Now(),
				Category:     log.CategoryError,
				ConnectionID: c.id,
				Error:        err.Error(),
			})
			return
		}
	}
}

// connWriter adapts the socket to the engine's async stream. Writes are
// performed inline and complete synchronously; the per-connection command
// loop guarantees only one write is outstanding.
type connWriter struct {
	conn net.Conn
}

func (w *connWriter) AsyncWrite(data []byte, done func(error)) {
	_, err := w.conn.Write(data)
	done(err)
}
