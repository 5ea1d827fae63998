// Package transport serves the configuration text protocol over TCP.
//
// Each connection is a line-oriented console: the server reads one line,
// dispatches it through the command manager, and reads the next line only
// after the command's completion callback has fired. The manager serializes
// dispatch across connections, so the engine's single-command-in-flight
// contract holds server-wide, not just per connection. All reply bytes for
// a command are written to the connection in order, with one outstanding
// write at a time.
package transport
