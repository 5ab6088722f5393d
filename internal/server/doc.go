// Package server implements the relay board control socket.
//
// The server speaks a minimal HTTP-like protocol over plain TCP. Each
// connection carries exactly one request: the server performs a single read,
// decodes the first bytes with the protocol package, writes one response and
// closes the connection.
//
//	GET /j      -> application/json status document
//	GET /h<n>   -> switch relay n on,  "OK\n" or "FAIL\n"
//	GET /l<n>   -> switch relay n off, "OK\n" or "FAIL\n"
//	GET /       -> the board's HTML page
//
// Anything that does not start with "GET /" is dropped without a response.
//
// # Concurrency
//
// Connections are handled inline in the accept loop, one at a time. Relay
// state lives in a relay.Bank and the status document is read from a
// status.Publisher, both of which are safe to share with the publisher
// goroutine.
//
// # Shutdown
//
// Serve closes its listener when its context is cancelled and returns nil.
// An optional ConnTimeout bounds how long a silent client can hold the
// socket.
package server
